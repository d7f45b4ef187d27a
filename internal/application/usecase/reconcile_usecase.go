// internal/application/usecase/reconcile_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	checkoutdom "sodistore/internal/domain/checkout"
)

// ReconcileUsecase is the background repair loop for the checkout saga.
// It finishes captured-but-unconsumed intents (payment landed, order
// step did not complete) and expires intents whose gateway callback
// never arrived within the callback window.
type ReconcileUsecase struct {
	checkout *CheckoutUsecase
	intents  checkoutdom.IntentRepository
	sessions checkoutdom.SessionRepository
	window   time.Duration
	now      func() time.Time
}

func NewReconcileUsecase(checkout *CheckoutUsecase, intents checkoutdom.IntentRepository, sessions checkoutdom.SessionRepository, callbackWindow time.Duration) *ReconcileUsecase {
	if callbackWindow <= 0 {
		callbackWindow = 30 * time.Minute
	}
	return &ReconcileUsecase{
		checkout: checkout,
		intents:  intents,
		sessions: sessions,
		window:   callbackWindow,
		now:      time.Now,
	}
}

// NewReconcileUsecaseWithClock is useful for tests.
func NewReconcileUsecaseWithClock(checkout *CheckoutUsecase, intents checkoutdom.IntentRepository, sessions checkoutdom.SessionRepository, callbackWindow time.Duration, now func() time.Time) *ReconcileUsecase {
	r := NewReconcileUsecase(checkout, intents, sessions, callbackWindow)
	if now != nil {
		r.now = now
	}
	return r
}

// Run executes one full reconciliation pass.
func (r *ReconcileUsecase) Run(ctx context.Context) error {
	repaired, rErr := r.RepairCaptured(ctx)
	expired, eErr := r.ExpireStale(ctx)
	log.Printf("[reconcile_uc] pass done repaired=%d expired=%d", repaired, expired)
	if rErr != nil {
		return rErr
	}
	return eErr
}

// RepairCaptured re-drives the post-capture steps for every succeeded
// intent that was never consumed. Order creation is create-if-absent,
// so re-driving can never duplicate an order.
func (r *ReconcileUsecase) RepairCaptured(ctx context.Context) (int, error) {
	list, err := r.intents.ListSucceededUnconsumed(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	var firstErr error
	for _, pi := range list {
		res, err := r.checkout.CompleteCapturedIntent(ctx, pi.SnapshotID)
		if err != nil {
			log.Printf("[reconcile_uc] WARN repair failed snapshot=%s err=%v", pi.SnapshotID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		repaired++
		log.Printf("[reconcile_uc] repaired snapshot=%s order=%s", pi.SnapshotID, res.OrderID)
	}
	return repaired, firstErr
}

// ExpireStale fails every intent still opened past the callback
// window. The attempt terminates as a gateway timeout instead of
// lingering as an unpaid orphan.
func (r *ReconcileUsecase) ExpireStale(ctx context.Context) (int, error) {
	now := r.now()
	cutoff := now.Add(-r.window)

	list, err := r.intents.ListOpenedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	var firstErr error
	for _, pi := range list {
		if err := r.expireOne(ctx, pi); err != nil {
			log.Printf("[reconcile_uc] WARN expire failed snapshot=%s err=%v", pi.SnapshotID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		expired++
	}
	return expired, firstErr
}

func (r *ReconcileUsecase) expireOne(ctx context.Context, pi checkoutdom.PaymentIntent) error {
	now := r.now()

	if err := pi.MarkFailed("", now); err != nil {
		if errors.Is(err, checkoutdom.ErrIntentTerminal) {
			return nil
		}
		return err
	}
	if err := r.intents.Save(ctx, pi); err != nil {
		return err
	}

	sess, err := r.sessions.GetBySnapshotID(ctx, pi.SnapshotID)
	if err == nil && !sess.State.Terminal() {
		if fErr := sess.Fail(checkoutdom.FailureGatewayTimeout, "", now); fErr == nil {
			if sErr := r.sessions.Save(ctx, sess); sErr != nil {
				log.Printf("[reconcile_uc] WARN session save failed snapshot=%s err=%v", pi.SnapshotID, sErr)
			}
		}
	}

	r.checkout.terminateExpired(ctx, pi, now)
	log.Printf("[reconcile_uc] expired snapshot=%s intent=%s opened_at=%s", pi.SnapshotID, pi.IntentID, pi.OpenedAt.Format(time.RFC3339))
	return nil
}
