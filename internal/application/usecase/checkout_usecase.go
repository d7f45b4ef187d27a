// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	cartdom "sodistore/internal/domain/cart"
	checkoutdom "sodistore/internal/domain/checkout"
	ledgerdom "sodistore/internal/domain/ledger"
	orderdom "sodistore/internal/domain/order"
	addrdom "sodistore/internal/domain/shippingaddress"
)

var (
	ErrCheckoutInvalidArgument = errors.New("checkout: invalid argument")

	// ErrCheckoutInFlight rejects StartCheckout while a previous
	// attempt for the same account has not reached a terminal state.
	ErrCheckoutInFlight = errors.New("checkout: another checkout is in flight")

	ErrCheckoutMissingAddress    = errors.New("checkout: no shipping address")
	ErrCheckoutEmptyCart         = errors.New("checkout: cart is empty")
	ErrCheckoutInsufficientFunds = errors.New("checkout: insufficient funds")
	ErrCheckoutGatewayDeclined   = errors.New("checkout: payment declined by gateway")
	ErrCheckoutGatewayOpenFailed = errors.New("checkout: could not open gateway payment")

	// ErrCheckoutPersistAfterCapture means money moved at the gateway
	// but order persistence failed. It is never retried inline; the
	// reconciler re-attempts create-if-absent against the intent.
	ErrCheckoutPersistAfterCapture = errors.New("checkout: payment captured but order not recorded")
)

// SettlementEvent is published on every terminal settlement outcome.
type SettlementEvent struct {
	Type       string    `json:"type"`
	SnapshotID string    `json:"snapshotId"`
	OrderID    string    `json:"orderId,omitempty"`
	AccountID  string    `json:"accountId"`
	Amount     int       `json:"amount"`
	Currency   string    `json:"currency"`
	Rail       string    `json:"rail"`
	At         time.Time `json:"at"`
}

const (
	EventSettled             = "settled"
	EventGatewayDeclined     = "gateway_declined"
	EventGatewayTimeout      = "gateway_timeout"
	EventCaptureUnreconciled = "capture_unreconciled"

	// EventCartUnreconciled marks a settled checkout whose cart clear
	// failed. The ledger debit is done and the order is paid, so the
	// settlement stands; consumers re-drive the idempotent cart clear.
	EventCartUnreconciled = "cart_unreconciled"
)

// SettlementEventPublisher is an outbound port (Kafka in production).
// A nil publisher disables publishing.
type SettlementEventPublisher interface {
	Publish(ctx context.Context, ev SettlementEvent) error
}

// Escalator raises an ops alert for failures that need a human or a
// background job (mail in production). A nil escalator disables alerts.
type Escalator interface {
	Escalate(ctx context.Context, subject, body string) error
}

// CheckoutMetrics records checkout outcomes. A nil value disables it.
type CheckoutMetrics interface {
	Started(method string)
	Settled(method string)
	Failed(kind string)
}

// CheckoutDeps wires the orchestrator's collaborators.
type CheckoutDeps struct {
	Carts     cartdom.Repository
	Addresses addrdom.Repository
	Orders    orderdom.Repository
	Ledger    ledgerdom.Service
	Gateway   checkoutdom.GatewayClient

	Intents   checkoutdom.IntentRepository
	Sessions  checkoutdom.SessionRepository
	Snapshots checkoutdom.SnapshotRepository

	Events    SettlementEventPublisher
	Escalator Escalator
	Metrics   CheckoutMetrics

	Currency string
}

// CheckoutUsecase owns the checkout state machine: it freezes a cart
// snapshot, settles through exactly one rail, guarantees at-most-once
// order creation, and reconciles the cart only on confirmed success.
type CheckoutUsecase struct {
	deps  CheckoutDeps
	now   func() time.Time
	newID func() string
}

func NewCheckoutUsecase(deps CheckoutDeps) *CheckoutUsecase {
	if deps.Currency == "" {
		deps.Currency = "XOF"
	}
	return &CheckoutUsecase{
		deps:  deps,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// NewCheckoutUsecaseWithClock is useful for tests.
func NewCheckoutUsecaseWithClock(deps CheckoutDeps, now func() time.Time, newID func() string) *CheckoutUsecase {
	u := NewCheckoutUsecase(deps)
	if now != nil {
		u.now = now
	}
	if newID != nil {
		u.newID = newID
	}
	return u
}

// StartInput begins one checkout attempt.
type StartInput struct {
	// ShippingAddressID selects an address; empty uses the default.
	ShippingAddressID string
	Method            checkoutdom.Method
	Payer             checkoutdom.Payer
}

// StartResult reports where the attempt ended up. For the gateway rail
// the result is non-terminal: the outcome arrives on the webhook.
type StartResult struct {
	SnapshotID string
	State      checkoutdom.State
	OrderID    string
	IntentID   string
	GatewayRef string
}

// Start runs the entry guard, freezes the snapshot and dispatches to
// the selected settlement rail.
func (u *CheckoutUsecase) Start(ctx context.Context, accountID string, in StartInput) (StartResult, error) {
	aid := strings.TrimSpace(accountID)
	if aid == "" || !in.Method.Valid() {
		return StartResult{}, ErrCheckoutInvalidArgument
	}

	// Single-flight: one non-terminal attempt per account.
	if _, err := u.deps.Sessions.GetActiveByAccountID(ctx, aid); err == nil {
		return StartResult{}, ErrCheckoutInFlight
	} else if !errors.Is(err, checkoutdom.ErrSessionNotFound) {
		return StartResult{}, err
	}

	// Entry guard: a shipping address must exist before anything else
	// happens (no snapshot, no external calls).
	addrID, err := u.resolveAddress(ctx, aid, in.ShippingAddressID)
	if err != nil {
		return StartResult{}, err
	}

	c, err := u.deps.Carts.GetByAccountID(ctx, aid)
	if err != nil {
		return StartResult{}, err
	}
	if c == nil || c.IsEmpty() {
		return StartResult{}, ErrCheckoutEmptyCart
	}

	now := u.now()
	snap, err := checkoutdom.NewSnapshot(u.newID(), aid, c, addrID, in.Method, u.deps.Currency, now)
	if err != nil {
		if errors.Is(err, checkoutdom.ErrEmptyCart) {
			return StartResult{}, ErrCheckoutEmptyCart
		}
		return StartResult{}, err
	}
	if err := u.deps.Snapshots.Create(ctx, snap); err != nil {
		return StartResult{}, err
	}

	sess, err := checkoutdom.NewSession(snap, now)
	if err != nil {
		return StartResult{}, err
	}
	if err := u.deps.Sessions.Create(ctx, sess); err != nil {
		return StartResult{}, err
	}

	u.metricStarted(string(in.Method))
	log.Printf("[checkout_uc] started snapshot=%s account=%s method=%s total=%d %s",
		snap.SnapshotID, maskID(aid), in.Method, snap.Totals.GrandTotal, snap.Currency)

	switch in.Method {
	case checkoutdom.MethodGateway:
		return u.startGatewayRail(ctx, snap, sess, in.Payer)
	default:
		return u.startCreditRail(ctx, snap, sess)
	}
}

// Status reports the current state of one checkout attempt.
func (u *CheckoutUsecase) Status(ctx context.Context, accountID, snapshotID string) (checkoutdom.Session, error) {
	aid := strings.TrimSpace(accountID)
	sid := strings.TrimSpace(snapshotID)
	if aid == "" || sid == "" {
		return checkoutdom.Session{}, ErrCheckoutInvalidArgument
	}
	sess, err := u.deps.Sessions.GetBySnapshotID(ctx, sid)
	if err != nil {
		return checkoutdom.Session{}, err
	}
	if sess.AccountID != aid {
		return checkoutdom.Session{}, checkoutdom.ErrSessionNotFound
	}
	return sess, nil
}

// resolveAddress picks the explicit address (with ownership check) or
// the account's default.
func (u *CheckoutUsecase) resolveAddress(ctx context.Context, accountID, addressID string) (string, error) {
	addressID = strings.TrimSpace(addressID)
	if addressID != "" {
		a, err := u.deps.Addresses.GetByID(ctx, addressID)
		if err != nil {
			if errors.Is(err, addrdom.ErrNotFound) {
				return "", ErrCheckoutMissingAddress
			}
			return "", err
		}
		if a.AccountID != accountID {
			return "", ErrCheckoutMissingAddress
		}
		return a.ID, nil
	}

	list, err := u.deps.Addresses.ListByAccountID(ctx, accountID)
	if err != nil {
		return "", err
	}
	a, ok := addrdom.PickDefault(list)
	if !ok {
		return "", ErrCheckoutMissingAddress
	}
	return a.ID, nil
}

// ------------------------------------------------------------
// External gateway rail
// ------------------------------------------------------------

// startGatewayRail persists the intent BEFORE opening the gateway, so a
// captured payment always has a durable record to reconcile against.
func (u *CheckoutUsecase) startGatewayRail(ctx context.Context, snap checkoutdom.Snapshot, sess checkoutdom.Session, payer checkoutdom.Payer) (StartResult, error) {
	now := u.now()

	pi, err := checkoutdom.NewPaymentIntent(u.newID(), snap, now)
	if err != nil {
		return StartResult{}, err
	}
	if err := u.deps.Intents.Create(ctx, pi); err != nil {
		return StartResult{}, err
	}

	if err := sess.Advance(checkoutdom.StateGatewayPending, now); err != nil {
		return StartResult{}, err
	}
	if err := u.deps.Sessions.Save(ctx, sess); err != nil {
		return StartResult{}, err
	}

	ref, err := u.deps.Gateway.Open(ctx, checkoutdom.OpenRequest{
		IntentID:   pi.IntentID,
		SnapshotID: snap.SnapshotID,
		Amount:     pi.Amount,
		Currency:   pi.Currency,
		Payer:      payer,
	})
	if err != nil {
		// Nothing was captured: fail the attempt cleanly.
		now = u.now()
		_ = pi.MarkFailed("", now)
		if sErr := u.deps.Intents.Save(ctx, pi); sErr != nil {
			log.Printf("[checkout_uc] WARN intent save failed snapshot=%s err=%v", snap.SnapshotID, sErr)
		}
		u.terminateFailed(ctx, &sess, checkoutdom.FailureNetwork, "", snap)
		log.Printf("[checkout_uc] gateway open failed snapshot=%s err=%v", snap.SnapshotID, err)
		return StartResult{}, fmt.Errorf("%w: %v", ErrCheckoutGatewayOpenFailed, err)
	}

	if ref != "" {
		pi.GatewayRef = ref
		if err := u.deps.Intents.Save(ctx, pi); err != nil {
			log.Printf("[checkout_uc] WARN intent ref save failed snapshot=%s err=%v", snap.SnapshotID, err)
		}
	}

	log.Printf("[checkout_uc] gateway opened snapshot=%s intent=%s ref=%s amount=%d",
		snap.SnapshotID, pi.IntentID, ref, pi.Amount)

	return StartResult{
		SnapshotID: snap.SnapshotID,
		State:      checkoutdom.StateGatewayPending,
		IntentID:   pi.IntentID,
		GatewayRef: ref,
	}, nil
}

// GatewayOutcome is the webhook-delivered result of an opened payment.
type GatewayOutcome struct {
	SnapshotID string
	GatewayRef string
	Succeeded  bool
}

// HandleGatewayOutcome applies exactly one outcome to the intent
// correlated by snapshotId. It resolves everything against the stored
// snapshot, never the live cart; a duplicate delivery for a terminal
// intent is a no-op.
func (u *CheckoutUsecase) HandleGatewayOutcome(ctx context.Context, oc GatewayOutcome) (StartResult, error) {
	sid := strings.TrimSpace(oc.SnapshotID)
	if sid == "" {
		return StartResult{}, ErrCheckoutInvalidArgument
	}

	pi, err := u.deps.Intents.GetBySnapshotID(ctx, sid)
	if err != nil {
		return StartResult{}, err
	}
	if pi.Terminal() {
		log.Printf("[checkout_uc] duplicate outcome ignored snapshot=%s status=%s", sid, pi.Status)
		return u.resultForSession(ctx, sid), nil
	}

	sess, err := u.deps.Sessions.GetBySnapshotID(ctx, sid)
	if err != nil {
		return StartResult{}, err
	}

	now := u.now()

	if !oc.Succeeded {
		if pi.Status != checkoutdom.IntentOpened {
			// A declined notification after a recorded capture is a
			// conflicting duplicate; the capture wins.
			log.Printf("[checkout_uc] late decline ignored snapshot=%s status=%s", sid, pi.Status)
			return u.resultForSession(ctx, sid), nil
		}
		if err := pi.MarkFailed(oc.GatewayRef, now); err != nil {
			return StartResult{}, err
		}
		if err := u.deps.Intents.Save(ctx, pi); err != nil {
			return StartResult{}, err
		}
		u.terminateFailed(ctx, &sess, checkoutdom.FailureGatewayDeclined, "", u.snapshotForEvent(ctx, sid, pi))
		u.publish(ctx, SettlementEvent{
			Type: EventGatewayDeclined, SnapshotID: sid, AccountID: pi.AccountID,
			Amount: pi.Amount, Currency: pi.Currency, Rail: string(checkoutdom.MethodGateway), At: now.UTC(),
		})
		log.Printf("[checkout_uc] gateway declined snapshot=%s ref=%s", sid, oc.GatewayRef)
		return StartResult{SnapshotID: sid, State: checkoutdom.StateFailed}, ErrCheckoutGatewayDeclined
	}

	// Record the capture durably before anything else can fail.
	if pi.Status == checkoutdom.IntentOpened {
		if err := pi.MarkSucceeded(oc.GatewayRef, now); err != nil {
			return StartResult{}, err
		}
		if err := u.deps.Intents.Save(ctx, pi); err != nil {
			return StartResult{}, err
		}
	}

	return u.completeCapturedIntent(ctx, pi, &sess)
}

// CompleteCapturedIntent finishes a captured-but-unconsumed intent:
// create-if-absent order, cart reconciliation, intent consumption.
// Safe to call repeatedly; the reconciler uses it for repair.
func (u *CheckoutUsecase) CompleteCapturedIntent(ctx context.Context, snapshotID string) (StartResult, error) {
	sid := strings.TrimSpace(snapshotID)
	if sid == "" {
		return StartResult{}, ErrCheckoutInvalidArgument
	}

	pi, err := u.deps.Intents.GetBySnapshotID(ctx, sid)
	if err != nil {
		return StartResult{}, err
	}
	if pi.Status != checkoutdom.IntentSucceeded {
		return StartResult{}, checkoutdom.ErrIntentTerminal
	}

	sess, err := u.deps.Sessions.GetBySnapshotID(ctx, sid)
	if err != nil {
		return StartResult{}, err
	}
	return u.completeCapturedIntent(ctx, pi, &sess)
}

func (u *CheckoutUsecase) completeCapturedIntent(ctx context.Context, pi checkoutdom.PaymentIntent, sess *checkoutdom.Session) (StartResult, error) {
	sid := pi.SnapshotID
	now := u.now()

	if !sess.State.Terminal() {
		if err := sess.Advance(checkoutdom.StateOrderPersisting, now); err != nil {
			return StartResult{}, err
		}
		if err := u.deps.Sessions.Save(ctx, *sess); err != nil {
			return StartResult{}, err
		}
	}

	// The order request is built strictly from the stored snapshot;
	// the live cart may have changed arbitrarily since the capture.
	snap, err := u.deps.Snapshots.GetBySnapshotID(ctx, sid)
	if err != nil {
		if errors.Is(err, checkoutdom.ErrSnapshotNotFound) {
			// The order may already exist from an earlier attempt.
			if o, oErr := u.deps.Orders.GetBySnapshotID(ctx, sid); oErr == nil {
				return u.finishSettlement(ctx, pi, sess, o)
			}
			u.escalateCapture(ctx, pi, "checkout snapshot missing for captured payment")
			u.failPersistAfterCapture(ctx, sess, pi)
			return StartResult{SnapshotID: sid, State: checkoutdom.StateFailed}, ErrCheckoutPersistAfterCapture
		}
		return StartResult{}, err
	}

	o, err := orderdom.FromSnapshot(u.newID(), snap, orderdom.StatusPaid, now)
	if err != nil {
		return StartResult{}, err
	}
	out, created, err := u.deps.Orders.CreateIfAbsent(ctx, o)
	if err != nil {
		// Money moved, order not recorded. Do NOT retry blindly here:
		// the succeeded intent stays unconsumed and the reconciler
		// re-attempts create-if-absent without risking duplicates.
		u.escalateCapture(ctx, pi, fmt.Sprintf("order persistence failed: %v", err))
		u.publish(ctx, SettlementEvent{
			Type: EventCaptureUnreconciled, SnapshotID: sid, AccountID: pi.AccountID,
			Amount: pi.Amount, Currency: pi.Currency, Rail: string(checkoutdom.MethodGateway), At: now.UTC(),
		})
		u.failPersistAfterCapture(ctx, sess, pi)
		log.Printf("[checkout_uc] CRITICAL capture without order snapshot=%s intent=%s err=%v", sid, pi.IntentID, err)
		return StartResult{SnapshotID: sid, State: checkoutdom.StateFailed}, ErrCheckoutPersistAfterCapture
	}
	if !created {
		log.Printf("[checkout_uc] order already recorded snapshot=%s order=%s", sid, out.ID)
	}

	return u.finishSettlement(ctx, pi, sess, out)
}

// finishSettlement reconciles the cart, consumes the intent and settles
// the session. Every step is idempotent; a failure leaves the intent
// unconsumed so the reconciler can finish later.
func (u *CheckoutUsecase) finishSettlement(ctx context.Context, pi checkoutdom.PaymentIntent, sess *checkoutdom.Session, o orderdom.Order) (StartResult, error) {
	now := u.now()
	sid := pi.SnapshotID

	if !sess.State.Terminal() {
		if err := sess.Advance(checkoutdom.StateCartReconciling, now); err != nil {
			return StartResult{}, err
		}
		if err := u.deps.Sessions.Save(ctx, *sess); err != nil {
			return StartResult{}, err
		}
	}

	if err := u.reconcileCart(ctx, pi.AccountID); err != nil {
		log.Printf("[checkout_uc] WARN cart reconcile failed snapshot=%s err=%v (left for reconciler)", sid, err)
		return StartResult{SnapshotID: sid, State: sess.State, OrderID: o.ID}, err
	}

	if pi.Status == checkoutdom.IntentSucceeded {
		if err := pi.MarkConsumed(now); err != nil {
			return StartResult{}, err
		}
		if err := u.deps.Intents.Save(ctx, pi); err != nil {
			return StartResult{}, err
		}
	}

	switch {
	case !sess.State.Terminal():
		if err := sess.Settle(o.ID, now); err != nil {
			return StartResult{}, err
		}
		if err := u.deps.Sessions.Save(ctx, *sess); err != nil {
			return StartResult{}, err
		}
	case sess.FailureKind == checkoutdom.FailurePersistAfterCapture:
		// The reconciler recovered a capture that had failed to
		// persist; the status surface must report the order now.
		if err := sess.Recover(o.ID, now); err != nil {
			return StartResult{}, err
		}
		if err := u.deps.Sessions.Save(ctx, *sess); err != nil {
			return StartResult{}, err
		}
	}

	if err := u.deps.Snapshots.Delete(ctx, sid); err != nil {
		log.Printf("[checkout_uc] WARN snapshot delete failed snapshot=%s err=%v", sid, err)
	}

	u.publish(ctx, SettlementEvent{
		Type: EventSettled, SnapshotID: sid, OrderID: o.ID, AccountID: pi.AccountID,
		Amount: pi.Amount, Currency: pi.Currency, Rail: string(checkoutdom.MethodGateway), At: now.UTC(),
	})
	u.metricSettled(string(checkoutdom.MethodGateway))
	log.Printf("[checkout_uc] settled snapshot=%s order=%s amount=%d %s", sid, o.ID, pi.Amount, pi.Currency)

	return StartResult{SnapshotID: sid, State: checkoutdom.StateSettled, OrderID: o.ID}, nil
}

// ------------------------------------------------------------
// Internal credit rail
// ------------------------------------------------------------

// startCreditRail creates the pending order first (the ledger debit
// operates on an order id), then applies the strict non-splitting
// debit policy: commission covers the full amount, else wallet covers
// the full amount, else insufficient. Balances are never combined.
func (u *CheckoutUsecase) startCreditRail(ctx context.Context, snap checkoutdom.Snapshot, sess checkoutdom.Session) (StartResult, error) {
	now := u.now()

	if err := sess.Advance(checkoutdom.StateDebitInProgress, now); err != nil {
		return StartResult{}, err
	}
	if err := u.deps.Sessions.Save(ctx, sess); err != nil {
		return StartResult{}, err
	}

	o, err := orderdom.FromSnapshot(u.newID(), snap, orderdom.StatusPending, now)
	if err != nil {
		return StartResult{}, err
	}
	o, err = u.deps.Orders.Create(ctx, o)
	if err != nil {
		u.terminateFailed(ctx, &sess, checkoutdom.FailureNetwork, "", snap)
		return StartResult{}, err
	}

	total := snap.Totals.GrandTotal
	aid := snap.AccountID

	balances, err := u.deps.Ledger.GetBalances(ctx, aid)
	if err != nil && !errors.Is(err, ledgerdom.ErrNotFound) {
		u.cancelPendingOrder(ctx, &o)
		u.terminateFailed(ctx, &sess, checkoutdom.FailureNetwork, o.ID, snap)
		return StartResult{}, err
	}

	var debitErr error
	var source ledgerdom.Source
	switch {
	case balances.CommissionBalance >= total:
		source = ledgerdom.SourceCommission
		debitErr = u.deps.Ledger.DebitCommission(ctx, aid, total, o.ID)
	case balances.WalletBalance >= total:
		source = ledgerdom.SourceWallet
		debitErr = u.deps.Ledger.DebitWallet(ctx, aid, total, o.ID)
	default:
		debitErr = ledgerdom.ErrInsufficientFunds
	}

	if debitErr != nil {
		// The pre-created order must not linger as an unpaid orphan:
		// cancel it explicitly before surfacing the failure.
		u.cancelPendingOrder(ctx, &o)
		if errors.Is(debitErr, ledgerdom.ErrInsufficientFunds) {
			u.terminateFailed(ctx, &sess, checkoutdom.FailureInsufficientFunds, o.ID, snap)
			log.Printf("[checkout_uc] insufficient funds snapshot=%s total=%d commission=%d wallet=%d",
				snap.SnapshotID, total, balances.CommissionBalance, balances.WalletBalance)
			return StartResult{SnapshotID: snap.SnapshotID, State: checkoutdom.StateFailed}, ErrCheckoutInsufficientFunds
		}
		u.terminateFailed(ctx, &sess, checkoutdom.FailureNetwork, o.ID, snap)
		return StartResult{}, debitErr
	}

	now = u.now()
	if err := o.MarkPaid(now); err != nil {
		return StartResult{}, err
	}
	if err := u.deps.Orders.Save(ctx, o); err != nil {
		return StartResult{}, err
	}

	if err := sess.Advance(checkoutdom.StateCartReconciling, now); err != nil {
		return StartResult{}, err
	}
	if err := u.deps.Sessions.Save(ctx, sess); err != nil {
		return StartResult{}, err
	}
	if err := u.reconcileCart(ctx, aid); err != nil {
		// The debit is done and the order is paid; the settlement
		// stands. Announce the stale cart so it gets re-cleared.
		log.Printf("[checkout_uc] WARN cart reconcile failed snapshot=%s err=%v", snap.SnapshotID, err)
		u.publish(ctx, SettlementEvent{
			Type: EventCartUnreconciled, SnapshotID: snap.SnapshotID, OrderID: o.ID, AccountID: aid,
			Amount: total, Currency: snap.Currency, Rail: string(checkoutdom.MethodCredit), At: now.UTC(),
		})
	}

	if err := sess.Settle(o.ID, now); err != nil {
		return StartResult{}, err
	}
	if err := u.deps.Sessions.Save(ctx, sess); err != nil {
		return StartResult{}, err
	}
	if err := u.deps.Snapshots.Delete(ctx, snap.SnapshotID); err != nil {
		log.Printf("[checkout_uc] WARN snapshot delete failed snapshot=%s err=%v", snap.SnapshotID, err)
	}

	u.publish(ctx, SettlementEvent{
		Type: EventSettled, SnapshotID: snap.SnapshotID, OrderID: o.ID, AccountID: aid,
		Amount: total, Currency: snap.Currency, Rail: string(checkoutdom.MethodCredit), At: now.UTC(),
	})
	u.metricSettled(string(checkoutdom.MethodCredit))
	log.Printf("[checkout_uc] settled snapshot=%s order=%s source=%s amount=%d %s",
		snap.SnapshotID, o.ID, source, total, snap.Currency)

	return StartResult{SnapshotID: snap.SnapshotID, State: checkoutdom.StateSettled, OrderID: o.ID}, nil
}

// ------------------------------------------------------------
// Shared steps
// ------------------------------------------------------------

// reconcileCart clears the cart lines, totals and promo. Idempotent:
// an absent or already-empty cart clears without error.
func (u *CheckoutUsecase) reconcileCart(ctx context.Context, accountID string) error {
	c, err := u.deps.Carts.GetByAccountID(ctx, accountID)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	if err := c.Clear(u.now()); err != nil {
		return err
	}
	return u.deps.Carts.Upsert(ctx, c)
}

func (u *CheckoutUsecase) cancelPendingOrder(ctx context.Context, o *orderdom.Order) {
	if err := o.Cancel(u.now()); err != nil {
		log.Printf("[checkout_uc] WARN cancel order %s: %v", o.ID, err)
		return
	}
	if err := u.deps.Orders.Save(ctx, *o); err != nil {
		log.Printf("[checkout_uc] WARN cancel order save %s: %v", o.ID, err)
	}
}

// terminateFailed fails the session, drops the snapshot and counts the
// failure. Best-effort: terminal bookkeeping never masks the original
// error.
func (u *CheckoutUsecase) terminateFailed(ctx context.Context, sess *checkoutdom.Session, kind checkoutdom.FailureKind, orderID string, snap checkoutdom.Snapshot) {
	now := u.now()
	if !sess.State.Terminal() {
		if err := sess.Fail(kind, orderID, now); err == nil {
			if err := u.deps.Sessions.Save(ctx, *sess); err != nil {
				log.Printf("[checkout_uc] WARN session save failed snapshot=%s err=%v", sess.SnapshotID, err)
			}
		}
	}
	if snap.SnapshotID != "" {
		if err := u.deps.Snapshots.Delete(ctx, snap.SnapshotID); err != nil {
			log.Printf("[checkout_uc] WARN snapshot delete failed snapshot=%s err=%v", snap.SnapshotID, err)
		}
	}
	u.metricFailed(string(kind))
}

// failPersistAfterCapture terminates the session with the critical
// capture-without-order kind. The snapshot and intent are deliberately
// kept for the reconciler.
func (u *CheckoutUsecase) failPersistAfterCapture(ctx context.Context, sess *checkoutdom.Session, pi checkoutdom.PaymentIntent) {
	now := u.now()
	if !sess.State.Terminal() {
		if err := sess.Fail(checkoutdom.FailurePersistAfterCapture, "", now); err == nil {
			if err := u.deps.Sessions.Save(ctx, *sess); err != nil {
				log.Printf("[checkout_uc] WARN session save failed snapshot=%s err=%v", sess.SnapshotID, err)
			}
		}
	}
	u.metricFailed(string(checkoutdom.FailurePersistAfterCapture))
}

// terminateExpired finishes the bookkeeping for a timed-out intent:
// snapshot drop, timeout event, failure metric.
func (u *CheckoutUsecase) terminateExpired(ctx context.Context, pi checkoutdom.PaymentIntent, now time.Time) {
	if err := u.deps.Snapshots.Delete(ctx, pi.SnapshotID); err != nil {
		log.Printf("[checkout_uc] WARN snapshot delete failed snapshot=%s err=%v", pi.SnapshotID, err)
	}
	u.publish(ctx, SettlementEvent{
		Type: EventGatewayTimeout, SnapshotID: pi.SnapshotID, AccountID: pi.AccountID,
		Amount: pi.Amount, Currency: pi.Currency, Rail: string(checkoutdom.MethodGateway), At: now.UTC(),
	})
	u.metricFailed(string(checkoutdom.FailureGatewayTimeout))
}

func (u *CheckoutUsecase) escalateCapture(ctx context.Context, pi checkoutdom.PaymentIntent, reason string) {
	if u.deps.Escalator == nil {
		return
	}
	subject := "captured payment without recorded order"
	body := fmt.Sprintf(
		"snapshotId: %s\nintentId: %s\naccountId: %s\namount: %d %s\ngatewayRef: %s\nreason: %s\n",
		pi.SnapshotID, pi.IntentID, pi.AccountID, pi.Amount, pi.Currency, pi.GatewayRef, reason,
	)
	if err := u.deps.Escalator.Escalate(ctx, subject, body); err != nil {
		log.Printf("[checkout_uc] WARN escalation failed snapshot=%s err=%v", pi.SnapshotID, err)
	}
}

func (u *CheckoutUsecase) publish(ctx context.Context, ev SettlementEvent) {
	if u.deps.Events == nil {
		return
	}
	if err := u.deps.Events.Publish(ctx, ev); err != nil {
		log.Printf("[checkout_uc] WARN event publish failed type=%s snapshot=%s err=%v", ev.Type, ev.SnapshotID, err)
	}
}

// snapshotForEvent loads the snapshot best-effort for terminal
// bookkeeping; a zero snapshot is fine for failure paths.
func (u *CheckoutUsecase) snapshotForEvent(ctx context.Context, snapshotID string, pi checkoutdom.PaymentIntent) checkoutdom.Snapshot {
	snap, err := u.deps.Snapshots.GetBySnapshotID(ctx, snapshotID)
	if err != nil {
		return checkoutdom.Snapshot{SnapshotID: snapshotID, AccountID: pi.AccountID}
	}
	return snap
}

func (u *CheckoutUsecase) resultForSession(ctx context.Context, snapshotID string) StartResult {
	sess, err := u.deps.Sessions.GetBySnapshotID(ctx, snapshotID)
	if err != nil {
		return StartResult{SnapshotID: snapshotID}
	}
	return StartResult{SnapshotID: snapshotID, State: sess.State, OrderID: sess.OrderID}
}

func (u *CheckoutUsecase) metricStarted(method string) {
	if u.deps.Metrics != nil {
		u.deps.Metrics.Started(method)
	}
}

func (u *CheckoutUsecase) metricSettled(method string) {
	if u.deps.Metrics != nil {
		u.deps.Metrics.Settled(method)
	}
}

func (u *CheckoutUsecase) metricFailed(kind string) {
	if u.deps.Metrics != nil {
		u.deps.Metrics.Failed(kind)
	}
}
