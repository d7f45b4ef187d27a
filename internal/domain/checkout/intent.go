// internal/domain/checkout/intent.go
package checkout

import (
	"errors"
	"strings"
	"time"
)

type IntentStatus string

const (
	IntentOpened    IntentStatus = "opened"
	IntentSucceeded IntentStatus = "succeeded"
	IntentFailed    IntentStatus = "failed"

	// IntentConsumed means the captured payment has been matched to a
	// recorded order and the cart reconciled. A consumed intent is
	// fully terminal; duplicate callbacks against it are no-ops.
	IntentConsumed IntentStatus = "consumed"
)

var (
	ErrInvalidIntent  = errors.New("checkout: invalid payment intent")
	ErrIntentTerminal = errors.New("checkout: payment intent already terminal")
	ErrIntentNotFound = errors.New("checkout: payment intent not found")
)

// PaymentIntent correlates an opened external payment to the snapshot
// that initiated it. It is durable for the whole callback window,
// independent of any UI or process lifetime.
type PaymentIntent struct {
	IntentID   string
	SnapshotID string
	AccountID  string
	Amount     int
	Currency   string
	Status     IntentStatus

	// GatewayRef is the transaction reference reported by the gateway
	// callback (empty until an outcome arrives).
	GatewayRef string

	OpenedAt  time.Time
	UpdatedAt time.Time
}

// NewPaymentIntent opens an intent for snapshot settlement.
func NewPaymentIntent(intentID string, s Snapshot, now time.Time) (PaymentIntent, error) {
	pi := PaymentIntent{
		IntentID:   strings.TrimSpace(intentID),
		SnapshotID: s.SnapshotID,
		AccountID:  s.AccountID,
		Amount:     s.Totals.GrandTotal,
		Currency:   s.Currency,
		Status:     IntentOpened,
		OpenedAt:   now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	if err := pi.validate(); err != nil {
		return PaymentIntent{}, err
	}
	return pi, nil
}

// Terminal reports whether no further outcome may be applied.
func (pi PaymentIntent) Terminal() bool {
	return pi.Status == IntentFailed || pi.Status == IntentConsumed
}

// MarkSucceeded records a successful capture. Only an opened intent may
// succeed; re-delivery of an outcome returns ErrIntentTerminal.
func (pi *PaymentIntent) MarkSucceeded(gatewayRef string, now time.Time) error {
	if pi.Status != IntentOpened {
		return ErrIntentTerminal
	}
	pi.Status = IntentSucceeded
	pi.GatewayRef = strings.TrimSpace(gatewayRef)
	pi.UpdatedAt = now.UTC()
	return nil
}

// MarkFailed records a declined or timed-out payment.
func (pi *PaymentIntent) MarkFailed(gatewayRef string, now time.Time) error {
	if pi.Status != IntentOpened {
		return ErrIntentTerminal
	}
	pi.Status = IntentFailed
	pi.GatewayRef = strings.TrimSpace(gatewayRef)
	pi.UpdatedAt = now.UTC()
	return nil
}

// MarkConsumed finishes a succeeded intent after its order is recorded
// and the cart reconciled.
func (pi *PaymentIntent) MarkConsumed(now time.Time) error {
	if pi.Status != IntentSucceeded {
		return ErrIntentTerminal
	}
	pi.Status = IntentConsumed
	pi.UpdatedAt = now.UTC()
	return nil
}

func (pi PaymentIntent) validate() error {
	if pi.IntentID == "" || pi.SnapshotID == "" || pi.AccountID == "" {
		return ErrInvalidIntent
	}
	if pi.Amount <= 0 || pi.Currency == "" {
		return ErrInvalidIntent
	}
	if pi.OpenedAt.IsZero() {
		return ErrInvalidIntent
	}
	return nil
}
