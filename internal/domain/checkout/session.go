// internal/domain/checkout/session.go
package checkout

import (
	"errors"
	"strings"
	"time"
)

// State is the orchestration state of one checkout attempt.
type State string

const (
	StateMethodSelection State = "method_selection"
	StateGatewayPending  State = "gateway_pending"
	StateDebitInProgress State = "debit_in_progress"
	StateOrderPersisting State = "order_persisting"
	StateCartReconciling State = "cart_reconciling"
	StateSettled         State = "settled"
	StateFailed          State = "failed"
)

// Terminal reports whether the state accepts no further transitions.
func (s State) Terminal() bool {
	return s == StateSettled || s == StateFailed
}

// FailureKind classifies terminal checkout failures.
type FailureKind string

const (
	FailureNone               FailureKind = ""
	FailureMissingAddress     FailureKind = "missing_shipping_address"
	FailurePromoInvalid       FailureKind = "promo_invalid_or_expired"
	FailureInsufficientFunds  FailureKind = "insufficient_funds"
	FailureGatewayDeclined    FailureKind = "gateway_declined"
	FailureGatewayTimeout     FailureKind = "gateway_timeout"
	FailureNetwork            FailureKind = "network_error"

	// FailurePersistAfterCapture is the critical kind: money moved at
	// the gateway but no order was recorded. It is never retried
	// inline; the reconciler owns recovery.
	FailurePersistAfterCapture FailureKind = "order_persistence_after_capture"
)

var (
	ErrInvalidSession  = errors.New("checkout: invalid session")
	ErrSessionTerminal = errors.New("checkout: session already terminal")
	ErrSessionNotFound = errors.New("checkout: session not found")
)

// Session tracks one checkout attempt from snapshot capture to its
// terminal event. At most one non-terminal session exists per account
// (the single-flight guarantee behind the disabled buy button).
type Session struct {
	SnapshotID  string
	AccountID   string
	Method      Method
	State       State
	OrderID     string
	FailureKind FailureKind
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewSession(s Snapshot, now time.Time) (Session, error) {
	sess := Session{
		SnapshotID: s.SnapshotID,
		AccountID:  s.AccountID,
		Method:     s.Method,
		State:      StateMethodSelection,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	if err := sess.validate(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Advance moves the session to next. Terminal sessions reject any
// transition; use Settle / Fail for terminal moves.
func (s *Session) Advance(next State, now time.Time) error {
	if s.State.Terminal() {
		return ErrSessionTerminal
	}
	if next.Terminal() {
		return ErrInvalidSession
	}
	s.State = next
	s.UpdatedAt = now.UTC()
	return nil
}

// Settle terminates the session successfully with the recorded order.
func (s *Session) Settle(orderID string, now time.Time) error {
	if s.State.Terminal() {
		return ErrSessionTerminal
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return ErrInvalidSession
	}
	s.State = StateSettled
	s.OrderID = orderID
	s.FailureKind = FailureNone
	s.UpdatedAt = now.UTC()
	return nil
}

// Recover settles a session that failed with
// FailurePersistAfterCapture once the recorded order finally exists.
// Every other terminal session is left as it is.
func (s *Session) Recover(orderID string, now time.Time) error {
	if s.State != StateFailed || s.FailureKind != FailurePersistAfterCapture {
		return ErrSessionTerminal
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return ErrInvalidSession
	}
	s.State = StateSettled
	s.OrderID = orderID
	s.FailureKind = FailureNone
	s.UpdatedAt = now.UTC()
	return nil
}

// Fail terminates the session with a failure kind. OrderID may be set
// when an order exists despite the failure (capture-without-order).
func (s *Session) Fail(kind FailureKind, orderID string, now time.Time) error {
	if s.State.Terminal() {
		return ErrSessionTerminal
	}
	if kind == FailureNone {
		return ErrInvalidSession
	}
	s.State = StateFailed
	s.FailureKind = kind
	s.OrderID = strings.TrimSpace(orderID)
	s.UpdatedAt = now.UTC()
	return nil
}

func (s Session) validate() error {
	if s.SnapshotID == "" || s.AccountID == "" {
		return ErrInvalidSession
	}
	if !s.Method.Valid() {
		return ErrInvalidSession
	}
	if s.CreatedAt.IsZero() {
		return ErrInvalidSession
	}
	return nil
}
