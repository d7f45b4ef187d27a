// internal/domain/checkout/repository_port.go
package checkout

import (
	"context"
	"time"
)

// IntentRepository persists payment intents, keyed by snapshotId.
//
// Storage (Firestore):
// - collection: paymentIntents
// - docId: snapshotId (one intent per snapshot)
//
// Durability requirement: records must survive process restarts for at
// least the gateway's callback window.
type IntentRepository interface {
	// GetBySnapshotID MUST return ErrIntentNotFound when absent.
	GetBySnapshotID(ctx context.Context, snapshotID string) (PaymentIntent, error)

	// Create fails if an intent already exists for the snapshot.
	Create(ctx context.Context, pi PaymentIntent) error

	Save(ctx context.Context, pi PaymentIntent) error

	// ListOpenedBefore returns intents still opened whose OpenedAt is
	// before cutoff (reconciler: callback-window expiry).
	ListOpenedBefore(ctx context.Context, cutoff time.Time) ([]PaymentIntent, error)

	// ListSucceededUnconsumed returns captured intents not yet matched
	// to a recorded order (reconciler: capture-without-order repair).
	ListSucceededUnconsumed(ctx context.Context) ([]PaymentIntent, error)
}

// SessionRepository persists checkout sessions, keyed by snapshotId.
//
// Storage (Firestore):
// - collection: checkoutSessions
// - docId: snapshotId
type SessionRepository interface {
	// GetBySnapshotID MUST return ErrSessionNotFound when absent.
	GetBySnapshotID(ctx context.Context, snapshotID string) (Session, error)

	// GetActiveByAccountID returns the non-terminal session for the
	// account, or ErrSessionNotFound when every session is terminal.
	GetActiveByAccountID(ctx context.Context, accountID string) (Session, error)

	Create(ctx context.Context, s Session) error
	Save(ctx context.Context, s Session) error
}

// SnapshotRepository persists checkout snapshots, keyed by snapshotId.
// A snapshot must outlive the process that captured it so an
// arbitrarily-delayed gateway callback can still build the order.
type SnapshotRepository interface {
	// GetBySnapshotID MUST return ErrInvalidSnapshot-wrapped not-found
	// semantics via ErrSnapshotNotFound.
	GetBySnapshotID(ctx context.Context, snapshotID string) (Snapshot, error)

	Create(ctx context.Context, s Snapshot) error
	Delete(ctx context.Context, snapshotID string) error
}
