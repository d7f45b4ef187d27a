// internal/domain/order/repository_port.go
package order

import "context"

// Repository is a persistence port for Order.
//
// Storage (Firestore):
// - collection: orders
// - docId: order id
// - a unique mapping snapshotId -> orderId backs CreateIfAbsent
type Repository interface {
	// GetByID MUST return ErrNotFound when the order does not exist.
	GetByID(ctx context.Context, id string) (Order, error)

	// GetBySnapshotID MUST return ErrNotFound when no order was
	// created for the snapshot.
	GetBySnapshotID(ctx context.Context, snapshotID string) (Order, error)

	// ListByAccountID returns the account's orders, newest first.
	// page is 1-based; total is the unpaged count.
	ListByAccountID(ctx context.Context, accountID string, page, perPage int) (items []Order, total int, err error)

	// Create persists a new order. MUST return ErrConflict when an
	// order already exists for o.SnapshotID.
	Create(ctx context.Context, o Order) (Order, error)

	// CreateIfAbsent persists o unless an order already exists for its
	// snapshot, in which case the existing order is returned with
	// created=false. This is the idempotency primitive behind safe
	// re-attempts of order creation after a captured payment.
	CreateIfAbsent(ctx context.Context, o Order) (out Order, created bool, err error)

	// Save updates an existing order (status transitions).
	Save(ctx context.Context, o Order) error
}
