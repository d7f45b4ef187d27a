// internal/domain/shippingaddress/repository_port.go
package shippingaddress

import "context"

// Repository is a persistence port for shipping addresses.
//
// Storage (Firestore):
// - collection: shippingAddresses
// - docId: address id
// - queries filter on the "accountId" field
type Repository interface {
	// GetByID MUST return ErrNotFound when the address does not exist.
	GetByID(ctx context.Context, id string) (Address, error)

	// ListByAccountID returns all addresses owned by the account.
	ListByAccountID(ctx context.Context, accountID string) ([]Address, error)

	Create(ctx context.Context, a Address) (Address, error)
	Save(ctx context.Context, a Address) error
	Delete(ctx context.Context, id string) error
}
