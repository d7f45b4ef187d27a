// internal/domain/cart/repository_port.go
package cart

import "context"

// Repository is a persistence port for Cart.
//
// Storage (Firestore):
// - collection: carts
// - docId: accountId
// - Firestore TTL configured on "expiresAt"
type Repository interface {
	// GetByAccountID returns the cart for the account.
	// Returns (nil, nil) when no cart exists; the application layer
	// treats nil as an empty cart.
	GetByAccountID(ctx context.Context, accountID string) (*Cart, error)

	// Upsert saves the cart (create or update).
	Upsert(ctx context.Context, c *Cart) error

	// DeleteByAccountID deletes the cart for the account.
	// Deleting an absent cart is not an error.
	DeleteByAccountID(ctx context.Context, accountID string) error
}
