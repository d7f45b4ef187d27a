// internal/domain/promo/repository_port.go
package promo

import "context"

// Repository is a persistence port for Promo.
//
// Storage (Firestore):
// - collection: promos
// - docId: promo id
// - codes are stored uppercase; lookup is by the "code" field
type Repository interface {
	// GetByCode returns the promo for code (case-insensitive).
	// MUST return ErrNotFound when no promo has the code.
	GetByCode(ctx context.Context, code string) (Promo, error)

	Create(ctx context.Context, p Promo) (Promo, error)
	Save(ctx context.Context, p Promo) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Promo, error)
}
