// internal/adapters/out/firestore/promo_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	promodom "sodistore/internal/domain/promo"
)

// PromoRepositoryFS implements promo.Repository using Firestore.
//
// Collection design:
// - collection: promos
// - docId: promo id
// - "code" is unique by convention (admin creation checks first)
type PromoRepositoryFS struct {
	Client *firestore.Client
}

func NewPromoRepositoryFS(client *firestore.Client) *PromoRepositoryFS {
	return &PromoRepositoryFS{Client: client}
}

func (r *PromoRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("promos")
}

type promoDoc struct {
	Code            string    `firestore:"code"`
	DiscountPercent int       `firestore:"discountPercent"`
	Active          bool      `firestore:"active"`
	AccountID       string    `firestore:"accountId,omitempty"`
	ExpiresAt       time.Time `firestore:"expiresAt"`
	CreatedAt       time.Time `firestore:"createdAt"`
}

func promoDocFromDomain(p promodom.Promo) promoDoc {
	return promoDoc{
		Code:            p.Code,
		DiscountPercent: p.DiscountPercent,
		Active:          p.Active,
		AccountID:       p.AccountID,
		ExpiresAt:       p.ExpiresAt,
		CreatedAt:       p.CreatedAt,
	}
}

func (d promoDoc) toDomain(id string) promodom.Promo {
	return promodom.Promo{
		ID:              id,
		Code:            d.Code,
		DiscountPercent: d.DiscountPercent,
		Active:          d.Active,
		AccountID:       d.AccountID,
		ExpiresAt:       d.ExpiresAt,
		CreatedAt:       d.CreatedAt,
	}
}

func (r *PromoRepositoryFS) GetByCode(ctx context.Context, code string) (promodom.Promo, error) {
	if r == nil || r.Client == nil {
		return promodom.Promo{}, errors.New("promo_repository_fs: firestore client is nil")
	}

	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return promodom.Promo{}, promodom.ErrNotFound
	}

	it := r.col().Where("code", "==", c).Limit(1).Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) {
			return promodom.Promo{}, promodom.ErrNotFound
		}
		return promodom.Promo{}, err
	}

	var doc promoDoc
	if err := snap.DataTo(&doc); err != nil {
		return promodom.Promo{}, err
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (r *PromoRepositoryFS) Create(ctx context.Context, p promodom.Promo) (promodom.Promo, error) {
	if r == nil || r.Client == nil {
		return promodom.Promo{}, errors.New("promo_repository_fs: firestore client is nil")
	}
	if strings.TrimSpace(p.ID) == "" {
		return promodom.Promo{}, promodom.ErrInvalidPromo
	}
	_, err := r.col().Doc(p.ID).Create(ctx, promoDocFromDomain(p))
	if err != nil {
		return promodom.Promo{}, err
	}
	return p, nil
}

func (r *PromoRepositoryFS) Save(ctx context.Context, p promodom.Promo) error {
	if r == nil || r.Client == nil {
		return errors.New("promo_repository_fs: firestore client is nil")
	}
	if strings.TrimSpace(p.ID) == "" {
		return promodom.ErrInvalidPromo
	}
	_, err := r.col().Doc(p.ID).Set(ctx, promoDocFromDomain(p))
	return err
}

func (r *PromoRepositoryFS) Delete(ctx context.Context, promoID string) error {
	if r == nil || r.Client == nil {
		return errors.New("promo_repository_fs: firestore client is nil")
	}
	id := strings.TrimSpace(promoID)
	if id == "" {
		return promodom.ErrNotFound
	}
	_, err := r.col().Doc(id).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return promodom.ErrNotFound
	}
	return err
}

func (r *PromoRepositoryFS) List(ctx context.Context) ([]promodom.Promo, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("promo_repository_fs: firestore client is nil")
	}

	it := r.col().OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer it.Stop()

	var out []promodom.Promo
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var doc promoDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
	}
	return out, nil
}
