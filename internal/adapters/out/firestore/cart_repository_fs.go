// internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "sodistore/internal/domain/cart"
)

// CartRepositoryFS implements cart.Repository using Firestore.
//
// Collection design:
// - collection: carts
// - docId: accountId (docId is the source of truth)
// - fields: lines(array), promo(map), totals(map), timestamps
//
// TTL:
// - Configure Firestore TTL on "expiresAt".
type CartRepositoryFS struct {
	Client *firestore.Client
}

func NewCartRepositoryFS(client *firestore.Client) *CartRepositoryFS {
	return &CartRepositoryFS{Client: client}
}

func (r *CartRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("carts")
}

type cartLineDoc struct {
	ID        string `firestore:"id"`
	ProductID string `firestore:"productId,omitempty"`
	PackageID string `firestore:"packageId,omitempty"`
	Qty       int    `firestore:"qty"`
	UnitPrice int    `firestore:"unitPrice"`
	Color     string `firestore:"color,omitempty"`
	Size      string `firestore:"size,omitempty"`
	Weight    string `firestore:"weight,omitempty"`
	Smell     string `firestore:"smell,omitempty"`
}

type cartPromoDoc struct {
	Code            string `firestore:"code"`
	DiscountPercent int    `firestore:"discountPercent"`
}

type cartTotalsDoc struct {
	Subtotal       int `firestore:"subtotal"`
	DiscountAmount int `firestore:"discountAmount"`
	Tax            int `firestore:"tax"`
	GrandTotal     int `firestore:"grandTotal"`
}

type cartDoc struct {
	Lines      []cartLineDoc `firestore:"lines"`
	Promo      *cartPromoDoc `firestore:"promo,omitempty"`
	TaxPercent int           `firestore:"taxPercent"`
	Totals     cartTotalsDoc `firestore:"totals"`
	CreatedAt  time.Time     `firestore:"createdAt"`
	UpdatedAt  time.Time     `firestore:"updatedAt"`
	ExpiresAt  time.Time     `firestore:"expiresAt"`
}

func cartDocFromDomain(c *cartdom.Cart) cartDoc {
	doc := cartDoc{
		Lines:      make([]cartLineDoc, 0, len(c.Lines)),
		TaxPercent: c.TaxPercent,
		Totals: cartTotalsDoc{
			Subtotal:       c.Totals.Subtotal,
			DiscountAmount: c.Totals.DiscountAmount,
			Tax:            c.Totals.Tax,
			GrandTotal:     c.Totals.GrandTotal,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		ExpiresAt: c.ExpiresAt,
	}
	for _, l := range c.Lines {
		doc.Lines = append(doc.Lines, cartLineDoc{
			ID:        l.ID,
			ProductID: l.ProductID,
			PackageID: l.PackageID,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
			Color:     l.Variant.Color,
			Size:      l.Variant.Size,
			Weight:    l.Variant.Weight,
			Smell:     l.Variant.Smell,
		})
	}
	if c.Promo != nil {
		doc.Promo = &cartPromoDoc{Code: c.Promo.Code, DiscountPercent: c.Promo.DiscountPercent}
	}
	return doc
}

func (d cartDoc) toDomain(accountID string) *cartdom.Cart {
	c := &cartdom.Cart{
		ID:         accountID, // docId is the source of truth
		Lines:      make([]cartdom.Line, 0, len(d.Lines)),
		TaxPercent: d.TaxPercent,
		Totals: cartdom.Totals{
			Subtotal:       d.Totals.Subtotal,
			DiscountAmount: d.Totals.DiscountAmount,
			Tax:            d.Totals.Tax,
			GrandTotal:     d.Totals.GrandTotal,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		ExpiresAt: d.ExpiresAt,
	}
	for _, l := range d.Lines {
		c.Lines = append(c.Lines, cartdom.Line{
			ID:        l.ID,
			ProductID: l.ProductID,
			PackageID: l.PackageID,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
			Variant: cartdom.VariantSelection{
				Color:  l.Color,
				Size:   l.Size,
				Weight: l.Weight,
				Smell:  l.Smell,
			},
		})
	}
	if d.Promo != nil {
		c.Promo = &cartdom.AppliedPromo{Code: d.Promo.Code, DiscountPercent: d.Promo.DiscountPercent}
	}
	return c
}

// GetByAccountID returns (nil, nil) if not found (nil policy).
func (r *CartRepositoryFS) GetByAccountID(ctx context.Context, accountID string) (*cartdom.Cart, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}

	aid := strings.TrimSpace(accountID)
	if aid == "" {
		return nil, errors.New("cart_repository_fs: accountID is empty")
	}

	snap, err := r.col().Doc(aid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc cartDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	return doc.toDomain(aid), nil
}

// Upsert saves cart by docId=cart.ID (= accountId).
func (r *CartRepositoryFS) Upsert(ctx context.Context, c *cartdom.Cart) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}
	if c == nil {
		return errors.New("cart_repository_fs: cart is nil")
	}

	aid := strings.TrimSpace(c.ID)
	if aid == "" {
		return errors.New("cart_repository_fs: Upsert requires cart.ID (= accountId) as docId")
	}

	// Overwrite full doc (simple & predictable).
	_, err := r.col().Doc(aid).Set(ctx, cartDocFromDomain(c))
	return err
}

func (r *CartRepositoryFS) DeleteByAccountID(ctx context.Context, accountID string) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}

	aid := strings.TrimSpace(accountID)
	if aid == "" {
		return errors.New("cart_repository_fs: accountID is empty")
	}

	_, err := r.col().Doc(aid).Delete(ctx)
	return err
}
