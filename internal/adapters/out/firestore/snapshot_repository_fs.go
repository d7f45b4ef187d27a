// internal/adapters/out/firestore/snapshot_repository_fs.go
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
	checkoutdom "sodistore/internal/domain/checkout"
)

// SnapshotRepositoryFS implements checkout.SnapshotRepository.
//
// Collection design:
// - collection: checkoutSnapshots
// - docId: snapshotId
//
// A snapshot is written once at checkout start and deleted when the
// attempt terminates. It is never updated in between.
type SnapshotRepositoryFS struct {
	Client *firestore.Client
}

func NewSnapshotRepositoryFS(client *firestore.Client) *SnapshotRepositoryFS {
	return &SnapshotRepositoryFS{Client: client}
}

func (r *SnapshotRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("checkoutSnapshots")
}

type snapshotDoc struct {
	AccountID         string        `firestore:"accountId"`
	Lines             []cartLineDoc `firestore:"lines"`
	Totals            cartTotalsDoc `firestore:"totals"`
	ShippingAddressID string        `firestore:"shippingAddressId"`
	PromoCode         string        `firestore:"promoCode,omitempty"`
	DiscountPercent   int           `firestore:"discountPercent,omitempty"`
	Method            string        `firestore:"method"`
	Currency          string        `firestore:"currency"`
	CreatedAt         time.Time     `firestore:"createdAt"`
}

func snapshotDocFromDomain(s checkoutdom.Snapshot) snapshotDoc {
	doc := snapshotDoc{
		AccountID:         s.AccountID,
		Lines:             make([]cartLineDoc, 0, len(s.Lines)),
		Totals:            cartTotalsDoc(s.Totals),
		ShippingAddressID: s.ShippingAddressID,
		PromoCode:         s.PromoCode,
		DiscountPercent:   s.DiscountPercent,
		Method:            string(s.Method),
		Currency:          s.Currency,
		CreatedAt:         s.CreatedAt,
	}
	for _, l := range s.Lines {
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
	return doc
}

func (d snapshotDoc) toDomain(snapshotID string) checkoutdom.Snapshot {
	s := checkoutdom.Snapshot{
		SnapshotID:        snapshotID,
		AccountID:         d.AccountID,
		Lines:             make([]cartdom.Line, 0, len(d.Lines)),
		Totals:            cartdom.Totals(d.Totals),
		ShippingAddressID: d.ShippingAddressID,
		PromoCode:         d.PromoCode,
		DiscountPercent:   d.DiscountPercent,
		Method:            checkoutdom.Method(d.Method),
		Currency:          d.Currency,
		CreatedAt:         d.CreatedAt,
	}
	for _, l := range d.Lines {
		s.Lines = append(s.Lines, cartdom.Line{
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
	return s
}

func (r *SnapshotRepositoryFS) GetBySnapshotID(ctx context.Context, snapshotID string) (checkoutdom.Snapshot, error) {
	if r == nil || r.Client == nil {
		return checkoutdom.Snapshot{}, errors.New("snapshot_repository_fs: firestore client is nil")
	}

	sid := strings.TrimSpace(snapshotID)
	if sid == "" {
		return checkoutdom.Snapshot{}, checkoutdom.ErrSnapshotNotFound
	}

	snap, err := r.col().Doc(sid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return checkoutdom.Snapshot{}, checkoutdom.ErrSnapshotNotFound
		}
		return checkoutdom.Snapshot{}, err
	}

	var doc snapshotDoc
	if err := snap.DataTo(&doc); err != nil {
		return checkoutdom.Snapshot{}, err
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (r *SnapshotRepositoryFS) Create(ctx context.Context, s checkoutdom.Snapshot) error {
	if r == nil || r.Client == nil {
		return errors.New("snapshot_repository_fs: firestore client is nil")
	}
	if strings.TrimSpace(s.SnapshotID) == "" {
		return checkoutdom.ErrInvalidSnapshot
	}
	_, err := r.col().Doc(s.SnapshotID).Create(ctx, snapshotDocFromDomain(s))
	return err
}

func (r *SnapshotRepositoryFS) Delete(ctx context.Context, snapshotID string) error {
	if r == nil || r.Client == nil {
		return errors.New("snapshot_repository_fs: firestore client is nil")
	}
	sid := strings.TrimSpace(snapshotID)
	if sid == "" {
		return nil
	}
	_, err := r.col().Doc(sid).Delete(ctx)
	return err
}
