// internal/adapters/out/firestore/order_repository_fs.go
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

	orderdom "sodistore/internal/domain/order"
)

// OrderRepositoryFS implements order.Repository using Firestore.
//
// Collection design:
// - collection: orders, docId: order id
// - collection: orderBySnapshot, docId: snapshotId, field: orderId
//
// The orderBySnapshot mapping is created in the SAME transaction as
// the order. That makes snapshotId a uniqueness key: CreateIfAbsent
// can re-run after a captured payment without ever producing a second
// order for the same snapshot.
type OrderRepositoryFS struct {
	Client *firestore.Client
}

func NewOrderRepositoryFS(client *firestore.Client) *OrderRepositoryFS {
	return &OrderRepositoryFS{Client: client}
}

func (r *OrderRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("orders")
}

func (r *OrderRepositoryFS) mapCol() *firestore.CollectionRef {
	return r.Client.Collection("orderBySnapshot")
}

type orderItemDoc struct {
	ProductID string `firestore:"productId,omitempty"`
	PackageID string `firestore:"packageId,omitempty"`
	Qty       int    `firestore:"qty"`
	UnitPrice int    `firestore:"unitPrice"`
	Color     string `firestore:"color,omitempty"`
	Size      string `firestore:"size,omitempty"`
	Weight    string `firestore:"weight,omitempty"`
	Smell     string `firestore:"smell,omitempty"`
}

type orderTotalsDoc struct {
	Subtotal       int `firestore:"subtotal"`
	DiscountAmount int `firestore:"discountAmount"`
	Tax            int `firestore:"tax"`
	GrandTotal     int `firestore:"grandTotal"`
}

type orderDoc struct {
	AccountID         string         `firestore:"accountId"`
	SnapshotID        string         `firestore:"snapshotId"`
	Status            string         `firestore:"status"`
	Method            string         `firestore:"method"`
	Items             []orderItemDoc `firestore:"items"`
	Totals            orderTotalsDoc `firestore:"totals"`
	ShippingAddressID string         `firestore:"shippingAddressId"`
	PromoCode         string         `firestore:"promoCode,omitempty"`
	Currency          string         `firestore:"currency"`
	CreatedAt         time.Time      `firestore:"createdAt"`
	UpdatedAt         time.Time      `firestore:"updatedAt"`
}

type orderMapDoc struct {
	OrderID string `firestore:"orderId"`
}

func orderDocFromDomain(o orderdom.Order) orderDoc {
	doc := orderDoc{
		AccountID:         o.AccountID,
		SnapshotID:        o.SnapshotID,
		Status:            string(o.Status),
		Method:            o.Method,
		Items:             make([]orderItemDoc, 0, len(o.Items)),
		Totals:            orderTotalsDoc(o.Totals),
		ShippingAddressID: o.ShippingAddressID,
		PromoCode:         o.PromoCode,
		Currency:          o.Currency,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	for _, it := range o.Items {
		doc.Items = append(doc.Items, orderItemDoc(it))
	}
	return doc
}

func (d orderDoc) toDomain(id string) orderdom.Order {
	o := orderdom.Order{
		ID:                id,
		AccountID:         d.AccountID,
		SnapshotID:        d.SnapshotID,
		Status:            orderdom.Status(d.Status),
		Method:            d.Method,
		Items:             make([]orderdom.ItemSnapshot, 0, len(d.Items)),
		Totals:            orderdom.TotalsSnapshot(d.Totals),
		ShippingAddressID: d.ShippingAddressID,
		PromoCode:         d.PromoCode,
		Currency:          d.Currency,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	for _, it := range d.Items {
		o.Items = append(o.Items, orderdom.ItemSnapshot(it))
	}
	return o
}

func (r *OrderRepositoryFS) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	if r == nil || r.Client == nil {
		return orderdom.Order{}, errors.New("order_repository_fs: firestore client is nil")
	}

	oid := strings.TrimSpace(id)
	if oid == "" {
		return orderdom.Order{}, orderdom.ErrNotFound
	}

	snap, err := r.col().Doc(oid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return orderdom.Order{}, orderdom.ErrNotFound
		}
		return orderdom.Order{}, err
	}

	var doc orderDoc
	if err := snap.DataTo(&doc); err != nil {
		return orderdom.Order{}, err
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (r *OrderRepositoryFS) GetBySnapshotID(ctx context.Context, snapshotID string) (orderdom.Order, error) {
	if r == nil || r.Client == nil {
		return orderdom.Order{}, errors.New("order_repository_fs: firestore client is nil")
	}

	sid := strings.TrimSpace(snapshotID)
	if sid == "" {
		return orderdom.Order{}, orderdom.ErrNotFound
	}

	snap, err := r.mapCol().Doc(sid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return orderdom.Order{}, orderdom.ErrNotFound
		}
		return orderdom.Order{}, err
	}

	var m orderMapDoc
	if err := snap.DataTo(&m); err != nil {
		return orderdom.Order{}, err
	}
	return r.GetByID(ctx, m.OrderID)
}

func (r *OrderRepositoryFS) ListByAccountID(ctx context.Context, accountID string, page, perPage int) ([]orderdom.Order, int, error) {
	if r == nil || r.Client == nil {
		return nil, 0, errors.New("order_repository_fs: firestore client is nil")
	}

	aid := strings.TrimSpace(accountID)
	if aid == "" {
		return nil, 0, nil
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	it := r.col().
		Where("accountId", "==", aid).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer it.Stop()

	var all []orderdom.Order
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		var doc orderDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, 0, err
		}
		all = append(all, doc.toDomain(snap.Ref.ID))
	}

	total := len(all)
	start := (page - 1) * perPage
	if start >= total {
		return []orderdom.Order{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *OrderRepositoryFS) Create(ctx context.Context, o orderdom.Order) (orderdom.Order, error) {
	out, created, err := r.CreateIfAbsent(ctx, o)
	if err != nil {
		return orderdom.Order{}, err
	}
	if !created {
		return orderdom.Order{}, orderdom.ErrConflict
	}
	return out, nil
}

func (r *OrderRepositoryFS) CreateIfAbsent(ctx context.Context, o orderdom.Order) (orderdom.Order, bool, error) {
	if r == nil || r.Client == nil {
		return orderdom.Order{}, false, errors.New("order_repository_fs: firestore client is nil")
	}
	if strings.TrimSpace(o.ID) == "" || strings.TrimSpace(o.SnapshotID) == "" {
		return orderdom.Order{}, false, orderdom.ErrInvalidOrder
	}

	var out orderdom.Order
	created := false

	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		mapRef := r.mapCol().Doc(o.SnapshotID)

		snap, err := tx.Get(mapRef)
		if err == nil {
			// mapping exists: load and return the existing order
			var m orderMapDoc
			if err := snap.DataTo(&m); err != nil {
				return err
			}
			oSnap, err := tx.Get(r.col().Doc(m.OrderID))
			if err != nil {
				return err
			}
			var doc orderDoc
			if err := oSnap.DataTo(&doc); err != nil {
				return err
			}
			out = doc.toDomain(oSnap.Ref.ID)
			created = false
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		if err := tx.Create(r.col().Doc(o.ID), orderDocFromDomain(o)); err != nil {
			return err
		}
		if err := tx.Create(mapRef, orderMapDoc{OrderID: o.ID}); err != nil {
			return err
		}
		out = o
		created = true
		return nil
	})
	if err != nil {
		return orderdom.Order{}, false, err
	}
	return out, created, nil
}

func (r *OrderRepositoryFS) Save(ctx context.Context, o orderdom.Order) error {
	if r == nil || r.Client == nil {
		return errors.New("order_repository_fs: firestore client is nil")
	}
	if strings.TrimSpace(o.ID) == "" {
		return orderdom.ErrInvalidOrder
	}
	_, err := r.col().Doc(o.ID).Set(ctx, orderDocFromDomain(o))
	return err
}
