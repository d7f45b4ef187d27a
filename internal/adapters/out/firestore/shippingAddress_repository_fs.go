// internal/adapters/out/firestore/shippingAddress_repository_fs.go
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

	addrdom "sodistore/internal/domain/shippingaddress"
)

// ShippingAddressRepositoryFS implements shippingaddress.Repository.
//
// Collection design:
// - collection: shippingAddresses
// - docId: address id
// - "accountId" indexed for ListByAccountID
type ShippingAddressRepositoryFS struct {
	Client *firestore.Client
}

func NewShippingAddressRepositoryFS(client *firestore.Client) *ShippingAddressRepositoryFS {
	return &ShippingAddressRepositoryFS{Client: client}
}

func (r *ShippingAddressRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("shippingAddresses")
}

type addressDoc struct {
	AccountID  string    `firestore:"accountId"`
	FullName   string    `firestore:"fullName"`
	Street     string    `firestore:"street"`
	City       string    `firestore:"city"`
	Country    string    `firestore:"country"`
	PostalCode string    `firestore:"postalCode,omitempty"`
	Phone      string    `firestore:"phone,omitempty"`
	IsDefault  bool      `firestore:"isDefault"`
	CreatedAt  time.Time `firestore:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

func addressDocFromDomain(a addrdom.Address) addressDoc {
	return addressDoc{
		AccountID:  a.AccountID,
		FullName:   a.FullName,
		Street:     a.Street,
		City:       a.City,
		Country:    a.Country,
		PostalCode: a.PostalCode,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func (d addressDoc) toDomain(id string) addrdom.Address {
	return addrdom.Address{
		ID:         id,
		AccountID:  d.AccountID,
		FullName:   d.FullName,
		Street:     d.Street,
		City:       d.City,
		Country:    d.Country,
		PostalCode: d.PostalCode,
		Phone:      d.Phone,
		IsDefault:  d.IsDefault,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (r *ShippingAddressRepositoryFS) GetByID(ctx context.Context, id string) (addrdom.Address, error) {
	if r == nil || r.Client == nil {
		return addrdom.Address{}, errors.New("shipping_address_repository_fs: firestore client is nil")
	}

	aid := strings.TrimSpace(id)
	if aid == "" {
		return addrdom.Address{}, addrdom.ErrNotFound
	}

	snap, err := r.col().Doc(aid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return addrdom.Address{}, addrdom.ErrNotFound
		}
		return addrdom.Address{}, err
	}

	var doc addressDoc
	if err := snap.DataTo(&doc); err != nil {
		return addrdom.Address{}, err
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (r *ShippingAddressRepositoryFS) ListByAccountID(ctx context.Context, accountID string) ([]addrdom.Address, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("shipping_address_repository_fs: firestore client is nil")
	}

	aid := strings.TrimSpace(accountID)
	if aid == "" {
		return nil, nil
	}

	it := r.col().Where("accountId", "==", aid).Documents(ctx)
	defer it.Stop()

	var out []addrdom.Address
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var doc addressDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
	}
	return out, nil
}

func (r *ShippingAddressRepositoryFS) Create(ctx context.Context, a addrdom.Address) (addrdom.Address, error) {
	if r == nil || r.Client == nil {
		return addrdom.Address{}, errors.New("shipping_address_repository_fs: firestore client is nil")
	}
	if strings.TrimSpace(a.ID) == "" {
		return addrdom.Address{}, addrdom.ErrInvalidAddress
	}
	if _, err := r.col().Doc(a.ID).Create(ctx, addressDocFromDomain(a)); err != nil {
		return addrdom.Address{}, err
	}
	return a, nil
}

func (r *ShippingAddressRepositoryFS) Save(ctx context.Context, a addrdom.Address) error {
	if r == nil || r.Client == nil {
		return errors.New("shipping_address_repository_fs: firestore client is nil")
	}
	if strings.TrimSpace(a.ID) == "" {
		return addrdom.ErrInvalidAddress
	}
	_, err := r.col().Doc(a.ID).Set(ctx, addressDocFromDomain(a))
	return err
}

func (r *ShippingAddressRepositoryFS) Delete(ctx context.Context, id string) error {
	if r == nil || r.Client == nil {
		return errors.New("shipping_address_repository_fs: firestore client is nil")
	}
	aid := strings.TrimSpace(id)
	if aid == "" {
		return addrdom.ErrNotFound
	}
	_, err := r.col().Doc(aid).Delete(ctx)
	return err
}
