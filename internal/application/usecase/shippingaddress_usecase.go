// internal/application/usecase/shippingaddress_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	addrdom "sodistore/internal/domain/shippingaddress"
)

var (
	ErrAddressInvalidArgument = errors.New("shippingaddress_usecase: invalid argument")
	ErrAddressForbidden       = errors.New("shippingaddress_usecase: address not owned by account")
)

// ShippingAddressUsecase manages the buyer's address book.
type ShippingAddressUsecase struct {
	repo  addrdom.Repository
	now   func() time.Time
	newID func() string
}

func NewShippingAddressUsecase(repo addrdom.Repository) *ShippingAddressUsecase {
	return &ShippingAddressUsecase{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// List returns all addresses for the account.
func (u *ShippingAddressUsecase) List(ctx context.Context, accountID string) ([]addrdom.Address, error) {
	aid := strings.TrimSpace(accountID)
	if aid == "" {
		return nil, ErrAddressInvalidArgument
	}
	return u.repo.ListByAccountID(ctx, aid)
}

// Default resolves the account's default shipping address
// (explicit default, else first). ok=false when the book is empty.
func (u *ShippingAddressUsecase) Default(ctx context.Context, accountID string) (addrdom.Address, bool, error) {
	list, err := u.List(ctx, accountID)
	if err != nil {
		return addrdom.Address{}, false, err
	}
	a, ok := addrdom.PickDefault(list)
	return a, ok, nil
}

// AddInput carries a new address.
type AddInput struct {
	FullName   string
	Street     string
	City       string
	Country    string
	PostalCode string
	Phone      string
	IsDefault  bool
}

// Add creates an address. The first address for an account always
// becomes the default.
func (u *ShippingAddressUsecase) Add(ctx context.Context, accountID string, in AddInput) (addrdom.Address, error) {
	aid := strings.TrimSpace(accountID)
	if aid == "" {
		return addrdom.Address{}, ErrAddressInvalidArgument
	}

	existing, err := u.repo.ListByAccountID(ctx, aid)
	if err != nil {
		return addrdom.Address{}, err
	}
	isDefault := in.IsDefault || len(existing) == 0

	a, err := addrdom.New(u.newID(), aid, in.FullName, in.Street, in.City, in.Country, in.PostalCode, in.Phone, isDefault, u.now())
	if err != nil {
		return addrdom.Address{}, err
	}

	if isDefault {
		if err := u.clearDefault(ctx, existing); err != nil {
			return addrdom.Address{}, err
		}
	}
	return u.repo.Create(ctx, a)
}

// SetDefault marks one address as the default and unmarks the rest.
func (u *ShippingAddressUsecase) SetDefault(ctx context.Context, accountID, addressID string) (addrdom.Address, error) {
	aid := strings.TrimSpace(accountID)
	id := strings.TrimSpace(addressID)
	if aid == "" || id == "" {
		return addrdom.Address{}, ErrAddressInvalidArgument
	}

	a, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return addrdom.Address{}, err
	}
	if a.AccountID != aid {
		return addrdom.Address{}, ErrAddressForbidden
	}

	list, err := u.repo.ListByAccountID(ctx, aid)
	if err != nil {
		return addrdom.Address{}, err
	}
	if err := u.clearDefault(ctx, list); err != nil {
		return addrdom.Address{}, err
	}

	a.IsDefault = true
	a.UpdatedAt = u.now().UTC()
	if err := u.repo.Save(ctx, a); err != nil {
		return addrdom.Address{}, err
	}
	return a, nil
}

// Delete removes an address owned by the account.
func (u *ShippingAddressUsecase) Delete(ctx context.Context, accountID, addressID string) error {
	aid := strings.TrimSpace(accountID)
	id := strings.TrimSpace(addressID)
	if aid == "" || id == "" {
		return ErrAddressInvalidArgument
	}

	a, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.AccountID != aid {
		return ErrAddressForbidden
	}
	return u.repo.Delete(ctx, id)
}

func (u *ShippingAddressUsecase) clearDefault(ctx context.Context, list []addrdom.Address) error {
	for _, e := range list {
		if !e.IsDefault {
			continue
		}
		e.IsDefault = false
		e.UpdatedAt = u.now().UTC()
		if err := u.repo.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
