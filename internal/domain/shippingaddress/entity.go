// internal/domain/shippingaddress/entity.go
package shippingaddress

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidAddress = errors.New("shippingaddress: invalid")
	ErrNotFound       = errors.New("shippingaddress: not found")
)

// Address is one shipping destination owned by an account.
// At most one address per account is the default.
type Address struct {
	ID         string
	AccountID  string
	FullName   string
	Street     string
	City       string
	Country    string
	PostalCode string
	Phone      string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func New(id, accountID, fullName, street, city, country, postalCode, phone string, isDefault bool, now time.Time) (Address, error) {
	a := Address{
		ID:         strings.TrimSpace(id),
		AccountID:  strings.TrimSpace(accountID),
		FullName:   strings.TrimSpace(fullName),
		Street:     strings.TrimSpace(street),
		City:       strings.TrimSpace(city),
		Country:    strings.TrimSpace(country),
		PostalCode: strings.TrimSpace(postalCode),
		Phone:      strings.TrimSpace(phone),
		IsDefault:  isDefault,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	if err := a.validate(); err != nil {
		return Address{}, err
	}
	return a, nil
}

func (a Address) validate() error {
	if a.ID == "" || a.AccountID == "" {
		return ErrInvalidAddress
	}
	if a.FullName == "" || a.Street == "" || a.Country == "" {
		return ErrInvalidAddress
	}
	if a.CreatedAt.IsZero() {
		return ErrInvalidAddress
	}
	return nil
}

// PickDefault returns the default address from list, falling back to the
// first entry. Returns false when the list is empty.
func PickDefault(list []Address) (Address, bool) {
	if len(list) == 0 {
		return Address{}, false
	}
	for _, a := range list {
		if a.IsDefault {
			return a, true
		}
	}
	return list[0], true
}
