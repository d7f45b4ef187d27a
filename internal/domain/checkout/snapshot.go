// internal/domain/checkout/snapshot.go
package checkout

import (
	"errors"
	"strings"
	"time"

	cartdom "sodistore/internal/domain/cart"
)

// Method selects the settlement rail. The two rails are mutually
// exclusive: a snapshot settles through exactly one of them.
type Method string

const (
	// MethodGateway settles through the external payment gateway
	// (card / mobile money) with an out-of-band callback.
	MethodGateway Method = "gateway"

	// MethodCredit settles through the internal ledger
	// (commission balance, then wallet balance).
	MethodCredit Method = "credit"
)

func (m Method) Valid() bool {
	return m == MethodGateway || m == MethodCredit
}

var (
	ErrInvalidSnapshot  = errors.New("checkout: invalid snapshot")
	ErrSnapshotNotFound = errors.New("checkout: snapshot not found")
	ErrEmptyCart        = errors.New("checkout: cart is empty")
)

// Snapshot is the immutable capture of cart contents, totals, shipping
// choice and promo at the moment checkout begins. It is the sole input
// to order creation, however long settlement takes and whatever happens
// to the live cart meanwhile.
type Snapshot struct {
	SnapshotID        string
	AccountID         string
	Lines             []cartdom.Line
	Totals            cartdom.Totals
	ShippingAddressID string
	PromoCode         string
	DiscountPercent   int
	Method            Method
	Currency          string
	CreatedAt         time.Time
}

// NewSnapshot freezes the live cart into a Snapshot. The lines and
// totals are copied by value; later cart mutations cannot reach them.
// The promo discount is captured here and never re-resolved.
func NewSnapshot(snapshotID, accountID string, c *cartdom.Cart, shippingAddressID string, method Method, currency string, now time.Time) (Snapshot, error) {
	if c == nil || c.IsEmpty() {
		return Snapshot{}, ErrEmptyCart
	}

	promoCode := ""
	discount := 0
	if c.Promo != nil {
		promoCode = c.Promo.Code
		discount = c.Promo.DiscountPercent
	}

	s := Snapshot{
		SnapshotID:        strings.TrimSpace(snapshotID),
		AccountID:         strings.TrimSpace(accountID),
		Lines:             cartdom.CloneLines(c.Lines),
		Totals:            c.Totals,
		ShippingAddressID: strings.TrimSpace(shippingAddressID),
		PromoCode:         promoCode,
		DiscountPercent:   discount,
		Method:            method,
		Currency:          strings.TrimSpace(currency),
		CreatedAt:         now.UTC(),
	}
	if err := s.validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func (s Snapshot) validate() error {
	if s.SnapshotID == "" || s.AccountID == "" {
		return ErrInvalidSnapshot
	}
	if len(s.Lines) == 0 {
		return ErrEmptyCart
	}
	if s.ShippingAddressID == "" {
		return ErrInvalidSnapshot
	}
	if !s.Method.Valid() {
		return ErrInvalidSnapshot
	}
	if s.Currency == "" {
		return ErrInvalidSnapshot
	}
	if s.Totals.GrandTotal <= 0 {
		return ErrInvalidSnapshot
	}
	if s.CreatedAt.IsZero() {
		return ErrInvalidSnapshot
	}
	return nil
}
