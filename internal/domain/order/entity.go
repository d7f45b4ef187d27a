// internal/domain/order/entity.go
package order

import (
	"errors"
	"strings"
	"time"

	cartdom "sodistore/internal/domain/cart"
	checkoutdom "sodistore/internal/domain/checkout"
)

// ========================================
// Status
// ========================================

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusPaid || s == StatusCancelled
}

// ========================================
// Snapshot structs (stored in Order)
// ========================================

// ItemSnapshot is one frozen order line.
type ItemSnapshot struct {
	ProductID string `json:"productId,omitempty"`
	PackageID string `json:"packageId,omitempty"`
	Qty       int    `json:"qty"`
	UnitPrice int    `json:"unitPrice"`

	Color  string `json:"color,omitempty"`
	Size   string `json:"size,omitempty"`
	Weight string `json:"weight,omitempty"`
	Smell  string `json:"smell,omitempty"`
}

// TotalsSnapshot mirrors the cart totals frozen at checkout start.
type TotalsSnapshot struct {
	Subtotal       int `json:"subtotal"`
	DiscountAmount int `json:"discountAmount"`
	Tax            int `json:"tax"`
	GrandTotal     int `json:"grandTotal"`
}

// ========================================
// Entity
// ========================================

type Order struct {
	ID         string
	AccountID  string
	SnapshotID string
	Status     Status
	Method     string

	Items             []ItemSnapshot
	Totals            TotalsSnapshot
	ShippingAddressID string
	PromoCode         string
	Currency          string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ========================================
// Errors
// ========================================

var (
	ErrInvalidOrder  = errors.New("order: invalid")
	ErrInvalidStatus = errors.New("order: invalid status transition")
	ErrNotFound      = errors.New("order: not found")
	ErrConflict      = errors.New("order: conflict")
)

// ========================================
// Constructors
// ========================================

// FromSnapshot builds an order strictly from a checkout snapshot,
// never from live cart state.
func FromSnapshot(id string, snap checkoutdom.Snapshot, status Status, now time.Time) (Order, error) {
	o := Order{
		ID:         strings.TrimSpace(id),
		AccountID:  snap.AccountID,
		SnapshotID: snap.SnapshotID,
		Status:     status,
		Method:     string(snap.Method),

		Items:             itemsFromLines(snap.Lines),
		Totals:            totalsFromCart(snap.Totals),
		ShippingAddressID: snap.ShippingAddressID,
		PromoCode:         snap.PromoCode,
		Currency:          snap.Currency,

		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if err := o.validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// ========================================
// Behavior
// ========================================

// MarkPaid transitions pending → paid.
func (o *Order) MarkPaid(now time.Time) error {
	if o.Status != StatusPending {
		return ErrInvalidStatus
	}
	o.Status = StatusPaid
	o.UpdatedAt = now.UTC()
	return nil
}

// Cancel transitions pending → cancelled. A paid order is never
// cancelled through this path.
func (o *Order) Cancel(now time.Time) error {
	if o.Status != StatusPending {
		return ErrInvalidStatus
	}
	o.Status = StatusCancelled
	o.UpdatedAt = now.UTC()
	return nil
}

// ========================================
// Validation
// ========================================

func (o Order) validate() error {
	if o.ID == "" || o.AccountID == "" || o.SnapshotID == "" {
		return ErrInvalidOrder
	}
	if !o.Status.Valid() {
		return ErrInvalidOrder
	}
	if len(o.Items) == 0 {
		return ErrInvalidOrder
	}
	for _, it := range o.Items {
		if (it.ProductID == "") == (it.PackageID == "") {
			return ErrInvalidOrder
		}
		if it.Qty <= 0 || it.UnitPrice < 0 {
			return ErrInvalidOrder
		}
	}
	if o.ShippingAddressID == "" || o.Currency == "" {
		return ErrInvalidOrder
	}
	if o.Totals.GrandTotal <= 0 {
		return ErrInvalidOrder
	}
	if o.CreatedAt.IsZero() {
		return ErrInvalidOrder
	}
	return nil
}

// ========================================
// Helpers
// ========================================

func itemsFromLines(lines []cartdom.Line) []ItemSnapshot {
	out := make([]ItemSnapshot, 0, len(lines))
	for _, l := range lines {
		out = append(out, ItemSnapshot{
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
	return out
}

func totalsFromCart(t cartdom.Totals) TotalsSnapshot {
	return TotalsSnapshot{
		Subtotal:       t.Subtotal,
		DiscountAmount: t.DiscountAmount,
		Tax:            t.Tax,
		GrandTotal:     t.GrandTotal,
	}
}
