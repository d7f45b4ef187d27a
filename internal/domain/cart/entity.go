// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidCart = errors.New("cart: invalid")
	ErrInvalidLine = errors.New("cart: invalid line")
)

// DefaultCartTTL is the inactivity window after which the cart becomes
// eligible for auto deletion (Firestore TTL configured on expiresAt).
const DefaultCartTTL = 7 * 24 * time.Hour

// VariantSelection captures the buyer's option choices for one line.
// All fields are optional; empty means "not applicable".
type VariantSelection struct {
	Color  string `json:"color,omitempty" firestore:"color,omitempty"`
	Size   string `json:"size,omitempty" firestore:"size,omitempty"`
	Weight string `json:"weight,omitempty" firestore:"weight,omitempty"`
	Smell  string `json:"smell,omitempty" firestore:"smell,omitempty"`
}

// Line is one line item in a cart.
// Exactly one of ProductID / PackageID must be set.
// UnitPrice is in currency minor units (XOF has none, so whole francs).
type Line struct {
	ID        string           `json:"id" firestore:"id"`
	ProductID string           `json:"productId,omitempty" firestore:"productId,omitempty"`
	PackageID string           `json:"packageId,omitempty" firestore:"packageId,omitempty"`
	Qty       int              `json:"qty" firestore:"qty"`
	UnitPrice int              `json:"unitPrice" firestore:"unitPrice"`
	Variant   VariantSelection `json:"variant" firestore:"variant"`
}

// AppliedPromo is the at-most-one active promo on a cart.
type AppliedPromo struct {
	Code            string `json:"code" firestore:"code"`
	DiscountPercent int    `json:"discountPercent" firestore:"discountPercent"`
}

// Totals are derived from the lines and the applied promo.
// They are recomputed on every mutation; checkout freezes a copy.
type Totals struct {
	Subtotal       int `json:"subtotal" firestore:"subtotal"`
	DiscountAmount int `json:"discountAmount" firestore:"discountAmount"`
	Tax            int `json:"tax" firestore:"tax"`
	GrandTotal     int `json:"grandTotal" firestore:"grandTotal"`
}

// Cart is one cart document.
//   - docId = accountId (Firestore)
//   - Lines: []Line
//   - ExpiresAt: refreshed on each mutation (Firestore TTL field)
type Cart struct {
	// ID is the Firestore docId (= accountId).
	ID string `json:"id" firestore:"id"`

	Lines []Line        `json:"lines" firestore:"lines"`
	Promo *AppliedPromo `json:"promo,omitempty" firestore:"promo,omitempty"`

	// TaxPercent applied when computing totals (store-wide setting,
	// stamped onto the cart so totals stay reproducible).
	TaxPercent int `json:"taxPercent" firestore:"taxPercent"`

	Totals Totals `json:"totals" firestore:"totals"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt" firestore:"expiresAt"`
}

// NewCart creates a new cart doc. id is the Firestore docId (accountId).
func NewCart(id string, taxPercent int, now time.Time) (*Cart, error) {
	c := &Cart{
		ID:         strings.TrimSpace(id),
		Lines:      []Line{},
		TaxPercent: taxPercent,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(DefaultCartTTL),
	}
	c.recompute()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// AddLine adds quantity for a (productId|packageId, variant) pairing.
// A line matching an existing one merges into it; UnitPrice of the
// incoming line wins (the catalog is the price authority).
func (c *Cart) AddLine(l Line, now time.Time) error {
	if c == nil {
		return ErrInvalidCart
	}
	n, err := normalizeLine(l)
	if err != nil {
		return err
	}

	idx := findLineIndex(c.Lines, n)
	if idx >= 0 {
		c.Lines[idx].Qty += n.Qty
		c.Lines[idx].UnitPrice = n.UnitPrice
	} else {
		c.Lines = append(c.Lines, n)
	}

	c.touch(now)
	return c.validate()
}

// SetQty sets quantity for the line with lineID.
// qty <= 0 removes the line.
func (c *Cart) SetQty(lineID string, qty int, now time.Time) error {
	if c == nil {
		return ErrInvalidCart
	}
	lid := strings.TrimSpace(lineID)
	if lid == "" {
		return ErrInvalidLine
	}

	idx := -1
	for i := range c.Lines {
		if c.Lines[i].ID == lid {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrInvalidLine
	}

	if qty <= 0 {
		c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
	} else {
		c.Lines[idx].Qty = qty
	}

	c.touch(now)
	return c.validate()
}

// RemoveLine removes the line with lineID.
func (c *Cart) RemoveLine(lineID string, now time.Time) error {
	return c.SetQty(lineID, 0, now)
}

// ApplyPromo replaces any previously active promo.
// discountPercent must be within [0,100].
func (c *Cart) ApplyPromo(code string, discountPercent int, now time.Time) error {
	if c == nil {
		return ErrInvalidCart
	}
	code = strings.TrimSpace(code)
	if code == "" || discountPercent < 0 || discountPercent > 100 {
		return ErrInvalidCart
	}
	c.Promo = &AppliedPromo{Code: code, DiscountPercent: discountPercent}
	c.touch(now)
	return c.validate()
}

// ClearPromo removes the active promo, if any.
func (c *Cart) ClearPromo(now time.Time) {
	if c == nil {
		return
	}
	c.Promo = nil
	c.touch(now)
}

// Clear empties all lines and resets the promo and totals.
// Clearing an already-empty cart is a no-op (idempotent).
func (c *Cart) Clear(now time.Time) error {
	if c == nil {
		return ErrInvalidCart
	}
	c.Lines = []Line{}
	c.Promo = nil
	c.touch(now)
	return c.validate()
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

func (c *Cart) touch(now time.Time) {
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(DefaultCartTTL)
	c.recompute()
}

// recompute derives Totals from Lines + Promo + TaxPercent.
// Amounts are integers; discount and tax round down.
func (c *Cart) recompute() {
	discount := 0
	if c.Promo != nil {
		discount = c.Promo.DiscountPercent
	}
	c.Totals = ComputeTotals(c.Lines, discount, c.TaxPercent)
}

// ComputeTotals derives totals for a set of lines given a promo discount
// percentage and a tax percentage. Tax applies to the discounted subtotal.
func ComputeTotals(lines []Line, discountPercent, taxPercent int) Totals {
	subtotal := 0
	for _, l := range lines {
		subtotal += l.Qty * l.UnitPrice
	}
	if discountPercent < 0 {
		discountPercent = 0
	}
	if discountPercent > 100 {
		discountPercent = 100
	}
	discount := subtotal * discountPercent / 100
	taxable := subtotal - discount
	tax := 0
	if taxPercent > 0 {
		tax = taxable * taxPercent / 100
	}
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Tax:            tax,
		GrandTotal:     taxable + tax,
	}
}

func (c *Cart) validate() error {
	if c == nil {
		return ErrInvalidCart
	}
	if strings.TrimSpace(c.ID) == "" {
		return ErrInvalidCart
	}
	if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() || c.ExpiresAt.IsZero() {
		return ErrInvalidCart
	}
	if c.UpdatedAt.Before(c.CreatedAt) {
		return ErrInvalidCart
	}
	if c.ExpiresAt.Before(c.UpdatedAt) {
		return ErrInvalidCart
	}
	if c.TaxPercent < 0 || c.TaxPercent > 100 {
		return ErrInvalidCart
	}
	if c.Promo != nil {
		if strings.TrimSpace(c.Promo.Code) == "" ||
			c.Promo.DiscountPercent < 0 || c.Promo.DiscountPercent > 100 {
			return ErrInvalidCart
		}
	}

	if len(c.Lines) == 0 {
		return nil
	}

	c.Lines = sortLines(c.Lines)

	for _, l := range c.Lines {
		if _, err := normalizeLine(l); err != nil {
			return err
		}
	}
	return nil
}

// ----------------------------
// Helpers
// ----------------------------

func normalizeLine(l Line) (Line, error) {
	l.ID = strings.TrimSpace(l.ID)
	l.ProductID = strings.TrimSpace(l.ProductID)
	l.PackageID = strings.TrimSpace(l.PackageID)
	l.Variant.Color = strings.TrimSpace(l.Variant.Color)
	l.Variant.Size = strings.TrimSpace(l.Variant.Size)
	l.Variant.Weight = strings.TrimSpace(l.Variant.Weight)
	l.Variant.Smell = strings.TrimSpace(l.Variant.Smell)

	if l.ID == "" {
		return Line{}, ErrInvalidLine
	}
	// exactly one of productId / packageId
	if (l.ProductID == "") == (l.PackageID == "") {
		return Line{}, ErrInvalidLine
	}
	if l.Qty <= 0 || l.UnitPrice < 0 {
		return Line{}, ErrInvalidLine
	}
	return l, nil
}

// findLineIndex matches on (productId, packageId, variant); line id is a
// storage identity, not a merge key.
func findLineIndex(lines []Line, n Line) int {
	for i := range lines {
		if lines[i].ProductID == n.ProductID &&
			lines[i].PackageID == n.PackageID &&
			lines[i].Variant == n.Variant {
			return i
		}
	}
	return -1
}

func sortLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CloneLines returns a deep copy of the lines (value semantics already
// hold; the copy protects against slice aliasing).
func CloneLines(src []Line) []Line {
	if len(src) == 0 {
		return []Line{}
	}
	out := make([]Line, len(src))
	copy(out, src)
	return out
}
