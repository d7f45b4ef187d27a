// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	cartdom "sodistore/internal/domain/cart"
)

var (
	ErrCartInvalidArgument = errors.New("cart_usecase: invalid argument")
	ErrCartNotFound        = errors.New("cart_usecase: not found")
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// CartUsecase coordinates cart operations.
type CartUsecase struct {
	repo       cartdom.Repository
	taxPercent int
	clock      Clock
	newID      func() string
}

func NewCartUsecase(repo cartdom.Repository, taxPercent int) *CartUsecase {
	return &CartUsecase{
		repo:       repo,
		taxPercent: taxPercent,
		clock:      systemClock{},
		newID:      uuid.NewString,
	}
}

// NewCartUsecaseWithClock is useful for tests.
func NewCartUsecaseWithClock(repo cartdom.Repository, taxPercent int, clock Clock, newID func() string) *CartUsecase {
	if clock == nil {
		clock = systemClock{}
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &CartUsecase{repo: repo, taxPercent: taxPercent, clock: clock, newID: newID}
}

// Get returns the cart for accountID.
// An absent cart is returned as a fresh empty (unpersisted) cart.
func (uc *CartUsecase) Get(ctx context.Context, accountID string) (*cartdom.Cart, error) {
	aid := strings.TrimSpace(accountID)
	if aid == "" {
		return nil, ErrCartInvalidArgument
	}

	c, err := uc.repo.GetByAccountID(ctx, aid)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return cartdom.NewCart(aid, uc.taxPercent, uc.clock.Now())
	}
	return c, nil
}

// AddLineInput describes a line to add.
type AddLineInput struct {
	ProductID string
	PackageID string
	Qty       int
	UnitPrice int
	Variant   cartdom.VariantSelection
}

// AddLine adds a line (merging into a matching one) and persists.
func (uc *CartUsecase) AddLine(ctx context.Context, accountID string, in AddLineInput) (*cartdom.Cart, error) {
	aid := strings.TrimSpace(accountID)
	if aid == "" || in.Qty <= 0 {
		return nil, ErrCartInvalidArgument
	}

	now := uc.clock.Now()

	c, err := uc.repo.GetByAccountID(ctx, aid)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c, err = cartdom.NewCart(aid, uc.taxPercent, now)
		if err != nil {
			return nil, err
		}
	}

	line := cartdom.Line{
		ID:        uc.newID(),
		ProductID: in.ProductID,
		PackageID: in.PackageID,
		Qty:       in.Qty,
		UnitPrice: in.UnitPrice,
		Variant:   in.Variant,
	}
	if err := c.AddLine(line, now); err != nil {
		return nil, err
	}
	if err := uc.repo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetQty updates a line quantity (qty <= 0 removes the line).
func (uc *CartUsecase) SetQty(ctx context.Context, accountID, lineID string, qty int) (*cartdom.Cart, error) {
	aid := strings.TrimSpace(accountID)
	lid := strings.TrimSpace(lineID)
	if aid == "" || lid == "" {
		return nil, ErrCartInvalidArgument
	}

	c, err := uc.repo.GetByAccountID(ctx, aid)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}

	if err := c.SetQty(lid, qty, uc.clock.Now()); err != nil {
		return nil, err
	}
	if err := uc.repo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveLine removes a line.
func (uc *CartUsecase) RemoveLine(ctx context.Context, accountID, lineID string) (*cartdom.Cart, error) {
	return uc.SetQty(ctx, accountID, lineID, 0)
}

// Clear empties the cart and drops any applied promo.
// Clearing an absent or already-empty cart succeeds (idempotent).
func (uc *CartUsecase) Clear(ctx context.Context, accountID string) error {
	aid := strings.TrimSpace(accountID)
	if aid == "" {
		return ErrCartInvalidArgument
	}

	c, err := uc.repo.GetByAccountID(ctx, aid)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}

	if err := c.Clear(uc.clock.Now()); err != nil {
		return err
	}
	return uc.repo.Upsert(ctx, c)
}
