// internal/application/usecase/promo_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	cartdom "sodistore/internal/domain/cart"
	promodom "sodistore/internal/domain/promo"
)

var (
	ErrPromoInvalidArgument = errors.New("promo_usecase: invalid argument")
)

// PromoUsecase validates and applies promo codes, and carries the small
// admin surface (create / toggle / delete).
type PromoUsecase struct {
	repo     promodom.Repository
	cartRepo cartdom.Repository
	now      func() time.Time
	newID    func() string
}

func NewPromoUsecase(repo promodom.Repository, cartRepo cartdom.Repository) *PromoUsecase {
	return &PromoUsecase{
		repo:     repo,
		cartRepo: cartRepo,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Apply validates code for accountID and, on success, replaces the
// cart's active promo with it. Failure leaves the cart untouched and
// returns promodom.ErrInvalidOrExpired.
//
// Apply is idempotent: re-applying the active code yields the same
// cart state.
func (u *PromoUsecase) Apply(ctx context.Context, accountID, code string) (*cartdom.Cart, error) {
	aid := strings.TrimSpace(accountID)
	code = strings.TrimSpace(code)
	if aid == "" || code == "" {
		return nil, ErrPromoInvalidArgument
	}

	p, err := u.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, promodom.ErrNotFound) {
			return nil, promodom.ErrInvalidOrExpired
		}
		return nil, err
	}

	now := u.now().UTC()
	if !p.Usable(aid, now) {
		return nil, promodom.ErrInvalidOrExpired
	}

	c, err := u.cartRepo.GetByAccountID(ctx, aid)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}

	if err := c.ApplyPromo(p.Code, p.DiscountPercent, now); err != nil {
		return nil, err
	}
	if err := u.cartRepo.Upsert(ctx, c); err != nil {
		return nil, err
	}

	log.Printf("[promo_uc] applied code=%s discount=%d%% account=%s", p.Code, p.DiscountPercent, maskID(aid))
	return c, nil
}

// CreateInput is the admin input for a new promo code.
type CreateInput struct {
	Code            string
	DiscountPercent int
	ExpiresInDays   int
	AccountID       string // optional: restrict to one buyer
}

// Create registers a new promo code (admin).
func (u *PromoUsecase) Create(ctx context.Context, in CreateInput) (promodom.Promo, error) {
	if in.ExpiresInDays <= 0 {
		in.ExpiresInDays = 7
	}
	now := u.now().UTC()
	code := strings.TrimSpace(in.Code)
	if code == "" {
		code = strings.ToUpper(uuid.NewString()[:8])
	}
	p, err := promodom.New(
		u.newID(),
		code,
		in.DiscountPercent,
		now.AddDate(0, 0, in.ExpiresInDays),
		in.AccountID,
		now,
	)
	if err != nil {
		return promodom.Promo{}, err
	}
	return u.repo.Create(ctx, p)
}

// Toggle flips the active flag (admin).
func (u *PromoUsecase) Toggle(ctx context.Context, promoID string) (promodom.Promo, error) {
	pid := strings.TrimSpace(promoID)
	if pid == "" {
		return promodom.Promo{}, ErrPromoInvalidArgument
	}

	list, err := u.repo.List(ctx)
	if err != nil {
		return promodom.Promo{}, err
	}
	for _, p := range list {
		if p.ID == pid {
			p.SetActive(!p.Active)
			if err := u.repo.Save(ctx, p); err != nil {
				return promodom.Promo{}, err
			}
			return p, nil
		}
	}
	return promodom.Promo{}, promodom.ErrNotFound
}

// Delete removes a promo code (admin).
func (u *PromoUsecase) Delete(ctx context.Context, promoID string) error {
	pid := strings.TrimSpace(promoID)
	if pid == "" {
		return ErrPromoInvalidArgument
	}
	return u.repo.Delete(ctx, pid)
}

// List returns all promo codes (admin).
func (u *PromoUsecase) List(ctx context.Context) ([]promodom.Promo, error) {
	return u.repo.List(ctx)
}
