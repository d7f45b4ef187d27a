// internal/domain/promo/entity.go
package promo

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidPromo = errors.New("promo: invalid")
	ErrNotFound     = errors.New("promo: not found")

	// ErrInvalidOrExpired covers inactive, expired and unknown codes
	// uniformly so callers cannot distinguish them.
	ErrInvalidOrExpired = errors.New("promo: invalid or expired")
)

// Promo is a percentage discount code.
// AccountID, when set, restricts the code to one buyer.
type Promo struct {
	ID              string
	Code            string
	DiscountPercent int
	Active          bool
	ExpiresAt       time.Time
	AccountID       string
	CreatedAt       time.Time
}

func New(id, code string, discountPercent int, expiresAt time.Time, accountID string, now time.Time) (Promo, error) {
	p := Promo{
		ID:              strings.TrimSpace(id),
		Code:            strings.ToUpper(strings.TrimSpace(code)),
		DiscountPercent: discountPercent,
		Active:          true,
		ExpiresAt:       expiresAt.UTC(),
		AccountID:       strings.TrimSpace(accountID),
		CreatedAt:       now.UTC(),
	}
	if err := p.validate(); err != nil {
		return Promo{}, err
	}
	return p, nil
}

// Usable reports whether the promo can be applied by accountID at now.
func (p Promo) Usable(accountID string, now time.Time) bool {
	if !p.Active {
		return false
	}
	if !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt) {
		return false
	}
	if p.AccountID != "" && p.AccountID != strings.TrimSpace(accountID) {
		return false
	}
	return true
}

func (p *Promo) SetActive(active bool) {
	p.Active = active
}

func (p Promo) validate() error {
	if p.ID == "" || p.Code == "" {
		return ErrInvalidPromo
	}
	if p.DiscountPercent <= 0 || p.DiscountPercent > 100 {
		return ErrInvalidPromo
	}
	if p.CreatedAt.IsZero() {
		return ErrInvalidPromo
	}
	return nil
}
