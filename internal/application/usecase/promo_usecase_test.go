// internal/application/usecase/promo_usecase_test.go
package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cartdom "sodistore/internal/domain/cart"
	promodom "sodistore/internal/domain/promo"
)

func newPromoUC(t *testing.T, promos *memPromos, carts *memCarts) *PromoUsecase {
	t.Helper()
	uc := NewPromoUsecase(promos, carts)
	uc.now = func() time.Time { return testTime }
	n := 0
	uc.newID = func() string {
		n++
		return fmt.Sprintf("promo-%d", n)
	}
	return uc
}

func seedPromoCart(t *testing.T, carts *memCarts) *cartdom.Cart {
	t.Helper()
	c, err := cartdom.NewCart("acct-1", 0, testTime)
	require.NoError(t, err)
	require.NoError(t, c.AddLine(cartdom.Line{ID: "l1", ProductID: "p1", Qty: 1, UnitPrice: 1000}, testTime))
	require.NoError(t, carts.Upsert(context.Background(), c))
	return c
}

func TestPromoApply_ValidCode(t *testing.T) {
	carts := newMemCarts()
	seedPromoCart(t, carts)
	p, err := promodom.New("promo-1", "welcome", 15, testTime.Add(24*time.Hour), "", testTime)
	require.NoError(t, err)
	uc := newPromoUC(t, newMemPromos(p), carts)

	c, err := uc.Apply(context.Background(), "acct-1", "welcome")
	require.NoError(t, err)
	require.Equal(t, "WELCOME", c.Promo.Code)
	require.Equal(t, 850, c.Totals.GrandTotal)

	// idempotent re-apply
	c, err = uc.Apply(context.Background(), "acct-1", "WELCOME")
	require.NoError(t, err)
	require.Equal(t, 850, c.Totals.GrandTotal)
}

func TestPromoApply_UnknownExpiredInactiveLookAlike(t *testing.T) {
	carts := newMemCarts()
	cart := seedPromoCart(t, carts)

	expired, err := promodom.New("promo-1", "OLD", 10, testTime.Add(-time.Hour), "", testTime.Add(-48*time.Hour))
	require.NoError(t, err)
	inactive, err := promodom.New("promo-2", "OFF", 10, testTime.Add(time.Hour), "", testTime)
	require.NoError(t, err)
	inactive.SetActive(false)
	foreign, err := promodom.New("promo-3", "VIP", 10, testTime.Add(time.Hour), "acct-9", testTime)
	require.NoError(t, err)

	uc := newPromoUC(t, newMemPromos(expired, inactive, foreign), carts)

	for _, code := range []string{"NOPE", "OLD", "OFF", "VIP"} {
		_, err := uc.Apply(context.Background(), "acct-1", code)
		require.ErrorIs(t, err, promodom.ErrInvalidOrExpired, "code %s must fail uniformly", code)
	}

	// the cart kept its state through every rejection
	stored, _ := carts.GetByAccountID(context.Background(), "acct-1")
	require.Nil(t, stored.Promo)
	require.Equal(t, cart.Totals.GrandTotal, stored.Totals.GrandTotal)
}

func TestPromoApply_AccountRestrictedCode(t *testing.T) {
	carts := newMemCarts()
	seedPromoCart(t, carts)
	p, err := promodom.New("promo-1", "VIP", 25, testTime.Add(time.Hour), "acct-1", testTime)
	require.NoError(t, err)
	uc := newPromoUC(t, newMemPromos(p), carts)

	c, err := uc.Apply(context.Background(), "acct-1", "vip")
	require.NoError(t, err)
	require.Equal(t, 750, c.Totals.GrandTotal)
}

func TestPromoCreateToggleDelete(t *testing.T) {
	promos := newMemPromos()
	uc := newPromoUC(t, promos, newMemCarts())

	p, err := uc.Create(context.Background(), CreateInput{Code: "spring", DiscountPercent: 20})
	require.NoError(t, err)
	require.Equal(t, "SPRING", p.Code)
	require.True(t, p.Active)
	require.Equal(t, testTime.AddDate(0, 0, 7), p.ExpiresAt)

	p, err = uc.Toggle(context.Background(), p.ID)
	require.NoError(t, err)
	require.False(t, p.Active)

	require.NoError(t, uc.Delete(context.Background(), p.ID))
	_, err = promos.GetByCode(context.Background(), "SPRING")
	require.ErrorIs(t, err, promodom.ErrNotFound)
}
