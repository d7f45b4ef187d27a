// internal/domain/order/entity_test.go
package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cartdom "sodistore/internal/domain/cart"
	checkoutdom "sodistore/internal/domain/checkout"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testSnapshot(t *testing.T) checkoutdom.Snapshot {
	t.Helper()
	c, err := cartdom.NewCart("acct-1", 18, now)
	require.NoError(t, err)
	require.NoError(t, c.AddLine(cartdom.Line{
		ID: "l1", ProductID: "p1", Qty: 2, UnitPrice: 1000,
		Variant: cartdom.VariantSelection{Color: "noir", Size: "M"},
	}, now))
	require.NoError(t, c.ApplyPromo("WELCOME", 10, now))

	snap, err := checkoutdom.NewSnapshot("snap-1", "acct-1", c, "addr-1", checkoutdom.MethodCredit, "XOF", now)
	require.NoError(t, err)
	return snap
}

func TestFromSnapshot_CopiesFrozenState(t *testing.T) {
	snap := testSnapshot(t)

	o, err := FromSnapshot("order-1", snap, StatusPending, now)
	require.NoError(t, err)
	require.Equal(t, "acct-1", o.AccountID)
	require.Equal(t, "snap-1", o.SnapshotID)
	require.Equal(t, "credit", o.Method)
	require.Equal(t, "WELCOME", o.PromoCode)
	require.Equal(t, "addr-1", o.ShippingAddressID)

	require.Len(t, o.Items, 1)
	require.Equal(t, "p1", o.Items[0].ProductID)
	require.Equal(t, "noir", o.Items[0].Color)
	require.Equal(t, snap.Totals.GrandTotal, o.Totals.GrandTotal)
	require.Equal(t, snap.Totals.DiscountAmount, o.Totals.DiscountAmount)
}

func TestStatusTransitions(t *testing.T) {
	snap := testSnapshot(t)

	o, err := FromSnapshot("order-1", snap, StatusPending, now)
	require.NoError(t, err)

	require.NoError(t, o.MarkPaid(now))
	require.Equal(t, StatusPaid, o.Status)
	require.ErrorIs(t, o.MarkPaid(now), ErrInvalidStatus)
	require.ErrorIs(t, o.Cancel(now), ErrInvalidStatus, "a paid order never cancels through this path")
}

func TestCancel_PendingOnly(t *testing.T) {
	snap := testSnapshot(t)

	o, err := FromSnapshot("order-1", snap, StatusPending, now)
	require.NoError(t, err)
	require.NoError(t, o.Cancel(now))
	require.Equal(t, StatusCancelled, o.Status)
	require.ErrorIs(t, o.MarkPaid(now), ErrInvalidStatus)
}

func TestFromSnapshot_Validation(t *testing.T) {
	snap := testSnapshot(t)

	_, err := FromSnapshot("", snap, StatusPaid, now)
	require.ErrorIs(t, err, ErrInvalidOrder)

	_, err = FromSnapshot("order-1", snap, "shipped", now)
	require.ErrorIs(t, err, ErrInvalidOrder)
}
