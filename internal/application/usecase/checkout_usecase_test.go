// internal/application/usecase/checkout_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cartdom "sodistore/internal/domain/cart"
	checkoutdom "sodistore/internal/domain/checkout"
	ledgerdom "sodistore/internal/domain/ledger"
	orderdom "sodistore/internal/domain/order"
	addrdom "sodistore/internal/domain/shippingaddress"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type checkoutEnv struct {
	carts    *memCarts
	addrs    *memAddrs
	orders   *memOrders
	ledger   *memLedger
	gateway  *memGateway
	intents  *memIntents
	sessions *memSessions
	snaps    *memSnapshots
	events   *memPublisher
	esc      *memEscalator
	metrics  *memMetrics

	clock time.Time
	uc    *CheckoutUsecase
}

func newCheckoutEnv(t *testing.T) *checkoutEnv {
	t.Helper()
	env := &checkoutEnv{
		carts:    newMemCarts(),
		addrs:    newMemAddrs(),
		orders:   newMemOrders(),
		ledger:   newMemLedger(),
		gateway:  &memGateway{},
		intents:  newMemIntents(),
		sessions: newMemSessions(),
		snaps:    newMemSnapshots(),
		events:   &memPublisher{},
		esc:      &memEscalator{},
		metrics:  newMemMetrics(),
		clock:    testTime,
	}

	n := 0
	env.uc = NewCheckoutUsecaseWithClock(CheckoutDeps{
		Carts:     env.carts,
		Addresses: env.addrs,
		Orders:    env.orders,
		Ledger:    env.ledger,
		Gateway:   env.gateway,
		Intents:   env.intents,
		Sessions:  env.sessions,
		Snapshots: env.snaps,
		Events:    env.events,
		Escalator: env.esc,
		Metrics:   env.metrics,
		Currency:  "XOF",
	}, func() time.Time {
		env.clock = env.clock.Add(time.Second)
		return env.clock
	}, func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
	return env
}

func (env *checkoutEnv) seedAddress(t *testing.T, accountID string) string {
	t.Helper()
	a := addrdom.Address{
		ID: "addr-" + accountID, AccountID: accountID,
		FullName: "Ama Diallo", Street: "Rue 12", City: "Cotonou", Country: "BJ",
		IsDefault: true, CreatedAt: testTime, UpdatedAt: testTime,
	}
	_, err := env.addrs.Create(context.Background(), a)
	require.NoError(t, err)
	return a.ID
}

func (env *checkoutEnv) seedCart(t *testing.T, accountID string, unitPrice, qty int) *cartdom.Cart {
	t.Helper()
	c, err := cartdom.NewCart(accountID, 0, testTime)
	require.NoError(t, err)
	require.NoError(t, c.AddLine(cartdom.Line{
		ID: "line-1", ProductID: "prod-1", Qty: qty, UnitPrice: unitPrice,
	}, testTime))
	require.NoError(t, env.carts.Upsert(context.Background(), c))
	return c
}

func (env *checkoutEnv) session(t *testing.T, snapshotID string) checkoutdom.Session {
	t.Helper()
	s, err := env.sessions.GetBySnapshotID(context.Background(), snapshotID)
	require.NoError(t, err)
	return s
}

// ------------------------------------------------------------
// Entry guards
// ------------------------------------------------------------

func TestStart_NoShippingAddress(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedCart(t, "acct-1", 500, 2)

	_, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodCredit})
	require.ErrorIs(t, err, ErrCheckoutMissingAddress)

	// nothing was started
	require.Empty(t, env.snaps.byID)
	require.Empty(t, env.sessions.byID)
	require.Empty(t, env.orders.byID)
}

func TestStart_ExplicitAddressOfOtherAccountRejected(t *testing.T) {
	env := newCheckoutEnv(t)
	other := env.seedAddress(t, "acct-2")
	env.seedCart(t, "acct-1", 500, 2)

	_, err := env.uc.Start(context.Background(), "acct-1", StartInput{
		Method: checkoutdom.MethodCredit, ShippingAddressID: other,
	})
	require.ErrorIs(t, err, ErrCheckoutMissingAddress)
}

func TestStart_EmptyCart(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")

	_, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodCredit})
	require.ErrorIs(t, err, ErrCheckoutEmptyCart)
}

func TestStart_SingleFlightPerAccount(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1000, 1)

	res, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)
	require.Equal(t, checkoutdom.StateGatewayPending, res.State)

	// second attempt while the first is pending
	_, err = env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodCredit})
	require.ErrorIs(t, err, ErrCheckoutInFlight)

	// a different account is not blocked
	env.seedAddress(t, "acct-2")
	env.seedCart(t, "acct-2", 300, 1)
	env.ledger.set("acct-2", 1000, 0)
	_, err = env.uc.Start(context.Background(), "acct-2", StartInput{Method: checkoutdom.MethodCredit})
	require.NoError(t, err)
}

func TestStart_InvalidArguments(t *testing.T) {
	env := newCheckoutEnv(t)

	_, err := env.uc.Start(context.Background(), "", StartInput{Method: checkoutdom.MethodCredit})
	require.ErrorIs(t, err, ErrCheckoutInvalidArgument)

	_, err = env.uc.Start(context.Background(), "acct-1", StartInput{Method: "paypal"})
	require.ErrorIs(t, err, ErrCheckoutInvalidArgument)
}

// ------------------------------------------------------------
// Credit rail
// ------------------------------------------------------------

func TestCreditRail_CommissionCoversFully(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 2500, 2) // total 5000
	env.ledger.set("acct-1", 6000, 100)

	res, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodCredit})
	require.NoError(t, err)
	require.Equal(t, checkoutdom.StateSettled, res.State)
	require.NotEmpty(t, res.OrderID)

	// one debit, commission only, wallet untouched
	require.Len(t, env.ledger.debits, 1)
	require.Equal(t, ledgerdom.SourceCommission, env.ledger.debits[0].Source)
	require.Equal(t, 5000, env.ledger.debits[0].Amount)
	require.Equal(t, res.OrderID, env.ledger.debits[0].OrderID)
	b, _ := env.ledger.GetBalances(context.Background(), "acct-1")
	require.Equal(t, 1000, b.CommissionBalance)
	require.Equal(t, 100, b.WalletBalance)

	o, err := env.orders.GetByID(context.Background(), res.OrderID)
	require.NoError(t, err)
	require.Equal(t, orderdom.StatusPaid, o.Status)
	require.Equal(t, 5000, o.Totals.GrandTotal)

	// cart reconciled, snapshot dropped, session settled
	c, _ := env.carts.GetByAccountID(context.Background(), "acct-1")
	require.True(t, c.IsEmpty())
	require.Empty(t, env.snaps.byID)
	sess := env.session(t, res.SnapshotID)
	require.Equal(t, checkoutdom.StateSettled, sess.State)
	require.Equal(t, res.OrderID, sess.OrderID)

	require.Len(t, env.events.ofType(EventSettled), 1)
	require.Equal(t, "credit", env.events.ofType(EventSettled)[0].Rail)
	require.Equal(t, 1, env.metrics.settled["credit"])
}

func TestCreditRail_WalletCoversWhenCommissionCannot(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 800, 1)
	env.ledger.set("acct-1", 100, 5000)

	res, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodCredit})
	require.NoError(t, err)
	require.Equal(t, checkoutdom.StateSettled, res.State)

	require.Len(t, env.ledger.debits, 1)
	require.Equal(t, ledgerdom.SourceWallet, env.ledger.debits[0].Source)
	require.Equal(t, 800, env.ledger.debits[0].Amount)

	b, _ := env.ledger.GetBalances(context.Background(), "acct-1")
	require.Equal(t, 100, b.CommissionBalance)
	require.Equal(t, 4200, b.WalletBalance)
}

func TestCreditRail_NoSplittingAcrossBalances(t *testing.T) {
	// 500 + 1000 would cover 800 combined, but balances never combine.
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 800, 1)
	env.ledger.set("acct-1", 500, 700)

	res, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodCredit})
	require.ErrorIs(t, err, ErrCheckoutInsufficientFunds)
	require.Equal(t, checkoutdom.StateFailed, res.State)

	// no debit happened, balances untouched
	require.Empty(t, env.ledger.debits)
	b, _ := env.ledger.GetBalances(context.Background(), "acct-1")
	require.Equal(t, 500, b.CommissionBalance)
	require.Equal(t, 700, b.WalletBalance)

	// the pre-created order was cancelled, not left pending
	var cancelled int
	for _, o := range env.orders.byID {
		require.Equal(t, orderdom.StatusCancelled, o.Status)
		cancelled++
	}
	require.Equal(t, 1, cancelled)

	// cart untouched on failure
	c, _ := env.carts.GetByAccountID(context.Background(), "acct-1")
	require.False(t, c.IsEmpty())

	sess := env.session(t, res.SnapshotID)
	require.Equal(t, checkoutdom.StateFailed, sess.State)
	require.Equal(t, checkoutdom.FailureInsufficientFunds, sess.FailureKind)
	require.Equal(t, 1, env.metrics.failed["insufficient_funds"])
}

func TestCreditRail_UnknownLedgerAccountIsInsufficient(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 800, 1)

	_, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodCredit})
	require.ErrorIs(t, err, ErrCheckoutInsufficientFunds)
}

func TestCreditRail_DebitFailureCancelsOrder(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 800, 1)
	env.ledger.set("acct-1", 5000, 0)
	env.ledger.failWith = errors.New("pg: connection reset")

	_, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodCredit})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrCheckoutInsufficientFunds)

	for _, o := range env.orders.byID {
		require.Equal(t, orderdom.StatusCancelled, o.Status)
	}
	c, _ := env.carts.GetByAccountID(context.Background(), "acct-1")
	require.False(t, c.IsEmpty())
}

// ------------------------------------------------------------
func TestCreditRail_CartClearFailureStillSettles(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1000, 1)
	env.ledger.set("acct-1", 5000, 0)
	env.carts.failSave = errors.New("firestore: unavailable")

	res, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodCredit})
	require.NoError(t, err)
	require.Equal(t, checkoutdom.StateSettled, res.State)

	// the debit happened and the order is paid; the settlement stands
	o, err := env.orders.GetBySnapshotID(context.Background(), res.SnapshotID)
	require.NoError(t, err)
	require.Equal(t, orderdom.StatusPaid, o.Status)
	require.Len(t, env.ledger.debits, 1)

	// the stale cart is announced so a consumer can re-clear it
	require.Len(t, env.events.ofType(EventSettled), 1)
	require.Len(t, env.events.ofType(EventCartUnreconciled), 1)
	c, _ := env.carts.GetByAccountID(context.Background(), "acct-1")
	require.False(t, c.IsEmpty())
}

// ------------------------------------------------------------
// Gateway rail
// ------------------------------------------------------------

func TestGatewayRail_IntentPersistedBeforeOpen(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1200, 1)

	var intentAtOpen checkoutdom.PaymentIntent
	env.gateway.onOpen = func(req checkoutdom.OpenRequest) {
		pi, err := env.intents.GetBySnapshotID(context.Background(), req.SnapshotID)
		require.NoError(t, err, "intent must be durable before the gateway is called")
		intentAtOpen = pi
	}

	res, err := env.uc.Start(context.Background(), "acct-1", StartInput{
		Method: checkoutdom.MethodGateway,
		Payer:  checkoutdom.Payer{Name: "Ama Diallo", Email: "ama@example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, checkoutdom.StateGatewayPending, res.State)
	require.Equal(t, checkoutdom.IntentOpened, intentAtOpen.Status)
	require.Equal(t, 1200, intentAtOpen.Amount)
	require.Equal(t, "txn-1", res.GatewayRef)

	// the stored intent carries the gateway ref for correlation
	pi, err := env.intents.GetBySnapshotID(context.Background(), res.SnapshotID)
	require.NoError(t, err)
	require.Equal(t, "txn-1", pi.GatewayRef)

	// no order, no cart change until the callback
	require.Empty(t, env.orders.byID)
	c, _ := env.carts.GetByAccountID(context.Background(), "acct-1")
	require.False(t, c.IsEmpty())
}

func TestGatewayRail_OpenFailureFailsCleanly(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1200, 1)
	env.gateway.failWith = errors.New("dial tcp: i/o timeout")

	_, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.ErrorIs(t, err, ErrCheckoutGatewayOpenFailed)

	pi, err := env.intents.GetBySnapshotID(context.Background(), "id-1")
	require.NoError(t, err)
	require.Equal(t, checkoutdom.IntentFailed, pi.Status)

	sess := env.session(t, "id-1")
	require.Equal(t, checkoutdom.StateFailed, sess.State)
	require.Equal(t, checkoutdom.FailureNetwork, sess.FailureKind)

	// a failed attempt releases the single-flight lock
	env.gateway.failWith = nil
	_, err = env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)
}

func TestGatewayOutcome_SuccessSettles(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1500, 2) // total 3000

	start, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	res, err := env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{
		SnapshotID: start.SnapshotID, GatewayRef: "txn-1", Succeeded: true,
	})
	require.NoError(t, err)
	require.Equal(t, checkoutdom.StateSettled, res.State)
	require.NotEmpty(t, res.OrderID)

	o, err := env.orders.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.NoError(t, err)
	require.Equal(t, orderdom.StatusPaid, o.Status)
	require.Equal(t, 3000, o.Totals.GrandTotal)
	require.Equal(t, "gateway", o.Method)

	pi, _ := env.intents.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.Equal(t, checkoutdom.IntentConsumed, pi.Status)

	c, _ := env.carts.GetByAccountID(context.Background(), "acct-1")
	require.True(t, c.IsEmpty())
	require.Empty(t, env.snaps.byID)
	require.Len(t, env.events.ofType(EventSettled), 1)
}

func TestGatewayOutcome_LateCallbackUsesSnapshotNotLiveCart(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	c := env.seedCart(t, "acct-1", 1000, 1)

	start, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	// buyer keeps shopping while the gateway flow dangles
	require.NoError(t, c.AddLine(cartdom.Line{ID: "line-2", ProductID: "prod-9", Qty: 4, UnitPrice: 9999}, testTime.Add(time.Hour)))
	require.NoError(t, env.carts.Upsert(context.Background(), c))

	res, err := env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{
		SnapshotID: start.SnapshotID, Succeeded: true,
	})
	require.NoError(t, err)

	o, err := env.orders.GetByID(context.Background(), res.OrderID)
	require.NoError(t, err)
	require.Equal(t, 1000, o.Totals.GrandTotal, "order must reflect the frozen snapshot")
	require.Len(t, o.Items, 1)
	require.Equal(t, "prod-1", o.Items[0].ProductID)
}

func TestGatewayOutcome_Declined(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1000, 1)

	start, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	_, err = env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{
		SnapshotID: start.SnapshotID, GatewayRef: "txn-1", Succeeded: false,
	})
	require.ErrorIs(t, err, ErrCheckoutGatewayDeclined)

	pi, _ := env.intents.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.Equal(t, checkoutdom.IntentFailed, pi.Status)
	require.Empty(t, env.orders.byID)

	// cart survives a declined payment
	c, _ := env.carts.GetByAccountID(context.Background(), "acct-1")
	require.False(t, c.IsEmpty())

	sess := env.session(t, start.SnapshotID)
	require.Equal(t, checkoutdom.FailureGatewayDeclined, sess.FailureKind)
	require.Len(t, env.events.ofType(EventGatewayDeclined), 1)
}

func TestGatewayOutcome_DuplicateSuccessIsNoOp(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1000, 1)

	start, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	first, err := env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{SnapshotID: start.SnapshotID, Succeeded: true})
	require.NoError(t, err)

	second, err := env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{SnapshotID: start.SnapshotID, Succeeded: true})
	require.NoError(t, err)
	require.Equal(t, first.OrderID, second.OrderID)
	require.Equal(t, checkoutdom.StateSettled, second.State)

	require.Equal(t, 1, env.orders.creates, "duplicate delivery must not create a second order")
	require.Len(t, env.events.ofType(EventSettled), 1)
}

func TestGatewayOutcome_LateDeclineAfterCaptureIgnored(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1000, 1)

	start, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	settled, err := env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{SnapshotID: start.SnapshotID, Succeeded: true})
	require.NoError(t, err)

	// a conflicting "failed" arrives after the capture settled
	res, err := env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{SnapshotID: start.SnapshotID, Succeeded: false})
	require.NoError(t, err)
	require.Equal(t, checkoutdom.StateSettled, res.State)

	o, err := env.orders.GetByID(context.Background(), settled.OrderID)
	require.NoError(t, err)
	require.Equal(t, orderdom.StatusPaid, o.Status)
}

func TestGatewayOutcome_UnknownSnapshot(t *testing.T) {
	env := newCheckoutEnv(t)
	_, err := env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{SnapshotID: "nope", Succeeded: true})
	require.ErrorIs(t, err, checkoutdom.ErrIntentNotFound)
}

// ------------------------------------------------------------
// Capture without order
// ------------------------------------------------------------

func TestGatewayOutcome_OrderPersistenceFailureKeepsIntentForRepair(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1000, 1)

	start, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	env.orders.failCreate = errors.New("firestore: unavailable")
	_, err = env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{SnapshotID: start.SnapshotID, Succeeded: true})
	require.ErrorIs(t, err, ErrCheckoutPersistAfterCapture)

	// the capture is durable and unconsumed; snapshot is kept
	pi, _ := env.intents.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.Equal(t, checkoutdom.IntentSucceeded, pi.Status)
	_, err = env.snaps.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.NoError(t, err)

	// ops got paged and the unreconciled capture was announced
	require.NotEmpty(t, env.esc.subjects)
	require.Len(t, env.events.ofType(EventCaptureUnreconciled), 1)
	require.Equal(t, 1, env.metrics.failed["order_persistence_after_capture"])

	// storage recovers; the repair path finishes the settlement
	env.orders.failCreate = nil
	res, err := env.uc.CompleteCapturedIntent(context.Background(), start.SnapshotID)
	require.NoError(t, err)
	require.Equal(t, checkoutdom.StateSettled, res.State)

	o, err := env.orders.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.NoError(t, err)
	require.Equal(t, orderdom.StatusPaid, o.Status)
	pi, _ = env.intents.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.Equal(t, checkoutdom.IntentConsumed, pi.Status)
	c, _ := env.carts.GetByAccountID(context.Background(), "acct-1")
	require.True(t, c.IsEmpty())

	// the stored session reflects the recovery, not the old failure
	sess, err := env.sessions.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.NoError(t, err)
	require.Equal(t, checkoutdom.StateSettled, sess.State)
	require.Equal(t, checkoutdom.FailureNone, sess.FailureKind)
	require.Equal(t, o.ID, sess.OrderID)
}

func TestGatewayOutcome_CartClearFailureLeavesIntentUnconsumed(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1000, 1)

	start, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	env.carts.failSave = errors.New("firestore: deadline exceeded")
	_, err = env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{SnapshotID: start.SnapshotID, Succeeded: true})
	require.Error(t, err)

	// order exists, but the intent must stay succeeded so the
	// reconciler retries the cart clear
	require.Equal(t, 1, env.orders.creates)
	pi, _ := env.intents.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.Equal(t, checkoutdom.IntentSucceeded, pi.Status)

	env.carts.failSave = nil
	res, err := env.uc.CompleteCapturedIntent(context.Background(), start.SnapshotID)
	require.NoError(t, err)
	require.Equal(t, checkoutdom.StateSettled, res.State)
	require.Equal(t, 1, env.orders.creates, "repair must reuse the existing order")
}

func TestCompleteCapturedIntent_RejectsNonCaptured(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1000, 1)

	start, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	_, err = env.uc.CompleteCapturedIntent(context.Background(), start.SnapshotID)
	require.ErrorIs(t, err, checkoutdom.ErrIntentTerminal)
}

// ------------------------------------------------------------
// Status
// ------------------------------------------------------------

func TestStatus_OwnershipHidden(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1000, 1)

	start, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	sess, err := env.uc.Status(context.Background(), "acct-1", start.SnapshotID)
	require.NoError(t, err)
	require.Equal(t, checkoutdom.StateGatewayPending, sess.State)

	_, err = env.uc.Status(context.Background(), "acct-2", start.SnapshotID)
	require.ErrorIs(t, err, checkoutdom.ErrSessionNotFound)
}
