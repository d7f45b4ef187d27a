// internal/application/usecase/reconcile_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	checkoutdom "sodistore/internal/domain/checkout"
	orderdom "sodistore/internal/domain/order"
)

func newReconciler(env *checkoutEnv, window time.Duration) *ReconcileUsecase {
	return NewReconcileUsecaseWithClock(env.uc, env.intents, env.sessions, window, func() time.Time {
		return env.clock
	})
}

func TestReconcile_RepairsCapturedIntent(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1000, 1)

	start, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	// capture lands but order persistence is down
	env.orders.failCreate = errors.New("firestore: unavailable")
	_, err = env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{SnapshotID: start.SnapshotID, Succeeded: true})
	require.ErrorIs(t, err, ErrCheckoutPersistAfterCapture)

	// first pass still fails; the intent survives for the next one
	rec := newReconciler(env, 30*time.Minute)
	repaired, err := rec.RepairCaptured(context.Background())
	require.Error(t, err)
	require.Zero(t, repaired)

	env.orders.failCreate = nil
	repaired, err = rec.RepairCaptured(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, repaired)

	o, err := env.orders.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.NoError(t, err)
	require.Equal(t, orderdom.StatusPaid, o.Status)
	pi, _ := env.intents.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.Equal(t, checkoutdom.IntentConsumed, pi.Status)
	sess := env.session(t, start.SnapshotID)
	require.Equal(t, checkoutdom.StateSettled, sess.State)
	require.Equal(t, o.ID, sess.OrderID)

	// a later pass has nothing left to do
	repaired, err = rec.RepairCaptured(context.Background())
	require.NoError(t, err)
	require.Zero(t, repaired)
}

func TestReconcile_ExpiresStaleOpenedIntent(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1000, 1)

	start, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	// no callback within the window
	env.clock = env.clock.Add(45 * time.Minute)

	rec := newReconciler(env, 30*time.Minute)
	expired, err := rec.ExpireStale(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, expired)

	pi, _ := env.intents.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.Equal(t, checkoutdom.IntentFailed, pi.Status)

	sess := env.session(t, start.SnapshotID)
	require.Equal(t, checkoutdom.StateFailed, sess.State)
	require.Equal(t, checkoutdom.FailureGatewayTimeout, sess.FailureKind)

	// snapshot dropped, timeout announced, no order was ever created
	require.Empty(t, env.snaps.byID)
	require.Len(t, env.events.ofType(EventGatewayTimeout), 1)
	require.Empty(t, env.orders.byID)

	// the expired attempt releases the single-flight lock
	env.seedCart(t, "acct-1", 500, 1)
	_, err = env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)
}

func TestReconcile_FreshIntentIsLeftAlone(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedAddress(t, "acct-1")
	env.seedCart(t, "acct-1", 1000, 1)

	start, err := env.uc.Start(context.Background(), "acct-1", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	env.clock = env.clock.Add(5 * time.Minute)

	rec := newReconciler(env, 30*time.Minute)
	expired, err := rec.ExpireStale(context.Background())
	require.NoError(t, err)
	require.Zero(t, expired)

	pi, _ := env.intents.GetBySnapshotID(context.Background(), start.SnapshotID)
	require.Equal(t, checkoutdom.IntentOpened, pi.Status)

	// a late success after a fresh pass still settles
	_, err = env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{SnapshotID: start.SnapshotID, Succeeded: true})
	require.NoError(t, err)
}

func TestReconcile_RunCombinesBothPasses(t *testing.T) {
	env := newCheckoutEnv(t)

	// account A: captured but unconsumed
	env.seedAddress(t, "acct-a")
	env.seedCart(t, "acct-a", 700, 1)
	a, err := env.uc.Start(context.Background(), "acct-a", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)
	env.carts.failSave = errors.New("firestore: deadline exceeded")
	_, err = env.uc.HandleGatewayOutcome(context.Background(), GatewayOutcome{SnapshotID: a.SnapshotID, Succeeded: true})
	require.Error(t, err)
	env.carts.failSave = nil

	// account B: opened and abandoned
	env.seedAddress(t, "acct-b")
	env.seedCart(t, "acct-b", 900, 1)
	b, err := env.uc.Start(context.Background(), "acct-b", StartInput{Method: checkoutdom.MethodGateway})
	require.NoError(t, err)

	env.clock = env.clock.Add(time.Hour)

	rec := newReconciler(env, 30*time.Minute)
	require.NoError(t, rec.Run(context.Background()))

	piA, _ := env.intents.GetBySnapshotID(context.Background(), a.SnapshotID)
	require.Equal(t, checkoutdom.IntentConsumed, piA.Status)
	piB, _ := env.intents.GetBySnapshotID(context.Background(), b.SnapshotID)
	require.Equal(t, checkoutdom.IntentFailed, piB.Status)
}
