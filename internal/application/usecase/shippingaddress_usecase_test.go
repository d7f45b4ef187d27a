// internal/application/usecase/shippingaddress_usecase_test.go
package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	addrdom "sodistore/internal/domain/shippingaddress"
)

func newAddrUC(repo *memAddrs) *ShippingAddressUsecase {
	uc := NewShippingAddressUsecase(repo)
	uc.now = func() time.Time { return testTime }
	n := 0
	uc.newID = func() string {
		n++
		return fmt.Sprintf("addr-%d", n)
	}
	return uc
}

func TestAddressAdd_FirstBecomesDefault(t *testing.T) {
	repo := newMemAddrs()
	uc := newAddrUC(repo)

	a, err := uc.Add(context.Background(), "acct-1", AddInput{
		FullName: "Ama Diallo", Street: "Rue 12", City: "Cotonou", Country: "BJ",
	})
	require.NoError(t, err)
	require.True(t, a.IsDefault)

	b, err := uc.Add(context.Background(), "acct-1", AddInput{
		FullName: "Ama Diallo", Street: "Rue 34", City: "Porto-Novo", Country: "BJ",
	})
	require.NoError(t, err)
	require.False(t, b.IsDefault)

	def, ok, err := uc.Default(context.Background(), "acct-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, a.ID, def.ID)
}

func TestAddressSetDefault_UnmarksOthers(t *testing.T) {
	repo := newMemAddrs()
	uc := newAddrUC(repo)

	a, err := uc.Add(context.Background(), "acct-1", AddInput{FullName: "A", Street: "S1", City: "C", Country: "BJ"})
	require.NoError(t, err)
	require.True(t, a.IsDefault)
	b, err := uc.Add(context.Background(), "acct-1", AddInput{FullName: "A", Street: "S2", City: "C", Country: "BJ"})
	require.NoError(t, err)

	_, err = uc.SetDefault(context.Background(), "acct-1", b.ID)
	require.NoError(t, err)

	list, err := uc.List(context.Background(), "acct-1")
	require.NoError(t, err)
	for _, e := range list {
		require.Equal(t, e.ID == b.ID, e.IsDefault)
	}
}

func TestAddressOwnership(t *testing.T) {
	repo := newMemAddrs()
	uc := newAddrUC(repo)

	a, err := uc.Add(context.Background(), "acct-1", AddInput{FullName: "A", Street: "S", City: "C", Country: "BJ"})
	require.NoError(t, err)

	_, err = uc.SetDefault(context.Background(), "acct-2", a.ID)
	require.ErrorIs(t, err, ErrAddressForbidden)
	require.ErrorIs(t, uc.Delete(context.Background(), "acct-2", a.ID), ErrAddressForbidden)

	require.NoError(t, uc.Delete(context.Background(), "acct-1", a.ID))
	_, err = repo.GetByID(context.Background(), a.ID)
	require.ErrorIs(t, err, addrdom.ErrNotFound)
}

func TestAddressDefault_EmptyBook(t *testing.T) {
	uc := newAddrUC(newMemAddrs())

	_, ok, err := uc.Default(context.Background(), "acct-1")
	require.NoError(t, err)
	require.False(t, ok)
}
