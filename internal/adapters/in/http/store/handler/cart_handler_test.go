// internal/adapters/in/http/store/handler/cart_handler_test.go
package storeHandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sodistore/internal/adapters/in/http/middleware"
	usecase "sodistore/internal/application/usecase"
	cartdom "sodistore/internal/domain/cart"
)

type cartRepoStub struct{ byAccount map[string]*cartdom.Cart }

func (s *cartRepoStub) GetByAccountID(ctx context.Context, accountID string) (*cartdom.Cart, error) {
	return s.byAccount[accountID], nil
}
func (s *cartRepoStub) Upsert(ctx context.Context, c *cartdom.Cart) error {
	s.byAccount[c.ID] = c
	return nil
}
func (s *cartRepoStub) DeleteByAccountID(ctx context.Context, accountID string) error {
	delete(s.byAccount, accountID)
	return nil
}

type tickClock struct{ t time.Time }

func (c *tickClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newCartHandler() (http.Handler, *cartRepoStub) {
	repo := &cartRepoStub{byAccount: map[string]*cartdom.Cart{}}
	n := 0
	newID := func() string { n++; return fmt.Sprintf("line-%d", n) }
	clock := &tickClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewCartHandler(usecase.NewCartUsecaseWithClock(repo, 18, clock, newID)), repo
}

func doCart(h http.Handler, method, path, body, uid string) *httptest.ResponseRecorder {
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if uid != "" {
		req = middleware.WithTestIdentity(req, uid, uid+"@example.com")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestCartHandler_RequiresIdentity(t *testing.T) {
	h, _ := newCartHandler()
	rr := doCart(h, http.MethodGet, "/store/me/cart", "", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCartHandler_EmptyCartForNewAccount(t *testing.T) {
	h, repo := newCartHandler()
	rr := doCart(h, http.MethodGet, "/store/me/cart", "", "acct-1")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeBody(t, rr)
	require.Empty(t, body["lines"])
	require.Empty(t, repo.byAccount, "GET must not persist an empty cart")
}

func TestCartHandler_AddLineComputesTotals(t *testing.T) {
	h, repo := newCartHandler()

	rr := doCart(h, http.MethodPost, "/store/me/cart/items",
		`{"productId":"p1","qty":2,"unitPrice":1000,"color":"black"}`, "acct-1")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeBody(t, rr)
	totals := body["totals"].(map[string]any)
	require.EqualValues(t, 2000, totals["subtotal"])
	require.EqualValues(t, 360, totals["tax"])
	require.EqualValues(t, 2360, totals["grandTotal"])

	require.NotNil(t, repo.byAccount["acct-1"])
	require.Len(t, repo.byAccount["acct-1"].Lines, 1)
}

func TestCartHandler_AddLineRejectsAmbiguousTarget(t *testing.T) {
	h, _ := newCartHandler()
	rr := doCart(h, http.MethodPost, "/store/me/cart/items",
		`{"productId":"p1","packageId":"pk1","qty":1,"unitPrice":100}`, "acct-1")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCartHandler_SetQtyZeroRemovesLine(t *testing.T) {
	h, _ := newCartHandler()
	doCart(h, http.MethodPost, "/store/me/cart/items",
		`{"productId":"p1","qty":2,"unitPrice":1000}`, "acct-1")

	rr := doCart(h, http.MethodPut, "/store/me/cart/items",
		`{"lineId":"line-1","qty":0}`, "acct-1")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, decodeBody(t, rr)["lines"])
}

func TestCartHandler_SetQtyWithoutLineID(t *testing.T) {
	h, _ := newCartHandler()
	rr := doCart(h, http.MethodPut, "/store/me/cart/items", `{"qty":1}`, "acct-1")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCartHandler_ClearIsIdempotent(t *testing.T) {
	h, _ := newCartHandler()
	doCart(h, http.MethodPost, "/store/me/cart/items",
		`{"productId":"p1","qty":1,"unitPrice":500}`, "acct-1")

	rr := doCart(h, http.MethodDelete, "/store/me/cart", "", "acct-1")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, decodeBody(t, rr)["lines"])

	rr = doCart(h, http.MethodDelete, "/store/me/cart", "", "acct-1")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestCartHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newCartHandler()
	rr := doCart(h, http.MethodPatch, "/store/me/cart", "", "acct-1")
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
