// internal/adapters/in/http/store/handler/ledger_handler.go
package storeHandler

import (
	"errors"
	"net/http"

	"sodistore/internal/adapters/in/http/middleware"
	usecase "sodistore/internal/application/usecase"
)

// LedgerHandler exposes the buyer's internal balances.
//
// - GET /store/me/balances
type LedgerHandler struct {
	uc *usecase.LedgerUsecase
}

func NewLedgerHandler(uc *usecase.LedgerUsecase) http.Handler {
	return &LedgerHandler{uc: uc}
}

func (h *LedgerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.CurrentUID(r)
	if !ok {
		unauthorized(w)
		return
	}
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "ledger handler is not configured")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	b, err := h.uc.Balances(r.Context(), uid)
	if err != nil {
		if errors.Is(err, usecase.ErrLedgerInvalidArgument) {
			badRequest(w, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accountId":         b.AccountID,
		"commissionBalance": b.CommissionBalance,
		"walletBalance":     b.WalletBalance,
	})
}
