// internal/adapters/in/http/store/handler/checkout_handler.go
package storeHandler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"sodistore/internal/adapters/in/http/middleware"
	usecase "sodistore/internal/application/usecase"
	checkoutdom "sodistore/internal/domain/checkout"
)

// CheckoutHandler drives a checkout attempt.
//
// - POST /store/me/checkout               start (body: method, optional shippingAddressId)
// - GET  /store/me/checkout/{snapshotId}  attempt status
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) http.Handler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.CurrentUID(r)
	if !ok {
		unauthorized(w)
		return
	}
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "checkout handler is not configured")
		return
	}

	path := strings.TrimRight(r.URL.Path, "/")
	sid := pathSuffix(path, "/store/me/checkout")

	switch {
	case r.Method == http.MethodPost && sid == "":
		h.handleStart(w, r, uid)
	case r.Method == http.MethodGet && sid != "":
		h.handleStatus(w, r, uid, sid)
	default:
		methodNotAllowed(w)
	}
}

type startReq struct {
	Method            string `json:"method"`
	ShippingAddressID string `json:"shippingAddressId"`
	PayerName         string `json:"payerName"`
	PayerEmail        string `json:"payerEmail"`
	PayerPhone        string `json:"payerPhone"`
}

func (h *CheckoutHandler) handleStart(w http.ResponseWriter, r *http.Request, uid string) {
	start := time.Now()

	var req startReq
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	method := checkoutdom.Method(strings.TrimSpace(req.Method))
	if !method.Valid() {
		badRequest(w, "method must be gateway or credit")
		return
	}

	_, email, _ := middleware.CurrentUIDAndEmail(r)
	payer := checkoutdom.Payer{
		Name:  strings.TrimSpace(req.PayerName),
		Email: strings.TrimSpace(req.PayerEmail),
		Phone: strings.TrimSpace(req.PayerPhone),
	}
	if payer.Email == "" {
		payer.Email = email
	}
	if payer.Name == "" {
		if n, ok := middleware.CurrentFullName(r); ok {
			payer.Name = n
		}
	}

	res, err := h.uc.Start(r.Context(), uid, usecase.StartInput{
		ShippingAddressID: req.ShippingAddressID,
		Method:            method,
		Payer:             payer,
	})
	if err != nil {
		h.writeStartErr(w, err)
		return
	}

	log.Printf("[store_checkout_handler] start ok snapshot=%s state=%s elapsed=%s", res.SnapshotID, res.State, time.Since(start))
	writeJSON(w, http.StatusOK, startResultDTO(res))
}

func (h *CheckoutHandler) handleStatus(w http.ResponseWriter, r *http.Request, uid, snapshotID string) {
	sess, err := h.uc.Status(r.Context(), uid, snapshotID)
	if err != nil {
		if errors.Is(err, checkoutdom.ErrSessionNotFound) {
			notFound(w)
			return
		}
		if errors.Is(err, usecase.ErrCheckoutInvalidArgument) {
			badRequest(w, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"snapshotId":  sess.SnapshotID,
		"state":       string(sess.State),
		"method":      string(sess.Method),
		"orderId":     sess.OrderID,
		"failureKind": string(sess.FailureKind),
		"updatedAt":   toRFC3339(sess.UpdatedAt),
	})
}

// writeStartErr maps orchestration failures onto stable codes the app
// shows as distinct screens.
func (h *CheckoutHandler) writeStartErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrCheckoutInvalidArgument), errors.Is(err, usecase.ErrCheckoutEmptyCart):
		writeErrCode(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, usecase.ErrCheckoutInFlight):
		writeErrCode(w, http.StatusConflict, "checkout_in_flight", err.Error())
	case errors.Is(err, usecase.ErrCheckoutMissingAddress):
		writeErrCode(w, http.StatusUnprocessableEntity, "missing_shipping_address", err.Error())
	case errors.Is(err, usecase.ErrCheckoutInsufficientFunds):
		writeErrCode(w, http.StatusPaymentRequired, "insufficient_funds", err.Error())
	case errors.Is(err, usecase.ErrCheckoutGatewayOpenFailed):
		writeErrCode(w, http.StatusBadGateway, "gateway_unavailable", err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func startResultDTO(res usecase.StartResult) map[string]any {
	dto := map[string]any{
		"snapshotId": res.SnapshotID,
		"state":      string(res.State),
	}
	if res.OrderID != "" {
		dto["orderId"] = res.OrderID
	}
	if res.IntentID != "" {
		dto["intentId"] = res.IntentID
	}
	if res.GatewayRef != "" {
		dto["gatewayRef"] = res.GatewayRef
	}
	return dto
}
