// internal/adapters/in/http/store/webhook/kkiapay_handler.go
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	uc "sodistore/internal/application/usecase"
	checkoutdom "sodistore/internal/domain/checkout"
)

// KkiapayWebhookHandler receives the out-of-band payment outcome from
// the gateway and applies it to the correlated payment intent.
//
// - POST /store/webhooks/kkiapay
//
// Correlation is the snapshotId we passed as the transaction's
// partnerId when opening the payment. Duplicate deliveries are
// acknowledged with 204 without re-applying the outcome.
type KkiapayWebhookHandler struct {
	checkoutUC *uc.CheckoutUsecase

	// secret signs the X-Kkiapay-Signature header (hex hmac-sha256 of
	// the raw body). Empty disables verification (local dev).
	secret string
}

func NewKkiapayWebhookHandler(checkoutUC *uc.CheckoutUsecase, secret string) http.Handler {
	return &KkiapayWebhookHandler{checkoutUC: checkoutUC, secret: strings.TrimSpace(secret)}
}

// kkiapayEvent is the subset of the gateway payload we use.
type kkiapayEvent struct {
	Event         string `json:"event"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	PartnerID     string `json:"partnerId"`  // snapshotId
	SnapshotID    string `json:"snapshotId"` // fallback for dev payloads
}

func (h *KkiapayWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.checkoutUC == nil {
		writeJSONError(w, http.StatusInternalServerError, "checkout usecase is not configured")
		return
	}

	const maxBody = 1 << 20 // 1MB
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	_ = r.Body.Close()

	if h.secret != "" && !h.verifySignature(body, r.Header.Get("X-Kkiapay-Signature")) {
		log.Printf("[store/webhook/kkiapay] signature mismatch -> 401")
		writeJSONError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var ev kkiapayEvent
	if len(strings.TrimSpace(string(body))) > 0 {
		_ = json.Unmarshal(body, &ev) // query fallback below
	}

	snapshotID := strings.TrimSpace(ev.PartnerID)
	if snapshotID == "" {
		snapshotID = strings.TrimSpace(ev.SnapshotID)
	}
	if snapshotID == "" {
		snapshotID = strings.TrimSpace(r.URL.Query().Get("snapshotId"))
	}
	if snapshotID == "" {
		writeJSONError(w, http.StatusBadRequest, "snapshotId is required (json.partnerId or query snapshotId)")
		return
	}

	succeeded := isSuccessStatus(ev.Status, ev.Event)

	res, err := h.checkoutUC.HandleGatewayOutcome(r.Context(), uc.GatewayOutcome{
		SnapshotID: snapshotID,
		GatewayRef: strings.TrimSpace(ev.TransactionID),
		Succeeded:  succeeded,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkoutdom.ErrIntentNotFound):
			log.Printf("[store/webhook/kkiapay] unknown snapshotId=%s -> 404", snapshotID)
			writeJSONError(w, http.StatusNotFound, "payment intent not found")
			return
		case errors.Is(err, uc.ErrCheckoutGatewayDeclined):
			// decline applied; the delivery itself is fine
		case errors.Is(err, uc.ErrCheckoutPersistAfterCapture):
			// capture recorded, repair delegated to the reconciler.
			// Acknowledge so the gateway stops retrying.
			log.Printf("[store/webhook/kkiapay] capture recorded, order persistence pending snapshotId=%s", snapshotID)
		default:
			log.Printf("[store/webhook/kkiapay] outcome failed snapshotId=%s err=%v", snapshotID, err)
			writeJSONError(w, http.StatusInternalServerError, "failed to apply outcome")
			return
		}
	}

	log.Printf("[store/webhook/kkiapay] applied snapshotId=%s succeeded=%t state=%s order=%s",
		snapshotID, succeeded, res.State, res.OrderID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *KkiapayWebhookHandler) verifySignature(body []byte, header string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(strings.ToLower(header)))
}

func isSuccessStatus(status, event string) bool {
	s := strings.ToUpper(strings.TrimSpace(status))
	if s == "" {
		s = strings.ToUpper(strings.TrimSpace(event))
	}
	switch s {
	case "SUCCESS", "SUCCEEDED", "PAID", "TRANSACTION.SUCCESS":
		return true
	}
	return false
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": msg,
	})
}
