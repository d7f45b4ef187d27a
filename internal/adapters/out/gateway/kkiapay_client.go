// internal/adapters/out/gateway/kkiapay_client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	checkoutdom "sodistore/internal/domain/checkout"
)

// KkiapayClient opens transactions on the Kkiapay payment API.
//
// Opening only registers intent on the gateway side; success or
// failure comes back later on the webhook. partnerId carries our
// snapshotId so the callback can be correlated.
type KkiapayClient struct {
	baseURL    string
	publicKey  string
	privateKey string
	callback   string
	client     *http.Client
}

// callbackURL example: https://store.example.app/store/webhooks/kkiapay
func NewKkiapayClient(baseURL, publicKey, privateKey, callbackURL string) *KkiapayClient {
	return &KkiapayClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		publicKey:  strings.TrimSpace(publicKey),
		privateKey: strings.TrimSpace(privateKey),
		callback:   strings.TrimSpace(callbackURL),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type openPayload struct {
	Amount    int    `json:"amount"`
	Currency  string `json:"currency"`
	PartnerID string `json:"partnerId"`
	Callback  string `json:"callback,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type openResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// Open registers the transaction and returns the gateway's id. The
// request is bounded by the client timeout; a slow gateway surfaces as
// a transport error, never a hung checkout.
func (c *KkiapayClient) Open(ctx context.Context, req checkoutdom.OpenRequest) (string, error) {
	if c == nil {
		return "", fmt.Errorf("kkiapay client is nil")
	}
	if c.baseURL == "" {
		return "", fmt.Errorf("kkiapay client baseURL is empty")
	}
	if req.Amount <= 0 {
		return "", fmt.Errorf("kkiapay: amount must be positive")
	}

	url := c.baseURL + "/api/v1/transactions"

	payload := openPayload{
		Amount:    req.Amount,
		Currency:  req.Currency,
		PartnerID: req.SnapshotID,
		Callback:  c.callback,
		Name:      req.Payer.Name,
		Email:     req.Payer.Email,
		Phone:     req.Payer.Phone,
		Reason:    "order " + req.IntentID,
	}

	b, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.publicKey)
	httpReq.Header.Set("X-Private-Key", c.privateKey)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("kkiapay open failed status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out openResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("kkiapay open: bad response: %w", err)
	}
	return strings.TrimSpace(out.TransactionID), nil
}
