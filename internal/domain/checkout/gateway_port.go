// internal/domain/checkout/gateway_port.go
package checkout

import "context"

// Payer identifies the buyer to the external gateway.
type Payer struct {
	Name  string
	Email string
	Phone string
}

// OpenRequest asks the gateway to start an external payment flow.
// SnapshotID rides along as the correlation state; the gateway echoes
// it back in the callback so the outcome can be matched to the intent
// that opened it, never to the live cart.
type OpenRequest struct {
	IntentID   string
	SnapshotID string
	Amount     int
	Currency   string
	Payer      Payer
}

// GatewayClient opens an external payment flow. The outcome does NOT
// come back through this interface: it arrives out-of-band on the
// webhook, possibly after arbitrary delay.
type GatewayClient interface {
	// Open returns the gateway's reference for the opened flow.
	Open(ctx context.Context, req OpenRequest) (gatewayRef string, err error)
}
