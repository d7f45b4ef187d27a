// internal/adapters/in/http/store/router.go
package store

import (
	"log"
	"net/http"
)

// Deps is the buyer-facing (store) handler set.
type Deps struct {
	Cart            http.Handler
	Checkout        http.Handler
	Order           http.Handler
	Promo           http.Handler
	ShippingAddress http.Handler
	Ledger          http.Handler

	// gateway callback, registered outside the auth middleware
	KkiapayWebhook http.Handler
}

// handleSafe registers pattern with h.
// If h is nil, it logs and registers NotFoundHandler instead (so Cloud Run won't crash).
func handleSafe(mux *http.ServeMux, pattern string, h http.Handler, name string) {
	if h == nil {
		log.Printf("[store.router] WARN: nil handler: %s pattern=%s (registering NotFoundHandler)", name, pattern)
		h = http.NotFoundHandler()
	}
	mux.Handle(pattern, h)
}

// Register registers authenticated buyer routes onto mux.
func Register(mux *http.ServeMux, deps Deps) {
	if mux == nil {
		return
	}

	// cart
	handleSafe(mux, "/store/me/cart", deps.Cart, "Cart(me)")
	handleSafe(mux, "/store/me/cart/", deps.Cart, "Cart(me)")

	// checkout
	handleSafe(mux, "/store/me/checkout", deps.Checkout, "Checkout(me)")
	handleSafe(mux, "/store/me/checkout/", deps.Checkout, "Checkout(me)")

	// orders
	handleSafe(mux, "/store/me/orders", deps.Order, "Order(me)")
	handleSafe(mux, "/store/me/orders/", deps.Order, "Order(me)")

	// promos (buyer apply + admin CRUD)
	handleSafe(mux, "/store/me/promos/apply", deps.Promo, "Promo(apply)")
	handleSafe(mux, "/store/promos", deps.Promo, "Promo")
	handleSafe(mux, "/store/promos/", deps.Promo, "Promo")

	// shipping addresses
	handleSafe(mux, "/store/me/shipping-addresses", deps.ShippingAddress, "ShippingAddress(me)")
	handleSafe(mux, "/store/me/shipping-addresses/", deps.ShippingAddress, "ShippingAddress(me)")

	// balances
	handleSafe(mux, "/store/me/balances", deps.Ledger, "Ledger(me)")
	handleSafe(mux, "/store/me/balances/", deps.Ledger, "Ledger(me)")
}

// RegisterWebhooks registers the unauthenticated gateway callback.
func RegisterWebhooks(mux *http.ServeMux, deps Deps) {
	if mux == nil {
		return
	}
	handleSafe(mux, "/store/webhooks/kkiapay", deps.KkiapayWebhook, "KkiapayWebhook")
}
