// internal/platform/di/store/register.go
package store

import (
	"encoding/json"
	"log"
	"net/http"

	storehttp "sodistore/internal/adapters/in/http/store"
	storeHandler "sodistore/internal/adapters/in/http/store/handler"
	storewebhook "sodistore/internal/adapters/in/http/store/webhook"
	"sodistore/internal/adapters/in/http/middleware"
	platmetrics "sodistore/internal/platform/metrics"
)

// notImplemented returns a non-nil handler (so deps are never nil) for
// endpoints that are not wired yet.
func notImplemented(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotImplemented)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "not_implemented",
			"name":  name,
		})
	})
}

// requireUserAuth wraps handler with UserAuthMiddleware (fail-closed).
// If middleware is not initialized, it returns 503 so the bug is obvious.
func requireUserAuth(mw *middleware.UserAuthMiddleware, h http.Handler, name string) http.Handler {
	if h == nil {
		h = http.NotFoundHandler()
	}
	if mw == nil || mw.FirebaseAuth == nil {
		log.Printf("[store.register] ERROR: UserAuthMiddleware is not initialized (endpoint=%s). returning 503", name)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "user_auth_not_initialized",
				"name":  name,
			})
		})
	}
	return mw.Handler(h)
}

// Register registers store routes onto mux.
// Pure DI: construct handlers and pass into store router.Register.
// UserAuthMiddleware is applied to every /store/me endpoint; the gateway
// webhook is registered without auth (it authenticates by signature).
func Register(mux *http.ServeMux, cont *Container) {
	if mux == nil || cont == nil {
		return
	}

	var userAuthMW *middleware.UserAuthMiddleware
	if cont.Infra != nil && cont.Infra.FirebaseAuth != nil {
		userAuthMW = &middleware.UserAuthMiddleware{
			FirebaseAuth: cont.Infra.FirebaseAuth,
		}
	} else {
		// fail-closed in requireUserAuth
		log.Printf("[store.register] WARN: FirebaseAuth is nil (protected endpoints will return 503)")
		userAuthMW = &middleware.UserAuthMiddleware{FirebaseAuth: nil}
	}

	// ----------------------------
	// Handlers (construct only)
	// ----------------------------
	cartH := notImplemented("Cart")
	checkoutH := notImplemented("Checkout")
	orderH := notImplemented("Order")
	promoH := notImplemented("Promo")
	shipH := notImplemented("ShippingAddress")
	ledgerH := notImplemented("Ledger")
	webhookH := notImplemented("KkiapayWebhook")

	if cont.CartUC != nil {
		cartH = storeHandler.NewCartHandler(cont.CartUC)
	}
	if cont.CheckoutUC != nil {
		checkoutH = storeHandler.NewCheckoutHandler(cont.CheckoutUC)
		webhookH = storewebhook.NewKkiapayWebhookHandler(cont.CheckoutUC, cont.Infra.GatewaySecretKey)
	}
	if cont.OrderUC != nil {
		orderH = storeHandler.NewOrderHandler(cont.OrderUC)
	}
	if cont.PromoUC != nil {
		promoH = storeHandler.NewPromoHandler(cont.PromoUC)
	}
	if cont.ShippingAddressUC != nil {
		shipH = storeHandler.NewShippingAddressHandler(cont.ShippingAddressUC)
	}
	if cont.LedgerUC != nil {
		ledgerH = storeHandler.NewLedgerHandler(cont.LedgerUC)
	}

	cartH = requireUserAuth(userAuthMW, cartH, "Cart")
	checkoutH = requireUserAuth(userAuthMW, checkoutH, "Checkout")
	orderH = requireUserAuth(userAuthMW, orderH, "Order")
	promoH = requireUserAuth(userAuthMW, promoH, "Promo")
	shipH = requireUserAuth(userAuthMW, shipH, "ShippingAddress")
	ledgerH = requireUserAuth(userAuthMW, ledgerH, "Ledger")

	deps := storehttp.Deps{
		Cart:            cartH,
		Checkout:        checkoutH,
		Order:           orderH,
		Promo:           promoH,
		ShippingAddress: shipH,
		Ledger:          ledgerH,

		KkiapayWebhook: webhookH,
	}

	storehttp.Register(mux, deps)
	storehttp.RegisterWebhooks(mux, deps)
	log.Printf("[boot] store routes registered")

	// operational surface
	mux.Handle("/metrics", platmetrics.Handler())
}
