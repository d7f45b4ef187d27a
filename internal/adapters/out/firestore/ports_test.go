// internal/adapters/out/firestore/ports_test.go
package firestore

import (
	cartdom "sodistore/internal/domain/cart"
	checkoutdom "sodistore/internal/domain/checkout"
	orderdom "sodistore/internal/domain/order"
	promodom "sodistore/internal/domain/promo"
	addrdom "sodistore/internal/domain/shippingaddress"
)

// Compile-time checks that every adapter satisfies its domain port.
var (
	_ cartdom.Repository             = (*CartRepositoryFS)(nil)
	_ promodom.Repository            = (*PromoRepositoryFS)(nil)
	_ addrdom.Repository             = (*ShippingAddressRepositoryFS)(nil)
	_ orderdom.Repository            = (*OrderRepositoryFS)(nil)
	_ checkoutdom.IntentRepository   = (*PaymentIntentRepositoryFS)(nil)
	_ checkoutdom.SessionRepository  = (*CheckoutSessionRepositoryFS)(nil)
	_ checkoutdom.SnapshotRepository = (*SnapshotRepositoryFS)(nil)
)
