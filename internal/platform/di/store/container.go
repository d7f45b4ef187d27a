// internal/platform/di/store/container.go
package store

import (
	"context"
	"errors"
	"log"
	"strings"

	usecase "sodistore/internal/application/usecase"

	outdb "sodistore/internal/adapters/out/db"
	outevents "sodistore/internal/adapters/out/events"
	outfs "sodistore/internal/adapters/out/firestore"
	outgw "sodistore/internal/adapters/out/gateway"
	outmail "sodistore/internal/adapters/out/mail"

	checkoutdom "sodistore/internal/domain/checkout"
	ledgerdom "sodistore/internal/domain/ledger"

	"sodistore/internal/platform/di/shared"
	platmetrics "sodistore/internal/platform/metrics"
)

// Container is the store DI container.
// Pure DI: build deps only. No routing branching, no reflection tricks.
type Container struct {
	Infra *shared.Infra

	// Usecases
	CartUC            *usecase.CartUsecase
	PromoUC           *usecase.PromoUsecase
	ShippingAddressUC *usecase.ShippingAddressUsecase
	OrderUC           *usecase.OrderUsecase
	LedgerUC          *usecase.LedgerUsecase
	CheckoutUC        *usecase.CheckoutUsecase
	ReconcileUC       *usecase.ReconcileUsecase

	// Metrics (registered once; served on /metrics)
	Metrics *platmetrics.CheckoutMetrics

	// Events publisher (nil when Kafka is not configured)
	Events *outevents.KafkaSettlementPublisher
}

// NewContainer wires repositories, gateways and usecases on top of the
// shared infra.
func NewContainer(ctx context.Context, inf *shared.Infra) (*Container, error) {
	if inf == nil || inf.Firestore == nil {
		return nil, errors.New("store.container: infra is not initialized")
	}
	cfg := inf.Config

	cont := &Container{Infra: inf}

	// ----------------------------
	// Outbound adapters
	// ----------------------------
	cartRepo := outfs.NewCartRepositoryFS(inf.Firestore)
	promoRepo := outfs.NewPromoRepositoryFS(inf.Firestore)
	addrRepo := outfs.NewShippingAddressRepositoryFS(inf.Firestore)
	orderRepo := outfs.NewOrderRepositoryFS(inf.Firestore)
	intentRepo := outfs.NewPaymentIntentRepositoryFS(inf.Firestore)
	sessionRepo := outfs.NewCheckoutSessionRepositoryFS(inf.Firestore)
	snapshotRepo := outfs.NewSnapshotRepositoryFS(inf.Firestore)

	var ledgerSvc ledgerdom.Service
	if inf.LedgerDB != nil {
		ledgerSvc = outdb.NewLedgerRepositoryPG(inf.LedgerDB)
	} else {
		ledgerSvc = disabledLedger{}
	}

	var gatewayClient checkoutdom.GatewayClient
	if strings.TrimSpace(cfg.GatewayPublicKey) != "" && inf.GatewaySecretKey != "" {
		gatewayClient = outgw.NewKkiapayClient(
			cfg.GatewayBaseURL,
			cfg.GatewayPublicKey,
			inf.GatewaySecretKey,
			inf.WebhookCallbackURL,
		)
	} else {
		log.Printf("[store.container] WARN: gateway keys missing (gateway rail disabled)")
		gatewayClient = disabledGateway{}
	}

	cont.Events = outevents.NewKafkaSettlementPublisher(cfg.KafkaBrokers, cfg.SettlementTopic)
	if cont.Events == nil {
		log.Printf("[store.container] Kafka not configured (settlement events disabled)")
	}

	var escalator usecase.Escalator
	if strings.TrimSpace(cfg.SendGridAPIKey) != "" && strings.TrimSpace(cfg.OpsAlertEmail) != "" {
		escalator = outmail.NewOpsEscalator(
			outmail.NewSendGridClient(cfg.SendGridAPIKey),
			cfg.OpsAlertFrom,
			cfg.OpsAlertEmail,
		)
	} else {
		log.Printf("[store.container] SendGrid not configured (ops escalation disabled)")
	}

	cont.Metrics = platmetrics.NewCheckoutMetrics()

	// ----------------------------
	// Usecases
	// ----------------------------
	cont.CartUC = usecase.NewCartUsecase(cartRepo, cfg.TaxPercent)
	cont.PromoUC = usecase.NewPromoUsecase(promoRepo, cartRepo)
	cont.ShippingAddressUC = usecase.NewShippingAddressUsecase(addrRepo)
	cont.OrderUC = usecase.NewOrderUsecase(orderRepo)
	cont.LedgerUC = usecase.NewLedgerUsecase(ledgerSvc)

	var events usecase.SettlementEventPublisher
	if cont.Events != nil {
		events = cont.Events
	}

	cont.CheckoutUC = usecase.NewCheckoutUsecase(usecase.CheckoutDeps{
		Carts:     cartRepo,
		Addresses: addrRepo,
		Orders:    orderRepo,
		Ledger:    ledgerSvc,
		Gateway:   gatewayClient,
		Intents:   intentRepo,
		Sessions:  sessionRepo,
		Snapshots: snapshotRepo,
		Events:    events,
		Escalator: escalator,
		Metrics:   cont.Metrics,
		Currency:  cfg.Currency,
	})

	cont.ReconcileUC = usecase.NewReconcileUsecase(
		cont.CheckoutUC,
		intentRepo,
		sessionRepo,
		cfg.IntentCallbackWindow,
	)

	return cont, nil
}

// Close releases container-owned resources (the infra is closed by its
// own Close).
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Events != nil {
		_ = c.Events.Close()
	}
	return nil
}

// ------------------------------------------------------------
// Disabled fallbacks (fail with a clear error instead of nil panics)
// ------------------------------------------------------------

type disabledLedger struct{}

var errLedgerDisabled = errors.New("ledger: not configured")

func (disabledLedger) GetBalances(ctx context.Context, accountID string) (ledgerdom.Balances, error) {
	return ledgerdom.Balances{}, errLedgerDisabled
}

func (disabledLedger) DebitCommission(ctx context.Context, accountID string, amount int, orderID string) error {
	return errLedgerDisabled
}

func (disabledLedger) DebitWallet(ctx context.Context, accountID string, amount int, orderID string) error {
	return errLedgerDisabled
}

type disabledGateway struct{}

func (disabledGateway) Open(ctx context.Context, req checkoutdom.OpenRequest) (string, error) {
	return "", errors.New("gateway: not configured")
}
