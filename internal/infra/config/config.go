// internal/infra/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds environment-driven settings for the store service.
type Config struct {
	Port string

	FirestoreProjectID       string
	FirestoreCredentialsFile string
	GCPCreds                 string
	FirebaseProjectID        string

	// Ledger database (Postgres). Empty disables the credit rail.
	LedgerDatabaseURL string

	// Payment gateway (Kkiapay-compatible).
	GatewayBaseURL   string
	GatewayPublicKey string
	// Secret Manager secret id holding the gateway private key.
	// If empty, KKIAPAY_SECRET_KEY env is used directly.
	GatewaySecretName string
	GatewaySecretKey  string

	// Base URL of this service, used to build the webhook callback URL.
	SelfBaseURL string

	// Settlement events (Kafka). Empty brokers disable publishing.
	KafkaBrokers    string
	SettlementTopic string

	// Ops escalation (SendGrid).
	SendGridAPIKey string
	OpsAlertEmail  string
	OpsAlertFrom   string

	// Window an opened payment intent may wait for its gateway callback
	// before the reconciler expires it.
	IntentCallbackWindow time.Duration

	// Tax percent applied to cart totals.
	TaxPercent int
	Currency   string

	// CORS origins for the buyer frontend. Empty means allow all (dev).
	AllowedOrigins []string
}

// Load reads configuration from environment variables.
func Load() *Config {
	defaultProject := getenvDefault("GCP_PROJECT_ID", "sodistore-dev")

	cfg := &Config{
		Port: getenvDefault("PORT", "8080"),

		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		GCPCreds:                 os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirebaseProjectID:        getenvDefault("FIREBASE_PROJECT_ID", defaultProject),

		LedgerDatabaseURL: os.Getenv("LEDGER_DATABASE_URL"),

		GatewayBaseURL:    getenvDefault("KKIAPAY_BASE_URL", "https://api.kkiapay.me"),
		GatewayPublicKey:  os.Getenv("KKIAPAY_PUBLIC_KEY"),
		GatewaySecretName: os.Getenv("KKIAPAY_SECRET_NAME"),
		GatewaySecretKey:  os.Getenv("KKIAPAY_SECRET_KEY"),

		SelfBaseURL: os.Getenv("SELF_BASE_URL"),

		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		SettlementTopic: getenvDefault("SETTLEMENT_TOPIC", "store.settlements"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		OpsAlertEmail:  os.Getenv("OPS_ALERT_EMAIL"),
		OpsAlertFrom:   getenvDefault("OPS_ALERT_FROM", "ops@sodistore.app"),

		IntentCallbackWindow: getenvDuration("INTENT_CALLBACK_WINDOW", 30*time.Minute),

		TaxPercent: getenvInt("TAX_PERCENT", 0),
		Currency:   getenvDefault("CURRENCY", "XOF"),

		AllowedOrigins: splitCSV(os.Getenv("STORE_ALLOWED_ORIGINS")),
	}

	return cfg
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
