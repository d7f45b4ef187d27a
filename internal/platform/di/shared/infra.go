// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	_ "github.com/lib/pq"
	"google.golang.org/api/option"

	appcfg "sodistore/internal/infra/config"
)

// Infra is shared runtime infrastructure for DI.
// - owns external clients (Firestore/FirebaseAuth/SecretManager/Postgres)
// - owns env/config-resolved runtime settings (gateway credentials, callback URL)
//
// IMPORTANT:
// Infra must NOT depend on routers, handlers, or usecases.
type Infra struct {
	// Config
	Config    *appcfg.Config
	ProjectID string

	// Clients (owned; Close-managed)
	Firestore     *firestore.Client
	FirebaseApp   *firebase.App
	FirebaseAuth  *firebaseauth.Client
	SecretManager *secretmanager.Client
	LedgerDB      *sql.DB

	// Runtime settings (resolved once)
	GatewaySecretKey   string // resolved from Secret Manager or env
	WebhookCallbackURL string
}

// NewInfra initializes shared infra.
// Firestore is strict (returns error).
// Firebase/Auth, SecretManager and the ledger DB are best-effort
// (warn + continue; dependent features degrade instead of crashing).
func NewInfra(ctx context.Context) (*Infra, error) {
	cfg := appcfg.Load()
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}

	projectID := strings.TrimSpace(cfg.FirestoreProjectID)
	if projectID == "" {
		return nil, errors.New("shared.infra: projectID is empty (set FIRESTORE_PROJECT_ID or GCP_PROJECT_ID)")
	}

	inf := &Infra{
		Config:    cfg,
		ProjectID: projectID,
	}

	if base := strings.TrimRight(strings.TrimSpace(cfg.SelfBaseURL), "/"); base != "" {
		inf.WebhookCallbackURL = base + "/store/webhooks/kkiapay"
	}

	// Credentials file (optional; mainly for local dev)
	credFile := strings.TrimSpace(cfg.FirestoreCredentialsFile)
	if credFile == "" {
		credFile = strings.TrimSpace(cfg.GCPCreds) // GOOGLE_APPLICATION_CREDENTIALS
	}
	var clientOpts []option.ClientOption
	if credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Printf("[shared.infra] Using credentials file for GCP clients")
	} else {
		log.Printf("[shared.infra] Using Application Default Credentials (no credentials file configured)")
	}

	// 1) Firestore (strict)
	{
		var fsClient *firestore.Client
		var err error
		if len(clientOpts) > 0 {
			fsClient, err = firestore.NewClient(ctx, inf.ProjectID, clientOpts...)
		} else {
			fsClient, err = firestore.NewClient(ctx, inf.ProjectID)
		}
		if err != nil {
			return nil, fmt.Errorf("shared.infra: firestore.NewClient failed (project=%s): %w", inf.ProjectID, err)
		}
		inf.Firestore = fsClient
		log.Printf("[shared.infra] Firestore connected project=%s", inf.ProjectID)
	}

	// 2) Firebase App/Auth (best-effort)
	{
		fbCfg := &firebase.Config{ProjectID: inf.ProjectID}
		var fbApp *firebase.App
		var err error
		if len(clientOpts) > 0 {
			fbApp, err = firebase.NewApp(ctx, fbCfg, clientOpts...)
		} else {
			fbApp, err = firebase.NewApp(ctx, fbCfg)
		}
		if err != nil {
			log.Printf("[shared.infra] WARN: firebase app init failed: %v", err)
		} else {
			inf.FirebaseApp = fbApp
			authClient, err := fbApp.Auth(ctx)
			if err != nil {
				log.Printf("[shared.infra] WARN: firebase auth init failed: %v", err)
			} else {
				inf.FirebaseAuth = authClient
				log.Printf("[shared.infra] Firebase Auth initialized")
			}
		}
	}

	// 3) Optional: Secret Manager client (gateway private key)
	{
		var sm *secretmanager.Client
		var err error
		if len(clientOpts) > 0 {
			sm, err = secretmanager.NewClient(ctx, clientOpts...)
		} else {
			sm, err = secretmanager.NewClient(ctx)
		}
		if err != nil {
			log.Printf("[shared.infra] WARN: secretmanager.NewClient failed: %v (gateway secret falls back to env)", err)
			sm = nil
		}
		inf.SecretManager = sm
	}

	// 4) Gateway private key: Secret Manager first, env fallback
	inf.GatewaySecretKey = inf.resolveGatewaySecret(ctx)
	if inf.GatewaySecretKey == "" {
		log.Printf("[shared.infra] WARN: gateway private key not configured (gateway rail disabled)")
	}

	// 5) Optional: Postgres ledger DB
	if dsn := strings.TrimSpace(cfg.LedgerDatabaseURL); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			log.Printf("[shared.infra] WARN: ledger db open failed: %v (credit rail disabled)", err)
		} else {
			db.SetMaxOpenConns(10)
			db.SetMaxIdleConns(5)
			inf.LedgerDB = db
			log.Printf("[shared.infra] Ledger DB configured")
		}
	} else {
		log.Printf("[shared.infra] Ledger DB not configured (LEDGER_DATABASE_URL empty; credit rail disabled)")
	}

	if inf.Firestore == nil {
		_ = inf.Close()
		return nil, errors.New("shared.infra: firestore client is nil after initialization (unexpected)")
	}

	return inf, nil
}

// resolveGatewaySecret prefers Secret Manager (KKIAPAY_SECRET_NAME),
// then the raw env value.
func (i *Infra) resolveGatewaySecret(ctx context.Context) string {
	name := strings.TrimSpace(i.Config.GatewaySecretName)
	if name != "" && i.SecretManager != nil {
		res, err := i.SecretManager.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
			Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", i.ProjectID, name),
		})
		if err != nil {
			log.Printf("[shared.infra] WARN: gateway secret access failed (%s): %v", name, err)
		} else if res != nil && res.Payload != nil {
			return strings.TrimSpace(string(res.Payload.Data))
		}
	}
	return strings.TrimSpace(i.Config.GatewaySecretKey)
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	if i.Firestore != nil {
		_ = i.Firestore.Close()
	}
	if i.SecretManager != nil {
		_ = i.SecretManager.Close()
	}
	if i.LedgerDB != nil {
		_ = i.LedgerDB.Close()
	}
	return nil
}
