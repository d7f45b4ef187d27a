// cmd/reconciler/main.go
//
// Periodic settlement reconciler. Repairs captured-but-unconsumed
// payment intents (re-drives order creation and cart reconciliation)
// and expires intents whose gateway callback never arrived.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	storeDI "sodistore/internal/platform/di/store"
	shared "sodistore/internal/platform/di/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	interval := 5 * time.Minute
	if v := strings.TrimSpace(os.Getenv("RECONCILE_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		} else {
			log.Printf("[reconciler] WARN: invalid RECONCILE_INTERVAL=%q (using %s)", v, interval)
		}
	}

	initCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	infra, err := shared.NewInfra(initCtx)
	cancel()
	if err != nil {
		log.Fatalf("[reconciler] infra init failed: %v", err)
	}
	defer func() { _ = infra.Close() }()

	cont, err := storeDI.NewContainer(ctx, infra)
	if err != nil {
		log.Fatalf("[reconciler] di init failed: %v", err)
	}
	defer func() { _ = cont.Close() }()

	log.Printf("[reconciler] started interval=%s window=%s", interval, infra.Config.IntentCallbackWindow)

	// run once at startup, then on the ticker
	runPass(ctx, cont)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[reconciler] shutting down")
			return
		case <-ticker.C:
			runPass(ctx, cont)
		}
	}
}

func runPass(ctx context.Context, cont *storeDI.Container) {
	passCtx, cancel := context.WithTimeout(ctx, 4*time.Minute)
	defer cancel()

	if err := cont.ReconcileUC.Run(passCtx); err != nil {
		log.Printf("[reconciler] WARN: pass finished with error: %v", err)
	}
}
