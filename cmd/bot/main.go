package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rolegate/internal/application/registry"
	"github.com/rolegate/internal/application/verify"
	"github.com/rolegate/internal/config"
	"github.com/rolegate/internal/infrastructure/gateway"
	"github.com/rolegate/internal/infrastructure/store"
	"github.com/rolegate/internal/infrastructure/webhook"
	"github.com/rolegate/internal/metrics"
	"github.com/rolegate/internal/pkg/cipher"
	"github.com/rolegate/internal/transport/events"
	transporthttp "github.com/rolegate/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	m := metrics.New()

	// Loading through the registry heals any legacy plaintext records; the
	// next save persists them encrypted.
	ciph := cipher.New(cfg.EncryptionSecret)
	st := store.New(ciph, m)
	reg := registry.New(st, cfg.VerifiedUsersPath(), cfg.GuildRolesPath())

	notifier := webhook.NewNotifier(cfg.WebhookURL, m)

	// The platform binding supplies the real gateway client and feeds events
	// into the dispatcher. Without one the process still serves liveness,
	// status and metrics, and store healing still runs on load.
	gw := gateway.NewNop()
	slog.Warn("no platform gateway wired; inbound events will not be delivered")

	svc := verify.NewService(verify.Deps{
		Registry:          reg,
		Roles:             gw,
		Messenger:         gw,
		Permissions:       gw,
		Notifier:          notifier,
		Metrics:           m,
		FanoutConcurrency: cfg.FanoutConcurrency,
		GrantAttempts:     cfg.GrantAttempts,
	})
	dispatcher := events.NewDispatcher(svc)

	router := transporthttp.NewRouter(cfg, reg)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	// Let in-flight handlers finish their synchronous persistence writes.
	dispatcher.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Stopped")
}
