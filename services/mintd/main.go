package mintd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/0xhanvalen/skaterbirds-nft/config"
	"github.com/0xhanvalen/skaterbirds-nft/core/events"
	"github.com/0xhanvalen/skaterbirds-nft/core/state"
	"github.com/0xhanvalen/skaterbirds-nft/integrations/webhooks"
	"github.com/0xhanvalen/skaterbirds-nft/native/bank"
	"github.com/0xhanvalen/skaterbirds-nft/native/mint"
	"github.com/0xhanvalen/skaterbirds-nft/observability"
	"github.com/0xhanvalen/skaterbirds-nft/observability/logging"
	telemetry "github.com/0xhanvalen/skaterbirds-nft/observability/otel"
	"github.com/0xhanvalen/skaterbirds-nft/services/mintd/wallet"
	"github.com/0xhanvalen/skaterbirds-nft/storage"
)

// Main initialises and runs the mint daemon.
func Main() error {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "services/mintd/config.yaml", "path to mintd configuration")
	flag.Parse()

	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	env := strings.TrimSpace(os.Getenv("SKB_ENV"))
	logger, logCloser, err := logging.Setup("mintd", env, logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logCloser.Close()

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.ConfigFromEnv("mintd", env))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		_ = shutdownTelemetry(context.Background())
	}()

	collection, err := config.Load(cfg.CollectionPath)
	if err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	params, err := collection.Params()
	if err != nil {
		return fmt.Errorf("collection params: %w", err)
	}

	db, err := storage.Open(collection.Storage.Backend, collection.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	manager := state.NewManager(db)
	if err := manager.EnsureSchema(params.Name, collection.Storage.AllowMigrate); err != nil {
		return err
	}

	engine, err := mint.NewEngine(params, manager)
	if err != nil {
		return fmt.Errorf("init mint engine: %w", err)
	}

	auditDB, err := OpenAuditDB(cfg.Audit)
	if err != nil {
		return err
	}
	auditLog, err := NewAuditLog(auditDB, logger)
	if err != nil {
		return err
	}
	if err := auditLog.Verify(context.Background()); err != nil {
		logger.Warn("audit log verification failed", slog.String("error", err.Error()))
	}

	feed := events.NewFeed(cfg.Stream.Buffer)
	emitter := events.MultiEmitter{auditLog, feed, observability.Events()}
	if cfg.Webhook.URL != "" {
		dispatcher, err := webhooks.NewDispatcher(cfg.Webhook.URL, []byte(cfg.Webhook.Secret),
			webhooks.WithRetryPolicy(cfg.Webhook.MaxAttempts, 0, 0),
			webhooks.WithQueueSize(cfg.Webhook.QueueSize),
			webhooks.WithLogger(logger))
		if err != nil {
			return err
		}
		defer dispatcher.Close()
		emitter = append(emitter, dispatcher)
	}
	engine.SetEmitter(emitter)

	ledgerBank := bank.New(manager)
	ledgerBank.SetEmitter(emitter)
	var treasuryWallet wallet.Wallet
	switch cfg.Wallet.Mode {
	case WalletModeBank:
		treasuryWallet = wallet.FromTransferer(ledgerBank)
	default:
		treasuryWallet = wallet.Unconfigured()
	}
	engine.SetPayee(wallet.Payee{
		Wallet:        treasuryWallet,
		Confirmations: cfg.Wallet.Confirmations,
		PollInterval:  cfg.Wallet.PollInterval.Duration,
	})

	auth, err := NewAuthenticator(cfg.Auth, logger)
	if err != nil {
		return err
	}
	service := NewService(engine, WithLogger(logger))
	server := NewServer(service, ServerOptions{
		Auth:               auth,
		Limiter:            NewRateLimiter(cfg.RateLimit),
		Feed:               feed,
		StreamWriteTimeout: cfg.Stream.WriteTimeout.Duration,
		Audit:              auditLog,
		Logger:             logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		logger.Info("mintd listening",
			slog.String("address", cfg.ListenAddress),
			slog.String("collection", collection.String()),
			logging.MaskField("auth_secret", cfg.Auth.Secret))
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case <-stopCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			_ = httpServer.Close()
			return err
		}
		return nil
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
