package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matheusmosca/blueprint-storefront/internal/notify"
	"github.com/matheusmosca/blueprint-storefront/internal/notify/discord"
	"github.com/matheusmosca/blueprint-storefront/internal/notify/kafka"
	"github.com/matheusmosca/blueprint-storefront/internal/notify/telegram"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/config"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv/memory"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv/postgres"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv/sqlite"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/logging"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/telemetry"
	"github.com/matheusmosca/blueprint-storefront/internal/storefront"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("storefront: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.ServiceName, cfg.LogDevelopment)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.OTelEnabled,
		Endpoint:       cfg.OTelEndpoint,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("Error shutting down telemetry", zap.Error(err))
		}
	}()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("✅ Store ready", zap.String("driver", cfg.StoreDriver))

	notifier, closeNotifier := buildNotifier(cfg, logger)
	defer closeNotifier()

	service, err := storefront.New(store, notifier, logger)
	if err != nil {
		return fmt.Errorf("failed to create storefront service: %w", err)
	}

	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(requestLogger(logger))

	handler := NewStorefrontHandler(service, cfg.AdminToken, logger)
	handler.Register(router)

	if cfg.AdminToken == "" {
		logger.Warn("⚠️ ADMIN_TOKEN is empty, admin routes are disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(fmt.Sprintf("🚀 Storefront Service listening on port %s", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down storefront service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (kv.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return memory.New(), nil
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, postgres.Config{
			Host:     cfg.DatabaseHost,
			Port:     cfg.DatabasePort,
			User:     cfg.DatabaseUser,
			Password: cfg.DatabasePassword,
			Database: cfg.DatabaseName,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// buildNotifier wires every configured channel. The returned func releases
// channel resources.
func buildNotifier(cfg *config.Config, logger *zap.Logger) (notify.Notifier, func()) {
	var channels notify.Multi
	closers := []func(){}

	if cfg.DiscordWebhookURL != "" {
		channels = append(channels, discord.New(cfg.DiscordWebhookURL, logger))
		logger.Info("Discord notifications enabled")
	}
	if cfg.TelegramBotToken != "" {
		bot, err := telegram.New(cfg.TelegramBotToken, cfg.TelegramAdminChatID, logger)
		if err != nil {
			logger.Warn("Telegram notifications disabled", zap.Error(err))
		} else {
			channels = append(channels, bot)
			logger.Info("Telegram notifications enabled")
		}
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		channels = append(channels, publisher)
		closers = append(closers, func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("Error closing kafka publisher", zap.Error(err))
			}
		})
		logger.Info("Kafka order events enabled", zap.String("topic", cfg.KafkaTopic))
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(channels) == 0 {
		return notify.Noop{}, closeAll
	}
	return channels, closeAll
}
