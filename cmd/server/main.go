package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/photomark/pricing-service/internal/config"
	"github.com/photomark/pricing-service/internal/infrastructure/cache"
	"github.com/photomark/pricing-service/internal/infrastructure/database"
	httpServer "github.com/photomark/pricing-service/internal/infrastructure/http"
	"github.com/photomark/pricing-service/internal/infrastructure/mail"
	"github.com/photomark/pricing-service/internal/usecase"
	"github.com/photomark/pricing-service/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       "info",
		Format:      "json",
		Output:      "stdout",
		Development: cfg.Service.Environment == "development",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories and stores
	repos := database.NewRepositories(db, zapLogger)

	blobs, err := cache.NewRedisBlobStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}

	mailer := mail.NewSMTPSender(cfg.Email, zapLogger)

	// Wire the reconciliation pipeline
	identity := usecase.NewIdentityResolver(repos.Account, blobs, zapLogger)
	plans := usecase.NewPlanResolver(cfg.Pricing, zapLogger)
	entitlement := usecase.NewEntitlementService(
		repos.Account, repos.Invoice, repos.Affiliate, blobs, mailer, cfg.Pricing, zapLogger)
	svc := usecase.NewReconciliationService(
		identity, plans, entitlement, repos.ShopSale, repos.PricingEvent, cfg.Pricing, zapLogger)

	srv := httpServer.NewServer(cfg, zapLogger, repos, blobs, svc)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Server shut down successfully")
}
