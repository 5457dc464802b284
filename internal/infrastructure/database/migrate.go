package database

import (
	"github.com/photomark/pricing-service/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	// Auto-migrate all models
	err := db.AutoMigrate(
		&model.Account{},
		&model.Invoice{},
		&model.ShopSale{},
		&model.AffiliateProfile{},
		&model.AffiliateAttribution{},
		&model.AffiliateConversion{},
		&model.PricingEvent{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions
func createExtensions(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}
	return nil
}

// createCustomIndexes creates custom indexes that GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	// Case-insensitive email lookups back the email fallback chain.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_accounts_email_lower ON accounts (LOWER(email))`).Error; err != nil {
		return err
	}

	// The audit trail is mostly queried per account, newest first.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_pricing_events_account_created ON pricing_events (account_id, created_at DESC)`).Error; err != nil {
		return err
	}

	return nil
}
