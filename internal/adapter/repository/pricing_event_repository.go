package repository

import (
	"context"
	"fmt"

	"github.com/photomark/pricing-service/internal/domain/model"
	domainRepo "github.com/photomark/pricing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type pricingEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPricingEventRepository creates a new pricing event repository
func NewPricingEventRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PricingEventRepository {
	return &pricingEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *pricingEventRepository) Append(ctx context.Context, event *model.PricingEvent) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error

	if err != nil {
		r.logger.Error("Failed to append pricing event",
			zap.String("event_type", event.EventType),
			zap.Error(err))
		return fmt.Errorf("failed to append pricing event: %w", err)
	}

	return nil
}
