package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/photomark/pricing-service/internal/domain/model"
	domainRepo "github.com/photomark/pricing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type affiliateRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAffiliateRepository creates a new affiliate repository
func NewAffiliateRepository(db *gorm.DB, logger *zap.Logger) domainRepo.AffiliateRepository {
	return &affiliateRepository{
		db:     db,
		logger: logger,
	}
}

func (r *affiliateRepository) GetAttributionByUser(ctx context.Context, userUID string) (*model.AffiliateAttribution, error) {
	var attribution model.AffiliateAttribution

	err := r.db.WithContext(ctx).
		Where("user_uid = ?", userUID).
		First(&attribution).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get affiliate attribution",
			zap.String("user_uid", userUID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get affiliate attribution: %w", err)
	}

	return &attribution, nil
}

// CreateConversionIfAbsent uses the composite unique index on
// (affiliate_uid, user_uid) so a referred account converts at most once.
func (r *affiliateRepository) CreateConversionIfAbsent(ctx context.Context, conversion *model.AffiliateConversion) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "affiliate_uid"}, {Name: "user_uid"}},
			DoNothing: true,
		}).
		Create(conversion)

	if result.Error != nil {
		r.logger.Error("Failed to create affiliate conversion",
			zap.String("affiliate_uid", conversion.AffiliateUID),
			zap.String("user_uid", conversion.UserUID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to create affiliate conversion: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *affiliateRepository) IncrementConversionTotals(ctx context.Context, affiliateUID string, grossCents, payoutCents int64) error {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.AffiliateProfile{}).
		Where("uid = ?", affiliateUID).
		Updates(map[string]interface{}{
			"conversions_total":  gorm.Expr("conversions_total + 1"),
			"gross_cents_total":  gorm.Expr("gross_cents_total + ?", grossCents),
			"payout_cents_total": gorm.Expr("payout_cents_total + ?", payoutCents),
			"last_conversion_at": &now,
			"updated_at":         now,
		})

	if result.Error != nil {
		r.logger.Error("Failed to increment affiliate totals",
			zap.String("affiliate_uid", affiliateUID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to increment affiliate totals: %w", result.Error)
	}

	return nil
}
