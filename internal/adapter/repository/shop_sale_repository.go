package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/photomark/pricing-service/internal/domain/model"
	domainRepo "github.com/photomark/pricing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type shopSaleRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewShopSaleRepository creates a new shop sale repository
func NewShopSaleRepository(db *gorm.DB, logger *zap.Logger) domainRepo.ShopSaleRepository {
	return &shopSaleRepository{
		db:     db,
		logger: logger,
	}
}

func (r *shopSaleRepository) CreateIfAbsent(ctx context.Context, sale *model.ShopSale) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		}).
		Create(sale)

	if result.Error != nil {
		r.logger.Error("Failed to create shop sale",
			zap.String("sale_id", sale.ID),
			zap.String("owner_uid", sale.OwnerUID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to create shop sale: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *shopSaleRepository) GetByPaymentID(ctx context.Context, paymentID string) (*model.ShopSale, error) {
	var sale model.ShopSale

	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&sale).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get shop sale",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get shop sale: %w", err)
	}

	return &sale, nil
}
