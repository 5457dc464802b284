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

type invoiceRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB, logger *zap.Logger) domainRepo.InvoiceRepository {
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

// CreateIfAbsent relies on the unique payment_id index as the authoritative
// duplicate signal; RowsAffected == 0 means a concurrent or earlier delivery
// already recorded this payment.
func (r *invoiceRepository) CreateIfAbsent(ctx context.Context, invoice *model.Invoice) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		}).
		Create(invoice)

	if result.Error != nil {
		r.logger.Error("Failed to create invoice",
			zap.String("payment_id", invoice.PaymentID),
			zap.String("account_id", invoice.AccountID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to create invoice: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *invoiceRepository) GetByPaymentID(ctx context.Context, paymentID string) (*model.Invoice, error) {
	var invoice model.Invoice

	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&invoice).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get invoice",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return &invoice, nil
}
