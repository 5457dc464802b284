package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/photomark/pricing-service/internal/domain/model"
	domainRepo "github.com/photomark/pricing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type accountRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB, logger *zap.Logger) domainRepo.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) GetByID(ctx context.Context, accountID string) (*model.Account, error) {
	var account model.Account

	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get account",
			zap.String("account_id", accountID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account

	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get account by email",
			zap.String("email", email),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return &account, nil
}

func (r *accountRepository) UpdateEntitlement(ctx context.Context, account *model.Account) error {
	updates := map[string]interface{}{
		"plan":           account.Plan,
		"extra_metadata": account.ExtraMetadata,
		"updated_at":     time.Now(),
	}
	if account.SubscriptionID != nil {
		updates["subscription_id"] = *account.SubscriptionID
	}
	if account.SubscriptionStatus != nil {
		updates["subscription_status"] = *account.SubscriptionStatus
	}

	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("account_id = ?", account.AccountID).
		Updates(updates)

	if result.Error != nil {
		r.logger.Error("Failed to update account entitlement",
			zap.String("account_id", account.AccountID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update account entitlement: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("account not found: %s", account.AccountID)
	}

	return nil
}
