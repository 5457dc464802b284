package repository

import (
	"context"

	"github.com/photomark/pricing-service/internal/domain/model"
)

// AccountRepository is the view of the account store the reconciliation
// engine needs: id/email lookup plus persisting the entitlement fields it
// owns. It never creates or deletes accounts.
type AccountRepository interface {
	// GetByID returns nil, nil when the account does not exist.
	GetByID(ctx context.Context, accountID string) (*model.Account, error)

	// GetByEmail matches the lower-cased billing email against the store.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)

	// UpdateEntitlement persists plan, subscription fields and the metadata
	// bag, stamping updated_at.
	UpdateEntitlement(ctx context.Context, account *model.Account) error
}
