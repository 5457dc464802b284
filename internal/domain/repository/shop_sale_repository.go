package repository

import (
	"context"

	"github.com/photomark/pricing-service/internal/domain/model"
)

// ShopSaleRepository records storefront sales, at most one per provider
// payment id.
type ShopSaleRepository interface {
	// CreateIfAbsent inserts the sale unless one already exists for the same
	// payment id. Returns false when the insert was a duplicate.
	CreateIfAbsent(ctx context.Context, sale *model.ShopSale) (bool, error)

	// GetByPaymentID returns nil, nil when no sale exists for the id.
	GetByPaymentID(ctx context.Context, paymentID string) (*model.ShopSale, error)
}
