package repository

import (
	"context"

	"github.com/photomark/pricing-service/internal/domain/model"
)

// AffiliateRepository covers the bookkeeping the entitlement applier does on
// a first successful payment: find who referred the account, record the
// conversion once, and bump the affiliate's aggregate counters.
type AffiliateRepository interface {
	// GetAttributionByUser returns nil, nil when the account was not referred.
	GetAttributionByUser(ctx context.Context, userUID string) (*model.AffiliateAttribution, error)

	// CreateConversionIfAbsent inserts the conversion unless one already
	// exists for the (affiliate, user) pair. Returns false on duplicate.
	CreateConversionIfAbsent(ctx context.Context, conversion *model.AffiliateConversion) (bool, error)

	// IncrementConversionTotals adds one conversion plus the gross and
	// payout amounts to the affiliate's running counters.
	IncrementConversionTotals(ctx context.Context, affiliateUID string, grossCents, payoutCents int64) error
}
