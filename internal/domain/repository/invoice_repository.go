package repository

import (
	"context"

	"github.com/photomark/pricing-service/internal/domain/model"
)

// InvoiceRepository persists the per-payment ledger. CreateIfAbsent must be
// backed by the unique payment_id index, not a pre-check, so that two
// near-simultaneous deliveries of the same event cannot both insert.
type InvoiceRepository interface {
	// CreateIfAbsent inserts the invoice unless one already exists for the
	// same payment id. Returns false when the insert was a duplicate.
	CreateIfAbsent(ctx context.Context, invoice *model.Invoice) (bool, error)

	// GetByPaymentID returns nil, nil when no invoice exists for the id.
	GetByPaymentID(ctx context.Context, paymentID string) (*model.Invoice, error)
}
