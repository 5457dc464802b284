package repository

import (
	"context"

	"github.com/photomark/pricing-service/internal/domain/model"
)

// PricingEventRepository appends to the webhook audit trail.
type PricingEventRepository interface {
	// Append stores the event; exact provider redeliveries (same event id)
	// are silently dropped.
	Append(ctx context.Context, event *model.PricingEvent) error
}
