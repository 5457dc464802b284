package model

import "time"

// PricingEvent is the append-only audit trail of received webhook events.
// It is written before processing and is not the idempotency boundary; the
// unique event_id index only keeps exact provider redeliveries from piling
// up duplicate audit rows.
type PricingEvent struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID *string   `gorm:"size:128;index" json:"account_id,omitempty"`
	Provider  string    `gorm:"size:50;not null;default:'dodo'" json:"provider"`
	EventType string    `gorm:"size:100;not null" json:"event_type"`
	EventID   *string   `gorm:"size:255;uniqueIndex" json:"event_id,omitempty"`
	Payload   JSONB     `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (PricingEvent) TableName() string {
	return "pricing_events"
}
