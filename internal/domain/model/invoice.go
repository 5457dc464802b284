package model

import "time"

// Invoice is the durable record of one resolved payment. The unique
// payment_id index is the idempotency boundary: a second delivery of the
// same provider payment can never create a second row. Amount, currency and
// plan are snapshots at time of payment and immutable after creation.
type Invoice struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	PaymentID    string    `gorm:"column:payment_id;uniqueIndex;size:128;not null" json:"payment_id"`
	AccountID    string    `gorm:"size:128;index;not null" json:"account_id"`
	AmountCents  int64     `gorm:"not null;default:0" json:"amount_cents"`
	Currency     string    `gorm:"size:10;not null;default:'USD'" json:"currency"`
	Plan         string    `gorm:"size:50;not null" json:"plan"`
	BillingCycle string    `gorm:"size:20" json:"billing_cycle,omitempty"`
	Status       string    `gorm:"size:20;not null;default:'paid'" json:"status"`
	Provider     string    `gorm:"size:50;not null;default:'dodo'" json:"provider"`
	CreatedAt    time.Time `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}
