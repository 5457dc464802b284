package model

import "time"

// ShopSale records each completed storefront sale, one row per successful
// payment. The unique payment_id index guarantees at-most-once recording
// under webhook retries.
type ShopSale struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	OwnerUID      string    `gorm:"column:owner_uid;size:128;index;not null" json:"owner_uid"`
	ShopUID       *string   `gorm:"column:shop_uid;size:128;index" json:"shop_uid,omitempty"`
	Slug          *string   `gorm:"size:255;index" json:"slug,omitempty"`
	PaymentID     *string   `gorm:"column:payment_id;uniqueIndex;size:128" json:"payment_id,omitempty"`
	CustomerEmail *string   `gorm:"size:255" json:"customer_email,omitempty"`
	Currency      string    `gorm:"size:10;not null;default:'USD'" json:"currency"`
	AmountCents   int64     `gorm:"not null;default:0" json:"amount_cents"`
	Items         JSONB     `gorm:"type:jsonb" json:"items"` // [{id,title,quantity,unit_price_cents,line_total_cents,currency}]
	SaleMetadata  JSONB     `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	Delivered     bool      `gorm:"not null;default:false" json:"delivered"`
	CreatedAt     time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt     time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ShopSale) TableName() string {
	return "shop_sales"
}
