package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Plan slugs form the closed set of internal commercial tiers. Provider
// product ids and display names are mapped onto these; nothing else is ever
// written to Account.Plan.
const (
	PlanIndividual = "individual"
	PlanStudios    = "studios"
	PlanGolden     = "golden"
)

// Billing cycles recognized by the flat price table.
const (
	CycleMonthly  = "monthly"
	CycleYearly   = "yearly"
	CycleLifetime = "lifetime"
)

// Account is the internal user record entitlement changes are applied to.
// The reconciliation engine owns plan, subscription_id, subscription_status
// and the billing keys inside extra_metadata; it never touches anything else
// and never deletes rows.
type Account struct {
	AccountID          string    `gorm:"column:account_id;primaryKey;size:128" json:"account_id"`
	Email              string    `gorm:"size:255;index" json:"email,omitempty"`
	Plan               string    `gorm:"size:50;default:'free'" json:"plan"`
	SubscriptionID     *string   `gorm:"size:128;index" json:"subscription_id,omitempty"`
	SubscriptionStatus *string   `gorm:"size:50" json:"subscription_status,omitempty"`
	ExtraMetadata      JSONB     `gorm:"type:jsonb" json:"extra_metadata,omitempty"`
	CreatedAt          time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt          time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// PaymentMethod is the card fingerprint extracted from webhook payloads and
// stored as a list under extra_metadata["payment_methods"].
type PaymentMethod struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Last4     string `json:"last4"`
	Expiry    string `json:"expiry"`
	IsDefault bool   `json:"isDefault"`
	CreatedAt string `json:"createdAt"`
}

// JSONB represents a JSONB database type
type JSONB map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONB) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		*j = make(JSONB)
		return nil
	}
}
