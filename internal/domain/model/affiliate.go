package model

import "time"

// AffiliateProfile holds one affiliate's identity plus running aggregate
// counters. Counters are incremented by the reconciliation engine whenever a
// conversion is recorded.
type AffiliateProfile struct {
	UID          string `gorm:"primaryKey;size:128" json:"uid"`
	Platform     *string `gorm:"size:100" json:"platform,omitempty"`
	Channel      *string `gorm:"size:255" json:"channel,omitempty"`
	Email        *string `gorm:"size:255" json:"email,omitempty"`
	Name         *string `gorm:"size:255" json:"name,omitempty"`
	ReferralCode string `gorm:"uniqueIndex;size:255;not null" json:"referral_code"`
	ReferralLink string `gorm:"type:text;not null" json:"referral_link"`

	ClicksTotal      int64 `gorm:"default:0" json:"clicks_total"`
	SignupsTotal     int64 `gorm:"default:0" json:"signups_total"`
	ConversionsTotal int64 `gorm:"default:0" json:"conversions_total"`
	GrossCentsTotal  int64 `gorm:"default:0" json:"gross_cents_total"`
	PayoutCentsTotal int64 `gorm:"default:0" json:"payout_cents_total"`

	LastClickAt      *time.Time `json:"last_click_at,omitempty"`
	LastSignupAt     *time.Time `json:"last_signup_at,omitempty"`
	LastConversionAt *time.Time `json:"last_conversion_at,omitempty"`

	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (AffiliateProfile) TableName() string {
	return "affiliate_profiles"
}

// AffiliateAttribution links a referred account to the affiliate that
// brought it in. One attribution per referred account.
type AffiliateAttribution struct {
	ID           int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	AffiliateUID string  `gorm:"column:affiliate_uid;size:128;index;not null" json:"affiliate_uid"`
	UserUID      string  `gorm:"column:user_uid;size:128;uniqueIndex;not null" json:"user_uid"`
	Ref          *string `gorm:"size:255" json:"ref,omitempty"`

	Verified     bool       `gorm:"default:false" json:"verified"`
	AttributedAt time.Time  `gorm:"default:now()" json:"attributed_at"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
}

// TableName specifies the table name for GORM
func (AffiliateAttribution) TableName() string {
	return "affiliate_attributions"
}

// AffiliateConversion is the commission ledger row created when a referred
// account completes its first payment. The composite unique index on
// (affiliate_uid, user_uid) makes creation at-most-once.
type AffiliateConversion struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	AffiliateUID string `gorm:"column:affiliate_uid;size:128;not null;uniqueIndex:idx_conversion_pair" json:"affiliate_uid"`
	UserUID      string `gorm:"column:user_uid;size:128;not null;uniqueIndex:idx_conversion_pair" json:"user_uid"`

	AmountCents int64  `gorm:"default:0" json:"amount_cents"`
	PayoutCents int64  `gorm:"default:0" json:"payout_cents"`
	Currency    string `gorm:"size:10;default:'usd'" json:"currency"`

	CreatedAt      time.Time  `gorm:"default:now()" json:"created_at"`
	ConversionDate *time.Time `json:"conversion_date,omitempty"`
}

// TableName specifies the table name for GORM
func (AffiliateConversion) TableName() string {
	return "affiliate_conversions"
}
