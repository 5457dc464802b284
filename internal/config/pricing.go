package config

// PricingConfig carries the operator-maintained mappings the webhook
// resolver depends on: which provider identifiers correspond to which
// internal plan tier, which subscription statuses may apply a plan change,
// and the flat price table used when a payload omits amounts.
type PricingConfig struct {
	// WebhookSecret selects the verification scheme: a "whsec_" value uses
	// the provider's signed-webhook headers, anything else is compared
	// against the X-Pricing-Secret header, and empty skips verification.
	WebhookSecret string `yaml:"webhook_secret"`

	Provider string `yaml:"provider"`

	// AllowedPlans restricts which normalized slugs may be applied.
	AllowedPlans []string `yaml:"allowed_plans"`

	// ActiveStatuses gates subscription-shaped events.
	ActiveStatuses []string `yaml:"active_statuses"`

	// Tiers maps each plan slug to its provider-side identifiers.
	Tiers map[string]TierIdentifiers `yaml:"tiers"`

	// SubscriptionPlanMap statically maps individual subscription ids to a
	// plan, for accounts provisioned before product metadata existed.
	SubscriptionPlanMap map[string]string `yaml:"subscription_plan_map"`

	// FlatPricesCents is keyed plan -> billing cycle -> amount in cents.
	FlatPricesCents map[string]map[string]int64 `yaml:"flat_prices_cents"`

	// Affiliate commission rates; golden payouts earn the higher rate.
	CommissionRate       float64 `yaml:"commission_rate" validate:"gte=0,lte=1"`
	GoldenCommissionRate float64 `yaml:"golden_commission_rate" validate:"gte=0,lte=1"`
}

// TierIdentifiers are the provider identifiers that resolve to one tier.
type TierIdentifiers struct {
	ProductIDs      []string `yaml:"product_ids"`
	SubscriptionIDs []string `yaml:"subscription_ids"`
	PaymentLinkIDs  []string `yaml:"payment_link_ids"`
	CheckoutIDs     []string `yaml:"checkout_ids"`
}

// ApplyDefaults fills the fields a minimal config may omit.
func (p *PricingConfig) ApplyDefaults() {
	if p.Provider == "" {
		p.Provider = "dodo"
	}
	if len(p.AllowedPlans) == 0 {
		p.AllowedPlans = []string{"individual", "studios", "golden"}
	}
	if len(p.ActiveStatuses) == 0 {
		p.ActiveStatuses = []string{"active", "succeeded"}
	}
	if p.CommissionRate == 0 {
		p.CommissionRate = 0.30
	}
	if p.GoldenCommissionRate == 0 {
		p.GoldenCommissionRate = 0.40
	}
}
