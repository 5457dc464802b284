package usecase

// Skip and defer reasons surfaced in webhook responses. These are part of
// the external contract; provider dashboards key off the exact strings.
const (
	ReasonMissingAccountID = "missing_metadata_user_uid"
	ReasonDuplicatePayment = "duplicate_payment_id"
	ReasonStatusNotActive  = "subscription_status_not_active"
	ReasonUnsupportedPlan  = "unsupported_plan"
	ReasonAccountNotFound  = "account_not_found"
	ReasonDeferredToActive = "subscription_payment_deferred_to_active"
)

// Outcome is the terminal result of processing one webhook event. Exactly
// one of Upgraded, Skipped, Deferred, Captured or ShopSaleRecorded applies;
// every outcome maps to HTTP 200.
type Outcome struct {
	OK       bool
	Upgraded bool
	Skipped  bool
	Deferred bool
	Captured bool
	Reason   string

	AccountID      string
	Plan           string
	SubscriptionID string

	// Populated on unsupported_plan skips.
	PlanRaw    string
	Normalized string
	Allowed    []string

	// Populated on status skips.
	Status string

	// Populated on captured / deferred outcomes.
	EventType string

	// Populated on the shop-sale path.
	ShopSaleRecorded bool
	PaymentID        string
	AmountCents      int64
	Currency         string
}

func skipped(reason string) Outcome {
	return Outcome{OK: true, Skipped: true, Reason: reason}
}

// Response renders the outcome as the webhook response body.
func (o Outcome) Response() map[string]interface{} {
	body := map[string]interface{}{"ok": o.OK}

	switch {
	case o.ShopSaleRecorded || (o.PaymentID != "" && !o.Upgraded && !o.Skipped && !o.Deferred && !o.Captured):
		body["shop_sale_recorded"] = o.ShopSaleRecorded
		body["payment_id"] = o.PaymentID
		body["amount_cents"] = o.AmountCents
		body["currency"] = o.Currency
	case o.Upgraded:
		body["upgraded"] = true
		body["account_id"] = o.AccountID
		body["plan"] = o.Plan
	case o.Deferred:
		body["deferred"] = true
		body["reason"] = o.Reason
		body["event_type"] = o.EventType
		if o.SubscriptionID != "" {
			body["subscription_id"] = o.SubscriptionID
		}
	case o.Captured:
		body["captured"] = true
		body["event_type"] = o.EventType
	case o.Skipped:
		body["skipped"] = true
		body["reason"] = o.Reason
		if o.Reason == ReasonUnsupportedPlan {
			body["plan_raw"] = o.PlanRaw
			body["normalized"] = o.Normalized
			body["allowed"] = o.Allowed
		}
		if o.Status != "" {
			body["status"] = o.Status
		}
		if o.AccountID != "" {
			body["account_id"] = o.AccountID
		}
	}
	return body
}
