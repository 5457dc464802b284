package usecase

import (
	"strconv"
	"strings"

	"github.com/photomark/pricing-service/internal/config"
	"github.com/photomark/pricing-service/internal/domain/model"
	"github.com/photomark/pricing-service/internal/infrastructure/provider/dodo"
	"go.uber.org/zap"
)

// tierPriority orders identifier matching most-specific-tier first: a cart
// holding both a golden and an individual product must resolve golden.
var tierPriority = [...]string{model.PlanGolden, model.PlanStudios, model.PlanIndividual}

var planSeparators = strings.NewReplacer("_", " ", "-", " ", ".", " ")

// NormalizePlan maps free-text plan labels onto the closed slug set. It is
// total: any input yields individual, studios, golden or "". Legacy tier
// names (photographers/agencies) map onto their renamed slugs.
func NormalizePlan(plan string) string {
	p := strings.ToLower(strings.TrimSpace(plan))
	if p == "" {
		return ""
	}
	p = planSeparators.Replace(p)
	p = strings.TrimSuffix(p, " plans")
	p = strings.TrimSuffix(p, " plan")
	p = strings.TrimSpace(p)

	switch {
	case strings.Contains(p, "golden") || strings.Contains(p, "lifetime") ||
		p == "gold" || p == "g" || p == "life time" || p == "forever":
		return model.PlanGolden
	case strings.Contains(p, "individual") || p == "ind" || p == "indiv" || p == "solo" || p == "i":
		return model.PlanIndividual
	case strings.Contains(p, "studio") || p == "st" || p == "s" || p == "team" || p == "teams":
		return model.PlanStudios
	// Backward compatibility for pre-rename tier labels.
	case strings.Contains(p, "photograph") || p == "photo" || p == "pg" || p == "p":
		return model.PlanIndividual
	case strings.Contains(p, "agenc") || p == "ag":
		return model.PlanStudios
	}
	return ""
}

// PlanResolver turns provider product/payment identifiers into internal plan
// slugs and resolves payment amounts, using the operator-configured tier
// mappings.
type PlanResolver struct {
	cfg    config.PricingConfig
	logger *zap.Logger
}

// NewPlanResolver creates a new plan resolver
func NewPlanResolver(cfg config.PricingConfig, logger *zap.Logger) *PlanResolver {
	return &PlanResolver{
		cfg:    cfg,
		logger: logger,
	}
}

// AllowedPlans returns the normalized allow-list, sorted by tier priority.
func (r *PlanResolver) AllowedPlans() []string {
	allowed := make(map[string]bool, len(r.cfg.AllowedPlans))
	for _, raw := range r.cfg.AllowedPlans {
		if slug := NormalizePlan(raw); slug != "" {
			allowed[slug] = true
		}
	}
	var out []string
	for _, tier := range tierPriority {
		if allowed[tier] {
			out = append(out, tier)
		}
	}
	return out
}

// IsAllowed reports whether slug may be applied to an account.
func (r *PlanResolver) IsAllowed(slug string) bool {
	if slug == "" {
		return false
	}
	for _, allowed := range r.AllowedPlans() {
		if slug == allowed {
			return true
		}
	}
	return false
}

// StatusAllowed reports whether a subscription status may trigger a plan
// change.
func (r *PlanResolver) StatusAllowed(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, allowed := range r.cfg.ActiveStatuses {
		if s == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

func (r *PlanResolver) planFromProductID(productID string) string {
	if productID == "" {
		return ""
	}
	for _, tier := range tierPriority {
		for _, pid := range r.cfg.Tiers[tier].ProductIDs {
			if pid != "" && pid == productID {
				return tier
			}
		}
	}
	return ""
}

func (r *PlanResolver) planFromSubscriptionID(subscriptionID string) string {
	if subscriptionID == "" {
		return ""
	}
	if mapped := NormalizePlan(r.cfg.SubscriptionPlanMap[subscriptionID]); r.IsAllowed(mapped) {
		return mapped
	}
	for _, tier := range tierPriority {
		for _, sid := range r.cfg.Tiers[tier].SubscriptionIDs {
			if sid != "" && sid == subscriptionID {
				return tier
			}
		}
	}
	return ""
}

// ResolveForSubscription resolves the plan for a subscription-shaped event.
// The fallback order is deliberate: explicit label → product id →
// configured subscription id → product arrays → link ids → free-text scan.
// Later steps must never fire when an earlier one can.
func (r *PlanResolver) ResolveForSubscription(env *dodo.Envelope, planRaw, subscriptionID string) string {
	if plan := NormalizePlan(planRaw); r.IsAllowed(plan) {
		return plan
	}

	productID := dodo.StringField(env.Event, "product_id", "productId")
	if productID == "" {
		productID = dodo.DeepFindString(env.Event, "product_id", "productId")
	}
	if plan := r.planFromProductID(productID); plan != "" {
		return plan
	}

	if plan := r.planFromSubscriptionID(subscriptionID); plan != "" {
		return plan
	}

	if plan := r.PlanFromProducts(env.Event); plan != "" {
		return plan
	}
	return r.PlanFromProducts(env.Raw)
}

// cartKeys are the array locations providers use for line items.
var cartKeys = [...]string{"product_cart", "items", "products", "lines", "line_items"}

// PlanFromProducts infers the plan from whatever product information the
// payload carries: configured product ids, then product names, then
// payment-link/checkout identifiers, then a last-resort free-text scan.
func (r *PlanResolver) PlanFromProducts(obj map[string]interface{}) string {
	if obj == nil {
		return ""
	}

	found := map[string]bool{}
	var names []string

	for _, items := range candidateLists(obj) {
		for _, it := range items {
			line, ok := it.(map[string]interface{})
			if !ok {
				continue
			}
			pid, name := lineIdentity(line)
			if tier := r.planFromProductID(pid); tier != "" {
				found[tier] = true
			}
			if name != "" {
				names = append(names, name)
			}
		}
	}

	// A single product object may be present instead of an array.
	if p, ok := obj["product"].(map[string]interface{}); ok {
		pid := dodo.StringField(p, "id", "product_id")
		if tier := r.planFromProductID(pid); tier != "" {
			found[tier] = true
		}
		if name := dodo.StringField(p, "name", "title"); name != "" {
			names = append(names, name)
		}
	}

	// Bounded id scan when no list matched.
	if len(found) == 0 {
		for _, id := range dodo.CollectStrings(obj, "product_id", "productId", "price_id", "priceId", "id") {
			if tier := r.planFromProductID(id); tier != "" {
				found[tier] = true
			}
		}
	}

	for _, tier := range tierPriority {
		if found[tier] {
			r.logger.Info("Resolved plan from product identifiers", zap.String("plan", tier))
			return tier
		}
	}

	for _, name := range names {
		if slug := NormalizePlan(name); r.IsAllowed(slug) {
			return slug
		}
	}

	// Payment-link / checkout-session hint matching uses substring
	// containment: checkout URLs embed the configured id mid-string.
	candidates := dodo.CollectStrings(obj, "payment_link", "checkout_session_id", "payment_id")
	for _, tier := range tierPriority {
		ids := append(r.cfg.Tiers[tier].PaymentLinkIDs, r.cfg.Tiers[tier].CheckoutIDs...)
		for _, id := range ids {
			if id == "" {
				continue
			}
			for _, c := range candidates {
				if strings.Contains(c, id) {
					return tier
				}
			}
		}
	}

	if slug := dodo.DeepScanText(obj, matchTierKeyword); r.IsAllowed(slug) {
		r.logger.Info("Resolved plan from free-text scan", zap.String("plan", slug))
		return slug
	}
	return ""
}

func matchTierKeyword(s string) string {
	t := strings.ToLower(s)
	switch {
	case strings.Contains(t, "golden") || strings.Contains(t, "lifetime"):
		return model.PlanGolden
	case strings.Contains(t, "agenc") || strings.Contains(t, "studio"):
		return model.PlanStudios
	case strings.Contains(t, "photograph") || strings.Contains(t, "individual") || strings.Contains(t, "solo"):
		return model.PlanIndividual
	}
	return ""
}

// ResolveAmountCents resolves the payment amount: explicit fields, then the
// line-item sum, then the configured flat price for (plan, cycle). A $0
// invoice is only recorded when no fallback exists.
func (r *PlanResolver) ResolveAmountCents(env *dodo.Envelope, plan, cycle string) int64 {
	if amount := numberField(env.Event, "amount", "total", "amount_total", "grand_total"); amount > 0 {
		return amount
	}
	if sum := cartTotalCents(env.Event); sum > 0 {
		return sum
	}
	if sum := cartTotalCents(env.Raw); sum > 0 {
		return sum
	}
	return r.FlatPriceCents(plan, cycle)
}

// FlatPriceCents returns the configured default price, trying the exact
// cycle before any cycle configured for the plan.
func (r *PlanResolver) FlatPriceCents(plan, cycle string) int64 {
	prices := r.cfg.FlatPricesCents[plan]
	if len(prices) == 0 {
		return 0
	}
	if v := prices[cycle]; v > 0 {
		return v
	}
	for _, c := range [...]string{model.CycleMonthly, model.CycleYearly, model.CycleLifetime} {
		if v := prices[c]; v > 0 {
			return v
		}
	}
	return 0
}

// ResolveBillingCycle extracts the billing cycle; golden is always lifetime.
func (r *PlanResolver) ResolveBillingCycle(env *dodo.Envelope, plan string) string {
	if plan == model.PlanGolden {
		return model.CycleLifetime
	}
	raw := dodo.StringField(env.QueryParams, "billing_cycle", "cycle")
	if raw == "" {
		raw = dodo.StringField(env.Metadata, "billing_cycle", "cycle")
	}
	if raw == "" {
		raw = dodo.StringField(env.Event, "billing_cycle", "cycle", "interval", "payment_frequency_interval")
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "year", "yearly", "annual", "annually":
		return model.CycleYearly
	case "lifetime", "once", "one_time", "one-time":
		return model.CycleLifetime
	default:
		return model.CycleMonthly
	}
}

// ResolveCurrency extracts the payment currency, defaulting to USD.
func (r *PlanResolver) ResolveCurrency(env *dodo.Envelope) string {
	cur := dodo.StringField(env.Event, "currency", "currency_code")
	if cur == "" {
		return "USD"
	}
	return strings.ToUpper(cur)
}

func candidateLists(obj map[string]interface{}) [][]interface{} {
	var lists [][]interface{}
	for _, key := range cartKeys {
		switch val := obj[key].(type) {
		case []interface{}:
			if len(val) > 0 {
				lists = append(lists, val)
			}
		case map[string]interface{}:
			// Some providers wrap the array in an object with a data field.
			if arr, ok := val["data"].([]interface{}); ok && len(arr) > 0 {
				lists = append(lists, arr)
			}
		}
	}
	return lists
}

// lineIdentity digs the product id and display name out of one cart line,
// including nested product / price / price.product shapes.
func lineIdentity(line map[string]interface{}) (pid, name string) {
	pid = dodo.StringField(line, "product_id", "price_id", "id")
	name = dodo.StringField(line, "product_name", "name", "title")

	if p, ok := line["product"].(map[string]interface{}); ok {
		if pid == "" {
			pid = dodo.StringField(p, "id", "product_id")
		}
		if name == "" {
			name = dodo.StringField(p, "name", "title")
		}
	}
	if pr, ok := line["price"].(map[string]interface{}); ok {
		if pp, ok := pr["product"].(map[string]interface{}); ok {
			if pid == "" {
				pid = dodo.StringField(pp, "id", "product_id")
			}
			if name == "" {
				name = dodo.StringField(pp, "name", "title")
			}
		}
		if pid == "" {
			pid = dodo.StringField(pr, "id", "price_id")
		}
	}
	return pid, name
}

func cartTotalCents(obj map[string]interface{}) int64 {
	if obj == nil {
		return 0
	}
	var total int64
	for _, items := range candidateLists(obj) {
		for _, it := range items {
			line, ok := it.(map[string]interface{})
			if !ok {
				continue
			}
			price := numberField(line, "price", "unit_price", "unit_amount", "amount", "line_total")
			qty := numberField(line, "quantity", "qty")
			if qty <= 0 {
				qty = 1
			}
			total += price * qty
		}
	}
	return total
}

// numberField reads an integer cents value that may arrive as a JSON
// number, a numeric string, or be missing entirely.
func numberField(obj map[string]interface{}, keys ...string) int64 {
	if obj == nil {
		return 0
	}
	for _, k := range keys {
		switch v := obj[k].(type) {
		case float64:
			if v != 0 {
				return int64(v)
			}
		case int64:
			if v != 0 {
				return v
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n != 0 {
				return n
			}
		}
	}
	return 0
}
