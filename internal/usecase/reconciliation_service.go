package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/photomark/pricing-service/internal/config"
	"github.com/photomark/pricing-service/internal/domain/model"
	domainRepo "github.com/photomark/pricing-service/internal/domain/repository"
	"github.com/photomark/pricing-service/internal/infrastructure/provider/dodo"
	"go.uber.org/zap"
)

// Event types that trigger an entitlement change. Everything else is
// captured for audit and acknowledged.
const (
	EventPaymentSucceeded   = "payment.succeeded"
	EventSubscriptionActive = "subscription.active"
)

// ReconciliationService runs the full pipeline for one webhook event:
// identity resolution, the shop-sale branch, plan and amount resolution,
// and the entitlement applier. Every path ends in an Outcome; errors only
// escape when a required store is unreachable.
type ReconciliationService struct {
	identity    *IdentityResolver
	plans       *PlanResolver
	entitlement *EntitlementService
	shopSales   domainRepo.ShopSaleRepository
	events      domainRepo.PricingEventRepository
	cfg         config.PricingConfig
	logger      *zap.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	identity *IdentityResolver,
	plans *PlanResolver,
	entitlement *EntitlementService,
	shopSales domainRepo.ShopSaleRepository,
	events domainRepo.PricingEventRepository,
	cfg config.PricingConfig,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		identity:    identity,
		plans:       plans,
		entitlement: entitlement,
		shopSales:   shopSales,
		events:      events,
		cfg:         cfg,
		logger:      logger,
	}
}

// Process handles one parsed webhook envelope end to end.
func (s *ReconciliationService) Process(ctx context.Context, env *dodo.Envelope) (Outcome, error) {
	facts := s.identity.Resolve(ctx, env)
	s.appendAuditEvent(ctx, env, facts)

	s.logger.Info("Processing webhook event",
		zap.String("event_type", env.EventType),
		zap.String("account_id", facts.AccountID),
		zap.String("subscription_id", facts.SubscriptionID))

	// Storefront sales are a separate ledger; they never change a plan.
	if s.isShopSale(env) {
		return s.recordShopSale(ctx, env, facts)
	}

	// Identity is required before anything else can happen, even for event
	// types that only get captured.
	if !s.identity.ResolveAccount(ctx, &facts) {
		s.logger.Warn("No account id resolvable from event",
			zap.String("event_type", env.EventType))
		return skipped(ReasonMissingAccountID), nil
	}

	// Record what this event taught us before any gate can bail out, so a
	// sparser follow-up event can inherit it.
	s.identity.CacheFacts(ctx, facts)

	if env.EventType != EventPaymentSucceeded && env.EventType != EventSubscriptionActive {
		s.logger.Info("Captured non-entitlement event",
			zap.String("event_type", env.EventType))
		return Outcome{OK: true, Captured: true, EventType: env.EventType}, nil
	}

	isSubscription := facts.SubscriptionID != "" && !hasCartLines(env.Event)

	if isSubscription {
		status := dodo.StringField(env.Event, "status", "subscription_status")
		if status != "" && !s.plans.StatusAllowed(status) {
			s.logger.Info("Subscription status gated",
				zap.String("status", status),
				zap.String("account_id", facts.AccountID))
			out := skipped(ReasonStatusNotActive)
			out.Status = status
			out.AccountID = facts.AccountID
			return out, nil
		}
	}

	plan := s.resolvePlan(ctx, env, &facts, isSubscription)

	if plan == "" {
		if isSubscription && env.EventType == EventPaymentSucceeded {
			// The activation event for the same subscription carries the
			// product id; let it perform the upgrade.
			s.logger.Info("Deferring subscription payment to activation event",
				zap.String("subscription_id", facts.SubscriptionID),
				zap.String("account_id", facts.AccountID))
			return Outcome{
				OK:             true,
				Deferred:       true,
				Reason:         ReasonDeferredToActive,
				EventType:      env.EventType,
				AccountID:      facts.AccountID,
				SubscriptionID: facts.SubscriptionID,
			}, nil
		}
		out := skipped(ReasonUnsupportedPlan)
		out.PlanRaw = facts.Plan
		out.Normalized = NormalizePlan(facts.Plan)
		out.Allowed = s.plans.AllowedPlans()
		out.AccountID = facts.AccountID
		return out, nil
	}

	if !s.plans.IsAllowed(plan) {
		out := skipped(ReasonUnsupportedPlan)
		out.PlanRaw = facts.Plan
		out.Normalized = plan
		out.Allowed = s.plans.AllowedPlans()
		out.AccountID = facts.AccountID
		return out, nil
	}

	cycle := s.plans.ResolveBillingCycle(env, plan)
	currency := s.plans.ResolveCurrency(env)
	amount := s.plans.ResolveAmountCents(env, plan, cycle)

	outcome, err := s.entitlement.Apply(ctx, ApplyInput{
		AccountID:          facts.AccountID,
		Plan:               plan,
		BillingCycle:       cycle,
		AmountCents:        amount,
		Currency:           currency,
		PaymentID:          s.resolvePaymentID(env),
		SubscriptionID:     facts.SubscriptionID,
		SubscriptionStatus: dodo.StringField(env.Event, "status", "subscription_status"),
		Email:              facts.Email,
		Event:              env.Event,
	})
	if err != nil {
		return Outcome{}, err
	}

	if outcome.Upgraded {
		facts.Plan = plan
		s.identity.CacheFacts(ctx, facts)
	}
	return outcome, nil
}

// resolvePlan runs the full plan fallback chain for the event's shape, with
// the fact cache as a late fallback before giving up.
func (s *ReconciliationService) resolvePlan(ctx context.Context, env *dodo.Envelope, facts *Facts, isSubscription bool) string {
	var plan string
	if isSubscription {
		plan = s.plans.ResolveForSubscription(env, facts.Plan, facts.SubscriptionID)
	} else {
		plan = NormalizePlan(facts.Plan)
		if !s.plans.IsAllowed(plan) {
			plan = ""
		}
		if plan == "" {
			plan = s.plans.PlanFromProducts(env.Event)
		}
		if plan == "" {
			plan = s.plans.PlanFromProducts(env.Raw)
		}
	}

	if plan == "" {
		s.identity.RecoverFacts(ctx, facts)
		if cached := NormalizePlan(facts.Plan); s.plans.IsAllowed(cached) {
			s.logger.Info("Recovered plan from fact cache",
				zap.String("plan", cached))
			plan = cached
		}
	}
	return plan
}

func (s *ReconciliationService) resolvePaymentID(env *dodo.Envelope) string {
	id := dodo.StringField(env.Event, "payment_id", "payment_intent_id", "id")
	if id == "" {
		id = dodo.DeepFindString(env.Raw, "payment_id", "payment_intent_id")
	}
	if id == "" {
		// Synthesized ids defeat cross-delivery dedup, but a missing id
		// would otherwise collide every unkeyed payment on one row.
		id = fmt.Sprintf("gen_%s", uuid.NewString())
	}
	return id
}

func hasCartLines(event map[string]interface{}) bool {
	if event == nil {
		return false
	}
	if items, ok := event["product_cart"].([]interface{}); ok && len(items) > 0 {
		return true
	}
	return false
}

func (s *ReconciliationService) isShopSale(env *dodo.Envelope) bool {
	kind := dodo.StringField(env.Metadata, "kind", "type")
	if kind == "" {
		kind = dodo.StringField(env.QueryParams, "kind", "type")
	}
	if strings.EqualFold(kind, "shop") || strings.EqualFold(kind, "shop_sale") {
		return true
	}
	return dodo.StringField(env.Metadata, "shop_uid", "shopUid") != "" ||
		dodo.StringField(env.QueryParams, "shop_uid", "shopUid") != ""
}

// recordShopSale persists a storefront sale, idempotent on payment id.
func (s *ReconciliationService) recordShopSale(ctx context.Context, env *dodo.Envelope, facts Facts) (Outcome, error) {
	if env.EventType != EventPaymentSucceeded {
		return Outcome{OK: true, Captured: true, EventType: env.EventType}, nil
	}

	paymentID := s.resolvePaymentID(env)
	currency := s.plans.ResolveCurrency(env)
	amount := s.plans.ResolveAmountCents(env, "", "")

	ownerUID := dodo.StringField(env.Metadata, "owner_uid", "ownerUid")
	if ownerUID == "" {
		ownerUID = facts.AccountID
	}

	sale := &model.ShopSale{
		ID:          fmt.Sprintf("sale_%s", uuid.NewString()),
		OwnerUID:    ownerUID,
		Currency:    currency,
		AmountCents: amount,
		Items:       shopSaleItems(env),
	}
	sale.PaymentID = &paymentID
	if shopUID := dodo.StringField(env.Metadata, "shop_uid", "shopUid"); shopUID != "" {
		sale.ShopUID = &shopUID
	}
	if slug := dodo.StringField(env.Metadata, "slug"); slug != "" {
		sale.Slug = &slug
	}
	if facts.Email != "" {
		sale.CustomerEmail = &facts.Email
	}
	if len(env.Metadata) > 0 {
		sale.SaleMetadata = model.JSONB(env.Metadata)
	}

	created, err := s.shopSales.CreateIfAbsent(ctx, sale)
	if err != nil {
		return Outcome{}, err
	}

	s.logger.Info("Shop sale processed",
		zap.String("payment_id", paymentID),
		zap.Bool("recorded", created),
		zap.Int64("amount_cents", amount))

	return Outcome{
		OK:               true,
		ShopSaleRecorded: created,
		PaymentID:        paymentID,
		AmountCents:      amount,
		Currency:         currency,
	}, nil
}

func shopSaleItems(env *dodo.Envelope) model.JSONB {
	items := model.JSONB{}
	for _, key := range cartKeys {
		if arr, ok := env.Event[key].([]interface{}); ok && len(arr) > 0 {
			items["lines"] = arr
			return items
		}
	}
	return nil
}

// appendAuditEvent writes the raw event to the ledger; failures never block
// processing.
func (s *ReconciliationService) appendAuditEvent(ctx context.Context, env *dodo.Envelope, facts Facts) {
	record := &model.PricingEvent{
		Provider:  s.cfg.Provider,
		EventType: env.EventType,
		Payload:   model.JSONB(env.Raw),
	}
	if facts.AccountID != "" {
		record.AccountID = &facts.AccountID
	}
	if eventID := dodo.StringField(env.Raw, "id", "event_id"); eventID != "" {
		record.EventID = &eventID
	}
	if err := s.events.Append(ctx, record); err != nil {
		s.logger.Warn("Audit event append failed", zap.Error(err))
	}
}
