package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/photomark/pricing-service/internal/config"
	"github.com/photomark/pricing-service/internal/domain/model"
	domainRepo "github.com/photomark/pricing-service/internal/domain/repository"
	"github.com/photomark/pricing-service/internal/infrastructure/provider/dodo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Mailer sends notification emails. Delivery is best-effort everywhere this
// interface is used.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// ApplyInput carries one fully resolved payment into the entitlement
// applier.
type ApplyInput struct {
	AccountID          string
	Plan               string
	BillingCycle       string
	AmountCents        int64
	Currency           string
	PaymentID          string
	SubscriptionID     string
	SubscriptionStatus string
	Email              string
	Event              map[string]interface{}
}

// EntitlementService applies a resolved payment to an account: plan update,
// invoice row, affiliate commission, entitlement mirror and a best-effort
// confirmation email. The invoice's unique payment id is the idempotency
// boundary; everything after it is independent and may partially fail,
// with later deliveries of related events filling the gaps.
type EntitlementService struct {
	accounts   domainRepo.AccountRepository
	invoices   domainRepo.InvoiceRepository
	affiliates domainRepo.AffiliateRepository
	blobs      domainRepo.BlobStore
	mailer     Mailer
	cfg        config.PricingConfig
	logger     *zap.Logger
}

// NewEntitlementService creates a new entitlement service
func NewEntitlementService(
	accounts domainRepo.AccountRepository,
	invoices domainRepo.InvoiceRepository,
	affiliates domainRepo.AffiliateRepository,
	blobs domainRepo.BlobStore,
	mailer Mailer,
	cfg config.PricingConfig,
	logger *zap.Logger,
) *EntitlementService {
	return &EntitlementService{
		accounts:   accounts,
		invoices:   invoices,
		affiliates: affiliates,
		blobs:      blobs,
		mailer:     mailer,
		cfg:        cfg,
		logger:     logger,
	}
}

// Apply performs the entitlement change for one resolved payment.
func (s *EntitlementService) Apply(ctx context.Context, in ApplyInput) (Outcome, error) {
	if existing, err := s.invoices.GetByPaymentID(ctx, in.PaymentID); err != nil {
		return Outcome{}, err
	} else if existing != nil {
		s.logger.Info("Ignoring already-processed payment",
			zap.String("payment_id", in.PaymentID),
			zap.String("account_id", in.AccountID))
		out := skipped(ReasonDuplicatePayment)
		out.AccountID = in.AccountID
		return out, nil
	}

	account, err := s.accounts.GetByID(ctx, in.AccountID)
	if err != nil {
		return Outcome{}, err
	}
	if account == nil {
		s.logger.Warn("Payment references unknown account",
			zap.String("account_id", in.AccountID),
			zap.String("payment_id", in.PaymentID))
		out := skipped(ReasonAccountNotFound)
		out.AccountID = in.AccountID
		return out, nil
	}

	s.updateAccount(account, in)
	if err := s.accounts.UpdateEntitlement(ctx, account); err != nil {
		return Outcome{}, err
	}

	invoice := &model.Invoice{
		ID:           fmt.Sprintf("inv_%s", uuid.NewString()),
		PaymentID:    in.PaymentID,
		AccountID:    in.AccountID,
		AmountCents:  in.AmountCents,
		Currency:     in.Currency,
		Plan:         in.Plan,
		BillingCycle: in.BillingCycle,
		Provider:     s.cfg.Provider,
	}
	created, err := s.invoices.CreateIfAbsent(ctx, invoice)
	if err != nil {
		return Outcome{}, err
	}
	if !created {
		// Lost the race against a concurrent delivery; the account update
		// above was idempotent, so nothing to undo.
		out := skipped(ReasonDuplicatePayment)
		out.AccountID = in.AccountID
		return out, nil
	}

	s.writeEntitlementMirror(ctx, account, in)
	s.recordAffiliateConversion(ctx, in)
	s.sendConfirmationEmail(account, in)

	s.logger.Info("Entitlement applied",
		zap.String("account_id", in.AccountID),
		zap.String("plan", in.Plan),
		zap.String("payment_id", in.PaymentID),
		zap.Int64("amount_cents", in.AmountCents))

	return Outcome{OK: true, Upgraded: true, AccountID: in.AccountID, Plan: in.Plan}, nil
}

func (s *EntitlementService) updateAccount(account *model.Account, in ApplyInput) {
	account.Plan = in.Plan
	if in.SubscriptionID != "" {
		account.SubscriptionID = &in.SubscriptionID
	}
	if in.SubscriptionStatus != "" {
		account.SubscriptionStatus = &in.SubscriptionStatus
	}
	if account.Email == "" && in.Email != "" {
		account.Email = in.Email
	}

	if account.ExtraMetadata == nil {
		account.ExtraMetadata = model.JSONB{}
	}
	account.ExtraMetadata["isPaid"] = true
	account.ExtraMetadata["paidAt"] = time.Now().UTC().Format(time.RFC3339)
	account.ExtraMetadata["billingCycle"] = in.BillingCycle
	account.ExtraMetadata["billingProvider"] = s.cfg.Provider

	if method := extractPaymentMethod(in.Event); method != nil {
		account.ExtraMetadata["payment_methods"] = mergePaymentMethods(
			account.ExtraMetadata["payment_methods"], *method)
	}
}

// extractPaymentMethod pulls a card fingerprint out of the event when the
// provider included one. Shapes vary; both a payment_method wrapper and a
// bare card object are accepted.
func extractPaymentMethod(event map[string]interface{}) *model.PaymentMethod {
	if event == nil {
		return nil
	}

	card, _ := event["card"].(map[string]interface{})
	pmType := "card"
	id := ""
	if pm, ok := event["payment_method"].(map[string]interface{}); ok {
		id = dodo.StringField(pm, "id", "payment_method_id")
		if t := dodo.StringField(pm, "type"); t != "" {
			pmType = t
		}
		if c, ok := pm["card"].(map[string]interface{}); ok {
			card = c
		}
	} else if s, ok := event["payment_method"].(string); ok && s != "" {
		id = s
	}
	if card == nil && id == "" {
		return nil
	}

	method := &model.PaymentMethod{
		ID:        id,
		Type:      pmType,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if card != nil {
		if brand := dodo.StringField(card, "brand", "network"); brand != "" {
			method.Type = strings.ToLower(brand)
		}
		method.Last4 = dodo.StringField(card, "last4", "last_four", "last_four_digits")
		month := dodo.StringField(card, "exp_month", "expiry_month")
		year := dodo.StringField(card, "exp_year", "expiry_year")
		if month != "" && year != "" {
			method.Expiry = fmt.Sprintf("%s/%s", month, year)
		}
	}
	if method.ID == "" {
		method.ID = fmt.Sprintf("pm_%s", uuid.NewString())
	}
	return method
}

// mergePaymentMethods upserts into the stored list, matching by id first and
// then by (type, last4). The new or updated method becomes the only default.
func mergePaymentMethods(stored interface{}, method model.PaymentMethod) []interface{} {
	method.IsDefault = true
	existing, _ := stored.([]interface{})

	merged := make([]interface{}, 0, len(existing)+1)
	for _, raw := range existing {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		sameID := method.ID != "" && entry["id"] == method.ID
		sameCard := entry["type"] == method.Type && entry["last4"] == method.Last4 && method.Last4 != ""
		if sameID || sameCard {
			continue
		}
		entry["isDefault"] = false
		merged = append(merged, entry)
	}

	merged = append(merged, map[string]interface{}{
		"id":        method.ID,
		"type":      method.Type,
		"last4":     method.Last4,
		"expiry":    method.Expiry,
		"isDefault": true,
		"createdAt": method.CreatedAt,
	})
	return merged
}

func entitlementMirrorKey(accountID string) string {
	return fmt.Sprintf("users/%s/billing/entitlement.json", accountID)
}

func (s *EntitlementService) writeEntitlementMirror(ctx context.Context, account *model.Account, in ApplyInput) {
	mirror := map[string]interface{}{
		"account_id":   account.AccountID,
		"plan":         in.Plan,
		"isPaid":       true,
		"billingCycle": in.BillingCycle,
		"provider":     s.cfg.Provider,
		"updatedAt":    time.Now().UTC().Format(time.RFC3339),
	}
	if in.SubscriptionID != "" {
		mirror["subscription_id"] = in.SubscriptionID
	}
	if err := s.blobs.WriteJSON(ctx, entitlementMirrorKey(account.AccountID), mirror); err != nil {
		s.logger.Warn("Entitlement mirror write failed",
			zap.String("account_id", account.AccountID),
			zap.Error(err))
	}
}

// recordAffiliateConversion pays out commission on a referred account's
// payment, exactly once per (affiliate, account) pair. Failures are logged
// and never fail the webhook.
func (s *EntitlementService) recordAffiliateConversion(ctx context.Context, in ApplyInput) {
	attribution, err := s.affiliates.GetAttributionByUser(ctx, in.AccountID)
	if err != nil || attribution == nil {
		return
	}

	rate := s.cfg.CommissionRate
	if in.Plan == model.PlanGolden {
		rate = s.cfg.GoldenCommissionRate
	}
	payout := decimal.NewFromInt(in.AmountCents).
		Mul(decimal.NewFromFloat(rate)).
		Round(0).
		IntPart()

	now := time.Now().UTC()
	conversion := &model.AffiliateConversion{
		AffiliateUID:   attribution.AffiliateUID,
		UserUID:        in.AccountID,
		AmountCents:    in.AmountCents,
		PayoutCents:    payout,
		Currency:       strings.ToLower(in.Currency),
		ConversionDate: &now,
	}

	created, err := s.affiliates.CreateConversionIfAbsent(ctx, conversion)
	if err != nil {
		s.logger.Warn("Affiliate conversion insert failed",
			zap.String("affiliate_uid", attribution.AffiliateUID),
			zap.Error(err))
		return
	}
	if !created {
		return
	}

	if err := s.affiliates.IncrementConversionTotals(ctx, attribution.AffiliateUID, in.AmountCents, payout); err != nil {
		s.logger.Warn("Affiliate totals update failed",
			zap.String("affiliate_uid", attribution.AffiliateUID),
			zap.Error(err))
	}

	s.logger.Info("Affiliate conversion recorded",
		zap.String("affiliate_uid", attribution.AffiliateUID),
		zap.String("account_id", in.AccountID),
		zap.Int64("payout_cents", payout))
}

var planDisplayNames = map[string]string{
	model.PlanIndividual: "Individual",
	model.PlanStudios:    "Studios",
	model.PlanGolden:     "Golden",
}

// sendConfirmationEmail fires the upgrade email on a detached context so a
// slow SMTP server cannot hold the webhook response.
func (s *EntitlementService) sendConfirmationEmail(account *model.Account, in ApplyInput) {
	to := account.Email
	if to == "" {
		to = in.Email
	}
	if to == "" || s.mailer == nil {
		return
	}

	display := planDisplayNames[in.Plan]
	if display == "" {
		display = in.Plan
	}
	subject := fmt.Sprintf("Welcome to the %s plan", display)
	amount := fmt.Sprintf("%s %.2f", strings.ToUpper(in.Currency), float64(in.AmountCents)/100)

	text := fmt.Sprintf(
		"Your payment of %s was received and your account has been upgraded to the %s plan.\n\nThank you for your support!",
		amount, display)
	html := fmt.Sprintf(
		`<h2>You're all set</h2><p>Your payment of <strong>%s</strong> was received and your account has been upgraded to the <strong>%s</strong> plan.</p><p>Thank you for your support!</p>`,
		amount, display)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, to, subject, html, text); err != nil {
			s.logger.Warn("Upgrade email delivery failed",
				zap.String("account_id", account.AccountID),
				zap.Error(err))
		}
	}()
}
