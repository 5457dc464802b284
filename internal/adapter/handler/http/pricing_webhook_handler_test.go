package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	handlers "github.com/photomark/pricing-service/internal/adapter/handler/http"
	"github.com/photomark/pricing-service/internal/config"
	"github.com/photomark/pricing-service/internal/domain/model"
	"github.com/photomark/pricing-service/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, accountID string) (*model.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateEntitlement(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) CreateIfAbsent(ctx context.Context, invoice *model.Invoice) (bool, error) {
	args := m.Called(ctx, invoice)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) GetByPaymentID(ctx context.Context, paymentID string) (*model.Invoice, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

// MockShopSaleRepository is a mock implementation of ShopSaleRepository
type MockShopSaleRepository struct {
	mock.Mock
}

func (m *MockShopSaleRepository) CreateIfAbsent(ctx context.Context, sale *model.ShopSale) (bool, error) {
	args := m.Called(ctx, sale)
	return args.Bool(0), args.Error(1)
}

func (m *MockShopSaleRepository) GetByPaymentID(ctx context.Context, paymentID string) (*model.ShopSale, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShopSale), args.Error(1)
}

// MockAffiliateRepository is a mock implementation of AffiliateRepository
type MockAffiliateRepository struct {
	mock.Mock
}

func (m *MockAffiliateRepository) GetAttributionByUser(ctx context.Context, userUID string) (*model.AffiliateAttribution, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AffiliateAttribution), args.Error(1)
}

func (m *MockAffiliateRepository) CreateConversionIfAbsent(ctx context.Context, conversion *model.AffiliateConversion) (bool, error) {
	args := m.Called(ctx, conversion)
	return args.Bool(0), args.Error(1)
}

func (m *MockAffiliateRepository) IncrementConversionTotals(ctx context.Context, affiliateUID string, grossCents, payoutCents int64) error {
	args := m.Called(ctx, affiliateUID, grossCents, payoutCents)
	return args.Error(0)
}

// MockPricingEventRepository is a mock implementation of PricingEventRepository
type MockPricingEventRepository struct {
	mock.Mock
}

func (m *MockPricingEventRepository) Append(ctx context.Context, event *model.PricingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// memoryBlobStore is an in-memory BlobStore.
type memoryBlobStore struct {
	entries map[string]map[string]interface{}
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{entries: map[string]map[string]interface{}{}}
}

func (s *memoryBlobStore) ReadJSON(ctx context.Context, key string) (map[string]interface{}, error) {
	return s.entries[key], nil
}

func (s *memoryBlobStore) WriteJSON(ctx context.Context, key string, value map[string]interface{}) error {
	s.entries[key] = value
	return nil
}

type webhookFixture struct {
	accounts *MockAccountRepository
	invoices *MockInvoiceRepository
	handler  *handlers.PricingWebhookHandler
}

func newWebhookFixture(secret string) *webhookFixture {
	logger := zap.NewNop()
	cfg := config.PricingConfig{
		Tiers: map[string]config.TierIdentifiers{
			model.PlanStudios: {ProductIDs: []string{"pdt_studios"}},
		},
	}
	cfg.ApplyDefaults()

	accounts := new(MockAccountRepository)
	invoices := new(MockInvoiceRepository)
	affiliates := new(MockAffiliateRepository)
	shopSales := new(MockShopSaleRepository)
	events := new(MockPricingEventRepository)
	events.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
	blobs := newMemoryBlobStore()

	identity := usecase.NewIdentityResolver(accounts, blobs, logger)
	plans := usecase.NewPlanResolver(cfg, logger)
	entitlement := usecase.NewEntitlementService(
		accounts, invoices, affiliates, blobs, nil, cfg, logger)
	service := usecase.NewReconciliationService(
		identity, plans, entitlement, shopSales, events, cfg, logger)

	affiliates.On("GetAttributionByUser", mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	return &webhookFixture{
		accounts: accounts,
		invoices: invoices,
		handler:  handlers.NewPricingWebhookHandler(service, secret, logger),
	}
}

func performWebhook(f *webhookFixture, body string, headers map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/pricing/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = f.handler.HandleWebhook(c)
	return rec
}

func TestPricingWebhookHandler_Authentication(t *testing.T) {
	t.Run("rejects a missing shared secret", func(t *testing.T) {
		f := newWebhookFixture("topsecret")
		rec := performWebhook(f, `{"type":"payment.succeeded"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Unauthorized", body["error"])
	})

	t.Run("rejects a wrong shared secret", func(t *testing.T) {
		f := newWebhookFixture("topsecret")
		rec := performWebhook(f, `{"type":"payment.succeeded"}`, map[string]string{
			"X-Pricing-Secret": "guess",
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects unsigned payloads when a signing secret is configured", func(t *testing.T) {
		f := newWebhookFixture("whsec_dGVzdC1rZXk=")
		rec := performWebhook(f, `{"type":"payment.succeeded"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "invalid signature", body["error"])
	})

	t.Run("accepts everything without a configured secret", func(t *testing.T) {
		f := newWebhookFixture("")
		rec := performWebhook(f, `{"type":"refund.created","data":{"object":{}}}`, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestPricingWebhookHandler_HandleWebhook(t *testing.T) {
	t.Run("rejects invalid JSON with 400", func(t *testing.T) {
		f := newWebhookFixture("topsecret")
		rec := performWebhook(f, `{"type":`, map[string]string{
			"X-Pricing-Secret": "topsecret",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "invalid JSON", body["error"])
	})

	t.Run("returns the upgrade response shape", func(t *testing.T) {
		f := newWebhookFixture("topsecret")

		account := &model.Account{AccountID: "acct_1"}
		f.invoices.On("GetByPaymentID", mock.Anything, "pay_1").Return(nil, nil)
		f.accounts.On("GetByID", mock.Anything, "acct_1").Return(account, nil)
		f.accounts.On("UpdateEntitlement", mock.Anything, account).Return(nil)
		f.invoices.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(true, nil)

		rec := performWebhook(f, `{
			"type": "payment.succeeded",
			"data": {"object": {
				"payment_id": "pay_1",
				"product_id": "pdt_studios",
				"subscription_id": "sub_1",
				"status": "succeeded",
				"amount": 2900,
				"metadata": {"user_uid": "acct_1"}
			}}
		}`, map[string]string{"X-Pricing-Secret": "topsecret"})

		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, true, body["upgraded"])
		assert.Equal(t, "acct_1", body["account_id"])
		assert.Equal(t, "studios", body["plan"])
	})

	t.Run("returns 200 with a skip reason", func(t *testing.T) {
		f := newWebhookFixture("topsecret")

		rec := performWebhook(f, `{
			"type": "payment.succeeded",
			"data": {"object": {
				"payment_id": "pay_2",
				"metadata": {"user_uid": "acct_1", "plan": "enterprise"}
			}}
		}`, map[string]string{"X-Pricing-Secret": "topsecret"})

		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, true, body["skipped"])
		assert.Equal(t, "unsupported_plan", body["reason"])
		assert.Equal(t, "enterprise", body["plan_raw"])
	})

	t.Run("returns the deferral response shape", func(t *testing.T) {
		f := newWebhookFixture("topsecret")

		rec := performWebhook(f, `{
			"type": "payment.succeeded",
			"data": {"object": {
				"payment_id": "pay_3",
				"subscription_id": "sub_1",
				"status": "succeeded",
				"metadata": {"user_uid": "acct_1"}
			}}
		}`, map[string]string{"X-Pricing-Secret": "topsecret"})

		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, true, body["deferred"])
		assert.Equal(t, "subscription_payment_deferred_to_active", body["reason"])
		assert.Equal(t, "sub_1", body["subscription_id"])
	})
}
