package usecase_test

import (
	"context"

	"github.com/photomark/pricing-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
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

// MockBlobStore is an in-memory BlobStore for fact cache tests.
type MockBlobStore struct {
	entries map[string]map[string]interface{}
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{entries: map[string]map[string]interface{}{}}
}

func (m *MockBlobStore) ReadJSON(ctx context.Context, key string) (map[string]interface{}, error) {
	return m.entries[key], nil
}

func (m *MockBlobStore) WriteJSON(ctx context.Context, key string, value map[string]interface{}) error {
	m.entries[key] = value
	return nil
}

// MockMailer records sent mail.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, html, text string) error {
	args := m.Called(ctx, to, subject, html, text)
	return args.Error(0)
}
