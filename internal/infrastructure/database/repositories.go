package database

import (
	"github.com/photomark/pricing-service/internal/adapter/repository"
	domainRepo "github.com/photomark/pricing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Account      domainRepo.AccountRepository
	Invoice      domainRepo.InvoiceRepository
	ShopSale     domainRepo.ShopSaleRepository
	Affiliate    domainRepo.AffiliateRepository
	PricingEvent domainRepo.PricingEventRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Account:      repository.NewAccountRepository(db, logger),
		Invoice:      repository.NewInvoiceRepository(db, logger),
		ShopSale:     repository.NewShopSaleRepository(db, logger),
		Affiliate:    repository.NewAffiliateRepository(db, logger),
		PricingEvent: repository.NewPricingEventRepository(db, logger),
	}
}
