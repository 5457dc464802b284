package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/photomark/pricing-service/internal/adapter/handler/http"
	"github.com/photomark/pricing-service/internal/config"
	domainRepo "github.com/photomark/pricing-service/internal/domain/repository"
	"github.com/photomark/pricing-service/internal/infrastructure/database"
	"github.com/photomark/pricing-service/internal/middleware/auth"
	"github.com/photomark/pricing-service/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	repos  *database.Repositories
	blobs  domainRepo.BlobStore
	svc    *usecase.ReconciliationService
}

func NewServer(cfg *config.Config, logger *zap.Logger, repos *database.Repositories, blobs domainRepo.BlobStore, svc *usecase.ReconciliationService) *Server {
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.FrontendOrigin},
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	return &Server{
		config: cfg,
		logger: logger,
		echo:   e,
		repos:  repos,
		blobs:  blobs,
		svc:    svc,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Initialize handlers
	webhookHandler := handlers.NewPricingWebhookHandler(s.svc, s.config.Pricing.WebhookSecret, s.logger)
	userHandler := handlers.NewPricingUserHandler(s.repos.Account, s.blobs, s.logger)

	// JWT middleware configuration
	jwtConfig := auth.JWTConfig{
		Secret: s.config.Service.JWTSecret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			"/webhook",
			"/api/pricing/webhook",
		},
	}

	api := s.echo.Group("/api/pricing")

	// Webhook routes are authenticated by signature, not JWT.
	api.POST("/webhook", webhookHandler.HandleWebhook)

	protected := api.Group("", auth.JWTMiddleware(jwtConfig))
	protected.GET("/user", userHandler.GetEntitlement)

	// Legacy webhook route kept for providers configured before the API
	// prefix was introduced.
	s.echo.POST("/webhook", webhookHandler.HandleWebhook)
}
