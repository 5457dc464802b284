package http

import (
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/photomark/pricing-service/internal/infrastructure/provider/dodo"
	"github.com/photomark/pricing-service/internal/usecase"
	"go.uber.org/zap"
)

// PricingWebhookHandler receives payment provider webhooks. Contract: 401
// only for authentication failures, 400 only for unparseable JSON, 200 for
// everything else so the provider never retries events we have consciously
// skipped.
type PricingWebhookHandler struct {
	service       *usecase.ReconciliationService
	webhookSecret string
	logger        *zap.Logger
}

// NewPricingWebhookHandler creates a new pricing webhook handler
func NewPricingWebhookHandler(service *usecase.ReconciliationService, webhookSecret string, logger *zap.Logger) *PricingWebhookHandler {
	return &PricingWebhookHandler{
		service:       service,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// HandleWebhook processes one webhook delivery.
func (h *PricingWebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	if resp := h.authenticate(c, body); resp != nil {
		return resp
	}

	env, err := dodo.ParseEnvelope(body)
	if err != nil {
		h.logger.Warn("Rejecting unparseable webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON"})
	}

	outcome, err := h.service.Process(c.Request().Context(), env)
	if err != nil {
		// A store outage must surface as 5xx so the provider redelivers.
		h.logger.Error("Webhook processing failed",
			zap.String("event_type", env.EventType),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, outcome.Response())
}

// authenticate verifies the delivery against whichever secret mode is
// configured. A whsec_ secret selects signed-webhook verification; any
// other non-empty secret is compared against the shared-secret header; no
// secret accepts everything (trusted-network deployments).
func (h *PricingWebhookHandler) authenticate(c echo.Context, body []byte) error {
	if h.webhookSecret == "" {
		return nil
	}

	if dodo.IsSigningSecret(h.webhookSecret) {
		if err := dodo.VerifySignature(h.webhookSecret, c.Request().Header, body); err != nil {
			h.logger.Warn("Webhook signature verification failed",
				zap.String("webhook_id", c.Request().Header.Get("webhook-id")),
				zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
		}
		return nil
	}

	provided := c.Request().Header.Get("X-Pricing-Secret")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.webhookSecret)) != 1 {
		h.logger.Warn("Webhook shared secret mismatch")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
	}
	return nil
}
