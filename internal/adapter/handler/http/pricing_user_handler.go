package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	domainRepo "github.com/photomark/pricing-service/internal/domain/repository"
	"github.com/photomark/pricing-service/internal/middleware/auth"
	"go.uber.org/zap"
)

// PricingUserHandler serves the authenticated caller's current entitlement.
type PricingUserHandler struct {
	accounts domainRepo.AccountRepository
	blobs    domainRepo.BlobStore
	logger   *zap.Logger
}

// NewPricingUserHandler creates a new pricing user handler
func NewPricingUserHandler(accounts domainRepo.AccountRepository, blobs domainRepo.BlobStore, logger *zap.Logger) *PricingUserHandler {
	return &PricingUserHandler{
		accounts: accounts,
		blobs:    blobs,
		logger:   logger,
	}
}

// GetEntitlement returns the caller's plan and payment state. The account
// row is authoritative; the mirror only fills in when the row is missing.
func (h *PricingUserHandler) GetEntitlement(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()

	account, err := h.accounts.GetByID(ctx, user.UserID)
	if err != nil {
		h.logger.Error("Failed to load account",
			zap.String("account_id", user.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if account != nil {
		isPaid := false
		if v, ok := account.ExtraMetadata["isPaid"].(bool); ok {
			isPaid = v
		}
		return c.JSON(http.StatusOK, echo.Map{
			"uid":    account.AccountID,
			"email":  account.Email,
			"plan":   account.Plan,
			"isPaid": isPaid,
		})
	}

	mirror, err := h.blobs.ReadJSON(ctx, "users/"+user.UserID+"/billing/entitlement.json")
	if err != nil {
		h.logger.Warn("Entitlement mirror read failed",
			zap.String("account_id", user.UserID),
			zap.Error(err))
	}
	if mirror != nil {
		plan, _ := mirror["plan"].(string)
		isPaid, _ := mirror["isPaid"].(bool)
		return c.JSON(http.StatusOK, echo.Map{
			"uid":    user.UserID,
			"email":  user.Email,
			"plan":   plan,
			"isPaid": isPaid,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"uid":    user.UserID,
		"email":  user.Email,
		"plan":   "free",
		"isPaid": false,
	})
}
