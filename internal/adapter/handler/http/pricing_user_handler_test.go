package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	handlers "github.com/photomark/pricing-service/internal/adapter/handler/http"
	"github.com/photomark/pricing-service/internal/domain/model"
	"github.com/photomark/pricing-service/internal/middleware/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func createUserToken(userID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": userID + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte("test-secret"))
	return signed
}

func performUserRequest(t *testing.T, handler *handlers.PricingUserHandler, userID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/pricing/user", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Run through the middleware path that seeds the context user.
	mw := auth.JWTMiddleware(auth.JWTConfig{
		Secret: "test-secret",
		Logger: zap.NewNop(),
	})
	req.Header.Set("Authorization", "Bearer "+createUserToken(userID))
	assert.NoError(t, mw(handler.GetEntitlement)(c))
	return rec
}

func TestPricingUserHandler_GetEntitlement(t *testing.T) {
	t.Run("serves the account row when present", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		accounts.On("GetByID", mock.Anything, "acct_1").Return(&model.Account{
			AccountID:     "acct_1",
			Email:         "alice@example.com",
			Plan:          "studios",
			ExtraMetadata: model.JSONB{"isPaid": true},
		}, nil)
		handler := handlers.NewPricingUserHandler(accounts, newMemoryBlobStore(), zap.NewNop())

		rec := performUserRequest(t, handler, "acct_1")

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "acct_1", body["uid"])
		assert.Equal(t, "studios", body["plan"])
		assert.Equal(t, true, body["isPaid"])
	})

	t.Run("falls back to the entitlement mirror", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		accounts.On("GetByID", mock.Anything, "acct_2").Return(nil, nil)
		blobs := newMemoryBlobStore()
		blobs.entries["users/acct_2/billing/entitlement.json"] = map[string]interface{}{
			"plan": "golden", "isPaid": true,
		}
		handler := handlers.NewPricingUserHandler(accounts, blobs, zap.NewNop())

		rec := performUserRequest(t, handler, "acct_2")

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "golden", body["plan"])
		assert.Equal(t, true, body["isPaid"])
	})

	t.Run("defaults to free for unknown accounts", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		accounts.On("GetByID", mock.Anything, "acct_3").Return(nil, nil)
		handler := handlers.NewPricingUserHandler(accounts, newMemoryBlobStore(), zap.NewNop())

		rec := performUserRequest(t, handler, "acct_3")

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "free", body["plan"])
		assert.Equal(t, false, body["isPaid"])
	})
}
