package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testJWTSecret = "test-secret"

func createValidJWT(userID, email, role string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	})

	tokenString, _ := token.SignedString([]byte(testJWTSecret))
	return tokenString
}

func performRequest(t *testing.T, mw echo.MiddlewareFunc, path, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	assert.NoError(t, handler(c))
	return rec, reached
}

func TestJWTMiddleware(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{
		Secret:    testJWTSecret,
		Logger:    zap.NewNop(),
		SkipPaths: []string{"/health", "/api/pricing/webhook"},
	})

	t.Run("authenticates a valid token", func(t *testing.T) {
		token := createValidJWT("acct_1", "alice@example.com", "user")
		rec, reached := performRequest(t, mw, "/api/pricing/user", "Bearer "+token)

		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stores the authenticated user on the context", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/pricing/user", nil)
		req.Header.Set("Authorization", "Bearer "+createValidJWT("acct_1", "alice@example.com", "user"))
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := mw(func(c echo.Context) error {
			user, err := GetUserFromContext(c)
			assert.NoError(t, err)
			assert.Equal(t, "acct_1", user.UserID)
			assert.Equal(t, "alice@example.com", user.Email)
			return c.NoContent(http.StatusOK)
		})
		assert.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		rec, reached := performRequest(t, mw, "/api/pricing/user", "")

		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a malformed header", func(t *testing.T) {
		rec, reached := performRequest(t, mw, "/api/pricing/user", "Token abc")

		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "acct_1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, _ := token.SignedString([]byte("other-secret"))

		rec, reached := performRequest(t, mw, "/api/pricing/user", "Bearer "+signed)

		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "acct_1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		signed, _ := token.SignedString([]byte(testJWTSecret))

		rec, reached := performRequest(t, mw, "/api/pricing/user", "Bearer "+signed)

		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token without a subject", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, _ := token.SignedString([]byte(testJWTSecret))

		rec, reached := performRequest(t, mw, "/api/pricing/user", "Bearer "+signed)

		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("skips configured paths", func(t *testing.T) {
		rec, reached := performRequest(t, mw, "/health", "")

		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
