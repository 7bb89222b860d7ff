package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/examprep-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtectedRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtService, err := auth.NewJWTService("test-secret", 1)
	require.NoError(t, err)

	router := gin.New()
	authMw := NewAuthMiddleware(jwtService)
	router.GET("/protected", authMw.RequireAuth(), func(c *gin.Context) {
		userID := c.MustGet("user_id").(uint)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router, jwtService
}

func TestRequireAuth_ValidToken(t *testing.T) {
	// Arrange
	router, jwtService := newProtectedRouter(t)
	token, err := jwtService.GenerateToken(42, "user@example.com")
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":42`)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	// Arrange
	router, _ := newProtectedRouter(t)
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_missing")
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	// Arrange
	router, jwtService := newProtectedRouter(t)
	token, err := jwtService.GenerateToken(42, "user@example.com")
	require.NoError(t, err)

	testCases := []struct {
		name   string
		header string
	}{
		{"без Bearer", token},
		{"неверная схема", "Basic " + token},
		{"лишние части", "Bearer " + token + " extra"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", tc.header)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "token_format")
		})
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	// Arrange: токен с чужой подписью
	router, _ := newProtectedRouter(t)
	foreign, err := auth.NewJWTService("other-secret", 1)
	require.NoError(t, err)
	token, err := foreign.GenerateToken(42, "user@example.com")
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_invalid")
}

func TestExtractUintParam(t *testing.T) {
	// Arrange
	router := gin.New()
	router.GET("/items/:id", ExtractUintParam("id", "itemID"), func(c *gin.Context) {
		id := c.MustGet("itemID").(uint)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	// Act & Assert: валидный параметр
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/items/7", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":7`)

	// Невалидный параметр — 400 до входа в обработчик
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/items/abc", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
