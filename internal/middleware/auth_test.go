package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibook-server/internal/config"
	"medibook-server/internal/models"
	"medibook-server/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:                 "test-secret",
		JWTRefreshSecret:          "test-refresh-secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 168,
	}
}

func testRouter(cfg *config.Config, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/", AuthMiddleware(cfg))
	if len(roles) > 0 {
		group.Use(RoleAuthMiddleware(roles...))
	}
	group.GET("/whoami", func(c *gin.Context) {
		userID, _ := GetUserIDFromContext(c)
		role, _ := GetUserRoleFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": userID, "role": role})
	})
	return router
}

func signedToken(t *testing.T, cfg *config.Config, role models.Role) string {
	t.Helper()
	user := &models.User{BaseModel: models.BaseModel{ID: "user-1"}, Role: role}
	access, _, err := utils.GenerateTokens(user, cfg)
	require.NoError(t, err)
	return access
}

func TestAuthMiddlewareRejectsMissingAndMalformedTokens(t *testing.T) {
	router := testRouter(testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareAcceptsHeaderToken(t *testing.T) {
	cfg := testConfig()
	router := testRouter(cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, cfg, models.RolePatient))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

func TestAuthMiddlewareAcceptsQueryToken(t *testing.T) {
	// Websocket clients cannot set headers on the upgrade request.
	cfg := testConfig()
	router := testRouter(cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami?token="+signedToken(t, cfg, models.RoleDoctor), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoleAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	router := testRouter(cfg, models.RoleAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, cfg, models.RolePatient))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, cfg, models.RoleAdmin))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
