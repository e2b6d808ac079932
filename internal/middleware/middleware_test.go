// internal/middleware/middleware_test.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/goldenrice/rice-backend/internal/config"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type fakeAuditRecorder struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (f *fakeAuditRecorder) RecordAudit(_ context.Context, log *models.AuditLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, *log)
}

type MiddlewareTestSuite struct {
	suite.Suite
	router   *gin.Engine
	audits   *fakeAuditRecorder
	adminID  uuid.UUID
	userID   uuid.UUID
	admin    string
	customer string
}

func (suite *MiddlewareTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("middleware-test-secret")

	suite.adminID = uuid.New()
	suite.userID = uuid.New()
	var err error
	suite.admin, err = utils.GenerateJWT(suite.adminID, "admin@example.com", string(models.UserRoleAdmin), 1)
	suite.Require().NoError(err)
	suite.customer, err = utils.GenerateJWT(suite.userID, "buyer@example.com", string(models.UserRoleCustomer), 1)
	suite.Require().NoError(err)

	suite.audits = &fakeAuditRecorder{}
	suite.router = gin.New()
	suite.router.Use(RequestID(), I18nMiddleware())

	echo := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user_id": c.GetString("user_id"),
			"role":    c.GetString("user_role"),
			"lang":    c.GetString("lang"),
		})
	}
	suite.router.GET("/public", OptionalAuth(), echo)

	api := suite.router.Group("/api/v1")
	api.Use(AuthRequired())
	api.GET("/me", echo)

	admin := api.Group("/admin")
	admin.Use(AdminRequired(), AuditLogMiddleware(suite.audits))
	admin.GET("/dashboard", echo)
	admin.PATCH("/orders/:id/status", echo)
	admin.POST("/company-accounts", echo)
}

func TestMiddlewareTestSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareTestSuite))
}

func (suite *MiddlewareTestSuite) do(method, path, token, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func (suite *MiddlewareTestSuite) TestAuthRequired() {
	w, response := suite.do(http.MethodGet, "/api/v1/me", "", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.False(suite.T(), response["success"].(bool))

	w, _ = suite.do(http.MethodGet, "/api/v1/me", "", "", map[string]string{"Authorization": "Token abc"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w, _ = suite.do(http.MethodGet, "/api/v1/me", "not-a-jwt", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	refresh, err := utils.GenerateRefreshToken(suite.userID, 1)
	suite.Require().NoError(err)
	w, _ = suite.do(http.MethodGet, "/api/v1/me", refresh, "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code, "refresh tokens are not access tokens")

	w, response = suite.do(http.MethodGet, "/api/v1/me", suite.customer, "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), suite.userID.String(), response["user_id"])
	assert.Equal(suite.T(), "customer", response["role"])
}

func (suite *MiddlewareTestSuite) TestAdminRequired() {
	w, _ := suite.do(http.MethodGet, "/api/v1/admin/dashboard", suite.customer, "", nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w, _ = suite.do(http.MethodGet, "/api/v1/admin/dashboard", suite.admin, "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *MiddlewareTestSuite) TestOptionalAuth() {
	_, response := suite.do(http.MethodGet, "/public", "", "", nil)
	assert.Equal(suite.T(), "", response["user_id"])

	_, response = suite.do(http.MethodGet, "/public", "garbage", "", nil)
	assert.Equal(suite.T(), "", response["user_id"])

	_, response = suite.do(http.MethodGet, "/public", suite.customer, "", nil)
	assert.Equal(suite.T(), suite.userID.String(), response["user_id"])
}

func (suite *MiddlewareTestSuite) TestLanguageSelection() {
	_, response := suite.do(http.MethodGet, "/public", "", "", map[string]string{"Accept-Language": "my-MM,my;q=0.9,en;q=0.5"})
	assert.Equal(suite.T(), "my", response["lang"])

	_, response = suite.do(http.MethodGet, "/public?locale=en", "", "", map[string]string{"Accept-Language": "my"})
	assert.Equal(suite.T(), "en", response["lang"])

	w, _ := suite.do(http.MethodGet, "/api/v1/me", "", "", map[string]string{"Accept-Language": "my"})
	assert.NotContains(suite.T(), w.Body.String(), "Authentication required")
}

func (suite *MiddlewareTestSuite) TestRequestID() {
	w, _ := suite.do(http.MethodGet, "/public", "", "", nil)
	assert.Len(suite.T(), w.Header().Get(RequestIDHeader), 16)

	w, _ = suite.do(http.MethodGet, "/public", "", "", map[string]string{RequestIDHeader: "edge-abc"})
	assert.Equal(suite.T(), "edge-abc", w.Header().Get(RequestIDHeader))
}

func (suite *MiddlewareTestSuite) TestAuditLogsMutatingAdminRequests() {
	orderID := uuid.New()
	suite.do(http.MethodGet, "/api/v1/admin/dashboard", suite.admin, "", nil)
	suite.do(http.MethodPatch, "/api/v1/admin/orders/"+orderID.String()+"/status", suite.admin,
		`{"status":"SHIPPED","note":"courier picked up"}`, map[string]string{RequestIDHeader: "req-1"})
	suite.do(http.MethodPost, "/api/v1/admin/company-accounts", suite.admin,
		`{"account_name":"Golden Rice","account_number":"0012345678901"}`, nil)

	suite.Require().Len(suite.audits.logs, 2)
	first := suite.audits.logs[0]
	assert.Equal(suite.T(), "PATCH /api/v1/admin/orders/:id/status", first.Action)
	assert.Equal(suite.T(), "order", first.ResourceType)
	assert.Equal(suite.T(), orderID, *first.ResourceID)
	assert.Equal(suite.T(), suite.adminID, *first.UserID)
	assert.Equal(suite.T(), http.StatusOK, first.StatusCode)
	assert.Equal(suite.T(), "req-1", first.RequestID)
	assert.Equal(suite.T(), "SHIPPED", first.NewValues["status"])

	second := suite.audits.logs[1]
	assert.Equal(suite.T(), "company_account", second.ResourceType)
	assert.Nil(suite.T(), second.ResourceID)
	assert.Equal(suite.T(), "[redacted]", second.NewValues["account_number"])
	assert.Equal(suite.T(), "Golden Rice", second.NewValues["account_name"])
}

func (suite *MiddlewareTestSuite) TestAuditSkipsRejectedCustomers() {
	suite.do(http.MethodPost, "/api/v1/admin/company-accounts", suite.customer, `{}`, nil)
	assert.Empty(suite.T(), suite.audits.logs)
}

func TestRateLimiterPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limits := NewRateLimits(config.RateLimitConfig{Enabled: true, CheckoutPerMin: 2})

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set("user_id", uid)
		}
	})
	router.POST("/orders", limits.Checkout(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	post := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, post("a").Code)
	assert.Equal(t, http.StatusCreated, post("a").Code)
	limited := post("a")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "30", limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), rateLimitedCode)

	// Another client has its own bucket
	assert.Equal(t, http.StatusCreated, post("b").Code)
}

func TestRateLimitsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limits := NewRateLimits(config.RateLimitConfig{Enabled: false, AuthPerMin: 1})

	router := gin.New()
	router.POST("/login", limits.Auth(), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{"https://shop.example.com"}))
	router.POST("/api/v1/orders", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestExtractResourceType(t *testing.T) {
	assert.Equal(t, "product", extractResourceType("/api/v1/products/:id"))
	assert.Equal(t, "company_account", extractResourceType("/api/v1/company-accounts/admin/:id/status"))
	assert.Equal(t, "online_transfer_order", extractResourceType("/api/v1/online-transfer-orders/:id/payment-confirmation"))
	assert.Equal(t, "upload", extractResourceType("/api/v1/uploads/:filename"))
	assert.Equal(t, "unknown", extractResourceType("/"))
}
