// internal/tests/auth_test.go
package tests

import (
	"net/http"

	"github.com/stretchr/testify/assert"

	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/services"
)

func (suite *APITestSuite) TestUserRegistration() {
	w := suite.do(http.MethodPost, "/api/v1/auth/register", nil, map[string]interface{}{
		"name":     "Daw Mya",
		"email":    "mya@example.com",
		"password": "TestPass123!",
		"locale":   "my",
	})
	suite.requireStatus(w, http.StatusCreated)

	var auth services.AuthResponse
	resp := suite.decode(w, &auth)
	assert.True(suite.T(), resp.Success)
	assert.Equal(suite.T(), "mya@example.com", auth.User.Email)
	assert.Equal(suite.T(), models.UserRoleCustomer, auth.User.Role)
	assert.NotEmpty(suite.T(), auth.AccessToken)

	// Same email again
	w = suite.do(http.MethodPost, "/api/v1/auth/register", nil, map[string]interface{}{
		"name":     "Daw Mya",
		"email":    "MYA@example.com",
		"password": "TestPass123!",
	})
	suite.requireStatus(w, http.StatusConflict)

	w = suite.do(http.MethodPost, "/api/v1/auth/register", nil, map[string]interface{}{
		"name":     "Weak",
		"email":    "weak@example.com",
		"password": "password",
	})
	suite.requireStatus(w, http.StatusBadRequest)
	assert.Equal(suite.T(), "VALIDATION_ERROR", suite.decode(w, nil).Error.Code)
}

func (suite *APITestSuite) TestUserLogin() {
	w := suite.do(http.MethodPost, "/api/v1/auth/login", nil, map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "Rice!2024",
	})
	suite.requireStatus(w, http.StatusOK)

	var auth services.AuthResponse
	resp := suite.decode(w, &auth)
	assert.True(suite.T(), resp.Success)
	assert.NotEmpty(suite.T(), resp.Message)
	assert.Equal(suite.T(), suite.customer.ID, auth.User.ID)

	// The access token opens /auth/me
	req := suite.do(http.MethodGet, "/api/v1/auth/me", nil, nil, withHeader("Authorization", "Bearer "+auth.AccessToken))
	suite.requireStatus(req, http.StatusOK)
	var me models.User
	suite.decode(req, &me)
	assert.Equal(suite.T(), "buyer@example.com", me.Email)

	// The refresh token does not
	req = suite.do(http.MethodGet, "/api/v1/auth/me", nil, nil, withHeader("Authorization", "Bearer "+auth.RefreshToken))
	suite.requireStatus(req, http.StatusUnauthorized)

	w = suite.do(http.MethodPost, "/api/v1/auth/refresh", nil, map[string]string{"refresh_token": auth.RefreshToken})
	suite.requireStatus(w, http.StatusOK)

	w = suite.do(http.MethodPost, "/api/v1/auth/login", nil, map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "wrong-password",
	})
	suite.requireStatus(w, http.StatusUnauthorized)
}

func (suite *APITestSuite) TestProtectedRoutesNeedToken() {
	w := suite.do(http.MethodGet, "/api/v1/orders/my", nil, nil)
	suite.requireStatus(w, http.StatusUnauthorized)

	w = suite.do(http.MethodGet, "/api/v1/admin/dashboard", suite.customer, nil)
	suite.requireStatus(w, http.StatusForbidden)
	assert.Equal(suite.T(), "FORBIDDEN", suite.decode(w, nil).Error.Code)
}

func (suite *APITestSuite) TestUpdateProfileAndPassword() {
	w := suite.do(http.MethodPut, "/api/v1/users/profile", suite.customer, map[string]interface{}{
		"name":   "Ko Aung",
		"locale": "my",
	})
	suite.requireStatus(w, http.StatusOK)
	var user models.User
	suite.decode(w, &user)
	assert.Equal(suite.T(), "Ko Aung", user.Name)
	assert.Equal(suite.T(), "my", user.Locale)

	w = suite.do(http.MethodPut, "/api/v1/users/password", suite.customer, map[string]interface{}{
		"current_password": "nope",
		"new_password":     "NewRice!2025",
	})
	suite.requireStatus(w, http.StatusBadRequest)

	w = suite.do(http.MethodPut, "/api/v1/users/password", suite.customer, map[string]interface{}{
		"current_password": "Rice!2024",
		"new_password":     "NewRice!2025",
	})
	suite.requireStatus(w, http.StatusOK)

	w = suite.do(http.MethodPost, "/api/v1/auth/login", nil, map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "NewRice!2025",
	})
	suite.requireStatus(w, http.StatusOK)
}

func (suite *APITestSuite) TestHealthAndUnknownRoute() {
	w := suite.do(http.MethodGet, "/health", nil, nil)
	suite.requireStatus(w, http.StatusOK)
	assert.Contains(suite.T(), w.Body.String(), "healthy")

	w = suite.do(http.MethodGet, "/api/v1/nothing-here", nil, nil)
	suite.requireStatus(w, http.StatusNotFound)
	assert.Equal(suite.T(), "NOT_FOUND", suite.decode(w, nil).Error.Code)
}
