// internal/tests/payment_test.go
package tests

import (
	"net/http"

	"github.com/stretchr/testify/assert"

	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/testutil"
)

func (suite *APITestSuite) TestCompanyAccountManagement() {
	w := suite.do(http.MethodPost, "/api/v1/company-accounts/admin", suite.admin, map[string]interface{}{
		"type":           "KBZ_PAY",
		"account_name":   "Golden Rice Trading",
		"account_number": "09799999999",
		"display_order":  1,
	})
	suite.requireStatus(w, http.StatusCreated)
	var account models.CompanyPaymentAccount
	suite.decode(w, &account)
	assert.True(suite.T(), account.IsActive)
	path := "/api/v1/company-accounts/admin/" + account.ID.String()

	w = suite.do(http.MethodPost, "/api/v1/company-accounts/admin", suite.admin, map[string]interface{}{
		"type":           "CB_BANK",
		"account_name":   "Golden Rice Trading",
		"account_number": "1",
	})
	suite.requireStatus(w, http.StatusBadRequest)

	w = suite.do(http.MethodGet, "/api/v1/company-accounts/admin", suite.customer, nil)
	suite.requireStatus(w, http.StatusForbidden)

	// The public list only shows active accounts
	w = suite.do(http.MethodPatch, path+"/status", suite.admin, map[string]interface{}{"is_active": false})
	suite.requireStatus(w, http.StatusOK)

	w = suite.do(http.MethodGet, "/api/v1/company-accounts", nil, nil)
	suite.requireStatus(w, http.StatusOK)
	var active []models.CompanyPaymentAccount
	suite.decode(w, &active)
	assert.Empty(suite.T(), active)

	w = suite.do(http.MethodGet, "/api/v1/company-accounts/admin", suite.admin, nil)
	suite.requireStatus(w, http.StatusOK)
	var all []models.CompanyPaymentAccount
	suite.decode(w, &all)
	assert.Len(suite.T(), all, 1)

	w = suite.do(http.MethodPut, path, suite.admin, map[string]interface{}{
		"account_name": "Golden Rice Co.",
		"is_active":    true,
	})
	suite.requireStatus(w, http.StatusOK)
	suite.decode(w, &account)
	assert.Equal(suite.T(), "Golden Rice Co.", account.AccountName)
	assert.True(suite.T(), account.IsActive)

	w = suite.do(http.MethodDelete, path, suite.admin, nil)
	suite.requireStatus(w, http.StatusOK)

	w = suite.do(http.MethodGet, path, suite.admin, nil)
	suite.requireStatus(w, http.StatusNotFound)
}

func (suite *APITestSuite) TestCompanyAccountInUseCannotBeDeleted() {
	product := suite.store.AddProduct(suite.T(), "Paw San", 5)
	account := suite.store.AddCompanyAccount(suite.T(), models.AccountTypeKBZBank, true)

	w := suite.do(http.MethodPost, "/api/v1/online-transfer-orders", suite.customer, suite.orderBody(product, 1, models.PaymentTypeOnlineTransfer, map[string]interface{}{
		"company_payment_account_id": account.ID,
		"transaction_id":             "KBZ-42",
	}))
	suite.requireStatus(w, http.StatusCreated)

	w = suite.do(http.MethodDelete, "/api/v1/company-accounts/admin/"+account.ID.String(), suite.admin, nil)
	suite.requireStatus(w, http.StatusConflict)
	assert.Equal(suite.T(), "CONFLICT", suite.decode(w, nil).Error.Code)

	// Inactive accounts are refused at checkout
	inactive := suite.store.AddCompanyAccount(suite.T(), models.AccountTypeAYAPay, false)
	w = suite.do(http.MethodPost, "/api/v1/online-transfer-orders", suite.customer, suite.orderBody(product, 1, models.PaymentTypeOnlineTransfer, map[string]interface{}{
		"company_payment_account_id": inactive.ID,
	}))
	suite.requireStatus(w, http.StatusBadRequest)
}

func (suite *APITestSuite) TestPaymentMethods() {
	w := suite.do(http.MethodPost, "/api/v1/payment-methods", suite.customer, map[string]interface{}{
		"type":           "AYA_PAY",
		"account_name":   "Ko Aung",
		"account_number": "09420000001",
	})
	suite.requireStatus(w, http.StatusCreated)
	var method models.PaymentMethod
	suite.decode(w, &method)
	assert.Equal(suite.T(), suite.customer.ID, method.UserID)
	path := "/api/v1/payment-methods/" + method.ID.String()

	other := suite.store.AddUser(suite.T(), "other@example.com", models.UserRoleCustomer)
	foreign := suite.store.AddPaymentMethod(suite.T(), other.ID, models.AccountTypeKBZPay)

	w = suite.do(http.MethodGet, "/api/v1/payment-methods", suite.customer, nil)
	suite.requireStatus(w, http.StatusOK)
	var mine []models.PaymentMethod
	suite.decode(w, &mine)
	suite.Require().Len(mine, 1)
	assert.Equal(suite.T(), method.ID, mine[0].ID)

	w = suite.do(http.MethodPut, "/api/v1/payment-methods/"+foreign.ID.String(), suite.customer, map[string]interface{}{
		"account_name": "Taken",
	})
	suite.requireStatus(w, http.StatusNotFound)

	w = suite.do(http.MethodPut, path, suite.customer, map[string]interface{}{"is_active": false})
	suite.requireStatus(w, http.StatusOK)
	suite.decode(w, &method)
	assert.False(suite.T(), method.IsActive)

	// An inactive method cannot pay for an order
	product := suite.store.AddProduct(suite.T(), "Emata", 5)
	w = suite.do(http.MethodPost, "/api/v1/orders", suite.customer, suite.orderBody(product, 1, models.PaymentTypeCOD, map[string]interface{}{
		"payment_method_id": method.ID,
	}))
	suite.requireStatus(w, http.StatusBadRequest)

	w = suite.do(http.MethodDelete, path, suite.customer, nil)
	suite.requireStatus(w, http.StatusOK)

	w = suite.do(http.MethodDelete, "/api/v1/payment-methods/"+foreign.ID.String(), suite.customer, nil)
	suite.requireStatus(w, http.StatusNotFound)
}

func (suite *APITestSuite) TestUploads() {
	w := suite.multipart("/api/v1/uploads/image", suite.customer, nil,
		formFile{field: "image", filename: "rice.png", content: pngBytes(suite.T(), 300, 200)},
	)
	suite.requireStatus(w, http.StatusCreated)
	var result struct {
		URL          string `json:"url"`
		ThumbnailURL string `json:"thumbnail_url"`
		Filename     string `json:"filename"`
		ContentType  string `json:"content_type"`
	}
	suite.decode(w, &result)
	assert.Equal(suite.T(), "image/png", result.ContentType)
	assert.True(suite.T(), containsAll(result.ThumbnailURL, "/uploads/files/thumbnails/"))

	w = suite.multipart("/api/v1/uploads/image", suite.customer, nil,
		formFile{field: "image", filename: "notes.txt", content: []byte("just some text")},
	)
	suite.requireStatus(w, http.StatusBadRequest)

	w = suite.multipart("/api/v1/uploads/images", suite.customer, nil)
	suite.requireStatus(w, http.StatusBadRequest)

	w = suite.do(http.MethodDelete, "/api/v1/uploads/"+result.Filename, suite.customer, nil)
	suite.requireStatus(w, http.StatusForbidden)

	w = suite.do(http.MethodDelete, "/api/v1/uploads/"+result.Filename, suite.admin, nil)
	suite.requireStatus(w, http.StatusOK)

	w = suite.do(http.MethodGet, result.ThumbnailURL, nil, nil)
	suite.requireStatus(w, http.StatusNotFound)

	w = suite.do(http.MethodDelete, "/api/v1/uploads/secrets.txt", suite.admin, nil)
	suite.requireStatus(w, http.StatusNotFound)
}

func (suite *APITestSuite) TestAdminDashboardAndAuditLogs() {
	suite.store.AddProduct(suite.T(), "Shwe Bo", 2, testutil.Price("30000"))

	w := suite.do(http.MethodPost, "/api/v1/company-accounts/admin", suite.admin, map[string]interface{}{
		"type":           "AYA_BANK",
		"account_name":   "Golden Rice Trading",
		"account_number": "200300400",
	})
	suite.requireStatus(w, http.StatusCreated)

	logs := suite.store.AuditLogs()
	suite.Require().Len(logs, 1)
	assert.Equal(suite.T(), "POST /api/v1/company-accounts/admin", logs[0].Action)
	assert.Equal(suite.T(), "company_account", logs[0].ResourceType)
	assert.Equal(suite.T(), http.StatusCreated, logs[0].StatusCode)

	// Customer writes are not audited
	w = suite.do(http.MethodPost, "/api/v1/payment-methods", suite.customer, map[string]interface{}{
		"type":           "KBZ_PAY",
		"account_name":   "Buyer",
		"account_number": "0911111111",
	})
	suite.requireStatus(w, http.StatusCreated)
	assert.Len(suite.T(), suite.store.AuditLogs(), 1)

	w = suite.do(http.MethodGet, "/api/v1/admin/dashboard", suite.admin, nil)
	suite.requireStatus(w, http.StatusOK)
	var body struct {
		Stats struct {
			TotalCustomers  int64             `json:"total_customers"`
			LowStock        []lowStockRow     `json:"low_stock"`
			RecentAuditLogs []models.AuditLog `json:"recent_audit_logs"`
		} `json:"stats"`
	}
	suite.decode(w, &body)
	assert.Equal(suite.T(), int64(1), body.Stats.TotalCustomers)
	suite.Require().Len(body.Stats.LowStock, 1)
	assert.Equal(suite.T(), "Shwe Bo", body.Stats.LowStock[0].Name)
	assert.Len(suite.T(), body.Stats.RecentAuditLogs, 1)

	w = suite.do(http.MethodGet, "/api/v1/admin/audit-logs?resource_type=company_account", suite.admin, nil)
	suite.requireStatus(w, http.StatusOK)
	var listed []models.AuditLog
	suite.decode(w, &listed)
	assert.Len(suite.T(), listed, 1)

	w = suite.do(http.MethodGet, "/api/v1/admin/audit-logs?user_id=nobody", suite.admin, nil)
	suite.requireStatus(w, http.StatusBadRequest)
}

type lowStockRow struct {
	Name  string `json:"name"`
	Stock int64  `json:"stock"`
}
