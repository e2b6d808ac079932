// internal/tests/order_test.go
package tests

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/services"
	"github.com/goldenrice/rice-backend/internal/testutil"
)

func (suite *APITestSuite) orderBody(product *models.Product, quantity int64, paymentType models.PaymentType, extra map[string]interface{}) map[string]interface{} {
	body := map[string]interface{}{
		"items":            []map[string]interface{}{{"product_id": product.ID, "quantity": quantity}},
		"shipping_address": testutil.Address(),
		"payment_type":     paymentType,
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func (suite *APITestSuite) TestCODOrderFlow() {
	product := suite.store.AddProduct(suite.T(), "Paw San", 10, testutil.Price("45000"))
	key := withHeader("Idempotency-Key", "checkout-1")

	w := suite.do(http.MethodPost, "/api/v1/orders", suite.customer, suite.orderBody(product, 3, models.PaymentTypeCOD, nil), key)
	suite.requireStatus(w, http.StatusCreated)
	var order models.Order
	suite.decode(w, &order)
	assert.Equal(suite.T(), models.OrderStatusPending, order.Status)
	assert.Equal(suite.T(), models.PaymentStatusCODPending, order.PaymentStatus)
	assert.True(suite.T(), order.Total.Equal(decimal.NewFromInt(135000)))

	// A retried checkout replays the first response
	w = suite.do(http.MethodPost, "/api/v1/orders", suite.customer, suite.orderBody(product, 3, models.PaymentTypeCOD, nil), key)
	suite.requireStatus(w, http.StatusCreated)
	assert.Equal(suite.T(), "true", w.Header().Get("X-Idempotent-Replay"))
	var replayed models.Order
	suite.decode(w, &replayed)
	assert.Equal(suite.T(), order.ID, replayed.ID)
	assert.Equal(suite.T(), 1, suite.store.OrderCount())

	// Stock is untouched until processing
	assert.Equal(suite.T(), int64(10), suite.store.StockLevel(product.ID))

	id := order.ID.String()
	w = suite.do(http.MethodPatch, "/api/v1/orders/"+id+"/status", suite.admin, map[string]string{"status": "PROCESSING"})
	suite.requireStatus(w, http.StatusOK)
	assert.Equal(suite.T(), int64(7), suite.store.StockLevel(product.ID))

	// PROCESSING cannot jump to DELIVERED
	w = suite.do(http.MethodPatch, "/api/v1/orders/"+id+"/status", suite.admin, map[string]string{"status": "DELIVERED"})
	suite.requireStatus(w, http.StatusConflict)
	assert.Equal(suite.T(), "INVALID_TRANSITION", suite.decode(w, nil).Error.Code)

	// Customers do not change status directly
	w = suite.do(http.MethodPatch, "/api/v1/orders/"+id+"/status", suite.customer, map[string]string{"status": "SHIPPED"})
	suite.requireStatus(w, http.StatusForbidden)

	w = suite.do(http.MethodPost, "/api/v1/orders/"+id+"/cancel", suite.customer, map[string]string{"reason": "changed my mind"})
	suite.requireStatus(w, http.StatusOK)
	suite.decode(w, &order)
	assert.Equal(suite.T(), models.OrderStatusCanceled, order.Status)
	assert.Equal(suite.T(), int64(10), suite.store.StockLevel(product.ID))
	assert.Empty(suite.T(), suite.store.Refunds(order.ID))

	w = suite.do(http.MethodGet, "/api/v1/orders/"+id+"/history", suite.customer, nil)
	suite.requireStatus(w, http.StatusOK)
	var history []models.OrderStatusHistory
	suite.decode(w, &history)
	assert.Len(suite.T(), history, 3)
}

func (suite *APITestSuite) TestOrderVisibility() {
	product := suite.store.AddProduct(suite.T(), "Shwe Bo", 10)
	other := suite.store.AddUser(suite.T(), "other@example.com", models.UserRoleCustomer)

	w := suite.do(http.MethodPost, "/api/v1/orders", suite.customer, suite.orderBody(product, 1, models.PaymentTypeCOD, nil))
	suite.requireStatus(w, http.StatusCreated)
	var order models.Order
	suite.decode(w, &order)

	w = suite.do(http.MethodGet, "/api/v1/orders/"+order.ID.String(), other, nil)
	suite.requireStatus(w, http.StatusNotFound)

	w = suite.do(http.MethodGet, "/api/v1/orders/"+order.ID.String(), suite.admin, nil)
	suite.requireStatus(w, http.StatusOK)

	w = suite.do(http.MethodGet, "/api/v1/orders/my", other, nil)
	suite.requireStatus(w, http.StatusOK)
	var mine []models.Order
	suite.decode(w, &mine)
	assert.Empty(suite.T(), mine)

	w = suite.do(http.MethodGet, "/api/v1/orders?status=PENDING", suite.admin, nil)
	suite.requireStatus(w, http.StatusOK)
	var all []models.Order
	suite.decode(w, &all)
	assert.Len(suite.T(), all, 1)

	w = suite.do(http.MethodGet, "/api/v1/orders", suite.customer, nil)
	suite.requireStatus(w, http.StatusForbidden)

	w = suite.do(http.MethodGet, "/api/v1/orders?from=yesterday", suite.admin, nil)
	suite.requireStatus(w, http.StatusBadRequest)
}

func (suite *APITestSuite) TestOrderRejectsUnavailableProduct() {
	product := suite.store.AddProduct(suite.T(), "Emata", 1)

	w := suite.do(http.MethodPost, "/api/v1/orders", suite.customer, suite.orderBody(product, 2, models.PaymentTypeCOD, nil))
	suite.requireStatus(w, http.StatusBadRequest)
	assert.Equal(suite.T(), "PRODUCT_UNAVAILABLE", suite.decode(w, nil).Error.Code)
	assert.Equal(suite.T(), 0, suite.store.OrderCount())
}

func (suite *APITestSuite) TestOnlineTransferFlow() {
	product := suite.store.AddProduct(suite.T(), "Paw San", 10, testutil.Price("40000"))
	account := suite.store.AddCompanyAccount(suite.T(), models.AccountTypeKBZPay, true)

	data := jsonString(suite.orderBody(product, 2, models.PaymentTypeOnlineTransfer, map[string]interface{}{
		"company_payment_account_id": account.ID,
		"transaction_id":             "KBZ-0001",
	}))
	w := suite.multipart("/api/v1/online-transfer-orders", suite.customer, map[string]string{"data": data},
		formFile{field: "payment_screenshot", filename: "slip.png", content: pngBytes(suite.T(), 40, 80)},
	)
	suite.requireStatus(w, http.StatusCreated)
	var order models.Order
	suite.decode(w, &order)
	assert.Equal(suite.T(), models.PaymentTypeOnlineTransfer, order.PaymentType)
	assert.Equal(suite.T(), models.PaymentStatusProofSubmitted, order.PaymentStatus)
	assert.True(suite.T(), containsAll(order.PaymentScreenshot, "/uploads/files/"))
	id := order.ID.String()

	// Processing waits for the payment review
	w = suite.do(http.MethodPatch, "/api/v1/orders/"+id+"/status", suite.admin, map[string]string{"status": "PROCESSING"})
	suite.requireStatus(w, http.StatusConflict)
	assert.Equal(suite.T(), "PAYMENT_NOT_VERIFIED", suite.decode(w, nil).Error.Code)

	w = suite.do(http.MethodPatch, "/api/v1/online-transfer-orders/"+id+"/payment-confirmation", suite.customer, map[string]string{"decision": "accept"})
	suite.requireStatus(w, http.StatusForbidden)

	w = suite.do(http.MethodPatch, "/api/v1/online-transfer-orders/"+id+"/payment-confirmation", suite.admin, map[string]string{"decision": "accept"})
	suite.requireStatus(w, http.StatusOK)

	w = suite.do(http.MethodGet, "/api/v1/online-transfer-orders/"+id+"/payment-info", suite.customer, nil)
	suite.requireStatus(w, http.StatusOK)
	var info services.PaymentInfo
	suite.decode(w, &info)
	assert.Equal(suite.T(), models.PaymentStatusVerified, info.PaymentStatus)
	assert.False(suite.T(), info.CanSubmitProof)
	suite.Require().NotNil(info.CompanyAccount)
	assert.Equal(suite.T(), account.ID, info.CompanyAccount.ID)

	w = suite.do(http.MethodPatch, "/api/v1/orders/"+id+"/status", suite.admin, map[string]string{"status": "PROCESSING"})
	suite.requireStatus(w, http.StatusOK)
	assert.Equal(suite.T(), int64(8), suite.store.StockLevel(product.ID))

	// Canceling a paid order owes the customer a refund
	w = suite.do(http.MethodPost, "/api/v1/orders/"+id+"/cancel", suite.customer, nil)
	suite.requireStatus(w, http.StatusOK)
	suite.Require().Len(suite.store.Refunds(order.ID), 1)

	w = suite.do(http.MethodGet, "/api/v1/refunds?status=pending", suite.admin, nil)
	suite.requireStatus(w, http.StatusOK)
	var refunds []models.Refund
	suite.decode(w, &refunds)
	suite.Require().Len(refunds, 1)
	assert.True(suite.T(), refunds[0].Amount.Equal(decimal.NewFromInt(80000)))

	refundPath := "/api/v1/refunds/" + refunds[0].ID.String() + "/complete"
	w = suite.do(http.MethodPost, refundPath, suite.admin, nil)
	suite.requireStatus(w, http.StatusOK)
	w = suite.do(http.MethodPost, refundPath, suite.admin, nil)
	suite.requireStatus(w, http.StatusConflict)

	w = suite.do(http.MethodGet, "/api/v1/refunds", suite.customer, nil)
	suite.requireStatus(w, http.StatusForbidden)
}

func (suite *APITestSuite) TestPaymentProofAfterCheckout() {
	product := suite.store.AddProduct(suite.T(), "Nga Kywe", 10)
	account := suite.store.AddCompanyAccount(suite.T(), models.AccountTypeAYABank, true)

	w := suite.do(http.MethodPost, "/api/v1/online-transfer-orders", suite.customer, suite.orderBody(product, 1, models.PaymentTypeOnlineTransfer, map[string]interface{}{
		"company_payment_account_id": account.ID,
	}))
	suite.requireStatus(w, http.StatusCreated)
	var order models.Order
	suite.decode(w, &order)
	assert.Equal(suite.T(), models.PaymentStatusAwaitingProof, order.PaymentStatus)
	path := "/api/v1/online-transfer-orders/" + order.ID.String() + "/payment-proof"

	// Accepting without proof is refused
	w = suite.do(http.MethodPatch, "/api/v1/online-transfer-orders/"+order.ID.String()+"/payment-confirmation", suite.admin, map[string]string{"decision": "accept"})
	suite.requireStatus(w, http.StatusBadRequest)

	w = suite.do(http.MethodPost, path, suite.customer, map[string]string{})
	suite.requireStatus(w, http.StatusBadRequest)

	other := suite.store.AddUser(suite.T(), "other@example.com", models.UserRoleCustomer)
	w = suite.do(http.MethodPost, path, other, map[string]string{"transaction_id": "AYA-77"})
	suite.requireStatus(w, http.StatusNotFound)

	w = suite.multipart(path, suite.customer, map[string]string{"transaction_id": "AYA-77"},
		formFile{field: "payment_screenshot", filename: "slip.png", content: pngBytes(suite.T(), 20, 20)},
	)
	suite.requireStatus(w, http.StatusOK)
	suite.decode(w, &order)
	assert.Equal(suite.T(), models.PaymentStatusProofSubmitted, order.PaymentStatus)
	assert.Equal(suite.T(), "AYA-77", order.TransactionID)
	assert.NotEmpty(suite.T(), order.PaymentScreenshot)

	// A rejection with cancel_order closes the order
	w = suite.do(http.MethodPatch, "/api/v1/online-transfer-orders/"+order.ID.String()+"/payment-confirmation", suite.admin, map[string]interface{}{
		"decision":     "reject",
		"note":         "amount does not match",
		"cancel_order": true,
	})
	suite.requireStatus(w, http.StatusOK)
	suite.decode(w, &order)
	assert.Equal(suite.T(), models.OrderStatusCanceled, order.Status)
	assert.Equal(suite.T(), models.PaymentStatusRejected, order.PaymentStatus)

	w = suite.do(http.MethodPost, path, suite.customer, map[string]string{"transaction_id": "AYA-78"})
	suite.requireStatus(w, http.StatusBadRequest)
	assert.Equal(suite.T(), "ORDER_NOT_EDITABLE", suite.decode(w, nil).Error.Code)
}
