// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/services"
	"github.com/goldenrice/rice-backend/internal/utils"
)

// PaymentHandler serves the company transfer accounts and the customers'
// saved payment methods.
type PaymentHandler struct {
	accountService *services.CompanyAccountService
	methodService  *services.PaymentMethodService
}

func NewPaymentHandler(accountService *services.CompanyAccountService, methodService *services.PaymentMethodService) *PaymentHandler {
	return &PaymentHandler{
		accountService: accountService,
		methodService:  methodService,
	}
}

// GET /company-accounts
func (h *PaymentHandler) ListActiveAccounts(c *gin.Context) {
	accounts, err := h.accountService.ListActive(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, accounts)
}

// GET /company-accounts/admin
func (h *PaymentHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accountService.List(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, accounts)
}

// GET /company-accounts/admin/:id
func (h *PaymentHandler) GetAccount(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "company_account")
	if !ok {
		return
	}

	account, err := h.accountService.Get(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, account)
}

// POST /company-accounts/admin
func (h *PaymentHandler) CreateAccount(c *gin.Context) {
	var req services.CompanyAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accountService.Create(c.Request.Context(), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, account, i18n.KeyCompanyAccountCreated)
}

// PUT /company-accounts/admin/:id
func (h *PaymentHandler) UpdateAccount(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "company_account")
	if !ok {
		return
	}

	var req services.UpdateCompanyAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accountService.Update(c.Request.Context(), id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, account, i18n.KeyCompanyAccountUpdated)
}

// PATCH /company-accounts/admin/:id/status
func (h *PaymentHandler) SetAccountStatus(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "company_account")
	if !ok {
		return
	}

	var req services.AccountStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accountService.SetStatus(c.Request.Context(), id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, account, i18n.KeyCompanyAccountUpdated)
}

// DELETE /company-accounts/admin/:id
func (h *PaymentHandler) DeleteAccount(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "company_account")
	if !ok {
		return
	}

	if err := h.accountService.Delete(c.Request.Context(), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, nil, i18n.KeyCompanyAccountDeleted)
}

// GET /payment-methods
func (h *PaymentHandler) ListMethods(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	methods, err := h.methodService.List(c.Request.Context(), actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, methods)
}

// POST /payment-methods
func (h *PaymentHandler) CreateMethod(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.PaymentMethodRequest
	if !bindJSON(c, &req) {
		return
	}

	method, err := h.methodService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, method, i18n.KeyPaymentMethodCreated)
}

// PUT /payment-methods/:id
func (h *PaymentHandler) UpdateMethod(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := utils.ParseUUIDParam(c, "id", "payment_method")
	if !ok {
		return
	}

	var req services.UpdatePaymentMethodRequest
	if !bindJSON(c, &req) {
		return
	}

	method, err := h.methodService.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, method, i18n.KeyPaymentMethodUpdated)
}

// DELETE /payment-methods/:id
func (h *PaymentHandler) DeleteMethod(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := utils.ParseUUIDParam(c, "id", "payment_method")
	if !ok {
		return
	}

	if err := h.methodService.Delete(c.Request.Context(), actor, id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, nil, i18n.KeyPaymentMethodDeleted)
}
