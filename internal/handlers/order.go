// internal/handlers/order.go
package handlers

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/services"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func orderQuery(c *gin.Context) (services.OrderQuery, bool) {
	q := services.OrderQuery{
		PaginationParams: utils.GetPaginationParams(c),
		Status:           models.OrderStatus(c.Query("status")),
		PaymentType:      models.PaymentType(c.Query("payment_type")),
		PaymentStatus:    models.PaymentStatus(c.Query("payment_status")),
	}
	var ok bool
	if q.From, ok = queryTime(c, "from", false); !ok {
		return q, false
	}
	if q.To, ok = queryTime(c, "to", true); !ok {
		return q, false
	}
	return q, true
}

// POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), actor, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, order, i18n.KeyOrderCreated)
}

// GET /orders (admin)
func (h *OrderHandler) ListOrders(c *gin.Context) {
	q, ok := orderQuery(c)
	if !ok {
		return
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), q)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, q.PaginationParams))
}

// GET /orders/my
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	q, ok := orderQuery(c)
	if !ok {
		return
	}

	orders, total, err := h.orderService.ListMyOrders(c.Request.Context(), actor, q)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, q.PaginationParams))
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := utils.ParseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// GET /orders/:id/history
func (h *OrderHandler) GetHistory(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := utils.ParseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	history, err := h.orderService.GetHistory(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, history)
}

// PATCH /orders/:id/status (admin)
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := utils.ParseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	var req services.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, order, i18n.KeyOrderStatusUpdated, order.Status)
}

// reasonRequest tolerates an empty body.
func reasonRequest(c *gin.Context) (*services.OrderReasonRequest, bool) {
	var req services.OrderReasonRequest
	if c.Request.ContentLength == 0 {
		return &req, true
	}
	if !bindJSON(c, &req) {
		return nil, false
	}
	return &req, true
}

// POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := utils.ParseUUIDParam(c, "id", "order")
	if !ok {
		return
	}
	req, ok := reasonRequest(c)
	if !ok {
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), actor, id, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, order, i18n.KeyOrderCanceled)
}

// POST /orders/:id/return
func (h *OrderHandler) ReturnOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := utils.ParseUUIDParam(c, "id", "order")
	if !ok {
		return
	}
	req, ok := reasonRequest(c)
	if !ok {
		return
	}

	order, err := h.orderService.ReturnOrder(c.Request.Context(), actor, id, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, order, i18n.KeyOrderReturned)
}

// POST /online-transfer-orders
// Accepts JSON, or multipart with the order JSON in "data" and the
// screenshot in "payment_screenshot".
func (h *OrderHandler) CreateOnlineTransferOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.CreateOrderRequest
	var screenshot *multipart.FileHeader
	if isMultipart(c) {
		if !bindMultipartData(c, &req) {
			return
		}
		screenshot = firstFile(c, "payment_screenshot", "screenshot", "file")
	} else if !bindJSON(c, &req) {
		return
	}
	req.PaymentType = models.PaymentTypeOnlineTransfer

	order, err := h.orderService.CreateOnlineTransferOrder(c.Request.Context(), actor, &req, screenshot)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, order, i18n.KeyOrderCreated)
}

// GET /online-transfer-orders/:id/payment-info
func (h *OrderHandler) GetPaymentInfo(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := utils.ParseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	info, err := h.orderService.GetPaymentInfo(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, info)
}

// POST /online-transfer-orders/:id/payment-proof
// Accepts JSON, or multipart form fields plus a "payment_screenshot" file.
// A screenshot that is already uploaded goes in "payment_screenshot_url".
func (h *OrderHandler) AttachPaymentProof(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := utils.ParseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	req, screenshot, ok := bindPaymentProof(c)
	if !ok {
		return
	}

	order, err := h.orderService.AttachPaymentProof(c.Request.Context(), actor, id, req, screenshot)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, order, i18n.KeyPaymentProofAttached)
}

// PATCH /online-transfer-orders/:id/payment-confirmation (admin)
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := utils.ParseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	var req services.ConfirmPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.ConfirmPayment(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	key := i18n.KeyPaymentConfirmed
	if req.Decision == services.PaymentDecisionReject {
		key = i18n.KeyPaymentRejected
	}
	utils.MessageResponse(c, order, key)
}
