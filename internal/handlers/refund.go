// internal/handlers/refund.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/services"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type RefundHandler struct {
	refundService *services.RefundService
}

func NewRefundHandler(refundService *services.RefundService) *RefundHandler {
	return &RefundHandler{refundService: refundService}
}

// GET /refunds?status=pending
func (h *RefundHandler) ListRefunds(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	refunds, total, err := h.refundService.List(c.Request.Context(), models.RefundStatus(c.Query("status")), params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(refunds, total, params))
}

// POST /refunds/:id/complete
func (h *RefundHandler) CompleteRefund(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := utils.ParseUUIDParam(c, "id", "refund")
	if !ok {
		return
	}

	refund, err := h.refundService.Complete(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, refund, i18n.KeyRefundCompleted)
}
