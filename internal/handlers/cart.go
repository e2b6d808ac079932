// internal/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/goldenrice/rice-backend/internal/services"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// POST /cart/quote
func (h *CartHandler) Quote(c *gin.Context) {
	var req services.CartQuoteRequest
	if !bindJSON(c, &req) {
		return
	}

	quote, err := h.cartService.Quote(c.Request.Context(), &req, utils.GetLangFromContext(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, quote)
}
