// internal/handlers/product.go
package handlers

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/services"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) productQuery(c *gin.Context) (services.ProductQuery, bool) {
	q := services.ProductQuery{
		PaginationParams: utils.GetPaginationParams(c),
		Locale:           utils.GetLangFromContext(c),
		Variety:          c.Query("variety"),
		Weight:           c.Query("weight"),
	}

	var ok bool
	if q.PriceMin, ok = queryDecimal(c, "price_min"); !ok {
		return q, false
	}
	if q.PriceMax, ok = queryDecimal(c, "price_max"); !ok {
		return q, false
	}
	if q.InStock, ok = queryBool(c, "in_stock"); !ok {
		return q, false
	}
	if raw := c.Query("exclude_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.ExcludeID = &id
		}
	}
	return q, true
}

// GET /products
// Admins see the back office shape. Their "disabled" filter defaults to
// false and "all" lists both.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	q, ok := h.productQuery(c)
	if !ok {
		return
	}

	actor, _ := optionalActor(c)
	if !actor.IsAdmin() {
		products, total, err := h.productService.ListProducts(c.Request.Context(), q)
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, q.PaginationParams))
		return
	}

	switch raw := c.Query("disabled"); raw {
	case "all":
		q.Disabled = nil
	case "":
		hidden := false
		q.Disabled = &hidden
	default:
		if q.Disabled, ok = queryBool(c, "disabled"); !ok {
			return
		}
	}

	products, total, err := h.productService.ListProductsAdmin(c.Request.Context(), q)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, q.PaginationParams))
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "product")
	if !ok {
		return
	}
	lang := utils.GetLangFromContext(c)

	if actor, _ := optionalActor(c); actor.IsAdmin() {
		product, err := h.productService.GetProductAdmin(c.Request.Context(), id, lang)
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		utils.SuccessResponse(c, product)
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id, lang)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// POST /products
// Accepts JSON, or multipart with the product JSON in "data" and files in "images".
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	var files []*multipart.FileHeader
	if isMultipart(c) {
		if !bindMultipartData(c, &req) {
			return
		}
		files = formFiles(c.Request.MultipartForm, "images", "images[]")
	} else if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), actor, &req, files)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, product, i18n.KeyProductCreated)
}

// PATCH /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "product")
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, product, i18n.KeyProductUpdated)
}

// POST /products/stock
func (h *ProductHandler) AddStockEntry(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.AddStockEntryRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.productService.AddStockEntry(c.Request.Context(), actor, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, entry, i18n.KeyStockAdded)
}

// GET /products/:id/stock
func (h *ProductHandler) GetStockLedger(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id", "product")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	ledger, total, err := h.productService.ListStockEntries(c.Request.Context(), id, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	result := utils.CreatePaginationResult(ledger, total, params)
	utils.PaginatedResponse(c, result)
}
