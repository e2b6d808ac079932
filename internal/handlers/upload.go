// internal/handlers/upload.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/services"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type UploadHandler struct {
	storageService *services.StorageService
}

func NewUploadHandler(storageService *services.StorageService) *UploadHandler {
	return &UploadHandler{storageService: storageService}
}

func (h *UploadHandler) parseForm(c *gin.Context) bool {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyUploadMissing), err.Error())
		return false
	}
	return true
}

func (h *UploadHandler) single(c *gin.Context, kind services.UploadKind, fields ...string) {
	if !h.parseForm(c) {
		return
	}

	result, err := h.storageService.Upload(c.Request.Context(), firstFile(c, fields...), kind)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, result, i18n.KeyUploadSuccess)
}

// POST /uploads?kind=document
// The kind may also come as a form field and defaults to document.
func (h *UploadHandler) UploadFile(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	kind := services.UploadKind(c.Query("kind"))
	if kind == "" {
		kind = services.UploadKind(c.Request.FormValue("kind"))
	}
	if kind == "" {
		kind = services.UploadDocument
	}

	h.single(c, kind, "file", "image", "screenshot")
}

// POST /uploads/image
func (h *UploadHandler) UploadImage(c *gin.Context) {
	h.single(c, services.UploadProductImage, "image", "file")
}

// POST /uploads/images
func (h *UploadHandler) UploadImages(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	files := formFiles(c.Request.MultipartForm, "images", "images[]", "files")
	if len(files) == 0 {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyUploadMissing), nil)
		return
	}

	results, err := h.storageService.UploadMany(c.Request.Context(), files, services.UploadProductImage)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, results, i18n.KeyUploadSuccess)
}

// POST /uploads/payment-screenshot
func (h *UploadHandler) UploadPaymentScreenshot(c *gin.Context) {
	h.single(c, services.UploadPaymentScreenshot, "payment_screenshot", "screenshot", "file")
}

// DELETE /uploads/:filename (admin)
func (h *UploadHandler) DeleteFile(c *gin.Context) {
	if err := h.storageService.Delete(c.Request.Context(), c.Param("filename")); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, nil, i18n.KeyUploadDeleted)
}
