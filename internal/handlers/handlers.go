// internal/handlers/handlers.go
package handlers

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/services"
	"github.com/goldenrice/rice-backend/internal/utils"
)

// maxMultipartMemory is the in-memory part of a parsed multipart form; the
// rest spills to temp files.
const maxMultipartMemory = 32 << 20

// currentActor answers 401 and returns false when the request carries no user.
func currentActor(c *gin.Context) (services.Actor, bool) {
	id, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return services.Actor{}, false
	}
	role, _ := utils.GetUserRoleFromContext(c)
	return services.Actor{ID: id, Role: models.UserRole(role)}, true
}

// optionalActor returns the caller when one is authenticated.
func optionalActor(c *gin.Context) (services.Actor, bool) {
	id, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return services.Actor{}, false
	}
	role, _ := utils.GetUserRoleFromContext(c)
	return services.Actor{ID: id, Role: models.UserRole(role)}, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BindErrorResponse(c, err)
		return false
	}
	return true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// bindMultipartData decodes the JSON document sent in the "data" field of a
// multipart form. A missing field leaves req untouched.
func bindMultipartData(c *gin.Context, req interface{}) bool {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return false
	}
	data := c.Request.FormValue("data")
	if data == "" {
		return true
	}
	if err := json.Unmarshal([]byte(data), req); err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "data"), err.Error())
		return false
	}
	return true
}

// formFiles collects the files sent under any of the given field names.
func formFiles(form *multipart.Form, names ...string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	var files []*multipart.FileHeader
	for _, name := range names {
		files = append(files, form.File[name]...)
	}
	return files
}

// firstFile returns the first file sent under any of the given field names.
func firstFile(c *gin.Context, names ...string) *multipart.FileHeader {
	if files := formFiles(c.Request.MultipartForm, names...); len(files) > 0 {
		return files[0]
	}
	return nil
}

func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return nil, false
	}
	return &d, true
}

func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return nil, false
	}
	return &b, true
}

// queryTime accepts RFC 3339 timestamps or plain dates. A plain date used as
// an upper bound covers the whole day.
func queryTime(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return nil, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, true
}

// bindPaymentProof reads a payment proof from JSON or from a multipart form.
// The screenshot file part and the URL field use different keys since gin
// binds file parts by field name.
func bindPaymentProof(c *gin.Context) (*services.PaymentProofRequest, *multipart.FileHeader, bool) {
	var req services.PaymentProofRequest
	if !isMultipart(c) {
		if !bindJSON(c, &req) {
			return nil, nil, false
		}
		return &req, nil, true
	}
	if err := c.ShouldBind(&req); err != nil {
		utils.BindErrorResponse(c, err)
		return nil, nil, false
	}
	return &req, firstFile(c, "payment_screenshot", "screenshot", "file"), true
}
