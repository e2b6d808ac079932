// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/logger"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// MessageResponse answers 200 with data and a translated message.
func MessageResponse(c *gin.Context, data interface{}, key string, args ...interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Message: i18n.T(GetLangFromContext(c), key, args...),
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func CreatedResponse(c *gin.Context, data interface{}, key string) {
	resp := APIResponse{
		Success: true,
		Data:    data,
	}
	if key != "" {
		resp.Message = i18n.T(GetLangFromContext(c), key)
	}
	c.JSON(http.StatusCreated, resp)
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, string(apperror.KindValidation), message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, string(apperror.KindUnauthorized), message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAdminAccessDenied)
	}
	ErrorResponse(c, http.StatusForbidden, string(apperror.KindForbidden), message, nil)
}

func NotFoundResponse(c *gin.Context, resource string) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, resource+".not_found")
	ErrorResponse(c, http.StatusNotFound, string(apperror.KindNotFound), message, nil)
}

func InternalErrorResponse(c *gin.Context) {
	lang := GetLangFromContext(c)
	ErrorResponse(c, http.StatusInternalServerError, string(apperror.KindInternal), i18n.T(lang, i18n.KeyInternalError), nil)
}

func ValidationErrorResponse(c *gin.Context, fields []apperror.FieldError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, string(apperror.KindValidation), message, fields)
}

// BindErrorResponse answers a request body that could not be decoded.
func BindErrorResponse(c *gin.Context, err error) {
	if fields := GetValidationErrors(err); len(fields) > 0 {
		ValidationErrorResponse(c, fields)
		return
	}
	BadRequestResponse(c, "", err.Error())
}

// StatusForKind maps an error kind onto its HTTP status.
func StatusForKind(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindProductUnavailable, apperror.KindOrderNotEditable:
		return http.StatusBadRequest
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindInvalidTransition, apperror.KindPaymentNotVerified, apperror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleError translates a service error into the response envelope. Internal
// and upload failures are logged with detail and answered generically.
func HandleError(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		logger.FromGin(c).WithError(err).Error("unhandled error")
		InternalErrorResponse(c)
		return
	}

	lang := GetLangFromContext(c)
	status := StatusForKind(appErr.Kind)

	switch appErr.Kind {
	case apperror.KindInternal:
		logger.FromGin(c).WithError(err).Error("internal error")
		InternalErrorResponse(c)
		return
	case apperror.KindUploadFailure:
		logger.FromGin(c).WithError(err).Error("upload failure")
		ErrorResponse(c, status, string(appErr.Kind), i18n.T(lang, i18n.KeyUploadFailed), nil)
		return
	}

	message := appErr.Message
	if appErr.Key != "" {
		message = i18n.T(lang, appErr.Key, appErr.Args...)
	} else if message == "" {
		message = string(appErr.Kind)
	}

	var details interface{}
	if len(appErr.Fields) > 0 {
		details = appErr.Fields
	}
	ErrorResponse(c, status, string(appErr.Kind), message, details)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return i18n.DefaultLang
}

func GetUserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	if userID, exists := c.Get("user_id"); exists {
		if userIDStr, ok := userID.(string); ok {
			id, err := uuid.Parse(userIDStr)
			return id, err == nil
		}
	}
	return uuid.Nil, false
}

func GetUserRoleFromContext(c *gin.Context) (string, bool) {
	if role, exists := c.Get("user_role"); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr, true
		}
	}
	return "", false
}

// ParseUUIDParam reads a path parameter as a UUID, answering 404 when it is malformed.
func ParseUUIDParam(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		NotFoundResponse(c, resource)
		return uuid.Nil, false
	}
	return id, true
}
