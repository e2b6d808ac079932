// internal/utils/response_test.go
package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/i18n"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperror.Field("quantity", "quantity must be positive"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{apperror.NotFound("order"), http.StatusNotFound, "NOT_FOUND"},
		{apperror.New(apperror.KindInvalidTransition, "SHIPPED -> PENDING"), http.StatusConflict, "INVALID_TRANSITION"},
		{apperror.New(apperror.KindPaymentNotVerified, "unverified"), http.StatusConflict, "PAYMENT_NOT_VERIFIED"},
		{apperror.New(apperror.KindProductUnavailable, "gone"), http.StatusBadRequest, "PRODUCT_UNAVAILABLE"},
		{apperror.New(apperror.KindOrderNotEditable, "locked"), http.StatusBadRequest, "ORDER_NOT_EDITABLE"},
		{apperror.New(apperror.KindForbidden, "no"), http.StatusForbidden, "FORBIDDEN"},
		{apperror.New(apperror.KindUnauthorized, "who"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{apperror.New(apperror.KindConflict, "busy"), http.StatusConflict, "CONFLICT"},
		{apperror.Wrap(apperror.KindUploadFailure, errors.New("disk"), "upload"), http.StatusInternalServerError, "UPLOAD_FAILURE"},
		{errors.New("db exploded"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		c, w := newTestContext()
		HandleError(c, tc.err)

		assert.Equal(t, tc.status, w.Code, tc.code)
		resp := decode(t, w)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, tc.code, resp.Error.Code)
	}
}

func TestHandleErrorHidesInternalDetail(t *testing.T) {
	c, w := newTestContext()
	HandleError(c, errors.New("pq: password authentication failed"))

	resp := decode(t, w)
	assert.Equal(t, i18n.T("en", i18n.KeyInternalError), resp.Error.Message)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestHandleErrorTranslatesKey(t *testing.T) {
	c, w := newTestContext()
	c.Set("lang", "en")
	HandleError(c, apperror.New(apperror.KindInvalidTransition, "x").WithKey(i18n.KeyOrderInvalidTransition, "SHIPPED", "PENDING"))

	resp := decode(t, w)
	assert.Equal(t, "Order cannot move from SHIPPED to PENDING", resp.Error.Message)
}

func TestHandleErrorIncludesFieldDetails(t *testing.T) {
	c, w := newTestContext()
	HandleError(c, apperror.Validation("invalid", apperror.FieldError{Field: "items", Message: "items is required"}))

	resp := decode(t, w)
	details, ok := resp.Error.Details.([]interface{})
	require.True(t, ok)
	assert.Len(t, details, 1)
}

func TestPaginatedResponseMeta(t *testing.T) {
	c, w := newTestContext()
	result := CreatePaginationResult([]int{1, 2}, 45, NewPaginationParams(2, 20, "", ""))
	PaginatedResponse(c, result)

	assert.Equal(t, "45", w.Header().Get("X-Total-Count"))
	assert.Equal(t, "3", w.Header().Get("X-Total-Pages"))

	var body struct {
		Success bool `json:"success"`
		Meta    struct {
			Pagination struct {
				Page       int   `json:"page"`
				Limit      int   `json:"limit"`
				Total      int64 `json:"total"`
				TotalPages int   `json:"total_pages"`
			} `json:"pagination"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Meta.Pagination.Page)
	assert.Equal(t, int64(45), body.Meta.Pagination.Total)
	assert.Equal(t, 3, body.Meta.Pagination.TotalPages)
}

func TestGetUserIDFromContext(t *testing.T) {
	c, _ := newTestContext()
	_, ok := GetUserIDFromContext(c)
	assert.False(t, ok)

	c.Set("user_id", "not-a-uuid")
	_, ok = GetUserIDFromContext(c)
	assert.False(t, ok)

	c.Set("user_id", "7c9e6679-7425-40de-944b-e07fc1f90ae7")
	id, ok := GetUserIDFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", id.String())
}
