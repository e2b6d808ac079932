// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goldenrice/rice-backend/internal/logger"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/utils"
)

const RequestIDHeader = "X-Request-ID"

// maxAuditBody caps how much of a request body is kept in an audit row.
const maxAuditBody = 64 << 10

// redactedFields never reach the audit table.
var redactedFields = []string{"password", "current_password", "new_password", "refresh_token", "access_token", "account_number"}

// AuditRecorder persists audit rows.
type AuditRecorder interface {
	RecordAudit(ctx context.Context, log *models.AuditLog)
}

// RequestID reuses a client supplied X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = utils.GenerateRequestID()
		}
		c.Set(logger.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		entry := logger.FromGin(c).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request processed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}

// AuditLogMiddleware records every mutating request of an authenticated
// admin. It runs after AuthRequired so the role is known.
func AuditLogMiddleware(recorder AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if role, _ := utils.GetUserRoleFromContext(c); role != string(models.UserRoleAdmin) {
			c.Next()
			return
		}

		var requestBody []byte
		if c.Request.Body != nil && isJSON(c.GetHeader("Content-Type")) {
			requestBody, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody+1))
			rest := c.Request.Body
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(requestBody), rest))
		}

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		auditLog := &models.AuditLog{
			Action:       c.Request.Method + " " + route,
			ResourceType: extractResourceType(route),
			StatusCode:   c.Writer.Status(),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			RequestID:    c.GetString(logger.RequestIDKey),
			NewValues:    auditValues(requestBody),
		}
		if userID, ok := utils.GetUserIDFromContext(c); ok {
			auditLog.UserID = &userID
		}
		if resourceID := extractResourceID(c.Request.URL.Path); resourceID != uuid.Nil {
			auditLog.ResourceID = &resourceID
		}

		recorder.RecordAudit(context.WithoutCancel(c.Request.Context()), auditLog)
	}
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "application/json")
}

func auditValues(body []byte) models.JSONB {
	if len(body) == 0 || len(body) > maxAuditBody {
		return nil
	}
	var values map[string]interface{}
	if err := json.Unmarshal(body, &values); err != nil {
		return nil
	}
	for _, field := range redactedFields {
		if _, ok := values[field]; ok {
			values[field] = "[redacted]"
		}
	}
	return models.JSONB(values)
}

// extractResourceType names the resource of a route such as
// /api/v1/company-accounts/admin/:id, giving "company_account".
func extractResourceType(route string) string {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	for _, part := range parts {
		if part == "api" || part == "v1" || part == "admin" || part == "" {
			continue
		}
		name := strings.ReplaceAll(part, "-", "_")
		return strings.TrimSuffix(name, "s")
	}
	return "unknown"
}

func extractResourceID(path string) uuid.UUID {
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if id, err := uuid.Parse(part); err == nil {
			return id
		}
	}
	return uuid.Nil
}
