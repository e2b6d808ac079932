// internal/logger/logger.go

// Package logger configures logrus and hands out request-scoped entries.
package logger

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDKey = "request_id"
	userIDKey    = "user_id"
)

// Setup configures the standard logrus logger. JSON output is used in
// production or when format is "json".
func Setup(environment, level, format string) {
	logrus.SetOutput(os.Stdout)

	if format == "json" || (format == "" && environment == "production") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// FromGin returns an entry tagged with the request id and, when known, the user id.
func FromGin(c *gin.Context) *logrus.Entry {
	entry := logrus.NewEntry(logrus.StandardLogger())
	if c == nil {
		return entry
	}
	if id := c.GetString(RequestIDKey); id != "" {
		entry = entry.WithField(RequestIDKey, id)
	}
	if uid := c.GetString(userIDKey); uid != "" {
		entry = entry.WithField(userIDKey, uid)
	}
	return entry
}
