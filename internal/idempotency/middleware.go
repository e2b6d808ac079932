// internal/idempotency/middleware.go
package idempotency

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/logger"
	"github.com/goldenrice/rice-backend/internal/utils"
)

const (
	HeaderName   = "Idempotency-Key"
	ReplayHeader = "X-Idempotent-Replay"
)

type middlewareConfig struct {
	ttl   time.Duration
	clock func() time.Time
}

type Option func(*middlewareConfig)

// WithTTL sets how long a completed response is replayed.
func WithTTL(ttl time.Duration) Option {
	return func(cfg *middlewareConfig) {
		if ttl > 0 {
			cfg.ttl = ttl
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(cfg *middlewareConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// Middleware guards a route with the Idempotency-Key header. Requests without
// the header pass through. The first response for a key is stored and replayed
// for later requests with the same key and the same method, path, body and
// caller. A key still in flight, or reused for a different request, is
// answered with 409. Server errors release the key so the client can retry.
func Middleware(store Store, opts ...Option) gin.HandlerFunc {
	cfg := middlewareConfig{ttl: DefaultTTL, clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderName))
		if store == nil || key == "" {
			c.Next()
			return
		}

		body, err := readAndReplayBody(c.Request)
		if err != nil {
			utils.BadRequestResponse(c, "", nil)
			return
		}

		identity := c.GetString("user_id")
		if identity == "" {
			identity = "anonymous"
		}
		scoped := key + "|" + identity
		fingerprint := requestFingerprint(c.Request, body, identity)
		log := logger.FromGin(c).WithField("idempotency_key", key)

		reservation, err := store.Reserve(c.Request.Context(), scoped, fingerprint, cfg.clock(), cfg.ttl)
		if err != nil {
			if errors.Is(err, ErrFingerprintMismatch) {
				conflict(c, i18n.KeyIdempotencyMismatch)
				return
			}
			log.WithError(err).Error("idempotency reserve failed")
			utils.InternalErrorResponse(c)
			return
		}

		switch reservation.State {
		case ReservationCompleted:
			log.Debug("replaying stored response")
			writeStoredResponse(c, reservation.Record)
			return
		case ReservationPending:
			conflict(c, i18n.KeyIdempotencyInProgress)
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Release(ctx, scoped); err != nil {
				log.WithError(err).Warn("idempotency release failed")
			}
			return
		}

		resp := Response{Status: status, Headers: c.Writer.Header().Clone(), Body: recorder.body.Bytes()}
		if err := store.SaveResponse(ctx, scoped, fingerprint, resp, cfg.clock(), cfg.ttl); err != nil {
			log.WithError(err).Error("idempotency save failed")
			if err := store.Release(ctx, scoped); err != nil {
				log.WithError(err).Warn("idempotency release failed")
			}
		}
	}
}

func conflict(c *gin.Context, key string) {
	lang := utils.GetLangFromContext(c)
	utils.ErrorResponse(c, http.StatusConflict, string(apperror.KindConflict), i18n.T(lang, key), nil)
}

func readAndReplayBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func requestFingerprint(r *http.Request, body []byte, identity string) string {
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteString("|")
	b.WriteString(r.URL.Path)
	b.WriteString("|")
	b.WriteString(r.URL.RawQuery)
	b.WriteString("|")
	b.WriteString(identity)
	b.WriteString("|")
	if len(body) > 0 {
		b.WriteString(utils.HashString(string(body)))
	}
	return utils.HashString(b.String())
}

func writeStoredResponse(c *gin.Context, record Record) {
	header := c.Writer.Header()
	for name, values := range record.ResponseHeaders {
		header.Del(name)
		for _, v := range values {
			header.Add(name, v)
		}
	}
	header.Set(ReplayHeader, "true")

	status := record.ResponseStatus
	if status == 0 {
		status = http.StatusOK
	}
	c.Status(status)
	if len(record.ResponseBody) > 0 {
		_, _ = c.Writer.Write(record.ResponseBody)
	}
	c.Abort()
}

// bodyRecorder copies the response body while it is written to the client.
type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
