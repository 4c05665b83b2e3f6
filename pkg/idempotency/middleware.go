package idempotency

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderIdempotencyKey is the HTTP header carrying the client's key
	HeaderIdempotencyKey = "Idempotency-Key"

	// ContextKeyIDempotencyKeyID is the context key for the stored key's ID
	ContextKeyIDempotencyKeyID = "idempotency_key_id"
)

// replayRecorder wraps gin.ResponseWriter and keeps a copy of the response
// so completed operations can be replayed on retry.
type replayRecorder struct {
	gin.ResponseWriter
	body       *bytes.Buffer
	statusCode int
}

func (w *replayRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *replayRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *replayRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// scopeKey binds the client's key to one operation. Outbound mutations share
// one header convention, so the same key sent to a different endpoint must
// start a fresh record rather than replay another operation's response.
func scopeKey(c *gin.Context, key string) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return c.Request.Method + " " + path + " " + key
}

// Middleware returns the Gin middleware guarding mutating outbound
// operations (allocations, dock bookings, load dispatches) against retries.
func Middleware(config *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.OnlyMutating && !isMutatingMethod(c.Request.Method) {
			c.Next()
			return
		}

		key := NormalizeKey(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			if config.RequireKey {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error": "Idempotency-Key header is required for this operation",
					"code":  "IDEMPOTENCY_KEY_REQUIRED",
				})
				return
			}
			c.Next()
			return
		}

		if err := ValidateKeyWithMaxLength(key, config.MaxKeyLength); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Invalid idempotency key: %v", err),
				"code":  "IDEMPOTENCY_KEY_INVALID",
			})
			return
		}

		var userID string
		if config.UserIDExtractor != nil {
			userID = config.UserIDExtractor(c)
		}

		// the body feeds the fingerprint; restore it for the handler
		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		run := &keyedRequest{
			config:      config,
			key:         scopeKey(c, key),
			userID:      userID,
			fingerprint: ComputeFingerprint(requestBody),
		}
		run.process(c)
	}
}

// keyedRequest carries one request's idempotency state through lock
// acquisition, replay and response capture.
type keyedRequest struct {
	config      *Config
	key         string
	userID      string
	fingerprint string
}

func (r *keyedRequest) process(c *gin.Context) {
	ctx := c.Request.Context()
	config := r.config
	lockStart := time.Now()

	record := &IdempotencyKey{
		Key:                r.key,
		UserID:             r.userID,
		ServiceID:          config.ServiceName,
		RequestPath:        c.Request.URL.Path,
		RequestMethod:      c.Request.Method,
		RequestFingerprint: r.fingerprint,
		CreatedAt:          time.Now().UTC(),
		ExpiresAt:          time.Now().UTC().Add(config.RetentionPeriod),
	}

	existing, isNew, err := config.Repository.AcquireLock(ctx, record)
	if err != nil {
		slog.Error("Failed to acquire idempotency lock",
			"error", err,
			"key", r.key,
			"service", config.ServiceName,
			"path", c.Request.URL.Path,
		)
		if config.Metrics != nil {
			config.Metrics.RecordStorageError(config.ServiceName, "acquire_lock")
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error": "Idempotency storage is temporarily unavailable",
			"code":  "IDEMPOTENCY_STORAGE_UNAVAILABLE",
		})
		return
	}

	if config.Metrics != nil {
		config.Metrics.RecordLockAcquisitionDuration(
			config.ServiceName,
			c.Request.URL.Path,
			c.Request.Method,
			time.Since(lockStart).Seconds(),
		)
	}

	if existing.IsCompleted() {
		r.replay(c, existing)
		return
	}

	if !isNew && existing.IsLocked() {
		lockAge := time.Since(*existing.LockedAt)
		if lockAge < config.LockTimeout {
			slog.Warn("Concurrent idempotency request",
				"key", r.key,
				"service", config.ServiceName,
				"path", c.Request.URL.Path,
				"lockAge", lockAge,
			)
			if config.Metrics != nil {
				config.Metrics.RecordConcurrentCollision(
					config.ServiceName,
					c.Request.URL.Path,
					c.Request.Method,
				)
			}
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "A request with this idempotency key is currently being processed",
				"code":  "IDEMPOTENCY_CONCURRENT_REQUEST",
			})
			return
		}

		// the previous run died holding the lock; take it over
		slog.Info("Stale lock detected, proceeding",
			"key", r.key,
			"service", config.ServiceName,
			"path", c.Request.URL.Path,
			"lockAge", lockAge,
		)
	}

	c.Set(ContextKeyIDempotencyKeyID, existing.ID.Hex())

	if config.Metrics != nil {
		config.Metrics.RecordMiss(
			config.ServiceName,
			c.Request.URL.Path,
			c.Request.Method,
		)
	}

	r.capture(c, existing)
}

// replay serves the stored response of a completed run, rejecting keys
// reused with a different request body.
func (r *keyedRequest) replay(c *gin.Context, existing *IdempotencyKey) {
	config := r.config

	if existing.RequestFingerprint != r.fingerprint {
		slog.Warn("Idempotency parameter mismatch",
			"key", r.key,
			"service", config.ServiceName,
			"path", c.Request.URL.Path,
		)
		if config.Metrics != nil {
			config.Metrics.RecordParameterMismatch(
				config.ServiceName,
				c.Request.URL.Path,
				c.Request.Method,
			)
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Request parameters differ from original request with this idempotency key",
			"code":  "IDEMPOTENCY_PARAMETER_MISMATCH",
		})
		return
	}

	slog.Info("Idempotency cache hit",
		"key", r.key,
		"service", config.ServiceName,
		"path", c.Request.URL.Path,
		"statusCode", existing.ResponseCode,
	)
	if config.Metrics != nil {
		config.Metrics.RecordHit(
			config.ServiceName,
			c.Request.URL.Path,
			c.Request.Method,
		)
	}

	for k, v := range existing.ResponseHeaders {
		c.Header(k, v)
	}
	c.Data(existing.ResponseCode, "application/json", existing.ResponseBody)
	c.Abort()
}

// capture runs the handler chain and stores its response for later replay.
func (r *keyedRequest) capture(c *gin.Context, existing *IdempotencyKey) {
	config := r.config

	recorder := &replayRecorder{
		ResponseWriter: c.Writer,
		body:           &bytes.Buffer{},
		statusCode:     http.StatusOK,
	}
	c.Writer = recorder

	c.Next()

	responseBody := recorder.body.Bytes()
	if len(responseBody) > config.MaxResponseSize {
		slog.Warn("Response too large to cache",
			"key", r.key,
			"service", config.ServiceName,
			"path", c.Request.URL.Path,
			"size", len(responseBody),
			"maxSize", config.MaxResponseSize,
		)
		responseBody = []byte(fmt.Sprintf(`{"error":"Response too large to cache","size":%d}`, len(responseBody)))
	}

	err := config.Repository.StoreResponse(
		c.Request.Context(),
		existing.ID.Hex(),
		recorder.statusCode,
		responseBody,
		extractResponseHeaders(c),
	)
	if err != nil {
		slog.Error("Failed to store idempotency response",
			"error", err,
			"key", r.key,
			"service", config.ServiceName,
			"path", c.Request.URL.Path,
		)
		if config.Metrics != nil {
			config.Metrics.RecordStorageError(config.ServiceName, "store_response")
		}
	}
}

// isMutatingMethod returns true if the HTTP method is mutating
func isMutatingMethod(method string) bool {
	return method == http.MethodPost ||
		method == http.MethodPut ||
		method == http.MethodPatch ||
		method == http.MethodDelete
}

// extractResponseHeaders extracts response headers from the context
func extractResponseHeaders(c *gin.Context) map[string]string {
	headers := make(map[string]string)
	for k, v := range c.Writer.Header() {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return headers
}
