package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-triage/internal/ratelimit"
)

type recordingLogger struct {
	mu      sync.Mutex
	entries []map[string]interface{}
}

func (l *recordingLogger) log(level, msg string, kv []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := map[string]interface{}{"level": level, "msg": msg}
	for i := 0; i+1 < len(kv); i += 2 {
		entry[kv[i].(string)] = kv[i+1]
	}
	l.entries = append(l.entries, entry)
}

func (l *recordingLogger) Info(msg string, kv ...interface{})  { l.log("info", msg, kv) }
func (l *recordingLogger) Warn(msg string, kv ...interface{})  { l.log("warn", msg, kv) }
func (l *recordingLogger) Error(msg string, kv ...interface{}) { l.log("error", msg, kv) }

func TestLoggingMiddleware(t *testing.T) {
	logger := &recordingLogger{}
	var seenID string
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/detect_disease?query=x", nil))

	require.Len(t, logger.entries, 1)
	entry := logger.entries[0]
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, http.StatusTeapot, entry["status"])
	assert.Equal(t, "/detect_disease", entry["path"])
	assert.NotEmpty(t, seenID)
	assert.Equal(t, seenID, entry["request_id"])
	assert.Equal(t, seenID, rec.Header().Get(RequestIDHeader))
}

func TestLoggingMiddleware_ReusesRequestID(t *testing.T) {
	logger := &recordingLogger{}
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "info", logger.entries[0]["level"])
	assert.Equal(t, http.StatusOK, logger.entries[0]["status"])
}

func TestRecoverPanic(t *testing.T) {
	logger := &recordingLogger{}
	h := RecoverPanic(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Something went wrong on our end."}`, rec.Body.String())
	require.Len(t, logger.entries, 1)
	assert.Equal(t, "boom", logger.entries[0]["panic"])
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := ratelimit.DefaultAPIConfig(2)
	cfg.CleanupPeriod = 0
	limiter := ratelimit.NewMemoryRateLimiter(cfg)
	defer limiter.Close()

	h := RateLimitMiddleware(limiter, "inference", &recordingLogger{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/detect_disease", nil)
		req.RemoteAddr = "192.0.2.7:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
		if i == 2 {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
			assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
			assert.Contains(t, rec.Body.String(), "Too many requests")
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}
