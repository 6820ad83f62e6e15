package log

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPMiddleware(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core).Sugar()

	handler := HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	t.Run("generates a request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/phase/2024-01-01", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
	})

	t.Run("keeps the caller's request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/calendar/2024/1", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		fields := entries[1].ContextMap()
		assert.Equal(t, "abc-123", fields["request_id"])
		assert.Equal(t, "/calendar/2024/1", fields["path"])
		assert.EqualValues(t, http.StatusTeapot, fields["status"])
		assert.EqualValues(t, len("short and stout"), fields["size"])
	}
}
