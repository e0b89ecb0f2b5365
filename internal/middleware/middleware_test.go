package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCORSPreflight(t *testing.T) {
	handler := CORS([]string{"https://p2.example"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://p2.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.NotEqual(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "https://p2.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	handler := CORS([]string{"https://p2.example"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte("no"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/chat", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusMethodNotAllowed), fields["status"])
	assert.Equal(t, "/api/chat", fields["path"])
	assert.Equal(t, int64(2), fields["bytes"])
}

func TestRequestLoggerWarnsOnServerErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	require.Equal(t, 1, logs.FilterMessage("request").Len())
	assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"https://p2.example", "https://*.zesty.example"}

	assert.True(t, OriginAllowed(allowed, "https://p2.example"))
	assert.True(t, OriginAllowed(allowed, "HTTPS://P2.EXAMPLE"))
	assert.True(t, OriginAllowed(allowed, "https://widget.zesty.example"))
	assert.True(t, OriginAllowed(allowed, ""))
	assert.False(t, OriginAllowed(allowed, "https://evil.example"))
	assert.False(t, OriginAllowed(allowed, "https://zesty.example.evil"))

	assert.True(t, OriginAllowed([]string{"*"}, "https://anyone.example"))
	assert.True(t, OriginAllowed(nil, "https://anyone.example"))
}
