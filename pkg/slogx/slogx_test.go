package slogx_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/vaultsdk/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("json output carries the service field", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slogx.New(slogx.Config{Service: "vaultsdk", Level: "info", Output: &buf})
		logger.Info("hello")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		require.Equal(t, "vaultsdk", record["service"])
		require.Equal(t, "hello", record["msg"])
	})

	t.Run("level filters below the threshold", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slogx.New(slogx.Config{Level: "warn", Output: &buf})

		logger.Info("dropped")
		require.Zero(t, buf.Len())

		logger.Warn("kept")
		require.NotZero(t, buf.Len())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slogx.New(slogx.Config{Level: "loud", Output: &buf})

		logger.Debug("dropped")
		require.Zero(t, buf.Len())

		logger.Info("kept")
		require.NotZero(t, buf.Len())
	})
}

func TestHTTPMiddleware(t *testing.T) {
	t.Run("logs one line per request with the request id", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slogx.New(slogx.Config{Level: "info", Output: &buf})

		handler := slogx.HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/secret/hello", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		require.Equal(t, "req-123", record["req_id"])
		require.Equal(t, "/v1/secret/hello", record["path"])
		require.Equal(t, float64(http.StatusTeapot), record["status"])
	})

	t.Run("generates a request id when none is sent", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slogx.New(slogx.Config{Level: "info", Output: &buf})

		handler := slogx.HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		require.NotEmpty(t, record["req_id"])
	})
}
