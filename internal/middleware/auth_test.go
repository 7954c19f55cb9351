package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngclicense/internal/config"
)

func adminProtected(t *testing.T, cfg config.AdminConfig) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("reached"))
	})
	return AdminAuth(cfg, logger)(next)
}

func TestAdminAuthAcceptsCorrectKey(t *testing.T) {
	handler := adminProtected(t, config.AdminConfig{APIKey: "s3cret"})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("X-API-Key", "s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reached", rec.Body.String())
}

func TestAdminAuthRejectsWrongKey(t *testing.T) {
	handler := adminProtected(t, config.AdminConfig{APIKey: "s3cret"})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Unauthorized"}`, rec.Body.String())
}

func TestAdminAuthRejectsMissingHeader(t *testing.T) {
	handler := adminProtected(t, config.AdminConfig{APIKey: "s3cret"})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

// An unset or placeholder key disables admin access entirely: even a request
// presenting the placeholder itself is rejected.
func TestAdminAuthDisabledConfigurations(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
	}{
		{name: "empty key", apiKey: ""},
		{name: "placeholder key", apiKey: "change-me-in-production"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := adminProtected(t, config.AdminConfig{APIKey: tt.apiKey})

			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			req.Header.Set("X-API-Key", tt.apiKey)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
