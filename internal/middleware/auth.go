package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"ngclicense/internal/config"
	apierrors "ngclicense/internal/errors"
)

// AdminAuth gates admin endpoints on the X-API-Key shared secret. When the
// configured key is absent or still the shipped placeholder, admin
// operations are disabled outright: every request is rejected, so a stale
// default can never act as a working credential. Unauthorized requests are
// answered with a deliberately uninformative message and never reach the
// store.
func AdminAuth(cfg config.AdminConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-API-Key")
			if !cfg.Enabled() || subtle.ConstantTimeCompare([]byte(presented), []byte(cfg.APIKey)) != 1 {
				logger.WarnContext(r.Context(), "admin request rejected",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
					slog.Bool("admin_enabled", cfg.Enabled()),
				)
				render.Render(w, r, apierrors.Unauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
