package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngclicense/internal/license"
	"ngclicense/internal/services"
)

type fakeIssuer struct {
	issued    *license.License
	err       error
	gotParams license.IssueParams
}

func (f *fakeIssuer) Issue(_ context.Context, p license.IssueParams) (*license.License, error) {
	f.gotParams = p
	return f.issued, f.err
}

type fakeStatsProvider struct {
	stats *services.Stats
	err   error
}

func (f *fakeStatsProvider) Stats(context.Context) (*services.Stats, error) {
	return f.stats, f.err
}

func adminRouter(issuer Issuer, stats StatsProvider) *chi.Mux {
	h := NewAdminHandler(issuer, stats, discardLogger())
	r := chi.NewRouter()
	r.Post("/generate", h.Generate)
	r.Get("/stats", h.Stats)
	return r
}

func issuedLicense() *license.License {
	return &license.License{
		LicenseKey:     "NGC-1111-2222-3333-4444",
		Email:          "trader@example.com",
		Product:        "NGC_EA",
		CreatedDate:    "2025-06-15",
		ExpiryDate:     "2026-06-15",
		Status:         license.StatusActive,
		MaxActivations: 1,
	}
}

func TestGenerateDefaults(t *testing.T) {
	issuer := &fakeIssuer{issued: issuedLicense()}
	router := adminRouter(issuer, &fakeStatsProvider{})

	req := httptest.NewRequest(http.MethodPost, "/generate",
		strings.NewReader(`{"email":"trader@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "NGC-1111-2222-3333-4444", body["license_key"])
	assert.Equal(t, "2026-06-15", body["expires"])

	assert.Equal(t, license.DefaultDurationDays, issuer.gotParams.DurationDays)
	assert.Equal(t, license.DefaultMaxActivations, issuer.gotParams.MaxActivations)
	assert.Empty(t, issuer.gotParams.Product, "product default is applied by the engine")
}

// duration_days of 0 is explicit, not omitted: the handler must forward the
// zero instead of substituting the default.
func TestGenerateExplicitZeroDuration(t *testing.T) {
	issuer := &fakeIssuer{issued: issuedLicense()}
	router := adminRouter(issuer, &fakeStatsProvider{})

	req := httptest.NewRequest(http.MethodPost, "/generate",
		strings.NewReader(`{"email":"trader@example.com","duration_days":0}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, issuer.gotParams.DurationDays)
}

func TestGenerateCustomFields(t *testing.T) {
	issuer := &fakeIssuer{issued: issuedLicense()}
	router := adminRouter(issuer, &fakeStatsProvider{})

	req := httptest.NewRequest(http.MethodPost, "/generate",
		strings.NewReader(`{"email":"trader@example.com","product":"NGC_PRO","duration_days":30,"max_activations":3}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NGC_PRO", issuer.gotParams.Product)
	assert.Equal(t, 30, issuer.gotParams.DurationDays)
	assert.Equal(t, 3, issuer.gotParams.MaxActivations)
}

func TestGenerateMissingEmail(t *testing.T) {
	issuer := &fakeIssuer{issued: issuedLicense()}
	router := adminRouter(issuer, &fakeStatsProvider{})

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Email is required", body["message"])
	assert.Empty(t, issuer.gotParams.Email, "issuer must not be called on invalid input")
}

func TestGenerateNegativeDurationRejected(t *testing.T) {
	router := adminRouter(&fakeIssuer{issued: issuedLicense()}, &fakeStatsProvider{})

	req := httptest.NewRequest(http.MethodPost, "/generate",
		strings.NewReader(`{"email":"trader@example.com","duration_days":-5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "duration_days must not be negative", decodeBody(t, rec)["message"])
}

func TestGenerateZeroMaxActivationsRejected(t *testing.T) {
	router := adminRouter(&fakeIssuer{issued: issuedLicense()}, &fakeStatsProvider{})

	req := httptest.NewRequest(http.MethodPost, "/generate",
		strings.NewReader(`{"email":"trader@example.com","max_activations":0}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "max_activations must be at least 1", decodeBody(t, rec)["message"])
}

func TestGenerateMalformedBody(t *testing.T) {
	router := adminRouter(&fakeIssuer{issued: issuedLicense()}, &fakeStatsProvider{})

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeBody(t, rec)["message"])
}

func TestGenerateServerError(t *testing.T) {
	router := adminRouter(&fakeIssuer{err: fmt.Errorf("insert failed")}, &fakeStatsProvider{})

	req := httptest.NewRequest(http.MethodPost, "/generate",
		strings.NewReader(`{"email":"trader@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error during generation", decodeBody(t, rec)["message"])
}

func TestStatsEndpoint(t *testing.T) {
	stats := &fakeStatsProvider{stats: &services.Stats{
		TotalLicenses:    10,
		ActiveLicenses:   7,
		ExpiredLicenses:  2,
		ValidationsToday: 42,
	}}
	router := adminRouter(&fakeIssuer{}, stats)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(10), body["total_licenses"])
	assert.Equal(t, float64(7), body["active_licenses"])
	assert.Equal(t, float64(2), body["expired_licenses"])
	assert.Equal(t, float64(42), body["validations_today"])
}

func TestStatsEndpointServerError(t *testing.T) {
	router := adminRouter(&fakeIssuer{}, &fakeStatsProvider{err: fmt.Errorf("count failed")})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error", decodeBody(t, rec)["message"])
}
