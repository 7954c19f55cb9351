package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"ngclicense/internal/license"
)

// LicenseService is the engine surface used by the public endpoints.
type LicenseService interface {
	Validate(ctx context.Context, key, accountNumber, sourceIP string) (license.ValidationResult, error)
	Activate(ctx context.Context, key, accountNumber string) (license.ActivationResult, error)
	CheckStatus(ctx context.Context, key string) (license.CheckResult, error)
}

// LicenseHandler serves the unauthenticated license endpoints.
type LicenseHandler struct {
	service LicenseService
	logger  *slog.Logger
}

// NewLicenseHandler creates a LicenseHandler.
func NewLicenseHandler(service LicenseService, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "license")),
	}
}

// ValidateRequest is the POST /validate payload.
type ValidateRequest struct {
	LicenseKey    string `json:"license_key"`
	AccountNumber string `json:"account_number,omitempty"`
}

// ValidateResponse is the POST /validate result. Domain rejections are 200
// responses with valid=false; only malformed input is a 400.
type ValidateResponse struct {
	Valid         bool   `json:"valid"`
	Message       string `json:"message,omitempty"`
	Expires       string `json:"expires,omitempty"`
	Status        string `json:"status,omitempty"`
	Product       string `json:"product,omitempty"`
	DaysRemaining int    `json:"days_remaining,omitempty"`
}

// Validate handles POST /validate.
func (h *LicenseHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := &ValidateRequest{}
	if err := render.DecodeJSON(r.Body, data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ValidateResponse{Valid: false, Message: "Invalid request body"})
		return
	}

	result, err := h.service.Validate(ctx, data.LicenseKey, data.AccountNumber, clientIP(r))
	if errors.Is(err, license.ErrEmptyKey) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ValidateResponse{Valid: false, Message: "License key is required"})
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "validation failed", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ValidateResponse{Valid: false, Message: "Server error during validation"})
		return
	}

	render.JSON(w, r, ValidateResponse{
		Valid:         result.Valid,
		Message:       result.Message,
		Expires:       result.Expires,
		Status:        result.Status,
		Product:       result.Product,
		DaysRemaining: result.DaysRemaining,
	})
}

// ActivateRequest is the POST /activate payload.
type ActivateRequest struct {
	LicenseKey    string `json:"license_key"`
	AccountNumber string `json:"account_number,omitempty"`
}

// ActivateResponse is the POST /activate result. The counters are present
// only on success.
type ActivateResponse struct {
	Success              bool   `json:"success"`
	Message              string `json:"message"`
	ActivationsUsed      *int   `json:"activations_used,omitempty"`
	ActivationsRemaining *int   `json:"activations_remaining,omitempty"`
}

// Activate handles POST /activate.
func (h *LicenseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := &ActivateRequest{}
	if err := render.DecodeJSON(r.Body, data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ActivateResponse{Success: false, Message: "Invalid request body"})
		return
	}

	result, err := h.service.Activate(ctx, data.LicenseKey, data.AccountNumber)
	if errors.Is(err, license.ErrEmptyKey) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ActivateResponse{Success: false, Message: "License key is required"})
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "activation failed", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ActivateResponse{Success: false, Message: "Server error during activation"})
		return
	}

	resp := ActivateResponse{Success: result.Success, Message: result.Message}
	if result.Success {
		used, remaining := result.ActivationsUsed, result.ActivationsRemaining
		resp.ActivationsUsed = &used
		resp.ActivationsRemaining = &remaining
	}
	render.JSON(w, r, resp)
}

// checkFoundResponse is the GET /check/{license_key} result for a known key.
// The status field is the display status: "expired" overrides the stored
// value for a past-expiry license.
type checkFoundResponse struct {
	Found          bool    `json:"found"`
	LicenseKey     string  `json:"license_key"`
	Email          string  `json:"email"`
	Product        string  `json:"product"`
	Created        string  `json:"created"`
	Expires        string  `json:"expires"`
	Status         string  `json:"status"`
	Activations    int     `json:"activations"`
	MaxActivations int     `json:"max_activations"`
	DaysRemaining  int     `json:"days_remaining"`
	LastValidated  *string `json:"last_validated"`
}

type checkNotFoundResponse struct {
	Found   bool   `json:"found"`
	Message string `json:"message"`
}

// Check handles GET /check/{license_key}. Read-only: it never writes the
// audit log and never mutates license state.
func (h *LicenseHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "license_key")

	result, err := h.service.CheckStatus(ctx, key)
	if errors.Is(err, license.ErrEmptyKey) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, checkNotFoundResponse{Found: false, Message: "License key is required"})
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "status check failed", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, checkNotFoundResponse{Found: false, Message: "Error checking license"})
		return
	}
	if !result.Found {
		render.JSON(w, r, checkNotFoundResponse{Found: false, Message: "License not found"})
		return
	}

	lic := result.License
	var lastValidated *string
	if lic.LastValidated != nil {
		s := lic.LastValidated.Format(time.RFC3339)
		lastValidated = &s
	}
	render.JSON(w, r, checkFoundResponse{
		Found:          true,
		LicenseKey:     lic.LicenseKey,
		Email:          lic.Email,
		Product:        lic.Product,
		Created:        lic.CreatedDate,
		Expires:        lic.ExpiryDate,
		Status:         result.DisplayStatus,
		Activations:    lic.Activations,
		MaxActivations: lic.MaxActivations,
		DaysRemaining:  result.DaysRemaining,
		LastValidated:  lastValidated,
	})
}

// clientIP extracts the caller address, best effort. RealIP middleware has
// already folded proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
