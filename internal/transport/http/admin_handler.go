package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "ngclicense/internal/errors"
	"ngclicense/internal/license"
	"ngclicense/internal/services"
)

// Issuer mints new licenses.
type Issuer interface {
	Issue(ctx context.Context, p license.IssueParams) (*license.License, error)
}

// StatsProvider aggregates admin statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (*services.Stats, error)
}

// AdminHandler serves the admin-gated endpoints. The shared-secret check
// happens in middleware; by the time these handlers run the caller is
// authorized.
type AdminHandler struct {
	issuer   Issuer
	stats    StatsProvider
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(issuer Issuer, stats StatsProvider, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		issuer:   issuer,
		stats:    stats,
		validate: validator.New(),
		logger:   logger.With(slog.String("handler", "admin")),
	}
}

// GenerateRequest is the POST /generate payload. Pointer fields distinguish
// an omitted value from an explicit zero: duration_days of 0 is a valid
// request that issues an already-expired license.
type GenerateRequest struct {
	Email          string `json:"email" validate:"required"`
	Product        string `json:"product"`
	DurationDays   *int   `json:"duration_days" validate:"omitempty,gte=0"`
	MaxActivations *int   `json:"max_activations" validate:"omitempty,gte=1"`
}

// GenerateResponse is the POST /generate result.
type GenerateResponse struct {
	Success        bool   `json:"success"`
	LicenseKey     string `json:"license_key"`
	Email          string `json:"email"`
	Product        string `json:"product"`
	Created        string `json:"created"`
	Expires        string `json:"expires"`
	MaxActivations int    `json:"max_activations"`
}

// Generate handles POST /generate.
func (h *AdminHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := &GenerateRequest{}
	if err := render.DecodeJSON(r.Body, data); err != nil {
		render.Render(w, r, apierrors.Validation("Invalid request body"))
		return
	}
	if err := h.validate.StructCtx(ctx, data); err != nil {
		render.Render(w, r, apierrors.Validation(generateValidationMessage(err)))
		return
	}

	params := license.IssueParams{
		Email:          data.Email,
		Product:        data.Product,
		DurationDays:   license.DefaultDurationDays,
		MaxActivations: license.DefaultMaxActivations,
	}
	if data.DurationDays != nil {
		params.DurationDays = *data.DurationDays
	}
	if data.MaxActivations != nil {
		params.MaxActivations = *data.MaxActivations
	}

	lic, err := h.issuer.Issue(ctx, params)
	if errors.Is(err, license.ErrEmailRequired) {
		render.Render(w, r, apierrors.Validation("Email is required"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "license generation failed", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ServerError("Server error during generation"))
		return
	}

	render.JSON(w, r, GenerateResponse{
		Success:        true,
		LicenseKey:     lic.LicenseKey,
		Email:          lic.Email,
		Product:        lic.Product,
		Created:        lic.CreatedDate,
		Expires:        lic.ExpiryDate,
		MaxActivations: lic.MaxActivations,
	})
}

// Stats handles GET /stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.stats.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "stats aggregation failed", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ServerError("Server error"))
		return
	}
	render.JSON(w, r, stats)
}

// generateValidationMessage maps validator errors to the wire messages the
// desktop clients expect.
func generateValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Email":
			return "Email is required"
		case "DurationDays":
			return "duration_days must not be negative"
		case "MaxActivations":
			return "max_activations must be at least 1"
		}
	}
	return "Request validation failed"
}
