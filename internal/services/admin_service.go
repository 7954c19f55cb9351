// Package services holds request-facing business logic that sits between the
// HTTP handlers and the storage layer.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ngclicense/internal/license"
)

// LicenseCounter aggregates license totals.
type LicenseCounter interface {
	LicenseCounts(ctx context.Context) (total, active, expired int, err error)
}

// ValidationCounter counts audit log entries for one calendar day.
type ValidationCounter interface {
	CountOn(ctx context.Context, day string) (int, error)
}

// Stats is the admin statistics response.
type Stats struct {
	TotalLicenses    int `json:"total_licenses"`
	ActiveLicenses   int `json:"active_licenses"`
	ExpiredLicenses  int `json:"expired_licenses"`
	ValidationsToday int `json:"validations_today"`
}

// AdminService serves the admin-gated aggregate reads. Authentication
// happens in middleware before any of this code runs.
type AdminService struct {
	licenses LicenseCounter
	logs     ValidationCounter
	logger   *slog.Logger
	now      func() time.Time
}

// NewAdminService wires an AdminService over the given counters.
func NewAdminService(licenses LicenseCounter, logs ValidationCounter, logger *slog.Logger) *AdminService {
	return &AdminService{
		licenses: licenses,
		logs:     logs,
		logger:   logger.With(slog.String("component", "admin_service")),
		now:      time.Now,
	}
}

// Stats aggregates license totals and today's validation count.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	total, active, expired, err := s.licenses.LicenseCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("services: license counts: %w", err)
	}

	today := s.now().Format(license.DateLayout)
	validations, err := s.logs.CountOn(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("services: validations on %s: %w", today, err)
	}

	return &Stats{
		TotalLicenses:    total,
		ActiveLicenses:   active,
		ExpiredLicenses:  expired,
		ValidationsToday: validations,
	}, nil
}
