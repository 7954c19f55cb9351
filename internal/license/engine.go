package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// maxKeyAttempts bounds issuance retries on key collision. With 64 bits of
// entropy a collision is practically impossible; the bound exists so a
// misbehaving store cannot spin the handler forever.
const maxKeyAttempts = 5

// ValidationResult is the outcome of a single validation attempt.
type ValidationResult struct {
	Valid         bool
	Message       string
	Status        string
	Product       string
	Expires       string
	DaysRemaining int
}

// ActivationResult is the outcome of a single activation attempt.
type ActivationResult struct {
	Success              bool
	Message              string
	ActivationsUsed      int
	ActivationsRemaining int
}

// CheckResult is a read-only license view. DisplayStatus is "expired" for a
// past-expiry license regardless of the stored status, which is left intact.
type CheckResult struct {
	Found         bool
	License       License
	DisplayStatus string
	DaysRemaining int
}

// IssueParams are the inputs to license issuance. Email is required;
// Product and MaxActivations fall back to package defaults when zero.
// DurationDays is taken literally, so zero issues an already-expired license.
type IssueParams struct {
	Email          string
	Product        string
	DurationDays   int
	MaxActivations int
}

// Engine evaluates license state and owns every transition. It writes one
// audit entry per validation attempt that reaches storage.
type Engine struct {
	store  Store
	audit  AuditLog
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine constructs an Engine over the given store and audit log.
func NewEngine(store Store, audit AuditLog, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		audit:  audit,
		logger: logger.With(slog.String("component", "license_engine")),
		now:    time.Now,
	}
}

// Validate decides whether key currently authorizes use and records the
// decision. Every branch writes exactly one audit entry, except an empty
// key, which is rejected before any storage access with ErrEmptyKey.
//
// The activation ceiling deliberately does not block validation: a license
// at max activations still validates. Only Activate enforces the ceiling.
func (e *Engine) Validate(ctx context.Context, key, accountNumber, sourceIP string) (ValidationResult, error) {
	key = NormalizeKey(key)
	if key == "" {
		return ValidationResult{}, ErrEmptyKey
	}
	now := e.now()

	lic, err := e.store.GetByKey(ctx, key)
	if errors.Is(err, ErrNotFound) {
		if err := e.record(ctx, key, sourceIP, now, ResultNotFound); err != nil {
			return ValidationResult{}, err
		}
		return ValidationResult{Valid: false, Message: "License key not found"}, nil
	}
	if err != nil {
		return ValidationResult{}, fmt.Errorf("license: lookup %s: %w", MaskKey(key), err)
	}

	expiry, err := lic.ExpiresAt()
	if err != nil {
		return ValidationResult{}, fmt.Errorf("license: malformed expiry date %q for %s: %w",
			lic.ExpiryDate, MaskKey(key), err)
	}
	if expiry.Before(now) {
		if err := e.record(ctx, key, sourceIP, now, ResultExpired); err != nil {
			return ValidationResult{}, err
		}
		return ValidationResult{
			Valid:   false,
			Message: "License has expired",
			Expires: lic.ExpiryDate,
		}, nil
	}

	if lic.Status != StatusActive {
		if err := e.record(ctx, key, sourceIP, now, ResultInactive); err != nil {
			return ValidationResult{}, err
		}
		return ValidationResult{
			Valid:   false,
			Message: "License status: " + lic.Status,
		}, nil
	}

	if err := e.store.MarkValidated(ctx, key, now); err != nil {
		return ValidationResult{}, fmt.Errorf("license: mark validated %s: %w", MaskKey(key), err)
	}
	if err := e.record(ctx, key, sourceIP, now, ResultSuccess); err != nil {
		return ValidationResult{}, err
	}

	e.logger.InfoContext(ctx, "license validated",
		slog.String("license_key", MaskKey(key)),
		slog.String("account_number", accountNumber),
		slog.String("product", lic.Product),
		slog.String("expires", lic.ExpiryDate),
	)

	return ValidationResult{
		Valid:         true,
		Message:       "License valid",
		Status:        lic.Status,
		Product:       lic.Product,
		Expires:       lic.ExpiryDate,
		DaysRemaining: daysUntil(expiry, now),
	}, nil
}

// Activate consumes one activation against the license's ceiling. The
// increment is atomic with respect to the ceiling check, so concurrent
// activations on the same key can never jointly exceed max_activations.
func (e *Engine) Activate(ctx context.Context, key, accountNumber string) (ActivationResult, error) {
	key = NormalizeKey(key)
	if key == "" {
		return ActivationResult{}, ErrEmptyKey
	}

	lic, err := e.store.GetByKey(ctx, key)
	if errors.Is(err, ErrNotFound) {
		activationsTotal.WithLabelValues("not_found").Inc()
		return ActivationResult{Success: false, Message: "License not found"}, nil
	}
	if err != nil {
		return ActivationResult{}, fmt.Errorf("license: lookup %s: %w", MaskKey(key), err)
	}

	if lic.Status != StatusActive {
		activationsTotal.WithLabelValues("inactive").Inc()
		return ActivationResult{Success: false, Message: "License is " + lic.Status}, nil
	}

	used, applied, err := e.store.IncrementActivations(ctx, key)
	if err != nil {
		return ActivationResult{}, fmt.Errorf("license: increment activations %s: %w", MaskKey(key), err)
	}
	if !applied {
		activationsTotal.WithLabelValues("limit_reached").Inc()
		return ActivationResult{
			Success: false,
			Message: fmt.Sprintf("Maximum activations (%d) reached", lic.MaxActivations),
		}, nil
	}

	activationsTotal.WithLabelValues("success").Inc()
	e.logger.InfoContext(ctx, "license activated",
		slog.String("license_key", MaskKey(key)),
		slog.String("account_number", accountNumber),
		slog.Int("activations_used", used),
		slog.Int("activations_remaining", lic.MaxActivations-used),
	)

	return ActivationResult{
		Success:              true,
		Message:              "License activated successfully",
		ActivationsUsed:      used,
		ActivationsRemaining: lic.MaxActivations - used,
	}, nil
}

// Issue mints a new license. The key is generated fresh and insertion
// retries on the improbable event of a collision; the store's uniqueness
// constraint is the final arbiter.
func (e *Engine) Issue(ctx context.Context, p IssueParams) (*License, error) {
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	product := p.Product
	if product == "" {
		product = DefaultProduct
	}
	maxActivations := p.MaxActivations
	if maxActivations <= 0 {
		maxActivations = DefaultMaxActivations
	}

	now := e.now()
	lic := &License{
		Email:          email,
		Product:        product,
		CreatedDate:    now.Format(DateLayout),
		ExpiryDate:     now.AddDate(0, 0, p.DurationDays).Format(DateLayout),
		Status:         StatusActive,
		Activations:    0,
		MaxActivations: maxActivations,
	}

	for attempt := 1; attempt <= maxKeyAttempts; attempt++ {
		key, err := GenerateKey()
		if err != nil {
			return nil, err
		}
		lic.LicenseKey = key

		err = e.store.Insert(ctx, lic)
		if errors.Is(err, ErrDuplicateKey) {
			e.logger.WarnContext(ctx, "license key collision, regenerating",
				slog.String("license_key", MaskKey(key)),
				slog.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("license: insert %s: %w", MaskKey(key), err)
		}

		issuedTotal.Inc()
		e.logger.InfoContext(ctx, "license issued",
			slog.String("license_key", MaskKey(key)),
			slog.String("product", product),
			slog.String("expires", lic.ExpiryDate),
			slog.Int("max_activations", maxActivations),
		)
		return lic, nil
	}
	return nil, fmt.Errorf("license: could not allocate a unique key after %d attempts", maxKeyAttempts)
}

// CheckStatus is a read-only view of a license. It never writes the audit
// log and never mutates state; an expired license is reported with display
// status "expired" while the stored status is left as-is.
func (e *Engine) CheckStatus(ctx context.Context, key string) (CheckResult, error) {
	key = NormalizeKey(key)
	if key == "" {
		return CheckResult{}, ErrEmptyKey
	}

	lic, err := e.store.GetByKey(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return CheckResult{Found: false}, nil
	}
	if err != nil {
		return CheckResult{}, fmt.Errorf("license: lookup %s: %w", MaskKey(key), err)
	}

	expiry, err := lic.ExpiresAt()
	if err != nil {
		return CheckResult{}, fmt.Errorf("license: malformed expiry date %q for %s: %w",
			lic.ExpiryDate, MaskKey(key), err)
	}

	now := e.now()
	display := lic.Status
	if expiry.Before(now) {
		display = "expired"
	}
	days := daysUntil(expiry, now)
	if days < 0 {
		days = 0
	}

	return CheckResult{
		Found:         true,
		License:       *lic,
		DisplayStatus: display,
		DaysRemaining: days,
	}, nil
}

// record appends one audit entry and counts it. A failed append surfaces as
// an error for the request; audit writes are never silently dropped.
func (e *Engine) record(ctx context.Context, key, sourceIP string, at time.Time, result string) error {
	entry := LogEntry{
		LicenseKey: key,
		Timestamp:  at,
		IPAddress:  sourceIP,
		Result:     result,
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		return fmt.Errorf("license: append audit entry for %s: %w", MaskKey(key), err)
	}
	validationsTotal.WithLabelValues(result).Inc()
	if result != ResultSuccess {
		e.logger.InfoContext(ctx, "license validation rejected",
			slog.String("license_key", MaskKey(key)),
			slog.String("result", result),
			slog.String("ip_address", sourceIP),
		)
	}
	return nil
}

// daysUntil reports whole days from now until expiry, rounding partial days
// up: a license expiring tomorrow at midnight has one day remaining.
func daysUntil(expiry, now time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}
