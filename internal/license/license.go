package license

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for created and expiry dates.
const DateLayout = "2006-01-02"

// Default values applied when issuance fields are omitted.
const (
	DefaultProduct        = "NGC_EA"
	DefaultDurationDays   = 365
	DefaultMaxActivations = 1
)

// StatusActive is the only stored status under which a license can validate
// or activate. Any other value is an admin-set state (e.g. "suspended") and
// is reported verbatim to the caller.
const StatusActive = "active"

// Validation log results, one per audit entry.
const (
	ResultNotFound = "NOT_FOUND"
	ResultExpired  = "EXPIRED"
	ResultInactive = "INACTIVE"
	ResultSuccess  = "SUCCESS"
)

// License is one issued license record. Key, dates, email, product and
// max_activations are immutable after creation; only activations and
// last_validated change, and only through the engine.
type License struct {
	LicenseKey     string
	Email          string
	Product        string
	CreatedDate    string // DateLayout
	ExpiryDate     string // DateLayout
	Status         string
	Activations    int
	MaxActivations int
	LastValidated  *time.Time
}

// ExpiresAt parses the expiry date at midnight local time.
func (l *License) ExpiresAt() (time.Time, error) {
	return time.ParseInLocation(DateLayout, l.ExpiryDate, time.Local)
}

// LogEntry is one validation attempt. Entries are append-only and are never
// updated or deleted by this system.
type LogEntry struct {
	ID         int64
	LicenseKey string
	Timestamp  time.Time
	IPAddress  string
	Result     string
}

// Store is the durable license table. Implementations must make
// IncrementActivations atomic with respect to concurrent callers: two
// activations racing on the same key must never jointly exceed the ceiling.
type Store interface {
	// GetByKey returns the license for key, or ErrNotFound.
	GetByKey(ctx context.Context, key string) (*License, error)

	// Insert stores a new license, or returns ErrDuplicateKey if the key
	// already exists. It must never silently overwrite.
	Insert(ctx context.Context, lic *License) error

	// MarkValidated sets last_validated for key.
	MarkValidated(ctx context.Context, key string, at time.Time) error

	// IncrementActivations bumps the activation counter by one, but only
	// while activations < max_activations and status is active. It reports
	// the resulting counter and whether the increment was applied.
	IncrementActivations(ctx context.Context, key string) (used int, applied bool, err error)
}

// AuditLog records validation attempts.
type AuditLog interface {
	Append(ctx context.Context, entry LogEntry) error
}

// Sentinel errors. ErrEmptyKey and ErrEmailRequired are client input errors
// raised before any storage access; the rest signal store conditions.
var (
	ErrNotFound      = errors.New("license not found")
	ErrDuplicateKey  = errors.New("license key already exists")
	ErrEmptyKey      = errors.New("license key is required")
	ErrEmailRequired = errors.New("email is required")
)

// NormalizeKey trims surrounding whitespace and uppercases a presented
// license key. Clients paste keys from emails; this forgives the usual noise.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// MaskKey shortens a license key for log output. Full keys are credentials
// and must not appear in logs.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:8] + "***"
}
