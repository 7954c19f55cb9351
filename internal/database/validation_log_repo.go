package database

import (
	"context"
	"fmt"
	"time"

	"ngclicense/internal/license"
)

// ValidationLogRepo persists the append-only audit trail of validation
// attempts. It implements license.AuditLog. Entries are never updated or
// deleted by this system.
type ValidationLogRepo struct {
	db *DB
}

// NewValidationLogRepo wires a ValidationLogRepo over db.
func NewValidationLogRepo(db *DB) *ValidationLogRepo {
	return &ValidationLogRepo{db: db}
}

// Append writes one log entry. The id is assigned by the store.
func (r *ValidationLogRepo) Append(ctx context.Context, entry license.LogEntry) error {
	_, err := r.db.writer.ExecContext(ctx, `
		INSERT INTO validation_logs (license_key, timestamp, ip_address, result)
		VALUES (?, ?, ?, ?)
	`,
		entry.LicenseKey,
		entry.Timestamp.Format(time.RFC3339),
		entry.IPAddress,
		entry.Result,
	)
	if err != nil {
		return fmt.Errorf("append validation log: %w", err)
	}
	return nil
}

// CountOn counts log entries whose date component equals day (DateLayout).
// Timestamps are stored in RFC 3339, which starts with the calendar date, so
// a prefix match selects exactly one day.
func (r *ValidationLogRepo) CountOn(ctx context.Context, day string) (int, error) {
	var n int
	err := r.db.reader.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM validation_logs WHERE timestamp LIKE ? || '%'`, day,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count validation logs on %s: %w", day, err)
	}
	return n, nil
}
