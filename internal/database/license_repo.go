package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ngclicense/internal/license"
)

// LicenseRepo persists license records. It implements license.Store.
type LicenseRepo struct {
	db *DB
}

// NewLicenseRepo wires a LicenseRepo over db.
func NewLicenseRepo(db *DB) *LicenseRepo {
	return &LicenseRepo{db: db}
}

const licenseColumns = `license_key, email, product, created_date, expiry_date,
       status, activations, max_activations, last_validated`

// GetByKey returns the license for key, or license.ErrNotFound.
func (r *LicenseRepo) GetByKey(ctx context.Context, key string) (*license.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE license_key = ?`

	lic := &license.License{}
	var lastValidated sql.NullString
	err := r.db.reader.QueryRowContext(ctx, query, key).Scan(
		&lic.LicenseKey,
		&lic.Email,
		&lic.Product,
		&lic.CreatedDate,
		&lic.ExpiryDate,
		&lic.Status,
		&lic.Activations,
		&lic.MaxActivations,
		&lastValidated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, license.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if lastValidated.Valid {
		t, err := time.Parse(time.RFC3339, lastValidated.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_validated %q: %w", lastValidated.String, err)
		}
		lic.LastValidated = &t
	}
	return lic, nil
}

// Insert stores a new license. A primary-key collision maps to
// license.ErrDuplicateKey so issuance can retry with a fresh key.
func (r *LicenseRepo) Insert(ctx context.Context, lic *license.License) error {
	query := `
		INSERT INTO licenses (` + licenseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.writer.ExecContext(ctx, query,
		lic.LicenseKey,
		lic.Email,
		lic.Product,
		lic.CreatedDate,
		lic.ExpiryDate,
		lic.Status,
		lic.Activations,
		lic.MaxActivations,
		timeToNullString(lic.LastValidated),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return license.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// MarkValidated records the timestamp of a successful validation.
func (r *LicenseRepo) MarkValidated(ctx context.Context, key string, at time.Time) error {
	res, err := r.db.writer.ExecContext(ctx,
		`UPDATE licenses SET last_validated = ? WHERE license_key = ?`,
		at.Format(time.RFC3339), key,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return license.ErrNotFound
	}
	return nil
}

// IncrementActivations bumps the activation counter by one in a single
// conditional UPDATE. The ceiling check and the increment execute as one
// statement on the serialized writer connection, so concurrent activations
// cannot jointly pass the check and exceed max_activations.
func (r *LicenseRepo) IncrementActivations(ctx context.Context, key string) (int, bool, error) {
	var used int
	err := r.db.writer.QueryRowContext(ctx, `
		UPDATE licenses
		SET activations = activations + 1
		WHERE license_key = ?
		  AND status = ?
		  AND activations < max_activations
		RETURNING activations
	`, key, license.StatusActive).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return used, true, nil
}

// LicenseCounts reports the aggregate totals used by the stats endpoint.
// Expiry is compared on the date component, matching the stored format.
func (r *LicenseRepo) LicenseCounts(ctx context.Context) (total, active, expired int, err error) {
	err = r.db.reader.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = ?),
		       COUNT(*) FILTER (WHERE expiry_date < date('now', 'localtime'))
		FROM licenses
	`, license.StatusActive).Scan(&total, &active, &expired)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("count licenses: %w", err)
	}
	return total, active, expired, nil
}

func timeToNullString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}
