package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngclicense/internal/license"
)

func TestValidationLogAppendAndCountOn(t *testing.T) {
	repo := NewValidationLogRepo(testDB(t))
	ctx := context.Background()

	entries := []license.LogEntry{
		{
			LicenseKey: "NGC-1111-2222-3333-4444",
			Timestamp:  time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
			IPAddress:  "10.0.0.1",
			Result:     license.ResultSuccess,
		},
		{
			LicenseKey: "NGC-1111-2222-3333-4444",
			Timestamp:  time.Date(2025, 6, 15, 18, 30, 0, 0, time.UTC),
			IPAddress:  "10.0.0.2",
			Result:     license.ResultExpired,
		},
		{
			LicenseKey: "NGC-0000-0000-0000-0000",
			Timestamp:  time.Date(2025, 6, 16, 0, 0, 1, 0, time.UTC),
			IPAddress:  "10.0.0.3",
			Result:     license.ResultNotFound,
		},
	}
	for _, entry := range entries {
		require.NoError(t, repo.Append(ctx, entry))
	}

	n, err := repo.CountOn(ctx, "2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.CountOn(ctx, "2025-06-16")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.CountOn(ctx, "2025-06-17")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// Audit entries have no foreign key into licenses: not-found attempts are
// logged for keys that never existed.
func TestValidationLogAcceptsUnknownKeys(t *testing.T) {
	repo := NewValidationLogRepo(testDB(t))

	err := repo.Append(context.Background(), license.LogEntry{
		LicenseKey: "NGC-DEAD-BEEF-DEAD-BEEF",
		Timestamp:  time.Now(),
		IPAddress:  "203.0.113.9",
		Result:     license.ResultNotFound,
	})
	require.NoError(t, err)
}
