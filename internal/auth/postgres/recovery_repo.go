// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/phonegate/phonegate/internal/auth"
)

// RecoveryRepository implements auth.RecoveryRepository using PostgreSQL.
type RecoveryRepository struct {
	db DB
}

// NewRecoveryRepository creates a new RecoveryRepository.
func NewRecoveryRepository(db DB) *RecoveryRepository {
	return &RecoveryRepository{db: db}
}

// Create stores a new recovery record and assigns its store-generated ID.
func (r *RecoveryRepository) Create(ctx context.Context, record *auth.RecoveryRecord) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO password_recovery (phone, code_hash, attempts, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		record.Phone,
		record.CodeHash,
		record.Attempts,
		record.ExpiresAt,
		record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return oops.Code("RECOVERY_CREATE_FAILED").
			With("operation", "insert recovery record").
			With("phone", record.Phone).
			Wrap(err)
	}
	return nil
}

// GetLatestByPhone retrieves the most recent recovery record for a
// phone number.
func (r *RecoveryRepository) GetLatestByPhone(ctx context.Context, phone string) (*auth.RecoveryRecord, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, phone, code_hash, attempts, expires_at, created_at
		FROM password_recovery
		WHERE phone = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, phone)

	record, err := r.scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RECOVERY_NOT_FOUND").
			With("phone", phone).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("RECOVERY_GET_BY_PHONE_FAILED").
			With("operation", "get latest recovery record").
			With("phone", phone).
			Wrap(err)
	}
	return record, nil
}

// CountRecentByPhone counts recovery records created for a phone number
// at or after the given instant.
func (r *RecoveryRepository) CountRecentByPhone(ctx context.Context, phone string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM password_recovery
		WHERE phone = $1 AND created_at >= $2
	`, phone, since).Scan(&count)
	if err != nil {
		return 0, oops.Code("RECOVERY_COUNT_FAILED").
			With("operation", "count recent recovery records").
			With("phone", phone).
			Wrap(err)
	}
	return count, nil
}

// IncrementAttempts bumps the failed-verification counter.
func (r *RecoveryRepository) IncrementAttempts(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `
		UPDATE password_recovery SET attempts = attempts + 1
		WHERE id = $1
	`, id)
	if err != nil {
		return oops.Code("RECOVERY_INCREMENT_ATTEMPTS_FAILED").
			With("operation", "increment attempts").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("RECOVERY_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ResetAttempts zeroes the failed-verification counter.
func (r *RecoveryRepository) ResetAttempts(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `
		UPDATE password_recovery SET attempts = 0
		WHERE id = $1
	`, id)
	if err != nil {
		return oops.Code("RECOVERY_RESET_ATTEMPTS_FAILED").
			With("operation", "reset attempts").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("RECOVERY_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteByPhone removes all recovery records for a phone number. A miss
// is a valid state.
func (r *RecoveryRepository) DeleteByPhone(ctx context.Context, phone string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM password_recovery WHERE phone = $1
	`, phone)
	if err != nil {
		return oops.Code("RECOVERY_DELETE_BY_PHONE_FAILED").
			With("operation", "delete recovery records by phone").
			With("phone", phone).
			Wrap(err)
	}
	return nil
}

// DeleteExpired removes all expired recovery records and returns the count.
func (r *RecoveryRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM password_recovery WHERE expires_at < $1
	`, time.Now())
	if err != nil {
		return 0, oops.Code("RECOVERY_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired recovery records").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanRecord scans a single row into a RecoveryRecord.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *RecoveryRepository) scanRecord(row pgx.Row) (*auth.RecoveryRecord, error) {
	var record auth.RecoveryRecord
	err := row.Scan(
		&record.ID,
		&record.Phone,
		&record.CodeHash,
		&record.Attempts,
		&record.ExpiresAt,
		&record.CreatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("RECOVERY_SCAN_FAILED").
			With("operation", "scan recovery record").
			Wrap(err)
	}
	return &record, nil
}

// Compile-time interface check.
var _ auth.RecoveryRepository = (*RecoveryRepository)(nil)
