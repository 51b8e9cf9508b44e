// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/samber/oops"
)

// Recovery code configuration bounds and defaults.
const (
	DefaultRecoveryCodeLength = 6
	MinRecoveryCodeLength     = 4
	MaxRecoveryCodeLength     = 10

	DefaultRecoveryCodeExpiry = 15 * time.Minute
	DefaultRecoveryRateWindow = 15 * time.Minute
	DefaultRecoveryRateMax    = 3
	DefaultRecoveryAttempts   = 3
)

// RecoveryRecord is one outstanding password-reset code for a phone
// number. Only the slow hash of the code is stored; the plaintext goes
// to the delivery channel and is never persisted or logged in
// production paths.
type RecoveryRecord struct {
	ID        int64
	Phone     string
	CodeHash  string
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewRecoveryRecord creates a validated RecoveryRecord. The ID is
// assigned by the store on insert.
func NewRecoveryRecord(phone, codeHash string, expiresAt time.Time) (*RecoveryRecord, error) {
	if phone == "" {
		return nil, oops.Code("RECOVERY_INVALID_PHONE").Errorf("phone cannot be empty")
	}
	if codeHash == "" {
		return nil, oops.Code("RECOVERY_INVALID_HASH").Errorf("code hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("RECOVERY_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	return &RecoveryRecord{
		Phone:     phone,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// IsExpired returns true if the recovery code has expired.
func (r *RecoveryRecord) IsExpired() bool {
	return r.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the code would be expired at the given
// time. Useful for testing with deterministic time values.
func (r *RecoveryRecord) IsExpiredAt(t time.Time) bool {
	return t.After(r.ExpiresAt)
}

// GenerateRecoveryCode produces a uniformly random, zero-padded
// numeric code of the given length.
func GenerateRecoveryCode(length int) (string, error) {
	if length < MinRecoveryCodeLength || length > MaxRecoveryCodeLength {
		return "", oops.Code("RECOVERY_INVALID_CODE_LENGTH").
			With("length", length).
			Errorf("code length must be between %d and %d digits",
				MinRecoveryCodeLength, MaxRecoveryCodeLength)
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", oops.Code("RECOVERY_CODE_GENERATE_FAILED").Wrap(err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

// RecoveryRepository manages recovery record persistence.
type RecoveryRepository interface {
	// Create stores a new recovery record and assigns its ID.
	Create(ctx context.Context, record *RecoveryRecord) error

	// GetLatestByPhone retrieves the most recent recovery record for a
	// phone number.
	GetLatestByPhone(ctx context.Context, phone string) (*RecoveryRecord, error)

	// CountRecentByPhone counts recovery records created for a phone
	// number at or after the given instant. Drives the sliding-window
	// rate limit.
	CountRecentByPhone(ctx context.Context, phone string, since time.Time) (int, error)

	// IncrementAttempts bumps the failed-verification counter.
	IncrementAttempts(ctx context.Context, id int64) error

	// ResetAttempts zeroes the failed-verification counter.
	ResetAttempts(ctx context.Context, id int64) error

	// DeleteByPhone removes all recovery records for a phone number.
	DeleteByPhone(ctx context.Context, phone string) error

	// DeleteExpired removes all expired recovery records and returns
	// the count of deleted records.
	DeleteExpired(ctx context.Context) (int64, error)
}
