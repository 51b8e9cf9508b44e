// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/samber/oops"
)

// SessionTokenBytes is the entropy of a session token.
// 32 bytes = 256 bits = 64 hex chars.
const SessionTokenBytes = 32

// Session represents one logged-in device or browser. Only the SHA-256
// hash of the token is stored; the plaintext token lives in the
// client's cookie.
type Session struct {
	ID          int64
	UserID      int64
	TokenHash   string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	LastSeenAt  time.Time
}

// NewSession creates a validated Session instance. The ID is assigned
// by the store on insert.
func NewSession(userID int64, tokenHash, fingerprint string, expiresAt time.Time) (*Session, error) {
	if userID <= 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID must be positive")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if fingerprint == "" {
		return nil, oops.Code("SESSION_INVALID_FINGERPRINT").Errorf("fingerprint cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	now := time.Now()
	return &Session{
		UserID:      userID,
		TokenHash:   tokenHash,
		Fingerprint: fingerprint,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		LastSeenAt:  now,
	}, nil
}

// IsExpired returns true if the session passed its absolute expiry.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session would be expired at the
// given time. Useful for testing with deterministic time values.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// IsIdleAt returns true if the gap between the last activity and the
// given time exceeds the idle timeout.
func (s *Session) IsIdleAt(t time.Time, idleTimeout time.Duration) bool {
	return t.Sub(s.LastSeenAt) > idleTimeout
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error). The plaintext token
// is sent to the client; the hash is stored in the database.
func GenerateSessionToken() (token, hash string, err error) {
	raw := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(raw); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}
	token = hex.EncodeToString(raw)
	return token, HashSessionToken(token), nil
}

// HashSessionToken computes the hex SHA-256 hash of a session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifySessionToken checks if the plaintext token matches the stored
// hash using a constant-time comparison.
func VerifySessionToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashSessionToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// Fingerprint derives the device fingerprint bound to a session at
// login: the hex SHA-256 of the user-agent string and remote address.
// It is re-derived on every request; a mismatch invalidates the
// session.
func Fingerprint(userAgent, ipAddress string) string {
	h := sha256.Sum256([]byte(userAgent + "|" + ipAddress))
	return hex.EncodeToString(h[:])
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session and assigns its ID.
	// The token hash is unique across all sessions; a collision is
	// reported as an error wrapping ErrDuplicate.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// UpdateLastSeen updates the LastSeenAt timestamp for a session.
	UpdateLastSeen(ctx context.Context, id int64, lastSeen time.Time) error

	// DeleteByTokenHash removes the session with the given token hash.
	// Deleting an absent token is not an error; the bool reports
	// whether a row was removed.
	DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error)

	// DeleteByUser removes all sessions for a user.
	DeleteByUser(ctx context.Context, userID int64) error

	// DeleteExpired removes all expired sessions and returns the count
	// of deleted records.
	DeleteExpired(ctx context.Context) (int64, error)
}
