// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/samber/oops"
)

// Default session lifetimes.
const (
	DefaultSessionDuration = time.Hour
	DefaultIdleTimeout     = 15 * time.Minute
)

// SessionManager issues, validates and revokes session tokens. A
// session is Active while its token resolves to a non-expired row
// whose fingerprint matches and whose idle window is fresh; any
// violation deletes the row, which is terminal. A new login always
// creates a brand-new session.
type SessionManager struct {
	sessions SessionRepository
	duration time.Duration
	idle     time.Duration
}

// NewSessionManager creates a SessionManager. Non-positive durations
// fall back to the defaults.
func NewSessionManager(sessions SessionRepository, duration, idleTimeout time.Duration) (*SessionManager, error) {
	if sessions == nil {
		return nil, oops.Code("SESSION_MANAGER_INVALID").Errorf("session repository is required")
	}
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &SessionManager{sessions: sessions, duration: duration, idle: idleTimeout}, nil
}

// Issue creates a session for the user bound to the given fingerprint
// and returns the plaintext token. Expired rows are purged
// opportunistically; validation rejects them regardless.
func (m *SessionManager) Issue(ctx context.Context, userID int64, fingerprint string) (string, error) {
	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return "", oops.Code("SESSION_ISSUE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(userID, tokenHash, fingerprint, time.Now().Add(m.duration))
	if err != nil {
		return "", oops.Code("SESSION_ISSUE_FAILED").
			With("operation", "build session").
			Wrap(err)
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		return "", oops.Code("SESSION_ISSUE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	// Best effort cleanliness; failures never block the login.
	_, _ = m.sessions.DeleteExpired(ctx) //nolint:errcheck

	return token, nil
}

// Validate resolves a token to its session and enforces the user
// binding, fingerprint match, absolute expiry and idle timeout. Any
// expiry or security violation destroys the session before returning,
// so the token can never validate again.
func (m *SessionManager) Validate(ctx context.Context, token string, userID int64, fingerprint string) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_INVALID").Errorf("session token cannot be empty")
	}

	session, err := m.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.UserID != userID {
		return nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
	}

	if session.IsExpired() {
		_ = m.Destroy(ctx, token) //nolint:errcheck // Row is dead either way; purge also sweeps it.
		return nil, oops.Code("SESSION_EXPIRED").Errorf("session has expired")
	}

	if subtle.ConstantTimeCompare([]byte(session.Fingerprint), []byte(fingerprint)) != 1 {
		recordFingerprintMismatch()
		_ = m.Destroy(ctx, token) //nolint:errcheck // Row removal is the point; nothing to recover.
		return nil, oops.Code("SECURITY_FINGERPRINT_MISMATCH").
			Errorf("session fingerprint mismatch, re-authentication required")
	}

	now := time.Now()
	if session.IsIdleAt(now, m.idle) {
		_ = m.Destroy(ctx, token) //nolint:errcheck
		return nil, oops.Code("SESSION_IDLE_TIMEOUT").
			With("idle_timeout", m.idle.String()).
			Errorf("session idle timeout exceeded, re-authentication required")
	}

	// Touch activity; validation succeeds even if the touch fails.
	_ = m.sessions.UpdateLastSeen(ctx, session.ID, now) //nolint:errcheck

	return session, nil
}

// Destroy deletes the session for the given token. Destroying an
// unknown token is not an error.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := m.sessions.DeleteByTokenHash(ctx, HashSessionToken(token)); err != nil {
		return oops.Code("SESSION_DESTROY_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// PurgeExpired removes all sessions past their absolute expiry and
// returns the count of deleted rows.
func (m *SessionManager) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := m.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_PURGE_FAILED").Wrap(err)
	}
	return n, nil
}
