// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// Service is the façade the page layer calls for registration, login,
// logout and authenticated-caller lookup.
type Service struct {
	users    UserRepository
	sessions *SessionManager
	hasher   PasswordHasher
}

// NewService creates a Service.
func NewService(users UserRepository, sessions *SessionManager, hasher PasswordHasher) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("user repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("session manager is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	return &Service{users: users, sessions: sessions, hasher: hasher}, nil
}

// dummyPasswordHash is verified against when a user doesn't exist so
// login takes the same time either way. This is NOT a real credential:
// it is a fake hash that will never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates an account for a phone number. Validation failures
// are field-level; an already-registered phone surfaces as a distinct
// AUTH_DUPLICATE_PHONE conflict.
func (s *Service) Register(ctx context.Context, rawPhone, password string) (*User, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(phone, passwordHash)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "build user").
			Wrap(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, oops.Code("AUTH_DUPLICATE_PHONE").
				Errorf("an account with this phone number already exists")
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return user, nil
}

// Login authenticates a user and issues a session bound to the
// caller's device fingerprint. Any credential failure returns the same
// generic error regardless of whether the phone or the password was
// wrong, and password verification runs even for unknown phones so
// response time stays constant.
func (s *Service) Login(ctx context.Context, rawPhone, password, userAgent, ipAddress string) (*User, string, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, "", err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, "", err
	}

	user, lookupErr := s.users.GetByPhone(ctx, phone)

	targetHash := dummyPasswordHash
	userExists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		// Verify against the dummy hash below.
	default:
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by phone").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && userExists {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !userExists || !valid {
		recordLogin("invalid_credentials")
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").
			Errorf("invalid phone number or password")
	}

	token, err := s.sessions.Issue(ctx, user.ID, Fingerprint(userAgent, ipAddress))
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue session").
			Wrap(err)
	}

	recordLogin("success")
	return user, token, nil
}

// Logout destroys the session for the given token. Idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// CurrentSession resolves a token and fingerprint to the owning user.
// Used by any page that requires an authenticated caller.
func (s *Service) CurrentSession(ctx context.Context, token, fingerprint string) (*User, error) {
	if token == "" {
		return nil, oops.Code("SESSION_INVALID").Errorf("session token cannot be empty")
	}

	session, err := s.sessions.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	validated, err := s.sessions.Validate(ctx, token, session.UserID, fingerprint)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, validated.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Account removed while the session row survived; the
			// session is worthless, drop it.
			_ = s.sessions.Destroy(ctx, token) //nolint:errcheck
			return nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
		}
		return nil, oops.Code("AUTH_CURRENT_SESSION_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}
	return user, nil
}
