// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// User represents a registered account keyed by canonical phone number.
// PasswordHash is opaque and must never be logged or rendered.
type User struct {
	ID           int64
	Phone        string
	Email        *string
	PasswordHash string
	CreatedAt    time.Time
}

// NewUser creates a validated User. Phone must already be in canonical
// form (see NormalizePhone); the ID is assigned by the store on insert.
func NewUser(phone, passwordHash string) (*User, error) {
	canonical, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if canonical != phone {
		return nil, oops.Code("AUTH_PHONE_NOT_CANONICAL").
			Errorf("phone must be in canonical form")
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &User{
		Phone:        canonical,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}, nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user and assigns its ID.
	// A phone uniqueness violation is reported as an error wrapping
	// ErrDuplicate, distinct from other failures.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByPhone retrieves a user by canonical phone number.
	GetByPhone(ctx context.Context, phone string) (*User, error)

	// UpdatePassword replaces the password hash for a user.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// Delete removes a user.
	Delete(ctx context.Context, id int64) error
}
