// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth

import (
	"net/mail"

	"github.com/samber/oops"
)

// Password validation constraints.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 255
)

// MaxEmailLength is the maximum accepted e-mail address length.
const MaxEmailLength = 255

// ValidatePassword validates a password against the account policy:
// 6 to 255 characters, printable ASCII only (Cyrillic and other
// non-Latin scripts are rejected), and at least one Latin letter and
// one digit.
func ValidatePassword(password string) error {
	if password == "" {
		return oops.Code("AUTH_INVALID_PASSWORD").Errorf("password cannot be empty")
	}
	if len(password) < MinPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("max", MaxPasswordLength).
			Errorf("password must be at most %d characters", MaxPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= '!' && r <= '~':
			// Printable ASCII punctuation is allowed.
		default:
			return oops.Code("AUTH_INVALID_PASSWORD").
				Errorf("password may contain only Latin letters, digits and punctuation")
		}
	}
	if !hasLetter || !hasDigit {
		return oops.Code("AUTH_INVALID_PASSWORD").
			Errorf("password must contain at least one letter and one digit")
	}
	return nil
}

// ValidateEmail validates an e-mail address: non-empty, at most 255
// characters, and parseable as a bare RFC 5322 address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("e-mail cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Errorf("e-mail must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("e-mail has an invalid format")
	}
	return nil
}
