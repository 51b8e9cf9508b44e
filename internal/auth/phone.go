// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth

import (
	"fmt"

	"github.com/samber/oops"
)

// canonicalDigits is the number of significant digits in a canonical
// phone number (the part after the +7 country code).
const canonicalDigits = 10

// NormalizePhone converts a raw phone number into its canonical
// rendering "+7-XXX-XXX-XX-XX".
//
// All non-digit characters are stripped. An 11-digit sequence starting
// with 7 or 8 has its leading digit dropped; exactly 10 digits must
// remain. Normalization is idempotent: applying it to its own output
// yields the same canonical form.
func NormalizePhone(raw string) (string, error) {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}

	if len(digits) == canonicalDigits+1 && (digits[0] == '7' || digits[0] == '8') {
		digits = digits[1:]
	}
	if len(digits) != canonicalDigits {
		return "", oops.Code("AUTH_INVALID_PHONE").
			With("digit_count", len(digits)).
			Errorf("phone number must contain %d digits", canonicalDigits)
	}

	return fmt.Sprintf("+7-%s-%s-%s-%s",
		digits[0:3], digits[3:6], digits[6:8], digits[8:10]), nil
}
