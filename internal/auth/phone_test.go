// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonegate/phonegate/internal/auth"
	"github.com/phonegate/phonegate/pkg/errutil"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare ten digits", raw: "9001234567", want: "+7-900-123-45-67"},
		{name: "leading 8", raw: "89001234567", want: "+7-900-123-45-67"},
		{name: "leading 7", raw: "79001234567", want: "+7-900-123-45-67"},
		{name: "plus seven", raw: "+79001234567", want: "+7-900-123-45-67"},
		{name: "grouped with punctuation", raw: "8 (900) 123-45-67", want: "+7-900-123-45-67"},
		{name: "already canonical", raw: "+7-900-123-45-67", want: "+7-900-123-45-67"},
		{name: "spaces and dots", raw: "7 900.123.45.67", want: "+7-900-123-45-67"},
		{name: "too short", raw: "12345", wantErr: true},
		{name: "too long", raw: "790012345678", wantErr: true},
		{name: "eleven digits without country prefix", raw: "99001234567", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "letters only", raw: "not-a-phone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.NormalizePhone(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "AUTH_INVALID_PHONE")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// All spellings of the same number must collapse to one canonical form,
// otherwise the unique index on phone cannot prevent duplicate accounts.
func TestNormalizePhone_EquivalentSpellings(t *testing.T) {
	spellings := []string{
		"9001234567",
		"89001234567",
		"79001234567",
		"+7 (900) 123-45-67",
		"8-900-123-45-67",
	}

	first, err := auth.NormalizePhone(spellings[0])
	require.NoError(t, err)

	for _, s := range spellings[1:] {
		got, err := auth.NormalizePhone(s)
		require.NoError(t, err, "spelling %q", s)
		assert.Equal(t, first, got, "spelling %q", s)
	}
}

// Normalizing an already-canonical number must be a no-op.
func TestNormalizePhone_Idempotent(t *testing.T) {
	canonical, err := auth.NormalizePhone("89001234567")
	require.NoError(t, err)

	again, err := auth.NormalizePhone(canonical)
	require.NoError(t, err)
	assert.Equal(t, canonical, again)
}
