// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"github.com/samber/oops"
)

// CsrfTokenBytes is the entropy of a CSRF token.
// 32 bytes = 256 bits = 64 hex chars.
const CsrfTokenBytes = 32

// csrfTokenKey is the session bag key holding the live CSRF token.
const csrfTokenKey = "csrf_token"

// CsrfGuard issues and verifies per-session anti-forgery tokens. One
// token lives in the session bag for the lifetime of the session;
// tokens are not rotated per request. Every state-changing operation
// must pass Verify before proceeding.
type CsrfGuard struct{}

// NewCsrfGuard creates a CsrfGuard.
func NewCsrfGuard() *CsrfGuard {
	return &CsrfGuard{}
}

// Issue returns the session's CSRF token, generating and storing one
// if the session has none yet.
func (g *CsrfGuard) Issue(sctx *SessionContext) (string, error) {
	if sctx == nil {
		return "", oops.Code("SECURITY_NO_CONTEXT").Errorf("session context is required")
	}
	if token, ok := sctx.Get(csrfTokenKey); ok && token != "" {
		return token, nil
	}

	raw := make([]byte, CsrfTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", oops.Code("SECURITY_CSRF_GENERATE_FAILED").
			With("requested_bytes", CsrfTokenBytes).
			Wrap(err)
	}
	token := hex.EncodeToString(raw)
	sctx.Set(csrfTokenKey, token)
	return token, nil
}

// Verify checks the presented token against the session's stored token
// in constant time. Absence of a stored token always fails.
func (g *CsrfGuard) Verify(sctx *SessionContext, presented string) error {
	if sctx == nil {
		return oops.Code("SECURITY_NO_CONTEXT").Errorf("session context is required")
	}
	stored, ok := sctx.Get(csrfTokenKey)
	if !ok || stored == "" {
		recordCsrfFailure()
		return oops.Code("SECURITY_CSRF_FAILED").Errorf("no anti-forgery token issued for this session")
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		recordCsrfFailure()
		return oops.Code("SECURITY_CSRF_FAILED").Errorf("anti-forgery token mismatch")
	}
	return nil
}
