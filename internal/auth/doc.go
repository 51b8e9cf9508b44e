// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

// Package auth implements the session and recovery security engine:
// phone-based registration and login, session tokens bound to a device
// fingerprint, per-session CSRF tokens, and a rate-limited multi-step
// password recovery flow.
//
// # Domain Types
//
// Domain types (User, Session, RecoveryRecord) should be created using
// their respective constructors:
//   - NewUser - creates a User with a canonical phone and password hash
//   - NewSession - creates a Session with a token hash, fingerprint and expiry
//   - NewRecoveryRecord - creates a RecoveryRecord with a code hash and expiry
//
// Direct struct initialization bypasses validation and may create
// invalid state. Repository implementations receive pre-validated
// types from these constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - register, login, logout, current-session lookup
//   - SessionManager - session issuance, validation and destruction
//   - CsrfGuard - per-session anti-forgery token issuance and verification
//   - RecoveryFlow - request code, verify code, reset password
//
// All persistent state lives behind the repository interfaces declared
// next to the domain types; the package holds no process-wide mutable
// state. The page-rendering layer is an external collaborator that
// calls into these services with an explicit SessionContext.
package auth
