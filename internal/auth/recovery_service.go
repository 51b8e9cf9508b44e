// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Recovery flow stages, stored in the session bag.
const (
	StageRequest = "request"
	StageVerify  = "verify"
	StageReset   = "reset"
)

// Session bag keys for recovery-flow state.
const (
	recoveryStageKey    = "recovery_stage"
	recoveryPhoneKey    = "recovery_phone"
	recoveryFlowKey     = "recovery_flow"
	recoveryVerifiedKey = "recovery_verified"
	recoveryRecordKey   = "recovery_record"
)

// Session bag keys for the per-session request throttle. Kept out of
// clearState so falling back to the request stage never resets the
// budget.
const (
	recoveryReqCountKey  = "recovery_requests"
	recoveryReqWindowKey = "recovery_requests_window"
)

// RecoveryConfig tunes the recovery flow. Zero values fall back to the
// package defaults.
type RecoveryConfig struct {
	// CodeLength is the number of digits in a recovery code.
	CodeLength int

	// CodeExpiry is how long an issued code stays verifiable.
	CodeExpiry time.Duration

	// RateWindow and RateMax bound how many codes may be requested for
	// one phone number inside a sliding window.
	RateWindow time.Duration
	RateMax    int

	// MaxAttempts is how many wrong codes may be presented before a
	// record is locked and a fresh request is required.
	MaxAttempts int
}

func (c RecoveryConfig) withDefaults() RecoveryConfig {
	if c.CodeLength <= 0 {
		c.CodeLength = DefaultRecoveryCodeLength
	}
	if c.CodeExpiry <= 0 {
		c.CodeExpiry = DefaultRecoveryCodeExpiry
	}
	if c.RateWindow <= 0 {
		c.RateWindow = DefaultRecoveryRateWindow
	}
	if c.RateMax <= 0 {
		c.RateMax = DefaultRecoveryRateMax
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultRecoveryAttempts
	}
	return c
}

// RecoveryFlow drives phone-verified password reset: request a code,
// verify it, set a new password. Flow state lives in the caller's
// SessionContext; every rejection leaves the flow in a well-defined
// recoverable state.
//
// Request never discloses whether a phone number is registered: an
// unknown phone gets the same successful response, it just produces no
// record and no delivery.
type RecoveryFlow struct {
	users     UserRepository
	records   RecoveryRepository
	hasher    PasswordHasher
	deliverer Deliverer
	cfg       RecoveryConfig
}

// NewRecoveryFlow creates a RecoveryFlow.
func NewRecoveryFlow(
	users UserRepository,
	records RecoveryRepository,
	hasher PasswordHasher,
	deliverer Deliverer,
	cfg RecoveryConfig,
) (*RecoveryFlow, error) {
	if users == nil {
		return nil, oops.Code("RECOVERY_FLOW_INVALID").Errorf("user repository is required")
	}
	if records == nil {
		return nil, oops.Code("RECOVERY_FLOW_INVALID").Errorf("recovery repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("RECOVERY_FLOW_INVALID").Errorf("password hasher is required")
	}
	if deliverer == nil {
		return nil, oops.Code("RECOVERY_FLOW_INVALID").Errorf("code deliverer is required")
	}
	return &RecoveryFlow{
		users:     users,
		records:   records,
		hasher:    hasher,
		deliverer: deliverer,
		cfg:       cfg.withDefaults(),
	}, nil
}

// Stage reports the flow's current stage for the session, defaulting
// to StageRequest.
func (f *RecoveryFlow) Stage(sctx *SessionContext) string {
	if sctx == nil {
		return StageRequest
	}
	if stage, ok := sctx.Get(recoveryStageKey); ok && stage != "" {
		return stage
	}
	return StageRequest
}

// Request issues a recovery code for a phone number and advances the
// flow to the verify stage. Only the newest record for a phone is
// verifiable, so a fresh request supersedes any earlier code.
// Requests are rate limited twice, per session and per phone, with a
// retry-after hint; a rejection leaves the flow at the request stage.
func (f *RecoveryFlow) Request(ctx context.Context, sctx *SessionContext, rawPhone string) error {
	if sctx == nil {
		return oops.Code("SECURITY_NO_CONTEXT").Errorf("session context is required")
	}

	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return err
	}

	now := time.Now()

	// The session throttle counts every request, so unregistered
	// phones hit the same limit as registered ones.
	if err := f.throttleSession(sctx, now); err != nil {
		return err
	}

	recent, err := f.records.CountRecentByPhone(ctx, phone, now.Add(-f.cfg.RateWindow))
	if err != nil {
		return oops.Code("RECOVERY_REQUEST_FAILED").
			With("operation", "count recent requests").
			Wrap(err)
	}
	if recent >= f.cfg.RateMax {
		recordRecoveryRequest("rate_limited")
		return oops.Code("RECOVERY_RATE_LIMITED").
			With("retry_after", f.cfg.RateWindow.String()).
			Errorf("too many recovery requests, try again later")
	}

	user, err := f.users.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("RECOVERY_REQUEST_FAILED").
			With("operation", "get user by phone").
			Wrap(err)
	}

	// An unregistered phone gets the same external response as a
	// registered one; it just produces no record and no delivery.
	// Prior records stay in place so the rate-limit window keeps
	// counting them; only the newest record is ever verifiable.
	if user != nil {
		code, err := GenerateRecoveryCode(f.cfg.CodeLength)
		if err != nil {
			return oops.Code("RECOVERY_REQUEST_FAILED").
				With("operation", "generate code").
				Wrap(err)
		}
		codeHash, err := f.hasher.Hash(code)
		if err != nil {
			return oops.Code("RECOVERY_REQUEST_FAILED").
				With("operation", "hash code").
				Wrap(err)
		}
		record, err := NewRecoveryRecord(phone, codeHash, now.Add(f.cfg.CodeExpiry))
		if err != nil {
			return oops.Code("RECOVERY_REQUEST_FAILED").
				With("operation", "build record").
				Wrap(err)
		}
		if err := f.records.Create(ctx, record); err != nil {
			return oops.Code("RECOVERY_REQUEST_FAILED").
				With("operation", "persist record").
				Wrap(err)
		}

		// Fire and forget; the record is verifiable regardless.
		_ = f.deliverer.Deliver(ctx, phone, code) //nolint:errcheck
	}

	f.clearState(sctx)
	sctx.Set(recoveryPhoneKey, phone)
	sctx.Set(recoveryFlowKey, ulid.Make().String())
	sctx.Set(recoveryStageKey, StageVerify)
	recordRecoveryRequest("accepted")
	return nil
}

// Verify checks a presented code against the latest record for the
// phone bound to this flow. A missing or expired record, or an
// exhausted attempt budget, falls the flow back to the request stage.
// A wrong code increments the attempt counter and reports how many
// attempts remain.
func (f *RecoveryFlow) Verify(ctx context.Context, sctx *SessionContext, code string) error {
	if sctx == nil {
		return oops.Code("SECURITY_NO_CONTEXT").Errorf("session context is required")
	}
	phone, ok := sctx.Get(recoveryPhoneKey)
	if !ok || phone == "" || f.Stage(sctx) != StageVerify {
		f.clearState(sctx)
		return oops.Code("RECOVERY_NO_REQUEST").Errorf("no recovery request in progress")
	}

	record, err := f.records.GetLatestByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			f.clearState(sctx)
			return oops.Code("RECOVERY_CODE_EXPIRED").Errorf("recovery code not found, request a new one")
		}
		return oops.Code("RECOVERY_VERIFY_FAILED").
			With("operation", "get latest record").
			Wrap(err)
	}

	if record.IsExpired() {
		f.clearState(sctx)
		return oops.Code("RECOVERY_CODE_EXPIRED").Errorf("recovery code has expired, request a new one")
	}
	if record.Attempts >= f.cfg.MaxAttempts {
		f.clearState(sctx)
		return oops.Code("RECOVERY_ATTEMPTS_EXHAUSTED").
			With("max_attempts", f.cfg.MaxAttempts).
			Errorf("too many wrong codes, request a new one")
	}

	match, err := f.hasher.Verify(code, record.CodeHash)
	if err != nil {
		return oops.Code("RECOVERY_VERIFY_FAILED").
			With("operation", "verify code").
			Wrap(err)
	}
	if !match {
		// Count the failure even if the bump itself fails.
		_ = f.records.IncrementAttempts(ctx, record.ID) //nolint:errcheck
		remaining := f.cfg.MaxAttempts - record.Attempts - 1
		if remaining < 0 {
			remaining = 0
		}
		return oops.Code("RECOVERY_CODE_MISMATCH").
			With("attempts_remaining", remaining).
			Errorf("wrong code, %d attempts remaining", remaining)
	}

	// Defensive hygiene so a later flow starts from a clean counter.
	_ = f.records.ResetAttempts(ctx, record.ID) //nolint:errcheck

	flowID, _ := sctx.Get(recoveryFlowKey)
	sctx.Set(recoveryVerifiedKey, flowID)
	sctx.Set(recoveryRecordKey, strconv.FormatInt(record.ID, 10))
	sctx.Set(recoveryStageKey, StageReset)
	return nil
}

// Reset sets a new password for the account whose code was verified in
// this flow instance. Reaching this stage without a prior successful
// Verify is rejected. On success all recovery state is cleared and the
// flow returns to the request stage.
func (f *RecoveryFlow) Reset(ctx context.Context, sctx *SessionContext, newPassword, confirmPassword string) error {
	if sctx == nil {
		return oops.Code("SECURITY_NO_CONTEXT").Errorf("session context is required")
	}

	phone, havePhone := sctx.Get(recoveryPhoneKey)
	flowID, _ := sctx.Get(recoveryFlowKey)
	verified, _ := sctx.Get(recoveryVerifiedKey)
	recordIDStr, haveRecord := sctx.Get(recoveryRecordKey)
	if !havePhone || !haveRecord || f.Stage(sctx) != StageReset ||
		verified == "" || verified != flowID {
		f.clearState(sctx)
		return oops.Code("RECOVERY_NOT_VERIFIED").Errorf("code verification required before resetting the password")
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	if newPassword != confirmPassword {
		return oops.Code("AUTH_PASSWORD_MISMATCH").Errorf("passwords do not match")
	}

	recordID, err := strconv.ParseInt(recordIDStr, 10, 64)
	if err != nil {
		f.clearState(sctx)
		return oops.Code("RECOVERY_NOT_VERIFIED").Errorf("code verification required before resetting the password")
	}

	// Re-check the confirmed record: the code may have expired between
	// Verify and Reset, or a concurrent request may have superseded it.
	record, err := f.records.GetLatestByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			f.clearState(sctx)
			return oops.Code("RECOVERY_CODE_EXPIRED").Errorf("recovery code no longer valid, request a new one")
		}
		return oops.Code("RECOVERY_RESET_FAILED").
			With("operation", "get latest record").
			Wrap(err)
	}
	if record.ID != recordID || record.IsExpired() {
		f.clearState(sctx)
		return oops.Code("RECOVERY_CODE_EXPIRED").Errorf("recovery code no longer valid, request a new one")
	}

	user, err := f.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			f.clearState(sctx)
			return oops.Code("RECOVERY_CODE_EXPIRED").Errorf("recovery code no longer valid, request a new one")
		}
		return oops.Code("RECOVERY_RESET_FAILED").
			With("operation", "get user by phone").
			Wrap(err)
	}

	passwordHash, err := f.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RECOVERY_RESET_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}
	if err := f.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return oops.Code("RECOVERY_RESET_FAILED").
			With("operation", "update password").
			Wrap(err)
	}

	// Cleanup after the password update. If this fails the code cannot
	// outlive its expiry anyway.
	_ = f.records.DeleteByPhone(ctx, phone) //nolint:errcheck

	f.clearState(sctx)
	return nil
}

// PurgeExpired removes all recovery records past their expiry and
// returns the count of deleted rows.
func (f *RecoveryFlow) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := f.records.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("RECOVERY_PURGE_FAILED").Wrap(err)
	}
	return n, nil
}

// throttleSession enforces the rate limit against the session bag,
// independent of the store-backed per-phone count. Every call inside
// the window spends budget, whether or not it ends up accepted.
func (f *RecoveryFlow) throttleSession(sctx *SessionContext, now time.Time) error {
	count := 0
	if v, ok := sctx.Get(recoveryReqCountKey); ok {
		count, _ = strconv.Atoi(v)
	}
	windowStart := now
	if v, ok := sctx.Get(recoveryReqWindowKey); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			windowStart = t
		}
	}

	if now.Sub(windowStart) >= f.cfg.RateWindow {
		count = 0
		windowStart = now
	}
	if count >= f.cfg.RateMax {
		recordRecoveryRequest("rate_limited")
		return oops.Code("RECOVERY_RATE_LIMITED").
			With("retry_after", f.cfg.RateWindow.String()).
			Errorf("too many recovery requests, try again later")
	}

	sctx.Set(recoveryReqCountKey, strconv.Itoa(count+1))
	sctx.Set(recoveryReqWindowKey, windowStart.Format(time.RFC3339Nano))
	return nil
}

// clearState drops all recovery-flow keys from the session bag,
// returning the flow to the request stage.
func (f *RecoveryFlow) clearState(sctx *SessionContext) {
	sctx.Delete(recoveryStageKey)
	sctx.Delete(recoveryPhoneKey)
	sctx.Delete(recoveryFlowKey)
	sctx.Delete(recoveryVerifiedKey)
	sctx.Delete(recoveryRecordKey)
}
