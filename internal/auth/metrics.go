// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the authentication engine.
var (
	// loginAttempts counts login attempts by outcome.
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phonegate_login_attempts_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	// recoveryRequests counts recovery code requests by outcome.
	recoveryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phonegate_recovery_requests_total",
		Help: "Total number of password recovery requests by outcome",
	}, []string{"outcome"})

	// csrfFailures counts rejected anti-forgery verifications.
	csrfFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phonegate_csrf_failures_total",
		Help: "Total number of failed CSRF token verifications",
	})

	// fingerprintMismatches counts sessions destroyed on fingerprint mismatch.
	fingerprintMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phonegate_fingerprint_mismatches_total",
		Help: "Total number of sessions invalidated by device fingerprint mismatch",
	})
)

func recordLogin(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

func recordRecoveryRequest(outcome string) {
	recoveryRequests.WithLabelValues(outcome).Inc()
}

func recordCsrfFailure() {
	csrfFailures.Inc()
}

func recordFingerprintMismatch() {
	fingerprintMismatches.Inc()
}
