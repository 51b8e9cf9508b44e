// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// Deliverer hands a plaintext recovery code to the user, e.g. over
// SMS. Delivery is fire-and-forget: the recovery record exists and is
// verifiable whether or not delivery succeeded, so implementations
// should not surface transient failures to the flow.
type Deliverer interface {
	Deliver(ctx context.Context, phone, code string) error
}

// DevLogDeliverer writes plaintext recovery codes to the log instead
// of sending them. Development-only: enabling it exposes secrets in
// the log stream, so the constructor emits a warning.
type DevLogDeliverer struct {
	logger *slog.Logger
}

// NewDevLogDeliverer creates a DevLogDeliverer.
func NewDevLogDeliverer(logger *slog.Logger) *DevLogDeliverer {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("development code delivery enabled: plaintext recovery codes WILL be written to the log; never enable this in production")
	return &DevLogDeliverer{logger: logger}
}

// Deliver logs the code.
func (d *DevLogDeliverer) Deliver(_ context.Context, phone, code string) error {
	d.logger.Warn("recovery code issued (development delivery)",
		"phone", phone,
		"code", code,
	)
	return nil
}

// unconfiguredDeliverer stands in when no delivery channel is set up.
// Codes are dropped; the recovery record still exists and expires
// normally, so the flow stays consistent.
type unconfiguredDeliverer struct {
	logger *slog.Logger
}

// Deliver drops the code and reports the missing channel. The code
// itself is never logged.
func (d *unconfiguredDeliverer) Deliver(_ context.Context, phone, _ string) error {
	d.logger.Error("recovery code dropped: no delivery channel configured",
		"phone", phone,
	)
	return oops.Code("RECOVERY_DELIVERY_UNCONFIGURED").
		Errorf("no recovery code delivery channel configured")
}

// NewDeliverer selects the delivery channel. With dev enabled the
// codes go to the log via DevLogDeliverer; otherwise they are dropped
// until a real gateway is wired in.
func NewDeliverer(dev bool, logger *slog.Logger) Deliverer {
	if dev {
		return NewDevLogDeliverer(logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &unconfiguredDeliverer{logger: logger}
}

// Compile-time interface checks.
var (
	_ Deliverer = (*DevLogDeliverer)(nil)
	_ Deliverer = (*unconfiguredDeliverer)(nil)
)
