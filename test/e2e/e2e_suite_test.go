// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

// Package e2e exercises the full authentication flows end to end over
// in-memory repositories.
package e2e

import (
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"go.uber.org/goleak"
)

func TestAuthFlows(t *testing.T) {
	defer goleak.VerifyNone(t,
		// Ginkgo's interrupt handler goroutine outlives RunSpecs; it is
		// framework-owned, not a leak in the code under test.
		goleak.IgnoreTopFunction("github.com/onsi/ginkgo/v2/internal/interrupt_handler.(*InterruptHandler).registerForInterrupts.func2"),
	)

	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Flows Suite")
}
