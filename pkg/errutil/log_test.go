// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package errutil

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

func TestLogError_OopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("SESSION_EXPIRED").With("user_id", 7).Errorf("session expired")
	LogError(logger, "validation failed", err)

	out := buf.String()
	assert.Contains(t, out, "validation failed")
	assert.Contains(t, out, "SESSION_EXPIRED")
	assert.Contains(t, out, "user_id")
}

func TestLogError_StandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LogError(logger, "something broke", errors.New("plain failure"))

	out := buf.String()
	assert.Contains(t, out, "something broke")
	assert.Contains(t, out, "plain failure")
	assert.NotContains(t, out, `"code"`)
}
