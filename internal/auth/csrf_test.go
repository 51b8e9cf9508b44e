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

func TestCsrfGuard_Issue(t *testing.T) {
	guard := auth.NewCsrfGuard()

	t.Run("generates a token", func(t *testing.T) {
		sctx := auth.NewSessionContext("fp")
		token, err := guard.Issue(sctx)
		require.NoError(t, err)
		assert.Len(t, token, auth.CsrfTokenBytes*2, "token should be hex-encoded")
	})

	t.Run("is stable within a session", func(t *testing.T) {
		sctx := auth.NewSessionContext("fp")
		first, err := guard.Issue(sctx)
		require.NoError(t, err)
		second, err := guard.Issue(sctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("differs across sessions", func(t *testing.T) {
		a, err := guard.Issue(auth.NewSessionContext("fp"))
		require.NoError(t, err)
		b, err := guard.Issue(auth.NewSessionContext("fp"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("rejects nil context", func(t *testing.T) {
		_, err := guard.Issue(nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SECURITY_NO_CONTEXT")
	})
}

func TestCsrfGuard_Verify(t *testing.T) {
	guard := auth.NewCsrfGuard()

	t.Run("accepts the issued token", func(t *testing.T) {
		sctx := auth.NewSessionContext("fp")
		token, err := guard.Issue(sctx)
		require.NoError(t, err)
		require.NoError(t, guard.Verify(sctx, token))
	})

	t.Run("rejects a wrong token", func(t *testing.T) {
		sctx := auth.NewSessionContext("fp")
		_, err := guard.Issue(sctx)
		require.NoError(t, err)

		err = guard.Verify(sctx, "forged")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SECURITY_CSRF_FAILED")
	})

	t.Run("rejects when no token was issued", func(t *testing.T) {
		sctx := auth.NewSessionContext("fp")
		err := guard.Verify(sctx, "anything")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SECURITY_CSRF_FAILED")
	})

	t.Run("rejects empty presented token", func(t *testing.T) {
		sctx := auth.NewSessionContext("fp")
		_, err := guard.Issue(sctx)
		require.NoError(t, err)

		err = guard.Verify(sctx, "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SECURITY_CSRF_FAILED")
	})

	t.Run("rejects after bag reset", func(t *testing.T) {
		sctx := auth.NewSessionContext("fp")
		token, err := guard.Issue(sctx)
		require.NoError(t, err)

		sctx.Reset()
		err = guard.Verify(sctx, token)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SECURITY_CSRF_FAILED")
	})

	t.Run("rejects nil context", func(t *testing.T) {
		err := guard.Verify(nil, "token")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SECURITY_NO_CONTEXT")
	})
}

func TestSessionContext_Bag(t *testing.T) {
	sctx := auth.NewSessionContext("fp")

	_, ok := sctx.Get("missing")
	assert.False(t, ok)

	sctx.Set("key", "value")
	v, ok := sctx.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	sctx.Delete("key")
	_, ok = sctx.Get("key")
	assert.False(t, ok)

	sctx.Set("a", "1")
	sctx.Set("b", "2")
	sctx.Reset()
	_, ok = sctx.Get("a")
	assert.False(t, ok)
	_, ok = sctx.Get("b")
	assert.False(t, ok)
}
