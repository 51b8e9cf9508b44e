// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package auth

// SessionContext is the explicit per-request security context handed
// in by the page layer. It carries the caller's re-derived device
// fingerprint and a session-scoped mutable key/value bag used for the
// CSRF token and recovery-flow stage. The collaborator owns the bag's
// persistence across requests.
type SessionContext struct {
	// Fingerprint is the device fingerprint derived from the current
	// request (see Fingerprint).
	Fingerprint string

	values map[string]string
}

// NewSessionContext creates a SessionContext for a request with the
// given fingerprint and an empty bag.
func NewSessionContext(fingerprint string) *SessionContext {
	return &SessionContext{
		Fingerprint: fingerprint,
		values:      make(map[string]string),
	}
}

// Get returns the value stored under key, if any.
func (c *SessionContext) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set stores a value under key.
func (c *SessionContext) Set(key, value string) {
	if c.values == nil {
		c.values = make(map[string]string)
	}
	c.values[key] = value
}

// Delete removes the value stored under key.
func (c *SessionContext) Delete(key string) {
	delete(c.values, key)
}

// Reset clears the whole bag. Called when a session is destroyed for
// a security violation so no stale CSRF or recovery state survives.
func (c *SessionContext) Reset() {
	c.values = make(map[string]string)
}
