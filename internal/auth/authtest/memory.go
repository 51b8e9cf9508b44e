// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

// Package authtest provides in-memory repository implementations for
// exercising the auth services without a database.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/phonegate/phonegate/internal/auth"
)

// MemoryStore backs all three in-memory repositories with one mutex so
// scenario tests see a consistent view.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*auth.User
	sessions map[int64]*auth.Session
	records  map[int64]*auth.RecoveryRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*auth.User),
		sessions: make(map[int64]*auth.Session),
		records:  make(map[int64]*auth.RecoveryRecord),
	}
}

// Users returns the in-memory auth.UserRepository.
func (s *MemoryStore) Users() auth.UserRepository { return &memoryUsers{s} }

// Sessions returns the in-memory auth.SessionRepository.
func (s *MemoryStore) Sessions() auth.SessionRepository { return &memorySessions{s} }

// Recovery returns the in-memory auth.RecoveryRepository.
func (s *MemoryStore) Recovery() auth.RecoveryRepository { return &memoryRecovery{s} }

func (s *MemoryStore) allocID() int64 {
	s.nextID++
	return s.nextID
}

type memoryUsers struct{ s *MemoryStore }

func (r *memoryUsers) Create(_ context.Context, user *auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Phone == user.Phone {
			return oops.Code("AUTH_DUPLICATE_PHONE").Wrap(auth.ErrDuplicate)
		}
	}
	user.ID = r.s.allocID()
	clone := *user
	r.s.users[user.ID] = &clone
	return nil
}

func (r *memoryUsers) GetByID(_ context.Context, id int64) (*auth.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	clone := *u
	return &clone, nil
}

func (r *memoryUsers) GetByPhone(_ context.Context, phone string) (*auth.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Phone == phone {
			clone := *u
			return &clone, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func (r *memoryUsers) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *memoryUsers) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	delete(r.s.users, id)
	return nil
}

type memorySessions struct{ s *MemoryStore }

func (r *memorySessions) Create(_ context.Context, session *auth.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.sessions {
		if existing.TokenHash == session.TokenHash {
			return oops.Code("SESSION_DUPLICATE_TOKEN").Wrap(auth.ErrDuplicate)
		}
	}
	session.ID = r.s.allocID()
	clone := *session
	r.s.sessions[session.ID] = &clone
	return nil
}

func (r *memorySessions) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sess := range r.s.sessions {
		if sess.TokenHash == tokenHash {
			clone := *sess
			return &clone, nil
		}
	}
	return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func (r *memorySessions) UpdateLastSeen(_ context.Context, id int64, lastSeen time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	sess.LastSeenAt = lastSeen
	return nil
}

func (r *memorySessions) DeleteByTokenHash(_ context.Context, tokenHash string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, sess := range r.s.sessions {
		if sess.TokenHash == tokenHash {
			delete(r.s.sessions, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *memorySessions) DeleteByUser(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, sess := range r.s.sessions {
		if sess.UserID == userID {
			delete(r.s.sessions, id)
		}
	}
	return nil
}

func (r *memorySessions) DeleteExpired(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	var n int64
	for id, sess := range r.s.sessions {
		if sess.IsExpiredAt(now) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

type memoryRecovery struct{ s *MemoryStore }

func (r *memoryRecovery) Create(_ context.Context, record *auth.RecoveryRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	record.ID = r.s.allocID()
	clone := *record
	r.s.records[record.ID] = &clone
	return nil
}

func (r *memoryRecovery) GetLatestByPhone(_ context.Context, phone string) (*auth.RecoveryRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *auth.RecoveryRecord
	for _, rec := range r.s.records {
		if rec.Phone != phone {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) ||
			(rec.CreatedAt.Equal(latest.CreatedAt) && rec.ID > latest.ID) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, oops.Code("RECOVERY_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	clone := *latest
	return &clone, nil
}

func (r *memoryRecovery) CountRecentByPhone(_ context.Context, phone string, since time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, rec := range r.s.records {
		if rec.Phone == phone && !rec.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *memoryRecovery) IncrementAttempts(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok {
		return oops.Code("RECOVERY_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	rec.Attempts++
	return nil
}

func (r *memoryRecovery) ResetAttempts(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok {
		return oops.Code("RECOVERY_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	rec.Attempts = 0
	return nil
}

func (r *memoryRecovery) DeleteByPhone(_ context.Context, phone string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, rec := range r.s.records {
		if rec.Phone == phone {
			delete(r.s.records, id)
		}
	}
	return nil
}

func (r *memoryRecovery) DeleteExpired(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	var n int64
	for id, rec := range r.s.records {
		if rec.IsExpiredAt(now) {
			delete(r.s.records, id)
			n++
		}
	}
	return n, nil
}
