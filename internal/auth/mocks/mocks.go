// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

// Package mocks provides testify mocks for the auth package's
// repository and collaborator interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/phonegate/phonegate/internal/auth"
)

// MockUserRepository is a mock auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository whose
// expectations are asserted during test cleanup.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*auth.User, error) {
	args := m.Called(ctx, phone)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSessionRepository is a mock auth.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

// NewMockSessionRepository creates a MockSessionRepository whose
// expectations are asserted during test cleanup.
func NewMockSessionRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionRepository) Create(ctx context.Context, session *auth.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	args := m.Called(ctx, tokenHash)
	if s := args.Get(0); s != nil {
		return s.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) UpdateLastSeen(ctx context.Context, id int64, lastSeen time.Time) error {
	args := m.Called(ctx, id, lastSeen)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	args := m.Called(ctx, tokenHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) DeleteByUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockRecoveryRepository is a mock auth.RecoveryRepository.
type MockRecoveryRepository struct {
	mock.Mock
}

// NewMockRecoveryRepository creates a MockRecoveryRepository whose
// expectations are asserted during test cleanup.
func NewMockRecoveryRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRecoveryRepository {
	m := &MockRecoveryRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRecoveryRepository) Create(ctx context.Context, record *auth.RecoveryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRecoveryRepository) GetLatestByPhone(ctx context.Context, phone string) (*auth.RecoveryRecord, error) {
	args := m.Called(ctx, phone)
	if r := args.Get(0); r != nil {
		return r.(*auth.RecoveryRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecoveryRepository) CountRecentByPhone(ctx context.Context, phone string, since time.Time) (int, error) {
	args := m.Called(ctx, phone, since)
	return args.Int(0), args.Error(1)
}

func (m *MockRecoveryRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRecoveryRepository) ResetAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRecoveryRepository) DeleteByPhone(ctx context.Context, phone string) error {
	args := m.Called(ctx, phone)
	return args.Error(0)
}

func (m *MockRecoveryRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockPasswordHasher is a mock auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose
// expectations are asserted during test cleanup.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(secret string) (string, error) {
	args := m.Called(secret)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(secret, hash string) (bool, error) {
	args := m.Called(secret, hash)
	return args.Bool(0), args.Error(1)
}

// MockDeliverer is a mock auth.Deliverer.
type MockDeliverer struct {
	mock.Mock
}

// NewMockDeliverer creates a MockDeliverer whose expectations are
// asserted during test cleanup.
func NewMockDeliverer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockDeliverer {
	m := &MockDeliverer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockDeliverer) Deliver(ctx context.Context, phone, code string) error {
	args := m.Called(ctx, phone, code)
	return args.Error(0)
}

// Compile-time interface checks.
var (
	_ auth.UserRepository     = (*MockUserRepository)(nil)
	_ auth.SessionRepository  = (*MockSessionRepository)(nil)
	_ auth.RecoveryRepository = (*MockRecoveryRepository)(nil)
	_ auth.PasswordHasher     = (*MockPasswordHasher)(nil)
	_ auth.Deliverer          = (*MockDeliverer)(nil)
)
