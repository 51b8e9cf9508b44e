// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package main

import (
	"log/slog"

	"github.com/phonegate/phonegate/internal/auth"
	authpg "github.com/phonegate/phonegate/internal/auth/postgres"
	"github.com/phonegate/phonegate/internal/config"
)

// authStack bundles the assembled service layer. The page layer the
// service fronts gets it from here; the CLI uses it for housekeeping.
type authStack struct {
	service  *auth.Service
	sessions *auth.SessionManager
	recovery *auth.RecoveryFlow
}

// buildAuthStack wires repositories, hasher, deliverer and services
// from the loaded configuration. The deliverer honors
// recovery.dev_delivery: enabled, codes go to the log; disabled, they
// are dropped until a real gateway is configured.
func buildAuthStack(cfg *config.Config, db authpg.DB) (*authStack, error) {
	users := authpg.NewUserRepository(db)
	sessionRepo := authpg.NewSessionRepository(db)
	recoveryRepo := authpg.NewRecoveryRepository(db)
	hasher := auth.NewArgon2idHasher()

	sessions, err := auth.NewSessionManager(sessionRepo, cfg.Session.Duration, cfg.Session.IdleTimeout)
	if err != nil {
		return nil, err
	}

	service, err := auth.NewService(users, sessions, hasher)
	if err != nil {
		return nil, err
	}

	deliverer := auth.NewDeliverer(cfg.Recovery.DevDelivery, slog.Default())
	recovery, err := auth.NewRecoveryFlow(users, recoveryRepo, hasher, deliverer, auth.RecoveryConfig{
		CodeLength:  cfg.Recovery.CodeLength,
		CodeExpiry:  cfg.Recovery.CodeExpiry,
		RateWindow:  cfg.Recovery.RateWindow,
		RateMax:     cfg.Recovery.RateMax,
		MaxAttempts: cfg.Recovery.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	return &authStack{
		service:  service,
		sessions: sessions,
		recovery: recovery,
	}, nil
}
