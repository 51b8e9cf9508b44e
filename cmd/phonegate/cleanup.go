// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/phonegate/phonegate/internal/store"
)

// NewCleanupCmd creates the cleanup subcommand.
func NewCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Purge expired sessions and recovery codes",
		Long: `Delete expired sessions and expired password recovery codes.
Intended to be run periodically, e.g. from cron.`,
		RunE: runCleanup,
	}
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database URL is required (set database.url or DATABASE_URL)")
	}

	ctx := cmd.Context()
	pool, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	stack, err := buildAuthStack(cfg, pool)
	if err != nil {
		return err
	}

	sessions, err := stack.sessions.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	codes, err := stack.recovery.PurgeExpired(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Purged %d expired sessions and %d expired recovery codes\n", sessions, codes)
	return nil
}
