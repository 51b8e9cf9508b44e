// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/phonegate/phonegate/internal/config"
	"github.com/phonegate/phonegate/internal/logging"
)

// Global flags available to all subcommands.
var configFile string

// loadedConfig is populated by the root PersistentPreRunE so each
// subcommand sees the same configuration the logger was set up from.
var loadedConfig *config.Config

// NewRootCmd creates the root command for the phonegate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phonegate",
		Short: "PhoneGate - phone-number account authentication service",
		Long: `PhoneGate manages phone-number based accounts: registration,
login sessions bound to a device fingerprint, CSRF protection and
password recovery by delivered code.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loadedConfig = nil
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			loadedConfig = cfg
			logging.SetDefault("phonegate", version, cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("database.url", "", "PostgreSQL connection URL")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCleanupCmd())

	return cmd
}

// loadConfig loads configuration for a subcommand, layering the
// command's flags over the optional config file. The DATABASE_URL
// environment variable fills in the database URL when neither the file
// nor the flag sets one. The root PersistentPreRunE caches the result
// in loadedConfig.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if loadedConfig != nil {
		return loadedConfig, nil
	}
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}
