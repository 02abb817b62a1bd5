// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package cmd implements the msginline command line.
package cmd

import (
	"github.com/spf13/cobra"

	"codeberg.org/pixivfe/msginline/config"
)

// NewRootCommand creates and returns the root cobra command for msginline.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "msginline",
		Short: "Inline translated messages into Go source at build time",
		Long: `msginline replaces calls to a translation function whose key is a constant
with the formatted message for one locale, and writes an overlay for
"go build -overlay" so the rewritten files are compiled in place of the originals.`,
		Version: config.BuildVersion,
		// Silence usage on RunE errors (cobra prints usage by default on error)
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newBuildCommand(),
		newCheckCommand(),
		newExtractCommand(),
		newGenconfigCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

// loadConfig resolves the configuration for cmd. Positional arguments replace
// the configured package patterns.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := &config.Config{}

	if err := cfg.LoadConfig(cmd.Flags()); err != nil {
		return nil, &ExitError{Code: ExitConfig, Err: err}
	}

	if len(args) > 0 {
		cfg.Source.Patterns = args
	}

	return cfg, nil
}
