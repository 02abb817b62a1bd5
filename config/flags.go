// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by every command.
const (
	FlagConfig        = "config"
	FlagLocale        = "locale"
	FlagLanguages     = "languages"
	FlagFunction      = "function"
	FlagFailOnMissing = "fail-on-missing"
	FlagDir           = "dir"
	FlagTags          = "tags"
	FlagTests         = "tests"
	FlagOut           = "out"
	FlagConcurrency   = "concurrency"
	FlagLogLevel      = "log-level"
	FlagLogFormat     = "log-format"
)

// RegisterFlags defines the configuration flags on fs. Their defaults are
// informational only: a flag overrides the other sources only when set.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagConfig, defaultConfigPath, "Path to a msginline configuration file in YAML format.")
	fs.StringSliceP(FlagLocale, "l", nil, "Locale to inline; repeat or separate with commas for several.")
	fs.String(FlagLanguages, "", "Catalog directory or file.")
	fs.String(FlagFunction, "", `Translation function, either "__" or "example.com/app/i18n.T".`)
	fs.Bool(FlagFailOnMissing, false, "Treat missing localizations as errors.")
	fs.StringP(FlagDir, "C", "", "Module directory to load packages from.")
	fs.StringSlice(FlagTags, nil, "Build tags used when loading packages.")
	fs.Bool(FlagTests, false, "Include test files.")
	fs.StringP(FlagOut, "o", "", "Output directory.")
	fs.IntP(FlagConcurrency, "j", 0, "Files processed at once (0 uses GOMAXPROCS).")
	fs.String(FlagLogLevel, "", "Log level: debug, info, warn or error.")
	fs.String(FlagLogFormat, "", "Log format: console or json.")
}

// applyFlags copies every explicitly set flag into cfg. Unknown flags are ignored.
func (cfg *Config) applyFlags(fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	var err error

	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}

		switch f.Name {
		case FlagLocale:
			cfg.I18n.Locales, err = fs.GetStringSlice(FlagLocale)
		case FlagLanguages:
			cfg.I18n.Languages = f.Value.String()
		case FlagFunction:
			cfg.I18n.FunctionName = f.Value.String()
		case FlagFailOnMissing:
			cfg.I18n.FailOnMissing, err = fs.GetBool(FlagFailOnMissing)
		case FlagDir:
			cfg.Source.Dir = f.Value.String()
		case FlagTags:
			cfg.Source.Tags, err = fs.GetStringSlice(FlagTags)
		case FlagTests:
			cfg.Source.Tests, err = fs.GetBool(FlagTests)
		case FlagOut:
			cfg.Output.Dir = f.Value.String()
		case FlagConcurrency:
			cfg.Concurrency, err = fs.GetInt(FlagConcurrency)
		case FlagLogLevel:
			cfg.Log.Level = f.Value.String()
		case FlagLogFormat:
			cfg.Log.Format = f.Value.String()
		}
	})

	return err
}
