// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"codeberg.org/pixivfe/msginline/core/build"
	"codeberg.org/pixivfe/msginline/core/catalog"
	"codeberg.org/pixivfe/msginline/core/inline"
)

// validation errors.
var (
	errNoLocale           = errors.New("no locale supplied. Please supply at least one locale")
	errNoLanguages        = errors.New("i18n.languages cannot be empty")
	errLanguagesNotFound  = errors.New("i18n.languages does not exist")
	errNoOutputDir        = errors.New("output.dir cannot be empty")
	errInvalidConcurrency = errors.New("concurrency cannot be negative")
	errInvalidCacheSize   = errors.New("cache.size cannot be negative")
	errInvalidDebounce    = errors.New("watch.debounce cannot be negative")
	errInvalidLogLevel    = errors.New("invalid log.level value")
	errInvalidLogFormat   = errors.New("invalid log.format value")
)

// validateAndSet validates the configuration and normalises some fields.
func (cfg *Config) validateAndSet() error {
	if len(cfg.I18n.Locales) == 0 {
		return errNoLocale
	}

	locales := make([]string, 0, len(cfg.I18n.Locales))

	for _, l := range cfg.I18n.Locales {
		canonical, err := catalog.Canonical(l)
		if err != nil {
			return err
		}

		if !slices.Contains(locales, canonical) {
			locales = append(locales, canonical)
		}
	}

	cfg.I18n.Locales = locales

	if cfg.I18n.Languages == "" {
		return errNoLanguages
	}

	if _, err := os.Stat(cfg.I18n.Languages); err != nil {
		return fmt.Errorf("%w: %s", errLanguagesNotFound, cfg.I18n.Languages)
	}

	if _, err := inline.ParseFunc(cfg.I18n.FunctionName); err != nil {
		return err
	}

	if err := cfg.I18n.CustomFormats.Validate(); err != nil {
		return fmt.Errorf("invalid i18n.customFormats: %w", err)
	}

	if len(cfg.Source.Patterns) == 0 {
		cfg.Source.Patterns = []string{"./..."}
	}

	if cfg.Output.Dir == "" {
		return errNoOutputDir
	}

	if cfg.Concurrency < 0 {
		return errInvalidConcurrency
	}

	switch {
	case cfg.Cache.Size < 0:
		return errInvalidCacheSize
	case cfg.Cache.Size == 0:
		cfg.Cache.Size = build.DefaultCacheSize
	}

	switch {
	case cfg.Watch.Debounce < 0:
		return errInvalidDebounce
	case cfg.Watch.Debounce == 0:
		cfg.Watch.Debounce = build.DefaultDebounce
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("%w %q", errInvalidLogLevel, cfg.Log.Level)
	}

	switch cfg.Log.Format {
	case "console", "json":
		// valid
	default:
		return fmt.Errorf("%w %q", errInvalidLogFormat, cfg.Log.Format)
	}

	return nil
}
