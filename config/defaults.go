// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"codeberg.org/pixivfe/msginline/core/build"
	"codeberg.org/pixivfe/msginline/core/inline"
)

// SetDefaults populates the configuration with default values.
func (cfg *Config) SetDefaults() {
	cfg.I18n.Locales = nil
	cfg.I18n.Languages = "./i18n/locale"
	cfg.I18n.FunctionName = inline.DefaultFunctionName
	cfg.I18n.FailOnMissing = false

	cfg.Source.Dir = "."
	cfg.Source.Patterns = []string{"./..."}
	cfg.Source.Tags = nil
	cfg.Source.Tests = false

	cfg.Output.Dir = "./.msginline"

	cfg.Concurrency = 0

	cfg.Cache.Size = build.DefaultCacheSize
	cfg.Cache.Compress = true

	cfg.Watch.Debounce = build.DefaultDebounce

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"
}
