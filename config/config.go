// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"

	"codeberg.org/pixivfe/msginline/core/msgformat"
)

const (
	defaultConfigPath  = "./msginline.yaml"
	fallbackConfigPath = "./msginline.yml"
	configFileEnv      = "MSGINLINE_CONFIGFILE"
)

// Config holds the tool configuration.
type Config struct {
	Build buildInfo `yaml:"-"`

	I18n struct {
		// Locales lists the locales to inline. Each one produces its own output tree.
		Locales   []string `env:"MSGINLINE_LOCALES"   envSeparator:"," yaml:"locales"`
		Languages string   `env:"MSGINLINE_LANGUAGES" yaml:"languages"`

		// FunctionName is a bare identifier or a package-qualified one.
		FunctionName  string            `env:"MSGINLINE_FUNCTION"        yaml:"functionName"`
		FailOnMissing bool              `env:"MSGINLINE_FAIL_ON_MISSING" yaml:"failOnMissing"`
		CustomFormats msgformat.Formats `yaml:"customFormats"`
	} `yaml:"i18n"`

	Source struct {
		Dir      string   `env:"MSGINLINE_DIR"      yaml:"dir"`
		Patterns []string `env:"MSGINLINE_PATTERNS" envSeparator:"," yaml:"patterns"`
		Tags     []string `env:"MSGINLINE_TAGS"     envSeparator:"," yaml:"tags"`
		Tests    bool     `env:"MSGINLINE_TESTS"    yaml:"tests"`
	} `yaml:"source"`

	Output struct {
		Dir string `env:"MSGINLINE_OUT" yaml:"dir"`
	} `yaml:"output"`

	Concurrency int `env:"MSGINLINE_CONCURRENCY" yaml:"concurrency"`

	Cache struct {
		Size     int  `env:"MSGINLINE_CACHE_SIZE"     yaml:"size"`
		Compress bool `env:"MSGINLINE_CACHE_COMPRESS" yaml:"compress"`
	} `yaml:"cache"`

	Watch struct {
		Debounce time.Duration `env:"MSGINLINE_WATCH_DEBOUNCE" yaml:"debounce"`
	} `yaml:"watch"`

	Log struct {
		Level   string   `env:"MSGINLINE_LOG_LEVEL"   yaml:"level"`
		Outputs []string `env:"MSGINLINE_LOG_OUTPUTS" envSeparator:"," yaml:"outputs"`
		Format  string   `env:"MSGINLINE_LOG_FORMAT"  yaml:"format"`
	} `yaml:"log"`
}

// LoadConfig loads the configuration from various sources, in increasing
// precedence: defaults, the YAML file, .env, the environment and finally any
// flag in flags that was set explicitly. flags may be nil.
func (cfg *Config) LoadConfig(flags *pflag.FlagSet) error {
	cfg.SetDefaults()

	cfg.Build.load()

	if err := cfg.readYAML(configFilePath(flags)); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.applyFlags(flags); err != nil {
		return fmt.Errorf("error applying command line flags: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	cfg.print()

	return nil
}
