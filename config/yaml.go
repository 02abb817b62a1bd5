// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var errInvalidConfigFile = errors.New("invalid configuration file")

// configFilePath picks the YAML file to read, in decreasing precedence:
//  1. the --config flag
//  2. MSGINLINE_CONFIGFILE
//  3. ./msginline.yaml, or ./msginline.yml when only that one exists
func configFilePath(flags *pflag.FlagSet) string {
	if flags != nil {
		if f := flags.Lookup(FlagConfig); f != nil && f.Changed {
			return f.Value.String()
		}
	}

	if path := os.Getenv(configFileEnv); path != "" {
		return path
	}

	if _, err := os.Stat(defaultConfigPath); os.IsNotExist(err) {
		if _, statErr := os.Stat(fallbackConfigPath); statErr == nil {
			return fallbackConfigPath
		}
	}

	return defaultConfigPath
}

// readYAML overlays the file at path onto cfg. A missing file or an empty
// document leaves cfg alone; unknown keys are rejected with the offending line.
func (cfg *Config) readYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from --config or MSGINLINE_CONFIGFILE
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().
			Str("path", path).
			Msg("No YAML configuration file found, skipping")

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data), yaml.DisallowUnknownField())

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w %s:\n%s", errInvalidConfigFile, path, yaml.FormatError(err, false, true))
	}

	log.Debug().
		Str("path", path).
		Msg("Loaded YAML configuration")

	return nil
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "200ms", "1s").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
