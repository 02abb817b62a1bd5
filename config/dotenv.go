// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// useDotEnv loads .env from the working directory, falling back to the
// directory of the running binary. Variables already set are kept.
func useDotEnv() error {
	if cwd, err := os.Getwd(); err != nil {
		log.Warn().
			Err(err).
			Msg("Could not get current working directory")
	} else if loaded, err := tryLoadDotEnv(filepath.Join(cwd, ".env")); err != nil || loaded {
		return err
	}

	dir := "."
	if exe, err := os.Executable(); err == nil {
		dir = filepath.Dir(exe)
	}

	_, err := tryLoadDotEnv(filepath.Join(dir, ".env"))

	return err
}

func tryLoadDotEnv(envPath string) (bool, error) {
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return false, nil
	}

	if err := godotenv.Load(envPath); err != nil {
		return false, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	log.Debug().
		Str("path", envPath).
		Msg("Loaded configuration from .env file")

	return true, nil
}
