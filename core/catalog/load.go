// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/leonelquinteros/gotext"
	"github.com/rs/zerolog/log"
)

// Extensions lists the catalog file extensions Load understands.
var Extensions = []string{".yaml", ".yml", ".json", ".toml", ".po"}

// IsCatalogFile reports whether name has one of [Extensions].
func IsCatalogFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}

	return false
}

// Load reads message tables from path.
//
// If path is a directory, each file named <locale>.<ext> becomes the table for
// that locale, for example "fr.yaml", "pt_BR.po" or "de.toml". Files with other
// extensions, and the gettext template "*.pot", are ignored.
//
// If path is a single YAML, JSON or TOML file, its top-level keys are locales and
// their values are the tables:
//
//	en:
//	  greeting: Hello, {name}!
//	fr:
//	  greeting: Bonjour, {name} !
func Load(path string) (Languages, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}

	if fi.IsDir() {
		return loadDir(path)
	}

	return loadBundle(path)
}

func loadDir(dir string) (Languages, error) {
	logger := log.With().Str("sys", "catalog").Logger()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	langs := Languages{}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsCatalogFile(name) {
			continue
		}

		ext := filepath.Ext(name)
		locale := strings.TrimSuffix(name, ext)

		if _, err := Canonical(locale); err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("Skipping invalid locale file")
			continue
		}

		table, err := loadTable(dir, name)
		if err != nil {
			return nil, err
		}

		if err := langs.add(locale, table); err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Join(dir, name), err)
		}

		logger.Debug().
			Str("locale", locale).
			Str("file", name).
			Msg("Loaded locale")
	}

	return langs, nil
}

func loadTable(dir, name string) (Table, error) {
	if strings.EqualFold(filepath.Ext(name), ".po") {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		po := gotext.NewPo()
		po.Parse(data)

		return newPoTable(strings.TrimSuffix(name, filepath.Ext(name)), po), nil
	}

	raw, err := decodeFile(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}

	m := Map{}
	if err := flatten("", raw, m); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(dir, name), err)
	}

	return m, nil
}

func loadBundle(path string) (Languages, error) {
	if strings.EqualFold(filepath.Ext(path), ".po") || !IsCatalogFile(path) {
		return nil, fmt.Errorf("%w %s: a single catalog file must be YAML, JSON or TOML", errUnsupportedFile, path)
	}

	raw, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	langs := Languages{}

	for locale, v := range raw {
		m := Map{}

		nested, ok := asStringMap(v)
		if !ok {
			return nil, fmt.Errorf("%s: locale %q: %w %T", path, locale, errUnsupportedValue, v)
		}

		if err := flatten("", nested, m); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		if err := langs.add(locale, m); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	return langs, nil
}

func decodeFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- catalog paths come from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	raw := map[string]any{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse TOML from %s: %w", path, err)
		}
	default:
		// JSON is a subset of YAML, so one decoder serves both.
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	return raw, nil
}
