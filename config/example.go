// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	placeholderLocale = "en"

	envFileHeader = `# msginline configuration (via environment variables)
#
# Copy this file to .env and customize the values below.
#
# This file was auto-generated using msginline genconfig.

`
	yamlFileHeader = `# msginline configuration (via configuration file)
#
# Copy this file to msginline.yaml and customize the values below.
#
# This file was auto-generated using msginline genconfig.
`
)

// WriteEnvExample writes a commented .env template listing every environment
// variable with its default.
func WriteEnvExample(w io.Writer) error {
	cfg := &Config{}
	cfg.SetDefaults()

	var sb strings.Builder
	sb.WriteString(envFileHeader)

	val := reflect.ValueOf(*cfg)
	typ := val.Type()

	for i := range typ.NumField() {
		structField := typ.Field(i)
		structValue := val.Field(i)

		if structField.Name == "Build" {
			continue
		}

		if structValue.Kind() != reflect.Struct {
			writeEnvLine(&sb, structField, structValue)
			sb.WriteString("\n")

			continue
		}

		fmt.Fprintf(&sb, "## %s\n", structField.Name)

		innerTyp := structValue.Type()
		for j := range innerTyp.NumField() {
			writeEnvLine(&sb, innerTyp.Field(j), structValue.Field(j))
		}

		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, strings.TrimRight(sb.String(), "\n")+"\n")

	return err
}

func writeEnvLine(sb *strings.Builder, field reflect.StructField, value reflect.Value) {
	envVarName, ok := field.Tag.Lookup("env")
	if !ok {
		return
	}

	switch {
	case envVarName == "MSGINLINE_LOCALES":
		// Uncomment essential fields.
		fmt.Fprintf(sb, "%s=%q\n", envVarName, placeholderLocale)
	case value.Kind() == reflect.Slice:
		sep := field.Tag.Get("envSeparator")

		parts := make([]string, value.Len())
		for k := range value.Len() {
			parts[k] = fmt.Sprint(value.Index(k).Interface())
		}

		fmt.Fprintf(sb, "# %s=%s\n", envVarName, strings.Join(parts, sep))
	case value.Kind() == reflect.String && value.Len() == 0:
		fmt.Fprintf(sb, "# %s=\n", envVarName)
	default:
		fmt.Fprintf(sb, "# %s=%v\n", envVarName, value.Interface())
	}
}

// WriteYAMLExample writes a YAML configuration template holding the defaults,
// with everything but the locales commented out.
func WriteYAMLExample(w io.Writer) error {
	cfg := &Config{}
	cfg.SetDefaults()

	cfg.I18n.Locales = []string{placeholderLocale}

	var yamlContent strings.Builder

	encoderOpts := []yaml.EncodeOption{
		GetDurationEncoderOption(),
		yaml.Indent(2),
		yaml.IndentSequence(true),
	}
	if err := yaml.NewEncoder(&yamlContent, encoderOpts...).Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(yamlFileHeader)

	keep := false

	for line := range strings.SplitSeq(yamlContent.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Top-level keys (e.g., "i18n:") are treated as section headers.
		if !strings.HasPrefix(line, " ") {
			fmt.Fprintf(&sb, "\n%s\n", line)

			continue
		}

		// Keep the locale list and its items uncommented.
		if strings.HasPrefix(trimmed, "locales:") {
			keep = true

			sb.WriteString(line + "\n")

			continue
		}

		if keep && strings.HasPrefix(trimmed, "- ") {
			sb.WriteString(line + "\n")

			continue
		}

		keep = false

		indentSize := len(line) - len(strings.TrimLeft(line, " "))
		fmt.Fprintf(&sb, "%s# %s\n", strings.Repeat(" ", indentSize), trimmed)
	}

	_, err := io.WriteString(w, sb.String())

	return err
}
