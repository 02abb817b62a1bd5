// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"codeberg.org/pixivfe/msginline/core/catalog"
	"codeberg.org/pixivfe/msginline/core/extract"
)

func newExtractCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "extract [packages]",
		Short: "Write catalog skeletons listing every message key in use",
		Long: `Scan the packages for translation calls and MsgKey conversions, then write one
catalog skeleton per locale to <out>/extract. Existing translations are carried
over and missing ones are left empty.`,
		Example: `  # Write fr.po and de.po skeletons
  msginline extract -l fr,de --format po ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}

			entries, err := extract.Scan(cmd.Context(), extract.Options{
				Dir:          cfg.Source.Dir,
				Patterns:     cfg.Source.Patterns,
				Tags:         cfg.Source.Tags,
				Tests:        cfg.Source.Tests,
				FunctionName: cfg.I18n.FunctionName,
			})
			if err != nil {
				return err
			}

			languages, err := catalog.Load(cfg.I18n.Languages)
			if err != nil {
				return err
			}

			paths, err := extract.WriteFiles(filepath.Join(cfg.Output.Dir, "extract"), format, cfg.I18n.Locales, entries, languages)
			if err != nil {
				return err
			}

			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", extract.FormatYAML, "Skeleton format: yaml or po")

	return cmd
}
