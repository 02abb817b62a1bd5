// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"codeberg.org/pixivfe/msginline/config"
)

const (
	envExampleFile  = ".env.example"
	yamlExampleFile = "msginline.yaml.example"
	filePerm        = 0o644
)

func newGenconfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "genconfig [dir]",
		Short: "Write example configuration files",
		Long:  "Write " + envExampleFile + " and " + yamlExampleFile + " holding the defaults to dir (default: the current directory).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			for name, write := range map[string]func(io.Writer) error{
				envExampleFile:  config.WriteEnvExample,
				yamlExampleFile: config.WriteYAMLExample,
			} {
				var buf bytes.Buffer
				if err := write(&buf); err != nil {
					return err
				}

				path := filepath.Join(dir, name)
				if err := os.WriteFile(path, buf.Bytes(), filePerm); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}

				log.Info().Str("path", path).Msg("Generated example configuration")
			}

			return nil
		},
	}
}
