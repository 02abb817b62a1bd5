// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"codeberg.org/pixivfe/msginline/config"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "msginline %s (revision: %s, go: %s)\n",
				config.BuildVersion, config.Revision(), runtime.Version())

			return nil
		},
	}
}
