// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"codeberg.org/pixivfe/msginline/config"
	"codeberg.org/pixivfe/msginline/core/build"
	"codeberg.org/pixivfe/msginline/core/catalog"
	"codeberg.org/pixivfe/msginline/core/inline"
	"codeberg.org/pixivfe/msginline/core/lrucache"
)

func newBuildCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "build [packages]",
		Short: "Inline messages and write overlays",
		Long: `Inline messages for every configured locale. The rewritten files for a locale
are written below <out>/<locale>, next to the overlay file that points the Go
toolchain at them.`,
		Example: `  # Inline French and German messages, then compile the French build
  msginline build -l fr -l de ./...
  go build -overlay .msginline/fr/overlay.json ./...

  # Rebuild whenever a source or catalog file changes
  msginline build -l fr --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}

			cache, err := lrucache.New(cfg.Cache.Size, cfg.Cache.Compress)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if !watch {
				results, err := buildAll(cmd.Context(), cfg, cache, false)
				if err != nil {
					return err
				}

				return summarize(out, results, true)
			}

			rebuild := func(ctx context.Context) error {
				results, err := buildAll(ctx, cfg, cache, false)
				if err != nil {
					return err
				}

				// Errors are reported but do not stop the watcher.
				_ = summarize(out, results, true)

				return nil
			}

			if err := rebuild(cmd.Context()); err != nil {
				log.Error().Err(err).Msg("Initial build failed")
			}

			return build.Watch(cmd.Context(), build.WatchOptions{
				Roots:    []string{cfg.Source.Dir, cfg.I18n.Languages},
				Ignore:   []string{cfg.Output.Dir},
				Debounce: cfg.Watch.Debounce,
			}, rebuild, nil)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rebuild when Go sources or catalogs change")

	return cmd
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [packages]",
		Short: "Report missing and malformed messages without writing anything",
		Example: `  # Fail CI when a Japanese translation is missing
  msginline check -l ja --fail-on-missing ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}

			cache, err := lrucache.New(cfg.Cache.Size, false)
			if err != nil {
				return err
			}

			results, err := buildAll(cmd.Context(), cfg, cache, true)
			if err != nil {
				return err
			}

			return summarize(cmd.OutOrStdout(), results, false)
		},
	}
}

// buildAll loads the catalogs and packages once, then inlines every configured
// locale over the same syntax.
func buildAll(ctx context.Context, cfg *config.Config, cache *lrucache.Cache, dryRun bool) ([]*build.Result, error) {
	languages, err := catalog.Load(cfg.I18n.Languages)
	if err != nil {
		return nil, err
	}

	source := build.Options{
		Dir:      cfg.Source.Dir,
		Patterns: cfg.Source.Patterns,
		Tags:     cfg.Source.Tags,
		Tests:    cfg.Source.Tests,
	}

	pkgs, err := build.Load(ctx, source)
	if err != nil {
		return nil, err
	}

	results := make([]*build.Result, 0, len(cfg.I18n.Locales))

	for _, locale := range cfg.I18n.Locales {
		if !languages.Has(locale) {
			log.Warn().
				Str("locale", locale).
				Str("path", cfg.I18n.Languages).
				Msg("No catalog for locale, every message will be missing")
		}

		inl, err := inline.New(locale, languages, inline.Options{
			FunctionName:  cfg.I18n.FunctionName,
			CustomFormats: &cfg.I18n.CustomFormats,
			FailOnMissing: cfg.I18n.FailOnMissing,
		})
		if err != nil {
			return nil, err
		}

		opts := source
		opts.OutDir = filepath.Join(cfg.Output.Dir, locale)
		opts.Concurrency = cfg.Concurrency
		opts.DryRun = dryRun
		opts.Cache = cache

		b, err := build.New(inl, opts)
		if err != nil {
			return nil, err
		}

		res, err := b.RunPackages(ctx, pkgs)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", locale, err)
		}

		results = append(results, res)
	}

	return results, nil
}

// summarize prints one line per locale and fails when any of them reported errors.
func summarize(w io.Writer, results []*build.Result, showOverlay bool) error {
	failed := false

	for _, res := range results {
		warnings, errs := 0, 0

		for _, r := range res.Reports() {
			warnings += len(r.Warnings)
			errs += len(r.Errors)
		}

		fmt.Fprintf(w, "%s: %d file(s) inlined, %d warning(s), %d error(s)", res.Locale, res.Rewritten(), warnings, errs)

		if showOverlay && res.Overlay != "" {
			fmt.Fprintf(w, ", overlay %s", res.Overlay)
		}

		fmt.Fprintln(w)

		failed = failed || res.HasErrors()
	}

	if failed {
		return &ExitError{Code: ExitFailure, Err: errMissingLocalizations}
	}

	return nil
}
