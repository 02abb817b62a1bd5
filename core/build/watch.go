// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"codeberg.org/pixivfe/msginline/core/catalog"
)

// DefaultDebounce is the quiet period Watch waits for before rebuilding.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures [Watch].
type WatchOptions struct {
	// Roots are watched recursively. A root may also be a single file, such
	// as a catalog bundle.
	Roots []string

	// Ignore lists directories that are never watched, typically the output directory.
	Ignore []string

	Debounce time.Duration
}

// Watch calls rebuild whenever a Go source or catalog file below opts.Roots
// changes, coalescing bursts of events. It returns when ctx is cancelled.
// Rebuild errors are logged and do not stop the watcher.
//
// If ready is non-nil, a value is sent once every root is registered.
func Watch(ctx context.Context, opts WatchOptions, rebuild func(context.Context) error, ready chan<- struct{}) error {
	logger := log.With().Str("sys", "watch").Logger()

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	ignored := make(map[string]bool, len(opts.Ignore))

	for _, dir := range opts.Ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			ignored[abs] = true
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	addTree := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() {
				if path == root {
					return watcher.Add(path)
				}

				return nil
			}

			if abs, _ := filepath.Abs(path); ignored[abs] || (path != root && skipDir(d.Name())) {
				return filepath.SkipDir
			}

			return watcher.Add(path)
		})
	}

	for _, root := range opts.Roots {
		if err := addTree(root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}

	logger.Info().Strs("roots", opts.Roots).Msg("Watching for changes")

	if ready != nil {
		ready <- struct{}{}
	}

	timer := time.NewTimer(opts.Debounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := addTree(event.Name); err != nil {
						logger.Warn().Err(err).Str("dir", event.Name).Msg("Failed to watch new directory")
					}

					continue
				}
			}

			if !relevant(event) {
				continue
			}

			logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Change detected")
			timer.Reset(opts.Debounce)
		case <-timer.C:
			start := time.Now()

			if err := rebuild(ctx); err != nil {
				logger.Error().Err(err).Msg("Rebuild failed")
				continue
			}

			logger.Info().Dur("took", time.Since(start)).Msg("Rebuilt")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	return strings.HasSuffix(event.Name, ".go") || catalog.IsCatalogFile(event.Name)
}

// skipDir matches the directories the go command itself ignores.
func skipDir(name string) bool {
	return name == "testdata" || name == "vendor" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
