// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package build

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatch(t *testing.T, ctx context.Context, opts WatchOptions, rebuild func(context.Context) error) <-chan error {
	t.Helper()

	ready := make(chan struct{}, 1)
	done := make(chan error, 1)

	go func() {
		done <- Watch(ctx, opts, rebuild, ready)
	}()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("watch exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for watcher ready")
	}

	return done
}

func TestWatch_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "locales"), 0o755))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var calls atomic.Int32

	rebuilt := make(chan struct{}, 4)

	done := startWatch(t, ctx, WatchOptions{Roots: []string{dir}, Debounce: 20 * time.Millisecond}, func(context.Context) error {
		calls.Add(1)

		select {
		case rebuilt <- struct{}{}:
		default:
		}

		return nil
	})

	// A burst of writes collapses into one rebuild.
	for range 3 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o600))
	}

	select {
	case <-rebuilt:
	case <-ctx.Done():
		t.Fatal("timeout waiting for rebuild after Go change")
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "locales", "en.yaml"), []byte("a: b\n"), 0o600))

	select {
	case <-rebuilt:
	case <-ctx.Done():
		t.Fatal("timeout waiting for rebuild after catalog change")
	}

	cancel()
	require.NoError(t, <-done)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestWatch_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := startWatch(t, ctx, WatchOptions{Roots: []string{t.TempDir()}}, func(context.Context) error { return nil })

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after context cancel")
	}
}

func TestWatch_MissingRoot(t *testing.T) {
	err := Watch(context.Background(), WatchOptions{Roots: []string{filepath.Join(t.TempDir(), "nope")}}, nil, nil)
	assert.Error(t, err)
}

func TestRelevant(t *testing.T) {
	assert.True(t, relevant(fsnotify.Event{Name: "a/main.go", Op: fsnotify.Write}))
	assert.True(t, relevant(fsnotify.Event{Name: "locales/fr.po", Op: fsnotify.Create}))
	assert.False(t, relevant(fsnotify.Event{Name: "a/main.go", Op: fsnotify.Chmod}))
	assert.False(t, relevant(fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}))
	assert.True(t, skipDir(".git"))
	assert.True(t, skipDir("testdata"))
	assert.False(t, skipDir("internal"))
}
