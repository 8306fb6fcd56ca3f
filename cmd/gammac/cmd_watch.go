// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/gammalabs/gamma/parsers"
)

func runWatch(cmd *cobra.Command, args []string) error {
	if verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("watch target %s is not a directory", dir)
	}

	engine, store, err := buildPipeline()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "watching %s (languages: %v)\n", dir, parsers.Languages())

	logger := slog.Default().With("component", "watch")
	for {
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if _, err := parsers.ForFile(event.Name); err != nil {
				continue
			}

			result, err := compressFile(cmd, engine, store, event.Name)
			if result != nil {
				printReport(cmd, event.Name, result)
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Warn("compression failed", "file", event.Name, "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
