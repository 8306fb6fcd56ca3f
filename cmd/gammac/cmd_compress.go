// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gammalabs/gamma/config"
	"github.com/gammalabs/gamma/history"
	"github.com/gammalabs/gamma/learn"
	"github.com/gammalabs/gamma/parsers"
	"github.com/gammalabs/gamma/rewrite"
)

func runCompress(cmd *cobra.Command, args []string) error {
	if verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	engine, store, err := buildPipeline()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	result, err := compressFile(cmd, engine, store, args[0])
	if result != nil {
		printReport(cmd, args[0], result)
	}
	return err
}

// buildPipeline wires the engine and the optional history store from the
// shared flags.
func buildPipeline() (*rewrite.Engine, *history.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	tuner := learn.NewEMATuner(
		float32(cfg.Tuner.Rate),
		float32(cfg.Tuner.MinRate),
		float32(cfg.Tuner.MaxRate),
		cfg.Tuner.History,
	)
	engine, err := rewrite.New(cfg.EngineConfig(), rewrite.WithTuner(tuner))
	if err != nil {
		return nil, nil, err
	}

	var store *history.Store
	if historyDir != "" {
		store, err = history.Open(historyDir)
		if err != nil {
			return nil, nil, err
		}
	}
	return engine, store, nil
}

// compressFile runs the full pipeline over one file.
func compressFile(cmd *cobra.Command, engine *rewrite.Engine, store *history.Store, path string) (*rewrite.Result, error) {
	parser, err := parsers.ForFile(path)
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	tree, err := parser.Parse(string(source))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	result, err := engine.Compress(cmd.Context(), tree)
	if result != nil && store != nil {
		putErr := store.Put(history.Record{
			RunID:          result.RunID,
			SourceLanguage: result.SourceLanguage,
			OriginalSize:   result.OriginalSize,
			CompressedSize: result.CompressedSize,
			Ratio:          result.Ratio,
			PatternsFound:  result.PatternsFound,
			Verified:       result.Verification.Passed,
			Duration:       result.Duration,
		})
		if putErr != nil {
			slog.Default().Warn("failed to persist run record", "error", putErr)
		}
	}
	return result, err
}

// printReport writes the human-readable run report to stdout.
func printReport(cmd *cobra.Command, path string, r *rewrite.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", path, r.SourceLanguage)
	fmt.Fprintf(out, "  original:   %d bytes\n", r.OriginalSize)
	fmt.Fprintf(out, "  compressed: %d bytes\n", r.CompressedSize)
	fmt.Fprintf(out, "  ratio:      %.2fx\n", r.Ratio)
	fmt.Fprintf(out, "  patterns:   %d found, %d folded\n", r.PatternsFound, r.PatternsFolded)
	fmt.Fprintf(out, "  values:     %d rewritten, %d nodes redirected\n", r.ValuesRewritten, r.NodesRedirected)

	v := r.Verification
	if v.Passed {
		fmt.Fprintf(out, "  fidelity:   PASS\n")
	} else {
		fmt.Fprintf(out, "  fidelity:   FAIL (%d violations)\n", len(v.Violations))
		for _, viol := range v.Violations {
			fmt.Fprintf(out, "    - %s\n", viol)
		}
	}
	for _, w := range v.Warnings {
		fmt.Fprintf(out, "  warning:    %s\n", w)
	}
}
