// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	historyDir string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "gammac",
		Short: "Compress source files through the Γ-AST pattern pipeline",
		Long: `gammac parses source files into a language-agnostic tree and
compresses the tree with value tables, structural deduplication, and
pattern clustering. Every run is verified for fidelity before the
result is reported.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	compressCmd = &cobra.Command{
		Use:   "compress [file]",
		Short: "Compress one source file and print the run report",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompress,
	}

	watchCmd = &cobra.Command{
		Use:   "watch [directory]",
		Short: "Recompress supported files in a directory as they change",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config override")
	rootCmd.PersistentFlags().StringVar(&historyDir, "history-dir", "", "directory for the run-history store")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(watchCmd)
}
