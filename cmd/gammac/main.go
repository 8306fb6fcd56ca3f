// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command gammac compresses source files through the Γ-AST pipeline.
//
// Usage:
//
//	gammac compress main.py
//	gammac compress --config gamma.yaml --history-dir ~/.gammac src/lib.rs
//	gammac watch ./src
package main

import (
	"fmt"
	"log/slog"
	"os"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gammac:", err)
		os.Exit(1)
	}
}
