// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rewrite

import "errors"

var (
	// ErrNilTree is returned when Compress is given a nil tree.
	ErrNilTree = errors.New("rewrite: nil tree")

	// ErrInvalidConfig is returned for out-of-range engine configuration.
	ErrInvalidConfig = errors.New("rewrite: invalid config")

	// ErrAllocation marks a refused accelerator allocation. Non-fatal:
	// the engine falls back to the CPU path and continues.
	ErrAllocation = errors.New("rewrite: allocation refused")

	// ErrPatternAnalysis marks a failed candidate analysis. Fatal for the
	// run: the caller's tree is left unmodified.
	ErrPatternAnalysis = errors.New("rewrite: pattern analysis failed")

	// ErrCompressionFailed marks a failed pass. The engine restores the
	// pre-pass tree and continues with the remaining passes.
	ErrCompressionFailed = errors.New("rewrite: compression pass failed")
)
