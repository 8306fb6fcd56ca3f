// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package patterns

import "errors"

// Sentinel errors for the patterns package.
var (
	// ErrNilTree indicates a nil tree was passed to analysis.
	ErrNilTree = errors.New("nil tree")

	// ErrInvalidConfig indicates analyzer configuration is out of bounds.
	ErrInvalidConfig = errors.New("invalid analyzer configuration")

	// ErrAnalysis indicates the clustering step could not complete. The
	// caller must abort the run and return the tree unmodified.
	ErrAnalysis = errors.New("pattern analysis failed")
)
