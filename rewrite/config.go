// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rewrite

import (
	"fmt"

	"github.com/gammalabs/gamma/patterns"
)

// Config selects and tunes the engine's passes. Every pass is individually
// skippable; a disabled pass is simply absent from the run.
type Config struct {
	// EnableValueCompression turns on the value-table pass.
	EnableValueCompression bool

	// EnableDeduplication turns on structural subtree deduplication.
	EnableDeduplication bool

	// EnablePatterns turns on pattern clustering and materialization.
	EnablePatterns bool

	// EnableMetaFolding turns on folding of nested patterns.
	EnableMetaFolding bool

	// TargetRatio is the compression ratio the tuner steers toward.
	TargetRatio float64

	// GPUThreshold is the pattern byte footprint at which the engine
	// consults the allocator before materializing. 0 disables offload.
	GPUThreshold int

	// MaxMemoryMB caps the wire size of a tree the engine will accept.
	MaxMemoryMB int

	// Patterns tunes candidate analysis for the clustering pass.
	Patterns patterns.Config
}

// DefaultConfig returns the engine defaults: all passes on.
func DefaultConfig() Config {
	return Config{
		EnableValueCompression: true,
		EnableDeduplication:    true,
		EnablePatterns:         true,
		EnableMetaFolding:      true,
		TargetRatio:            1.5,
		GPUThreshold:           4096,
		MaxMemoryMB:            512,
		Patterns:               patterns.DefaultConfig(),
	}
}

// validate checks the config bounds.
func (c Config) validate() error {
	if c.TargetRatio <= 0 {
		return fmt.Errorf("%w: target ratio %.2f", ErrInvalidConfig, c.TargetRatio)
	}
	if c.GPUThreshold < 0 {
		return fmt.Errorf("%w: gpu threshold %d", ErrInvalidConfig, c.GPUThreshold)
	}
	if c.MaxMemoryMB <= 0 {
		return fmt.Errorf("%w: max memory %d MB", ErrInvalidConfig, c.MaxMemoryMB)
	}
	return nil
}
