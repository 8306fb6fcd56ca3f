// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads engine configuration from embedded defaults with an
// optional YAML file override.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gammalabs/gamma/patterns"
	"github.com/gammalabs/gamma/rewrite"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrValidation is returned for out-of-bounds configuration values.
var ErrValidation = errors.New("config: validation failed")

// File is the on-disk configuration shape.
type File struct {
	Engine struct {
		EnableValueCompression bool    `yaml:"enable_value_compression"`
		EnableDeduplication    bool    `yaml:"enable_deduplication"`
		EnablePatterns         bool    `yaml:"enable_patterns"`
		EnableMetaFolding      bool    `yaml:"enable_meta_folding"`
		TargetRatio            float64 `yaml:"target_ratio"`
		GPUThresholdBytes      int     `yaml:"gpu_threshold_bytes"`
		MaxMemoryMB            int     `yaml:"max_memory_mb"`
	} `yaml:"engine"`

	Patterns struct {
		MinFrequency         int     `yaml:"min_frequency"`
		SemanticMinFrequency int     `yaml:"semantic_min_frequency"`
		SizeTolerance        float64 `yaml:"size_tolerance"`
		OverlapThreshold     float64 `yaml:"overlap_threshold"`
		BaseMargin           float64 `yaml:"base_margin"`
		MinMargin            float64 `yaml:"min_margin"`
		Workers              int     `yaml:"workers"`
	} `yaml:"patterns"`

	Tuner struct {
		Rate    float64 `yaml:"rate"`
		MinRate float64 `yaml:"min_rate"`
		MaxRate float64 `yaml:"max_rate"`
		History int     `yaml:"history"`
	} `yaml:"tuner"`
}

// Load returns the embedded defaults, overlaid with the YAML file at path
// when path is non-empty.
func Load(path string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(defaultsYAML, &f); err != nil {
		return nil, fmt.Errorf("config: parse embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		slog.Default().Info("loaded config override", "path", path)
	}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// validate applies bounds checks with explicit messages.
func (f *File) validate() error {
	e := f.Engine
	if e.TargetRatio <= 0 {
		return fmt.Errorf("%w: engine.target_ratio must be positive, got %.2f", ErrValidation, e.TargetRatio)
	}
	if e.GPUThresholdBytes < 0 {
		return fmt.Errorf("%w: engine.gpu_threshold_bytes must be non-negative, got %d", ErrValidation, e.GPUThresholdBytes)
	}
	if e.MaxMemoryMB <= 0 {
		return fmt.Errorf("%w: engine.max_memory_mb must be positive, got %d", ErrValidation, e.MaxMemoryMB)
	}

	p := f.Patterns
	if p.MinFrequency < 2 {
		return fmt.Errorf("%w: patterns.min_frequency must be at least 2, got %d", ErrValidation, p.MinFrequency)
	}
	if p.SemanticMinFrequency < p.MinFrequency {
		return fmt.Errorf("%w: patterns.semantic_min_frequency %d below min_frequency %d",
			ErrValidation, p.SemanticMinFrequency, p.MinFrequency)
	}
	if p.OverlapThreshold <= 0 || p.OverlapThreshold > 1 {
		return fmt.Errorf("%w: patterns.overlap_threshold must be in (0, 1], got %.2f", ErrValidation, p.OverlapThreshold)
	}
	if p.BaseMargin < p.MinMargin {
		return fmt.Errorf("%w: patterns.base_margin %.2f below min_margin %.2f",
			ErrValidation, p.BaseMargin, p.MinMargin)
	}

	t := f.Tuner
	if t.Rate <= 0 || t.MinRate <= 0 || t.MaxRate < t.MinRate {
		return fmt.Errorf("%w: tuner rates (rate %.3f, min %.3f, max %.3f)",
			ErrValidation, t.Rate, t.MinRate, t.MaxRate)
	}
	return nil
}

// EngineConfig converts the file into the rewrite engine's config.
func (f *File) EngineConfig() rewrite.Config {
	return rewrite.Config{
		EnableValueCompression: f.Engine.EnableValueCompression,
		EnableDeduplication:    f.Engine.EnableDeduplication,
		EnablePatterns:         f.Engine.EnablePatterns,
		EnableMetaFolding:      f.Engine.EnableMetaFolding,
		TargetRatio:            f.Engine.TargetRatio,
		GPUThreshold:           f.Engine.GPUThresholdBytes,
		MaxMemoryMB:            f.Engine.MaxMemoryMB,
		Patterns: patterns.Config{
			MinFrequency:         f.Patterns.MinFrequency,
			SemanticMinFrequency: f.Patterns.SemanticMinFrequency,
			SizeTolerance:        f.Patterns.SizeTolerance,
			OverlapThreshold:     f.Patterns.OverlapThreshold,
			BaseMargin:           f.Patterns.BaseMargin,
			MinMargin:            f.Patterns.MinMargin,
			Workers:              f.Patterns.Workers,
		},
	}
}
