// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rewrite runs the compression pipeline over a Γ-AST.
//
// # Description
//
// The engine applies an ordered sequence of individually-skippable passes:
// value compression, structural deduplication, pattern clustering, and
// pattern folding. Each pass is all-or-nothing — it runs against a snapshot
// boundary, and a pass that errors or would grow the canonical wire size is
// discarded wholesale. The caller's tree is never mutated; all work happens
// on a clone.
//
// # Thread Safety
//
// An Engine is safe for concurrent Compress calls; runs share only the
// bounded history ring, which is mutex-guarded.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gammalabs/gamma/gamma"
	"github.com/gammalabs/gamma/learn"
	"github.com/gammalabs/gamma/patterns"
	"github.com/gammalabs/gamma/sched"
	"github.com/gammalabs/gamma/verify"
	"github.com/gammalabs/gamma/wire"
)

// historyCap bounds the in-memory run history ring.
const historyCap = 100

// Result is the outcome of one compression run.
type Result struct {
	// RunID uniquely identifies the run.
	RunID string

	// SourceLanguage is copied from the input tree.
	SourceLanguage string

	// OriginalSize and CompressedSize are canonical wire sizes.
	OriginalSize   int
	CompressedSize int

	// Ratio is OriginalSize / CompressedSize.
	Ratio float64

	// PatternsFound counts patterns materialized by the clustering pass.
	PatternsFound int

	// ValuesRewritten counts value-table substitutions and hash elisions.
	ValuesRewritten int

	// NodesRedirected counts duplicates redirected to survivors.
	NodesRedirected int

	// PatternsFolded counts patterns absorbed by the folding pass.
	PatternsFolded int

	// Duration is wall-clock time for the whole run.
	Duration time.Duration

	// Verification is the fidelity report; never nil on a returned Result.
	Verification *verify.Report

	// Values holds the payloads extracted by the value pass.
	Values ValueTable

	// Tree is the compressed clone.
	Tree *gamma.Tree
}

// Option configures an Engine.
type Option func(*Engine)

// WithTuner injects the learning collaborator.
func WithTuner(t learn.Tuner) Option {
	return func(e *Engine) { e.tuner = t }
}

// WithAllocator injects the resource-bookkeeping collaborator.
func WithAllocator(a sched.Allocator) Option {
	return func(e *Engine) { e.alloc = a }
}

// WithLogger overrides the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine orchestrates the compression passes.
type Engine struct {
	cfg      Config
	tuner    learn.Tuner
	alloc    sched.Allocator
	analyzer *patterns.Analyzer
	logger   *slog.Logger

	mu      sync.Mutex
	history []Result
}

// New returns an engine for the given config. Collaborators default to
// no-ops; the engine works standalone.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	analyzer, err := patterns.NewAnalyzer(cfg.Patterns)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	e := &Engine{
		cfg:      cfg,
		tuner:    learn.NopTuner{},
		alloc:    sched.NopAllocator{},
		analyzer: analyzer,
		logger:   slog.Default().With("component", "rewrite_engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Compress runs the configured passes over a clone of the tree.
//
// # Description
//
// Passes run in a fixed order; each is measured with the canonical sizer
// before and after, and rejected wholesale if it errored or grew the tree.
// Analysis failure aborts the run. After the passes the result is verified
// against the input; a fidelity violation is returned as an error alongside
// the full Result so the caller can inspect the report.
//
// # Inputs
//
//   - ctx: Context for cancellation, checked at pass boundaries.
//   - t: The tree to compress. Must not be nil. Never mutated.
//
// # Outputs
//
//   - *Result: The run outcome, including the compressed clone. Nil only
//     when the run aborted before producing one.
//   - error: ErrNilTree, ErrCompressionFailed, ErrPatternAnalysis, a
//     context error, or verify.ErrFidelity.
func (e *Engine) Compress(ctx context.Context, t *gamma.Tree) (*Result, error) {
	if t == nil {
		return nil, ErrNilTree
	}
	start := time.Now()
	ctx, span := startCompressSpan(ctx, t.Len())
	defer span.End()

	originalSize := wire.Size(t)
	if budget := e.cfg.MaxMemoryMB << 20; originalSize > budget {
		return nil, fmt.Errorf("%w: tree of %d bytes exceeds %d MB budget",
			ErrCompressionFailed, originalSize, e.cfg.MaxMemoryMB)
	}

	res := &Result{
		RunID:          uuid.NewString(),
		SourceLanguage: t.SourceLanguage,
		OriginalSize:   originalSize,
	}
	work := t.Clone()

	type pass struct {
		name    string
		enabled bool
		run     func(ctx context.Context, t *gamma.Tree) (int, error)
		count   *int
	}
	passes := []pass{
		{
			name:    "values",
			enabled: e.cfg.EnableValueCompression,
			run: func(_ context.Context, t *gamma.Tree) (int, error) {
				return compressValues(t, &res.Values)
			},
			count: &res.ValuesRewritten,
		},
		{
			name:    "dedup",
			enabled: e.cfg.EnableDeduplication,
			run: func(_ context.Context, t *gamma.Tree) (int, error) {
				return deduplicate(t)
			},
			count: &res.NodesRedirected,
		},
		{
			name:    "patterns",
			enabled: e.cfg.EnablePatterns,
			run:     e.clusterPatterns,
			count:   &res.PatternsFound,
		},
		{
			name:    "fold",
			enabled: e.cfg.EnableMetaFolding,
			run: func(_ context.Context, t *gamma.Tree) (int, error) {
				return foldPatterns(t)
			},
			count: &res.PatternsFolded,
		},
	}

	for _, p := range passes {
		if !p.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		passStart := time.Now()
		before := wire.Size(work)
		snapshot := work.Clone()

		n, err := p.run(ctx, work)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, ErrPatternAnalysis) {
				// Analysis failure aborts the whole run.
				return nil, err
			}
			e.logger.Warn("pass failed, restoring pre-pass tree",
				"pass", p.name,
				"error", fmt.Errorf("%w: %s", ErrCompressionFailed, err),
			)
			work = snapshot
			continue
		}

		after := wire.Size(work)
		if after > before {
			e.logger.Warn("pass rejected, would grow tree",
				"pass", p.name,
				"before", before,
				"after", after,
			)
			work = snapshot
			continue
		}

		*p.count = n
		recordPass(ctx, p.name, time.Since(passStart), n)
		e.logger.Debug("pass complete",
			"pass", p.name,
			"rewrites", n,
			"bytes_before", before,
			"bytes_after", after,
		)
	}

	res.CompressedSize = wire.Size(work)
	res.Ratio = ratio(res.OriginalSize, res.CompressedSize, t.Len())
	res.Duration = time.Since(start)
	res.Tree = work
	res.Verification = verify.Verify(t, work)

	e.tuner.RecordEvent(float32(res.Ratio-e.cfg.TargetRatio), "compression_run")
	e.appendHistory(res)
	recordRun(ctx, span, res.Ratio, res.Verification.Passed)

	e.logger.Info("compression run complete",
		"run_id", res.RunID,
		"original_bytes", res.OriginalSize,
		"compressed_bytes", res.CompressedSize,
		"ratio", res.Ratio,
		"patterns", res.PatternsFound,
		"verified", res.Verification.Passed,
		"duration", res.Duration,
	)

	if err := res.Verification.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// History returns a copy of the retained run results, oldest first.
func (e *Engine) History() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Result(nil), e.history...)
}

func (e *Engine) appendHistory(r *Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, *r)
	if len(e.history) > historyCap {
		e.history = e.history[len(e.history)-historyCap:]
	}
}

// ratio defines the empty-tree ratio as 1.0; otherwise plain byte division.
func ratio(original, compressed, nodes int) float64 {
	if nodes == 0 || compressed == 0 {
		return 1.0
	}
	return float64(original) / float64(compressed)
}
