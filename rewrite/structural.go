// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rewrite

import (
	"context"
	"fmt"

	"github.com/gammalabs/gamma/gamma"
	"github.com/gammalabs/gamma/wire"
)

// clusterPatterns materializes profitable candidates as patterns.
//
// # Description
//
// For each accepted candidate the first member is the leader and keeps its
// payload; every other member with a Direct value worth more than a
// reference is rewritten to a pattern-table reference. Children are never
// touched here — structure stays intact, only values shrink.
//
// Large patterns are offered to the allocator first; a refusal routes the
// same work through the CPU path, which produces identical output. Offload
// changes where the work is accounted, never what it computes.
func (e *Engine) clusterPatterns(ctx context.Context, t *gamma.Tree) (int, error) {
	candidates, err := e.analyzer.Analyze(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrPatternAnalysis, err)
	}

	next := nextPatternID(t)
	materialized := 0

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return materialized, err
		}

		pid := next

		size := 0
		snapshot := make([]gamma.Node, 0, len(c.Members))
		for _, id := range c.Members {
			n, ok := t.Node(id)
			if !ok {
				continue
			}
			size += wire.ValueBytes(n.Value)
			snapshot = append(snapshot, *n)
		}
		if len(snapshot) < 2 {
			continue
		}

		owner := fmt.Sprintf("pattern/%d", pid)
		offloaded := false
		if e.cfg.GPUThreshold > 0 && size >= e.cfg.GPUThreshold {
			if err := e.alloc.Allocate(int64(size), owner); err != nil {
				e.logger.Debug("gpu offload refused, using cpu path",
					"pattern", pid,
					"bytes", size,
					"error", fmt.Errorf("%w: %s", ErrAllocation, err),
				)
			} else {
				offloaded = true
			}
		}

		leader, _ := t.Node(c.Members[0])
		leader.Note = gamma.Annotation{Kind: gamma.AnnotationPatternLeader, Pattern: pid}

		for _, id := range c.Members[1:] {
			n, ok := t.Node(id)
			if !ok {
				continue
			}
			if n.Value.Kind != gamma.ValueDirect || wire.ValueBytes(n.Value) <= wire.RefBytes {
				continue
			}
			original := n.Value.Str
			n.Value = gamma.PatternRef(pid)
			n.Note = gamma.Annotation{
				Kind:     gamma.AnnotationPatternMember,
				Pattern:  pid,
				Original: original,
			}
			if n.Level < gamma.LevelHeavy {
				n.Level = gamma.LevelHeavy
			}
		}

		t.AddPattern(&gamma.Pattern{
			ID:        pid,
			Signature: c.Signature,
			Frequency: uint32(len(snapshot)),
			Size:      size,
			Nodes:     snapshot,
			Languages: []string{t.SourceLanguage},
		})

		if offloaded {
			e.alloc.Release(owner)
		}
		next++
		materialized++
	}
	return materialized, nil
}

// nextPatternID returns the smallest unused pattern id, starting at 1.
func nextPatternID(t *gamma.Tree) gamma.PatternID {
	var max gamma.PatternID
	for id := range t.Patterns {
		if id > max {
			max = id
		}
	}
	return max + 1
}
