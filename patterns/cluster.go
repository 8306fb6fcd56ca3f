// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package patterns derives structural signatures over a Γ-AST and groups
// nodes into compression candidates.
//
// # Description
//
// Analysis is a map step (compute each node's signature, parallel over
// shards) followed by a group-by reduce. Raw signature groups are then
// coarsened by two cheap similarity tests — size difference within a
// tolerance band and content overlap above a threshold — trading
// false-positive risk for higher compression yield. Every candidate must
// pass the quality-adjusted profitability gate before a rewrite may
// materialize it.
//
// # Thread Safety
//
// Analyzer is safe for concurrent use; it never mutates the tree.
package patterns

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/gammalabs/gamma/gamma"
	"github.com/gammalabs/gamma/wire"
)

// Config tunes candidate discovery and the profitability gate.
type Config struct {
	// MinFrequency is the smallest group materialized into a candidate.
	// A single-member "cluster" is never a candidate.
	MinFrequency int

	// SemanticMinFrequency applies to clusters produced by similarity
	// merging, which carry more false-positive risk.
	SemanticMinFrequency int

	// SizeTolerance is the relative size band for merging similar
	// signatures (0.25 means representatives within 25% of each other).
	SizeTolerance float64

	// OverlapThreshold is the minimum content-overlap score for a merge.
	OverlapThreshold float64

	// BaseMargin is the safety margin applied to bookkeeping overhead for
	// the least trusted clusters. Higher-quality clusters earn a margin
	// closer to MinMargin.
	BaseMargin float64

	// MinMargin is the floor of the quality-adjusted margin.
	MinMargin float64

	// Workers bounds the signature map step; 0 means NumCPU capped at 8.
	Workers int
}

// DefaultConfig returns the analyzer defaults.
func DefaultConfig() Config {
	return Config{
		MinFrequency:         2,
		SemanticMinFrequency: 3,
		SizeTolerance:        0.25,
		OverlapThreshold:     0.6,
		BaseMargin:           0.5,
		MinMargin:            0.1,
		Workers:              0,
	}
}

// maxAnalysisWorkers caps the signature map step regardless of CPU count.
const maxAnalysisWorkers = 8

// Candidate is a potential pattern before the rewrite engine materializes it.
type Candidate struct {
	// Signature is the shared (or, for merged clusters, leading) signature.
	Signature uint64

	// Members are the node ids in the cluster, ascending.
	Members []gamma.NodeID

	// Savings is the wire-byte gain from rewriting all non-leader members.
	Savings int

	// Overhead is the wire-byte bookkeeping cost of materialization.
	Overhead int

	// Quality scales the required safety margin; see qualityMargin.
	Quality float64

	// Semantic marks clusters produced by similarity merging rather than
	// exact signature equality.
	Semantic bool
}

// Frequency returns the member count.
func (c *Candidate) Frequency() int { return len(c.Members) }

// Analyzer discovers compression candidates in a tree.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer returns an analyzer with the given config.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if cfg.MinFrequency < 2 || cfg.SemanticMinFrequency < cfg.MinFrequency {
		return nil, fmt.Errorf("%w: frequency thresholds", ErrInvalidConfig)
	}
	if cfg.OverlapThreshold <= 0 || cfg.OverlapThreshold > 1 {
		return nil, fmt.Errorf("%w: overlap threshold", ErrInvalidConfig)
	}
	if cfg.BaseMargin < cfg.MinMargin {
		return nil, fmt.Errorf("%w: margins", ErrInvalidConfig)
	}
	return &Analyzer{cfg: cfg}, nil
}

// Analyze produces profitable candidates for the tree.
//
// # Description
//
// Runs the signature map step in parallel, groups by signature, merges
// similar groups within the same size bucket, and filters everything
// through the profitability gate. An empty tree yields no candidates.
//
// # Inputs
//
//   - ctx: Context for cancellation. Must not be nil.
//   - t: The tree to analyze. Must not be nil.
//
// # Outputs
//
//   - []Candidate: Accepted candidates, highest savings first.
//   - error: ErrNilTree, context error, or a wrapped ErrAnalysis.
func (a *Analyzer) Analyze(ctx context.Context, t *gamma.Tree) ([]Candidate, error) {
	if t == nil {
		return nil, ErrNilTree
	}
	ctx, span := startAnalyzeSpan(ctx, t.Len())
	defer span.End()

	if t.Len() == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups, err := a.groupBySignature(ctx, t)
	if err != nil {
		return nil, err
	}

	clusters := a.mergeSimilar(t, groups)

	out := make([]Candidate, 0, len(clusters))
	for _, c := range clusters {
		cand, ok := a.gate(t, c)
		if !ok {
			continue
		}
		out = append(out, cand)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Savings != out[j].Savings {
			return out[i].Savings > out[j].Savings
		}
		return out[i].Signature < out[j].Signature
	})

	recordAnalyzeResult(ctx, span, len(groups), len(out))
	return out, nil
}

// groupBySignature computes every node's signature in parallel and groups
// node ids by signature.
func (a *Analyzer) groupBySignature(ctx context.Context, t *gamma.Tree) (map[uint64][]gamma.NodeID, error) {
	ids := t.SortedNodeIDs()

	workers := a.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > maxAnalysisWorkers {
		workers = maxAnalysisWorkers
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	type sig struct {
		id  gamma.NodeID
		sig uint64
	}
	results := make([]sig, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	shard := (len(ids) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * shard
		hi := lo + shard
		if hi > len(ids) {
			hi = len(ids)
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				n, ok := t.Node(ids[i])
				if !ok {
					return fmt.Errorf("%w: node %d vanished during analysis", ErrAnalysis, ids[i])
				}
				results[i] = sig{id: ids[i], sig: Signature(n)}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	groups := make(map[uint64][]gamma.NodeID)
	for _, r := range results {
		groups[r.sig] = append(groups[r.sig], r.id)
	}
	return groups, nil
}

// rawCluster is a signature group before gating.
type rawCluster struct {
	signature uint64
	members   []gamma.NodeID
	semantic  bool
}

// mergeSimilar coarsens signature groups using the two similarity tests.
//
// Comparisons are bounded to groups in the same size bucket, so the
// quadratic fallback never spans the whole tree.
func (a *Analyzer) mergeSimilar(t *gamma.Tree, groups map[uint64][]gamma.NodeID) []rawCluster {
	sigs := make([]uint64, 0, len(groups))
	for s := range groups {
		sigs = append(sigs, s)
	}
	sort.Slice(sigs, func(i, j int) bool { return sigs[i] < sigs[j] })

	// Bucket groups by the log2 of their representative's encoded size.
	buckets := make(map[int][]uint64)
	repBytes := make(map[uint64]int, len(groups))
	for _, s := range sigs {
		rep, ok := t.Node(groups[s][0])
		if !ok {
			continue
		}
		b := wire.ValueBytes(rep.Value) + wire.PatternMemberBytes*len(rep.Children)
		repBytes[s] = b
		buckets[sizeBucket(b)] = append(buckets[sizeBucket(b)], s)
	}

	merged := make(map[uint64]bool)
	var out []rawCluster

	for _, s := range sigs {
		if merged[s] {
			continue
		}
		cluster := rawCluster{signature: s, members: append([]gamma.NodeID(nil), groups[s]...)}

		for _, other := range buckets[sizeBucket(repBytes[s])] {
			if other == s || merged[other] {
				continue
			}
			if !withinBand(repBytes[s], repBytes[other], a.cfg.SizeTolerance) {
				continue
			}
			if a.contentOverlap(t, groups[s][0], groups[other][0]) < a.cfg.OverlapThreshold {
				continue
			}
			cluster.members = append(cluster.members, groups[other]...)
			cluster.semantic = true
			merged[other] = true
		}

		minFreq := a.cfg.MinFrequency
		if cluster.semantic {
			minFreq = a.cfg.SemanticMinFrequency
		}
		if len(cluster.members) < minFreq {
			continue
		}
		sort.Slice(cluster.members, func(i, j int) bool { return cluster.members[i] < cluster.members[j] })
		out = append(out, cluster)
	}
	return out
}

// contentOverlap scores two representatives by the fraction of child
// positions with matching (kind, value class) pairs. Nodes of unequal kind
// never overlap.
func (a *Analyzer) contentOverlap(t *gamma.Tree, x, y gamma.NodeID) float64 {
	nx, okx := t.Node(x)
	ny, oky := t.Node(y)
	if !okx || !oky || nx.KindName() != ny.KindName() {
		return 0
	}
	max := len(nx.Children)
	if len(ny.Children) > max {
		max = len(ny.Children)
	}
	if max == 0 {
		// Leaves: overlap reduces to the value class.
		if ValueClass(nx.Value) == ValueClass(ny.Value) {
			return 1
		}
		return 0
	}
	matches := 0
	for i := 0; i < len(nx.Children) && i < len(ny.Children); i++ {
		cx, okcx := t.Node(nx.Children[i])
		cy, okcy := t.Node(ny.Children[i])
		if !okcx || !okcy {
			continue
		}
		if cx.KindName() == cy.KindName() && ValueClass(cx.Value) == ValueClass(cy.Value) {
			matches++
		}
	}
	return float64(matches) / float64(max)
}

func sizeBucket(b int) int {
	if b <= 0 {
		return 0
	}
	return int(math.Log2(float64(b)))
}

func withinBand(x, y int, tol float64) bool {
	max := x
	if y > max {
		max = y
	}
	if max == 0 {
		return true
	}
	diff := x - y
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) <= tol*float64(max)
}

// SubtreeGroups groups node ids by full-subtree fingerprint, keeping only
// groups with at least two members. Roots are excluded: the root set is
// invariant and a root can never be declared a duplicate of another node.
func SubtreeGroups(t *gamma.Tree) map[uint64][]gamma.NodeID {
	rootSet := make(map[gamma.NodeID]bool, len(t.Roots))
	for _, r := range t.Roots {
		rootSet[r] = true
	}
	memo := make(map[gamma.NodeID]uint64, t.Len())
	groups := make(map[uint64][]gamma.NodeID)
	for _, id := range t.SortedNodeIDs() {
		if rootSet[id] {
			continue
		}
		fp := subtreeFingerprint(t, id, memo)
		groups[fp] = append(groups[fp], id)
	}
	for fp, ids := range groups {
		if len(ids) < 2 {
			delete(groups, fp)
		}
	}
	return groups
}
