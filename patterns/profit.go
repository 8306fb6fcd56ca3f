// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package patterns

import (
	"math"

	"github.com/gammalabs/gamma/gamma"
	"github.com/gammalabs/gamma/wire"
)

// gate applies the quality-adjusted profitability test to a raw cluster.
//
// # Description
//
// Rewriting a cluster keeps one leader intact and replaces every other
// member's value with a pattern-table reference, so savings are the wire
// bytes freed by those substitutions. Overhead is the pattern-table entry
// the rewrite must add: a fixed entry cost plus one member id per member.
// The cluster is profitable when
//
//	savings > overhead * (1 + margin)
//
// where margin shrinks from BaseMargin toward MinMargin as cluster quality
// (frequency × structural complexity) grows: frequent, complex clusters are
// trusted with thinner margins, rare or trivial ones must clear a higher
// bar. This is the central tunable that prevents pathological expansion.
func (a *Analyzer) gate(t *gamma.Tree, c rawCluster) (Candidate, bool) {
	if len(c.members) < 2 {
		return Candidate{}, false
	}

	savings := 0
	complexity := 0.0
	for i, id := range c.members {
		n, ok := t.Node(id)
		if !ok {
			return Candidate{}, false
		}
		complexity += float64(len(n.Children))
		if i == 0 {
			continue // the leader keeps its payload
		}
		gain := wire.ValueBytes(n.Value) - wire.RefBytes
		if gain > 0 {
			savings += gain
		}
	}
	complexity /= float64(len(c.members))

	overhead := wire.PatternEntryBytes + wire.PatternMemberBytes*len(c.members)
	quality := qualityScore(len(c.members), complexity)
	margin := a.qualityMargin(quality)

	if float64(savings) <= float64(overhead)*(1+margin) {
		return Candidate{}, false
	}

	return Candidate{
		Signature: c.signature,
		Members:   c.members,
		Savings:   savings,
		Overhead:  overhead,
		Quality:   quality,
		Semantic:  c.semantic,
	}, true
}

// qualityScore combines frequency and average structural complexity.
func qualityScore(frequency int, complexity float64) float64 {
	return math.Log2(float64(frequency)) * (1 + complexity)
}

// qualityMargin maps a quality score onto [MinMargin, BaseMargin].
func (a *Analyzer) qualityMargin(quality float64) float64 {
	if quality <= 0 {
		return a.cfg.BaseMargin
	}
	m := a.cfg.BaseMargin / (1 + quality)
	if m < a.cfg.MinMargin {
		m = a.cfg.MinMargin
	}
	return m
}
