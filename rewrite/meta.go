// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rewrite

import (
	"github.com/gammalabs/gamma/gamma"
)

// minFoldFrequency is the snapshot frequency both patterns must have before
// a fold is considered. Folding is conservative: it only collapses a pattern
// whose every member already lives inside another pattern's subtrees.
const minFoldFrequency = 3

// foldPatterns absorbs nested patterns into their enclosing ones.
//
// # Description
//
// When every member of pattern B sits strictly inside the subtrees of
// pattern A's members, B's table entry is pure overhead: the enclosing
// pattern already covers that structure. Folding rewrites B's member
// references to point at A, re-tags their annotations, and drops B. Each
// fold removes one pattern-table entry and its member list from the wire.
func foldPatterns(t *gamma.Tree) (int, error) {
	ids := t.SortedPatternIDs()
	removed := make(map[gamma.PatternID]bool)
	folded := 0

	for _, outer := range ids {
		if removed[outer] {
			continue
		}
		po := t.Patterns[outer]
		if po.Frequency < minFoldFrequency {
			continue
		}

		inside := descendantSet(t, po)

		for _, inner := range ids {
			if inner == outer || removed[inner] {
				continue
			}
			pi := t.Patterns[inner]
			if pi.Frequency < minFoldFrequency {
				continue
			}
			if !membersWithin(pi, inside) {
				continue
			}

			redirectPatternRefs(t, inner, outer)
			removed[inner] = true
			folded++
		}
	}

	for id := range removed {
		delete(t.Patterns, id)
	}
	if len(removed) > 0 {
		t.Registry.Rebuild(t.Patterns)
	}
	return folded, nil
}

// descendantSet collects every node id strictly below a pattern's members.
func descendantSet(t *gamma.Tree, p *gamma.Pattern) map[gamma.NodeID]bool {
	seen := make(map[gamma.NodeID]bool)
	var stack []gamma.NodeID
	for _, id := range p.MemberIDs() {
		n, ok := t.Node(id)
		if !ok {
			continue
		}
		stack = append(stack, n.Children...)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		if n, ok := t.Node(id); ok {
			stack = append(stack, n.Children...)
		}
	}
	return seen
}

// membersWithin reports whether every member of p is in the given set.
func membersWithin(p *gamma.Pattern, set map[gamma.NodeID]bool) bool {
	for _, id := range p.MemberIDs() {
		if !set[id] {
			return false
		}
	}
	return true
}

// redirectPatternRefs repoints every reference to pattern from at pattern to.
func redirectPatternRefs(t *gamma.Tree, from, to gamma.PatternID) {
	for _, id := range t.SortedNodeIDs() {
		n, _ := t.Node(id)
		if n.Value.Kind == gamma.ValuePatternRef && n.Value.Ref == uint64(from) {
			n.Value = gamma.PatternRef(to)
		}
		if n.Note.Pattern == from &&
			(n.Note.Kind == gamma.AnnotationPatternLeader || n.Note.Kind == gamma.AnnotationPatternMember) {
			n.Note.Pattern = to
		}
	}
}
