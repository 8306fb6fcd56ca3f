// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rewrite

import (
	"sort"

	"github.com/gammalabs/gamma/gamma"
	"github.com/gammalabs/gamma/patterns"
	"github.com/gammalabs/gamma/wire"
)

// deduplicate redirects structurally identical subtrees to one survivor.
//
// # Description
//
// Nodes are grouped by full-subtree fingerprint; in each profitable group
// the lowest id survives and every other member becomes a redirect: its
// value a NodeRef to the survivor, its children cleared. Ordering is the
// safety-critical part: the complete redirect map is computed first and
// applied to every child list in the arena, and only then are duplicate
// payloads cleared. Clearing first would leave parents pointing at gutted
// nodes.
//
// Duplicates stay in the arena (the node count is invariant); they shrink
// to a single reference on the wire. A second run finds the redirected
// nodes fingerprint-identical again but gains nothing on them, so the pass
// is idempotent.
func deduplicate(t *gamma.Tree) (int, error) {
	groups := patterns.SubtreeGroups(t)

	fps := make([]uint64, 0, len(groups))
	for fp := range groups {
		fps = append(fps, fp)
	}
	sort.Slice(fps, func(i, j int) bool { return fps[i] < fps[j] })

	redirects := make(map[gamma.NodeID]gamma.NodeID)
	for _, fp := range fps {
		members := groups[fp]
		survivor := members[0]

		gain := 0
		for _, id := range members[1:] {
			n, _ := t.Node(id)
			gain += wire.ValueBytes(n.Value) - wire.RefBytes
			gain += wire.PatternMemberBytes * len(n.Children)
		}
		if gain <= 0 {
			continue
		}
		for _, id := range members[1:] {
			redirects[id] = survivor
		}
	}
	if len(redirects) == 0 {
		return 0, nil
	}

	// Rewrite every incoming reference before touching any duplicate.
	for _, id := range t.SortedNodeIDs() {
		n, _ := t.Node(id)
		for i, c := range n.Children {
			if s, ok := redirects[c]; ok {
				n.Children[i] = s
			}
		}
	}

	for dup, survivor := range redirects {
		n, _ := t.Node(dup)
		original := n.Note.Original
		if original == "" && n.Value.Kind == gamma.ValueDirect {
			original = n.Value.Str
		}
		n.Value = gamma.NodeRef(survivor)
		n.Children = nil
		n.Note = gamma.Annotation{
			Kind:     gamma.AnnotationDuplicateOf,
			Leader:   survivor,
			Original: original,
		}
		if n.Level < gamma.LevelMedium {
			n.Level = gamma.LevelMedium
		}
	}
	return len(redirects), nil
}
