// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gamma

import "sort"

// Node is a single arena entry.
//
// The arena owns node storage; Children is a non-owning index list into the
// same tree. Metadata carries front-end provenance (file, line, symbol name);
// rewrite bookkeeping lives in Note, never in Metadata or Kind.
type Node struct {
	// ID is unique within one tree's arena.
	ID NodeID

	// Kind is the structural kind; Custom names it when Kind is KindCustom.
	Kind   NodeKind
	Custom string

	// Value is the tagged payload.
	Value Value

	// Children is the ordered list of child node ids.
	Children []NodeID

	// Metadata is free-form front-end provenance.
	Metadata map[string]string

	// Level describes how aggressively this node was rewritten.
	Level CompressionLevel

	// Note is the rewrite-annotation side-channel.
	Note Annotation
}

// KindName returns the node's kind name, resolving Custom kinds.
func (n *Node) KindName() string {
	if n.Kind == KindCustom {
		return n.Custom
	}
	return n.Kind.String()
}

// clone returns a deep copy of the node.
func (n *Node) clone() *Node {
	c := *n
	c.Children = append([]NodeID(nil), n.Children...)
	if n.Metadata != nil {
		c.Metadata = make(map[string]string, len(n.Metadata))
		for k, v := range n.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Pattern is a materialized, profitable cluster of similar nodes.
//
// Nodes holds snapshot copies taken at materialization time for analysis;
// mutating the tree afterwards does not retroactively change a pattern.
// Frequency and Size are likewise snapshots, consistent with the member
// count at creation, never lazily recomputed.
type Pattern struct {
	ID        PatternID
	Signature uint64
	Frequency uint32
	Size      int
	Nodes     []Node
	Languages []string
}

// MemberIDs returns the ids of the snapshot members in snapshot order.
func (p *Pattern) MemberIDs() []NodeID {
	ids := make([]NodeID, len(p.Nodes))
	for i := range p.Nodes {
		ids[i] = p.Nodes[i].ID
	}
	return ids
}

// Registry is a derived index over a tree's patterns.
//
// It is purely a performance index: Rebuild reconstructs it from the
// pattern map alone, and nothing else may feed it.
type Registry struct {
	// Signatures maps pattern signature to pattern id.
	Signatures map[uint64]PatternID

	// Frequencies maps pattern id to member frequency.
	Frequencies map[PatternID]uint32

	// SizeHistogram counts patterns per member size.
	SizeHistogram map[int]uint32
}

// NewRegistry returns an empty registry.
func NewRegistry() Registry {
	return Registry{
		Signatures:    make(map[uint64]PatternID),
		Frequencies:   make(map[PatternID]uint32),
		SizeHistogram: make(map[int]uint32),
	}
}

// add indexes one pattern.
func (r *Registry) add(p *Pattern) {
	r.Signatures[p.Signature] = p.ID
	r.Frequencies[p.ID] = p.Frequency
	r.SizeHistogram[p.Size]++
}

// Rebuild reconstructs the registry from the given pattern map.
func (r *Registry) Rebuild(patterns map[PatternID]*Pattern) {
	*r = NewRegistry()
	for _, p := range patterns {
		r.add(p)
	}
}

// TopPatterns returns up to limit (id, frequency) pairs, most frequent first.
func (r *Registry) TopPatterns(limit int) []PatternFrequency {
	out := make([]PatternFrequency, 0, len(r.Frequencies))
	for id, freq := range r.Frequencies {
		out = append(out, PatternFrequency{ID: id, Frequency: freq})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PatternFrequency pairs a pattern id with its snapshot frequency.
type PatternFrequency struct {
	ID        PatternID
	Frequency uint32
}

// Tree is one Γ-AST instance: the arena, its entry points, and the patterns
// discovered in it during one compression run.
type Tree struct {
	// Roots is the ordered list of entry-point node ids.
	Roots []NodeID

	// Nodes is the arena, keyed by id.
	Nodes map[NodeID]*Node

	// Patterns holds the patterns materialized by the current run.
	Patterns map[PatternID]*Pattern

	// SourceLanguage is a free-text language tag.
	SourceLanguage string

	// Registry is the derived pattern index.
	Registry Registry
}

// NewTree returns an empty tree tagged with the given source language.
func NewTree(language string) *Tree {
	return &Tree{
		Nodes:          make(map[NodeID]*Node),
		Patterns:       make(map[PatternID]*Pattern),
		SourceLanguage: language,
		Registry:       NewRegistry(),
	}
}

// AddRoot appends an entry-point id.
func (t *Tree) AddRoot(id NodeID) {
	t.Roots = append(t.Roots, id)
}

// AddNode inserts a node into the arena, replacing any node with the same id.
func (t *Tree) AddNode(n *Node) {
	t.Nodes[n.ID] = n
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) (*Node, bool) {
	n, ok := t.Nodes[id]
	return n, ok
}

// Len returns the arena node count.
func (t *Tree) Len() int { return len(t.Nodes) }

// AddPattern stores a pattern and indexes it in the registry.
func (t *Tree) AddPattern(p *Pattern) {
	t.Patterns[p.ID] = p
	t.Registry.add(p)
}

// RemovePattern drops a pattern and rebuilds the registry.
func (t *Tree) RemovePattern(id PatternID) {
	delete(t.Patterns, id)
	t.Registry.Rebuild(t.Patterns)
}

// SortedNodeIDs returns all arena ids in ascending order.
func (t *Tree) SortedNodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(t.Nodes))
	for id := range t.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SortedPatternIDs returns all pattern ids in ascending order.
func (t *Tree) SortedPatternIDs() []PatternID {
	ids := make([]PatternID, 0, len(t.Patterns))
	for id := range t.Patterns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns a deep copy of the tree.
//
// Rewrite passes operate on a clone so that a failed pass can discard its
// work and the caller keeps the original for the fidelity diff.
func (t *Tree) Clone() *Tree {
	c := NewTree(t.SourceLanguage)
	c.Roots = append([]NodeID(nil), t.Roots...)
	for id, n := range t.Nodes {
		c.Nodes[id] = n.clone()
	}
	for id, p := range t.Patterns {
		cp := *p
		cp.Nodes = append([]Node(nil), p.Nodes...)
		cp.Languages = append([]string(nil), p.Languages...)
		c.Patterns[id] = &cp
	}
	c.Registry.Rebuild(c.Patterns)
	return c
}
