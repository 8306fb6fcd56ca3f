// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rewrite

import (
	"testing"

	"github.com/gammalabs/gamma/gamma"
	"github.com/gammalabs/gamma/verify"
	"github.com/gammalabs/gamma/wire"
)

// duplicateSubtrees builds a module root with n identical function subtrees
// (function node + statement child each).
func duplicateSubtrees(n int) *gamma.Tree {
	t := gamma.NewTree("rust")
	root := &gamma.Node{ID: 1, Kind: gamma.KindModule}
	t.AddNode(root)
	t.AddRoot(1)
	next := gamma.NodeID(2)
	for i := 0; i < n; i++ {
		fn := &gamma.Node{
			ID:       next,
			Kind:     gamma.KindFunction,
			Value:    gamma.Direct("validate_input"),
			Children: []gamma.NodeID{next + 1},
		}
		t.AddNode(fn)
		t.AddNode(&gamma.Node{ID: next + 1, Kind: gamma.KindStatement})
		root.Children = append(root.Children, fn.ID)
		next += 2
	}
	return t
}

func TestDeduplicate_RedirectsBeforeClearing(t *testing.T) {
	tree := duplicateSubtrees(3)
	original := tree.Clone()

	n, err := deduplicate(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == 0 {
		t.Fatal("expected redirections")
	}

	// The parent must point at the survivor, not at gutted duplicates.
	root, _ := tree.Node(1)
	survivor := root.Children[0]
	for _, c := range root.Children {
		if c != survivor {
			t.Errorf("root child %d not redirected to survivor %d", c, survivor)
		}
	}

	// Node count is invariant; duplicates stay as annotated redirects.
	if tree.Len() != original.Len() {
		t.Errorf("node count changed: %d -> %d", original.Len(), tree.Len())
	}

	report := verify.Verify(original, tree)
	if !report.Passed {
		t.Fatalf("fidelity failed: %v", report.Violations)
	}
	if report.RedirectedNodes == 0 {
		t.Error("report must count redirected nodes")
	}
}

func TestDeduplicate_DuplicateShape(t *testing.T) {
	tree := duplicateSubtrees(2)

	if _, err := deduplicate(tree); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	root, _ := tree.Node(1)
	survivor := root.Children[0]
	var dup *gamma.Node
	for _, id := range tree.SortedNodeIDs() {
		n, _ := tree.Node(id)
		if n.Note.Kind == gamma.AnnotationDuplicateOf {
			dup = n
			break
		}
	}
	if dup == nil {
		t.Fatal("no duplicate annotation found")
	}
	if dup.Value.Kind != gamma.ValueNodeRef || dup.Value.Ref != uint64(survivor) {
		t.Errorf("duplicate value = %+v, want node ref to %d", dup.Value, survivor)
	}
	if len(dup.Children) != 0 {
		t.Error("duplicate children must be cleared")
	}
	if dup.Note.Leader != survivor {
		t.Errorf("annotation leader = %d, want %d", dup.Note.Leader, survivor)
	}
	if dup.Note.Original != "validate_input" {
		t.Errorf("annotation lost original payload: %q", dup.Note.Original)
	}
}

func TestDeduplicate_ShrinksWire(t *testing.T) {
	tree := duplicateSubtrees(5)
	before := wire.Size(tree)

	if _, err := deduplicate(tree); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after := wire.Size(tree); after >= before {
		t.Errorf("dedup did not shrink the tree: %d -> %d", before, after)
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	tree := duplicateSubtrees(4)

	if _, err := deduplicate(tree); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	size := wire.Size(tree)

	n, err := deduplicate(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("second run must redirect nothing, got %d", n)
	}
	if wire.Size(tree) != size {
		t.Error("second run changed the encoding")
	}
}

func TestDeduplicate_UnprofitableLeaves(t *testing.T) {
	// Identical bare leaves save nothing: no payload, no children.
	tree := gamma.NewTree("rust")
	root := &gamma.Node{ID: 1, Kind: gamma.KindModule, Children: []gamma.NodeID{2, 3}}
	tree.AddNode(root)
	tree.AddNode(&gamma.Node{ID: 2, Kind: gamma.KindStatement})
	tree.AddNode(&gamma.Node{ID: 3, Kind: gamma.KindStatement})
	tree.AddRoot(1)

	n, err := deduplicate(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("unprofitable group must be skipped, got %d redirects", n)
	}
}
