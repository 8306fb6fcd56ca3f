// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gamma

import "testing"

func TestNewTree(t *testing.T) {
	tree := NewTree("python")

	if tree.Len() != 0 {
		t.Errorf("expected empty tree, got %d nodes", tree.Len())
	}
	if tree.SourceLanguage != "python" {
		t.Errorf("expected language python, got %s", tree.SourceLanguage)
	}
	if len(tree.Roots) != 0 {
		t.Errorf("expected no roots, got %d", len(tree.Roots))
	}
}

func TestTree_AddNode(t *testing.T) {
	tree := NewTree("rust")
	tree.AddNode(&Node{ID: 1, Kind: KindModule})
	tree.AddNode(&Node{ID: 2, Kind: KindFunction, Value: Direct("main")})

	if tree.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", tree.Len())
	}
	n, ok := tree.Node(2)
	if !ok {
		t.Fatal("node 2 not found")
	}
	if n.Value.Str != "main" {
		t.Errorf("expected value main, got %q", n.Value.Str)
	}
}

func TestTree_SortedNodeIDs(t *testing.T) {
	tree := NewTree("rust")
	for _, id := range []NodeID{5, 1, 3, 2, 4} {
		tree.AddNode(&Node{ID: id, Kind: KindStatement})
	}

	ids := tree.SortedNodeIDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ids not ascending at %d: %v", i, ids)
		}
	}
}

func TestTree_Clone_DeepCopy(t *testing.T) {
	tree := NewTree("python")
	tree.AddNode(&Node{
		ID:       1,
		Kind:     KindModule,
		Children: []NodeID{2},
		Metadata: map[string]string{"file": "a.py"},
	})
	tree.AddNode(&Node{ID: 2, Kind: KindVariable, Value: Direct("x")})
	tree.AddRoot(1)
	tree.AddPattern(&Pattern{
		ID:        1,
		Signature: 42,
		Frequency: 2,
		Nodes:     []Node{{ID: 2}},
	})

	clone := tree.Clone()

	// Mutating the clone must not leak into the original.
	cn, _ := clone.Node(1)
	cn.Children[0] = 99
	cn.Metadata["file"] = "b.py"
	cn2, _ := clone.Node(2)
	cn2.Value = Direct("y")

	on, _ := tree.Node(1)
	if on.Children[0] != 2 {
		t.Error("clone shares children slice with original")
	}
	if on.Metadata["file"] != "a.py" {
		t.Error("clone shares metadata map with original")
	}
	on2, _ := tree.Node(2)
	if on2.Value.Str != "x" {
		t.Error("clone shares node pointers with original")
	}

	if len(clone.Patterns) != 1 {
		t.Fatalf("expected 1 cloned pattern, got %d", len(clone.Patterns))
	}
	if clone.Registry.Frequencies[1] != 2 {
		t.Error("clone registry not rebuilt")
	}
}

func TestRegistry_Rebuild(t *testing.T) {
	patterns := map[PatternID]*Pattern{
		1: {ID: 1, Signature: 10, Frequency: 5, Size: 3},
		2: {ID: 2, Signature: 20, Frequency: 2, Size: 3},
	}

	r := NewRegistry()
	r.Rebuild(patterns)

	if r.Signatures[10] != 1 || r.Signatures[20] != 2 {
		t.Error("signatures not indexed")
	}
	if r.Frequencies[1] != 5 {
		t.Errorf("expected frequency 5, got %d", r.Frequencies[1])
	}
	if r.SizeHistogram[3] != 2 {
		t.Errorf("expected 2 patterns of size 3, got %d", r.SizeHistogram[3])
	}
}

func TestRegistry_TopPatterns(t *testing.T) {
	r := NewRegistry()
	r.Rebuild(map[PatternID]*Pattern{
		1: {ID: 1, Signature: 10, Frequency: 2},
		2: {ID: 2, Signature: 20, Frequency: 9},
		3: {ID: 3, Signature: 30, Frequency: 9},
	})

	top := r.TopPatterns(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	// Equal frequencies tie-break on ascending id.
	if top[0].ID != 2 || top[1].ID != 3 {
		t.Errorf("unexpected order: %+v", top)
	}
}

func TestTree_RemovePattern(t *testing.T) {
	tree := NewTree("rust")
	tree.AddPattern(&Pattern{ID: 1, Signature: 10, Frequency: 3})
	tree.AddPattern(&Pattern{ID: 2, Signature: 20, Frequency: 4})

	tree.RemovePattern(1)

	if len(tree.Patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(tree.Patterns))
	}
	if _, ok := tree.Registry.Frequencies[1]; ok {
		t.Error("registry still holds removed pattern")
	}
	if tree.Registry.Signatures[20] != 2 {
		t.Error("registry lost surviving pattern")
	}
}

func TestNode_KindName(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"builtin", Node{Kind: KindFunction}, "function"},
		{"custom", Node{Kind: KindCustom, Custom: "decorator"}, "decorator"},
		{"literal", Node{Kind: KindLiteral}, "literal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.KindName(); got != tt.want {
				t.Errorf("KindName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValue_IsRef(t *testing.T) {
	if !NodeRef(1).IsRef() || !TableRef(1).IsRef() || !PatternRef(1).IsRef() {
		t.Error("reference kinds must report IsRef")
	}
	if Direct("x").IsRef() || NoValue().IsRef() || HashValue(7).IsRef() {
		t.Error("non-reference kinds must not report IsRef")
	}
}

func TestPattern_MemberIDs(t *testing.T) {
	p := Pattern{Nodes: []Node{{ID: 3}, {ID: 7}, {ID: 5}}}
	ids := p.MemberIDs()
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 7 || ids[2] != 5 {
		t.Errorf("MemberIDs() = %v, want snapshot order [3 7 5]", ids)
	}
}
