// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package wire

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gammalabs/gamma/gamma"
)

func TestSize_EmptyTree(t *testing.T) {
	tree := gamma.NewTree("python")

	// u32 root count + u32 node count + u16 pattern count.
	if got := Size(tree); got != 10 {
		t.Errorf("empty tree size = %d, want 10", got)
	}
}

func TestSize_NeverZero(t *testing.T) {
	tree := gamma.NewTree("rust")
	if Size(tree) == 0 {
		t.Fatal("size must never be 0")
	}
	tree.AddNode(&gamma.Node{ID: 1, Kind: gamma.KindModule})
	if Size(tree) == 0 {
		t.Fatal("size must never be 0")
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	build := func(order []gamma.NodeID) *gamma.Tree {
		tree := gamma.NewTree("python")
		for _, id := range order {
			tree.AddNode(&gamma.Node{
				ID:    id,
				Kind:  gamma.KindVariable,
				Value: gamma.Direct("count"),
			})
		}
		tree.AddRoot(order[0])
		return tree
	}

	// Insertion order must not affect the encoding.
	a := build([]gamma.NodeID{1, 2, 3})
	b := build([]gamma.NodeID{3, 1, 2})
	b.Roots = []gamma.NodeID{1}

	if !bytes.Equal(Marshal(a), Marshal(b)) {
		t.Error("marshal output depends on insertion order")
	}
}

func TestMarshal_SingleNodeLayout(t *testing.T) {
	tree := gamma.NewTree("python")
	tree.AddNode(&gamma.Node{ID: 1, Kind: gamma.KindVariable, Value: gamma.Direct("x")})
	tree.AddRoot(1)

	// roots: 4 + 4; node count: 4; node: 4 id + 2 children + 1 kind +
	// (1 tag + 1 len + 1 payload) value; patterns: 2.
	want := 4 + 4 + 4 + (4 + 2 + 1 + 3) + 2
	if got := Size(tree); got != want {
		t.Errorf("size = %d, want %d", got, want)
	}
}

func TestValueBytes(t *testing.T) {
	tests := []struct {
		name  string
		value gamma.Value
		want  int
	}{
		{"none", gamma.NoValue(), 1},
		{"short direct", gamma.Direct("abc"), 5},
		{"node ref", gamma.NodeRef(7), RefBytes},
		{"table ref", gamma.TableRef(7), RefBytes},
		{"pattern ref", gamma.PatternRef(7), RefBytes},
		{"hash", gamma.HashValue(7), HashBytes},
		{"long direct", gamma.Direct(strings.Repeat("a", 300)), 3 + 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValueBytes(tt.value); got != tt.want {
				t.Errorf("ValueBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

// ValueBytes must price exactly what Marshal emits: swapping a node's value
// changes the encoding by exactly the ValueBytes difference.
func TestValueBytes_MatchesMarshal(t *testing.T) {
	values := []gamma.Value{
		gamma.NoValue(),
		gamma.Direct("accumulator"),
		gamma.NodeRef(3),
		gamma.HashValue(99),
		gamma.Direct(strings.Repeat("z", 500)),
	}

	base := gamma.NewTree("rust")
	base.AddNode(&gamma.Node{ID: 1, Kind: gamma.KindLiteral, Value: gamma.NoValue()})
	baseSize := Size(base)
	baseValue := ValueBytes(gamma.NoValue())

	for _, v := range values {
		tree := gamma.NewTree("rust")
		tree.AddNode(&gamma.Node{ID: 1, Kind: gamma.KindLiteral, Value: v})

		wantDelta := ValueBytes(v) - baseValue
		gotDelta := Size(tree) - baseSize
		if gotDelta != wantDelta {
			t.Errorf("value %v: size delta %d, ValueBytes delta %d", v.Kind, gotDelta, wantDelta)
		}
	}
}

func TestMarshal_CustomKind(t *testing.T) {
	tree := gamma.NewTree("python")
	tree.AddNode(&gamma.Node{ID: 1, Kind: gamma.KindCustom, Custom: "decorator"})

	// Custom kind costs 2 bytes of framing plus the name.
	builtin := gamma.NewTree("python")
	builtin.AddNode(&gamma.Node{ID: 1, Kind: gamma.KindVariable})

	if got, want := Size(tree)-Size(builtin), 1+len("decorator"); got != want {
		t.Errorf("custom kind overhead = %d, want %d", got, want)
	}
}

func TestMarshal_PatternTable(t *testing.T) {
	tree := gamma.NewTree("python")
	tree.AddNode(&gamma.Node{ID: 1, Kind: gamma.KindFunction, Value: gamma.Direct("handler")})
	tree.AddNode(&gamma.Node{ID: 2, Kind: gamma.KindFunction, Value: gamma.Direct("handler")})

	before := Size(tree)
	tree.AddPattern(&gamma.Pattern{
		ID:        1,
		Signature: 42,
		Frequency: 2,
		Nodes:     []gamma.Node{{ID: 1}, {ID: 2}},
	})

	want := PatternEntryBytes + 2*PatternMemberBytes
	if got := Size(tree) - before; got != want {
		t.Errorf("pattern entry cost = %d, want %d", got, want)
	}
}
