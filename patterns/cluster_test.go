// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package patterns

import (
	"context"
	"errors"
	"testing"

	"github.com/gammalabs/gamma/gamma"
)

// buildFunctionTree returns a tree with count function nodes carrying the
// same payload under one module root.
func buildFunctionTree(count int, payload string) *gamma.Tree {
	t := gamma.NewTree("python")
	root := &gamma.Node{ID: 1, Kind: gamma.KindModule}
	t.AddNode(root)
	t.AddRoot(1)
	for i := 0; i < count; i++ {
		id := gamma.NodeID(2 + i)
		t.AddNode(&gamma.Node{ID: id, Kind: gamma.KindFunction, Value: gamma.Direct(payload)})
		root.Children = append(root.Children, id)
	}
	return t
}

func TestNewAnalyzer_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min frequency below 2", func(c *Config) { c.MinFrequency = 1 }},
		{"semantic below min", func(c *Config) { c.SemanticMinFrequency = 1 }},
		{"overlap zero", func(c *Config) { c.OverlapThreshold = 0 }},
		{"overlap above one", func(c *Config) { c.OverlapThreshold = 1.5 }},
		{"base margin below min", func(c *Config) { c.BaseMargin = 0.05 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewAnalyzer(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestAnalyze_NilTree(t *testing.T) {
	a, _ := NewAnalyzer(DefaultConfig())
	if _, err := a.Analyze(context.Background(), nil); !errors.Is(err, ErrNilTree) {
		t.Errorf("expected ErrNilTree, got %v", err)
	}
}

func TestAnalyze_EmptyTree(t *testing.T) {
	a, _ := NewAnalyzer(DefaultConfig())
	cands, err := a.Analyze(context.Background(), gamma.NewTree("python"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("expected no candidates for empty tree, got %d", len(cands))
	}
}

func TestAnalyze_IdenticalNodesClustered(t *testing.T) {
	tree := buildFunctionTree(10, "process_request")
	a, _ := NewAnalyzer(DefaultConfig())

	cands, err := a.Analyze(context.Background(), tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	c := cands[0]
	if c.Frequency() != 10 {
		t.Errorf("expected frequency 10, got %d", c.Frequency())
	}
	if c.Savings <= c.Overhead {
		t.Errorf("candidate not profitable: savings %d, overhead %d", c.Savings, c.Overhead)
	}
	// Members ascend; the root is never a member.
	for i, id := range c.Members {
		if id == 1 {
			t.Error("module root clustered with function nodes")
		}
		if i > 0 && c.Members[i-1] >= id {
			t.Error("members not ascending")
		}
	}
}

func TestAnalyze_DistinctNodesNoCandidates(t *testing.T) {
	tree := gamma.NewTree("python")
	payloads := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	kinds := []gamma.NodeKind{
		gamma.KindFunction, gamma.KindClass, gamma.KindLoop,
		gamma.KindAssignment, gamma.KindCall,
	}
	for i := range payloads {
		tree.AddNode(&gamma.Node{
			ID:    gamma.NodeID(i + 1),
			Kind:  kinds[i],
			Value: gamma.Direct(payloads[i]),
		})
	}
	tree.AddRoot(1)

	a, _ := NewAnalyzer(DefaultConfig())
	cands, err := a.Analyze(context.Background(), tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("expected no candidates for all-distinct tree, got %d", len(cands))
	}
}

func TestAnalyze_UnprofitableShortValues(t *testing.T) {
	// Two-member cluster of 1-char payloads can never pay for the table
	// entry it would create.
	tree := buildFunctionTree(2, "f")
	a, _ := NewAnalyzer(DefaultConfig())

	cands, err := a.Analyze(context.Background(), tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("expected gate to reject unprofitable cluster, got %d candidates", len(cands))
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	tree := buildFunctionTree(100, "handler")
	a, _ := NewAnalyzer(DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Analyze(ctx, tree); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSignature_Stability(t *testing.T) {
	a := &gamma.Node{ID: 1, Kind: gamma.KindFunction, Value: gamma.Direct("run"), Children: []gamma.NodeID{2, 3}}
	b := &gamma.Node{ID: 9, Kind: gamma.KindFunction, Value: gamma.Direct("run"), Children: []gamma.NodeID{7, 8}}

	// Identity and child identities must not leak into the signature.
	if Signature(a) != Signature(b) {
		t.Error("structurally identical nodes have different signatures")
	}

	c := &gamma.Node{ID: 1, Kind: gamma.KindFunction, Value: gamma.Direct("run"), Children: []gamma.NodeID{2}}
	if Signature(a) == Signature(c) {
		t.Error("child count must affect the signature")
	}
}

func TestValueClass_Buckets(t *testing.T) {
	short := gamma.Direct("x")
	if ValueClass(short) != "lit:x" {
		t.Errorf("short literal class = %q", ValueClass(short))
	}
	long := gamma.Direct("some_quite_long_identifier_name")
	if ValueClass(long) == ValueClass(short) {
		t.Error("long payloads must bucket, not inline")
	}
	if ValueClass(gamma.NoValue()) != "none" {
		t.Errorf("none class = %q", ValueClass(gamma.NoValue()))
	}
}

func TestSubtreeGroups(t *testing.T) {
	tree := gamma.NewTree("rust")
	// Two identical 2-node subtrees plus one distinct leaf.
	tree.AddNode(&gamma.Node{ID: 1, Kind: gamma.KindModule, Children: []gamma.NodeID{2, 4, 6}})
	tree.AddNode(&gamma.Node{ID: 2, Kind: gamma.KindFunction, Value: gamma.Direct("init"), Children: []gamma.NodeID{3}})
	tree.AddNode(&gamma.Node{ID: 3, Kind: gamma.KindStatement})
	tree.AddNode(&gamma.Node{ID: 4, Kind: gamma.KindFunction, Value: gamma.Direct("init"), Children: []gamma.NodeID{5}})
	tree.AddNode(&gamma.Node{ID: 5, Kind: gamma.KindStatement})
	tree.AddNode(&gamma.Node{ID: 6, Kind: gamma.KindLiteral, Value: gamma.Direct("42")})
	tree.AddRoot(1)

	groups := SubtreeGroups(tree)

	var funcGroup []gamma.NodeID
	for _, ids := range groups {
		for _, id := range ids {
			if id == 2 || id == 4 {
				funcGroup = ids
			}
		}
	}
	if len(funcGroup) != 2 {
		t.Fatalf("expected the two identical subtrees grouped, got %v", groups)
	}

	// Singleton groups are dropped; the distinct literal appears nowhere.
	for _, ids := range groups {
		for _, id := range ids {
			if id == 6 {
				t.Error("distinct leaf must not be grouped")
			}
			if id == 1 {
				t.Error("roots must be excluded from dedup groups")
			}
		}
	}
}
