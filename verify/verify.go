// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package verify checks that a compressed tree is a faithful rewrite of the
// original.
//
// # Description
//
// Verification is a fixed sequence of checks run as a state machine: node
// count, root set, pattern-count bookkeeping (informational), byte size,
// then per-node child integrity. The verifier collects every violation
// rather than stopping at the first, so a report names everything wrong
// with a run. It never panics on malformed input; a malformed tree is a
// report full of violations.
//
// # Thread Safety
//
// Verification is read-only over both trees; safe for concurrent use on
// distinct tree pairs.
package verify

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gammalabs/gamma/gamma"
	"github.com/gammalabs/gamma/wire"
)

// ErrFidelity marks a verification failure. Callers surface it unchanged;
// a fidelity failure is never downgraded to a warning.
var ErrFidelity = errors.New("verify: fidelity violation")

// warnRatioThreshold is the compression ratio beyond which a run is
// implausible enough to warrant a warning. High ratios are legal; they are
// flagged, never failed.
const warnRatioThreshold = 100.0

// ViolationKind classifies one fidelity violation.
type ViolationKind uint8

const (
	// NodeCountMismatch: compression changed the arena node count.
	NodeCountMismatch ViolationKind = iota

	// RootMismatch: the root set changed in length, order, or membership.
	RootMismatch

	// DanglingChild: a child id resolves to no arena node.
	DanglingChild

	// ZeroByteSize: a tree measured zero bytes, which the wire layout
	// makes impossible; treated as an internal error.
	ZeroByteSize

	// ChildCountMismatch: a node's child count changed without the
	// duplicate-redirect annotation that legitimizes it.
	ChildCountMismatch
)

// String returns the lower-case name of the violation kind.
func (k ViolationKind) String() string {
	switch k {
	case NodeCountMismatch:
		return "node_count_mismatch"
	case RootMismatch:
		return "root_mismatch"
	case DanglingChild:
		return "dangling_child"
	case ZeroByteSize:
		return "zero_byte_size"
	case ChildCountMismatch:
		return "child_count_mismatch"
	default:
		return "unknown"
	}
}

// Violation is one fidelity violation with enough context to debug it.
type Violation struct {
	Kind   ViolationKind
	Node   gamma.NodeID
	Detail string
}

func (v Violation) String() string {
	if v.Detail == "" {
		return v.Kind.String()
	}
	return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
}

// state is the verifier's position in its check sequence.
type state uint8

const (
	stateNodeCount state = iota
	stateRoots
	statePatternCount
	stateByteSize
	stateChildIntegrity
	statePass
	stateFail
)

// Report is the outcome of one verification run.
type Report struct {
	// Passed is true when no violation was found.
	Passed bool

	// Violations lists everything found, in check order.
	Violations []Violation

	// Warnings carries non-fatal observations (implausible ratio,
	// pattern-count drift).
	Warnings []string

	// OriginalSize and CompressedSize are canonical wire sizes.
	OriginalSize   int
	CompressedSize int

	// Ratio is OriginalSize / CompressedSize; 1.0 for two empty trees.
	Ratio float64

	// RedirectedNodes counts nodes legitimately redirected to a duplicate
	// survivor.
	RedirectedNodes int
}

// Err returns nil for a passing report, or an error wrapping ErrFidelity
// that names the first violation.
func (r *Report) Err() error {
	if r.Passed {
		return nil
	}
	return fmt.Errorf("%w: %s (%d total)", ErrFidelity, r.Violations[0], len(r.Violations))
}

// Verify runs the full check sequence over an original/compressed pair.
//
// # Inputs
//
//   - original: The tree as handed to the engine. Must not be nil.
//   - compressed: The engine's output. Must not be nil.
//
// # Outputs
//
//   - *Report: Always returned, even on failure; inspect Passed or Err().
func Verify(original, compressed *gamma.Tree) *Report {
	r := &Report{}
	if original == nil || compressed == nil {
		r.Violations = append(r.Violations, Violation{
			Kind:   NodeCountMismatch,
			Detail: "nil tree",
		})
		return r
	}

	st := stateNodeCount
	for st != statePass && st != stateFail {
		switch st {
		case stateNodeCount:
			checkNodeCount(original, compressed, r)
			st = stateRoots
		case stateRoots:
			checkRoots(original, compressed, r)
			st = statePatternCount
		case statePatternCount:
			checkPatternCount(original, compressed, r)
			st = stateByteSize
		case stateByteSize:
			checkByteSize(original, compressed, r)
			st = stateChildIntegrity
		case stateChildIntegrity:
			checkChildIntegrity(original, compressed, r)
			if len(r.Violations) == 0 {
				st = statePass
			} else {
				st = stateFail
			}
		}
	}

	r.Passed = st == statePass
	if !r.Passed {
		slog.Default().Warn("fidelity verification failed",
			"violations", len(r.Violations),
			"first", r.Violations[0].String(),
		)
	}
	return r
}

func checkNodeCount(original, compressed *gamma.Tree, r *Report) {
	if original.Len() != compressed.Len() {
		r.Violations = append(r.Violations, Violation{
			Kind:   NodeCountMismatch,
			Detail: fmt.Sprintf("original %d, compressed %d", original.Len(), compressed.Len()),
		})
	}
}

func checkRoots(original, compressed *gamma.Tree, r *Report) {
	if len(original.Roots) != len(compressed.Roots) {
		r.Violations = append(r.Violations, Violation{
			Kind:   RootMismatch,
			Detail: fmt.Sprintf("root count %d != %d", len(original.Roots), len(compressed.Roots)),
		})
		return
	}
	for i := range original.Roots {
		if original.Roots[i] != compressed.Roots[i] {
			r.Violations = append(r.Violations, Violation{
				Kind:   RootMismatch,
				Node:   original.Roots[i],
				Detail: fmt.Sprintf("root %d changed to %d at position %d", original.Roots[i], compressed.Roots[i], i),
			})
		}
	}
}

// checkPatternCount is informational: rewrites add patterns, so drift is
// expected. A registry inconsistent with the pattern map is worth a warning.
func checkPatternCount(original, compressed *gamma.Tree, r *Report) {
	if len(compressed.Patterns) != len(compressed.Registry.Frequencies) {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"pattern registry holds %d entries for %d patterns",
			len(compressed.Registry.Frequencies), len(compressed.Patterns),
		))
	}
	if len(compressed.Patterns) < len(original.Patterns) {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"pattern count shrank from %d to %d",
			len(original.Patterns), len(compressed.Patterns),
		))
	}
}

func checkByteSize(original, compressed *gamma.Tree, r *Report) {
	r.OriginalSize = wire.Size(original)
	r.CompressedSize = wire.Size(compressed)

	if r.OriginalSize == 0 || r.CompressedSize == 0 {
		r.Violations = append(r.Violations, Violation{
			Kind:   ZeroByteSize,
			Detail: fmt.Sprintf("original %d bytes, compressed %d bytes", r.OriginalSize, r.CompressedSize),
		})
		return
	}

	if original.Len() == 0 && compressed.Len() == 0 {
		r.Ratio = 1.0
	} else {
		r.Ratio = float64(r.OriginalSize) / float64(r.CompressedSize)
	}
	if r.Ratio > warnRatioThreshold {
		r.Warnings = append(r.Warnings, fmt.Sprintf("implausible compression ratio %.1fx", r.Ratio))
	}
}

// checkChildIntegrity verifies every child id resolves and that child
// counts only changed on nodes annotated as duplicate redirects.
func checkChildIntegrity(original, compressed *gamma.Tree, r *Report) {
	for _, id := range compressed.SortedNodeIDs() {
		n, _ := compressed.Node(id)
		for _, c := range n.Children {
			if _, ok := compressed.Node(c); !ok {
				r.Violations = append(r.Violations, Violation{
					Kind:   DanglingChild,
					Node:   id,
					Detail: fmt.Sprintf("child %d missing from arena", c),
				})
			}
		}

		orig, ok := original.Node(id)
		if !ok {
			continue // already reported by the node-count check
		}
		if len(orig.Children) == len(n.Children) {
			continue
		}
		if n.Note.Kind == gamma.AnnotationDuplicateOf {
			r.RedirectedNodes++
			continue
		}
		r.Violations = append(r.Violations, Violation{
			Kind:   ChildCountMismatch,
			Node:   id,
			Detail: fmt.Sprintf("children %d -> %d without redirect annotation", len(orig.Children), len(n.Children)),
		})
	}
}
