// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gamma defines the universal, language-agnostic intermediate tree
// representation (the Γ-AST) that the compression pipeline operates on.
//
// # Description
//
// A Tree owns all of its nodes by integer id in an arena; children are id
// lists, never pointers, so the structure is cycle-free by construction.
// Values are tagged variants with explicit reference spaces: a reference
// into the node arena, the value table, and the pattern table are distinct
// kinds, so a consumer never has to guess which table to resolve against.
//
// # Thread Safety
//
// Trees are not safe for concurrent mutation. A compression run owns its
// tree exclusively; concurrent runs operate on independent trees.
package gamma

// NodeID uniquely identifies a node within one tree's arena.
type NodeID uint64

// PatternID uniquely identifies a materialized pattern within one tree.
type PatternID uint64

// NodeKind is the closed set of structural node kinds.
type NodeKind uint8

const (
	// KindLiteral is a literal value (string, number, bool).
	KindLiteral NodeKind = iota

	// KindVariable is a variable reference or binding.
	KindVariable

	// KindFunction is a function or method declaration.
	KindFunction

	// KindClass is a class, struct, or type declaration.
	KindClass

	// KindModule is a compilation unit root.
	KindModule

	// KindIf is a conditional branch.
	KindIf

	// KindLoop is any loop construct (for, while, loop).
	KindLoop

	// KindSwitch is a multi-way branch (switch, match).
	KindSwitch

	// KindTry is an exception-handling construct.
	KindTry

	// KindBinaryOp is a binary operation.
	KindBinaryOp

	// KindUnaryOp is a unary operation.
	KindUnaryOp

	// KindAssignment is an assignment statement.
	KindAssignment

	// KindCall is a function or method call.
	KindCall

	// KindBlock is a statement block.
	KindBlock

	// KindExpression is a generic expression.
	KindExpression

	// KindStatement is a generic statement.
	KindStatement

	// KindDeclaration is a generic declaration.
	KindDeclaration

	// KindCustom is the escape hatch for kinds outside the closed set.
	// The name lives in Node.Custom. Compression bookkeeping never uses
	// KindCustom; that concern lives in the Annotation side-channel.
	KindCustom
)

// kindNames indexes built-in kind names by tag value.
var kindNames = [...]string{
	"literal", "variable", "function", "class", "module",
	"if", "loop", "switch", "try",
	"binary_op", "unary_op", "assignment", "call",
	"block", "expression", "statement", "declaration",
	"custom",
}

// String returns the lower-case name of the kind.
func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	// ValueNone is the empty value.
	ValueNone ValueKind = iota

	// ValueDirect is a literal string payload.
	ValueDirect

	// ValueNodeRef references another node in the arena (Ref is a NodeID).
	ValueNodeRef

	// ValueTableRef references an entry in the run's value table.
	ValueTableRef

	// ValuePatternRef references a materialized pattern (Ref is a PatternID).
	ValuePatternRef

	// ValueHash is an opaque hash standing in for an elided long string.
	ValueHash
)

// String returns the lower-case name of the value kind.
func (k ValueKind) String() string {
	switch k {
	case ValueNone:
		return "none"
	case ValueDirect:
		return "direct"
	case ValueNodeRef:
		return "node_ref"
	case ValueTableRef:
		return "value_ref"
	case ValuePatternRef:
		return "pattern_ref"
	case ValueHash:
		return "hash"
	default:
		return "unknown"
	}
}

// Value is the tagged payload of a node.
//
// Exactly one of Str or Ref is meaningful, selected by Kind: Str for
// ValueDirect, Ref for every reference kind and for ValueHash (where it
// holds the hash itself).
type Value struct {
	Kind ValueKind
	Str  string
	Ref  uint64
}

// NoValue returns the empty value.
func NoValue() Value { return Value{Kind: ValueNone} }

// Direct returns a literal string value.
func Direct(s string) Value { return Value{Kind: ValueDirect, Str: s} }

// NodeRef returns a reference into the node arena.
func NodeRef(id NodeID) Value { return Value{Kind: ValueNodeRef, Ref: uint64(id)} }

// TableRef returns a reference into the run's value table.
func TableRef(id uint64) Value { return Value{Kind: ValueTableRef, Ref: id} }

// PatternRef returns a reference into the pattern table.
func PatternRef(id PatternID) Value { return Value{Kind: ValuePatternRef, Ref: uint64(id)} }

// HashValue returns an opaque hash standing in for an elided string.
func HashValue(h uint64) Value { return Value{Kind: ValueHash, Ref: h} }

// IsRef reports whether the value is any reference kind.
func (v Value) IsRef() bool {
	return v.Kind == ValueNodeRef || v.Kind == ValueTableRef || v.Kind == ValuePatternRef
}

// CompressionLevel describes how aggressively a node was rewritten.
// It is informational only; no invariant depends on it.
type CompressionLevel uint8

const (
	LevelNone CompressionLevel = iota
	LevelLight
	LevelMedium
	LevelHeavy
	LevelMaximum
)

// String returns the lower-case name of the level.
func (l CompressionLevel) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelLight:
		return "light"
	case LevelMedium:
		return "medium"
	case LevelHeavy:
		return "heavy"
	case LevelMaximum:
		return "maximum"
	default:
		return "unknown"
	}
}

// AnnotationKind tags rewrite bookkeeping attached to a node.
//
// Annotations are a side-channel: structural kind (NodeKind) and compression
// bookkeeping never collide. A verifier or debugger reads annotations to
// understand what a rewrite did; the wire sizer ignores them entirely.
type AnnotationKind uint8

const (
	// AnnotationNone marks an untouched node.
	AnnotationNone AnnotationKind = iota

	// AnnotationValueTable marks a node whose value was replaced by a
	// value-table reference.
	AnnotationValueTable

	// AnnotationStringHash marks a node whose long string payload was
	// elided to a hash. Original retains the payload.
	AnnotationStringHash

	// AnnotationPatternLeader marks the member of a pattern that kept its
	// original payload.
	AnnotationPatternLeader

	// AnnotationPatternMember marks a pattern member rewritten to a
	// pattern-table reference.
	AnnotationPatternMember

	// AnnotationDuplicateOf marks a node redirected to a structurally
	// identical survivor. Leader holds the survivor id.
	AnnotationDuplicateOf
)

// String returns the lower-case name of the annotation kind.
func (k AnnotationKind) String() string {
	switch k {
	case AnnotationNone:
		return "none"
	case AnnotationValueTable:
		return "value_table"
	case AnnotationStringHash:
		return "string_hash"
	case AnnotationPatternLeader:
		return "pattern_leader"
	case AnnotationPatternMember:
		return "pattern_member"
	case AnnotationDuplicateOf:
		return "duplicate_of"
	default:
		return "unknown"
	}
}

// Annotation records what a rewrite pass did to a node.
type Annotation struct {
	// Kind selects the annotation variant.
	Kind AnnotationKind

	// Pattern is the owning pattern for leader/member annotations.
	Pattern PatternID

	// Leader is the surviving node for duplicate annotations.
	Leader NodeID

	// Original preserves the payload elided by a hash or table rewrite.
	Original string
}
