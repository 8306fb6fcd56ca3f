// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package wire serializes a Γ-AST to a canonical byte layout.
//
// # Description
//
// The layout is the ground truth for all compression ratios: "original size"
// and "compressed size" are both len(Marshal(tree)), never node counts. The
// encoding is deliberately compact (u32/u16/u8 fields, little-endian) —
// wider encodings would inflate the baseline and overstate compression.
//
// The format exists for size measurement, not persistence: there is no
// decoder. Node records are emitted in ascending id order so two trees with
// identical contents always serialize to identical bytes.
//
// # Thread Safety
//
// All functions are pure; safe for concurrent use on distinct trees.
package wire

import (
	"encoding/binary"

	"github.com/gammalabs/gamma/gamma"
)

// Value tag bytes. Any tag outside the reserved set introduces a short
// Direct string (u8 length prefix).
const (
	tagNone        = 0x00
	tagShortDirect = 0x01
	tagHash        = 0xFD
	tagRef         = 0xFE
	tagLongDirect  = 0xFF
)

// kindCustomTag introduces a length-prefixed custom kind name; built-in
// kinds serialize as their single tag byte.
const kindCustomTag = 0xFF

// shortDirectMax is the largest Direct payload encoded with a u8 length.
const shortDirectMax = 255

// Fixed field costs, exported for the profitability gate: replacing a value
// with a reference costs RefBytes on the wire, and each materialized pattern
// costs PatternEntryBytes plus PatternMemberBytes per member.
const (
	// RefBytes is the encoded size of any reference value (tag + u32 id).
	RefBytes = 5

	// HashBytes is the encoded size of a hash value (tag + u64).
	HashBytes = 9

	// PatternEntryBytes is the fixed cost of one pattern-table entry
	// (u32 id + u16 member count).
	PatternEntryBytes = 6

	// PatternMemberBytes is the per-member cost of a pattern-table entry.
	PatternMemberBytes = 4
)

// Marshal serializes the tree to its canonical byte layout.
func Marshal(t *gamma.Tree) []byte {
	buf := make([]byte, 0, 64+32*len(t.Nodes))

	buf = putU32(buf, uint32(len(t.Roots)))
	for _, r := range t.Roots {
		buf = putU32(buf, uint32(r))
	}

	buf = putU32(buf, uint32(len(t.Nodes)))
	for _, id := range t.SortedNodeIDs() {
		n := t.Nodes[id]
		buf = putU32(buf, uint32(n.ID))
		buf = putU16(buf, uint16(len(n.Children)))
		buf = putKind(buf, n)
		buf = putValue(buf, n.Value)
		for _, c := range n.Children {
			buf = putU32(buf, uint32(c))
		}
	}

	buf = putU16(buf, uint16(len(t.Patterns)))
	for _, id := range t.SortedPatternIDs() {
		p := t.Patterns[id]
		buf = putU32(buf, uint32(p.ID))
		buf = putU16(buf, uint16(len(p.Nodes)))
		for _, m := range p.Nodes {
			buf = putU32(buf, uint32(m.ID))
		}
	}

	return buf
}

// Size returns the canonical byte size of the tree.
//
// Size never returns 0 for a tree with at least one node or root; even an
// empty tree costs its three count fields. Callers treat an unexpected 0 as
// a fatal internal error, never as a ratio input.
func Size(t *gamma.Tree) int {
	return len(Marshal(t))
}

// ValueBytes returns the encoded size of a value in isolation.
//
// The profitability gate uses this to price a rewrite before applying it.
func ValueBytes(v gamma.Value) int {
	switch v.Kind {
	case gamma.ValueNone:
		return 1
	case gamma.ValueDirect:
		if len(v.Str) <= shortDirectMax {
			return 2 + len(v.Str)
		}
		return 3 + clampLen(len(v.Str))
	case gamma.ValueHash:
		return HashBytes
	default:
		return RefBytes
	}
}

func putKind(buf []byte, n *gamma.Node) []byte {
	if n.Kind == gamma.KindCustom {
		name := n.Custom
		if len(name) > 255 {
			name = name[:255]
		}
		buf = append(buf, kindCustomTag, byte(len(name)))
		return append(buf, name...)
	}
	return append(buf, byte(n.Kind))
}

func putValue(buf []byte, v gamma.Value) []byte {
	switch v.Kind {
	case gamma.ValueNone:
		return append(buf, tagNone)
	case gamma.ValueDirect:
		if len(v.Str) <= shortDirectMax {
			buf = append(buf, tagShortDirect, byte(len(v.Str)))
			return append(buf, v.Str...)
		}
		n := clampLen(len(v.Str))
		buf = append(buf, tagLongDirect)
		buf = putU16(buf, uint16(n))
		return append(buf, v.Str[:n]...)
	case gamma.ValueHash:
		buf = append(buf, tagHash)
		return putU64(buf, v.Ref)
	default:
		// All three reference kinds share the wire cost; the tag byte
		// disambiguates in-memory, the id field disambiguates on wire
		// measurement only by table.
		buf = append(buf, tagRef)
		return putU32(buf, uint32(v.Ref))
	}
}

// clampLen caps a long Direct payload at the u16 length field.
func clampLen(n int) int {
	if n > 0xFFFF {
		return 0xFFFF
	}
	return n
}

func putU16(buf []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(buf, v)
}

func putU32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func putU64(buf []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(buf, v)
}
