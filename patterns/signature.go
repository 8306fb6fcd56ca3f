// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package patterns

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/gammalabs/gamma/gamma"
)

// Value-class thresholds for signature derivation.
const (
	// literalClassMax is the longest Direct payload used verbatim in a
	// signature; longer payloads fall into content buckets.
	literalClassMax = 16

	// shortStringMax separates the short_string and long_string buckets.
	shortStringMax = 64
)

// Signature derives the structural signature of a node.
//
// # Description
//
// The signature hashes the node's kind, its child count, and a coarse class
// of its value. Two nodes sharing a signature are considered structurally
// interchangeable for compression purposes. The hash is FNV-1a so signatures
// are stable across runs and processes.
//
// # Inputs
//
//   - n: The node to summarize. Must not be nil.
//
// # Outputs
//
//   - uint64: The signature hash.
func Signature(n *gamma.Node) uint64 {
	h := fnv.New64a()
	h.Write([]byte(n.KindName()))
	h.Write([]byte{':'})
	h.Write([]byte(strconv.Itoa(len(n.Children))))
	h.Write([]byte{':'})
	h.Write([]byte(ValueClass(n.Value)))
	return h.Sum64()
}

// ValueClass returns the coarse class of a value used for grouping.
//
// Short Direct payloads classify as themselves; long payloads fall into
// content-pattern buckets so that, say, two function declarations with
// different bodies still group together. Reference and hash values classify
// by their kind tag alone.
func ValueClass(v gamma.Value) string {
	switch v.Kind {
	case gamma.ValueDirect:
		s := v.Str
		if len(s) <= literalClassMax {
			return "lit:" + s
		}
		return "bucket:" + contentBucket(s)
	case gamma.ValueNone:
		return "none"
	default:
		return "ref:" + v.Kind.String()
	}
}

// contentBucket classifies a long Direct payload by its leading content.
func contentBucket(s string) string {
	head := strings.TrimLeft(s, " \t")
	switch {
	case strings.HasPrefix(head, "def ") ||
		strings.HasPrefix(head, "fn ") ||
		strings.HasPrefix(head, "func ") ||
		strings.HasPrefix(head, "function"):
		return "function_declaration"
	case strings.HasPrefix(head, "if ") ||
		strings.HasPrefix(head, "for ") ||
		strings.HasPrefix(head, "while ") ||
		strings.HasPrefix(head, "loop") ||
		strings.HasPrefix(head, "match ") ||
		strings.HasPrefix(head, "switch"):
		return "control_flow"
	case len(s) <= shortStringMax:
		return "short_string"
	default:
		return "long_string"
	}
}

// HashString hashes an arbitrary string with FNV-1a. Used for pattern ids
// and for long-string elision.
func HashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// subtreeFingerprint hashes the full subtree rooted at id: kind, value, and
// children fingerprints in order. Nodes missing from the arena contribute a
// fixed marker so a dangling child cannot alias a real subtree.
func subtreeFingerprint(t *gamma.Tree, id gamma.NodeID, memo map[gamma.NodeID]uint64) uint64 {
	if fp, ok := memo[id]; ok {
		return fp
	}
	n, ok := t.Node(id)
	if !ok {
		return 0x9e3779b97f4a7c15
	}
	h := fnv.New64a()
	h.Write([]byte(n.KindName()))
	h.Write([]byte{0})
	h.Write([]byte(n.Value.Kind.String()))
	h.Write([]byte(n.Value.Str))
	h.Write([]byte(strconv.FormatUint(n.Value.Ref, 16)))
	var b [8]byte
	for _, c := range n.Children {
		fp := subtreeFingerprint(t, c, memo)
		for i := 0; i < 8; i++ {
			b[i] = byte(fp >> (8 * i))
		}
		h.Write(b[:])
	}
	fp := h.Sum64()
	memo[id] = fp
	return fp
}
