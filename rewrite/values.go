// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rewrite

import (
	"hash/fnv"
	"strconv"

	"github.com/gammalabs/gamma/gamma"
	"github.com/gammalabs/gamma/wire"
)

const (
	// minTablePayload is the shortest Direct payload a table rewrite can
	// profit on: shorter strings already cost no more than a reference.
	minTablePayload = wire.RefBytes

	// minTableFreq is the minimum occurrence count for a table entry.
	minTableFreq = 2

	// hashElideLen is the payload length above which a string is elided
	// to a hash regardless of frequency.
	hashElideLen = 50

	// stringBaseID is the first string-table id.
	stringBaseID = 1

	// numericBaseID is the first numeric-table id. When the string table
	// outgrows it, numeric ids start past the string range instead; the
	// two id spaces never overlap.
	numericBaseID = 1000
)

// ValueTable holds the payloads extracted by the value-compression pass,
// keyed by the ids that ValueTableRef values carry.
type ValueTable struct {
	Strings map[uint64]string
	Numbers map[uint64]string
}

// Lookup resolves a table id against both sub-tables.
func (vt *ValueTable) Lookup(id uint64) (string, bool) {
	if s, ok := vt.Strings[id]; ok {
		return s, true
	}
	s, ok := vt.Numbers[id]
	return s, ok
}

// Len returns the total entry count.
func (vt *ValueTable) Len() int { return len(vt.Strings) + len(vt.Numbers) }

// compressValues replaces repeated Direct payloads with table references
// and elides long strings to hashes.
//
// # Description
//
// First pass counts eligible payloads; second pass assigns ids in first-
// occurrence order over ascending node ids, so a given tree always produces
// the same table. Only untouched nodes (no annotation) with Direct values
// participate, which makes the pass idempotent: a second run sees table
// refs and hashes, neither of which is eligible.
func compressValues(t *gamma.Tree, vt *ValueTable) (int, error) {
	if vt.Strings == nil {
		vt.Strings = make(map[uint64]string)
	}
	if vt.Numbers == nil {
		vt.Numbers = make(map[uint64]string)
	}

	freq := make(map[string]int)
	for _, id := range t.SortedNodeIDs() {
		n, _ := t.Node(id)
		if !eligible(n) {
			continue
		}
		if len(n.Value.Str) <= hashElideLen {
			freq[n.Value.Str]++
		}
	}

	stringCount := 0
	for s, f := range freq {
		if f >= minTableFreq && isNumeric(s) == false {
			stringCount++
		}
	}
	numericBase := uint64(numericBaseID)
	if uint64(stringBaseID+stringCount) > numericBase {
		numericBase = uint64(stringBaseID + stringCount)
	}

	assigned := make(map[string]uint64)
	nextString := uint64(stringBaseID)
	nextNumeric := numericBase

	rewritten := 0
	for _, id := range t.SortedNodeIDs() {
		n, _ := t.Node(id)
		if !eligible(n) {
			continue
		}
		s := n.Value.Str

		if len(s) > hashElideLen {
			n.Value = gamma.HashValue(hashString(s))
			n.Note = gamma.Annotation{Kind: gamma.AnnotationStringHash, Original: s}
			if n.Level < gamma.LevelLight {
				n.Level = gamma.LevelLight
			}
			rewritten++
			continue
		}

		if freq[s] < minTableFreq || len(s) < minTablePayload {
			continue
		}

		tid, ok := assigned[s]
		if !ok {
			if isNumeric(s) {
				tid = nextNumeric
				nextNumeric++
				vt.Numbers[tid] = s
			} else {
				tid = nextString
				nextString++
				vt.Strings[tid] = s
			}
			assigned[s] = tid
		}

		n.Value = gamma.TableRef(tid)
		n.Note = gamma.Annotation{Kind: gamma.AnnotationValueTable, Original: s}
		if n.Level < gamma.LevelLight {
			n.Level = gamma.LevelLight
		}
		rewritten++
	}
	return rewritten, nil
}

// eligible reports whether the value pass may touch the node.
func eligible(n *gamma.Node) bool {
	return n.Note.Kind == gamma.AnnotationNone &&
		n.Value.Kind == gamma.ValueDirect &&
		len(n.Value.Str) > 0
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
