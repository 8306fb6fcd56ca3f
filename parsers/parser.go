// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package parsers turns source text into Γ-AST trees.
//
// # Description
//
// These are line-heuristic front ends, not grammars: each significant line
// is classified by leading keywords into one node under a per-file Module
// root. That is deliberately coarse — the compression pipeline only needs
// structurally plausible trees with realistic value repetition, and a
// keyword classifier produces those at a fraction of a real parser's cost.
//
// # Thread Safety
//
// Parsers are stateless; safe for concurrent use.
package parsers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gammalabs/gamma/gamma"
)

// ErrUnsupportedFile is returned when no parser claims a file's extension.
var ErrUnsupportedFile = errors.New("parsers: unsupported file type")

// ErrEmptySource is returned for source with no significant lines.
var ErrEmptySource = errors.New("parsers: empty source")

// Parser is a front end producing Γ-AST trees for one language.
type Parser interface {
	// Parse builds a tree from source text. The tree has exactly one
	// Module root per call.
	Parse(source string) (*gamma.Tree, error)

	// Language returns the language tag stored on produced trees.
	Language() string

	// Extensions returns the file extensions this parser claims,
	// including the leading dot.
	Extensions() []string
}

// registered lists the built-in parsers in lookup order.
var registered = []Parser{
	NewPython(),
	NewRust(),
	NewJavaScript(),
}

// ForFile returns the parser claiming the file's extension.
func ForFile(path string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, p := range registered {
		for _, e := range p.Extensions() {
			if e == ext {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
}

// Languages returns the language tags of all registered parsers.
func Languages() []string {
	out := make([]string, len(registered))
	for i, p := range registered {
		out[i] = p.Language()
	}
	return out
}

// classifier maps one trimmed significant line to a node.
type classifier func(line string) (gamma.NodeKind, gamma.Value)

// parseLines is the shared front-end skeleton: one Module root, one child
// node per significant line.
func parseLines(language, commentPrefix, source string, classify classifier) (*gamma.Tree, error) {
	t := gamma.NewTree(language)

	root := &gamma.Node{ID: 1, Kind: gamma.KindModule, Value: gamma.NoValue()}
	t.AddNode(root)
	t.AddRoot(root.ID)

	next := gamma.NodeID(2)
	for _, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		kind, value := classify(line)
		n := &gamma.Node{ID: next, Kind: kind, Value: value}
		t.AddNode(n)
		root.Children = append(root.Children, n.ID)
		next++
	}

	if len(root.Children) == 0 {
		return nil, ErrEmptySource
	}
	return t, nil
}

// identAfter extracts the identifier following a keyword prefix, stopping
// at the first delimiter.
func identAfter(line, keyword string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(line, keyword))
	end := strings.IndexAny(rest, "(:{=< \t")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

// assignTarget extracts the left-hand side of a simple assignment, or ""
// when the line is not one. Comparison operators do not count.
func assignTarget(line string) string {
	i := strings.Index(line, "=")
	if i <= 0 {
		return ""
	}
	if line[i-1] == '!' || line[i-1] == '<' || line[i-1] == '>' {
		return ""
	}
	if i+1 < len(line) && line[i+1] == '=' {
		return ""
	}
	lhs := strings.TrimSpace(line[:i])
	if lhs == "" || strings.ContainsAny(lhs, "(){}") {
		return ""
	}
	fields := strings.Fields(lhs)
	return fields[len(fields)-1]
}

// isLiteralStart reports whether the line opens with a literal token.
func isLiteralStart(line string) bool {
	c := line[0]
	return c == '"' || c == '\'' || c == '`' || (c >= '0' && c <= '9')
}

// looksLikeCall reports whether the line is a bare call expression.
func looksLikeCall(line string) bool {
	open := strings.Index(line, "(")
	if open <= 0 {
		return false
	}
	for _, r := range line[:open] {
		if !isIdentRune(r) {
			return false
		}
	}
	return true
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '.' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
