// Copyright (C) 2026 Gamma Labs (oss@gammalabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package parsers

import (
	"strings"

	"github.com/gammalabs/gamma/gamma"
)

// Rust is the line-heuristic Rust front end.
type Rust struct{}

// NewRust returns the Rust parser.
func NewRust() *Rust { return &Rust{} }

// Language implements Parser.
func (*Rust) Language() string { return "rust" }

// Extensions implements Parser.
func (*Rust) Extensions() []string { return []string{".rs"} }

// Parse implements Parser.
func (r *Rust) Parse(source string) (*gamma.Tree, error) {
	return parseLines(r.Language(), "//", source, classifyRust)
}

func classifyRust(line string) (gamma.NodeKind, gamma.Value) {
	// Visibility modifiers don't change what the line declares.
	trimmed := strings.TrimPrefix(line, "pub ")
	trimmed = strings.TrimPrefix(trimmed, "pub(crate) ")

	switch {
	case strings.HasPrefix(trimmed, "fn "), strings.HasPrefix(trimmed, "async fn "):
		kw := "fn "
		if strings.HasPrefix(trimmed, "async fn ") {
			kw = "async fn "
		}
		return gamma.KindFunction, gamma.Direct(identAfter(trimmed, kw))
	case strings.HasPrefix(trimmed, "struct "), strings.HasPrefix(trimmed, "enum "),
		strings.HasPrefix(trimmed, "trait "), strings.HasPrefix(trimmed, "impl "):
		kw := trimmed[:strings.Index(trimmed, " ")+1]
		return gamma.KindClass, gamma.Direct(identAfter(trimmed, kw))
	case strings.HasPrefix(trimmed, "if "), strings.HasPrefix(trimmed, "} else"):
		return gamma.KindIf, gamma.NoValue()
	case strings.HasPrefix(trimmed, "match "):
		return gamma.KindSwitch, gamma.NoValue()
	case strings.HasPrefix(trimmed, "for "), strings.HasPrefix(trimmed, "while "),
		trimmed == "loop {", strings.HasPrefix(trimmed, "loop "):
		return gamma.KindLoop, gamma.NoValue()
	case strings.HasPrefix(trimmed, "let "):
		return gamma.KindAssignment, gamma.Direct(letTarget(trimmed))
	case strings.HasPrefix(trimmed, "use "), strings.HasPrefix(trimmed, "mod "),
		strings.HasPrefix(trimmed, "return"):
		return gamma.KindStatement, gamma.NoValue()
	case isLiteralStart(trimmed):
		return gamma.KindLiteral, gamma.Direct(strings.TrimSuffix(trimmed, ","))
	}
	if looksLikeCall(trimmed) {
		return gamma.KindCall, gamma.Direct(trimmed[:strings.Index(trimmed, "(")])
	}
	return gamma.KindExpression, gamma.NoValue()
}

// letTarget extracts the binding name from a let statement.
func letTarget(line string) string {
	rest := strings.TrimPrefix(line, "let ")
	rest = strings.TrimPrefix(rest, "mut ")
	end := strings.IndexAny(rest, ":= \t")
	if end < 0 {
		return rest
	}
	return rest[:end]
}
