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

// Python is the line-heuristic Python front end.
type Python struct{}

// NewPython returns the Python parser.
func NewPython() *Python { return &Python{} }

// Language implements Parser.
func (*Python) Language() string { return "python" }

// Extensions implements Parser.
func (*Python) Extensions() []string { return []string{".py"} }

// Parse implements Parser.
func (p *Python) Parse(source string) (*gamma.Tree, error) {
	return parseLines(p.Language(), "#", source, classifyPython)
}

func classifyPython(line string) (gamma.NodeKind, gamma.Value) {
	switch {
	case strings.HasPrefix(line, "def "):
		return gamma.KindFunction, gamma.Direct(identAfter(line, "def "))
	case strings.HasPrefix(line, "class "):
		return gamma.KindClass, gamma.Direct(identAfter(line, "class "))
	case strings.HasPrefix(line, "if "), strings.HasPrefix(line, "elif "),
		line == "else:", strings.HasPrefix(line, "else:"):
		return gamma.KindIf, gamma.NoValue()
	case strings.HasPrefix(line, "for "), strings.HasPrefix(line, "while "):
		return gamma.KindLoop, gamma.NoValue()
	case strings.HasPrefix(line, "try"), strings.HasPrefix(line, "except"),
		strings.HasPrefix(line, "finally"):
		return gamma.KindTry, gamma.NoValue()
	case strings.HasPrefix(line, "match "):
		return gamma.KindSwitch, gamma.NoValue()
	case strings.HasPrefix(line, "return"), strings.HasPrefix(line, "import "),
		strings.HasPrefix(line, "from "), strings.HasPrefix(line, "pass"),
		strings.HasPrefix(line, "raise"):
		return gamma.KindStatement, gamma.NoValue()
	case isLiteralStart(line):
		return gamma.KindLiteral, gamma.Direct(line)
	}
	if target := assignTarget(line); target != "" {
		return gamma.KindAssignment, gamma.Direct(target)
	}
	if looksLikeCall(line) {
		return gamma.KindCall, gamma.Direct(line[:strings.Index(line, "(")])
	}
	return gamma.KindExpression, gamma.NoValue()
}
