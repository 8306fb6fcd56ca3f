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

// JavaScript is the line-heuristic JavaScript front end.
type JavaScript struct{}

// NewJavaScript returns the JavaScript parser.
func NewJavaScript() *JavaScript { return &JavaScript{} }

// Language implements Parser.
func (*JavaScript) Language() string { return "javascript" }

// Extensions implements Parser.
func (*JavaScript) Extensions() []string { return []string{".js", ".mjs", ".jsx"} }

// Parse implements Parser.
func (j *JavaScript) Parse(source string) (*gamma.Tree, error) {
	return parseLines(j.Language(), "//", source, classifyJavaScript)
}

func classifyJavaScript(line string) (gamma.NodeKind, gamma.Value) {
	switch {
	case strings.HasPrefix(line, "function "), strings.HasPrefix(line, "async function "):
		kw := "function "
		if strings.HasPrefix(line, "async function ") {
			kw = "async function "
		}
		return gamma.KindFunction, gamma.Direct(identAfter(line, kw))
	case strings.HasPrefix(line, "class "):
		return gamma.KindClass, gamma.Direct(identAfter(line, "class "))
	case strings.HasPrefix(line, "if "), strings.HasPrefix(line, "if("),
		strings.HasPrefix(line, "} else"):
		return gamma.KindIf, gamma.NoValue()
	case strings.HasPrefix(line, "switch "), strings.HasPrefix(line, "switch("):
		return gamma.KindSwitch, gamma.NoValue()
	case strings.HasPrefix(line, "for "), strings.HasPrefix(line, "for("),
		strings.HasPrefix(line, "while "), strings.HasPrefix(line, "while("),
		strings.HasPrefix(line, "do "):
		return gamma.KindLoop, gamma.NoValue()
	case strings.HasPrefix(line, "try"), strings.HasPrefix(line, "} catch"),
		strings.HasPrefix(line, "} finally"):
		return gamma.KindTry, gamma.NoValue()
	case strings.HasPrefix(line, "return"), strings.HasPrefix(line, "import "),
		strings.HasPrefix(line, "export "), strings.HasPrefix(line, "throw "):
		return gamma.KindStatement, gamma.NoValue()
	case isLiteralStart(line):
		return gamma.KindLiteral, gamma.Direct(strings.TrimSuffix(line, ","))
	}

	// An arrow bound to a name is a function declaration in spirit.
	if strings.Contains(line, "=>") {
		if target := assignTarget(line); target != "" {
			return gamma.KindFunction, gamma.Direct(target)
		}
		return gamma.KindFunction, gamma.NoValue()
	}
	if target := assignTarget(line); target != "" {
		return gamma.KindAssignment, gamma.Direct(target)
	}
	if looksLikeCall(line) {
		return gamma.KindCall, gamma.Direct(line[:strings.Index(line, "(")])
	}
	return gamma.KindExpression, gamma.NoValue()
}
