// errors.go: typed compile errors and caret-snippet rendering
//
// What this file does
// -------------------
// Two error kinds cover the whole pipeline. *ParseError is produced by the
// preprocessor, lexer, and parser and optionally carries a span plus the
// literal source line so FormatError can render a caret snippet:
//
//	error: unexpected token
//	--> script.snail:5:8
//	 |
//	   5 | if x == {
//	 |        ^
//
// *LowerError is produced after a successful parse for semantic failures
// (multiple pipeline placeholders, bad field indices, exception sentinel
// misuse) and renders as a bare "error: ..." line.
//
// Both are plain values. Nothing in the package panics across a stage
// boundary or uses errors for control flow.

package snail

import (
	"fmt"
	"strings"
)

// ParseError reports a lexical or grammatical failure. Span and LineText
// are optional; when present they drive the caret snippet.
type ParseError struct {
	Message  string
	Span     *Span
	LineText string
}

func (e *ParseError) Error() string { return e.Message }

// parseErrorf builds a span-less ParseError.
func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

// errorAt attaches a span and the covered source line to a new ParseError.
func errorAt(msg string, sp Span, src string) *ParseError {
	s := sp
	return &ParseError{
		Message:  msg,
		Span:     &s,
		LineText: lineText(src, sp.Start.Line),
	}
}

// LowerError reports a semantic failure discovered while lowering a
// successfully parsed program.
type LowerError struct {
	Message string
	Span    *Span
}

func (e *LowerError) Error() string { return e.Message }

func lowerErrorf(format string, args ...any) *LowerError {
	return &LowerError{Message: fmt.Sprintf(format, args...)}
}

// lowerErrorAt attaches the offending span to a new LowerError.
func lowerErrorAt(msg string, sp Span) *LowerError {
	s := sp
	return &LowerError{Message: msg, Span: &s}
}

// multiplePlaceholders is the one LowerError with a dedicated constructor;
// callers match on its fixed message, and the span marks the offending
// placeholder.
func multiplePlaceholders(sp Span) *LowerError {
	s := sp
	return &LowerError{
		Message: "pipeline calls may include at most one placeholder",
		Span:    &s,
	}
}

// FormatError renders err for a human. ParseErrors get the full location
// and caret treatment, LowerErrors a single prefixed line, and anything
// else passes through unchanged.
func FormatError(err error, filename string) string {
	switch e := err.(type) {
	case *ParseError:
		return formatParseError(e, filename, true)
	case *LowerError:
		return fmt.Sprintf("error: %s", e.Message)
	default:
		return err.Error()
	}
}

func formatParseError(e *ParseError, filename string, prefix bool) string {
	var b strings.Builder
	if prefix {
		fmt.Fprintf(&b, "error: %s\n", e.Message)
	} else {
		fmt.Fprintf(&b, "%s\n", e.Message)
	}
	if e.Span == nil {
		return b.String()
	}
	start := e.Span.Start
	if filename != "" {
		fmt.Fprintf(&b, "--> %s:%d:%d\n", filename, start.Line, start.Column)
	} else {
		fmt.Fprintf(&b, "--> %d:%d\n", start.Line, start.Column)
	}
	if e.LineText != "" {
		col := start.Column
		if col < 1 {
			col = 1
		}
		fmt.Fprintf(&b, " |\n")
		fmt.Fprintf(&b, "%4d | %s\n", start.Line, e.LineText)
		fmt.Fprintf(&b, " | %s^\n", strings.Repeat(" ", col-1))
	}
	return b.String()
}
