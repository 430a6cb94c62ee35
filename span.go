// span.go: source positions and byte spans shared by every compiler stage.

package snail

import "strings"

// Pos is a location in source text. Offset is a 0-based byte offset into
// the original source; Line and Column are 1-based and derived from it.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// Span is a half-open region [Start.Offset, End.Offset) of the source.
// Every AST node carries one, and lowering copies them into the target
// tree so diagnostics can always point back at real source text.
type Span struct {
	Start Pos
	End   Pos
}

// posAt computes the full Pos for a byte offset. Offsets past the end of
// the source are clamped.
func posAt(src string, offset int) Pos {
	if offset > len(src) {
		offset = len(src)
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Pos{Offset: offset, Line: line, Column: col}
}

// spanAt builds a Span covering [start, end) of src.
func spanAt(src string, start, end int) Span {
	return Span{Start: posAt(src, start), End: posAt(src, end)}
}

// fullSpan covers the whole source.
func fullSpan(src string) Span {
	return spanAt(src, 0, len(src))
}

// mergeSpans returns the smallest span containing both a and b.
func mergeSpans(a, b Span) Span {
	out := a
	if b.Start.Offset < out.Start.Offset {
		out.Start = b.Start
	}
	if b.End.Offset > out.End.Offset {
		out.End = b.End
	}
	return out
}

// shiftSpan moves a span produced against an extracted snippet back into
// the coordinates of the enclosing source. Sub-expressions inside
// interpolated literals are parsed from a slice of the original text, so
// their spans need the slice's base offset added and line/column
// recomputed against the full source.
func shiftSpan(sp Span, base int, src string) Span {
	return spanAt(src, sp.Start.Offset+base, sp.End.Offset+base)
}

// lineText returns the 1-based line of src without its trailing newline,
// or "" when the line number is out of range.
func lineText(src string, line int) string {
	if line < 1 {
		return ""
	}
	rest := src
	for n := 1; ; n++ {
		cut := strings.IndexByte(rest, '\n')
		if n == line {
			if cut < 0 {
				return rest
			}
			return rest[:cut]
		}
		if cut < 0 {
			return ""
		}
		rest = rest[cut+1:]
	}
}
