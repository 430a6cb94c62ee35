// separators.go: top-level statement separator validation.
//
// The preprocessor and parser already enforce separators between simple
// statements; this pass re-checks the invariant against the original
// text, catching any statement pair the injection stage let slide.

package snail

import "strings"

// CheckSeparators verifies that every adjacent pair of top-level
// statements has a newline or semicolon in the source text between
// them. Statements ending in a block carry their own boundary and are
// exempt.
func CheckSeparators(p *Program, source string) error {
	for i := 1; i < len(p.Stmts); i++ {
		prev := p.Stmts[i-1]
		if endsWithBlock(prev) {
			continue
		}
		gap := source[prev.Span().End.Offset:p.Stmts[i].Span().Start.Offset]
		if !strings.ContainsAny(gap, "\n;") {
			return errorAt("expected statement separator", p.Stmts[i].Span(), source)
		}
	}
	return nil
}

func endsWithBlock(st Stmt) bool {
	switch st.(type) {
	case *IfStmt, *WhileStmt, *ForStmt, *DefStmt, *ClassStmt, *TryStmt, *WithStmt:
		return true
	}
	return false
}
