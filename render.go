// render.go: target statement rendering.
//
// The renderer turns a lowered module into source text for the target
// interpreter. It is total: every well formed tree renders without
// error. Layout is fixed at four-space indents, one statement per
// line, and a pass statement for any suite that would otherwise be
// empty. Expression text comes from render_expr.go, which fully
// parenthesizes instead of tracking precedence.

package snail

import (
	"fmt"
	"strings"
)

// Render converts a lowered module to target source text. It emits the
// module body alone; RenderWithPrologue prepends the helper
// definitions the body relies on.
func Render(m *PyModule) string {
	w := &pyWriter{}
	for _, st := range m.Body {
		w.stmt(st)
	}
	return w.sb.String()
}

type pyWriter struct {
	sb     strings.Builder
	indent int
}

func (w *pyWriter) line(text string) {
	for i := 0; i < w.indent; i++ {
		w.sb.WriteString("    ")
	}
	w.sb.WriteString(text)
	w.sb.WriteByte('\n')
}

// suite renders an indented statement block, padding with pass so the
// emitted suite is never empty.
func (w *pyWriter) suite(body []PyStmt) {
	w.indent++
	if len(body) == 0 {
		w.line("pass")
	} else {
		for _, st := range body {
			w.stmt(st)
		}
	}
	w.indent--
}

func (w *pyWriter) stmt(st PyStmt) {
	switch st := st.(type) {
	case *PyIf:
		w.line("if " + exprSource(st.Test) + ":")
		w.suite(st.Body)
		w.elifOrElse(st.OrElse)
	case *PyWhile:
		w.line("while " + exprSource(st.Test) + ":")
		w.suite(st.Body)
		w.elseBlock(st.OrElse)
	case *PyFor:
		w.line(fmt.Sprintf("for %s in %s:", exprSource(st.Target), exprSource(st.Iter)))
		w.suite(st.Body)
		w.elseBlock(st.OrElse)
	case *PyFunctionDef:
		params := make([]string, len(st.Params))
		for i, p := range st.Params {
			params[i] = paramSource(p)
		}
		w.line(fmt.Sprintf("def %s(%s):", st.Name, strings.Join(params, ", ")))
		w.suite(st.Body)
	case *PyClassDef:
		w.line("class " + st.Name + ":")
		w.suite(st.Body)
	case *PyTry:
		w.line("try:")
		w.suite(st.Body)
		for _, h := range st.Handlers {
			w.except(h)
		}
		if len(st.OrElse) > 0 {
			w.line("else:")
			w.suite(st.OrElse)
		}
		if len(st.FinalBody) > 0 {
			w.line("finally:")
			w.suite(st.FinalBody)
		}
	case *PyWith:
		items := make([]string, len(st.Items))
		for i, it := range st.Items {
			items[i] = withItemSource(it)
		}
		w.line("with " + strings.Join(items, ", ") + ":")
		w.suite(st.Body)
	case *PyReturn:
		if st.Value == nil {
			w.line("return")
		} else {
			w.line("return " + exprSource(st.Value))
		}
	case *PyRaise:
		switch {
		case st.Value == nil:
			w.line("raise")
		case st.From == nil:
			w.line("raise " + exprSource(st.Value))
		default:
			w.line(fmt.Sprintf("raise %s from %s", exprSource(st.Value), exprSource(st.From)))
		}
	case *PyAssert:
		if st.Message == nil {
			w.line("assert " + exprSource(st.Test))
		} else {
			w.line(fmt.Sprintf("assert %s, %s", exprSource(st.Test), exprSource(st.Message)))
		}
	case *PyDelete:
		targets := make([]string, len(st.Targets))
		for i, t := range st.Targets {
			targets[i] = exprSource(t)
		}
		w.line("del " + strings.Join(targets, ", "))
	case *PyBreak:
		w.line("break")
	case *PyContinue:
		w.line("continue")
	case *PyPass:
		w.line("pass")
	case *PyImport:
		w.line("import " + importNames(st.Names))
	case *PyImportFrom:
		module := strings.Repeat(".", st.Level) + strings.Join(st.Module, ".")
		if st.Star {
			w.line("from " + module + " import *")
		} else {
			w.line("from " + module + " import " + importNames(st.Names))
		}
	case *PyAssign:
		var line strings.Builder
		for _, t := range st.Targets {
			line.WriteString(exprSource(t))
			line.WriteString(" = ")
		}
		line.WriteString(exprSource(st.Value))
		w.line(line.String())
	case *PyExprStmt:
		w.line(exprSource(st.Value))
	}
}

// elifOrElse collapses an else branch holding exactly one if statement
// into an elif chain; anything else renders as a plain else block.
func (w *pyWriter) elifOrElse(orelse []PyStmt) {
	if len(orelse) == 0 {
		return
	}
	if len(orelse) == 1 {
		if next, ok := orelse[0].(*PyIf); ok {
			w.line("elif " + exprSource(next.Test) + ":")
			w.suite(next.Body)
			w.elifOrElse(next.OrElse)
			return
		}
	}
	w.line("else:")
	w.suite(orelse)
}

func (w *pyWriter) elseBlock(orelse []PyStmt) {
	if len(orelse) > 0 {
		w.line("else:")
		w.suite(orelse)
	}
}

func (w *pyWriter) except(h PyExceptHandler) {
	switch {
	case h.Type == nil:
		w.line("except:")
	case h.Name == "":
		w.line("except " + exprSource(h.Type) + ":")
	default:
		w.line(fmt.Sprintf("except %s as %s:", exprSource(h.Type), h.Name))
	}
	w.suite(h.Body)
}

func importNames(names []PyImportName) string {
	items := make([]string, len(names))
	for i, n := range names {
		item := strings.Join(n.Path, ".")
		if n.As != "" {
			item += " as " + n.As
		}
		items[i] = item
	}
	return strings.Join(items, ", ")
}
