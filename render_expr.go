// render_expr.go: target expression rendering.
//
// Expressions render with full parenthesization of binary and
// comparison nodes, so no precedence table exists on the target side.
// Grouping parentheses from the source never survive lowering; any
// operand whose textual form could fuse with a neighboring operator
// (unary operands inside binary chains, literal receivers of
// attribute access) is parenthesized here instead.

package snail

import (
	"fmt"
	"strings"
)

func exprSource(x PyExpr) string {
	switch x := x.(type) {
	case *PyName:
		return x.ID
	case *PyNumber:
		return x.Value
	case *PyString:
		return stringSource(x)
	case *PyFString:
		return fstringSource(x.Parts)
	case *PyBool:
		if x.Value {
			return "True"
		}
		return "False"
	case *PyNone:
		return "None"
	case *PyUnary:
		operand := exprSource(x.X)
		if inner, ok := x.X.(*PyUnary); ok && inner.Op == PyUNot {
			operand = "(" + operand + ")"
		}
		switch x.Op {
		case PyUPlus:
			return "+" + operand
		case PyUMinus:
			return "-" + operand
		}
		return "not " + operand
	case *PyBinary:
		return fmt.Sprintf("(%s %s %s)", operandSource(x.Left), pyBinOpText(x.Op), operandSource(x.Right))
	case *PyCompare:
		parts := []string{operandSource(x.Left)}
		for i, op := range x.Ops {
			parts = append(parts, pyCmpOpText(op), operandSource(x.Comparators[i]))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *PyIfExpr:
		return fmt.Sprintf("(%s if %s else %s)", exprSource(x.Body), exprSource(x.Test), exprSource(x.OrElse))
	case *PyLambda:
		if len(x.Params) == 0 {
			return "lambda: " + exprSource(x.Body)
		}
		return fmt.Sprintf("lambda %s: %s", strings.Join(x.Params, ", "), exprSource(x.Body))
	case *PyNamed:
		return fmt.Sprintf("(%s := %s)", x.Target, exprSource(x.Value))
	case *PyStarred:
		return "*" + exprSource(x.X)
	case *PyYield:
		if x.Value == nil {
			return "(yield)"
		}
		return "(yield " + exprSource(x.Value) + ")"
	case *PyYieldFrom:
		return "(yield from " + exprSource(x.X) + ")"
	case *PyCall:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = argSource(a)
		}
		return exprSource(x.Func) + "(" + strings.Join(args, ", ") + ")"
	case *PyAttr:
		value := exprSource(x.Value)
		switch x.Value.(type) {
		case *PyNumber, *PyUnary, *PyBool, *PyNone:
			value = "(" + value + ")"
		}
		return value + "." + x.Attr
	case *PyIndex:
		return exprSource(x.Value) + "[" + exprSource(x.Index) + "]"
	case *PyList:
		return "[" + joinExprs(x.Elements) + "]"
	case *PyTuple:
		if len(x.Elements) == 0 {
			return "()"
		}
		if len(x.Elements) == 1 {
			return "(" + exprSource(x.Elements[0]) + ",)"
		}
		return "(" + joinExprs(x.Elements) + ")"
	case *PySet:
		return "{" + joinExprs(x.Elements) + "}"
	case *PyDict:
		entries := make([]string, len(x.Entries))
		for i, e := range x.Entries {
			entries[i] = exprSource(e.Key) + ": " + exprSource(e.Value)
		}
		return "{" + strings.Join(entries, ", ") + "}"
	case *PyListComp:
		return "[" + exprSource(x.Element) + compTail(x.Target, x.Iter, x.Ifs) + "]"
	case *PyDictComp:
		return "{" + exprSource(x.Key) + ": " + exprSource(x.Value) + compTail(x.Target, x.Iter, x.Ifs) + "}"
	case *PySlice:
		start, end := "", ""
		if x.Start != nil {
			start = exprSource(x.Start)
		}
		if x.End != nil {
			end = exprSource(x.End)
		}
		return start + ":" + end
	}
	return ""
}

// operandSource renders a direct operand of a binary or comparison
// chain. Unary operands are parenthesized: "not" would otherwise bind
// the whole remaining chain, and a leading minus misparses under
// power's tighter binding.
func operandSource(x PyExpr) string {
	if _, ok := x.(*PyUnary); ok {
		return "(" + exprSource(x) + ")"
	}
	return exprSource(x)
}

func joinExprs(xs []PyExpr) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = exprSource(x)
	}
	return strings.Join(parts, ", ")
}

func compTail(target string, iter PyExpr, ifs []PyExpr) string {
	var out strings.Builder
	out.WriteString(" for ")
	out.WriteString(target)
	out.WriteString(" in ")
	out.WriteString(exprSource(iter))
	for _, cond := range ifs {
		out.WriteString(" if ")
		out.WriteString(exprSource(cond))
	}
	return out.String()
}

func argSource(a PyArg) string {
	switch a.Mode {
	case ArgKeyword:
		return a.Name + "=" + exprSource(a.Value)
	case ArgStar:
		return "*" + exprSource(a.Value)
	case ArgKwStar:
		return "**" + exprSource(a.Value)
	}
	return exprSource(a.Value)
}

func paramSource(p PyParam) string {
	switch p.Kind {
	case ParamVarArgs:
		return "*" + p.Name
	case ParamKwArgs:
		return "**" + p.Name
	}
	if p.Default != nil {
		return p.Name + "=" + exprSource(p.Default)
	}
	return p.Name
}

func withItemSource(it PyWithItem) string {
	out := exprSource(it.Context)
	if it.Target != nil {
		out += " as " + exprSource(it.Target)
	}
	return out
}

/* ---------- string literals ---------- */

func stringSource(s *PyString) string {
	prefix := ""
	if s.Bytes {
		prefix = "b"
	}
	if s.Raw {
		prefix = "r" + prefix
	}
	delim := delimText(s.Delim)
	if s.Raw {
		delim = rawDelim(s.Value, s.Delim)
	}
	return prefix + delim + s.Value + delim
}

// rawDelim picks a delimiter not occurring in the content; a raw
// literal cannot escape its own quote. With both triple forms present
// no delimiter is safe and the original double quote is kept.
func rawDelim(value string, delim StringDelim) string {
	hasDouble := strings.Contains(value, `"`)
	hasSingle := strings.Contains(value, "'")
	hasTripleDouble := strings.Contains(value, `"""`)
	hasTripleSingle := strings.Contains(value, "'''")
	switch {
	case hasTripleDouble && hasTripleSingle:
		return `"`
	case hasTripleDouble:
		return "'''"
	case hasTripleSingle:
		return `"""`
	case hasDouble && !hasSingle:
		return "'"
	case hasSingle && !hasDouble:
		return `"`
	case hasDouble:
		return `"""`
	}
	return delimText(delim)
}

func delimText(delim StringDelim) string {
	switch delim {
	case DelimSingle:
		return "'"
	case DelimTripleSingle:
		return "'''"
	case DelimTripleDouble:
		return `"""`
	}
	return `"`
}

/* ---------- f-strings ---------- */

// fstringSource picks the outer quote from the string literals nested
// in the interpolations: double by default, single when the parts use
// double quotes, triple-double when they use both.
func fstringSource(parts []PyFStringPart) string {
	double := partsContainQuote(parts, true)
	single := partsContainQuote(parts, false)
	quote, quoteChar := `"`, byte('"')
	switch {
	case double && single:
		quote = `"""`
	case double:
		quote, quoteChar = "'", '\''
	}
	var out strings.Builder
	out.WriteString("f")
	out.WriteString(quote)
	writeFStringParts(&out, parts, quoteChar)
	out.WriteString(quote)
	return out.String()
}

func writeFStringParts(out *strings.Builder, parts []PyFStringPart, quoteChar byte) {
	for _, p := range parts {
		if p.X == nil {
			out.WriteString(escapeFStringText(p.Text, quoteChar))
			continue
		}
		out.WriteByte('{')
		out.WriteString(exprSource(p.X))
		switch p.Conv {
		case FConvStr:
			out.WriteString("!s")
		case FConvRepr:
			out.WriteString("!r")
		case FConvAscii:
			out.WriteString("!a")
		}
		if p.Spec != nil {
			out.WriteByte(':')
			writeFStringParts(out, p.Spec, quoteChar)
		}
		out.WriteByte('}')
	}
}

func escapeFStringText(text string, quoteChar byte) string {
	var out strings.Builder
	out.Grow(len(text))
	for _, ch := range text {
		switch ch {
		case '\\':
			out.WriteString(`\\`)
		case '\n':
			out.WriteString(`\n`)
		case '\r':
			out.WriteString(`\r`)
		case '\t':
			out.WriteString(`\t`)
		case '{':
			out.WriteString("{{")
		case '}':
			out.WriteString("}}")
		case rune(quoteChar):
			out.WriteByte('\\')
			out.WriteByte(quoteChar)
		default:
			out.WriteRune(ch)
		}
	}
	return out.String()
}

func partsContainQuote(parts []PyFStringPart, double bool) bool {
	for _, p := range parts {
		if p.X != nil && containsQuote(p.X, double) {
			return true
		}
		if p.Spec != nil && partsContainQuote(p.Spec, double) {
			return true
		}
	}
	return false
}

// containsQuote reports whether any string literal nested in x uses
// the given quote family. Text parts do not count: they are escaped
// against the chosen quote, while literals inside interpolations
// render verbatim.
func containsQuote(x PyExpr, double bool) bool {
	switch x := x.(type) {
	case *PyString:
		if double {
			return x.Delim == DelimDouble || x.Delim == DelimTripleDouble
		}
		return x.Delim == DelimSingle || x.Delim == DelimTripleSingle
	case *PyFString:
		return partsContainQuote(x.Parts, double)
	case *PyUnary:
		return containsQuote(x.X, double)
	case *PyBinary:
		return containsQuote(x.Left, double) || containsQuote(x.Right, double)
	case *PyCompare:
		if containsQuote(x.Left, double) {
			return true
		}
		return exprsContainQuote(x.Comparators, double)
	case *PyIfExpr:
		return containsQuote(x.Test, double) || containsQuote(x.Body, double) || containsQuote(x.OrElse, double)
	case *PyLambda:
		return containsQuote(x.Body, double)
	case *PyNamed:
		return containsQuote(x.Value, double)
	case *PyStarred:
		return containsQuote(x.X, double)
	case *PyYield:
		return x.Value != nil && containsQuote(x.Value, double)
	case *PyYieldFrom:
		return containsQuote(x.X, double)
	case *PyCall:
		if containsQuote(x.Func, double) {
			return true
		}
		for _, a := range x.Args {
			if containsQuote(a.Value, double) {
				return true
			}
		}
		return false
	case *PyAttr:
		return containsQuote(x.Value, double)
	case *PyIndex:
		return containsQuote(x.Value, double) || containsQuote(x.Index, double)
	case *PyList:
		return exprsContainQuote(x.Elements, double)
	case *PyTuple:
		return exprsContainQuote(x.Elements, double)
	case *PySet:
		return exprsContainQuote(x.Elements, double)
	case *PyDict:
		for _, e := range x.Entries {
			if containsQuote(e.Key, double) || containsQuote(e.Value, double) {
				return true
			}
		}
		return false
	case *PyListComp:
		return containsQuote(x.Element, double) || containsQuote(x.Iter, double) || exprsContainQuote(x.Ifs, double)
	case *PyDictComp:
		return containsQuote(x.Key, double) || containsQuote(x.Value, double) ||
			containsQuote(x.Iter, double) || exprsContainQuote(x.Ifs, double)
	case *PySlice:
		if x.Start != nil && containsQuote(x.Start, double) {
			return true
		}
		return x.End != nil && containsQuote(x.End, double)
	}
	return false
}

func exprsContainQuote(xs []PyExpr, double bool) bool {
	for _, x := range xs {
		if containsQuote(x, double) {
			return true
		}
	}
	return false
}

/* ---------- operators ---------- */

func pyBinOpText(op PyBinOp) string {
	switch op {
	case PyOpOr:
		return "or"
	case PyOpAnd:
		return "and"
	case PyOpAdd:
		return "+"
	case PyOpSub:
		return "-"
	case PyOpMul:
		return "*"
	case PyOpDiv:
		return "/"
	case PyOpFloorDiv:
		return "//"
	case PyOpMod:
		return "%"
	}
	return "**"
}

func pyCmpOpText(op PyCmpOp) string {
	switch op {
	case PyCmpEq:
		return "=="
	case PyCmpNotEq:
		return "!="
	case PyCmpLt:
		return "<"
	case PyCmpLtEq:
		return "<="
	case PyCmpGt:
		return ">"
	case PyCmpGtEq:
		return ">="
	case PyCmpIn:
		return "in"
	case PyCmpNotIn:
		return "not in"
	case PyCmpIs:
		return "is"
	}
	return "is not"
}
