// lower_expr.go: expression lowering.
//
// Sugar forms expand here: pipelines into protocol calls, compact tries
// into helper closures, regex and subprocess literals into helper
// constructions, augmented assignment and increments into assignment
// expressions or runtime helpers, field references into scaffolding
// reads. Plain forms map node for node.

package snail

import (
	"strconv"
	"strings"
)

func (lw *lowerer) expr(x Expr) (PyExpr, *LowerError) {
	switch x := x.(type) {
	case *Name:
		id, err := lw.pyIdent(x.Name, x.Loc)
		if err != nil {
			return nil, err
		}
		return pyName(id, x.Loc), nil
	case *Placeholder:
		return pyName("_", x.Loc), nil
	case *NumberLit:
		return pyNum(x.Value, x.Loc), nil
	case *StringLit:
		return &PyString{Value: x.Value, Raw: x.Raw, Bytes: x.Bytes, Delim: x.Delim, span: span{x.Loc}}, nil
	case *FStringLit:
		parts, err := lw.parts(x.Parts)
		if err != nil {
			return nil, err
		}
		fs := &PyFString{Parts: parts, span: span{x.Loc}}
		if x.Bytes {
			return pyCall(pyAttr(fs, "encode", x.Loc), nil, x.Loc), nil
		}
		return fs, nil
	case *BoolLit:
		return pyBool(x.Value, x.Loc), nil
	case *NoneLit:
		return &PyNone{span{x.Loc}}, nil
	case *UnaryExpr:
		operand, err := lw.expr(x.X)
		if err != nil {
			return nil, err
		}
		return &PyUnary{Op: pyUnaryOp(x.Op), X: operand, span: span{x.Loc}}, nil
	case *BinaryExpr:
		if x.Op == BinPipe {
			return lw.pipeline(x)
		}
		left, err := lw.expr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := lw.expr(x.Right)
		if err != nil {
			return nil, err
		}
		return &PyBinary{Left: left, Op: pyBinOp(x.Op), Right: right, span: span{x.Loc}}, nil
	case *AugAssignExpr:
		return lw.augAssign(x)
	case *PrefixIncrExpr:
		return lw.prefixIncr(x)
	case *PostfixIncrExpr:
		return lw.postfixIncr(x)
	case *CompareExpr:
		left, err := lw.expr(x.Left)
		if err != nil {
			return nil, err
		}
		ops := make([]PyCmpOp, len(x.Ops))
		for i, op := range x.Ops {
			ops[i] = pyCmpOp(op)
		}
		comparators := make([]PyExpr, len(x.Comparators))
		for i, c := range x.Comparators {
			if comparators[i], err = lw.expr(c); err != nil {
				return nil, err
			}
		}
		return &PyCompare{Left: left, Ops: ops, Comparators: comparators, span: span{x.Loc}}, nil
	case *IfExpr:
		test, err := lw.expr(x.Test)
		if err != nil {
			return nil, err
		}
		body, err := lw.expr(x.Body)
		if err != nil {
			return nil, err
		}
		orElse, err := lw.expr(x.OrElse)
		if err != nil {
			return nil, err
		}
		return &PyIfExpr{Test: test, Body: body, OrElse: orElse, span: span{x.Loc}}, nil
	case *TryExpr:
		return lw.compactTry(x)
	case *YieldExpr:
		out := &PyYield{span: span{x.Loc}}
		if x.Value != nil {
			value, err := lw.expr(x.Value)
			if err != nil {
				return nil, err
			}
			out.Value = value
		}
		return out, nil
	case *YieldFromExpr:
		inner, err := lw.expr(x.X)
		if err != nil {
			return nil, err
		}
		return &PyYieldFrom{X: inner, span: span{x.Loc}}, nil
	case *LambdaExpr:
		return lw.lambdaExpr(x)
	case *CompoundExpr:
		elems, err := lw.exprs(x.Exprs)
		if err != nil {
			return nil, err
		}
		return lastOfTuple(elems, x.Loc), nil
	case *RegexLit:
		pattern, err := lw.regexPattern(x.Pattern, x.Loc)
		if err != nil {
			return nil, err
		}
		return pyCall(pyName(helperRegexCompile, x.Loc), []PyExpr{pattern}, x.Loc), nil
	case *RegexMatchExpr:
		value, err := lw.expr(x.Value)
		if err != nil {
			return nil, err
		}
		pattern, err := lw.regexPattern(x.Pattern, x.Loc)
		if err != nil {
			return nil, err
		}
		return pyCall(pyName(helperRegexSearch, x.Loc), []PyExpr{value, pattern}, x.Loc), nil
	case *SubprocessLit:
		obj, err := lw.subprocessObject(x)
		if err != nil {
			return nil, err
		}
		none := &PyNone{span{x.Loc}}
		return pyCall(pyAttr(obj, "__pipeline__", x.Loc), []PyExpr{none}, x.Loc), nil
	case *AccessorLit:
		query := pyStr(escapeForPythonString(x.Query), x.Loc)
		return pyCall(pyName(classStructuredAccess, x.Loc), []PyExpr{query}, x.Loc), nil
	case *CallExpr:
		fn, err := lw.expr(x.Func)
		if err != nil {
			return nil, err
		}
		args, err := lw.callArgs(x.Args)
		if err != nil {
			return nil, err
		}
		return &PyCall{Func: fn, Args: args, span: span{x.Loc}}, nil
	case *AttrExpr:
		value, err := lw.expr(x.Value)
		if err != nil {
			return nil, err
		}
		if isAllDigits(x.Attr) {
			group, aerr := strconv.Atoi(x.Attr)
			if aerr != nil {
				return nil, lowerErrorAt("Invalid match group index: ."+x.Attr, x.Loc)
			}
			return &PyIndex{Value: value, Index: pyNum(strconv.Itoa(group), x.Loc), span: span{x.Loc}}, nil
		}
		return &PyAttr{Value: value, Attr: x.Attr, span: span{x.Loc}}, nil
	case *IndexExpr:
		value, err := lw.expr(x.Value)
		if err != nil {
			return nil, err
		}
		index, err := lw.expr(x.Index)
		if err != nil {
			return nil, err
		}
		return &PyIndex{Value: value, Index: index, span: span{x.Loc}}, nil
	case *ParenExpr:
		return lw.expr(x.X)
	case *FieldIndex:
		return lw.fieldIndex(x)
	case *ListLit:
		elems, err := lw.exprs(x.Elements)
		if err != nil {
			return nil, err
		}
		return &PyList{Elements: elems, span: span{x.Loc}}, nil
	case *TupleLit:
		elems, err := lw.exprs(x.Elements)
		if err != nil {
			return nil, err
		}
		return &PyTuple{Elements: elems, span: span{x.Loc}}, nil
	case *SetLit:
		elems, err := lw.exprs(x.Elements)
		if err != nil {
			return nil, err
		}
		return &PySet{Elements: elems, span: span{x.Loc}}, nil
	case *DictLit:
		entries := make([]PyDictEntry, len(x.Entries))
		for i, e := range x.Entries {
			key, err := lw.expr(e.Key)
			if err != nil {
				return nil, err
			}
			value, err := lw.expr(e.Value)
			if err != nil {
				return nil, err
			}
			entries[i] = PyDictEntry{Key: key, Value: value}
		}
		return &PyDict{Entries: entries, span: span{x.Loc}}, nil
	case *ListComp:
		element, err := lw.expr(x.Element)
		if err != nil {
			return nil, err
		}
		iter, err := lw.expr(x.Iter)
		if err != nil {
			return nil, err
		}
		ifs, err := lw.exprs(x.Ifs)
		if err != nil {
			return nil, err
		}
		return &PyListComp{Element: element, Target: x.Target, Iter: iter, Ifs: ifs, span: span{x.Loc}}, nil
	case *DictComp:
		key, err := lw.expr(x.Key)
		if err != nil {
			return nil, err
		}
		value, err := lw.expr(x.Value)
		if err != nil {
			return nil, err
		}
		iter, err := lw.expr(x.Iter)
		if err != nil {
			return nil, err
		}
		ifs, err := lw.exprs(x.Ifs)
		if err != nil {
			return nil, err
		}
		return &PyDictComp{Key: key, Value: value, Target: x.Target, Iter: iter, Ifs: ifs, span: span{x.Loc}}, nil
	case *SliceExpr:
		out := &PySlice{span: span{x.Loc}}
		if x.Start != nil {
			start, err := lw.expr(x.Start)
			if err != nil {
				return nil, err
			}
			out.Start = start
		}
		if x.End != nil {
			end, err := lw.expr(x.End)
			if err != nil {
				return nil, err
			}
			out.End = end
		}
		return out, nil
	default:
		return nil, lowerErrorAt("unsupported expression", x.Span())
	}
}

func (lw *lowerer) exprs(xs []Expr) ([]PyExpr, *LowerError) {
	out := make([]PyExpr, len(xs))
	for i, x := range xs {
		e, err := lw.expr(x)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

/* ---------- names ---------- */

// pyIdent resolves a source identifier to its target name. The `$e`
// sentinel binds to the active fallback's exception variable; reserved
// context names map onto scaffolding variables; everything else passes
// through unchanged.
func (lw *lowerer) pyIdent(name string, sp Span) (string, *LowerError) {
	if name == "$e" {
		if lw.exc == "" {
			return "", lowerErrorAt("`$e` is only available in compact exception fallbacks", sp)
		}
		return lw.exc, nil
	}
	if injected, ok := injectedPyName(name); ok {
		return injected, nil
	}
	return name, nil
}

/* ---------- pipelines ---------- */

// pipeline lowers `x | y` into a pipeline-protocol call on y with x as
// input. A call carrying one placeholder instead becomes a partial
// application of the callee with x substituted for the placeholder; a
// subprocess literal becomes the helper object itself so the input can
// feed its stdin rather than being discarded by a premature run.
func (lw *lowerer) pipeline(x *BinaryExpr) (PyExpr, *LowerError) {
	switch rhs := x.Right.(type) {
	case *CallExpr:
		count, firstSpan := placeholderInfoInArgs(rhs.Args)
		if count > 1 {
			sp := rhs.Loc
			if firstSpan != nil {
				sp = *firstSpan
			}
			return nil, multiplePlaceholders(sp)
		}
		if count == 1 {
			replaced := substitutePlaceholderInArgs(rhs.Args, x.Left)
			fn, err := lw.expr(rhs.Func)
			if err != nil {
				return nil, err
			}
			args, err := lw.callArgs(replaced)
			if err != nil {
				return nil, err
			}
			partial := &PyCall{
				Func: pyName(helperPartial, rhs.Loc),
				Args: append([]PyArg{{Mode: ArgPositional, Value: fn}}, args...),
				span: span{rhs.Loc},
			}
			return pyCall(partial, nil, x.Loc), nil
		}
	case *SubprocessLit:
		left, err := lw.expr(x.Left)
		if err != nil {
			return nil, err
		}
		obj, err := lw.subprocessObject(rhs)
		if err != nil {
			return nil, err
		}
		return pyCall(pyAttr(obj, "__pipeline__", x.Loc), []PyExpr{left}, x.Loc), nil
	}
	left, err := lw.expr(x.Left)
	if err != nil {
		return nil, err
	}
	right, err := lw.expr(x.Right)
	if err != nil {
		return nil, err
	}
	return pyCall(pyAttr(right, "__pipeline__", x.Loc), []PyExpr{left}, x.Loc), nil
}

// subprocessObject builds the capture or status helper construction
// over the interpolated command string, without invoking it.
func (lw *lowerer) subprocessObject(x *SubprocessLit) (PyExpr, *LowerError) {
	parts, err := lw.parts(x.Parts)
	if err != nil {
		return nil, err
	}
	cmd := &PyFString{Parts: parts, span: span{x.Loc}}
	class := classSubprocessCapture
	if x.Kind == SubprocessStatus {
		class = classSubprocessStatus
	}
	return pyCall(pyName(class, x.Loc), []PyExpr{cmd}, x.Loc), nil
}

/* ---------- compact try ---------- */

// compactTry lowers `e?` and `e:fallback?` into helper calls over
// zero- and one-argument closures. The fallback body lowers with the
// exception variable bound, which is the only scope where the `$e`
// sentinel resolves.
func (lw *lowerer) compactTry(x *TryExpr) (PyExpr, *LowerError) {
	value, err := lw.expr(x.X)
	if err != nil {
		return nil, err
	}
	thunk := &PyLambda{Body: value, span: span{x.Loc}}
	args := []PyExpr{thunk}
	if x.Fallback != nil {
		saved := lw.exc
		lw.exc = varCompactExc
		fallback, err := lw.expr(x.Fallback)
		lw.exc = saved
		if err != nil {
			return nil, err
		}
		args = append(args, &PyLambda{Params: []string{varCompactExc}, Body: fallback, span: span{x.Loc}})
	}
	return pyCall(pyName(helperCompactTry, x.Loc), args, x.Loc), nil
}

/* ---------- lambdas ---------- */

// lambdaExpr lowers a def expression that survived hoisting: plain
// parameters and an expression-statement body. Zero statements yield
// None; several fold into a tuple indexed at its last element.
func (lw *lowerer) lambdaExpr(x *LambdaExpr) (PyExpr, *LowerError) {
	params := make([]string, len(x.Params))
	for i, p := range x.Params {
		if p.Kind != ParamRegular || p.Default != nil {
			return nil, lowerErrorAt("def expression parameters must be plain names here", p.Loc)
		}
		params[i] = p.Name
	}
	var body PyExpr
	switch len(x.Body) {
	case 0:
		body = &PyNone{span{x.Loc}}
	case 1:
		es, ok := x.Body[0].(*ExprStmt)
		if !ok {
			return nil, lowerErrorAt("def expression bodies must contain only expression statements", x.Body[0].Span())
		}
		value, err := lw.expr(es.Value)
		if err != nil {
			return nil, err
		}
		body = value
	default:
		elems := make([]PyExpr, len(x.Body))
		for i, st := range x.Body {
			es, ok := st.(*ExprStmt)
			if !ok {
				return nil, lowerErrorAt("def expression bodies must contain only expression statements", st.Span())
			}
			value, err := lw.expr(es.Value)
			if err != nil {
				return nil, err
			}
			elems[i] = value
		}
		body = lastOfTuple(elems, x.Loc)
	}
	return &PyLambda{Params: params, Body: body, span: span{x.Loc}}, nil
}

// lastOfTuple evaluates every element and yields the last one.
func lastOfTuple(elems []PyExpr, sp Span) PyExpr {
	tuple := &PyTuple{Elements: elems, span: span{sp}}
	return &PyIndex{Value: tuple, Index: pyNum("-1", sp), span: span{sp}}
}

/* ---------- augmented assignment & increments ---------- */

// augAssign lowers `target op= value`. A name target becomes an
// assignment expression so the result reads back; attribute and index
// targets defer to runtime helpers that apply the operator by symbol.
func (lw *lowerer) augAssign(x *AugAssignExpr) (PyExpr, *LowerError) {
	value, err := lw.expr(x.Value)
	if err != nil {
		return nil, err
	}
	op := pyStr(x.Op.symbol(), x.Loc)
	switch t := x.Target.(type) {
	case *NameTarget:
		id, err := lw.pyIdent(t.Name, t.Loc)
		if err != nil {
			return nil, err
		}
		updated := &PyBinary{Left: pyName(id, t.Loc), Op: pyAugBinOp(x.Op), Right: value, span: span{x.Loc}}
		return &PyNamed{Target: id, Value: updated, span: span{x.Loc}}, nil
	case *AttrTarget:
		obj, err := lw.expr(t.Value)
		if err != nil {
			return nil, err
		}
		attr := pyStr(t.Attr, t.Loc)
		return pyCall(pyName(helperAugAttr, x.Loc), []PyExpr{obj, attr, value, op}, x.Loc), nil
	case *IndexTarget:
		obj, err := lw.expr(t.Value)
		if err != nil {
			return nil, err
		}
		index, err := lw.expr(t.Index)
		if err != nil {
			return nil, err
		}
		return pyCall(pyName(helperAugIndex, x.Loc), []PyExpr{obj, index, value, op}, x.Loc), nil
	default:
		return nil, lowerErrorAt("augmented assignment target must be a name, attribute, or index", x.Loc)
	}
}

func (lw *lowerer) prefixIncr(x *PrefixIncrExpr) (PyExpr, *LowerError) {
	switch t := x.Target.(type) {
	case *NameTarget:
		id, err := lw.pyIdent(t.Name, t.Loc)
		if err != nil {
			return nil, err
		}
		return &PyNamed{Target: id, Value: incrStep(id, x.Op, x.Loc), span: span{x.Loc}}, nil
	default:
		return lw.incrHelper(x.Target, x.Op, true, x.Loc)
	}
}

// postfixIncr keeps the pre-update value: stash it in a temporary,
// update the name, then read the temporary back off a tuple.
func (lw *lowerer) postfixIncr(x *PostfixIncrExpr) (PyExpr, *LowerError) {
	switch t := x.Target.(type) {
	case *NameTarget:
		id, err := lw.pyIdent(t.Name, t.Loc)
		if err != nil {
			return nil, err
		}
		stash := &PyNamed{Target: varIncrTmp, Value: pyName(id, t.Loc), span: span{x.Loc}}
		update := &PyNamed{Target: id, Value: incrStep(id, x.Op, x.Loc), span: span{x.Loc}}
		return lastOfTuple([]PyExpr{stash, update, pyName(varIncrTmp, x.Loc)}, x.Loc), nil
	default:
		return lw.incrHelper(x.Target, x.Op, false, x.Loc)
	}
}

func incrStep(id string, op IncrOp, sp Span) *PyBinary {
	binOp := PyOpAdd
	if op == Decrement {
		binOp = PyOpSub
	}
	return &PyBinary{Left: pyName(id, sp), Op: binOp, Right: pyNum("1", sp), span: span{sp}}
}

func (lw *lowerer) incrHelper(target AssignTarget, op IncrOp, pre bool, sp Span) (PyExpr, *LowerError) {
	delta := "1"
	if op == Decrement {
		delta = "-1"
	}
	switch t := target.(type) {
	case *AttrTarget:
		obj, err := lw.expr(t.Value)
		if err != nil {
			return nil, err
		}
		args := []PyExpr{obj, pyStr(t.Attr, t.Loc), pyNum(delta, sp), pyBool(pre, sp)}
		return pyCall(pyName(helperIncrAttr, sp), args, sp), nil
	case *IndexTarget:
		obj, err := lw.expr(t.Value)
		if err != nil {
			return nil, err
		}
		index, err := lw.expr(t.Index)
		if err != nil {
			return nil, err
		}
		args := []PyExpr{obj, index, pyNum(delta, sp), pyBool(pre, sp)}
		return pyCall(pyName(helperIncrIndex, sp), args, sp), nil
	default:
		return nil, lowerErrorAt("increment/decrement target must be a name, attribute, or index", sp)
	}
}

/* ---------- interpolated parts & patterns ---------- */

func (lw *lowerer) parts(parts []FStringPart) ([]PyFStringPart, *LowerError) {
	out := make([]PyFStringPart, len(parts))
	for i, p := range parts {
		q := PyFStringPart{Text: p.Text, Conv: p.Conv}
		if p.X != nil {
			x, err := lw.expr(p.X)
			if err != nil {
				return nil, err
			}
			q.X = x
		}
		if p.Spec != nil {
			spec, err := lw.parts(p.Spec)
			if err != nil {
				return nil, err
			}
			q.Spec = spec
		}
		out[i] = q
	}
	return out, nil
}

// regexPattern embeds a pattern as a raw string, or an f-string when
// the pattern interpolates.
func (lw *lowerer) regexPattern(p RegexPattern, sp Span) (PyExpr, *LowerError) {
	if !p.Interpolated {
		return &PyString{Value: p.Literal, Raw: true, Delim: DelimDouble, span: span{sp}}, nil
	}
	parts, err := lw.parts(p.Parts)
	if err != nil {
		return nil, err
	}
	return &PyFString{Parts: parts, span: span{sp}}, nil
}

/* ---------- calls ---------- */

// callArgs lowers arguments in source order, then arranges positional
// and star arguments ahead of keywords for the target grammar.
func (lw *lowerer) callArgs(args []Argument) ([]PyArg, *LowerError) {
	var positional, keywords []PyArg
	for _, a := range args {
		value, err := lw.expr(a.Value)
		if err != nil {
			return nil, err
		}
		switch a.Mode {
		case ArgKeyword:
			keywords = append(keywords, PyArg{Mode: ArgKeyword, Name: a.Name, Value: value})
		case ArgKwStar:
			keywords = append(keywords, PyArg{Mode: ArgKwStar, Value: value})
		case ArgStar:
			positional = append(positional, PyArg{Mode: ArgStar, Value: value})
		default:
			positional = append(positional, PyArg{Mode: ArgPositional, Value: value})
		}
	}
	return append(positional, keywords...), nil
}

/* ---------- field references ---------- */

// fieldIndex resolves `$N`: the whole line for zero, otherwise the
// one-based field converted to a zero-based split index.
func (lw *lowerer) fieldIndex(x *FieldIndex) (PyExpr, *LowerError) {
	n, err := strconv.Atoi(x.Index)
	if err != nil {
		return nil, lowerErrorAt("Invalid field index: $"+x.Index, x.Loc)
	}
	if n == 0 {
		return pyName(varLine, x.Loc), nil
	}
	index := pyNum(strconv.Itoa(n-1), x.Loc)
	return &PyIndex{Value: pyName(varFields, x.Loc), Index: index, span: span{x.Loc}}, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

/* ---------- operator maps ---------- */

func pyUnaryOp(op UnaryOp) PyUnaryOp {
	switch op {
	case UnaryMinus:
		return PyUMinus
	case UnaryNot:
		return PyUNot
	default:
		return PyUPlus
	}
}

func pyBinOp(op BinaryOp) PyBinOp {
	switch op {
	case BinOr:
		return PyOpOr
	case BinAnd:
		return PyOpAnd
	case BinSub:
		return PyOpSub
	case BinMul:
		return PyOpMul
	case BinDiv:
		return PyOpDiv
	case BinFloorDiv:
		return PyOpFloorDiv
	case BinMod:
		return PyOpMod
	case BinPow:
		return PyOpPow
	default:
		return PyOpAdd
	}
}

func pyAugBinOp(op AugOp) PyBinOp {
	switch op {
	case AugSub:
		return PyOpSub
	case AugMul:
		return PyOpMul
	case AugDiv:
		return PyOpDiv
	case AugFloorDiv:
		return PyOpFloorDiv
	case AugMod:
		return PyOpMod
	case AugPow:
		return PyOpPow
	default:
		return PyOpAdd
	}
}

func pyCmpOp(op CompareOp) PyCmpOp {
	switch op {
	case CmpNotEq:
		return PyCmpNotEq
	case CmpLt:
		return PyCmpLt
	case CmpLtEq:
		return PyCmpLtEq
	case CmpGt:
		return PyCmpGt
	case CmpGtEq:
		return PyCmpGtEq
	case CmpIn:
		return PyCmpIn
	case CmpNotIn:
		return PyCmpNotIn
	case CmpIs:
		return PyCmpIs
	case CmpIsNot:
		return PyCmpIsNot
	default:
		return PyCmpEq
	}
}

/* ---------- placeholder accounting ---------- */

// placeholderInfoInArgs counts placeholders across a call's arguments,
// descending into every nested expression, and reports the span of the
// first one found.
func placeholderInfoInArgs(args []Argument) (int, *Span) {
	count := 0
	var first *Span
	for _, a := range args {
		countPlaceholders(a.Value, &count, &first)
	}
	return count, first
}

func countPlaceholders(x Expr, count *int, first **Span) {
	switch x := x.(type) {
	case *Placeholder:
		if *first == nil {
			sp := x.Loc
			*first = &sp
		}
		*count++
	case *FStringLit:
		countPlaceholdersParts(x.Parts, count, first)
	case *UnaryExpr:
		countPlaceholders(x.X, count, first)
	case *BinaryExpr:
		countPlaceholders(x.Left, count, first)
		countPlaceholders(x.Right, count, first)
	case *AugAssignExpr:
		countPlaceholdersTarget(x.Target, count, first)
		countPlaceholders(x.Value, count, first)
	case *PrefixIncrExpr:
		countPlaceholdersTarget(x.Target, count, first)
	case *PostfixIncrExpr:
		countPlaceholdersTarget(x.Target, count, first)
	case *CompareExpr:
		countPlaceholders(x.Left, count, first)
		for _, c := range x.Comparators {
			countPlaceholders(c, count, first)
		}
	case *IfExpr:
		countPlaceholders(x.Test, count, first)
		countPlaceholders(x.Body, count, first)
		countPlaceholders(x.OrElse, count, first)
	case *TryExpr:
		countPlaceholders(x.X, count, first)
		if x.Fallback != nil {
			countPlaceholders(x.Fallback, count, first)
		}
	case *YieldExpr:
		if x.Value != nil {
			countPlaceholders(x.Value, count, first)
		}
	case *YieldFromExpr:
		countPlaceholders(x.X, count, first)
	case *LambdaExpr:
		for _, p := range x.Params {
			if p.Default != nil {
				countPlaceholders(p.Default, count, first)
			}
		}
		for _, st := range x.Body {
			if es, ok := st.(*ExprStmt); ok {
				countPlaceholders(es.Value, count, first)
			}
		}
	case *CompoundExpr:
		for _, e := range x.Exprs {
			countPlaceholders(e, count, first)
		}
	case *RegexLit:
		if x.Pattern.Interpolated {
			countPlaceholdersParts(x.Pattern.Parts, count, first)
		}
	case *RegexMatchExpr:
		countPlaceholders(x.Value, count, first)
		if x.Pattern.Interpolated {
			countPlaceholdersParts(x.Pattern.Parts, count, first)
		}
	case *SubprocessLit:
		countPlaceholdersParts(x.Parts, count, first)
	case *CallExpr:
		countPlaceholders(x.Func, count, first)
		for _, a := range x.Args {
			countPlaceholders(a.Value, count, first)
		}
	case *AttrExpr:
		countPlaceholders(x.Value, count, first)
	case *IndexExpr:
		countPlaceholders(x.Value, count, first)
		countPlaceholders(x.Index, count, first)
	case *ParenExpr:
		countPlaceholders(x.X, count, first)
	case *ListLit:
		for _, e := range x.Elements {
			countPlaceholders(e, count, first)
		}
	case *TupleLit:
		for _, e := range x.Elements {
			countPlaceholders(e, count, first)
		}
	case *SetLit:
		for _, e := range x.Elements {
			countPlaceholders(e, count, first)
		}
	case *DictLit:
		for _, e := range x.Entries {
			countPlaceholders(e.Key, count, first)
			countPlaceholders(e.Value, count, first)
		}
	case *ListComp:
		countPlaceholders(x.Element, count, first)
		countPlaceholders(x.Iter, count, first)
		for _, c := range x.Ifs {
			countPlaceholders(c, count, first)
		}
	case *DictComp:
		countPlaceholders(x.Key, count, first)
		countPlaceholders(x.Value, count, first)
		countPlaceholders(x.Iter, count, first)
		for _, c := range x.Ifs {
			countPlaceholders(c, count, first)
		}
	case *SliceExpr:
		if x.Start != nil {
			countPlaceholders(x.Start, count, first)
		}
		if x.End != nil {
			countPlaceholders(x.End, count, first)
		}
	}
}

func countPlaceholdersParts(parts []FStringPart, count *int, first **Span) {
	for _, p := range parts {
		if p.X != nil {
			countPlaceholders(p.X, count, first)
		}
		if p.Spec != nil {
			countPlaceholdersParts(p.Spec, count, first)
		}
	}
}

func countPlaceholdersTarget(t AssignTarget, count *int, first **Span) {
	switch t := t.(type) {
	case *AttrTarget:
		countPlaceholders(t.Value, count, first)
	case *IndexTarget:
		countPlaceholders(t.Value, count, first)
		countPlaceholders(t.Index, count, first)
	case *StarTarget:
		countPlaceholdersTarget(t.Target, count, first)
	case *TupleTarget:
		for _, e := range t.Elements {
			countPlaceholdersTarget(e, count, first)
		}
	case *ListTarget:
		for _, e := range t.Elements {
			countPlaceholdersTarget(e, count, first)
		}
	}
}

/* ---------- placeholder substitution ---------- */

// substitutePlaceholderInArgs rebuilds a call's arguments with every
// placeholder replaced by the unlowered pipeline input. The walk
// mirrors the counting walk exactly.
func substitutePlaceholderInArgs(args []Argument, repl Expr) []Argument {
	out := make([]Argument, len(args))
	for i, a := range args {
		a.Value = substitutePlaceholder(a.Value, repl)
		out[i] = a
	}
	return out
}

func substitutePlaceholder(x Expr, repl Expr) Expr {
	switch x := x.(type) {
	case *Placeholder:
		return repl
	case *FStringLit:
		return &FStringLit{Parts: substitutePlaceholderParts(x.Parts, repl), Bytes: x.Bytes, span: span{x.Loc}}
	case *UnaryExpr:
		return &UnaryExpr{Op: x.Op, X: substitutePlaceholder(x.X, repl), span: span{x.Loc}}
	case *BinaryExpr:
		return &BinaryExpr{Left: substitutePlaceholder(x.Left, repl), Op: x.Op, Right: substitutePlaceholder(x.Right, repl), span: span{x.Loc}}
	case *AugAssignExpr:
		return &AugAssignExpr{Target: substitutePlaceholderTarget(x.Target, repl), Op: x.Op, Value: substitutePlaceholder(x.Value, repl), span: span{x.Loc}}
	case *PrefixIncrExpr:
		return &PrefixIncrExpr{Op: x.Op, Target: substitutePlaceholderTarget(x.Target, repl), span: span{x.Loc}}
	case *PostfixIncrExpr:
		return &PostfixIncrExpr{Op: x.Op, Target: substitutePlaceholderTarget(x.Target, repl), span: span{x.Loc}}
	case *CompareExpr:
		comparators := make([]Expr, len(x.Comparators))
		for i, c := range x.Comparators {
			comparators[i] = substitutePlaceholder(c, repl)
		}
		return &CompareExpr{Left: substitutePlaceholder(x.Left, repl), Ops: x.Ops, Comparators: comparators, span: span{x.Loc}}
	case *IfExpr:
		return &IfExpr{
			Test:   substitutePlaceholder(x.Test, repl),
			Body:   substitutePlaceholder(x.Body, repl),
			OrElse: substitutePlaceholder(x.OrElse, repl),
			span:   span{x.Loc},
		}
	case *TryExpr:
		out := &TryExpr{X: substitutePlaceholder(x.X, repl), span: span{x.Loc}}
		if x.Fallback != nil {
			out.Fallback = substitutePlaceholder(x.Fallback, repl)
		}
		return out
	case *YieldExpr:
		if x.Value == nil {
			return x
		}
		return &YieldExpr{Value: substitutePlaceholder(x.Value, repl), span: span{x.Loc}}
	case *YieldFromExpr:
		return &YieldFromExpr{X: substitutePlaceholder(x.X, repl), span: span{x.Loc}}
	case *LambdaExpr:
		params := make([]Parameter, len(x.Params))
		for i, p := range x.Params {
			if p.Default != nil {
				p.Default = substitutePlaceholder(p.Default, repl)
			}
			params[i] = p
		}
		body := make([]Stmt, len(x.Body))
		for i, st := range x.Body {
			if es, ok := st.(*ExprStmt); ok {
				body[i] = &ExprStmt{Value: substitutePlaceholder(es.Value, repl), SemiTerminated: es.SemiTerminated, span: span{es.Loc}}
			} else {
				body[i] = st
			}
		}
		return &LambdaExpr{Params: params, Body: body, span: span{x.Loc}}
	case *CompoundExpr:
		exprs := make([]Expr, len(x.Exprs))
		for i, e := range x.Exprs {
			exprs[i] = substitutePlaceholder(e, repl)
		}
		return &CompoundExpr{Exprs: exprs, span: span{x.Loc}}
	case *RegexLit:
		return &RegexLit{Pattern: substitutePlaceholderPattern(x.Pattern, repl), span: span{x.Loc}}
	case *RegexMatchExpr:
		return &RegexMatchExpr{
			Value:   substitutePlaceholder(x.Value, repl),
			Pattern: substitutePlaceholderPattern(x.Pattern, repl),
			span:    span{x.Loc},
		}
	case *SubprocessLit:
		return &SubprocessLit{Kind: x.Kind, Parts: substitutePlaceholderParts(x.Parts, repl), span: span{x.Loc}}
	case *CallExpr:
		return &CallExpr{
			Func: substitutePlaceholder(x.Func, repl),
			Args: substitutePlaceholderInArgs(x.Args, repl),
			span: span{x.Loc},
		}
	case *AttrExpr:
		return &AttrExpr{Value: substitutePlaceholder(x.Value, repl), Attr: x.Attr, span: span{x.Loc}}
	case *IndexExpr:
		return &IndexExpr{Value: substitutePlaceholder(x.Value, repl), Index: substitutePlaceholder(x.Index, repl), span: span{x.Loc}}
	case *ParenExpr:
		return &ParenExpr{X: substitutePlaceholder(x.X, repl), span: span{x.Loc}}
	case *ListLit:
		return &ListLit{Elements: substitutePlaceholderAll(x.Elements, repl), span: span{x.Loc}}
	case *TupleLit:
		return &TupleLit{Elements: substitutePlaceholderAll(x.Elements, repl), span: span{x.Loc}}
	case *SetLit:
		return &SetLit{Elements: substitutePlaceholderAll(x.Elements, repl), span: span{x.Loc}}
	case *DictLit:
		entries := make([]DictEntry, len(x.Entries))
		for i, e := range x.Entries {
			entries[i] = DictEntry{Key: substitutePlaceholder(e.Key, repl), Value: substitutePlaceholder(e.Value, repl)}
		}
		return &DictLit{Entries: entries, span: span{x.Loc}}
	case *ListComp:
		return &ListComp{
			Element: substitutePlaceholder(x.Element, repl),
			Target:  x.Target,
			Iter:    substitutePlaceholder(x.Iter, repl),
			Ifs:     substitutePlaceholderAll(x.Ifs, repl),
			span:    span{x.Loc},
		}
	case *DictComp:
		return &DictComp{
			Key:    substitutePlaceholder(x.Key, repl),
			Value:  substitutePlaceholder(x.Value, repl),
			Target: x.Target,
			Iter:   substitutePlaceholder(x.Iter, repl),
			Ifs:    substitutePlaceholderAll(x.Ifs, repl),
			span:   span{x.Loc},
		}
	case *SliceExpr:
		out := &SliceExpr{span: span{x.Loc}}
		if x.Start != nil {
			out.Start = substitutePlaceholder(x.Start, repl)
		}
		if x.End != nil {
			out.End = substitutePlaceholder(x.End, repl)
		}
		return out
	default:
		return x
	}
}

func substitutePlaceholderAll(xs []Expr, repl Expr) []Expr {
	out := make([]Expr, len(xs))
	for i, x := range xs {
		out[i] = substitutePlaceholder(x, repl)
	}
	return out
}

func substitutePlaceholderParts(parts []FStringPart, repl Expr) []FStringPart {
	out := make([]FStringPart, len(parts))
	for i, p := range parts {
		if p.X != nil {
			p.X = substitutePlaceholder(p.X, repl)
		}
		if p.Spec != nil {
			p.Spec = substitutePlaceholderParts(p.Spec, repl)
		}
		out[i] = p
	}
	return out
}

func substitutePlaceholderPattern(p RegexPattern, repl Expr) RegexPattern {
	if !p.Interpolated {
		return p
	}
	return RegexPattern{Parts: substitutePlaceholderParts(p.Parts, repl), Interpolated: true}
}

func substitutePlaceholderTarget(t AssignTarget, repl Expr) AssignTarget {
	switch t := t.(type) {
	case *AttrTarget:
		return &AttrTarget{Value: substitutePlaceholder(t.Value, repl), Attr: t.Attr, span: span{t.Loc}}
	case *IndexTarget:
		return &IndexTarget{Value: substitutePlaceholder(t.Value, repl), Index: substitutePlaceholder(t.Index, repl), span: span{t.Loc}}
	case *StarTarget:
		return &StarTarget{Target: substitutePlaceholderTarget(t.Target, repl), span: span{t.Loc}}
	case *TupleTarget:
		elems := make([]AssignTarget, len(t.Elements))
		for i, e := range t.Elements {
			elems[i] = substitutePlaceholderTarget(e, repl)
		}
		return &TupleTarget{Elements: elems, span: span{t.Loc}}
	case *ListTarget:
		elems := make([]AssignTarget, len(t.Elements))
		for i, e := range t.Elements {
			elems[i] = substitutePlaceholderTarget(e, repl)
		}
		return &ListTarget{Elements: elems, span: span{t.Loc}}
	default:
		return t
	}
}

/* ---------- literal embedding ---------- */

// escapeForPythonString prepares verbatim text for embedding between
// double quotes in generated output.
func escapeForPythonString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
