// lower.go: source tree to target tree.
//
// Lowering reads a validated source AST and builds a target AST with
// every sugar form expanded: pipelines become protocol calls, compact
// try-expressions become helper closures, regex and subprocess literals
// become helper constructions, field references become scaffolding
// variable reads. The pass is fail-fast; the first semantic problem
// aborts with a LowerError and no partial module. This file holds the
// entry points, the statement-list machinery shared by every block, and
// the small constructors the per-node arms build with. The per-node
// arms live in lower_stmt.go and lower_expr.go; the lines and files
// scaffolding in lines.go and files.go.

package snail

/* ---------- generated names ---------- */

// Names injected into generated output. Scaffolding keeps its own loop
// variables distinct from the *_user variants so user code can rebind
// its view of a counter without derailing iteration.
const (
	helperCompactTry   = "__snail_compact_try"
	helperRegexSearch  = "__snail_regex_search"
	helperRegexCompile = "__snail_regex_compile"
	helperPartial      = "__snail_partial"
	helperIncrAttr     = "__snail_incr_attr"
	helperIncrIndex    = "__snail_incr_index"
	helperAugAttr      = "__snail_aug_attr"
	helperAugIndex     = "__snail_aug_index"

	classSubprocessCapture = "__SnailSubprocessCapture"
	classSubprocessStatus  = "__SnailSubprocessStatus"
	classStructuredAccess  = "__SnailStructuredAccessor"
	classLazyFile          = "__SnailLazyFile"
	classLazyText          = "__SnailLazyText"

	varCompactExc = "__snail_compact_exc"
	varLetValue   = "__snail_let_value"
	varLetOk      = "__snail_let_ok"
	varLetKeep    = "__snail_let_keep"
	varIncrTmp    = "__snail_incr_tmp"
	varLastResult = "__snail_last_result"

	varLine     = "__snail_line"
	varFields   = "__snail_fields"
	varMatch    = "__snail_match"
	varNR       = "__snail_nr"
	varFNR      = "__snail_fnr"
	varPath     = "__snail_path"
	varFile     = "__snail_file"
	varRaw      = "__snail_raw"
	varNRUser   = "__snail_nr_user"
	varFNRUser  = "__snail_fnr_user"
	varPathUser = "__snail_path_user"
	varSrc      = "__snail_src"
	varFD       = "__snail_fd"
	varText     = "__snail_text"
	varPaths    = "__snail_paths"
)

// injectedPyName maps a reserved context name to the generated variable
// that backs it. Lowering substitutes these wherever the validator let
// the name through.
func injectedPyName(name string) (string, bool) {
	switch name {
	case "$l":
		return varLine, true
	case "$n":
		return varNRUser, true
	case "$fn":
		return varFNRUser, true
	case "$p":
		return varPathUser, true
	case "$m":
		return varMatch, true
	case "$f":
		return varFields, true
	case "$src":
		return varSrc, true
	case "$fd":
		return varFD, true
	case "$text":
		return varText, true
	}
	return "", false
}

/* ---------- entry points ---------- */

// Tail selects what happens to a trailing bare expression statement at
// the end of a lowered block.
type Tail int

const (
	// TailNone leaves a trailing expression as an ordinary statement.
	TailNone Tail = iota
	// TailAutoPrint prints a trailing expression result: strings go to
	// print, any other non-None value is pretty-printed.
	TailAutoPrint
	// TailImplicitReturn returns the trailing expression's value,
	// giving function bodies expression semantics.
	TailImplicitReturn
)

// Lower converts a validated program into a target module.
func Lower(p *Program) (*PyModule, error) {
	return LowerWithTail(p, TailNone)
}

// LowerWithTail converts a validated program into a target module,
// applying tail to the final top-level statement. Complex lambdas are
// hoisted first and yield placement is checked before any node is
// lowered.
func LowerWithTail(p *Program, tail Tail) (*PyModule, error) {
	p = desugarProgram(p)
	if err := checkYieldStmts(p.Stmts, false); err != nil {
		return nil, err
	}
	lw := &lowerer{}
	body, err := lw.blockWithTail(p.Stmts, tail)
	if err != nil {
		return nil, err
	}
	return &PyModule{Body: body, Loc: p.Loc}, nil
}

// lowerer carries lowering state. exc names the bound exception
// variable while lowering a compact-try fallback and is empty
// everywhere else; the `$e` sentinel resolves against it.
type lowerer struct {
	exc string
}

/* ---------- blocks and tails ---------- */

// blockWithTail lowers a statement list. tail applies only to a final
// bare expression statement not terminated by a semicolon; every other
// arrangement lowers normally. An empty result gains a pass statement
// so the suite stays well formed.
func (lw *lowerer) blockWithTail(stmts []Stmt, tail Tail) ([]PyStmt, *LowerError) {
	out := []PyStmt{}
	for i, st := range stmts {
		if i == len(stmts)-1 && tail != TailNone {
			if es, ok := st.(*ExprStmt); ok && !es.SemiTerminated {
				value, err := lw.expr(es.Value)
				if err != nil {
					return nil, err
				}
				switch tail {
				case TailAutoPrint:
					out = append(out, autoPrintBlock(value, es.Loc)...)
				case TailImplicitReturn:
					out = append(out, &PyReturn{Value: value, span: span{es.Loc}})
				}
				continue
			}
		}
		lowered, err := lw.stmt(st)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}
	if len(out) == 0 {
		out = append(out, &PyPass{})
	}
	return out, nil
}

func (lw *lowerer) block(stmts []Stmt) ([]PyStmt, *LowerError) {
	return lw.blockWithTail(stmts, TailNone)
}

// autoPrintBlock wraps a trailing expression value: strings print
// verbatim, other non-None values pretty-print, None stays silent.
func autoPrintBlock(value PyExpr, sp Span) []PyStmt {
	result := func() *PyName { return pyName(varLastResult, sp) }
	isStr := pyCall(pyName("isinstance", sp), []PyExpr{result(), pyName("str", sp)}, sp)
	notNone := &PyCompare{
		Left:        result(),
		Ops:         []PyCmpOp{PyCmpIsNot},
		Comparators: []PyExpr{&PyNone{span{sp}}},
		span:        span{sp},
	}
	printCall := pyCall(pyName("print", sp), []PyExpr{result()}, sp)
	pprintCall := pyCall(&PyAttr{Value: pyName("pprint", sp), Attr: "pprint", span: span{sp}}, []PyExpr{result()}, sp)
	return []PyStmt{
		pyAssignName(varLastResult, value, sp),
		&PyIf{
			Test: isStr,
			Body: []PyStmt{&PyExprStmt{Value: printCall, span: span{sp}}},
			OrElse: []PyStmt{&PyIf{
				Test: notNone,
				Body: []PyStmt{
					&PyImport{Names: []PyImportName{{Path: []string{"pprint"}}}, span: span{sp}},
					&PyExprStmt{Value: pprintCall, span: span{sp}},
				},
				span: span{sp},
			}},
			span: span{sp},
		},
	}
}

/* ---------- yield placement ---------- */

const yieldOutsideFunction = "yield expressions are only allowed inside function bodies"

// checkYieldStmts rejects yield forms outside function bodies. It runs
// after lambda hoisting, so hoisted bodies are checked as function
// definitions like any other.
func checkYieldStmts(stmts []Stmt, inFunc bool) *LowerError {
	for _, st := range stmts {
		if err := checkYieldStmt(st, inFunc); err != nil {
			return err
		}
	}
	return nil
}

func checkYieldStmt(st Stmt, inFunc bool) *LowerError {
	switch st := st.(type) {
	case *IfStmt:
		if err := checkYieldCond(st.Cond, inFunc); err != nil {
			return err
		}
		if err := checkYieldStmts(st.Body, inFunc); err != nil {
			return err
		}
		for _, e := range st.Elifs {
			if err := checkYieldCond(e.Cond, inFunc); err != nil {
				return err
			}
			if err := checkYieldStmts(e.Body, inFunc); err != nil {
				return err
			}
		}
		return checkYieldStmts(st.Else, inFunc)
	case *WhileStmt:
		if err := checkYieldCond(st.Cond, inFunc); err != nil {
			return err
		}
		if err := checkYieldStmts(st.Body, inFunc); err != nil {
			return err
		}
		return checkYieldStmts(st.Else, inFunc)
	case *ForStmt:
		if err := checkYieldTarget(st.Target, inFunc); err != nil {
			return err
		}
		if err := checkYieldExpr(st.Iter, inFunc); err != nil {
			return err
		}
		if err := checkYieldStmts(st.Body, inFunc); err != nil {
			return err
		}
		return checkYieldStmts(st.Else, inFunc)
	case *DefStmt:
		for _, p := range st.Params {
			if p.Default != nil {
				if err := checkYieldExpr(p.Default, false); err != nil {
					return err
				}
			}
		}
		return checkYieldStmts(st.Body, true)
	case *ClassStmt:
		return checkYieldStmts(st.Body, false)
	case *TryStmt:
		if err := checkYieldStmts(st.Body, inFunc); err != nil {
			return err
		}
		for _, h := range st.Handlers {
			if h.Type != nil {
				if err := checkYieldExpr(h.Type, inFunc); err != nil {
					return err
				}
			}
			if err := checkYieldStmts(h.Body, inFunc); err != nil {
				return err
			}
		}
		if err := checkYieldStmts(st.Else, inFunc); err != nil {
			return err
		}
		return checkYieldStmts(st.Finally, inFunc)
	case *WithStmt:
		for _, it := range st.Items {
			if err := checkYieldExpr(it.Context, inFunc); err != nil {
				return err
			}
			if it.Target != nil {
				if err := checkYieldTarget(it.Target, inFunc); err != nil {
					return err
				}
			}
		}
		return checkYieldStmts(st.Body, inFunc)
	case *ReturnStmt:
		if st.Value == nil {
			return nil
		}
		return checkYieldExpr(st.Value, inFunc)
	case *RaiseStmt:
		if st.Value != nil {
			if err := checkYieldExpr(st.Value, inFunc); err != nil {
				return err
			}
		}
		if st.From != nil {
			return checkYieldExpr(st.From, inFunc)
		}
		return nil
	case *AssertStmt:
		if err := checkYieldExpr(st.Test, inFunc); err != nil {
			return err
		}
		if st.Message != nil {
			return checkYieldExpr(st.Message, inFunc)
		}
		return nil
	case *DeleteStmt:
		for _, t := range st.Targets {
			if err := checkYieldTarget(t, inFunc); err != nil {
				return err
			}
		}
		return nil
	case *AssignStmt:
		for _, t := range st.Targets {
			if err := checkYieldTarget(t, inFunc); err != nil {
				return err
			}
		}
		return checkYieldExpr(st.Value, inFunc)
	case *ExprStmt:
		return checkYieldExpr(st.Value, inFunc)
	default:
		return nil
	}
}

func checkYieldCond(c Cond, inFunc bool) *LowerError {
	if c.Target != nil {
		if err := checkYieldTarget(c.Target, inFunc); err != nil {
			return err
		}
	}
	if err := checkYieldExpr(c.Value, inFunc); err != nil {
		return err
	}
	if c.Guard != nil {
		return checkYieldExpr(c.Guard, inFunc)
	}
	return nil
}

func checkYieldTarget(t AssignTarget, inFunc bool) *LowerError {
	switch t := t.(type) {
	case *AttrTarget:
		return checkYieldExpr(t.Value, inFunc)
	case *IndexTarget:
		if err := checkYieldExpr(t.Value, inFunc); err != nil {
			return err
		}
		return checkYieldExpr(t.Index, inFunc)
	case *StarTarget:
		return checkYieldTarget(t.Target, inFunc)
	case *TupleTarget:
		for _, e := range t.Elements {
			if err := checkYieldTarget(e, inFunc); err != nil {
				return err
			}
		}
		return nil
	case *ListTarget:
		for _, e := range t.Elements {
			if err := checkYieldTarget(e, inFunc); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func checkYieldParts(parts []FStringPart, inFunc bool) *LowerError {
	for _, p := range parts {
		if p.X != nil {
			if err := checkYieldExpr(p.X, inFunc); err != nil {
				return err
			}
		}
		if p.Spec != nil {
			if err := checkYieldParts(p.Spec, inFunc); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkYieldExpr(x Expr, inFunc bool) *LowerError {
	switch x := x.(type) {
	case *YieldExpr:
		if !inFunc {
			return lowerErrorAt(yieldOutsideFunction, x.Loc)
		}
		if x.Value != nil {
			return checkYieldExpr(x.Value, inFunc)
		}
		return nil
	case *YieldFromExpr:
		if !inFunc {
			return lowerErrorAt(yieldOutsideFunction, x.Loc)
		}
		return checkYieldExpr(x.X, inFunc)
	case *FStringLit:
		return checkYieldParts(x.Parts, inFunc)
	case *UnaryExpr:
		return checkYieldExpr(x.X, inFunc)
	case *BinaryExpr:
		if err := checkYieldExpr(x.Left, inFunc); err != nil {
			return err
		}
		return checkYieldExpr(x.Right, inFunc)
	case *AugAssignExpr:
		if err := checkYieldTarget(x.Target, inFunc); err != nil {
			return err
		}
		return checkYieldExpr(x.Value, inFunc)
	case *PrefixIncrExpr:
		return checkYieldTarget(x.Target, inFunc)
	case *PostfixIncrExpr:
		return checkYieldTarget(x.Target, inFunc)
	case *CompareExpr:
		if err := checkYieldExpr(x.Left, inFunc); err != nil {
			return err
		}
		for _, c := range x.Comparators {
			if err := checkYieldExpr(c, inFunc); err != nil {
				return err
			}
		}
		return nil
	case *IfExpr:
		if err := checkYieldExpr(x.Test, inFunc); err != nil {
			return err
		}
		if err := checkYieldExpr(x.Body, inFunc); err != nil {
			return err
		}
		return checkYieldExpr(x.OrElse, inFunc)
	case *TryExpr:
		if err := checkYieldExpr(x.X, inFunc); err != nil {
			return err
		}
		if x.Fallback != nil {
			return checkYieldExpr(x.Fallback, inFunc)
		}
		return nil
	case *LambdaExpr:
		for _, p := range x.Params {
			if p.Default != nil {
				if err := checkYieldExpr(p.Default, false); err != nil {
					return err
				}
			}
		}
		return checkYieldStmts(x.Body, true)
	case *CompoundExpr:
		for _, e := range x.Exprs {
			if err := checkYieldExpr(e, inFunc); err != nil {
				return err
			}
		}
		return nil
	case *RegexLit:
		if x.Pattern.Interpolated {
			return checkYieldParts(x.Pattern.Parts, inFunc)
		}
		return nil
	case *RegexMatchExpr:
		if err := checkYieldExpr(x.Value, inFunc); err != nil {
			return err
		}
		if x.Pattern.Interpolated {
			return checkYieldParts(x.Pattern.Parts, inFunc)
		}
		return nil
	case *SubprocessLit:
		return checkYieldParts(x.Parts, inFunc)
	case *CallExpr:
		if err := checkYieldExpr(x.Func, inFunc); err != nil {
			return err
		}
		for _, a := range x.Args {
			if err := checkYieldExpr(a.Value, inFunc); err != nil {
				return err
			}
		}
		return nil
	case *AttrExpr:
		return checkYieldExpr(x.Value, inFunc)
	case *IndexExpr:
		if err := checkYieldExpr(x.Value, inFunc); err != nil {
			return err
		}
		return checkYieldExpr(x.Index, inFunc)
	case *ParenExpr:
		return checkYieldExpr(x.X, inFunc)
	case *ListLit:
		return checkYieldExprs(x.Elements, inFunc)
	case *TupleLit:
		return checkYieldExprs(x.Elements, inFunc)
	case *SetLit:
		return checkYieldExprs(x.Elements, inFunc)
	case *DictLit:
		for _, e := range x.Entries {
			if err := checkYieldExpr(e.Key, inFunc); err != nil {
				return err
			}
			if err := checkYieldExpr(e.Value, inFunc); err != nil {
				return err
			}
		}
		return nil
	case *ListComp:
		if err := checkYieldExpr(x.Element, inFunc); err != nil {
			return err
		}
		if err := checkYieldExpr(x.Iter, inFunc); err != nil {
			return err
		}
		return checkYieldExprs(x.Ifs, inFunc)
	case *DictComp:
		if err := checkYieldExpr(x.Key, inFunc); err != nil {
			return err
		}
		if err := checkYieldExpr(x.Value, inFunc); err != nil {
			return err
		}
		if err := checkYieldExpr(x.Iter, inFunc); err != nil {
			return err
		}
		return checkYieldExprs(x.Ifs, inFunc)
	case *SliceExpr:
		if x.Start != nil {
			if err := checkYieldExpr(x.Start, inFunc); err != nil {
				return err
			}
		}
		if x.End != nil {
			return checkYieldExpr(x.End, inFunc)
		}
		return nil
	default:
		return nil
	}
}

func checkYieldExprs(xs []Expr, inFunc bool) *LowerError {
	for _, x := range xs {
		if err := checkYieldExpr(x, inFunc); err != nil {
			return err
		}
	}
	return nil
}

/* ---------- target node constructors ---------- */

func pyName(id string, sp Span) *PyName {
	return &PyName{ID: id, span: span{sp}}
}

func pyStr(value string, sp Span) *PyString {
	return &PyString{Value: value, Delim: DelimDouble, span: span{sp}}
}

func pyNum(value string, sp Span) *PyNumber {
	return &PyNumber{Value: value, span: span{sp}}
}

func pyBool(value bool, sp Span) *PyBool {
	return &PyBool{Value: value, span: span{sp}}
}

func pyAttr(value PyExpr, attr string, sp Span) *PyAttr {
	return &PyAttr{Value: value, Attr: attr, span: span{sp}}
}

// pyCall builds a call with positional arguments only.
func pyCall(fn PyExpr, args []PyExpr, sp Span) *PyCall {
	call := &PyCall{Func: fn, span: span{sp}}
	for _, a := range args {
		call.Args = append(call.Args, PyArg{Mode: ArgPositional, Value: a})
	}
	return call
}

func pyAssignName(name string, value PyExpr, sp Span) *PyAssign {
	return &PyAssign{Targets: []PyExpr{pyName(name, sp)}, Value: value, span: span{sp}}
}
