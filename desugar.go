// desugar.go: pre-lowering rewrite of lambda expressions.
//
// The target language's lambda form takes plain parameter names and a
// single expression body. Anything richer (statements in the body,
// parameter defaults, star parameters) is rewritten here into a named
// function definition hoisted immediately before the statement that
// contained the lambda, with the lambda replaced by a name reference.
// Simple lambdas pass through untouched. The pass reads the source tree
// and builds a fresh one.

package snail

import "fmt"

type hoister struct {
	counter int
}

func (h *hoister) nextName() string {
	h.counter++
	return fmt.Sprintf("__snail_lambda_%d", h.counter)
}

// desugarProgram rewrites complex lambdas across a whole program.
func desugarProgram(p *Program) *Program {
	h := &hoister{}
	return &Program{Stmts: h.block(p.Stmts), Loc: p.Loc, Source: p.Source}
}

// desugarLines rewrites complex lambdas across a lines program. Rule
// patterns are left alone: a pattern has no statement context to hoist
// into, and lowering rejects complex lambdas found there.
func desugarLines(lp *LinesProgram) *LinesProgram {
	h := &hoister{}
	out := &LinesProgram{Loc: lp.Loc}
	for _, b := range lp.BeginBlocks {
		out.BeginBlocks = append(out.BeginBlocks, h.block(b))
	}
	for _, b := range lp.EndBlocks {
		out.EndBlocks = append(out.EndBlocks, h.block(b))
	}
	for _, r := range lp.Rules {
		rule := LinesRule{Pattern: r.Pattern, Loc: r.Loc}
		if r.Action != nil {
			rule.Action = h.block(r.Action)
		}
		out.Rules = append(out.Rules, rule)
	}
	return out
}

// block desugars a statement list. Each statement collects its own
// prelude of hoisted definitions, placed immediately before it.
func (h *hoister) block(stmts []Stmt) []Stmt {
	out := make([]Stmt, 0, len(stmts))
	for _, st := range stmts {
		var prelude []Stmt
		st = h.stmt(st, &prelude)
		out = append(out, prelude...)
		out = append(out, st)
	}
	return out
}

func (h *hoister) optBlock(stmts []Stmt) []Stmt {
	if stmts == nil {
		return nil
	}
	return h.block(stmts)
}

// stmt desugars one statement, appending hoisted definitions to pre.
// Conditions of if/elif chains and while loops hoist before the whole
// statement: an elif test has no slot of its own for new statements,
// and a loop condition is only evaluated where the loop begins.
func (h *hoister) stmt(st Stmt, pre *[]Stmt) Stmt {
	switch st := st.(type) {
	case *IfStmt:
		cond := h.cond(st.Cond, pre)
		elifs := make([]Elif, len(st.Elifs))
		for i, e := range st.Elifs {
			elifs[i] = Elif{Cond: h.cond(e.Cond, pre), Body: h.block(e.Body)}
		}
		return &IfStmt{Cond: cond, Body: h.block(st.Body), Elifs: elifs, Else: h.optBlock(st.Else), span: span{st.Loc}}
	case *WhileStmt:
		return &WhileStmt{Cond: h.cond(st.Cond, pre), Body: h.block(st.Body), Else: h.optBlock(st.Else), span: span{st.Loc}}
	case *ForStmt:
		return &ForStmt{Target: h.target(st.Target, pre), Iter: h.expr(st.Iter, pre), Body: h.block(st.Body), Else: h.optBlock(st.Else), span: span{st.Loc}}
	case *DefStmt:
		return &DefStmt{Name: st.Name, Params: h.params(st.Params, pre), Body: h.block(st.Body), span: span{st.Loc}}
	case *ClassStmt:
		return &ClassStmt{Name: st.Name, Body: h.block(st.Body), span: span{st.Loc}}
	case *TryStmt:
		handlers := make([]ExceptHandler, len(st.Handlers))
		for i, hd := range st.Handlers {
			typ := hd.Type
			if typ != nil {
				typ = h.expr(typ, pre)
			}
			handlers[i] = ExceptHandler{Type: typ, Name: hd.Name, Body: h.block(hd.Body), Loc: hd.Loc}
		}
		return &TryStmt{Body: h.block(st.Body), Handlers: handlers, Else: h.optBlock(st.Else), Finally: h.optBlock(st.Finally), span: span{st.Loc}}
	case *WithStmt:
		items := make([]WithItem, len(st.Items))
		for i, it := range st.Items {
			tgt := it.Target
			if tgt != nil {
				tgt = h.target(tgt, pre)
			}
			items[i] = WithItem{Context: h.expr(it.Context, pre), Target: tgt, Loc: it.Loc}
		}
		return &WithStmt{Items: items, Body: h.block(st.Body), span: span{st.Loc}}
	case *ReturnStmt:
		if st.Value == nil {
			return st
		}
		return &ReturnStmt{Value: h.expr(st.Value, pre), span: span{st.Loc}}
	case *RaiseStmt:
		if st.Value == nil {
			return st
		}
		out := &RaiseStmt{Value: h.expr(st.Value, pre), span: span{st.Loc}}
		if st.From != nil {
			out.From = h.expr(st.From, pre)
		}
		return out
	case *AssertStmt:
		out := &AssertStmt{Test: h.expr(st.Test, pre), span: span{st.Loc}}
		if st.Message != nil {
			out.Message = h.expr(st.Message, pre)
		}
		return out
	case *DeleteStmt:
		targets := make([]AssignTarget, len(st.Targets))
		for i, t := range st.Targets {
			targets[i] = h.target(t, pre)
		}
		return &DeleteStmt{Targets: targets, span: span{st.Loc}}
	case *AssignStmt:
		targets := make([]AssignTarget, len(st.Targets))
		for i, t := range st.Targets {
			targets[i] = h.target(t, pre)
		}
		return &AssignStmt{Targets: targets, Value: h.expr(st.Value, pre), span: span{st.Loc}}
	case *ExprStmt:
		return &ExprStmt{Value: h.expr(st.Value, pre), SemiTerminated: st.SemiTerminated, span: span{st.Loc}}
	default:
		// break, continue, pass, imports
		return st
	}
}

func (h *hoister) cond(c Cond, pre *[]Stmt) Cond {
	out := Cond{Value: h.expr(c.Value, pre), Loc: c.Loc}
	if c.Target != nil {
		out.Target = h.target(c.Target, pre)
	}
	if c.Guard != nil {
		out.Guard = h.expr(c.Guard, pre)
	}
	return out
}

func (h *hoister) target(t AssignTarget, pre *[]Stmt) AssignTarget {
	switch t := t.(type) {
	case *AttrTarget:
		return &AttrTarget{Value: h.expr(t.Value, pre), Attr: t.Attr, span: span{t.Loc}}
	case *IndexTarget:
		return &IndexTarget{Value: h.expr(t.Value, pre), Index: h.expr(t.Index, pre), span: span{t.Loc}}
	case *StarTarget:
		return &StarTarget{Target: h.target(t.Target, pre), span: span{t.Loc}}
	case *TupleTarget:
		elems := make([]AssignTarget, len(t.Elements))
		for i, e := range t.Elements {
			elems[i] = h.target(e, pre)
		}
		return &TupleTarget{Elements: elems, span: span{t.Loc}}
	case *ListTarget:
		elems := make([]AssignTarget, len(t.Elements))
		for i, e := range t.Elements {
			elems[i] = h.target(e, pre)
		}
		return &ListTarget{Elements: elems, span: span{t.Loc}}
	default:
		return t
	}
}

func (h *hoister) params(params []Parameter, pre *[]Stmt) []Parameter {
	out := make([]Parameter, len(params))
	for i, p := range params {
		if p.Default != nil {
			p.Default = h.expr(p.Default, pre)
		}
		out[i] = p
	}
	return out
}

func (h *hoister) args(args []Argument, pre *[]Stmt) []Argument {
	out := make([]Argument, len(args))
	for i, a := range args {
		a.Value = h.expr(a.Value, pre)
		out[i] = a
	}
	return out
}

func (h *hoister) parts(parts []FStringPart, pre *[]Stmt) []FStringPart {
	out := make([]FStringPart, len(parts))
	for i, p := range parts {
		if p.X != nil {
			p.X = h.expr(p.X, pre)
		}
		if p.Spec != nil {
			p.Spec = h.parts(p.Spec, pre)
		}
		out[i] = p
	}
	return out
}

func (h *hoister) pattern(p RegexPattern, pre *[]Stmt) RegexPattern {
	if !p.Interpolated {
		return p
	}
	return RegexPattern{Parts: h.parts(p.Parts, pre), Interpolated: true}
}

func (h *hoister) expr(x Expr, pre *[]Stmt) Expr {
	switch x := x.(type) {
	case *FStringLit:
		return &FStringLit{Parts: h.parts(x.Parts, pre), Bytes: x.Bytes, span: span{x.Loc}}
	case *UnaryExpr:
		return &UnaryExpr{Op: x.Op, X: h.expr(x.X, pre), span: span{x.Loc}}
	case *BinaryExpr:
		return &BinaryExpr{Left: h.expr(x.Left, pre), Op: x.Op, Right: h.expr(x.Right, pre), span: span{x.Loc}}
	case *AugAssignExpr:
		return &AugAssignExpr{Target: h.target(x.Target, pre), Op: x.Op, Value: h.expr(x.Value, pre), span: span{x.Loc}}
	case *PrefixIncrExpr:
		return &PrefixIncrExpr{Op: x.Op, Target: h.target(x.Target, pre), span: span{x.Loc}}
	case *PostfixIncrExpr:
		return &PostfixIncrExpr{Op: x.Op, Target: h.target(x.Target, pre), span: span{x.Loc}}
	case *CompareExpr:
		comparators := make([]Expr, len(x.Comparators))
		for i, c := range x.Comparators {
			comparators[i] = h.expr(c, pre)
		}
		return &CompareExpr{Left: h.expr(x.Left, pre), Ops: x.Ops, Comparators: comparators, span: span{x.Loc}}
	case *IfExpr:
		return &IfExpr{Test: h.expr(x.Test, pre), Body: h.expr(x.Body, pre), OrElse: h.expr(x.OrElse, pre), span: span{x.Loc}}
	case *TryExpr:
		out := &TryExpr{X: h.expr(x.X, pre), span: span{x.Loc}}
		if x.Fallback != nil {
			out.Fallback = h.expr(x.Fallback, pre)
		}
		return out
	case *YieldExpr:
		if x.Value == nil {
			return x
		}
		return &YieldExpr{Value: h.expr(x.Value, pre), span: span{x.Loc}}
	case *YieldFromExpr:
		return &YieldFromExpr{X: h.expr(x.X, pre), span: span{x.Loc}}
	case *LambdaExpr:
		if !lambdaNeedsDef(x.Params, x.Body) {
			return x
		}
		params := h.params(x.Params, pre)
		body := ensureLambdaReturn(h.block(x.Body))
		name := h.nextName()
		*pre = append(*pre, &DefStmt{Name: name, Params: params, Body: body, span: span{x.Loc}})
		return &Name{Name: name, span: span{x.Loc}}
	case *CompoundExpr:
		exprs := make([]Expr, len(x.Exprs))
		for i, e := range x.Exprs {
			exprs[i] = h.expr(e, pre)
		}
		return &CompoundExpr{Exprs: exprs, span: span{x.Loc}}
	case *RegexLit:
		return &RegexLit{Pattern: h.pattern(x.Pattern, pre), span: span{x.Loc}}
	case *RegexMatchExpr:
		return &RegexMatchExpr{Value: h.expr(x.Value, pre), Pattern: h.pattern(x.Pattern, pre), span: span{x.Loc}}
	case *SubprocessLit:
		return &SubprocessLit{Kind: x.Kind, Parts: h.parts(x.Parts, pre), span: span{x.Loc}}
	case *CallExpr:
		return &CallExpr{Func: h.expr(x.Func, pre), Args: h.args(x.Args, pre), span: span{x.Loc}}
	case *AttrExpr:
		return &AttrExpr{Value: h.expr(x.Value, pre), Attr: x.Attr, span: span{x.Loc}}
	case *IndexExpr:
		return &IndexExpr{Value: h.expr(x.Value, pre), Index: h.expr(x.Index, pre), span: span{x.Loc}}
	case *ParenExpr:
		return &ParenExpr{X: h.expr(x.X, pre), span: span{x.Loc}}
	case *ListLit:
		return &ListLit{Elements: h.exprs(x.Elements, pre), span: span{x.Loc}}
	case *TupleLit:
		return &TupleLit{Elements: h.exprs(x.Elements, pre), span: span{x.Loc}}
	case *SetLit:
		return &SetLit{Elements: h.exprs(x.Elements, pre), span: span{x.Loc}}
	case *DictLit:
		entries := make([]DictEntry, len(x.Entries))
		for i, e := range x.Entries {
			entries[i] = DictEntry{Key: h.expr(e.Key, pre), Value: h.expr(e.Value, pre)}
		}
		return &DictLit{Entries: entries, span: span{x.Loc}}
	case *ListComp:
		return &ListComp{Element: h.expr(x.Element, pre), Target: x.Target, Iter: h.expr(x.Iter, pre), Ifs: h.exprs(x.Ifs, pre), span: span{x.Loc}}
	case *DictComp:
		return &DictComp{Key: h.expr(x.Key, pre), Value: h.expr(x.Value, pre), Target: x.Target, Iter: h.expr(x.Iter, pre), Ifs: h.exprs(x.Ifs, pre), span: span{x.Loc}}
	case *SliceExpr:
		out := &SliceExpr{span: span{x.Loc}}
		if x.Start != nil {
			out.Start = h.expr(x.Start, pre)
		}
		if x.End != nil {
			out.End = h.expr(x.End, pre)
		}
		return out
	default:
		// names, placeholders, literals, accessors, field indices
		return x
	}
}

func (h *hoister) exprs(xs []Expr, pre *[]Stmt) []Expr {
	out := make([]Expr, len(xs))
	for i, x := range xs {
		out[i] = h.expr(x, pre)
	}
	return out
}

/* ---------- hoisting predicate ---------- */

// lambdaNeedsDef reports whether a lambda must become a hoisted function
// definition: any non-expression statement in the body, any parameter
// with a default or star form, or a nested complex lambda anywhere in a
// body expression.
func lambdaNeedsDef(params []Parameter, body []Stmt) bool {
	for _, p := range params {
		if p.Kind != ParamRegular || p.Default != nil {
			return true
		}
	}
	for _, st := range body {
		es, ok := st.(*ExprStmt)
		if !ok {
			return true
		}
		if containsComplexLambda(es.Value) {
			return true
		}
	}
	return false
}

func containsComplexLambda(x Expr) bool {
	switch x := x.(type) {
	case *FStringLit:
		return partsContainComplexLambda(x.Parts)
	case *UnaryExpr:
		return containsComplexLambda(x.X)
	case *BinaryExpr:
		return containsComplexLambda(x.Left) || containsComplexLambda(x.Right)
	case *AugAssignExpr:
		return targetContainsComplexLambda(x.Target) || containsComplexLambda(x.Value)
	case *PrefixIncrExpr:
		return targetContainsComplexLambda(x.Target)
	case *PostfixIncrExpr:
		return targetContainsComplexLambda(x.Target)
	case *CompareExpr:
		if containsComplexLambda(x.Left) {
			return true
		}
		for _, c := range x.Comparators {
			if containsComplexLambda(c) {
				return true
			}
		}
		return false
	case *IfExpr:
		return containsComplexLambda(x.Test) || containsComplexLambda(x.Body) || containsComplexLambda(x.OrElse)
	case *TryExpr:
		if containsComplexLambda(x.X) {
			return true
		}
		return x.Fallback != nil && containsComplexLambda(x.Fallback)
	case *YieldExpr:
		return x.Value != nil && containsComplexLambda(x.Value)
	case *YieldFromExpr:
		return containsComplexLambda(x.X)
	case *LambdaExpr:
		return lambdaNeedsDef(x.Params, x.Body)
	case *CompoundExpr:
		for _, e := range x.Exprs {
			if containsComplexLambda(e) {
				return true
			}
		}
		return false
	case *RegexLit:
		return patternContainsComplexLambda(x.Pattern)
	case *RegexMatchExpr:
		return containsComplexLambda(x.Value) || patternContainsComplexLambda(x.Pattern)
	case *SubprocessLit:
		return partsContainComplexLambda(x.Parts)
	case *CallExpr:
		if containsComplexLambda(x.Func) {
			return true
		}
		for _, a := range x.Args {
			if containsComplexLambda(a.Value) {
				return true
			}
		}
		return false
	case *AttrExpr:
		return containsComplexLambda(x.Value)
	case *IndexExpr:
		return containsComplexLambda(x.Value) || containsComplexLambda(x.Index)
	case *ParenExpr:
		return containsComplexLambda(x.X)
	case *ListLit:
		return exprsContainComplexLambda(x.Elements)
	case *TupleLit:
		return exprsContainComplexLambda(x.Elements)
	case *SetLit:
		return exprsContainComplexLambda(x.Elements)
	case *DictLit:
		for _, e := range x.Entries {
			if containsComplexLambda(e.Key) || containsComplexLambda(e.Value) {
				return true
			}
		}
		return false
	case *ListComp:
		return containsComplexLambda(x.Element) || containsComplexLambda(x.Iter) || exprsContainComplexLambda(x.Ifs)
	case *DictComp:
		return containsComplexLambda(x.Key) || containsComplexLambda(x.Value) || containsComplexLambda(x.Iter) || exprsContainComplexLambda(x.Ifs)
	case *SliceExpr:
		if x.Start != nil && containsComplexLambda(x.Start) {
			return true
		}
		return x.End != nil && containsComplexLambda(x.End)
	default:
		return false
	}
}

func exprsContainComplexLambda(xs []Expr) bool {
	for _, x := range xs {
		if containsComplexLambda(x) {
			return true
		}
	}
	return false
}

func partsContainComplexLambda(parts []FStringPart) bool {
	for _, p := range parts {
		if p.X != nil && containsComplexLambda(p.X) {
			return true
		}
		if p.Spec != nil && partsContainComplexLambda(p.Spec) {
			return true
		}
	}
	return false
}

func patternContainsComplexLambda(p RegexPattern) bool {
	return p.Interpolated && partsContainComplexLambda(p.Parts)
}

func targetContainsComplexLambda(t AssignTarget) bool {
	switch t := t.(type) {
	case *AttrTarget:
		return containsComplexLambda(t.Value)
	case *IndexTarget:
		return containsComplexLambda(t.Value) || containsComplexLambda(t.Index)
	case *StarTarget:
		return targetContainsComplexLambda(t.Target)
	case *TupleTarget:
		for _, e := range t.Elements {
			if targetContainsComplexLambda(e) {
				return true
			}
		}
		return false
	case *ListTarget:
		for _, e := range t.Elements {
			if targetContainsComplexLambda(e) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ensureLambdaReturn gives a hoisted body an explicit return when it
// ends in an expression statement, preserving lambda result semantics.
func ensureLambdaReturn(body []Stmt) []Stmt {
	if len(body) == 0 {
		return body
	}
	last := body[len(body)-1]
	if es, ok := last.(*ExprStmt); ok {
		body[len(body)-1] = &ReturnStmt{Value: es.Value, span: span{es.Loc}}
	}
	return body
}
