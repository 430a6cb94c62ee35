// lower_stmt.go: statement lowering.
//
// Most statements map one to one onto target forms. The exceptions are
// let conditions, which expand into destructuring scaffolds around the
// branch or loop, and function bodies, which take implicit-return tail
// handling. A single source statement may lower to several target
// statements, so every arm returns a slice.

package snail

func (lw *lowerer) stmt(st Stmt) ([]PyStmt, *LowerError) {
	switch st := st.(type) {
	case *IfStmt:
		return lw.ifStmt(st)
	case *WhileStmt:
		return lw.whileStmt(st)
	case *ForStmt:
		target, err := lw.targetExpr(st.Target)
		if err != nil {
			return nil, err
		}
		iter, err := lw.expr(st.Iter)
		if err != nil {
			return nil, err
		}
		body, err := lw.block(st.Body)
		if err != nil {
			return nil, err
		}
		orElse, err := lw.optBlock(st.Else)
		if err != nil {
			return nil, err
		}
		return []PyStmt{&PyFor{Target: target, Iter: iter, Body: body, OrElse: orElse, span: span{st.Loc}}}, nil
	case *DefStmt:
		params, err := lw.parameters(st.Params)
		if err != nil {
			return nil, err
		}
		body, err := lw.blockWithTail(st.Body, TailImplicitReturn)
		if err != nil {
			return nil, err
		}
		return []PyStmt{&PyFunctionDef{Name: st.Name, Params: params, Body: body, span: span{st.Loc}}}, nil
	case *ClassStmt:
		body, err := lw.block(st.Body)
		if err != nil {
			return nil, err
		}
		return []PyStmt{&PyClassDef{Name: st.Name, Body: body, span: span{st.Loc}}}, nil
	case *TryStmt:
		body, err := lw.block(st.Body)
		if err != nil {
			return nil, err
		}
		handlers := make([]PyExceptHandler, len(st.Handlers))
		for i, h := range st.Handlers {
			var typ PyExpr
			if h.Type != nil {
				if typ, err = lw.expr(h.Type); err != nil {
					return nil, err
				}
			}
			hBody, err := lw.block(h.Body)
			if err != nil {
				return nil, err
			}
			handlers[i] = PyExceptHandler{Type: typ, Name: h.Name, Body: hBody, Loc: h.Loc}
		}
		orElse, err := lw.optBlock(st.Else)
		if err != nil {
			return nil, err
		}
		finally, err := lw.optBlock(st.Finally)
		if err != nil {
			return nil, err
		}
		return []PyStmt{&PyTry{Body: body, Handlers: handlers, OrElse: orElse, FinalBody: finally, span: span{st.Loc}}}, nil
	case *WithStmt:
		items := make([]PyWithItem, len(st.Items))
		for i, it := range st.Items {
			ctx, err := lw.expr(it.Context)
			if err != nil {
				return nil, err
			}
			var target PyExpr
			if it.Target != nil {
				if target, err = lw.targetExpr(it.Target); err != nil {
					return nil, err
				}
			}
			items[i] = PyWithItem{Context: ctx, Target: target}
		}
		body, err := lw.block(st.Body)
		if err != nil {
			return nil, err
		}
		return []PyStmt{&PyWith{Items: items, Body: body, span: span{st.Loc}}}, nil
	case *ReturnStmt:
		out := &PyReturn{span: span{st.Loc}}
		if st.Value != nil {
			value, err := lw.expr(st.Value)
			if err != nil {
				return nil, err
			}
			out.Value = value
		}
		return []PyStmt{out}, nil
	case *RaiseStmt:
		out := &PyRaise{span: span{st.Loc}}
		if st.Value != nil {
			value, err := lw.expr(st.Value)
			if err != nil {
				return nil, err
			}
			out.Value = value
		}
		if st.From != nil {
			from, err := lw.expr(st.From)
			if err != nil {
				return nil, err
			}
			out.From = from
		}
		return []PyStmt{out}, nil
	case *AssertStmt:
		test, err := lw.expr(st.Test)
		if err != nil {
			return nil, err
		}
		out := &PyAssert{Test: test, span: span{st.Loc}}
		if st.Message != nil {
			if out.Message, err = lw.expr(st.Message); err != nil {
				return nil, err
			}
		}
		return []PyStmt{out}, nil
	case *DeleteStmt:
		targets := make([]PyExpr, len(st.Targets))
		for i, t := range st.Targets {
			if star, ok := t.(*StarTarget); ok {
				return nil, lowerErrorAt("starred targets are not valid in del statements", star.Loc)
			}
			target, err := lw.targetExpr(t)
			if err != nil {
				return nil, err
			}
			targets[i] = target
		}
		return []PyStmt{&PyDelete{Targets: targets, span: span{st.Loc}}}, nil
	case *BreakStmt:
		return []PyStmt{&PyBreak{span{st.Loc}}}, nil
	case *ContinueStmt:
		return []PyStmt{&PyContinue{span{st.Loc}}}, nil
	case *PassStmt:
		return []PyStmt{&PyPass{span{st.Loc}}}, nil
	case *ImportStmt:
		names := make([]PyImportName, len(st.Items))
		for i, it := range st.Items {
			names[i] = PyImportName{Path: it.Path, As: it.Alias}
		}
		return []PyStmt{&PyImport{Names: names, span: span{st.Loc}}}, nil
	case *ImportFromStmt:
		return lw.importFrom(st)
	case *AssignStmt:
		targets := make([]PyExpr, len(st.Targets))
		for i, t := range st.Targets {
			target, err := lw.targetExpr(t)
			if err != nil {
				return nil, err
			}
			targets[i] = target
		}
		value, err := lw.expr(st.Value)
		if err != nil {
			return nil, err
		}
		return []PyStmt{&PyAssign{Targets: targets, Value: value, span: span{st.Loc}}}, nil
	case *ExprStmt:
		value, err := lw.expr(st.Value)
		if err != nil {
			return nil, err
		}
		return []PyStmt{&PyExprStmt{Value: value, SemiTerminated: st.SemiTerminated, span: span{st.Loc}}}, nil
	default:
		return nil, lowerErrorAt("unsupported statement", st.Span())
	}
}

/* ---------- branches ---------- */

// ifStmt lowers an if/elif/else chain from the tail up: the else block
// first, each elif folded in front of it, then the opening condition.
// Plain conditions fold into nested target if statements, which the
// renderer prints back as elif; let conditions need scaffolding before
// their test, so chains containing them render as nested else blocks.
func (lw *lowerer) ifStmt(st *IfStmt) ([]PyStmt, *LowerError) {
	rest, err := lw.optBlock(st.Else)
	if err != nil {
		return nil, err
	}
	for i := len(st.Elifs) - 1; i >= 0; i-- {
		e := st.Elifs[i]
		rest, err = lw.ifLink(e.Cond, e.Body, rest, e.Cond.Span())
		if err != nil {
			return nil, err
		}
	}
	return lw.ifLink(st.Cond, st.Body, rest, st.Loc)
}

// ifLink lowers one condition/body pair with rest as its else suite.
func (lw *lowerer) ifLink(cond Cond, body []Stmt, rest []PyStmt, sp Span) ([]PyStmt, *LowerError) {
	pyBody, err := lw.block(body)
	if err != nil {
		return nil, err
	}
	if !cond.IsLet() {
		test, err := lw.expr(cond.Value)
		if err != nil {
			return nil, err
		}
		return []PyStmt{&PyIf{Test: test, Body: pyBody, OrElse: rest, span: span{sp}}}, nil
	}
	value, err := lw.expr(cond.Value)
	if err != nil {
		return nil, err
	}
	try, err := lw.destructureTry(cond.Target, sp)
	if err != nil {
		return nil, err
	}
	test, err := lw.letTest(cond.Guard, sp)
	if err != nil {
		return nil, err
	}
	return []PyStmt{
		pyAssignName(varLetValue, value, sp),
		try,
		&PyIf{Test: test, Body: pyBody, OrElse: rest, span: span{sp}},
	}, nil
}

func (lw *lowerer) whileStmt(st *WhileStmt) ([]PyStmt, *LowerError) {
	orElse, err := lw.optBlock(st.Else)
	if err != nil {
		return nil, err
	}
	body, err := lw.block(st.Body)
	if err != nil {
		return nil, err
	}
	if !st.Cond.IsLet() {
		test, err := lw.expr(st.Cond.Value)
		if err != nil {
			return nil, err
		}
		return []PyStmt{&PyWhile{Test: test, Body: body, OrElse: orElse, span: span{st.Loc}}}, nil
	}
	sp := st.Loc
	value, err := lw.expr(st.Cond.Value)
	if err != nil {
		return nil, err
	}
	try, err := lw.destructureTry(st.Cond.Target, sp)
	if err != nil {
		return nil, err
	}
	test, err := lw.letTest(st.Cond.Guard, sp)
	if err != nil {
		return nil, err
	}
	loopBody := []PyStmt{
		pyAssignName(varLetValue, value, sp),
		pyAssignName(varLetOk, pyBool(false, sp), sp),
		try,
		&PyIf{
			Test:   test,
			Body:   body,
			OrElse: []PyStmt{pyAssignName(varLetKeep, pyBool(false, sp), sp)},
			span:   span{sp},
		},
	}
	return []PyStmt{
		pyAssignName(varLetKeep, pyBool(true, sp), sp),
		&PyWhile{Test: pyName(varLetKeep, sp), Body: loopBody, OrElse: orElse, span: span{sp}},
	}, nil
}

// destructureTry assigns the staged let value to the pattern, recording
// success or a TypeError/ValueError mismatch in the ok flag.
func (lw *lowerer) destructureTry(target AssignTarget, sp Span) (*PyTry, *LowerError) {
	tgt, err := lw.targetExpr(target)
	if err != nil {
		return nil, err
	}
	excTypes := &PyTuple{
		Elements: []PyExpr{pyName("TypeError", sp), pyName("ValueError", sp)},
		span:     span{sp},
	}
	return &PyTry{
		Body: []PyStmt{&PyAssign{Targets: []PyExpr{tgt}, Value: pyName(varLetValue, sp), span: span{sp}}},
		Handlers: []PyExceptHandler{{
			Type: excTypes,
			Body: []PyStmt{pyAssignName(varLetOk, pyBool(false, sp), sp)},
			Loc:  sp,
		}},
		OrElse: []PyStmt{pyAssignName(varLetOk, pyBool(true, sp), sp)},
		span:   span{sp},
	}, nil
}

// letTest is the branch condition after destructuring: the ok flag,
// conjoined with the guard when one is present.
func (lw *lowerer) letTest(guard Expr, sp Span) (PyExpr, *LowerError) {
	ok := pyName(varLetOk, sp)
	if guard == nil {
		return ok, nil
	}
	g, err := lw.expr(guard)
	if err != nil {
		return nil, err
	}
	return &PyBinary{Left: ok, Op: PyOpAnd, Right: g, span: span{sp}}, nil
}

/* ---------- imports ---------- */

// importFrom lowers a from-import. The future-feature item "braces" is
// deliberately dropped: brace blocks are core syntax here, and passing
// the request through would only trip the target interpreter's easter
// egg refusal.
func (lw *lowerer) importFrom(st *ImportFromStmt) ([]PyStmt, *LowerError) {
	if st.Star {
		return []PyStmt{&PyImportFrom{Level: st.Level, Module: st.Module, Star: true, span: span{st.Loc}}}, nil
	}
	future := st.Level == 0 && len(st.Module) == 1 && st.Module[0] == "__future__"
	var names []PyImportName
	for _, it := range st.Items {
		if future && len(it.Path) == 1 && it.Path[0] == "braces" {
			continue
		}
		names = append(names, PyImportName{Path: it.Path, As: it.Alias})
	}
	if len(names) == 0 {
		return []PyStmt{&PyPass{span{st.Loc}}}, nil
	}
	return []PyStmt{&PyImportFrom{Level: st.Level, Module: st.Module, Names: names, span: span{st.Loc}}}, nil
}

/* ---------- targets & parameters ---------- */

// targetExpr lowers an assignment target into a target-tree expression.
// Names pass through the same rename step as name reads so scaffolding
// variables stay consistent on both sides of an assignment.
func (lw *lowerer) targetExpr(t AssignTarget) (PyExpr, *LowerError) {
	switch t := t.(type) {
	case *NameTarget:
		id, err := lw.pyIdent(t.Name, t.Loc)
		if err != nil {
			return nil, err
		}
		return pyName(id, t.Loc), nil
	case *AttrTarget:
		value, err := lw.expr(t.Value)
		if err != nil {
			return nil, err
		}
		return &PyAttr{Value: value, Attr: t.Attr, span: span{t.Loc}}, nil
	case *IndexTarget:
		value, err := lw.expr(t.Value)
		if err != nil {
			return nil, err
		}
		index, err := lw.expr(t.Index)
		if err != nil {
			return nil, err
		}
		return &PyIndex{Value: value, Index: index, span: span{t.Loc}}, nil
	case *StarTarget:
		inner, err := lw.targetExpr(t.Target)
		if err != nil {
			return nil, err
		}
		return &PyStarred{X: inner, span: span{t.Loc}}, nil
	case *TupleTarget:
		elems, err := lw.targetExprs(t.Elements)
		if err != nil {
			return nil, err
		}
		return &PyTuple{Elements: elems, span: span{t.Loc}}, nil
	case *ListTarget:
		elems, err := lw.targetExprs(t.Elements)
		if err != nil {
			return nil, err
		}
		return &PyList{Elements: elems, span: span{t.Loc}}, nil
	default:
		return nil, lowerErrorAt("unsupported assignment target", t.Span())
	}
}

func (lw *lowerer) targetExprs(targets []AssignTarget) ([]PyExpr, *LowerError) {
	out := make([]PyExpr, len(targets))
	for i, t := range targets {
		e, err := lw.targetExpr(t)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (lw *lowerer) parameters(params []Parameter) ([]PyParam, *LowerError) {
	out := make([]PyParam, len(params))
	for i, p := range params {
		var def PyExpr
		if p.Default != nil {
			var err *LowerError
			if def, err = lw.expr(p.Default); err != nil {
				return nil, err
			}
		}
		out[i] = PyParam{Kind: p.Kind, Name: p.Name, Default: def}
	}
	return out, nil
}

func (lw *lowerer) optBlock(stmts []Stmt) ([]PyStmt, *LowerError) {
	if stmts == nil {
		return nil, nil
	}
	return lw.block(stmts)
}
