// lines.go: line-mode lowering.
//
// A lines program compiles to a standalone script that walks every
// input path from the command line, falling back to stdin, and runs
// each rule against each line. The generated loop keeps its own
// counters and rebinds the user-visible ones per line, so user code
// can overwrite its view without derailing iteration. Begin and end
// blocks run outside the loop with the same tail treatment as the
// rule actions.

package snail

// LowerLines lowers a lines program into a complete target module.
func LowerLines(lp *LinesProgram) (*PyModule, error) {
	return LowerLinesWithTail(lp, TailNone)
}

// LowerLinesWithTail lowers a lines program, applying tail to the end
// of every begin block, rule action, and end block.
func LowerLinesWithTail(lp *LinesProgram, tail Tail) (*PyModule, error) {
	lp = desugarLines(lp)
	for _, b := range lp.BeginBlocks {
		if err := checkYieldStmts(b, false); err != nil {
			return nil, err
		}
	}
	for _, r := range lp.Rules {
		if r.Pattern != nil {
			if err := checkYieldExpr(r.Pattern, false); err != nil {
				return nil, err
			}
		}
		if err := checkYieldStmts(r.Action, false); err != nil {
			return nil, err
		}
	}
	for _, b := range lp.EndBlocks {
		if err := checkYieldStmts(b, false); err != nil {
			return nil, err
		}
	}

	lw := &lowerer{}
	sp := lp.Loc
	body := []PyStmt{&PyImport{Names: []PyImportName{{Path: []string{"sys"}}}, span: span{sp}}}
	for _, b := range lp.BeginBlocks {
		lowered, err := lw.blockWithTail(b, tail)
		if err != nil {
			return nil, err
		}
		body = append(body, lowered...)
	}
	rules, err := lw.linesRules(lp.Rules, tail)
	if err != nil {
		return nil, err
	}
	body = append(body, linesScaffold(rules, sp)...)
	for _, b := range lp.EndBlocks {
		lowered, err := lw.blockWithTail(b, tail)
		if err != nil {
			return nil, err
		}
		body = append(body, lowered...)
	}
	return &PyModule{Body: body, Loc: sp}, nil
}

/* ---------- rules ---------- */

// linesRules lowers each rule into the statements run per line. Regex
// patterns stage their match object so `$m` reads it inside the
// action; other patterns guard the action directly; a bare action
// runs unconditionally.
func (lw *lowerer) linesRules(rules []LinesRule, tail Tail) ([]PyStmt, *LowerError) {
	var out []PyStmt
	for _, r := range rules {
		action, err := lw.ruleAction(r, tail)
		if err != nil {
			return nil, err
		}
		if r.Pattern == nil {
			out = append(out, action...)
			continue
		}
		value, pattern, err := lw.rulePatternParts(r.Pattern)
		if err != nil {
			return nil, err
		}
		if pattern != nil {
			search := pyCall(pyName(helperRegexSearch, r.Loc), []PyExpr{value, pattern}, r.Loc)
			out = append(out,
				pyAssignName(varMatch, search, r.Loc),
				&PyIf{Test: pyName(varMatch, r.Loc), Body: action, span: span{r.Loc}},
			)
			continue
		}
		out = append(out, &PyIf{Test: value, Body: action, span: span{r.Loc}})
	}
	return out, nil
}

// rulePatternParts splits a rule pattern into a test value and, for
// regex forms, the pattern expression to search with. A bare regex
// literal matches against the current line.
func (lw *lowerer) rulePatternParts(pat Expr) (PyExpr, PyExpr, *LowerError) {
	switch pat := pat.(type) {
	case *RegexLit:
		pattern, err := lw.regexPattern(pat.Pattern, pat.Loc)
		if err != nil {
			return nil, nil, err
		}
		return pyName(varLine, pat.Loc), pattern, nil
	case *RegexMatchExpr:
		value, err := lw.expr(pat.Value)
		if err != nil {
			return nil, nil, err
		}
		pattern, err := lw.regexPattern(pat.Pattern, pat.Loc)
		if err != nil {
			return nil, nil, err
		}
		return value, pattern, nil
	default:
		value, err := lw.expr(pat)
		if err != nil {
			return nil, nil, err
		}
		return value, nil, nil
	}
}

func (lw *lowerer) ruleAction(r LinesRule, tail Tail) ([]PyStmt, *LowerError) {
	if r.Action == nil {
		call := pyCall(pyName("print", r.Loc), []PyExpr{pyName(varLine, r.Loc)}, r.Loc)
		return []PyStmt{&PyExprStmt{Value: call, span: span{r.Loc}}}, nil
	}
	return lw.blockWithTail(r.Action, tail)
}

/* ---------- scaffolding ---------- */

// linesScaffold wraps the per-line rule statements in the input loop:
// paths from the command line or stdin, per-file record counting, and
// per-line field splitting.
func linesScaffold(rules []PyStmt, sp Span) []PyStmt {
	loop := linesLineLoop(rules, sp)
	stdinBranch := []PyStmt{
		pyAssignName(varFile, pyAttr(pyName("sys", sp), "stdin", sp), sp),
		loop,
	}
	fileBranch := []PyStmt{&PyWith{
		Items: []PyWithItem{{
			Context: pyCall(pyName("open", sp), []PyExpr{pyName(varPath, sp)}, sp),
			Target:  pyName(varFile, sp),
		}},
		Body: []PyStmt{loop},
		span: span{sp},
	}}
	isStdin := &PyCompare{
		Left:        pyName(varPath, sp),
		Ops:         []PyCmpOp{PyCmpEq},
		Comparators: []PyExpr{pyStr("-", sp)},
		span:        span{sp},
	}
	argvRest := &PyIndex{
		Value: pyAttr(pyName("sys", sp), "argv", sp),
		Index: &PySlice{Start: pyNum("1", sp), span: span{sp}},
		span:  span{sp},
	}
	paths := &PyBinary{
		Left:  argvRest,
		Op:    PyOpOr,
		Right: &PyList{Elements: []PyExpr{pyStr("-", sp)}, span: span{sp}},
		span:  span{sp},
	}
	return []PyStmt{
		pyAssignName(varNR, pyNum("0", sp), sp),
		&PyFor{
			Target: pyName(varPath, sp),
			Iter:   paths,
			Body: []PyStmt{
				pyAssignName(varFNR, pyNum("0", sp), sp),
				&PyIf{Test: isStdin, Body: stdinBranch, OrElse: fileBranch, span: span{sp}},
			},
			span: span{sp},
		},
	}
}

func linesLineLoop(rules []PyStmt, sp Span) *PyFor {
	incr := func(name string) *PyAssign {
		step := &PyBinary{Left: pyName(name, sp), Op: PyOpAdd, Right: pyNum("1", sp), span: span{sp}}
		return pyAssignName(name, step, sp)
	}
	rstrip := pyCall(pyAttr(pyName(varRaw, sp), "rstrip", sp), []PyExpr{pyStr(`\n`, sp)}, sp)
	split := pyCall(pyAttr(pyName(varLine, sp), "split", sp), nil, sp)
	body := []PyStmt{
		incr(varNR),
		incr(varFNR),
		pyAssignName(varLine, rstrip, sp),
		pyAssignName(varFields, split, sp),
		pyAssignName(varNRUser, pyName(varNR, sp), sp),
		pyAssignName(varFNRUser, pyName(varFNR, sp), sp),
		pyAssignName(varPathUser, pyName(varPath, sp), sp),
	}
	body = append(body, rules...)
	return &PyFor{Target: pyName(varRaw, sp), Iter: pyName(varFile, sp), Body: body, span: span{sp}}
}
