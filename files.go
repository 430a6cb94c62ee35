// files.go: file-mode lowering.
//
// A files program compiles to a script that runs the whole user
// program once per command-line path. Each iteration opens the path
// lazily, so a body that never touches `$fd` or `$text` never pays
// for the open, and binds the lazy text view before user code runs.

package snail

// LowerFiles lowers a files program into a complete target module.
func LowerFiles(p *Program) (*PyModule, error) {
	return LowerFilesWithTail(p, TailNone)
}

// LowerFilesWithTail lowers a files program, applying tail to the end
// of the per-file body.
func LowerFilesWithTail(p *Program, tail Tail) (*PyModule, error) {
	p = desugarProgram(p)
	if err := checkYieldStmts(p.Stmts, false); err != nil {
		return nil, err
	}
	lw := &lowerer{}
	body, err := lw.blockWithTail(p.Stmts, tail)
	if err != nil {
		return nil, err
	}
	sp := p.Loc
	none := func() PyExpr { return &PyNone{span{sp}} }
	argvRest := &PyIndex{
		Value: pyAttr(pyName("sys", sp), "argv", sp),
		Index: &PySlice{Start: pyNum("1", sp), span: span{sp}},
		span:  span{sp},
	}
	openCall := pyCall(pyName(classLazyFile, sp), []PyExpr{pyName(varSrc, sp), pyStr("r", sp)}, sp)
	textCall := pyCall(pyName(classLazyText, sp), []PyExpr{pyName(varFD, sp)}, sp)
	withBody := append([]PyStmt{pyAssignName(varText, textCall, sp)}, body...)
	loop := &PyFor{
		Target: pyName(varSrc, sp),
		Iter:   pyName(varPaths, sp),
		Body: []PyStmt{
			pyAssignName(varPathUser, pyName(varSrc, sp), sp),
			&PyWith{
				Items: []PyWithItem{{Context: openCall, Target: pyName(varFD, sp)}},
				Body:  withBody,
				span:  span{sp},
			},
		},
		span: span{sp},
	}
	return &PyModule{Body: []PyStmt{
		&PyImport{Names: []PyImportName{{Path: []string{"sys"}}}, span: span{sp}},
		pyAssignName(varPaths, argvRest, sp),
		pyAssignName(varSrc, none(), sp),
		pyAssignName(varFD, none(), sp),
		pyAssignName(varText, none(), sp),
		loop,
	}, Loc: sp}, nil
}
