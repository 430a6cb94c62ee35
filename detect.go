// detect.go: prologue feature detection.
//
// One walk over the lowered module collects every name appearing in
// call position. The prologue consults the set to decide which helper
// groups the emitted script needs. Function parameter defaults are
// walked too: hoisted def-expression parameters can carry helper
// calls that no statement position reaches.

package snail

func calledHelpers(m *PyModule) map[string]bool {
	s := &helperScan{found: map[string]bool{}}
	s.stmts(m.Body)
	return s.found
}

type helperScan struct {
	found map[string]bool
}

func (s *helperScan) stmts(stmts []PyStmt) {
	for _, st := range stmts {
		s.stmt(st)
	}
}

func (s *helperScan) stmt(st PyStmt) {
	switch st := st.(type) {
	case *PyIf:
		s.expr(st.Test)
		s.stmts(st.Body)
		s.stmts(st.OrElse)
	case *PyWhile:
		s.expr(st.Test)
		s.stmts(st.Body)
		s.stmts(st.OrElse)
	case *PyFor:
		s.expr(st.Target)
		s.expr(st.Iter)
		s.stmts(st.Body)
		s.stmts(st.OrElse)
	case *PyFunctionDef:
		for _, p := range st.Params {
			if p.Default != nil {
				s.expr(p.Default)
			}
		}
		s.stmts(st.Body)
	case *PyClassDef:
		s.stmts(st.Body)
	case *PyTry:
		s.stmts(st.Body)
		for _, h := range st.Handlers {
			if h.Type != nil {
				s.expr(h.Type)
			}
			s.stmts(h.Body)
		}
		s.stmts(st.OrElse)
		s.stmts(st.FinalBody)
	case *PyWith:
		for _, it := range st.Items {
			s.expr(it.Context)
			if it.Target != nil {
				s.expr(it.Target)
			}
		}
		s.stmts(st.Body)
	case *PyReturn:
		if st.Value != nil {
			s.expr(st.Value)
		}
	case *PyRaise:
		if st.Value != nil {
			s.expr(st.Value)
		}
		if st.From != nil {
			s.expr(st.From)
		}
	case *PyAssert:
		s.expr(st.Test)
		if st.Message != nil {
			s.expr(st.Message)
		}
	case *PyDelete:
		s.exprs(st.Targets)
	case *PyAssign:
		s.exprs(st.Targets)
		s.expr(st.Value)
	case *PyExprStmt:
		s.expr(st.Value)
	}
}

func (s *helperScan) exprs(xs []PyExpr) {
	for _, x := range xs {
		s.expr(x)
	}
}

func (s *helperScan) expr(x PyExpr) {
	switch x := x.(type) {
	case *PyFString:
		s.parts(x.Parts)
	case *PyUnary:
		s.expr(x.X)
	case *PyBinary:
		s.expr(x.Left)
		s.expr(x.Right)
	case *PyCompare:
		s.expr(x.Left)
		s.exprs(x.Comparators)
	case *PyIfExpr:
		s.expr(x.Test)
		s.expr(x.Body)
		s.expr(x.OrElse)
	case *PyLambda:
		s.expr(x.Body)
	case *PyNamed:
		s.expr(x.Value)
	case *PyStarred:
		s.expr(x.X)
	case *PyYield:
		if x.Value != nil {
			s.expr(x.Value)
		}
	case *PyYieldFrom:
		s.expr(x.X)
	case *PyCall:
		if fn, ok := x.Func.(*PyName); ok {
			s.found[fn.ID] = true
		}
		s.expr(x.Func)
		for _, a := range x.Args {
			s.expr(a.Value)
		}
	case *PyAttr:
		s.expr(x.Value)
	case *PyIndex:
		s.expr(x.Value)
		s.expr(x.Index)
	case *PyList:
		s.exprs(x.Elements)
	case *PyTuple:
		s.exprs(x.Elements)
	case *PySet:
		s.exprs(x.Elements)
	case *PyDict:
		for _, e := range x.Entries {
			s.expr(e.Key)
			s.expr(e.Value)
		}
	case *PyListComp:
		s.expr(x.Element)
		s.expr(x.Iter)
		s.exprs(x.Ifs)
	case *PyDictComp:
		s.expr(x.Key)
		s.expr(x.Value)
		s.expr(x.Iter)
		s.exprs(x.Ifs)
	case *PySlice:
		if x.Start != nil {
			s.expr(x.Start)
		}
		if x.End != nil {
			s.expr(x.End)
		}
	}
}

func (s *helperScan) parts(parts []PyFStringPart) {
	for _, p := range parts {
		if p.X != nil {
			s.expr(p.X)
		}
		if p.Spec != nil {
			s.parts(p.Spec)
		}
	}
}
