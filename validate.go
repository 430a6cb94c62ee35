// validate.go: mode-sensitive name validation.
//
// The grammar accepts every $-name everywhere; which ones mean anything
// depends on the compile mode. The validator walks the whole tree and
// rejects names outside the selected mode, naming the variable and the
// flag that would enable it.

package snail

import "fmt"

// Mode selects the execution model a program compiles under: a plain
// script, a per-line rule program, or a per-file program.
type Mode int

const (
	ModeMain Mode = iota
	ModeLines
	ModeFiles
)

func (m Mode) String() string {
	switch m {
	case ModeLines:
		return "lines"
	case ModeFiles:
		return "files"
	}
	return "main"
}

// Validate checks every name reference in p against the mode's visible
// sets. The returned error is a *ParseError carrying the offending
// name's span.
func Validate(p *Program, mode Mode) error {
	v := &validator{mode: mode, src: p.Source}
	if err := v.stmts(p.Stmts); err != nil {
		return err
	}
	return nil
}

type validator struct {
	mode Mode
	src  string
}

// lineNames are visible per input line; fileNames per input file. $p,
// the current path, is visible in both non-main modes. Field indices
// ($0, $1, ...) follow the line set.
func lineName(name string) bool {
	switch name {
	case "$l", "$n", "$fn", "$m", "$f":
		return true
	}
	return false
}

func fileName(name string) bool {
	switch name {
	case "$src", "$fd", "$text":
		return true
	}
	return false
}

func (v *validator) name(name string, sp Span) *ParseError {
	switch v.mode {
	case ModeMain:
		switch {
		case lineName(name):
			return errorAt(fmt.Sprintf("`%s` is only valid in line mode; use --lines", name), sp, v.src)
		case fileName(name):
			return errorAt(fmt.Sprintf("`%s` is only valid in file mode; use --files", name), sp, v.src)
		case name == "$p":
			return errorAt(fmt.Sprintf("`%s` is only valid in line or file mode; use --lines or --files", name), sp, v.src)
		}
	case ModeLines:
		if fileName(name) {
			return errorAt(fmt.Sprintf("`%s` is not valid here", name), sp, v.src)
		}
	case ModeFiles:
		if lineName(name) {
			return errorAt(fmt.Sprintf("`%s` is not valid here", name), sp, v.src)
		}
	}
	return nil
}

func (v *validator) field(f *FieldIndex) *ParseError {
	name := "$" + f.Index
	switch v.mode {
	case ModeMain:
		return errorAt(fmt.Sprintf("`%s` is only valid in line mode; use --lines", name), f.Loc, v.src)
	case ModeFiles:
		return errorAt(fmt.Sprintf("`%s` is not valid here", name), f.Loc, v.src)
	}
	return nil
}

/* ---------- structural walk ---------- */

func (v *validator) stmts(list []Stmt) *ParseError {
	for _, st := range list {
		if err := v.stmt(st); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) stmt(st Stmt) *ParseError {
	switch s := st.(type) {
	case *IfStmt:
		if err := v.cond(s.Cond); err != nil {
			return err
		}
		if err := v.stmts(s.Body); err != nil {
			return err
		}
		for _, elif := range s.Elifs {
			if err := v.cond(elif.Cond); err != nil {
				return err
			}
			if err := v.stmts(elif.Body); err != nil {
				return err
			}
		}
		return v.stmts(s.Else)
	case *WhileStmt:
		if err := v.cond(s.Cond); err != nil {
			return err
		}
		if err := v.stmts(s.Body); err != nil {
			return err
		}
		return v.stmts(s.Else)
	case *ForStmt:
		if err := v.target(s.Target); err != nil {
			return err
		}
		if err := v.expr(s.Iter); err != nil {
			return err
		}
		if err := v.stmts(s.Body); err != nil {
			return err
		}
		return v.stmts(s.Else)
	case *DefStmt:
		if err := v.params(s.Params); err != nil {
			return err
		}
		return v.stmts(s.Body)
	case *ClassStmt:
		return v.stmts(s.Body)
	case *TryStmt:
		if err := v.stmts(s.Body); err != nil {
			return err
		}
		for _, h := range s.Handlers {
			if h.Type != nil {
				if err := v.expr(h.Type); err != nil {
					return err
				}
			}
			if err := v.stmts(h.Body); err != nil {
				return err
			}
		}
		if err := v.stmts(s.Else); err != nil {
			return err
		}
		return v.stmts(s.Finally)
	case *WithStmt:
		for _, item := range s.Items {
			if err := v.expr(item.Context); err != nil {
				return err
			}
			if item.Target != nil {
				if err := v.target(item.Target); err != nil {
					return err
				}
			}
		}
		return v.stmts(s.Body)
	case *ReturnStmt:
		if s.Value != nil {
			return v.expr(s.Value)
		}
	case *RaiseStmt:
		if s.Value != nil {
			if err := v.expr(s.Value); err != nil {
				return err
			}
		}
		if s.From != nil {
			return v.expr(s.From)
		}
	case *AssertStmt:
		if err := v.expr(s.Test); err != nil {
			return err
		}
		if s.Message != nil {
			return v.expr(s.Message)
		}
	case *DeleteStmt:
		for _, t := range s.Targets {
			if err := v.target(t); err != nil {
				return err
			}
		}
	case *AssignStmt:
		for _, t := range s.Targets {
			if err := v.target(t); err != nil {
				return err
			}
		}
		return v.expr(s.Value)
	case *ExprStmt:
		return v.expr(s.Value)
	}
	return nil
}

func (v *validator) cond(c Cond) *ParseError {
	if c.Target != nil {
		if err := v.target(c.Target); err != nil {
			return err
		}
	}
	if err := v.expr(c.Value); err != nil {
		return err
	}
	if c.Guard != nil {
		return v.expr(c.Guard)
	}
	return nil
}

func (v *validator) target(t AssignTarget) *ParseError {
	switch tt := t.(type) {
	case *NameTarget:
		return v.name(tt.Name, tt.Loc)
	case *AttrTarget:
		return v.expr(tt.Value)
	case *IndexTarget:
		if err := v.expr(tt.Value); err != nil {
			return err
		}
		return v.expr(tt.Index)
	case *StarTarget:
		return v.target(tt.Target)
	case *TupleTarget:
		for _, e := range tt.Elements {
			if err := v.target(e); err != nil {
				return err
			}
		}
	case *ListTarget:
		for _, e := range tt.Elements {
			if err := v.target(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *validator) params(params []Parameter) *ParseError {
	for _, param := range params {
		if param.Default != nil {
			if err := v.expr(param.Default); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *validator) exprs(list []Expr) *ParseError {
	for _, x := range list {
		if err := v.expr(x); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) parts(parts []FStringPart) *ParseError {
	for _, part := range parts {
		if part.X == nil {
			continue
		}
		if err := v.expr(part.X); err != nil {
			return err
		}
		if err := v.parts(part.Spec); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) expr(x Expr) *ParseError {
	switch e := x.(type) {
	case *Name:
		return v.name(e.Name, e.Loc)
	case *FieldIndex:
		return v.field(e)
	case *FStringLit:
		return v.parts(e.Parts)
	case *UnaryExpr:
		return v.expr(e.X)
	case *BinaryExpr:
		if err := v.expr(e.Left); err != nil {
			return err
		}
		return v.expr(e.Right)
	case *AugAssignExpr:
		if err := v.target(e.Target); err != nil {
			return err
		}
		return v.expr(e.Value)
	case *PrefixIncrExpr:
		return v.target(e.Target)
	case *PostfixIncrExpr:
		return v.target(e.Target)
	case *CompareExpr:
		if err := v.expr(e.Left); err != nil {
			return err
		}
		return v.exprs(e.Comparators)
	case *IfExpr:
		if err := v.expr(e.Test); err != nil {
			return err
		}
		if err := v.expr(e.Body); err != nil {
			return err
		}
		return v.expr(e.OrElse)
	case *TryExpr:
		if err := v.expr(e.X); err != nil {
			return err
		}
		if e.Fallback != nil {
			return v.expr(e.Fallback)
		}
	case *YieldExpr:
		if e.Value != nil {
			return v.expr(e.Value)
		}
	case *YieldFromExpr:
		return v.expr(e.X)
	case *LambdaExpr:
		if err := v.params(e.Params); err != nil {
			return err
		}
		return v.stmts(e.Body)
	case *CompoundExpr:
		return v.exprs(e.Exprs)
	case *RegexLit:
		return v.parts(e.Pattern.Parts)
	case *RegexMatchExpr:
		if err := v.expr(e.Value); err != nil {
			return err
		}
		return v.parts(e.Pattern.Parts)
	case *SubprocessLit:
		return v.parts(e.Parts)
	case *CallExpr:
		if err := v.expr(e.Func); err != nil {
			return err
		}
		for _, arg := range e.Args {
			if err := v.expr(arg.Value); err != nil {
				return err
			}
		}
	case *AttrExpr:
		return v.expr(e.Value)
	case *IndexExpr:
		if err := v.expr(e.Value); err != nil {
			return err
		}
		return v.expr(e.Index)
	case *ParenExpr:
		return v.expr(e.X)
	case *ListLit:
		return v.exprs(e.Elements)
	case *TupleLit:
		return v.exprs(e.Elements)
	case *SetLit:
		return v.exprs(e.Elements)
	case *DictLit:
		for _, entry := range e.Entries {
			if err := v.expr(entry.Key); err != nil {
				return err
			}
			if err := v.expr(entry.Value); err != nil {
				return err
			}
		}
	case *ListComp:
		if err := v.expr(e.Element); err != nil {
			return err
		}
		if err := v.expr(e.Iter); err != nil {
			return err
		}
		return v.exprs(e.Ifs)
	case *DictComp:
		if err := v.expr(e.Key); err != nil {
			return err
		}
		if err := v.expr(e.Value); err != nil {
			return err
		}
		if err := v.expr(e.Iter); err != nil {
			return err
		}
		return v.exprs(e.Ifs)
	case *SliceExpr:
		if e.Start != nil {
			if err := v.expr(e.Start); err != nil {
				return err
			}
		}
		if e.End != nil {
			return v.expr(e.End)
		}
	}
	return nil
}
