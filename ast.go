// ast.go: the source-language syntax tree
//
// Nodes are plain immutable structs built bottom-up by the parser and
// never mutated afterward; lowering reads this tree and produces a fresh
// target tree (pyast.go). Every node carries the span of the source text
// it covers. The Stmt, Expr, and AssignTarget interfaces are closed sums:
// the unexported marker methods keep variants confined to this package so
// a type switch over them is exhaustive.

package snail

// Node is anything with a source span.
type Node interface {
	Span() Span
}

// Stmt is implemented by all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by all expression nodes.
type Expr interface {
	Node
	exprNode()
}

// AssignTarget is implemented by the node kinds that may appear on the
// left of "=", in for headers, and in let conditions.
type AssignTarget interface {
	Node
	targetNode()
}

// span is embedded by every node to supply Span.
type span struct{ Loc Span }

func (s span) Span() Span { return s.Loc }

// Program is a parsed source file: a flat statement list plus the span
// of the whole input.
type Program struct {
	Stmts []Stmt
	Loc   Span

	// Source is the text the program was parsed from. The validator
	// reads it to check statement separators and to attach source
	// lines to diagnostics.
	Source string
}

func (p *Program) Span() Span { return p.Loc }

/* ---------- conditions ---------- */

// Cond is an if/while condition. A plain test has a nil Target; a
// "let target = value; guard" pattern sets Target and Value, with Guard
// optional. Let conditions succeed when destructuring does not raise and
// the guard (if any) is truthy.
type Cond struct {
	Target AssignTarget
	Value  Expr
	Guard  Expr
	Loc    Span
}

// IsLet reports whether the condition is a let binding pattern.
func (c Cond) IsLet() bool { return c.Target != nil }

func (c Cond) Span() Span {
	if c.Target == nil && c.Value != nil {
		return c.Value.Span()
	}
	return c.Loc
}

// Elif is one "elif cond { body }" arm of an if statement.
type Elif struct {
	Cond Cond
	Body []Stmt
}

/* ---------- statements ---------- */

type IfStmt struct {
	Cond  Cond
	Body  []Stmt
	Elifs []Elif
	Else  []Stmt // nil when absent
	span
}

type WhileStmt struct {
	Cond Cond
	Body []Stmt
	Else []Stmt
	span
}

type ForStmt struct {
	Target AssignTarget
	Iter   Expr
	Body   []Stmt
	Else   []Stmt
	span
}

type DefStmt struct {
	Name   string
	Params []Parameter
	Body   []Stmt
	span
}

type ClassStmt struct {
	Name string
	Body []Stmt
	span
}

type TryStmt struct {
	Body     []Stmt
	Handlers []ExceptHandler
	Else     []Stmt
	Finally  []Stmt
	span
}

// ExceptHandler is one "except [type [as name]] { body }" clause.
type ExceptHandler struct {
	Type Expr   // nil for a bare except
	Name string // "" when unbound
	Body []Stmt
	Loc  Span
}

type WithStmt struct {
	Items []WithItem
	Body  []Stmt
	span
}

// WithItem is one "context [as target]" entry of a with statement.
type WithItem struct {
	Context Expr
	Target  AssignTarget // nil when absent
	Loc     Span
}

type ReturnStmt struct {
	Value Expr // nil for a bare return
	span
}

type RaiseStmt struct {
	Value Expr // nil for a bare re-raise
	From  Expr
	span
}

type AssertStmt struct {
	Test    Expr
	Message Expr // nil when absent
	span
}

type DeleteStmt struct {
	Targets []AssignTarget
	span
}

type BreakStmt struct{ span }

type ContinueStmt struct{ span }

type PassStmt struct{ span }

// ImportItem is a dotted module path with an optional alias, shared by
// import and from-import statements.
type ImportItem struct {
	Path  []string
	Alias string // "" when absent
	Loc   Span
}

type ImportStmt struct {
	Items []ImportItem
	span
}

// ImportFromStmt covers "from [..]module import names" and the star form.
// Level counts leading dots for relative imports.
type ImportFromStmt struct {
	Level  int
	Module []string // nil for a purely relative "from . import x"
	Items  []ImportItem
	Star   bool // "from m import *"; Items is empty
	span
}

// AssignStmt holds exactly one target list. A destructuring "a, b = v"
// parses as a single TupleTarget.
type AssignStmt struct {
	Targets []AssignTarget
	Value   Expr
	span
}

// ExprStmt is a bare expression statement. SemiTerminated records whether
// a ";" followed it in the original text, which suppresses auto-printing
// of a trailing expression.
type ExprStmt struct {
	Value          Expr
	SemiTerminated bool
	span
}

func (*IfStmt) stmtNode()         {}
func (*WhileStmt) stmtNode()      {}
func (*ForStmt) stmtNode()        {}
func (*DefStmt) stmtNode()        {}
func (*ClassStmt) stmtNode()      {}
func (*TryStmt) stmtNode()        {}
func (*WithStmt) stmtNode()       {}
func (*ReturnStmt) stmtNode()     {}
func (*RaiseStmt) stmtNode()      {}
func (*AssertStmt) stmtNode()     {}
func (*DeleteStmt) stmtNode()     {}
func (*BreakStmt) stmtNode()      {}
func (*ContinueStmt) stmtNode()   {}
func (*PassStmt) stmtNode()       {}
func (*ImportStmt) stmtNode()     {}
func (*ImportFromStmt) stmtNode() {}
func (*AssignStmt) stmtNode()     {}
func (*ExprStmt) stmtNode()       {}

/* ---------- assignment targets ---------- */

type NameTarget struct {
	Name string
	span
}

type AttrTarget struct {
	Value Expr
	Attr  string
	span
}

type IndexTarget struct {
	Value Expr
	Index Expr
	span
}

type StarTarget struct {
	Target AssignTarget
	span
}

type TupleTarget struct {
	Elements []AssignTarget
	span
}

type ListTarget struct {
	Elements []AssignTarget
	span
}

func (*NameTarget) targetNode()  {}
func (*AttrTarget) targetNode()  {}
func (*IndexTarget) targetNode() {}
func (*StarTarget) targetNode()  {}
func (*TupleTarget) targetNode() {}
func (*ListTarget) targetNode()  {}

/* ---------- expressions ---------- */

type Name struct {
	Name string
	span
}

// Placeholder is the "_" pipeline argument marker.
type Placeholder struct{ span }

// NumberLit keeps the literal text verbatim; the target language shares
// the numeric grammar, so no value conversion ever happens.
type NumberLit struct {
	Value string
	span
}

// StringLit is a non-interpolated string. Value holds the content between
// the delimiters; for non-raw strings escape sequences are preserved
// as written, since the target language understands the same ones.
type StringLit struct {
	Value string
	Raw   bool
	Bytes bool
	Delim StringDelim
	span
}

// FStringLit is a string literal with at least one {expr} hole. Strings
// interpolate by default; only raw strings opt out.
type FStringLit struct {
	Parts []FStringPart
	Bytes bool
	span
}

type BoolLit struct {
	Value bool
	span
}

type NoneLit struct{ span }

type UnaryExpr struct {
	Op UnaryOp
	X  Expr
	span
}

type BinaryExpr struct {
	Left  Expr
	Op    BinaryOp
	Right Expr
	span
}

// AugAssignExpr is "target op= value". It is an expression so it can
// appear anywhere a value can, matching the increment forms.
type AugAssignExpr struct {
	Target AssignTarget
	Op     AugOp
	Value  Expr
	span
}

type PrefixIncrExpr struct {
	Op     IncrOp
	Target AssignTarget
	span
}

type PostfixIncrExpr struct {
	Op     IncrOp
	Target AssignTarget
	span
}

// CompareExpr is a chained comparison: Left followed by pairwise
// (Ops[i], Comparators[i]).
type CompareExpr struct {
	Left        Expr
	Ops         []CompareOp
	Comparators []Expr
	span
}

// IfExpr is the conditional expression "body if test else orelse".
type IfExpr struct {
	Test   Expr
	Body   Expr
	OrElse Expr
	span
}

// TryExpr is the compact try suffix: "expr?" or "expr:fallback?". The
// fallback, when present, is written before the question mark.
type TryExpr struct {
	X        Expr
	Fallback Expr // nil for the bare form
	span
}

type YieldExpr struct {
	Value Expr // nil for a bare yield
	span
}

type YieldFromExpr struct {
	X Expr
	span
}

// LambdaExpr is "def (params) { body }". The body is a statement block;
// lowering decides whether it fits a target lambda or must be hoisted
// into a named function definition.
type LambdaExpr struct {
	Params []Parameter
	Body   []Stmt
	span
}

// CompoundExpr is "(a; b; c)": evaluate all, yield the last.
type CompoundExpr struct {
	Exprs []Expr
	span
}

type RegexLit struct {
	Pattern RegexPattern
	span
}

// RegexMatchExpr is the "value in /pattern/" match test.
type RegexMatchExpr struct {
	Value   Expr
	Pattern RegexPattern
	span
}

type SubprocessLit struct {
	Kind  SubprocessKind
	Parts []FStringPart
	span
}

// AccessorLit is the structured accessor "$[query]". The query text is
// kept verbatim and embedded as a string at lowering time.
type AccessorLit struct {
	Query string
	span
}

type CallExpr struct {
	Func Expr
	Args []Argument
	span
}

type AttrExpr struct {
	Value Expr
	Attr  string
	span
}

type IndexExpr struct {
	Value Expr
	Index Expr
	span
}

// ParenExpr records explicit grouping parentheses. Lowering drops the
// grouping; the renderer re-parenthesizes from operator structure alone.
type ParenExpr struct {
	X Expr
	span
}

// FieldIndex is "$0", "$1", ... with the digits kept as text so lowering
// can validate them.
type FieldIndex struct {
	Index string
	span
}

type ListLit struct {
	Elements []Expr
	span
}

type TupleLit struct {
	Elements []Expr
	span
}

type SetLit struct {
	Elements []Expr
	span
}

type DictLit struct {
	Entries []DictEntry
	span
}

// DictEntry is one key: value pair of a dict literal.
type DictEntry struct {
	Key   Expr
	Value Expr
}

type ListComp struct {
	Element Expr
	Target  string
	Iter    Expr
	Ifs     []Expr
	span
}

type DictComp struct {
	Key    Expr
	Value  Expr
	Target string
	Iter   Expr
	Ifs    []Expr
	span
}

type SliceExpr struct {
	Start Expr // nil when omitted
	End   Expr
	span
}

func (*Name) exprNode()            {}
func (*Placeholder) exprNode()     {}
func (*NumberLit) exprNode()       {}
func (*StringLit) exprNode()       {}
func (*FStringLit) exprNode()      {}
func (*BoolLit) exprNode()         {}
func (*NoneLit) exprNode()         {}
func (*UnaryExpr) exprNode()       {}
func (*BinaryExpr) exprNode()      {}
func (*AugAssignExpr) exprNode()   {}
func (*PrefixIncrExpr) exprNode()  {}
func (*PostfixIncrExpr) exprNode() {}
func (*CompareExpr) exprNode()     {}
func (*IfExpr) exprNode()          {}
func (*TryExpr) exprNode()         {}
func (*YieldExpr) exprNode()       {}
func (*YieldFromExpr) exprNode()   {}
func (*LambdaExpr) exprNode()      {}
func (*CompoundExpr) exprNode()    {}
func (*RegexLit) exprNode()        {}
func (*RegexMatchExpr) exprNode()  {}
func (*SubprocessLit) exprNode()   {}
func (*AccessorLit) exprNode()     {}
func (*CallExpr) exprNode()        {}
func (*AttrExpr) exprNode()        {}
func (*IndexExpr) exprNode()       {}
func (*ParenExpr) exprNode()       {}
func (*FieldIndex) exprNode()      {}
func (*ListLit) exprNode()         {}
func (*TupleLit) exprNode()        {}
func (*SetLit) exprNode()          {}
func (*DictLit) exprNode()         {}
func (*ListComp) exprNode()        {}
func (*DictComp) exprNode()        {}
func (*SliceExpr) exprNode()       {}

/* ---------- interpolated-literal parts ---------- */

// FStringPart is one segment of an interpolated literal: literal text
// when X is nil, otherwise an embedded expression. The same part type
// serves f-strings, regex patterns, and subprocess command bodies;
// conversion and format specs only ever appear inside f-strings.
type FStringPart struct {
	Text string
	X    Expr
	Conv FConv
	Spec []FStringPart // nil when no format spec
}

// RegexPattern is the body of a /.../ literal: a plain string, or
// interpolated parts when the pattern contains {expr} holes.
type RegexPattern struct {
	Literal      string
	Parts        []FStringPart
	Interpolated bool
}

/* ---------- parameters & arguments ---------- */

// Parameter is one entry of a def/lambda parameter list.
type Parameter struct {
	Kind    ParamKind
	Name    string
	Default Expr // regular parameters only, nil when absent
	Loc     Span
}

// Argument is one entry of a call argument list.
type Argument struct {
	Mode  ArgMode
	Name  string // keyword arguments only
	Value Expr
	Loc   Span
}

/* ---------- operator & kind enums ---------- */

type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryNot
)

type BinaryOp int

const (
	BinOr BinaryOp = iota
	BinAnd
	BinAdd
	BinSub
	BinMul
	BinDiv
	BinFloorDiv
	BinMod
	BinPow
	BinPipe
)

type AugOp int

const (
	AugAdd AugOp = iota
	AugSub
	AugMul
	AugDiv
	AugFloorDiv
	AugMod
	AugPow
)

// symbol returns the operator text passed to the augmented-assignment
// runtime helpers.
func (op AugOp) symbol() string {
	switch op {
	case AugAdd:
		return "+"
	case AugSub:
		return "-"
	case AugMul:
		return "*"
	case AugDiv:
		return "/"
	case AugFloorDiv:
		return "//"
	case AugMod:
		return "%"
	case AugPow:
		return "**"
	}
	return "?"
}

type IncrOp int

const (
	Increment IncrOp = iota
	Decrement
)

type CompareOp int

const (
	CmpEq CompareOp = iota
	CmpNotEq
	CmpLt
	CmpLtEq
	CmpGt
	CmpGtEq
	CmpIn
	CmpNotIn
	CmpIs
	CmpIsNot
)

type StringDelim int

const (
	DelimSingle StringDelim = iota
	DelimDouble
	DelimTripleSingle
	DelimTripleDouble
)

type SubprocessKind int

const (
	SubprocessCapture SubprocessKind = iota // $(cmd): capture stdout
	SubprocessStatus                        // @(cmd): exit status
)

// FConv is an f-string conversion flag: none, !s, !r, or !a.
type FConv int

const (
	FConvNone FConv = iota
	FConvStr
	FConvRepr
	FConvAscii
)

type ParamKind int

const (
	ParamRegular ParamKind = iota
	ParamVarArgs
	ParamKwArgs
)

type ArgMode int

const (
	ArgPositional ArgMode = iota
	ArgKeyword
	ArgStar
	ArgKwStar
)
