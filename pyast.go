// pyast.go: the target-language syntax tree produced by lowering
//
// A deliberately small subset of the target language, shaped for the
// renderer: no operator precedence is recorded because render.go fully
// parenthesizes, and lambdas take plain name parameters because lowering
// hoists anything richer into a function definition. Spans are copied
// from the source nodes that produced each target node.

package snail

// PyNode is anything in the target tree with a source span.
type PyNode interface {
	Span() Span
}

// PyStmt is implemented by all target statement nodes.
type PyStmt interface {
	PyNode
	pyStmtNode()
}

// PyExpr is implemented by all target expression nodes.
type PyExpr interface {
	PyNode
	pyExprNode()
}

// PyModule is a lowered program: a flat statement list.
type PyModule struct {
	Body []PyStmt
	Loc  Span
}

func (m *PyModule) Span() Span { return m.Loc }

/* ---------- statements ---------- */

type PyIf struct {
	Test   PyExpr
	Body   []PyStmt
	OrElse []PyStmt
	span
}

type PyWhile struct {
	Test   PyExpr
	Body   []PyStmt
	OrElse []PyStmt
	span
}

type PyFor struct {
	Target PyExpr
	Iter   PyExpr
	Body   []PyStmt
	OrElse []PyStmt
	span
}

type PyFunctionDef struct {
	Name   string
	Params []PyParam
	Body   []PyStmt
	span
}

type PyClassDef struct {
	Name string
	Body []PyStmt
	span
}

type PyTry struct {
	Body      []PyStmt
	Handlers  []PyExceptHandler
	OrElse    []PyStmt
	FinalBody []PyStmt
	span
}

// PyExceptHandler is one except clause. A nil Type renders as a bare
// "except:".
type PyExceptHandler struct {
	Type PyExpr
	Name string
	Body []PyStmt
	Loc  Span
}

type PyWith struct {
	Items []PyWithItem
	Body  []PyStmt
	span
}

type PyWithItem struct {
	Context PyExpr
	Target  PyExpr // nil when there is no "as" clause
}

type PyReturn struct {
	Value PyExpr
	span
}

type PyRaise struct {
	Value PyExpr
	From  PyExpr
	span
}

type PyAssert struct {
	Test    PyExpr
	Message PyExpr
	span
}

type PyDelete struct {
	Targets []PyExpr
	span
}

type PyBreak struct{ span }

type PyContinue struct{ span }

type PyPass struct{ span }

type PyImport struct {
	Names []PyImportName
	span
}

type PyImportFrom struct {
	Level  int // leading dots of a relative import
	Module []string
	Names  []PyImportName
	Star   bool
	span
}

type PyImportName struct {
	Path []string
	As   string
}

type PyAssign struct {
	Targets []PyExpr
	Value   PyExpr
	span
}

// PyExprStmt is a bare expression statement. SemiTerminated mirrors the
// source flag and controls the auto-print epilogue.
type PyExprStmt struct {
	Value          PyExpr
	SemiTerminated bool
	span
}

func (*PyIf) pyStmtNode()          {}
func (*PyWhile) pyStmtNode()       {}
func (*PyFor) pyStmtNode()         {}
func (*PyFunctionDef) pyStmtNode() {}
func (*PyClassDef) pyStmtNode()    {}
func (*PyTry) pyStmtNode()         {}
func (*PyWith) pyStmtNode()        {}
func (*PyReturn) pyStmtNode()      {}
func (*PyRaise) pyStmtNode()       {}
func (*PyAssert) pyStmtNode()      {}
func (*PyDelete) pyStmtNode()      {}
func (*PyBreak) pyStmtNode()       {}
func (*PyContinue) pyStmtNode()    {}
func (*PyPass) pyStmtNode()        {}
func (*PyImport) pyStmtNode()      {}
func (*PyImportFrom) pyStmtNode()  {}
func (*PyAssign) pyStmtNode()      {}
func (*PyExprStmt) pyStmtNode()    {}

/* ---------- expressions ---------- */

type PyName struct {
	ID string
	span
}

type PyNumber struct {
	Value string
	span
}

type PyString struct {
	Value string
	Raw   bool
	Bytes bool
	Delim StringDelim
	span
}

type PyFString struct {
	Parts []PyFStringPart
	span
}

// PyFStringPart mirrors FStringPart on the target side.
type PyFStringPart struct {
	Text string
	X    PyExpr
	Conv FConv
	Spec []PyFStringPart
}

type PyBool struct {
	Value bool
	span
}

type PyNone struct{ span }

type PyUnary struct {
	Op PyUnaryOp
	X  PyExpr
	span
}

type PyBinary struct {
	Left  PyExpr
	Op    PyBinOp
	Right PyExpr
	span
}

type PyCompare struct {
	Left        PyExpr
	Ops         []PyCmpOp
	Comparators []PyExpr
	span
}

type PyIfExpr struct {
	Test   PyExpr
	Body   PyExpr
	OrElse PyExpr
	span
}

// PyLambda takes plain parameter names only; defaults and star forms
// force lowering to hoist a function definition instead.
type PyLambda struct {
	Params []string
	Body   PyExpr
	span
}

// PyNamed is the assignment expression "(name := value)".
type PyNamed struct {
	Target string
	Value  PyExpr
	span
}

// PyStarred is a "*x" element inside assignment targets and del lists.
type PyStarred struct {
	X PyExpr
	span
}

// PyYield covers both the bare and valued forms; a nil Value renders as
// a plain "yield".
type PyYield struct {
	Value PyExpr
	span
}

type PyYieldFrom struct {
	X PyExpr
	span
}

type PyCall struct {
	Func PyExpr
	Args []PyArg
	span
}

type PyArg struct {
	Mode  ArgMode
	Name  string
	Value PyExpr
}

type PyAttr struct {
	Value PyExpr
	Attr  string
	span
}

type PyIndex struct {
	Value PyExpr
	Index PyExpr
	span
}

type PyList struct {
	Elements []PyExpr
	span
}

type PyTuple struct {
	Elements []PyExpr
	span
}

type PySet struct {
	Elements []PyExpr
	span
}

type PyDict struct {
	Entries []PyDictEntry
	span
}

type PyDictEntry struct {
	Key   PyExpr
	Value PyExpr
}

type PyListComp struct {
	Element PyExpr
	Target  string
	Iter    PyExpr
	Ifs     []PyExpr
	span
}

type PyDictComp struct {
	Key    PyExpr
	Value  PyExpr
	Target string
	Iter   PyExpr
	Ifs    []PyExpr
	span
}

type PySlice struct {
	Start PyExpr
	End   PyExpr
	span
}

func (*PyName) pyExprNode()      {}
func (*PyNumber) pyExprNode()    {}
func (*PyString) pyExprNode()    {}
func (*PyFString) pyExprNode()   {}
func (*PyBool) pyExprNode()      {}
func (*PyNone) pyExprNode()      {}
func (*PyUnary) pyExprNode()     {}
func (*PyBinary) pyExprNode()    {}
func (*PyCompare) pyExprNode()   {}
func (*PyIfExpr) pyExprNode()    {}
func (*PyLambda) pyExprNode()    {}
func (*PyNamed) pyExprNode()     {}
func (*PyStarred) pyExprNode()   {}
func (*PyYield) pyExprNode()     {}
func (*PyYieldFrom) pyExprNode() {}
func (*PyCall) pyExprNode()      {}
func (*PyAttr) pyExprNode()      {}
func (*PyIndex) pyExprNode()     {}
func (*PyList) pyExprNode()      {}
func (*PyTuple) pyExprNode()     {}
func (*PySet) pyExprNode()       {}
func (*PyDict) pyExprNode()      {}
func (*PyListComp) pyExprNode()  {}
func (*PyDictComp) pyExprNode()  {}
func (*PySlice) pyExprNode()     {}

/* ---------- parameters & operators ---------- */

type PyParam struct {
	Kind    ParamKind
	Name    string
	Default PyExpr
}

type PyUnaryOp int

const (
	PyUPlus PyUnaryOp = iota
	PyUMinus
	PyUNot
)

type PyBinOp int

const (
	PyOpOr PyBinOp = iota
	PyOpAnd
	PyOpAdd
	PyOpSub
	PyOpMul
	PyOpDiv
	PyOpFloorDiv
	PyOpMod
	PyOpPow
)

type PyCmpOp int

const (
	PyCmpEq PyCmpOp = iota
	PyCmpNotEq
	PyCmpLt
	PyCmpLtEq
	PyCmpGt
	PyCmpGtEq
	PyCmpIn
	PyCmpNotIn
	PyCmpIs
	PyCmpIsNot
)
