// parser.go: recursive descent over the lexed token stream.
//
// The parser owns statement structure: keyword dispatch, block parsing,
// the statement separator discipline, and conversion of expressions into
// assignment targets. Operator precedence lives in parser_expr.go, and
// the interpolated-literal machinery in interp.go. All spans are offsets
// into the original source; the record separators written by the
// preprocessor never reach the AST.

package snail

import "fmt"

type parser struct {
	src  string
	toks []Token
	pos  int
}

// parseSource runs the full front half on one source text: preprocess,
// lex, parse. Validation is the caller's problem.
func parseSource(src string) (*Program, *ParseError) {
	pre, err := preprocess(src)
	if err != nil {
		return nil, err
	}
	toks, err := lexSource(src, pre)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	stmts, err := p.stmtList(EOF)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(EOF, "end of input"); err != nil {
		return nil, err
	}
	return &Program{Stmts: stmts, Loc: fullSpan(src), Source: src}, nil
}

// parseInlineExpr parses frag, a slice of full starting at base, as a
// single expression. Token offsets, node spans, and errors all come out
// in full-source coordinates. The whole fragment must be consumed; this
// is the entry point for expressions embedded in interpolated literals.
func parseInlineExpr(frag, full string, base int) (Expr, *ParseError) {
	toks, err := lexFragment(frag, full, base)
	if err != nil {
		return nil, err
	}
	p := &parser{src: full, toks: toks}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(EOF) {
		rest := frag[p.cur().Start-base:]
		sp := spanAt(full, p.cur().Start, base+len(frag))
		return nil, errorAt(fmt.Sprintf("unexpected characters in f-string expression: %q", rest), sp, full)
	}
	return x, nil
}

/* ---------- token cursor ---------- */

func (p *parser) cur() Token { return p.toks[p.pos] }

func (p *parser) peek(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) at(t TokenType) bool { return p.cur().Type == t }

func (p *parser) advance() Token {
	t := p.toks[p.pos]
	if t.Type != EOF {
		p.pos++
	}
	return t
}

// prevEnd is the end offset of the last consumed token, used to close
// node spans.
func (p *parser) prevEnd() int {
	if p.pos == 0 {
		return 0
	}
	return p.toks[p.pos-1].End
}

func (p *parser) spanFrom(start int) Span { return spanAt(p.src, start, p.prevEnd()) }

func (p *parser) tokenSpan(t Token) Span { return spanAt(p.src, t.Start, t.End) }

func (p *parser) errHere(format string, args ...any) *ParseError {
	return errorAt(fmt.Sprintf(format, args...), p.tokenSpan(p.cur()), p.src)
}

func (p *parser) errAtSpan(sp Span, format string, args ...any) *ParseError {
	return errorAt(fmt.Sprintf(format, args...), sp, p.src)
}

func (p *parser) expect(t TokenType, what string) (Token, *ParseError) {
	if !p.at(t) {
		return Token{}, p.errHere("expected %s, found %s", what, tokenName(p.cur()))
	}
	return p.advance(), nil
}

/* ---------- statement lists ---------- */

// stmtList parses statements up to the closing token, skipping empty
// separators. Every simple statement must be followed by a separator,
// the closer, or end of input; compound statements end in a block and
// satisfy the rule by construction.
func (p *parser) stmtList(end TokenType) ([]Stmt, *ParseError) {
	var stmts []Stmt
	for {
		for p.at(STMTSEP) {
			p.advance()
		}
		if p.at(end) || p.at(EOF) {
			return stmts, nil
		}
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
		if p.at(STMTSEP) || p.at(end) || p.at(EOF) {
			continue
		}
		return nil, p.errHere("expected statement separator")
	}
}

func (p *parser) block() ([]Stmt, *ParseError) {
	if _, err := p.expect(LBRACE, "'{'"); err != nil {
		return nil, err
	}
	stmts, err := p.stmtList(RBRACE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *parser) statement() (Stmt, *ParseError) {
	switch p.cur().Type {
	case KWIF:
		return p.ifStmt()
	case KWWHILE:
		return p.whileStmt()
	case KWFOR:
		return p.forStmt()
	case KWDEF:
		// "def name" opens a function statement; anything else after
		// the keyword is a def expression used as a value.
		if p.peek(1).Type == IDENT {
			return p.defStmt()
		}
		return p.simpleStmt()
	case KWCLASS:
		return p.classStmt()
	case KWTRY:
		return p.tryStmt()
	case KWWITH:
		return p.withStmt()
	case KWRETURN:
		return p.returnStmt()
	case KWRAISE:
		return p.raiseStmt()
	case KWASSERT:
		return p.assertStmt()
	case KWDEL:
		return p.delStmt()
	case KWBREAK:
		t := p.advance()
		return &BreakStmt{span{p.tokenSpan(t)}}, nil
	case KWCONTINUE:
		t := p.advance()
		return &ContinueStmt{span{p.tokenSpan(t)}}, nil
	case KWPASS:
		t := p.advance()
		return &PassStmt{span{p.tokenSpan(t)}}, nil
	case KWIMPORT:
		return p.importStmt()
	case KWFROM:
		return p.importFromStmt()
	default:
		return p.simpleStmt()
	}
}

/* ---------- compound statements ---------- */

func (p *parser) ifStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	var elifs []Elif
	for p.at(KWELIF) {
		p.advance()
		c, err := p.condition()
		if err != nil {
			return nil, err
		}
		b, err := p.block()
		if err != nil {
			return nil, err
		}
		elifs = append(elifs, Elif{Cond: c, Body: b})
	}
	var orelse []Stmt
	if p.at(KWELSE) {
		p.advance()
		if orelse, err = p.block(); err != nil {
			return nil, err
		}
	}
	return &IfStmt{Cond: cond, Body: body, Elifs: elifs, Else: orelse, span: span{p.spanFrom(start)}}, nil
}

func (p *parser) whileStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	var orelse []Stmt
	if p.at(KWELSE) {
		p.advance()
		if orelse, err = p.block(); err != nil {
			return nil, err
		}
	}
	return &WhileStmt{Cond: cond, Body: body, Else: orelse, span: span{p.spanFrom(start)}}, nil
}

// condition parses an if/while condition: a plain expression, or a
// "let target = value" binding with an optional "; guard" tail.
func (p *parser) condition() (Cond, *ParseError) {
	if !p.at(KWLET) {
		x, err := p.parseExpr()
		if err != nil {
			return Cond{}, err
		}
		return Cond{Value: x, Loc: x.Span()}, nil
	}
	start := p.advance().Start
	target, err := p.targetList(func(t TokenType) bool { return t == ASSIGN })
	if err != nil {
		return Cond{}, err
	}
	if _, err := p.expect(ASSIGN, "'='"); err != nil {
		return Cond{}, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return Cond{}, err
	}
	var guard Expr
	if p.at(STMTSEP) && p.cur().Lexeme == ";" {
		p.advance()
		if guard, err = p.parseExpr(); err != nil {
			return Cond{}, err
		}
	}
	return Cond{Target: target, Value: value, Guard: guard, Loc: p.spanFrom(start)}, nil
}

func (p *parser) forStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	target, err := p.targetList(func(t TokenType) bool { return t == KWIN })
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KWIN, "'in'"); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	var orelse []Stmt
	if p.at(KWELSE) {
		p.advance()
		if orelse, err = p.block(); err != nil {
			return nil, err
		}
	}
	return &ForStmt{Target: target, Iter: iter, Body: body, Else: orelse, span: span{p.spanFrom(start)}}, nil
}

func (p *parser) defStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	name, err := p.expect(IDENT, "function name")
	if err != nil {
		return nil, err
	}
	params, perr := p.optionalParams()
	if perr != nil {
		return nil, perr
	}
	body, perr := p.block()
	if perr != nil {
		return nil, perr
	}
	return &DefStmt{Name: name.Lexeme, Params: params, Body: body, span: span{p.spanFrom(start)}}, nil
}

// optionalParams parses "(params)" when present; the parameter list is
// optional on both def statements and def expressions.
func (p *parser) optionalParams() ([]Parameter, *ParseError) {
	if !p.at(LPAREN) {
		return nil, nil
	}
	p.advance()
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *parser) paramList() ([]Parameter, *ParseError) {
	var params []Parameter
	for !p.at(RPAREN) && !p.at(EOF) {
		start := p.cur().Start
		kind := ParamRegular
		switch p.cur().Type {
		case STAR:
			p.advance()
			kind = ParamVarArgs
		case DOUBLESTAR:
			p.advance()
			kind = ParamKwArgs
		}
		name, err := p.expect(IDENT, "parameter name")
		if err != nil {
			return nil, err
		}
		var def Expr
		if kind == ParamRegular && p.at(ASSIGN) {
			p.advance()
			if def, err = p.parseExpr(); err != nil {
				return nil, err
			}
		}
		params = append(params, Parameter{Kind: kind, Name: name.Lexeme, Default: def, Loc: p.spanFrom(start)})
		if !p.at(COMMA) {
			break
		}
		p.advance()
	}
	return params, nil
}

func (p *parser) classStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	name, err := p.expect(IDENT, "class name")
	if err != nil {
		return nil, err
	}
	body, perr := p.block()
	if perr != nil {
		return nil, perr
	}
	return &ClassStmt{Name: name.Lexeme, Body: body, span: span{p.spanFrom(start)}}, nil
}

func (p *parser) tryStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	var handlers []ExceptHandler
	for p.at(KWEXCEPT) {
		hstart := p.advance().Start
		var typ Expr
		var name string
		if !p.at(LBRACE) {
			if typ, err = p.parseExpr(); err != nil {
				return nil, err
			}
			if p.at(KWAS) {
				p.advance()
				tok, err := p.expect(IDENT, "exception name")
				if err != nil {
					return nil, err
				}
				name = tok.Lexeme
			}
		}
		hbody, err := p.block()
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, ExceptHandler{Type: typ, Name: name, Body: hbody, Loc: p.spanFrom(hstart)})
	}
	var orelse, finally []Stmt
	if p.at(KWELSE) {
		p.advance()
		if orelse, err = p.block(); err != nil {
			return nil, err
		}
	}
	if p.at(KWFINALLY) {
		p.advance()
		if finally, err = p.block(); err != nil {
			return nil, err
		}
	}
	if len(handlers) == 0 && finally == nil {
		return nil, p.errAtSpan(p.spanFrom(start), "try must have at least one except clause or a finally block")
	}
	return &TryStmt{Body: body, Handlers: handlers, Else: orelse, Finally: finally, span: span{p.spanFrom(start)}}, nil
}

func (p *parser) withStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	var items []WithItem
	for {
		istart := p.cur().Start
		ctx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		var target AssignTarget
		if p.at(KWAS) {
			p.advance()
			if target, err = p.targetItem(); err != nil {
				return nil, err
			}
		}
		items = append(items, WithItem{Context: ctx, Target: target, Loc: p.spanFrom(istart)})
		if !p.at(COMMA) {
			break
		}
		p.advance()
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &WithStmt{Items: items, Body: body, span: span{p.spanFrom(start)}}, nil
}

/* ---------- simple statements ---------- */

// stmtEnd reports whether the current token terminates a simple
// statement, which is how optional trailing expressions (return, raise,
// yield) detect their absence.
func (p *parser) stmtEnd() bool {
	switch p.cur().Type {
	case STMTSEP, RBRACE, EOF:
		return true
	}
	return false
}

func (p *parser) returnStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	var value Expr
	if !p.stmtEnd() {
		var err *ParseError
		if value, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	return &ReturnStmt{Value: value, span: span{p.spanFrom(start)}}, nil
}

func (p *parser) raiseStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	var value, from Expr
	if !p.stmtEnd() {
		var err *ParseError
		if value, err = p.parseExpr(); err != nil {
			return nil, err
		}
		if p.at(KWFROM) {
			p.advance()
			if from, err = p.parseExpr(); err != nil {
				return nil, err
			}
		}
	}
	return &RaiseStmt{Value: value, From: from, span: span{p.spanFrom(start)}}, nil
}

func (p *parser) assertStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var msg Expr
	if p.at(COMMA) {
		p.advance()
		if msg, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	return &AssertStmt{Test: test, Message: msg, span: span{p.spanFrom(start)}}, nil
}

func (p *parser) delStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	var targets []AssignTarget
	for {
		t, err := p.targetItem()
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
		if !p.at(COMMA) {
			break
		}
		p.advance()
	}
	return &DeleteStmt{Targets: targets, span: span{p.spanFrom(start)}}, nil
}

func (p *parser) importStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	var items []ImportItem
	for {
		istart := p.cur().Start
		path, err := p.dottedName()
		if err != nil {
			return nil, err
		}
		var alias string
		if p.at(KWAS) {
			p.advance()
			tok, err := p.expect(IDENT, "import alias")
			if err != nil {
				return nil, err
			}
			alias = tok.Lexeme
		}
		items = append(items, ImportItem{Path: path, Alias: alias, Loc: p.spanFrom(istart)})
		if !p.at(COMMA) {
			break
		}
		p.advance()
	}
	return &ImportStmt{Items: items, span: span{p.spanFrom(start)}}, nil
}

func (p *parser) importFromStmt() (Stmt, *ParseError) {
	start := p.advance().Start
	level := 0
	for p.at(PERIOD) {
		level++
		p.advance()
	}
	var module []string
	if p.at(IDENT) {
		var err *ParseError
		if module, err = p.dottedName(); err != nil {
			return nil, err
		}
	} else if level == 0 {
		return nil, p.errHere("expected module name, found %s", tokenName(p.cur()))
	}
	if _, err := p.expect(KWIMPORT, "'import'"); err != nil {
		return nil, err
	}
	if p.at(STAR) {
		p.advance()
		return &ImportFromStmt{Level: level, Module: module, Star: true, span: span{p.spanFrom(start)}}, nil
	}
	parens := p.at(LPAREN)
	if parens {
		p.advance()
	}
	var items []ImportItem
	for {
		istart := p.cur().Start
		name, err := p.expect(IDENT, "import name")
		if err != nil {
			return nil, err
		}
		var alias string
		if p.at(KWAS) {
			p.advance()
			tok, err := p.expect(IDENT, "import alias")
			if err != nil {
				return nil, err
			}
			alias = tok.Lexeme
		}
		items = append(items, ImportItem{Path: []string{name.Lexeme}, Alias: alias, Loc: p.spanFrom(istart)})
		if !p.at(COMMA) {
			break
		}
		p.advance()
		if parens && p.at(RPAREN) {
			break
		}
	}
	if parens {
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
	}
	return &ImportFromStmt{Level: level, Module: module, Items: items, span: span{p.spanFrom(start)}}, nil
}

func (p *parser) dottedName() ([]string, *ParseError) {
	tok, err := p.expect(IDENT, "module name")
	if err != nil {
		return nil, err
	}
	parts := []string{tok.Lexeme}
	for p.at(PERIOD) && p.peek(1).Type == IDENT {
		p.advance()
		parts = append(parts, p.advance().Lexeme)
	}
	return parts, nil
}

// simpleStmt parses an expression statement or an assignment. The left
// side is parsed as an expression list first; an "=" afterwards turns
// it into a target list.
func (p *parser) simpleStmt() (Stmt, *ParseError) {
	start := p.cur().Start

	type element struct {
		star bool
		x    Expr
		loc  Span
	}
	var elems []element

	readElement := func() *ParseError {
		if p.at(STAR) {
			st := p.advance()
			x, err := p.parsePostfix()
			if err != nil {
				return err
			}
			elems = append(elems, element{star: true, x: x, loc: mergeSpans(p.tokenSpan(st), x.Span())})
			return nil
		}
		x, err := p.parseExpr()
		if err != nil {
			return err
		}
		elems = append(elems, element{x: x, loc: x.Span()})
		return nil
	}

	if err := readElement(); err != nil {
		return nil, err
	}
	trailingComma := false
	for p.at(COMMA) {
		p.advance()
		if !p.at(STAR) && !p.canStartExpr() {
			trailingComma = true
			break
		}
		if err := readElement(); err != nil {
			return nil, err
		}
	}

	if p.at(ASSIGN) {
		targets := make([]AssignTarget, len(elems))
		for i, e := range elems {
			t, err := p.assignTargetFromExpr(e.x)
			if err != nil {
				return nil, err
			}
			if e.star {
				t = &StarTarget{Target: t, span: span{e.loc}}
			}
			targets[i] = t
		}
		var target AssignTarget
		if len(targets) == 1 && !trailingComma {
			target = targets[0]
		} else {
			target = &TupleTarget{Elements: targets, span: span{p.spanFrom(start)}}
		}
		p.advance()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.at(ASSIGN) {
			return nil, p.errHere("chained assignment is not supported")
		}
		return &AssignStmt{Targets: []AssignTarget{target}, Value: value, span: span{p.spanFrom(start)}}, nil
	}

	for _, e := range elems {
		if e.star {
			return nil, p.errAtSpan(e.loc, "'*' is only valid in assignment targets")
		}
	}
	var value Expr
	if len(elems) == 1 && !trailingComma {
		value = elems[0].x
	} else {
		parts := make([]Expr, len(elems))
		for i, e := range elems {
			parts[i] = e.x
		}
		value = &TupleLit{Elements: parts, span: span{p.spanFrom(start)}}
	}
	semi := p.at(STMTSEP) && p.cur().Lexeme == ";"
	return &ExprStmt{Value: value, SemiTerminated: semi, span: span{p.spanFrom(start)}}, nil
}

/* ---------- assignment targets ---------- */

// targetList parses a comma separated target list for "for" headers and
// let conditions. stop tells the list when a trailing comma has run out
// of targets.
func (p *parser) targetList(stop func(TokenType) bool) (AssignTarget, *ParseError) {
	start := p.cur().Start
	first, err := p.targetItem()
	if err != nil {
		return nil, err
	}
	if !p.at(COMMA) {
		return first, nil
	}
	elems := []AssignTarget{first}
	for p.at(COMMA) {
		p.advance()
		if stop(p.cur().Type) {
			break
		}
		item, err := p.targetItem()
		if err != nil {
			return nil, err
		}
		elems = append(elems, item)
	}
	return &TupleTarget{Elements: elems, span: span{p.spanFrom(start)}}, nil
}

// targetItem parses one assignment target: a starred item, a
// destructuring list, a parenthesized group, or a name/attribute/index
// reference.
func (p *parser) targetItem() (AssignTarget, *ParseError) {
	switch p.cur().Type {
	case STAR:
		start := p.advance().Start
		inner, err := p.targetItem()
		if err != nil {
			return nil, err
		}
		return &StarTarget{Target: inner, span: span{p.spanFrom(start)}}, nil
	case LBRACKET:
		start := p.advance().Start
		var elems []AssignTarget
		for !p.at(RBRACKET) && !p.at(EOF) {
			item, err := p.targetItem()
			if err != nil {
				return nil, err
			}
			elems = append(elems, item)
			if !p.at(COMMA) {
				break
			}
			p.advance()
		}
		if _, err := p.expect(RBRACKET, "']'"); err != nil {
			return nil, err
		}
		return &ListTarget{Elements: elems, span: span{p.spanFrom(start)}}, nil
	case LPAREN:
		start := p.advance().Start
		var elems []AssignTarget
		for !p.at(RPAREN) && !p.at(EOF) {
			item, err := p.targetItem()
			if err != nil {
				return nil, err
			}
			elems = append(elems, item)
			if !p.at(COMMA) {
				break
			}
			p.advance()
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		if len(elems) == 1 {
			return elems[0], nil
		}
		return &TupleTarget{Elements: elems, span: span{p.spanFrom(start)}}, nil
	default:
		x, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		return p.assignTargetFromExpr(x)
	}
}

// assignTargetFromExpr converts an expression that appeared to the left
// of "=" into an assignment target. Grouping parens vanish; list and
// tuple literals convert element-wise.
func (p *parser) assignTargetFromExpr(x Expr) (AssignTarget, *ParseError) {
	switch v := x.(type) {
	case *Name:
		return &NameTarget{Name: v.Name, span: span{v.Loc}}, nil
	case *AttrExpr:
		return &AttrTarget{Value: v.Value, Attr: v.Attr, span: span{v.Loc}}, nil
	case *IndexExpr:
		return &IndexTarget{Value: v.Value, Index: v.Index, span: span{v.Loc}}, nil
	case *ListLit:
		elems := make([]AssignTarget, len(v.Elements))
		for i, e := range v.Elements {
			t, err := p.assignTargetFromExpr(e)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return &ListTarget{Elements: elems, span: span{v.Loc}}, nil
	case *TupleLit:
		elems := make([]AssignTarget, len(v.Elements))
		for i, e := range v.Elements {
			t, err := p.assignTargetFromExpr(e)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return &TupleTarget{Elements: elems, span: span{v.Loc}}, nil
	case *ParenExpr:
		return p.assignTargetFromExpr(v.X)
	default:
		return nil, p.errAtSpan(x.Span(), "unsupported assignment target")
	}
}

// restrictedTarget converts an expression into a target and then limits
// it to the forms an in-place operator can rebind.
func (p *parser) restrictedTarget(x Expr, msg string) (AssignTarget, *ParseError) {
	sp := x.Span()
	target, err := p.assignTargetFromExpr(x)
	if err != nil {
		return nil, err
	}
	switch target.(type) {
	case *NameTarget, *AttrTarget, *IndexTarget:
		return target, nil
	}
	return nil, p.errAtSpan(sp, msg)
}
