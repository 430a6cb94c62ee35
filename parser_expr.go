// parser_expr.go: the expression grammar.
//
// Precedence, loosest first: augmented assignment, ternary, or, and,
// not, pipeline, comparison, sum, product, unary prefix, power, postfix
// suffixes, atoms. Comparison chains collect into a single node; "in"
// against a regex literal becomes a match test during parsing.

package snail

// canStartExpr reports whether the current token can begin an
// expression, which is how optional expression slots detect absence.
func (p *parser) canStartExpr() bool {
	switch p.cur().Type {
	case IDENT, NUMBER, STRING, REGEX, SUBPROCCAP, SUBPROCSTAT, ACCESSOR,
		DOLLARNAME, FIELDNUM, LPAREN, LBRACKET, LBRACE, SETOPEN, DICTOPEN,
		KWTRUE, KWFALSE, KWNONE, KWNOT, KWDEF, PLUS, MINUS, INCR, DECR:
		return true
	}
	return false
}

func (p *parser) parseExpr() (Expr, *ParseError) {
	if p.at(KWYIELD) {
		start := p.advance().Start
		if p.at(KWFROM) {
			p.advance()
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return &YieldFromExpr{X: x, span: span{p.spanFrom(start)}}, nil
		}
		var value Expr
		if p.canStartExpr() {
			var err *ParseError
			if value, err = p.parseExpr(); err != nil {
				return nil, err
			}
		}
		return &YieldExpr{Value: value, span: span{p.spanFrom(start)}}, nil
	}

	x, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if op, ok := augOpFor(p.cur().Type); ok {
		target, err := p.restrictedTarget(x, "augmented assignment target must be a name, attribute, or index")
		if err != nil {
			return nil, err
		}
		p.advance()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &AugAssignExpr{Target: target, Op: op, Value: value, span: span{mergeSpans(x.Span(), value.Span())}}, nil
	}
	return x, nil
}

func augOpFor(t TokenType) (AugOp, bool) {
	switch t {
	case PLUSEQ:
		return AugAdd, true
	case MINUSEQ:
		return AugSub, true
	case STAREQ:
		return AugMul, true
	case SLASHEQ:
		return AugDiv, true
	case DOUBLESLASHEQ:
		return AugFloorDiv, true
	case PERCENTEQ:
		return AugMod, true
	case DOUBLESTAREQ:
		return AugPow, true
	}
	return 0, false
}

func (p *parser) parseTernary() (Expr, *ParseError) {
	body, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.at(KWIF) {
		return body, nil
	}
	p.advance()
	test, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KWELSE, "'else'"); err != nil {
		return nil, err
	}
	orelse, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &IfExpr{Test: test, Body: body, OrElse: orelse, span: span{mergeSpans(body.Span(), orelse.Span())}}, nil
}

func (p *parser) parseOr() (Expr, *ParseError) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(KWOR) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: BinOr, Right: right, span: span{mergeSpans(left.Span(), right.Span())}}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, *ParseError) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.at(KWAND) {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: BinAnd, Right: right, span: span{mergeSpans(left.Span(), right.Span())}}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, *ParseError) {
	if p.at(KWNOT) {
		op := p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: UnaryNot, X: x, span: span{mergeSpans(p.tokenSpan(op), x.Span())}}, nil
	}
	return p.parsePipeline()
}

func (p *parser) parsePipeline() (Expr, *ParseError) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.at(PIPE) {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: BinPipe, Right: right, span: span{mergeSpans(left.Span(), right.Span())}}
	}
	return left, nil
}

// parseComparison parses a chained comparison. A single "in" or
// "not in" whose right side is a bare regex literal folds into a match
// test node instead.
func (p *parser) parseComparison() (Expr, *ParseError) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	var ops []CompareOp
	var comparators []Expr
	for {
		var op CompareOp
		switch p.cur().Type {
		case EQ:
			op = CmpEq
		case NEQ:
			op = CmpNotEq
		case LT:
			op = CmpLt
		case LTEQ:
			op = CmpLtEq
		case GT:
			op = CmpGt
		case GTEQ:
			op = CmpGtEq
		case KWIN:
			op = CmpIn
		case KWNOT:
			// Only "not in" continues the chain; a lone "not" here
			// belongs to whatever follows the comparison.
			if p.peek(1).Type != KWIN {
				op = -1
				break
			}
			p.advance()
			op = CmpNotIn
		case KWIS:
			op = CmpIs
			if p.peek(1).Type == KWNOT {
				p.advance()
				op = CmpIsNot
			}
		default:
			op = -1
		}
		if op < 0 {
			break
		}
		p.advance()
		right, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		comparators = append(comparators, right)
	}
	if len(ops) == 0 {
		return left, nil
	}
	if len(ops) == 1 && (ops[0] == CmpIn || ops[0] == CmpNotIn) {
		if re, ok := comparators[0].(*RegexLit); ok {
			sp := mergeSpans(left.Span(), re.Span())
			match := Expr(&RegexMatchExpr{Value: left, Pattern: re.Pattern, span: span{sp}})
			if ops[0] == CmpNotIn {
				match = &UnaryExpr{Op: UnaryNot, X: match, span: span{sp}}
			}
			return match, nil
		}
	}
	last := comparators[len(comparators)-1]
	return &CompareExpr{Left: left, Ops: ops, Comparators: comparators, span: span{mergeSpans(left.Span(), last.Span())}}, nil
}

func (p *parser) parseSum() (Expr, *ParseError) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		switch p.cur().Type {
		case PLUS:
			op = BinAdd
		case MINUS:
			op = BinSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: op, Right: right, span: span{mergeSpans(left.Span(), right.Span())}}
	}
}

func (p *parser) parseProduct() (Expr, *ParseError) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		switch p.cur().Type {
		case STAR:
			op = BinMul
		case SLASH:
			op = BinDiv
		case DOUBLESLASH:
			op = BinFloorDiv
		case PERCENT:
			op = BinMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: op, Right: right, span: span{mergeSpans(left.Span(), right.Span())}}
	}
}

// parseUnary collects prefix signs and increments, then applies them
// innermost first so "-++x" increments before negating.
func (p *parser) parseUnary() (Expr, *ParseError) {
	var prefixes []Token
	for {
		switch p.cur().Type {
		case PLUS, MINUS, INCR, DECR:
			prefixes = append(prefixes, p.advance())
			continue
		}
		break
	}
	x, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for i := len(prefixes) - 1; i >= 0; i-- {
		op := prefixes[i]
		sp := mergeSpans(p.tokenSpan(op), x.Span())
		switch op.Type {
		case PLUS:
			x = &UnaryExpr{Op: UnaryPlus, X: x, span: span{sp}}
		case MINUS:
			x = &UnaryExpr{Op: UnaryMinus, X: x, span: span{sp}}
		case INCR, DECR:
			target, err := p.restrictedTarget(x, "increment/decrement target must be a name, attribute, or index")
			if err != nil {
				return nil, err
			}
			incr := Increment
			if op.Type == DECR {
				incr = Decrement
			}
			x = &PrefixIncrExpr{Op: incr, Target: target, span: span{sp}}
		}
	}
	return x, nil
}

func (p *parser) parsePower() (Expr, *ParseError) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !p.at(DOUBLESTAR) {
		return base, nil
	}
	p.advance()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{Left: base, Op: BinPow, Right: exp, span: span{mergeSpans(base.Span(), exp.Span())}}, nil
}

/* ---------- postfix suffixes ---------- */

// parsePostfix parses an atom and its suffix chain: calls, attribute
// and index access, compact try, and postfix increment/decrement. A
// postfix increment must be the last suffix in the chain.
func (p *parser) parsePostfix() (Expr, *ParseError) {
	start := p.cur().Start
	x, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	postfixSeen := false
	for {
		switch p.cur().Type {
		case LPAREN:
			if postfixSeen {
				return nil, p.errHere("postfix increment/decrement must be the final suffix")
			}
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			x = &CallExpr{Func: x, Args: args, span: span{p.spanFrom(start)}}
		case PERIOD:
			if postfixSeen {
				return nil, p.errHere("postfix increment/decrement must be the final suffix")
			}
			p.advance()
			name, err := p.expect(IDENT, "attribute name")
			if err != nil {
				return nil, err
			}
			x = &AttrExpr{Value: x, Attr: name.Lexeme, span: span{p.spanFrom(start)}}
		case LBRACKET:
			if postfixSeen {
				return nil, p.errHere("postfix increment/decrement must be the final suffix")
			}
			index, err := p.indexOrSlice()
			if err != nil {
				return nil, err
			}
			x = &IndexExpr{Value: x, Index: index, span: span{p.spanFrom(start)}}
		case QUESTION:
			if postfixSeen {
				return nil, p.errHere("postfix increment/decrement must be the final suffix")
			}
			p.advance()
			if err := p.checkTryOperand(x); err != nil {
				return nil, err
			}
			x = &TryExpr{X: x, span: span{p.spanFrom(start)}}
		case COLON:
			// Tentative: only a ": fallback ?" sequence is a suffix
			// here. Anything else, including a dict entry or a slice,
			// belongs to the caller.
			save := p.pos
			colon := p.cur()
			p.advance()
			fallback, err := p.parseUnary()
			if err != nil || !p.at(QUESTION) {
				p.pos = save
				return x, nil
			}
			if postfixSeen {
				return nil, p.errAtSpan(spanAt(p.src, colon.Start, p.cur().End), "postfix increment/decrement must be the final suffix")
			}
			p.advance()
			if err := p.checkTryOperand(x); err != nil {
				return nil, err
			}
			x = &TryExpr{X: x, Fallback: fallback, span: span{p.spanFrom(start)}}
		case INCR, DECR:
			op := p.advance()
			if postfixSeen {
				return nil, p.errAtSpan(p.tokenSpan(op), "postfix increment/decrement must be the final suffix")
			}
			target, err := p.restrictedTarget(x, "increment/decrement target must be a name, attribute, or index")
			if err != nil {
				return nil, err
			}
			incr := Increment
			if op.Type == DECR {
				incr = Decrement
			}
			x = &PostfixIncrExpr{Op: incr, Target: target, span: span{p.spanFrom(start)}}
			postfixSeen = true
		default:
			return x, nil
		}
	}
}

// checkTryOperand rejects compact try over a binding expression, which
// would capture the binding inside the deferred thunk. Grouping parens
// do not hide the binding.
func (p *parser) checkTryOperand(x Expr) *ParseError {
	inner := x
	for {
		paren, ok := inner.(*ParenExpr)
		if !ok {
			break
		}
		inner = paren.X
	}
	switch inner.(type) {
	case *AugAssignExpr, *PrefixIncrExpr, *PostfixIncrExpr:
		return p.errAtSpan(inner.Span(), "compact try cannot wrap a binding expression")
	}
	return nil
}

func (p *parser) callArgs() ([]Argument, *ParseError) {
	p.advance() // "("
	var args []Argument
	for !p.at(RPAREN) && !p.at(EOF) {
		start := p.cur().Start
		var arg Argument
		switch {
		case p.at(STAR):
			p.advance()
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			arg = Argument{Mode: ArgStar, Value: value}
		case p.at(DOUBLESTAR):
			p.advance()
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			arg = Argument{Mode: ArgKwStar, Value: value}
		case p.at(IDENT) && p.peek(1).Type == ASSIGN:
			name := p.advance()
			p.advance()
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			arg = Argument{Mode: ArgKeyword, Name: name.Lexeme, Value: value}
		default:
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			arg = Argument{Mode: ArgPositional, Value: value}
		}
		arg.Loc = p.spanFrom(start)
		args = append(args, arg)
		if !p.at(COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

// indexOrSlice parses the bracketed suffix: a plain index expression or
// a lower:upper slice with either bound optional.
func (p *parser) indexOrSlice() (Expr, *ParseError) {
	open := p.advance()
	var lower Expr
	if !p.at(COLON) {
		var err *ParseError
		if lower, err = p.parseExpr(); err != nil {
			return nil, err
		}
		if !p.at(COLON) {
			if _, err := p.expect(RBRACKET, "']'"); err != nil {
				return nil, err
			}
			return lower, nil
		}
	}
	p.advance() // ":"
	var upper Expr
	if !p.at(RBRACKET) {
		var err *ParseError
		if upper, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RBRACKET, "']'"); err != nil {
		return nil, err
	}
	return &SliceExpr{Start: lower, End: upper, span: span{spanAt(p.src, open.Start, p.prevEnd())}}, nil
}

/* ---------- atoms ---------- */

func (p *parser) parseAtom() (Expr, *ParseError) {
	tok := p.cur()
	switch tok.Type {
	case IDENT:
		p.advance()
		if tok.Lexeme == "_" {
			return &Placeholder{span{p.tokenSpan(tok)}}, nil
		}
		return &Name{Name: tok.Lexeme, span: span{p.tokenSpan(tok)}}, nil
	case DOLLARNAME:
		p.advance()
		return &Name{Name: tok.Lexeme, span: span{p.tokenSpan(tok)}}, nil
	case FIELDNUM:
		p.advance()
		return &FieldIndex{Index: tok.Lexeme[1:], span: span{p.tokenSpan(tok)}}, nil
	case NUMBER:
		p.advance()
		return &NumberLit{Value: tok.Lexeme, span: span{p.tokenSpan(tok)}}, nil
	case STRING:
		p.advance()
		return p.parseStringToken(tok)
	case REGEX:
		p.advance()
		return p.parseRegexToken(tok)
	case SUBPROCCAP, SUBPROCSTAT:
		p.advance()
		return p.parseSubprocessToken(tok)
	case ACCESSOR:
		p.advance()
		return p.parseAccessorToken(tok)
	case KWTRUE:
		p.advance()
		return &BoolLit{Value: true, span: span{p.tokenSpan(tok)}}, nil
	case KWFALSE:
		p.advance()
		return &BoolLit{Value: false, span: span{p.tokenSpan(tok)}}, nil
	case KWNONE:
		p.advance()
		return &NoneLit{span{p.tokenSpan(tok)}}, nil
	case KWDEF:
		return p.lambdaExpr()
	case LPAREN:
		return p.parenAtom()
	case LBRACKET:
		return p.listAtom()
	case SETOPEN:
		return p.setAtom()
	case DICTOPEN:
		start := p.advance().Start
		return p.dictBody(start, nil)
	case LBRACE:
		return p.braceAtom()
	default:
		return nil, p.errHere("expected expression, found %s", tokenName(tok))
	}
}

func (p *parser) lambdaExpr() (Expr, *ParseError) {
	start := p.advance().Start
	params, err := p.optionalParams()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &LambdaExpr{Params: params, Body: body, span: span{p.spanFrom(start)}}, nil
}

// parenAtom disambiguates "(": the empty tuple, a grouped expression, a
// tuple display, or a semicolon-joined compound expression.
func (p *parser) parenAtom() (Expr, *ParseError) {
	start := p.advance().Start
	if p.at(RPAREN) {
		p.advance()
		return &TupleLit{span: span{p.spanFrom(start)}}, nil
	}
	if p.at(STMTSEP) {
		return p.compoundBody(start, nil)
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	switch p.cur().Type {
	case STMTSEP:
		return p.compoundBody(start, first)
	case COMMA:
		elems := []Expr{first}
		for p.at(COMMA) {
			p.advance()
			if p.at(RPAREN) {
				break
			}
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, x)
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		return &TupleLit{Elements: elems, span: span{p.spanFrom(start)}}, nil
	default:
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		return &ParenExpr{X: first, span: span{p.spanFrom(start)}}, nil
	}
}

func (p *parser) compoundBody(start int, first Expr) (Expr, *ParseError) {
	var exprs []Expr
	if first != nil {
		exprs = append(exprs, first)
	}
	for {
		for p.at(STMTSEP) {
			p.advance()
		}
		if p.at(RPAREN) {
			break
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, x)
		if !p.at(STMTSEP) {
			break
		}
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	if len(exprs) == 0 {
		return nil, p.errAtSpan(p.spanFrom(start), "compound expression requires at least one expression")
	}
	return &CompoundExpr{Exprs: exprs, span: span{p.spanFrom(start)}}, nil
}

// listAtom parses a list literal or a list comprehension.
func (p *parser) listAtom() (Expr, *ParseError) {
	start := p.advance().Start
	if p.at(RBRACKET) {
		p.advance()
		return &ListLit{span: span{p.spanFrom(start)}}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.at(KWFOR) {
		target, iter, ifs, err := p.compClauses()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACKET, "']'"); err != nil {
			return nil, err
		}
		return &ListComp{Element: first, Target: target, Iter: iter, Ifs: ifs, span: span{p.spanFrom(start)}}, nil
	}
	elems := []Expr{first}
	for p.at(COMMA) {
		p.advance()
		if p.at(RBRACKET) {
			break
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, x)
	}
	if _, err := p.expect(RBRACKET, "']'"); err != nil {
		return nil, err
	}
	return &ListLit{Elements: elems, span: span{p.spanFrom(start)}}, nil
}

// compClauses parses "for target in iter" plus any "if cond" filters.
// The iterable and conditions sit below the ternary level so a trailing
// "if" always reads as a filter.
func (p *parser) compClauses() (string, Expr, []Expr, *ParseError) {
	p.advance() // "for"
	name, err := p.expect(IDENT, "comprehension target")
	if err != nil {
		return "", nil, nil, err
	}
	if _, err := p.expect(KWIN, "'in'"); err != nil {
		return "", nil, nil, err
	}
	iter, err := p.parseOr()
	if err != nil {
		return "", nil, nil, err
	}
	var ifs []Expr
	for p.at(KWIF) {
		p.advance()
		cond, err := p.parseOr()
		if err != nil {
			return "", nil, nil, err
		}
		ifs = append(ifs, cond)
	}
	return name.Lexeme, iter, ifs, nil
}

func (p *parser) setAtom() (Expr, *ParseError) {
	start := p.advance().Start
	var elems []Expr
	for !p.at(RBRACE) && !p.at(EOF) {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, x)
		if !p.at(COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return &SetLit{Elements: elems, span: span{p.spanFrom(start)}}, nil
}

// dictBody parses dict entries after the opener, or a dict
// comprehension. firstKey is non-nil when the caller already consumed
// the first key while deciding between a set and a dict.
func (p *parser) dictBody(start int, firstKey Expr) (Expr, *ParseError) {
	if firstKey == nil {
		if p.at(RBRACE) {
			p.advance()
			return &DictLit{span: span{p.spanFrom(start)}}, nil
		}
		var err *ParseError
		if firstKey, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return nil, err
	}
	firstValue, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.at(KWFOR) {
		target, iter, ifs, err := p.compClauses()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACE, "'}'"); err != nil {
			return nil, err
		}
		return &DictComp{Key: firstKey, Value: firstValue, Target: target, Iter: iter, Ifs: ifs, span: span{p.spanFrom(start)}}, nil
	}
	entries := []DictEntry{{Key: firstKey, Value: firstValue}}
	for p.at(COMMA) {
		p.advance()
		if p.at(RBRACE) {
			break
		}
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON, "':'"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		entries = append(entries, DictEntry{Key: key, Value: value})
	}
	if _, err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return &DictLit{Entries: entries, span: span{p.spanFrom(start)}}, nil
}

// braceAtom handles a bare "{" in expression position: empty braces are
// an empty dict, a first entry with a colon continues as a dict, and
// anything else is a set literal.
func (p *parser) braceAtom() (Expr, *ParseError) {
	start := p.advance().Start
	if p.at(RBRACE) {
		p.advance()
		return &DictLit{span: span{p.spanFrom(start)}}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.at(COLON) {
		return p.dictBody(start, first)
	}
	elems := []Expr{first}
	for p.at(COMMA) {
		p.advance()
		if p.at(RBRACE) {
			break
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, x)
	}
	if _, err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return &SetLit{Elements: elems, span: span{p.spanFrom(start)}}, nil
}
