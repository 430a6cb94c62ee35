// lexer.go

package snail

import "fmt"

// lexer scans the preprocessed text and produces tokens whose offsets
// point into the complete program source. Interpolated literal bodies
// ($(...), $[...], /.../, quoted strings) come out as single tokens;
// their internals are parsed later from the token text.
type lexer struct {
	src   string // text being scanned
	pre   string // preprocessed form, same length as src
	full  string // complete program source, for error snippets
	base  int    // offset of src within full
	i     int
	prev  TokenType
	begun bool
	toks  []Token
}

// lexSource tokenizes a whole program given its preprocessed form.
func lexSource(src, pre string) ([]Token, *ParseError) {
	return (&lexer{src: src, pre: pre, full: src}).run()
}

// lexFragment tokenizes an expression extracted from an interpolated
// literal. base is the fragment's offset within the full source, so the
// resulting spans point back into the program text.
func lexFragment(frag, full string, base int) ([]Token, *ParseError) {
	return (&lexer{src: frag, pre: frag, full: full, base: base}).run()
}

func (lx *lexer) run() ([]Token, *ParseError) {
	for lx.i < len(lx.pre) {
		if err := lx.scanToken(); err != nil {
			return nil, err
		}
	}
	lx.emit(EOF, lx.i, lx.i)
	return lx.toks, nil
}

func (lx *lexer) emit(t TokenType, start, end int) {
	lx.toks = append(lx.toks, Token{
		Type:   t,
		Lexeme: lx.src[start:end],
		Start:  lx.base + start,
		End:    lx.base + end,
	})
	lx.prev = t
	lx.begun = true
}

func (lx *lexer) errAt(start, end int, format string, args ...any) *ParseError {
	return errorAt(fmt.Sprintf(format, args...),
		spanAt(lx.full, lx.base+start, lx.base+end), lx.full)
}

// canBeLeftOperand reports whether a token type may sit directly left of
// a binary operator. It decides whether a following "/" starts a regex
// literal or divides.
func canBeLeftOperand(t TokenType) bool {
	switch t {
	case IDENT, NUMBER, STRING, REGEX, SUBPROCCAP, SUBPROCSTAT, ACCESSOR,
		DOLLARNAME, FIELDNUM, RPAREN, RBRACKET, RBRACE, QUESTION,
		INCR, DECR, KWTRUE, KWFALSE, KWNONE:
		return true
	}
	return false
}

func (lx *lexer) scanToken() *ParseError {
	start := lx.i
	c := lx.pre[lx.i]
	switch {
	case c == ' ' || c == '\t' || c == '\r' || c == '\n':
		lx.i++
	case c == recordSep:
		lx.i++
		lx.emit(STMTSEP, start, lx.i)
	case c == ';':
		lx.i++
		lx.emit(STMTSEP, start, lx.i)
	case c == '#':
		if lx.peekIs('{') {
			lx.i += 2
			lx.emit(SETOPEN, start, lx.i)
		} else {
			for lx.i < len(lx.pre) && lx.pre[lx.i] != '\n' && lx.pre[lx.i] != recordSep {
				lx.i++
			}
		}
	case c == '\'' || c == '"':
		return lx.scanString(start)
	case c == '/':
		return lx.scanSlash()
	case c == '$':
		return lx.scanDollar()
	case c == '@':
		if lx.peekIs('(') {
			return lx.scanDelimited(SUBPROCSTAT, "unterminated subprocess command")
		}
		return lx.errAt(start, start+1, "unexpected character: '@'")
	case c >= '0' && c <= '9':
		lx.i = numberEnd(lx.pre, lx.i)
		lx.emit(NUMBER, start, lx.i)
	case isIdentStart(c):
		return lx.scanWord()
	default:
		return lx.scanOperator()
	}
	return nil
}

func (lx *lexer) peekIs(c byte) bool {
	return lx.i+1 < len(lx.pre) && lx.pre[lx.i+1] == c
}

func (lx *lexer) scanString(start int) *ParseError {
	end, ok := stringEnd(lx.pre, lx.i)
	if !ok {
		return lx.errAt(start, start+1, "unterminated string literal")
	}
	lx.i = end
	lx.emit(STRING, start, end)
	return nil
}

func (lx *lexer) scanSlash() *ParseError {
	start := lx.i
	if (!lx.begun || !canBeLeftOperand(lx.prev)) && !lx.peekIs('/') {
		if end, ok := regexEnd(lx.pre, lx.i); ok {
			lx.i = end
			lx.emit(REGEX, start, end)
			return nil
		}
	}
	return lx.scanOperator()
}

func (lx *lexer) scanDollar() *ParseError {
	start := lx.i
	if lx.i+1 >= len(lx.pre) {
		return lx.errAt(start, start+1, "unexpected character: '$'")
	}
	switch n := lx.pre[lx.i+1]; {
	case n == '(':
		return lx.scanDelimited(SUBPROCCAP, "unterminated subprocess command")
	case n == '[':
		return lx.scanDelimited(ACCESSOR, "unterminated structured accessor")
	case n >= '0' && n <= '9':
		lx.i += 2
		for lx.i < len(lx.pre) && lx.pre[lx.i] >= '0' && lx.pre[lx.i] <= '9' {
			lx.i++
		}
		lx.emit(FIELDNUM, start, lx.i)
		return nil
	case isIdentStart(n):
		lx.i += 2
		for lx.i < len(lx.pre) && isIdentPart(lx.pre[lx.i]) {
			lx.i++
		}
		lx.emit(DOLLARNAME, start, lx.i)
		return nil
	}
	return lx.errAt(start, start+1, "unexpected character: '$'")
}

func (lx *lexer) scanDelimited(t TokenType, msg string) *ParseError {
	start := lx.i
	end, ok := delimitedEnd(lx.pre, lx.i)
	if !ok {
		return lx.errAt(start, start+2, msg)
	}
	lx.i = end
	lx.emit(t, start, end)
	return nil
}

func (lx *lexer) scanWord() *ParseError {
	start := lx.i
	word := scanIdentAt(lx.pre, lx.i)
	end := start + len(word)
	if stringPrefixes[word] && end < len(lx.pre) && (lx.pre[end] == '\'' || lx.pre[end] == '"') {
		lx.i = end
		return lx.scanString(start)
	}
	lx.i = end
	if kw, ok := keywords[word]; ok {
		lx.emit(kw, start, end)
	} else {
		lx.emit(IDENT, start, end)
	}
	return nil
}

func (lx *lexer) scanOperator() *ParseError {
	start := lx.i
	two := ""
	if lx.i+2 <= len(lx.pre) {
		two = lx.pre[lx.i : lx.i+2]
	}
	three := ""
	if lx.i+3 <= len(lx.pre) {
		three = lx.pre[lx.i : lx.i+3]
	}

	var t TokenType
	n := 1
	switch {
	case three == "**=":
		t, n = DOUBLESTAREQ, 3
	case three == "//=":
		t, n = DOUBLESLASHEQ, 3
	case two == "**":
		t, n = DOUBLESTAR, 2
	case two == "//":
		t, n = DOUBLESLASH, 2
	case two == "==":
		t, n = EQ, 2
	case two == "!=":
		t, n = NEQ, 2
	case two == "<=":
		t, n = LTEQ, 2
	case two == ">=":
		t, n = GTEQ, 2
	case two == "+=":
		t, n = PLUSEQ, 2
	case two == "-=":
		t, n = MINUSEQ, 2
	case two == "*=":
		t, n = STAREQ, 2
	case two == "/=":
		t, n = SLASHEQ, 2
	case two == "%=":
		t, n = PERCENTEQ, 2
	case two == "++":
		t, n = INCR, 2
	case two == "--":
		t, n = DECR, 2
	case two == "%{":
		t, n = DICTOPEN, 2
	default:
		switch lx.pre[lx.i] {
		case '+':
			t = PLUS
		case '-':
			t = MINUS
		case '*':
			t = STAR
		case '/':
			t = SLASH
		case '%':
			t = PERCENT
		case '|':
			t = PIPE
		case '=':
			t = ASSIGN
		case '<':
			t = LT
		case '>':
			t = GT
		case '(':
			t = LPAREN
		case ')':
			t = RPAREN
		case '[':
			t = LBRACKET
		case ']':
			t = RBRACKET
		case '{':
			t = LBRACE
		case '}':
			t = RBRACE
		case ':':
			t = COLON
		case ',':
			t = COMMA
		case '.':
			t = PERIOD
		case '?':
			t = QUESTION
		default:
			return lx.errAt(start, start+1, "unexpected character: %q", string(lx.pre[lx.i]))
		}
	}
	lx.i += n
	lx.emit(t, start, lx.i)
	return nil
}

/* ---------- shared scanning helpers ---------- */

// stringEnd returns the offset just past a quoted literal opened at i,
// any prefix excluded. A backslash always escapes the next byte, so a
// backslash-quote pair never terminates the literal, raw strings
// included.
func stringEnd(src string, i int) (int, bool) {
	quote := src[i]
	if i+2 < len(src) && src[i+1] == quote && src[i+2] == quote {
		i += 3
		for i < len(src) {
			if src[i] == '\\' {
				i += 2
				continue
			}
			if src[i] == quote && i+2 < len(src) && src[i+1] == quote && src[i+2] == quote {
				return i + 3, true
			}
			i++
		}
		return 0, false
	}
	i++
	for i < len(src) {
		c := src[i]
		if c == '\\' {
			i += 2
			continue
		}
		if c == '\n' || c == recordSep {
			return 0, false
		}
		i++
		if c == quote {
			return i, true
		}
	}
	return 0, false
}

// delimitedEnd returns the offset just past the closer matching the
// sigil pair at i ("$(", "@(" or "$["), skipping quoted sections and
// balancing nested openers.
func delimitedEnd(src string, i int) (int, bool) {
	open := src[i+1]
	var close byte = ')'
	if open == '[' {
		close = ']'
	}
	i += 2
	depth := 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case '\'', '"':
			end, ok := stringEnd(src, i)
			if !ok {
				return 0, false
			}
			i = end
			continue
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
		i++
	}
	return 0, false
}

// numberEnd returns the offset just past a numeric literal starting at i.
func numberEnd(src string, i int) int {
	if i+2 <= len(src) && src[i] == '0' {
		switch src[i+1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			j := i + 2
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			return j
		}
	}
	j := i
	digits := func() {
		for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '_') {
			j++
		}
	}
	digits()
	if j+1 < len(src) && src[j] == '.' && src[j+1] >= '0' && src[j+1] <= '9' {
		j++
		digits()
	}
	if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
		k := j + 1
		if k < len(src) && (src[k] == '+' || src[k] == '-') {
			k++
		}
		if k < len(src) && src[k] >= '0' && src[k] <= '9' {
			j = k
			digits()
		}
	}
	return j
}
