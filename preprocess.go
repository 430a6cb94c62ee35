// preprocess.go: newline-to-separator rewriting, in the style of Go's
// automatic semicolon insertion.
//
// What this file does
// -------------------
// The grammar never sees raw newlines as statement separators. Before
// lexing, this pass walks the source once and replaces each newline that
// ends a statement with an ASCII record separator (0x1E). The byte count
// never changes, so token offsets in the rewritten text map one to one
// onto the original source.
//
// A newline becomes a separator only when all of these hold:
//
//   1. we are at statement level: the bracket stack is empty or its top
//      is a `{` block (never inside (), [], #{ or %{),
//   2. we are not inside a statement header (between `if`, `while`, `for`,
//      `def`, ... and its opening `{`), where newlines stay insignificant,
//   3. the last token can end a statement (identifier, literal, closer,
//      `?`, `++`, `--`, or a terminal keyword such as `break` or `return`),
//   4. the next significant token does not begin a continuation: a binary
//      or comparison operator, `.`, `,`, `:`, `?`, a closing `}`, or a
//      keyword such as `and`, `in`, `else` or `except` that can only
//      extend the current statement.
//
// A backslash immediately before a newline glues the lines together: both
// bytes are blanked to spaces. A backslash anywhere else outside a string
// is an error.

package snail

import "strings"

const recordSep = 0x1e

type bracketKind int

const (
	bkBlock bracketKind = iota // "{"
	bkParen                    // "(", "$(", "@("
	bkBracket                  // "[", "$["
	bkSet                      // "#{"
	bkDict                     // "%{"
)

type tokenClass int

const (
	clsNone tokenClass = iota
	clsEnder
	clsContinuation
)

// headerKeywords open a statement header when they appear in statement
// position. Newlines inside the header are plain whitespace until the
// opening "{".
var headerKeywords = map[string]bool{
	"if": true, "elif": true, "else": true, "while": true, "for": true,
	"def": true, "class": true, "try": true, "except": true,
	"finally": true, "with": true,
}

// terminalKeywords may end a statement on their own.
var terminalKeywords = map[string]bool{
	"break": true, "continue": true, "pass": true, "return": true,
	"yield": true, "raise": true, "True": true, "False": true, "None": true,
}

// continuationWords, as the first word after a newline, signal that the
// previous statement is still open.
var continuationWords = map[string]bool{
	"and": true, "or": true, "in": true, "is": true, "as": true,
	"elif": true, "else": true, "except": true, "finally": true,
}

var stringPrefixes = map[string]bool{
	"r": true, "b": true, "rb": true, "br": true,
}

type preprocessor struct {
	src         string
	out         []byte
	i           int
	stack       []bracketKind
	inHeader    bool
	last        tokenClass
	lastOperand bool // last token can be the left side of "/"
	atStart     bool
	firstWord   string // first word of the open statement, for raise/from
}

// preprocess rewrites statement-ending newlines to record separators.
// The result has exactly the same length as the input.
func preprocess(src string) (string, *ParseError) {
	p := &preprocessor{src: src, out: []byte(src), atStart: true}
	for p.i < len(p.src) {
		if err := p.step(); err != nil {
			return "", err
		}
	}
	return string(p.out), nil
}

func (p *preprocessor) step() *ParseError {
	c := p.src[p.i]
	switch {
	case c == ' ' || c == '\t' || c == '\r':
		p.i++
	case c == '\n':
		if p.shouldInject() {
			p.out[p.i] = recordSep
			p.startStatement()
		}
		p.i++
	case c == '\\':
		return p.lineContinuation()
	case c == '#':
		if p.i+1 < len(p.src) && p.src[p.i+1] == '{' {
			p.push(bkSet)
			p.token(clsContinuation, false)
			p.i += 2
		} else {
			p.skipToLineEnd()
		}
	case c == '\'' || c == '"':
		return p.scanString(p.i)
	case c == '/':
		p.scanSlash()
	case c == '$':
		return p.scanDollar()
	case c == '@':
		return p.scanAt()
	case c >= '0' && c <= '9':
		p.scanNumber()
	case isIdentStart(c):
		return p.scanWord()
	case c == '(':
		p.push(bkParen)
		p.token(clsContinuation, false)
		p.i++
	case c == '[':
		p.push(bkBracket)
		p.token(clsContinuation, false)
		p.i++
	case c == '{':
		p.push(bkBlock)
		p.inHeader = false
		p.i++
		p.startStatement()
	case c == '}':
		closedBlock := p.pop() == bkBlock
		p.token(clsEnder, true)
		p.i++
		if closedBlock {
			p.atStart = true
			p.firstWord = ""
		}
	case c == ')' || c == ']':
		p.pop()
		p.token(clsEnder, true)
		p.i++
	case c == ';':
		p.i++
		p.startStatement()
	case c == '%':
		if p.i+1 < len(p.src) && p.src[p.i+1] == '{' {
			p.push(bkDict)
			p.token(clsContinuation, false)
			p.i += 2
		} else {
			p.scanOperator()
		}
	default:
		p.scanOperator()
	}
	return nil
}

func (p *preprocessor) startStatement() {
	p.last = clsNone
	p.lastOperand = false
	p.atStart = true
	p.firstWord = ""
}

func (p *preprocessor) token(cls tokenClass, operand bool) {
	p.last = cls
	p.lastOperand = operand
	p.atStart = false
}

func (p *preprocessor) push(k bracketKind) {
	p.stack = append(p.stack, k)
}

func (p *preprocessor) pop() bracketKind {
	if len(p.stack) == 0 {
		return bkBlock
	}
	k := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return k
}

func (p *preprocessor) atStmtLevel() bool {
	return len(p.stack) == 0 || p.stack[len(p.stack)-1] == bkBlock
}

func (p *preprocessor) shouldInject() bool {
	if !p.atStmtLevel() || p.inHeader || p.last != clsEnder {
		return false
	}
	return !p.continuationAhead()
}

// continuationAhead reports whether the next significant token after the
// current newline can only continue the open statement.
func (p *preprocessor) continuationAhead() bool {
	j := p.i + 1
	for j < len(p.src) {
		c := p.src[j]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			j++
			continue
		case c == '\\':
			// Either a continuation glue pair or a stray backslash;
			// the main loop reports the latter.
			j++
			continue
		case c == '#':
			if j+1 < len(p.src) && p.src[j+1] == '{' {
				return false
			}
			for j < len(p.src) && p.src[j] != '\n' {
				j++
			}
			continue
		}
		break
	}
	if j >= len(p.src) {
		return false
	}
	c := p.src[j]
	next := byte(0)
	if j+1 < len(p.src) {
		next = p.src[j+1]
	}
	switch c {
	case '}', '.', ',', ':', '?', '|', '*', '/', '%', '<', '>', '!':
		return true
	case '+':
		return next != '+'
	case '-':
		return next != '-'
	case '=':
		return next == '='
	}
	if isIdentStart(c) {
		word := scanIdentAt(p.src, j)
		if continuationWords[word] {
			return true
		}
		if word == "from" {
			return p.firstWord == "raise"
		}
		if word == "import" {
			return p.firstWord == "from"
		}
	}
	return false
}

func (p *preprocessor) lineContinuation() *ParseError {
	if p.i+1 < len(p.src) && p.src[p.i+1] == '\n' {
		p.out[p.i] = ' '
		p.out[p.i+1] = ' '
		p.i += 2
		return nil
	}
	if p.i+2 < len(p.src) && p.src[p.i+1] == '\r' && p.src[p.i+2] == '\n' {
		p.out[p.i] = ' '
		p.out[p.i+1] = ' '
		p.out[p.i+2] = ' '
		p.i += 3
		return nil
	}
	return errorAt("stray '\\' (backslash line continuation must be followed by a newline)",
		spanAt(p.src, p.i, p.i+1), p.src)
}

func (p *preprocessor) skipToLineEnd() {
	for p.i < len(p.src) && p.src[p.i] != '\n' {
		p.i++
	}
}

func (p *preprocessor) scanString(start int) *ParseError {
	end, ok := stringEnd(p.src, p.i)
	if !ok {
		return errorAt("unterminated string literal", spanAt(p.src, start, start+1), p.src)
	}
	p.i = end
	p.token(clsEnder, true)
	return nil
}

// scanSlash distinguishes a regex literal from the division operators. A
// slash in operand position opens a regex when a closing slash exists on
// the same line; otherwise it lexes as an operator.
func (p *preprocessor) scanSlash() {
	if !p.lastOperand && !(p.i+1 < len(p.src) && p.src[p.i+1] == '/') {
		if end, ok := regexEnd(p.src, p.i); ok {
			p.i = end
			p.token(clsEnder, true)
			return
		}
	}
	p.scanOperator()
}

// regexEnd finds the offset just past the closing slash of a regex
// literal opened at i, staying on one line.
func regexEnd(src string, i int) (int, bool) {
	j := i + 1
	for j < len(src) {
		switch src[j] {
		case '\\':
			j += 2
			continue
		case '\n':
			return 0, false
		case '/':
			return j + 1, true
		}
		j++
	}
	return 0, false
}

func (p *preprocessor) scanDollar() *ParseError {
	if p.i+1 < len(p.src) {
		switch n := p.src[p.i+1]; {
		case n == '(':
			return p.scanDelimited("unterminated subprocess command")
		case n == '[':
			return p.scanDelimited("unterminated structured accessor")
		case isIdentStart(n) || n >= '0' && n <= '9':
			p.i++
			for p.i < len(p.src) && isIdentPart(p.src[p.i]) {
				p.i++
			}
			p.token(clsEnder, true)
			return nil
		}
	}
	p.token(clsContinuation, false)
	p.i++
	return nil
}

func (p *preprocessor) scanAt() *ParseError {
	if p.i+1 < len(p.src) && p.src[p.i+1] == '(' {
		return p.scanDelimited("unterminated subprocess command")
	}
	p.token(clsContinuation, false)
	p.i++
	return nil
}

func (p *preprocessor) scanDelimited(msg string) *ParseError {
	start := p.i
	end, ok := delimitedEnd(p.src, p.i)
	if !ok {
		return errorAt(msg, spanAt(p.src, start, start+2), p.src)
	}
	p.i = end
	p.token(clsEnder, true)
	return nil
}

func (p *preprocessor) scanNumber() {
	p.i = numberEnd(p.src, p.i)
	p.token(clsEnder, true)
}

func (p *preprocessor) scanWord() *ParseError {
	word := scanIdentAt(p.src, p.i)
	end := p.i + len(word)
	if stringPrefixes[word] && end < len(p.src) && (p.src[end] == '\'' || p.src[end] == '"') {
		p.i = end
		return p.scanString(p.i - len(word))
	}
	if p.atStart {
		p.firstWord = word
		if headerKeywords[word] {
			p.inHeader = true
		}
	}
	p.i = end
	switch {
	case word == "True", word == "False", word == "None":
		p.token(clsEnder, true)
	case terminalKeywords[word]:
		p.token(clsEnder, false)
	case headerKeywords[word], continuationWords[word],
		word == "not", word == "from", word == "import",
		word == "del", word == "assert", word == "let":
		p.token(clsContinuation, false)
	default:
		p.token(clsEnder, true)
	}
	return nil
}

// scanOperator consumes one operator with maximal munch. Postfix ++ and
// -- keep the statement endable; every other operator expects a right
// operand.
func (p *preprocessor) scanOperator() {
	c := p.src[p.i]
	rest := p.src[p.i:]
	n := 1
	switch {
	case strings.HasPrefix(rest, "**=") || strings.HasPrefix(rest, "//="):
		n = 3
	case strings.HasPrefix(rest, "**") || strings.HasPrefix(rest, "//") ||
		strings.HasPrefix(rest, "==") || strings.HasPrefix(rest, "!=") ||
		strings.HasPrefix(rest, "<=") || strings.HasPrefix(rest, ">=") ||
		strings.HasPrefix(rest, "+=") || strings.HasPrefix(rest, "-=") ||
		strings.HasPrefix(rest, "*=") || strings.HasPrefix(rest, "/=") ||
		strings.HasPrefix(rest, "%="):
		n = 2
	case strings.HasPrefix(rest, "++") || strings.HasPrefix(rest, "--"):
		postfix := p.last == clsEnder
		p.i += 2
		if postfix {
			p.token(clsEnder, true)
		} else {
			p.token(clsContinuation, false)
		}
		return
	}
	if c == '?' {
		p.token(clsEnder, true)
	} else {
		p.token(clsContinuation, false)
	}
	p.i += n
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func scanIdentAt(src string, i int) string {
	j := i
	for j < len(src) && isIdentPart(src[j]) {
		j++
	}
	return src[i:j]
}
