// interp.go: interpolated-literal bodies.
//
// Strings, regex patterns, and subprocess commands share one part
// scanner: literal text split around {expr} holes, with {{ and }}
// standing for literal braces. Embedded expressions are re-parsed from
// the original source so their spans stay in full-source coordinates.
// The families differ only in unescaping: strings unescape fully,
// regexes additionally unescape \/, subprocess bodies not at all.

package snail

import (
	"strings"
	"unicode"
)

/* ---------- token entry points ---------- */

func (p *parser) parseStringToken(tok Token) (Expr, *ParseError) {
	text := tok.Lexeme
	raw, bytes := false, false
	prefixLen := 0
	switch {
	case strings.HasPrefix(text, "br"), strings.HasPrefix(text, "rb"):
		raw, bytes = true, true
		prefixLen = 2
	case strings.HasPrefix(text, "b"):
		bytes = true
		prefixLen = 1
	case strings.HasPrefix(text, "r"):
		raw = true
		prefixLen = 1
	}
	rest := text[prefixLen:]
	var delim StringDelim
	open := ""
	switch {
	case strings.HasPrefix(rest, `"""`):
		delim, open = DelimTripleDouble, `"""`
	case strings.HasPrefix(rest, "'''"):
		delim, open = DelimTripleSingle, "'''"
	case strings.HasPrefix(rest, `"`):
		delim, open = DelimDouble, `"`
	default:
		delim, open = DelimSingle, "'"
	}
	content := ""
	if len(rest) >= 2*len(open) {
		content = rest[len(open) : len(rest)-len(open)]
	}
	sp := p.tokenSpan(tok)

	// Raw strings never interpolate.
	if raw {
		return &StringLit{Value: content, Raw: true, Bytes: bytes, Delim: delim, span: span{sp}}, nil
	}

	parts, err := p.scanParts(content, tok.Start+prefixLen+len(open))
	if err != nil {
		return nil, err
	}
	if hasExprPart(parts) {
		return &FStringLit{Parts: unescapeParts(parts, unescapeStringText), Bytes: bytes, span: span{sp}}, nil
	}
	return &StringLit{Value: joinTextParts(parts), Raw: false, Bytes: bytes, Delim: delim, span: span{sp}}, nil
}

func (p *parser) parseRegexToken(tok Token) (Expr, *ParseError) {
	text := tok.Lexeme
	content, contentOffset := "", tok.Start
	if len(text) >= 2 {
		content = text[1 : len(text)-1]
		contentOffset = tok.Start + 1
	}
	parts, err := p.scanParts(content, contentOffset)
	if err != nil {
		return nil, err
	}
	sp := p.tokenSpan(tok)
	if hasExprPart(parts) {
		pattern := RegexPattern{Parts: unescapeParts(parts, unescapeRegexText), Interpolated: true}
		return &RegexLit{Pattern: pattern, span: span{sp}}, nil
	}
	literal := strings.ReplaceAll(joinTextParts(parts), `\/`, "/")
	return &RegexLit{Pattern: RegexPattern{Literal: literal}, span: span{sp}}, nil
}

func (p *parser) parseSubprocessToken(tok Token) (Expr, *ParseError) {
	kind := SubprocessCapture
	if tok.Type == SUBPROCSTAT {
		kind = SubprocessStatus
	}
	content := tok.Lexeme[2 : len(tok.Lexeme)-1]
	parts, err := p.scanParts(content, tok.Start+2)
	if err != nil {
		return nil, err
	}
	sp := p.tokenSpan(tok)
	if len(parts) == 0 {
		return nil, errorAt("missing subprocess command", sp, p.src)
	}
	return &SubprocessLit{Kind: kind, Parts: parts, span: span{sp}}, nil
}

func (p *parser) parseAccessorToken(tok Token) (Expr, *ParseError) {
	query := tok.Lexeme[2 : len(tok.Lexeme)-1]
	return &AccessorLit{Query: query, span: span{p.tokenSpan(tok)}}, nil
}

/* ---------- part scanning ---------- */

// scanParts splits literal content around {expr} holes. offset is the
// content's position in the full source. Text parts come back with {{
// and }} collapsed; expression parts carry their parsed expression,
// conversion flag, and format spec.
func (p *parser) scanParts(content string, offset int) ([]FStringPart, *ParseError) {
	var parts []FStringPart
	textStart := 0
	i := 0
	for i < len(content) {
		switch content[i] {
		case '{':
			if i+1 < len(content) && content[i+1] == '{' {
				i += 2
				continue
			}
			if textStart < i {
				parts = append(parts, FStringPart{Text: content[textStart:i]})
			}
			exprStart := i + 1
			exprEnd := findExprEnd(content, exprStart)
			if exprEnd < 0 {
				return nil, errorAt("unterminated f-string expression", spanAt(p.src, offset+i, offset+i+1), p.src)
			}
			exprText := content[exprStart:exprEnd]
			if strings.TrimSpace(exprText) == "" {
				return nil, errorAt("empty f-string expression", spanAt(p.src, offset+i, offset+exprEnd+1), p.src)
			}
			part, err := p.interpExpr(exprText, offset+exprStart)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
			i = exprEnd + 1
			textStart = i
		case '}':
			if i+1 < len(content) && content[i+1] == '}' {
				i += 2
				continue
			}
			return nil, errorAt("unmatched '}' in f-string", spanAt(p.src, offset+i, offset+i+1), p.src)
		default:
			i++
		}
	}
	if textStart < len(content) {
		parts = append(parts, FStringPart{Text: content[textStart:]})
	}
	for idx := range parts {
		if parts[idx].X == nil {
			parts[idx].Text = collapseBraces(parts[idx].Text)
		}
	}
	return parts, nil
}

// interpExpr parses one {…} hole: the expression, an optional !r/!s/!a
// conversion, and an optional :spec whose text is itself scanned for
// nested holes.
func (p *parser) interpExpr(exprText string, exprOffset int) (FStringPart, *ParseError) {
	text, off, conv, spec, err := p.splitInterpExpr(exprText, exprOffset)
	if err != nil {
		return FStringPart{}, err
	}
	x, err := parseInlineExpr(text, p.src, off)
	if err != nil {
		return FStringPart{}, err
	}
	part := FStringPart{X: x, Conv: conv}
	if spec != nil {
		specParts, err := p.scanParts(spec.text, spec.offset)
		if err != nil {
			return FStringPart{}, err
		}
		if specParts == nil {
			specParts = []FStringPart{}
		}
		part.Spec = specParts
	}
	return part, nil
}

type specRef struct {
	text   string
	offset int
}

// splitInterpExpr separates a hole's raw text into the expression
// proper, a conversion flag, and a format spec. Conversions and specs
// are only recognized at bracket depth zero, and != never starts a
// conversion.
func (p *parser) splitInterpExpr(exprText string, exprOffset int) (string, int, FConv, *specRef, *ParseError) {
	conv := FConvNone
	exprEnd := len(exprText)
	var spec *specRef
	convPos := -1

	paren, bracket, brace := 0, 0, 0
	i := 0
scan:
	for i < len(exprText) {
		switch exprText[i] {
		case 'r', 'b', '\'', '"':
			if stringStartsAt(exprText, i) {
				end := skipStringLit(exprText, i)
				if end < 0 {
					return "", 0, 0, nil, errorAt("unterminated string in f-string expression",
						spanAt(p.src, exprOffset+i, exprOffset+i+1), p.src)
				}
				i = end
				continue
			}
			i++
		case '(':
			paren++
			i++
		case ')':
			if paren > 0 {
				paren--
			}
			i++
		case '[':
			bracket++
			i++
		case ']':
			if bracket > 0 {
				bracket--
			}
			i++
		case '{':
			brace++
			i++
		case '}':
			if brace > 0 {
				brace--
			}
			i++
		case '!':
			if paren != 0 || bracket != 0 || brace != 0 {
				i++
				continue
			}
			if i+1 < len(exprText) && exprText[i+1] == '=' {
				i += 2
				continue
			}
			switch {
			case i+1 < len(exprText) && exprText[i+1] == 'r':
				conv = FConvRepr
			case i+1 < len(exprText) && exprText[i+1] == 's':
				conv = FConvStr
			case i+1 < len(exprText) && exprText[i+1] == 'a':
				conv = FConvAscii
			default:
				end := i + 1
				if end > len(exprText) {
					end = len(exprText)
				}
				return "", 0, 0, nil, errorAt("invalid f-string conversion (expected !r, !s, or !a)",
					spanAt(p.src, exprOffset+i, exprOffset+end), p.src)
			}
			convPos = i
			exprEnd = i
			break scan
		case ':':
			if paren != 0 || bracket != 0 || brace != 0 {
				i++
				continue
			}
			exprEnd = i
			spec = &specRef{text: exprText[i+1:], offset: exprOffset + i + 1}
			break scan
		default:
			i++
		}
	}

	if convPos >= 0 {
		tail := exprText[convPos+2:]
		tailOffset := exprOffset + convPos + 2
		trimmed := strings.TrimLeftFunc(tail, unicode.IsSpace)
		trimStart := len(tail) - len(trimmed)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, ":"):
			spec = &specRef{text: trimmed[1:], offset: tailOffset + trimStart + 1}
		default:
			return "", 0, 0, nil, errorAt("unexpected characters after f-string conversion",
				spanAt(p.src, tailOffset+trimStart, exprOffset+len(exprText)), p.src)
		}
	}

	slice := exprText[:exprEnd]
	lead := len(slice) - len(strings.TrimLeftFunc(slice, unicode.IsSpace))
	trimmed := strings.TrimRightFunc(slice[lead:], unicode.IsSpace)
	if trimmed == "" {
		return "", 0, 0, nil, errorAt("empty f-string expression",
			spanAt(p.src, exprOffset, exprOffset+len(exprText)), p.src)
	}
	return trimmed, exprOffset + lead, conv, spec, nil
}

// findExprEnd locates the closing brace of a hole opened just before
// start, skipping nested brackets and string literals. Returns -1 when
// the hole never closes.
func findExprEnd(content string, start int) int {
	paren, bracket, brace := 0, 0, 1
	i := start
	for i < len(content) {
		switch content[i] {
		case 'r', 'b', '\'', '"':
			if stringStartsAt(content, i) {
				end := skipStringLit(content, i)
				if end < 0 {
					return -1
				}
				i = end
				continue
			}
			i++
		case '(':
			paren++
			i++
		case ')':
			if paren > 0 {
				paren--
			}
			i++
		case '[':
			bracket++
			i++
		case ']':
			if bracket > 0 {
				bracket--
			}
			i++
		case '{':
			brace++
			i++
		case '}':
			if paren == 0 && bracket == 0 && brace == 1 {
				return i
			}
			if brace > 0 {
				brace--
			}
			i++
		default:
			i++
		}
	}
	return -1
}

// stringStartsAt reports whether position i begins a string literal,
// allowing the r, b, rb, and br prefixes.
func stringStartsAt(s string, i int) bool {
	c := s[i]
	if c == '\'' || c == '"' {
		return true
	}
	if c != 'r' && c != 'b' {
		return false
	}
	if i+1 < len(s) && (s[i+1] == '\'' || s[i+1] == '"') {
		return true
	}
	if i+2 < len(s) && (s[i+1] == 'r' || s[i+1] == 'b') && s[i+1] != c &&
		(s[i+2] == '\'' || s[i+2] == '"') {
		return true
	}
	return false
}

// skipStringLit advances past a string literal starting at i, honoring
// prefixes, triple delimiters, and backslash escapes in non-raw
// strings. Returns the index just past the closing delimiter, or -1
// when the literal never terminates.
func skipStringLit(s string, start int) int {
	i := start
	raw := false
	switch {
	case i+1 < len(s) && ((s[i] == 'b' && s[i+1] == 'r') || (s[i] == 'r' && s[i+1] == 'b')):
		i += 2
		raw = true
	case i < len(s) && s[i] == 'b':
		i++
	case i < len(s) && s[i] == 'r':
		i++
		raw = true
	}
	if i >= len(s) {
		return -1
	}
	quote := s[i]
	delimLen := 1
	if i+2 < len(s) && s[i+1] == quote && s[i+2] == quote {
		delimLen = 3
	}
	i += delimLen
	for i < len(s) {
		if i+delimLen <= len(s) && allQuote(s[i:i+delimLen], quote) {
			return i + delimLen
		}
		if !raw && s[i] == '\\' {
			i += 2
			if i > len(s) {
				i = len(s)
			}
			continue
		}
		i++
	}
	return -1
}

func allQuote(s string, quote byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != quote {
			return false
		}
	}
	return true
}

/* ---------- part helpers ---------- */

func hasExprPart(parts []FStringPart) bool {
	for _, part := range parts {
		if part.X != nil {
			return true
		}
	}
	return false
}

func joinTextParts(parts []FStringPart) string {
	var b strings.Builder
	for _, part := range parts {
		if part.X == nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func collapseBraces(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, "{{", "{"), "}}", "}")
}

// unescapeParts applies the family's unescaping to every text part,
// recursing into format specs.
func unescapeParts(parts []FStringPart, unescape func(string) string) []FStringPart {
	out := make([]FStringPart, len(parts))
	for i, part := range parts {
		if part.X == nil {
			out[i] = FStringPart{Text: unescape(part.Text)}
			continue
		}
		part.Spec = unescapeParts(part.Spec, unescape)
		out[i] = part
	}
	return out
}

func unescapeStringText(text string) string { return unescapeText(text, false) }

func unescapeRegexText(text string) string { return unescapeText(text, true) }

// unescapeText resolves the escape sequences both source and target
// languages share. Unknown escapes pass through untouched so the
// generated literal keeps them verbatim.
func unescapeText(text string, escapeSlash bool) string {
	var b strings.Builder
	b.Grow(len(text))
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if ch != '\\' {
			b.WriteRune(ch)
			continue
		}
		if i+1 >= len(runes) {
			b.WriteRune('\\')
			break
		}
		i++
		switch runes[i] {
		case 'n':
			b.WriteRune('\n')
		case 'r':
			b.WriteRune('\r')
		case 't':
			b.WriteRune('\t')
		case '"':
			b.WriteRune('"')
		case '\'':
			b.WriteRune('\'')
		case '\\':
			b.WriteRune('\\')
		case '/':
			if escapeSlash {
				b.WriteRune('/')
			} else {
				b.WriteRune('\\')
				b.WriteRune('/')
			}
		default:
			b.WriteRune('\\')
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}
