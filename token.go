// token.go

package snail

// TokenType enumerates the lexical vocabulary. Interpolated literal
// families (strings, regexes, subprocess commands, structured accessors)
// are single tokens holding their raw text; the parser re-parses their
// bodies with the token's start offset as the span base.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	STMTSEP // injected record separator or an explicit ";"

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	LBRACE   // "{"
	RBRACE   // "}"
	DICTOPEN // "%{"
	SETOPEN  // "#{"
	COLON    // ":"
	COMMA    // ","
	PERIOD   // "."
	QUESTION // "?"

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	DOUBLESLASH
	PERCENT
	DOUBLESTAR
	PIPE
	ASSIGN // "="
	EQ     // "=="
	NEQ    // "!="
	LT
	LTEQ
	GT
	GTEQ
	PLUSEQ
	MINUSEQ
	STAREQ
	SLASHEQ
	DOUBLESLASHEQ
	PERCENTEQ
	DOUBLESTAREQ
	INCR // "++"
	DECR // "--"

	// Literals & identifiers
	IDENT
	NUMBER
	STRING      // any quoted string, prefix and delimiters included
	REGEX       // "/pattern/"
	SUBPROCCAP  // "$(cmd)"
	SUBPROCSTAT // "@(cmd)"
	ACCESSOR    // "$[query]"
	DOLLARNAME  // "$n", "$src", "$e", ...
	FIELDNUM    // "$0", "$1", ...

	// Keywords
	KWAND
	KWOR
	KWNOT
	KWIF
	KWELIF
	KWELSE
	KWWHILE
	KWFOR
	KWDEF
	KWCLASS
	KWTRY
	KWEXCEPT
	KWFINALLY
	KWWITH
	KWAS
	KWRETURN
	KWYIELD
	KWRAISE
	KWASSERT
	KWDEL
	KWBREAK
	KWCONTINUE
	KWPASS
	KWIMPORT
	KWFROM
	KWIN
	KWIS
	KWLET
	KWTRUE
	KWFALSE
	KWNONE
)

// Token is a lexical token. Start and End are byte offsets into the
// original source; Lexeme is the covered text.
type Token struct {
	Type   TokenType
	Lexeme string
	Start  int
	End    int
}

var keywords = map[string]TokenType{
	"and":      KWAND,
	"or":       KWOR,
	"not":      KWNOT,
	"if":       KWIF,
	"elif":     KWELIF,
	"else":     KWELSE,
	"while":    KWWHILE,
	"for":      KWFOR,
	"def":      KWDEF,
	"class":    KWCLASS,
	"try":      KWTRY,
	"except":   KWEXCEPT,
	"finally":  KWFINALLY,
	"with":     KWWITH,
	"as":       KWAS,
	"return":   KWRETURN,
	"yield":    KWYIELD,
	"raise":    KWRAISE,
	"assert":   KWASSERT,
	"del":      KWDEL,
	"break":    KWBREAK,
	"continue": KWCONTINUE,
	"pass":     KWPASS,
	"import":   KWIMPORT,
	"from":     KWFROM,
	"in":       KWIN,
	"is":       KWIS,
	"let":      KWLET,
	"True":     KWTRUE,
	"False":    KWFALSE,
	"None":     KWNONE,
}

// tokenName returns a short human-readable description used in parser
// error messages.
func tokenName(t Token) string {
	switch t.Type {
	case EOF:
		return "end of input"
	case STMTSEP:
		if t.Lexeme == ";" {
			return "';'"
		}
		return "statement separator"
	default:
		return "'" + t.Lexeme + "'"
	}
}
