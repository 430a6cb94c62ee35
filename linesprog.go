// linesprog.go: the awk-like rule form used by lines mode.
//
// A lines program is a sequence of rules, each a pattern expression, an
// action block, or both. Separate begin/end sources supplied by the CLI
// parse as ordinary programs and attach as statement blocks.

package snail

// LinesProgram is the parsed rule form plus any begin/end statement
// blocks attached from auxiliary sources.
type LinesProgram struct {
	BeginBlocks [][]Stmt
	Rules       []LinesRule
	EndBlocks   [][]Stmt
	Loc         Span
}

// LinesRule pairs an optional pattern with an optional action block. At
// least one is always present.
type LinesRule struct {
	Pattern Expr // nil when the rule is a bare block
	Action  []Stmt
	Loc     Span
}

// ParseLines parses source as a lines-mode rule list and validates it
// under lines-mode name visibility.
func ParseLines(source string) (*LinesProgram, error) {
	lp, perr := parseLinesSource(source)
	if perr != nil {
		return nil, perr
	}
	v := &validator{mode: ModeLines, src: source}
	for _, rule := range lp.Rules {
		if rule.Pattern != nil {
			if err := v.expr(rule.Pattern); err != nil {
				return nil, err
			}
		}
		if err := v.stmts(rule.Action); err != nil {
			return nil, err
		}
	}
	return lp, nil
}

// ParseLinesWithBeginEnd parses the main rule source plus begin and end
// sources. Each auxiliary source is parsed as a plain program under
// lines-mode visibility; sources with no statements contribute nothing.
func ParseLinesWithBeginEnd(main string, begins, ends []string) (*LinesProgram, error) {
	lp, err := ParseLines(main)
	if err != nil {
		return nil, err
	}
	for _, src := range begins {
		stmts, err := parseAuxSource(src)
		if err != nil {
			return nil, err
		}
		if len(stmts) > 0 {
			lp.BeginBlocks = append(lp.BeginBlocks, stmts)
		}
	}
	for _, src := range ends {
		stmts, err := parseAuxSource(src)
		if err != nil {
			return nil, err
		}
		if len(stmts) > 0 {
			lp.EndBlocks = append(lp.EndBlocks, stmts)
		}
	}
	return lp, nil
}

func parseAuxSource(src string) ([]Stmt, error) {
	prog, perr := parseSource(src)
	if perr != nil {
		return nil, perr
	}
	v := &validator{mode: ModeLines, src: src}
	if err := v.stmts(prog.Stmts); err != nil {
		return nil, err
	}
	return prog.Stmts, nil
}

func parseLinesSource(src string) (*LinesProgram, *ParseError) {
	pre, err := preprocess(src)
	if err != nil {
		return nil, err
	}
	toks, err := lexSource(src, pre)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	var rules []LinesRule
	for {
		for p.at(STMTSEP) {
			p.advance()
		}
		if p.at(EOF) {
			break
		}
		rule, err := p.linesRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
		if !p.at(STMTSEP) && !p.at(EOF) {
			return nil, p.errHere("expected statement separator")
		}
	}
	return &LinesProgram{Rules: rules, Loc: fullSpan(src)}, nil
}

// linesRule parses one rule. A bare block is an action-only rule; an
// expression statement is a pattern, optionally followed by its action
// block; any other statement form cannot head a rule. A parsed action is
// never nil, so a pattern with an empty block stays distinct from a
// pattern with no block at all (which prints the matching line).
func (p *parser) linesRule() (LinesRule, *ParseError) {
	start := p.cur().Start
	if p.at(LBRACE) {
		action, err := p.block()
		if err != nil {
			return LinesRule{}, err
		}
		if action == nil {
			action = []Stmt{}
		}
		return LinesRule{Action: action, Loc: p.spanFrom(start)}, nil
	}
	st, err := p.statement()
	if err != nil {
		return LinesRule{}, err
	}
	es, ok := st.(*ExprStmt)
	if !ok {
		return LinesRule{}, errorAt("lines rule requires a pattern or a block", st.Span(), p.src)
	}
	rule := LinesRule{Pattern: es.Value}
	if p.at(LBRACE) {
		if rule.Action, err = p.block(); err != nil {
			return LinesRule{}, err
		}
		if rule.Action == nil {
			rule.Action = []Stmt{}
		}
	}
	rule.Loc = p.spanFrom(start)
	return rule, nil
}
