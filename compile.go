// compile.go: the one-call front door over the staged pipeline.
//
// Callers that want the stages individually use parseSource's exported
// cousins directly (ParseLines, Validate, Lower*, Render*); Compile is
// the straight source-to-Python path the CLI and most tests take.

package snail

// Parse runs the preprocessor, lexer, and parser over source, then the
// mode validator and the separator check. A program returned here is
// mode-clean; only lowering-stage faults (placeholder counts, field
// indices, sentinel misuse) can still fail downstream.
func Parse(source string, mode Mode) (*Program, error) {
	p, perr := parseSource(source)
	if perr != nil {
		return nil, perr
	}
	if err := Validate(p, mode); err != nil {
		return nil, err
	}
	if err := CheckSeparators(p, source); err != nil {
		return nil, err
	}
	return p, nil
}

// Compile translates source straight to Python under the given mode and
// tail policy. Main and Files compile the plain statement form; Lines
// compiles the rule form. Lines programs with begin/end blocks need the
// longer road: ParseLinesWithBeginEnd into LowerLinesWithTail.
func Compile(source string, mode Mode, tail Tail) (string, error) {
	var (
		m   *PyModule
		err error
	)
	switch mode {
	case ModeLines:
		lp, perr := ParseLines(source)
		if perr != nil {
			return "", perr
		}
		m, err = LowerLinesWithTail(lp, tail)
	case ModeFiles:
		p, perr := Parse(source, ModeFiles)
		if perr != nil {
			return "", perr
		}
		m, err = LowerFilesWithTail(p, tail)
	default:
		p, perr := Parse(source, ModeMain)
		if perr != nil {
			return "", perr
		}
		m, err = LowerWithTail(p, tail)
	}
	if err != nil {
		return "", err
	}
	return RenderWithPrologue(m), nil
}
