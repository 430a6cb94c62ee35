// lines_test.go
package snail

import (
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func mustParseLines(t *testing.T, src string) *LinesProgram {
	t.Helper()
	lp, err := ParseLines(src)
	if err != nil {
		t.Fatalf("ParseLines error: %v\nsource:\n%s", err, src)
	}
	return lp
}

func lowerLines(t *testing.T, src string) string {
	t.Helper()
	m, err := LowerLines(mustParseLines(t, src))
	if err != nil {
		t.Fatalf("LowerLines error: %v\nsource:\n%s", err, src)
	}
	return Render(m)
}

// lineLoopBody returns the stdin branch of the generated driver, from
// the loop header through the last rule statement.
func lineLoopBody(t *testing.T, src string) string {
	t.Helper()
	out := lowerLines(t, src)
	const open = "        __snail_file = sys.stdin\n"
	at := strings.Index(out, open)
	if at < 0 {
		t.Fatalf("missing stdin branch:\n%s", out)
	}
	rest := out[at+len(open):]
	end := strings.Index(rest, "    else:\n")
	if end < 0 {
		t.Fatalf("missing file branch:\n%s", out)
	}
	return rest[:end]
}

// --- scaffolding -----------------------------------------------------------

func Test_Lines_Scaffold_Golden(t *testing.T) {
	loop := "__snail_raw in __snail_file:\n"
	perLine := "__snail_nr = (__snail_nr + 1)\n" +
		"__snail_fnr = (__snail_fnr + 1)\n" +
		"__snail_line = __snail_raw.rstrip(\"\\n\")\n" +
		"__snail_fields = __snail_line.split()\n" +
		"__snail_nr_user = __snail_nr\n" +
		"__snail_fnr_user = __snail_fnr\n" +
		"__snail_path_user = __snail_path\n" +
		"__snail_match = __snail_regex_search(__snail_line, r\"err\")\n" +
		"if __snail_match:\n"
	indent := func(block, pad string) string {
		lines := strings.Split(strings.TrimSuffix(block, "\n"), "\n")
		for i, ln := range lines {
			lines[i] = pad + ln
		}
		return strings.Join(lines, "\n") + "\n"
	}
	want := "import sys\n" +
		"__snail_nr = 0\n" +
		"for __snail_path in (sys.argv[1:] or [\"-\"]):\n" +
		"    __snail_fnr = 0\n" +
		"    if (__snail_path == \"-\"):\n" +
		"        __snail_file = sys.stdin\n" +
		"        for " + loop +
		indent(perLine, "            ") +
		"                print(__snail_line)\n" +
		"    else:\n" +
		"        with open(__snail_path) as __snail_file:\n" +
		"            for " + loop +
		indent(perLine, "                ") +
		"                    print(__snail_line)\n"
	got := lowerLines(t, "/err/")
	if got != want {
		t.Fatalf("scaffold mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Lines_Prologue_Prepended(t *testing.T) {
	m, err := LowerLines(mustParseLines(t, "/err/"))
	if err != nil {
		t.Fatalf("LowerLines error: %v", err)
	}
	got := RenderWithPrologue(m)
	want := prologueRegex + "\n" + Render(m)
	if got != want {
		t.Fatalf("prologue mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

// --- rule forms ------------------------------------------------------------

func Test_Lines_Rule_Regex_With_Action(t *testing.T) {
	body := lineLoopBody(t, "/e(r+)/ { print($m.1) }")
	want := "__snail_match = __snail_regex_search(__snail_line, r\"e(r+)\")\n" +
		"            if __snail_match:\n" +
		"                print(__snail_match[1])\n"
	if !strings.HasSuffix(body, want) {
		t.Fatalf("rule mismatch\nwant suffix:\n%s\n---\ngot:\n%s", want, body)
	}
}

func Test_Lines_Rule_Bare_Block(t *testing.T) {
	body := lineLoopBody(t, "{ count += 1 }")
	if !strings.HasSuffix(body, "            (count := (count + 1))\n") {
		t.Fatalf("bare block should run unconditionally:\n%s", body)
	}
}

func Test_Lines_Rule_Empty_Action(t *testing.T) {
	body := lineLoopBody(t, "/skip/ { }")
	want := "            if __snail_match:\n" +
		"                pass\n"
	if !strings.HasSuffix(body, want) {
		t.Fatalf("empty action should pass\ngot:\n%s", body)
	}
}

func Test_Lines_Rule_Expression_Pattern(t *testing.T) {
	body := lineLoopBody(t, "$3")
	want := "            if __snail_fields[2]:\n" +
		"                print(__snail_line)\n"
	if !strings.HasSuffix(body, want) {
		t.Fatalf("expression pattern mismatch\ngot:\n%s", body)
	}
}

func Test_Lines_Rule_Match_Pattern(t *testing.T) {
	body := lineLoopBody(t, "$1 in /err/ { print($1) }")
	want := "__snail_match = __snail_regex_search(__snail_fields[0], r\"err\")\n" +
		"            if __snail_match:\n" +
		"                print(__snail_fields[0])\n"
	if !strings.HasSuffix(body, want) {
		t.Fatalf("match pattern mismatch\nwant suffix:\n%s\n---\ngot:\n%s", want, body)
	}
}

func Test_Lines_Rule_Requires_Pattern_Or_Block(t *testing.T) {
	_, err := ParseLines("x = 1")
	if err == nil || !strings.Contains(err.Error(), "lines rule requires a pattern or a block") {
		t.Fatalf("expected rule form error, got %v", err)
	}
}

func Test_Lines_Mode_Validation(t *testing.T) {
	_, err := ParseLines("print($src)")
	if err == nil || !strings.Contains(err.Error(), "`$src` is not valid here") {
		t.Fatalf("expected mode error, got %v", err)
	}
}

// --- begin and end blocks ---------------------------------------------------

func Test_Lines_Begin_End_Placement(t *testing.T) {
	lp, err := ParseLinesWithBeginEnd("/x/", []string{"total = 0"}, []string{"print(total)"})
	if err != nil {
		t.Fatalf("ParseLinesWithBeginEnd error: %v", err)
	}
	m, lerr := LowerLines(lp)
	if lerr != nil {
		t.Fatalf("LowerLines error: %v", lerr)
	}
	got := Render(m)
	if !strings.HasPrefix(got, "import sys\ntotal = 0\n__snail_nr = 0\n") {
		t.Fatalf("begin block should precede the loop:\n%s", got)
	}
	if !strings.HasSuffix(got, "print(total)\n") {
		t.Fatalf("end block should close the program:\n%s", got)
	}
}

func Test_Lines_AutoPrint_In_Actions(t *testing.T) {
	lp := mustParseLines(t, "/x/ { $3 }")
	m, err := LowerLinesWithTail(lp, TailAutoPrint)
	if err != nil {
		t.Fatalf("LowerLinesWithTail error: %v", err)
	}
	got := Render(m)
	if !strings.Contains(got, "__snail_last_result = __snail_fields[2]\n") {
		t.Fatalf("action tail should auto-print:\n%s", got)
	}
}

func Test_Lines_Yield_Rejected(t *testing.T) {
	lp := mustParseLines(t, "{ yield 1 }")
	if _, err := LowerLines(lp); err == nil {
		t.Fatal("expected yield placement error")
	}
}
