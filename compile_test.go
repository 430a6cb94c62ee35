// compile_test.go
package snail

import (
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func mustCompile(t *testing.T, src string, mode Mode, tail Tail) string {
	t.Helper()
	out, err := Compile(src, mode, tail)
	if err != nil {
		t.Fatalf("Compile error: %v\nsource:\n%s", err, src)
	}
	return out
}

func compileMain(t *testing.T, src string) string {
	t.Helper()
	return mustCompile(t, src, ModeMain, TailNone)
}

func wantCompile(t *testing.T, src, want string) {
	t.Helper()
	got := compileMain(t, src)
	if got != want {
		t.Fatalf("compile mismatch\nsource:\n%s\nwant:\n%s\n---\ngot:\n%s", src, want, got)
	}
}

// lowerMain renders without any prologue so tests can pin the lowered
// body alone.
func lowerMain(t *testing.T, src string) string {
	t.Helper()
	p, err := Parse(src, ModeMain)
	if err != nil {
		t.Fatalf("Parse error: %v\nsource:\n%s", err, src)
	}
	m, lerr := Lower(p)
	if lerr != nil {
		t.Fatalf("Lower error: %v\nsource:\n%s", lerr, src)
	}
	return Render(m)
}

// exprLine lowers a one-statement program and strips the trailing
// newline, leaving just the generated line.
func exprLine(t *testing.T, src string) string {
	t.Helper()
	return strings.TrimSuffix(lowerMain(t, src), "\n")
}

func wantLine(t *testing.T, src, want string) {
	t.Helper()
	got := exprLine(t, src)
	if got != want {
		t.Fatalf("lowering mismatch\nin:   %q\nwant: %q\ngot:  %q", src, want, got)
	}
}

func mustCompileFail(t *testing.T, src string, mode Mode, substr string) {
	t.Helper()
	_, err := Compile(src, mode, TailNone)
	if err == nil {
		t.Fatalf("expected compile error containing %q, got nil\nsource:\n%s", substr, src)
	}
	if substr != "" && !strings.Contains(err.Error(), substr) {
		t.Fatalf("expected error containing %q, got %v\nsource:\n%s", substr, err, src)
	}
}

func mustParseFail(t *testing.T, src string, mode Mode, substr string) {
	t.Helper()
	_, err := Parse(src, mode)
	if err == nil {
		t.Fatalf("expected parse error containing %q, got nil\nsource:\n%s", substr, src)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("expected error containing %q, got %v\nsource:\n%s", substr, err, src)
	}
}

// --- tests -----------------------------------------------------------------

func Test_Compile_Plain_Statements(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x = 6 * 7\nprint(x)", "x = (6 * 7)\nprint(x)\n"},
		{"", "pass\n"},
		{"a = 1; b = 2", "a = 1\nb = 2\n"},
		{"x = 1", "x = 1\n"}, // no sugar, no prologue
	}
	for _, tc := range cases {
		wantCompile(t, tc.in, tc.want)
	}
}

func Test_Compile_AutoPrint_Tail(t *testing.T) {
	got := mustCompile(t, "1 + 2", ModeMain, TailAutoPrint)
	want := "__snail_last_result = (1 + 2)\n" +
		"if isinstance(__snail_last_result, str):\n" +
		"    print(__snail_last_result)\n" +
		"elif (__snail_last_result is not None):\n" +
		"    import pprint\n" +
		"    pprint.pprint(__snail_last_result)\n"
	if got != want {
		t.Fatalf("auto-print mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Compile_AutoPrint_Only_Final_Statement(t *testing.T) {
	got := mustCompile(t, "x = 1\nx * 2", ModeMain, TailAutoPrint)
	if !strings.HasPrefix(got, "x = 1\n__snail_last_result = (x * 2)\n") {
		t.Fatalf("expected only the final expression wrapped, got:\n%s", got)
	}
	if strings.Count(got, "__snail_last_result =") != 1 {
		t.Fatalf("expected a single result binding, got:\n%s", got)
	}
}

func Test_Compile_AutoPrint_Semicolon_Suppresses(t *testing.T) {
	got := mustCompile(t, "1 + 2;", ModeMain, TailAutoPrint)
	if got != "(1 + 2)\n" {
		t.Fatalf("semicolon should suppress auto-print, got:\n%s", got)
	}
}

func Test_Compile_AutoPrint_Non_Expression_Tail(t *testing.T) {
	got := mustCompile(t, "x = 5", ModeMain, TailAutoPrint)
	if got != "x = 5\n" {
		t.Fatalf("assignment tail should not auto-print, got:\n%s", got)
	}
}

func Test_Compile_Prologue_Emitted_Once(t *testing.T) {
	got := compileMain(t, "a = b?\nc = d?")
	if n := strings.Count(got, "def __snail_compact_try"); n != 1 {
		t.Fatalf("want one helper definition, got %d:\n%s", n, got)
	}
	// Blank line between the prologue and the program body.
	if !strings.Contains(got, "\n\na = __snail_compact_try(lambda: b)\n") {
		t.Fatalf("missing separated body:\n%s", got)
	}
	if !strings.Contains(got, "\nc = __snail_compact_try(lambda: d)\n") {
		t.Fatalf("missing second wrapped statement:\n%s", got)
	}
}

func Test_Compile_Prologue_Block_Order(t *testing.T) {
	got := compileMain(t, "ok = read()?\nm = x in /err/")
	tryAt := strings.Index(got, "def __snail_compact_try")
	reAt := strings.Index(got, "class __SnailRegex")
	if tryAt < 0 || reAt < 0 {
		t.Fatalf("expected both helper groups:\n%s", got)
	}
	if tryAt > reAt {
		t.Fatalf("helper groups out of order (try at %d, regex at %d):\n%s", tryAt, reAt, got)
	}
}

func Test_Compile_Future_Imports_Precede_Prologue(t *testing.T) {
	got := compileMain(t, "from __future__ import annotations\nx = y?")
	want := "from __future__ import annotations\n\ndef __snail_compact_try"
	if !strings.HasPrefix(got, want) {
		t.Fatalf("future import must come first\nwant prefix:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Compile_Future_Braces_Dropped(t *testing.T) {
	cases := []struct{ in, want string }{
		{"from __future__ import braces", "pass\n"},
		{"from __future__ import braces, annotations", "from __future__ import annotations\n"},
	}
	for _, tc := range cases {
		wantCompile(t, tc.in, tc.want)
	}
}

func Test_Compile_Mode_Dispatch(t *testing.T) {
	lines := mustCompile(t, "print($l)", ModeLines, TailNone)
	if !strings.Contains(lines, "for __snail_path in (sys.argv[1:] or [\"-\"]):") {
		t.Fatalf("lines mode should emit the per-line driver:\n%s", lines)
	}
	files := mustCompile(t, "print($p)", ModeFiles, TailNone)
	if !strings.Contains(files, "__snail_paths = sys.argv[1:]") {
		t.Fatalf("files mode should emit the per-file driver:\n%s", files)
	}
}

func Test_Parse_Runs_Validation(t *testing.T) {
	mustParseFail(t, "print($1)", ModeMain, "`$1` is only valid in line mode; use --lines")
	if _, err := Parse("x = 1", ModeMain); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func Test_Compile_Error_Passthrough(t *testing.T) {
	mustCompileFail(t, "x = ", ModeMain, "expected expression, found end of input")
	mustCompileFail(t, "print($l)", ModeMain, "only valid in line mode")
}
