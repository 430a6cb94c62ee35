// preprocess_test.go
package snail

import (
	"strings"
	"testing"
)

func Test_Preprocess_Operator_Continuation(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x = 1 +\n2", "x = (1 + 2)\n"},   // trailing operator continues
		{"x = 1\n+ 2", "x = (1 + 2)\n"},   // leading operator continues
		{"x = a /\nb", "x = (a / b)\n"},   // division, not a regex open
		{"x = a //\nb", "x = (a // b)\n"}, // floor division
		{"x = obj\n.attr", "x = obj.attr\n"},
		{"x = 1 if c\nelse 2", "x = (1 if c else 2)\n"},
		{"x = a\n| f", "x = f.__pipeline__(a)\n"},
	}
	for _, tc := range cases {
		wantCompile(t, tc.in, tc.want)
	}
}

func Test_Preprocess_Double_Plus_Starts_New_Statement(t *testing.T) {
	// A leading ++ is a prefix increment, not a continuation of x.
	wantCompile(t, "x\n++y", "x\n(y := (y + 1))\n")
}

func Test_Preprocess_Containers_Span_Lines(t *testing.T) {
	cases := []struct{ in, want string }{
		{"xs = [\n1,\n2\n]", "xs = [1, 2]\n"},
		{"x = (1 +\n2)", "x = (1 + 2)\n"},
		{"d = %{\n\"a\": 1\n}", "d = {\"a\": 1}\n"},
	}
	for _, tc := range cases {
		wantCompile(t, tc.in, tc.want)
	}
}

func Test_Preprocess_Header_Newlines_Suppressed(t *testing.T) {
	// The brace block may open on its own line.
	wantCompile(t, "if x == 1\n{\nprint(1)\n}", "if (x == 1):\n    print(1)\n")
}

func Test_Preprocess_Comment_Ends_Statement(t *testing.T) {
	wantCompile(t, "x = 1 # note\ny = 2", "x = 1\ny = 2\n")
}

func Test_Preprocess_Backslash_Joins_Lines(t *testing.T) {
	wantCompile(t, "x = 1 + \\\n2", "x = (1 + 2)\n")
}

func Test_Preprocess_Stray_Backslash_Fails(t *testing.T) {
	mustCompileFail(t, "x = \\ 1", ModeMain, "must be followed by a newline")
}

func Test_Preprocess_Statements_Need_Separators(t *testing.T) {
	mustCompileFail(t, "a b", ModeMain, "expected statement separator")
	wantCompile(t, "a; b", "a\nb\n")
}

func Test_Preprocess_Block_End_Acts_As_Separator(t *testing.T) {
	// A closing brace ends the statement, so no explicit separator is
	// needed before the next one.
	got := compileMain(t, "if x { y } z")
	want := "if x:\n    y\nz\n"
	if got != want {
		t.Fatalf("compile mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Preprocess_Regex_After_Operator_Position(t *testing.T) {
	// After `=` a slash opens a regex literal; after an operand it is
	// division.
	got := exprLine(t, "m = /err/")
	if got != "m = __snail_regex_compile(r\"err\")" {
		t.Fatalf("regex literal mismatch: %q", got)
	}
	if got := exprLine(t, "q = a / b / c"); got != "q = ((a / b) / c)" {
		t.Fatalf("division mismatch: %q", got)
	}
}

func Test_Preprocess_Keyword_Continuations(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x = a\nand b", "x = (a and b)\n"},
		{"x = a\nor b", "x = (a or b)\n"},
		{"x = a in\nb", "x = (a in b)\n"},
		{"x = a\nis b", "x = (a is b)\n"},
	}
	for _, tc := range cases {
		wantCompile(t, tc.in, tc.want)
	}
}

func Test_Preprocess_Else_Chain_Across_Lines(t *testing.T) {
	src := "if a { 1 }\nelse { 2 }"
	got := compileMain(t, src)
	want := "if a:\n    1\nelse:\n    2\n"
	if got != want {
		t.Fatalf("compile mismatch\nsource:\n%s\nwant:\n%s\n---\ngot:\n%s", src, want, got)
	}
	if !strings.Contains(compileMain(t, "try { f() }\nexcept { g() }"), "except:") {
		t.Fatal("except line should continue the try statement")
	}
}
