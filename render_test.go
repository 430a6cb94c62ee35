// render_test.go
package snail

import "testing"

// --- string literals -------------------------------------------------------

func Test_Render_String_Delimiters_Preserved(t *testing.T) {
	cases := []struct{ in, want string }{
		{`s = "hi"`, `s = "hi"`},
		{`s = 'hi'`, `s = 'hi'`},
		{`s = "he said 'no'"`, `s = "he said 'no'"`},
		{`s = 'he said "no"'`, `s = 'he said "no"'`},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Render_String_Escapes_Verbatim(t *testing.T) {
	// Escape sequences in plain strings pass through untouched; the
	// target language interprets them, not the compiler.
	cases := []struct{ in, want string }{
		{`s = "a\nb"`, `s = "a\nb"`},
		{`s = 'a\tb'`, `s = 'a\tb'`},
		{`s = "say \"hi\""`, `s = "say \"hi\""`},
		{`s = "back\\slash"`, `s = "back\\slash"`},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Render_Brace_Collapse_In_Plain_Strings(t *testing.T) {
	wantLine(t, `s = "a{{b}}c"`, `s = "a{b}c"`)
}

func Test_Render_Triple_Strings(t *testing.T) {
	got := exprLine(t, "s = \"\"\"a\nb\"\"\"")
	want := "s = \"\"\"a\nb\"\"\""
	if got != want {
		t.Fatalf("triple string mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func Test_Render_Raw_Strings(t *testing.T) {
	cases := []struct{ in, want string }{
		{`s = r"a\nb"`, `s = r"a\nb"`},       // backslashes stay literal
		{`s = r'x'`, `s = r'x'`},             // no quotes in content, delim kept
		{`s = r"it's"`, `s = r"it's"`},       // single inside double stays
		{`s = r'say "hi"'`, `s = r'say "hi"'`},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
	// Both quote kinds force the triple form.
	got := exprLine(t, "s = r\"\"\"both \" and ' here\"\"\"")
	want := "s = r\"\"\"both \" and ' here\"\"\""
	if got != want {
		t.Fatalf("raw delimiter mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func Test_Render_Bytes_Strings(t *testing.T) {
	cases := []struct{ in, want string }{
		{`s = b"abc"`, `s = b"abc"`},
		{`s = rb"a\d"`, `s = rb"a\d"`},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

// --- interpolation ---------------------------------------------------------

func Test_Render_FString_Basics(t *testing.T) {
	cases := []struct{ in, want string }{
		{`x = "v={n}"`, `x = f"v={n}"`},
		{`x = "{v!r}"`, `x = f"{v!r}"`},
		{`x = "{v!s}"`, `x = f"{v!s}"`},
		{`x = "{v:>10}"`, `x = f"{v:>10}"`},
		{`x = "{v:{w}}"`, `x = f"{v:{w}}"`}, // nested format spec
		{`x = "{a}{b}"`, `x = f"{a}{b}"`},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Render_FString_Quote_Choice(t *testing.T) {
	// The outer quote dodges quotes used by nested string literals.
	wantLine(t, `x = 'k={d["a"]}'`, `x = f'k={d["a"]}'`)
	got := exprLine(t, "x = \"\"\"both={a[\"x\"] + b['y']}\"\"\"")
	want := "x = f\"\"\"both={(a[\"x\"] + b['y'])}\"\"\""
	if got != want {
		t.Fatalf("quote choice mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func Test_Render_FString_Text_Escapes(t *testing.T) {
	cases := []struct{ in, want string }{
		{`x = "a\nb{n}"`, `x = f"a\nb{n}"`},   // known escape round-trips
		{`x = "a\/b{n}"`, `x = f"a/b{n}"`},    // \/ collapses to a slash
		{`x = "\d{n}"`, `x = f"\\d{n}"`},      // unknown escape keeps backslash
		{`x = "a{{b}}{n}"`, `x = f"a{{b}}{n}"`},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Render_Bytes_FString_Encode(t *testing.T) {
	wantLine(t, `x = b"n={n}"`, `x = f"n={n}".encode()`)
}

// --- collections and subscripts --------------------------------------------

func Test_Render_Collections(t *testing.T) {
	cases := []struct{ in, want string }{
		{"xs = [1, 2, 3]", "xs = [1, 2, 3]"},
		{"xs = []", "xs = []"},
		{`d = %{"a": 1, "b": 2}`, `d = {"a": 1, "b": 2}`},
		{"d = %{}", "d = {}"},
		{"s = #{1, 2}", "s = {1, 2}"},
		{"ys = [i * 2 for i in range(3) if i]", "ys = [(i * 2) for i in range(3) if i]"},
		{"d = %{k: k * 2 for k in ks}", "d = {k: (k * 2) for k in ks}"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Render_Slices(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x = xs[1:3]", "x = xs[1:3]"},
		{"x = xs[:3]", "x = xs[:3]"},
		{"x = xs[1:]", "x = xs[1:]"},
		{"x = xs[:]", "x = xs[:]"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Render_Literal_Receiver_Parens(t *testing.T) {
	wantLine(t, "x = (5).bit_length()", "x = (5).bit_length()")
	wantLine(t, "x = (-y).real", "x = (-y).real")
}

// --- statements ------------------------------------------------------------

func Test_Render_If_Elif_Else(t *testing.T) {
	got := compileMain(t, "if a { 1 } elif b { 2 } else { 3 }")
	want := "if a:\n" +
		"    1\n" +
		"elif b:\n" +
		"    2\n" +
		"else:\n" +
		"    3\n"
	if got != want {
		t.Fatalf("if chain mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Render_Empty_Block_Pads_Pass(t *testing.T) {
	wantCompile(t, "if a { }", "if a:\n    pass\n")
	wantCompile(t, "def f() { }", "def f():\n    pass\n")
}

func Test_Render_Loops_With_Else(t *testing.T) {
	got := compileMain(t, "for i in xs { f(i) } else { g() }")
	want := "for i in xs:\n" +
		"    f(i)\n" +
		"else:\n" +
		"    g()\n"
	if got != want {
		t.Fatalf("for/else mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
	got = compileMain(t, "while c { f() } else { g() }")
	want = "while c:\n" +
		"    f()\n" +
		"else:\n" +
		"    g()\n"
	if got != want {
		t.Fatalf("while/else mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Render_With_Statement(t *testing.T) {
	wantCompile(t, "with open(p) as f { g(f) }", "with open(p) as f:\n    g(f)\n")
	wantCompile(t, "with a as x, b as y { f() }", "with a as x, b as y:\n    f()\n")
}

func Test_Render_Try_Full_Form(t *testing.T) {
	src := "try { f() } except ValueError as e { g(e) } except { h() } else { i() } finally { j() }"
	got := compileMain(t, src)
	want := "try:\n" +
		"    f()\n" +
		"except ValueError as e:\n" +
		"    g(e)\n" +
		"except:\n" +
		"    h()\n" +
		"else:\n" +
		"    i()\n" +
		"finally:\n" +
		"    j()\n"
	if got != want {
		t.Fatalf("try mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Render_Raise_Assert_Del(t *testing.T) {
	cases := []struct{ in, want string }{
		{"raise", "raise"},
		{"raise X", "raise X"},
		{"raise X from Y", "raise X from Y"},
		{`assert t, "boom"`, `assert t, "boom"`},
		{"del a, b", "del a, b"},
		{"del xs[0]", "del xs[0]"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Render_Import_Forms(t *testing.T) {
	cases := []struct{ in, want string }{
		{"import a.b as c", "import a.b as c"},
		{"import a, b", "import a, b"},
		{"from . import x", "from . import x"},
		{"from ..pkg import y as z", "from ..pkg import y as z"},
		{"from m import *", "from m import *"},
		{"from m import (a, b)", "from m import a, b"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Render_Yield_Forms(t *testing.T) {
	got := compileMain(t, "def f() { yield 1\nyield 2; }")
	want := "def f():\n" +
		"    (yield 1)\n" +
		"    (yield 2)\n"
	if got != want {
		t.Fatalf("yield mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
	wantCompile(t, "def g() { x = yield from xs }", "def g():\n    x = (yield from xs)\n")
}

func Test_Render_Statements_Are_Adjacent(t *testing.T) {
	// No blank lines between top-level statements.
	wantCompile(t, "a = 1\n\n\nb = 2", "a = 1\nb = 2\n")
}
