// parser_test.go
package snail

import "testing"

func Test_Parser_Precedence(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x = 1 + 2 * 3", "x = (1 + (2 * 3))"},
		{"x = (1 + 2) * 3", "x = ((1 + 2) * 3)"},
		{"x = a - b - c", "x = ((a - b) - c)"}, // left associative
		{"x = a ** b ** c", "x = (a ** (b ** c))"},
		{"x = -2 ** 2", "x = -(2 ** 2)"}, // power binds tighter than minus
		{"x = not a and b", "x = ((not a) and b)"},
		{"x = a or b and c", "x = (a or (b and c))"},
		{"x = a % b", "x = (a % b)"},
		{"x = a // b * c", "x = ((a // b) * c)"},
		{"x = not not a", "x = not (not a)"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Parser_Comparisons(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x = a < b", "x = (a < b)"},
		{"x = a < b == c", "x = (a < b == c)"}, // one chained comparison
		{"x = a in b", "x = (a in b)"},
		{"x = a not in b", "x = (a not in b)"},
		{"x = a is not b", "x = (a is not b)"},
		{"x = a == b != c", "x = (a == b != c)"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Parser_Compact_Try_Postfix(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x = b?", "x = __snail_compact_try(lambda: b)"},
		{"x = a + b?", "x = (a + __snail_compact_try(lambda: b))"}, // binds to b only
		{"x = f(1)?", "x = __snail_compact_try(lambda: f(1))"},
		{"x = obj.read()?", "x = __snail_compact_try(lambda: obj.read())"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Parser_Compact_Try_Fallback(t *testing.T) {
	wantLine(t, "x = f() : 0 ?",
		"x = __snail_compact_try(lambda: f(), lambda __snail_compact_exc: 0)")
}

func Test_Parser_Ternary(t *testing.T) {
	wantLine(t, "x = a if c else b", "x = (a if c else b)")
	wantLine(t, "x = a if c else b if d else e", "x = (a if c else (b if d else e))")
}

func Test_Parser_Def_Expression(t *testing.T) {
	cases := []struct{ in, want string }{
		{"f = def(x) { x * 2 }", "f = lambda x: (x * 2)"},
		{"f = def { 42 }", "f = lambda: 42"}, // parameter list is optional
		{"f = def(a, b) { a + b }", "f = lambda a, b: (a + b)"},
		{"f = def(x) { x; x + 1 }", "f = lambda x: (x, (x + 1))[-1]"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Parser_Def_Statement(t *testing.T) {
	got := compileMain(t, "def f(a, b=1, *rest, **kw) { return a }")
	want := "def f(a, b=1, *rest, **kw):\n" +
		"    return a\n"
	if got != want {
		t.Fatalf("def mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Parser_Class_Statement(t *testing.T) {
	got := compileMain(t, "class A { def m(self) { return 1 } }")
	want := "class A:\n" +
		"    def m(self):\n" +
		"        return 1\n"
	if got != want {
		t.Fatalf("class mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Parser_Tuple_Forms(t *testing.T) {
	cases := []struct{ in, want string }{
		{"t = ()", "t = ()"},
		{"t = (1,)", "t = (1,)"},
		{"t = 1,", "t = (1,)"},
		{"t = 1, 2", "t = (1, 2)"},
		{"t = (a)", "t = a"}, // grouping parens vanish
		{"a, b = b, a", "(a, b) = (b, a)"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Parser_Star_Targets(t *testing.T) {
	wantLine(t, "*a, b = xs", "(*a, b) = xs")
	wantLine(t, "a, *rest = xs", "(a, *rest) = xs")
}

func Test_Parser_Compound_Expression(t *testing.T) {
	wantLine(t, "x = (a; b; c)", "x = (a, b, c)[-1]")
	wantLine(t, "x = (a; b)", "x = (a, b)[-1]")
}

func Test_Parser_Postfix_Chains(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x = obj.attr", "x = obj.attr"},
		{"x = xs[0]", "x = xs[0]"},
		{"x = f(1)(2)", "x = f(1)(2)"},
		{"x = obj.attr[0](1).y", "x = obj.attr[0](1).y"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Parser_Errors(t *testing.T) {
	cases := []struct{ src, want string }{
		{"x = y = 1", "chained assignment is not supported"},
		{"*x", "'*' is only valid in assignment targets"},
		{"try { f() }", "try must have at least one except clause or a finally block"},
		{"x = \"abc", "unterminated string literal"},
		{"x = x++()", "postfix increment/decrement must be the final suffix"},
		{"x = (x += 1)?", "compact try cannot wrap a binding expression"},
		{"x = (;)", "compound expression requires at least one expression"},
		{"x = @ 1", "unexpected character: '@'"},
	}
	for _, tc := range cases {
		mustParseFail(t, tc.src, ModeMain, tc.want)
	}
}

func Test_Parser_FString_Errors(t *testing.T) {
	cases := []struct{ src, want string }{
		{`x = "{"`, "unterminated f-string expression"},
		{`x = "{}"`, "empty f-string expression"},
		{`x = "a}b"`, "unmatched '}' in f-string"},
		{`x = "{x!z}"`, "invalid f-string conversion (expected !r, !s, or !a)"},
	}
	for _, tc := range cases {
		mustParseFail(t, tc.src, ModeMain, tc.want)
	}
}
