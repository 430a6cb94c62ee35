// lower_test.go
package snail

import (
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func lowerMode(t *testing.T, src string, mode Mode) string {
	t.Helper()
	p, err := Parse(src, mode)
	if err != nil {
		t.Fatalf("Parse error: %v\nsource:\n%s", err, src)
	}
	m, lerr := Lower(p)
	if lerr != nil {
		t.Fatalf("Lower error: %v\nsource:\n%s", lerr, src)
	}
	return Render(m)
}

func wantLineMode(t *testing.T, src, want string) {
	t.Helper()
	got := strings.TrimSuffix(lowerMode(t, src, ModeLines), "\n")
	if got != want {
		t.Fatalf("lowering mismatch\nin:   %q\nwant: %q\ngot:  %q", src, want, got)
	}
}

func wantFileMode(t *testing.T, src, want string) {
	t.Helper()
	got := strings.TrimSuffix(lowerMode(t, src, ModeFiles), "\n")
	if got != want {
		t.Fatalf("lowering mismatch\nin:   %q\nwant: %q\ngot:  %q", src, want, got)
	}
}

// --- compact try -----------------------------------------------------------

func Test_Lower_Compact_Try_Exception_Variable(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x = f() : $e ?",
			"x = __snail_compact_try(lambda: f(), lambda __snail_compact_exc: __snail_compact_exc)"},
		{"x = f() : log($e) ?",
			"x = __snail_compact_try(lambda: f(), lambda __snail_compact_exc: log(__snail_compact_exc))"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Lower_Exception_Variable_Outside_Fallback(t *testing.T) {
	mustCompileFail(t, "x = $e", ModeMain, "`$e` is only available in compact exception fallbacks")
}

// --- pipelines -------------------------------------------------------------

func Test_Lower_Pipeline_Forms(t *testing.T) {
	cases := []struct{ in, want string }{
		{"y = x | f", "y = f.__pipeline__(x)"},
		{"y = x | f()", "y = f().__pipeline__(x)"},
		{"y = x | f(_)", "y = __snail_partial(f, x)()"},
		{"y = x | f(a, _)", "y = __snail_partial(f, a, x)()"},
		{"y = x | f(_, a)", "y = __snail_partial(f, x, a)()"},
		{"y = x | f | g", "y = g.__pipeline__(f.__pipeline__(x))"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Lower_Pipeline_Placeholder_Limit(t *testing.T) {
	mustCompileFail(t, "y = x | f(_, _)", ModeMain, "pipeline calls may include at most one placeholder")
}

func Test_Lower_Placeholder_Is_A_Name(t *testing.T) {
	wantLine(t, "x = _", "x = _")
}

// --- subprocess and structured access --------------------------------------

func Test_Lower_Subprocess_Forms(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x = $(ls -la)", `x = __SnailSubprocessCapture(f"ls -la").__pipeline__(None)`},
		{"ok = @(ls)", `ok = __SnailSubprocessStatus(f"ls").__pipeline__(None)`},
		{"x = $(cat {path})", `x = __SnailSubprocessCapture(f"cat {path}").__pipeline__(None)`},
		{"y = x | $(sort)", `y = __SnailSubprocessCapture(f"sort").__pipeline__(x)`},
		{`x = $(echo a\nb)`, `x = __SnailSubprocessCapture(f"echo a\\nb").__pipeline__(None)`},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Lower_Structured_Accessor(t *testing.T) {
	wantLine(t, "q = $[users[0].name]", `q = __SnailStructuredAccessor("users[0].name")`)
}

// --- augmented assignment and increments ------------------------------------

func Test_Lower_Augmented_Assignment(t *testing.T) {
	cases := []struct{ in, want string }{
		{"x += 1", "(x := (x + 1))"},
		{"x -= 2", "(x := (x - 2))"},
		{"x //= 2", "(x := (x // 2))"},
		{"x **= 2", "(x := (x ** 2))"},
		{`obj.n += 2`, `__snail_aug_attr(obj, "n", 2, "+")`},
		{`obj.n //= 2`, `__snail_aug_attr(obj, "n", 2, "//")`},
		{`xs[0] += 1`, `__snail_aug_index(xs, 0, 1, "+")`},
		{`xs[i] %= m`, `__snail_aug_index(xs, i, m, "%")`},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Lower_Increment_Decrement(t *testing.T) {
	cases := []struct{ in, want string }{
		{"++x", "(x := (x + 1))"},
		{"--x", "(x := (x - 1))"},
		{"x++", "((__snail_incr_tmp := x), (x := (x + 1)), __snail_incr_tmp)[-1]"},
		{"x--", "((__snail_incr_tmp := x), (x := (x - 1)), __snail_incr_tmp)[-1]"},
		{"++obj.n", `__snail_incr_attr(obj, "n", 1, True)`},
		{"obj.n++", `__snail_incr_attr(obj, "n", 1, False)`},
		{"--xs[0]", `__snail_incr_index(xs, 0, -1, True)`},
		{"xs[0]--", `__snail_incr_index(xs, 0, -1, False)`},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

func Test_Lower_Increment_Value_Position(t *testing.T) {
	wantLine(t, "y = x++ + 1",
		"y = (((__snail_incr_tmp := x), (x := (x + 1)), __snail_incr_tmp)[-1] + 1)")
}

// --- regex -----------------------------------------------------------------

func Test_Lower_Regex_Forms(t *testing.T) {
	cases := []struct{ in, want string }{
		{`m = /\d+/`, `m = __snail_regex_compile(r"\d+")`},
		{`m = /a\/b/`, `m = __snail_regex_compile(r"a/b")`}, // escaped slash
		{"m = /e{n}r/", `m = __snail_regex_compile(f"e{n}r")`},
		{"ok = x in /err/", `ok = __snail_regex_search(x, r"err")`},
		{"ok = x not in /err/", `ok = not __snail_regex_search(x, r"err")`},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

// --- call arguments ---------------------------------------------------------

func Test_Lower_Call_Argument_Order(t *testing.T) {
	cases := []struct{ in, want string }{
		{"f(x=1, 2)", "f(2, x=1)"}, // positionals move ahead of keywords
		{"f(a, *b, k=1, **kw)", "f(a, *b, k=1, **kw)"},
		{"f(k=1, *b)", "f(*b, k=1)"},
	}
	for _, tc := range cases {
		wantLine(t, tc.in, tc.want)
	}
}

// --- context variables ------------------------------------------------------

func Test_Lower_Line_Mode_Names(t *testing.T) {
	cases := []struct{ in, want string }{
		{"print($0)", "print(__snail_line)"},
		{"print($l)", "print(__snail_line)"},
		{"print($3)", "print(__snail_fields[2])"},
		{"print($15)", "print(__snail_fields[14])"},
		{"print($n)", "print(__snail_nr_user)"},
		{"print($fn)", "print(__snail_fnr_user)"},
		{"print($p)", "print(__snail_path_user)"},
		{"print($m)", "print(__snail_match)"},
		{"print($f)", "print(__snail_fields)"},
		{"print($m.1)", "print(__snail_match[1])"},
	}
	for _, tc := range cases {
		wantLineMode(t, tc.in, tc.want)
	}
}

func Test_Lower_File_Mode_Names(t *testing.T) {
	cases := []struct{ in, want string }{
		{"print($src)", "print(__snail_src)"},
		{"print($fd)", "print(__snail_fd)"},
		{"print($text)", "print(__snail_text)"},
		{"print($p)", "print(__snail_path_user)"},
	}
	for _, tc := range cases {
		wantFileMode(t, tc.in, tc.want)
	}
}

// --- yield placement --------------------------------------------------------

func Test_Lower_Yield_Outside_Function(t *testing.T) {
	mustCompileFail(t, "yield 1", ModeMain, "yield expressions are only allowed inside function bodies")
	mustCompileFail(t, "if a { yield }", ModeMain, "yield expressions are only allowed inside function bodies")
}

func Test_Lower_Lambda_Generator(t *testing.T) {
	wantLine(t, "g = def { yield 1 }", "g = lambda: (yield 1)")
}

// --- implicit return --------------------------------------------------------

func Test_Lower_Implicit_Return(t *testing.T) {
	cases := []struct{ in, want string }{
		{"def f() { 42 }", "def f():\n    return 42\n"},
		{"def f() { 42; }", "def f():\n    42\n"}, // semicolon opts out
		{"def f(x) { x * 2 }", "def f(x):\n    return (x * 2)\n"},
		{"def g() { yield 1 }", "def g():\n    return (yield 1)\n"},
		{"def f() { x = 1 }", "def f():\n    x = 1\n"}, // only bare expressions return
	}
	for _, tc := range cases {
		got := compileMain(t, tc.in)
		if got != tc.want {
			t.Fatalf("implicit return mismatch\nsource:\n%s\nwant:\n%s\n---\ngot:\n%s", tc.in, tc.want, got)
		}
	}
}

// --- lambda hoisting --------------------------------------------------------

func Test_Lower_Complex_Lambda_Hoisted(t *testing.T) {
	got := compileMain(t, "f = def(x) { y = x + 1\ny * 2 }")
	want := "def __snail_lambda_1(x):\n" +
		"    y = (x + 1)\n" +
		"    return (y * 2)\n" +
		"f = __snail_lambda_1\n"
	if got != want {
		t.Fatalf("hoist mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Lower_Default_Param_Lambda_Hoisted(t *testing.T) {
	got := compileMain(t, "f = def(x=1) { x }")
	want := "def __snail_lambda_1(x=1):\n" +
		"    return x\n" +
		"f = __snail_lambda_1\n"
	if got != want {
		t.Fatalf("hoist mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Lower_Condition_Lambda_Hoisted_Before_Statement(t *testing.T) {
	got := compileMain(t, "if check(def(x=2) { x }) { f() }")
	want := "def __snail_lambda_1(x=2):\n" +
		"    return x\n" +
		"if check(__snail_lambda_1):\n" +
		"    f()\n"
	if got != want {
		t.Fatalf("hoist mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Lower_Hoisted_Lambdas_Numbered_In_Order(t *testing.T) {
	got := compileMain(t, "g = [def { a = 1\na }, def { b = 2\nb }]")
	want := "def __snail_lambda_1():\n" +
		"    a = 1\n" +
		"    return a\n" +
		"def __snail_lambda_2():\n" +
		"    b = 2\n" +
		"    return b\n" +
		"g = [__snail_lambda_1, __snail_lambda_2]\n"
	if got != want {
		t.Fatalf("hoist mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

// --- let bindings -----------------------------------------------------------

func Test_Lower_If_Let(t *testing.T) {
	got := compileMain(t, "if let x = v() { use(x) }")
	want := "__snail_let_value = v()\n" +
		"try:\n" +
		"    x = __snail_let_value\n" +
		"except (TypeError, ValueError):\n" +
		"    __snail_let_ok = False\n" +
		"else:\n" +
		"    __snail_let_ok = True\n" +
		"if __snail_let_ok:\n" +
		"    use(x)\n"
	if got != want {
		t.Fatalf("if let mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Lower_If_Let_With_Guard(t *testing.T) {
	got := compileMain(t, "if let x = v(); x > 0 { use(x) }")
	if !strings.Contains(got, "if (__snail_let_ok and (x > 0)):\n") {
		t.Fatalf("guard should conjoin with the ok flag:\n%s", got)
	}
}

func Test_Lower_If_Let_Destructure(t *testing.T) {
	got := compileMain(t, "if let a, b = pair() { use(a, b) }")
	if !strings.Contains(got, "    (a, b) = __snail_let_value\n") {
		t.Fatalf("tuple pattern should assign inside the probe:\n%s", got)
	}
}

func Test_Lower_Let_In_Elif_Renders_Nested(t *testing.T) {
	got := compileMain(t, "if a { 1 } elif let x = f() { 2 } else { 3 }")
	want := "if a:\n" +
		"    1\n" +
		"else:\n" +
		"    __snail_let_value = f()\n" +
		"    try:\n" +
		"        x = __snail_let_value\n" +
		"    except (TypeError, ValueError):\n" +
		"        __snail_let_ok = False\n" +
		"    else:\n" +
		"        __snail_let_ok = True\n" +
		"    if __snail_let_ok:\n" +
		"        2\n" +
		"    else:\n" +
		"        3\n"
	if got != want {
		t.Fatalf("elif let mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Lower_While_Let(t *testing.T) {
	got := compileMain(t, "while let x = q.pop(); x { use(x) }")
	want := "__snail_let_keep = True\n" +
		"while __snail_let_keep:\n" +
		"    __snail_let_value = q.pop()\n" +
		"    __snail_let_ok = False\n" +
		"    try:\n" +
		"        x = __snail_let_value\n" +
		"    except (TypeError, ValueError):\n" +
		"        __snail_let_ok = False\n" +
		"    else:\n" +
		"        __snail_let_ok = True\n" +
		"    if (__snail_let_ok and x):\n" +
		"        use(x)\n" +
		"    else:\n" +
		"        __snail_let_keep = False\n"
	if got != want {
		t.Fatalf("while let mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}
