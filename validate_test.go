// validate_test.go
package snail

import "testing"

func Test_Validate_Line_Names_In_Main(t *testing.T) {
	for _, name := range []string{"$l", "$n", "$fn", "$m", "$f"} {
		mustParseFail(t, "print("+name+")", ModeMain,
			"`"+name+"` is only valid in line mode; use --lines")
	}
}

func Test_Validate_File_Names_In_Main(t *testing.T) {
	for _, name := range []string{"$src", "$fd", "$text"} {
		mustParseFail(t, "print("+name+")", ModeMain,
			"`"+name+"` is only valid in file mode; use --files")
	}
}

func Test_Validate_Path_Name_In_Main(t *testing.T) {
	mustParseFail(t, "print($p)", ModeMain,
		"`$p` is only valid in line or file mode; use --lines or --files")
}

func Test_Validate_Cross_Mode_Names(t *testing.T) {
	// File names are invalid per line, line names invalid per file.
	mustParseFail(t, "print($src)", ModeLines, "`$src` is not valid here")
	mustParseFail(t, "print($fd)", ModeLines, "`$fd` is not valid here")
	mustParseFail(t, "print($l)", ModeFiles, "`$l` is not valid here")
	mustParseFail(t, "print($f)", ModeFiles, "`$f` is not valid here")
}

func Test_Validate_Field_Indices(t *testing.T) {
	mustParseFail(t, "print($1)", ModeMain, "`$1` is only valid in line mode; use --lines")
	mustParseFail(t, "print($1)", ModeFiles, "`$1` is not valid here")
	if _, err := Parse("print($1)", ModeLines); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func Test_Validate_Accepts_Own_Mode(t *testing.T) {
	cases := []struct {
		src  string
		mode Mode
	}{
		{"print($l, $n, $fn, $m, $f, $p)", ModeLines},
		{"print($src, $fd, $text, $p)", ModeFiles},
		{"print(x)", ModeMain},
	}
	for _, tc := range cases {
		if _, err := Parse(tc.src, tc.mode); err != nil {
			t.Fatalf("unexpected error: %v\nsource:\n%s", err, tc.src)
		}
	}
}

func Test_Validate_Walks_Nested_Positions(t *testing.T) {
	cases := []string{
		`x = "v={$l}"`,          // interpolation
		"def f(a=$l) { a }",     // parameter default
		"ys = [x for x in $f]",  // comprehension source
		"if $l { 1 }",           // condition
		"x = f() : $m ?",        // compact try fallback
		"x = a | g($n)",         // pipeline argument
	}
	for _, src := range cases {
		mustParseFail(t, src, ModeMain, "only valid in line mode")
	}
}

func Test_Validate_Direct_Entry(t *testing.T) {
	p, perr := parseSource("print($text)")
	if perr != nil {
		t.Fatalf("parse error: %v", perr)
	}
	if err := Validate(p, ModeFiles); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(p, ModeLines); err == nil {
		t.Fatal("expected mode error")
	}
}

func Test_Mode_String(t *testing.T) {
	cases := []struct {
		mode Mode
		want string
	}{
		{ModeMain, "main"},
		{ModeLines, "lines"},
		{ModeFiles, "files"},
	}
	for _, tc := range cases {
		if got := tc.mode.String(); got != tc.want {
			t.Fatalf("Mode(%d).String() = %q, want %q", int(tc.mode), got, tc.want)
		}
	}
}
