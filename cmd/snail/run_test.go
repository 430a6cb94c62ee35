package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snail-lang/snail"
)

func TestResolveInput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.snail")
	require.NoError(t, os.WriteFile(path, []byte("print(1)\n"), 0o644), "unexpected error")

	opts := &runOptions{file: path}
	in, err := resolveInput(opts, []string{"a1", "a2"})
	require.NoError(t, err, "unexpected error")

	assert.Equal(t, "print(1)\n", in.source, "expected file contents as source")
	assert.Equal(t, path, in.filename, "expected the file path as filename")
	assert.Equal(t, []string{path, "a1", "a2"}, in.argv, "expected the path as argv[0]")
}

func TestResolveInput_Inline(t *testing.T) {
	in, err := resolveInput(&runOptions{}, []string{"print(1)", "x", "y"})
	require.NoError(t, err, "unexpected error")

	assert.Equal(t, "print(1)", in.source, "expected the first argument as source")
	assert.Equal(t, "<cmd>", in.filename, "expected the anonymous filename")
	assert.Equal(t, []string{"--", "x", "y"}, in.argv, "expected a placeholder argv[0]")
}

func TestResolveInput_NoInput(t *testing.T) {
	_, err := resolveInput(&runOptions{}, nil)
	require.Error(t, err, "expected error")
	assert.EqualError(t, err, "no input provided", "unexpected message")
}

func TestResolveInput_MissingFile(t *testing.T) {
	opts := &runOptions{file: filepath.Join(t.TempDir(), "nope.snail")}
	_, err := resolveInput(opts, nil)
	require.Error(t, err, "expected error")
	assert.Contains(t, err.Error(), "cannot read", "unexpected message")
}

func TestLauncherScript(t *testing.T) {
	got := launcherScript("print(42)\n", "script.snail", []string{"script.snail", "arg"})
	want := "import sys\n" +
		"sys.argv = [\"script.snail\", \"arg\"]\n" +
		"__file__ = \"script.snail\"\n" +
		"__name__ = \"__main__\"\n" +
		"\n" +
		"print(42)\n"
	assert.Equal(t, want, got, "unexpected launcher script")
}

func TestPythonString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{`a\b`, `"a\\b"`},
		{`say "hi"`, `"say \"hi\""`},
		{`C:\tmp\"x"`, `"C:\\tmp\\\"x\""`},
		{"", `""`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, pythonString(tc.in), "unexpected quoting for %q", tc.in)
	}
}

func TestPythonList(t *testing.T) {
	assert.Equal(t, "[]", pythonList(nil), "expected empty list")
	assert.Equal(t, `["--"]`, pythonList([]string{"--"}), "expected single element")
	assert.Equal(t, `["a", "b c"]`, pythonList([]string{"a", "b c"}), "expected joined elements")
}

func TestCompileInput_MainMode(t *testing.T) {
	code, err := compileInput("x = 6 * 7", snail.ModeMain, snail.TailNone, &runOptions{})
	require.NoError(t, err, "unexpected error")
	assert.Equal(t, "x = (6 * 7)\n", code, "unexpected generated code")
}

func TestCompileInput_LineModeBeginEnd(t *testing.T) {
	opts := &runOptions{begins: []string{"total = 0"}, ends: []string{"print(total)"}}
	code, err := compileInput("{ total = total + 1 }", snail.ModeLines, snail.TailNone, opts)
	require.NoError(t, err, "unexpected error")

	assert.True(t, strings.HasPrefix(code, "import sys\ntotal = 0\n"), "expected begin code before the driver, got:\n%s", code)
	assert.True(t, strings.HasSuffix(code, "print(total)\n"), "expected end code after the driver, got:\n%s", code)
	assert.Contains(t, code, "for __snail_path in (sys.argv[1:] or [\"-\"]):", "expected the per-line driver loop")
}

func TestCompileInput_ReportsParseErrors(t *testing.T) {
	_, err := compileInput("a b", snail.ModeMain, snail.TailNone, &runOptions{})
	require.Error(t, err, "expected error")

	var pe *snail.ParseError
	require.ErrorAs(t, err, &pe, "expected a *snail.ParseError")
	assert.Equal(t, "expected statement separator", pe.Message, "unexpected message")
}
