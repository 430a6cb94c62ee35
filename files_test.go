// files_test.go
package snail

import (
	"strings"
	"testing"
)

func lowerFiles(t *testing.T, src string) string {
	t.Helper()
	p, err := Parse(src, ModeFiles)
	if err != nil {
		t.Fatalf("Parse error: %v\nsource:\n%s", err, src)
	}
	m, lerr := LowerFiles(p)
	if lerr != nil {
		t.Fatalf("LowerFiles error: %v\nsource:\n%s", lerr, src)
	}
	return Render(m)
}

func Test_Files_Scaffold_Golden(t *testing.T) {
	got := lowerFiles(t, "print($text)")
	want := "import sys\n" +
		"__snail_paths = sys.argv[1:]\n" +
		"__snail_src = None\n" +
		"__snail_fd = None\n" +
		"__snail_text = None\n" +
		"for __snail_src in __snail_paths:\n" +
		"    __snail_path_user = __snail_src\n" +
		"    with __SnailLazyFile(__snail_src, \"r\") as __snail_fd:\n" +
		"        __snail_text = __SnailLazyText(__snail_fd)\n" +
		"        print(__snail_text)\n"
	if got != want {
		t.Fatalf("scaffold mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func Test_Files_Compile_Pulls_Lazy_Helpers(t *testing.T) {
	got := mustCompile(t, "print($src)", ModeFiles, TailNone)
	if !strings.HasPrefix(got, "class __SnailLazyFile:") {
		t.Fatalf("lazy helper group should lead the output:\n%s", got)
	}
	if !strings.Contains(got, "class __SnailLazyText:") {
		t.Fatalf("lazy text helper missing:\n%s", got)
	}
}

func Test_Files_AutoPrint_In_Body(t *testing.T) {
	got := mustCompile(t, "$text.read()", ModeFiles, TailAutoPrint)
	if !strings.Contains(got, "        __snail_last_result = __snail_text.read()\n") {
		t.Fatalf("body tail should auto-print inside the with block:\n%s", got)
	}
}

func Test_Files_Yield_Rejected(t *testing.T) {
	p, err := Parse("yield 1", ModeFiles)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if _, err := LowerFiles(p); err == nil {
		t.Fatal("expected yield placement error")
	}
}
