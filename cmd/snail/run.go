package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/snail-lang/snail"
)

// runOptions holds the root command's flag values.
type runOptions struct {
	file        string
	lines       bool
	files       bool
	printPython bool
	noPrint     bool
	begins      []string
	ends        []string
	watch       bool
}

// input is a resolved source program plus the identity the script sees
// at runtime: the __file__ value and the sys.argv list.
type input struct {
	source   string
	filename string
	argv     []string
}

func runRoot(cmd *cobra.Command, opts *runOptions, args []string) error {
	if opts.lines && opts.files {
		return fmt.Errorf("cannot combine --lines and --files")
	}
	if opts.watch && (opts.file == "" || !opts.printPython) {
		return fmt.Errorf("--watch requires --file and --python")
	}

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(cfgPath, cmd.Flags())
	if err != nil {
		return err
	}
	mode, err := parseMode(cfg.Mode)
	if err != nil {
		return err
	}
	if (len(opts.begins) > 0 || len(opts.ends) > 0) && mode != snail.ModeLines {
		return fmt.Errorf("--begin and --end require line mode")
	}
	tail := snail.TailNone
	if cfg.AutoPrint {
		tail = snail.TailAutoPrint
	}

	in, err := resolveInput(opts, args)
	if err != nil {
		// Matches the old behavior: a missing program is an ordinary
		// runtime failure, not a flag mistake.
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return exitCode(1)
	}

	if opts.watch {
		return watchAndEmit(opts, cfg, mode, tail, in.filename)
	}

	code, err := compileInput(in.source, mode, tail, opts)
	if err != nil {
		return diagnostic(err, in.filename)
	}

	if opts.printPython {
		if err := writePython(os.Stdout, code, cfg.Color); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return exitCode(1)
		}
		return nil
	}
	return execPython(cfg.Python, code, in)
}

// resolveInput applies the input rules: -f reads a file and the script
// sees its own path as argv[0]; inline code is anonymous, so argv[0] is
// a plain "--" placeholder.
func resolveInput(opts *runOptions, args []string) (*input, error) {
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %v", opts.file, err)
		}
		return &input{
			source:   string(data),
			filename: opts.file,
			argv:     append([]string{opts.file}, args...),
		}, nil
	}
	if len(args) > 0 {
		return &input{
			source:   args[0],
			filename: "<cmd>",
			argv:     append([]string{"--"}, args[1:]...),
		}, nil
	}
	return nil, fmt.Errorf("no input provided")
}

func compileInput(source string, mode snail.Mode, tail snail.Tail, opts *runOptions) (string, error) {
	if mode == snail.ModeLines {
		lp, err := snail.ParseLinesWithBeginEnd(source, opts.begins, opts.ends)
		if err != nil {
			return "", err
		}
		m, err := snail.LowerLinesWithTail(lp, tail)
		if err != nil {
			return "", err
		}
		return snail.RenderWithPrologue(m), nil
	}
	return snail.Compile(source, mode, tail)
}

// launcherScript wraps compiled code so the child process looks like a
// directly-invoked Python script: argv, __file__, and __name__ are set
// before any user code runs.
func launcherScript(code, filename string, argv []string) string {
	var b strings.Builder
	b.WriteString("import sys\n")
	b.WriteString("sys.argv = " + pythonList(argv) + "\n")
	b.WriteString("__file__ = " + pythonString(filename) + "\n")
	b.WriteString("__name__ = \"__main__\"\n\n")
	b.WriteString(code)
	return b.String()
}

// pythonString quotes s as a Python double-quoted string literal.
// Backslashes double before quotes escape, or the escapes themselves
// would be mangled.
func pythonString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func pythonList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = pythonString(it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// execPython hands the launcher script to the configured interpreter
// with the parent's standard streams and reports the child's exit code
// as our own.
func execPython(interpreter, code string, in *input) error {
	script := launcherScript(code, in.filename, in.argv)
	child := exec.Command(interpreter, "-c", script)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	if err := child.Run(); err != nil {
		var xe *exec.ExitError
		if errors.As(err, &xe) {
			status := xe.ExitCode()
			if status < 0 {
				status = 1
			}
			return exitCode(status)
		}
		fmt.Fprintf(os.Stderr, "%s: failed to execute %s: %v\n", appName, interpreter, err)
		return exitCode(1)
	}
	return nil
}

// watchAndEmit recompiles and reprints the Python every time the source
// file changes. Compile errors go to stderr and the watch keeps going;
// only watcher failures or an interrupt end the loop.
func watchAndEmit(opts *runOptions, cfg *config, mode snail.Mode, tail snail.Tail, path string) error {
	emit := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, path, err)
			return
		}
		code, err := compileInput(string(data), mode, tail, opts)
		if err != nil {
			text := snail.FormatError(err, path)
			if !strings.HasSuffix(text, "\n") {
				text += "\n"
			}
			fmt.Fprint(os.Stderr, text)
			return
		}
		if err := writePython(os.Stdout, code, cfg.Color); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		}
	}
	emit()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	// Editors fire several events per save; the timer collapses a burst
	// into one recompile.
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-interrupt:
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(100 * time.Millisecond)
		case <-debounce.C:
			emit()
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "%s: watch: %v\n", appName, werr)
		}
	}
}
