// Command snail compiles snail source to Python and runs it.
//
// The root command takes inline code or a file, compiles it under the
// selected mode, and either prints the generated Python or hands it to
// a Python interpreter. Subcommands cover the formatter, the REPL, and
// version reporting.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/snail-lang/snail"
)

const appName = "snail"

// Overridden at release time via -ldflags.
var (
	version   = "v0.1.0"
	buildDate = "unknown"
)

// exitError carries a process exit code through cobra's error return.
// Anything else coming out of Execute is treated as a usage problem.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func exitCode(code int) error { return &exitError{code: code} }

// diagnostic prints a compile error the way every command reports them
// and converts it into the conventional failure exit code.
func diagnostic(err error, filename string) error {
	text := snail.FormatError(err, filename)
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	fmt.Fprint(os.Stderr, text)
	return exitCode(1)
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", appName)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:     "snail [flags] <code> [args...]",
		Version: version,
		Short:   "Snail programming language interpreter",
		Long: heredoc.Doc(`
			Snail compiles short scripts to Python and runs them.

			Inline code is the first positional argument; everything after
			it is passed to the script as arguments. With -f the source is
			read from a file instead and the remaining arguments follow the
			file path. Line mode (-a) runs the program once per input line
			with awk-style context variables, file mode (-m) once per input
			file.
		`),
		Example: heredoc.Doc(`
			  # print the answer
			  snail 'x = 6 * 7
			  print(x)'

			  # sum the first column of a file
			  snail -a --begin 'total = 0' --end 'print(total)' 'total += int($1)' data.txt

			  # inspect the generated Python without running it
			  snail -p 'risky()?'
		`),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts, args)
		},
	}

	// The first positional argument is snail code; flags after it belong
	// to the script, not to us.
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "run a source file instead of inline code")
	cmd.Flags().BoolVarP(&opts.lines, "lines", "a", false, "run once per input line (awk-style rules)")
	cmd.Flags().BoolVarP(&opts.files, "files", "m", false, "run once per input file")
	cmd.Flags().BoolVarP(&opts.printPython, "python", "p", false, "print generated Python instead of running it")
	cmd.Flags().BoolVarP(&opts.noPrint, "no-print", "P", false, "disable auto-printing of the last expression")
	cmd.Flags().StringArrayVar(&opts.begins, "begin", nil, "code to run before the first line (line mode, repeatable)")
	cmd.Flags().StringArrayVar(&opts.ends, "end", nil, "code to run after the last line (line mode, repeatable)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "with -f -p, re-emit the Python on file change")
	cmd.PersistentFlags().String("color", "", "colorize printed Python: auto, always, or never")
	cmd.PersistentFlags().String("config", "", "config file (default: ./.snail.yaml)")

	cmd.AddCommand(newFmtCmd())
	cmd.AddCommand(newReplCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
