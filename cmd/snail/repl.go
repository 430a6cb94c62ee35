package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/snail-lang/snail"
)

const (
	promptMain = "snail> "
	promptCont = "  ...> "
	replName   = "<repl>"
)

var replHelp = heredoc.Doc(`
	:help            show this help
	:mode [name]     show or set the compile mode (main, lines, files)
	:run             toggle between printing Python and executing it
	:quit            leave the session
`)

type replSession struct {
	mode    snail.Mode
	run     bool
	cfg     *config
	history string
}

func newReplCmd() *cobra.Command {
	var run bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive snail session",
		Long: heredoc.Doc(`
			Read snail fragments interactively. Each complete entry is
			compiled and its Python printed; with --run the entry is
			executed instead. Incomplete input, an open block or an
			unfinished string, keeps the prompt in continuation mode,
			and a blank line forces the buffer through as-is.
		`),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			mode, err := parseMode(cfg.Mode)
			if err != nil {
				return err
			}
			s := &replSession{mode: mode, run: run, cfg: cfg}
			return s.loop()
		},
	}

	cmd.Flags().BoolVar(&run, "run", false, "execute each entry instead of printing its Python")

	return cmd
}

func (s *replSession) loop() error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if home, err := os.UserHomeDir(); err == nil {
		s.history = filepath.Join(home, ".snail_history")
		if f, err := os.Open(s.history); err == nil {
			ln.ReadHistory(f)
			f.Close()
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		ln.Close()
		os.Exit(130)
	}()

	fmt.Printf("snail %s (:help for commands, :quit to exit)\n", version)

	for {
		src, ok := s.read(ln)
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if strings.HasPrefix(trimmed, ":") {
			if !s.command(trimmed) {
				break
			}
			continue
		}
		s.eval(src)
	}

	if s.history != "" {
		if f, err := os.Create(s.history); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}
	return nil
}

// read collects one entry, possibly spanning several lines. After each
// line the buffer is parse-probed: input that fails only because it ends
// too early stays open for more. A blank line submits the buffer as-is
// so a genuinely broken entry still reaches the error reporter.
func (s *replSession) read(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println()
				return "", true
			}
			return "", false
		}
		if b.Len() > 0 {
			if strings.TrimSpace(line) == "" {
				return b.String(), true
			}
			b.WriteByte('\n')
		}
		b.WriteString(line)
		src := b.String()
		trimmed := strings.TrimSpace(src)
		if trimmed == "" || strings.HasPrefix(trimmed, ":") {
			return src, true
		}
		if err := s.probe(src); err == nil || !needsContinuation(src, err) {
			return src, true
		}
	}
}

func (s *replSession) probe(src string) error {
	if s.mode == snail.ModeLines {
		_, err := snail.ParseLines(src)
		return err
	}
	_, err := snail.Parse(src, s.mode)
	return err
}

// needsContinuation reports whether a parse failure looks like truncated
// input rather than a real mistake: an unterminated literal, or an error
// pinned at the very end of what was typed.
func needsContinuation(src string, err error) bool {
	var pe *snail.ParseError
	if !errors.As(err, &pe) {
		return false
	}
	if strings.Contains(pe.Message, "unterminated") {
		return true
	}
	trimmed := strings.TrimRight(src, " \t\r\n")
	return pe.Span != nil && pe.Span.Start.Offset >= len(trimmed)
}

func (s *replSession) eval(src string) {
	code, err := compileInput(src, s.mode, snail.TailAutoPrint, &runOptions{})
	if err != nil {
		text := snail.FormatError(err, replName)
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		fmt.Fprint(os.Stderr, text)
		return
	}
	if s.run {
		// Failures surface on the child's stderr; the session goes on.
		_ = execPython(s.cfg.Python, code, &input{filename: replName, argv: []string{"--"}})
		return
	}
	if err := writePython(os.Stdout, code, s.cfg.Color); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
	}
}

func (s *replSession) command(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return false
	case ":help":
		fmt.Print(replHelp)
	case ":run":
		s.run = !s.run
		if s.run {
			fmt.Printf("executing entries with %s\n", s.cfg.Python)
		} else {
			fmt.Println("printing generated Python")
		}
	case ":mode":
		if len(fields) == 1 {
			fmt.Println(modeName(s.mode))
			break
		}
		mode, err := parseMode(fields[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			break
		}
		s.mode = mode
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s (try :help)\n", fields[0])
	}
	return true
}

func modeName(m snail.Mode) string {
	switch m {
	case snail.ModeLines:
		return "lines"
	case snail.ModeFiles:
		return "files"
	}
	return "main"
}
