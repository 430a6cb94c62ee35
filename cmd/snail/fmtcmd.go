package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/aymanbagabas/go-udiff"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const sourceExt = ".snail"

type fmtOptions struct {
	check bool
	diff  bool
}

type fmtResult struct {
	changed bool
	diff    string
}

func newFmtCmd() *cobra.Command {
	opts := &fmtOptions{}

	cmd := &cobra.Command{
		Use:   "fmt [path...]",
		Short: "Reformat snail source files",
		Long: heredoc.Doc(`
			Rewrite snail sources into canonical form: trailing spaces and
			tabs drop from every line and each file ends with exactly one
			newline. Directory arguments are walked for *.snail files;
			explicit file arguments are formatted whatever their name.
			With no arguments the current directory is walked.
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.check, "check", false, "list files that need formatting and exit nonzero")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "print the changes instead of applying them")

	return cmd
}

func runFmt(opts *fmtOptions, args []string) error {
	paths, err := collectTargets(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return exitCode(1)
	}

	results := make([]fmtResult, len(paths))
	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			return formatFile(path, opts, &results[i])
		})
	}
	if err := eg.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return exitCode(1)
	}

	var drifted []string
	for i, r := range results {
		if !r.changed {
			continue
		}
		if opts.diff && r.diff != "" {
			fmt.Print(r.diff)
		}
		if opts.check {
			drifted = append(drifted, paths[i])
		}
	}
	if len(drifted) > 0 {
		for _, p := range drifted {
			fmt.Println(p)
		}
		return exitCode(1)
	}
	return nil
}

func formatFile(path string, opts *fmtOptions, r *fmtResult) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %v", path, err)
	}
	orig := string(data)
	formatted := formatSource(orig)
	if formatted == orig {
		return nil
	}
	r.changed = true
	if opts.diff {
		r.diff = udiff.Unified("a/"+path, "b/"+path, orig, formatted)
	}
	if opts.check || opts.diff {
		return nil
	}
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(formatted), mode); err != nil {
		return fmt.Errorf("cannot write %s: %v", path, err)
	}
	return nil
}

// formatSource is the whole canonical form: per-line trailing blanks
// removed, trailing blank lines collapsed, exactly one final newline.
// Empty input stays empty.
func formatSource(src string) string {
	if src == "" {
		return ""
	}
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	out := strings.TrimRight(strings.Join(lines, "\n"), "\n")
	return out + "\n"
}

// collectTargets expands the argument list into concrete file paths.
// Hidden directories are skipped during walks, but a hidden path named
// directly is fair game.
func collectTargets(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot stat %s: %v", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		walkErr := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == sourceExt {
				paths = append(paths, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}
	return paths, nil
}
