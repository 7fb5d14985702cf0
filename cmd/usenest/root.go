package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/spf13/cobra"

	"aspect.build/usenest/internal/logger"
	"aspect.build/usenest/nester/common/git"
	"aspect.build/usenest/nester/common/treesitter"
	nester "aspect.build/usenest/nester/rust"
	"aspect.build/usenest/nester/rust/rustconfig"
)

const (
	UseDescription   = "usenest [flags] [PATH|GLOB ...]"
	ShortDescription = "Merge, sort and nest the use declarations of Rust files"
	LongDescription  = `usenest rewrites the top-level use declarations of Rust source files as
one sorted, deduplicated block of nested use statements.

Each PATH is a file, a directory searched recursively for .rs files, or a glob
pattern such as 'src/**/*.rs'. Without PATH the source is read from stdin and
the result written to stdout.

Settings come from .usenest.yaml files between the repository root and each
file's directory, then from --config, then from USENEST_* environment
variables, then from flags.`
)

// errCheckFailed is returned in --check mode when a file is not normalized.
var errCheckFailed = errors.New("some files are not normalized")

type options struct {
	write               bool
	check               bool
	changed             bool
	trailingComma       bool
	singleLineThreshold int
	indent              string
	configPath          string
	organizeCommand     []string
	logLevel            string
	showVersion         bool
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           UseDescription,
		Short:         ShortDescription,
		Long:          LongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args, stdin, stdout)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.write, "write", "w", false, "Rewrite files in place instead of printing them")
	flags.BoolVar(&opts.check, "check", false, "List files whose use declarations are not normalized and exit 1 if there are any")
	flags.BoolVar(&opts.changed, "changed", false, "Only process files with uncommitted changes in the git worktree")
	flags.BoolVar(&opts.trailingComma, "trailing-comma", true, "Put a comma after the last item of multi-line lists")
	flags.IntVar(&opts.singleLineThreshold, "single-line-threshold", 1, "Largest number of leaf items printed on one line")
	flags.StringVar(&opts.indent, "indent", "", "Indentation per nesting level (default two spaces)")
	flags.StringVar(&opts.configPath, "config", "", "Configuration file applied on top of .usenest.yaml files")
	flags.StringSliceVar(&opts.organizeCommand, "organize-command", nil, "Command the source is piped through before normalizing, e.g. rustfmt,--emit,stdout")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.BoolVarP(&opts.showVersion, "version", "v", false, "Show version information")
	cmd.MarkFlagsMutuallyExclusive("write", "check")

	return cmd
}

// Execute runs the command line.
func Execute() error {
	return newRootCmd(os.Stdin, os.Stdout).Execute()
}

func run(cmd *cobra.Command, opts *options, args []string, stdin io.Reader, stdout io.Writer) error {
	if opts.showVersion {
		fmt.Fprintf(stdout, "usenest version %s\n", version())
		return nil
	}

	if opts.logLevel != "" {
		level, err := logger.ParseLevel(opts.logLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		logger.SetLevel(level)
	}

	overrides, err := configOverrides(cmd, opts)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	root, err := git.RepoRoot(cwd)
	if err != nil {
		logger.Debugf("not in a git repository, resolving configuration from %s: %v", cwd, err)
		root = cwd
	}

	loader := rustconfig.NewLoader(root, overrides...)
	parser := treesitter.NewParser(treesitter.Rust)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 0 && !opts.changed {
		return runStdin(ctx, opts, loader, parser, cwd, stdin, stdout)
	}

	runner := &nester.Runner{
		Parser:  parser,
		Configs: loader,
		Write:   opts.write,
	}

	if len(args) == 0 {
		args = []string{cwd}
	}
	sources, err := runner.CollectSourceFiles(args)
	if err != nil {
		return err
	}
	if opts.changed {
		if sources, err = onlyChanged(cwd, sources); err != nil {
			return err
		}
	}
	logger.Infof("%d files to process", sources.Size())

	var results []*nester.FileResult
	for r := range runner.FormatFiles(ctx, sources) {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return report(opts, results, stdout)
}

func runStdin(ctx context.Context, opts *options, loader *rustconfig.Loader, parser *treesitter.Parser, cwd string, stdin io.Reader, stdout io.Writer) error {
	if opts.write {
		return fmt.Errorf("--write needs at least one PATH")
	}

	source, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	cfg, err := loader.ForDir(cwd)
	if err != nil {
		return err
	}
	output, err := nester.New(parser, nester.ConfigFrom(cfg)).Format(ctx, "<stdin>", source)
	if err != nil {
		return err
	}

	if opts.check {
		if string(output) != string(source) {
			fmt.Fprintln(stdout, "<stdin>")
			return errCheckFailed
		}
		return nil
	}
	_, err = stdout.Write(output)
	return err
}

func report(opts *options, results []*nester.FileResult, stdout io.Writer) error {
	var failed, changed int
	for _, r := range results {
		if r.Err != nil {
			logger.Errorf("Error processing %s: %v", r.Path, r.Err)
			failed++
			continue
		}
		if r.Changed {
			changed++
		}

		switch {
		case opts.write:
			if r.Changed {
				logger.Infof("Processed: %s", r.Path)
			}
		case opts.check:
			if r.Changed {
				fmt.Fprintln(stdout, r.Path)
			}
		default:
			if len(results) > 1 {
				fmt.Fprintf(stdout, "// %s\n", r.Path)
			}
			if _, err := stdout.Write(r.Output); err != nil {
				return err
			}
		}
	}

	logger.Infof("Processed %d files, %d changed, %d failed", len(results), changed, failed)

	switch {
	case failed > 0:
		return fmt.Errorf("%d files failed to process", failed)
	case opts.check && changed > 0:
		return errCheckFailed
	}
	return nil
}

// configOverrides returns the configuration layers that win over
// .usenest.yaml files, lowest precedence first.
func configOverrides(cmd *cobra.Command, opts *options) ([]*rustconfig.File, error) {
	var overrides []*rustconfig.File

	if opts.configPath != "" {
		f, err := rustconfig.ReadFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, f)
	}

	env, err := rustconfig.FileFromEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	overrides = append(overrides, env)

	flags := &rustconfig.File{}
	if cmd.Flags().Changed("trailing-comma") {
		flags.TrailingComma = &opts.trailingComma
	}
	if cmd.Flags().Changed("single-line-threshold") {
		flags.SingleLineThreshold = &opts.singleLineThreshold
	}
	if cmd.Flags().Changed("indent") {
		flags.Indent = &opts.indent
	}
	if cmd.Flags().Changed("organize-command") {
		flags.OrganizeCommand = opts.organizeCommand
	}
	return append(overrides, flags), nil
}

func onlyChanged(cwd string, sources *treeset.Set) (*treeset.Set, error) {
	changed, err := git.ChangedFiles(cwd)
	if err != nil {
		return nil, err
	}
	changedSet := treeset.NewWithStringComparator()
	for _, f := range changed {
		if abs, err := filepath.EvalSymlinks(f); err == nil {
			f = abs
		}
		changedSet.Add(f)
	}

	kept := treeset.NewWithStringComparator()
	it := sources.Iterator()
	for it.Next() {
		f := it.Value().(string)
		resolved := f
		if abs, err := filepath.EvalSymlinks(f); err == nil {
			resolved = abs
		}
		if changedSet.Contains(resolved) {
			kept.Add(f)
		}
	}
	return kept, nil
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "dev"
	}
	return info.Main.Version
}
