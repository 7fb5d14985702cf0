// Command usedump reports how usenest reads Rust files: syntax errors, the
// use declarations it leaves alone, and the paths it extracts.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"aspect.build/usenest/internal/logger"
	"aspect.build/usenest/nester/common/treesitter"
	"aspect.build/usenest/nester/rust/parser"
)

var (
	pattern   = flag.String("pattern", "**/*.rs", "Glob pattern to match files")
	printTree = flag.Bool("tree", false, "Print the syntax tree of every file")
)

func main() {
	flag.Parse()
	if err := mainErr(os.Stdout); err != nil {
		logger.Errorf("failed with error %v", err)
		os.Exit(1)
	}
}

func mainErr(out io.Writer) error {
	files, err := doublestar.FilepathGlob(*pattern)
	if err != nil {
		return err
	}

	logger.Infof("%q matched %d files", *pattern, len(files))

	p := treesitter.NewParser(treesitter.Rust)

	errCount := 0
	for _, f := range files {
		report, err := analyzeFile(p, f)
		if err != nil {
			logger.Errorf("error analyzing file %s: %v", f, err)
			errCount++
			continue
		}
		if len(report.ParseErrors) != 0 {
			errCount++
		}
		report.write(out)
	}
	logger.Infof("%d total files, %d errors", len(files), errCount)

	return nil
}

type analysis struct {
	File          string
	ParseErrors   []error
	Result        *parser.ParseResult
	NestedUses    int
	TreeDebugDump string
}

func (a *analysis) write(out io.Writer) {
	fmt.Fprintf(out, "== %s\n", a.File)
	for _, err := range a.ParseErrors {
		fmt.Fprintf(out, "error: %v\n", err)
	}
	for _, s := range a.Result.Skipped {
		fmt.Fprintf(out, "skipped (%s): %s\n", s.Skip, s.Text)
	}
	if a.NestedUses > 0 {
		fmt.Fprintf(out, "nested use declarations (not normalized): %d\n", a.NestedUses)
	}
	for _, p := range a.Result.Paths() {
		switch {
		case parser.IsNativeImport(p):
			fmt.Fprintf(out, "%s (native)\n", p)
		case parser.IsLocalImport(p):
			fmt.Fprintf(out, "%s (local)\n", p)
		default:
			fmt.Fprintf(out, "%s\n", p)
		}
	}
	if a.TreeDebugDump != "" {
		fmt.Fprint(out, a.TreeDebugDump)
	}
}

func analyzeFile(p *treesitter.Parser, path string) (*analysis, error) {
	sourceCode, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}

	tree, err := p.Parse(context.Background(), path, sourceCode)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result, errs := parser.ParseTree(tree)

	rootNode := tree.RootNode()

	// Every use declaration, minus the top-level ones the parser collects.
	nested := 0
	for range treesitter.Matches(treesitter.MustQuery(p.Language(), useDeclarationQuery), rootNode) {
		nested++
	}
	nested -= len(parser.CollectUseDeclarations(rootNode))

	a := &analysis{
		File:        path,
		ParseErrors: errs,
		Result:      result,
		NestedUses:  nested,
	}
	if *printTree {
		a.TreeDebugDump = parser.NodeDebugString(rootNode, sourceCode)
		if !strings.HasSuffix(a.TreeDebugDump, "\n") {
			a.TreeDebugDump += "\n"
		}
	}
	return a, nil
}

// Queries created with the help of the tree-sitter playground.
const useDeclarationQuery = `(use_declaration) @use`
