// Package nester normalizes the use declarations of Rust source files: every
// top-level declaration is flattened into paths, the paths are merged into one
// sorted prefix tree, and the tree is printed back as a minimal block of use
// statements at the position of the first declaration.
package nester

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/text/language"

	"aspect.build/usenest/internal/logger"
	"aspect.build/usenest/nester/common/treesitter"
	"aspect.build/usenest/nester/rust/parser"
	"aspect.build/usenest/nester/rust/render"
	"aspect.build/usenest/nester/rust/rustconfig"
	"aspect.build/usenest/nester/rust/trie"
)

const LanguageName = "rust"

// Config is the read-only configuration of a Nester.
type Config struct {
	Render render.Config

	// Collation locale for ordering segments within a class.
	Locale language.Tag

	// Optional pre-pass run on the source before it is parsed.
	Organizer Organizer
}

// ConfigFrom builds a Config from a resolved directory configuration.
func ConfigFrom(c *rustconfig.RustConfig) Config {
	cfg := Config{
		Render: c.RenderConfig(),
		Locale: c.Locale(),
	}
	if argv := c.OrganizeCommand(); len(argv) > 0 {
		cfg.Organizer = &CommandOrganizer{Argv: argv}
	}
	return cfg
}

// Nester runs normalization passes. It holds no per-pass state and can be
// used from several goroutines; every pass builds its own trie.
type Nester struct {
	parser parser.Parser
	config Config
}

// New returns a Nester parsing with p. The parser is shared, not owned.
func New(p *treesitter.Parser, cfg Config) *Nester {
	return &Nester{
		parser: parser.NewParser(p),
		config: cfg,
	}
}

// Result is the outcome of one normalization pass.
type Result struct {
	File string

	// The text Edits apply to. It differs from the input only when the
	// organize-imports pre-pass rewrote it.
	Source []byte

	Parsed *parser.ParseResult
	Trie   *trie.Trie
	Block  render.Block
	Edits  []Edit

	// Syntax errors and declarations that could not be read. None of them
	// stop the pass.
	Diagnostics []error
}

// Output returns Source with Edits applied.
func (r *Result) Output() []byte {
	return ApplyEdits(r.Source, r.Edits)
}

// Normalize runs one pass over source. The returned error is only set when
// the source could not be parsed at all, for example because ctx is done.
func (n *Nester) Normalize(ctx context.Context, filePath string, source []byte) (*Result, error) {
	source = n.organize(ctx, filePath, source)

	parsed, errs := n.parser.Parse(ctx, filePath, source)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		logger.Warnf("%v", err)
	}
	for _, skipped := range parsed.Skipped {
		switch skipped.Skip {
		case parser.SkipVisibility, parser.SkipAttribute:
			logger.Infof("%s: leaving %q in place: %s", filePath, skipped.Text, skipped.Skip)
		case parser.SkipUnrecognized:
			// Already reported with the errors.
		default:
			logger.Warnf("%s: leaving %q in place: %s", filePath, skipped.Text, skipped.Skip)
		}
	}

	paths := parsed.Paths()
	logger.Tracef("%s: %d use declarations, %d paths", filePath, len(parsed.Declarations), len(paths))

	t := trie.Build(paths)
	trie.NewSorter(n.config.Locale).Sort(t)
	block := render.Render(t, n.config.Render)

	return &Result{
		File:        filePath,
		Source:      source,
		Parsed:      parsed,
		Trie:        t,
		Block:       block,
		Edits:       ComputeEdits(source, parsed.Declarations, block),
		Diagnostics: errs,
	}, nil
}

// Format returns source with its use declarations normalized. The rendered
// block replaces the first declaration and is followed by a blank line
// before the remaining code. Source without declarations is returned as is.
func (n *Nester) Format(ctx context.Context, filePath string, source []byte) ([]byte, error) {
	result, err := n.Normalize(ctx, filePath, source)
	if err != nil {
		return nil, err
	}
	return result.Output(), nil
}

// NormalizeDocument normalizes doc in place. It returns false when there is
// no document or when nothing had to change.
func (n *Nester) NormalizeDocument(ctx context.Context, doc Document) (bool, error) {
	if doc == nil {
		logger.Infof("no document to normalize")
		return false, nil
	}

	text, err := doc.Text()
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", doc.Name(), err)
	}

	result, err := n.Normalize(ctx, doc.Name(), text)
	if err != nil {
		return false, err
	}

	output := result.Output()
	if bytes.Equal(output, text) {
		return false, nil
	}

	edits := result.Edits
	if !bytes.Equal(result.Source, text) {
		// The pre-pass rewrote the text, so the edits do not line up with the
		// document any more.
		edits = []Edit{{Start: 0, End: len(text), NewText: string(output)}}
	}

	if err := doc.Apply(edits); err != nil {
		return false, fmt.Errorf("failed to edit %s: %w", doc.Name(), err)
	}
	return true, nil
}

func (n *Nester) organize(ctx context.Context, filePath string, source []byte) []byte {
	if n.config.Organizer == nil {
		return source
	}
	organized, err := n.config.Organizer.Organize(ctx, filePath, source)
	if err != nil {
		logger.Infof("%s: organize imports pre-pass skipped: %v", filePath, err)
		return source
	}
	return organized
}
