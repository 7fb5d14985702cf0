// Package treesitter owns the tree-sitter parsers used to read Rust sources.
package treesitter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// Language identifies a grammar known to this package.
type Language string

const Rust Language = "rust"

// AST is a parsed source file.
type AST interface {
	// QueryErrors returns one error per syntax error in the tree, or nil if
	// the tree parsed cleanly.
	QueryErrors() []error

	// Close releases the underlying tree-sitter tree.
	Close()
}

// TreeAst is the tree-sitter implementation of [AST].
type TreeAst struct {
	Lang       Language
	FilePath   string
	SourceCode []byte
	SitterTree *sitter.Tree
}

var _ AST = (*TreeAst)(nil)

// RootNode returns the root of the syntax tree.
func (tree TreeAst) RootNode() *sitter.Node {
	return tree.SitterTree.RootNode()
}

func (tree TreeAst) Close() {
	tree.SitterTree.Close()
}

func (tree TreeAst) QueryErrors() []error {
	rootNode := tree.RootNode()
	if !rootNode.HasError() {
		return nil
	}

	var errs []error
	for m := range Matches(ErrorQuery(tree.Lang), rootNode) {
		for _, c := range m.Captures {
			errs = append(errs, tree.syntaxError(c.Node))
		}
	}
	if len(errs) == 0 {
		// Only MISSING nodes, which the ERROR query does not match.
		errs = append(errs, fmt.Errorf("%s: syntax error", tree.FilePath))
	}
	return errs
}

// syntaxError renders the source line holding node with a caret under the
// column where the error starts.
func (tree TreeAst) syntaxError(node *sitter.Node) error {
	at := node.StartPoint()
	lines := strings.Split(string(tree.SourceCode), "\n")
	line := ""
	if int(at.Row) < len(lines) {
		line = lines[at.Row]
	}

	pre := fmt.Sprintf("     %d: ", at.Row+1)
	arw := strings.Repeat(" ", len(pre)+int(at.Column)) + "^"
	return fmt.Errorf("%s:%d:%d: syntax error\n%s%s\n%s", tree.FilePath, at.Row+1, at.Column+1, pre, line, arw)
}

func grammar(lang Language) *sitter.Language {
	switch lang {
	case Rust:
		return rust.GetLanguage()
	default:
		panic(fmt.Errorf("unsupported tree-sitter language %q", lang))
	}
}

// Parser hands out tree-sitter parsers for one language. A *sitter.Parser is
// not safe for concurrent use, so each parse borrows one from a pool; the
// Parser itself can be shared freely.
type Parser struct {
	lang Language
	pool sync.Pool
}

// NewParser returns a Parser for lang.
func NewParser(lang Language) *Parser {
	language := grammar(lang)
	p := &Parser{lang: lang}
	p.pool.New = func() any {
		sp := sitter.NewParser()
		sp.SetLanguage(language)
		return sp
	}
	return p
}

// Language returns the grammar this parser was built for.
func (p *Parser) Language() Language {
	return p.lang
}

// Parse parses sourceCode. Syntax errors do not fail the parse; they are
// available through [TreeAst.QueryErrors].
func (p *Parser) Parse(ctx context.Context, filePath string, sourceCode []byte) (*TreeAst, error) {
	sp := p.pool.Get().(*sitter.Parser)
	defer p.pool.Put(sp)

	tree, err := sp.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		// A cancelled parse leaves the parser positioned in this document.
		sp.Reset()
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	return &TreeAst{
		Lang:       p.lang,
		FilePath:   filePath,
		SourceCode: sourceCode,
		SitterTree: tree,
	}, nil
}

// ParseSourceCode parses a single file with a throwaway parser.
func ParseSourceCode(lang Language, filePath string, sourceCode []byte) (*TreeAst, error) {
	return NewParser(lang).Parse(context.Background(), filePath, sourceCode)
}
