// Package render prints a sorted import trie as Rust use statements.
package render

import (
	"strings"

	"aspect.build/usenest/nester/rust/trie"
)

const (
	// Keyword starts every rendered statement.
	Keyword = "use"

	separator  = ","
	terminator = ";"
)

// Config controls the shape of the rendered statements.
type Config struct {
	// Append a separator after the last item of every brace list.
	TrailingComma bool

	// Largest number of leaf children printed on one line as `a::{b, c}`.
	SingleLineThreshold int

	// Indentation added per nesting level.
	IndentUnit string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		TrailingComma:       true,
		SingleLineThreshold: 1,
		IndentUnit:          "  ",
	}
}

// Block is the rendered import statements, one line per element without line
// terminators.
type Block []string

// String joins the block with newlines. The result has no trailing newline.
func (b Block) String() string {
	return strings.Join(b, "\n")
}

// Render prints one statement per top-level entry of t, in iteration order.
// t should have been sorted.
func Render(t *trie.Trie, cfg Config) Block {
	r := renderer{cfg: cfg}

	var block Block
	t.Each(func(name string, children *trie.Trie) {
		lines := r.entry(name, children, "")
		lines[0] = Keyword + " " + lines[0]
		lines[len(lines)-1] += terminator
		block = append(block, lines...)
	})
	return block
}

type renderer struct {
	cfg Config
}

// entry renders name and its subtree at indent. The last line carries no
// separator; the caller decides whether one follows.
func (r renderer) entry(name string, children *trie.Trie, indent string) []string {
	if children.IsLeafList() && children.Len() <= r.cfg.SingleLineThreshold {
		switch segments := children.Segments(); len(segments) {
		case 0:
			return []string{indent + name}
		case 1:
			return []string{indent + name + "::" + segments[0]}
		default:
			return []string{indent + name + "::{" + strings.Join(segments, separator+" ") + "}"}
		}
	}

	if children.IsLeaf() {
		return []string{indent + name}
	}

	entries := r.list(children, indent+r.cfg.IndentUnit)
	if len(entries) == 1 && len(entries[0]) == 1 && !strings.ContainsAny(entries[0][0], separator+"{") {
		return []string{indent + name + "::" + strings.TrimSpace(entries[0][0])}
	}

	lines := []string{indent + name + "::{"}
	for i, e := range entries {
		if i < len(entries)-1 || r.cfg.TrailingComma {
			e[len(e)-1] += separator
		}
		lines = append(lines, e...)
	}
	return append(lines, indent+"}")
}

// list renders every child of t as its own entry.
func (r renderer) list(t *trie.Trie, indent string) [][]string {
	var entries [][]string
	t.Each(func(name string, children *trie.Trie) {
		entries = append(entries, r.entry(name, children, indent))
	})
	return entries
}
