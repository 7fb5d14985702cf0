// Package trie coalesces import paths into a prefix tree keyed by path
// segment and orders it for rendering.
package trie

import (
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/utils"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SelfSegment is the segment that imports a module itself from within a list,
// as in `use std::io::{self, Write}`.
const SelfSegment = "self"

// Trie maps a path segment to the subtree of paths continuing it. The root
// trie has no segment of its own; its children are the top-level roots.
//
// Children keep insertion order until Sort is called and sorted order
// afterwards. A Trie without children is a leaf.
type Trie struct {
	children *linkedhashmap.Map

	// terminal is set when an inserted path ends at this node.
	terminal bool
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{children: linkedhashmap.New()}
}

// Build inserts every path into a fresh trie. A path that ends where other
// paths continue is kept as a `self` child, see [Trie.FoldTerminals].
func Build[P ~[]string](paths []P) *Trie {
	t := New()
	for _, p := range paths {
		t.Insert(p...)
	}
	t.FoldTerminals()
	return t
}

// Insert adds the path made of segments. Inserting a path twice, or a path
// whose prefix already exists, reuses the existing nodes.
func (t *Trie) Insert(segments ...string) {
	if len(segments) == 0 {
		return
	}
	node := t
	for _, segment := range segments {
		child, ok := node.Child(segment)
		if !ok {
			child = New()
			node.children.Put(segment, child)
		}
		node = child
	}
	node.terminal = true
}

// FoldTerminals adds a `self` leaf below every node that is both the end of
// an inserted path and the prefix of another one, so that rendering the
// children does not drop the shorter import.
func (t *Trie) FoldTerminals() {
	t.Each(func(_ string, child *Trie) {
		child.FoldTerminals()
		if child.terminal && !child.IsLeaf() {
			if _, ok := child.Child(SelfSegment); !ok {
				child.children.Put(SelfSegment, New())
			}
		}
	})
}

// Child returns the subtree for segment.
func (t *Trie) Child(segment string) (*Trie, bool) {
	v, ok := t.children.Get(segment)
	if !ok {
		return nil, false
	}
	return v.(*Trie), true
}

// Len returns the number of direct children.
func (t *Trie) Len() int {
	return t.children.Size()
}

// IsLeaf reports whether t has no children.
func (t *Trie) IsLeaf() bool {
	return t.children.Empty()
}

// Segments returns the direct child segments in iteration order.
func (t *Trie) Segments() []string {
	var segments []string
	t.Each(func(segment string, _ *Trie) {
		segments = append(segments, segment)
	})
	return segments
}

// Each calls f for every direct child in iteration order.
func (t *Trie) Each(f func(segment string, child *Trie)) {
	it := t.children.Iterator()
	for it.Next() {
		f(it.Key().(string), it.Value().(*Trie))
	}
}

// IsLeafList reports whether every child of t is a leaf. It is vacuously true
// for a leaf.
func (t *Trie) IsLeafList() bool {
	leaves := true
	t.Each(func(_ string, child *Trie) {
		leaves = leaves && child.IsLeaf()
	})
	return leaves
}

// Paths returns the path to every leaf, depth first in iteration order.
func (t *Trie) Paths() [][]string {
	var paths [][]string
	t.collectPaths(nil, &paths)
	return paths
}

func (t *Trie) collectPaths(prefix []string, paths *[][]string) {
	t.Each(func(segment string, child *Trie) {
		path := append(append([]string(nil), prefix...), segment)
		if child.IsLeaf() {
			*paths = append(*paths, path)
			return
		}
		child.collectPaths(path, paths)
	})
}

// Sorter orders trie levels. A Sorter holds a collator and must not be used
// from several goroutines at once.
type Sorter struct {
	collator *collate.Collator
}

// NewSorter returns a Sorter comparing segments with the collation rules of
// locale. Use [language.Und] for the root collation.
func NewSorter(locale language.Tag) *Sorter {
	return &Sorter{collator: collate.New(locale)}
}

// Sort orders t in place: every subtree first, then the direct children of t.
func (s *Sorter) Sort(t *Trie) {
	t.Each(func(_ string, child *Trie) {
		s.Sort(child)
	})

	keys := t.children.Keys()
	utils.Sort(keys, s.comparator)

	sorted := linkedhashmap.New()
	for _, key := range keys {
		v, _ := t.children.Get(key)
		sorted.Put(key, v)
	}
	t.children = sorted
}

func (s *Sorter) comparator(a, b interface{}) int {
	return s.Compare(a.(string), b.(string))
}

// Compare orders two sibling segments. Segments starting with a lowercase
// ASCII letter (modules) come before all others (types, constants, `*`);
// within a class the collation order applies, with a byte-wise tie-break so
// that distinct segments never compare equal.
func (s *Sorter) Compare(a, b string) int {
	if ca, cb := segmentClass(a), segmentClass(b); ca != cb {
		return ca - cb
	}
	if c := s.collator.CompareString(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func segmentClass(segment string) int {
	if segment != "" && segment[0] >= 'a' && segment[0] <= 'z' {
		return 0
	}
	return 1
}
