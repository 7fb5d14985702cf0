package treesitter

import (
	"iter"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

var (
	queryMu    sync.Mutex
	queryCache = map[Language]map[string]*sitter.Query{}
)

// ErrorQuery matches every ERROR node of a tree.
func ErrorQuery(lang Language) *sitter.Query {
	return MustQuery(lang, "(ERROR) @error")
}

// MustQuery compiles query for lang, caching the result. It panics on an
// invalid query since queries are written in source.
func MustQuery(lang Language, query string) *sitter.Query {
	queryMu.Lock()
	defer queryMu.Unlock()

	byText, ok := queryCache[lang]
	if !ok {
		byText = map[string]*sitter.Query{}
		queryCache[lang] = byText
	}
	if q, ok := byText[query]; ok {
		return q
	}

	q, err := sitter.NewQuery([]byte(query), grammar(lang))
	if err != nil {
		panic(err)
	}
	byText[query] = q
	return q
}

// Matches iterates the matches of query below node.
func Matches(query *sitter.Query, node *sitter.Node) iter.Seq[*sitter.QueryMatch] {
	return func(yield func(*sitter.QueryMatch) bool) {
		qc := sitter.NewQueryCursor()
		defer qc.Close()
		qc.Exec(query, node)
		for {
			m, ok := qc.NextMatch()
			if !ok {
				break
			}
			if !yield(m) {
				break
			}
		}
	}
}

// NamedChildren returns the named children of node in source order.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	var children []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		children = append(children, node.NamedChild(i))
	}
	return children
}
