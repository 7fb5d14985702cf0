package parser

import (
	"context"
	"fmt"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"aspect.build/usenest/nester/common/treesitter"
)

// ParseResult holds the result of parsing a Rust file.
type ParseResult struct {
	// The path of the file as it was passed to the Parse function.
	File string

	// The top-level use declarations whose paths were extracted, in source
	// order.
	Declarations []*UseDeclaration

	// Top-level use declarations that are left untouched, in source order.
	// See [SkipReason].
	Skipped []*UseDeclaration
}

// Paths returns the paths of every collected declaration, in source order.
func (r *ParseResult) Paths() []Path {
	var paths []Path
	for _, decl := range r.Declarations {
		paths = append(paths, decl.Paths...)
	}
	return paths
}

// SkipReason says why a use declaration was not collected.
type SkipReason string

const (
	// The declaration has a visibility modifier such as `pub`. Merging it with
	// private declarations would change what the module exports.
	SkipVisibility SkipReason = "visibility modifier"

	// The declaration is annotated by an attribute such as `#[cfg(test)]`,
	// which must stay attached to it.
	SkipAttribute SkipReason = "attribute"

	// The declaration contains a comment, or shares a line with one. Moving
	// the declaration would lose or misplace the comment.
	SkipComment SkipReason = "comment"

	// The declaration shares a line with code other than use declarations.
	SkipSharedLine SkipReason = "shares its line with other code"

	// The declaration's path expression has a shape that is not understood.
	SkipUnrecognized SkipReason = "unrecognized path expression"
)

// UseDeclaration corresponds to a single [use declaration] at the top level
// of a Rust file.
//
// [use declaration]: https://doc.rust-lang.org/reference/items/use-declarations.html
type UseDeclaration struct {
	// Byte range [StartByte, EndByte) of the declaration in the source.
	StartByte, EndByte int

	// Source text of the declaration.
	Text string

	// Flattened paths. Empty for skipped declarations.
	Paths []Path

	// Why the declaration was skipped, or "" if it was collected.
	Skip SkipReason

	// The extraction error for SkipUnrecognized declarations.
	Err error
}

// Path is one fully-qualified import target, such as std::collections::HashMap.
type Path []string

// String returns the path as it would appear in Rust source code.
func (p Path) String() string {
	return strings.Join(p, "::")
}

func (p Path) extend(segments ...string) Path {
	return append(slices.Clone(p), segments...)
}

type Parser interface {
	Parse(ctx context.Context, filePath string, source []byte) (*ParseResult, []error)
}

type treeSitterParser struct {
	parser *treesitter.Parser
}

// NewParser returns a Parser that borrows tree-sitter parsers from p.
func NewParser(p *treesitter.Parser) Parser {
	return &treeSitterParser{parser: p}
}

// Parse collects the top-level use declarations of source. The returned
// errors are syntax errors and extraction problems; none of them prevent a
// result from being returned unless the parse itself failed.
func (p *treeSitterParser) Parse(ctx context.Context, filePath string, source []byte) (*ParseResult, []error) {
	tree, err := p.parser.Parse(ctx, filePath, source)
	if err != nil {
		return &ParseResult{File: filePath}, []error{err}
	}
	defer tree.Close()

	return ParseTree(tree)
}

// ParseTree is Parse for a file that has already been parsed. The tree is
// not closed.
func ParseTree(tree *treesitter.TreeAst) (*ParseResult, []error) {
	filePath, source := tree.FilePath, tree.SourceCode
	result := &ParseResult{
		File: filePath,
	}

	errs := make([]error, 0)

	for _, decl := range CollectUseDeclarations(tree.RootNode()) {
		useDecl := &UseDeclaration{
			StartByte: int(decl.StartByte()),
			EndByte:   int(decl.EndByte()),
			Text:      decl.Content(source),
		}

		switch {
		case hasNamedChildWithType(decl, "visibility_modifier"):
			useDecl.Skip = SkipVisibility
		case isAttributed(decl):
			useDecl.Skip = SkipAttribute
		case containsComment(decl):
			useDecl.Skip = SkipComment
		default:
			if other := lineNeighbour(decl); other != nil {
				if isComment(other) {
					useDecl.Skip = SkipComment
				} else {
					useDecl.Skip = SkipSharedLine
				}
				break
			}

			paths, err := ExtractPaths(decl, source)
			if err != nil {
				useDecl.Skip = SkipUnrecognized
				useDecl.Err = err
				errs = append(errs, fmt.Errorf("%s: %w", filePath, err))
			} else {
				useDecl.Paths = paths
			}
		}

		if useDecl.Skip != "" {
			result.Skipped = append(result.Skipped, useDecl)
		} else {
			result.Declarations = append(result.Declarations, useDecl)
		}
	}

	if treeErrors := tree.QueryErrors(); treeErrors != nil {
		errs = append(errs, treeErrors...)
	}

	return result, errs
}

// CollectUseDeclarations returns the use_declaration nodes among the direct
// named children of root. Declarations nested in modules, functions or
// blocks are not returned.
func CollectUseDeclarations(root *sitter.Node) []*sitter.Node {
	return filter(treesitter.NamedChildren(root), func(node *sitter.Node) bool {
		return node.Type() == "use_declaration"
	})
}

// segmentTypes are the node types that form a single path segment.
var segmentTypes = []string{"identifier", "self", "super", "crate", "metavariable"}

// pathExpressionTypes are the node types that may appear as the argument of
// a use declaration or as an entry of a use list.
var pathExpressionTypes = append([]string{
	"scoped_identifier",
	"use_list",
	"scoped_use_list",
	"use_wildcard",
	"use_as_clause",
}, segmentTypes...)

// ExtractPaths flattens a use_declaration node into one path per imported
// item. For example `use a::b::{c, d};` yields [a b c] and [a b d].
func ExtractPaths(decl *sitter.Node, sourceCode []byte) ([]Path, error) {
	/*
		Structure of use_declaration for "use std::sync::{Arc, Mutex};":

		use_declaration: Content: "use std::sync::{Arc, Mutex};"
		use_declaration/1:scoped_use_list: Content: "std::sync::{Arc, Mutex}"
		use_declaration/1:scoped_use_list/0:scoped_identifier: Content: "std::sync"
		use_declaration/1:scoped_use_list/0:scoped_identifier/0:identifier: Content: "std"
		use_declaration/1:scoped_use_list/0:scoped_identifier/2:identifier: Content: "sync"
		use_declaration/1:scoped_use_list/2:use_list: Content: "{Arc, Mutex}"
		use_declaration/1:scoped_use_list/2:use_list/1:identifier: Content: "Arc"
		use_declaration/1:scoped_use_list/2:use_list/3:identifier: Content: "Mutex"
	*/
	pathNode := firstNamedChildWithType(decl, pathExpressionTypes...)
	if pathNode == nil {
		return nil, fmt.Errorf("no path expression in use declaration: %q", decl.Content(sourceCode))
	}

	var paths []Path
	if err := extractPathsFromNode(pathNode, sourceCode, nil, &paths); err != nil {
		return nil, fmt.Errorf("error reading use declaration %q: %w", decl.Content(sourceCode), err)
	}
	return paths, nil
}

func extractPathsFromNode(node *sitter.Node, sourceCode []byte, prefix Path, paths *[]Path) error {
	switch node.Type() {
	case "identifier", "self", "super", "crate", "metavariable":
		*paths = append(*paths, prefix.extend(node.Content(sourceCode)))

	case "scoped_identifier":
		segments, err := readPathSegments(node, sourceCode)
		if err != nil {
			return err
		}
		*paths = append(*paths, prefix.extend(segments...))

	case "use_list":
		for _, child := range treesitter.NamedChildren(node) {
			if isComment(child) {
				continue
			}
			if err := extractPathsFromNode(child, sourceCode, prefix, paths); err != nil {
				return err
			}
		}

	case "scoped_use_list":
		list := node.ChildByFieldName("list")
		if list == nil {
			return fmt.Errorf("scoped use list without a list: %q", node.Content(sourceCode))
		}
		inner, err := readOptionalPathSegments(node.ChildByFieldName("path"), sourceCode)
		if err != nil {
			return err
		}
		return extractPathsFromNode(list, sourceCode, prefix.extend(inner...), paths)

	case "use_wildcard":
		// use_wildcard has no field names; its only named child is the path.
		pathNode := firstNamedChildWithType(node, append([]string{"scoped_identifier"}, segmentTypes...)...)
		if pathNode == nil && len(prefix) > 0 {
			// A bare `*` inside a list, as in `use a::{*, b}`.
			*paths = append(*paths, prefix.extend("*"))
			break
		}
		inner, err := readOptionalPathSegments(pathNode, sourceCode)
		if err != nil {
			return err
		}
		*paths = append(*paths, prefix.extend(inner...).extend("*"))

	case "use_as_clause":
		pathNode, alias := node.ChildByFieldName("path"), node.ChildByFieldName("alias")
		if pathNode == nil || alias == nil {
			return fmt.Errorf("incomplete use-as clause: %q", node.Content(sourceCode))
		}
		segments, err := readPathSegments(pathNode, sourceCode)
		if err != nil {
			return err
		}
		last := len(segments) - 1
		segments[last] = segments[last] + " as " + alias.Content(sourceCode)
		*paths = append(*paths, prefix.extend(segments...))

	default:
		return fmt.Errorf("unexpected node type %q within use declaration: %s", node.Type(), node.Content(sourceCode))
	}
	return nil
}

// readOptionalPathSegments is readPathSegments for paths that may be omitted,
// as in `use ::{a, b}`. A missing path reads as the empty leading segment so
// that it renders back as `::`.
func readOptionalPathSegments(node *sitter.Node, sourceCode []byte) ([]string, error) {
	if node == nil {
		return []string{""}, nil
	}
	return readPathSegments(node, sourceCode)
}

// readPathSegments splits a path such as `a::b::c` into its segments.
//
// tree-sitter nests scoped identifiers to the left, so `a::b::c` is
// (scoped_identifier path: (scoped_identifier path: a name: b) name: c). The
// walk collects names innermost-out and reverses them at the end.
func readPathSegments(node *sitter.Node, sourceCode []byte) ([]string, error) {
	var parts []string

	current := node
	for current != nil {
		switch current.Type() {
		case "scoped_identifier":
			name := current.ChildByFieldName("name")
			if name == nil {
				return nil, fmt.Errorf("scoped identifier without a name: %q", current.Content(sourceCode))
			}
			parts = append(parts, name.Content(sourceCode))

			current = current.ChildByFieldName("path")
			if current == nil {
				// Leading `::`, as in `::std::io`.
				parts = append(parts, "")
			}
		case "identifier", "self", "super", "crate", "metavariable":
			parts = append(parts, current.Content(sourceCode))
			current = nil
		default:
			return nil, fmt.Errorf("unexpected node type %q within path: %s", current.Type(), node.Content(sourceCode))
		}
	}

	slices.Reverse(parts)
	return parts, nil
}

// isAttributed reports whether decl is directly preceded by an outer
// attribute, skipping comments in between.
func isAttributed(decl *sitter.Node) bool {
	for prev := decl.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		if isComment(prev) {
			continue
		}
		return prev.Type() == "attribute_item"
	}
	return false
}

// containsComment reports whether a comment appears anywhere inside node.
func containsComment(node *sitter.Node) bool {
	for _, child := range treesitter.NamedChildren(node) {
		if isComment(child) || containsComment(child) {
			return true
		}
	}
	return false
}

// lineNeighbour returns a sibling of decl that shares a line with it and is
// not a plain use declaration, or nil. Plain declarations on one line are
// removed together, so they do not count.
func lineNeighbour(decl *sitter.Node) *sitter.Node {
	for prev := decl.PrevNamedSibling(); prev != nil && lastRow(prev) == decl.StartPoint().Row; prev = prev.PrevNamedSibling() {
		if !isPlainUseDeclaration(prev) {
			return prev
		}
	}
	for next := decl.NextNamedSibling(); next != nil && next.StartPoint().Row == decl.EndPoint().Row; next = next.NextNamedSibling() {
		if !isPlainUseDeclaration(next) {
			return next
		}
	}
	return nil
}

// lastRow is the row of the last character of node. Line comments may end
// at the start of the next row, after their newline.
func lastRow(node *sitter.Node) uint32 {
	end := node.EndPoint()
	if end.Column == 0 && end.Row > node.StartPoint().Row {
		return end.Row - 1
	}
	return end.Row
}

func isPlainUseDeclaration(node *sitter.Node) bool {
	return node.Type() == "use_declaration" &&
		!hasNamedChildWithType(node, "visibility_modifier") &&
		!isAttributed(node) &&
		!containsComment(node)
}

func isComment(node *sitter.Node) bool {
	switch node.Type() {
	case "line_comment", "block_comment":
		return true
	}
	return false
}

func firstNamedChildWithType(node *sitter.Node, typeNames ...string) *sitter.Node {
	for _, child := range treesitter.NamedChildren(node) {
		if slices.Contains(typeNames, child.Type()) {
			return child
		}
	}
	return nil
}

func hasNamedChildWithType(node *sitter.Node, typeName string) bool {
	return firstNamedChildWithType(node, typeName) != nil
}

// NodeDebugString returns the debug representation of the entire tree as a string.
func NodeDebugString(node *sitter.Node, sourceCode []byte) string {
	return nodeDebugStringRecursive(node, node.Type(), sourceCode)
}

// nodeDebugStringRecursive recursively builds the debug representation of a node and its children.
func nodeDebugStringRecursive(node *sitter.Node, path string, sourceCode []byte) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: Named=%v; Symbol: %v; Content: %q\n",
		path,
		node.IsNamed(),
		node.Symbol(),
		node.Content(sourceCode)))

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		childPath := fmt.Sprintf("%s/%d:%s", path, i, child.Type())
		sb.WriteString(nodeDebugStringRecursive(child, childPath, sourceCode))
	}

	return sb.String()
}

func filter[T any](slice []T, f func(T) bool) []T {
	result := []T{}
	for _, v := range slice {
		if f(v) {
			result = append(result, v)
		}
	}
	return result
}
