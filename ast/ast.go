/*
Package ast provides typed, read-only views over syntax.Node green trees.
A view is a thin handle: it owns no storage of its own and is cheap to
copy, mirroring the teacher's ot.Table/ot.Self() "tagged variant with a
thin accessor layer" approach (core/font/opentype/ot/ot.go) rather than an
inheritance hierarchy of node types.

Casting from a green node to a typed view is total: Cast returns a
present/absent result, never panics and never returns an ambiguous zero
value silently mistaken for a real view. Accessors skip trivia and
ErrorNode children transparently, so callers never have to special-case
malformed input themselves.
*/
package ast

import "github.com/otlayout/fea/syntax"

// Node is the common shape every typed view embeds: the raw green node it
// wraps. Embedding (rather than an interface) keeps views copyable value
// types with no dynamic dispatch, matching the spec's "views are copyable
// handles" requirement.
type Node struct {
	n *syntax.Node
}

// Raw returns the underlying green node.
func (v Node) Raw() *syntax.Node { return v.n }

// Present reports whether this view wraps an actual node (as opposed to
// being the zero value returned when a cast or lookup failed).
func (v Node) Present() bool { return v.n != nil }

// Kind returns the wrapped node's syntax.Kind, or the zero Kind if absent.
func (v Node) Kind() syntax.Kind {
	if v.n == nil {
		return 0
	}
	return v.n.Kind
}

// Text reconstructs this view's exact source text.
func (v Node) Text() string {
	if v.n == nil {
		return ""
	}
	return v.n.Text()
}

// firstChildText returns the text of the first direct token child of the
// given kind, skipping everything else (trivia, nested nodes).
func firstChildText(n *syntax.Node, kind syntax.Kind) string {
	if n == nil {
		return ""
	}
	if t := n.FirstTokenOfKind(kind); t != nil {
		return t.Text
	}
	return ""
}

// childNodesOfKind returns every direct child node of the given kind, in
// source order.
func childNodesOfKind(n *syntax.Node, kind syntax.Kind) []*syntax.Node {
	if n == nil {
		return nil
	}
	var out []*syntax.Node
	for _, c := range n.ChildNodes() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}
