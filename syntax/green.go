/*
Package syntax implements the green tree: an immutable, full-fidelity
concrete syntax tree over FEA source. Every byte of source — including
comments, whitespace and malformed regions — belongs to exactly one leaf,
and concatenating the leaves in order reproduces the source exactly.

Nodes are built bottom-up by a Builder that mirrors the teacher's
token-tree construction style (a stack of open parents, closed children
spliced in on Finish): see the grounding notes in DESIGN.md.
*/
package syntax

// Token is a leaf: a Kind and the literal text it covers. Unlike
// lexer.Token, a syntax Token owns its text rather than a span, because
// green nodes must survive independently of the source string they were
// built from (e.g. an included file's tree, kept as a separate result
// beside the root's).
type Token struct {
	Kind Kind
	Text string
}

// Node is an interior green node: a Kind plus an ordered list of children.
// Nodes are immutable once built; two structurally identical subtrees may
// safely share a single Node value, since nothing ever mutates one in
// place.
type Node struct {
	Kind     Kind
	Children []Element
	len      int
	relPos   int // byte offset of this node relative to its parent's start
}

// RelPos returns the byte offset of this node relative to the start of its
// parent. Combined with a running offset while descending from the root,
// this lets typed AST views compute absolute spans without the green tree
// itself carrying absolute positions (which would make subtrees unusable
// after an edit or an include splice).
func (n *Node) RelPos() int { return n.relPos }

// Element is either a Node or a Token. The green tree stores children as
// Elements so that leaves and interior nodes can be mixed freely.
type Element struct {
	Node  *Node
	Token *Token
}

func nodeElem(n *Node) Element   { return Element{Node: n} }
func tokenElem(t *Token) Element { return Element{Token: t} }

// IsToken reports whether this element is a leaf.
func (e Element) IsToken() bool { return e.Token != nil }

// Len returns the byte length of the text this element covers.
func (e Element) Len() int {
	if e.Token != nil {
		return len(e.Token.Text)
	}
	return e.Node.len
}

// Kind returns the element's Kind, token or node alike.
func (e Element) Kind() Kind {
	if e.Token != nil {
		return e.Token.Kind
	}
	return e.Node.Kind
}

// Len returns the total byte length covered by this node's children.
func (n *Node) Len() int { return n.len }

// newNode computes a node's length from its children and freezes it.
func newNode(kind Kind, children []Element) *Node {
	total := 0
	for _, c := range children {
		if c.Node != nil {
			c.Node.relPos = total
		}
		total += c.Len()
	}
	return &Node{Kind: kind, Children: children, len: total}
}

// Builder assembles a green tree bottom-up. Callers call StartNode before
// producing a node's children and FinishNode after, Token for each leaf in
// between. It is the target of the parser's token-tree events.
type Builder struct {
	parents  []frame
	children []Element
}

type frame struct {
	kind      Kind
	firstChild int
}

// StartNode opens a new interior node of the given kind.
func (b *Builder) StartNode(kind Kind) {
	b.parents = append(b.parents, frame{kind: kind, firstChild: len(b.children)})
}

// Token appends a leaf with the given kind and literal text.
func (b *Builder) Token(kind Kind, text string) {
	b.children = append(b.children, tokenElem(&Token{Kind: kind, Text: text}))
}

// FinishNode closes the most recently opened node, gathering every child
// produced since the matching StartNode into it.
func (b *Builder) FinishNode() {
	top := b.parents[len(b.parents)-1]
	b.parents = b.parents[:len(b.parents)-1]
	kids := make([]Element, len(b.children)-top.firstChild)
	copy(kids, b.children[top.firstChild:])
	b.children = b.children[:top.firstChild]
	node := newNode(top.kind, kids)
	b.children = append(b.children, nodeElem(node))
}

// StartNodeBefore wraps the last n finished children in a new node of the
// given kind. It is used to disambiguate constructs that can only be
// classified in hindsight — e.g. a substitution statement whose lookup
// type (single/multiple/ligature/alternate/chaining) depends on the shape
// of glyph sequences the parser has already emitted as flat siblings.
func (b *Builder) StartNodeBefore(kind Kind, n int) {
	if n > len(b.children) {
		n = len(b.children)
	}
	split := len(b.children) - n
	kids := make([]Element, n)
	copy(kids, b.children[split:])
	b.children = b.children[:split]
	b.children = append(b.children, nodeElem(newNode(kind, kids)))
}

// Finish closes the builder, returning the single root node. It panics if
// any StartNode is left unmatched, or if more than one root-level element
// was produced — both indicate a parser bug, not a malformed source file
// (malformed source is represented with ErrorNode, not a broken tree).
func (b *Builder) Finish() *Node {
	if len(b.parents) != 0 {
		panic("syntax: Builder.Finish called with unmatched StartNode")
	}
	if len(b.children) != 1 {
		panic("syntax: Builder.Finish did not produce exactly one root")
	}
	return b.children[0].Node
}

// Text reconstructs the exact source text this node was built from, by
// concatenating every leaf in order. It is the round-trip invariant made
// executable.
func (n *Node) Text() string {
	var buf []byte
	n.appendText(&buf)
	return string(buf)
}

func (n *Node) appendText(buf *[]byte) {
	for _, c := range n.Children {
		if c.Token != nil {
			*buf = append(*buf, c.Token.Text...)
		} else {
			c.Node.appendText(buf)
		}
	}
}
