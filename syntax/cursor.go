package syntax

// ChildNodes returns a Node's direct interior-node children, skipping its
// leaf tokens. Typed AST accessors filter out ErrorNode children
// themselves; the green tree stays unopinionated about what's
// "interesting".
func (n *Node) ChildNodes() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Node != nil {
			out = append(out, c.Node)
		}
	}
	return out
}

// ChildTokens returns a Node's direct leaf children.
func (n *Node) ChildTokens() []*Token {
	var out []*Token
	for _, c := range n.Children {
		if c.Token != nil {
			out = append(out, c.Token)
		}
	}
	return out
}

// FirstChildOfKind returns the first direct child node with the given
// Kind, or nil.
func (n *Node) FirstChildOfKind(kind Kind) *Node {
	for _, c := range n.Children {
		if c.Node != nil && c.Node.Kind == kind {
			return c.Node
		}
	}
	return nil
}

// FirstTokenOfKind returns the first direct leaf child with the given
// Kind, or nil.
func (n *Node) FirstTokenOfKind(kind Kind) *Token {
	for _, c := range n.Children {
		if c.Token != nil && c.Token.Kind == kind {
			return c.Token
		}
	}
	return nil
}

// Walk visits every node in the tree, depth-first, pre-order, calling visit
// for each interior node (leaves are not visited — callers interested in
// leaves should use IterTokens).
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, c := range n.ChildNodes() {
		c.Walk(visit)
	}
}

// IterTokens returns every leaf in the subtree, in source order.
func (n *Node) IterTokens() []*Token {
	var out []*Token
	var walk func(*Node)
	walk = func(node *Node) {
		for _, c := range node.Children {
			if c.Token != nil {
				out = append(out, c.Token)
			} else {
				walk(c.Node)
			}
		}
	}
	walk(n)
	return out
}
