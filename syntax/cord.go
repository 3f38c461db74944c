package syntax

import "github.com/npillmayer/cords"

// leaf adapts a green Token into a cords.Leaf, the same adapter shape the
// teacher's engine/frame/lines package uses to turn DOM text nodes into
// cord leaves. Reusing it here gives the green tree's "structurally
// shared, persistent text" claim an actual persistent rope instead of a
// plain concatenated string.
type leaf struct {
	text string
}

func (l leaf) Weight() uint64 { return uint64(len(l.text)) }
func (l leaf) String() string { return l.text }

func (l leaf) Split(i uint64) (cords.Leaf, cords.Leaf) {
	return leaf{text: l.text[:i]}, leaf{text: l.text[i:]}
}

func (l leaf) Substring(i, j uint64) []byte {
	return []byte(l.text[i:j])
}

var _ cords.Leaf = leaf{}

// Cord builds a persistent-rope view of this node's text, one cord leaf
// per green-tree token leaf. Unlike Text, which allocates a flat string,
// Cord lets a caller holding on to many overlapping subtrees (e.g. a
// diagnostic renderer walking several spans of a large included file)
// share storage the way the green tree itself does internally.
func (n *Node) Cord() cords.Cord {
	b := cords.NewBuilder()
	n.appendCord(b)
	return b.Cord()
}

func (n *Node) appendCord(b *cords.Builder) {
	for _, c := range n.Children {
		if c.Token != nil {
			b.Append(leaf{text: c.Token.Text})
		} else {
			c.Node.appendCord(b)
		}
	}
}
