package validate

import (
	"github.com/otlayout/fea/diag"
	"github.com/otlayout/fea/syntax"
)

// offsets computes every node's absolute byte offset in one pass over
// each tree it is given. The green tree only stores each node's offset
// relative to its immediate parent (so that subtrees stay reusable after
// an include splice); a validator needs absolute offsets to build
// diag.Span values, so it builds this table once up front rather than
// re-walking ancestors for every diagnostic. It covers the root tree and
// every included tree at once, tagging each node with the file its
// diagnostics should be attributed to.
type offsets struct {
	start map[*syntax.Node]int
	file  map[*syntax.Node]string
}

func computeOffsets(files ...syntax.File) *offsets {
	o := &offsets{start: map[*syntax.Node]int{}, file: map[*syntax.Node]string{}}
	for _, f := range files {
		if f.Root == nil {
			continue
		}
		o.addTree(f.ID, f.Root)
	}
	return o
}

func (o *offsets) addTree(file string, root *syntax.Node) {
	var walk func(n *syntax.Node, base int)
	walk = func(n *syntax.Node, base int) {
		o.start[n] = base
		o.file[n] = file
		off := base
		for _, c := range n.Children {
			if c.Node != nil {
				walk(c.Node, off)
			}
			off += c.Len()
		}
	}
	walk(root, 0)
}

// span returns n's absolute byte span, or a zero-width span at 0 if n is
// nil or wasn't part of any tree this table was built from.
func (o *offsets) span(n *syntax.Node) diag.Span {
	if n == nil {
		return diag.Span{}
	}
	start, ok := o.start[n]
	if !ok {
		return diag.Span{}
	}
	return diag.Span{File: o.file[n], Start: start, End: start + n.Len()}
}
