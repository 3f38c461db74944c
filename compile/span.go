package compile

import (
	"github.com/otlayout/fea/diag"
	"github.com/otlayout/fea/syntax"
)

// offsets mirrors validate's same-named helper, covering the root tree
// and every included tree at once so a node's absolute span resolves
// correctly regardless of which file it came from. Compile keeps its own
// copy rather than importing validate's (unexported) version, in keeping
// with the rest of this package's silent, validate-independent
// resolution.
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
