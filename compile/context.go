package compile

import (
	"github.com/otlayout/fea/ast"
	"github.com/otlayout/fea/ir"
)

// splitContext divides a chaining rule's single context sequence into
// backtrack, input and lookahead glyph sets using each operand's Marked
// flag, the sole structural signal the grammar records for which
// operands are the rule's nominal input versus surrounding context.
// Everything between the first and last marked operand (inclusive)
// becomes Input, matching the binary format's requirement that a
// ChainContext's input sequence be contiguous.
func (c *compiler) splitContext(seq ast.GlyphSeq) (backtrack, input, lookahead []*ir.GlyphSet) {
	ops := seq.Operands()
	firstMarked, lastMarked := -1, -1
	for i, op := range ops {
		if op.Marked {
			if firstMarked == -1 {
				firstMarked = i
			}
			lastMarked = i
		}
	}
	if firstMarked == -1 {
		for _, op := range ops {
			input = append(input, c.scope.operandSet(op.Literal, op.Ref, op.Atom))
		}
		return
	}
	for i := 0; i < firstMarked; i++ {
		backtrack = append(backtrack, c.scope.operandSet(ops[i].Literal, ops[i].Ref, ops[i].Atom))
	}
	for i := firstMarked; i <= lastMarked; i++ {
		input = append(input, c.scope.operandSet(ops[i].Literal, ops[i].Ref, ops[i].Atom))
	}
	for i := lastMarked + 1; i < len(ops); i++ {
		lookahead = append(lookahead, c.scope.operandSet(ops[i].Literal, ops[i].Ref, ops[i].Atom))
	}
	// Backtrack is stored closest-glyph-first in the binary layout, the
	// reverse of source (left-to-right) order.
	for l, r := 0, len(backtrack)-1; l < r; l, r = l+1, r-1 {
		backtrack[l], backtrack[r] = backtrack[r], backtrack[l]
	}
	return
}
