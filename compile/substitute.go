package compile

import (
	"github.com/otlayout/fea/ast"
	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/syntax"
)

func (c *compiler) lowerSubstitute(s ast.Substitute, n *syntax.Node) (ruleResult, bool) {
	flag := c.resolvedFlag(n)
	switch s.Classify() {
	case ast.SubstSingle:
		return c.lowerSingleSubst(s, flag)
	case ast.SubstMultiple:
		return c.lowerMultipleSubst(s, flag)
	case ast.SubstAlternate:
		return c.lowerAlternateSubst(s, flag)
	case ast.SubstLigature:
		return c.lowerLigatureSubst(s, flag)
	case ast.SubstChaining:
		return c.lowerChainingSubst(s, flag)
	case ast.SubstReverseChaining:
		return c.lowerReverseSubst(s, flag)
	}
	return ruleResult{}, false
}

// lowerSingleSubst handles `sub X by Y;`. X and Y may each be a single
// glyph or a same-size glyph class; a class pair is zipped by source
// write order (scope.operandOrdered), not by sorted coverage order — the
// positional correspondence GSUB type 1 class substitution requires.
func (c *compiler) lowerSingleSubst(s ast.Substitute, flag ir.LookupFlag) (ruleResult, bool) {
	seqs := s.Sequences()
	if len(seqs) < 2 {
		return ruleResult{}, false
	}
	inOps, outOps := seqs[0].Operands(), seqs[1].Operands()
	if len(inOps) != 1 || len(outOps) != 1 {
		return ruleResult{}, false
	}
	inGIDs := c.scope.operandOrdered(inOps[0].Literal, inOps[0].Ref, inOps[0].Atom)
	outGIDs := c.scope.operandOrdered(outOps[0].Literal, outOps[0].Ref, outOps[0].Atom)
	mapping := map[ir.GID]ir.GID{}
	switch {
	case len(inGIDs) == len(outGIDs):
		for i, g := range inGIDs {
			mapping[g] = outGIDs[i]
		}
	case len(outGIDs) == 1:
		for _, g := range inGIDs {
			mapping[g] = outGIDs[0]
		}
	}
	return ruleResult{table: ir.GSUB, lutype: ir.GSUBSingle, subtable: &ir.SingleSubst{Mapping: mapping}, flag: flag}, true
}

// lowerMultipleSubst handles `sub X by Y Z;` — one input glyph expanding
// to an ordered sequence of output glyphs.
func (c *compiler) lowerMultipleSubst(s ast.Substitute, flag ir.LookupFlag) (ruleResult, bool) {
	seqs := s.Sequences()
	if len(seqs) < 2 {
		return ruleResult{}, false
	}
	inOps := seqs[0].Operands()
	if len(inOps) != 1 {
		return ruleResult{}, false
	}
	inGIDs := c.scope.operandOrdered(inOps[0].Literal, inOps[0].Ref, inOps[0].Atom)
	var outGIDs []ir.GID
	for _, op := range seqs[1].Operands() {
		outGIDs = append(outGIDs, c.scope.operandOrdered(op.Literal, op.Ref, op.Atom)...)
	}
	mapping := map[ir.GID][]ir.GID{}
	for _, g := range inGIDs {
		mapping[g] = append([]ir.GID(nil), outGIDs...)
	}
	return ruleResult{table: ir.GSUB, lutype: ir.GSUBMultiple, subtable: &ir.MultipleSubst{Mapping: mapping}, flag: flag}, true
}

// lowerAlternateSubst handles `sub X from [A B C];`.
func (c *compiler) lowerAlternateSubst(s ast.Substitute, flag ir.LookupFlag) (ruleResult, bool) {
	seqs := s.Sequences()
	if len(seqs) < 2 {
		return ruleResult{}, false
	}
	inOps := seqs[0].Operands()
	if len(inOps) != 1 {
		return ruleResult{}, false
	}
	inGIDs := c.scope.operandOrdered(inOps[0].Literal, inOps[0].Ref, inOps[0].Atom)
	outOps := seqs[1].Operands()
	if len(outOps) != 1 {
		return ruleResult{}, false
	}
	altGIDs := c.scope.operandOrdered(outOps[0].Literal, outOps[0].Ref, outOps[0].Atom)
	mapping := map[ir.GID][]ir.GID{}
	for _, g := range inGIDs {
		mapping[g] = append([]ir.GID(nil), altGIDs...)
	}
	return ruleResult{table: ir.GSUB, lutype: ir.GSUBAlternate, subtable: &ir.AlternateSubst{Mapping: mapping}, flag: flag}, true
}

// lowerLigatureSubst handles `sub X Y Z by XYZ;` — 2+ component operands
// collapsing to one ligature glyph. A component (or the output) written
// as a class of size N > 1 zips positionally across N generated rules,
// the same write-order convention single substitution uses.
func (c *compiler) lowerLigatureSubst(s ast.Substitute, flag ir.LookupFlag) (ruleResult, bool) {
	seqs := s.Sequences()
	if len(seqs) < 2 {
		return ruleResult{}, false
	}
	inOps, outOps := seqs[0].Operands(), seqs[1].Operands()
	if len(inOps) < 2 || len(outOps) != 1 {
		return ruleResult{}, false
	}
	components := make([][]ir.GID, len(inOps))
	maxLen := 1
	for i, op := range inOps {
		components[i] = c.scope.operandOrdered(op.Literal, op.Ref, op.Atom)
		if len(components[i]) > maxLen {
			maxLen = len(components[i])
		}
	}
	ligGIDs := c.scope.operandOrdered(outOps[0].Literal, outOps[0].Ref, outOps[0].Atom)
	var rules []ir.LigatureRule
	for i := 0; i < maxLen; i++ {
		comps := make([]ir.GID, len(components))
		ok := true
		for j, gids := range components {
			switch {
			case len(gids) == 1:
				comps[j] = gids[0]
			case i < len(gids):
				comps[j] = gids[i]
			default:
				ok = false
			}
		}
		if !ok {
			continue
		}
		var lig ir.GID
		switch {
		case len(ligGIDs) == 1:
			lig = ligGIDs[0]
		case i < len(ligGIDs):
			lig = ligGIDs[i]
		default:
			continue
		}
		rules = append(rules, ir.LigatureRule{Components: comps, Ligature: lig})
	}
	return ruleResult{table: ir.GSUB, lutype: ir.GSUBLigature, subtable: &ir.LigatureSubst{Rules: rules}, flag: flag}, true
}

// lowerChainingSubst handles any `'`-marked contextual substitution,
// including `ignore sub` (which carries no `by` clause and so produces a
// context-only rule with no action — matching glyphs simply aren't
// substituted by this rule, deferring to whatever rule follows it).
func (c *compiler) lowerChainingSubst(s ast.Substitute, flag ir.LookupFlag) (ruleResult, bool) {
	seqs := s.Sequences()
	if len(seqs) == 0 {
		return ruleResult{}, false
	}
	backtrack, input, lookahead := c.splitContext(seqs[0])
	var actions []ir.ChainAction
	if s.HasBy() && len(seqs) >= 2 {
		actions = c.synthesizeInlineSubstActions(seqs[0], seqs[1])
	}
	rule := ir.ChainContextRule{Backtrack: backtrack, Input: input, Lookahead: lookahead, Actions: actions}
	return ruleResult{table: ir.GSUB, lutype: ir.GSUBChainContext, subtable: &ir.ChainContextSubst{Rules: []ir.ChainContextRule{rule}}, flag: flag}, true
}

// synthesizeInlineSubstActions lowers a chaining rule's inline `by` output
// into one anonymous single-substitution lookup per marked input
// position, zipped positionally against the output sequence's operands
// (one output operand per marked position). The binary ChainContext
// format has no slot for an inline replacement — every action it can
// express is a reference to another lookup — so an inline `by` clause
// is compiled the same way a real OpenType binary would represent it:
// as a private, unnamed nested lookup.
func (c *compiler) synthesizeInlineSubstActions(ctxSeq, outSeq ast.GlyphSeq) []ir.ChainAction {
	ctxOps := ctxSeq.Operands()
	var markedIdx []int
	for i, op := range ctxOps {
		if op.Marked {
			markedIdx = append(markedIdx, i)
		}
	}
	outOps := outSeq.Operands()
	if len(markedIdx) == 0 || len(markedIdx) != len(outOps) {
		return nil
	}
	firstMarked := markedIdx[0]
	var actions []ir.ChainAction
	for k, opIdx := range markedIdx {
		inGIDs := c.scope.operandOrdered(ctxOps[opIdx].Literal, ctxOps[opIdx].Ref, ctxOps[opIdx].Atom)
		outGIDs := c.scope.operandOrdered(outOps[k].Literal, outOps[k].Ref, outOps[k].Atom)
		mapping := map[ir.GID]ir.GID{}
		switch {
		case len(inGIDs) == len(outGIDs):
			for i, g := range inGIDs {
				mapping[g] = outGIDs[i]
			}
		case len(outGIDs) == 1:
			for _, g := range inGIDs {
				mapping[g] = outGIDs[0]
			}
		}
		lk := &ir.Lookup{Table: ir.GSUB, Type: ir.GSUBSingle, Subtables: []ir.Subtable{&ir.SingleSubst{Mapping: mapping}}}
		idx := c.gsub.AddLookup(lk)
		actions = append(actions, ir.ChainAction{InputIndex: opIdx - firstMarked, LookupRefs: []int{idx}})
	}
	return actions
}

// lowerReverseSubst handles `rsub backtrack input' lookahead by output;`
// — GSUB type 8, applied back-to-front with its own context, supporting
// exactly one marked input position (class or single glyph).
func (c *compiler) lowerReverseSubst(s ast.Substitute, flag ir.LookupFlag) (ruleResult, bool) {
	seqs := s.Sequences()
	if len(seqs) == 0 {
		return ruleResult{}, false
	}
	backtrack, _, lookahead := c.splitContext(seqs[0])
	ctxOps := seqs[0].Operands()
	var marked *ast.SeqOperand
	for i := range ctxOps {
		if ctxOps[i].Marked {
			marked = &ctxOps[i]
			break
		}
	}
	mapping := map[ir.GID]ir.GID{}
	if marked != nil && len(seqs) >= 2 {
		outOps := seqs[1].Operands()
		if len(outOps) == 1 {
			inGIDs := c.scope.operandOrdered(marked.Literal, marked.Ref, marked.Atom)
			outGIDs := c.scope.operandOrdered(outOps[0].Literal, outOps[0].Ref, outOps[0].Atom)
			switch {
			case len(inGIDs) == len(outGIDs):
				for i, g := range inGIDs {
					mapping[g] = outGIDs[i]
				}
			case len(outGIDs) == 1:
				for _, g := range inGIDs {
					mapping[g] = outGIDs[0]
				}
			}
		}
	}
	return ruleResult{
		table:  ir.GSUB,
		lutype: ir.GSUBReverseChainSingle,
		subtable: &ir.ReverseChainSingleSubst{
			Backtrack: backtrack,
			Mapping:   mapping,
			Lookahead: lookahead,
		},
		flag: flag,
	}, true
}
