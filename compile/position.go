package compile

import (
	"github.com/otlayout/fea/ast"
	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
	"github.com/otlayout/fea/validate"
)

func trimAt(s string) string {
	if len(s) > 0 && s[0] == '@' {
		return s[1:]
	}
	return s
}

// genericItem is one operand of a PosGeneric statement, together with
// whatever value record immediately follows it and whether a '
// contextual marker followed it.
type genericItem struct {
	lit    *syntax.Node
	ref    *syntax.Node
	atom   *syntax.Token
	marked bool
	value  *ir.ValueRecord
}

// genericItems walks a PosGeneric statement's direct children, pairing
// each glyph/class operand with the ValueRecordNode that follows it, if
// any — the shape parser/grammar_rule.go's positionSequence produces:
// bare operands interleaved with bare ValueRecordNode siblings, never
// wrapped in a GlyphSeqNode (see validate/validate.go's position, which
// hit this same shape mismatch first).
func (c *compiler) genericItems(n *syntax.Node) []genericItem {
	var out []genericItem
	for _, ch := range n.Children {
		switch {
		case ch.Token != nil && ch.Token.Kind == syntax.FromToken(lexer.Quote):
			// the marker follows the operand it applies to (`pos a b' 20 c;`)
			if len(out) > 0 {
				out[len(out)-1].marked = true
			}
		case ch.Node != nil && ch.Node.Kind == syntax.GlyphClassLiteralNode:
			out = append(out, genericItem{lit: ch.Node})
		case ch.Node != nil && ch.Node.Kind == syntax.GlyphClassRefNode:
			out = append(out, genericItem{ref: ch.Node})
		case ch.Token != nil && (ch.Token.Kind == syntax.FromToken(lexer.GlyphName) || ch.Token.Kind == syntax.FromToken(lexer.Cid)):
			out = append(out, genericItem{atom: ch.Token})
		case ch.Node != nil && ch.Node.Kind == syntax.ValueRecordNode:
			if len(out) > 0 {
				v := c.resolveValueRecordNode(ch.Node)
				out[len(out)-1].value = &v
			}
		}
	}
	return out
}

func (c *compiler) resolveValueRecordNode(n *syntax.Node) ir.ValueRecord {
	nums := ast.CastValueRecord(n).Numbers()
	ints := make([]int32, 0, len(nums))
	for _, s := range nums {
		ints = append(ints, parseSignedInt(s))
	}
	switch len(ints) {
	case 1:
		return ir.ValueRecord{XAdvance: int16(ints[0])}
	case 4:
		return ir.ValueRecord{XPlacement: int16(ints[0]), YPlacement: int16(ints[1]), XAdvance: int16(ints[2]), YAdvance: int16(ints[3])}
	}
	return ir.ValueRecord{}
}

func (c *compiler) itemSet(it genericItem) *ir.GlyphSet {
	return c.scope.operandSet(it.lit, it.ref, it.atom)
}

func (c *compiler) itemOrdered(it genericItem) []ir.GID {
	return c.scope.operandOrdered(it.lit, it.ref, it.atom)
}

// targetOperand finds the mark-attachment forms' single target-glyph
// operand: the first glyph-class-shaped child encountered before the
// first AnchorNode. cursive/base/ligComponent/leading-mark all share
// this "operand, then one or more anchor/mark clauses" shape.
func targetOperand(n *syntax.Node) (*syntax.Node, *syntax.Node, *syntax.Token) {
	for _, ch := range n.Children {
		switch {
		case ch.Node != nil && ch.Node.Kind == syntax.AnchorNode:
			return nil, nil, nil
		case ch.Node != nil && ch.Node.Kind == syntax.GlyphClassLiteralNode:
			return ch.Node, nil, nil
		case ch.Node != nil && ch.Node.Kind == syntax.GlyphClassRefNode:
			return nil, ch.Node, nil
		case ch.Token != nil && (ch.Token.Kind == syntax.FromToken(lexer.GlyphName) || ch.Token.Kind == syntax.FromToken(lexer.Cid)):
			return nil, nil, ch.Token
		}
	}
	return nil, nil, nil
}

func anchorPtr(a ast.Anchor, sym *validate.Symbols) *ir.Anchor {
	if !a.Present() || a.IsNull() {
		return nil
	}
	v := validate.ResolveAnchor(a, sym)
	return &v
}

func (c *compiler) lowerPosition(p ast.Position, n *syntax.Node) (ruleResult, bool) {
	flag := c.resolvedFlag(n)
	if p.IsIgnore() {
		return c.lowerIgnorePosition(n, flag)
	}
	switch p.Form() {
	case ast.PosCursive:
		return c.lowerCursivePosition(p, n, flag)
	case ast.PosMarkToBase:
		return c.lowerMarkToBasePosition(p, n, flag)
	case ast.PosMarkToLigature:
		return c.lowerMarkToLigaturePosition(n, flag)
	case ast.PosMarkToMark:
		return c.lowerMarkToMarkPosition(p, n, flag)
	default:
		items := c.genericItems(n)
		if p.IsChaining() {
			return c.lowerGenericChainPosition(items, flag)
		}
		return c.lowerGenericPosition(items, flag)
	}
}

// lowerIgnorePosition handles `ignore pos <ctx>, <ctx>;`: each
// comma-separated context becomes its own context-only ChainContextRule
// (no action), the positioning counterpart of ignore-sub.
func (c *compiler) lowerIgnorePosition(n *syntax.Node, flag ir.LookupFlag) (ruleResult, bool) {
	var rules []ir.ChainContextRule
	for _, ch := range n.ChildNodes() {
		if ch.Kind != syntax.GlyphSeqNode {
			continue
		}
		bt, in, la := c.splitContext(ast.CastGlyphSeq(ch))
		rules = append(rules, ir.ChainContextRule{Backtrack: bt, Input: in, Lookahead: la})
	}
	if len(rules) == 0 {
		return ruleResult{}, false
	}
	return ruleResult{table: ir.GPOS, lutype: ir.GPOSChainContext, subtable: &ir.ChainContextPos{Rules: rules}, flag: flag}, true
}

// lowerGenericPosition handles single (`pos A <v>;`) and pair
// (`pos A B <v>;` or `pos A <v1> B <v2>;`) non-chaining positioning.
func (c *compiler) lowerGenericPosition(items []genericItem, flag ir.LookupFlag) (ruleResult, bool) {
	switch len(items) {
	case 1:
		var v ir.ValueRecord
		if items[0].value != nil {
			v = *items[0].value
		}
		values := map[ir.GID]ir.ValueRecord{}
		for _, g := range c.itemOrdered(items[0]) {
			values[g] = v
		}
		return ruleResult{table: ir.GPOS, lutype: ir.GPOSSingle, subtable: &ir.SinglePos{Values: values}, flag: flag}, true
	case 2:
		var v1, v2 ir.ValueRecord
		assigned := false
		if items[0].value != nil {
			v1 = *items[0].value
			assigned = true
		}
		if items[1].value != nil {
			if !assigned {
				v1 = *items[1].value
			} else {
				v2 = *items[1].value
			}
		}
		pairs := map[[2]ir.GID]ir.PairValue{}
		for _, a := range c.itemOrdered(items[0]) {
			for _, b := range c.itemOrdered(items[1]) {
				pairs[[2]ir.GID{a, b}] = ir.PairValue{First: v1, Second: v2}
			}
		}
		return ruleResult{table: ir.GPOS, lutype: ir.GPOSPair, subtable: &ir.PairPosFormat1{Pairs: pairs}, flag: flag}, true
	}
	return ruleResult{}, false
}

// lowerGenericChainPosition handles a '-marked generic positioning
// statement: a marked operand with an attached value record becomes an
// anonymous single-positioning nested lookup at that input position,
// the GPOS counterpart of synthesizeInlineSubstActions.
func (c *compiler) lowerGenericChainPosition(items []genericItem, flag ir.LookupFlag) (ruleResult, bool) {
	firstMarked, lastMarked := -1, -1
	for i, it := range items {
		if it.marked {
			if firstMarked == -1 {
				firstMarked = i
			}
			lastMarked = i
		}
	}
	if firstMarked == -1 {
		return ruleResult{}, false
	}
	var backtrack, input, lookahead []*ir.GlyphSet
	for i := 0; i < firstMarked; i++ {
		backtrack = append(backtrack, c.itemSet(items[i]))
	}
	for l, r := 0, len(backtrack)-1; l < r; l, r = l+1, r-1 {
		backtrack[l], backtrack[r] = backtrack[r], backtrack[l]
	}
	var actions []ir.ChainAction
	for i := firstMarked; i <= lastMarked; i++ {
		input = append(input, c.itemSet(items[i]))
		if items[i].value != nil {
			values := map[ir.GID]ir.ValueRecord{}
			for _, g := range c.itemOrdered(items[i]) {
				values[g] = *items[i].value
			}
			lk := &ir.Lookup{Table: ir.GPOS, Type: ir.GPOSSingle, Subtables: []ir.Subtable{&ir.SinglePos{Values: values}}}
			idx := c.gpos.AddLookup(lk)
			actions = append(actions, ir.ChainAction{InputIndex: i - firstMarked, LookupRefs: []int{idx}})
		}
	}
	for i := lastMarked + 1; i < len(items); i++ {
		lookahead = append(lookahead, c.itemSet(items[i]))
	}
	rule := ir.ChainContextRule{Backtrack: backtrack, Input: input, Lookahead: lookahead, Actions: actions}
	return ruleResult{table: ir.GPOS, lutype: ir.GPOSChainContext, subtable: &ir.ChainContextPos{Rules: []ir.ChainContextRule{rule}}, flag: flag}, true
}

func (c *compiler) lowerCursivePosition(p ast.Position, n *syntax.Node, flag ir.LookupFlag) (ruleResult, bool) {
	lit, ref, atom := targetOperand(n)
	gids := c.scope.operandOrdered(lit, ref, atom)
	anchors := p.Anchors()
	if len(anchors) < 2 {
		return ruleResult{}, false
	}
	entry := anchorPtr(anchors[0], c.sym)
	exit := anchorPtr(anchors[1], c.sym)
	m := map[ir.GID][2]*ir.Anchor{}
	for _, g := range gids {
		m[g] = [2]*ir.Anchor{entry, exit}
	}
	return ruleResult{table: ir.GPOS, lutype: ir.GPOSCursive, subtable: &ir.CursivePos{EntryExit: m}, flag: flag}, true
}

// markAttachOneAnchorPerClass is shared by mark-to-base and mark-to-mark
// lowering, which differ only in which ir.Subtable they end up wrapped
// in: both are "target glyph class + N (anchor, mark-class) pairs".
func (c *compiler) markAttachOneAnchorPerClass(targetGIDs []ir.GID, anchors []ast.Anchor, classes []string) (map[ir.GID]map[int]ir.MarkAttachment, map[int]*ir.GlyphSet) {
	attachments := map[ir.GID]map[int]ir.MarkAttachment{}
	markClasses := map[int]*ir.GlyphSet{}
	for i, className := range classes {
		idx := c.markClassIndex(className)
		mc, ok := c.sym.MarkClasses[className]
		if !ok {
			continue
		}
		markClasses[idx] = mc.Glyphs()
		baseAnchor := validate.ResolveAnchor(anchors[i], c.sym)
		var markAnchor ir.Anchor
		if len(mc.Entries) > 0 {
			markAnchor = mc.Entries[0].Anchor
		}
		for _, g := range targetGIDs {
			if attachments[g] == nil {
				attachments[g] = map[int]ir.MarkAttachment{}
			}
			attachments[g][idx] = ir.MarkAttachment{BaseAnchor: baseAnchor, MarkAnchor: markAnchor}
		}
	}
	return attachments, markClasses
}

func (c *compiler) lowerMarkToBasePosition(p ast.Position, n *syntax.Node, flag ir.LookupFlag) (ruleResult, bool) {
	lit, ref, atom := targetOperand(n)
	baseGIDs := c.scope.operandOrdered(lit, ref, atom)
	anchors, classes := p.Anchors(), p.MarkClasses()
	if len(anchors) == 0 || len(anchors) != len(classes) {
		return ruleResult{}, false
	}
	attachments, markClasses := c.markAttachOneAnchorPerClass(baseGIDs, anchors, classes)
	return ruleResult{table: ir.GPOS, lutype: ir.GPOSMarkToBase, subtable: &ir.MarkToBasePos{Attachments: attachments, MarkClasses: markClasses}, flag: flag}, true
}

func (c *compiler) lowerMarkToMarkPosition(p ast.Position, n *syntax.Node, flag ir.LookupFlag) (ruleResult, bool) {
	lit, ref, atom := targetOperand(n)
	baseGIDs := c.scope.operandOrdered(lit, ref, atom)
	anchors, classes := p.Anchors(), p.MarkClasses()
	if len(anchors) == 0 || len(anchors) != len(classes) {
		return ruleResult{}, false
	}
	attachments, markClasses := c.markAttachOneAnchorPerClass(baseGIDs, anchors, classes)
	mm := map[ir.GID]map[int]ir.MarkAttachment{}
	for g, v := range attachments {
		mm[g] = v
	}
	return ruleResult{table: ir.GPOS, lutype: ir.GPOSMarkToMark, subtable: &ir.MarkToMarkPos{Attachments: mm, MarkClasses: markClasses}, flag: flag}, true
}

// lowerMarkToLigaturePosition handles `pos ligature <glyphs> <anchor>
// mark @MC ligComponent <anchor> mark @MC ...;`, walking children
// directly to track which ligature component each (anchor, mark @class)
// pair belongs to — information ast.Position.Anchors/MarkClasses don't
// expose, since they simply flatten every clause in source order.
func (c *compiler) lowerMarkToLigaturePosition(n *syntax.Node, flag ir.LookupFlag) (ruleResult, bool) {
	lit, ref, atom := targetOperand(n)
	ligGIDs := c.scope.operandOrdered(lit, ref, atom)
	attachments := map[ir.GID]map[int]map[int]ir.MarkAttachment{}
	markClasses := map[int]*ir.GlyphSet{}
	component := 0
	var pendingAnchor *ast.Anchor
	afterMark := false
	for _, ch := range n.Children {
		switch {
		case ch.Token != nil && ch.Token.Kind == syntax.FromToken(lexer.KwLigComponent):
			component++
			pendingAnchor = nil
			afterMark = false
		case ch.Node != nil && ch.Node.Kind == syntax.AnchorNode:
			a := ast.CastAnchor(ch.Node)
			pendingAnchor = &a
		case ch.Token != nil && ch.Token.Kind == syntax.FromToken(lexer.KwMark):
			afterMark = true
		case ch.Token != nil && ch.Token.Kind == syntax.FromToken(lexer.NamedClass) && afterMark && pendingAnchor != nil:
			className := trimAt(ch.Token.Text)
			idx := c.markClassIndex(className)
			mc, ok := c.sym.MarkClasses[className]
			if ok {
				markClasses[idx] = mc.Glyphs()
				baseAnchor := validate.ResolveAnchor(*pendingAnchor, c.sym)
				var markAnchor ir.Anchor
				if len(mc.Entries) > 0 {
					markAnchor = mc.Entries[0].Anchor
				}
				for _, g := range ligGIDs {
					if attachments[g] == nil {
						attachments[g] = map[int]map[int]ir.MarkAttachment{}
					}
					if attachments[g][component] == nil {
						attachments[g][component] = map[int]ir.MarkAttachment{}
					}
					attachments[g][component][idx] = ir.MarkAttachment{BaseAnchor: baseAnchor, MarkAnchor: markAnchor}
				}
			}
			afterMark = false
			pendingAnchor = nil
		}
	}
	return ruleResult{table: ir.GPOS, lutype: ir.GPOSMarkToLig, subtable: &ir.MarkToLigPos{Attachments: attachments, MarkClasses: markClasses}, flag: flag}, true
}
