package compile

import (
	"github.com/otlayout/fea/ast"
	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/syntax"
)

// ruleResult is one statement's lowered lookup-type payload: which table
// it belongs to, its lookup type, the subtable it contributes, and the
// lookupflag in force when it was written.
type ruleResult struct {
	table    ir.Table
	lutype   ir.LookupType
	subtable ir.Subtable
	flag     ir.LookupFlag
}

// lowerStatement dispatches one rule statement to its IR subtable. ok is
// false for anything that isn't a Substitute or Position statement —
// callers already special-case scripts, languages, flags and markers
// before reaching here.
func (c *compiler) lowerStatement(n *syntax.Node) (ruleResult, bool) {
	switch n.Kind {
	case syntax.SubstituteNode:
		return c.lowerSubstitute(ast.CastSubstitute(n), n)
	case syntax.PositionNode:
		return c.lowerPosition(ast.CastPosition(n), n)
	}
	return ruleResult{}, false
}

// compileNamedLookup lowers one `lookup <name> { ... }` block into a
// single ir.Lookup and registers its table/index under name. A block is
// expected to hold rules of one lookup type, per the lookup model's
// "typed container of subtables of one lookup type" invariant; a rule
// whose lowered type doesn't match the block's first rule is skipped
// with a warning instead of splitting the named lookup — splitting would
// silently change what every `lookup <name>;` reference elsewhere in the
// file resolves to.
func (c *compiler) compileNamedLookup(name string, node *syntax.Node) {
	block := ast.CastLookupBlock(node)
	var table ir.Table
	var lutype ir.LookupType
	var flag ir.LookupFlag
	var subtables []ir.Subtable
	typeSet := false
	forceSplit := false
	oversized := false
	for _, stmt := range block.Statements() {
		if stmt.Kind == syntax.SubtableMarkerNode {
			forceSplit = true
			continue
		}
		res, ok := c.lowerStatement(stmt)
		if !ok {
			continue
		}
		if !typeSet {
			table, lutype, flag = res.table, res.lutype, res.flag
			typeSet = true
		}
		if res.table != table || res.lutype != lutype {
			c.bag.Warnf(c.off.span(stmt), "lookup %s mixes rule shapes; a later rule of a different shape was skipped", name)
			continue
		}
		var big bool
		subtables, big = appendSubtable(subtables, res.subtable, forceSplit)
		oversized = oversized || big
		forceSplit = false
	}
	if !typeSet {
		return
	}
	subtables = finalizePairPosSubtables(subtables)
	lk := &ir.Lookup{Name: name, Table: table, Type: lutype, Flag: flag, Subtables: subtables, UseExtension: block.UseExtension() || oversized}
	var idx int
	if table == ir.GSUB {
		idx = c.gsub.AddLookup(lk)
	} else {
		idx = c.gpos.AddLookup(lk)
	}
	c.lookups[name] = lookupKey{table: table, index: idx}
}

// batch accumulates consecutive bare rule statements (not inside any
// named lookup block) of matching table/type/flag into one anonymous
// lookup — the way a feature body's unlabeled rules become one lookup
// per contiguous run, splitting wherever the shape or flag changes.
type batch struct {
	table      ir.Table
	lutype     ir.LookupType
	flag       ir.LookupFlag
	subtables  []ir.Subtable
	open       bool
	forceSplit bool
	oversized  bool
}

// push adds one lowered rule to the run. If the rule doesn't fit the
// currently open run (different table, type, or flag), the open run is
// flushed first and returned; push always leaves a run open afterward.
func (b *batch) push(res ruleResult) *ir.Lookup {
	var flushed *ir.Lookup
	if b.open && (b.table != res.table || b.lutype != res.lutype || b.flag != res.flag) {
		flushed = b.flush()
	}
	if !b.open {
		b.table, b.lutype, b.flag, b.open = res.table, res.lutype, res.flag, true
	}
	var big bool
	b.subtables, big = appendSubtable(b.subtables, res.subtable, b.forceSplit)
	b.oversized = b.oversized || big
	b.forceSplit = false
	return flushed
}

// split marks the run so the next pushed rule starts a fresh subtable
// instead of merging into the last one — the automatic-splitting
// counterpart's literal trigger, an explicit `subtable;` marker.
func (b *batch) split() {
	b.forceSplit = true
}

// flush finalizes the pending run, if any, into an ir.Lookup (nil if
// nothing was pending), and resets the batch.
func (b *batch) flush() *ir.Lookup {
	if !b.open {
		return nil
	}
	subtables := finalizePairPosSubtables(b.subtables)
	lk := &ir.Lookup{Table: b.table, Type: b.lutype, Flag: b.flag, Subtables: subtables, UseExtension: b.oversized}
	*b = batch{}
	return lk
}

// mergeSubtable appends add to subs, first trying to fold it into the
// last existing entry when both share a mergeable shape — the way a
// real compiler packs multiple `sub`/`pos` statements of the same kind
// into one subtable's map or rule list instead of emitting one subtable
// per source statement.
func mergeSubtable(subs []ir.Subtable, add ir.Subtable) []ir.Subtable {
	if add == nil {
		return subs
	}
	if len(subs) == 0 {
		return []ir.Subtable{add}
	}
	last := subs[len(subs)-1]
	switch a := add.(type) {
	case *ir.SingleSubst:
		if l, ok := last.(*ir.SingleSubst); ok {
			for k, v := range a.Mapping {
				l.Mapping[k] = v
			}
			return subs
		}
	case *ir.MultipleSubst:
		if l, ok := last.(*ir.MultipleSubst); ok {
			for k, v := range a.Mapping {
				l.Mapping[k] = v
			}
			return subs
		}
	case *ir.AlternateSubst:
		if l, ok := last.(*ir.AlternateSubst); ok {
			for k, v := range a.Mapping {
				l.Mapping[k] = v
			}
			return subs
		}
	case *ir.LigatureSubst:
		if l, ok := last.(*ir.LigatureSubst); ok {
			l.Rules = append(l.Rules, a.Rules...)
			return subs
		}
	case *ir.ChainContextSubst:
		if l, ok := last.(*ir.ChainContextSubst); ok {
			l.Rules = append(l.Rules, a.Rules...)
			return subs
		}
	case *ir.SinglePos:
		if l, ok := last.(*ir.SinglePos); ok {
			for k, v := range a.Values {
				l.Values[k] = v
			}
			return subs
		}
	case *ir.PairPosFormat1:
		if l, ok := last.(*ir.PairPosFormat1); ok {
			for k, v := range a.Pairs {
				l.Pairs[k] = v
			}
			return subs
		}
	case *ir.CursivePos:
		if l, ok := last.(*ir.CursivePos); ok {
			for k, v := range a.EntryExit {
				l.EntryExit[k] = v
			}
			return subs
		}
	case *ir.MarkToBasePos:
		if l, ok := last.(*ir.MarkToBasePos); ok {
			mergeMarkToBase(l, a)
			return subs
		}
	case *ir.MarkToLigPos:
		if l, ok := last.(*ir.MarkToLigPos); ok {
			mergeMarkToLig(l, a)
			return subs
		}
	case *ir.MarkToMarkPos:
		if l, ok := last.(*ir.MarkToMarkPos); ok {
			mergeMarkToMark(l, a)
			return subs
		}
	case *ir.ChainContextPos:
		if l, ok := last.(*ir.ChainContextPos); ok {
			l.Rules = append(l.Rules, a.Rules...)
			return subs
		}
		// *ir.ReverseChainSingleSubst is never merged: each rsub rule
		// carries its own backtrack/lookahead context, so two rules
		// always need separate subtables even when adjacent.
	}
	return append(subs, add)
}

func mergeMarkToBase(l, a *ir.MarkToBasePos) {
	for base, perClass := range a.Attachments {
		if l.Attachments[base] == nil {
			l.Attachments[base] = map[int]ir.MarkAttachment{}
		}
		for cls, att := range perClass {
			l.Attachments[base][cls] = att
		}
	}
	for cls, set := range a.MarkClasses {
		if l.MarkClasses[cls] == nil {
			l.MarkClasses[cls] = ir.NewGlyphSet()
		}
		l.MarkClasses[cls].Union(set)
	}
}

func mergeMarkToMark(l, a *ir.MarkToMarkPos) {
	for base, perClass := range a.Attachments {
		if l.Attachments[base] == nil {
			l.Attachments[base] = map[int]ir.MarkAttachment{}
		}
		for cls, att := range perClass {
			l.Attachments[base][cls] = att
		}
	}
	for cls, set := range a.MarkClasses {
		if l.MarkClasses[cls] == nil {
			l.MarkClasses[cls] = ir.NewGlyphSet()
		}
		l.MarkClasses[cls].Union(set)
	}
}

func mergeMarkToLig(l, a *ir.MarkToLigPos) {
	for lig, perComponent := range a.Attachments {
		if l.Attachments[lig] == nil {
			l.Attachments[lig] = map[int]map[int]ir.MarkAttachment{}
		}
		for comp, perClass := range perComponent {
			if l.Attachments[lig][comp] == nil {
				l.Attachments[lig][comp] = map[int]ir.MarkAttachment{}
			}
			for cls, att := range perClass {
				l.Attachments[lig][comp][cls] = att
			}
		}
	}
	for cls, set := range a.MarkClasses {
		if l.MarkClasses[cls] == nil {
			l.MarkClasses[cls] = ir.NewGlyphSet()
		}
		l.MarkClasses[cls].Union(set)
	}
}
