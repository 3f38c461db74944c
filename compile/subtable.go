package compile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/otlayout/fea/ir"
)

// subtableByteBudget is the 16-bit offset budget a non-extension lookup
// subtable must fit under. A subtable whose estimated size alone exceeds
// it forces its owning Lookup's UseExtension on, the way a real compiler
// falls back to the extension lookup types once an ordinary Offset16
// can no longer reach the subtable.
const subtableByteBudget = 1 << 16

func coverageSize(n int) int { return 4 + n*2 }

// valueRecordWidth estimates the serialized width of v under the
// ValueFormat bitfield: 2 bytes per present field, since this compiler
// never emits device-table deltas.
func valueRecordWidth(v ir.ValueRecord) int {
	w := 0
	if v.XPlacement != 0 {
		w += 2
	}
	if v.YPlacement != 0 {
		w += 2
	}
	if v.XAdvance != 0 {
		w += 2
	}
	if v.YAdvance != 0 {
		w += 2
	}
	return w
}

// classDefSize estimates a ClassDef2 table's size by counting runs of
// consecutive glyph IDs sharing one class, the same run-length structure
// an OpenType ClassRangeRecord list actually compresses into, rather than
// pessimistically charging one range per glyph.
func classDefSize(def ir.ClassDef) int {
	if len(def) == 0 {
		return 6
	}
	gids := make([]ir.GID, 0, len(def))
	for g := range def {
		gids = append(gids, g)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })
	ranges := 1
	for i := 1; i < len(gids); i++ {
		if gids[i] != gids[i-1]+1 || def[gids[i]] != def[gids[i-1]] {
			ranges++
		}
	}
	return 6 + ranges*6
}

func maxClass(def ir.ClassDef) uint16 {
	var max uint16
	for _, c := range def {
		if c > max {
			max = c
		}
	}
	return max
}

func pairPosFormat1Size(p *ir.PairPosFormat1) int {
	const header = 10 // format, coverage offset, two ValueFormats, PairSetCount
	byFirst := map[ir.GID]int{}
	w1, w2 := 0, 0
	for k, v := range p.Pairs {
		byFirst[k[0]]++
		if x := valueRecordWidth(v.First); x > w1 {
			w1 = x
		}
		if x := valueRecordWidth(v.Second); x > w2 {
			w2 = x
		}
	}
	size := header + coverageSize(len(byFirst)) + len(byFirst)*2 // PairSet offsets
	for _, n := range byFirst {
		size += 2 + n*(2+w1+w2) // PairValueCount + (secondGlyph, value records) per entry
	}
	return size
}

func pairPosFormat2Size(coverageLen int, cd1, cd2 ir.ClassDef, values map[[2]uint16]ir.PairValue) int {
	const header = 16 // format, coverage offset, two ValueFormats, two ClassDef offsets, two ClassCounts
	w1, w2 := 0, 0
	for _, v := range values {
		if x := valueRecordWidth(v.First); x > w1 {
			w1 = x
		}
		if x := valueRecordWidth(v.Second); x > w2 {
			w2 = x
		}
	}
	class1Count := int(maxClass(cd1)) + 1
	class2Count := int(maxClass(cd2)) + 1
	size := header + coverageSize(coverageLen) + classDefSize(cd1) + classDefSize(cd2)
	size += class1Count * class2Count * (w1 + w2)
	return size
}

// classifyPairPosFormat2 groups pairs's first glyphs into classes that
// share an identical row of (presence, value) across every second glyph,
// and second glyphs into classes that share an identical column across
// every first-glyph class's representative — so two glyphs only ever
// land in the same class when every pair they participate in behaves
// identically, and the per-class Values this returns reproduce pairs
// exactly. ir.ClassDefBuilder's union-find does the actual class
// numbering for both axes, fed one equivalence group at a time.
func classifyPairPosFormat2(pairs map[[2]ir.GID]ir.PairValue) (ir.ClassDef, ir.ClassDef, map[[2]uint16]ir.PairValue) {
	firstSet := map[ir.GID]bool{}
	secondSet := map[ir.GID]bool{}
	for k := range pairs {
		firstSet[k[0]] = true
		secondSet[k[1]] = true
	}
	firstGIDs := sortedGIDs(firstSet)
	secondGIDs := sortedGIDs(secondSet)

	rowKey := func(first ir.GID) string {
		var b strings.Builder
		for _, s := range secondGIDs {
			v, ok := pairs[[2]ir.GID{first, s}]
			fmt.Fprintf(&b, "%v:%v;", ok, v)
		}
		return b.String()
	}
	classDef1 := buildClassDef(firstGIDs, rowKey)

	repByClass := map[uint16]ir.GID{}
	for _, g := range firstGIDs {
		cls := classDef1[g]
		if _, ok := repByClass[cls]; !ok {
			repByClass[cls] = g
		}
	}
	var classIDs []uint16
	for c := range repByClass {
		classIDs = append(classIDs, c)
	}
	sort.Slice(classIDs, func(i, j int) bool { return classIDs[i] < classIDs[j] })

	colKey := func(second ir.GID) string {
		var b strings.Builder
		for _, c := range classIDs {
			v, ok := pairs[[2]ir.GID{repByClass[c], second}]
			fmt.Fprintf(&b, "%v:%v;", ok, v)
		}
		return b.String()
	}
	classDef2 := buildClassDef(secondGIDs, colKey)

	values := map[[2]uint16]ir.PairValue{}
	for k, v := range pairs {
		values[[2]uint16{classDef1[k[0]], classDef2[k[1]]}] = v
	}
	return classDef1, classDef2, values
}

func sortedGIDs(set map[ir.GID]bool) []ir.GID {
	out := make([]ir.GID, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// buildClassDef groups gids by key(g), in first-seen order, and feeds
// each group to an ir.ClassDefBuilder so the resulting indices follow
// the same deterministic, first-seen numbering as any other ClassDef
// this compiler produces.
func buildClassDef(gids []ir.GID, key func(ir.GID) string) ir.ClassDef {
	groups := map[string][]ir.GID{}
	var order []string
	for _, g := range gids {
		k := key(g)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], g)
	}
	b := ir.NewClassDefBuilder()
	for _, k := range order {
		b.AddClass(groups[k])
	}
	return b.Build()
}

// finalizePairPos picks between format 1 and format 2 for one PairPos
// subtable by comparing their estimated serialized sizes, ties going to
// format 2 (spec: "dense class-based data -> format 2").
func finalizePairPos(p *ir.PairPosFormat1) ir.Subtable {
	if len(p.Pairs) == 0 {
		return p
	}
	cd1, cd2, values := classifyPairPosFormat2(p.Pairs)
	firstSet := map[ir.GID]bool{}
	for k := range p.Pairs {
		firstSet[k[0]] = true
	}
	size1 := pairPosFormat1Size(p)
	size2 := pairPosFormat2Size(len(firstSet), cd1, cd2, values)
	if size1 < size2 {
		return p
	}
	gs := ir.NewGlyphSet(sortedGIDs(firstSet)...)
	return &ir.PairPosFormat2{Coverage: ir.NewCoverage(gs), ClassDef1: cd1, ClassDef2: cd2, Values: values}
}

// finalizePairPosSubtables runs finalizePairPos over every PairPosFormat1
// in subs, replacing each in place. Called once a lookup or anonymous
// batch's subtable list is complete, since "dense vs sparse" only makes
// sense once every rule contributing to a subtable has been merged in.
func finalizePairPosSubtables(subs []ir.Subtable) []ir.Subtable {
	for i, s := range subs {
		if p, ok := s.(*ir.PairPosFormat1); ok {
			subs[i] = finalizePairPos(p)
		}
	}
	return subs
}

func markAttachSize(s ir.Subtable) int {
	switch t := s.(type) {
	case *ir.MarkToBasePos:
		n := 0
		for _, m := range t.Attachments {
			n += len(m)
		}
		return 12 + coverageSize(len(t.Attachments)) + n*8 + len(t.MarkClasses)*8
	case *ir.MarkToMarkPos:
		n := 0
		for _, m := range t.Attachments {
			n += len(m)
		}
		return 12 + coverageSize(len(t.Attachments)) + n*8 + len(t.MarkClasses)*8
	case *ir.MarkToLigPos:
		n := 0
		for _, comp := range t.Attachments {
			for _, m := range comp {
				n += len(m)
			}
		}
		return 12 + coverageSize(len(t.Attachments)) + n*8 + len(t.MarkClasses)*8
	}
	return 0
}

func chainContextSize(rules []ir.ChainContextRule) int {
	size := 6
	for _, r := range rules {
		size += 6
		for _, g := range r.Backtrack {
			size += 2 + coverageSize(g.Len())
		}
		for _, g := range r.Input {
			size += 2 + coverageSize(g.Len())
		}
		for _, g := range r.Lookahead {
			size += 2 + coverageSize(g.Len())
		}
		for _, a := range r.Actions {
			size += 4 * len(a.LookupRefs)
		}
	}
	return size
}

// estimateSubtableSize heuristically sizes any concrete ir.Subtable, the
// way a real compiler would before deciding whether a subtable still
// fits a 16-bit offset or needs to be split or promoted to an extension
// lookup. It is an overestimate rather than a byte-exact prediction:
// good enough to order candidates and budget splits, not to predict a
// font's final size on disk.
func estimateSubtableSize(s ir.Subtable) int {
	switch t := s.(type) {
	case *ir.SingleSubst:
		return 6 + coverageSize(len(t.Mapping))
	case *ir.MultipleSubst:
		size := 6 + coverageSize(len(t.Mapping))
		for _, seq := range t.Mapping {
			size += 2 + len(seq)*2
		}
		return size
	case *ir.AlternateSubst:
		size := 6 + coverageSize(len(t.Mapping))
		for _, alts := range t.Mapping {
			size += 2 + len(alts)*2
		}
		return size
	case *ir.LigatureSubst:
		byFirst := map[ir.GID]int{}
		for _, r := range t.Rules {
			if len(r.Components) > 0 {
				byFirst[r.Components[0]]++
			}
		}
		size := 6 + coverageSize(len(byFirst))
		for _, r := range t.Rules {
			size += 4 + len(r.Components)*2
		}
		return size
	case *ir.ChainContextSubst:
		return chainContextSize(t.Rules)
	case *ir.ReverseChainSingleSubst:
		size := 10 + coverageSize(len(t.Mapping))
		for _, bt := range t.Backtrack {
			size += 2 + coverageSize(bt.Len())
		}
		for _, la := range t.Lookahead {
			size += 2 + coverageSize(la.Len())
		}
		return size
	case *ir.SinglePos:
		w := 0
		for _, v := range t.Values {
			if x := valueRecordWidth(v); x > w {
				w = x
			}
		}
		return 6 + coverageSize(len(t.Values)) + w
	case *ir.PairPosFormat1:
		return pairPosFormat1Size(t)
	case *ir.PairPosFormat2:
		return pairPosFormat2Size(len(t.Coverage), t.ClassDef1, t.ClassDef2, t.Values)
	case *ir.CursivePos:
		return 6 + coverageSize(len(t.EntryExit)) + len(t.EntryExit)*8
	case *ir.MarkToBasePos, *ir.MarkToLigPos, *ir.MarkToMarkPos:
		return markAttachSize(s)
	case *ir.ChainContextPos:
		return chainContextSize(t.Rules)
	}
	return 0
}

// appendSubtable adds add to subs, merging it into the last entry via
// mergeSubtable unless forceSplit is set (an explicit `subtable;`
// marker) or the merge would push the combined subtable's estimated
// size past subtableByteBudget — in which case add starts a fresh
// subtable instead, the automatic counterpart to the literal split
// keyword. oversized reports whether add alone, regardless of merging,
// already exceeds the budget: a lookup with any oversized subtable
// needs UseExtension set.
func appendSubtable(subs []ir.Subtable, add ir.Subtable, forceSplit bool) ([]ir.Subtable, bool) {
	if add == nil {
		return subs, false
	}
	addSize := estimateSubtableSize(add)
	oversized := addSize > subtableByteBudget
	if !forceSplit && len(subs) > 0 {
		last := subs[len(subs)-1]
		if estimateSubtableSize(last)+addSize <= subtableByteBudget {
			return mergeSubtable(subs, add), oversized
		}
	}
	return append(subs, add), oversized
}
