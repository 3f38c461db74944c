package compile

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/parser"
	"github.com/otlayout/fea/validate"
)

// fakeFont is a minimal ir.GlyphMap backed by a fixed name table, the
// same shape validate's own tests use, kept local since compile must not
// import the validate package's unexported test helpers.
type fakeFont struct {
	byName map[string]ir.GID
	byGID  map[ir.GID]string
}

func newFakeFont(names ...string) *fakeFont {
	f := &fakeFont{byName: map[string]ir.GID{}, byGID: map[ir.GID]string{}}
	for i, n := range names {
		g := ir.GID(i + 1)
		f.byName[n] = g
		f.byGID[g] = n
	}
	return f
}

func (f *fakeFont) GID(name string) (ir.GID, bool)   { g, ok := f.byName[name]; return g, ok }
func (f *fakeFont) GIDByCID(int) (ir.GID, bool)      { return 0, false }
func (f *fakeFont) Name(g ir.GID) (string, bool)     { n, ok := f.byGID[g]; return n, ok }

// recordingBuilder captures every table Compile hands it, so a test can
// assert on the finished ir structures without writing a binary encoder.
type recordingBuilder struct {
	gsub *ir.LayoutTable
	gpos *ir.LayoutTable
	gdef *ir.GDEFTable
}

func (b *recordingBuilder) GSUB(t *ir.LayoutTable) { b.gsub = t }
func (b *recordingBuilder) GPOS(t *ir.LayoutTable) { b.gpos = t }
func (b *recordingBuilder) GDEF(t *ir.GDEFTable)   { b.gdef = t }
func (b *recordingBuilder) Name(*ir.NameTable)     {}
func (b *recordingBuilder) Head(*ir.HeadFields)    {}
func (b *recordingBuilder) HHea(*ir.HHeaFields)    {}
func (b *recordingBuilder) VHea(*ir.VHeaFields)    {}
func (b *recordingBuilder) VMtx(*ir.VMtxTable)     {}
func (b *recordingBuilder) OS2(*ir.OS2Fields)      {}
func (b *recordingBuilder) Stat(*ir.StatTable)     {}
func (b *recordingBuilder) Base(*ir.BaseTable)     {}

func compileSource(t *testing.T, font ir.GlyphMap, src string, cfg Config) *recordingBuilder {
	t.Helper()
	p := parser.New("test.fea", src)
	parser.Root(p)
	tree, diags := p.Finish()
	require.False(t, diags.HasErrors(), "parse diagnostics: %v", diags.All())
	sym, vdiags := validate.Validate(tree, font, validate.Config{})
	require.False(t, vdiags.HasErrors(), "validate diagnostics: %v", vdiags.All())
	b := &recordingBuilder{}
	cdiags := Compile(tree, sym, font, b, cfg)
	require.False(t, cdiags.HasErrors(), "compile diagnostics: %v", cdiags.All())
	return b
}

func TestCompileSingleSubstitution(t *testing.T) {
	font := newFakeFont("a", "a.sc")
	src := "languagesystem DFLT dflt;\nfeature smcp {\n    sub a by a.sc;\n} smcp;\n"
	b := compileSource(t, font, src, Config{})

	require.Len(t, b.gsub.Lookups, 1)
	lk := b.gsub.Lookups[0]
	assert.Equal(t, ir.GSUBSingle, lk.Type)
	require.Len(t, lk.Subtables, 1)
	ss := lk.Subtables[0].(*ir.SingleSubst)
	a, _ := font.GID("a")
	asc, _ := font.GID("a.sc")
	assert.Equal(t, asc, ss.Mapping[a])

	require.Len(t, b.gsub.Features, 1)
	assert.Equal(t, ir.MustTag("smcp"), b.gsub.Features[0].Feature)
	assert.Equal(t, []int{0}, b.gsub.Features[0].LookupIndices)
}

func TestCompileLigatureSubstitution(t *testing.T) {
	font := newFakeFont("f", "i", "f_i")
	src := "languagesystem DFLT dflt;\nfeature liga {\n    sub f i by f_i;\n} liga;\n"
	b := compileSource(t, font, src, Config{})

	require.Len(t, b.gsub.Lookups, 1)
	lk := b.gsub.Lookups[0]
	assert.Equal(t, ir.GSUBLigature, lk.Type)
	lig := lk.Subtables[0].(*ir.LigatureSubst)
	require.Len(t, lig.Rules, 1)
	f, _ := font.GID("f")
	i, _ := font.GID("i")
	fi, _ := font.GID("f_i")
	assert.Equal(t, []ir.GID{f, i}, lig.Rules[0].Components)
	assert.Equal(t, fi, lig.Rules[0].Ligature)
}

func TestCompileChainingContextualWithInlineSubstitution(t *testing.T) {
	font := newFakeFont("a", "b", "c", "b.alt")
	src := "languagesystem DFLT dflt;\nfeature test {\n    sub a b' c by b.alt;\n} test;\n"
	b := compileSource(t, font, src, Config{})

	require.Len(t, b.gsub.Lookups, 2, "the chain rule plus a synthesized nested single-subst lookup")
	var chain *ir.Lookup
	for _, lk := range b.gsub.Lookups {
		if lk.Type == ir.GSUBChainContext {
			chain = lk
		}
	}
	require.NotNil(t, chain, "expected a chaining contextual lookup")
	cc := chain.Subtables[0].(*ir.ChainContextSubst)
	require.Len(t, cc.Rules, 1)
	rule := cc.Rules[0]
	require.Len(t, rule.Actions, 1)
	assert.Equal(t, 0, rule.Actions[0].InputIndex)
	require.Len(t, rule.Actions[0].LookupRefs, 1)

	nested := b.gsub.Lookups[rule.Actions[0].LookupRefs[0]]
	assert.Equal(t, ir.GSUBSingle, nested.Type)
	ss := nested.Subtables[0].(*ir.SingleSubst)
	bGID, _ := font.GID("b")
	baltGID, _ := font.GID("b.alt")
	assert.Equal(t, baltGID, ss.Mapping[bGID])
}

func TestCompileSynthesizesGDEFFromRuleUsage(t *testing.T) {
	font := newFakeFont("f", "i", "f_i", "acutecmb", "a")
	src := "languagesystem DFLT dflt;\n" +
		"markClass [acutecmb] <anchor 100 400> @TOP;\n" +
		"feature liga {\n    sub f i by f_i;\n} liga;\n" +
		"feature mark {\n    pos base a <anchor 250 450> mark @TOP;\n} mark;\n"
	b := compileSource(t, font, src, Config{SynthesizeGDEF: true})

	fi, _ := font.GID("f_i")
	i, _ := font.GID("i")
	a, _ := font.GID("a")
	acute, _ := font.GID("acutecmb")
	assert.Equal(t, ir.GlyphClassLigature, b.gdef.GlyphClasses[fi])
	assert.Equal(t, ir.GlyphClassComponent, b.gdef.GlyphClasses[i])
	assert.Equal(t, ir.GlyphClassBase, b.gdef.GlyphClasses[a])
	assert.Equal(t, ir.GlyphClassMark, b.gdef.GlyphClasses[acute])
}

func TestCompileAaltSynthesizesFromReferencedFeatures(t *testing.T) {
	font := newFakeFont("a", "a.sc", "a.alt1", "a.alt2")
	src := "languagesystem DFLT dflt;\n" +
		"feature smcp {\n    sub a by a.sc;\n} smcp;\n" +
		"feature salt {\n    sub a from [a.alt1 a.alt2];\n} salt;\n" +
		"feature aalt {\n    feature smcp;\n    feature salt;\n} aalt;\n"
	b := compileSource(t, font, src, Config{})

	var aalt *ir.FeatureRecord
	for i := range b.gsub.Features {
		if b.gsub.Features[i].Feature == ir.MustTag("aalt") {
			aalt = &b.gsub.Features[i]
		}
	}
	require.NotNil(t, aalt, "expected a synthesized aalt feature record")
	require.Len(t, aalt.LookupIndices, 1)
	lk := b.gsub.Lookups[aalt.LookupIndices[0]]
	assert.Equal(t, ir.GSUBAlternate, lk.Type)
	alt := lk.Subtables[0].(*ir.AlternateSubst)
	aGID, _ := font.GID("a")
	assert.ElementsMatch(t, []ir.GID{
		mustGID(font, "a.sc"), mustGID(font, "a.alt1"), mustGID(font, "a.alt2"),
	}, alt.Mapping[aGID])
}

func mustGID(font *fakeFont, name string) ir.GID {
	g, _ := font.GID(name)
	return g
}

// TestCompileAaltExplicitStatementOverridesSynthesis exercises an aalt
// block that pairs an explicit sub…from[…]; with a feature cross-reference:
// the explicit rule's own alternates must survive untouched, and the
// cross-referenced feature's synthesized alternates must not clobber or
// duplicate a record for the glyph the explicit rule already covers.
func TestCompileAaltExplicitStatementOverridesSynthesis(t *testing.T) {
	font := newFakeFont("a", "a.sc", "a.alt1", "a.alt2", "a.explicit")
	src := "languagesystem DFLT dflt;\n" +
		"feature smcp {\n    sub a by a.sc;\n} smcp;\n" +
		"feature aalt {\n    sub a from [a.explicit];\n    feature smcp;\n} aalt;\n"
	b := compileSource(t, font, src, Config{})

	var aaltRecords []ir.FeatureRecord
	for _, r := range b.gsub.Features {
		if r.Feature == ir.MustTag("aalt") {
			aaltRecords = append(aaltRecords, r)
		}
	}
	require.Len(t, aaltRecords, 1, "explicit and synthesized aalt records must merge into one for the same languagesystem")

	aGID := mustGID(font, "a")
	explicitGID := mustGID(font, "a.explicit")
	scGID := mustGID(font, "a.sc")

	var sawExplicit, sawSynthesized bool
	for _, idx := range aaltRecords[0].LookupIndices {
		lk := b.gsub.Lookups[idx]
		for _, st := range lk.Subtables {
			alt, ok := st.(*ir.AlternateSubst)
			if !ok {
				continue
			}
			outs, ok := alt.Mapping[aGID]
			if !ok {
				continue
			}
			if len(outs) == 1 && outs[0] == explicitGID {
				sawExplicit = true
			}
			for _, o := range outs {
				if o == scGID {
					sawSynthesized = true
				}
			}
		}
	}
	assert.True(t, sawExplicit, "explicit aalt statement's own alternate must survive")
	assert.False(t, sawSynthesized, "synthesized aggregation must not override the explicit statement's coverage of the same glyph")
}

func TestCompileGDEFAttachStatement(t *testing.T) {
	font := newFakeFont("a", "b")
	src := "languagesystem DFLT dflt;\n" +
		"table GDEF {\n    Attach a 2 4;\n    Attach b 1;\n} GDEF;\n"
	b := compileSource(t, font, src, Config{})

	aGID := mustGID(font, "a")
	bGID := mustGID(font, "b")
	assert.Equal(t, []uint16{2, 4}, b.gdef.AttachPoints[aGID])
	assert.Equal(t, []uint16{1}, b.gdef.AttachPoints[bGID])
}

func TestCompileGDEFAttachStatementWithGlyphClassTarget(t *testing.T) {
	font := newFakeFont("a", "b", "c")
	src := "languagesystem DFLT dflt;\n" +
		"table GDEF {\n    Attach [a b] 3;\n} GDEF;\n"
	b := compileSource(t, font, src, Config{})

	aGID := mustGID(font, "a")
	bGID := mustGID(font, "b")
	cGID := mustGID(font, "c")
	assert.Equal(t, []uint16{3}, b.gdef.AttachPoints[aGID])
	assert.Equal(t, []uint16{3}, b.gdef.AttachPoints[bGID])
	assert.Empty(t, b.gdef.AttachPoints[cGID])
}

func TestCompilePairPositioningSelectsFormat1ForAFewSparsePairs(t *testing.T) {
	font := newFakeFont("a", "b")
	src := "languagesystem DFLT dflt;\nfeature kern {\n    pos a b -80;\n} kern;\n"
	b := compileSource(t, font, src, Config{})

	require.Len(t, b.gpos.Lookups, 1)
	lk := b.gpos.Lookups[0]
	assert.Equal(t, ir.GPOSPair, lk.Type)
	pp, ok := lk.Subtables[0].(*ir.PairPosFormat1)
	require.True(t, ok, "a single sparse pair should stay format 1, got %T", lk.Subtables[0])
	a, bGID := mustGID(font, "a"), mustGID(font, "b")
	assert.Equal(t, int16(-80), pp.Pairs[[2]ir.GID{a, bGID}].First.XAdvance)
}

func TestCompilePairPositioningSelectsFormat2ForDenseClassPairs(t *testing.T) {
	font := newFakeFont("a", "e", "i", "o", "u", "x", "y", "z")
	var b strings.Builder
	b.WriteString("languagesystem DFLT dflt;\nfeature kern {\n")
	for _, l := range []string{"a", "e", "i", "o", "u"} {
		for _, r := range []string{"x", "y", "z"} {
			fmt.Fprintf(&b, "    pos %s %s -100;\n", l, r)
		}
	}
	b.WriteString("} kern;\n")
	built := compileSource(t, font, b.String(), Config{})

	require.Len(t, built.gpos.Lookups, 1)
	lk := built.gpos.Lookups[0]
	pp, ok := lk.Subtables[0].(*ir.PairPosFormat2)
	require.True(t, ok, "a dense, fully regular class of pairs should collapse to format 2, got %T", lk.Subtables[0])
	for _, l := range []string{"a", "e", "i", "o", "u"} {
		for _, r := range []string{"x", "y", "z"} {
			lg, rg := mustGID(font, l), mustGID(font, r)
			v := pp.Values[[2]uint16{pp.ClassDef1[lg], pp.ClassDef2[rg]}]
			assert.Equal(t, int16(-100), v.First.XAdvance, "pair %s %s", l, r)
		}
	}
	assert.Equal(t, pp.ClassDef1[mustGID(font, "a")], pp.ClassDef1[mustGID(font, "e")], "every left glyph shares one identical row, so they share one class")
	assert.Equal(t, pp.ClassDef2[mustGID(font, "x")], pp.ClassDef2[mustGID(font, "y")], "every right glyph shares one identical column, so they share one class")
}

func TestCompileSubtableMarkerForcesASplit(t *testing.T) {
	font := newFakeFont("a", "a.sc", "b", "b.sc")
	src := "languagesystem DFLT dflt;\n" +
		"feature smcp {\n    sub a by a.sc;\n    subtable;\n    sub b by b.sc;\n} smcp;\n"
	b := compileSource(t, font, src, Config{})

	require.Len(t, b.gsub.Lookups, 1, "bare rules in one feature still fan into one anonymous lookup")
	lk := b.gsub.Lookups[0]
	require.Len(t, lk.Subtables, 2, "the explicit subtable; marker should force a second subtable instead of merging")
	first, ok := lk.Subtables[0].(*ir.SingleSubst)
	require.True(t, ok)
	second, ok := lk.Subtables[1].(*ir.SingleSubst)
	require.True(t, ok)
	a, asc := mustGID(font, "a"), mustGID(font, "a.sc")
	bGID, bsc := mustGID(font, "b"), mustGID(font, "b.sc")
	assert.Equal(t, asc, first.Mapping[a])
	assert.Equal(t, bsc, second.Mapping[bGID])
	_, crossed := first.Mapping[bGID]
	assert.False(t, crossed, "the split should keep the second rule out of the first subtable")
}
