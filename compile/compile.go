package compile

import (
	"sort"

	"github.com/npillmayer/schuko/tracing"
	"github.com/otlayout/fea/ast"
	"github.com/otlayout/fea/diag"
	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/syntax"
	"github.com/otlayout/fea/validate"
)

func tracer() tracing.Trace {
	return tracing.Select("fea.core")
}

// Config tunes compiler behavior. As in package validate, this stays a
// plain struct: every field is an independent toggle with exactly one
// construction call site, so a functional-options constructor would add
// ceremony without buying anything.
type Config struct {
	// SynthesizeGDEF fills in a GDEF table inferred from rule usage
	// (mark classes become GlyphClassMark, ligature-rule outputs become
	// GlyphClassLigature, base glyphs referenced by mark-to-base rules
	// become GlyphClassBase) whenever the source has no explicit
	// `table GDEF { ... }` block.
	SynthesizeGDEF bool
}

// TableBuilder receives the finished tables Compile produces: GDEF, GSUB
// and GPOS are always handed over (possibly empty), every other table
// only when the source populated it. Binary serialization
// is outside this module's scope; a caller implements TableBuilder to hand
// the ir structures off to whatever font-writing library it already uses.
// A caller that only wants GSUB/GPOS (e.g. a shaping-engine test harness)
// can leave the rest as no-ops.
type TableBuilder interface {
	GSUB(*ir.LayoutTable)
	GPOS(*ir.LayoutTable)
	GDEF(*ir.GDEFTable)
	Name(*ir.NameTable)
	Head(*ir.HeadFields)
	HHea(*ir.HHeaFields)
	VHea(*ir.VHeaFields)
	VMtx(*ir.VMtxTable)
	OS2(*ir.OS2Fields)
	Stat(*ir.StatTable)
	Base(*ir.BaseTable)
}

// lookupKey locates an already-compiled named lookup: which of GSUB/GPOS
// it ended up in, and its index within that table's Lookups slice.
type lookupKey struct {
	table ir.Table
	index int
}

type compiler struct {
	scope   *scope
	sym     *validate.Symbols
	bag     *diag.Bag
	cfg     Config
	builder TableBuilder
	off     *offsets

	gsub *ir.LayoutTable
	gpos *ir.LayoutTable

	lookups         map[string]lookupKey
	markAttachClass map[string]uint8  // @class name -> 1-based MarkAttachmentType index
	markFilterSet   map[string]uint16 // @class name -> 0-based UseMarkFilteringSet index
	markClassIdx    map[string]int    // @markClass name -> GPOS mark-class index, first-seen order

	aaltRequests       []string            // feature tags an `aalt` block cross-referenced via `feature <tag>;`
	aaltExplicitGIDs   map[ir.GID]bool     // input glyphs an aalt block's own bare statements already cover
	aaltLangSys        []ir.LangSys        // script/language scope an aalt block's own fan-out covered
	featureGSUBLookups map[ir.Tag][]int    // feature tag -> every GSUB lookup index it registered, for aalt synthesis

	gdef          *ir.GDEFTable
	explicitGDEF  bool
	name          *ir.NameTable
	head          *ir.HeadFields
	hhea          *ir.HHeaFields
	vhea          *ir.VHeaFields
	vmtx          *ir.VMtxTable
	os2           *ir.OS2Fields
	stat          *ir.StatTable
	base          *ir.BaseTable
}

// Compile lowers tree plus every included file in includes (see
// parser.ParseResult.Flatten, minus its own first entry — already
// validated together into sym by a matching call to validate.Validate)
// into concrete OpenType tables and hands each populated one to builder,
// in the fixed order GDEF, GSUB, GPOS, BASE, name, OS/2, head, hhea, vhea,
// STAT, vmtx — the order a font compiler needs GDEF available for GPOS
// anchor lookups and wants the metrics tables last, once every
// glyph-class-derived GDEF class assignment is final. A top-level feature
// or table block defined entirely inside an included file is lowered the
// same way as one in tree itself; only its diagnostic spans remember
// which file it came from.
func Compile(tree *syntax.Node, sym *validate.Symbols, glyphs ir.GlyphMap, builder TableBuilder, cfg Config, includes ...syntax.File) *diag.Bag {
	bag := diag.NewBag()
	c := &compiler{
		scope:           &scope{glyphs: glyphs, sym: sym},
		sym:             sym,
		bag:             bag,
		cfg:             cfg,
		builder:         builder,
		off:             computeOffsets(append([]syntax.File{{Root: tree}}, includes...)...),
		gsub:               &ir.LayoutTable{Table: ir.GSUB},
		gpos:               &ir.LayoutTable{Table: ir.GPOS},
		lookups:            map[string]lookupKey{},
		markAttachClass:    map[string]uint8{},
		markFilterSet:      map[string]uint16{},
		aaltExplicitGIDs:   map[ir.GID]bool{},
		featureGSUBLookups: map[ir.Tag][]int{},
		gdef: &ir.GDEFTable{
			GlyphClasses:    map[ir.GID]ir.GlyphClass{},
			MarkAttachClass: map[ir.GID]uint8{},
			AttachPoints:    map[ir.GID][]uint16{},
		},
	}
	c.assignFlagClassIndices()

	// Named lookups (top-level or nested inside a feature body) are
	// compiled once, up front, in declaration order, so that a `lookup
	// <name>;` reference anywhere in the file — including one preceding
	// its own nested definition's sibling statements in a different
	// feature — resolves to a stable index. Validate already enforced
	// declare-before-use for *references*; a lookup's own *definition*
	// is always compiled here regardless of where in the file it sits.
	for _, name := range sym.LookupOrder {
		ls, ok := sym.Lookups[name]
		if !ok || ls.Node == nil {
			continue
		}
		c.compileNamedLookup(name, ls.Node)
	}

	pending := includes
	c.walkFile(tree, &pending)
	for len(pending) > 0 {
		inc := pending[0]
		pending = pending[1:]
		if inc.Root != nil {
			c.walkFile(inc.Root, &pending)
		}
	}

	c.synthesizeAalt()

	if c.cfg.SynthesizeGDEF && !c.explicitGDEF {
		c.inferGDEF()
	}

	c.emit()

	tracer().Debugf("compile: %d GSUB lookups, %d GPOS lookups, %d diagnostics",
		len(c.gsub.Lookups), len(c.gpos.Lookups), bag.Len())
	return bag
}

// walkFile lowers one tree's top-level feature and table blocks. At each
// include statement it takes the next file off pending (Flatten's
// depth-first order) and lowers that file's blocks in place, so a feature
// block written entirely inside an included source still reaches the
// builder, in source order.
func (c *compiler) walkFile(tree *syntax.Node, pending *[]syntax.File) {
	root := ast.CastRoot(tree)
	for _, item := range root.Items() {
		switch item.Kind {
		case syntax.FeatureNode:
			c.compileFeature(ast.CastFeature(item), item)
		case syntax.TableNode:
			c.compileTable(ast.CastTable(item), item)
		case syntax.IncludeNode:
			if len(*pending) > 0 {
				inc := (*pending)[0]
				*pending = (*pending)[1:]
				if inc.Root != nil {
					c.walkFile(inc.Root, pending)
				}
			}
		}
	}
}

func (c *compiler) emit() {
	if c.builder == nil {
		return
	}
	c.builder.GDEF(c.gdef)
	c.builder.GSUB(c.gsub)
	c.builder.GPOS(c.gpos)
	if c.base != nil {
		c.builder.Base(c.base)
	}
	if c.name != nil {
		c.builder.Name(c.name)
	}
	if c.os2 != nil {
		c.builder.OS2(c.os2)
	}
	if c.head != nil {
		c.builder.Head(c.head)
	}
	if c.hhea != nil {
		c.builder.HHea(c.hhea)
	}
	if c.vhea != nil {
		c.builder.VHea(c.vhea)
	}
	if c.stat != nil {
		c.builder.Stat(c.stat)
	}
	if c.vmtx != nil {
		c.builder.VMtx(c.vmtx)
	}
}

// assignFlagClassIndices collects every @class name used by a named
// MarkAttachmentType or UseMarkFilteringSet lookupflag clause across the
// whole file, in first-appearance (source position) order. Each
// MarkAttachmentType class gets a 1-based index — mirroring spec's
// class-0-reserved convention — while each UseMarkFilteringSet class gets
// a 0-based index, its position in GDEF's MarkGlyphSets.
func (c *compiler) assignFlagClassIndices() {
	type seen struct {
		node *syntax.Node
		name string
	}
	var attach, filter []seen
	for n, name := range c.sym.FlagMarkAttachClass {
		attach = append(attach, seen{n, name})
	}
	for n, name := range c.sym.FlagMarkFilterSet {
		filter = append(filter, seen{n, name})
	}
	sort.Slice(attach, func(i, j int) bool { return c.off.span(attach[i].node).Start < c.off.span(attach[j].node).Start })
	sort.Slice(filter, func(i, j int) bool { return c.off.span(filter[i].node).Start < c.off.span(filter[j].node).Start })
	for _, s := range attach {
		if _, ok := c.markAttachClass[s.name]; !ok {
			c.markAttachClass[s.name] = uint8(len(c.markAttachClass) + 1)
		}
	}
	for _, s := range filter {
		if _, ok := c.markFilterSet[s.name]; !ok {
			c.markFilterSet[s.name] = uint16(len(c.markFilterSet))
			c.gdef.MarkGlyphSets = append(c.gdef.MarkGlyphSets, c.classByName(s.name))
		}
	}
	for name, idx := range c.markAttachClass {
		for _, g := range c.classByName(name).GIDs() {
			c.gdef.MarkAttachClass[g] = idx
		}
	}
}

// markClassIndex assigns each distinct @markClass name referenced by a
// mark-attachment positioning rule a stable GPOS mark-class index, in
// first-use order — purely a compiler-local numbering, independent of
// the file-wide MarkAttachmentType/UseMarkFilteringSet indices
// assignFlagClassIndices computes.
func (c *compiler) markClassIndex(name string) int {
	if c.markClassIdx == nil {
		c.markClassIdx = map[string]int{}
	}
	if idx, ok := c.markClassIdx[name]; ok {
		return idx
	}
	idx := len(c.markClassIdx)
	c.markClassIdx[name] = idx
	return idx
}

func (c *compiler) classByName(name string) *ir.GlyphSet {
	if cls, ok := c.sym.GlyphClasses[name]; ok {
		return cls
	}
	return ir.NewGlyphSet()
}

// resolvedFlag returns n's effective LookupFlag with any named
// MarkAttachmentType/UseMarkFilteringSet class resolved to its final
// numeric index.
func (c *compiler) resolvedFlag(n *syntax.Node) ir.LookupFlag {
	flag := c.sym.EffectiveFlags[n]
	if name, ok := c.sym.FlagMarkAttachClass[n]; ok {
		flag.MarkAttachmentClass = c.markAttachClass[name]
	}
	if name, ok := c.sym.FlagMarkFilterSet[n]; ok {
		flag.MarkFilterSetIndex = c.markFilterSet[name]
	}
	return flag
}
