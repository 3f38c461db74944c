/*
Package validate walks the typed AST produced by parser+ast, building the
symbol table described in spec §3 and enforcing the well-formedness rules
of spec §4.4, while continuing past errors by substituting placeholder
bindings so later statements still validate (spec's "validator
monotonicity" testable property).
*/
package validate

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/syntax"
)

func tracer() tracing.Trace {
	return tracing.Select("fea.core")
}

// MarkClassEntry is one `markClass <glyphs> <anchor> @name;` declaration.
// A mark class name may be declared several times, each partitioning a
// different subset of its members onto a different anchor.
type MarkClassEntry struct {
	Glyphs *ir.GlyphSet
	Anchor ir.Anchor
}

// MarkClass is every declaration sharing one @name.
type MarkClass struct {
	Name    string
	Entries []MarkClassEntry
}

// Glyphs returns the union of every entry's glyph set.
func (m *MarkClass) Glyphs() *ir.GlyphSet {
	s := ir.NewGlyphSet()
	for _, e := range m.Entries {
		s.Union(e.Glyphs)
	}
	return s
}

// AnchorFor returns the anchor associated with g within this mark class,
// and whether g is a member at all.
func (m *MarkClass) AnchorFor(g ir.GID) (ir.Anchor, bool) {
	for _, e := range m.Entries {
		if e.Glyphs.Contains(g) {
			return e.Anchor, true
		}
	}
	return ir.Anchor{}, false
}

// LookupSymbol is a named `lookup <name> { ... }` block's resolved
// position in declaration order, used to resolve `lookup <label>`
// references (which, per spec §9, must refer to an already-defined
// lookup — forward references are disallowed).
type LookupSymbol struct {
	Name string
	Node *syntax.Node
	// The lookup's index is not stored here: it is assigned once the
	// compiler actually lowers the lookup
	// (the symbol table only proves the name resolves and was declared
	// before use; lookup index assignment is the compiler's job, per
	// spec's IR lifecycle note).
}

// LangSysDecl is one `languagesystem` declaration in source order.
type LangSysDecl struct {
	Script, Language ir.Tag
	Node             *syntax.Node
}

// Symbols is the validator's output: the three maps described in spec §3
// (glyph-class name -> glyph set; mark-class name -> (glyph set, anchor);
// lookup label -> lookup reference), plus the ancillary tables the
// compiler needs (anchor/value-record defs, language-system list, and
// per-rule effective lookup flags).
type Symbols struct {
	GlyphClasses    map[string]*ir.GlyphSet
	// GlyphClassOrder preserves each class's members in the order they
	// were written, for rules that rely on positional correspondence
	// between two classes of equal size (`sub @A by @B;`) rather than
	// set membership — an OpenType semantic that GlyphClasses' sorted,
	// deduplicated GlyphSet cannot represent on its own.
	GlyphClassOrder map[string][]ir.GID
	MarkClasses     map[string]*MarkClass
	Lookups         map[string]*LookupSymbol
	LookupOrder     []string
	AnchorDefs      map[string]ir.Anchor
	ValueRecordDefs map[string]ir.ValueRecord
	LanguageSystems []LangSysDecl

	// EffectiveFlags records, for each rule statement node, the
	// lookupflag value in force at that point (spec §4.4.6: "the
	// validator records the effective flag per rule").
	EffectiveFlags map[*syntax.Node]ir.LookupFlag

	// FlagMarkAttachClass and FlagMarkFilterSet record, for each rule
	// statement node whose effective flag used the named
	// MarkAttachmentType/UseMarkFilteringSet forms, the @class name
	// involved. LookupFlag itself only has room for the final numeric
	// class index, and that index isn't known until every such class
	// across the whole file has been seen — assigning it is the
	// compiler's job, once validation is complete.
	FlagMarkAttachClass map[*syntax.Node]string
	FlagMarkFilterSet   map[*syntax.Node]string
}

func newSymbols() *Symbols {
	return &Symbols{
		GlyphClasses:    map[string]*ir.GlyphSet{},
		GlyphClassOrder: map[string][]ir.GID{},
		MarkClasses:     map[string]*MarkClass{},
		Lookups:         map[string]*LookupSymbol{},
		AnchorDefs:      map[string]ir.Anchor{},
		ValueRecordDefs: map[string]ir.ValueRecord{},
		EffectiveFlags:      map[*syntax.Node]ir.LookupFlag{},
		FlagMarkAttachClass: map[*syntax.Node]string{},
		FlagMarkFilterSet:   map[*syntax.Node]string{},
	}
}
