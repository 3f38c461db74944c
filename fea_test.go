package fea

import (
	"fmt"
	"testing"

	"github.com/otlayout/fea/ir"
)

// mapResolver resolves an include path by looking it up verbatim in a
// fixed set of in-memory sources, the way a build tool would resolve
// paths relative to a feature file's own directory once it has already
// read every file it might need off disk.
type mapResolver map[string]string

func (m mapResolver) Resolve(fromFile, path string) (id, src string, err error) {
	src, ok := m[path]
	if !ok {
		return "", "", fmt.Errorf("no such include: %q", path)
	}
	return path, src, nil
}

type fakeFont struct {
	byName map[string]ir.GID
}

func newFakeFont(names ...string) *fakeFont {
	f := &fakeFont{byName: map[string]ir.GID{}}
	for i, n := range names {
		f.byName[n] = ir.GID(i + 1)
	}
	return f
}

func (f *fakeFont) GID(name string) (ir.GID, bool) { g, ok := f.byName[name]; return g, ok }
func (f *fakeFont) GIDByCID(int) (ir.GID, bool)    { return 0, false }
func (f *fakeFont) Name(ir.GID) (string, bool)     { return "", false }

type recordingBuilder struct {
	gsub *ir.LayoutTable
	gpos *ir.LayoutTable
}

func (b *recordingBuilder) GSUB(t *ir.LayoutTable) { b.gsub = t }
func (b *recordingBuilder) GPOS(t *ir.LayoutTable) { b.gpos = t }
func (b *recordingBuilder) GDEF(*ir.GDEFTable)     {}
func (b *recordingBuilder) Name(*ir.NameTable)     {}
func (b *recordingBuilder) Head(*ir.HeadFields)    {}
func (b *recordingBuilder) HHea(*ir.HHeaFields)    {}
func (b *recordingBuilder) VHea(*ir.VHeaFields)    {}
func (b *recordingBuilder) VMtx(*ir.VMtxTable)     {}
func (b *recordingBuilder) OS2(*ir.OS2Fields)      {}
func (b *recordingBuilder) Stat(*ir.StatTable)     {}
func (b *recordingBuilder) Base(*ir.BaseTable)     {}

func TestParseAndCompileEndToEnd(t *testing.T) {
	font := newFakeFont("a", "a.sc")
	src := "languagesystem DFLT dflt;\nfeature smcp {\n    sub a by a.sc;\n} smcp;\n"
	b := &recordingBuilder{}
	bag := ParseAndCompile(nil, "test.fea", src, font, b, Config{})
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	if b.gsub == nil || len(b.gsub.Lookups) != 1 {
		t.Fatalf("expected exactly one GSUB lookup to reach the builder")
	}
}

func TestParseAndCompileResolvesIncludedDeclarations(t *testing.T) {
	font := newFakeFont("a", "a.sc")
	resolver := mapResolver{"classes.fea": "@upper = [a];\n"}
	src := "include (classes.fea);\n" +
		"languagesystem DFLT dflt;\n" +
		"feature smcp {\n    sub @upper by a.sc;\n} smcp;\n"
	b := &recordingBuilder{}
	bag := ParseAndCompile(resolver, "test.fea", src, font, b, Config{})
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	if b.gsub == nil || len(b.gsub.Lookups) != 1 {
		t.Fatalf("expected the @upper class defined in the included file to resolve and compile")
	}
	ss, ok := b.gsub.Lookups[0].Subtables[0].(*ir.SingleSubst)
	if !ok {
		t.Fatalf("expected a single-substitution subtable")
	}
	a, _ := font.GID("a")
	asc, _ := font.GID("a.sc")
	if ss.Mapping[a] != asc {
		t.Fatalf("expected a -> a.sc from the included @upper class, got %v", ss.Mapping)
	}
}

func TestParseAndCompileStopsAtParseErrors(t *testing.T) {
	font := newFakeFont("a")
	src := "feature smcp {\n    sub a by a.sc\n} smcp;\n" // malformed: missing semicolon
	b := &recordingBuilder{}
	bag := ParseAndCompile(nil, "test.fea", src, font, b, Config{})
	if !bag.HasErrors() {
		t.Fatalf("expected a parse diagnostic for the malformed substitution")
	}
	if b.gsub != nil {
		t.Fatalf("expected Compile to never run once an earlier stage reported an error")
	}
}

func TestParseAndCompileStopsAtValidationErrors(t *testing.T) {
	font := newFakeFont("a") // "a.sc" deliberately missing from the font
	src := "feature smcp {\n    sub a by a.sc;\n} smcp;\n"
	b := &recordingBuilder{}
	bag := ParseAndCompile(nil, "test.fea", src, font, b, Config{})
	if !bag.HasErrors() {
		t.Fatalf("expected a validation diagnostic for the unknown glyph a.sc")
	}
	if b.gsub != nil {
		t.Fatalf("expected Compile to never run once validation reported an error")
	}
}
