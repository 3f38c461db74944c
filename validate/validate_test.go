package validate

import (
	"testing"

	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/parser"
	"github.com/otlayout/fea/syntax"
)

// fakeFont is a minimal ir.GlyphMap backed by a fixed name table, enough
// to drive validator tests without touching a real font file.
type fakeFont struct {
	byName map[string]ir.GID
	byCID  map[int]ir.GID
	byGID  map[ir.GID]string
}

func newFakeFont(names ...string) *fakeFont {
	f := &fakeFont{byName: map[string]ir.GID{}, byCID: map[int]ir.GID{}, byGID: map[ir.GID]string{}}
	for i, n := range names {
		g := ir.GID(i + 1)
		f.byName[n] = g
		f.byCID[i+1] = g
		f.byGID[g] = n
	}
	return f
}

func (f *fakeFont) GID(name string) (ir.GID, bool)    { g, ok := f.byName[name]; return g, ok }
func (f *fakeFont) GIDByCID(c int) (ir.GID, bool)      { g, ok := f.byCID[c]; return g, ok }
func (f *fakeFont) Name(g ir.GID) (string, bool)       { n, ok := f.byGID[g]; return n, ok }

func TestValidateResolvesGlyphClasses(t *testing.T) {
	font := newFakeFont("a", "e", "i", "o", "u", "f", "i.alt")
	src := "@vowels = [a e i o u];\n"
	p := parser.New("test.fea", src)
	parser.Root(p)
	tree, diags := p.Finish()
	if diags.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %v", diags.All())
	}
	sym, vdiags := Validate(tree, font, Config{})
	if vdiags.HasErrors() {
		t.Fatalf("unexpected validate diagnostics: %v", vdiags.All())
	}
	cls, ok := sym.GlyphClasses["vowels"]
	if !ok {
		t.Fatalf("expected @vowels to be defined")
	}
	if cls.Len() != 5 {
		t.Fatalf("expected 5 members, got %d", cls.Len())
	}
}

func TestValidateFlagsUnknownGlyph(t *testing.T) {
	font := newFakeFont("a", "b")
	src := "@cls = [a b c];\n"
	p := parser.New("test.fea", src)
	parser.Root(p)
	tree, _ := p.Finish()
	_, vdiags := Validate(tree, font, Config{})
	if !vdiags.HasErrors() {
		t.Fatalf("expected an error for unknown glyph c")
	}
}

func TestValidateGlyphClassAppendIdiom(t *testing.T) {
	font := newFakeFont("a", "b", "c")
	src := "@cls = [a];\n@cls = [@cls b c];\n"
	p := parser.New("test.fea", src)
	parser.Root(p)
	tree, _ := p.Finish()
	sym, vdiags := Validate(tree, font, Config{})
	if vdiags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", vdiags.All())
	}
	if sym.GlyphClasses["cls"].Len() != 3 {
		t.Fatalf("expected append to grow the class to 3 members, got %d", sym.GlyphClasses["cls"].Len())
	}
}

func TestValidateRejectsNonAppendRedeclaration(t *testing.T) {
	font := newFakeFont("a", "b")
	src := "@cls = [a];\n@cls = [b];\n"
	p := parser.New("test.fea", src)
	parser.Root(p)
	tree, _ := p.Finish()
	_, vdiags := Validate(tree, font, Config{})
	if !vdiags.HasErrors() {
		t.Fatalf("expected a redeclaration error")
	}
}

func TestValidateClassifiesSubstitutionArity(t *testing.T) {
	font := newFakeFont("f", "i", "f_i")
	src := "feature liga {\n    sub f i by f_i;\n} liga;\n"
	p := parser.New("test.fea", src)
	parser.Root(p)
	tree, diags := p.Finish()
	if diags.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %v", diags.All())
	}
	_, vdiags := Validate(tree, font, Config{})
	if vdiags.HasErrors() {
		t.Fatalf("unexpected validate diagnostics: %v", vdiags.All())
	}
}

func TestValidateDetectsLookupReferencedBeforeDefined(t *testing.T) {
	font := newFakeFont("a", "b")
	src := "feature test {\n    lookup notYetDefined;\n} test;\n"
	p := parser.New("test.fea", src)
	parser.Root(p)
	tree, diags := p.Finish()
	if diags.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %v", diags.All())
	}
	_, vdiags := Validate(tree, font, Config{})
	if !vdiags.HasErrors() {
		t.Fatalf("expected an error for a forward lookup reference")
	}
}

func TestValidateMarkClassCoherenceAcrossAnchors(t *testing.T) {
	font := newFakeFont("acutecmb")
	src := "markClass [acutecmb] <anchor 100 400> @TOP;\nmarkClass [acutecmb] <anchor 100 -20> @BOTTOM;\n"
	p := parser.New("test.fea", src)
	parser.Root(p)
	tree, diags := p.Finish()
	if diags.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %v", diags.All())
	}
	sym, vdiags := Validate(tree, font, Config{})
	if vdiags.HasErrors() {
		t.Fatalf("unexpected diagnostics for independent mark classes: %v", vdiags.All())
	}
	if len(sym.MarkClasses) != 2 {
		t.Fatalf("expected two distinct mark classes, got %d", len(sym.MarkClasses))
	}
}

func TestValidateResolvesDeclarationsFromIncludedFiles(t *testing.T) {
	font := newFakeFont("a", "b")
	incP := parser.New("classes.fea", "@upper = [a b];\n")
	parser.Root(incP)
	incTree, incDiags := incP.Finish()
	if incDiags.HasErrors() {
		t.Fatalf("unexpected parse diagnostics in the included file: %v", incDiags.All())
	}
	src := "include (classes.fea);\n"
	p := parser.New("test.fea", src)
	parser.Root(p)
	tree, diags := p.Finish()
	if diags.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %v", diags.All())
	}
	sym, vdiags := Validate(tree, font, Config{}, syntax.File{ID: "classes.fea", Root: incTree})
	if vdiags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", vdiags.All())
	}
	cls, ok := sym.GlyphClasses["upper"]
	if !ok || cls.Len() != 2 {
		t.Fatalf("expected @upper, defined only in the included file, to reach the root's symbol table")
	}
}

func TestValidateWarningsAsErrors(t *testing.T) {
	font := newFakeFont("a")
	src := "languagesystem DFLT dflt;\nlanguagesystem DFLT dflt;\n"
	p := parser.New("test.fea", src)
	parser.Root(p)
	tree, _ := p.Finish()
	_, vdiags := Validate(tree, font, Config{WarningsAsErrors: true})
	if !vdiags.HasErrors() {
		t.Fatalf("expected the duplicate-languagesystem warning to be promoted to an error")
	}
}
