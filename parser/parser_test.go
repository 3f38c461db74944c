package parser

import (
	"strings"
	"testing"
)

func parseOK(t *testing.T, src string) (string, *Parser) {
	t.Helper()
	p := New("test.fea", src)
	Root(p)
	tree, diags := p.Finish()
	if diags.HasErrors() {
		var msgs []string
		for _, d := range diags.All() {
			msgs = append(msgs, d.String())
		}
		t.Fatalf("unexpected diagnostics:\n%s", strings.Join(msgs, "\n"))
	}
	return tree.Text(), p
}

func TestRoundTripLanguageSystem(t *testing.T) {
	src := "languagesystem DFLT dflt;\nlanguagesystem latn dflt;\n"
	text, _ := parseOK(t, src)
	if text != src {
		t.Fatalf("round trip mismatch:\n got: %q\nwant: %q", text, src)
	}
}

func TestNamedGlyphClassAndFeature(t *testing.T) {
	src := `@vowels = [a e i o u];
feature liga {
    sub f i by f_i;
} liga;
`
	text, _ := parseOK(t, src)
	if text != src {
		t.Fatalf("round trip mismatch:\n got: %q\nwant: %q", text, src)
	}
}

func TestKernPairAndLookupflag(t *testing.T) {
	src := `feature kern {
    lookupflag IgnoreMarks;
    pos A V -50;
} kern;
`
	text, _ := parseOK(t, src)
	if text != src {
		t.Fatalf("round trip mismatch:\n got: %q\nwant: %q", text, src)
	}
}

func TestMarkClassAndAnchorDef(t *testing.T) {
	src := `anchorDef 250 450 TOP_;
markClass [acutecmb gravecmb] <anchor 150 300> @TOP_MARKS;
`
	text, _ := parseOK(t, src)
	if text != src {
		t.Fatalf("round trip mismatch:\n got: %q\nwant: %q", text, src)
	}
}

func TestIncludeStatementRoundTrips(t *testing.T) {
	src := "include (../shared/classes.fea);\n"
	text, _ := parseOK(t, src)
	if text != src {
		t.Fatalf("round trip mismatch:\n got: %q\nwant: %q", text, src)
	}
}

func TestTableBlockRoundTrips(t *testing.T) {
	src := `table GDEF {
    GlyphClassDef [A B], [acutecmb], , ;
} GDEF;
`
	text, _ := parseOK(t, src)
	if text != src {
		t.Fatalf("round trip mismatch:\n got: %q\nwant: %q", text, src)
	}
}

func TestMalformedStatementRecoversAndStillRoundTrips(t *testing.T) {
	src := "languagesystem DFLT dflt;\n&&& garbage here\nfeature liga {\n    sub a by b;\n} liga;\n"
	p := New("test.fea", src)
	Root(p)
	tree, diags := p.Finish()
	if !diags.HasErrors() {
		t.Fatalf("expected diagnostics for malformed input, got none")
	}
	if tree.Text() != src {
		t.Fatalf("round trip mismatch after recovery:\n got: %q\nwant: %q", tree.Text(), src)
	}
}

func TestIncludePathExtraction(t *testing.T) {
	p := New("test.fea", "include (foo/bar.fea);")
	Root(p)
	tree, _ := p.Finish()
	nodes := tree.ChildNodes()
	if len(nodes) != 1 {
		t.Fatalf("expected one child node, got %d", len(nodes))
	}
	if got := IncludePath(nodes[0]); got != "foo/bar.fea" {
		t.Fatalf("IncludePath = %q, want %q", got, "foo/bar.fea")
	}
}

type fakeResolver struct {
	files map[string]string
}

func (r fakeResolver) Resolve(fromFile, path string) (string, string, error) {
	src, ok := r.files[path]
	if !ok {
		return "", "", errNotFound(path)
	}
	return path, src, nil
}

type notFoundErr string

func (e notFoundErr) Error() string { return "not found: " + string(e) }

func errNotFound(path string) error { return notFoundErr(path) }

func TestParseWithIncludesExpandsChildTree(t *testing.T) {
	resolver := fakeResolver{files: map[string]string{
		"classes.fea": "@vowels = [a e i o u];\n",
	}}
	res := ParseWithIncludes(resolver, "root.fea", "include (classes.fea);\n", 0)
	if len(res.Includes) != 1 {
		t.Fatalf("expected one expanded include, got %d", len(res.Includes))
	}
	inc := res.Includes[0]
	if inc.Tree == nil {
		t.Fatalf("expected included file to parse, diagnostics: %v", inc.Diagnostics)
	}
	if inc.Tree.Text() != resolver.files["classes.fea"] {
		t.Fatalf("included tree text = %q, want %q", inc.Tree.Text(), resolver.files["classes.fea"])
	}
}

func TestParseWithIncludesDetectsCycle(t *testing.T) {
	resolver := fakeResolver{files: map[string]string{
		"a.fea": "include (b.fea);\n",
		"b.fea": "include (a.fea);\n",
	}}
	res := ParseWithIncludes(resolver, "a.fea", "include (b.fea);\n", 0)
	if len(res.Includes) != 1 || res.Includes[0].Tree == nil {
		t.Fatalf("expected b.fea to parse")
	}
	nested := res.Includes[0].Includes
	if len(nested) != 1 {
		t.Fatalf("expected one nested include, got %d", len(nested))
	}
	if nested[0].Tree != nil {
		t.Fatalf("expected cycle to prevent a second parse of a.fea")
	}
	if nested[0].Diagnostics == nil || !nested[0].Diagnostics.HasErrors() {
		t.Fatalf("expected a cycle diagnostic")
	}
}
