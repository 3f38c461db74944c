package ast

import (
	"testing"

	"github.com/otlayout/fea/parser"
	"github.com/otlayout/fea/syntax"
)

func parseTree(t *testing.T, src string) *syntax.Node {
	t.Helper()
	p := parser.New("test.fea", src)
	parser.Root(p)
	tree, diags := p.Finish()
	if diags.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %v", diags.All())
	}
	return tree
}

func TestRootItemsListsTopLevelDeclarations(t *testing.T) {
	tree := parseTree(t, "languagesystem DFLT dflt;\nfeature liga {\n} liga;\n")
	items := CastRoot(tree).Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 top-level items, got %d", len(items))
	}
	if items[0].Kind != syntax.LanguageSystemNode {
		t.Fatalf("expected the first item to be a languagesystem, got %v", items[0].Kind)
	}
	if items[1].Kind != syntax.FeatureNode {
		t.Fatalf("expected the second item to be a feature, got %v", items[1].Kind)
	}
}

func TestLanguageSystemScriptAndLanguage(t *testing.T) {
	tree := parseTree(t, "languagesystem latn TRK;\n")
	items := CastRoot(tree).Items()
	ls := CastLanguageSystem(items[0])
	if !ls.Present() {
		t.Fatalf("expected a present LanguageSystem view")
	}
	if got := ls.Script(); got != "latn" {
		t.Fatalf("expected script latn, got %q", got)
	}
	if got := ls.Language(); got != "TRK" {
		t.Fatalf("expected language TRK, got %q", got)
	}
}

func TestFeatureTagAndStatements(t *testing.T) {
	tree := parseTree(t, "feature smcp {\n    sub a by a.sc;\n    sub b by b.sc;\n} smcp;\n")
	items := CastRoot(tree).Items()
	f := CastFeature(items[0])
	if got := f.Tag(); got != "smcp" {
		t.Fatalf("expected tag smcp, got %q", got)
	}
	stmts := f.Statements()
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements in the feature body, got %d", len(stmts))
	}
}

func TestCastRejectsWrongKind(t *testing.T) {
	tree := parseTree(t, "feature smcp {\n} smcp;\n")
	items := CastRoot(tree).Items()
	// items[0] is a FeatureNode; casting it as a LanguageSystem must fail
	// rather than silently wrapping the wrong kind of node.
	ls := CastLanguageSystem(items[0])
	if ls.Present() {
		t.Fatalf("expected CastLanguageSystem to reject a FeatureNode")
	}
}

func TestCastHandlesNilNode(t *testing.T) {
	if CastFeature(nil).Present() {
		t.Fatalf("expected CastFeature(nil) to be absent")
	}
	var f Feature
	if f.Tag() != "" {
		t.Fatalf("expected the zero Feature's Tag() to be empty, not panic")
	}
	if len(f.Statements()) != 0 {
		t.Fatalf("expected the zero Feature's Statements() to be empty, not panic")
	}
}
