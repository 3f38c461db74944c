package ast

import (
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// Table is `table <Tag> { ... } <Tag>;`.
type Table struct{ Node }

func CastTable(n *syntax.Node) Table {
	if n == nil || n.Kind != syntax.TableNode {
		return Table{}
	}
	return Table{Node{n}}
}

func (t Table) Tag() string { return tagText(t.n) }

// Statements returns the table body's statement nodes (LabelNode or
// NameEntryNode), in source order.
func (t Table) Statements() []*syntax.Node {
	return blockStatements(t.n)
}

// Label is one generic scalar/structured table statement: a leading
// identifier-shaped tag (`GlyphClassDef`, `Ascender`, `HorizAxis.BaseTagList`,
// ...) followed by either a nested `{ ... }` group or a flat value list,
// terminated by ';'. See parser/grammar_table.go's tableStatement doc for
// why the grammar stays generic here.
type Label struct{ Node }

func CastLabel(n *syntax.Node) Label {
	if n == nil || n.Kind != syntax.LabelNode {
		return Label{}
	}
	return Label{Node{n}}
}

// Tag returns the statement's leading label text.
func (l Label) Tag() string {
	if l.n == nil {
		return ""
	}
	for _, c := range l.n.Children {
		if c.Token != nil && c.Token.Kind != syntax.FromToken(lexer.Whitespace) &&
			c.Token.Kind != syntax.FromToken(lexer.Newline) && c.Token.Kind != syntax.FromToken(lexer.Comment) {
			return c.Token.Text
		}
	}
	return ""
}

// Values returns every significant (non-trivia, non-punctuation) token
// after the label, as raw text — the caller (compile/tables.go) knows how
// many fields a given Tag expects and in what units.
func (l Label) Values() []string {
	if l.n == nil {
		return nil
	}
	var out []string
	skippedLabel := false
	sign := ""
	for _, c := range l.n.Children {
		if c.Token == nil {
			continue
		}
		switch c.Token.Kind {
		case syntax.FromToken(lexer.Whitespace), syntax.FromToken(lexer.Newline), syntax.FromToken(lexer.Comment),
			syntax.FromToken(lexer.Semi), syntax.FromToken(lexer.LBrace), syntax.FromToken(lexer.RBrace),
			syntax.FromToken(lexer.Comma):
			continue
		case syntax.FromToken(lexer.Hyphen):
			sign = "-"
			continue
		}
		if !skippedLabel {
			skippedLabel = true
			continue
		}
		out = append(out, sign+c.Token.Text)
		sign = ""
	}
	return out
}

// NameEntry is a `nameid`/`name` record inside a `table name { ... }`,
// `featureNames { ... }` or `sizemenuname` statement: an optional
// platform/encoding/language ID triplet followed by a quoted string.
type NameEntry struct{ Node }

func CastNameEntry(n *syntax.Node) NameEntry {
	if n == nil || n.Kind != syntax.NameEntryNode {
		return NameEntry{}
	}
	return NameEntry{Node{n}}
}

// IDs returns the leading numeric IDs (0-3 of them depending on how many
// were given: platform, encoding, language — trailing ones default).
func (e NameEntry) IDs() []string {
	if e.n == nil {
		return nil
	}
	var out []string
	for _, c := range e.n.ChildTokens() {
		if c.Kind == syntax.FromToken(lexer.Number) {
			out = append(out, c.Text)
		}
	}
	return out
}

// String returns the entry's quoted string literal, with quotes stripped.
func (e NameEntry) String() string {
	if e.n == nil {
		return ""
	}
	if t := e.n.FirstTokenOfKind(syntax.FromToken(lexer.String)); t != nil {
		s := t.Text
		if len(s) >= 2 {
			return s[1 : len(s)-1]
		}
	}
	return ""
}

// FeatureNames is a `featureNames { name ...; ... }` block.
type FeatureNames struct{ Node }

func CastFeatureNames(n *syntax.Node) FeatureNames {
	if n == nil || n.Kind != syntax.FeatureNamesNode {
		return FeatureNames{}
	}
	return FeatureNames{Node{n}}
}

func (f FeatureNames) Entries() []NameEntry {
	var out []NameEntry
	for _, c := range childNodesOfKind(f.n, syntax.NameEntryNode) {
		out = append(out, CastNameEntry(c))
	}
	return out
}

// CvParameters is a `cvParameters { ... }` block.
type CvParameters struct{ Node }

func CastCvParameters(n *syntax.Node) CvParameters {
	if n == nil || n.Kind != syntax.CvParametersNode {
		return CvParameters{}
	}
	return CvParameters{Node{n}}
}

func (c CvParameters) Entries() []NameEntry {
	var out []NameEntry
	for _, e := range childNodesOfKind(c.n, syntax.NameEntryNode) {
		out = append(out, CastNameEntry(e))
	}
	return out
}

// Sizemenuname is a `sizemenuname ...;` statement.
type Sizemenuname struct{ Node }

func CastSizemenuname(n *syntax.Node) Sizemenuname {
	if n == nil || n.Kind != syntax.SizemenunameNode {
		return Sizemenuname{}
	}
	return Sizemenuname{Node{n}}
}

func (s Sizemenuname) IDs() []string {
	if s.n == nil {
		return nil
	}
	var out []string
	for _, c := range s.n.ChildTokens() {
		if c.Kind == syntax.FromToken(lexer.Number) {
			out = append(out, c.Text)
		}
	}
	return out
}

func (s Sizemenuname) String() string {
	if s.n == nil {
		return ""
	}
	if t := s.n.FirstTokenOfKind(syntax.FromToken(lexer.String)); t != nil {
		str := t.Text
		if len(str) >= 2 {
			return str[1 : len(str)-1]
		}
	}
	return ""
}

// Parameters is a `parameters <designSize> <subfamily>;` statement.
type Parameters struct{ Node }

func CastParameters(n *syntax.Node) Parameters {
	if n == nil || n.Kind != syntax.ParametersNode {
		return Parameters{}
	}
	return Parameters{Node{n}}
}

func (p Parameters) Numbers() []string {
	if p.n == nil {
		return nil
	}
	var out []string
	for _, c := range p.n.ChildTokens() {
		if c.Kind == syntax.FromToken(lexer.Number) {
			out = append(out, c.Text)
		}
	}
	return out
}
