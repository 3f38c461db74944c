package ast

import (
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// Feature is `feature <tag> { ... } <tag>;`.
type Feature struct{ Node }

func CastFeature(n *syntax.Node) Feature {
	if n == nil || n.Kind != syntax.FeatureNode {
		return Feature{}
	}
	return Feature{Node{n}}
}

// Tag returns the feature tag text (both occurrences are required to
// match by the grammar; the validator double-checks this).
func (f Feature) Tag() string {
	if f.n == nil {
		return ""
	}
	if t := f.n.FirstTokenOfKind(syntax.TagNode); t != nil {
		return t.Text
	}
	return ""
}

// Statements returns the feature body's statement nodes, in source order,
// skipping trivia and ErrorNode recovery regions.
func (f Feature) Statements() []*syntax.Node {
	return blockStatements(f.n)
}

func blockStatements(n *syntax.Node) []*syntax.Node {
	if n == nil {
		return nil
	}
	var out []*syntax.Node
	inBody := false
	for _, c := range n.Children {
		if c.Token != nil && c.Token.Kind == syntax.FromToken(lexer.LBrace) {
			inBody = true
			continue
		}
		if c.Token != nil && c.Token.Kind == syntax.FromToken(lexer.RBrace) {
			inBody = false
			continue
		}
		if inBody && c.Node != nil && c.Node.Kind != syntax.ErrorNode {
			out = append(out, c.Node)
		}
	}
	return out
}

// LookupBlock is `lookup <name> [useExtension] { ... } <name>;`.
type LookupBlock struct{ Node }

func CastLookupBlock(n *syntax.Node) LookupBlock {
	if n == nil || n.Kind != syntax.LookupBlockNode {
		return LookupBlock{}
	}
	return LookupBlock{Node{n}}
}

func (l LookupBlock) Name() string {
	if l.n == nil {
		return ""
	}
	if t := l.n.FirstTokenOfKind(syntax.FromToken(lexer.GlyphName)); t != nil {
		return t.Text
	}
	return ""
}

func (l LookupBlock) UseExtension() bool {
	if l.n == nil {
		return false
	}
	return l.n.FirstTokenOfKind(syntax.FromToken(lexer.KwUseExtension)) != nil
}

func (l LookupBlock) Statements() []*syntax.Node {
	return blockStatements(l.n)
}

// LookupRef is a bare `lookup <name>;` reference, or an aalt-style
// `feature <tag>;` cross-reference, both represented with the same node
// kind since both mean "pull in rules defined elsewhere" (see
// LookupRef.IsFeatureRef for which one this is).
type LookupRef struct{ Node }

func CastLookupRef(n *syntax.Node) LookupRef {
	if n == nil || n.Kind != syntax.LookupRefNode {
		return LookupRef{}
	}
	return LookupRef{Node{n}}
}

func (r LookupRef) IsFeatureRef() bool {
	if r.n == nil {
		return false
	}
	return r.n.FirstTokenOfKind(syntax.FromToken(lexer.KwFeature)) != nil
}

// Name returns the referenced lookup's name (for a lookup ref) or tag
// (for a feature cross-reference).
func (r LookupRef) Name() string {
	if r.n == nil {
		return ""
	}
	if t := r.n.FirstTokenOfKind(syntax.TagNode); t != nil {
		return t.Text
	}
	if t := r.n.FirstTokenOfKind(syntax.FromToken(lexer.GlyphName)); t != nil {
		return t.Text
	}
	return ""
}

// Lookupflag is `lookupflag <value>;`.
type Lookupflag struct{ Node }

func CastLookupflag(n *syntax.Node) Lookupflag {
	if n == nil || n.Kind != syntax.LookupflagNode {
		return Lookupflag{}
	}
	return Lookupflag{Node{n}}
}

// NumericValue returns the bare numeric shorthand value and true, if the
// statement used `lookupflag <number>;` instead of named flags.
func (f Lookupflag) NumericValue() (string, bool) {
	if f.n == nil {
		return "", false
	}
	if t := f.n.FirstTokenOfKind(syntax.FromToken(lexer.Number)); t != nil {
		return t.Text, true
	}
	return "", false
}

// NamedFlags reports which named bits were set.
type NamedFlags struct {
	RightToLeft         bool
	IgnoreBaseGlyphs     bool
	IgnoreLigatures      bool
	IgnoreMarks          bool
	MarkAttachmentClass  string // @class name, if MarkAttachmentType was used
	MarkFilterSet        string // @class name, if UseMarkFilteringSet was used
}

func (f Lookupflag) NamedFlags() NamedFlags {
	var out NamedFlags
	if f.n == nil {
		return out
	}
	var lastWasMarkAttach, lastWasFilterSet bool
	for _, c := range f.n.Children {
		if c.Token == nil {
			continue
		}
		switch c.Token.Kind {
		case syntax.FromToken(lexer.KwRightToLeft):
			out.RightToLeft = true
		case syntax.FromToken(lexer.KwIgnoreBaseGlyphs):
			out.IgnoreBaseGlyphs = true
		case syntax.FromToken(lexer.KwIgnoreLigatures):
			out.IgnoreLigatures = true
		case syntax.FromToken(lexer.KwIgnoreMarks):
			out.IgnoreMarks = true
		case syntax.FromToken(lexer.KwMarkAttachmentType):
			lastWasMarkAttach = true
		case syntax.FromToken(lexer.KwUseMarkFilteringSet):
			lastWasFilterSet = true
		case syntax.FromToken(lexer.NamedClass):
			if lastWasMarkAttach {
				out.MarkAttachmentClass = trimAt(c.Token.Text)
				lastWasMarkAttach = false
			} else if lastWasFilterSet {
				out.MarkFilterSet = trimAt(c.Token.Text)
				lastWasFilterSet = false
			}
		}
	}
	return out
}

// Script is `script <tag>;`.
type Script struct{ Node }

func CastScript(n *syntax.Node) Script {
	if n == nil || n.Kind != syntax.ScriptNode {
		return Script{}
	}
	return Script{Node{n}}
}

func (s Script) Tag() string { return tagText(s.n) }

// Language is `language <tag> [exclude_dflt|include_dflt];`.
type Language struct{ Node }

func CastLanguage(n *syntax.Node) Language {
	if n == nil || n.Kind != syntax.LanguageNode {
		return Language{}
	}
	return Language{Node{n}}
}

func (l Language) Tag() string { return tagText(l.n) }

func (l Language) ExcludeDflt() bool {
	if l.n == nil {
		return false
	}
	return l.n.FirstTokenOfKind(syntax.FromToken(lexer.KwExcludeDflt)) != nil
}

func tagText(n *syntax.Node) string {
	if n == nil {
		return ""
	}
	if t := n.FirstTokenOfKind(syntax.TagNode); t != nil {
		return t.Text
	}
	return ""
}
