package parser

import (
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// Root parses an entire source file: a sequence of top-level items, each
// recovering independently on error so one malformed item never prevents
// the rest of the file from parsing.
func Root(p *Parser) {
	p.StartNode(syntax.Root)
	for !p.AtEOF() {
		if !topLevelItem(p) {
			break
		}
	}
	p.EatTrivia()
	p.FinishNode()
}

// topLevelItem parses one top-level item and reports whether the parser
// made progress (false signals a stuck state the caller should abort on,
// which should only happen on pathological input).
func topLevelItem(p *Parser) bool {
	start := p.CurrentSpan().Start
	switch p.Nth(0) {
	case lexer.KwLanguagesystem:
		languageSystem(p)
	case lexer.KwInclude:
		includeDirective(p)
	case lexer.NamedClass:
		namedGlyphClassDecl(p, TopLevelStart)
	case lexer.KwMarkClass:
		markClassDecl(p, TopLevelStart)
	case lexer.KwAnchorDef:
		anchorDefDecl(p)
	case lexer.KwValueRecordDef:
		valueRecordDefDecl(p)
	case lexer.KwFeature:
		featureBlock(p)
	case lexer.KwLookup:
		lookupBlockTopLevel(p, TopLevelStart)
	case lexer.KwTable:
		tableBlock(p)
	default:
		p.ErrRecover("expected a top-level statement ('languagesystem', 'include', glyph class, 'feature', 'lookup' or 'table')", TopLevelStart)
	}
	return p.CurrentSpan().Start != start || p.AtEOF()
}

func languageSystem(p *Parser) {
	p.StartNode(syntax.LanguageSystemNode)
	p.Eat(lexer.KwLanguagesystem)
	expectTag(p, TopSemi)
	expectTag(p, TopSemi)
	p.ExpectSemi()
	p.FinishNode()
}

// expectTag consumes a 4-byte OpenType tag: a glyph-name-shaped token (or
// a keyword that happens to look like one, e.g. "DFLT") remapped to Tag.
func expectTag(p *Parser, recovery TokenSet) bool {
	if IdentLike.Contains(p.Nth(0)) || p.Nth(0).IsKeyword() {
		p.EatRemap(syntax.TagNode)
		return true
	}
	p.ErrRecover("expected a 4-letter tag", recovery)
	return false
}
