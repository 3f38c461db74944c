package parser

import (
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// tableBlock parses 'table <Tag> { ... } <Tag>;'. The scalar/binary tables
// (head, hhea, vhea, OS/2, name, STAT, BASE, vmtx, GDEF) each have their
// own statement grammar in the Adobe feature file language; this parser
// represents every statement generically as a labeled, balanced run of
// tokens up to its terminating ';' (or nested '{ ... }' for GDEF's
// Attach/LigatureCaret groups and name-table-style entries), leaving
// per-table-tag interpretation to the ast/ir layer that already knows
// which fields each tag's statements populate.
func tableBlock(p *Parser) {
	p.StartNode(syntax.TableNode)
	p.Eat(lexer.KwTable)
	expectTag(p, TopSemi)
	p.ExpectRecover(lexer.LBrace, TopSemi)
	for !p.AtEOF() && p.Nth(0) != lexer.RBrace {
		if !tableStatement(p, TopLevelStart.Add(lexer.RBrace)) {
			break
		}
	}
	p.ExpectRecover(lexer.RBrace, TopSemi)
	expectTag(p, TopSemi)
	p.ExpectSemi()
	p.FinishNode()
}

// tableStatement consumes one statement of a table block. Returns false if
// no progress was made.
func tableStatement(p *Parser, recovery TokenSet) bool {
	start := p.CurrentSpan().Start
	switch p.Nth(0) {
	case lexer.KwName, lexer.KwNameid:
		p.StartNode(syntax.NameEntryNode)
		p.Bump()
		if p.Nth(0) == lexer.Number {
			p.Bump() // name ID, ahead of the optional platform triplet
		}
		nameTableEntryTail(p, recovery.Add(lexer.Semi))
		p.ExpectSemi()
		p.FinishNode()
	case lexer.GlyphName, lexer.Ident:
		// Every other scalar-table statement (FontRevision, Ascender,
		// winAscent, GlyphClassDef, Attach, LigatureCaretByPos,
		// HorizAxis.BaseTagList, ElidedFallbackName, ...) starts with
		// a bare identifier-shaped label, possibly followed by a
		// nested '{ ... }' block (Attach-style groups) or a flat
		// value list terminated by ';'.
		p.StartNode(syntax.LabelNode)
		p.Bump()
		if p.Nth(0) == lexer.LBrace {
			p.Bump()
			depth := 1
			for !p.AtEOF() && depth > 0 {
				switch p.Nth(0) {
				case lexer.LBrace:
					depth++
				case lexer.RBrace:
					depth--
				}
				p.Bump()
			}
		} else {
			for !p.AtEOF() && p.Nth(0) != lexer.Semi {
				p.Bump()
			}
		}
		p.ExpectSemi()
		p.FinishNode()
	default:
		p.ErrRecover("expected a table statement", recovery)
	}
	return p.CurrentSpan().Start != start || p.AtEOF()
}
