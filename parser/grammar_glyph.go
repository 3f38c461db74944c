package parser

import (
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// glyphAtomStart is the first-set of a single glyph reference: a bare
// glyph name, a CID, or a named class reference.
var glyphAtomStart = NewTokenSet(lexer.GlyphName, lexer.Cid, lexer.NamedClass)

// glyphAtom consumes one glyph reference, optionally followed by a
// whitespace-delimited '-' range end (the lexer reads a '-' written
// directly after a glyph name as part of that name, so a range's '-'
// needs whitespace before it).
func glyphAtom(p *Parser) bool {
	switch {
	case p.Nth(0) == lexer.GlyphName || p.Nth(0) == lexer.Cid:
		p.Bump()
	case p.Nth(0) == lexer.NamedClass:
		p.StartNode(syntax.GlyphClassRefNode)
		p.Bump()
		p.FinishNode()
	default:
		return false
	}
	if p.Nth(0) == lexer.Hyphen && (p.Nth(1) == lexer.GlyphName || p.Nth(1) == lexer.Cid) {
		p.Bump() // '-'
		p.Bump() // range end
	}
	return true
}

// eatGlyphClassList consumes a bracketed glyph class literal: '[' atom* ']'.
// It reports whether it consumed anything.
func eatGlyphClassList(p *Parser, recovery TokenSet) bool {
	if p.Nth(0) != lexer.LBracket {
		return false
	}
	p.StartNode(syntax.GlyphClassLiteralNode)
	p.Bump() // '['
	for !p.AtEOF() && p.Nth(0) != lexer.RBracket {
		if !glyphAtom(p) {
			p.ErrRecover("expected a glyph name, CID or glyph class inside '[...]'", recovery.Add(lexer.RBracket))
			break
		}
	}
	p.ExpectRecover(lexer.RBracket, recovery)
	p.FinishNode()
	return true
}

// glyphClassOperand consumes one operand valid wherever a glyph class is
// expected: a bracketed literal, a named class reference, or a single
// bare glyph (a singleton class).
func glyphClassOperand(p *Parser, recovery TokenSet) bool {
	if eatGlyphClassList(p, recovery) {
		return true
	}
	return glyphAtom(p)
}

// glyphSequence consumes a space-separated run of glyph class operands,
// used for rule input/output sequences. The number and shape of operands
// is what the validator uses to classify substitution/position arity.
func glyphSequence(p *Parser, recovery TokenSet) int {
	p.StartNode(syntax.GlyphSeqNode)
	n := 0
	for glyphAtomStart.Contains(p.Nth(0)) || p.Nth(0) == lexer.LBracket || p.Nth(0) == lexer.Quote {
		if p.Nth(0) == lexer.Quote {
			p.Bump() // contextual marker
		}
		if !glyphClassOperand(p, recovery) {
			break
		}
		n++
	}
	p.FinishNode()
	return n
}

// namedGlyphClassDecl parses '@name = <class-literal-or-alias-or-append>;'.
func namedGlyphClassDecl(p *Parser, recovery TokenSet) {
	p.StartNode(syntax.GlyphClassDefNode)
	p.Bump() // @name
	p.ExpectRecover(lexer.Equals, recovery.Add(lexer.Semi))
	switch {
	case p.Nth(0) == lexer.LBracket:
		eatGlyphClassList(p, recovery.Add(lexer.Semi))
	case p.Nth(0) == lexer.NamedClass:
		p.StartNode(syntax.GlyphClassRefNode)
		p.Bump()
		p.FinishNode()
	case glyphAtomStart.Contains(p.Nth(0)):
		glyphAtom(p)
	default:
		p.ErrRecover("expected a glyph class definition", recovery.Add(lexer.Semi))
	}
	p.ExpectSemi()
	p.FinishNode()
}

// markClassDecl parses 'markClass <glyphs> <anchor> @className;'.
func markClassDecl(p *Parser, recovery TokenSet) {
	p.StartNode(syntax.MarkClassDefNode)
	p.Eat(lexer.KwMarkClass)
	if !glyphClassOperand(p, recovery) {
		p.ErrRecover("expected glyphs for markClass", recovery.Add(lexer.Semi))
	}
	anchorLiteral(p, recovery)
	p.ExpectRecover(lexer.NamedClass, recovery.Add(lexer.Semi))
	p.ExpectSemi()
	p.FinishNode()
}

// anchorLiteral parses '<anchor x y>', '<anchor x y contourpoint>',
// '<anchor NULL>' or '<anchor @anchorDefName>'.
func anchorLiteral(p *Parser, recovery TokenSet) {
	p.StartNode(syntax.AnchorNode)
	p.ExpectRecover(lexer.LAngle, recovery)
	p.Eat(lexer.KwAnchor)
	switch {
	case p.Eat(lexer.KwNull):
	case p.Nth(0) == lexer.NamedClass:
		p.Bump() // @anchorDefName reference
	default:
		if signedNumberStart(p) {
			eatSignedNumber(p, recovery.Add(lexer.RAngle))
			eatSignedNumber(p, recovery.Add(lexer.RAngle))
			if p.Nth(0) == lexer.Number {
				p.Bump() // contour point index (always non-negative)
			}
		} else {
			p.ErrRecover("expected anchor coordinates, NULL or a named anchor reference", recovery.Add(lexer.RAngle))
		}
	}
	p.ExpectRecover(lexer.RAngle, recovery)
	p.FinishNode()
}

func anchorDefDecl(p *Parser) {
	p.StartNode(syntax.AnchorDefNode)
	p.Eat(lexer.KwAnchorDef)
	eatSignedNumber(p, TopSemi)
	eatSignedNumber(p, TopSemi)
	p.ExpectRecover(IdentKind(p), TopSemi)
	p.ExpectSemi()
	p.FinishNode()
}

// IdentKind returns the lexer.Kind of whatever identifier-shaped token is
// next, defaulting to GlyphName for recovery-set construction purposes.
func IdentKind(p *Parser) lexer.Kind {
	if p.Nth(0) == lexer.Ident {
		return lexer.Ident
	}
	return lexer.GlyphName
}

func valueRecordDefDecl(p *Parser) {
	p.StartNode(syntax.ValueRecordDefNode)
	p.Eat(lexer.KwValueRecordDef)
	valueRecordLiteral(p, TopSemi)
	p.ExpectRecover(lexer.GlyphName, TopSemi)
	p.ExpectSemi()
	p.FinishNode()
}

// signedNumberStart reports whether the upcoming token(s) begin a
// (possibly negative) numeric literal. The lexer always keeps '-' as its
// own Hyphen token (see lexer.lexNumber); folding an optional leading sign
// back onto a Number is the parser's job, per the grammar's value-record
// and anchor-coordinate productions.
func signedNumberStart(p *Parser) bool {
	return p.Nth(0) == lexer.Number || (p.Nth(0) == lexer.Hyphen && p.Nth(1) == lexer.Number)
}

// eatSignedNumber consumes an optional leading '-' followed by a Number.
func eatSignedNumber(p *Parser, recovery TokenSet) bool {
	if p.Nth(0) == lexer.Hyphen && p.Nth(1) == lexer.Number {
		p.Bump()
	}
	if p.Nth(0) == lexer.Number {
		p.Bump()
		return true
	}
	p.ErrRecover("expected a number", recovery)
	return false
}

// valueRecordLiteral consumes either a bare advance number, or a full
// <xPlacement yPlacement xAdvance yAdvance> record.
func valueRecordLiteral(p *Parser, recovery TokenSet) {
	p.StartNode(syntax.ValueRecordNode)
	if p.Nth(0) == lexer.LAngle {
		p.Bump()
		for i := 0; i < 4 && signedNumberStart(p); i++ {
			eatSignedNumber(p, recovery.Add(lexer.RAngle))
		}
		p.ExpectRecover(lexer.RAngle, recovery)
	} else {
		eatSignedNumber(p, recovery)
	}
	p.FinishNode()
}
