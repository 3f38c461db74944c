package parser

import (
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// substituteRule parses any of the sub/substitute/rsub/reversesub forms.
// The parser deliberately stays shape-agnostic here: whether a given rule
// is single, multiple, ligature, alternate or chaining-contextual is a
// classification the ast/validate layer makes by inspecting the glyph
// sequences this produces (arity, presence of a 'from', presence of
// context-mark tokens), not something the grammar hard-codes per form.
func substituteRule(p *Parser, recovery TokenSet) {
	p.StartNode(syntax.SubstituteNode)
	p.Bump() // sub | substitute | rsub | reversesub

	glyphSequence(p, recovery.Add(lexer.KwBy).Add(lexer.KwFrom).Add(lexer.Semi))

	switch p.Nth(0) {
	case lexer.KwBy:
		p.Bump()
		glyphSequence(p, recovery.Add(lexer.Semi))
	case lexer.KwFrom:
		p.Bump()
		glyphSequence(p, recovery.Add(lexer.Semi))
	}
	p.ExpectSemi()
	p.FinishNode()
}

// positionRule parses pos/position/enum-pos forms, including the
// mark-attachment variants (cursive/base/ligature/mark-to-mark), which are
// distinguished by a leading contextual keyword right after 'pos'.
func positionRule(p *Parser, recovery TokenSet) {
	p.StartNode(syntax.PositionNode)
	if p.Nth(0) == lexer.KwEnum {
		p.Bump()
	}
	p.Eat(lexer.KwPos)
	p.Eat(lexer.KwPosition)

	switch p.Nth(0) {
	case lexer.KwCursive:
		p.Bump()
		glyphClassOperand(p, recovery)
		anchorLiteral(p, recovery)
		anchorLiteral(p, recovery)
	case lexer.KwBase, lexer.KwMark:
		p.Bump()
		glyphClassOperand(p, recovery)
		for p.Nth(0) == lexer.LAngle {
			anchorLiteral(p, recovery)
			p.ExpectRecover(lexer.KwMark, recovery.Add(lexer.Semi))
			p.ExpectRecover(lexer.NamedClass, recovery.Add(lexer.Semi))
		}
	case lexer.KwLigComponent:
		p.Bump()
		glyphClassOperand(p, recovery)
		for p.Nth(0) == lexer.LAngle || p.Nth(0) == lexer.KwLigComponent {
			p.Eat(lexer.KwLigComponent)
			anchorLiteral(p, recovery)
			p.ExpectRecover(lexer.KwMark, recovery.Add(lexer.Semi))
			p.ExpectRecover(lexer.NamedClass, recovery.Add(lexer.Semi))
		}
	default:
		positionSequence(p, recovery)
	}
	p.ExpectSemi()
	p.FinishNode()
}

// positionSequence parses the generic value-record-interleaved glyph
// sequence shared by single, pair and chaining-contextual positioning
// rules: glyph|class, optionally a value record, repeated.
func positionSequence(p *Parser, recovery TokenSet) {
	for glyphAtomStart.Contains(p.Nth(0)) || p.Nth(0) == lexer.LBracket || p.Nth(0) == lexer.Quote {
		if p.Nth(0) == lexer.Quote {
			p.Bump()
		}
		if !glyphClassOperand(p, recovery.Add(lexer.Semi)) {
			break
		}
		if signedNumberStart(p) || p.Nth(0) == lexer.LAngle {
			valueRecordLiteral(p, recovery.Add(lexer.Semi))
		}
	}
}

// ignoreRule parses 'ignore sub <ctx>, <ctx>, ...;' or 'ignore pos ...;'.
func ignoreRule(p *Parser, recovery TokenSet) {
	isPos := p.Nth(1) == lexer.KwPos || p.Nth(1) == lexer.KwPosition
	if isPos {
		p.StartNode(syntax.PositionNode)
	} else {
		p.StartNode(syntax.SubstituteNode)
	}
	p.Bump() // ignore
	p.EatAny(NewTokenSet(lexer.KwSub, lexer.KwSubstitute, lexer.KwPos, lexer.KwPosition))
	for {
		glyphSequence(p, recovery.Add(lexer.Comma).Add(lexer.Semi))
		if !p.Eat(lexer.Comma) {
			break
		}
	}
	p.ExpectSemi()
	p.FinishNode()
}
