package parser

import (
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// blockStatementStart is the first-set of anything that can open a
// statement inside a feature or lookup block body.
var blockStatementStart = FeatureStatementStart

// featureBlock parses 'feature <tag> { ... } <tag>;'; the braced body is
// always expected.
func featureBlock(p *Parser) {
	p.StartNode(syntax.FeatureNode)
	p.Eat(lexer.KwFeature)
	expectTag(p, TopSemi)
	p.ExpectRecover(lexer.LBrace, TopSemi)
	for !p.AtEOF() && p.Nth(0) != lexer.RBrace {
		if !blockStatement(p, blockStatementStart.Add(lexer.RBrace)) {
			break
		}
	}
	p.ExpectRecover(lexer.RBrace, TopSemi)
	expectTag(p, TopSemi)
	p.ExpectSemi()
	p.FinishNode()
}

// lookupBlockTopLevel parses a top-level named lookup definition, which is
// identical in shape to a nested one but closes back out to TopLevelStart.
func lookupBlockTopLevel(p *Parser, recovery TokenSet) {
	lookupBlock(p, recovery)
}

// lookupBlock parses 'lookup <name> [useExtension] { ... } <name>;'. A bare
// 'lookup <name>;' (a reference to a lookup defined elsewhere) is handled
// by the caller before this is reached — see blockStatement.
func lookupBlock(p *Parser, recovery TokenSet) {
	p.StartNode(syntax.LookupBlockNode)
	p.Eat(lexer.KwLookup)
	p.ExpectRecover(lexer.GlyphName, recovery.Add(lexer.LBrace))
	p.Eat(lexer.KwUseExtension)
	p.ExpectRecover(lexer.LBrace, recovery)
	for !p.AtEOF() && p.Nth(0) != lexer.RBrace {
		if !blockStatement(p, blockStatementStart.Add(lexer.RBrace)) {
			break
		}
	}
	p.ExpectRecover(lexer.RBrace, recovery)
	p.ExpectRecover(lexer.GlyphName, recovery.Add(lexer.Semi))
	p.ExpectSemi()
	p.FinishNode()
}

// blockStatement parses one statement inside a feature or lookup body,
// returning false if no progress could be made (caller aborts the body).
func blockStatement(p *Parser, recovery TokenSet) bool {
	start := p.CurrentSpan().Start
	switch p.Nth(0) {
	case lexer.KwScript:
		scriptStatement(p)
	case lexer.KwLanguage:
		languageStatement(p)
	case lexer.KwLookupflag:
		lookupflagStatement(p, recovery)
	case lexer.KwSubtable:
		p.StartNode(syntax.SubtableMarkerNode)
		p.Bump()
		p.ExpectSemi()
		p.FinishNode()
	case lexer.KwLookup:
		if p.Nth(1) == lexer.GlyphName && (p.Nth(2) == lexer.Semi) {
			p.StartNode(syntax.LookupRefNode)
			p.Bump() // lookup
			p.Bump() // name
			p.ExpectSemi()
			p.FinishNode()
		} else {
			lookupBlock(p, recovery)
		}
	case lexer.NamedClass:
		namedGlyphClassDecl(p, recovery)
	case lexer.KwMarkClass:
		markClassDecl(p, recovery)
	case lexer.KwSub, lexer.KwSubstitute, lexer.KwRsub, lexer.KwReversesub:
		substituteRule(p, recovery)
	case lexer.KwPos, lexer.KwPosition, lexer.KwEnum:
		positionRule(p, recovery)
	case lexer.KwIgnore:
		ignoreRule(p, recovery)
	case lexer.KwParameters:
		parametersStatement(p, recovery)
	case lexer.KwFeatureNames:
		featureNamesBlock(p, recovery)
	case lexer.KwCvParameters:
		cvParametersBlock(p, recovery)
	case lexer.KwSizemenuname:
		sizemenunameStatement(p, recovery)
	case lexer.KwFeature:
		// aalt-style cross reference to another feature's rules.
		p.StartNode(syntax.LookupRefNode)
		p.Bump()
		expectTag(p, recovery.Add(lexer.Semi))
		p.ExpectSemi()
		p.FinishNode()
	default:
		p.ErrRecover("expected a statement inside this block", recovery)
	}
	return p.CurrentSpan().Start != start || p.AtEOF()
}

func scriptStatement(p *Parser) {
	p.StartNode(syntax.ScriptNode)
	p.Eat(lexer.KwScript)
	expectTag(p, TopSemi.Union(FeatureStatementStart))
	p.ExpectSemi()
	p.FinishNode()
}

func languageStatement(p *Parser) {
	p.StartNode(syntax.LanguageNode)
	p.Eat(lexer.KwLanguage)
	expectTag(p, TopSemi.Union(FeatureStatementStart))
	p.EatAny(NewTokenSet(lexer.KwIncludeDflt, lexer.KwExcludeDflt))
	p.ExpectSemi()
	p.FinishNode()
}

var lookupflagValueStart = NewTokenSet(
	lexer.KwRightToLeft, lexer.KwIgnoreBaseGlyphs, lexer.KwIgnoreLigatures,
	lexer.KwIgnoreMarks, lexer.KwMarkAttachmentType, lexer.KwUseMarkFilteringSet,
	lexer.Number,
)

// lookupflagStatement parses either the numeric shorthand
// 'lookupflag 6;' or the named-flag form
// 'lookupflag RightToLeft IgnoreMarks MarkAttachmentType @cls;'.
func lookupflagStatement(p *Parser, recovery TokenSet) {
	p.StartNode(syntax.LookupflagNode)
	p.Eat(lexer.KwLookupflag)
	for lookupflagValueStart.Contains(p.Nth(0)) {
		switch p.Nth(0) {
		case lexer.KwMarkAttachmentType, lexer.KwUseMarkFilteringSet:
			p.Bump()
			if p.Nth(0) == lexer.NamedClass {
				p.Bump()
			} else {
				p.ErrRecover("expected a mark glyph class", recovery.Add(lexer.Semi))
			}
		default:
			p.Bump()
		}
	}
	p.ExpectSemi()
	p.FinishNode()
}

func parametersStatement(p *Parser, recovery TokenSet) {
	p.StartNode(syntax.ParametersNode)
	p.Eat(lexer.KwParameters)
	for p.Nth(0) == lexer.Number && !p.AtEOF() {
		p.Bump()
	}
	p.ExpectSemi()
	p.FinishNode()
}

func sizemenunameStatement(p *Parser, recovery TokenSet) {
	p.StartNode(syntax.SizemenunameNode)
	p.Eat(lexer.KwSizemenuname)
	nameTableEntryTail(p, recovery)
	p.ExpectSemi()
	p.FinishNode()
}

// nameTableEntryTail consumes the optional platform/encoding/language ID
// triplet and mandatory quoted string shared by 'name', 'sizemenuname' and
// 'featureNames' entries.
func nameTableEntryTail(p *Parser, recovery TokenSet) {
	for i := 0; i < 3 && p.Nth(0) == lexer.Number; i++ {
		p.Bump()
	}
	p.ExpectRecover(lexer.String, recovery.Add(lexer.Semi))
}

func featureNamesBlock(p *Parser, recovery TokenSet) {
	p.StartNode(syntax.FeatureNamesNode)
	p.Eat(lexer.KwFeatureNames)
	p.ExpectRecover(lexer.LBrace, recovery)
	for !p.AtEOF() && p.Nth(0) != lexer.RBrace {
		if p.Nth(0) != lexer.KwName {
			p.ErrRecover("expected a 'name' entry", recovery.Add(lexer.RBrace))
			break
		}
		p.StartNode(syntax.NameEntryNode)
		p.Bump()
		nameTableEntryTail(p, recovery.Add(lexer.RBrace))
		p.ExpectSemi()
		p.FinishNode()
	}
	p.ExpectRecover(lexer.RBrace, recovery.Add(lexer.Semi))
	p.ExpectSemi()
	p.FinishNode()
}

func cvParametersBlock(p *Parser, recovery TokenSet) {
	p.StartNode(syntax.CvParametersNode)
	p.Eat(lexer.KwCvParameters)
	p.ExpectRecover(lexer.LBrace, recovery)
	for !p.AtEOF() && p.Nth(0) != lexer.RBrace {
		switch {
		case p.Nth(0) == lexer.KwFeatureNames || p.Nth(0) == lexer.GlyphName:
			p.StartNode(syntax.NameEntryNode)
			p.Bump() // the sub-block label (FeatUILabelNameID etc, glyph-shaped)
			if p.Nth(0) == lexer.LBrace {
				p.Bump()
				for !p.AtEOF() && p.Nth(0) != lexer.RBrace {
					if p.Nth(0) != lexer.KwName {
						p.ErrRecover("expected a 'name' entry", recovery.Add(lexer.RBrace))
						break
					}
					p.Bump()
					nameTableEntryTail(p, recovery.Add(lexer.RBrace))
					p.ExpectSemi()
				}
				p.ExpectRecover(lexer.RBrace, recovery.Add(lexer.Semi))
				p.ExpectSemi()
			} else {
				// Character/ParamUILabelNameID value list form.
				for p.Nth(0) == lexer.Number || p.Nth(0) == lexer.Cid {
					p.Bump()
				}
				p.ExpectSemi()
			}
			p.FinishNode()
		default:
			p.ErrRecover("expected a cvParameters entry", recovery.Add(lexer.RBrace))
		}
	}
	p.ExpectRecover(lexer.RBrace, recovery.Add(lexer.Semi))
	p.ExpectSemi()
	p.FinishNode()
}
