package parser

import (
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// includeDirective parses 'include (path/to/file.fea);'. It produces only
// an IncludeNode over the literal statement tokens from the host source —
// the included file's own tree is parsed separately and tracked as a
// sibling result (see ParseResult.Includes in api.go), never spliced into
// this node's children. Doing otherwise would break the round-trip
// invariant: concatenating this tree's leaves must reproduce exactly the
// bytes of the file it was built from, and an include statement's bytes
// are the literal "include (...);" text, not the referenced file's text.
func includeDirective(p *Parser) {
	p.StartNode(syntax.IncludeNode)
	p.Eat(lexer.KwInclude)
	p.ExpectRecover(lexer.LParen, TopSemi)
	for !p.AtEOF() && p.Nth(0) != lexer.RParen && p.Nth(0) != lexer.Semi {
		p.Bump()
	}
	p.ExpectRecover(lexer.RParen, TopSemi)
	p.ExpectSemi()
	p.FinishNode()
}

// IncludePath extracts the literal path text from a parsed IncludeNode,
// trimming the surrounding parens and whitespace trivia that the grammar
// above intentionally keeps as children for round-trip fidelity.
func IncludePath(n *syntax.Node) string {
	if n == nil || n.Kind != syntax.IncludeNode {
		return ""
	}
	inParens := false
	var path []byte
	for _, tok := range n.IterTokens() {
		switch tok.Kind {
		case syntax.FromToken(lexer.LParen):
			inParens = true
		case syntax.FromToken(lexer.RParen):
			inParens = false
		case syntax.FromToken(lexer.Whitespace), syntax.FromToken(lexer.Newline), syntax.FromToken(lexer.Comment):
			// skip trivia
		default:
			if inParens {
				path = append(path, tok.Text...)
			}
		}
	}
	return string(path)
}
