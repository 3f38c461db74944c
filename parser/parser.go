/*
Package parser is a hand-written recursive-descent parser that turns a
lexer.Token stream into a syntax.Node green tree, with statement-level
error recovery: a malformed statement becomes an ErrorNode and parsing
resumes at the next token in the enclosing production's recovery set,
rather than aborting the whole parse.
*/
package parser

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/otlayout/fea/diag"
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

func tracer() tracing.Trace {
	return tracing.Select("fea.core")
}

// Parser drives token consumption and green-tree construction for a
// single source (the root file or one included file — include expansion
// runs a fresh Parser per file and stitches results together, see
// include.go).
type Parser struct {
	src     string
	file    string // file identity for diagnostic spans: the root file's name or an include's resolved ID
	toks    []lexer.Token
	rpos    int // index into toks, including trivia
	builder syntax.Builder
	diags   *diag.Bag
}

// New creates a Parser over src, already fully lexed.
func New(file, src string) *Parser {
	return &Parser{
		src:   src,
		file:  file,
		toks:  lexer.Lex(src),
		diags: diag.NewBag(),
	}
}

// Diagnostics returns the diagnostics accumulated so far.
func (p *Parser) Diagnostics() *diag.Bag { return p.diags }

func (p *Parser) isTrivia(k lexer.Kind) bool {
	return k == lexer.Whitespace || k == lexer.Newline || k == lexer.Comment
}

// skipTrivia emits any pending trivia tokens as leaves and advances past
// them, so that the next raw token is a significant one (or EOF).
func (p *Parser) skipTrivia() {
	for p.rpos < len(p.toks) && p.isTrivia(p.toks[p.rpos].Kind) {
		t := p.toks[p.rpos]
		p.builder.Token(syntax.FromToken(t.Kind), p.src[t.Start:t.End])
		p.rpos++
	}
}

// EatTrivia is the public form used by top-level grammar entry points
// that want leading trivia attached before opening their node (mirrors
// the teacher grammar's `parser.eat_trivia()` calls).
func (p *Parser) EatTrivia() { p.skipTrivia() }

// nthRaw peeks the n-th significant token ahead (0 = next), without
// consuming anything or touching the builder.
func (p *Parser) nthRaw(n int) lexer.Token {
	i := p.rpos
	seen := 0
	for i < len(p.toks) {
		if !p.isTrivia(p.toks[i].Kind) {
			if seen == n {
				return p.toks[i]
			}
			seen++
		}
		i++
	}
	return lexer.Token{Kind: lexer.EOF, Start: len(p.src), End: len(p.src)}
}

// Nth returns the Kind of the n-th significant token ahead.
func (p *Parser) Nth(n int) lexer.Kind { return p.nthRaw(n).Kind }

// NthText returns the literal text of the n-th significant token ahead.
func (p *Parser) NthText(n int) string {
	t := p.nthRaw(n)
	if t.Start >= t.End {
		return ""
	}
	return p.src[t.Start:t.End]
}

// CurrentSpan returns the absolute span of the next significant token.
func (p *Parser) CurrentSpan() diag.Span {
	t := p.nthRaw(0)
	return diag.Span{File: p.file, Start: t.Start, End: t.End}
}

// AtEOF reports whether parsing has reached the end of input.
func (p *Parser) AtEOF() bool { return p.Nth(0) == lexer.EOF }

// Matches reports whether the next significant token's kind is in set.
func (p *Parser) Matches(n int, set TokenSet) bool {
	return set.Contains(p.Nth(n))
}

// StartNode opens a green node, first flushing any pending trivia so it is
// attached to the *previous* sibling rather than becoming this node's
// first child.
func (p *Parser) StartNode(kind syntax.Kind) {
	p.skipTrivia()
	p.builder.StartNode(kind)
}

// FinishNode closes the innermost open green node.
func (p *Parser) FinishNode() { p.builder.FinishNode() }

// StartNodeBefore wraps the last n finished children into a new node,
// for constructs disambiguated only after the fact (see syntax.Builder).
func (p *Parser) StartNodeBefore(kind syntax.Kind, n int) {
	p.builder.StartNodeBefore(kind, n)
}

// Bump unconditionally consumes the next significant token as a leaf.
func (p *Parser) Bump() lexer.Token {
	p.skipTrivia()
	t := p.toks[p.rpos]
	p.builder.Token(syntax.FromToken(t.Kind), p.src[t.Start:t.End])
	p.rpos++
	return t
}

// Eat consumes the next token if its kind matches; reports whether it did.
func (p *Parser) Eat(kind lexer.Kind) bool {
	if p.Nth(0) != kind {
		return false
	}
	p.Bump()
	return true
}

// EatAny consumes the next token if it is a member of set.
func (p *Parser) EatAny(set TokenSet) bool {
	if !set.Contains(p.Nth(0)) {
		return false
	}
	p.Bump()
	return true
}

// EatRemap consumes the next token as a leaf but tags it with remapKind
// instead of its lexed kind — used for contextual keywords that the
// lexer had no way to distinguish from a bare glyph name, e.g. a feature
// tag that happens to read like a keyword.
func (p *Parser) EatRemap(remapKind syntax.Kind) {
	p.skipTrivia()
	t := p.toks[p.rpos]
	p.builder.Token(remapKind, p.src[t.Start:t.End])
	p.rpos++
}

// Err records an error-severity diagnostic at the current position.
func (p *Parser) Err(format string, args ...interface{}) {
	p.diags.Errorf(p.CurrentSpan(), format, args...)
}

// Warn records a warning-severity diagnostic at the current position.
func (p *Parser) Warn(format string, args ...interface{}) {
	p.diags.Warnf(p.CurrentSpan(), format, args...)
}

// RawError records an error-severity diagnostic at an explicit span.
func (p *Parser) RawError(span diag.Span, format string, args ...interface{}) {
	p.diags.Errorf(span, format, args...)
}

// Expect consumes kind or reports an error without recovering (the caller
// is responsible for subsequent recovery, e.g. via ExpectRecover).
func (p *Parser) Expect(kind lexer.Kind) bool {
	if p.Eat(kind) {
		return true
	}
	p.Err("expected %v, found %v", kind, p.Nth(0))
	return false
}

// ExpectRecover consumes kind, or on mismatch emits an error and eats
// tokens into an ErrorNode until recovery is reached.
func (p *Parser) ExpectRecover(kind lexer.Kind, recovery TokenSet) bool {
	if p.Eat(kind) {
		return true
	}
	p.ErrRecover(errUnexpected(kind, p.Nth(0)), recovery)
	return false
}

func errUnexpected(want, got lexer.Kind) string {
	return "expected " + want.String() + ", found " + got.String()
}

// ErrAndBump reports an error at the current token, then consumes it as a
// leaf (used when the offending token itself should still count as
// "progress", e.g. a genuinely illegal-but-harmless keyword repetition).
func (p *Parser) ErrAndBump(format string, args ...interface{}) {
	p.Err(format, args...)
	if !p.AtEOF() {
		p.Bump()
	}
}

// EatUntil consumes tokens (wrapping them in an ErrorNode) until the next
// significant token is a member of recovery, or EOF is reached.
func (p *Parser) EatUntil(recovery TokenSet) {
	if p.AtEOF() || p.Matches(0, recovery) {
		return
	}
	p.StartNode(syntax.ErrorNode)
	for !p.AtEOF() && !p.Matches(0, recovery) {
		p.Bump()
	}
	p.FinishNode()
}

// ErrRecover reports an error at the current position, then recovers via
// EatUntil — the standard "skip the garbage, resume at something
// sensible" pattern used throughout the grammar.
func (p *Parser) ErrRecover(message string, recovery TokenSet) {
	p.Err("%s", message)
	p.EatUntil(recovery)
}

// ExpectSemi expects a terminating ';', recovering to the top-level or
// feature-statement start sets on failure.
func (p *Parser) ExpectSemi() bool {
	return p.ExpectRecover(lexer.Semi, TopSemi.Union(FeatureStatementStart))
}

// Finish closes the parse, returning the built green root and the
// accumulated diagnostics.
func (p *Parser) Finish() (*syntax.Node, *diag.Bag) {
	return p.builder.Finish(), p.diags
}
