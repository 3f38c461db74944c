/*
Package lexer turns FEA source bytes into a flat, non-lookahead token
stream. It is single-pass and never halts: an unrecognizable byte produces
a single Error token covering the offending bytes, and scanning resumes at
the next recognizable boundary.

Keyword recognition is implemented with a prefix trie
(github.com/derekparker/trie) rather than a map: once an identifier-shaped
run has been scanned, the trie tells us in one pass whether it is a
reserved word, giving the "keywords matched after identifier recognition"
behavior the grammar needs without a second string-comparison loop.
*/
package lexer

import (
	"github.com/derekparker/trie"
)

var keywordTrie = buildKeywordTrie()

func buildKeywordTrie() *trie.Trie {
	t := trie.New()
	for word, kind := range keywordText {
		t.Add(word, kind)
	}
	return t
}

func lookupKeyword(text string) (Kind, bool) {
	node, ok := keywordTrie.Find(text)
	if !ok {
		return 0, false
	}
	kind, ok := node.Meta().(Kind)
	return kind, ok
}

func isNameStart(b byte) bool {
	return b == '_' || b == '.' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isNameCont(b byte) bool {
	return isNameStart(b) || b == '-' || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\v' || b == '\f' || b == '\r'
}

// Lex scans src in full and returns every token in source order, including
// trivia. The concatenation of the returned tokens' spans covers
// [0, len(src)) exactly — no byte is skipped.
func Lex(src string) []Token {
	l := &lexer{src: src}
	var toks []Token
	for {
		tok := l.next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) next() Token {
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Start: start, End: start}
	}
	b := l.src[l.pos]
	switch {
	case b == '\n':
		l.pos++
		return Token{Kind: Newline, Start: start, End: l.pos}
	case isSpace(b):
		for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			l.pos++
		}
		return Token{Kind: Whitespace, Start: start, End: l.pos}
	case b == '#':
		for l.pos < len(l.src) && l.src[l.pos] != '\n' {
			l.pos++
		}
		return Token{Kind: Comment, Start: start, End: l.pos}
	case b == '"':
		return l.lexString(start)
	case b == '\\':
		return l.lexCid(start)
	case b == '@':
		return l.lexNamedClass(start)
	case isDigit(b):
		return l.lexNumber(start)
	case b == '-':
		l.pos++
		return Token{Kind: Hyphen, Start: start, End: l.pos}
	case isNameStart(b):
		return l.lexNameOrKeyword(start)
	default:
		return l.lexPunctOrError(start)
	}
}

func (l *lexer) lexString(start int) Token {
	l.pos++ // opening quote
	for l.pos < len(l.src) {
		if l.src[l.pos] == '"' {
			l.pos++
			return Token{Kind: String, Start: start, End: l.pos}
		}
		if l.src[l.pos] == '\n' {
			break // unterminated: don't consume the newline
		}
		l.pos++
	}
	return Token{Kind: Error, Start: start, End: l.pos}
}

func (l *lexer) lexCid(start int) Token {
	l.pos++ // backslash
	digits := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == digits {
		return Token{Kind: Error, Start: start, End: l.pos}
	}
	return Token{Kind: Cid, Start: start, End: l.pos}
}

func (l *lexer) lexNamedClass(start int) Token {
	l.pos++ // '@'
	nameStart := l.pos
	for l.pos < len(l.src) && isNameCont(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == nameStart {
		return Token{Kind: Error, Start: start, End: l.pos}
	}
	return Token{Kind: NamedClass, Start: start, End: l.pos}
}

func (l *lexer) lexNumber(start int) Token {
	if l.pos+1 < len(l.src) && l.src[l.pos] == '0' && (l.src[l.pos+1] == 'x' || l.src[l.pos+1] == 'X') {
		l.pos += 2
		for l.pos < len(l.src) && isHexDigit(l.src[l.pos]) {
			l.pos++
		}
		return Token{Kind: Number, Start: start, End: l.pos}
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	return Token{Kind: Number, Start: start, End: l.pos}
}

func (l *lexer) lexNameOrKeyword(start int) Token {
	for l.pos < len(l.src) && isNameCont(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	if kind, ok := lookupKeyword(text); ok {
		return Token{Kind: kind, Start: start, End: l.pos}
	}
	return Token{Kind: GlyphName, Start: start, End: l.pos}
}

func (l *lexer) lexPunctOrError(start int) Token {
	b := l.src[l.pos]
	two := ""
	if l.pos+1 < len(l.src) {
		two = l.src[l.pos : l.pos+2]
	}
	switch two {
	case "::":
		l.pos += 2
		return Token{Kind: ColonColon, Start: start, End: l.pos}
	case "..":
		l.pos += 2
		return Token{Kind: DotDot, Start: start, End: l.pos}
	}
	kind, ok := map[byte]Kind{
		'{': LBrace, '}': RBrace,
		'[': LBracket, ']': RBracket,
		'(': LParen, ')': RParen,
		';': Semi, ',': Comma,
		'=': Equals, '<': LAngle, '>': RAngle,
		'\'': Quote,
	}[b]
	if !ok {
		l.pos++
		return Token{Kind: Error, Start: start, End: l.pos}
	}
	l.pos++
	return Token{Kind: kind, Start: start, End: l.pos}
}
