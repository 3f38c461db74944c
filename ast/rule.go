package ast

import (
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// Substitute is any `sub`/`substitute`/`rsub`/`reversesub`/`ignore sub`
// statement. The grammar stays shape-agnostic (see parser/grammar_rule.go);
// classification into single/multiple/ligature/alternate/chaining happens
// here, by inspecting the glyph sequences this view exposes — the same
// division of labor the spec assigns to "validator classifies by arity".
type Substitute struct{ Node }

func CastSubstitute(n *syntax.Node) Substitute {
	if n == nil || n.Kind != syntax.SubstituteNode {
		return Substitute{}
	}
	return Substitute{Node{n}}
}

func (s Substitute) IsReverse() bool {
	if s.n == nil {
		return false
	}
	return s.n.FirstTokenOfKind(syntax.FromToken(lexer.KwRsub)) != nil ||
		s.n.FirstTokenOfKind(syntax.FromToken(lexer.KwReversesub)) != nil
}

func (s Substitute) IsIgnore() bool {
	if s.n == nil {
		return false
	}
	return s.n.FirstTokenOfKind(syntax.FromToken(lexer.KwIgnore)) != nil
}

// Sequences returns every GlyphSeqNode child of this statement, in source
// order. A non-ignore, non-"from" rule has exactly one: the input. A rule
// with `by <seq>` has two: input then output. An `ignore` rule can have
// several, one per comma-separated context. A chaining rule's single
// input sequence carries '-marked elements for its nominal input glyphs,
// with unmarked leading/trailing elements forming backtrack/lookahead.
func (s Substitute) Sequences() []GlyphSeq {
	if s.n == nil {
		return nil
	}
	var out []GlyphSeq
	for _, c := range s.n.ChildNodes() {
		if c.Kind == syntax.GlyphSeqNode {
			out = append(out, CastGlyphSeq(c))
		}
	}
	return out
}

// HasFrom reports whether this is a `sub ... from [...]` alternate form.
func (s Substitute) HasFrom() bool {
	if s.n == nil {
		return false
	}
	return s.n.FirstTokenOfKind(syntax.FromToken(lexer.KwFrom)) != nil
}

// HasBy reports whether this rule has a `by` clause (as opposed to a bare
// context declaration used only for `ignore`).
func (s Substitute) HasBy() bool {
	if s.n == nil {
		return false
	}
	return s.n.FirstTokenOfKind(syntax.FromToken(lexer.KwBy)) != nil
}

// IsChaining reports whether any sequence operand carries a ' contextual
// marker — the single structural signal that distinguishes a chaining
// contextual rule from a direct one, per the spec's classification rule.
func (s Substitute) IsChaining() bool {
	for _, seq := range s.Sequences() {
		for _, op := range seq.Operands() {
			if op.Marked {
				return true
			}
		}
	}
	return false
}

// SubstKind enumerates the GSUB lookup-type shapes a Substitute statement
// can classify as.
type SubstKind int

const (
	SubstUnknown SubstKind = iota
	SubstSingle            // type 1: 1 input -> 1 output, equal domain/range size
	SubstMultiple          // type 2: 1 input -> N>1 outputs
	SubstAlternate         // type 3: 1 input -> 1 output class of size > 1 (sub ... from [...])
	SubstLigature          // type 4: N>1 inputs -> 1 output
	SubstChaining          // type 6: any ' marked sequence
	SubstReverseChaining   // type 8: rsub/reversesub
)

// Classify determines the substitution kind from the statement's shape,
// following the spec's literal arity rules (§4.4.4): ligature when
// multiple inputs collapse to one output, multiple when one input fans
// out to several outputs, alternate when the output is a class reached
// via `from`, chaining whenever a ' marker is present anywhere, and
// single otherwise.
func (s Substitute) Classify() SubstKind {
	if s.IsReverse() {
		return SubstReverseChaining
	}
	if s.IsChaining() {
		return SubstChaining
	}
	seqs := s.Sequences()
	if len(seqs) == 0 {
		return SubstUnknown
	}
	input := seqs[0]
	if s.HasFrom() {
		return SubstAlternate
	}
	if !s.HasBy() {
		return SubstUnknown // ignore-context declaration, no output
	}
	if len(seqs) < 2 {
		return SubstUnknown
	}
	output := seqs[1]
	switch {
	case input.Len() > 1:
		return SubstLigature
	case output.Len() > 1:
		return SubstMultiple
	default:
		return SubstSingle
	}
}

// Position is any `pos`/`position`/`enum pos`/`ignore pos` statement,
// including the mark-attachment forms (cursive/base/ligature/mark-to-mark)
// that the grammar tags by a leading keyword inside the node.
type Position struct{ Node }

func CastPosition(n *syntax.Node) Position {
	if n == nil || n.Kind != syntax.PositionNode {
		return Position{}
	}
	return Position{Node{n}}
}

func (p Position) IsEnum() bool {
	if p.n == nil {
		return false
	}
	return p.n.FirstTokenOfKind(syntax.FromToken(lexer.KwEnum)) != nil
}

func (p Position) IsIgnore() bool {
	if p.n == nil {
		return false
	}
	return p.n.FirstTokenOfKind(syntax.FromToken(lexer.KwIgnore)) != nil
}

// PosForm distinguishes the mark-attachment-free forms (single/pair/
// chaining, all parsed via positionSequence) from the four anchor-based
// attachment forms.
type PosForm int

const (
	PosGeneric PosForm = iota // single, pair, or chaining contextual
	PosCursive
	PosMarkToBase
	PosMarkToLigature
	PosMarkToMark
)

func (p Position) Form() PosForm {
	if p.n == nil {
		return PosGeneric
	}
	switch {
	case p.n.FirstTokenOfKind(syntax.FromToken(lexer.KwCursive)) != nil:
		return PosCursive
	case p.n.FirstTokenOfKind(syntax.FromToken(lexer.KwLigComponent)) != nil:
		return PosMarkToLigature
	case p.n.FirstTokenOfKind(syntax.FromToken(lexer.KwBase)) != nil:
		return PosMarkToBase
	case p.n.FirstTokenOfKind(syntax.FromToken(lexer.KwMark)) != nil && p.markIsLeading():
		return PosMarkToMark
	}
	return PosGeneric
}

// markIsLeading reports whether the `mark` keyword is the statement's
// second child (right after pos/position), which is how mark-to-mark
// (`pos mark @mkAbove <anchor ...> mark @mkBelow;`) is told apart from the
// `<anchor> mark @class` attachment clause that also uses the same
// keyword inside a base/ligComponent rule.
func (p Position) markIsLeading() bool {
	seenPos := false
	for _, c := range p.n.Children {
		if c.Token == nil {
			continue
		}
		switch c.Token.Kind {
		case syntax.FromToken(lexer.KwPos), syntax.FromToken(lexer.KwPosition):
			seenPos = true
		case syntax.FromToken(lexer.KwMark):
			return seenPos
		default:
			if seenPos {
				return false
			}
		}
	}
	return false
}

// GenericSequence returns the glyph/value-record-interleaved children of
// a PosGeneric statement: operands alternate with optional ValueRecordNode
// siblings, and ' markers flag chaining-contextual input glyphs, matching
// Substitute's chaining convention.
func (p Position) GenericSequence() []*syntax.Node {
	if p.n == nil {
		return nil
	}
	return p.n.ChildNodes()
}

// IsChaining reports whether any glyph-class operand in a generic
// position statement carries a ' contextual marker.
func (p Position) IsChaining() bool {
	if p.n == nil {
		return false
	}
	marked := false
	for _, c := range p.n.Children {
		if c.Token != nil && c.Token.Kind == syntax.FromToken(lexer.Quote) {
			marked = true
			continue
		}
		if marked {
			return true
		}
	}
	return false
}

// Anchors returns every AnchorNode child, in source order (two for
// cursive; one per attachment clause for base/ligComponent/mark-to-mark).
func (p Position) Anchors() []Anchor {
	if p.n == nil {
		return nil
	}
	var out []Anchor
	for _, c := range p.n.ChildNodes() {
		if c.Kind == syntax.AnchorNode {
			out = append(out, CastAnchor(c))
		}
	}
	return out
}

// MarkClasses returns every @markClass reference used in attachment
// clauses (base/ligComponent/mark-to-mark forms), in source order.
func (p Position) MarkClasses() []string {
	if p.n == nil {
		return nil
	}
	var out []string
	afterMark := false
	for _, c := range p.n.Children {
		if c.Token == nil {
			continue
		}
		if c.Token.Kind == syntax.FromToken(lexer.KwMark) {
			afterMark = true
			continue
		}
		if afterMark && c.Token.Kind == syntax.FromToken(lexer.NamedClass) {
			out = append(out, trimAt(c.Token.Text))
			afterMark = false
		}
	}
	return out
}

// SubtableMarker is an explicit `subtable;` split point.
type SubtableMarker struct{ Node }

func CastSubtableMarker(n *syntax.Node) SubtableMarker {
	if n == nil || n.Kind != syntax.SubtableMarkerNode {
		return SubtableMarker{}
	}
	return SubtableMarker{Node{n}}
}
