package ast

import (
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// GlyphClassDef is `@name = <class-operand>;`.
type GlyphClassDef struct{ Node }

func CastGlyphClassDef(n *syntax.Node) GlyphClassDef {
	if n == nil || n.Kind != syntax.GlyphClassDefNode {
		return GlyphClassDef{}
	}
	return GlyphClassDef{Node{n}}
}

// Name returns the declared class's name, without the leading '@'.
func (d GlyphClassDef) Name() string {
	if d.n == nil {
		return ""
	}
	if t := d.n.FirstTokenOfKind(syntax.FromToken(lexer.NamedClass)); t != nil {
		return trimAt(t.Text)
	}
	return ""
}

// Operand returns the right-hand side: either a GlyphClassLiteral node, a
// GlyphClassRef node, or a bare GlyphName/Cid token (a singleton class).
// Exactly one of Literal/Ref/Atom is meaningful for a given definition.
func (d GlyphClassDef) Operand() (*syntax.Node, *syntax.Token) {
	if d.n == nil {
		return nil, nil
	}
	for _, c := range d.n.Children {
		if c.Node != nil && (c.Node.Kind == syntax.GlyphClassLiteralNode || c.Node.Kind == syntax.GlyphClassRefNode) {
			return c.Node, nil
		}
		if c.Token != nil && (c.Token.Kind == syntax.FromToken(lexer.GlyphName) || c.Token.Kind == syntax.FromToken(lexer.Cid)) {
			return nil, c.Token
		}
	}
	return nil, nil
}

// IsSelfAppend reports whether the operand is a bracketed literal whose
// first element is a reference back to this same class name — FEA's
// `@C = [@C A B];` append idiom, the one redeclaration form the validator
// must allow.
func (d GlyphClassDef) IsSelfAppend() bool {
	lit, _ := d.Operand()
	if lit == nil || lit.Kind != syntax.GlyphClassLiteralNode {
		return false
	}
	atoms := Atoms(lit)
	return len(atoms) > 0 && atoms[0].ClassRef == d.Name()
}

func trimAt(s string) string {
	if len(s) > 0 && s[0] == '@' {
		return s[1:]
	}
	return s
}

// GlyphClassLiteral is a bracketed `[a b @c ...]` literal.
type GlyphClassLiteral struct{ Node }

func CastGlyphClassLiteral(n *syntax.Node) GlyphClassLiteral {
	if n == nil || n.Kind != syntax.GlyphClassLiteralNode {
		return GlyphClassLiteral{}
	}
	return GlyphClassLiteral{Node{n}}
}

// Atom is one element of a glyph-class literal or a glyph sequence: a bare
// glyph name, a CID, a named-class reference, or a range boundary pair.
type Atom struct {
	GlyphName  string // set if this atom is a bare name
	Cid        string // set if this atom is a \CID (includes the backslash)
	ClassRef   string // set if this atom is a @name reference (without '@')
	RangeEnd   string // set if a '-' range end follows (glyph name or CID)
}

// Atoms walks a GlyphClassLiteral's or a GlyphSeqNode's children and
// returns each glyph reference it contains, collapsing a bare name/CID
// followed by a '-' range-end token into a single Atom.
func Atoms(n *syntax.Node) []Atom {
	if n == nil {
		return nil
	}
	var out []Atom
	toks := n.ChildTokens()
	nested := n.ChildNodes()
	// Walk children in original order by re-deriving from n.Children,
	// since ChildTokens/ChildNodes split the two apart.
	_ = toks
	_ = nested
	pendingRangeStart := ""
	for i := 0; i < len(n.Children); i++ {
		c := n.Children[i]
		switch {
		case c.Node != nil && c.Node.Kind == syntax.GlyphClassRefNode:
			if t := c.Node.FirstTokenOfKind(syntax.FromToken(lexer.NamedClass)); t != nil {
				out = append(out, Atom{ClassRef: trimAt(t.Text)})
			}
		case c.Token != nil && c.Token.Kind == syntax.FromToken(lexer.GlyphName):
			pendingRangeStart = c.Token.Text
			out = append(out, Atom{GlyphName: c.Token.Text})
		case c.Token != nil && c.Token.Kind == syntax.FromToken(lexer.Cid):
			pendingRangeStart = c.Token.Text
			out = append(out, Atom{Cid: c.Token.Text})
		case c.Token != nil && c.Token.Kind == syntax.FromToken(lexer.Hyphen) && pendingRangeStart != "" && len(out) > 0:
			// range end follows in the next significant child
			if i+1 < len(n.Children) && n.Children[i+1].Token != nil {
				out[len(out)-1].RangeEnd = n.Children[i+1].Token.Text
				i++
			}
			pendingRangeStart = ""
		}
	}
	return out
}

// GlyphClassRef is a bare `@name` reference.
type GlyphClassRef struct{ Node }

func CastGlyphClassRef(n *syntax.Node) GlyphClassRef {
	if n == nil || n.Kind != syntax.GlyphClassRefNode {
		return GlyphClassRef{}
	}
	return GlyphClassRef{Node{n}}
}

func (r GlyphClassRef) Name() string {
	if r.n == nil {
		return ""
	}
	if t := r.n.FirstTokenOfKind(syntax.FromToken(lexer.NamedClass)); t != nil {
		return trimAt(t.Text)
	}
	return ""
}

// GlyphSeq is a space-separated sequence of glyph-class operands, used for
// rule input/output sequences and for `ignore` contexts. Atoms on a
// GlyphSeq additionally report whether a ' contextual marker followed it
// (Marked), since that's what distinguishes chaining-contextual rules.
type GlyphSeq struct{ Node }

func CastGlyphSeq(n *syntax.Node) GlyphSeq {
	if n == nil || n.Kind != syntax.GlyphSeqNode {
		return GlyphSeq{}
	}
	return GlyphSeq{Node{n}}
}

// Operands returns each top-level operand of the sequence: either a
// GlyphClassLiteral/GlyphClassRef node, or a bare glyph/CID token, paired
// with whether a ' contextual marker immediately followed it (FEA's
// `a b' c` marks b).
type SeqOperand struct {
	Literal *syntax.Node // GlyphClassLiteralNode, or nil
	Ref     *syntax.Node // GlyphClassRefNode, or nil
	Atom    *syntax.Token // bare GlyphName/Cid token, or nil
	Marked  bool
}

func (s GlyphSeq) Operands() []SeqOperand {
	if s.n == nil {
		return nil
	}
	var out []SeqOperand
	rangeEnd := false
	for _, c := range s.n.Children {
		switch {
		case c.Token != nil && c.Token.Kind == syntax.FromToken(lexer.Quote):
			if len(out) > 0 {
				out[len(out)-1].Marked = true
			}
		case c.Node != nil && c.Node.Kind == syntax.GlyphClassLiteralNode:
			out = append(out, SeqOperand{Literal: c.Node})
		case c.Node != nil && c.Node.Kind == syntax.GlyphClassRefNode:
			out = append(out, SeqOperand{Ref: c.Node})
		case c.Token != nil && (c.Token.Kind == syntax.FromToken(lexer.GlyphName) || c.Token.Kind == syntax.FromToken(lexer.Cid)):
			if rangeEnd {
				rangeEnd = false
				continue
			}
			out = append(out, SeqOperand{Atom: c.Token})
		case c.Token != nil && c.Token.Kind == syntax.FromToken(lexer.Hyphen):
			// range-end marker on the previous operand; the range-end
			// token itself is consumed next iteration and ignored here
			// since classification only needs the operand's own shape,
			// not range expansion (that is the validator/compiler's job
			// against the GlyphMap).
			rangeEnd = true
		}
	}
	return out
}

// Len reports the number of top-level operands (the sequence's arity).
func (s GlyphSeq) Len() int { return len(s.Operands()) }

// MarkClassDef is `markClass <glyphs> <anchor> @className;`.
type MarkClassDef struct{ Node }

func CastMarkClassDef(n *syntax.Node) MarkClassDef {
	if n == nil || n.Kind != syntax.MarkClassDefNode {
		return MarkClassDef{}
	}
	return MarkClassDef{Node{n}}
}

func (m MarkClassDef) ClassName() string {
	if m.n == nil {
		return ""
	}
	if t := m.n.FirstTokenOfKind(syntax.FromToken(lexer.NamedClass)); t != nil {
		return trimAt(t.Text)
	}
	return ""
}

// Glyphs returns the glyph-class operand node (literal, ref, or nil for a
// bare singleton atom — use Raw() token inspection in that rare case).
func (m MarkClassDef) Glyphs() *syntax.Node {
	if m.n == nil {
		return nil
	}
	for _, c := range m.n.ChildNodes() {
		if c.Kind == syntax.GlyphClassLiteralNode || c.Kind == syntax.GlyphClassRefNode {
			return c
		}
	}
	return nil
}

func (m MarkClassDef) Anchor() Anchor {
	if m.n == nil {
		return Anchor{}
	}
	return CastAnchor(m.n.FirstChildOfKind(syntax.AnchorNode))
}

// AnchorDef is `anchorDef <x> <y> <name>;`.
type AnchorDef struct{ Node }

func CastAnchorDef(n *syntax.Node) AnchorDef {
	if n == nil || n.Kind != syntax.AnchorDefNode {
		return AnchorDef{}
	}
	return AnchorDef{Node{n}}
}

func (a AnchorDef) Name() string {
	if a.n == nil {
		return ""
	}
	if t := a.n.FirstTokenOfKind(syntax.FromToken(lexer.GlyphName)); t != nil {
		return t.Text
	}
	return ""
}

// XY returns the two coordinate numbers as written (with an optional
// leading '-' folded into the text), in source order.
func (a AnchorDef) XY() (string, string) {
	return numberPair(a.n)
}

// numberPair scans n's direct children for up to two (optionally signed)
// numeric literals, returning their text with the sign folded in.
func numberPair(n *syntax.Node) (string, string) {
	if n == nil {
		return "", ""
	}
	var nums []string
	pendingSign := ""
	for _, c := range n.Children {
		if c.Token == nil {
			continue
		}
		switch c.Token.Kind {
		case syntax.FromToken(lexer.Hyphen):
			pendingSign = "-"
		case syntax.FromToken(lexer.Number):
			nums = append(nums, pendingSign+c.Token.Text)
			pendingSign = ""
			if len(nums) == 2 {
				return nums[0], nums[1]
			}
		}
	}
	if len(nums) == 1 {
		return nums[0], ""
	}
	return "", ""
}

// Anchor is `<anchor x y [cp]>` / `<anchor NULL>` / `<anchor @name>`.
type Anchor struct{ Node }

func CastAnchor(n *syntax.Node) Anchor {
	if n == nil || n.Kind != syntax.AnchorNode {
		return Anchor{}
	}
	return Anchor{Node{n}}
}

// IsNull reports whether this is `<anchor NULL>`.
func (a Anchor) IsNull() bool {
	if a.n == nil {
		return false
	}
	return a.n.FirstTokenOfKind(syntax.FromToken(lexer.KwNull)) != nil
}

// Ref returns the referenced anchorDef name (without '@'), if this anchor
// is a `<anchor @name>` reference.
func (a Anchor) Ref() string {
	if a.n == nil {
		return ""
	}
	if t := a.n.FirstTokenOfKind(syntax.FromToken(lexer.NamedClass)); t != nil {
		return trimAt(t.Text)
	}
	return ""
}

// XY returns the literal coordinate pair, if this anchor carries one.
func (a Anchor) XY() (string, string) { return numberPair(a.n) }

// ValueRecordDef is `valueRecordDef <record> <name>;`.
type ValueRecordDef struct{ Node }

func CastValueRecordDef(n *syntax.Node) ValueRecordDef {
	if n == nil || n.Kind != syntax.ValueRecordDefNode {
		return ValueRecordDef{}
	}
	return ValueRecordDef{Node{n}}
}

func (v ValueRecordDef) Name() string {
	if v.n == nil {
		return ""
	}
	if t := v.n.FirstTokenOfKind(syntax.FromToken(lexer.GlyphName)); t != nil {
		return t.Text
	}
	return ""
}

func (v ValueRecordDef) Record() ValueRecord {
	if v.n == nil {
		return ValueRecord{}
	}
	return CastValueRecord(v.n.FirstChildOfKind(syntax.ValueRecordNode))
}

// ValueRecord is either a bare advance number or a full
// `<xPlacement yPlacement xAdvance yAdvance>` record.
type ValueRecord struct{ Node }

func CastValueRecord(n *syntax.Node) ValueRecord {
	if n == nil || n.Kind != syntax.ValueRecordNode {
		return ValueRecord{}
	}
	return ValueRecord{Node{n}}
}

// Numbers returns every (optionally signed) number in the record, in
// source order: either [xAdvance] for the bare form, or
// [xPlacement, yPlacement, xAdvance, yAdvance] for the full form.
func (v ValueRecord) Numbers() []string {
	if v.n == nil {
		return nil
	}
	var nums []string
	sign := ""
	for _, c := range v.n.Children {
		if c.Token == nil {
			continue
		}
		switch c.Token.Kind {
		case syntax.FromToken(lexer.Hyphen):
			sign = "-"
		case syntax.FromToken(lexer.Number):
			nums = append(nums, sign+c.Token.Text)
			sign = ""
		}
	}
	return nums
}
