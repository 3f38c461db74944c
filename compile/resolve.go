/*
Package compile lowers a validated AST into the concrete lookup,
coverage, class-def and table structures of package ir, and hands the
finished tables to an external TableBuilder. By the time Compile runs,
Validate has already reported every unresolved name and malformed
literal, so resolution in this package stays silent: anything that
still fails to resolve here falls back to an empty set rather than
raising a second diagnostic for the same problem.
*/
package compile

import (
	"strconv"
	"strings"

	"github.com/otlayout/fea/ast"
	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
	"github.com/otlayout/fea/validate"
)

type scope struct {
	glyphs ir.GlyphMap
	sym    *validate.Symbols
}

func parseCID(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(text, "\\"))
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseSignedInt(text string) int32 {
	neg := strings.HasPrefix(text, "-")
	s := strings.TrimPrefix(text, "-")
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	n, err := strconv.ParseInt(s, base, 32)
	if err != nil {
		return 0
	}
	if neg {
		n = -n
	}
	return int32(n)
}

func (s *scope) gidOf(name, cid string) (ir.GID, bool) {
	if cid != "" {
		n, ok := parseCID(cid)
		if !ok {
			return 0, false
		}
		return s.glyphs.GIDByCID(n)
	}
	return s.glyphs.GID(name)
}

// resolveAtomSet resolves one ast.Atom into the (possibly multi-glyph, for
// a class reference or a range) set of GIDs it denotes.
func (s *scope) resolveAtomSet(a ast.Atom) *ir.GlyphSet {
	out := ir.NewGlyphSet()
	switch {
	case a.ClassRef != "":
		if cls, ok := s.sym.GlyphClasses[a.ClassRef]; ok {
			out.Union(cls)
		}
	case a.Cid != "":
		if a.RangeEnd != "" {
			lo, okLo := parseCID(a.Cid)
			hi, okHi := parseCID(a.RangeEnd)
			if okLo && okHi {
				for c := lo; c <= hi; c++ {
					if g, ok := s.glyphs.GIDByCID(c); ok {
						out.Add(g)
					}
				}
			}
			return out
		}
		if g, ok := s.gidOf("", a.Cid); ok {
			out.Add(g)
		}
	default:
		if g, ok := s.gidOf(a.GlyphName, ""); ok {
			out.Add(g)
		}
		if a.RangeEnd != "" {
			if g, ok := s.gidOf(a.RangeEnd, ""); ok {
				out.Add(g)
			}
		}
	}
	return out
}

// resolveAtomOrdered expands one atom into GIDs preserving source order —
// a class reference yields its declared member order (GlyphClassOrder),
// not the sorted coverage order GlyphSet exposes, so that positional
// substitution rules (`sub @A by @B;`) zip the two classes correctly.
func (s *scope) resolveAtomOrdered(a ast.Atom) []ir.GID {
	if a.ClassRef != "" {
		if ord, ok := s.sym.GlyphClassOrder[a.ClassRef]; ok {
			return append([]ir.GID(nil), ord...)
		}
		if cls, ok := s.sym.GlyphClasses[a.ClassRef]; ok {
			return cls.GIDs()
		}
		return nil
	}
	return s.resolveAtomSet(a).GIDs()
}

// operandSet resolves any glyph-class operand shape to its full GlyphSet
// (membership only — no positional guarantee).
func (s *scope) operandSet(lit, ref *syntax.Node, atomTok *syntax.Token) *ir.GlyphSet {
	switch {
	case lit != nil:
		out := ir.NewGlyphSet()
		for _, a := range ast.Atoms(lit) {
			out.Union(s.resolveAtomSet(a))
		}
		return out
	case ref != nil:
		out := ir.NewGlyphSet()
		if cls, ok := s.sym.GlyphClasses[ast.CastGlyphClassRef(ref).Name()]; ok {
			out.Union(cls)
		}
		return out
	case atomTok != nil:
		out := ir.NewGlyphSet()
		if atomTok.Kind == syntax.FromToken(lexer.Cid) {
			if g, ok := s.gidOf("", atomTok.Text); ok {
				out.Add(g)
			}
		} else if g, ok := s.gidOf(atomTok.Text, ""); ok {
			out.Add(g)
		}
		return out
	}
	return ir.NewGlyphSet()
}

// operandOrdered resolves any glyph-class operand shape preserving source
// order, the counterpart of operandSet used wherever positional
// correspondence matters.
func (s *scope) operandOrdered(lit, ref *syntax.Node, atomTok *syntax.Token) []ir.GID {
	switch {
	case lit != nil:
		var out []ir.GID
		for _, a := range ast.Atoms(lit) {
			out = append(out, s.resolveAtomOrdered(a)...)
		}
		return out
	case ref != nil:
		name := ast.CastGlyphClassRef(ref).Name()
		if ord, ok := s.sym.GlyphClassOrder[name]; ok {
			return append([]ir.GID(nil), ord...)
		}
		if cls, ok := s.sym.GlyphClasses[name]; ok {
			return cls.GIDs()
		}
		return nil
	case atomTok != nil:
		return s.operandSet(nil, nil, atomTok).GIDs()
	}
	return nil
}

// seqOperandSets resolves every top-level operand of a glyph sequence to
// its GlyphSet, in source order — the shape a chaining-context rule's
// backtrack/input/lookahead split needs.
func (s *scope) seqOperandSets(seq ast.GlyphSeq) []*ir.GlyphSet {
	var out []*ir.GlyphSet
	for _, op := range seq.Operands() {
		out = append(out, s.operandSet(op.Literal, op.Ref, op.Atom))
	}
	return out
}
