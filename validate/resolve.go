package validate

import (
	"strconv"
	"strings"

	"github.com/otlayout/fea/ast"
	"github.com/otlayout/fea/diag"
	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// resolver carries the per-run state resolveAtom/resolveOperand need:
// the glyph map to resolve bare names/CIDs against, the symbol table
// built so far (for class/mark-class references), and where to file
// diagnostics.
type resolver struct {
	glyphs ir.GlyphMap
	sym    *Symbols
	bag    *diag.Bag
	off    *offsets
}

// parseSignedInt parses a decimal or 0x-prefixed hex integer, with an
// optional leading '-' already folded into text by the ast layer.
func parseSignedInt(text string) (int32, error) {
	neg := false
	s := text
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	n, err := strconv.ParseInt(s, base, 32)
	if err != nil {
		return 0, err
	}
	if neg {
		n = -n
	}
	return int32(n), nil
}

func parseCID(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(text, "\\"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// resolveGID resolves a bare glyph name or CID literal to a GID, recording
// an error and returning (0, false) if it isn't in the font.
func (r *resolver) resolveGID(name, cid string, node *syntax.Node) (ir.GID, bool) {
	if cid != "" {
		n, ok := parseCID(cid)
		if !ok {
			r.bag.Errorf(r.off.span(node), "malformed CID literal %q", cid)
			return 0, false
		}
		g, ok := r.glyphs.GIDByCID(n)
		if !ok {
			r.bag.Errorf(r.off.span(node), "CID %d is not present in the font", n)
			return 0, false
		}
		return g, true
	}
	g, ok := r.glyphs.GID(name)
	if !ok {
		r.bag.Errorf(r.off.span(node), "glyph %q is not present in the font", name)
		return 0, false
	}
	return g, true
}

// resolveAtom resolves one ast.Atom (as produced by ast.Atoms over a
// glyph-class literal or sequence) into the GIDs it denotes, expanding
// CID ranges but only warning — not expanding — on glyph-name ranges,
// since a glyph-name range's ordering is a font/naming convention this
// package has no authority over.
func (r *resolver) resolveAtom(a ast.Atom, node *syntax.Node) *ir.GlyphSet {
	out := ir.NewGlyphSet()
	switch {
	case a.ClassRef != "":
		cls, ok := r.sym.GlyphClasses[a.ClassRef]
		if !ok {
			r.bag.Errorf(r.off.span(node), "undefined glyph class @%s", a.ClassRef)
			return out
		}
		out.Union(cls)
	case a.Cid != "":
		if a.RangeEnd != "" {
			lo, okLo := parseCID(a.Cid)
			hi, okHi := parseCID(a.RangeEnd)
			if !okLo || !okHi {
				r.bag.Errorf(r.off.span(node), "malformed CID range %s-%s", a.Cid, a.RangeEnd)
				return out
			}
			if hi < lo {
				r.bag.Errorf(r.off.span(node), "CID range %d-%d is empty or reversed", lo, hi)
				return out
			}
			for c := lo; c <= hi; c++ {
				if g, ok := r.glyphs.GIDByCID(c); ok {
					out.Add(g)
				} else {
					r.bag.Errorf(r.off.span(node), "CID %d is not present in the font", c)
				}
			}
			return out
		}
		if g, ok := r.resolveGID("", a.Cid, node); ok {
			out.Add(g)
		}
	default:
		if a.RangeEnd != "" {
			r.bag.Warnf(r.off.span(node), "glyph name range %s-%s is not expanded; list members explicitly", a.GlyphName, a.RangeEnd)
			if g, ok := r.resolveGID(a.GlyphName, "", node); ok {
				out.Add(g)
			}
			if g, ok := r.resolveGID(a.RangeEnd, "", node); ok {
				out.Add(g)
			}
			return out
		}
		if g, ok := r.resolveGID(a.GlyphName, "", node); ok {
			out.Add(g)
		}
	}
	return out
}

// resolveAtomOrdered is resolveAtom's quiet counterpart, used only to
// populate Symbols.GlyphClassOrder once resolveAtom has already reported
// whatever diagnostics apply to the same atom.
func (r *resolver) resolveAtomOrdered(a ast.Atom) []ir.GID {
	switch {
	case a.ClassRef != "":
		if ord, ok := r.sym.GlyphClassOrder[a.ClassRef]; ok {
			return append([]ir.GID(nil), ord...)
		}
		if cls, ok := r.sym.GlyphClasses[a.ClassRef]; ok {
			return cls.GIDs()
		}
		return nil
	case a.Cid != "":
		if a.RangeEnd != "" {
			lo, okLo := parseCID(a.Cid)
			hi, okHi := parseCID(a.RangeEnd)
			var out []ir.GID
			if okLo && okHi {
				for c := lo; c <= hi; c++ {
					if g, ok := r.glyphs.GIDByCID(c); ok {
						out = append(out, g)
					}
				}
			}
			return out
		}
		if n, ok := parseCID(a.Cid); ok {
			if g, ok := r.glyphs.GIDByCID(n); ok {
				return []ir.GID{g}
			}
		}
		return nil
	default:
		var out []ir.GID
		if g, ok := r.glyphs.GID(a.GlyphName); ok {
			out = append(out, g)
		}
		if a.RangeEnd != "" {
			if g, ok := r.glyphs.GID(a.RangeEnd); ok {
				out = append(out, g)
			}
		}
		return out
	}
}

// resolveOrdered mirrors resolveOperand but preserves source order,
// feeding Symbols.GlyphClassOrder.
func (r *resolver) resolveOrdered(lit, ref *syntax.Node, atomTok *syntax.Token) []ir.GID {
	switch {
	case lit != nil:
		var out []ir.GID
		for _, a := range ast.Atoms(lit) {
			out = append(out, r.resolveAtomOrdered(a)...)
		}
		return out
	case ref != nil:
		name := ast.CastGlyphClassRef(ref).Name()
		if ord, ok := r.sym.GlyphClassOrder[name]; ok {
			return append([]ir.GID(nil), ord...)
		}
		if cls, ok := r.sym.GlyphClasses[name]; ok {
			return cls.GIDs()
		}
		return nil
	case atomTok != nil:
		if atomTok.Kind == syntax.FromToken(lexer.Cid) {
			if n, ok := parseCID(atomTok.Text); ok {
				if g, ok := r.glyphs.GIDByCID(n); ok {
					return []ir.GID{g}
				}
			}
			return nil
		}
		if g, ok := r.glyphs.GID(atomTok.Text); ok {
			return []ir.GID{g}
		}
		return nil
	}
	return nil
}

// resolveOperand resolves any right-hand-side glyph-class operand: a
// bracketed literal, a bare @class reference, or a singleton glyph/CID
// token — the three shapes ast.GlyphClassDef.Operand and
// ast.SeqOperand both expose.
func (r *resolver) resolveOperand(lit, ref *syntax.Node, atomTok *syntax.Token, container *syntax.Node) *ir.GlyphSet {
	switch {
	case lit != nil:
		out := ir.NewGlyphSet()
		for _, a := range ast.Atoms(lit) {
			out.Union(r.resolveAtom(a, lit))
		}
		return out
	case ref != nil:
		name := ast.CastGlyphClassRef(ref).Name()
		out := ir.NewGlyphSet()
		cls, ok := r.sym.GlyphClasses[name]
		if !ok {
			r.bag.Errorf(r.off.span(ref), "undefined glyph class @%s", name)
			return out
		}
		out.Union(cls)
		return out
	case atomTok != nil:
		out := ir.NewGlyphSet()
		if atomTok.Kind == syntax.FromToken(lexer.Cid) {
			if g, ok := r.resolveGID("", atomTok.Text, container); ok {
				out.Add(g)
			}
		} else {
			if g, ok := r.resolveGID(atomTok.Text, "", container); ok {
				out.Add(g)
			}
		}
		return out
	}
	return ir.NewGlyphSet()
}
