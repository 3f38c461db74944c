package ir

import (
	"github.com/emirpasic/gods/sets/treeset"
)

// GID is a glyph index (spec §3: "16-bit unsigned integer").
type GID uint16

func gidComparator(a, b interface{}) int {
	x, y := a.(GID), b.(GID)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// GlyphSet is an ordered, duplicate-free set of GIDs. It is backed by a
// red-black tree (github.com/emirpasic/gods/sets/treeset) ordered by GID,
// which makes coverage canonicity — sorted, deduplicated — a
// data-structure invariant instead of a manually re-checked
// post-condition, per the testable property in spec §8.6.
type GlyphSet struct {
	t *treeset.Set
}

// NewGlyphSet builds a GlyphSet from the given GIDs, in any order, with
// duplicates collapsed.
func NewGlyphSet(gids ...GID) *GlyphSet {
	s := &GlyphSet{t: treeset.NewWith(gidComparator)}
	for _, g := range gids {
		s.t.Add(g)
	}
	return s
}

// Add inserts g, a no-op if already present.
func (s *GlyphSet) Add(g GID) { s.t.Add(g) }

// Union adds every member of other into s.
func (s *GlyphSet) Union(other *GlyphSet) {
	if other == nil {
		return
	}
	for _, v := range other.t.Values() {
		s.t.Add(v)
	}
}

// Contains reports whether g is a member.
func (s *GlyphSet) Contains(g GID) bool { return s.t.Contains(g) }

// Len returns the number of members.
func (s *GlyphSet) Len() int { return s.t.Size() }

// GIDs returns the members in ascending GID order — the canonical
// coverage-table ordering.
func (s *GlyphSet) GIDs() []GID {
	out := make([]GID, 0, s.t.Size())
	for _, v := range s.t.Values() {
		out = append(out, v.(GID))
	}
	return out
}

// Coverage is a glyph-sorted, duplicate-free sequence of GIDs, exactly as
// it will be serialized into an OpenType Coverage table. It is produced
// from a GlyphSet, which already guarantees sort order and uniqueness.
type Coverage []GID

// NewCoverage builds a Coverage from a GlyphSet.
func NewCoverage(s *GlyphSet) Coverage {
	if s == nil {
		return nil
	}
	return Coverage(s.GIDs())
}

// IndexOf returns g's position within the coverage, or -1 if absent. This
// is the "coverage index" used to key into a lookup's per-glyph subtable
// data (e.g. PairSet[i] for glyph i of a format-1 PairPos).
func (c Coverage) IndexOf(g GID) int {
	lo, hi := 0, len(c)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case c[mid] == g:
			return mid
		case c[mid] < g:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1
}

// ClassDef assigns every glyph appearing in an at-least-two-way class
// split to a class index, with class 0 reserved for "any other glyph" per
// spec §4.5 ("class 0 reserved for any other glyph").
type ClassDef map[GID]uint16

// ClassDefBuilder computes class assignments via union-find over glyphs
// that co-occur in the same class position across the rules of a single
// subtable, per spec §4.5 ("class definitions are computed by a
// union-find over glyphs that appear in the same class position").
type ClassDefBuilder struct {
	parent map[GID]GID
	order  []GID // first-seen order, for deterministic class numbering
	groups [][]GID
}

// NewClassDefBuilder returns an empty builder.
func NewClassDefBuilder() *ClassDefBuilder {
	return &ClassDefBuilder{parent: map[GID]GID{}}
}

func (b *ClassDefBuilder) find(g GID) GID {
	p, ok := b.parent[g]
	if !ok {
		b.parent[g] = g
		b.order = append(b.order, g)
		return g
	}
	if p == g {
		return g
	}
	root := b.find(p)
	b.parent[g] = root
	return root
}

// AddClass unions every glyph in one rule's class-position glyph set
// together, so that repeated use of the same logical class across
// multiple rules collapses onto one class index.
func (b *ClassDefBuilder) AddClass(gids []GID) {
	if len(gids) == 0 {
		return
	}
	root := b.find(gids[0])
	for _, g := range gids[1:] {
		r2 := b.find(g)
		if r2 != root {
			b.parent[r2] = root
		}
	}
}

// Build assigns class indices: 0 for any glyph never added via AddClass
// (implicitly — callers only index glyphs that appear, so "every other
// glyph" is simply absent from the returned map and the compiler treats
// a missing lookup as class 0), and 1..N for each distinct union-find
// group, numbered in first-seen order for determinism (spec §8.5: compile
// determinism).
func (b *ClassDefBuilder) Build() ClassDef {
	roots := map[GID]uint16{}
	def := ClassDef{}
	next := uint16(1)
	for _, g := range b.order {
		r := b.find(g)
		idx, ok := roots[r]
		if !ok {
			idx = next
			roots[r] = idx
			next++
		}
		def[g] = idx
	}
	return def
}
