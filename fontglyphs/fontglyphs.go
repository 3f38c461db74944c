/*
Package fontglyphs provides a convenience ir.GlyphMap built from a real
font file, for callers who don't already have their own glyph-name
source. It wraps golang.org/x/image/font/sfnt, the same sfnt package the
teacher's engine/glyphing/harfbuzz package uses for metrics lookup.

The fea core packages never import this package and never touch a font
file directly — a caller who already tracks glyph names some other way
(a UFO/glyphsapp project, a generated table) implements ir.GlyphMap
itself and skips fontglyphs entirely.
*/
package fontglyphs

import (
	"fmt"

	"golang.org/x/image/font/sfnt"

	"github.com/otlayout/fea/ir"
)

// Map is an ir.GlyphMap backed by a parsed sfnt.Font. It is built once at
// construction time: sfnt.Font only offers index->name lookup
// (GlyphName), so Map inverts that into a name->GID table up front rather
// than re-scanning the font on every call.
type Map struct {
	font   *sfnt.Font
	byName map[string]ir.GID
	byCID  map[int]ir.GID
	names  []string // names[g] is the name of glyph g, "" if the font gave it none
}

// New parses data as an sfnt font (TrueType or CFF-flavored OpenType) and
// builds a Map over its glyph names.
func New(data []byte) (*Map, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fontglyphs: parsing font: %w", err)
	}
	return NewFromFont(f)
}

// NewFromFont builds a Map over a font already parsed by the caller,
// e.g. one loaded via sfnt.ParseReaderAt from an OpenType collection.
func NewFromFont(f *sfnt.Font) (*Map, error) {
	m := &Map{
		font:   f,
		byName: map[string]ir.GID{},
		byCID:  map[int]ir.GID{},
	}
	n := f.NumGlyphs()
	m.names = make([]string, n)
	var buf sfnt.Buffer
	for i := 0; i < n; i++ {
		gid := sfnt.GlyphIndex(i)
		name, err := f.GlyphName(&buf, gid)
		if err != nil || name == "" {
			continue
		}
		m.names[i] = name
		// A later duplicate name loses to the first occurrence, matching
		// how a font's post table itself can only name one glyph per
		// string (ties are a malformed-font problem, not ours to fix).
		if _, dup := m.byName[name]; !dup {
			m.byName[name] = ir.GID(i)
		}
		if cid, ok := parseCIDName(name); ok {
			if _, dup := m.byCID[cid]; !dup {
				m.byCID[cid] = ir.GID(i)
			}
		}
	}
	return m, nil
}

// GID resolves a glyph name to a glyph index.
func (m *Map) GID(name string) (ir.GID, bool) {
	g, ok := m.byName[name]
	return g, ok
}

// GIDByCID resolves a CID-keyed font's character ID to a glyph index.
// CFF CID-keyed fonts name their glyphs "cidNNNNN"; a font with no such
// names (the common TrueType/OpenType case) never populates byCID, so
// every lookup reports false.
func (m *Map) GIDByCID(cid int) (ir.GID, bool) {
	g, ok := m.byCID[cid]
	return g, ok
}

// Name resolves a glyph index back to the name the font's post table (or
// CFF charset) gave it.
func (m *Map) Name(g ir.GID) (string, bool) {
	i := int(g)
	if i < 0 || i >= len(m.names) || m.names[i] == "" {
		return "", false
	}
	return m.names[i], true
}

// parseCIDName recognizes the "cidNNNNN" glyph-naming convention CFF
// CID-keyed fonts use in their charset, e.g. "cid01234" -> 1234.
func parseCIDName(name string) (int, bool) {
	const prefix = "cid"
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return 0, false
	}
	cid := 0
	for _, r := range name[len(prefix):] {
		if r < '0' || r > '9' {
			return 0, false
		}
		cid = cid*10 + int(r-'0')
	}
	return cid, true
}
