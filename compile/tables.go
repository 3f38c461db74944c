package compile

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/otlayout/fea/ast"
	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// labelValueGroups is Label.Values() with comma treated as a record
// separator instead of trivia, for the handful of table statements
// (GlyphClassDef's four class fields, BASE's multi-script records) whose
// value list is actually several comma-separated groups, a structure
// Label.Values() itself can't expose since it flattens everything.
func labelValueGroups(n *syntax.Node) [][]string {
	var groups [][]string
	var cur []string
	skippedLabel := false
	sign := ""
	for _, c := range n.Children {
		if c.Token == nil {
			continue
		}
		switch c.Token.Kind {
		case syntax.FromToken(lexer.Whitespace), syntax.FromToken(lexer.Newline), syntax.FromToken(lexer.Comment),
			syntax.FromToken(lexer.Semi), syntax.FromToken(lexer.LBrace), syntax.FromToken(lexer.RBrace):
			continue
		case syntax.FromToken(lexer.Comma):
			groups = append(groups, cur)
			cur = nil
			continue
		case syntax.FromToken(lexer.Hyphen):
			sign = "-"
			continue
		}
		if !skippedLabel {
			skippedLabel = true
			continue
		}
		cur = append(cur, sign+c.Token.Text)
		sign = ""
	}
	groups = append(groups, cur)
	return groups
}

// compileTable interprets one `table <Tag> { ... }` block's Label/
// NameEntry statements into the corresponding ir scalar/record table.
func (c *compiler) compileTable(t ast.Table, n *syntax.Node) {
	tag := t.Tag()
	if tag == "GDEF" {
		c.explicitGDEF = true
	}
	for _, stmt := range t.Statements() {
		switch stmt.Kind {
		case syntax.LabelNode:
			lbl := ast.CastLabel(stmt)
			switch tag {
			case "GDEF":
				c.gdefLabel(lbl, stmt)
			case "head":
				c.headLabel(lbl)
			case "hhea":
				c.hheaLabel(lbl)
			case "vhea":
				c.vheaLabel(lbl)
			case "OS_2":
				c.os2Label(lbl)
			case "STAT":
				c.statLabel(lbl, stmt)
			case "BASE":
				c.baseLabel(lbl, stmt)
			case "vmtx":
				c.vmtxLabel(lbl)
			}
		case syntax.NameEntryNode:
			if tag == "name" {
				c.nameStatement(ast.CastNameEntry(stmt))
			}
		}
	}
}

// commaSeparatedClasses resolves GlyphClassDef's four comma-separated
// glyph-class fields (base, ligature, mark, component); a field may be
// empty, a single glyph, or a bracketed/named class.
func (c *compiler) commaSeparatedClasses(n *syntax.Node) []*ir.GlyphSet {
	var segs []*ir.GlyphSet
	cur := ir.NewGlyphSet()
	skippedTag := false
	for _, ch := range n.Children {
		switch {
		case ch.Token != nil && ch.Token.Kind == syntax.FromToken(lexer.Comma):
			segs = append(segs, cur)
			cur = ir.NewGlyphSet()
		case ch.Node != nil && ch.Node.Kind == syntax.GlyphClassLiteralNode:
			cur.Union(c.scope.operandSet(ch.Node, nil, nil))
		case ch.Node != nil && ch.Node.Kind == syntax.GlyphClassRefNode:
			cur.Union(c.scope.operandSet(nil, ch.Node, nil))
		case ch.Token != nil && ch.Token.Kind == syntax.FromToken(lexer.NamedClass):
			if cls, ok := c.sym.GlyphClasses[strings.TrimPrefix(ch.Token.Text, "@")]; ok {
				cur.Union(cls)
			}
		case ch.Token != nil && (ch.Token.Kind == syntax.FromToken(lexer.GlyphName) || ch.Token.Kind == syntax.FromToken(lexer.Cid)):
			if !skippedTag {
				skippedTag = true
				continue
			}
			cur.Union(c.scope.operandSet(nil, nil, ch.Token))
		}
	}
	segs = append(segs, cur)
	return segs
}

func (c *compiler) gdefLabel(lbl ast.Label, n *syntax.Node) {
	switch lbl.Tag() {
	case "GlyphClassDef":
		segs := c.commaSeparatedClasses(n)
		classes := []ir.GlyphClass{ir.GlyphClassBase, ir.GlyphClassLigature, ir.GlyphClassMark, ir.GlyphClassComponent}
		for i, seg := range segs {
			if i >= len(classes) {
				break
			}
			for _, g := range seg.GIDs() {
				c.gdef.GlyphClasses[g] = classes[i]
			}
		}
	case "LigatureCaretByPos":
		vals := lbl.Values()
		if len(vals) < 2 {
			return
		}
		if g, ok := c.scope.glyphs.GID(vals[0]); ok {
			var pos []int16
			for _, v := range vals[1:] {
				pos = append(pos, int16(parseSignedInt(v)))
			}
			c.gdef.LigCarets = append(c.gdef.LigCarets, ir.LigCaret{Glyph: g, ByPos: pos})
		}
	case "LigatureCaretByIndex":
		vals := lbl.Values()
		if len(vals) < 2 {
			return
		}
		if g, ok := c.scope.glyphs.GID(vals[0]); ok {
			var idx []int
			for _, v := range vals[1:] {
				idx = append(idx, int(parseSignedInt(v)))
			}
			c.gdef.LigCarets = append(c.gdef.LigCarets, ir.LigCaret{Glyph: g, ByIndex: idx})
		}
	case "Attach":
		c.gdefAttach(n)
	}
}

// gdefAttach parses 'Attach <target> <contourPoint>+;'. target is read
// straight off n's children rather than through Label.Values(), since a
// bracketed glyph class's '[' and ']' aren't trivia Values() knows to
// drop — it only strips '{'/'}'. Walking children directly lets a target
// be a bare glyph, a @namedClass, or a bracketed class of either.
func (c *compiler) gdefAttach(n *syntax.Node) {
	var target *ir.GlyphSet
	var points []uint16
	skippedLabel := false
	for _, ch := range n.Children {
		if ch.Token == nil {
			continue
		}
		switch ch.Token.Kind {
		case syntax.FromToken(lexer.Whitespace), syntax.FromToken(lexer.Newline), syntax.FromToken(lexer.Comment),
			syntax.FromToken(lexer.Semi), syntax.FromToken(lexer.LBrace), syntax.FromToken(lexer.RBrace),
			syntax.FromToken(lexer.Comma), syntax.FromToken(lexer.LBracket), syntax.FromToken(lexer.RBracket):
			continue
		}
		if !skippedLabel {
			skippedLabel = true
			continue
		}
		switch ch.Token.Kind {
		case syntax.FromToken(lexer.GlyphName):
			g, ok := c.scope.gidOf(ch.Token.Text, "")
			if !ok {
				continue
			}
			if target == nil {
				target = ir.NewGlyphSet()
			}
			target.Add(g)
		case syntax.FromToken(lexer.Cid):
			g, ok := c.scope.gidOf("", ch.Token.Text)
			if !ok {
				continue
			}
			if target == nil {
				target = ir.NewGlyphSet()
			}
			target.Add(g)
		case syntax.FromToken(lexer.NamedClass):
			if cls, ok := c.sym.GlyphClasses[strings.TrimPrefix(ch.Token.Text, "@")]; ok {
				if target == nil {
					target = ir.NewGlyphSet()
				}
				target.Union(cls)
			}
		case syntax.FromToken(lexer.Number):
			points = append(points, uint16(parseSignedInt(ch.Token.Text)))
		}
	}
	if target == nil || len(points) == 0 {
		return
	}
	for _, g := range target.GIDs() {
		c.gdef.AttachPoints[g] = append(c.gdef.AttachPoints[g], points...)
	}
}

func (c *compiler) nameStatement(e ast.NameEntry) {
	ids := e.IDs()
	if len(ids) == 0 {
		return
	}
	nameID, _ := strconv.Atoi(ids[0])
	str := e.String()
	if c.name == nil {
		c.name = &ir.NameTable{}
	}
	if len(ids) >= 4 {
		plat, _ := strconv.Atoi(ids[1])
		enc, _ := strconv.Atoi(ids[2])
		lang, _ := strconv.Atoi(ids[3])
		c.name.Records = append(c.name.Records, ir.NameRecord{
			PlatformID: uint16(plat), EncodingID: uint16(enc), LanguageID: uint16(lang), NameID: uint16(nameID), Value: str,
		})
		return
	}
	// No explicit platform triplet: register the Windows (platform 3,
	// Unicode BMP) default record a real AFDKO build emits for a bare
	// `nameid <id> "string";` statement, plus the Macintosh (platform 1,
	// Roman) one only when str's runes actually fit the Mac Roman
	// repertoire — a string that doesn't round-trip through it (most
	// non-Latin scripts) gets a Windows-only record instead of a
	// lossy/mojibake Mac one.
	c.name.Records = append(c.name.Records,
		ir.NameRecord{PlatformID: 3, EncodingID: 1, LanguageID: 0x409, NameID: uint16(nameID), Value: str},
	)
	if _, err := charmap.Macintosh.NewEncoder().String(str); err == nil {
		c.name.Records = append(c.name.Records,
			ir.NameRecord{PlatformID: 1, EncodingID: 0, LanguageID: 0, NameID: uint16(nameID), Value: str},
		)
	}
}

func (c *compiler) headLabel(lbl ast.Label) {
	if c.head == nil {
		c.head = &ir.HeadFields{Fields: map[string]int64{}}
	}
	vals := lbl.Values()
	if len(vals) == 0 {
		return
	}
	if lbl.Tag() == "FontRevision" {
		f, _ := strconv.ParseFloat(vals[0], 64)
		c.head.FontRevision = f
		return
	}
	c.head.Fields[lbl.Tag()] = int64(parseSignedInt(vals[0]))
}

func (c *compiler) hheaLabel(lbl ast.Label) {
	if c.hhea == nil {
		c.hhea = &ir.HHeaFields{Fields: map[string]int64{}}
	}
	vals := lbl.Values()
	if len(vals) == 0 {
		return
	}
	v := int64(parseSignedInt(vals[0]))
	switch lbl.Tag() {
	case "Ascender":
		c.hhea.Ascender = v
	case "Descender":
		c.hhea.Descender = v
	case "LineGap":
		c.hhea.LineGap = v
	default:
		c.hhea.Fields[lbl.Tag()] = v
	}
}

func (c *compiler) vheaLabel(lbl ast.Label) {
	if c.vhea == nil {
		c.vhea = &ir.VHeaFields{Fields: map[string]int64{}}
	}
	vals := lbl.Values()
	if len(vals) == 0 {
		return
	}
	v := int64(parseSignedInt(vals[0]))
	switch lbl.Tag() {
	case "VertTypoAscender":
		c.vhea.VertTypoAscender = v
	case "VertTypoDescender":
		c.vhea.VertTypoDescender = v
	case "VertTypoLineGap":
		c.vhea.VertTypoLineGap = v
	default:
		c.vhea.Fields[lbl.Tag()] = v
	}
}

// os2Label stores every OS/2 field by name in the generic Fields map. A
// multi-value field (Panose, UnicodeRange, CodePageRange) packs its
// values as a bitmask of range indices rather than a field per index,
// the compact shape an OS/2 binary writer expands from.
func (c *compiler) os2Label(lbl ast.Label) {
	if c.os2 == nil {
		c.os2 = &ir.OS2Fields{Fields: map[string]int64{}}
	}
	vals := lbl.Values()
	if len(vals) == 0 {
		return
	}
	if len(vals) == 1 {
		c.os2.Fields[lbl.Tag()] = int64(parseSignedInt(vals[0]))
		return
	}
	var mask int64
	for _, v := range vals {
		mask |= 1 << uint(parseSignedInt(v)&63)
	}
	c.os2.Fields[lbl.Tag()] = mask
}

// statLabel handles `DesignAxis <tag> <ordering> { name "..."; };`. Axis
// value records and a nested `ElidedFallbackName { ... }` block need
// grammar support this package's generic Label/NameEntry model doesn't
// carry (no dedicated STAT node types exist to walk), so they're left
// for a future grammar extension rather than guessed at here.
func (c *compiler) statLabel(lbl ast.Label, n *syntax.Node) {
	if c.stat == nil {
		c.stat = &ir.StatTable{}
	}
	if lbl.Tag() != "DesignAxis" {
		return
	}
	vals := lbl.Values()
	if len(vals) < 2 {
		return
	}
	tag := mustTagLenient(vals[0])
	ordinal := int(parseSignedInt(vals[1]))
	name := ""
	for _, ch := range n.ChildNodes() {
		if ch.Kind == syntax.NameEntryNode {
			name = ast.CastNameEntry(ch).String()
			break
		}
	}
	c.stat.Axes = append(c.stat.Axes, ir.StatAxis{Tag: tag, Name: name, OrdinalPos: ordinal})
}

func (c *compiler) baseLabel(lbl ast.Label, n *syntax.Node) {
	if c.base == nil {
		c.base = &ir.BaseTable{}
	}
	switch lbl.Tag() {
	case "HorizAxis.BaseTagList":
		for _, v := range lbl.Values() {
			c.base.HorizTags = append(c.base.HorizTags, mustTagLenient(v))
		}
	case "VertAxis.BaseTagList":
		for _, v := range lbl.Values() {
			c.base.VertTags = append(c.base.VertTags, mustTagLenient(v))
		}
	case "HorizAxis.BaseScriptList":
		for _, g := range labelValueGroups(n) {
			if rec, ok := baseScriptRecord(g, c.base.HorizTags); ok {
				c.base.HorizScripts = append(c.base.HorizScripts, rec)
			}
		}
	case "VertAxis.BaseScriptList":
		for _, g := range labelValueGroups(n) {
			if rec, ok := baseScriptRecord(g, c.base.VertTags); ok {
				c.base.VertScripts = append(c.base.VertScripts, rec)
			}
		}
	}
}

// baseScriptRecord parses one `<script> <defaultBaselineTag> <coord>...`
// group from a BaseScriptList statement, resolving the default baseline
// tag to its index in the axis's already-declared BaseTagList.
func baseScriptRecord(fields []string, tags []ir.Tag) (ir.BaseScriptRecord, bool) {
	if len(fields) < 2 {
		return ir.BaseScriptRecord{}, false
	}
	script := mustTagLenient(fields[0])
	defaultTag := mustTagLenient(fields[1])
	defaultIdx := -1
	for i, t := range tags {
		if t == defaultTag {
			defaultIdx = i
			break
		}
	}
	var coords []int32
	for _, v := range fields[2:] {
		coords = append(coords, parseSignedInt(v))
	}
	return ir.BaseScriptRecord{Script: script, DefaultIndex: defaultIdx, BaseCoords: coords}, true
}

func (c *compiler) vmtxLabel(lbl ast.Label) {
	if c.vmtx == nil {
		c.vmtx = &ir.VMtxTable{}
	}
	vals := lbl.Values()
	if len(vals) < 2 {
		return
	}
	glyph, value := vals[0], int64(parseSignedInt(vals[1]))
	idx := -1
	for i, e := range c.vmtx.Entries {
		if e.Glyph == glyph {
			idx = i
			break
		}
	}
	if idx == -1 {
		c.vmtx.Entries = append(c.vmtx.Entries, ir.VMtxEntry{Glyph: glyph})
		idx = len(c.vmtx.Entries) - 1
	}
	switch lbl.Tag() {
	case "VertOriginY":
		c.vmtx.Entries[idx].YOrigin = value
	case "VertAdvanceY":
		c.vmtx.Entries[idx].YAdvance = value
	}
}
