package validate

import (
	"github.com/otlayout/fea/ast"
	"github.com/otlayout/fea/diag"
	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/lexer"
	"github.com/otlayout/fea/syntax"
)

// Config tunes validator behavior. It stays a plain struct rather than a
// functional-options constructor: every field is a simple independent
// toggle, and there is no variadic construction call site anywhere in
// this module that would benefit from options chaining.
type Config struct {
	// WarningsAsErrors promotes every warning-severity diagnostic this
	// validator raises to an error, so a caller that wants a strict
	// build can block compilation on them too.
	WarningsAsErrors bool
}

type validator struct {
	r           *resolver
	sym         *Symbols
	bag         *diag.Bag
	cfg         Config
	currentFlag ir.LookupFlag
	// currentMarkAttachClass and currentMarkFilterSet carry the @class
	// name used by a named lookupflag's MarkAttachmentType/
	// UseMarkFilteringSet clause, since currentFlag itself can only
	// carry the final numeric index (see Symbols.FlagMarkAttachClass).
	currentMarkAttachClass string
	currentMarkFilterSet   string
}

// Validate walks tree plus every included file in includes (see
// parser.ParseResult.Flatten, minus its own first entry), resolving every
// name against glyphs and checking the well-formedness rules a parser
// alone cannot enforce: declaration before use, name resolution,
// script/language tag shape, substitution and positioning arity, and
// lookupflag scoping. An included file's declarations land in the same
// Symbols as the root's and are walked at the point of the include
// statement that names the file — a glyph class defined in classes.fea is
// visible to every statement after that include — even though the parser
// tracks each include's tree as a separate sibling rather than splicing it
// into the host tree (see parser/include.go). includes is consumed in
// Flatten's depth-first order, one file per include statement met; any
// file left over once tree is done is walked after it. It never stops at the first
// problem — unresolved names bind to an empty placeholder so later
// statements still get checked — and returns the full diagnostic set
// alongside the symbol table the compiler needs.
func Validate(tree *syntax.Node, glyphs ir.GlyphMap, cfg Config, includes ...syntax.File) (*Symbols, *diag.Bag) {
	bag := diag.NewBag()
	sym := newSymbols()
	off := computeOffsets(append([]syntax.File{{Root: tree}}, includes...)...)
	v := &validator{
		r:   &resolver{glyphs: glyphs, sym: sym, bag: bag, off: off},
		sym: sym,
		bag: bag,
		cfg: cfg,
	}
	pending := includes
	v.walkFile(tree, &pending)
	for len(pending) > 0 {
		inc := pending[0]
		pending = pending[1:]
		if inc.Root != nil {
			v.walkFile(inc.Root, &pending)
		}
	}
	if cfg.WarningsAsErrors {
		promoteWarnings(bag)
	}
	tracer().Debugf("validate: %d glyph classes, %d mark classes, %d lookups, %d diagnostics",
		len(sym.GlyphClasses), len(sym.MarkClasses), len(sym.Lookups), bag.Len())
	return sym, bag
}

func promoteWarnings(bag *diag.Bag) {
	items := bag.All()
	for i := range items {
		items[i].Severity = diag.Error
	}
}

// walkFile processes one tree's top-level items against the shared
// Symbols. At each include statement it takes the next file off pending
// and walks that file's items in place, so a declaration's origin makes
// no difference to how it's resolved.
func (v *validator) walkFile(tree *syntax.Node, pending *[]syntax.File) {
	root := ast.CastRoot(tree)
	for _, item := range root.Items() {
		if item.Kind == syntax.IncludeNode && len(*pending) > 0 {
			inc := (*pending)[0]
			*pending = (*pending)[1:]
			if inc.Root != nil {
				v.walkFile(inc.Root, pending)
			}
			continue
		}
		v.topLevelItem(item)
	}
}

func (v *validator) topLevelItem(n *syntax.Node) {
	switch n.Kind {
	case syntax.LanguageSystemNode:
		v.languageSystem(ast.CastLanguageSystem(n))
	case syntax.GlyphClassDefNode:
		v.glyphClassDef(ast.CastGlyphClassDef(n), n)
	case syntax.MarkClassDefNode:
		v.markClassDef(ast.CastMarkClassDef(n), n)
	case syntax.AnchorDefNode:
		v.anchorDef(ast.CastAnchorDef(n), n)
	case syntax.ValueRecordDefNode:
		v.valueRecordDef(ast.CastValueRecordDef(n), n)
	case syntax.TableNode:
		v.table(ast.CastTable(n), n)
	case syntax.FeatureNode:
		v.feature(ast.CastFeature(n), n)
	case syntax.LookupBlockNode:
		v.lookupBlock(ast.CastLookupBlock(n), n, "")
	case syntax.IncludeNode:
		// The included file's own declarations are walked by walkFile
		// at this point, from its own sibling tree (see Validate),
		// never spliced into this one (parser/include.go);
		// this node itself carries nothing to resolve beyond the
		// literal include(...) statement text the parser already
		// validated or reported.
	}
}

func (v *validator) languageSystem(ls ast.LanguageSystem) {
	script := v.checkTag(ls.Script(), ls.Raw())
	lang := v.checkTag(ls.Language(), ls.Raw())
	decl := LangSysDecl{Script: script, Language: lang, Node: ls.Raw()}
	for _, prior := range v.sym.LanguageSystems {
		if prior.Script == decl.Script && prior.Language == decl.Language {
			d := diag.Warnf(v.r.off.span(ls.Raw()), "languagesystem %s %s declared more than once", script, lang).
				WithLabel(v.r.off.span(prior.Node), "previous declaration here")
			v.bag.Add(d)
		}
	}
	v.sym.LanguageSystems = append(v.sym.LanguageSystems, decl)
}

// checkTag validates a raw tag literal's shape (1-4 bytes, space-padded)
// and reports a diagnostic rather than propagating the parse error, since
// an invalid tag should not abort validation of the rest of the file.
func (v *validator) checkTag(text string, owner *syntax.Node) ir.Tag {
	t, err := ir.ParseTag(text)
	if err != nil {
		v.bag.Errorf(v.r.off.span(owner), "invalid tag %q: %v", text, err)
		return ir.Tag(0)
	}
	return t
}

func (v *validator) glyphClassDef(d ast.GlyphClassDef, n *syntax.Node) {
	name := d.Name()
	node, tok := d.Operand()
	if d.IsSelfAppend() {
		existing, ok := v.sym.GlyphClasses[name]
		if !ok {
			v.bag.Errorf(v.r.off.span(n), "class @%s appended to before it was defined", name)
			existing = ir.NewGlyphSet()
		}
		set, order := v.resolveClassLiteralSansSelf(node, name)
		existing.Union(set)
		v.sym.GlyphClasses[name] = existing
		v.sym.GlyphClassOrder[name] = append(v.sym.GlyphClassOrder[name], order...)
		return
	}
	if _, ok := v.sym.GlyphClasses[name]; ok {
		v.bag.Errorf(v.r.off.span(n), "glyph class @%s redefined; use \"@%s = [@%s ...]\" to append instead", name, name, name)
	}
	var lit, ref *syntax.Node
	if node != nil {
		if node.Kind == syntax.GlyphClassLiteralNode {
			lit = node
		} else {
			ref = node
		}
	}
	v.sym.GlyphClasses[name] = v.r.resolveOperand(lit, ref, tok, n)
	v.sym.GlyphClassOrder[name] = v.r.resolveOrdered(lit, ref, tok)
}

// resolveClassLiteralSansSelf resolves a bracketed literal's elements,
// skipping the leading self-reference IsSelfAppend already detected, so
// the class isn't unioned with itself redundantly (harmless, but the
// skip keeps declaration order meaningful for diagnostics raised while
// resolving the remaining elements). It returns both the resolved set
// and the same elements in source order, for GlyphClassOrder.
func (v *validator) resolveClassLiteralSansSelf(lit *syntax.Node, selfName string) (*ir.GlyphSet, []ir.GID) {
	out := ir.NewGlyphSet()
	var order []ir.GID
	skippedSelf := false
	for _, a := range ast.Atoms(lit) {
		if !skippedSelf && a.ClassRef == selfName {
			skippedSelf = true
			continue
		}
		out.Union(v.r.resolveAtom(a, lit))
		order = append(order, v.r.resolveAtomOrdered(a)...)
	}
	return out, order
}

func (v *validator) markClassDef(m ast.MarkClassDef, n *syntax.Node) {
	name := m.ClassName()
	glyphsNode := m.Glyphs()
	var set *ir.GlyphSet
	if glyphsNode != nil {
		if glyphsNode.Kind == syntax.GlyphClassLiteralNode {
			set = v.r.resolveOperand(glyphsNode, nil, nil, n)
		} else {
			set = v.r.resolveOperand(nil, glyphsNode, nil, n)
		}
	} else {
		set = ir.NewGlyphSet()
	}
	anchor := v.resolveAnchor(m.Anchor(), n)
	cls, ok := v.sym.MarkClasses[name]
	if !ok {
		cls = &MarkClass{Name: name}
		v.sym.MarkClasses[name] = cls
	}
	for _, e := range cls.Entries {
		for _, g := range set.GIDs() {
			if e.Glyphs.Contains(g) {
				v.bag.Errorf(v.r.off.span(n), "glyph is a member of mark class @%s under two different anchors", name)
			}
		}
	}
	cls.Entries = append(cls.Entries, MarkClassEntry{Glyphs: set, Anchor: anchor})
}

// ResolveAnchor resolves an already-validated ast.Anchor against a symbol
// table's anchor definitions. The compiler calls this instead of
// duplicating anchor-literal parsing: by the time compilation runs,
// Validate has already reported any malformed coordinate or undefined
// @anchorDef name, so this version stays silent and simply returns the
// zero Anchor on anything it can't resolve.
func ResolveAnchor(a ast.Anchor, sym *Symbols) ir.Anchor {
	if !a.Present() || a.IsNull() {
		return ir.Anchor{}
	}
	if ref := a.Ref(); ref != "" {
		return sym.AnchorDefs[ref]
	}
	x, y := a.XY()
	xn, _ := parseSignedInt(x)
	yn, _ := parseSignedInt(y)
	return ir.NewAnchor(xn, yn)
}

func (v *validator) resolveAnchor(a ast.Anchor, owner *syntax.Node) ir.Anchor {
	if !a.Present() {
		return ir.Anchor{}
	}
	if a.IsNull() {
		return ir.Anchor{}
	}
	if ref := a.Ref(); ref != "" {
		anc, ok := v.sym.AnchorDefs[ref]
		if !ok {
			v.bag.Errorf(v.r.off.span(a.Raw()), "undefined anchor @%s", ref)
			return ir.Anchor{}
		}
		return anc
	}
	x, y := a.XY()
	return ir.NewAnchor(v.parseCoord(x, a.Raw()), v.parseCoord(y, a.Raw()))
}

func (v *validator) parseCoord(text string, owner *syntax.Node) int32 {
	if text == "" {
		return 0
	}
	n, err := parseSignedInt(text)
	if err != nil {
		v.bag.Errorf(v.r.off.span(owner), "malformed coordinate %q", text)
		return 0
	}
	return n
}

func (v *validator) anchorDef(a ast.AnchorDef, n *syntax.Node) {
	name := a.Name()
	if prior, ok := v.sym.AnchorDefs[name]; ok {
		_ = prior
		v.bag.Warnf(v.r.off.span(n), "anchorDef %s shadows an earlier definition", name)
	}
	x, y := a.XY()
	v.sym.AnchorDefs[name] = ir.NewAnchor(v.parseCoord(x, n), v.parseCoord(y, n))
}

func (v *validator) valueRecordDef(d ast.ValueRecordDef, n *syntax.Node) {
	name := d.Name()
	if _, ok := v.sym.ValueRecordDefs[name]; ok {
		v.bag.Warnf(v.r.off.span(n), "valueRecordDef %s shadows an earlier definition", name)
	}
	v.sym.ValueRecordDefs[name] = v.resolveValueRecord(d.Record(), n)
}

func (v *validator) resolveValueRecord(rec ast.ValueRecord, owner *syntax.Node) ir.ValueRecord {
	nums := rec.Numbers()
	ints := make([]int32, 0, len(nums))
	for _, s := range nums {
		n, err := parseSignedInt(s)
		if err != nil {
			v.bag.Errorf(v.r.off.span(owner), "malformed value-record number %q", s)
			n = 0
		}
		ints = append(ints, n)
	}
	switch len(ints) {
	case 1:
		return ir.ValueRecord{XAdvance: int16(ints[0])}
	case 4:
		return ir.ValueRecord{
			XPlacement: int16(ints[0]), YPlacement: int16(ints[1]),
			XAdvance: int16(ints[2]), YAdvance: int16(ints[3]),
		}
	default:
		if len(ints) > 0 {
			v.bag.Errorf(v.r.off.span(owner), "value record has %d fields, expected 1 or 4", len(ints))
		}
		return ir.ValueRecord{}
	}
}

func (v *validator) table(t ast.Table, n *syntax.Node) {
	v.checkTag(t.Tag(), n)
	// Table-body statements (Label/NameEntry) are opaque scalar/record
	// assignments the compiler interprets directly against each known
	// table tag; the validator's job here is limited to the tag shape
	// check above plus the generic glyph-class/name resolution already
	// performed at the top level.
}

func (v *validator) feature(f ast.Feature, n *syntax.Node) {
	v.checkTag(f.Tag(), n)
	saved, savedMA, savedMF := v.currentFlag, v.currentMarkAttachClass, v.currentMarkFilterSet
	v.currentFlag = ir.LookupFlag{}
	v.currentMarkAttachClass, v.currentMarkFilterSet = "", ""
	seenMarks := map[ir.GID]string{}
	for _, stmt := range f.Statements() {
		v.blockStatement(stmt, seenMarks)
	}
	v.currentFlag, v.currentMarkAttachClass, v.currentMarkFilterSet = saved, savedMA, savedMF
}

func (v *validator) lookupBlock(l ast.LookupBlock, n *syntax.Node, enclosingFeature string) {
	name := l.Name()
	if _, ok := v.sym.Lookups[name]; ok {
		v.bag.Warnf(v.r.off.span(n), "lookup %s redefines an earlier block of the same name", name)
	}
	v.sym.Lookups[name] = &LookupSymbol{Name: name, Node: n}
	v.sym.LookupOrder = append(v.sym.LookupOrder, name)
	saved, savedMA, savedMF := v.currentFlag, v.currentMarkAttachClass, v.currentMarkFilterSet
	v.currentFlag = ir.LookupFlag{}
	v.currentMarkAttachClass, v.currentMarkFilterSet = "", ""
	seenMarks := map[ir.GID]string{}
	for _, stmt := range l.Statements() {
		v.blockStatement(stmt, seenMarks)
	}
	v.currentFlag, v.currentMarkAttachClass, v.currentMarkFilterSet = saved, savedMA, savedMF
}

func (v *validator) blockStatement(n *syntax.Node, seenMarks map[ir.GID]string) {
	switch n.Kind {
	case syntax.ScriptNode:
		v.checkTag(ast.CastScript(n).Tag(), n)
	case syntax.LanguageNode:
		v.checkTag(ast.CastLanguage(n).Tag(), n)
	case syntax.LookupflagNode:
		v.lookupflag(ast.CastLookupflag(n), n)
	case syntax.LookupBlockNode:
		v.lookupBlock(ast.CastLookupBlock(n), n, "")
	case syntax.LookupRefNode:
		v.lookupRef(ast.CastLookupRef(n), n)
	case syntax.SubstituteNode:
		v.substitute(ast.CastSubstitute(n), n)
	case syntax.PositionNode:
		v.position(ast.CastPosition(n), n, seenMarks)
	case syntax.SubtableMarkerNode, syntax.ParametersNode, syntax.FeatureNamesNode,
		syntax.CvParametersNode, syntax.SizemenunameNode:
		// nothing to resolve: subtable is a bare split marker, and the
		// remaining kinds here are opaque name/record statements the
		// compiler reads directly.
	}
}

func (v *validator) lookupflag(f ast.Lookupflag, n *syntax.Node) {
	if num, ok := f.NumericValue(); ok {
		val, err := parseSignedInt(num)
		if err != nil {
			v.bag.Errorf(v.r.off.span(n), "malformed lookupflag value %q", num)
			return
		}
		bits := uint16(val)
		v.currentFlag = ir.LookupFlag{
			RightToLeft:        bits&0x0001 != 0,
			IgnoreBaseGlyphs:   bits&0x0002 != 0,
			IgnoreLigatures:    bits&0x0004 != 0,
			IgnoreMarks:        bits&0x0008 != 0,
			UseMarkFilteringSet: bits&0x0010 != 0,
			MarkAttachmentClass: uint8(bits >> 8),
		}
		return
	}
	named := f.NamedFlags()
	flag := ir.LookupFlag{
		RightToLeft:      named.RightToLeft,
		IgnoreBaseGlyphs: named.IgnoreBaseGlyphs,
		IgnoreLigatures:  named.IgnoreLigatures,
		IgnoreMarks:      named.IgnoreMarks,
	}
	v.currentMarkAttachClass, v.currentMarkFilterSet = "", ""
	if named.MarkAttachmentClass != "" {
		if _, ok := v.sym.GlyphClasses[named.MarkAttachmentClass]; !ok {
			v.bag.Errorf(v.r.off.span(n), "undefined glyph class @%s in MarkAttachmentType", named.MarkAttachmentClass)
		} else {
			// the actual 1-based class index is assigned by the compiler
			// once every MarkAttachmentType class in the file is known.
			v.currentMarkAttachClass = named.MarkAttachmentClass
		}
	}
	if named.MarkFilterSet != "" {
		if _, ok := v.sym.GlyphClasses[named.MarkFilterSet]; !ok {
			v.bag.Errorf(v.r.off.span(n), "undefined glyph class @%s in UseMarkFilteringSet", named.MarkFilterSet)
		} else {
			flag.UseMarkFilteringSet = true
			v.currentMarkFilterSet = named.MarkFilterSet
		}
	}
	v.currentFlag = flag
}

func (v *validator) lookupRef(r ast.LookupRef, n *syntax.Node) {
	if r.IsFeatureRef() {
		return // aalt-style `feature <tag>;` cross-reference: resolved at compile time.
	}
	name := r.Name()
	if _, ok := v.sym.Lookups[name]; !ok {
		v.bag.Errorf(v.r.off.span(n), "lookup %s referenced before it was defined", name)
	}
}

func (v *validator) recordFlag(n *syntax.Node) {
	v.sym.EffectiveFlags[n] = v.currentFlag
	if v.currentMarkAttachClass != "" {
		v.sym.FlagMarkAttachClass[n] = v.currentMarkAttachClass
	}
	if v.currentMarkFilterSet != "" {
		v.sym.FlagMarkFilterSet[n] = v.currentMarkFilterSet
	}
}

func (v *validator) substitute(s ast.Substitute, n *syntax.Node) {
	v.recordFlag(n)
	kind := s.Classify()
	if kind == ast.SubstUnknown {
		v.bag.Errorf(v.r.off.span(n), "substitution rule has an ambiguous shape (check the by/from clause)")
	}
	seqs := s.Sequences()
	for _, seq := range seqs {
		v.resolveSeq(seq, n)
	}
	if kind == ast.SubstAlternate {
		var ops []ast.SeqOperand
		if len(seqs) > 1 {
			ops = seqs[1].Operands()
		}
		if len(ops) == 0 || (len(ops) == 1 && ops[0].Literal != nil && len(ast.Atoms(ops[0].Literal)) == 0) {
			v.bag.Errorf(v.r.off.span(n), "empty 'from' target set")
		}
	}
}

func (v *validator) position(p ast.Position, n *syntax.Node, seenMarks map[ir.GID]string) {
	v.recordFlag(n)
	for _, a := range p.Anchors() {
		v.resolveAnchor(a, n)
	}
	for _, cls := range p.MarkClasses() {
		mc, ok := v.sym.MarkClasses[cls]
		if !ok {
			v.bag.Errorf(v.r.off.span(n), "undefined mark class @%s", cls)
			continue
		}
		for _, g := range mc.Glyphs().GIDs() {
			if other, ok := seenMarks[g]; ok && other != cls {
				v.bag.Errorf(v.r.off.span(n), "glyph belongs to both mark classes @%s and @%s within the same lookup", other, cls)
			} else {
				seenMarks[g] = cls
			}
		}
	}
	// A generic (non mark-attachment) positioning statement interleaves
	// bare glyph operands directly as PositionNode children rather than
	// wrapping them in a GlyphSeqNode (see parser/grammar_rule.go's
	// positionSequence), so bare GlyphName/Cid tokens must be resolved
	// here directly rather than through ast.GlyphSeq.Operands.
	for _, c := range n.Children {
		switch {
		case c.Node != nil && c.Node.Kind == syntax.GlyphSeqNode:
			// 'ignore pos <ctx>, <ctx>;' wraps each context in a
			// GlyphSeqNode, unlike the flat form below.
			v.resolveSeq(ast.CastGlyphSeq(c.Node), n)
		case c.Node != nil && (c.Node.Kind == syntax.GlyphClassLiteralNode || c.Node.Kind == syntax.GlyphClassRefNode):
			if c.Node.Kind == syntax.GlyphClassLiteralNode {
				v.r.resolveOperand(c.Node, nil, nil, n)
			} else {
				v.r.resolveOperand(nil, c.Node, nil, n)
			}
		case c.Token != nil && (c.Token.Kind == syntax.FromToken(lexer.GlyphName) || c.Token.Kind == syntax.FromToken(lexer.Cid)):
			v.r.resolveOperand(nil, nil, c.Token, n)
		}
	}
}

func (v *validator) resolveSeq(seq ast.GlyphSeq, owner *syntax.Node) {
	for _, op := range seq.Operands() {
		v.r.resolveOperand(op.Literal, op.Ref, op.Atom, owner)
	}
}
