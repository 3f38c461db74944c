package compile

import (
	"github.com/otlayout/fea/ast"
	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/syntax"
	"github.com/otlayout/fea/validate"
)

var aaltTag = ir.MustTag("aalt")

func mustTagLenient(s string) ir.Tag {
	t, err := ir.ParseTag(s)
	if err != nil {
		return 0
	}
	return t
}

func (c *compiler) registerAnon(lk *ir.Lookup) int {
	if lk.Table == ir.GSUB {
		return c.gsub.AddLookup(lk)
	}
	return c.gpos.AddLookup(lk)
}

// tableFanout tracks one table's (GSUB or GPOS) script/language scoping
// state while one feature body is walked: rules before any script
// statement are global; rules after a script but before that script's
// first language statement accumulate into the script's dflt bucket,
// shared by every language of that script unless a later language
// excludes it; rules after a language statement are specific to that
// (script, language) pair.
type tableFanout struct {
	global       []int
	dfltAcc      map[ir.Tag][]int
	perLang      map[ir.LangSys][]int
	excludeDflt  map[ir.LangSys]bool
	touchedLangs map[ir.Tag]map[ir.Tag]bool
	curScript    ir.Tag
	curLang      ir.Tag
}

func newTableFanout() *tableFanout {
	return &tableFanout{
		dfltAcc:      map[ir.Tag][]int{},
		perLang:      map[ir.LangSys][]int{},
		excludeDflt:  map[ir.LangSys]bool{},
		touchedLangs: map[ir.Tag]map[ir.Tag]bool{},
		curLang:      ir.Dflt,
	}
}

func (tf *tableFanout) onScript(tag ir.Tag) {
	tf.curScript = tag
	tf.curLang = ir.Dflt
	if _, ok := tf.dfltAcc[tag]; !ok {
		tf.dfltAcc[tag] = nil
	}
}

func (tf *tableFanout) onLanguage(tag ir.Tag, excludeDflt bool) {
	tf.curLang = tag
	if tf.curScript == 0 {
		return
	}
	if tf.touchedLangs[tf.curScript] == nil {
		tf.touchedLangs[tf.curScript] = map[ir.Tag]bool{}
	}
	tf.touchedLangs[tf.curScript][tag] = true
	tf.excludeDflt[ir.LangSys{Script: tf.curScript, Language: tag}] = excludeDflt
}

func (tf *tableFanout) addLookup(idx int) {
	switch {
	case tf.curScript == 0:
		tf.global = append(tf.global, idx)
	case tf.curLang == ir.Dflt:
		tf.dfltAcc[tf.curScript] = append(tf.dfltAcc[tf.curScript], idx)
	default:
		key := ir.LangSys{Script: tf.curScript, Language: tf.curLang}
		tf.perLang[key] = append(tf.perLang[key], idx)
	}
}

// scopedLangSys reports which declared languagesystems this table's rules
// actually scope to, independent of whether any lookup was registered —
// records() can't answer that on its own since it drops any languagesystem
// with zero accumulated lookups. An aalt block that only cross-references
// other features via `feature <tag>;` registers no lookups of its own but
// still scopes its eventual synthesized feature to whatever script/language
// statements it wrote (or to every languagesystem, same as an unscoped rule,
// if it wrote none).
func (tf *tableFanout) scopedLangSys(decls []validate.LangSysDecl) []ir.LangSys {
	var out []ir.LangSys
	seen := map[ir.LangSys]bool{}
	global := len(tf.dfltAcc) == 0
	for _, d := range decls {
		ls := ir.LangSys{Script: d.Script, Language: d.Language}
		if seen[ls] {
			continue
		}
		if _, touched := tf.dfltAcc[d.Script]; global || touched {
			seen[ls] = true
			out = append(out, ls)
		}
	}
	return out
}

// records produces one FeatureRecord per declared languagesystem this
// table actually contributed lookups to: global lookups apply to every
// languagesystem; a touched script's dflt-accumulated lookups apply to
// every language of that script except one that both named itself
// explicitly and passed exclude_dflt.
func (tf *tableFanout) records(feature ir.Tag, decls []validate.LangSysDecl) []ir.FeatureRecord {
	var out []ir.FeatureRecord
	seen := map[ir.LangSys]bool{}
	for _, d := range decls {
		ls := ir.LangSys{Script: d.Script, Language: d.Language}
		if seen[ls] {
			continue
		}
		seen[ls] = true
		idxs := append([]int(nil), tf.global...)
		if _, touched := tf.dfltAcc[d.Script]; touched {
			switch {
			case d.Language == ir.Dflt:
				idxs = append(idxs, tf.dfltAcc[d.Script]...)
			case tf.touchedLangs[d.Script][d.Language]:
				if !tf.excludeDflt[ls] {
					idxs = append(idxs, tf.dfltAcc[d.Script]...)
				}
				idxs = append(idxs, tf.perLang[ls]...)
			default:
				idxs = append(idxs, tf.dfltAcc[d.Script]...)
			}
		}
		if len(idxs) == 0 {
			continue
		}
		out = append(out, ir.FeatureRecord{Script: d.Script, Language: d.Language, Feature: feature, LookupIndices: idxs})
	}
	return out
}

// featureFanout is one `feature <tag> { ... }` block's scoping state,
// tracking GSUB and GPOS independently since a single feature block may
// mix substitution and positioning rules.
type featureFanout struct {
	c           *compiler
	feature     ir.Tag
	gsub, gpos  *tableFanout
	aaltSources []string
}

func newFeatureFanout(c *compiler, feature ir.Tag) *featureFanout {
	return &featureFanout{c: c, feature: feature, gsub: newTableFanout(), gpos: newTableFanout()}
}

func (f *featureFanout) onScript(tag ir.Tag) {
	f.gsub.onScript(tag)
	f.gpos.onScript(tag)
}

func (f *featureFanout) onLanguage(tag ir.Tag, excludeDflt bool) {
	f.gsub.onLanguage(tag, excludeDflt)
	f.gpos.onLanguage(tag, excludeDflt)
}

func (f *featureFanout) addLookup(table ir.Table, idx int) {
	if table == ir.GSUB {
		f.gsub.addLookup(idx)
	} else {
		f.gpos.addLookup(idx)
	}
}

func (f *featureFanout) finish() {
	gsubRecs := f.gsub.records(f.feature, f.c.sym.LanguageSystems)
	gposRecs := f.gpos.records(f.feature, f.c.sym.LanguageSystems)
	f.c.gsub.Features = append(f.c.gsub.Features, gsubRecs...)
	f.c.gpos.Features = append(f.c.gpos.Features, gposRecs...)
	for _, r := range gsubRecs {
		f.c.featureGSUBLookups[f.feature] = appendUniqueInt(f.c.featureGSUBLookups[f.feature], r.LookupIndices...)
	}
}

func appendUniqueInt(dst []int, add ...int) []int {
	for _, v := range add {
		found := false
		for _, existing := range dst {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

func appendUniqueGID(dst []ir.GID, add ...ir.GID) []ir.GID {
	for _, v := range add {
		found := false
		for _, existing := range dst {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// compileFeature lowers one feature block's statements, fanning bare
// rules and nested lookup references out across whatever script/language
// scoping the block's script/language statements establish, and batching
// consecutive bare rule statements into shared anonymous lookups the same
// way a top-level or named-lookup body does.
func (c *compiler) compileFeature(f ast.Feature, node *syntax.Node) {
	feature := mustTagLenient(f.Tag())
	fo := newFeatureFanout(c, feature)
	var b batch
	flushBatch := func() {
		if lk := b.flush(); lk != nil {
			idx := c.registerAnon(lk)
			fo.addLookup(lk.Table, idx)
		}
	}
	for _, stmt := range f.Statements() {
		switch stmt.Kind {
		case syntax.ScriptNode:
			flushBatch()
			fo.onScript(mustTagLenient(ast.CastScript(stmt).Tag()))
		case syntax.LanguageNode:
			flushBatch()
			lang := ast.CastLanguage(stmt)
			fo.onLanguage(mustTagLenient(lang.Tag()), lang.ExcludeDflt())
		case syntax.LookupBlockNode:
			flushBatch()
			if key, ok := c.lookups[ast.CastLookupBlock(stmt).Name()]; ok {
				fo.addLookup(key.table, key.index)
			}
		case syntax.LookupRefNode:
			flushBatch()
			ref := ast.CastLookupRef(stmt)
			if ref.IsFeatureRef() {
				fo.aaltSources = append(fo.aaltSources, ref.Name())
				continue
			}
			if key, ok := c.lookups[ref.Name()]; ok {
				fo.addLookup(key.table, key.index)
			}
		case syntax.SubtableMarkerNode:
			b.split()
		case syntax.SubstituteNode, syntax.PositionNode:
			res, ok := c.lowerStatement(stmt)
			if !ok {
				continue
			}
			if feature == aaltTag {
				c.recordAaltExplicit(res.subtable)
			}
			if flushed := b.push(res); flushed != nil {
				idx := c.registerAnon(flushed)
				fo.addLookup(flushed.Table, idx)
			}
		}
	}
	flushBatch()
	fo.finish()
	if feature == aaltTag {
		c.aaltLangSys = appendUniqueLangSys(c.aaltLangSys, fo.gsub.scopedLangSys(c.sym.LanguageSystems)...)
		if len(fo.aaltSources) > 0 {
			c.aaltRequests = append(c.aaltRequests, fo.aaltSources...)
		}
	}
}

// recordAaltExplicit marks every input glyph a bare sub…by…/sub…from[…];
// statement written directly inside an aalt block already covers, so
// synthesizeAalt's cross-reference aggregation doesn't override it — an
// explicit rule in the block itself always wins over an aggregated one for
// the same glyph.
func (c *compiler) recordAaltExplicit(st ir.Subtable) {
	switch s := st.(type) {
	case *ir.SingleSubst:
		for in := range s.Mapping {
			c.aaltExplicitGIDs[in] = true
		}
	case *ir.AlternateSubst:
		for in := range s.Mapping {
			c.aaltExplicitGIDs[in] = true
		}
	}
}

func appendUniqueLangSys(dst []ir.LangSys, add ...ir.LangSys) []ir.LangSys {
	for _, v := range add {
		found := false
		for _, existing := range dst {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// synthesizeAalt builds an "Access All Alternates" feature from every
// SingleSubst/AlternateSubst mapping contributed by the features an aalt
// block cross-referenced via `feature <tag>;`, unioning alternates per
// input glyph across all referenced features. A glyph an aalt block already
// covers with its own bare sub…by…/sub…from[…]; statement is left out of the
// aggregation — the block's explicit rule wins, the synthesized one never
// overrides it. The resulting lookup is registered as one new anonymous
// lookup applied only to the script/language scope the aalt block(s)
// themselves fanned out to, not to every declared languagesystem.
func (c *compiler) synthesizeAalt() {
	if len(c.aaltRequests) == 0 {
		return
	}
	alternates := map[ir.GID][]ir.GID{}
	seen := map[string]bool{}
	for _, name := range c.aaltRequests {
		if seen[name] {
			continue
		}
		seen[name] = true
		tag := mustTagLenient(name)
		for _, idx := range c.featureGSUBLookups[tag] {
			if idx < 0 || idx >= len(c.gsub.Lookups) {
				continue
			}
			for _, st := range c.gsub.Lookups[idx].Subtables {
				switch s := st.(type) {
				case *ir.SingleSubst:
					for in, out := range s.Mapping {
						if c.aaltExplicitGIDs[in] {
							continue
						}
						alternates[in] = appendUniqueGID(alternates[in], out)
					}
				case *ir.AlternateSubst:
					for in, outs := range s.Mapping {
						if c.aaltExplicitGIDs[in] {
							continue
						}
						alternates[in] = appendUniqueGID(alternates[in], outs...)
					}
				}
			}
		}
	}
	if len(alternates) == 0 {
		return
	}
	lk := &ir.Lookup{Table: ir.GSUB, Type: ir.GSUBAlternate, Subtables: []ir.Subtable{&ir.AlternateSubst{Mapping: alternates}}}
	idx := c.gsub.AddLookup(lk)
	scope := c.aaltLangSys
	if len(scope) == 0 {
		for _, d := range c.sym.LanguageSystems {
			scope = append(scope, ir.LangSys{Script: d.Script, Language: d.Language})
		}
	}
	seenLS := map[ir.LangSys]bool{}
	for _, ls := range scope {
		if seenLS[ls] {
			continue
		}
		seenLS[ls] = true
		// An aalt block's own explicit statements already produced a
		// FeatureRecord for this languagesystem via fo.finish(); fold the
		// synthesized lookup into that same record instead of appending a
		// second one for the same (script, language, aalt) triple.
		merged := false
		for i := range c.gsub.Features {
			r := &c.gsub.Features[i]
			if r.Feature == aaltTag && r.Script == ls.Script && r.Language == ls.Language {
				r.LookupIndices = append(r.LookupIndices, idx)
				merged = true
				break
			}
		}
		if !merged {
			c.gsub.Features = append(c.gsub.Features, ir.FeatureRecord{
				Script: ls.Script, Language: ls.Language, Feature: aaltTag, LookupIndices: []int{idx},
			})
		}
	}
}
