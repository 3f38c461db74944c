package compile

import "github.com/otlayout/fea/ir"

// inferGDEF classifies glyphs from how the file's rules actually use
// them, for a file with no explicit `table GDEF { ... }` block: mark
// -class members become GlyphClassMark, ligature-substitution outputs
// become GlyphClassLigature (their non-initial components become
// GlyphClassComponent), and mark-attachment base/ligature/mark targets
// become the matching base/ligature/mark class. An explicit assignment
// from markClass declarations always wins over one inferred later from
// rule usage.
func (c *compiler) inferGDEF() {
	assign := func(g ir.GID, cls ir.GlyphClass) {
		if _, ok := c.gdef.GlyphClasses[g]; !ok {
			c.gdef.GlyphClasses[g] = cls
		}
	}
	for _, mc := range c.sym.MarkClasses {
		for _, g := range mc.Glyphs().GIDs() {
			assign(g, ir.GlyphClassMark)
		}
	}
	for _, lk := range c.gsub.Lookups {
		for _, st := range lk.Subtables {
			lig, ok := st.(*ir.LigatureSubst)
			if !ok {
				continue
			}
			for _, r := range lig.Rules {
				assign(r.Ligature, ir.GlyphClassLigature)
				for _, comp := range r.Components[1:] {
					assign(comp, ir.GlyphClassComponent)
				}
			}
		}
	}
	for _, lk := range c.gpos.Lookups {
		for _, st := range lk.Subtables {
			switch s := st.(type) {
			case *ir.MarkToBasePos:
				for g := range s.Attachments {
					assign(g, ir.GlyphClassBase)
				}
			case *ir.MarkToLigPos:
				for g := range s.Attachments {
					assign(g, ir.GlyphClassLigature)
				}
			case *ir.MarkToMarkPos:
				for g := range s.Attachments {
					assign(g, ir.GlyphClassMark)
				}
			}
		}
	}
}
