package ast

import "github.com/otlayout/fea/syntax"

// Root is the top-level view over a parsed source file.
type Root struct{ Node }

// CastRoot casts n to a Root view. Present() reports whether n was
// actually a syntax.Root node.
func CastRoot(n *syntax.Node) Root {
	if n == nil || n.Kind != syntax.Root {
		return Root{}
	}
	return Root{Node{n}}
}

// Items returns every top-level declaration, in source order, skipping
// trivia and bare ErrorNode recovery regions.
func (r Root) Items() []*syntax.Node {
	if r.n == nil {
		return nil
	}
	var out []*syntax.Node
	for _, c := range r.n.ChildNodes() {
		if c.Kind == syntax.ErrorNode {
			continue
		}
		out = append(out, c)
	}
	return out
}

// LanguageSystem is a `languagesystem <script> <language>;` declaration.
type LanguageSystem struct{ Node }

// CastLanguageSystem casts n to a LanguageSystem view.
func CastLanguageSystem(n *syntax.Node) LanguageSystem {
	if n == nil || n.Kind != syntax.LanguageSystemNode {
		return LanguageSystem{}
	}
	return LanguageSystem{Node{n}}
}

// Script and Language return the two Tag children's text, in the order
// they were written (script first).
func (ls LanguageSystem) Script() string { return ls.tagAt(0) }
func (ls LanguageSystem) Language() string { return ls.tagAt(1) }

func (ls LanguageSystem) tagAt(index int) string {
	if ls.n == nil {
		return ""
	}
	i := 0
	for _, c := range ls.n.ChildTokens() {
		if c.Kind == syntax.TagNode {
			if i == index {
				return c.Text
			}
			i++
		}
	}
	return ""
}

// Include is an `include (path);` directive.
type Include struct{ Node }

// CastInclude casts n to an Include view.
func CastInclude(n *syntax.Node) Include {
	if n == nil || n.Kind != syntax.IncludeNode {
		return Include{}
	}
	return Include{Node{n}}
}
