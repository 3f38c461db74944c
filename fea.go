/*
Package fea parses, validates and compiles Adobe OpenType Feature File
(FEA) source into the ir package's table structures, wiring together
package parser's lossless syntax tree, package validate's semantic
checks, and package compile's lookup/table lowering behind the entry
points Parse, ParseWithIncludes, Validate, Compile and ParseAndCompile.
*/
package fea

import (
	"github.com/otlayout/fea/compile"
	"github.com/otlayout/fea/diag"
	"github.com/otlayout/fea/ir"
	"github.com/otlayout/fea/parser"
	"github.com/otlayout/fea/syntax"
	"github.com/otlayout/fea/validate"
)

// TableBuilder re-exports package compile's TableBuilder, the interface
// a caller implements to receive Compile's finished tables.
type TableBuilder = compile.TableBuilder

// Config bundles every stage's tuning knobs behind one value, so a
// caller driving ParseAndCompile doesn't need to import package
// validate or package compile directly just to build one.
type Config struct {
	Validate validate.Config
	Compile  compile.Config
}

// Parse lexes and parses src with no include expansion, returning the
// green syntax tree and any lexer/parser diagnostics. file is used only
// for diagnostic spans.
func Parse(file, src string) (*syntax.Node, *diag.Bag) {
	return parser.ParseSource(file, src)
}

// ParseWithIncludes parses src and recursively resolves every 'include'
// directive reachable from it through resolver.
func ParseWithIncludes(resolver parser.FileResolver, file, src string, maxIncludeDepth int) *parser.ParseResult {
	return parser.ParseWithIncludes(resolver, file, src, maxIncludeDepth)
}

// Validate checks tree's semantics against glyphs (name/CID resolution,
// declaration-before-use, duplicate and shape checks) and returns the
// resolved symbol table together with any diagnostics found. Compile
// requires the Symbols this returns. includes, if given, are every
// included file reachable from tree (ParseWithIncludes's ParseResult,
// flattened minus its own root entry) — their declarations are resolved
// into the same symbol table as tree's own.
func Validate(tree *syntax.Node, glyphs ir.GlyphMap, cfg validate.Config, includes ...syntax.File) (*validate.Symbols, *diag.Bag) {
	return validate.Validate(tree, glyphs, cfg, includes...)
}

// Compile lowers tree and includes (already validated together into sym
// by a matching Validate call) into concrete OpenType tables and hands
// each populated one to builder.
func Compile(tree *syntax.Node, sym *validate.Symbols, glyphs ir.GlyphMap, builder TableBuilder, cfg compile.Config, includes ...syntax.File) *diag.Bag {
	return compile.Compile(tree, sym, glyphs, builder, cfg, includes...)
}

// ParseAndCompile runs the full pipeline — parse with include expansion
// through resolver, validate, compile — stopping before validate or
// compile once an earlier stage has reported an error, on the theory that
// a malformed tree or an unresolved name makes anything compile would do
// meaningless. resolver may be nil if src is known to contain no include
// directives; ParseWithIncludes treats a nil resolver as "no includes to
// expand" rather than an error. Diagnostics from every stage that did
// run, across the root source and every expanded include, are merged
// into one bag in stage order.
func ParseAndCompile(resolver parser.FileResolver, file, src string, glyphs ir.GlyphMap, builder TableBuilder, cfg Config) *diag.Bag {
	res := ParseWithIncludes(resolver, file, src, 0)
	bag := res.AllDiagnostics()
	if bag.HasErrors() {
		return bag
	}
	files := res.Flatten()
	includes := files[1:]
	sym, vbag := Validate(res.Tree, glyphs, cfg.Validate, includes...)
	bag.Extend(vbag)
	if bag.HasErrors() {
		return bag
	}
	cbag := Compile(res.Tree, sym, glyphs, builder, cfg.Compile, includes...)
	bag.Extend(cbag)
	return bag
}
