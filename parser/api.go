package parser

import (
	"github.com/otlayout/fea/diag"
	"github.com/otlayout/fea/ferr"
	"github.com/otlayout/fea/syntax"
)

// DefaultMaxIncludeDepth bounds include nesting so a misconfigured
// resolver (or a cycle that somehow slips past detection) can't recurse
// forever.
const DefaultMaxIncludeDepth = 50

// FileResolver turns an include path written in some source file into the
// text of the file it names. fromFile is the resolved ID of the file the
// include statement appears in (the rootFile name given to
// ParseWithIncludes, for the root source), letting a resolver implement
// path resolution relative to the including file. The returned id must be
// a canonical, comparison-stable identity for the resolved file (e.g. an
// absolute path), since cycle detection keys off it. A file reached
// through two different include paths is resolved and parsed once per
// path.
type FileResolver interface {
	Resolve(fromFile, path string) (id string, src string, err error)
}

// ParseSource parses a single, self-contained source with no include
// expansion. file is used only for diagnostic spans.
func ParseSource(file, src string) (*syntax.Node, *diag.Bag) {
	p := New(file, src)
	Root(p)
	return p.Finish()
}

// IncludeResult is one expanded 'include' directive: the IncludeNode it
// was produced from in the including file's tree, the path text as
// written, and (if resolution succeeded) the included file's own parse.
type IncludeResult struct {
	Node        *syntax.Node
	Path        string
	ResolvedID  string
	Tree        *syntax.Node
	Diagnostics *diag.Bag
	Includes    []IncludeResult // this file's own includes, expanded recursively
}

// ParseResult is the output of ParseWithIncludes: the root file's own
// identity, tree and diagnostics, plus the recursively expanded include
// graph.
type ParseResult struct {
	File        string
	Tree        *syntax.Node
	Diagnostics *diag.Bag
	Includes    []IncludeResult
}

// ParseWithIncludes parses rootSrc and recursively resolves every
// 'include' directive reachable from it through resolver, enforcing
// maxDepth (pass 0 for DefaultMaxIncludeDepth) and detecting cycles by
// canonical-path identity. A cycle or a resolution failure is reported as
// a diagnostic on the offending IncludeNode's host file and that branch
// simply has a nil Tree; sibling includes are still expanded.
func ParseWithIncludes(resolver FileResolver, rootFile, rootSrc string, maxDepth int) *ParseResult {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxIncludeDepth
	}
	tree, diags := ParseSource(rootFile, rootSrc)
	res := &ParseResult{File: rootFile, Tree: tree, Diagnostics: diags}
	res.Includes = expandIncludes(resolver, tree, rootFile, map[string]bool{rootFile: true}, 1, maxDepth)
	return res
}

// Flatten returns every tree reachable from r paired with its file
// identity, in depth-first include order, starting with the root itself.
// A branch that failed to resolve (nil Tree) is skipped; its diagnostic
// already reported the failure and AllDiagnostics still carries it.
// Validate and Compile both take this directly as their includes
// argument, minus the first (root) entry, which they take separately.
func (r *ParseResult) Flatten() []syntax.File {
	files := []syntax.File{{ID: r.File, Root: r.Tree}}
	return appendIncludeFiles(files, r.Includes)
}

func appendIncludeFiles(files []syntax.File, incs []IncludeResult) []syntax.File {
	for _, inc := range incs {
		if inc.Tree != nil {
			files = append(files, syntax.File{ID: inc.ResolvedID, Root: inc.Tree})
		}
		files = appendIncludeFiles(files, inc.Includes)
	}
	return files
}

// AllDiagnostics merges the root's own lexer/parser diagnostics with
// every included file's diagnostics and include-resolution failures, in
// depth-first order.
func (r *ParseResult) AllDiagnostics() *diag.Bag {
	bag := diag.NewBag()
	bag.Extend(r.Diagnostics)
	appendIncludeDiagnostics(bag, r.Includes)
	return bag
}

func appendIncludeDiagnostics(bag *diag.Bag, incs []IncludeResult) {
	for _, inc := range incs {
		bag.Extend(inc.Diagnostics)
		appendIncludeDiagnostics(bag, inc.Includes)
	}
}

func expandIncludes(resolver FileResolver, tree *syntax.Node, fromFile string, openStack map[string]bool, depth, maxDepth int) []IncludeResult {
	if tree == nil || resolver == nil {
		return nil
	}
	var out []IncludeResult
	for _, n := range tree.ChildNodes() {
		if n.Kind != syntax.IncludeNode {
			continue
		}
		path := IncludePath(n)
		ir := IncludeResult{Node: n, Path: path}

		if depth > maxDepth {
			err := ferr.New(ferr.EIncludeDepth, "include depth exceeds the limit of %d while resolving %q", maxDepth, path)
			ir.Diagnostics = bagOf(spanErrorf(fromFile, n, "%s", err.(ferr.AppError).UserMessage()))
			out = append(out, ir)
			continue
		}

		id, src, rerr := resolver.Resolve(fromFile, path)
		if rerr != nil {
			err := ferr.Wrap(rerr, ferr.EResolve, "cannot resolve include %q: %v", path, rerr)
			ir.Diagnostics = bagOf(spanErrorf(fromFile, n, "%s", err.(ferr.AppError).UserMessage()))
			out = append(out, ir)
			continue
		}
		ir.ResolvedID = id

		if openStack[id] {
			err := ferr.New(ferr.EIncludeCycle, "include cycle detected: %q is already open on this include chain", id)
			ir.Diagnostics = bagOf(spanErrorf(fromFile, n, "%s", err.(ferr.AppError).UserMessage()))
			out = append(out, ir)
			continue
		}

		childTree, childDiags := ParseSource(id, src)
		ir.Tree = childTree
		ir.Diagnostics = childDiags

		nested := map[string]bool{id: true}
		for k := range openStack {
			nested[k] = true
		}
		ir.Includes = expandIncludes(resolver, childTree, id, nested, depth+1, maxDepth)
		out = append(out, ir)
	}
	return out
}

func bagOf(d diag.Diagnostic) *diag.Bag {
	b := diag.NewBag()
	b.Add(d)
	return b
}

func spanErrorf(file string, n *syntax.Node, format string, args ...interface{}) diag.Diagnostic {
	span := diag.Span{File: file, Start: n.RelPos(), End: n.RelPos() + n.Len()}
	return diag.Errorf(span, format, args...)
}
