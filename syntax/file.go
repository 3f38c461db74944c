package syntax

// File pairs a parsed tree with the identifier its diagnostic spans carry
// (see diag.Span.File). Validate and Compile both accept a root tree plus
// zero or more included files this way, so a declaration or rule that
// lives in an included source is walked exactly like one in the root,
// with diagnostics still attributable to the file that wrote it.
type File struct {
	ID   string
	Root *Node
}
