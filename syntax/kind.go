package syntax

import "github.com/otlayout/fea/lexer"

// Kind tags every green tree element, leaf or interior. Leaf kinds are
// borrowed directly from lexer.Kind (the numeric spaces are disjoint: node
// kinds start at nodeKindBase, well above the lexer's keyword range), so a
// single switch can dispatch on either without a wrapper type.
type Kind uint16

const nodeKindBase Kind = 1 << 12

// FromToken lifts a lexer.Kind into the shared Kind space.
func FromToken(k lexer.Kind) Kind { return Kind(k) }

// IsToken reports whether k denotes a leaf (lexer-produced) kind rather
// than an interior node kind.
func (k Kind) IsToken() bool { return k < nodeKindBase }

// Node kinds. Every non-leaf green node carries one of these.
const (
	Root Kind = nodeKindBase + iota
	ErrorNode
	LanguageSystemNode
	IncludeNode
	GlyphClassDefNode
	GlyphClassLiteralNode
	GlyphClassRefNode
	GlyphSeqNode
	MarkClassDefNode
	AnchorDefNode
	AnchorNode
	ValueRecordDefNode
	ValueRecordNode
	FeatureNode
	LookupBlockNode
	LookupRefNode
	LookupflagNode
	TableNode
	ScriptNode
	LanguageNode
	SubstituteNode
	PositionNode
	TagNode
	LabelNode
	NameEntryNode
	FeatureNamesNode
	CvParametersNode
	SizemenunameNode
	ParametersNode
	SubtableMarkerNode
)

var nodeKindNames = map[Kind]string{
	Root:                  "Root",
	ErrorNode:             "Error",
	LanguageSystemNode:    "LanguageSystem",
	IncludeNode:           "Include",
	GlyphClassDefNode:     "GlyphClassDef",
	GlyphClassLiteralNode: "GlyphClassLiteral",
	GlyphClassRefNode:     "GlyphClassRef",
	GlyphSeqNode:          "GlyphSeq",
	MarkClassDefNode:      "MarkClassDef",
	AnchorDefNode:         "AnchorDef",
	AnchorNode:            "Anchor",
	ValueRecordDefNode:    "ValueRecordDef",
	ValueRecordNode:       "ValueRecord",
	FeatureNode:           "Feature",
	LookupBlockNode:       "LookupBlock",
	LookupRefNode:         "LookupRef",
	LookupflagNode:        "Lookupflag",
	TableNode:             "Table",
	ScriptNode:            "Script",
	LanguageNode:          "Language",
	SubstituteNode:        "Substitute",
	PositionNode:          "Position",
	TagNode:               "Tag",
	LabelNode:             "Label",
	NameEntryNode:         "NameEntry",
	FeatureNamesNode:      "FeatureNames",
	CvParametersNode:      "CvParameters",
	SizemenunameNode:      "Sizemenuname",
	ParametersNode:        "Parameters",
	SubtableMarkerNode:    "SubtableMarker",
}

func (k Kind) String() string {
	if k.IsToken() {
		return lexer.Kind(k).String()
	}
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "UnknownKind"
}
