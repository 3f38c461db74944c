package lexer

// Kind identifies the lexical category of a Token. The set is closed: every
// byte of source maps to exactly one Kind, including malformed regions
// (Error) and trivia (Whitespace, Comment, Newline).
type Kind uint16

const (
	Error Kind = iota
	EOF

	// Trivia
	Whitespace
	Newline
	Comment

	// Literals
	Number       // decimal or hex (0x...) integer; a leading '-' is its own Hyphen token
	GlyphName    // bare glyph name
	Cid          // \123
	String       // "quoted string"
	NamedClass   // @className
	Ident        // any other identifier-shaped run, not a reserved keyword

	// Punctuation
	LBrace
	RBrace
	LBracket
	RBracket
	LParen
	RParen
	Semi
	Comma
	Hyphen
	Equals
	LAngle
	RAngle
	Quote
	ColonColon
	DotDot
	At
	Backslash

	firstKeyword
	// Keywords
	KwLanguagesystem
	KwInclude
	KwFeature
	KwTable
	KwLookup
	KwLookupflag
	KwScript
	KwLanguage
	KwSub
	KwSubstitute
	KwRsub
	KwReversesub
	KwPos
	KwPosition
	KwEnum
	KwIgnore
	KwBy
	KwFrom
	KwAnon
	KwAnonymous
	KwMarkClass
	KwAnchorDef
	KwAnchor
	KwMark
	KwBase
	KwLigComponent
	KwCursive
	KwCaret
	KwUseExtension
	KwValueRecordDef
	KwParameters
	KwFeatureNames
	KwCvParameters
	KwSizemenuname
	KwName
	KwNameid
	KwIncludeDflt
	KwExcludeDflt
	KwRightToLeft
	KwIgnoreBaseGlyphs
	KwIgnoreLigatures
	KwIgnoreMarks
	KwMarkAttachmentType
	KwUseMarkFilteringSet
	KwSubtable
	KwNull
	lastKeyword
)

var keywordText = map[string]Kind{
	"languagesystem":       KwLanguagesystem,
	"include":              KwInclude,
	"feature":              KwFeature,
	"table":                KwTable,
	"lookup":                KwLookup,
	"lookupflag":           KwLookupflag,
	"script":               KwScript,
	"language":             KwLanguage,
	"sub":                  KwSub,
	"substitute":           KwSubstitute,
	"rsub":                 KwRsub,
	"reversesub":           KwReversesub,
	"pos":                  KwPos,
	"position":             KwPosition,
	"enum":                 KwEnum,
	"ignore":               KwIgnore,
	"by":                   KwBy,
	"from":                 KwFrom,
	"anon":                 KwAnon,
	"anonymous":            KwAnonymous,
	"markClass":            KwMarkClass,
	"anchorDef":            KwAnchorDef,
	"anchor":               KwAnchor,
	"mark":                 KwMark,
	"base":                 KwBase,
	"ligComponent":         KwLigComponent,
	"cursive":              KwCursive,
	"caret":                KwCaret,
	"useExtension":         KwUseExtension,
	"valueRecordDef":       KwValueRecordDef,
	"parameters":           KwParameters,
	"featureNames":         KwFeatureNames,
	"cvParameters":         KwCvParameters,
	"sizemenuname":         KwSizemenuname,
	"name":                 KwName,
	"nameid":               KwNameid,
	"IncludeDefaultLang":   KwIncludeDflt,
	"ExcludeDefaultLang":   KwExcludeDflt,
	"RightToLeft":          KwRightToLeft,
	"IgnoreBaseGlyphs":     KwIgnoreBaseGlyphs,
	"IgnoreLigatures":      KwIgnoreLigatures,
	"IgnoreMarks":          KwIgnoreMarks,
	"MarkAttachmentType":   KwMarkAttachmentType,
	"UseMarkFilteringSet":  KwUseMarkFilteringSet,
	"subtable":             KwSubtable,
	"NULL":                 KwNull,
}

// IsKeyword reports whether k denotes a reserved word rather than a
// structural, literal or trivia token.
func (k Kind) IsKeyword() bool {
	return k > firstKeyword && k < lastKeyword
}

var kindNames = map[Kind]string{
	Error: "Error", EOF: "EOF",
	Whitespace: "Whitespace", Newline: "Newline", Comment: "Comment",
	Number: "Number", GlyphName: "GlyphName", Cid: "Cid", String: "String",
	NamedClass: "NamedClass", Ident: "Ident",
	LBrace: "LBrace", RBrace: "RBrace", LBracket: "LBracket", RBracket: "RBracket",
	LParen: "LParen", RParen: "RParen", Semi: "Semi", Comma: "Comma",
	Hyphen: "Hyphen", Equals: "Equals", LAngle: "LAngle", RAngle: "RAngle",
	Quote: "Quote", ColonColon: "ColonColon", DotDot: "DotDot", At: "At",
	Backslash: "Backslash",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	for word, kind := range keywordText {
		if kind == k {
			return "Kw:" + word
		}
	}
	return "Kind(?)"
}

// Token is a single lexeme: a Kind plus the byte span [Start, End) it
// occupies in the source it was lexed from.
type Token struct {
	Kind  Kind
	Start int
	End   int
}

// Len returns the byte length of the token's span.
func (t Token) Len() int { return t.End - t.Start }
