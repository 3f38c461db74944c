package parser

import "github.com/otlayout/fea/lexer"

// TokenSet is an immutable set of lexer.Kind values, used to describe
// "what could legally begin the next sibling" for error recovery, and
// "what first-set identifies this production" for dispatch.
type TokenSet struct {
	m map[lexer.Kind]bool
}

// NewTokenSet builds a TokenSet from the given kinds.
func NewTokenSet(kinds ...lexer.Kind) TokenSet {
	m := make(map[lexer.Kind]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return TokenSet{m: m}
}

// Contains reports whether k is a member.
func (s TokenSet) Contains(k lexer.Kind) bool {
	return s.m[k]
}

// Union returns a new TokenSet containing the members of both sets.
func (s TokenSet) Union(other TokenSet) TokenSet {
	m := make(map[lexer.Kind]bool, len(s.m)+len(other.m))
	for k := range s.m {
		m[k] = true
	}
	for k := range other.m {
		m[k] = true
	}
	return TokenSet{m: m}
}

// Add returns a new TokenSet with k added.
func (s TokenSet) Add(k lexer.Kind) TokenSet {
	return s.Union(NewTokenSet(k))
}

// Well-known recovery sets, grounded in the teacher grammar's
// TOP_LEVEL / FEATURE_STATEMENT / TOP_SEMI sets.
var (
	EmptySet = TokenSet{}

	TopLevelStart = NewTokenSet(
		lexer.KwLanguagesystem, lexer.KwInclude, lexer.KwFeature,
		lexer.KwTable, lexer.KwLookup, lexer.NamedClass,
		lexer.KwMarkClass, lexer.KwAnchorDef, lexer.KwValueRecordDef,
	)

	FeatureStatementStart = NewTokenSet(
		lexer.KwSub, lexer.KwSubstitute, lexer.KwRsub, lexer.KwReversesub,
		lexer.KwPos, lexer.KwPosition, lexer.KwEnum, lexer.KwIgnore,
		lexer.NamedClass, lexer.KwMarkClass, lexer.KwParameters,
		lexer.KwSubtable, lexer.KwLookup, lexer.KwLookupflag,
		lexer.KwScript, lexer.KwLanguage, lexer.KwFeature,
		lexer.KwSizemenuname, lexer.KwCvParameters, lexer.KwFeatureNames,
	)

	TopSemi = TopLevelStart.Add(lexer.Semi)

	IdentLike = NewTokenSet(lexer.GlyphName, lexer.Ident)
)
