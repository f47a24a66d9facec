package schemas

// -- Content Classification Schemas --

// TokenKind distinguishes the two span kinds of classified content.
type TokenKind string

const (
	TokenLiteral  TokenKind = "literal"
	TokenVariable TokenKind = "variable"
)

// ContentToken is one span of a content string: either a run of literal
// text, or a {{name}} placeholder. The ordered token sequence reconstructs
// the original content exactly when variable spans are treated as opaque.
type ContentToken struct {
	Kind TokenKind `json:"kind"`
	// Text is the literal run, populated for TokenLiteral.
	Text string `json:"text,omitempty"`
	// Name is the trimmed variable name, populated for TokenVariable.
	Name string `json:"name,omitempty"`
	// Raw is the original placeholder span including braces, populated for
	// TokenVariable. Substitution replaces Raw, so untrimmed whitespace
	// inside the braces round-trips.
	Raw string `json:"raw,omitempty"`
}

// ContentClass is the overall classification of a content string.
type ContentClass string

const (
	// ContentEmpty means the string has no content at all.
	ContentEmpty ContentClass = "empty"
	// ContentRaw means literal text only, no tokens.
	ContentRaw ContentClass = "raw"
	// ContentTemplate means tokens only, no literal text.
	ContentTemplate ContentClass = "template"
	// ContentMixed means both literal text and tokens.
	ContentMixed ContentClass = "mixed"
)

// ClassifiedContent is the result of classifying one content string.
type ClassifiedContent struct {
	Class  ContentClass   `json:"class"`
	Tokens []ContentToken `json:"tokens"`
}

// VariableNames returns the ordered variable names in the token sequence,
// including duplicates.
func (c ClassifiedContent) VariableNames() []string {
	var names []string
	for _, tok := range c.Tokens {
		if tok.Kind == TokenVariable {
			names = append(names, tok.Name)
		}
	}
	return names
}
