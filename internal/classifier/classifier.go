// Package classifier scans content strings for {{variable}} tokens and
// classifies them. Classification is a pure function of its input: no
// state, no side effects, and classifying twice yields identical output.
package classifier

import (
	"strings"

	"github.com/canvaspress/canvaspress/api/schemas"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Classify splits content into an ordered span sequence and derives the
// overall content class. The rules are deliberately small:
//
//   - spans match {{<name>}} left-to-right, non-overlapping;
//   - the name is trimmed of surrounding whitespace;
//   - an opener with no matching closer is literal text;
//   - an empty name ({{}} or whitespace-only) is literal text;
//   - a name outside the dot-path grammar (letters, digits, '_', '.',
//     '-') is literal text, so a stray opener in one span can never pair
//     with a later span's closer and capture the markup in between.
//
// Concatenating the spans, with variable spans contributing their Raw
// text, reconstructs the input exactly.
func Classify(content string) schemas.ClassifiedContent {
	if content == "" {
		return schemas.ClassifiedContent{Class: schemas.ContentEmpty}
	}

	var tokens []schemas.ContentToken
	rest := content

	for rest != "" {
		open := strings.Index(rest, openDelim)
		if open < 0 {
			tokens = appendLiteral(tokens, rest)
			break
		}

		close := strings.Index(rest[open+len(openDelim):], closeDelim)
		if close < 0 {
			// Unterminated opener. Everything from here on is literal.
			tokens = appendLiteral(tokens, rest)
			break
		}

		inner := rest[open+len(openDelim) : open+len(openDelim)+close]
		raw := rest[open : open+len(openDelim)+close+len(closeDelim)]
		name := strings.TrimSpace(inner)

		if open > 0 {
			tokens = appendLiteral(tokens, rest[:open])
		}

		if name == "" || !validTokenName(name) {
			if strings.Contains(inner, openDelim) {
				// The closer belongs to a token opened later in the span;
				// only the stray opener is literal, and scanning resumes
				// right after it so that token still matches.
				tokens = appendLiteral(tokens, openDelim)
				rest = rest[open+len(openDelim):]
				continue
			}
			// {{}} and malformed names carry no variable; the whole span
			// stays literal text.
			tokens = appendLiteral(tokens, raw)
		} else {
			tokens = append(tokens, schemas.ContentToken{
				Kind: schemas.TokenVariable,
				Name: name,
				Raw:  raw,
			})
		}

		rest = rest[open+len(raw):]
	}

	return schemas.ClassifiedContent{
		Class:  classOf(tokens),
		Tokens: tokens,
	}
}

// validTokenName reports whether a trimmed name fits the dot-path token
// grammar. Anything else (markup, braces, interior whitespace) marks the
// span as literal text rather than a variable.
func validTokenName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}

// appendLiteral adds a literal span, merging with a preceding literal so
// the sequence never holds two adjacent literal spans.
func appendLiteral(tokens []schemas.ContentToken, text string) []schemas.ContentToken {
	if n := len(tokens); n > 0 && tokens[n-1].Kind == schemas.TokenLiteral {
		tokens[n-1].Text += text
		return tokens
	}
	return append(tokens, schemas.ContentToken{Kind: schemas.TokenLiteral, Text: text})
}

func classOf(tokens []schemas.ContentToken) schemas.ContentClass {
	var hasLiteral, hasVariable bool
	for _, tok := range tokens {
		switch tok.Kind {
		case schemas.TokenLiteral:
			hasLiteral = true
		case schemas.TokenVariable:
			hasVariable = true
		}
	}

	switch {
	case hasLiteral && hasVariable:
		return schemas.ContentMixed
	case hasVariable:
		return schemas.ContentTemplate
	default:
		return schemas.ContentRaw
	}
}

// Reconstruct joins a classified span sequence back into the original
// content string. Useful for verifying the exact-reconstruction invariant.
func Reconstruct(c schemas.ClassifiedContent) string {
	var b strings.Builder
	for _, tok := range c.Tokens {
		if tok.Kind == schemas.TokenVariable {
			b.WriteString(tok.Raw)
		} else {
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}
