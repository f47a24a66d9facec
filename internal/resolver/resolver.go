// Package resolver substitutes {{variable}} tokens in a generated document
// against runtime data and catalog defaults, with type-aware formatting
// and XSS-safe escaping.
package resolver

import (
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/api/schemas"
	"github.com/canvaspress/canvaspress/internal/classifier"
)

// DefaultMaxDocumentBytes bounds document size when no explicit limit is
// configured.
const DefaultMaxDocumentBytes = 10 * 1024 * 1024

// Resolver performs resolution passes. It holds no per-call state; a
// single Resolver is safe for concurrent use.
type Resolver struct {
	logger   *zap.Logger
	maxBytes int
}

// New creates a Resolver. maxDocumentBytes <= 0 selects the default limit.
func New(logger *zap.Logger, maxDocumentBytes int) *Resolver {
	if maxDocumentBytes <= 0 {
		maxDocumentBytes = DefaultMaxDocumentBytes
	}
	return &Resolver{logger: logger.Named("resolver"), maxBytes: maxDocumentBytes}
}

// Resolve runs the full pipeline: validate, sanitize, flatten, substitute.
// Validation failures are fatal with no partial output; everything after
// validation accumulates diagnostics and always produces a document.
//
// Per token, the lookup order is flattened data, then the default map,
// then the raw top-level data key; the first hit wins. Tokens with no
// match follow the missing policy and never abort the pass.
func (r *Resolver) Resolve(
	document string,
	data map[string]interface{},
	defaults map[string]string,
	opts schemas.ResolveOptions,
) (*schemas.ResolveResult, error) {
	start := time.Now()

	if document == "" {
		return nil, schemas.NewValidationError("document", "document is empty")
	}
	if len(document) > r.maxBytes {
		return nil, schemas.NewValidationError("document", "document is %d bytes, limit is %d", len(document), r.maxBytes)
	}
	if data == nil {
		data = map[string]interface{}{}
	}

	sanitized, warnings := sanitizeData(data)
	flat := flattenData(sanitized)

	result := &schemas.ResolveResult{
		Warnings: warnings,
		Entries:  []schemas.ResolutionEntry{},
		Missing:  []string{},
	}

	// Substitution scans the generated text directly rather than taking a
	// classifier result as input; the generated document is the source of
	// truth at this stage.
	spans := classifier.Classify(document)

	resolved := make(map[string]schemas.ResolutionEntry)
	var b strings.Builder
	b.Grow(len(document))

	for _, tok := range spans.Tokens {
		if tok.Kind == schemas.TokenLiteral {
			b.WriteString(tok.Text)
			continue
		}
		b.WriteString(r.resolveToken(tok, sanitized, flat, defaults, opts, resolved, result))
	}

	result.Document = b.String()
	result.ResolvedCount = len(result.Entries) - len(result.Missing)
	result.MissingCount = len(result.Missing)
	result.Duration = time.Since(start)

	r.logger.Debug("Resolution pass complete.",
		zap.Int("resolved", result.ResolvedCount),
		zap.Int("missing", result.MissingCount),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// resolveToken resolves one variable span. A panic while processing a
// single token is downgraded to a warning plus a missing entry so one bad
// value cannot take down the whole document.
func (r *Resolver) resolveToken(
	tok schemas.ContentToken,
	data map[string]interface{},
	flat map[string]string,
	defaults map[string]string,
	opts schemas.ResolveOptions,
	resolved map[string]schemas.ResolutionEntry,
	result *schemas.ResolveResult,
) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Token processing panicked; marking missing.",
				zap.String("variable", tok.Name), zap.Any("panic", rec))
			result.Warnings = append(result.Warnings, schemas.Warning{
				Kind:    schemas.WarnFormat,
				Key:     tok.Name,
				Message: "token processing failed; treated as missing",
			})
			out = r.noteMissing(tok, opts, resolved, result)
		}
	}()

	// Repeated tokens of the same name resolve identically; reuse the
	// first outcome so entries stay one-per-variable.
	if entry, ok := resolved[tok.Name]; ok {
		if entry.Provenance == schemas.ProvenanceMissing {
			return r.missingText(tok, opts)
		}
		return entry.Value
	}

	value, provenance, ok := lookup(tok.Name, data, flat, defaults)
	if !ok {
		return r.noteMissing(tok, opts, resolved, result)
	}

	value = formatValue(tok.Name, value)
	if opts.ShouldEscape() {
		value = html.EscapeString(value)
	}

	entry := schemas.ResolutionEntry{Variable: tok.Name, Value: value, Provenance: provenance}
	resolved[tok.Name] = entry
	result.Entries = append(result.Entries, entry)
	return value
}

// lookup implements the documented precedence: flattened data, default
// map, raw top-level key.
func lookup(name string, data map[string]interface{}, flat map[string]string, defaults map[string]string) (string, schemas.Provenance, bool) {
	if v, ok := flat[name]; ok {
		return v, schemas.ProvenanceData, true
	}
	if v, ok := defaults[name]; ok {
		return v, schemas.ProvenanceDefault, true
	}
	if raw, ok := data[name]; ok {
		if s, isString := raw.(string); isString {
			return s, schemas.ProvenanceData, true
		}
		return stringifyLeaf(raw), schemas.ProvenanceData, true
	}
	return "", schemas.ProvenanceMissing, false
}

// noteMissing records a missing token once per name and renders it per the
// missing policy.
func (r *Resolver) noteMissing(
	tok schemas.ContentToken,
	opts schemas.ResolveOptions,
	resolved map[string]schemas.ResolutionEntry,
	result *schemas.ResolveResult,
) string {
	if _, seen := resolved[tok.Name]; !seen {
		entry := schemas.ResolutionEntry{Variable: tok.Name, Provenance: schemas.ProvenanceMissing}
		resolved[tok.Name] = entry
		result.Entries = append(result.Entries, entry)
		result.Missing = append(result.Missing, tok.Name)
	}
	return r.missingText(tok, opts)
}

func (r *Resolver) missingText(tok schemas.ContentToken, opts schemas.ResolveOptions) string {
	switch opts.Policy() {
	case schemas.MissingRemove:
		return ""
	case schemas.MissingPlaceholder:
		if opts.ShouldEscape() {
			return html.EscapeString(opts.MissingText)
		}
		return opts.MissingText
	default:
		return tok.Raw
	}
}
