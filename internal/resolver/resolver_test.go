package resolver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/api/schemas"
)

func newTestResolver() *Resolver {
	return New(zap.NewNop(), 0)
}

func mustResolve(t *testing.T, doc string, data map[string]interface{}, defaults map[string]string, opts schemas.ResolveOptions) *schemas.ResolveResult {
	t.Helper()
	result, err := newTestResolver().Resolve(doc, data, defaults, opts)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestResolveBasicSubstitution(t *testing.T) {
	result := mustResolve(t, "Hello {{name}}!",
		map[string]interface{}{"name": "World"}, nil, schemas.ResolveOptions{})

	assert.Equal(t, "Hello World!", result.Document)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, schemas.ProvenanceData, result.Entries[0].Provenance)
	assert.Empty(t, result.Missing)
	assert.Empty(t, result.Warnings)
}

func TestResolveDefaultFallbackAndMissingKeep(t *testing.T) {
	result := mustResolve(t, "{{a}}{{b}}",
		map[string]interface{}{},
		map[string]string{"a": "X"},
		schemas.ResolveOptions{MissingPolicy: schemas.MissingKeep})

	assert.Equal(t, "X{{b}}", result.Document)
	assert.Equal(t, []string{"b"}, result.Missing)

	byName := map[string]schemas.Provenance{}
	for _, e := range result.Entries {
		byName[e.Variable] = e.Provenance
	}
	assert.Equal(t, schemas.ProvenanceDefault, byName["a"])
	assert.Equal(t, schemas.ProvenanceMissing, byName["b"])
}

func TestResolveMissingPolicies(t *testing.T) {
	doc := "[{{gone}}]"

	t.Run("Remove", func(t *testing.T) {
		result := mustResolve(t, doc, nil, nil, schemas.ResolveOptions{MissingPolicy: schemas.MissingRemove})
		assert.Equal(t, "[]", result.Document)
	})

	t.Run("Placeholder", func(t *testing.T) {
		result := mustResolve(t, doc, nil, nil, schemas.ResolveOptions{
			MissingPolicy: schemas.MissingPlaceholder,
			MissingText:   "N/A",
		})
		assert.Equal(t, "[N/A]", result.Document)
	})

	t.Run("KeepIsDefault", func(t *testing.T) {
		result := mustResolve(t, doc, nil, nil, schemas.ResolveOptions{})
		assert.Equal(t, "[{{gone}}]", result.Document)
	})
}

func TestResolveStrayOpenerStaysLiteral(t *testing.T) {
	doc := `<div id="el-a">look {{here</div><div id="el-b">{{b}}</div>`
	data := map[string]interface{}{"b": "X"}

	t.Run("Keep", func(t *testing.T) {
		result := mustResolve(t, doc, data, nil, schemas.ResolveOptions{})
		assert.Equal(t, `<div id="el-a">look {{here</div><div id="el-b">X</div>`, result.Document)
	})

	// The stray opener in el-a must not pair with a closer in a later
	// span; under the remove policy only genuinely missing variables
	// vanish, never the markup between elements.
	t.Run("Remove", func(t *testing.T) {
		result := mustResolve(t, doc, data, nil, schemas.ResolveOptions{MissingPolicy: schemas.MissingRemove})
		assert.Equal(t, `<div id="el-a">look {{here</div><div id="el-b">X</div>`, result.Document)
	})
}

func TestResolveNestedDataFlattening(t *testing.T) {
	data := map[string]interface{}{
		"agent": map[string]interface{}{
			"name":  "Riley Chen",
			"phone": "3035550123",
		},
	}

	result := mustResolve(t, "{{agent.name}} - {{agent.phone}}", data, nil, schemas.ResolveOptions{})
	assert.Equal(t, "Riley Chen - (303) 555-0123", result.Document)
}

func TestResolveFlattenedNestedWinsCollision(t *testing.T) {
	data := map[string]interface{}{
		"agent.name": "Flat Value",
		"agent": map[string]interface{}{
			"name": "Nested Value",
		},
	}

	result := mustResolve(t, "{{agent.name}}", data, nil, schemas.ResolveOptions{})
	assert.Equal(t, "Nested Value", result.Document)
}

func TestResolveTypeFormatting(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		data  map[string]interface{}
		want  string
	}{
		{"Phone", "{{agent.phone}}", map[string]interface{}{"agent.phone": "3035550123"}, "(303) 555-0123"},
		{"PhoneWithCountryCode", "{{agent.phone}}", map[string]interface{}{"agent.phone": "13035550123"}, "(303) 555-0123"},
		{"Currency", "{{property.price}}", map[string]interface{}{"property.price": "750000"}, "$750,000"},
		{"CurrencyNumeric", "{{property.price}}", map[string]interface{}{"property.price": 750000.0}, "$750,000"},
		{"CurrencyAlreadyFormatted", "{{property.price}}", map[string]interface{}{"property.price": "$1,200"}, "$1,200"},
		{"URLSchemePrefixed", "{{agency.website_url}}", map[string]interface{}{"agency.website_url": "example.com/home"}, "https://example.com/home"},
		{"URLWithScheme", "{{agency.website_url}}", map[string]interface{}{"agency.website_url": "http://example.com"}, "http://example.com"},
		{"AreaSuffix", "{{property.sqft}}", map[string]interface{}{"property.sqft": "2450"}, "2,450 sq ft"},
		{"PlainText", "{{description}}", map[string]interface{}{"description": "Sunny corner lot"}, "Sunny corner lot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustResolve(t, tt.doc, tt.data, nil, schemas.ResolveOptions{})
			assert.Equal(t, tt.want, result.Document)
		})
	}
}

func TestResolveEscapesValues(t *testing.T) {
	result := mustResolve(t, "{{note}}",
		map[string]interface{}{"note": `a "quoted" & <tagged> note`}, nil, schemas.ResolveOptions{})

	// The tag is stripped by sanitization; the rest is HTML-escaped.
	assert.NotContains(t, result.Document, "<tagged>")
	assert.Contains(t, result.Document, "&amp;")
	assert.Contains(t, result.Document, "&#34;quoted&#34;")
}

func TestResolveSanitizesScriptPayload(t *testing.T) {
	result := mustResolve(t, "{{bio}}",
		map[string]interface{}{"bio": `<script>alert("xss")</script>Top seller`},
		nil, schemas.ResolveOptions{})

	assert.Equal(t, "Top seller", result.Document)

	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, schemas.WarnSecurity, result.Warnings[0].Kind)
}

func TestResolveNoUnescapedControlSequences(t *testing.T) {
	// Security invariant: a markup-control payload never reaches the final
	// document unescaped, whatever shape it arrives in.
	payloads := []string{
		`<img src=x onerror=alert(1)>`,
		`javascript:alert(1)`,
		`"><script>x</script>`,
		`<style>body{display:none}</style>text`,
	}

	for _, payload := range payloads {
		result := mustResolve(t, "{{v}}",
			map[string]interface{}{"v": payload}, nil, schemas.ResolveOptions{})

		assert.NotContains(t, result.Document, "<script")
		assert.NotContains(t, result.Document, "<img")
		assert.NotContains(t, result.Document, "<style")
		assert.NotContains(t, result.Document, "javascript:")
		assert.NotContains(t, result.Document, "onerror=")
	}
}

func TestResolveEscapeDisabled(t *testing.T) {
	escape := false
	result := mustResolve(t, "{{v}}",
		map[string]interface{}{"v": "a & b"}, nil,
		schemas.ResolveOptions{EscapeHTML: &escape})

	assert.Equal(t, "a & b", result.Document)
}

func TestResolveZeroTokenRoundTrip(t *testing.T) {
	doc := "<div>No tokens here &amp; nothing to do</div>"
	result := mustResolve(t, doc, map[string]interface{}{"unused": "x"}, nil, schemas.ResolveOptions{})

	assert.Equal(t, doc, result.Document)
	assert.Empty(t, result.Entries)
}

func TestResolveRepeatedTokenSingleEntry(t *testing.T) {
	result := mustResolve(t, "{{x}} and {{x}}",
		map[string]interface{}{"x": "twice"}, nil, schemas.ResolveOptions{})

	assert.Equal(t, "twice and twice", result.Document)
	assert.Len(t, result.Entries, 1)
}

func TestResolveFormatWarnings(t *testing.T) {
	result := mustResolve(t, "{{agent.phone}} {{agent.email}}",
		map[string]interface{}{
			"agent": map[string]interface{}{
				"phone": "555-12",
				"email": "not-an-email",
			},
		}, nil, schemas.ResolveOptions{})

	// Both values substituted despite failing structural checks.
	assert.Contains(t, result.Document, "555-12")
	assert.Contains(t, result.Document, "not-an-email")

	kinds := map[schemas.WarningKind]int{}
	for _, w := range result.Warnings {
		kinds[w.Kind]++
	}
	assert.Equal(t, 2, kinds[schemas.WarnFormat])
}

func TestResolveValidationFailures(t *testing.T) {
	r := New(zap.NewNop(), 64)

	t.Run("EmptyDocument", func(t *testing.T) {
		_, err := r.Resolve("", nil, nil, schemas.ResolveOptions{})
		var verr *schemas.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("OversizedDocument", func(t *testing.T) {
		_, err := r.Resolve(strings.Repeat("x", 65), nil, nil, schemas.ResolveOptions{})
		var verr *schemas.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestResolveCounts(t *testing.T) {
	result := mustResolve(t, "{{a}} {{b}} {{c}}",
		map[string]interface{}{"a": "1"},
		map[string]string{"b": "2"},
		schemas.ResolveOptions{})

	assert.Equal(t, 2, result.ResolvedCount)
	assert.Equal(t, 1, result.MissingCount)
	assert.GreaterOrEqual(t, result.Duration.Nanoseconds(), int64(0))
}
