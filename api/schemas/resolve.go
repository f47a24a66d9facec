package schemas

import "time"

// -- Variable Resolution Schemas --

// Provenance names the source that supplied a resolved token's value.
type Provenance string

const (
	ProvenanceData    Provenance = "data"
	ProvenanceDefault Provenance = "default"
	ProvenanceMissing Provenance = "missing"
)

// MissingPolicy controls what happens to a token with no data and no
// default.
type MissingPolicy string

const (
	// MissingKeep leaves the {{token}} verbatim in the output.
	MissingKeep MissingPolicy = "keep"
	// MissingRemove blanks the token out.
	MissingRemove MissingPolicy = "remove"
	// MissingPlaceholder substitutes the configured placeholder text.
	MissingPlaceholder MissingPolicy = "placeholder"
)

// ResolveOptions tunes a single resolution pass.
type ResolveOptions struct {
	// EscapeHTML controls escaping of substituted values. Defaults to true;
	// disabling it is only safe for trusted data.
	EscapeHTML *bool `json:"escapeHtml,omitempty"`
	// MissingPolicy defaults to MissingKeep.
	MissingPolicy MissingPolicy `json:"missingPolicy,omitempty"`
	// MissingText is the substitute used under MissingPlaceholder.
	MissingText string `json:"missingText,omitempty"`
}

// ShouldEscape resolves the EscapeHTML tri-state to its default.
func (o ResolveOptions) ShouldEscape() bool {
	return o.EscapeHTML == nil || *o.EscapeHTML
}

// Policy resolves the missing-token policy to its default.
func (o ResolveOptions) Policy() MissingPolicy {
	if o.MissingPolicy == "" {
		return MissingKeep
	}
	return o.MissingPolicy
}

// WarningKind buckets non-fatal diagnostics accumulated during a pass.
type WarningKind string

const (
	// WarnSecurity marks a data value that was sanitized because it carried
	// markup or script-like content.
	WarnSecurity WarningKind = "security"
	// WarnFormat marks a value that failed a structural check (phone digit
	// count, email shape, URL shape) but was still substituted.
	WarnFormat WarningKind = "format"
)

// Warning is one non-fatal diagnostic. Warnings never block substitution.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Key     string      `json:"key,omitempty"`
	Message string      `json:"message"`
}

// ResolutionEntry records how one token was resolved.
type ResolutionEntry struct {
	Variable   string     `json:"variable"`
	Value      string     `json:"value"`
	Provenance Provenance `json:"provenance"`
}

// ResolveResult is the full outcome of resolving a document. Warnings and
// Missing are always present on success, possibly empty; callers decide
// whether non-empty diagnostics constitute failure for their use case.
type ResolveResult struct {
	Document      string            `json:"document"`
	Entries       []ResolutionEntry `json:"entries"`
	Missing       []string          `json:"missing"`
	Warnings      []Warning         `json:"warnings"`
	ResolvedCount int               `json:"resolvedCount"`
	MissingCount  int               `json:"missingCount"`
	Duration      time.Duration     `json:"durationMs"`
}
