package catalog

import (
	"strings"
	"time"

	"github.com/canvaspress/canvaspress/api/schemas"
)

// defaultDateLayout is the human-readable form used for date defaults.
const defaultDateLayout = "January 2, 2006"

// DefaultValue generates the deterministic default for a variable. The
// value depends only on the inferred type, the name, and (for dates) the
// current day.
func DefaultValue(name string, vtype schemas.VariableType, now time.Time) string {
	switch vtype {
	case schemas.VarCurrency, schemas.VarNumber:
		return "0"
	case schemas.VarBoolean:
		return "false"
	case schemas.VarDate:
		return now.Format(defaultDateLayout)
	case schemas.VarPhone:
		return "(555) 123-4567"
	case schemas.VarEmail:
		return "contact@example.com"
	case schemas.VarURL:
		return urlPlaceholder(name)
	default:
		return textSample(name)
	}
}

// urlPlaceholder picks a contextual placeholder: image-like names get a
// placeholder image service, everything else a plain example URL.
func urlPlaceholder(name string) string {
	lower := strings.ToLower(name)
	for _, kw := range []string{"photo", "image", "logo", "avatar"} {
		if strings.Contains(lower, kw) {
			return "https://placehold.co/600x400"
		}
	}
	return "https://example.com"
}

// textSample picks a keyword-based sample for free-text variables; names
// with no recognizable keyword fall back to the literal token so missing
// data stays visible in previews.
func textSample(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "name"):
		return "Sample Name"
	case strings.Contains(lower, "title"), strings.Contains(lower, "headline"):
		return "Sample Title"
	case strings.Contains(lower, "description"), strings.Contains(lower, "desc"), strings.Contains(lower, "summary"):
		return "Sample description text"
	case strings.Contains(lower, "address"):
		return "123 Main Street"
	case strings.Contains(lower, "city"):
		return "Springfield"
	case strings.Contains(lower, "state"):
		return "CO"
	case strings.Contains(lower, "zip"), strings.Contains(lower, "postal"):
		return "80202"
	default:
		return "{{" + name + "}}"
	}
}
