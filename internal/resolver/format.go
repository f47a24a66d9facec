package resolver

import (
	"strconv"
	"strings"

	"github.com/canvaspress/canvaspress/api/schemas"
	"github.com/canvaspress/canvaspress/internal/catalog"
)

// formatValue applies type-directed formatting to a resolved value. The
// type comes from the token's name via the catalog's matcher table, so
// resolution and cataloging can never disagree about what a name means.
func formatValue(name, value string) string {
	if value == "" {
		return value
	}

	switch catalog.InferType(name) {
	case schemas.VarCurrency:
		return formatCurrency(value)
	case schemas.VarPhone:
		return formatPhone(value)
	case schemas.VarURL:
		return formatURL(value)
	case schemas.VarNumber:
		return formatMeasurement(name, value)
	default:
		return value
	}
}

// formatCurrency renders a bare numeric value as dollars with thousands
// separators. Values that already look formatted pass through.
func formatCurrency(value string) string {
	if strings.ContainsAny(value, "$,") {
		return value
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return value
	}

	intPart, fracPart := splitDecimal(strings.TrimSpace(value))
	if f < 0 {
		return "-$" + groupThousands(strings.TrimPrefix(intPart, "-")) + fracPart
	}
	return "$" + groupThousands(intPart) + fracPart
}

func splitDecimal(value string) (string, string) {
	if i := strings.IndexByte(value, '.'); i >= 0 {
		return value[:i], value[i:]
	}
	return value, ""
}

// groupThousands inserts comma separators into a digit string.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// formatPhone renders a 10-digit sequence (or 11 with a leading 1) as
// (NNN) NNN-NNNN. Anything else passes through untouched.
func formatPhone(value string) string {
	digits := nonDigitRe.ReplaceAllString(value, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return value
	}
	return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
}

// formatURL prefixes https:// onto scheme-less values that look like URLs.
func formatURL(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}
	if strings.Contains(trimmed, "://") {
		return trimmed
	}
	return "https://" + trimmed
}

// measurementSuffixes appends a unit to bare numeric area/size values.
var measurementSuffixes = []struct {
	keyword string
	suffix  string
}{
	{"sqft", " sq ft"},
	{"area", " sq ft"},
	{"acre", " acres"},
}

func formatMeasurement(name, value string) string {
	lower := strings.ToLower(name)
	for _, m := range measurementSuffixes {
		if !strings.Contains(lower, m.keyword) {
			continue
		}
		trimmed := strings.TrimSpace(value)
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			// Already carries a unit or is not numeric.
			return value
		}
		intPart, fracPart := splitDecimal(trimmed)
		return groupThousands(intPart) + fracPart + m.suffix
	}
	return value
}
