package resolver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/canvaspress/canvaspress/api/schemas"
	"github.com/canvaspress/canvaspress/internal/catalog"
)

// Patterns that mark script-like content even without well-formed tags.
var (
	scriptSchemeRe = regexp.MustCompile(`(?i)(javascript\s*:|vbscript\s*:|data:[a-z0-9.+-]+/[a-z0-9.+-]+;base64)`)
	eventAttrRe    = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)
	emailShapeRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	urlShapeRe     = regexp.MustCompile(`^(https?://)?[a-zA-Z0-9][a-zA-Z0-9.-]*\.[a-zA-Z]{2,}(/\S*)?$`)
	nonDigitRe     = regexp.MustCompile(`\D`)
)

// sanitizeData recursively stringifies the leaf values of the data object
// and strips markup or script-like substrings. It returns the sanitized
// copy and the warnings triggered, never mutating the input.
func sanitizeData(data map[string]interface{}) (map[string]interface{}, []schemas.Warning) {
	var warnings []schemas.Warning
	out := sanitizeValue("", data, &warnings)
	m, _ := out.(map[string]interface{})
	return m, warnings
}

func sanitizeValue(path string, v interface{}, warnings *[]schemas.Warning) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			out[k] = sanitizeValue(joinPath(path, k), child, warnings)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = sanitizeValue(fmt.Sprintf("%s[%d]", path, i), child, warnings)
		}
		return out
	default:
		s := stringifyLeaf(val)
		clean := sanitizeString(path, s, warnings)
		checkStructure(path, clean, warnings)
		return clean
	}
}

// stringifyLeaf renders a scalar the way the template language expects:
// numbers without exponent notation, booleans as true/false, nil empty.
func stringifyLeaf(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// sanitizeString strips markup and script-like substrings from one value.
// A tokenizer pass keeps only text content when tags are present; the
// scheme and event-handler patterns catch what tag stripping leaves
// behind. Each trigger is recorded as a non-fatal security warning.
func sanitizeString(path, s string, warnings *[]schemas.Warning) string {
	clean := s

	if strings.ContainsAny(clean, "<>") {
		stripped := stripTags(clean)
		if stripped != clean {
			*warnings = append(*warnings, schemas.Warning{
				Kind:    schemas.WarnSecurity,
				Key:     path,
				Message: "markup stripped from data value",
			})
			clean = stripped
		}
	}

	if scriptSchemeRe.MatchString(clean) {
		*warnings = append(*warnings, schemas.Warning{
			Kind:    schemas.WarnSecurity,
			Key:     path,
			Message: "script-like scheme removed from data value",
		})
		clean = scriptSchemeRe.ReplaceAllString(clean, "")
	}

	if eventAttrRe.MatchString(clean) {
		*warnings = append(*warnings, schemas.Warning{
			Kind:    schemas.WarnSecurity,
			Key:     path,
			Message: "event handler attribute removed from data value",
		})
		clean = eventAttrRe.ReplaceAllString(clean, "")
	}

	return clean
}

// stripTags runs the value through an HTML tokenizer and keeps only text
// tokens, dropping script and style bodies entirely.
func stripTags(s string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

// checkStructure runs the light structural checks. Failures record a
// format warning and never block substitution.
func checkStructure(path, value string, warnings *[]schemas.Warning) {
	if value == "" || path == "" {
		return
	}

	warn := func(format string, args ...interface{}) {
		*warnings = append(*warnings, schemas.Warning{
			Kind:    schemas.WarnFormat,
			Key:     path,
			Message: fmt.Sprintf(format, args...),
		})
	}

	switch catalog.InferType(leafName(path)) {
	case schemas.VarPhone:
		digits := nonDigitRe.ReplaceAllString(value, "")
		if n := len(digits); n != 10 && n != 11 {
			warn("phone value has %d digits, expected 10 or 11", n)
		}
	case schemas.VarEmail:
		if !emailShapeRe.MatchString(value) {
			warn("value does not look like an email address")
		}
	case schemas.VarURL:
		if !urlShapeRe.MatchString(value) {
			warn("value does not look like a URL")
		}
	}
}

// leafName returns the final segment of a sanitization path, dropping any
// array index suffix.
func leafName(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.IndexByte(path, '['); i >= 0 {
		path = path[:i]
	}
	return path
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
