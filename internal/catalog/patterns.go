package catalog

import (
	"strings"

	"github.com/canvaspress/canvaspress/api/schemas"
)

// typeMatcher maps a set of name substrings to an inferred variable type.
type typeMatcher struct {
	Type     schemas.VariableType
	Keywords []string
}

// matcherTable is the ordered type-inference table. Name-substring
// inference is inherently ambiguous ("total_price_without_discount"
// matches both a numeric and a currency keyword), so the table is
// evaluated top to bottom and the first match wins. The order is part of
// the contract; changing it changes inferred types.
//
// Priority: currency, phone, numeric, boolean, date, email, url, then
// text as the fallback.
var matcherTable = []typeMatcher{
	{schemas.VarCurrency, []string{"price", "cost", "amount", "fee", "rent", "salary", "budget", "payment", "deposit"}},
	{schemas.VarPhone, []string{"phone", "mobile", "fax", "tel"}},
	{schemas.VarNumber, []string{"count", "total", "qty", "quantity", "number", "sqft", "area", "acre", "beds", "baths", "rooms"}},
	{schemas.VarBoolean, []string{"is_", "has_", "enabled", "active", "available", "featured"}},
	{schemas.VarDate, []string{"date", "time", "day", "month", "year", "created", "updated", "expires", "deadline"}},
	{schemas.VarEmail, []string{"email", "e-mail", "mail"}},
	{schemas.VarURL, []string{"url", "link", "website", "site", "href", "photo", "image", "logo", "avatar"}},
}

// InferType runs the name through the ordered matcher table. The match is
// case-insensitive and considers the full dot-path.
func InferType(name string) schemas.VariableType {
	lower := strings.ToLower(name)
	for _, m := range matcherTable {
		for _, kw := range m.Keywords {
			if strings.Contains(lower, kw) {
				return m.Type
			}
		}
	}
	return schemas.VarText
}

// metadataCategories are variable categories sourced from element or
// document metadata rather than user data; variables in these categories
// are excluded from the required list.
var metadataCategories = map[string]struct{}{
	"document": {},
	"meta":     {},
	"page":     {},
	"system":   {},
}

// CategoryOf derives a variable's category from the first segment of its
// dot-path; names without a dot fall into "general".
func CategoryOf(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return "general"
}

// isMetadataCategory reports whether a category marks metadata-sourced
// variables.
func isMetadataCategory(category string) bool {
	_, ok := metadataCategories[category]
	return ok
}
