package schemas

// -- Variable Catalog Schemas --

// VariableType is the inferred data type of a template variable. Inference
// is name-based and ordered; see the catalog package for the matcher table.
type VariableType string

const (
	VarText     VariableType = "text"
	VarNumber   VariableType = "number"
	VarBoolean  VariableType = "boolean"
	VarDate     VariableType = "date"
	VarURL      VariableType = "url"
	VarEmail    VariableType = "email"
	VarCurrency VariableType = "currency"
	VarPhone    VariableType = "phone"
)

// VariableUsage records one site where a variable token appears.
type VariableUsage struct {
	ElementID string `json:"elementId"`
	// Row and Column locate the table cell for table elements; both are -1
	// for non-table usage sites.
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Variable is the deduplicated registry entry for a token name. A token
// name maps to exactly one Variable regardless of how many elements use it;
// the type inferred at first sighting is authoritative.
type Variable struct {
	Name         string          `json:"name"`
	Type         VariableType    `json:"type"`
	Category     string          `json:"category"`
	Required     bool            `json:"required"`
	DefaultValue string          `json:"defaultValue"`
	Usages       []VariableUsage `json:"usages"`
}

// SchemaEntry is the generated schema document record for one variable.
type SchemaEntry struct {
	Type        VariableType `json:"type"`
	Description string       `json:"description"`
	Default     string       `json:"default"`
}

// CatalogStatistics are aggregate counts over a built catalog.
type CatalogStatistics struct {
	TotalVariables int                  `json:"totalVariables"`
	TotalUsages    int                  `json:"totalUsages"`
	ByType         map[VariableType]int `json:"byType"`
	ByCategory     map[string]int       `json:"byCategory"`
}

// VariableCatalog is the full typed registry of every token found across a
// design, plus the derived schema and default-value map.
type VariableCatalog struct {
	Variables     map[string]*Variable   `json:"variables"`
	DefaultValues map[string]string      `json:"defaultValues"`
	Schema        map[string]SchemaEntry `json:"schema"`
	Categories    []string               `json:"categories"`
	Statistics    CatalogStatistics      `json:"statistics"`
}

// Lookup returns the variable for a token name, or nil.
func (c *VariableCatalog) Lookup(name string) *Variable {
	if c == nil || c.Variables == nil {
		return nil
	}
	return c.Variables[name]
}
