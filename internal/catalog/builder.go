// Package catalog aggregates variable tokens across a design into a
// deduplicated, typed registry with inferred types, deterministic
// defaults, and usage sites.
package catalog

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/api/schemas"
	"github.com/canvaspress/canvaspress/internal/classifier"
)

// Builder scans designs and builds variable catalogs.
type Builder struct {
	logger *zap.Logger
	// now is injectable so date defaults are reproducible in tests.
	now func() time.Time
}

// NewBuilder creates a catalog Builder.
func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{logger: logger.Named("catalog"), now: time.Now}
}

// WithClock overrides the time source. Tests only.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build walks every element (and every table cell) in list order,
// classifies its content, and merges the discovered tokens into a single
// catalog. The first sighting of a name fixes its type, category, and
// default; later sightings only add usage records.
func (b *Builder) Build(design *schemas.Design) *schemas.VariableCatalog {
	cat := &schemas.VariableCatalog{
		Variables:     make(map[string]*schemas.Variable),
		DefaultValues: make(map[string]string),
		Schema:        make(map[string]schemas.SchemaEntry),
	}

	var order []string
	register := func(name string, usage schemas.VariableUsage) {
		v, ok := cat.Variables[name]
		if !ok {
			vtype := InferType(name)
			category := CategoryOf(name)
			v = &schemas.Variable{
				Name:         name,
				Type:         vtype,
				Category:     category,
				Required:     !isMetadataCategory(category),
				DefaultValue: DefaultValue(name, vtype, b.now()),
			}
			cat.Variables[name] = v
			order = append(order, name)
		}
		v.Usages = append(v.Usages, usage)
	}

	for _, el := range design.Elements {
		switch el.Type {
		case schemas.ElementText:
			for _, name := range classifier.Classify(el.Content).VariableNames() {
				register(name, schemas.VariableUsage{ElementID: el.ID, Row: -1, Column: -1})
			}
		case schemas.ElementTable:
			for r, row := range el.Cells {
				for c, cell := range row {
					for _, name := range classifier.Classify(cell.Content).VariableNames() {
						register(name, schemas.VariableUsage{ElementID: el.ID, Row: r, Column: c})
					}
				}
			}
		}
	}

	b.finalize(cat, order)

	b.logger.Debug("Catalog built.",
		zap.Int("variables", cat.Statistics.TotalVariables),
		zap.Int("usages", cat.Statistics.TotalUsages))
	return cat
}

// finalize derives the schema, default map, category list, and statistics
// from the registered variables.
func (b *Builder) finalize(cat *schemas.VariableCatalog, order []string) {
	stats := schemas.CatalogStatistics{
		ByType:     make(map[schemas.VariableType]int),
		ByCategory: make(map[string]int),
	}
	categories := make(map[string]struct{})

	for _, name := range order {
		v := cat.Variables[name]
		cat.DefaultValues[name] = v.DefaultValue
		cat.Schema[name] = schemas.SchemaEntry{
			Type:        v.Type,
			Description: describe(v),
			Default:     v.DefaultValue,
		}
		categories[v.Category] = struct{}{}
		stats.TotalVariables++
		stats.TotalUsages += len(v.Usages)
		stats.ByType[v.Type]++
		stats.ByCategory[v.Category]++
	}

	cat.Categories = make([]string, 0, len(categories))
	for c := range categories {
		cat.Categories = append(cat.Categories, c)
	}
	sort.Strings(cat.Categories)
	cat.Statistics = stats
}

func describe(v *schemas.Variable) string {
	return fmt.Sprintf("%s variable %q (%s), used %d time(s)", v.Type, v.Name, v.Category, len(v.Usages))
}
