// Package normalizer validates and normalizes incoming element lists into
// the canonical Design shape the rest of the pipeline consumes.
package normalizer

import (
	"bytes"
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// rawElement mirrors schemas.Element with pointer fields wherever the
// default is not the zero value, so absent keys can be told apart from
// explicit ones. Unknown input fields are dropped by decoding.
type rawElement struct {
	ID       string              `json:"id"`
	Type     schemas.ElementType `json:"type"`
	Name     string              `json:"name"`
	Position *schemas.Point      `json:"position"`
	Size     *schemas.Size       `json:"size"`
	ZIndex   int                 `json:"zIndex"`
	Visible  *bool               `json:"visible"`
	Locked   bool                `json:"locked"`

	Content    string  `json:"content"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	FontWeight string  `json:"fontWeight"`
	Color      string  `json:"color"`
	TextAlign  string  `json:"textAlign"`
	LineHeight float64 `json:"lineHeight"`

	Fill         string  `json:"fill"`
	Stroke       string  `json:"stroke"`
	StrokeWidth  float64 `json:"strokeWidth"`
	CornerRadius float64 `json:"cornerRadius"`

	Src     string   `json:"src"`
	Opacity *float64 `json:"opacity"`
	Fit     string   `json:"objectFit"`

	Rows    int                   `json:"rows"`
	Columns int                   `json:"columns"`
	Cells   [][]schemas.TableCell `json:"cells"`
}

type rawDesign struct {
	Canvas   *schemas.Canvas `json:"canvas"`
	Elements []rawElement    `json:"elements"`
}

// Normalizer turns raw element JSON into a canonical Design.
type Normalizer struct {
	logger *zap.Logger
}

// New creates a Normalizer.
func New(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger.Named("normalizer")}
}

// Normalize accepts either a bare JSON array of elements or a design
// document {canvas, elements}. Required fields are enforced, defaults
// applied, unknown fields dropped, and table cell grids repaired to their
// declared Rows x Columns shape. Any structural problem is fatal.
func (n *Normalizer) Normalize(input []byte) (*schemas.Design, error) {
	trimmed := bytes.TrimSpace(input)
	if len(trimmed) == 0 {
		return nil, schemas.NewValidationError("input", "empty element input")
	}

	var raw rawDesign
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw.Elements); err != nil {
			return nil, schemas.NewValidationError("elements", "malformed element array: %v", err)
		}
	} else {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, schemas.NewValidationError("input", "malformed design document: %v", err)
		}
	}

	if len(raw.Elements) == 0 {
		return nil, schemas.NewValidationError("elements", "design contains no elements")
	}

	design := &schemas.Design{Elements: make([]schemas.Element, 0, len(raw.Elements))}

	seen := make(map[string]struct{}, len(raw.Elements))
	for i, re := range raw.Elements {
		el, err := n.normalizeElement(i, re)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[el.ID]; dup {
			return nil, schemas.NewValidationError("elements", "duplicate element id %q", el.ID)
		}
		seen[el.ID] = struct{}{}
		design.Elements = append(design.Elements, el)
	}

	if raw.Canvas != nil && raw.Canvas.Width > 0 && raw.Canvas.Height > 0 {
		design.Canvas = *raw.Canvas
	} else {
		design.Canvas = deriveCanvas(design.Elements)
		n.logger.Debug("Canvas not supplied; derived from element extents.",
			zap.Float64("width", design.Canvas.Width),
			zap.Float64("height", design.Canvas.Height))
	}

	return design, nil
}

func (n *Normalizer) normalizeElement(index int, re rawElement) (schemas.Element, error) {
	field := func(name string) string { return fmt.Sprintf("elements[%d].%s", index, name) }

	if re.ID == "" {
		return schemas.Element{}, schemas.NewValidationError(field("id"), "missing required id")
	}
	if !re.Type.Valid() {
		return schemas.Element{}, schemas.NewValidationError(field("type"), "unsupported element type %q", string(re.Type))
	}
	if re.Position == nil {
		return schemas.Element{}, schemas.NewValidationError(field("position"), "missing required position")
	}
	if re.Size == nil {
		return schemas.Element{}, schemas.NewValidationError(field("size"), "missing required size")
	}
	if re.Size.Width <= 0 || re.Size.Height <= 0 {
		return schemas.Element{}, schemas.NewValidationError(field("size"), "size must be positive, got %gx%g", re.Size.Width, re.Size.Height)
	}

	el := schemas.Element{
		ID:       re.ID,
		Type:     re.Type,
		Name:     re.Name,
		Position: *re.Position,
		Size:     *re.Size,
		ZIndex:   re.ZIndex,
		Visible:  re.Visible == nil || *re.Visible,
		Locked:   re.Locked,
	}

	switch re.Type {
	case schemas.ElementText:
		el.Content = re.Content
		el.FontSize = defaultFloat(re.FontSize, 16)
		el.FontFamily = defaultString(re.FontFamily, "Arial, sans-serif")
		el.FontWeight = defaultString(re.FontWeight, "normal")
		el.Color = defaultString(re.Color, "#000000")
		el.TextAlign = defaultString(re.TextAlign, "left")
		el.LineHeight = defaultFloat(re.LineHeight, 1.4)

	case schemas.ElementRectangle:
		el.Fill = defaultString(re.Fill, "#ffffff")
		el.Stroke = re.Stroke
		el.StrokeWidth = re.StrokeWidth
		el.CornerRadius = re.CornerRadius

	case schemas.ElementImage:
		if re.Src == "" {
			return schemas.Element{}, schemas.NewValidationError(field("src"), "image element requires a src")
		}
		el.Src = re.Src
		el.Opacity = 1.0
		if re.Opacity != nil {
			el.Opacity = clamp(*re.Opacity, 0, 1)
		}
		el.Fit = defaultString(re.Fit, "cover")

	case schemas.ElementTable:
		rows, cols, cells, err := normalizeTable(re)
		if err != nil {
			return schemas.Element{}, schemas.NewValidationError(field("cells"), "%v", err)
		}
		el.Rows, el.Columns, el.Cells = rows, cols, cells
	}

	return el, nil
}

// normalizeTable repairs the cell grid to the declared shape: missing rows
// and cells are padded empty, extras are truncated. Declared dimensions of
// zero fall back to the grid's actual shape.
func normalizeTable(re rawElement) (int, int, [][]schemas.TableCell, error) {
	rows, cols := re.Rows, re.Columns
	if rows <= 0 {
		rows = len(re.Cells)
	}
	if cols <= 0 {
		for _, row := range re.Cells {
			if len(row) > cols {
				cols = len(row)
			}
		}
	}
	if rows <= 0 || cols <= 0 {
		return 0, 0, nil, fmt.Errorf("table has no rows or columns")
	}

	cells := make([][]schemas.TableCell, rows)
	for r := 0; r < rows; r++ {
		cells[r] = make([]schemas.TableCell, cols)
		if r >= len(re.Cells) {
			continue
		}
		for c := 0; c < cols && c < len(re.Cells[r]); c++ {
			cells[r][c] = re.Cells[r][c]
		}
	}
	return rows, cols, cells, nil
}

// deriveCanvas computes the smallest canvas that contains every element,
// with a white background.
func deriveCanvas(elements []schemas.Element) schemas.Canvas {
	var width, height float64
	for _, el := range elements {
		if right := el.Position.X + el.Size.Width; right > width {
			width = right
		}
		if bottom := el.Position.Y + el.Size.Height; bottom > height {
			height = bottom
		}
	}
	return schemas.Canvas{Width: width, Height: height, Background: "#ffffff"}
}

// SortByStacking orders elements ascending by zIndex, ties broken by
// original list order. The markup generator relies on this ordering.
func SortByStacking(elements []schemas.Element) []schemas.Element {
	sorted := make([]schemas.Element, len(elements))
	copy(sorted, elements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ZIndex < sorted[j].ZIndex
	})
	return sorted
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
