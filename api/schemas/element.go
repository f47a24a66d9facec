package schemas

// -- Design Element Schemas --

// ElementType identifies the kind of a positioned design element.
type ElementType string

const (
	ElementText      ElementType = "text"
	ElementRectangle ElementType = "rectangle"
	ElementImage     ElementType = "image"
	ElementTable     ElementType = "table"
)

// Valid reports whether t is one of the supported element types.
func (t ElementType) Valid() bool {
	switch t {
	case ElementText, ElementRectangle, ElementImage, ElementTable:
		return true
	}
	return false
}

// Point is a position on the canvas, in CSS pixels from the top-left corner.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the bounding box of an element, in CSS pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TableCell is a single cell of a table element. Cell content may contain
// {{variable}} tokens just like text element content.
type TableCell struct {
	Content  string `json:"content"`
	IsHeader bool   `json:"isHeader"`
}

// Element is the canonical, normalized form of a positioned design element.
// Type-specific fields are populated only for the matching Type; the
// normalizer guarantees the shared fields are present and sane.
type Element struct {
	ID       string      `json:"id"`
	Type     ElementType `json:"type"`
	Name     string      `json:"name,omitempty"`
	Position Point       `json:"position"`
	Size     Size        `json:"size"`
	ZIndex   int         `json:"zIndex"`
	Visible  bool        `json:"visible"`
	Locked   bool        `json:"locked"`

	// Text element fields.
	Content    string  `json:"content,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
	Color      string  `json:"color,omitempty"`
	TextAlign  string  `json:"textAlign,omitempty"`
	LineHeight float64 `json:"lineHeight,omitempty"`

	// Rectangle element fields.
	Fill         string  `json:"fill,omitempty"`
	Stroke       string  `json:"stroke,omitempty"`
	StrokeWidth  float64 `json:"strokeWidth,omitempty"`
	CornerRadius float64 `json:"cornerRadius,omitempty"`

	// Image element fields.
	Src     string  `json:"src,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
	Fit     string  `json:"objectFit,omitempty"`

	// Table element fields. Cells is Rows x Columns after normalization.
	Rows    int           `json:"rows,omitempty"`
	Columns int           `json:"columns,omitempty"`
	Cells   [][]TableCell `json:"cells,omitempty"`
}

// Canvas describes the root surface the elements are placed on.
type Canvas struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Background string  `json:"background,omitempty"`
}

// Design is a normalized template: a canvas plus its element list, ready
// for classification and markup generation.
type Design struct {
	Canvas   Canvas    `json:"canvas"`
	Elements []Element `json:"elements"`
}
