package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/api/schemas"
)

func newTestGenerator() *Generator {
	return NewGenerator(zap.NewNop())
}

func testDesign(elements ...schemas.Element) *schemas.Design {
	return &schemas.Design{
		Canvas:   schemas.Canvas{Width: 800, Height: 600, Background: "#ffffff"},
		Elements: elements,
	}
}

func TestGeneratePositionedDocument(t *testing.T) {
	design := testDesign(schemas.Element{
		ID: "headline", Type: schemas.ElementText,
		Position: schemas.Point{X: 40, Y: 25}, Size: schemas.Size{Width: 720, Height: 60},
		ZIndex: 3, Visible: true,
		Content: "Open House", FontSize: 32, FontFamily: "Georgia, serif",
		FontWeight: "bold", Color: "#222222", TextAlign: "center", LineHeight: 1.2,
	})

	doc, err := newTestGenerator().Generate(design)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, `id="canvas"`)
	assert.Contains(t, doc, "#canvas { position: relative; overflow: hidden; width: 800px; height: 600px; background: #ffffff; }")
	assert.Contains(t, doc, `id="el-headline"`)
	assert.Contains(t, doc, "#el-headline { position: absolute; left: 40px; top: 25px; width: 720px; height: 60px; z-index: 3")
	assert.Contains(t, doc, "font-size: 32px")
	assert.Contains(t, doc, "Open House")
}

func TestGenerateEscapesRawContentKeepsTokens(t *testing.T) {
	design := testDesign(schemas.Element{
		ID: "t", Type: schemas.ElementText, Visible: true,
		Position: schemas.Point{}, Size: schemas.Size{Width: 100, Height: 20},
		Content: `<script>alert(1)</script> by {{agent.name}}`,
	})

	doc, err := newTestGenerator().Generate(design)
	require.NoError(t, err)

	// Raw design content is escaped at generation time.
	assert.NotContains(t, doc, "<script>alert(1)</script>")
	assert.Contains(t, doc, "&lt;script&gt;")
	// Token spans survive byte-for-byte for the resolver.
	assert.Contains(t, doc, "{{agent.name}}")
}

func TestGenerateStackingOrder(t *testing.T) {
	design := testDesign(
		schemas.Element{ID: "top", Type: schemas.ElementRectangle, ZIndex: 5, Visible: true,
			Size: schemas.Size{Width: 10, Height: 10}, Fill: "#ff0000"},
		schemas.Element{ID: "bottom", Type: schemas.ElementRectangle, ZIndex: -2, Visible: true,
			Size: schemas.Size{Width: 10, Height: 10}, Fill: "#00ff00"},
	)

	doc, err := newTestGenerator().Generate(design)
	require.NoError(t, err)

	// Markup and CSS both follow ascending zIndex.
	assert.Less(t, strings.Index(doc, `id="el-bottom"`), strings.Index(doc, `id="el-top"`))
	assert.Less(t, strings.Index(doc, "#el-bottom {"), strings.Index(doc, "#el-top {"))
	assert.Contains(t, doc, "z-index: -2")
}

func TestGenerateElementKinds(t *testing.T) {
	design := testDesign(
		schemas.Element{ID: "r", Type: schemas.ElementRectangle, Visible: true,
			Size: schemas.Size{Width: 50, Height: 50},
			Fill: "#336699", Stroke: "#000000", StrokeWidth: 2, CornerRadius: 8},
		schemas.Element{ID: "i", Type: schemas.ElementImage, Visible: true,
			Size: schemas.Size{Width: 50, Height: 50},
			Src:  "https://example.com/pic.png", Opacity: 0.75, Fit: "contain"},
		schemas.Element{ID: "tb", Type: schemas.ElementTable, Visible: true,
			Size: schemas.Size{Width: 100, Height: 40}, Rows: 1, Columns: 2,
			Cells: [][]schemas.TableCell{{
				{Content: "Price", IsHeader: true},
				{Content: "{{property.price}}"},
			}},
		},
	)

	doc, err := newTestGenerator().Generate(design)
	require.NoError(t, err)

	assert.Contains(t, doc, "background: #336699")
	assert.Contains(t, doc, "border: 2px solid #000000")
	assert.Contains(t, doc, "border-radius: 8px")

	assert.Contains(t, doc, `src="https://example.com/pic.png"`)
	assert.Contains(t, doc, "object-fit: contain")
	assert.Contains(t, doc, "opacity: 0.75")

	assert.Contains(t, doc, "<th>Price</th>")
	assert.Contains(t, doc, "<td>{{property.price}}</td>")
}

func TestGenerateHiddenElement(t *testing.T) {
	design := testDesign(schemas.Element{
		ID: "ghost", Type: schemas.ElementRectangle, Visible: false,
		Size: schemas.Size{Width: 10, Height: 10},
	})

	doc, err := newTestGenerator().Generate(design)
	require.NoError(t, err)

	// Hiding is inlined in the element's own rule; there is no shared
	// utility class for it.
	assert.Contains(t, doc, "visibility: hidden")
	assert.NotContains(t, doc, "cp-hidden")
}

func TestGenerateRejectsCSSInjection(t *testing.T) {
	design := testDesign(schemas.Element{
		ID: "x", Type: schemas.ElementRectangle, Visible: true,
		Size: schemas.Size{Width: 10, Height: 10},
		Fill: "red; } body { display: none",
	})

	doc, err := newTestGenerator().Generate(design)
	require.NoError(t, err)
	assert.NotContains(t, doc, "display: none")
	assert.Contains(t, doc, "background: transparent")
}

func TestGenerateEmptyDesign(t *testing.T) {
	_, err := newTestGenerator().Generate(&schemas.Design{})
	require.Error(t, err)

	var verr *schemas.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestNodeIDSanitized(t *testing.T) {
	assert.Equal(t, "el-a_b_c", nodeID("a b/c"))
	assert.Equal(t, "el-plain-id_1", nodeID("plain-id_1"))
}
