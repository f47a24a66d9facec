// Package markup emits the self-contained positioned HTML document for a
// normalized design. Raw design content is escaped at this stage; token
// spans pass through untouched for later resolution.
package markup

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/api/schemas"
	"github.com/canvaspress/canvaspress/internal/normalizer"
)

// Generator builds template documents from designs.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a markup Generator.
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger.Named("markup")}
}

// Generate produces a single self-contained HTML document: a canvas-sized
// root with one absolutely positioned node per element, styled by one CSS
// rule per element id. Elements are emitted in ascending zIndex order with
// original list order breaking ties, so stacking holds even where z-index
// values collide.
func (g *Generator) Generate(design *schemas.Design) (string, error) {
	if design == nil || len(design.Elements) == 0 {
		return "", schemas.NewValidationError("design", "nothing to generate markup for")
	}

	ordered := normalizer.SortByStacking(design.Elements)

	doc := etree.NewDocument()
	// Self-closing divs confuse HTML parsers; always write explicit end tags.
	doc.WriteSettings.CanonicalEndTags = true
	doc.CreateDirective("DOCTYPE html")

	html := doc.CreateElement("html")
	html.CreateAttr("lang", "en")

	head := html.CreateElement("head")
	meta := head.CreateElement("meta")
	meta.CreateAttr("charset", "UTF-8")
	head.CreateElement("title").SetText("canvaspress template")

	style := head.CreateElement("style")
	style.SetText(g.buildStylesheet(design, ordered))

	body := html.CreateElement("body")
	canvas := body.CreateElement("div")
	canvas.CreateAttr("id", "canvas")

	for _, el := range ordered {
		g.appendElement(canvas, el)
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to serialize markup document: %w", err)
	}

	g.logger.Debug("Markup document generated.",
		zap.Int("elements", len(ordered)),
		zap.Int("bytes", len(out)))
	return out, nil
}

// appendElement adds the positioned node for one element. The serializer
// escapes all text content, which is exactly the contract: literal spans
// end up escaped, while token spans ({{dot.path}} carries no markup
// characters) survive byte-for-byte for the resolver.
func (g *Generator) appendElement(parent *etree.Element, el schemas.Element) {
	switch el.Type {
	case schemas.ElementImage:
		img := parent.CreateElement("img")
		img.CreateAttr("id", nodeID(el.ID))
		img.CreateAttr("src", el.Src)
		img.CreateAttr("alt", el.Name)

	case schemas.ElementTable:
		wrapper := parent.CreateElement("div")
		wrapper.CreateAttr("id", nodeID(el.ID))
		table := wrapper.CreateElement("table")
		for _, row := range el.Cells {
			tr := table.CreateElement("tr")
			for _, cell := range row {
				tag := "td"
				if cell.IsHeader {
					tag = "th"
				}
				tr.CreateElement(tag).SetText(cell.Content)
			}
		}

	default:
		node := parent.CreateElement("div")
		node.CreateAttr("id", nodeID(el.ID))
		if el.Type == schemas.ElementText {
			node.SetText(el.Content)
		}
	}
}

// nodeID prefixes and sanitizes an element id for use as a DOM id and CSS
// selector.
func nodeID(id string) string {
	var b strings.Builder
	b.WriteString("el-")
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
