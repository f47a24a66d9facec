package markup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/canvaspress/canvaspress/api/schemas"
)

// buildStylesheet assembles the document stylesheet in three fixed layers:
// base reset, one rule per element id, then utility classes. Rules never
// target more than one element id, so specificity conflicts cannot arise.
//
// The stylesheet lives in a text node, so it must avoid characters the
// serializer would escape: no child combinators, no entity references.
func (g *Generator) buildStylesheet(design *schemas.Design, ordered []schemas.Element) string {
	var b strings.Builder

	// -- Base reset --
	b.WriteString("* { margin: 0; padding: 0; box-sizing: border-box; }\n")
	b.WriteString("body { font-family: Arial, sans-serif; }\n")
	fmt.Fprintf(&b, "#canvas { position: relative; overflow: hidden; width: %spx; height: %spx; background: %s; }\n",
		num(design.Canvas.Width), num(design.Canvas.Height), cssColor(design.Canvas.Background))

	// -- One rule per element --
	for _, el := range ordered {
		b.WriteString(elementRule(el))
	}

	// -- Table defaults --
	b.WriteString("table { border-collapse: collapse; width: 100%; height: 100%; }\n")
	b.WriteString("th, td { border: 1px solid #d0d0d0; padding: 4px 8px; text-align: left; vertical-align: top; }\n")
	b.WriteString("th { background: #f0f0f0; font-weight: bold; }\n")
	b.WriteString("tr { page-break-inside: avoid; }\n")

	return b.String()
}

// elementRule emits the positioned rule for a single element.
func elementRule(el schemas.Element) string {
	var props []string

	props = append(props,
		"position: absolute",
		fmt.Sprintf("left: %spx", num(el.Position.X)),
		fmt.Sprintf("top: %spx", num(el.Position.Y)),
		fmt.Sprintf("width: %spx", num(el.Size.Width)),
		fmt.Sprintf("height: %spx", num(el.Size.Height)),
		fmt.Sprintf("z-index: %d", el.ZIndex),
	)
	if !el.Visible {
		props = append(props, "visibility: hidden")
	}

	switch el.Type {
	case schemas.ElementText:
		props = append(props,
			fmt.Sprintf("font-size: %spx", num(el.FontSize)),
			fmt.Sprintf("font-family: %s", cssValue(el.FontFamily, "Arial, sans-serif")),
			fmt.Sprintf("font-weight: %s", cssValue(el.FontWeight, "normal")),
			fmt.Sprintf("color: %s", cssColor(el.Color)),
			fmt.Sprintf("text-align: %s", cssValue(el.TextAlign, "left")),
			fmt.Sprintf("line-height: %s", num(el.LineHeight)),
			"white-space: pre-wrap",
			"overflow: hidden",
		)

	case schemas.ElementRectangle:
		props = append(props, fmt.Sprintf("background: %s", cssColor(el.Fill)))
		if el.Stroke != "" && el.StrokeWidth > 0 {
			props = append(props, fmt.Sprintf("border: %spx solid %s", num(el.StrokeWidth), cssColor(el.Stroke)))
		}
		if el.CornerRadius > 0 {
			props = append(props, fmt.Sprintf("border-radius: %spx", num(el.CornerRadius)))
		}

	case schemas.ElementImage:
		props = append(props,
			fmt.Sprintf("object-fit: %s", cssValue(el.Fit, "cover")),
			fmt.Sprintf("opacity: %s", num(el.Opacity)),
		)

	case schemas.ElementTable:
		props = append(props, "overflow: hidden")
	}

	return fmt.Sprintf("#%s { %s; }\n", nodeID(el.ID), strings.Join(props, "; "))
}

// num formats a float without a trailing ".0" for whole values.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// cssValue passes through a style value, substituting the fallback for
// empties and for values containing characters that would break out of the
// declaration. Original design content must not be able to inject CSS.
func cssValue(v, fallback string) string {
	if v == "" || strings.ContainsAny(v, ";:{}<>&\"'") {
		return fallback
	}
	return v
}

// cssColor is cssValue with a transparent fallback.
func cssColor(v string) string {
	return cssValue(v, "transparent")
}
