package scene

import (
	"fmt"
	"strconv"
	"strings"

	"plan-studio/internal/plan/model"
)

// ============================================================
// SVG writer
// ============================================================

// WriteSVG serializes a scene graph to an SVG document. The zoom factor is
// applied as a root group transform so the viewBox units stay fixed.
func WriteSVG(g *Graph) string {
	var b strings.Builder

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s">`,
		formatFloat(g.ViewBox.X), formatFloat(g.ViewBox.Y),
		formatFloat(g.ViewBox.Width), formatFloat(g.ViewBox.Height)))
	b.WriteString("\n")

	writeDefs(&b)

	b.WriteString(fmt.Sprintf(`  <g transform="scale(%s)" transform-origin="center">`, formatFloat(g.Scale)))
	b.WriteString("\n")

	for _, layer := range g.Layers {
		b.WriteString(fmt.Sprintf(`    <g class="%s">`, layer.Name))
		b.WriteString("\n")
		for _, node := range layer.Nodes {
			b.WriteString("      ")
			b.WriteString(writeNode(node))
			b.WriteString("\n")
		}
		b.WriteString("    </g>\n")
	}

	b.WriteString("  </g>\n")
	b.WriteString(`</svg>`)
	return b.String()
}

// ============================================================
// Defs
// ============================================================

func writeDefs(b *strings.Builder) {
	b.WriteString("  <defs>\n")
	b.WriteString(`    <pattern id="wallCross" width="8" height="8" patternUnits="userSpaceOnUse">` + "\n")
	b.WriteString(`      <path d="M0,0 L8,8 M0,8 L8,0" stroke="#444444" stroke-width="0.2"/>` + "\n")
	b.WriteString("    </pattern>\n")
	b.WriteString(`    <marker id="dimensionArrow" viewBox="0 0 10 10" refX="5" refY="5" markerWidth="4" markerHeight="4" orient="auto-start-reverse">` + "\n")
	b.WriteString(`      <path d="M 0 0 L 10 5 L 0 10 z" fill="#000000"/>` + "\n")
	b.WriteString("    </marker>\n")
	b.WriteString(`    <symbol id="levelMarker" viewBox="0 0 30 30">` + "\n")
	b.WriteString(`      <circle r="12" cx="15" cy="15" fill="white" stroke="#000" stroke-width="0.5"/>` + "\n")
	b.WriteString(`      <line x1="3" y1="15" x2="27" y2="15" stroke="#000" stroke-width="0.5"/>` + "\n")
	b.WriteString(`      <line x1="15" y1="3" x2="15" y2="27" stroke="#000" stroke-width="0.5"/>` + "\n")
	b.WriteString("    </symbol>\n")
	b.WriteString("  </defs>\n")
}

// ============================================================
// Nodes
// ============================================================

func writeNode(n Node) string {
	switch n.Kind {
	case KindLine:
		return writeLine(n)
	case KindPolygon:
		return writePolygon(n)
	case KindRect:
		return writeRect(n)
	case KindCircle:
		return writeCircle(n)
	case KindText:
		return writeText(n)
	case KindUse:
		return fmt.Sprintf(`<use href="#%s" x="%s" y="%s" width="%s" height="%s"/>`,
			n.Text, formatFloat(n.X), formatFloat(n.Y), formatFloat(n.Width), formatFloat(n.Height))
	}
	return ""
}

func writeLine(n Node) string {
	if len(n.Points) < 2 {
		return ""
	}
	markers := ""
	if n.Arrows {
		markers = ` marker-start="url(#dimensionArrow)" marker-end="url(#dimensionArrow)"`
	}
	return fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" %s%s/>`,
		formatFloat(n.Points[0].X), formatFloat(n.Points[0].Y),
		formatFloat(n.Points[1].X), formatFloat(n.Points[1].Y),
		styleAttrs(n.Style), markers)
}

func writePolygon(n Node) string {
	if len(n.Points) < 3 {
		return ""
	}
	var path strings.Builder
	path.WriteString(`<path d="M `)
	path.WriteString(formatPoint(n.Points[0]))
	for _, p := range n.Points[1:] {
		path.WriteString(" L ")
		path.WriteString(formatPoint(p))
	}
	path.WriteString(` Z" `)
	path.WriteString(styleAttrs(n.Style))
	path.WriteString("/>")
	return path.String()
}

func writeRect(n Node) string {
	return fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" %s/>`,
		formatFloat(n.X), formatFloat(n.Y), formatFloat(n.Width), formatFloat(n.Height),
		styleAttrs(n.Style))
}

func writeCircle(n Node) string {
	return fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" %s/>`,
		formatFloat(n.X), formatFloat(n.Y), formatFloat(n.Radius), styleAttrs(n.Style))
}

func writeText(n Node) string {
	transform := ""
	if n.Rotation != 0 {
		transform = fmt.Sprintf(` transform="rotate(%s %s %s)"`,
			formatFloat(n.Rotation), formatFloat(n.X), formatFloat(n.Y))
	}
	return fmt.Sprintf(`<text x="%s" y="%s" text-anchor="%s" font-size="%s" font-family="Arial" %s%s>%s</text>`,
		formatFloat(n.X), formatFloat(n.Y), n.Anchor, formatFloat(n.FontSize),
		styleAttrs(n.Style), transform, escapeText(n.Text))
}

// ============================================================
// Styles
// ============================================================

func styleAttrs(style string) string {
	switch style {
	case StylePlanBorder:
		return `fill="white" stroke="#000000" stroke-width="2"`
	case StyleGridLine:
		return `stroke="#E8E8E8" stroke-width="0.5"`
	case StyleGridLabel:
		return `fill="#E8E8E8"`
	case StyleRoomFill:
		return `fill="white" stroke="#000000" stroke-width="4"`
	case StyleRoomHatch:
		return `fill="url(#wallCross)" fill-opacity="0.7" stroke="none"`
	case StyleLabelBox:
		return `fill="white" stroke="#000000" stroke-width="0.3" stroke-dasharray="4,2"`
	case StyleRoomName:
		return `font-weight="bold"`
	case StyleRoomArea, StyleRoomLevel, StyleDimLabel:
		return `fill="#000000"`
	case StyleDimLine:
		return `stroke="#000000" stroke-width="0.5"`
	case StyleNorthBody:
		return `fill="white" stroke="#000000" stroke-width="1"`
	case StyleNorthGlyph:
		return `fill="#000000" stroke="#000000" stroke-width="1"`
	case StyleNorthLabel:
		return `font-weight="bold"`
	}
	return ""
}

// ============================================================
// Formatting helpers
// ============================================================

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p model.Point) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
