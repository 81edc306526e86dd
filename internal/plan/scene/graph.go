package scene

import (
	"plan-studio/internal/plan/model"
	"plan-studio/internal/plan/view"
)

// ============================================================
// Scene graph
// ============================================================

// The scene graph is the renderer's output: a format-neutral tree of
// drawable primitives. It carries positions, sizes, style keys and text, but
// no SVG or canvas dependency, so the same graph feeds the SVG writer and
// the raster exporter.

type NodeKind string

const (
	KindLine    NodeKind = "line"
	KindPolygon NodeKind = "polygon"
	KindRect    NodeKind = "rect"
	KindCircle  NodeKind = "circle"
	KindText    NodeKind = "text"
	KindUse     NodeKind = "use" // reference to a named symbol
)

// Style keys resolved by the presentation layer.
const (
	StylePlanBorder = "plan-border"
	StyleGridLine   = "grid-line"
	StyleGridLabel  = "grid-label"
	StyleRoomFill   = "room-fill"
	StyleRoomHatch  = "room-hatch"
	StyleLabelBox   = "label-box"
	StyleRoomName   = "room-name"
	StyleRoomArea   = "room-area"
	StyleRoomLevel  = "room-level"
	StyleDimLine    = "dim-line"
	StyleDimLabel   = "dim-label"
	StyleNorthBody  = "north-body"
	StyleNorthGlyph = "north-glyph"
	StyleNorthLabel = "north-label"
)

// Symbol names for KindUse nodes.
const (
	SymbolLevelMarker = "levelMarker"
)

type Node struct {
	Kind  NodeKind
	Style string

	// Geometry. Lines use two Points, polygons use the full ring.
	Points []model.Point

	// Anchor for rect/circle/text/use nodes.
	X, Y          float64
	Width, Height float64
	Radius        float64

	// Text content and placement.
	Text     string
	Anchor   string  // "start", "middle", "end"
	FontSize float64
	Rotation float64 // degrees around (X, Y)

	// Double-arrow ends for dimension lines.
	Arrows bool
}

// Layer groups nodes drawn together, back to front.
type Layer struct {
	Name  string
	Nodes []Node
}

type Graph struct {
	ViewBox view.Rect
	Scale   float64
	Layers  []Layer
}

// Layer returns the named layer, or nil.
func (g *Graph) Layer(name string) *Layer {
	for i := range g.Layers {
		if g.Layers[i].Name == name {
			return &g.Layers[i]
		}
	}
	return nil
}

// CountKind counts nodes of a kind across all layers.
func (g *Graph) CountKind(kind NodeKind) int {
	n := 0
	for _, l := range g.Layers {
		for _, node := range l.Nodes {
			if node.Kind == kind {
				n++
			}
		}
	}
	return n
}

// CountStyle counts nodes carrying the style key across all layers.
func (g *Graph) CountStyle(style string) int {
	n := 0
	for _, l := range g.Layers {
		for _, node := range l.Nodes {
			if node.Style == style {
				n++
			}
		}
	}
	return n
}
