package scene

import (
	"fmt"
	"math"
	"strings"

	"plan-studio/internal/plan/model"
	"plan-studio/internal/plan/view"
)

// ============================================================
// Scene Renderer
// ============================================================

const (
	dimStandOff   = 20.0 // perpendicular offset of dimension lines from the edge
	dimLabelLift  = 30.0 // perpendicular offset of the length label
	dimOverhang   = 30.0 // how far dimension lines extend past the edge ends
	labelBoxW     = 160.0
	labelBoxH     = 100.0
	northOffsetX  = -300.0 // north arrow offset from the bounding box origin
	northOffsetY  = 700.0
	northRadius   = 50.0
	gridLabelGap  = 10.0
	levelMarkerSz = 30.0
)

// Render turns a validated floor plan plus view state into a scene graph.
// It is a pure function of its inputs: identical (plan, view) pairs produce
// identical graphs, so snapshots are stable.
func Render(plan *model.FloorPlan, vs model.ViewState) *Graph {
	t := view.NewTransform(plan.Metadata.BoundingBox, view.DefaultPadding, vs.Scale)

	g := &Graph{
		ViewBox: t.ViewBox(),
		Scale:   t.DisplayScale(),
	}

	g.Layers = append(g.Layers, renderBorder(plan))
	if vs.ShowGrid {
		g.Layers = append(g.Layers, renderGrid(plan))
	}
	if vs.ShowLayers {
		g.Layers = append(g.Layers, renderRooms(plan))
	}
	if vs.ShowRuler {
		g.Layers = append(g.Layers, renderDimensions(plan))
	}
	g.Layers = append(g.Layers, renderNorthArrow(plan))

	return g
}

// ============================================================
// Layers
// ============================================================

func renderBorder(plan *model.FloorPlan) Layer {
	bb := plan.Metadata.BoundingBox
	return Layer{
		Name: "border",
		Nodes: []Node{{
			Kind:   KindRect,
			Style:  StylePlanBorder,
			X:      bb.MinX,
			Y:      bb.MinY,
			Width:  bb.Width(),
			Height: bb.Height(),
		}},
	}
}

// renderGrid draws vertical and horizontal lines at gridSize spacing across
// the bounding box, each labeled with its offset from the box origin rounded
// to the nearest grid unit.
func renderGrid(plan *model.FloorPlan) Layer {
	bb := plan.Metadata.BoundingBox
	step := plan.Metadata.GridSize
	if step <= 0 {
		step = 100
	}

	layer := Layer{Name: "grid"}

	vertical := int(math.Ceil(bb.Width()/step)) + 1
	for i := 0; i < vertical; i++ {
		x := bb.MinX + float64(i)*step
		layer.Nodes = append(layer.Nodes, Node{
			Kind:   KindLine,
			Style:  StyleGridLine,
			Points: []model.Point{{X: x, Y: bb.MinY}, {X: x, Y: bb.MaxY}},
		})
		layer.Nodes = append(layer.Nodes, Node{
			Kind:     KindText,
			Style:    StyleGridLabel,
			X:        x,
			Y:        bb.MinY - gridLabelGap,
			Text:     gridLabel(float64(i)*step, step),
			Anchor:   "middle",
			FontSize: 10,
		})
	}

	horizontal := int(math.Ceil(bb.Height()/step)) + 1
	for i := 0; i < horizontal; i++ {
		y := bb.MinY + float64(i)*step
		layer.Nodes = append(layer.Nodes, Node{
			Kind:   KindLine,
			Style:  StyleGridLine,
			Points: []model.Point{{X: bb.MinX, Y: y}, {X: bb.MaxX, Y: y}},
		})
		layer.Nodes = append(layer.Nodes, Node{
			Kind:     KindText,
			Style:    StyleGridLabel,
			X:        bb.MinX - gridLabelGap,
			Y:        y + 3,
			Text:     gridLabel(float64(i)*step, step),
			Anchor:   "end",
			FontSize: 10,
		})
	}

	return layer
}

// renderRooms emits, per room, the filled boundary polygon, a hatch overlay,
// the centered label block and a level marker.
func renderRooms(plan *model.FloorPlan) Layer {
	layer := Layer{Name: "rooms"}

	for _, room := range plan.Rooms.Elements {
		corners := room.Bounds.Corners
		if len(corners) < 3 {
			continue
		}

		ring := append([]model.Point(nil), corners...)
		layer.Nodes = append(layer.Nodes, Node{
			Kind:   KindPolygon,
			Style:  StyleRoomFill,
			Points: ring,
		})
		layer.Nodes = append(layer.Nodes, Node{
			Kind:   KindPolygon,
			Style:  StyleRoomHatch,
			Points: ring,
		})

		cx, cy := polygonCenter(corners)

		layer.Nodes = append(layer.Nodes, Node{
			Kind:   KindRect,
			Style:  StyleLabelBox,
			X:      cx - labelBoxW/2,
			Y:      cy - labelBoxH/2,
			Width:  labelBoxW,
			Height: labelBoxH,
		})
		layer.Nodes = append(layer.Nodes, Node{
			Kind:     KindText,
			Style:    StyleRoomName,
			X:        cx,
			Y:        cy - 25,
			Text:     strings.ToUpper(room.Name),
			Anchor:   "middle",
			FontSize: 16,
		})
		layer.Nodes = append(layer.Nodes, Node{
			Kind:     KindText,
			Style:    StyleRoomArea,
			X:        cx,
			Y:        cy + 5,
			Text:     fmt.Sprintf("Area: %.2f m²", room.Bounds.Area/1_000_000),
			Anchor:   "middle",
			FontSize: 14,
		})
		layer.Nodes = append(layer.Nodes, Node{
			Kind:     KindText,
			Style:    StyleRoomLevel,
			X:        cx,
			Y:        cy + 35,
			Text:     "FFL: +0.00",
			Anchor:   "middle",
			FontSize: 12,
		})
		layer.Nodes = append(layer.Nodes, Node{
			Kind:   KindUse,
			Text:   SymbolLevelMarker,
			X:      cx - levelMarkerSz/2,
			Y:      cy + 60,
			Width:  levelMarkerSz,
			Height: levelMarkerSz,
		})
	}

	return layer
}

// renderDimensions draws a double-arrow dimension line along every room
// edge, offset perpendicular to the edge, labeled with the edge length in
// meters. Labels flip 180° when the edge angle leaves ±90° so they read
// upright.
func renderDimensions(plan *model.FloorPlan) Layer {
	layer := Layer{Name: "dimensions"}

	for _, room := range plan.Rooms.Elements {
		corners := room.Bounds.Corners
		n := len(corners)
		for i := 0; i < n; i++ {
			a := corners[i]
			b := corners[(i+1)%n]

			dx := b.X - a.X
			dy := b.Y - a.Y
			length := math.Hypot(dx, dy)
			if length == 0 {
				continue
			}

			angle := math.Atan2(dy, dx) * 180 / math.Pi
			ux, uy := dx/length, dy/length
			// Perpendicular pointing to the label side of the edge.
			nx, ny := uy, -ux

			start := model.Point{
				X: a.X + nx*dimStandOff - ux*dimOverhang,
				Y: a.Y + ny*dimStandOff - uy*dimOverhang,
			}
			end := model.Point{
				X: b.X + nx*dimStandOff + ux*dimOverhang,
				Y: b.Y + ny*dimStandOff + uy*dimOverhang,
			}

			layer.Nodes = append(layer.Nodes, Node{
				Kind:   KindLine,
				Style:  StyleDimLine,
				Points: []model.Point{start, end},
				Arrows: true,
			})

			labelAngle := angle
			if angle > 90 || angle < -90 {
				labelAngle += 180
			}
			layer.Nodes = append(layer.Nodes, Node{
				Kind:     KindText,
				Style:    StyleDimLabel,
				X:        (a.X+b.X)/2 + nx*dimLabelLift,
				Y:        (a.Y+b.Y)/2 + ny*dimLabelLift,
				Text:     fmt.Sprintf("%.2fm", length/1000),
				Anchor:   "middle",
				FontSize: 12,
				Rotation: labelAngle,
			})
		}
	}

	return layer
}

// renderNorthArrow places the orientation glyph at a constant offset from
// the bounding box, regardless of view toggles.
func renderNorthArrow(plan *model.FloorPlan) Layer {
	bb := plan.Metadata.BoundingBox
	cx := bb.MinX + northOffsetX
	cy := bb.MinY + northOffsetY

	return Layer{
		Name: "north",
		Nodes: []Node{
			{
				Kind:   KindCircle,
				Style:  StyleNorthBody,
				X:      cx,
				Y:      cy,
				Radius: northRadius,
			},
			{
				Kind:  KindPolygon,
				Style: StyleNorthGlyph,
				Points: []model.Point{
					{X: cx, Y: cy - 45},
					{X: cx + 15, Y: cy + 25},
					{X: cx, Y: cy + 10},
					{X: cx - 15, Y: cy + 25},
				},
			},
			{
				Kind:     KindText,
				Style:    StyleNorthLabel,
				X:        cx,
				Y:        cy - 55,
				Text:     "N",
				Anchor:   "middle",
				FontSize: 24,
			},
		},
	}
}

// gridLabel formats an offset from the box origin, rounded to the nearest
// grid unit.
func gridLabel(offset, step float64) string {
	return fmt.Sprintf("%d", int(math.Round(offset/step)*step))
}

func polygonCenter(corners []model.Point) (float64, float64) {
	var sx, sy float64
	for _, c := range corners {
		sx += c.X
		sy += c.Y
	}
	n := float64(len(corners))
	return sx / n, sy / n
}
