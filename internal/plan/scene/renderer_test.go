package scene

import (
	"reflect"
	"strings"
	"testing"

	"plan-studio/internal/plan/model"
)

func testPlan() *model.FloorPlan {
	corners := []model.Point{
		{X: 0, Y: 0},
		{X: 2000, Y: 0},
		{X: 2000, Y: 1000},
		{X: 0, Y: 1000},
	}
	plan := &model.FloorPlan{}
	plan.Rooms.Elements = []model.Room{{
		ID:   "room-1",
		Name: "Living Room",
		Bounds: model.RoomBounds{
			Corners: corners,
			Area:    2_000_000,
		},
	}}
	plan.Walls.Elements = []model.Wall{
		{ID: "w1", StartPoint: corners[0], EndPoint: corners[1], Thickness: 200, Type: model.WallExterior},
	}
	plan.Metadata = model.PlanMetadata{
		BoundingBox: model.BoundingBox{MinX: 0, MinY: 0, MaxX: 2000, MaxY: 1000},
		GridSize:    100,
	}
	return plan
}

func allState() model.ViewState {
	return model.ViewState{Scale: 1.0, ShowGrid: true, ShowLayers: true, ShowRuler: true}
}

func TestRender_LayersFollowToggles(t *testing.T) {
	plan := testPlan()

	g := Render(plan, allState())
	for _, name := range []string{"border", "grid", "rooms", "dimensions", "north"} {
		if g.Layer(name) == nil {
			t.Errorf("layer %q missing with all toggles on", name)
		}
	}

	off := Render(plan, model.ViewState{Scale: 1.0})
	for _, name := range []string{"grid", "rooms", "dimensions"} {
		if off.Layer(name) != nil {
			t.Errorf("layer %q present with toggles off", name)
		}
	}
	// Border and north render regardless of toggles.
	if off.Layer("border") == nil || off.Layer("north") == nil {
		t.Fatal("border or north layer missing with toggles off")
	}
}

func TestRender_ViewBoxIndependentOfScale(t *testing.T) {
	plan := testPlan()

	a := Render(plan, model.ViewState{Scale: 0.1, ShowGrid: true})
	b := Render(plan, model.ViewState{Scale: 1.5, ShowGrid: true})
	if a.ViewBox != b.ViewBox {
		t.Fatalf("viewBox varies with scale: %+v vs %+v", a.ViewBox, b.ViewBox)
	}
	if a.Scale == b.Scale {
		t.Fatal("display scale should differ between renders")
	}
}

func TestRender_Deterministic(t *testing.T) {
	plan := testPlan()
	a := Render(plan, allState())
	b := Render(plan, allState())
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs produced different graphs")
	}
}

func TestRender_GridLineCount(t *testing.T) {
	g := Render(testPlan(), model.ViewState{Scale: 1.0, ShowGrid: true})
	grid := g.Layer("grid")
	if grid == nil {
		t.Fatal("grid layer missing")
	}

	// 2000/100 + 1 vertical, 1000/100 + 1 horizontal.
	lines := 0
	for _, n := range grid.Nodes {
		if n.Kind == KindLine {
			lines++
		}
	}
	if want := 21 + 11; lines != want {
		t.Fatalf("grid lines = %d, want %d", lines, want)
	}
}

func TestRender_RoomLabels(t *testing.T) {
	g := Render(testPlan(), model.ViewState{Scale: 1.0, ShowLayers: true})
	rooms := g.Layer("rooms")
	if rooms == nil {
		t.Fatal("rooms layer missing")
	}

	var name, area, level string
	for _, n := range rooms.Nodes {
		switch n.Style {
		case StyleRoomName:
			name = n.Text
		case StyleRoomArea:
			area = n.Text
		case StyleRoomLevel:
			level = n.Text
		}
	}
	if name != "LIVING ROOM" {
		t.Errorf("room name = %q, want uppercased", name)
	}
	if area != "Area: 2.00 m²" {
		t.Errorf("area label = %q", area)
	}
	if level != "FFL: +0.00" {
		t.Errorf("level label = %q", level)
	}
}

func TestRender_DimensionLabelsInMeters(t *testing.T) {
	g := Render(testPlan(), model.ViewState{Scale: 1.0, ShowRuler: true})
	dims := g.Layer("dimensions")
	if dims == nil {
		t.Fatal("dimensions layer missing")
	}

	labels := map[string]bool{}
	for _, n := range dims.Nodes {
		if n.Kind == KindText {
			labels[n.Text] = true
		}
	}
	if !labels["2.00m"] || !labels["1.00m"] {
		t.Fatalf("dimension labels = %v, want 2.00m and 1.00m", labels)
	}
}

func TestRender_DimensionLabelFlip(t *testing.T) {
	g := Render(testPlan(), model.ViewState{Scale: 1.0, ShowRuler: true})
	dims := g.Layer("dimensions")

	// The top edge runs left-to-right (angle 0); the bottom edge runs
	// right-to-left (angle 180) and must be flipped upright.
	sawUpright, sawFlipped := false, false
	for _, n := range dims.Nodes {
		if n.Kind != KindText {
			continue
		}
		switch n.Rotation {
		case 0:
			sawUpright = true
		case 360:
			sawFlipped = true
		}
	}
	if !sawUpright || !sawFlipped {
		t.Fatalf("expected both upright and flipped labels (upright=%v flipped=%v)", sawUpright, sawFlipped)
	}
}

// ============================================================
// SVG writer
// ============================================================

func TestWriteSVG_Structure(t *testing.T) {
	g := Render(testPlan(), allState())
	svg := WriteSVG(g)

	for _, want := range []string{
		`viewBox="-500 -500 3000 2000"`,
		`transform="scale(1)"`,
		`<pattern id="wallCross"`,
		`<symbol id="levelMarker"`,
		"LIVING ROOM",
		"FFL: +0.00",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}

func TestWriteSVG_EscapesText(t *testing.T) {
	plan := testPlan()
	plan.Rooms.Elements[0].Name = "A & B <lounge>"

	svg := WriteSVG(Render(plan, model.ViewState{Scale: 1.0, ShowLayers: true}))
	if strings.Contains(svg, "<lounge>") {
		t.Fatal("room name not escaped")
	}
	if !strings.Contains(svg, "A &amp; B &lt;LOUNGE&gt;") {
		t.Fatal("escaped room name missing")
	}
}

func TestWriteSVG_ScaleTransform(t *testing.T) {
	g := Render(testPlan(), model.ViewState{Scale: 0.5})
	svg := WriteSVG(g)
	if !strings.Contains(svg, `transform="scale(0.5)"`) {
		t.Fatalf("missing scale transform, got: %.200s", svg)
	}
}
