package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"image/png"
	"strings"
	"testing"
	"time"

	"plan-studio/internal/models"
	"plan-studio/internal/plan/model"
	"plan-studio/internal/plan/scene"
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
		Name: "Room 1",
		Bounds: model.RoomBounds{
			Corners: corners,
			Area:    2_000_000,
		},
	}}
	plan.Walls.Elements = []model.Wall{
		{ID: "w1", StartPoint: corners[0], EndPoint: corners[1], Thickness: 200, Type: model.WallExterior},
		{ID: "w2", StartPoint: corners[1], EndPoint: corners[2], Thickness: 200, Type: model.WallExterior},
	}
	plan.Metadata = model.PlanMetadata{
		BoundingBox: model.BoundingBox{MinX: 0, MinY: 0, MaxX: 2000, MaxY: 1000},
		GridSize:    100,
	}
	return plan
}

func testGraph() *scene.Graph {
	return scene.Render(testPlan(), model.ViewState{Scale: 1.0, ShowGrid: true, ShowLayers: true, ShowRuler: true})
}

func testProject() *models.Project {
	return &models.Project{
		ID:            "proj-1",
		UserID:        "user-1",
		ProjectName:   "Harbor Tower",
		ClientName:    "ACME",
		ProjectStatus: "planning",
		StartDate:     "2025-01-01",
		EndDate:       "2025-12-31",
		Budget:        500000,
		Description:   "Mixed-use development",
		Dimensions:    &models.Dimensions{Length: 12, Width: 9, Height: 3, Units: "meters"},
		Materials:     []models.Material{{Type: "Concrete", Properties: "C30"}},
		LayoutPreferences: []models.LayoutPreference{
			{Type: "open-plan", Description: "shared floor"},
		},
		StructuralFeatures: []models.StructuralFeature{
			{Type: "Column", Description: "RC", Quantity: 8},
		},
	}
}

// ============================================================
// Raster
// ============================================================

func TestRasterizePNG_DecodableImage(t *testing.T) {
	data, err := RasterizePNG(testGraph(), DefaultRasterTimeout)
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() < 100 || b.Dy() < 100 {
		t.Fatalf("image too small: %v", b)
	}
	if b.Dx() > maxRasterDim || b.Dy() > maxRasterDim {
		t.Fatalf("image exceeds cap: %v", b)
	}

	// Background is white.
	r, g, bl, _ := img.At(0, 0).RGBA()
	if r != 0xFFFF || g != 0xFFFF || bl != 0xFFFF {
		t.Fatalf("corner not white: %d %d %d", r, g, bl)
	}
}

func TestRasterizePNG_NilGraph(t *testing.T) {
	if _, err := RasterizePNG(nil, DefaultRasterTimeout); err != ErrMissingPlan {
		t.Fatalf("err = %v, want ErrMissingPlan", err)
	}
}

func TestRasterizePNG_ZeroTimeout(t *testing.T) {
	// A non-positive timeout falls back to the default rather than
	// timing out instantly.
	if _, err := RasterizePNG(testGraph(), 0); err != nil {
		t.Fatalf("zero timeout: %v", err)
	}
}

// ============================================================
// PDF
// ============================================================

func TestPlanPDF_Header(t *testing.T) {
	data, err := PlanPDF(testGraph(), 10*time.Second)
	if err != nil {
		t.Fatalf("plan pdf: %v", err)
	}
	assertPDF(t, data)
	if !bytes.Contains(data, []byte("/Subtype /Image")) {
		t.Fatal("pdf carries no embedded image")
	}
}

func TestTextPDF_Paginates(t *testing.T) {
	lines := make([]string, 200)
	for i := range lines {
		lines[i] = "line content"
	}
	data, err := TextPDF("Long Document", lines)
	if err != nil {
		t.Fatal(err)
	}
	assertPDF(t, data)
	if n := bytes.Count(data, []byte("/Type /Page ")); n < 2 {
		t.Fatalf("pages = %d, want pagination", n)
	}
}

func TestProjectPDF(t *testing.T) {
	data, err := ProjectPDF(testProject())
	if err != nil {
		t.Fatal(err)
	}
	assertPDF(t, data)
	if !bytes.Contains(data, []byte("Harbor Tower")) {
		t.Fatal("project name missing from pdf content")
	}
}

func assertPDF(t *testing.T, data []byte) {
	t.Helper()
	if !bytes.HasPrefix(data, []byte("%PDF-1.4")) {
		t.Fatal("missing pdf header")
	}
	if !bytes.Contains(data, []byte("%%EOF")) {
		t.Fatal("missing pdf trailer")
	}
}

// ============================================================
// DXF
// ============================================================

func TestWriteDXF_LayersAndEntities(t *testing.T) {
	data, err := WriteDXF(testPlan())
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	for _, want := range []string{"floor-plan", "walls", "rooms", "LWPOLYLINE", "LINE", "EOF"} {
		if !strings.Contains(text, want) {
			t.Errorf("dxf missing %q", want)
		}
	}
	// The placeholder frame is four lines on the floor-plan layer.
	if n := strings.Count(text, "floor-plan"); n < 5 {
		t.Fatalf("floor-plan occurrences = %d, want layer def plus 4 frame lines", n)
	}
}

func TestWriteDXF_EmptyPlanStillDrawable(t *testing.T) {
	plan := &model.FloorPlan{}
	data, err := WriteDXF(plan)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	// Every layer must carry at least one entity.
	for _, layer := range []string{"walls", "rooms"} {
		if strings.Count(text, layer) < 2 {
			t.Errorf("layer %s has no fallback entity", layer)
		}
	}
}

func TestWriteDXF_NilPlan(t *testing.T) {
	if _, err := WriteDXF(nil); err != ErrMissingPlan {
		t.Fatalf("err = %v, want ErrMissingPlan", err)
	}
}

// ============================================================
// Tabular / text dumps
// ============================================================

func TestProjectCSV_TwoRows(t *testing.T) {
	data, err := ProjectCSV(testProject())
	if err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if len(rows[0]) != len(rows[1]) {
		t.Fatalf("header %d columns, values %d", len(rows[0]), len(rows[1]))
	}
	if rows[0][0] != "Project ID" || rows[1][0] != "proj-1" {
		t.Fatalf("first column = %q/%q", rows[0][0], rows[1][0])
	}

	// List fields collapse to single cells.
	joined := rows[1][len(rows[1])-1]
	if !strings.Contains(joined, "Column: RC - Quantity: 8") {
		t.Fatalf("features cell = %q", joined)
	}
}

func TestProjectCSV_MissingFields(t *testing.T) {
	p := &models.Project{ID: "p", ProjectName: "Bare"}
	data, err := ProjectCSV(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "N/A") {
		t.Fatal("missing fields not rendered as N/A")
	}
}

func TestProjectMarkdown_Sections(t *testing.T) {
	data, err := ProjectMarkdown(testProject())
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		"# Harbor Tower",
		"## Layout Preferences",
		"## Materials",
		"## Structural Features",
		"1. Concrete: C30",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestProjectJSON_Faithful(t *testing.T) {
	p := testProject()
	data, err := ProjectJSON(p)
	if err != nil {
		t.Fatal(err)
	}

	var got models.Project
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != p.ID || got.Budget != p.Budget || len(got.Materials) != 1 {
		t.Fatalf("json round trip mismatch: %+v", got)
	}
}

func TestReportMarkdown_Format(t *testing.T) {
	rep := &models.Report{
		ID:         "rep-1",
		ReportType: "Structural",
		Command:    "focus on columns",
		Content:    "Body text.",
		CreatedAt:  "2025-06-01T12:00:00Z",
	}
	data, err := ReportMarkdown(rep)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	if !strings.HasPrefix(text, "# Structural Report\n\n") {
		t.Fatalf("heading = %.40q", text)
	}
	for _, want := range []string{"Created: 2025-06-01T12:00:00Z", "Command: focus on columns", "Body text."} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestReportMarkdown_NoCommand(t *testing.T) {
	rep := &models.Report{ReportType: "Summary", Content: "x", CreatedAt: "2025-06-01T12:00:00Z"}
	data, err := ReportMarkdown(rep)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "Command:") {
		t.Fatal("command line present without a command")
	}
}
