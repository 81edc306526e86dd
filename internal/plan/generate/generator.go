package generate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"plan-studio/internal/plan/model"
)

// ============================================================
// Generator contract
// ============================================================

// Generator produces floor-plan artifacts and narrative reports from a
// structured project description. Implementations must return payloads that
// satisfy the connectivity invariants; the caller validates before
// persisting either way.
type Generator interface {
	GeneratePlan(ctx context.Context, in Input) (*model.FloorPlan, error)
	GenerateReport(ctx context.Context, in Input, command string) (string, error)
}

// ============================================================
// Deterministic generator
// ============================================================

const (
	interiorThickness = 150.0 // mm
	exteriorThickness = 200.0 // mm
	defaultRooms      = 4
	gridSize          = 100.0
	// vertexTolerance merges generated wall endpoints that land on the
	// same junction.
	vertexTolerance = 1.0
)

// Deterministic lays rooms out as a split rectangle: the project footprint
// divided into a grid of cells, walls broken at every junction with
// reciprocal connections, shared walls carrying both owning rooms. The same
// input always yields the same plan.
type Deterministic struct {
	// Now stamps projectMetadata.dates.modified; overridable in tests.
	Now func() time.Time
}

func NewDeterministic() *Deterministic {
	return &Deterministic{Now: time.Now}
}

func (g *Deterministic) GeneratePlan(_ context.Context, in Input) (*model.FloorPlan, error) {
	width := in.Dimensions.WidthMM()
	length := in.Dimensions.LengthMM()
	if width <= 0 || length <= 0 {
		return nil, fmt.Errorf("generate plan: non-positive footprint %gx%g", width, length)
	}

	roomCount := in.Rooms
	if roomCount <= 0 {
		roomCount = defaultRooms
	}

	rows, cols := gridShape(roomCount)
	cellW := width / float64(cols)
	cellH := length / float64(rows)

	builder := newWallBuilder()
	var rooms []model.Room

	idx := 0
	for r := 0; r < rows && idx < roomCount; r++ {
		for c := 0; c < cols && idx < roomCount; c++ {
			idx++
			x0 := float64(c) * cellW
			y0 := float64(r) * cellH
			corners := []model.Point{
				{X: x0, Y: y0},
				{X: x0 + cellW, Y: y0},
				{X: x0 + cellW, Y: y0 + cellH},
				{X: x0, Y: y0 + cellH},
			}

			roomID := fmt.Sprintf("room-%d", idx)
			for i := range corners {
				a := corners[i]
				b := corners[(i+1)%len(corners)]
				exterior := onBoundary(a, b, width, length)
				builder.addEdge(a, b, roomID, exterior)
			}

			rooms = append(rooms, model.Room{
				ID:   roomID,
				Name: fmt.Sprintf("Room %d", idx),
				Bounds: model.RoomBounds{
					Corners: corners,
					Area:    cellW * cellH,
				},
			})
		}
	}

	walls := builder.build()

	// Attach each room's owning walls.
	byID := make(map[string]model.Wall, len(walls))
	for _, w := range walls {
		byID[w.ID] = w
	}
	for i := range rooms {
		var owned []model.Wall
		for _, w := range walls {
			for _, owner := range w.SharedBy {
				if owner == rooms[i].ID {
					owned = append(owned, byID[w.ID])
					break
				}
			}
		}
		rooms[i].Walls = owned
	}

	plan := &model.FloorPlan{}
	plan.Rooms.Elements = rooms
	plan.Walls.Elements = walls
	plan.Metadata = model.PlanMetadata{
		BoundingBox: model.BoundingBox{MinX: 0, MinY: 0, MaxX: width, MaxY: length},
		GridSize:    gridSize,
	}
	fillMetadata(plan, in, g.Now().UTC().Format(time.RFC3339))
	plan.ProjectSummary = buildSummary(in, width*length)

	return plan, nil
}

// GenerateReport produces a deterministic narrative report in markdown.
func (g *Deterministic) GenerateReport(_ context.Context, in Input, command string) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Project Report: %s\n\n", in.ProjectName)
	fmt.Fprintf(&b, "Client: %s\n\n", in.ClientName)
	fmt.Fprintf(&b, "## Overview\n\n")
	fmt.Fprintf(&b, "%s is a %s project in the %s style covering a footprint of %.1f x %.1f %s.\n\n",
		in.ProjectName, strings.ToLower(orUnknown(in.ProjectType)), strings.ToLower(orUnknown(in.ArchitecturalStyle)),
		in.Dimensions.Length, in.Dimensions.Width, in.Dimensions.Units)

	if command != "" {
		fmt.Fprintf(&b, "## Requested Focus\n\n%s\n\n", command)
	}

	if len(in.Materials) > 0 {
		b.WriteString("## Materials\n\n")
		for i, m := range in.Materials {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, m.Type, orNone(m.Properties))
		}
		b.WriteString("\n")
	}

	if len(in.StructuralFeatures) > 0 {
		b.WriteString("## Structural Features\n\n")
		for i, f := range in.StructuralFeatures {
			fmt.Fprintf(&b, "%d. %s: %s (quantity %d)\n", i+1, f.Type, orNone(f.Description), f.Quantity)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Budget\n\nThe planned budget is $%.0f.\n", in.Budget)

	return b.String(), nil
}

// ============================================================
// Wall graph construction
// ============================================================

// wallBuilder deduplicates room edges into shared wall segments and wires
// junction connections between them.
type wallBuilder struct {
	order []string
	edges map[string]*edge
}

type edge struct {
	a, b     model.Point
	exterior bool
	owners   []string
}

func newWallBuilder() *wallBuilder {
	return &wallBuilder{edges: make(map[string]*edge)}
}

// addEdge registers one room edge. The same geometric segment registered by
// two rooms becomes a single shared wall.
func (wb *wallBuilder) addEdge(a, b model.Point, roomID string, exterior bool) {
	key := edgeKey(a, b)
	if e, ok := wb.edges[key]; ok {
		e.owners = append(e.owners, roomID)
		return
	}
	wb.order = append(wb.order, key)
	wb.edges[key] = &edge{a: a, b: b, exterior: exterior, owners: []string{roomID}}
}

// build materializes walls in insertion order and computes reciprocal
// junction connections: two walls meeting at a point are a corner, three or
// more a T-junction.
func (wb *wallBuilder) build() []model.Wall {
	walls := make([]model.Wall, 0, len(wb.order))
	for i, key := range wb.order {
		e := wb.edges[key]
		thickness := interiorThickness
		wallType := model.WallInterior
		if e.exterior {
			thickness = exteriorThickness
			wallType = model.WallExterior
		}
		owners := append([]string(nil), e.owners...)
		sort.Strings(owners)
		walls = append(walls, model.Wall{
			ID:         fmt.Sprintf("wall-%d", i+1),
			StartPoint: e.a,
			EndPoint:   e.b,
			Thickness:  thickness,
			Type:       wallType,
			SharedBy:   owners,
		})
	}

	// Group wall endpoints into junction vertices.
	type incidence struct {
		wallIdx int
		point   model.Point
	}
	junctions := make(map[string][]incidence)
	for i, w := range walls {
		for _, p := range []model.Point{w.StartPoint, w.EndPoint} {
			k := pointKey(p)
			junctions[k] = append(junctions[k], incidence{wallIdx: i, point: p})
		}
	}

	keys := make([]string, 0, len(junctions))
	for k := range junctions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		inc := junctions[k]
		if len(inc) < 2 {
			continue
		}
		connType := model.ConnectionCorner
		if len(inc) > 2 {
			connType = model.ConnectionTJunction
		}
		for _, self := range inc {
			for _, other := range inc {
				if self.wallIdx == other.wallIdx {
					continue
				}
				walls[self.wallIdx].Connections = append(walls[self.wallIdx].Connections, model.Connection{
					WallID: walls[other.wallIdx].ID,
					Point:  self.point,
					Type:   connType,
				})
			}
		}
	}

	return walls
}

func edgeKey(a, b model.Point) string {
	ka, kb := pointKey(a), pointKey(b)
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "|" + kb
}

func pointKey(p model.Point) string {
	return fmt.Sprintf("%.0f,%.0f", math.Round(p.X/vertexTolerance)*vertexTolerance, math.Round(p.Y/vertexTolerance)*vertexTolerance)
}

func onBoundary(a, b model.Point, width, length float64) bool {
	if a.X == b.X && (a.X == 0 || a.X == width) {
		return true
	}
	if a.Y == b.Y && (a.Y == 0 || a.Y == length) {
		return true
	}
	return false
}

// gridShape picks a rows x cols split: one row up to three rooms, two rows
// beyond that, so interior walls form both corner and T junctions.
func gridShape(rooms int) (rows, cols int) {
	if rooms <= 3 {
		return 1, rooms
	}
	rows = 2
	cols = (rooms + 1) / 2
	return rows, cols
}

// ============================================================
// Metadata and summary
// ============================================================

func fillMetadata(plan *model.FloorPlan, in Input, modified string) {
	plan.ProjectMetadata = model.ProjectMetadata{
		ProjectName:      in.ProjectName,
		ProjectID:        in.ProjectID,
		BuildingType:     orUnknown(in.BuildingType),
		ConstructionType: orUnknown(in.ConstructionType),
		DesignCodes:      []string{"IBC 2021", "NFPA 101"},
		SeismicZone:      "Zone 2",
		WindZone:         "Zone B",
		ClimateZone:      "Temperate",
	}
	plan.ProjectMetadata.Dates.Modified = modified

	plan.DesignSpecifications = model.DesignSpecifications{
		DrawingNumber:    fmt.Sprintf("DWG-%s", shortRef(in.ProjectID)),
		ConstructionType: orUnknown(in.ConstructionType),
		Scale:            "1:50",
	}
	plan.Compliance = model.Compliance{
		BuildingCode: "IBC 2021",
		FireCode:     "NFPA 101",
		SeismicZone:  "Zone 2",
		WindZone:     "Zone B",
	}
	plan.FireSafety.FireRatings.ExteriorWalls = "2-hour"
	plan.FireSafety.FireRatings.InteriorWalls = "1-hour"
	plan.FireSafety.FireRatings.FloorCeiling = "2-hour"
	plan.FireSafety.EmergencyExits.Locations = []model.ExitLocation{
		{ID: "exit-1", Position: model.Point{X: 0, Y: in.Dimensions.LengthMM() / 2}},
	}
	plan.Accessibility = model.Accessibility{
		StepFreeAccess: true,
		DoorClearance:  "900mm",
		Notes:          "Ground-floor access compliant",
	}
}

func buildSummary(in Input, areaMM2 float64) model.ProjectSummary {
	s := model.ProjectSummary{
		EstimatedBudget:  in.Budget,
		TotalBudget:      in.Budget,
		TimeToCompletion: timeToCompletion(areaMM2),
	}
	s.LaborCharges.PercentageOfBudget = "35%"
	s.LaborCharges.Breakdown.ProjectManagement = 10
	s.LaborCharges.Breakdown.SkilledLabor = 20
	s.LaborCharges.Breakdown.AdministrativeSupport = 5

	if len(in.Materials) == 0 {
		s.RequiredMaterials = []model.MaterialEstimate{
			{Item: "Concrete", ApproximateCost: costShare(in.Budget, 0.25)},
		}
	} else {
		share := 0.65 / float64(len(in.Materials))
		for _, m := range in.Materials {
			s.RequiredMaterials = append(s.RequiredMaterials, model.MaterialEstimate{
				Item:            m.Type,
				ApproximateCost: costShare(in.Budget, share),
			})
		}
	}

	s.RequiredEquipment = []string{"Concrete mixer", "Scaffolding", "Crane (light)"}
	s.PersonnelNeeded = []string{"Site engineer", "Foreman", "Skilled masons", "Electricians"}
	s.EnvironmentalConsiderations = []string{
		"Dust suppression during excavation",
		"Construction waste segregation",
		"Rainwater runoff management",
	}
	return s
}

func timeToCompletion(areaMM2 float64) string {
	areaM2 := areaMM2 / 1_000_000
	months := int(math.Ceil(areaM2 / 25))
	if months < 3 {
		months = 3
	}
	return fmt.Sprintf("%d months", months)
}

func costShare(budget, share float64) string {
	return fmt.Sprintf("$%.0f", budget*share)
}

func shortRef(id string) string {
	if len(id) >= 4 {
		return strings.ToUpper(id[:4])
	}
	return "0000"
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "no description"
	}
	return s
}
