package model

// ============================================================
// Geometry primitives
// ============================================================

// Point is a model-space coordinate in millimeters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type BoundingBox struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

func (b BoundingBox) Width() float64  { return b.MaxX - b.MinX }
func (b BoundingBox) Height() float64 { return b.MaxY - b.MinY }

// ============================================================
// Walls
// ============================================================

type WallType string

const (
	WallInterior WallType = "interior"
	WallExterior WallType = "exterior"
)

type ConnectionType string

const (
	ConnectionTJunction ConnectionType = "T-junction"
	ConnectionCorner    ConnectionType = "corner"
)

// Connection records that another wall meets this one at Point.
// A matching entry must exist on the referenced wall.
type Connection struct {
	WallID string         `json:"wallId"`
	Point  Point          `json:"point"`
	Type   ConnectionType `json:"type"`
}

type Wall struct {
	ID          string       `json:"id"`
	StartPoint  Point        `json:"startPoint"`
	EndPoint    Point        `json:"endPoint"`
	Thickness   float64      `json:"thickness"`
	Type        WallType     `json:"type"`
	Connections []Connection `json:"connections"`
	SharedBy    []string     `json:"sharedBy"`
}

// ============================================================
// Rooms
// ============================================================

// RoomBounds is an ordered simple closed polygon plus its stored area (mm²).
type RoomBounds struct {
	Corners []Point `json:"corners"`
	Area    float64 `json:"area"`
}

type Room struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Bounds RoomBounds `json:"bounds"`
	Walls  []Wall     `json:"walls"`
}

// ============================================================
// Floor plan artifact
// ============================================================

type ProjectMetadata struct {
	ProjectName      string   `json:"projectName"`
	ProjectID        string   `json:"projectId"`
	BuildingType     string   `json:"buildingType"`
	ConstructionType string   `json:"constructionType"`
	DesignCodes      []string `json:"designCodes"`
	SeismicZone      string   `json:"seismicZone"`
	WindZone         string   `json:"windZone"`
	ClimateZone      string   `json:"climateZone"`
	Dates            struct {
		Modified string `json:"modified"`
	} `json:"dates"`
}

type DesignSpecifications struct {
	DrawingNumber    string `json:"drawingNumber"`
	ConstructionType string `json:"constructionType"`
	Scale            string `json:"scale"`
}

type Compliance struct {
	BuildingCode string `json:"buildingCode"`
	FireCode     string `json:"fireCode"`
	SeismicZone  string `json:"seismicZone"`
	WindZone     string `json:"windZone"`
}

type ExitLocation struct {
	ID       string `json:"id"`
	Position Point  `json:"position"`
}

type FireSafety struct {
	EmergencyExits struct {
		Locations []ExitLocation `json:"locations"`
	} `json:"emergencyExits"`
	FireRatings struct {
		ExteriorWalls string `json:"exteriorWalls"`
		InteriorWalls string `json:"interiorWalls"`
		FloorCeiling  string `json:"floorCeiling"`
	} `json:"fireRatings"`
}

type Accessibility struct {
	StepFreeAccess bool   `json:"stepFreeAccess"`
	DoorClearance  string `json:"doorClearance"`
	Notes          string `json:"notes"`
}

type PlanMetadata struct {
	BoundingBox BoundingBox `json:"boundingBox"`
	GridSize    float64     `json:"gridSize"`
}

type MaterialEstimate struct {
	Item            string `json:"item"`
	ApproximateCost string `json:"approximate_cost"`
}

type LaborCharges struct {
	PercentageOfBudget string `json:"percentage_of_budget"`
	Breakdown          struct {
		ProjectManagement     float64 `json:"project_management"`
		SkilledLabor          float64 `json:"skilled_labor"`
		AdministrativeSupport float64 `json:"administrative_support"`
	} `json:"breakdown"`
}

type ProjectSummary struct {
	EstimatedBudget             float64            `json:"estimated_budget"`
	LaborCharges                LaborCharges       `json:"labor_charges"`
	TotalBudget                 float64            `json:"total_budget"`
	TimeToCompletion            string             `json:"time_to_completion"`
	RequiredMaterials           []MaterialEstimate `json:"required_materials"`
	RequiredEquipment           []string           `json:"required_equipment"`
	PersonnelNeeded             []string           `json:"personnel_needed"`
	EnvironmentalConsiderations []string           `json:"environmental_considerations"`
}

// FloorPlan is the persisted design artifact. It is created once, stored as
// an immutable versioned record, and never mutated in place.
type FloorPlan struct {
	ProjectMetadata      ProjectMetadata      `json:"projectMetadata"`
	DesignSpecifications DesignSpecifications `json:"designSpecifications"`
	Compliance           Compliance           `json:"compliance"`
	FireSafety           FireSafety           `json:"fireSafety"`
	Accessibility        Accessibility        `json:"accessibility"`
	Rooms                struct {
		Elements []Room `json:"elements"`
	} `json:"rooms"`
	Walls struct {
		Elements []Wall `json:"elements"`
	} `json:"walls"`
	Metadata       PlanMetadata   `json:"metadata"`
	ProjectSummary ProjectSummary `json:"project_summary"`
}

// WallByID looks up a wall in walls.elements.
func (p *FloorPlan) WallByID(id string) (Wall, bool) {
	for _, w := range p.Walls.Elements {
		if w.ID == id {
			return w, true
		}
	}
	return Wall{}, false
}

// ============================================================
// View state
// ============================================================

// ViewState holds the per-session display toggles. It is never persisted.
type ViewState struct {
	Scale      float64 `json:"scale"`
	ShowGrid   bool    `json:"showGrid"`
	ShowLayers bool    `json:"showLayers"`
	ShowRuler  bool    `json:"showRuler"`
}

func DefaultViewState() ViewState {
	return ViewState{Scale: 1.0, ShowGrid: true, ShowLayers: true, ShowRuler: true}
}
