package generate

// ============================================================
// Generation input
// ============================================================

// Input is the structured project description handed to a content
// generator. It mirrors the project record plus the free-form request
// fields from the design form.
type Input struct {
	ProjectID          string             `json:"projectId"`
	ProjectName        string             `json:"projectName"`
	ProjectType        string             `json:"projectType"`
	ClientName         string             `json:"clientName"`
	ArchitecturalStyle string             `json:"architecturalStyle"`
	BuildingType       string             `json:"buildingType"`
	ConstructionType   string             `json:"constructionType"`
	Dimensions         DimensionsInput    `json:"dimensions"`
	Budget             float64            `json:"budget"`
	Rooms              int                `json:"rooms"`
	Materials          []MaterialInput    `json:"materials"`
	LayoutPreferences  []PreferenceInput  `json:"layoutPreferences"`
	StructuralFeatures []FeatureInput     `json:"structuralFeatures"`
	AdditionalNotes    string             `json:"additionalNotes"`
}

type DimensionsInput struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Units  string  `json:"units"` // "meters" or "feet"
}

type MaterialInput struct {
	Type       string `json:"type"`
	Properties string `json:"properties"`
}

type PreferenceInput struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type FeatureInput struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// LengthMM converts the project length to model millimeters.
func (d DimensionsInput) LengthMM() float64 { return toMM(d.Length, d.Units) }

// WidthMM converts the project width to model millimeters.
func (d DimensionsInput) WidthMM() float64 { return toMM(d.Width, d.Units) }

func toMM(v float64, units string) float64 {
	if units == "feet" {
		return v * 304.8
	}
	return v * 1000
}
