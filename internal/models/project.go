package models

// ============================================================
// Project Records
// ============================================================

type User struct {
	ID        string `json:"id"`
	Login     string `json:"login"`
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	PlanTier  string `json:"plan_tier"`
	CreatedAt string `json:"created_at"`
}

type Manager struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Units  string  `json:"units"`
}

type Material struct {
	Type       string `json:"type"`
	Properties string `json:"properties"`
}

type LayoutPreference struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type StructuralFeature struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

type Project struct {
	ID                 string              `json:"id"`
	UserID             string              `json:"user_id"`
	ProjectName        string              `json:"projectName"`
	ProjectType        string              `json:"projectType"`
	ClientName         string              `json:"clientName"`
	ArchitecturalStyle string              `json:"architecturalStyle"`
	BuildingType       string              `json:"buildingType"`
	ProjectStatus      string              `json:"projectStatus"`
	Description        string              `json:"description"`
	StartDate          string              `json:"startDate"`
	EndDate            string              `json:"endDate"`
	Budget             float64             `json:"budget"`
	ManagerID          string              `json:"managerId"`
	Dimensions         *Dimensions         `json:"dimensions,omitempty"`
	Materials          []Material          `json:"materials"`
	LayoutPreferences  []LayoutPreference  `json:"layoutPreferences"`
	StructuralFeatures []StructuralFeature `json:"structuralFeatures"`
	CreatedAt          string              `json:"createdAt"`
}

// ============================================================
// Design and report Records
// ============================================================

// Design is the index row for a persisted floor-plan artifact; the geometry
// blob itself lives in the artifact store keyed by ID.
type Design struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt"`
}

type Report struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	ProjectID  string `json:"projectId"`
	ReportType string `json:"reportType"`
	Command    string `json:"command"`
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
}
