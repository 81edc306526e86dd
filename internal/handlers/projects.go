package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"plan-studio/internal/auth"
	"plan-studio/internal/billing"
	"plan-studio/internal/export"
	"plan-studio/internal/models"
	"plan-studio/internal/storage"
)

// ============================================================
// Project Handler
// ============================================================

type ProjectHandler struct {
	repo     *storage.Repository
	sessions *auth.SessionManager
	gate     *billing.Gate
	now      func() time.Time
}

func NewProjectHandler(repo *storage.Repository, sessions *auth.SessionManager, gate *billing.Gate) *ProjectHandler {
	return &ProjectHandler{
		repo:     repo,
		sessions: sessions,
		gate:     gate,
		now:      time.Now,
	}
}

type projectRequest struct {
	ProjectName        string                     `json:"projectName"`
	ProjectType        string                     `json:"projectType"`
	ClientName         string                     `json:"clientName"`
	ArchitecturalStyle string                     `json:"architecturalStyle"`
	BuildingType       string                     `json:"buildingType"`
	ProjectStatus      string                     `json:"projectStatus"`
	Description        string                     `json:"description"`
	StartDate          string                     `json:"startDate"`
	EndDate            string                     `json:"endDate"`
	Budget             float64                    `json:"budget"`
	ManagerID          string                     `json:"managerId"`
	Dimensions         *models.Dimensions         `json:"dimensions"`
	Materials          []models.Material          `json:"materials"`
	LayoutPreferences  []models.LayoutPreference  `json:"layoutPreferences"`
	StructuralFeatures []models.StructuralFeature `json:"structuralFeatures"`
}

// Create gates on the project quota, validates the manager reference and
// stores the record with its list fields.
func (h *ProjectHandler) Create(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}
	log.Printf("[PROJECTS] Create request user=%s", userID)

	var req projectRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.ProjectName == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "projectName required"})
	}

	ctx := context.Background()
	if outcome, err := h.checkQuota(ctx, userID, billing.ResourceProjects); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "quota check failed"})
	} else if outcome.Failed {
		// Quota denials are 200 responses carrying failed=true, so the
		// client can render an upgrade prompt instead of an error page.
		return c.JSON(outcome)
	}

	if req.ManagerID != "" {
		if _, err := h.repo.GetManager(ctx, req.ManagerID); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error":   "Manager not found",
				"details": fmt.Sprintf("Checked manager ID: %s", req.ManagerID),
			})
		}
	}

	project := &models.Project{
		ID:                 uuid.NewString(),
		UserID:             userID,
		ProjectName:        req.ProjectName,
		ProjectType:        req.ProjectType,
		ClientName:         req.ClientName,
		ArchitecturalStyle: req.ArchitecturalStyle,
		BuildingType:       req.BuildingType,
		ProjectStatus:      defaultStatus(req.ProjectStatus),
		Description:        req.Description,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Budget:             req.Budget,
		ManagerID:          req.ManagerID,
		Dimensions:         req.Dimensions,
		Materials:          emptyIfNil(req.Materials),
		LayoutPreferences:  emptyIfNil(req.LayoutPreferences),
		StructuralFeatures: emptyIfNil(req.StructuralFeatures),
		CreatedAt:          h.now().UTC().Format(time.RFC3339),
	}
	if err := h.repo.CreateProject(ctx, project); err != nil {
		log.Printf("[PROJECTS] create: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create project"})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"success": true, "project": project})
}

func (h *ProjectHandler) List(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	projects, err := h.repo.ListProjects(context.Background(), userID)
	if err != nil {
		log.Printf("[PROJECTS] list: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list projects"})
	}
	return c.JSON(projects)
}

func (h *ProjectHandler) Get(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	project, err := h.ownedProject(context.Background(), c.Params("id"), userID)
	if err != nil {
		return resourceError(c, err, "project")
	}
	return c.JSON(project)
}

// Update replaces the record and its list fields, then returns the fresh
// row so clients never cache a stale copy.
func (h *ProjectHandler) Update(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	ctx := context.Background()
	existing, err := h.ownedProject(ctx, c.Params("id"), userID)
	if err != nil {
		return resourceError(c, err, "project")
	}

	var req projectRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	updated := &models.Project{
		ID:                 existing.ID,
		UserID:             userID,
		ProjectName:        req.ProjectName,
		ProjectType:        req.ProjectType,
		ClientName:         req.ClientName,
		ArchitecturalStyle: req.ArchitecturalStyle,
		BuildingType:       req.BuildingType,
		ProjectStatus:      defaultStatus(req.ProjectStatus),
		Description:        req.Description,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Budget:             req.Budget,
		ManagerID:          req.ManagerID,
		Dimensions:         req.Dimensions,
		Materials:          emptyIfNil(req.Materials),
		LayoutPreferences:  emptyIfNil(req.LayoutPreferences),
		StructuralFeatures: emptyIfNil(req.StructuralFeatures),
		CreatedAt:          existing.CreatedAt,
	}
	if err := h.repo.UpdateProject(ctx, updated); err != nil {
		log.Printf("[PROJECTS] update: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update project"})
	}

	fresh, err := h.repo.GetProject(ctx, existing.ID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to reload project"})
	}
	return c.JSON(fresh)
}

func (h *ProjectHandler) Delete(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	id := c.Params("id")
	if err := h.repo.DeleteProject(context.Background(), id, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
		}
		log.Printf("[PROJECTS] delete: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete project"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// ============================================================
// Project Exports
// ============================================================

// Export flattens the project record into csv, markdown or json.
func (h *ProjectHandler) Export(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	project, err := h.ownedProject(context.Background(), c.Params("id"), userID)
	if err != nil {
		return resourceError(c, err, "project")
	}

	format := c.Query("format", "csv")
	var data []byte
	var contentType, ext string

	switch format {
	case "csv":
		data, err = export.ProjectCSV(project)
		contentType, ext = "text/csv", "csv"
	case "markdown":
		data, err = export.ProjectMarkdown(project)
		contentType, ext = "text/markdown", "md"
	case "json":
		data, err = export.ProjectJSON(project)
		contentType, ext = "application/json", "json"
	default:
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "unsupported format: " + format})
	}
	if err != nil {
		return exportFailure(c, err)
	}

	c.Set("Content-Type", contentType)
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="project-%s.%s"`, project.ID, ext))
	return c.Send(data)
}

// ExportPDF lays the project fields out as a text document.
func (h *ProjectHandler) ExportPDF(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	project, err := h.ownedProject(context.Background(), c.Params("id"), userID)
	if err != nil {
		return resourceError(c, err, "project")
	}

	data, err := export.ProjectPDF(project)
	if err != nil {
		return exportFailure(c, err)
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="project-%s.pdf"`, project.ID))
	return c.Send(data)
}

// ============================================================
// Helpers
// ============================================================

// ownedProject loads a project and checks ownership. Failures come back as
// domain errors for resourceError to map; no response is written here.
func (h *ProjectHandler) ownedProject(ctx context.Context, id, userID string) (*models.Project, error) {
	project, err := h.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.UserID != userID {
		return nil, errForbidden
	}
	return project, nil
}

func (h *ProjectHandler) checkQuota(ctx context.Context, userID string, res billing.Resource) (billing.Outcome, error) {
	return checkQuota(ctx, h.repo, h.gate, h.now, userID, res)
}

func defaultStatus(s string) string {
	if s == "" {
		return "planning"
	}
	return s
}

func emptyIfNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

// exportFailure maps the exporter error taxonomy onto HTTP statuses.
// DownloadDenied stays a 200 so the client shows a toast, not a crash.
func exportFailure(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, export.ErrMissingPlan):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "nothing to export"})
	case errors.Is(err, export.ErrRenderTimeout):
		return c.Status(http.StatusGatewayTimeout).JSON(fiber.Map{"error": "render timed out"})
	case errors.Is(err, export.ErrDownloadDenied):
		return c.JSON(fiber.Map{"failed": true, "error": "download denied"})
	default:
		log.Printf("[EXPORT] %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "export failed"})
	}
}
