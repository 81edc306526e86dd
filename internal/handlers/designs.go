package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"plan-studio/internal/auth"
	"plan-studio/internal/billing"
	"plan-studio/internal/export"
	"plan-studio/internal/models"
	"plan-studio/internal/plan/generate"
	"plan-studio/internal/plan/model"
	"plan-studio/internal/plan/scene"
	"plan-studio/internal/plan/validate"
	"plan-studio/internal/plan/view"
	"plan-studio/internal/storage"
)

// ============================================================
// Design Handler
// ============================================================

type DesignHandler struct {
	repo      *storage.Repository
	plans     *storage.PlanStore
	sessions  *auth.SessionManager
	gate      *billing.Gate
	generator generate.Generator
	now       func() time.Time
}

func NewDesignHandler(repo *storage.Repository, plans *storage.PlanStore, sessions *auth.SessionManager, gate *billing.Gate, generator generate.Generator) *DesignHandler {
	return &DesignHandler{
		repo:      repo,
		plans:     plans,
		sessions:  sessions,
		gate:      gate,
		generator: generator,
		now:       time.Now,
	}
}

type designRequest struct {
	ProjectID        string `json:"projectId"`
	ConstructionType string `json:"constructionType"`
	Rooms            int    `json:"rooms"`
	AdditionalNotes  string `json:"additionalNotes"`
}

type designResponse struct {
	Design models.Design    `json:"design"`
	Plan   *model.FloorPlan `json:"plan"`
}

// Create runs the full generation cycle: quota gate, content generation,
// structural validation, then immutable persistence. A structurally
// invalid plan is rejected and nothing is stored.
func (h *DesignHandler) Create(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}
	log.Printf("[DESIGNS] Create request user=%s", userID)

	var req designRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.ProjectID == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "projectId required"})
	}

	ctx := context.Background()
	project, err := h.ownedProject(ctx, req.ProjectID, userID)
	if err != nil {
		return resourceError(c, err, "project")
	}
	if project.Dimensions == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "project has no dimensions"})
	}

	if outcome, qerr := checkQuota(ctx, h.repo, h.gate, h.now, userID, billing.ResourceDesigns); qerr != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "quota check failed"})
	} else if outcome.Failed {
		return c.JSON(outcome)
	}

	plan, err := h.generator.GeneratePlan(ctx, designInput(project, &req))
	if err != nil {
		var formatErr *generate.FormatError
		if errors.As(err, &formatErr) {
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{
				"error":   "generator returned a malformed plan",
				"details": formatErr.Reason,
			})
		}
		log.Printf("[DESIGNS] generate: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "generation failed"})
	}

	if violations := validate.Validate(plan); len(violations) > 0 {
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":      "generated plan failed structural validation",
			"violations": violations,
		})
	}

	design := &models.Design{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		UserID:    userID,
		CreatedAt: h.now().UTC().Format(time.RFC3339),
	}
	if err := h.plans.SavePlan(design.ID, plan); err != nil {
		log.Printf("[DESIGNS] save plan: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store plan"})
	}
	if err := h.repo.CreateDesign(ctx, design); err != nil {
		log.Printf("[DESIGNS] index design: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store design"})
	}

	return c.Status(http.StatusCreated).JSON(designResponse{Design: *design, Plan: plan})
}

// List returns design index rows; ?project= narrows to one project.
func (h *DesignHandler) List(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	ctx := context.Background()
	if projectID := c.Query("project"); projectID != "" {
		if _, err := h.ownedProject(ctx, projectID, userID); err != nil {
			return resourceError(c, err, "project")
		}
		designs, err := h.repo.ListProjectDesigns(ctx, projectID)
		if err != nil {
			log.Printf("[DESIGNS] list: %v", err)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list designs"})
		}
		return c.JSON(designs)
	}

	designs, err := h.repo.ListDesigns(ctx, userID)
	if err != nil {
		log.Printf("[DESIGNS] list: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list designs"})
	}
	return c.JSON(designs)
}

func (h *DesignHandler) Get(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	design, plan, err := h.ownedDesign(context.Background(), c.Params("id"), userID)
	if err != nil {
		return resourceError(c, err, "design")
	}
	return c.JSON(designResponse{Design: *design, Plan: plan})
}

func (h *DesignHandler) Delete(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	id := c.Params("id")
	if err := h.repo.DeleteDesign(context.Background(), id, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "design not found"})
		}
		log.Printf("[DESIGNS] delete: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete design"})
	}
	if err := h.plans.DeletePlan(id); err != nil {
		log.Printf("[DESIGNS] delete plan blob: %v", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ============================================================
// Rendering & Export
// ============================================================

// SVG renders the stored plan. Query parameters scale, grid, layers and
// ruler override the default view state; scale is clamped to the legal
// zoom range.
func (h *DesignHandler) SVG(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	_, plan, err := h.ownedDesign(context.Background(), c.Params("id"), userID)
	if err != nil {
		return resourceError(c, err, "design")
	}

	vs := viewState(c)
	graph := scene.Render(plan, vs)

	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(scene.WriteSVG(graph))
}

func (h *DesignHandler) ExportPNG(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	design, plan, err := h.ownedDesign(context.Background(), c.Params("id"), userID)
	if err != nil {
		return resourceError(c, err, "design")
	}

	graph := scene.Render(plan, viewState(c))
	data, err := export.RasterizePNG(graph, export.DefaultRasterTimeout)
	if err != nil {
		return exportFailure(c, err)
	}

	c.Set("Content-Type", "image/png")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="design-%s.png"`, design.ID))
	return c.Send(data)
}

func (h *DesignHandler) ExportPDF(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	design, plan, err := h.ownedDesign(context.Background(), c.Params("id"), userID)
	if err != nil {
		return resourceError(c, err, "design")
	}

	graph := scene.Render(plan, viewState(c))
	data, err := export.PlanPDF(graph, export.DefaultRasterTimeout)
	if err != nil {
		return exportFailure(c, err)
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="design-%s.pdf"`, design.ID))
	return c.Send(data)
}

func (h *DesignHandler) ExportDXF(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	design, plan, err := h.ownedDesign(context.Background(), c.Params("id"), userID)
	if err != nil {
		return resourceError(c, err, "design")
	}

	data, err := export.WriteDXF(plan)
	if err != nil {
		return exportFailure(c, err)
	}

	c.Set("Content-Type", "application/dxf")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="design-%s.dxf"`, design.ID))
	return c.Send(data)
}

// ============================================================
// Helpers
// ============================================================

// ownedDesign loads a design index row and its plan blob, checking ownership.
// Failures come back as domain errors for resourceError to map.
func (h *DesignHandler) ownedDesign(ctx context.Context, id, userID string) (*models.Design, *model.FloorPlan, error) {
	design, err := h.repo.GetDesign(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if design.UserID != userID {
		return nil, nil, errForbidden
	}

	plan, err := h.plans.GetPlan(design.ID)
	if err != nil {
		log.Printf("[DESIGNS] load plan: %v", err)
		return nil, nil, errArtifactMissing
	}
	return design, plan, nil
}

func (h *DesignHandler) ownedProject(ctx context.Context, projectID, userID string) (*models.Project, error) {
	project, err := h.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.UserID != userID {
		return nil, errForbidden
	}
	return project, nil
}

// viewState parses the render toggles from query parameters.
func viewState(c fiber.Ctx) model.ViewState {
	vs := model.DefaultViewState()
	if raw := c.Query("scale"); raw != "" {
		if s, err := strconv.ParseFloat(raw, 64); err == nil {
			vs.Scale = view.ClampScale(s)
		}
	}
	if raw := c.Query("grid"); raw != "" {
		vs.ShowGrid = raw == "true" || raw == "1"
	}
	if raw := c.Query("layers"); raw != "" {
		vs.ShowLayers = raw == "true" || raw == "1"
	}
	if raw := c.Query("ruler"); raw != "" {
		vs.ShowRuler = raw == "true" || raw == "1"
	}
	return vs
}

// designInput assembles the generation input from the project record and
// the design form fields.
func designInput(p *models.Project, req *designRequest) generate.Input {
	in := projectInput(p)
	in.ConstructionType = req.ConstructionType
	in.Rooms = req.Rooms
	in.AdditionalNotes = req.AdditionalNotes
	return in
}

// projectInput maps the stored project record onto the generator's input.
func projectInput(p *models.Project) generate.Input {
	in := generate.Input{
		ProjectID:          p.ID,
		ProjectName:        p.ProjectName,
		ProjectType:        p.ProjectType,
		ClientName:         p.ClientName,
		ArchitecturalStyle: p.ArchitecturalStyle,
		BuildingType:       p.BuildingType,
		Budget:             p.Budget,
	}
	if p.Dimensions != nil {
		in.Dimensions = generate.DimensionsInput{
			Length: p.Dimensions.Length,
			Width:  p.Dimensions.Width,
			Height: p.Dimensions.Height,
			Units:  p.Dimensions.Units,
		}
	}
	for _, m := range p.Materials {
		in.Materials = append(in.Materials, generate.MaterialInput{Type: m.Type, Properties: m.Properties})
	}
	for _, l := range p.LayoutPreferences {
		in.LayoutPreferences = append(in.LayoutPreferences, generate.PreferenceInput{Type: l.Type, Description: l.Description})
	}
	for _, f := range p.StructuralFeatures {
		in.StructuralFeatures = append(in.StructuralFeatures, generate.FeatureInput{
			Type:        f.Type,
			Description: f.Description,
			Quantity:    f.Quantity,
		})
	}
	return in
}
