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
	"plan-studio/internal/plan/generate"
	"plan-studio/internal/storage"
)

// ============================================================
// Report Handler
// ============================================================

type ReportHandler struct {
	repo      *storage.Repository
	sessions  *auth.SessionManager
	gate      *billing.Gate
	generator generate.Generator
	now       func() time.Time
}

func NewReportHandler(repo *storage.Repository, sessions *auth.SessionManager, gate *billing.Gate, generator generate.Generator) *ReportHandler {
	return &ReportHandler{
		repo:      repo,
		sessions:  sessions,
		gate:      gate,
		generator: generator,
		now:       time.Now,
	}
}

type reportRequest struct {
	ProjectID  string `json:"projectId"`
	ReportType string `json:"reportType"`
	Command    string `json:"command"`
}

// Create gates on the report quota, generates the narrative content from
// the project record and stores it.
func (h *ReportHandler) Create(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}
	log.Printf("[REPORTS] Create request user=%s", userID)

	var req reportRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.ProjectID == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "projectId required"})
	}

	ctx := context.Background()
	project, err := h.repo.GetProject(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load project"})
	}
	if project.UserID != userID {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	if outcome, qerr := checkQuota(ctx, h.repo, h.gate, h.now, userID, billing.ResourceReports); qerr != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "quota check failed"})
	} else if outcome.Failed {
		return c.JSON(outcome)
	}

	content, err := h.generator.GenerateReport(ctx, projectInput(project), req.Command)
	if err != nil {
		log.Printf("[REPORTS] generate: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "generation failed"})
	}

	report := &models.Report{
		ID:         uuid.NewString(),
		UserID:     userID,
		ProjectID:  project.ID,
		ReportType: defaultReportType(req.ReportType),
		Command:    req.Command,
		Content:    content,
		CreatedAt:  h.now().UTC().Format(time.RFC3339),
	}
	if err := h.repo.CreateReport(ctx, report); err != nil {
		log.Printf("[REPORTS] create: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create report"})
	}
	return c.Status(http.StatusCreated).JSON(report)
}

func (h *ReportHandler) List(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	reports, err := h.repo.ListReports(context.Background(), userID)
	if err != nil {
		log.Printf("[REPORTS] list: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list reports"})
	}
	return c.JSON(reports)
}

func (h *ReportHandler) Get(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	report, err := h.ownedReport(context.Background(), c.Params("id"), userID)
	if err != nil {
		return resourceError(c, err, "report")
	}
	return c.JSON(report)
}

func (h *ReportHandler) Delete(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	if err := h.repo.DeleteReport(context.Background(), c.Params("id"), userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "report not found"})
		}
		log.Printf("[REPORTS] delete: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete report"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// Export serializes the report as markdown, json or pdf.
func (h *ReportHandler) Export(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	report, err := h.ownedReport(context.Background(), c.Params("id"), userID)
	if err != nil {
		return resourceError(c, err, "report")
	}

	format := c.Query("format", "markdown")
	var data []byte
	var contentType, ext string

	switch format {
	case "markdown":
		data, err = export.ReportMarkdown(report)
		contentType, ext = "text/markdown", "md"
	case "json":
		data, err = export.ReportJSON(report)
		contentType, ext = "application/json", "json"
	case "pdf":
		data, err = export.ReportPDF(report)
		contentType, ext = "application/pdf", "pdf"
	default:
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "unsupported format: " + format})
	}
	if err != nil {
		return exportFailure(c, err)
	}

	c.Set("Content-Type", contentType)
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.%s"`, report.ID, ext))
	return c.Send(data)
}

// ============================================================
// Helpers
// ============================================================

// ownedReport loads a report and checks ownership; failures come back as
// domain errors for resourceError to map.
func (h *ReportHandler) ownedReport(ctx context.Context, id, userID string) (*models.Report, error) {
	report, err := h.repo.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.UserID != userID {
		return nil, errForbidden
	}
	return report, nil
}

func defaultReportType(t string) string {
	if t == "" {
		return "summary"
	}
	return t
}
