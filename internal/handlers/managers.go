package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"plan-studio/internal/auth"
	"plan-studio/internal/billing"
	"plan-studio/internal/models"
	"plan-studio/internal/storage"
)

// ============================================================
// Manager Handler
// ============================================================

type ManagerHandler struct {
	repo     *storage.Repository
	sessions *auth.SessionManager
	gate     *billing.Gate
	now      func() time.Time
}

func NewManagerHandler(repo *storage.Repository, sessions *auth.SessionManager, gate *billing.Gate) *ManagerHandler {
	return &ManagerHandler{
		repo:     repo,
		sessions: sessions,
		gate:     gate,
		now:      time.Now,
	}
}

type managerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *ManagerHandler) Create(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}
	log.Printf("[MANAGERS] Create request user=%s", userID)

	var req managerRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.Name == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "name required"})
	}

	ctx := context.Background()
	if outcome, err := checkQuota(ctx, h.repo, h.gate, h.now, userID, billing.ResourceManagers); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "quota check failed"})
	} else if outcome.Failed {
		return c.JSON(outcome)
	}

	manager := &models.Manager{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: h.now().UTC().Format(time.RFC3339),
	}
	if err := h.repo.CreateManager(ctx, manager); err != nil {
		log.Printf("[MANAGERS] create: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create manager"})
	}
	return c.Status(http.StatusCreated).JSON(manager)
}

func (h *ManagerHandler) List(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	managers, err := h.repo.ListManagers(context.Background(), userID)
	if err != nil {
		log.Printf("[MANAGERS] list: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list managers"})
	}
	return c.JSON(managers)
}

func (h *ManagerHandler) Get(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	manager, err := h.repo.GetManager(context.Background(), c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "manager not found"})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load manager"})
	}
	if manager.UserID != userID {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}
	return c.JSON(manager)
}

func (h *ManagerHandler) Update(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	var req managerRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.Name == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "name required"})
	}

	ctx := context.Background()
	manager := &models.Manager{
		ID:     c.Params("id"),
		UserID: userID,
		Name:   req.Name,
		Email:  req.Email,
	}
	if err := h.repo.UpdateManager(ctx, manager); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "manager not found"})
		}
		log.Printf("[MANAGERS] update: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update manager"})
	}

	fresh, err := h.repo.GetManager(ctx, manager.ID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to reload manager"})
	}
	return c.JSON(fresh)
}

func (h *ManagerHandler) Delete(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	if err := h.repo.DeleteManager(context.Background(), c.Params("id"), userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "manager not found"})
		}
		log.Printf("[MANAGERS] delete: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete manager"})
	}
	return c.JSON(fiber.Map{"success": true})
}
