package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"plan-studio/internal/auth"
	"plan-studio/internal/billing"
	"plan-studio/internal/storage"
)

// ============================================================
// Shared Handler Helpers
// ============================================================

// authorize resolves the Bearer token to a user ID.
func authorize(c fiber.Ctx, sessions *auth.SessionManager) (string, bool) {
	header := c.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	return sessions.Resolve(token)
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
}

// Lookup failures the owned-resource helpers report. The helpers never write
// responses; resourceError does the mapping in one place.
var (
	errForbidden       = errors.New("forbidden")
	errArtifactMissing = errors.New("plan artifact missing")
)

func resourceError(c fiber.Ctx, err error, kind string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": kind + " not found"})
	case errors.Is(err, errForbidden):
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	case errors.Is(err, errArtifactMissing):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "plan artifact missing"})
	default:
		log.Printf("[HTTP] load %s: %v", kind, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load " + kind})
	}
}

// checkQuota resolves the user's plan tier and current-period usage and
// asks the gate whether one more res fits under the ceiling.
func checkQuota(ctx context.Context, repo *storage.Repository, gate *billing.Gate, now func() time.Time, userID string, res billing.Resource) (billing.Outcome, error) {
	user, err := repo.GetUserByID(ctx, userID)
	if err != nil {
		return billing.Outcome{}, err
	}
	usage, err := repo.UsageSince(ctx, userID, billing.PeriodStart(now()))
	if err != nil {
		return billing.Outcome{}, err
	}

	used := 0
	switch res {
	case billing.ResourceProjects:
		used = usage.Projects
	case billing.ResourceDesigns:
		used = usage.Designs
	case billing.ResourceManagers:
		used = usage.Managers
	case billing.ResourceReports:
		used = usage.Reports
	}
	return gate.Check(user.PlanTier, res, used), nil
}
