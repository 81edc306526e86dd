package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"plan-studio/internal/auth"
	"plan-studio/internal/models"
	"plan-studio/internal/storage"
)

// ============================================================
// Auth Handler
// ============================================================

type AuthHandler struct {
	repo     *storage.Repository
	sessions *auth.SessionManager
}

func NewAuthHandler(repo *storage.Repository, sessions *auth.SessionManager) *AuthHandler {
	return &AuthHandler{repo: repo, sessions: sessions}
}

type registerRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type userPayload struct {
	ID        string `json:"id"`
	Login     string `json:"login"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	PlanTier  string `json:"plan_tier"`
	CreatedAt string `json:"created_at"`
}

// Register creates an account on the free tier and issues a token.
func (h *AuthHandler) Register(c fiber.Ctx) error {
	log.Printf("[AUTH] Register request")

	var req registerRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.Login == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "login and password required"})
	}

	ctx := context.Background()
	if _, err := h.repo.GetUserByLogin(ctx, req.Login); err == nil {
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "login already taken"})
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Login:     req.Login,
		Password:  req.Password,
		FullName:  req.FullName,
		Email:     req.Email,
		PlanTier:  "free",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.repo.CreateUser(ctx, user); err != nil {
		log.Printf("[AUTH] create user: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create user"})
	}

	token := h.sessions.Issue(user.ID)
	return c.Status(http.StatusCreated).JSON(loginResponse{
		Token: token,
		User:  mapUser(user),
	})
}

// Login issues a token for a login/password pair.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	log.Printf("[AUTH] Login request")

	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	var req loginRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if req.Login == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "login and password required"})
	}

	user, err := h.repo.GetUserByCredentials(context.Background(), req.Login, req.Password)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	token := h.sessions.Issue(user.ID)
	return c.JSON(loginResponse{
		Token: token,
		User:  mapUser(user),
	})
}

// GetUser returns the account behind the token; users can only read
// themselves.
func (h *AuthHandler) GetUser(c fiber.Ctx) error {
	userID, ok := authorize(c, h.sessions)
	if !ok {
		return unauthorized(c)
	}

	targetID := c.Params("id")
	if targetID == "" || targetID != userID {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	user, err := h.repo.GetUserByID(context.Background(), targetID)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	return c.JSON(mapUser(user))
}

func mapUser(u *models.User) userPayload {
	return userPayload{
		ID:        u.ID,
		Login:     u.Login,
		FullName:  u.FullName,
		Email:     u.Email,
		PlanTier:  u.PlanTier,
		CreatedAt: u.CreatedAt,
	}
}
