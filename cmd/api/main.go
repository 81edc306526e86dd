package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"plan-studio/internal/auth"
	"plan-studio/internal/billing"
	"plan-studio/internal/common/config"
	"plan-studio/internal/common/middleware"
	"plan-studio/internal/handlers"
	"plan-studio/internal/plan/generate"
	"plan-studio/internal/storage"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Plan Studio API
// ============================================================

func main() {
	cfg := config.Load()

	db, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := storage.New(db)
	if err := repo.Init(context.Background(), cfg.MigrationsPath); err != nil {
		log.Fatalf("init db: %v", err)
	}

	plans, err := storage.NewPlanStore(cfg.ArtifactPath)
	if err != nil {
		log.Fatalf("open artifact store: %v", err)
	}
	defer plans.Close()

	catalog, err := billing.LoadCatalog(cfg.PlanCatalog)
	if err != nil {
		log.Fatalf("load plan catalog: %v", err)
	}
	gate := billing.NewGate(catalog)

	var generator generate.Generator = generate.NewDeterministic()
	if cfg.GeneratorURL != "" {
		generator = generate.NewRemote(cfg.GeneratorURL, nil)
		log.Printf("Using remote generator at %s", cfg.GeneratorURL)
	}

	sessions := auth.NewSessionManager()
	authHandler := handlers.NewAuthHandler(repo, sessions)
	projectHandler := handlers.NewProjectHandler(repo, sessions, gate)
	managerHandler := handlers.NewManagerHandler(repo, sessions, gate)
	designHandler := handlers.NewDesignHandler(repo, plans, sessions, gate, generator)
	reportHandler := handlers.NewReportHandler(repo, sessions, gate, generator)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Plan Studio API",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Auth Routes
	// ============================================================

	app.Post("/register", authHandler.Register)
	app.Post("/login", authHandler.Login)
	app.Get("/users/:id", authHandler.GetUser)

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Post("/projects", projectHandler.Create)
	api.Get("/projects", projectHandler.List)
	api.Get("/projects/:id", projectHandler.Get)
	api.Put("/projects/:id", projectHandler.Update)
	api.Delete("/projects/:id", projectHandler.Delete)
	api.Get("/projects/:id/export", projectHandler.Export)
	api.Get("/projects/:id/export/pdf", projectHandler.ExportPDF)

	api.Post("/managers", managerHandler.Create)
	api.Get("/managers", managerHandler.List)
	api.Get("/managers/:id", managerHandler.Get)
	api.Put("/managers/:id", managerHandler.Update)
	api.Delete("/managers/:id", managerHandler.Delete)

	api.Post("/designs", designHandler.Create)
	api.Get("/designs", designHandler.List)
	api.Get("/designs/:id", designHandler.Get)
	api.Delete("/designs/:id", designHandler.Delete)
	api.Get("/designs/:id/svg", designHandler.SVG)
	api.Get("/designs/:id/export/png", designHandler.ExportPNG)
	api.Get("/designs/:id/export/pdf", designHandler.ExportPDF)
	api.Get("/designs/:id/export/dxf", designHandler.ExportDXF)

	api.Post("/reports", reportHandler.Create)
	api.Get("/reports", reportHandler.List)
	api.Get("/reports/:id", reportHandler.Get)
	api.Delete("/reports/:id", reportHandler.Delete)
	api.Get("/reports/:id/export", reportHandler.Export)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Plan Studio API on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
