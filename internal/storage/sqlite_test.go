package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"plan-studio/internal/models"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	if err := repo.Init(context.Background(), migrationsPath(t)); err != nil {
		t.Fatalf("init db: %v", err)
	}
	return repo
}

func migrationsPath(t *testing.T) string {
	t.Helper()
	// Tests run from the package directory.
	return filepath.Join("..", "..", "migrations", "001_init.sql")
}

func seedUser(t *testing.T, repo *Repository, tier string) *models.User {
	t.Helper()
	u := &models.User{
		ID:        "user-" + tier,
		Login:     "login-" + tier,
		Password:  "secret",
		FullName:  "Test User",
		Email:     "test@example.com",
		PlanTier:  tier,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestUsers_CredentialsAndLookup(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "free")

	got, err := repo.GetUserByCredentials(ctx, u.Login, "secret")
	if err != nil {
		t.Fatalf("by credentials: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("got user %s, want %s", got.ID, u.ID)
	}

	if _, err := repo.GetUserByCredentials(ctx, u.Login, "wrong"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wrong password: err = %v, want ErrNotFound", err)
	}

	if err := repo.SetUserPlan(ctx, u.ID, "premium"); err != nil {
		t.Fatalf("set plan: %v", err)
	}
	got, err = repo.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PlanTier != "premium" {
		t.Fatalf("plan = %s, want premium", got.PlanTier)
	}
}

func TestProjects_RoundTripWithLists(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "free")

	p := &models.Project{
		ID:            "proj-1",
		UserID:        u.ID,
		ProjectName:   "Harbor Tower",
		ProjectType:   "Commercial",
		ClientName:    "ACME",
		ProjectStatus: "planning",
		Budget:        500000,
		Dimensions:    &models.Dimensions{Length: 12, Width: 9, Height: 3, Units: "meters"},
		Materials: []models.Material{
			{Type: "Concrete", Properties: "C30"},
			{Type: "Steel", Properties: "S355"},
		},
		LayoutPreferences:  []models.LayoutPreference{{Type: "open-plan", Description: "shared floor"}},
		StructuralFeatures: []models.StructuralFeature{{Type: "Column", Description: "RC", Quantity: 8}},
		CreatedAt:          time.Now().UTC().Format(time.RFC3339),
	}
	if err := repo.CreateProject(ctx, p); err != nil {
		t.Fatalf("create project: %v", err)
	}

	got, err := repo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.ProjectName != "Harbor Tower" || got.Dimensions == nil || got.Dimensions.Length != 12 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.Materials) != 2 || len(got.LayoutPreferences) != 1 || len(got.StructuralFeatures) != 1 {
		t.Fatalf("lists mismatch: %d materials, %d layouts, %d features",
			len(got.Materials), len(got.LayoutPreferences), len(got.StructuralFeatures))
	}

	// Update replaces the list tables.
	got.Materials = []models.Material{{Type: "Timber", Properties: "GL24"}}
	got.ProjectStatus = "in-progress"
	if err := repo.UpdateProject(ctx, got); err != nil {
		t.Fatalf("update project: %v", err)
	}
	fresh, err := repo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.ProjectStatus != "in-progress" || len(fresh.Materials) != 1 || fresh.Materials[0].Type != "Timber" {
		t.Fatalf("update not applied: %+v", fresh)
	}

	if err := repo.DeleteProject(ctx, p.ID, u.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if _, err := repo.GetProject(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: err = %v, want ErrNotFound", err)
	}
}

func TestProjects_DeleteScopedToOwner(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "free")

	p := &models.Project{ID: "proj-1", UserID: u.ID, ProjectName: "X", CreatedAt: time.Now().UTC().Format(time.RFC3339)}
	if err := repo.CreateProject(ctx, p); err != nil {
		t.Fatal(err)
	}

	if err := repo.DeleteProject(ctx, p.ID, "someone-else"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-user delete: err = %v, want ErrNotFound", err)
	}
}

func TestManagers_CRUD(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "free")

	m := &models.Manager{ID: "mgr-1", UserID: u.ID, Name: "Dana", Email: "dana@example.com", CreatedAt: time.Now().UTC().Format(time.RFC3339)}
	if err := repo.CreateManager(ctx, m); err != nil {
		t.Fatal(err)
	}

	list, err := repo.ListManagers(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "Dana" {
		t.Fatalf("list = %+v", list)
	}

	m.Name = "Dana Q"
	if err := repo.UpdateManager(ctx, m); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetManager(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Dana Q" {
		t.Fatalf("name = %s", got.Name)
	}

	if err := repo.DeleteManager(ctx, m.ID, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetManager(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: %v", err)
	}
}

func TestUsage_CountsWithinPeriod(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "free")

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	periodStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mk := func(id string, at time.Time) {
		d := &models.Design{ID: id, ProjectID: "proj-1", UserID: u.ID, CreatedAt: at.Format(time.RFC3339)}
		if err := repo.CreateDesign(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	mk("d-old", periodStart.AddDate(0, -1, 0)) // previous period
	mk("d-new-1", now)
	mk("d-new-2", now.Add(time.Hour))

	usage, err := repo.UsageSince(ctx, u.ID, periodStart)
	if err != nil {
		t.Fatal(err)
	}
	if usage.Designs != 2 {
		t.Fatalf("designs in period = %d, want 2", usage.Designs)
	}
}

func TestReports_RoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "free")

	rep := &models.Report{
		ID:         "rep-1",
		UserID:     u.ID,
		ProjectID:  "proj-1",
		ReportType: "summary",
		Command:    "focus on costs",
		Content:    "# Report\n\nbody",
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := repo.CreateReport(ctx, rep); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetReport(ctx, rep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != rep.Content || got.Command != rep.Command {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	list, err := repo.ListReports(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %d reports", len(list))
	}
}
