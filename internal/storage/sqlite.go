package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"plan-studio/internal/models"
)

// ============================================================
// SQLite Repository
// ============================================================

var ErrNotFound = errors.New("not found")

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init runs the schema migration file.
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(migrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (r *Repository) runMigrations(migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.Exec(string(data)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// OpenSQLite opens the sqlite database at the given path, creating the
// directory if needed.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// ============================================================
// Users
// ============================================================

func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO users (id, login, password, full_name, email, plan_tier, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, u.ID, u.Login, u.Password, u.FullName, u.Email, u.PlanTier, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByCredentials(ctx context.Context, login, password string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, login, password, full_name, email, plan_tier, created_at
        FROM users
        WHERE login = ? AND password = ?
    `, login, password)
	return scanUser(row)
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, login, password, full_name, email, plan_tier, created_at
        FROM users
        WHERE id = ?
    `, id)
	return scanUser(row)
}

func (r *Repository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, login, password, full_name, email, plan_tier, created_at
        FROM users
        WHERE login = ?
    `, login)
	return scanUser(row)
}

func (r *Repository) SetUserPlan(ctx context.Context, userID, tier string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET plan_tier = ? WHERE id = ?`, tier, userID)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return requireAffected(res)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Login, &u.Password, &u.FullName, &u.Email, &u.PlanTier, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ============================================================
// Managers
// ============================================================

func (r *Repository) CreateManager(ctx context.Context, m *models.Manager) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO managers (id, user_id, name, email, created_at)
        VALUES (?, ?, ?, ?, ?)
    `, m.ID, m.UserID, m.Name, m.Email, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert manager: %w", err)
	}
	return nil
}

func (r *Repository) GetManager(ctx context.Context, id string) (*models.Manager, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, user_id, name, email, created_at
        FROM managers
        WHERE id = ?
    `, id)

	var m models.Manager
	if err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Email, &m.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repository) ListManagers(ctx context.Context, userID string) ([]models.Manager, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, user_id, name, email, created_at
        FROM managers
        WHERE user_id = ?
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	managers := []models.Manager{}
	for rows.Next() {
		var m models.Manager
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Email, &m.CreatedAt); err != nil {
			return nil, err
		}
		managers = append(managers, m)
	}
	return managers, rows.Err()
}

func (r *Repository) UpdateManager(ctx context.Context, m *models.Manager) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE managers SET name = ?, email = ? WHERE id = ? AND user_id = ?
    `, m.Name, m.Email, m.ID, m.UserID)
	if err != nil {
		return fmt.Errorf("update manager: %w", err)
	}
	return requireAffected(res)
}

func (r *Repository) DeleteManager(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM managers WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete manager: %w", err)
	}
	return requireAffected(res)
}

// ============================================================
// Projects
// ============================================================

func (r *Repository) CreateProject(ctx context.Context, p *models.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO projects (
            id, user_id, project_name, project_type, client_name,
            architectural_style, building_type, project_status, description,
            start_date, end_date, budget, manager_id,
            dim_length, dim_width, dim_height, dim_units, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		p.ID, p.UserID, p.ProjectName, p.ProjectType, p.ClientName,
		p.ArchitecturalStyle, p.BuildingType, p.ProjectStatus, p.Description,
		p.StartDate, p.EndDate, p.Budget, p.ManagerID,
		dimField(p.Dimensions, func(d *models.Dimensions) any { return d.Length }),
		dimField(p.Dimensions, func(d *models.Dimensions) any { return d.Width }),
		dimField(p.Dimensions, func(d *models.Dimensions) any { return d.Height }),
		dimField(p.Dimensions, func(d *models.Dimensions) any { return d.Units }),
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	if err := insertProjectLists(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, user_id, project_name, project_type, client_name,
               architectural_style, building_type, project_status, description,
               start_date, end_date, budget, manager_id,
               dim_length, dim_width, dim_height, dim_units, created_at
        FROM projects
        WHERE id = ?
    `, id)

	p, err := scanProject(row.Scan)
	if err != nil {
		return nil, err
	}
	if err := r.loadProjectLists(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, user_id, project_name, project_type, client_name,
               architectural_style, building_type, project_status, description,
               start_date, end_date, budget, manager_id,
               dim_length, dim_width, dim_height, dim_units, created_at
        FROM projects
        WHERE user_id = ?
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range projects {
		if err := r.loadProjectLists(ctx, &projects[i]); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

func (r *Repository) UpdateProject(ctx context.Context, p *models.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE projects SET
            project_name = ?, project_type = ?, client_name = ?,
            architectural_style = ?, building_type = ?, project_status = ?,
            description = ?, start_date = ?, end_date = ?, budget = ?, manager_id = ?,
            dim_length = ?, dim_width = ?, dim_height = ?, dim_units = ?
        WHERE id = ? AND user_id = ?
    `,
		p.ProjectName, p.ProjectType, p.ClientName,
		p.ArchitecturalStyle, p.BuildingType, p.ProjectStatus,
		p.Description, p.StartDate, p.EndDate, p.Budget, p.ManagerID,
		dimField(p.Dimensions, func(d *models.Dimensions) any { return d.Length }),
		dimField(p.Dimensions, func(d *models.Dimensions) any { return d.Width }),
		dimField(p.Dimensions, func(d *models.Dimensions) any { return d.Height }),
		dimField(p.Dimensions, func(d *models.Dimensions) any { return d.Units }),
		p.ID, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	for _, table := range []string{"project_materials", "project_layouts", "project_features"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE project_id = ?", table), p.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := insertProjectLists(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repository) DeleteProject(ctx context.Context, id, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	for _, table := range []string{"project_materials", "project_layouts", "project_features", "designs", "reports"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE project_id = ?", table), id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

type scanFunc func(dest ...any) error

func scanProject(scan scanFunc) (*models.Project, error) {
	var p models.Project
	var dimLength, dimWidth, dimHeight sql.NullFloat64
	var dimUnits sql.NullString

	err := scan(
		&p.ID, &p.UserID, &p.ProjectName, &p.ProjectType, &p.ClientName,
		&p.ArchitecturalStyle, &p.BuildingType, &p.ProjectStatus, &p.Description,
		&p.StartDate, &p.EndDate, &p.Budget, &p.ManagerID,
		&dimLength, &dimWidth, &dimHeight, &dimUnits, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if dimUnits.Valid {
		p.Dimensions = &models.Dimensions{
			Length: dimLength.Float64,
			Width:  dimWidth.Float64,
			Height: dimHeight.Float64,
			Units:  dimUnits.String,
		}
	}
	return &p, nil
}

func (r *Repository) loadProjectLists(ctx context.Context, p *models.Project) error {
	p.Materials = []models.Material{}
	p.LayoutPreferences = []models.LayoutPreference{}
	p.StructuralFeatures = []models.StructuralFeature{}

	rows, err := r.db.QueryContext(ctx,
		`SELECT type, properties FROM project_materials WHERE project_id = ?`, p.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var m models.Material
		if err := rows.Scan(&m.Type, &m.Properties); err != nil {
			rows.Close()
			return err
		}
		p.Materials = append(p.Materials, m)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx,
		`SELECT type, description FROM project_layouts WHERE project_id = ?`, p.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var l models.LayoutPreference
		if err := rows.Scan(&l.Type, &l.Description); err != nil {
			rows.Close()
			return err
		}
		p.LayoutPreferences = append(p.LayoutPreferences, l)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx,
		`SELECT type, description, quantity FROM project_features WHERE project_id = ?`, p.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var f models.StructuralFeature
		if err := rows.Scan(&f.Type, &f.Description, &f.Quantity); err != nil {
			rows.Close()
			return err
		}
		p.StructuralFeatures = append(p.StructuralFeatures, f)
	}
	rows.Close()
	return nil
}

func insertProjectLists(ctx context.Context, tx *sql.Tx, p *models.Project) error {
	for _, m := range p.Materials {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_materials (project_id, type, properties) VALUES (?, ?, ?)`,
			p.ID, m.Type, m.Properties); err != nil {
			return fmt.Errorf("insert material: %w", err)
		}
	}
	for _, l := range p.LayoutPreferences {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_layouts (project_id, type, description) VALUES (?, ?, ?)`,
			p.ID, l.Type, l.Description); err != nil {
			return fmt.Errorf("insert layout: %w", err)
		}
	}
	for _, f := range p.StructuralFeatures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_features (project_id, type, description, quantity) VALUES (?, ?, ?, ?)`,
			p.ID, f.Type, f.Description, f.Quantity); err != nil {
			return fmt.Errorf("insert feature: %w", err)
		}
	}
	return nil
}

// ============================================================
// Designs (index rows; geometry blobs live in the artifact store)
// ============================================================

func (r *Repository) CreateDesign(ctx context.Context, d *models.Design) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO designs (id, project_id, user_id, created_at)
        VALUES (?, ?, ?, ?)
    `, d.ID, d.ProjectID, d.UserID, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert design: %w", err)
	}
	return nil
}

func (r *Repository) GetDesign(ctx context.Context, id string) (*models.Design, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, project_id, user_id, created_at FROM designs WHERE id = ?
    `, id)

	var d models.Design
	if err := row.Scan(&d.ID, &d.ProjectID, &d.UserID, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repository) ListDesigns(ctx context.Context, userID string) ([]models.Design, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, project_id, user_id, created_at
        FROM designs
        WHERE user_id = ?
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	designs := []models.Design{}
	for rows.Next() {
		var d models.Design
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.UserID, &d.CreatedAt); err != nil {
			return nil, err
		}
		designs = append(designs, d)
	}
	return designs, rows.Err()
}

func (r *Repository) ListProjectDesigns(ctx context.Context, projectID string) ([]models.Design, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, project_id, user_id, created_at
        FROM designs
        WHERE project_id = ?
        ORDER BY created_at DESC
    `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	designs := []models.Design{}
	for rows.Next() {
		var d models.Design
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.UserID, &d.CreatedAt); err != nil {
			return nil, err
		}
		designs = append(designs, d)
	}
	return designs, rows.Err()
}

func (r *Repository) DeleteDesign(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM designs WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	return requireAffected(res)
}

// ============================================================
// Reports
// ============================================================

func (r *Repository) CreateReport(ctx context.Context, rep *models.Report) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO reports (id, user_id, project_id, report_type, command, content, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, rep.ID, rep.UserID, rep.ProjectID, rep.ReportType, rep.Command, rep.Content, rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *Repository) GetReport(ctx context.Context, id string) (*models.Report, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, user_id, project_id, report_type, command, content, created_at
        FROM reports
        WHERE id = ?
    `, id)

	var rep models.Report
	if err := row.Scan(&rep.ID, &rep.UserID, &rep.ProjectID, &rep.ReportType, &rep.Command, &rep.Content, &rep.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}

func (r *Repository) ListReports(ctx context.Context, userID string) ([]models.Report, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, user_id, project_id, report_type, command, content, created_at
        FROM reports
        WHERE user_id = ?
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		var rep models.Report
		if err := rows.Scan(&rep.ID, &rep.UserID, &rep.ProjectID, &rep.ReportType, &rep.Command, &rep.Content, &rep.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *Repository) DeleteReport(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return requireAffected(res)
}

// ============================================================
// Usage Counters
// ============================================================

// Usage is the per-user consumption snapshot the quota gate inspects.
// Managers count lifetime rows; projects, designs and reports count rows
// created since the start of the current billing period.
type Usage struct {
	Projects int
	Managers int
	Designs  int
	Reports  int
}

func (r *Repository) UsageSince(ctx context.Context, userID string, periodStart time.Time) (*Usage, error) {
	var u Usage
	since := periodStart.UTC().Format(time.RFC3339)

	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE user_id = ? AND created_at >= ?`, userID, since)
	if err := row.Scan(&u.Projects); err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	row = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM managers WHERE user_id = ?`, userID)
	if err := row.Scan(&u.Managers); err != nil {
		return nil, fmt.Errorf("count managers: %w", err)
	}
	row = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM designs WHERE user_id = ? AND created_at >= ?`, userID, since)
	if err := row.Scan(&u.Designs); err != nil {
		return nil, fmt.Errorf("count designs: %w", err)
	}
	row = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE user_id = ? AND created_at >= ?`, userID, since)
	if err := row.Scan(&u.Reports); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	return &u, nil
}

// ============================================================
// Helpers
// ============================================================

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func dimField(d *models.Dimensions, pick func(*models.Dimensions) any) any {
	if d == nil {
		return nil
	}
	return pick(d)
}
