package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"plan-studio/internal/models"
)

// ============================================================
// Tabular and text dumps
// ============================================================

const missingValue = "N/A"

// ProjectCSV flattens a project into a two-row table: header row and one
// value row. List fields are comma-joined into a single cell.
func ProjectCSV(p *models.Project) ([]byte, error) {
	if p == nil {
		return nil, ErrMissingPlan
	}

	header := []string{
		"Project ID", "Project Name", "Client Name", "Start Date", "End Date",
		"Budget", "Status", "Description", "Dimensions",
		"Layout Preferences", "Materials", "Structural Features",
	}
	values := []string{
		orMissing(p.ID),
		orMissing(p.ProjectName),
		orMissing(p.ClientName),
		orMissing(p.StartDate),
		orMissing(p.EndDate),
		formatBudget(p.Budget),
		orMissing(p.ProjectStatus),
		orMissing(p.Description),
		formatDimensions(p.Dimensions),
		joinLayouts(p.LayoutPreferences),
		joinMaterials(p.Materials),
		joinFeatures(p.StructuralFeatures),
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll([][]string{header, values}); err != nil {
		return nil, &SerializationError{Format: "csv", Err: err}
	}
	return buf.Bytes(), nil
}

// ProjectLines flattens a project into the labeled lines the document
// exports share: scalar fields first, then the numbered list sections.
func ProjectLines(p *models.Project) []string {
	lines := []string{
		"Project: " + orMissing(p.ProjectName),
		"Client: " + orMissing(p.ClientName),
		"Start Date: " + orMissing(p.StartDate),
		"End Date: " + orMissing(p.EndDate),
		"Budget: $" + formatBudget(p.Budget),
		"Status: " + orMissing(p.ProjectStatus),
		"Description: " + orMissing(p.Description),
		"Dimensions: " + formatDimensions(p.Dimensions),
		"",
		"Layout Preferences:",
	}
	if len(p.LayoutPreferences) == 0 {
		lines = append(lines, "No layout preferences available")
	}
	for i, l := range p.LayoutPreferences {
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, l.Type, orDefault(l.Description, "No description")))
	}

	lines = append(lines, "", "Materials:")
	if len(p.Materials) == 0 {
		lines = append(lines, "No materials available")
	}
	for i, m := range p.Materials {
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, m.Type, orDefault(m.Properties, "No properties")))
	}

	lines = append(lines, "", "Structural Features:")
	if len(p.StructuralFeatures) == 0 {
		lines = append(lines, "No structural features available")
	}
	for i, f := range p.StructuralFeatures {
		lines = append(lines, fmt.Sprintf("%d. %s: %s - Quantity: %d",
			i+1, f.Type, orDefault(f.Description, "No description"), f.Quantity))
	}
	return lines
}

// ProjectPDF renders the flattened project fields as a text document.
func ProjectPDF(p *models.Project) ([]byte, error) {
	if p == nil {
		return nil, ErrMissingPlan
	}
	return TextPDF("Project "+orMissing(p.ProjectName), ProjectLines(p))
}

// ProjectMarkdown renders the same flattened fields with Markdown headings.
func ProjectMarkdown(p *models.Project) ([]byte, error) {
	if p == nil {
		return nil, ErrMissingPlan
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", orMissing(p.ProjectName))
	for _, line := range ProjectLines(p) {
		if strings.HasSuffix(line, ":") && !strings.Contains(line, ": ") {
			fmt.Fprintf(&b, "\n## %s\n\n", strings.TrimSuffix(line, ":"))
			continue
		}
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

// ProjectJSON is the byte-faithful serialization of the record.
func ProjectJSON(p *models.Project) ([]byte, error) {
	if p == nil {
		return nil, ErrMissingPlan
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, &SerializationError{Format: "json", Err: err}
	}
	return data, nil
}

// ============================================================
// Report dumps
// ============================================================

// ReportMarkdown wraps the narrative content in a typed heading plus
// metadata lines.
func ReportMarkdown(r *models.Report) ([]byte, error) {
	if r == nil {
		return nil, ErrMissingPlan
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Report\n\n", r.ReportType)
	fmt.Fprintf(&b, "Created: %s\n", r.CreatedAt)
	if r.Command != "" {
		fmt.Fprintf(&b, "\nCommand: %s\n", r.Command)
	}
	fmt.Fprintf(&b, "\n\n%s", r.Content)
	return []byte(b.String()), nil
}

func ReportJSON(r *models.Report) ([]byte, error) {
	if r == nil {
		return nil, ErrMissingPlan
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, &SerializationError{Format: "json", Err: err}
	}
	return data, nil
}

// ReportPDF lays the report out as a titled text document.
func ReportPDF(r *models.Report) ([]byte, error) {
	if r == nil {
		return nil, ErrMissingPlan
	}
	lines := []string{"Created: " + r.CreatedAt}
	if r.Command != "" {
		lines = append(lines, "Command: "+r.Command)
	}
	lines = append(lines, "")
	lines = append(lines, strings.Split(r.Content, "\n")...)
	return TextPDF(r.ReportType+" Report", lines)
}

// ============================================================
// Field formatting
// ============================================================

func orMissing(s string) string {
	return orDefault(s, missingValue)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatBudget(v float64) string {
	if v == 0 {
		return missingValue
	}
	return fmt.Sprintf("%g", v)
}

func formatDimensions(d *models.Dimensions) string {
	if d == nil {
		return missingValue
	}
	return fmt.Sprintf("%g x %g x %g %s", d.Length, d.Width, d.Height, d.Units)
}

func joinLayouts(ls []models.LayoutPreference) string {
	if len(ls) == 0 {
		return missingValue
	}
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = fmt.Sprintf("%s: %s", l.Type, orDefault(l.Description, "No description"))
	}
	return strings.Join(parts, ", ")
}

func joinMaterials(ms []models.Material) string {
	if len(ms) == 0 {
		return missingValue
	}
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = fmt.Sprintf("%s: %s", m.Type, orDefault(m.Properties, "No properties"))
	}
	return strings.Join(parts, ", ")
}

func joinFeatures(fs []models.StructuralFeature) string {
	if len(fs) == 0 {
		return missingValue
	}
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = fmt.Sprintf("%s: %s - Quantity: %d", f.Type, orDefault(f.Description, "No description"), f.Quantity)
	}
	return strings.Join(parts, ", ")
}
