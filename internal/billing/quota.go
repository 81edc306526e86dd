package billing

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Plan Tiers & Quota Gate
// ============================================================

// Resource names a countable thing a plan tier caps.
type Resource string

const (
	ResourceProjects Resource = "projects"
	ResourceDesigns  Resource = "designs"
	ResourceManagers Resource = "managers"
	ResourceReports  Resource = "reports"
)

// Unlimited disables the ceiling for a resource.
const Unlimited = -1

// Limits holds the per-period ceilings of one plan tier.
type Limits struct {
	Projects int `yaml:"projects"`
	Designs  int `yaml:"designs"`
	Managers int `yaml:"managers"`
	Reports  int `yaml:"reports"`
}

func (l Limits) ceiling(res Resource) int {
	switch res {
	case ResourceProjects:
		return l.Projects
	case ResourceDesigns:
		return l.Designs
	case ResourceManagers:
		return l.Managers
	case ResourceReports:
		return l.Reports
	}
	return 0
}

// Catalog maps lowercase tier names to their limits.
type Catalog struct {
	Tiers map[string]Limits `yaml:"tiers"`
}

// DefaultCatalog mirrors the shipped subscription plans.
func DefaultCatalog() *Catalog {
	return &Catalog{Tiers: map[string]Limits{
		"free":     {Projects: 5, Designs: 10, Managers: 1, Reports: 2},
		"standard": {Projects: 50, Designs: 100, Managers: 3, Reports: 20},
		"premium":  {Projects: Unlimited, Designs: Unlimited, Managers: Unlimited, Reports: Unlimited},
	}}
}

// LoadCatalog reads a YAML tier catalog; a missing path falls back to the
// built-in plans.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCatalog(), nil
		}
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	if len(c.Tiers) == 0 {
		return nil, fmt.Errorf("plan catalog %s defines no tiers", path)
	}
	return &c, nil
}

// ============================================================
// Gate
// ============================================================

// Outcome is the quota gate's verdict. A denied outcome carries Failed=true
// and an upsell message; callers surface it as a 200 response, not an error.
type Outcome struct {
	Allowed bool   `json:"-"`
	Failed  bool   `json:"failed,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

var upsell = map[Resource]string{
	ResourceProjects: "Project limit reached. Upgrade your plan to add more projects.",
	ResourceDesigns:  "Design limit reached. Upgrade your plan to create more designs.",
	ResourceManagers: "Managers Create plan limit reached. Upgrade your plan to create more managers.",
	ResourceReports:  "Reports Create plan limit reached. Upgrade your plan to create more reports.",
}

type Gate struct {
	catalog *Catalog
}

func NewGate(catalog *Catalog) *Gate {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Gate{catalog: catalog}
}

// Check compares current usage of res against the tier's ceiling. Unknown
// tiers fall back to the free plan.
func (g *Gate) Check(tier string, res Resource, used int) Outcome {
	limits, ok := g.catalog.Tiers[strings.ToLower(tier)]
	if !ok {
		limits = g.catalog.Tiers["free"]
	}

	ceiling := limits.ceiling(res)
	if ceiling == Unlimited || used < ceiling {
		return Outcome{Allowed: true}
	}
	return Outcome{
		Failed:  true,
		Error:   "Upgrade plan",
		Details: upsell[res],
	}
}

// PeriodStart returns the start of the billing period containing now: the
// first day of the month at midnight UTC.
func PeriodStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
