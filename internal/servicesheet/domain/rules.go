package domain

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const defaultUrgentMarkupPct = 10.0

// Rules holds the tunable service-sheet policy, loaded from YAML.
type Rules struct {
	// DepartmentPipelines are pipeline names where items are assigned to a
	// department rather than to whoever edits the sheet.
	DepartmentPipelines       []string `yaml:"department_pipelines"`
	PartsFallbackDepartmentID string   `yaml:"parts_fallback_department_id"`
	// UrgentMarkupPct is nil when the key is absent; an explicit 0 disables
	// the markup.
	UrgentMarkupPct   *float64 `yaml:"urgent_markup_pct"`
	HeadlineNameLimit int      `yaml:"headline_name_limit"`

	departmentPipelines map[string]struct{}
	partsFallback       *uuid.UUID
}

// DefaultRules returns the built-in policy.
func DefaultRules() Rules {
	r := Rules{}
	r.applyDefaults()
	_ = r.validate()
	return r
}

// LoadRules reads the rules file at path. An empty path yields DefaultRules.
func LoadRules(path string) (Rules, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("service sheet rules: read %s: %w", path, err)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rules, fills defaults and validates.
func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("service sheet rules: parse: %w", err)
	}
	r.applyDefaults()
	if err := r.validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

func (r *Rules) applyDefaults() {
	if len(r.DepartmentPipelines) == 0 {
		r.DepartmentPipelines = []string{"Salons", "Barbershops", "Horeca", "Repairs"}
	}
	if r.UrgentMarkupPct == nil {
		markup := defaultUrgentMarkupPct
		r.UrgentMarkupPct = &markup
	}
	if r.HeadlineNameLimit == 0 {
		r.HeadlineNameLimit = 3
	}
}

func (r *Rules) validate() error {
	var errs []string

	r.departmentPipelines = make(map[string]struct{}, len(r.DepartmentPipelines))
	for _, name := range r.DepartmentPipelines {
		key := normalizePipeline(name)
		if key == "" {
			errs = append(errs, "department_pipelines must not contain empty names")
			continue
		}
		r.departmentPipelines[key] = struct{}{}
	}

	r.partsFallback = nil
	if raw := strings.TrimSpace(r.PartsFallbackDepartmentID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("parts_fallback_department_id %q is not a uuid", raw))
		} else {
			r.partsFallback = &id
		}
	}

	if r.UrgentMarkupPct != nil && (*r.UrgentMarkupPct < 0 || *r.UrgentMarkupPct > 100) {
		errs = append(errs, "urgent_markup_pct must be between 0 and 100")
	}
	if r.HeadlineNameLimit < 1 {
		errs = append(errs, "headline_name_limit must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("service sheet rules: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsDepartmentPipeline reports whether the named pipeline assigns items to
// departments. Matching ignores case and surrounding space.
func (r Rules) IsDepartmentPipeline(name string) bool {
	_, ok := r.departmentPipelines[normalizePipeline(name)]
	return ok
}

// AssignTechnician applies the technician rule for a newly created line: an
// explicit technician wins; inside a department pipeline the line stays
// unassigned; otherwise the acting user takes it.
func (r Rules) AssignTechnician(explicit *uuid.UUID, inDepartmentPipeline bool, actor uuid.UUID) *uuid.UUID {
	if explicit != nil {
		return copyUUID(explicit)
	}
	if inDepartmentPipeline || actor == uuid.Nil {
		return nil
	}
	return &actor
}

// PartsFallbackDepartment is the department used for parts when nothing
// else in the tray provides one. Nil when not configured.
func (r Rules) PartsFallbackDepartment() *uuid.UUID {
	return copyUUID(r.partsFallback)
}

// UrgentMarkup is the percentage added to urgent lines.
func (r Rules) UrgentMarkup() decimal.Decimal {
	if r.UrgentMarkupPct == nil {
		return decimal.NewFromFloat(defaultUrgentMarkupPct)
	}
	return decimal.NewFromFloat(*r.UrgentMarkupPct)
}

func normalizePipeline(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
