package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()

	for _, name := range []string{"Salons", "barbershops", " HORECA ", "Repairs"} {
		if !r.IsDepartmentPipeline(name) {
			t.Fatalf("expected %q to be a department pipeline", name)
		}
	}
	if r.IsDepartmentPipeline("Reception") {
		t.Fatalf("reception is not a department pipeline")
	}
	if r.PartsFallbackDepartment() != nil {
		t.Fatalf("expected no fallback department by default")
	}
	if !r.UrgentMarkup().Equal(decimal.NewFromInt(10)) || r.HeadlineNameLimit != 3 {
		t.Fatalf("unexpected defaults: %+v", r)
	}
}

func TestAssignTechnician(t *testing.T) {
	r := DefaultRules()
	actor := uuid.New()
	explicit := uuid.New()

	if got := r.AssignTechnician(&explicit, true, actor); got == nil || *got != explicit {
		t.Fatalf("explicit technician must win, got %v", got)
	}
	if got := r.AssignTechnician(nil, true, actor); got != nil {
		t.Fatalf("department pipeline must leave item unassigned, got %v", got)
	}
	if got := r.AssignTechnician(nil, false, actor); got == nil || *got != actor {
		t.Fatalf("expected acting user, got %v", got)
	}
}

func TestLoadRulesFromFile(t *testing.T) {
	fallback := uuid.New()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "department_pipelines: [Workshop]\n" +
		"parts_fallback_department_id: " + fallback.String() + "\n" +
		"urgent_markup_pct: 15\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	r, err := LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.IsDepartmentPipeline("workshop") || r.IsDepartmentPipeline("Repairs") {
		t.Fatalf("expected configured pipelines to replace defaults")
	}
	if got := r.PartsFallbackDepartment(); got == nil || *got != fallback {
		t.Fatalf("expected fallback %s, got %v", fallback, got)
	}
	if r.HeadlineNameLimit != 3 {
		t.Fatalf("expected default headline limit, got %d", r.HeadlineNameLimit)
	}
}

func TestParseRulesValidation(t *testing.T) {
	cases := []string{
		"parts_fallback_department_id: not-a-uuid\n",
		"urgent_markup_pct: 150\n",
		"headline_name_limit: -1\n",
		"department_pipelines: ['  ']\n",
	}
	for _, raw := range cases {
		if _, err := ParseRules([]byte(raw)); err == nil {
			t.Fatalf("expected validation error for %q", raw)
		}
	}
}

func TestParseRulesExplicitZeroMarkup(t *testing.T) {
	r, err := ParseRules([]byte("urgent_markup_pct: 0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.UrgentMarkup().IsZero() {
		t.Fatalf("expected markup to be disabled, got %s", r.UrgentMarkup())
	}

	r, err = ParseRules([]byte("headline_name_limit: 5\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.UrgentMarkup().Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected default markup when key is absent, got %s", r.UrgentMarkup())
	}
}
