package report

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matibabu/core"
)

// report kinds
const (
	KindCohortCompletion = "cohort_completion"
	KindAssessmentStats  = "assessment_stats"
	KindShiftCoverage    = "shift_coverage"
	KindClinicalHours    = "clinical_hours"
)

type (
	// Template is a saved report definition that can be re-run on demand.
	Template struct {
		ID          string                 `json:"id"`
		Name        string                 `json:"name"`
		Kind        string                 `json:"kind"`
		Description string                 `json:"description"`
		Params      map[string]interface{} `json:"params"` // kind-specific filters
		CreatedBy   string                 `json:"created_by"`
		CreatedAt   time.Time              `json:"created_at"` // UTC
		UpdatedAt   time.Time              `json:"updated_at"` // UTC
	}

	// Result is the output of running a template: rows keyed by column name
	// plus summary aggregates.
	Result struct {
		TemplateID  string                   `json:"template_id"`
		Kind        string                   `json:"kind"`
		GeneratedAt time.Time                `json:"generated_at"` // UTC
		Rows        []map[string]interface{} `json:"rows"`
		Summary     map[string]interface{}   `json:"summary"`
	}
)

type NewTemplate struct {
	Name        string                 `json:"name" validate:"required"`
	Kind        string                 `json:"kind" validate:"required,oneof=cohort_completion assessment_stats shift_coverage clinical_hours"`
	Description string                 `json:"description"`
	Params      map[string]interface{} `json:"params"`
}

func (nt *NewTemplate) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Description = core.CleanString(nt.Description)
	return validate.Struct(nt)
}

type UpdateTemplate struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Params      map[string]interface{} `json:"params"`
}

func (ut *UpdateTemplate) Validate(validate *validator.Validate) error {
	ut.Name = core.CleanString(ut.Name)
	ut.Description = core.CleanString(ut.Description)
	return validate.Struct(ut)
}
