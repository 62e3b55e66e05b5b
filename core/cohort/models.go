package cohort

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matibabu/core"
)

// Cohort statuses
const (
	StatusPlanned   = "planned"
	StatusActive    = "active"
	StatusGraduated = "graduated"
	StatusArchived  = "archived"
)

// Certification levels
const (
	CertEMT       = "EMT"
	CertAEMT      = "AEMT"
	CertParamedic = "Paramedic"
)

// Student statuses
const (
	StudentEnrolled  = "enrolled"
	StudentOnLeave   = "leave"
	StudentWithdrawn = "withdrawn"
	StudentGraduated = "graduated"
)

type Cohort struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Student is a user's enrollment profile in a Cohort.
// A user has at most one profile in a non-terminal status at a time.
type Student struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	CohortID   string    `json:"cohort_id"`
	CertLevel  string    `json:"cert_level"`
	CertNumber string    `json:"cert_number"`
	CertExpiry time.Time `json:"cert_expiry"` // date; zero when uncertified
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (s Student) IsActive() bool {
	return s.Status == StudentEnrolled || s.Status == StudentOnLeave
}

type NewCohort struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Status    string    `json:"status" validate:"omitempty,oneof=planned active graduated archived"`
}

func (nc *NewCohort) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	if nc.Status == "" {
		nc.Status = StatusPlanned
	}
	return validate.Struct(nc)
}

type UpdateCohort struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status" validate:"omitempty,oneof=planned active graduated archived"`
}

func (uc *UpdateCohort) Validate(orig Cohort, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if uc.StartDate.IsZero() {
		uc.StartDate = orig.StartDate
	}
	if uc.EndDate.IsZero() {
		uc.EndDate = orig.EndDate
	}
	if uc.Status == "" {
		uc.Status = orig.Status
	}
	return validate.Struct(uc)
}

type EnrollStudent struct {
	UserID     string    `json:"user_id" validate:"required"`
	CertLevel  string    `json:"cert_level" validate:"required,oneof=EMT AEMT Paramedic"`
	CertNumber string    `json:"cert_number"`
	CertExpiry time.Time `json:"cert_expiry"`
}

func (es *EnrollStudent) Validate(validate *validator.Validate) error {
	es.CertNumber = core.CleanString(es.CertNumber)
	return validate.Struct(es)
}

type UpdateStudent struct {
	CertLevel  string    `json:"cert_level" validate:"omitempty,oneof=EMT AEMT Paramedic"`
	CertNumber string    `json:"cert_number"`
	CertExpiry time.Time `json:"cert_expiry"`
	Status     string    `json:"status" validate:"omitempty,oneof=enrolled leave withdrawn graduated"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate) error {
	if us.CertLevel == "" {
		us.CertLevel = orig.CertLevel
	}
	if num := core.CleanString(us.CertNumber); num != "" {
		us.CertNumber = num
	} else {
		us.CertNumber = orig.CertNumber
	}
	if us.CertExpiry.IsZero() {
		us.CertExpiry = orig.CertExpiry
	}
	if us.Status == "" {
		us.Status = orig.Status
	}
	return validate.Struct(us)
}

// ProgressRow is a per-student slice of the cohort-wide joins used for stats.
type ProgressRow struct {
	StudentID       string
	Status          string
	AssessmentCount int
	PassedCount     int
	ScoreSum        float64
	ClinicalHours   float64
}

// Stats is the in-memory aggregation over a cohort's ProgressRows.
type Stats struct {
	CohortID           string         `json:"cohort_id"`
	Name               string         `json:"name"`
	TotalStudents      int            `json:"total_students"`
	ByStatus           map[string]int `json:"by_status"`
	AvgAssessmentScore float64        `json:"avg_assessment_score"`
	PassRate           float64        `json:"pass_rate"`
	TotalClinicalHours float64        `json:"total_clinical_hours"`
	GraduationRate     float64        `json:"graduation_rate"`
}
