package clinical

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matibabu/core"
)

// Clinical settings
const (
	SettingAmbulance = "ambulance"
	SettingER        = "er"
	SettingICU       = "icu"
	SettingOB        = "ob"
	SettingPeds      = "peds"
	SettingOther     = "other"
)

// MilestoneThresholds are the cumulative clinical-hour marks students are notified at.
var MilestoneThresholds = []float64{50, 100, 150, 250}

type Entry struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	Date          time.Time `json:"date"`
	Hours         float64   `json:"hours"`
	Setting       string    `json:"setting"`
	Skills        string    `json:"skills"` // free-form, comma separated
	PreceptorName string    `json:"preceptor_name"`
	Verified      bool      `json:"verified"`
	VerifiedBy    string    `json:"verified_by"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

type NewEntry struct {
	StudentID     string    `json:"student_id" validate:"required"`
	Date          time.Time `json:"date" validate:"required"`
	Hours         float64   `json:"hours" validate:"required,gt=0,lte=24"`
	Setting       string    `json:"setting" validate:"required,oneof=ambulance er icu ob peds other"`
	Skills        string    `json:"skills"`
	PreceptorName string    `json:"preceptor_name" validate:"required"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.Skills = core.CleanString(ne.Skills)
	ne.PreceptorName = core.CleanString(ne.PreceptorName)
	return validate.Struct(ne)
}

// Progress summarizes a student's clinical exposure.
type Progress struct {
	StudentID          string             `json:"student_id"`
	TotalHours         float64            `json:"total_hours"`
	VerifiedHours      float64            `json:"verified_hours"`
	HoursBySetting     map[string]float64 `json:"hours_by_setting"`
	MilestonesReached  []float64          `json:"milestones_reached"`
	NextMilestone      float64            `json:"next_milestone"` // 0 when all reached
	EntryCount         int                `json:"entry_count"`
	UnverifiedEntryIDs []string           `json:"unverified_entry_ids"`
}
