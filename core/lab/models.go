package lab

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matibabu/core"
)

// Scenario difficulties, ordered from easiest to hardest.
const (
	DifficultyNovice       = "novice"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
	DifficultyExpert       = "expert"
)

var Difficulties = []string{DifficultyNovice, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert}

type LabDay struct {
	ID        string    `json:"id"`
	CohortID  string    `json:"cohort_id"`
	Date      time.Time `json:"date"`
	Location  string    `json:"location"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Station struct {
	ID           string    `json:"id"`
	LabDayID     string    `json:"lab_day_id"`
	Name         string    `json:"name"`
	ScenarioID   string    `json:"scenario_id"`
	InstructorID string    `json:"instructor_id"`
	Capacity     int       `json:"capacity"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

type Scenario struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"` // medical, trauma, cardiac, airway, ob, peds...
	Difficulty string    `json:"difficulty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

type Assessment struct {
	ID           string    `json:"id"`
	ScenarioID   string    `json:"scenario_id"`
	StudentID    string    `json:"student_id"`
	InstructorID string    `json:"instructor_id"`
	Score        int       `json:"score"` // 0 - 100
	Passed       bool      `json:"passed"`
	Comments     string    `json:"comments"`
	AssessedAt   time.Time `json:"assessed_at"` // UTC
}

type NewLabDay struct {
	CohortID string    `json:"cohort_id" validate:"required"`
	Date     time.Time `json:"date" validate:"required"`
	Location string    `json:"location" validate:"required"`
	Notes    string    `json:"notes"`
}

func (nd *NewLabDay) Validate(validate *validator.Validate) error {
	nd.Location = core.CleanString(nd.Location)
	nd.Notes = core.CleanString(nd.Notes)
	return validate.Struct(nd)
}

type UpdateLabDay struct {
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
	Notes    string    `json:"notes"`
}

func (ud *UpdateLabDay) Validate(orig LabDay, validate *validator.Validate) error {
	if ud.Date.IsZero() {
		ud.Date = orig.Date
	}
	if loc := core.CleanString(ud.Location); loc != "" {
		ud.Location = loc
	} else {
		ud.Location = orig.Location
	}
	if notes := core.CleanString(ud.Notes); notes == "" {
		ud.Notes = orig.Notes
	}
	return validate.Struct(ud)
}

type NewStation struct {
	LabDayID     string `json:"lab_day_id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	ScenarioID   string `json:"scenario_id" validate:"required"`
	InstructorID string `json:"instructor_id" validate:"required"`
	Capacity     int    `json:"capacity" validate:"omitempty,min=1"`
}

func (ns *NewStation) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	if ns.Capacity == 0 {
		ns.Capacity = 6
	}
	return validate.Struct(ns)
}

type NewScenario struct {
	Title      string `json:"title" validate:"required"`
	Category   string `json:"category" validate:"required"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=novice intermediate advanced expert"`
}

func (ns *NewScenario) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Category = core.CleanString(ns.Category, true /* lower */)
	if ns.Difficulty == "" {
		ns.Difficulty = DifficultyIntermediate
	}
	return validate.Struct(ns)
}

type UpdateScenario struct {
	Title      string `json:"title"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=novice intermediate advanced expert"`
}

func (us *UpdateScenario) Validate(orig Scenario, validate *validator.Validate) error {
	if title := core.CleanString(us.Title); title != "" {
		us.Title = title
	} else {
		us.Title = orig.Title
	}
	if cat := core.CleanString(us.Category, true /* lower */); cat != "" {
		us.Category = cat
	} else {
		us.Category = orig.Category
	}
	if us.Difficulty == "" {
		us.Difficulty = orig.Difficulty
	}
	return validate.Struct(us)
}

type NewAssessment struct {
	StudentID    string `json:"student_id" validate:"required"`
	InstructorID string `json:"instructor_id" validate:"required"`
	Score        int    `json:"score" validate:"min=0,max=100"`
	Passed       bool   `json:"passed"`
	Comments     string `json:"comments"`
}

func (na *NewAssessment) Validate(validate *validator.Validate) error {
	na.Comments = core.CleanString(na.Comments)
	return validate.Struct(na)
}

// Recommendation is the outcome of the difficulty rule table for a scenario.
type Recommendation struct {
	ScenarioID        string  `json:"scenario_id"`
	Current           string  `json:"current"`
	Recommended       string  `json:"recommended"`
	PassRate          float64 `json:"pass_rate"`
	SampleSize        int     `json:"sample_size"`
	EnoughAssessments bool    `json:"enough_assessments"`
}
