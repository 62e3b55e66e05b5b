package lab

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core"
)

var (
	// errors
	ErrLabDayNotFound   = errors.New("lab day not found")
	ErrStationNotFound  = errors.New("station not found")
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrNotAnInstructor  = errors.New("assigned user is not an instructor")
)

// minRecommendationSample is the minimum number of assessments required
// before a difficulty recommendation departs from the current setting.
const minRecommendationSample = 5

type (
	// InstructorChecker reports whether a user holds the instructor role.
	// The user service satisfies this through a thin adapter at wiring time.
	InstructorChecker func(ctx context.Context, userID string) (bool, error)

	Repository interface {
		CreateLabDay(ctx context.Context, d LabDay) (LabDay, error)
		QueryLabDaysByCohortID(ctx context.Context, cohortID string) ([]LabDay, error)
		GetLabDayByID(ctx context.Context, id string) (LabDay, error)
		UpdateLabDay(ctx context.Context, d LabDay) (LabDay, error)
		DeleteLabDaysByID(ctx context.Context, ids ...string) error

		CreateStation(ctx context.Context, s Station) (Station, error)
		QueryStationsByLabDayID(ctx context.Context, labDayID string) ([]Station, error)
		DeleteStationsByID(ctx context.Context, ids ...string) error

		CreateScenario(ctx context.Context, s Scenario) (Scenario, error)
		QueryAllScenarios(ctx context.Context) ([]Scenario, error)
		GetScenarioByID(ctx context.Context, id string) (Scenario, error)
		UpdateScenario(ctx context.Context, s Scenario) (Scenario, error)

		CreateAssessment(ctx context.Context, a Assessment) (Assessment, error)
		QueryAssessmentsByScenarioID(ctx context.Context, scenarioID string) ([]Assessment, error)
		QueryAssessmentsByStudentID(ctx context.Context, studentID string) ([]Assessment, error)
	}

	Service interface {
		CreateLabDay(ctx context.Context, nd NewLabDay) (LabDay, error)
		LabDays(ctx context.Context, cohortID string) ([]LabDay, error)
		GetLabDay(ctx context.Context, id string) (LabDay, error)
		UpdateLabDay(ctx context.Context, id string, ud UpdateLabDay) (LabDay, error)
		DeleteLabDays(ctx context.Context, ids ...string) error

		AssignStation(ctx context.Context, ns NewStation) (Station, error)
		Stations(ctx context.Context, labDayID string) ([]Station, error)
		DeleteStations(ctx context.Context, ids ...string) error

		CreateScenario(ctx context.Context, ns NewScenario) (Scenario, error)
		Scenarios(ctx context.Context) ([]Scenario, error)
		GetScenario(ctx context.Context, id string) (Scenario, error)
		UpdateScenario(ctx context.Context, id string, us UpdateScenario) (Scenario, error)

		RecordAssessment(ctx context.Context, scenarioID string, na NewAssessment) (Assessment, error)
		StudentAssessments(ctx context.Context, studentID string) ([]Assessment, error)
		// RecommendDifficulty computes the pass rate over a scenario's assessments and
		// maps it onto the ordered difficulty list: >= 90% steps up, < 50% steps down.
		RecommendDifficulty(ctx context.Context, scenarioID string) (Recommendation, error)
	}

	service struct {
		repo         Repository
		isInstructor InstructorChecker
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, isInstructor InstructorChecker) Service {
	return &service{repo: repo, isInstructor: isInstructor}
}

func (svc *service) CreateLabDay(ctx context.Context, nd NewLabDay) (LabDay, error) {
	now := time.Now().UTC()
	return svc.repo.CreateLabDay(ctx, LabDay{
		ID:        uuid.New().String(),
		CohortID:  nd.CohortID,
		Date:      nd.Date,
		Location:  nd.Location,
		Notes:     nd.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) LabDays(ctx context.Context, cohortID string) ([]LabDay, error) {
	return svc.repo.QueryLabDaysByCohortID(ctx, cohortID)
}

func (svc *service) GetLabDay(ctx context.Context, id string) (LabDay, error) {
	return svc.repo.GetLabDayByID(ctx, id)
}

func (svc *service) UpdateLabDay(ctx context.Context, id string, ud UpdateLabDay) (LabDay, error) {
	return svc.repo.UpdateLabDay(ctx, LabDay{
		ID:        id,
		Date:      ud.Date,
		Location:  ud.Location,
		Notes:     ud.Notes,
		UpdatedAt: time.Now().UTC(),
	})
}

func (svc *service) DeleteLabDays(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteLabDaysByID(ctx, ids...)
}

func (svc *service) AssignStation(ctx context.Context, ns NewStation) (Station, error) {
	if _, err := svc.repo.GetLabDayByID(ctx, ns.LabDayID); err != nil {
		return Station{}, err
	}
	if _, err := svc.repo.GetScenarioByID(ctx, ns.ScenarioID); err != nil {
		return Station{}, err
	}
	ok, err := svc.isInstructor(ctx, ns.InstructorID)
	if err != nil {
		return Station{}, errors.Wrap(err, "checking instructor role")
	}
	if !ok {
		return Station{}, core.NewValidationError(ErrNotAnInstructor,
			core.FieldError{Field: "instructor_id", Error: ErrNotAnInstructor.Error()})
	}

	return svc.repo.CreateStation(ctx, Station{
		ID:           uuid.New().String(),
		LabDayID:     ns.LabDayID,
		Name:         ns.Name,
		ScenarioID:   ns.ScenarioID,
		InstructorID: ns.InstructorID,
		Capacity:     ns.Capacity,
		CreatedAt:    time.Now().UTC(),
	})
}

func (svc *service) Stations(ctx context.Context, labDayID string) ([]Station, error) {
	if _, err := svc.repo.GetLabDayByID(ctx, labDayID); err != nil {
		return nil, err
	}
	return svc.repo.QueryStationsByLabDayID(ctx, labDayID)
}

func (svc *service) DeleteStations(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStationsByID(ctx, ids...)
}

func (svc *service) CreateScenario(ctx context.Context, ns NewScenario) (Scenario, error) {
	now := time.Now().UTC()
	return svc.repo.CreateScenario(ctx, Scenario{
		ID:         uuid.New().String(),
		Title:      ns.Title,
		Category:   ns.Category,
		Difficulty: ns.Difficulty,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (svc *service) Scenarios(ctx context.Context) ([]Scenario, error) {
	return svc.repo.QueryAllScenarios(ctx)
}

func (svc *service) GetScenario(ctx context.Context, id string) (Scenario, error) {
	return svc.repo.GetScenarioByID(ctx, id)
}

func (svc *service) UpdateScenario(ctx context.Context, id string, us UpdateScenario) (Scenario, error) {
	return svc.repo.UpdateScenario(ctx, Scenario{
		ID:         id,
		Title:      us.Title,
		Category:   us.Category,
		Difficulty: us.Difficulty,
		UpdatedAt:  time.Now().UTC(),
	})
}

func (svc *service) RecordAssessment(ctx context.Context, scenarioID string, na NewAssessment) (Assessment, error) {
	if _, err := svc.repo.GetScenarioByID(ctx, scenarioID); err != nil {
		return Assessment{}, err
	}
	return svc.repo.CreateAssessment(ctx, Assessment{
		ID:           uuid.New().String(),
		ScenarioID:   scenarioID,
		StudentID:    na.StudentID,
		InstructorID: na.InstructorID,
		Score:        na.Score,
		Passed:       na.Passed,
		Comments:     na.Comments,
		AssessedAt:   time.Now().UTC(),
	})
}

func (svc *service) StudentAssessments(ctx context.Context, studentID string) ([]Assessment, error) {
	return svc.repo.QueryAssessmentsByStudentID(ctx, studentID)
}

func (svc *service) RecommendDifficulty(ctx context.Context, scenarioID string) (Recommendation, error) {
	scn, err := svc.repo.GetScenarioByID(ctx, scenarioID)
	if err != nil {
		return Recommendation{}, err
	}
	assessments, err := svc.repo.QueryAssessmentsByScenarioID(ctx, scenarioID)
	if err != nil {
		return Recommendation{}, err
	}

	rec := Recommendation{
		ScenarioID:  scn.ID,
		Current:     scn.Difficulty,
		Recommended: scn.Difficulty,
		SampleSize:  len(assessments),
	}
	if len(assessments) < minRecommendationSample {
		return rec, nil
	}
	rec.EnoughAssessments = true

	var passed int
	for _, a := range assessments {
		if a.Passed {
			passed++
		}
	}
	rec.PassRate = float64(passed) / float64(len(assessments))

	idx := difficultyIndex(scn.Difficulty)
	switch {
	case rec.PassRate >= .9 && idx < len(Difficulties)-1:
		rec.Recommended = Difficulties[idx+1]
	case rec.PassRate < .5 && idx > 0:
		rec.Recommended = Difficulties[idx-1]
	}
	return rec, nil
}

func difficultyIndex(difficulty string) int {
	for i, d := range Difficulties {
		if d == difficulty {
			return i
		}
	}
	return 0
}
