package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/matibabu/core/lab"
)

type labRepository struct {
	db *DB
}

var _ lab.Repository = (*labRepository)(nil) // interface compliance check

func NewLabRepository(db *DB) *labRepository {
	return &labRepository{db: db}
}

func (repo *labRepository) CreateLabDay(ctx context.Context, d lab.LabDay) (lab.LabDay, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.labDays[d.ID] = &d
	return d, nil
}

func (repo *labRepository) QueryLabDaysByCohortID(ctx context.Context, cohortID string) ([]lab.LabDay, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var days []lab.LabDay
	for _, d := range repo.db.labDays {
		if d.CohortID == cohortID {
			days = append(days, *d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

func (repo *labRepository) GetLabDayByID(ctx context.Context, id string) (lab.LabDay, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if d, ok := repo.db.labDays[id]; ok {
		return *d, nil
	}
	return lab.LabDay{}, lab.ErrLabDayNotFound
}

func (repo *labRepository) UpdateLabDay(ctx context.Context, d lab.LabDay) (lab.LabDay, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.labDays[d.ID]
	if !ok {
		return lab.LabDay{}, lab.ErrLabDayNotFound
	}
	orig.Date = d.Date
	orig.Location = d.Location
	orig.Notes = d.Notes
	orig.UpdatedAt = d.UpdatedAt
	return *orig, nil
}

func (repo *labRepository) DeleteLabDaysByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.labDays, id)
	}
	return nil
}

func (repo *labRepository) CreateStation(ctx context.Context, s lab.Station) (lab.Station, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.stations[s.ID] = &s
	return s, nil
}

func (repo *labRepository) QueryStationsByLabDayID(ctx context.Context, labDayID string) ([]lab.Station, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var stations []lab.Station
	for _, s := range repo.db.stations {
		if s.LabDayID == labDayID {
			stations = append(stations, *s)
		}
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].Name < stations[j].Name })
	return stations, nil
}

func (repo *labRepository) DeleteStationsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.stations, id)
	}
	return nil
}

func (repo *labRepository) CreateScenario(ctx context.Context, s lab.Scenario) (lab.Scenario, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.scenarios[s.ID] = &s
	return s, nil
}

func (repo *labRepository) QueryAllScenarios(ctx context.Context) ([]lab.Scenario, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	scenarios := make([]lab.Scenario, 0, len(repo.db.scenarios))
	for _, s := range repo.db.scenarios {
		scenarios = append(scenarios, *s)
	}
	sort.Slice(scenarios, func(i, j int) bool {
		if scenarios[i].Category != scenarios[j].Category {
			return scenarios[i].Category < scenarios[j].Category
		}
		return scenarios[i].Title < scenarios[j].Title
	})
	return scenarios, nil
}

func (repo *labRepository) GetScenarioByID(ctx context.Context, id string) (lab.Scenario, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.scenarios[id]; ok {
		return *s, nil
	}
	return lab.Scenario{}, lab.ErrScenarioNotFound
}

func (repo *labRepository) UpdateScenario(ctx context.Context, s lab.Scenario) (lab.Scenario, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.scenarios[s.ID]
	if !ok {
		return lab.Scenario{}, lab.ErrScenarioNotFound
	}
	orig.Title = s.Title
	orig.Category = s.Category
	orig.Difficulty = s.Difficulty
	orig.UpdatedAt = s.UpdatedAt
	return *orig, nil
}

func (repo *labRepository) CreateAssessment(ctx context.Context, a lab.Assessment) (lab.Assessment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.assessments[a.ID] = &a
	return a, nil
}

func (repo *labRepository) QueryAssessmentsByScenarioID(ctx context.Context, scenarioID string) ([]lab.Assessment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var assessments []lab.Assessment
	for _, a := range repo.db.assessments {
		if a.ScenarioID == scenarioID {
			assessments = append(assessments, *a)
		}
	}
	sortAssessments(assessments)
	return assessments, nil
}

func (repo *labRepository) QueryAssessmentsByStudentID(ctx context.Context, studentID string) ([]lab.Assessment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var assessments []lab.Assessment
	for _, a := range repo.db.assessments {
		if a.StudentID == studentID {
			assessments = append(assessments, *a)
		}
	}
	sortAssessments(assessments)
	return assessments, nil
}

func sortAssessments(assessments []lab.Assessment) {
	sort.Slice(assessments, func(i, j int) bool { return assessments[i].AssessedAt.After(assessments[j].AssessedAt) })
}
