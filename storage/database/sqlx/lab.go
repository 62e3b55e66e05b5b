package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/lab"
)

type labDayRow struct {
	ID        string    `db:"id"`
	CohortID  string    `db:"cohort_id"`
	Date      time.Time `db:"date"`
	Location  string    `db:"location"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type stationRow struct {
	ID           string    `db:"id"`
	LabDayID     string    `db:"lab_day_id"`
	Name         string    `db:"name"`
	ScenarioID   string    `db:"scenario_id"`
	InstructorID string    `db:"instructor_id"`
	Capacity     int       `db:"capacity"`
	CreatedAt    time.Time `db:"created_at"`
}

type scenarioRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	Category   string    `db:"category"`
	Difficulty string    `db:"difficulty"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type assessmentRow struct {
	ID           string    `db:"id"`
	ScenarioID   string    `db:"scenario_id"`
	StudentID    string    `db:"student_id"`
	InstructorID string    `db:"instructor_id"`
	Score        int       `db:"score"`
	Passed       bool      `db:"passed"`
	Comments     string    `db:"comments"`
	AssessedAt   time.Time `db:"assessed_at"`
}

type labRepository struct {
	db *sqlx.DB
}

var _ lab.Repository = (*labRepository)(nil) // interface compliance check

func NewLabRepository(db *sqlx.DB) *labRepository {
	return &labRepository{db: db}
}

func (repo labRepository) CreateLabDay(ctx context.Context, d lab.LabDay) (lab.LabDay, error) {
	q := `
INSERT INTO lab_day (id, cohort_id, date, location, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q, d.ID, d.CohortID, d.Date, d.Location, d.Notes, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return lab.LabDay{}, errors.Wrap(err, "creating lab day")
	}
	return d, nil
}

func (repo labRepository) QueryLabDaysByCohortID(ctx context.Context, cohortID string) ([]lab.LabDay, error) {
	var rows []labDayRow
	q := `SELECT * FROM lab_day WHERE cohort_id = $1 ORDER BY date`
	if err := repo.db.SelectContext(ctx, &rows, q, cohortID); err != nil {
		return nil, errors.Wrap(err, "querying lab days")
	}
	days := make([]lab.LabDay, 0, len(rows))
	for _, row := range rows {
		days = append(days, lab.LabDay(row))
	}
	return days, nil
}

func (repo labRepository) GetLabDayByID(ctx context.Context, id string) (lab.LabDay, error) {
	var row labDayRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM lab_day WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return lab.LabDay{}, lab.ErrLabDayNotFound
		}
		return lab.LabDay{}, errors.Wrap(err, "getting lab day")
	}
	return lab.LabDay(row), nil
}

func (repo labRepository) UpdateLabDay(ctx context.Context, d lab.LabDay) (lab.LabDay, error) {
	q := `
UPDATE lab_day SET date = $2, location = $3, notes = $4, updated_at = $5
WHERE id = $1
RETURNING *`
	var row labDayRow
	if err := repo.db.GetContext(ctx, &row, q, d.ID, d.Date, d.Location, d.Notes, d.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return lab.LabDay{}, lab.ErrLabDayNotFound
		}
		return lab.LabDay{}, errors.Wrap(err, "updating lab day")
	}
	return lab.LabDay(row), nil
}

func (repo labRepository) DeleteLabDaysByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM lab_day WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting lab days")
}

func (repo labRepository) CreateStation(ctx context.Context, s lab.Station) (lab.Station, error) {
	q := `
INSERT INTO station (id, lab_day_id, name, scenario_id, instructor_id, capacity, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q, s.ID, s.LabDayID, s.Name, s.ScenarioID, s.InstructorID, s.Capacity, s.CreatedAt)
	if err != nil {
		return lab.Station{}, errors.Wrap(err, "creating station")
	}
	return s, nil
}

func (repo labRepository) QueryStationsByLabDayID(ctx context.Context, labDayID string) ([]lab.Station, error) {
	var rows []stationRow
	q := `SELECT * FROM station WHERE lab_day_id = $1 ORDER BY name`
	if err := repo.db.SelectContext(ctx, &rows, q, labDayID); err != nil {
		return nil, errors.Wrap(err, "querying stations")
	}
	stations := make([]lab.Station, 0, len(rows))
	for _, row := range rows {
		stations = append(stations, lab.Station(row))
	}
	return stations, nil
}

func (repo labRepository) DeleteStationsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM station WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting stations")
}

func (repo labRepository) CreateScenario(ctx context.Context, s lab.Scenario) (lab.Scenario, error) {
	q := `
INSERT INTO scenario (id, title, category, difficulty, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, q, s.ID, s.Title, s.Category, s.Difficulty, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return lab.Scenario{}, errors.Wrap(err, "creating scenario")
	}
	return s, nil
}

func (repo labRepository) QueryAllScenarios(ctx context.Context) ([]lab.Scenario, error) {
	var rows []scenarioRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM scenario ORDER BY category, title`); err != nil {
		return nil, errors.Wrap(err, "querying scenarios")
	}
	scenarios := make([]lab.Scenario, 0, len(rows))
	for _, row := range rows {
		scenarios = append(scenarios, lab.Scenario(row))
	}
	return scenarios, nil
}

func (repo labRepository) GetScenarioByID(ctx context.Context, id string) (lab.Scenario, error) {
	var row scenarioRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM scenario WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return lab.Scenario{}, lab.ErrScenarioNotFound
		}
		return lab.Scenario{}, errors.Wrap(err, "getting scenario")
	}
	return lab.Scenario(row), nil
}

func (repo labRepository) UpdateScenario(ctx context.Context, s lab.Scenario) (lab.Scenario, error) {
	q := `
UPDATE scenario SET title = $2, category = $3, difficulty = $4, updated_at = $5
WHERE id = $1
RETURNING *`
	var row scenarioRow
	if err := repo.db.GetContext(ctx, &row, q, s.ID, s.Title, s.Category, s.Difficulty, s.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return lab.Scenario{}, lab.ErrScenarioNotFound
		}
		return lab.Scenario{}, errors.Wrap(err, "updating scenario")
	}
	return lab.Scenario(row), nil
}

func (repo labRepository) CreateAssessment(ctx context.Context, a lab.Assessment) (lab.Assessment, error) {
	q := `
INSERT INTO assessment (id, scenario_id, student_id, instructor_id, score, passed, comments, assessed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q,
		a.ID, a.ScenarioID, a.StudentID, a.InstructorID, a.Score, a.Passed, a.Comments, a.AssessedAt,
	)
	if err != nil {
		return lab.Assessment{}, errors.Wrap(err, "creating assessment")
	}
	return a, nil
}

func (repo labRepository) QueryAssessmentsByScenarioID(ctx context.Context, scenarioID string) ([]lab.Assessment, error) {
	return repo.queryAssessmentsWhere(ctx, "scenario_id = $1", scenarioID)
}

func (repo labRepository) QueryAssessmentsByStudentID(ctx context.Context, studentID string) ([]lab.Assessment, error) {
	return repo.queryAssessmentsWhere(ctx, "student_id = $1", studentID)
}

func (repo labRepository) queryAssessmentsWhere(ctx context.Context, clause string, arg interface{}) ([]lab.Assessment, error) {
	var rows []assessmentRow
	q := `SELECT * FROM assessment WHERE ` + clause + ` ORDER BY assessed_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, arg); err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	assessments := make([]lab.Assessment, 0, len(rows))
	for _, row := range rows {
		assessments = append(assessments, lab.Assessment(row))
	}
	return assessments, nil
}
