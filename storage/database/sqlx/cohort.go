package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core"
	"github.com/trezcool/matibabu/core/cohort"
)

type cohortRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r cohortRow) toCore() cohort.Cohort { return cohort.Cohort(r) }

type studentRow struct {
	ID         string       `db:"id"`
	UserID     string       `db:"user_id"`
	CohortID   string       `db:"cohort_id"`
	CertLevel  string       `db:"cert_level"`
	CertNumber string       `db:"cert_number"`
	CertExpiry sql.NullTime `db:"cert_expiry"`
	Status     string       `db:"status"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
}

func (r studentRow) toCore() cohort.Student {
	stu := cohort.Student{
		ID:         r.ID,
		UserID:     r.UserID,
		CohortID:   r.CohortID,
		CertLevel:  r.CertLevel,
		CertNumber: r.CertNumber,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.CertExpiry.Valid {
		stu.CertExpiry = r.CertExpiry.Time
	}
	return stu
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

type cohortRepository struct {
	db *sqlx.DB
}

var _ cohort.Repository = (*cohortRepository)(nil) // interface compliance check

func NewCohortRepository(db *sqlx.DB) *cohortRepository {
	return &cohortRepository{db: db}
}

func (repo cohortRepository) CreateCohort(ctx context.Context, c cohort.Cohort) (cohort.Cohort, error) {
	q := `
INSERT INTO cohort (id, name, start_date, end_date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q, c.ID, c.Name, c.StartDate, c.EndDate, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return cohort.Cohort{}, errors.Wrap(err, "creating cohort")
	}
	return c, nil
}

func (repo cohortRepository) QueryAllCohorts(ctx context.Context, orderings ...core.DBOrdering) ([]cohort.Cohort, error) {
	var rows []cohortRow
	q := `SELECT * FROM cohort` + orderBy(orderings, "start_date DESC")
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying cohorts")
	}
	cohorts := make([]cohort.Cohort, 0, len(rows))
	for _, row := range rows {
		cohorts = append(cohorts, row.toCore())
	}
	return cohorts, nil
}

func (repo cohortRepository) GetCohortByID(ctx context.Context, id string) (cohort.Cohort, error) {
	var row cohortRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM cohort WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return cohort.Cohort{}, cohort.ErrNotFound
		}
		return cohort.Cohort{}, errors.Wrap(err, "getting cohort")
	}
	return row.toCore(), nil
}

func (repo cohortRepository) UpdateCohort(ctx context.Context, c cohort.Cohort) (cohort.Cohort, error) {
	q := `
UPDATE cohort SET name = $2, start_date = $3, end_date = $4, status = $5, updated_at = $6
WHERE id = $1
RETURNING *`
	var row cohortRow
	err := repo.db.GetContext(ctx, &row, q, c.ID, c.Name, c.StartDate, c.EndDate, c.Status, c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return cohort.Cohort{}, cohort.ErrNotFound
		}
		return cohort.Cohort{}, errors.Wrap(err, "updating cohort")
	}
	return row.toCore(), nil
}

func (repo cohortRepository) DeleteCohortsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM cohort WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting cohorts")
}

func (repo cohortRepository) CreateStudent(ctx context.Context, s cohort.Student) (cohort.Student, error) {
	q := `
INSERT INTO student (id, user_id, cohort_id, cert_level, cert_number, cert_expiry, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, q,
		s.ID, s.UserID, s.CohortID, s.CertLevel, s.CertNumber, nullTime(s.CertExpiry), s.Status, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return cohort.Student{}, errors.Wrap(err, "creating student")
	}
	return s, nil
}

func (repo cohortRepository) GetStudentByID(ctx context.Context, id string) (cohort.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM student WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return cohort.Student{}, cohort.ErrStudentNotFound
		}
		return cohort.Student{}, errors.Wrap(err, "getting student")
	}
	return row.toCore(), nil
}

func (repo cohortRepository) GetActiveStudentByUserID(ctx context.Context, userID string) (cohort.Student, error) {
	q := `SELECT * FROM student WHERE user_id = $1 AND status IN ($2, $3) LIMIT 1`
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, q, userID, cohort.StudentEnrolled, cohort.StudentOnLeave); err != nil {
		if err == sql.ErrNoRows {
			return cohort.Student{}, cohort.ErrStudentNotFound
		}
		return cohort.Student{}, errors.Wrap(err, "getting active student")
	}
	return row.toCore(), nil
}

func (repo cohortRepository) QueryStudentsByCohortID(ctx context.Context, cohortID string) ([]cohort.Student, error) {
	var rows []studentRow
	q := `SELECT * FROM student WHERE cohort_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, cohortID); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return toCoreStudents(rows), nil
}

func (repo cohortRepository) QueryStudentsByCertExpiry(ctx context.Context, day time.Time) ([]cohort.Student, error) {
	q := `
SELECT * FROM student
WHERE cert_expiry::date = $1::date AND status IN ($2, $3)`
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, q, day, cohort.StudentEnrolled, cohort.StudentOnLeave); err != nil {
		return nil, errors.Wrap(err, "querying students by cert expiry")
	}
	return toCoreStudents(rows), nil
}

func (repo cohortRepository) UpdateStudent(ctx context.Context, s cohort.Student) (cohort.Student, error) {
	q := `
UPDATE student SET cohort_id = $2, cert_level = $3, cert_number = $4, cert_expiry = $5, status = $6, updated_at = $7
WHERE id = $1
RETURNING *`
	var row studentRow
	err := repo.db.GetContext(ctx, &row, q,
		s.ID, s.CohortID, s.CertLevel, s.CertNumber, nullTime(s.CertExpiry), s.Status, s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return cohort.Student{}, cohort.ErrStudentNotFound
		}
		return cohort.Student{}, errors.Wrap(err, "updating student")
	}
	return row.toCore(), nil
}

func (repo cohortRepository) QueryProgress(ctx context.Context, cohortID string) ([]cohort.ProgressRow, error) {
	q := `
SELECT s.id                            AS student_id,
       s.status                        AS status,
       COUNT(a.id)                     AS assessment_count,
       COUNT(a.id) FILTER (WHERE a.passed) AS passed_count,
       COALESCE(SUM(a.score), 0)       AS score_sum,
       COALESCE(ch.hours, 0)           AS clinical_hours
FROM student s
LEFT JOIN assessment a ON a.student_id = s.id
LEFT JOIN (
    SELECT student_id, SUM(hours) AS hours FROM clinical_entry GROUP BY student_id
) ch ON ch.student_id = s.id
WHERE s.cohort_id = $1
GROUP BY s.id, s.status, ch.hours`

	var rows []struct {
		StudentID       string  `db:"student_id"`
		Status          string  `db:"status"`
		AssessmentCount int     `db:"assessment_count"`
		PassedCount     int     `db:"passed_count"`
		ScoreSum        float64 `db:"score_sum"`
		ClinicalHours   float64 `db:"clinical_hours"`
	}
	if err := repo.db.SelectContext(ctx, &rows, q, cohortID); err != nil {
		return nil, errors.Wrap(err, "querying cohort progress")
	}

	progress := make([]cohort.ProgressRow, 0, len(rows))
	for _, row := range rows {
		progress = append(progress, cohort.ProgressRow(row))
	}
	return progress, nil
}

func toCoreStudents(rows []studentRow) []cohort.Student {
	students := make([]cohort.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toCore())
	}
	return students
}
