package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/clinical"
)

type clinicalEntryRow struct {
	ID            string    `db:"id"`
	StudentID     string    `db:"student_id"`
	Date          time.Time `db:"date"`
	Hours         float64   `db:"hours"`
	Setting       string    `db:"setting"`
	Skills        string    `db:"skills"`
	PreceptorName string    `db:"preceptor_name"`
	Verified      bool      `db:"verified"`
	VerifiedBy    string    `db:"verified_by"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type clinicalRepository struct {
	db *sqlx.DB
}

var _ clinical.Repository = (*clinicalRepository)(nil) // interface compliance check

func NewClinicalRepository(db *sqlx.DB) *clinicalRepository {
	return &clinicalRepository{db: db}
}

func (repo clinicalRepository) CreateEntry(ctx context.Context, e clinical.Entry) (clinical.Entry, error) {
	q := `
INSERT INTO clinical_entry (id, student_id, date, hours, setting, skills, preceptor_name, verified, verified_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(ctx, q,
		e.ID, e.StudentID, e.Date, e.Hours, e.Setting, e.Skills, e.PreceptorName, e.Verified, e.VerifiedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return clinical.Entry{}, errors.Wrap(err, "creating clinical entry")
	}
	return e, nil
}

func (repo clinicalRepository) GetEntryByID(ctx context.Context, id string) (clinical.Entry, error) {
	var row clinicalEntryRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM clinical_entry WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return clinical.Entry{}, clinical.ErrEntryNotFound
		}
		return clinical.Entry{}, errors.Wrap(err, "getting clinical entry")
	}
	return clinical.Entry(row), nil
}

func (repo clinicalRepository) QueryEntriesByStudentID(ctx context.Context, studentID string) ([]clinical.Entry, error) {
	var rows []clinicalEntryRow
	q := `SELECT * FROM clinical_entry WHERE student_id = $1 ORDER BY date DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying clinical entries")
	}
	entries := make([]clinical.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, clinical.Entry(row))
	}
	return entries, nil
}

func (repo clinicalRepository) UpdateEntry(ctx context.Context, e clinical.Entry) (clinical.Entry, error) {
	q := `
UPDATE clinical_entry SET date = $2, hours = $3, setting = $4, skills = $5, preceptor_name = $6, verified = $7, verified_by = $8, updated_at = $9
WHERE id = $1
RETURNING *`
	var row clinicalEntryRow
	err := repo.db.GetContext(ctx, &row, q,
		e.ID, e.Date, e.Hours, e.Setting, e.Skills, e.PreceptorName, e.Verified, e.VerifiedBy, e.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return clinical.Entry{}, clinical.ErrEntryNotFound
		}
		return clinical.Entry{}, errors.Wrap(err, "updating clinical entry")
	}
	return clinical.Entry(row), nil
}

func (repo clinicalRepository) QueryHoursByStudent(ctx context.Context) (map[string]float64, error) {
	var rows []struct {
		StudentID string  `db:"student_id"`
		Hours     float64 `db:"hours"`
	}
	q := `SELECT student_id, SUM(hours) AS hours FROM clinical_entry GROUP BY student_id`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying clinical hours")
	}

	hours := make(map[string]float64, len(rows))
	for _, row := range rows {
		hours[row.StudentID] = row.Hours
	}
	return hours, nil
}
