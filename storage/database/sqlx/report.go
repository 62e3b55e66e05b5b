package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/report"
)

type reportTemplateRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Kind        string          `db:"kind"`
	Description string          `db:"description"`
	Params      json.RawMessage `db:"params"`
	CreatedBy   string          `db:"created_by"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r reportTemplateRow) toCore() (report.Template, error) {
	tmpl := report.Template{
		ID:          r.ID,
		Name:        r.Name,
		Kind:        r.Kind,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.Params) > 0 {
		if err := json.Unmarshal(r.Params, &tmpl.Params); err != nil {
			return report.Template{}, errors.Wrap(err, "decoding report params")
		}
	}
	return tmpl, nil
}

func marshalParams(params map[string]interface{}) (json.RawMessage, error) {
	if params == nil {
		return json.RawMessage("{}"), nil
	}
	raw, err := json.Marshal(params)
	return raw, errors.Wrap(err, "encoding report params")
}

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo reportRepository) CreateTemplate(ctx context.Context, t report.Template) (report.Template, error) {
	params, err := marshalParams(t.Params)
	if err != nil {
		return report.Template{}, err
	}
	q := `
INSERT INTO report_template (id, name, kind, description, params, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = repo.db.ExecContext(ctx, q, t.ID, t.Name, t.Kind, t.Description, params, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return report.Template{}, errors.Wrap(err, "creating report template")
	}
	return t, nil
}

func (repo reportRepository) QueryAllTemplates(ctx context.Context) ([]report.Template, error) {
	var rows []reportTemplateRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM report_template ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying report templates")
	}
	templates := make([]report.Template, 0, len(rows))
	for _, row := range rows {
		tmpl, err := row.toCore()
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

func (repo reportRepository) GetTemplateByID(ctx context.Context, id string) (report.Template, error) {
	var row reportTemplateRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM report_template WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return report.Template{}, report.ErrNotFound
		}
		return report.Template{}, errors.Wrap(err, "getting report template")
	}
	return row.toCore()
}

func (repo reportRepository) UpdateTemplate(ctx context.Context, t report.Template) (report.Template, error) {
	params, err := marshalParams(t.Params)
	if err != nil {
		return report.Template{}, err
	}
	q := `
UPDATE report_template SET name = $2, description = $3, params = $4, updated_at = $5
WHERE id = $1
RETURNING *`
	var row reportTemplateRow
	if err = repo.db.GetContext(ctx, &row, q, t.ID, t.Name, t.Description, params, t.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return report.Template{}, report.ErrNotFound
		}
		return report.Template{}, errors.Wrap(err, "updating report template")
	}
	return row.toCore()
}

func (repo reportRepository) DeleteTemplatesByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM report_template WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting report templates")
}
