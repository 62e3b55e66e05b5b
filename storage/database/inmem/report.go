package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/matibabu/core/report"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) CreateTemplate(ctx context.Context, t report.Template) (report.Template, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.reportTemplates[t.ID] = &t
	return t, nil
}

func (repo *reportRepository) QueryAllTemplates(ctx context.Context) ([]report.Template, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	templates := make([]report.Template, 0, len(repo.db.reportTemplates))
	for _, t := range repo.db.reportTemplates {
		templates = append(templates, *t)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}

func (repo *reportRepository) GetTemplateByID(ctx context.Context, id string) (report.Template, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.reportTemplates[id]; ok {
		return *t, nil
	}
	return report.Template{}, report.ErrNotFound
}

func (repo *reportRepository) UpdateTemplate(ctx context.Context, t report.Template) (report.Template, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.reportTemplates[t.ID]
	if !ok {
		return report.Template{}, report.ErrNotFound
	}
	orig.Name = t.Name
	orig.Description = t.Description
	orig.Params = t.Params
	orig.UpdatedAt = t.UpdatedAt
	return *orig, nil
}

func (repo *reportRepository) DeleteTemplatesByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.reportTemplates, id)
	}
	return nil
}
