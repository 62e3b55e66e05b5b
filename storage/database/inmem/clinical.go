package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/matibabu/core/clinical"
)

type clinicalRepository struct {
	db *DB
}

var _ clinical.Repository = (*clinicalRepository)(nil) // interface compliance check

func NewClinicalRepository(db *DB) *clinicalRepository {
	return &clinicalRepository{db: db}
}

func (repo *clinicalRepository) CreateEntry(ctx context.Context, e clinical.Entry) (clinical.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.clinicalEntries[e.ID] = &e
	return e, nil
}

func (repo *clinicalRepository) GetEntryByID(ctx context.Context, id string) (clinical.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.clinicalEntries[id]; ok {
		return *e, nil
	}
	return clinical.Entry{}, clinical.ErrEntryNotFound
}

func (repo *clinicalRepository) QueryEntriesByStudentID(ctx context.Context, studentID string) ([]clinical.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var entries []clinical.Entry
	for _, e := range repo.db.clinicalEntries {
		if e.StudentID == studentID {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.After(entries[j].Date) })
	return entries, nil
}

func (repo *clinicalRepository) UpdateEntry(ctx context.Context, e clinical.Entry) (clinical.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.clinicalEntries[e.ID]
	if !ok {
		return clinical.Entry{}, clinical.ErrEntryNotFound
	}
	orig.Date = e.Date
	orig.Hours = e.Hours
	orig.Setting = e.Setting
	orig.Skills = e.Skills
	orig.PreceptorName = e.PreceptorName
	orig.Verified = e.Verified
	orig.VerifiedBy = e.VerifiedBy
	orig.UpdatedAt = e.UpdatedAt
	return *orig, nil
}

func (repo *clinicalRepository) QueryHoursByStudent(ctx context.Context) (map[string]float64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	hours := make(map[string]float64)
	for _, e := range repo.db.clinicalEntries {
		hours[e.StudentID] += e.Hours
	}
	return hours, nil
}
