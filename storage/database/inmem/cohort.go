package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/matibabu/core"
	"github.com/trezcool/matibabu/core/cohort"
)

type cohortRepository struct {
	db *DB
}

var _ cohort.Repository = (*cohortRepository)(nil) // interface compliance check

func NewCohortRepository(db *DB) *cohortRepository {
	return &cohortRepository{db: db}
}

func (repo *cohortRepository) CreateCohort(ctx context.Context, c cohort.Cohort) (cohort.Cohort, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.cohorts[c.ID] = &c
	return c, nil
}

func (repo *cohortRepository) QueryAllCohorts(ctx context.Context, orderings ...core.DBOrdering) ([]cohort.Cohort, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cohorts := make([]cohort.Cohort, 0, len(repo.db.cohorts))
	for _, c := range repo.db.cohorts {
		cohorts = append(cohorts, *c)
	}
	asc := len(orderings) > 0 && orderings[0].Ascending
	sort.Slice(cohorts, func(i, j int) bool {
		if asc {
			return cohorts[i].StartDate.Before(cohorts[j].StartDate)
		}
		return cohorts[i].StartDate.After(cohorts[j].StartDate)
	})
	return cohorts, nil
}

func (repo *cohortRepository) GetCohortByID(ctx context.Context, id string) (cohort.Cohort, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.cohorts[id]; ok {
		return *c, nil
	}
	return cohort.Cohort{}, cohort.ErrNotFound
}

func (repo *cohortRepository) UpdateCohort(ctx context.Context, c cohort.Cohort) (cohort.Cohort, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.cohorts[c.ID]
	if !ok {
		return cohort.Cohort{}, cohort.ErrNotFound
	}
	orig.Name = c.Name
	orig.StartDate = c.StartDate
	orig.EndDate = c.EndDate
	orig.Status = c.Status
	orig.UpdatedAt = c.UpdatedAt
	return *orig, nil
}

func (repo *cohortRepository) DeleteCohortsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.cohorts, id)
	}
	return nil
}

func (repo *cohortRepository) CreateStudent(ctx context.Context, s cohort.Student) (cohort.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *cohortRepository) GetStudentByID(ctx context.Context, id string) (cohort.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return cohort.Student{}, cohort.ErrStudentNotFound
}

func (repo *cohortRepository) GetActiveStudentByUserID(ctx context.Context, userID string) (cohort.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.students {
		if s.UserID == userID && s.IsActive() {
			return *s, nil
		}
	}
	return cohort.Student{}, cohort.ErrStudentNotFound
}

func (repo *cohortRepository) QueryStudentsByCohortID(ctx context.Context, cohortID string) ([]cohort.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var students []cohort.Student
	for _, s := range repo.db.students {
		if s.CohortID == cohortID {
			students = append(students, *s)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].CreatedAt.Before(students[j].CreatedAt) })
	return students, nil
}

func (repo *cohortRepository) QueryStudentsByCertExpiry(ctx context.Context, day time.Time) ([]cohort.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	y, m, d := day.Date()
	var students []cohort.Student
	for _, s := range repo.db.students {
		if !s.IsActive() || s.CertExpiry.IsZero() {
			continue
		}
		ey, em, ed := s.CertExpiry.Date()
		if ey == y && em == m && ed == d {
			students = append(students, *s)
		}
	}
	return students, nil
}

func (repo *cohortRepository) UpdateStudent(ctx context.Context, s cohort.Student) (cohort.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.students[s.ID]
	if !ok {
		return cohort.Student{}, cohort.ErrStudentNotFound
	}
	orig.CohortID = s.CohortID
	orig.CertLevel = s.CertLevel
	orig.CertNumber = s.CertNumber
	orig.CertExpiry = s.CertExpiry
	orig.Status = s.Status
	orig.UpdatedAt = s.UpdatedAt
	return *orig, nil
}

func (repo *cohortRepository) QueryProgress(ctx context.Context, cohortID string) ([]cohort.ProgressRow, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var progress []cohort.ProgressRow
	for _, s := range repo.db.students {
		if s.CohortID != cohortID {
			continue
		}
		row := cohort.ProgressRow{StudentID: s.ID, Status: s.Status}
		for _, a := range repo.db.assessments {
			if a.StudentID != s.ID {
				continue
			}
			row.AssessmentCount++
			row.ScoreSum += float64(a.Score)
			if a.Passed {
				row.PassedCount++
			}
		}
		for _, e := range repo.db.clinicalEntries {
			if e.StudentID == s.ID {
				row.ClinicalHours += e.Hours
			}
		}
		progress = append(progress, row)
	}
	sort.Slice(progress, func(i, j int) bool { return progress[i].StudentID < progress[j].StudentID })
	return progress, nil
}
