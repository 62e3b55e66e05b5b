package cohort

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core"
)

var (
	// errors
	ErrNotFound        = errors.New("cohort not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrAlreadyEnrolled = errors.New("user already has an active enrollment")
	ErrCohortClosed    = errors.New("cohort is not open for enrollment")
)

type (
	Repository interface {
		CreateCohort(ctx context.Context, c Cohort) (Cohort, error)
		QueryAllCohorts(ctx context.Context, orderings ...core.DBOrdering) ([]Cohort, error)
		GetCohortByID(ctx context.Context, id string) (Cohort, error)
		UpdateCohort(ctx context.Context, c Cohort) (Cohort, error)
		DeleteCohortsByID(ctx context.Context, ids ...string) error

		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		// GetActiveStudentByUserID returns the user's enrollment in a non-terminal status.
		GetActiveStudentByUserID(ctx context.Context, userID string) (Student, error)
		QueryStudentsByCohortID(ctx context.Context, cohortID string) ([]Student, error)
		// QueryStudentsByCertExpiry returns active students whose certification expires on the given date.
		QueryStudentsByCertExpiry(ctx context.Context, day time.Time) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)

		// QueryProgress joins assessments and clinical entries per student of a cohort.
		QueryProgress(ctx context.Context, cohortID string) ([]ProgressRow, error)
	}

	Service interface {
		Create(ctx context.Context, nc NewCohort) (Cohort, error)
		QueryAll(ctx context.Context) ([]Cohort, error)
		GetByID(ctx context.Context, id string) (Cohort, error)
		Update(ctx context.Context, id string, uc UpdateCohort) (Cohort, error)
		Delete(ctx context.Context, ids ...string) error

		Enroll(ctx context.Context, cohortID string, es EnrollStudent) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		GetActiveStudentByUserID(ctx context.Context, userID string) (Student, error)
		Roster(ctx context.Context, cohortID string) ([]Student, error)
		UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error)
		Transfer(ctx context.Context, studentID, cohortID string) (Student, error)
		StudentsByCertExpiry(ctx context.Context, day time.Time) ([]Student, error)

		Stats(ctx context.Context, cohortID string) (Stats, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nc NewCohort) (Cohort, error) {
	now := time.Now().UTC()
	return svc.repo.CreateCohort(ctx, Cohort{
		ID:        uuid.New().String(),
		Name:      nc.Name,
		StartDate: nc.StartDate,
		EndDate:   nc.EndDate,
		Status:    nc.Status,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) QueryAll(ctx context.Context) ([]Cohort, error) {
	return svc.repo.QueryAllCohorts(ctx, core.DBOrdering{Field: "start_date", Ascending: false})
}

func (svc *service) GetByID(ctx context.Context, id string) (Cohort, error) {
	return svc.repo.GetCohortByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateCohort) (Cohort, error) {
	return svc.repo.UpdateCohort(ctx, Cohort{
		ID:        id,
		Name:      uc.Name,
		StartDate: uc.StartDate,
		EndDate:   uc.EndDate,
		Status:    uc.Status,
		UpdatedAt: time.Now().UTC(),
	})
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCohortsByID(ctx, ids...)
}

func (svc *service) Enroll(ctx context.Context, cohortID string, es EnrollStudent) (Student, error) {
	coh, err := svc.repo.GetCohortByID(ctx, cohortID)
	if err != nil {
		return Student{}, err
	}
	if coh.Status == StatusGraduated || coh.Status == StatusArchived {
		return Student{}, core.NewValidationError(ErrCohortClosed)
	}

	if _, err = svc.repo.GetActiveStudentByUserID(ctx, es.UserID); err == nil {
		return Student{}, core.NewValidationError(ErrAlreadyEnrolled,
			core.FieldError{Field: "user_id", Error: ErrAlreadyEnrolled.Error()})
	} else if errors.Cause(err) != ErrStudentNotFound {
		return Student{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateStudent(ctx, Student{
		ID:         uuid.New().String(),
		UserID:     es.UserID,
		CohortID:   cohortID,
		CertLevel:  es.CertLevel,
		CertNumber: es.CertNumber,
		CertExpiry: es.CertExpiry,
		Status:     StudentEnrolled,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (svc *service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *service) GetActiveStudentByUserID(ctx context.Context, userID string) (Student, error) {
	return svc.repo.GetActiveStudentByUserID(ctx, userID)
}

func (svc *service) Roster(ctx context.Context, cohortID string) ([]Student, error) {
	if _, err := svc.repo.GetCohortByID(ctx, cohortID); err != nil {
		return nil, err
	}
	return svc.repo.QueryStudentsByCohortID(ctx, cohortID)
}

func (svc *service) UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	stu, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	stu.CertLevel = us.CertLevel
	stu.CertNumber = us.CertNumber
	stu.CertExpiry = us.CertExpiry
	stu.Status = us.Status
	stu.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, stu)
}

func (svc *service) Transfer(ctx context.Context, studentID, cohortID string) (Student, error) {
	stu, err := svc.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return Student{}, err
	}
	coh, err := svc.repo.GetCohortByID(ctx, cohortID)
	if err != nil {
		return Student{}, err
	}
	if coh.Status == StatusGraduated || coh.Status == StatusArchived {
		return Student{}, core.NewValidationError(ErrCohortClosed)
	}
	stu.CohortID = coh.ID
	stu.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, stu)
}

func (svc *service) StudentsByCertExpiry(ctx context.Context, day time.Time) ([]Student, error) {
	return svc.repo.QueryStudentsByCertExpiry(ctx, day)
}

func (svc *service) Stats(ctx context.Context, cohortID string) (Stats, error) {
	coh, err := svc.repo.GetCohortByID(ctx, cohortID)
	if err != nil {
		return Stats{}, err
	}
	rows, err := svc.repo.QueryProgress(ctx, cohortID)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		CohortID:      coh.ID,
		Name:          coh.Name,
		TotalStudents: len(rows),
		ByStatus:      make(map[string]int),
	}
	var scoreSum float64
	var assessments, passed int
	for _, row := range rows {
		stats.ByStatus[row.Status]++
		stats.TotalClinicalHours += row.ClinicalHours
		scoreSum += row.ScoreSum
		assessments += row.AssessmentCount
		passed += row.PassedCount
	}
	if assessments > 0 {
		stats.AvgAssessmentScore = scoreSum / float64(assessments)
		stats.PassRate = float64(passed) / float64(assessments)
	}
	if stats.TotalStudents > 0 {
		stats.GraduationRate = float64(stats.ByStatus[StudentGraduated]) / float64(stats.TotalStudents)
	}
	return stats, nil
}
