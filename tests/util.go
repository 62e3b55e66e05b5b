package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/matibabu/core/cohort"
	"github.com/trezcool/matibabu/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCohort(t *testing.T, repo cohort.Repository, name, status string, start, end time.Time) cohort.Cohort {
	t.Helper()
	now := time.Now().UTC()
	co := cohort.Cohort{
		ID:        uuid.New().String(),
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	co, err := repo.CreateCohort(context.Background(), co)
	if err != nil {
		t.Fatalf("CreateCohort() failed: %v", err)
	}
	return co
}

func CreateStudent(t *testing.T, repo cohort.Repository, userID, cohortID, certLevel string, certExpiry time.Time) cohort.Student {
	t.Helper()
	now := time.Now().UTC()
	stu := cohort.Student{
		ID:         uuid.New().String(),
		UserID:     userID,
		CohortID:   cohortID,
		CertLevel:  certLevel,
		CertExpiry: certExpiry,
		Status:     cohort.StudentEnrolled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	stu, err := repo.CreateStudent(context.Background(), stu)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return stu
}
