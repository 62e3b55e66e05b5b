package clinical

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrEntryNotFound = errors.New("clinical entry not found")
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		GetEntryByID(ctx context.Context, id string) (Entry, error)
		QueryEntriesByStudentID(ctx context.Context, studentID string) ([]Entry, error)
		UpdateEntry(ctx context.Context, e Entry) (Entry, error)
		// QueryHoursByStudent returns total verified+unverified hours per student ID.
		QueryHoursByStudent(ctx context.Context) (map[string]float64, error)
	}

	Service interface {
		Record(ctx context.Context, ne NewEntry) (Entry, error)
		Get(ctx context.Context, id string) (Entry, error)
		StudentEntries(ctx context.Context, studentID string) ([]Entry, error)
		Verify(ctx context.Context, entryID, verifierID string) (Entry, error)
		Progress(ctx context.Context, studentID string) (Progress, error)
		HoursByStudent(ctx context.Context) (map[string]float64, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Record(ctx context.Context, ne NewEntry) (Entry, error) {
	now := time.Now().UTC()
	return svc.repo.CreateEntry(ctx, Entry{
		ID:            uuid.New().String(),
		StudentID:     ne.StudentID,
		Date:          ne.Date,
		Hours:         ne.Hours,
		Setting:       ne.Setting,
		Skills:        ne.Skills,
		PreceptorName: ne.PreceptorName,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (svc *service) Get(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntryByID(ctx, id)
}

func (svc *service) StudentEntries(ctx context.Context, studentID string) ([]Entry, error) {
	return svc.repo.QueryEntriesByStudentID(ctx, studentID)
}

func (svc *service) Verify(ctx context.Context, entryID, verifierID string) (Entry, error) {
	entry, err := svc.repo.GetEntryByID(ctx, entryID)
	if err != nil {
		return Entry{}, err
	}
	entry.Verified = true
	entry.VerifiedBy = verifierID
	entry.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEntry(ctx, entry)
}

func (svc *service) Progress(ctx context.Context, studentID string) (Progress, error) {
	entries, err := svc.repo.QueryEntriesByStudentID(ctx, studentID)
	if err != nil {
		return Progress{}, err
	}

	prog := Progress{
		StudentID:      studentID,
		HoursBySetting: make(map[string]float64),
		EntryCount:     len(entries),
	}
	for _, e := range entries {
		prog.TotalHours += e.Hours
		prog.HoursBySetting[e.Setting] += e.Hours
		if e.Verified {
			prog.VerifiedHours += e.Hours
		} else {
			prog.UnverifiedEntryIDs = append(prog.UnverifiedEntryIDs, e.ID)
		}
	}
	for _, threshold := range MilestoneThresholds {
		if prog.TotalHours >= threshold {
			prog.MilestonesReached = append(prog.MilestonesReached, threshold)
		} else {
			prog.NextMilestone = threshold
			break
		}
	}
	return prog, nil
}

func (svc *service) HoursByStudent(ctx context.Context) (map[string]float64, error) {
	return svc.repo.QueryHoursByStudent(ctx)
}
