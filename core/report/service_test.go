package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/matibabu/core/report"
	"github.com/trezcool/matibabu/storage/database/inmem"
)

func Test_service_Run_unknownKind(t *testing.T) {
	db := inmemdb.NewDB()
	repo := inmemdb.NewReportRepository(db)
	svc := report.NewService(repo, report.Sources{})
	ctx := context.Background()

	t.Run("Unknown template", func(t *testing.T) {
		if _, err := svc.Run(ctx, "nope"); err != report.ErrNotFound {
			t.Errorf("Run() error = %v, want %v", err, report.ErrNotFound)
		}
	})

	t.Run("Unknown kind", func(t *testing.T) {
		// a kind the dispatcher does not know; the API validates these away
		tmpl, err := repo.CreateTemplate(ctx, report.Template{
			ID:        uuid.New().String(),
			Name:      "Horoscope",
			Kind:      "horoscope",
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("CreateTemplate() failed: %v", err)
		}
		if _, err = svc.Run(ctx, tmpl.ID); err != report.ErrUnknownKind {
			t.Errorf("Run() error = %v, want %v", err, report.ErrUnknownKind)
		}
	})
}

func Test_service_Update_keepsKind(t *testing.T) {
	db := inmemdb.NewDB()
	svc := report.NewService(inmemdb.NewReportRepository(db), report.Sources{})
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, "admin", report.NewTemplate{Name: "Coverage", Kind: report.KindShiftCoverage})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	updated, err := svc.Update(ctx, tmpl.ID, report.UpdateTemplate{Name: "Weekly coverage"})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Kind != report.KindShiftCoverage {
		t.Errorf("Update() kind = %q, want %q", updated.Kind, report.KindShiftCoverage)
	}
	if updated.Name != "Weekly coverage" {
		t.Errorf("Update() name = %q, want %q", updated.Name, "Weekly coverage")
	}
}
