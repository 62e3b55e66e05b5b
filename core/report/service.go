package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/clinical"
	"github.com/trezcool/matibabu/core/cohort"
	"github.com/trezcool/matibabu/core/lab"
	"github.com/trezcool/matibabu/core/schedule"
)

var (
	// errors
	ErrNotFound    = errors.New("report template not found")
	ErrUnknownKind = errors.New("unknown report kind")
)

// defaultCoverageWindow bounds shift_coverage runs when the template
// carries no explicit date range.
const defaultCoverageWindow = 30 * 24 * time.Hour

type (
	Repository interface {
		CreateTemplate(ctx context.Context, t Template) (Template, error)
		QueryAllTemplates(ctx context.Context) ([]Template, error)
		GetTemplateByID(ctx context.Context, id string) (Template, error)
		UpdateTemplate(ctx context.Context, t Template) (Template, error)
		DeleteTemplatesByID(ctx context.Context, ids ...string) error
	}

	// Sources are the domain services a report run draws from.
	Sources struct {
		Cohort   cohort.Service
		Lab      lab.Service
		Schedule schedule.Service
		Clinical clinical.Service
	}

	Service interface {
		Create(ctx context.Context, createdBy string, nt NewTemplate) (Template, error)
		QueryAll(ctx context.Context) ([]Template, error)
		GetByID(ctx context.Context, id string) (Template, error)
		Update(ctx context.Context, id string, ut UpdateTemplate) (Template, error)
		Delete(ctx context.Context, ids ...string) error
		Run(ctx context.Context, id string) (Result, error)
	}

	service struct {
		repo Repository
		src  Sources
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, src Sources) Service {
	return &service{repo: repo, src: src}
}

func (svc *service) Create(ctx context.Context, createdBy string, nt NewTemplate) (Template, error) {
	now := time.Now().UTC()
	return svc.repo.CreateTemplate(ctx, Template{
		ID:          uuid.New().String(),
		Name:        nt.Name,
		Kind:        nt.Kind,
		Description: nt.Description,
		Params:      nt.Params,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *service) QueryAll(ctx context.Context) ([]Template, error) {
	return svc.repo.QueryAllTemplates(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Template, error) {
	return svc.repo.GetTemplateByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, ut UpdateTemplate) (Template, error) {
	tmpl, err := svc.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return Template{}, err
	}
	if ut.Name != "" {
		tmpl.Name = ut.Name
	}
	if ut.Description != "" {
		tmpl.Description = ut.Description
	}
	if ut.Params != nil {
		tmpl.Params = ut.Params
	}
	tmpl.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTemplate(ctx, tmpl)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTemplatesByID(ctx, ids...)
}

func (svc *service) Run(ctx context.Context, id string) (Result, error) {
	tmpl, err := svc.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		TemplateID:  tmpl.ID,
		Kind:        tmpl.Kind,
		GeneratedAt: time.Now().UTC(),
		Summary:     make(map[string]interface{}),
	}
	switch tmpl.Kind {
	case KindCohortCompletion:
		err = svc.runCohortCompletion(ctx, tmpl, &res)
	case KindAssessmentStats:
		err = svc.runAssessmentStats(ctx, &res)
	case KindShiftCoverage:
		err = svc.runShiftCoverage(ctx, tmpl, &res)
	case KindClinicalHours:
		err = svc.runClinicalHours(ctx, &res)
	default:
		err = ErrUnknownKind
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (svc *service) runCohortCompletion(ctx context.Context, tmpl Template, res *Result) error {
	var cohorts []cohort.Cohort
	if cohortID := paramString(tmpl.Params, "cohort_id"); cohortID != "" {
		coh, err := svc.src.Cohort.GetByID(ctx, cohortID)
		if err != nil {
			return err
		}
		cohorts = append(cohorts, coh)
	} else {
		all, err := svc.src.Cohort.QueryAll(ctx)
		if err != nil {
			return err
		}
		cohorts = all
	}

	var totalStudents, totalGraduated int
	for _, coh := range cohorts {
		stats, err := svc.src.Cohort.Stats(ctx, coh.ID)
		if err != nil {
			return err
		}
		res.Rows = append(res.Rows, map[string]interface{}{
			"cohort_id":       stats.CohortID,
			"name":            stats.Name,
			"status":          coh.Status,
			"total_students":  stats.TotalStudents,
			"by_status":       stats.ByStatus,
			"graduation_rate": stats.GraduationRate,
			"pass_rate":       stats.PassRate,
			"avg_score":       stats.AvgAssessmentScore,
			"clinical_hours":  stats.TotalClinicalHours,
		})
		totalStudents += stats.TotalStudents
		totalGraduated += stats.ByStatus[cohort.StudentGraduated]
	}
	res.Summary["cohorts"] = len(cohorts)
	res.Summary["total_students"] = totalStudents
	if totalStudents > 0 {
		res.Summary["graduation_rate"] = float64(totalGraduated) / float64(totalStudents)
	}
	return nil
}

func (svc *service) runAssessmentStats(ctx context.Context, res *Result) error {
	scenarios, err := svc.src.Lab.Scenarios(ctx)
	if err != nil {
		return err
	}

	var totalAssessments int
	for _, scn := range scenarios {
		rec, err := svc.src.Lab.RecommendDifficulty(ctx, scn.ID)
		if err != nil {
			return err
		}
		res.Rows = append(res.Rows, map[string]interface{}{
			"scenario_id": scn.ID,
			"title":       scn.Title,
			"category":    scn.Category,
			"difficulty":  scn.Difficulty,
			"assessments": rec.SampleSize,
			"pass_rate":   rec.PassRate,
			"recommended": rec.Recommended,
		})
		totalAssessments += rec.SampleSize
	}
	res.Summary["scenarios"] = len(scenarios)
	res.Summary["total_assessments"] = totalAssessments
	return nil
}

func (svc *service) runShiftCoverage(ctx context.Context, tmpl Template, res *Result) error {
	to := paramTime(tmpl.Params, "to", time.Now().UTC())
	from := paramTime(tmpl.Params, "from", to.Add(-defaultCoverageWindow))

	shifts, err := svc.src.Schedule.Shifts(ctx, from, to)
	if err != nil {
		return err
	}
	coverage, err := svc.src.Schedule.ShiftCoverage(ctx, from, to)
	if err != nil {
		return err
	}

	var totalSlots, totalFilled int
	for _, sh := range shifts {
		filled := coverage[sh.ID]
		row := map[string]interface{}{
			"shift_id": sh.ID,
			"kind":     sh.Kind,
			"location": sh.Location,
			"date":     sh.Date,
			"slots":    sh.Slots,
			"filled":   filled,
		}
		if sh.Slots > 0 {
			row["fill_rate"] = float64(filled) / float64(sh.Slots)
		}
		res.Rows = append(res.Rows, row)
		totalSlots += sh.Slots
		totalFilled += filled
	}
	res.Summary["shifts"] = len(shifts)
	res.Summary["total_slots"] = totalSlots
	res.Summary["total_filled"] = totalFilled
	if totalSlots > 0 {
		res.Summary["fill_rate"] = float64(totalFilled) / float64(totalSlots)
	}
	return nil
}

func (svc *service) runClinicalHours(ctx context.Context, res *Result) error {
	hours, err := svc.src.Clinical.HoursByStudent(ctx)
	if err != nil {
		return err
	}

	var total float64
	for studentID, hrs := range hours {
		var reached []float64
		for _, threshold := range clinical.MilestoneThresholds {
			if hrs >= threshold {
				reached = append(reached, threshold)
			}
		}
		res.Rows = append(res.Rows, map[string]interface{}{
			"student_id": studentID,
			"hours":      hrs,
			"milestones": reached,
		})
		total += hrs
	}
	res.Summary["students"] = len(hours)
	res.Summary["total_hours"] = total
	return nil
}

func paramString(params map[string]interface{}, key string) string {
	if s, ok := params[key].(string); ok {
		return s
	}
	return ""
}

func paramTime(params map[string]interface{}, key string, fallback time.Time) time.Time {
	if s, ok := params[key].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return fallback
}
