// Package jobs implements the scheduled maintenance tasks. They run on an
// interval from the cron app and can be triggered over HTTP for one-off runs.
package jobs

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core"
	"github.com/trezcool/matibabu/core/clinical"
	"github.com/trezcool/matibabu/core/cohort"
	"github.com/trezcool/matibabu/core/notification"
	"github.com/trezcool/matibabu/core/schedule"
	"github.com/trezcool/matibabu/core/user"
)

// job names, as addressed by the cron app and the trigger endpoint
const (
	CertExpiry           = "cert-expiry"
	AvailabilityReminder = "availability-reminder"
	InternshipMilestones = "internship-milestones"
	SystemHealth         = "system-health"
)

// CertExpiryThresholds are the days-to-expiry marks at which students are warned.
var CertExpiryThresholds = []int{90, 60, 30, 14}

// staleTradeAge is how long a trade may sit pending before the health check flags it.
const staleTradeAge = 72 * time.Hour

var ErrUnknownJob = errors.New("unknown job")

type (
	// Pinger reports whether the database is reachable.
	Pinger func(ctx context.Context) error

	Deps struct {
		UserSvc     user.Service
		CohortSvc   cohort.Service
		ScheduleSvc schedule.Service
		ClinicalSvc clinical.Service
		NotifSvc    notification.Service
		MailSvc     core.EmailService
		Ping        Pinger
		Logger      core.Logger
	}

	Runner struct {
		deps    Deps
		nowFunc func() time.Time // mocked in tests
	}
)

func NewRunner(deps Deps) *Runner {
	return &Runner{deps: deps, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// Names lists the registered job names.
func Names() []string {
	return []string{CertExpiry, AvailabilityReminder, InternshipMilestones, SystemHealth}
}

// Run executes the named job.
func (r *Runner) Run(ctx context.Context, name string) error {
	start := r.nowFunc()
	var err error
	switch name {
	case CertExpiry:
		err = r.runCertExpiry(ctx)
	case AvailabilityReminder:
		err = r.runAvailabilityReminder(ctx)
	case InternshipMilestones:
		err = r.runInternshipMilestones(ctx)
	case SystemHealth:
		err = r.runSystemHealth(ctx)
	default:
		return ErrUnknownJob
	}
	if err != nil {
		r.deps.Logger.Error(fmt.Sprintf("jobs: %s failed: %v", name, err), err)
		return err
	}
	r.deps.Logger.Info(fmt.Sprintf("jobs: %s completed in %s", name, r.nowFunc().Sub(start)))
	return nil
}

// runCertExpiry warns students whose certification expires at one of the
// threshold marks. A lookback on prior notifications keeps re-runs within the
// same day from double-notifying.
func (r *Runner) runCertExpiry(ctx context.Context) error {
	today := r.nowFunc().Truncate(24 * time.Hour)
	lookback := r.nowFunc().Add(-23 * time.Hour)

	var msgs []*core.EmailMessage
	for _, days := range CertExpiryThresholds {
		day := today.AddDate(0, 0, days)
		students, err := r.deps.CohortSvc.StudentsByCertExpiry(ctx, day)
		if err != nil {
			return errors.Wrapf(err, "querying cert expiries at %d days", days)
		}

		for _, stu := range students {
			usr, err := r.deps.UserSvc.GetByID(ctx, stu.UserID)
			if err != nil {
				r.deps.Logger.Warn(fmt.Sprintf("jobs: cert-expiry: user %s not found", stu.UserID))
				continue
			}
			n, err := r.deps.NotifSvc.CountRecent(ctx, usr.ID, "cert_expiry", lookback)
			if err != nil {
				return err
			}
			if n > 0 {
				continue
			}

			title := "Certification expiring soon"
			body := fmt.Sprintf("Your %s certification expires in %d days (%s).",
				stu.CertLevel, days, stu.CertExpiry.Format("Jan 2, 2006"))
			if err = r.deps.NotifSvc.Notify(ctx, usr.ID, "cert_expiry", title, body); err != nil {
				return err
			}
			if usr.Email != "" {
				msgs = append(msgs, &core.EmailMessage{
					To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
					Subject:      title,
					TemplateName: "cert-expiry",
					TemplateData: struct {
						Name, CertLevel, Expiry string
						Days                    int
					}{usr.Name, stu.CertLevel, stu.CertExpiry.Format("Jan 2, 2006"), days},
				})
			}
		}
	}
	if len(msgs) > 0 {
		r.deps.MailSvc.SendMessages(msgs...)
	}
	return nil
}

// runAvailabilityReminder nudges active instructors who have not submitted
// availability for the coming week.
func (r *Runner) runAvailabilityReminder(ctx context.Context) error {
	weekStart := nextMonday(r.nowFunc())

	submitted, err := r.deps.ScheduleSvc.UserIDsWithAvailability(ctx, weekStart)
	if err != nil {
		return errors.Wrap(err, "querying submitted availability")
	}
	submittedSet := make(map[string]struct{}, len(submitted))
	for _, id := range submitted {
		submittedSet[id] = struct{}{}
	}

	active := true
	instructors, err := r.deps.UserSvc.Filter(ctx, user.QueryFilter{Roles: []string{user.RoleInstructor}, IsActive: &active})
	if err != nil {
		return errors.Wrap(err, "querying instructors")
	}
	for _, usr := range instructors {
		if _, ok := submittedSet[usr.ID]; ok {
			continue
		}
		n, err := r.deps.NotifSvc.CountRecent(ctx, usr.ID, "availability_reminder", weekStart.AddDate(0, 0, -7))
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		body := fmt.Sprintf("Please submit your availability for the week of %s.", weekStart.Format("Jan 2"))
		if err = r.deps.NotifSvc.Notify(ctx, usr.ID, "availability_reminder", "Availability needed", body); err != nil {
			return err
		}
	}
	return nil
}

// runInternshipMilestones congratulates students crossing a cumulative
// clinical-hour mark. Each milestone notifies at most once, ever.
func (r *Runner) runInternshipMilestones(ctx context.Context) error {
	hours, err := r.deps.ClinicalSvc.HoursByStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "querying clinical hours")
	}

	var msgs []*core.EmailMessage
	for studentID, hrs := range hours {
		stu, err := r.deps.CohortSvc.GetStudent(ctx, studentID)
		if err != nil {
			r.deps.Logger.Warn(fmt.Sprintf("jobs: internship-milestones: student %s not found", studentID))
			continue
		}
		usr, err := r.deps.UserSvc.GetByID(ctx, stu.UserID)
		if err != nil {
			continue
		}

		for _, threshold := range clinical.MilestoneThresholds {
			if hrs < threshold {
				break
			}
			kind := fmt.Sprintf("clinical_milestone_%d", int(threshold))
			n, err := r.deps.NotifSvc.CountRecent(ctx, usr.ID, kind, time.Time{})
			if err != nil {
				return err
			}
			if n > 0 {
				continue
			}

			title := fmt.Sprintf("%d clinical hours reached", int(threshold))
			body := fmt.Sprintf("Congratulations! You have logged %.1f clinical hours.", hrs)
			if err = r.deps.NotifSvc.Notify(ctx, usr.ID, kind, title, body); err != nil {
				return err
			}
			if usr.Email != "" {
				msgs = append(msgs, &core.EmailMessage{
					To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
					Subject:      title,
					TemplateName: "milestone",
					TemplateData: struct {
						Name  string
						Hours int
					}{usr.Name, int(threshold)},
				})
			}
		}
	}
	if len(msgs) > 0 {
		r.deps.MailSvc.SendMessages(msgs...)
	}
	return nil
}

// runSystemHealth checks the database and the trade backlog, raising system
// alerts for anything off. Repeated findings are not re-alerted while an
// unresolved alert from the same source exists.
func (r *Runner) runSystemHealth(ctx context.Context) error {
	open, err := r.deps.NotifSvc.Alerts(ctx, true /* unresolvedOnly */)
	if err != nil {
		return errors.Wrap(err, "querying open alerts")
	}
	openSources := make(map[string]struct{}, len(open))
	for _, alert := range open {
		openSources[alert.Source] = struct{}{}
	}

	raise := func(severity, source, message string) error {
		if _, ok := openSources[source]; ok {
			return nil
		}
		_, err := r.deps.NotifSvc.RaiseAlert(ctx, notification.NewSystemAlert{
			Severity: severity,
			Source:   source,
			Message:  message,
		})
		return err
	}

	if err = r.deps.Ping(ctx); err != nil {
		if err = raise(notification.SeverityCritical, "database", fmt.Sprintf("database unreachable: %v", err)); err != nil {
			return err
		}
	}

	trades, err := r.deps.ScheduleSvc.Trades(ctx, schedule.TradeQueryFilter{Status: schedule.TradePending})
	if err != nil {
		return errors.Wrap(err, "querying pending trades")
	}
	var stale int
	cutoff := r.nowFunc().Add(-staleTradeAge)
	for _, tr := range trades {
		if tr.CreatedAt.Before(cutoff) {
			stale++
		}
	}
	if stale > 0 {
		msg := fmt.Sprintf("%d shift trade(s) pending for over %s", stale, staleTradeAge)
		if err = raise(notification.SeverityWarning, "trades", msg); err != nil {
			return err
		}
	}
	return nil
}

// nextMonday returns the start (00:00 UTC) of the upcoming Monday.
func nextMonday(t time.Time) time.Time {
	t = t.Truncate(24 * time.Hour)
	daysAhead := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	return t.AddDate(0, 0, daysAhead)
}
