package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/trezcool/matibabu/core"
	"github.com/trezcool/matibabu/core/clinical"
	"github.com/trezcool/matibabu/core/cohort"
	"github.com/trezcool/matibabu/core/jobs"
	"github.com/trezcool/matibabu/core/notification"
	"github.com/trezcool/matibabu/core/schedule"
	"github.com/trezcool/matibabu/core/user"
	emailsvc "github.com/trezcool/matibabu/services/email"
	logsvc "github.com/trezcool/matibabu/services/logger"
	"github.com/trezcool/matibabu/storage/database"
	sqlxrepos "github.com/trezcool/matibabu/storage/database/sqlx"
)

// job schedules, local time
var schedules = map[string]string{
	jobs.CertExpiry:           "0 7 * * *",
	jobs.AvailabilityReminder: "0 16 * * 5", // Friday afternoon, for the following week
	jobs.InternshipMilestones: "30 7 * * *",
	jobs.SystemHealth:         "*/15 * * * *",
}

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "CRON : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf)
	cohortSvc := cohort.NewService(sqlxrepos.NewCohortRepository(db))
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db))
	clinicalSvc := clinical.NewService(sqlxrepos.NewClinicalRepository(db))
	scheduleSvc := schedule.NewService(sqlxrepos.NewScheduleRepository(db), usrSvc, mailSvc, notifSvc.Notify)

	runner := jobs.NewRunner(jobs.Deps{
		UserSvc:     usrSvc,
		CohortSvc:   cohortSvc,
		ScheduleSvc: scheduleSvc,
		ClinicalSvc: clinicalSvc,
		NotifSvc:    notifSvc,
		MailSvc:     mailSvc,
		Ping:        database.Pinger(db),
		Logger:      logger,
	})

	core.ParseEmailTemplates(conf, logger)

	c := cron.New()
	for _, name := range jobs.Names() {
		spec, ok := schedules[name]
		if !ok {
			continue
		}
		name := name
		if _, err = c.AddFunc(spec, func() {
			if err := runner.Run(context.Background(), name); err != nil {
				logger.Error(fmt.Sprintf("job %q: %v", name, err), err)
			}
		}); err != nil {
			logger.Fatal(fmt.Sprintf("scheduling job %q: %v", name, err), err)
		}
	}

	logger.Info(fmt.Sprintf("Scheduler starting : version %q : %d jobs", conf.Build, len(schedules)))
	c.Start()
	defer c.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info(fmt.Sprintf("%v: stopping scheduler...", sig))
}
