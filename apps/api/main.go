package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/matibabu/apps/api/echo"
	"github.com/trezcool/matibabu/core"
	"github.com/trezcool/matibabu/core/clinical"
	"github.com/trezcool/matibabu/core/cohort"
	"github.com/trezcool/matibabu/core/jobs"
	"github.com/trezcool/matibabu/core/lab"
	"github.com/trezcool/matibabu/core/notification"
	"github.com/trezcool/matibabu/core/report"
	"github.com/trezcool/matibabu/core/schedule"
	"github.com/trezcool/matibabu/core/sysconfig"
	"github.com/trezcool/matibabu/core/user"
	emailsvc "github.com/trezcool/matibabu/services/email"
	logsvc "github.com/trezcool/matibabu/services/logger"
	"github.com/trezcool/matibabu/storage/database"
	sqlxrepos "github.com/trezcool/matibabu/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf)
	cohortSvc := cohort.NewService(sqlxrepos.NewCohortRepository(db))
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db))
	labSvc := lab.NewService(sqlxrepos.NewLabRepository(db), instructorChecker(usrSvc))
	clinicalSvc := clinical.NewService(sqlxrepos.NewClinicalRepository(db))
	scheduleSvc := schedule.NewService(sqlxrepos.NewScheduleRepository(db), usrSvc, mailSvc, notifSvc.Notify)
	configSvc := sysconfig.NewService(sqlxrepos.NewSysconfigRepository(db))
	reportSvc := report.NewService(sqlxrepos.NewReportRepository(db), report.Sources{
		Cohort:   cohortSvc,
		Lab:      labSvc,
		Schedule: scheduleSvc,
		Clinical: clinicalSvc,
	})
	jobRunner := jobs.NewRunner(jobs.Deps{
		UserSvc:     usrSvc,
		CohortSvc:   cohortSvc,
		ScheduleSvc: scheduleSvc,
		ClinicalSvc: clinicalSvc,
		NotifSvc:    notifSvc,
		MailSvc:     mailSvc,
		Ping:        database.Pinger(db),
		Logger:      logger,
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			Validate:    validate,
			Translator:  translator,
			UserSvc:     usrSvc,
			CohortSvc:   cohortSvc,
			LabSvc:      labSvc,
			ScheduleSvc: scheduleSvc,
			ClinicalSvc: clinicalSvc,
			NotifSvc:    notifSvc,
			ReportSvc:   reportSvc,
			ConfigSvc:   configSvc,
			JobRunner:   jobRunner,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func instructorChecker(svc user.Service) lab.InstructorChecker {
	return func(ctx context.Context, userID string) (bool, error) {
		usr, err := svc.GetByID(ctx, userID)
		if err != nil {
			return false, err
		}
		return usr.IsInstructor(), nil
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
