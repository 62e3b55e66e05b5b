package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
)

type (
	// ServerDeps holds everything the API server needs to run.
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc     user.Service
		CohortSvc   cohort.Service
		LabSvc      lab.Service
		ScheduleSvc schedule.Service
		ClinicalSvc clinical.Service
		NotifSvc    notification.Service
		ReportSvc   report.Service
		ConfigSvc   sysconfig.Service
		JobRunner   *jobs.Runner
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	initAuth(authConfig{
		secretKey:              deps.Conf.SecretKey,
		appName:                deps.Conf.AppName,
		expirationDelta:        deps.Conf.Server.JWTExpirationDelta,
		refreshExpirationDelta: deps.Conf.Server.JWTRefreshExpirationDelta,
	})

	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps.UserSvc, s.deps.Validate)
	registerCohortAPI(v1, jwt, s.deps.CohortSvc, s.deps.Validate)
	registerLabAPI(v1, jwt, s.deps.LabSvc, s.deps.Validate)
	registerScheduleAPI(v1, jwt, s.deps.ScheduleSvc, s.deps.UserSvc, s.deps.Validate)
	registerClinicalAPI(v1, jwt, s.deps.ClinicalSvc, s.deps.CohortSvc, s.deps.Validate)
	registerNotificationAPI(v1, jwt, s.deps.NotifSvc, s.deps.Validate)
	registerReportAPI(v1, jwt, s.deps.ReportSvc, s.deps.Validate)
	registerConfigAPI(v1, jwt, s.deps.ConfigSvc, s.deps.Validate)
	registerCronAPI(v1, conf.CronSecret, s.deps.JobRunner)
}

// Start runs the listener; ListenAndServe errors land on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Matibabu API!")
}
