package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/matibabu/apps/api/echo"
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
	"github.com/trezcool/matibabu/services/email"
	"github.com/trezcool/matibabu/services/logger"
	"github.com/trezcool/matibabu/storage/database/inmem"
)

var (
	conf *core.Config
	app  *Server
	db   *inmemdb.DB

	usrRepo      user.Repository
	cohortRepo   cohort.Repository
	labRepo      lab.Repository
	schedRepo    schedule.Repository
	clinicalRepo clinical.Repository
	notifRepo    notification.Repository
	reportRepo   report.Repository
	configRepo   sysconfig.Repository

	usrSvc      user.Service
	cohortSvc   cohort.Service
	labSvc      lab.Service
	schedSvc    schedule.Service
	clinicalSvc clinical.Service
	notifSvc    notification.Service
	reportSvc   report.Service
	configSvc   sysconfig.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

const testCronSecret = "test-cron-secret"

func TestMain(m *testing.M) {
	conf = core.NewTestConfig()
	conf.CronSecret = testCronSecret

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", 0), conf)
	logger.Enable(false)

	// set up repos
	db = inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	cohortRepo = inmemdb.NewCohortRepository(db)
	labRepo = inmemdb.NewLabRepository(db)
	schedRepo = inmemdb.NewScheduleRepository(db)
	clinicalRepo = inmemdb.NewClinicalRepository(db)
	notifRepo = inmemdb.NewNotificationRepository(db)
	reportRepo = inmemdb.NewReportRepository(db)
	configRepo = inmemdb.NewSysconfigRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc = user.NewServiceMock(usrRepo, mailSvc, conf)
	cohortSvc = cohort.NewService(cohortRepo)
	notifSvc = notification.NewService(notifRepo)
	labSvc = lab.NewService(labRepo, instructorChecker(usrSvc))
	clinicalSvc = clinical.NewService(clinicalRepo)
	schedSvc = schedule.NewService(schedRepo, usrSvc, mailSvc, notifSvc.Notify)
	configSvc = sysconfig.NewService(configRepo)
	reportSvc = report.NewService(reportRepo, report.Sources{
		Cohort:   cohortSvc,
		Lab:      labSvc,
		Schedule: schedSvc,
		Clinical: clinicalSvc,
	})

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)

	runner := jobs.NewRunner(jobs.Deps{
		UserSvc:     usrSvc,
		CohortSvc:   cohortSvc,
		ScheduleSvc: schedSvc,
		ClinicalSvc: clinicalSvc,
		NotifSvc:    notifSvc,
		MailSvc:     mailSvc,
		Ping:        func(ctx context.Context) error { return nil },
		Logger:      logger,
	})

	app = NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		UserSvc:     usrSvc,
		CohortSvc:   cohortSvc,
		LabSvc:      labSvc,
		ScheduleSvc: schedSvc,
		ClinicalSvc: clinicalSvc,
		NotifSvc:    notifSvc,
		ReportSvc:   reportSvc,
		ConfigSvc:   configSvc,
		JobRunner:   runner,
	})

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
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

func resetDB(t *testing.T) {
	t.Helper()
	db.Reset()
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil { // only the code matters
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
