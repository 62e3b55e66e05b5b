package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/matibabu/core/cohort"
	"github.com/trezcool/matibabu/core/user"
	"github.com/trezcool/matibabu/tests"
)

func Test_cohortApi_cohortCRUD(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	instructor := testutil.CreateUser(t, usrRepo, "Instructor", "instruct", "instruct@test.cd", "", []string{user.RoleInstructor}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, admin)
	instructorToken := getToken(t, instructor)
	studentToken := getToken(t, student)

	start := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	coh := testutil.CreateCohort(t, cohortRepo, "Fall 2026 Paramedic", cohort.StatusActive, start, end)

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/cohorts", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Staff required", method: http.MethodGet, path: "/v1/cohorts", token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Instructors can list", method: http.MethodGet, path: "/v1/cohorts", token: instructorToken,
			wantCode: http.StatusOK, wantData: marchallList(t, coh),
		},
		{
			name: "Admin required to create", method: http.MethodPost, path: "/v1/cohorts", token: instructorToken,
			body:     marchallObj(t, cohort.NewCohort{Name: "Spring 2027", StartDate: start, EndDate: end}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Create: required fields", method: http.MethodPost, path: "/v1/cohorts", token: adminToken,
			body:     marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":       "this field is required",
				"start_date": "this field is required",
				"end_date":   "this field is required",
			}),
		},
		{
			name: "Create: end must be after start", method: http.MethodPost, path: "/v1/cohorts", token: adminToken,
			body:     marchallObj(t, cohort.NewCohort{Name: "Bad Dates", StartDate: end, EndDate: start}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"end_date": "end_date must be greater than StartDate"}),
		},
		{
			name: "Retrieve unknown is 404", method: http.MethodGet, path: "/v1/cohorts/lol", token: instructorToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Retrieve", method: http.MethodGet, path: "/v1/cohorts/" + coh.ID, token: instructorToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, coh),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_cohortApi_enrollment(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	hero := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	king := testutil.CreateUser(t, usrRepo, "King", "king", "king@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, admin)

	start := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	active := testutil.CreateCohort(t, cohortRepo, "Fall 2026", cohort.StatusActive, start, end)
	archived := testutil.CreateCohort(t, cohortRepo, "Fall 2020", cohort.StatusArchived, start.AddDate(-6, 0, 0), end.AddDate(-6, 0, 0))

	stu := testutil.CreateStudent(t, cohortRepo, hero.ID, active.ID, cohort.CertEMT, time.Time{})

	tests := []httpTest{
		{
			name: "Enroll: required fields", method: http.MethodPost, path: "/v1/cohorts/" + active.ID + "/students", token: adminToken,
			body:     marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"user_id":    "this field is required",
				"cert_level": "this field is required",
			}),
		},
		{
			name: "Enroll: bad cert level", method: http.MethodPost, path: "/v1/cohorts/" + active.ID + "/students", token: adminToken,
			body:     marchallObj(t, cohort.EnrollStudent{UserID: king.ID, CertLevel: "Wizard"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"cert_level": "cert_level must be one of [EMT AEMT Paramedic]"}),
		},
		{
			name: "Enroll: closed cohort", method: http.MethodPost, path: "/v1/cohorts/" + archived.ID + "/students", token: adminToken,
			body:     marchallObj(t, cohort.EnrollStudent{UserID: king.ID, CertLevel: cohort.CertEMT}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "cohort is not open for enrollment"}),
		},
		{
			name: "Enroll: already enrolled", method: http.MethodPost, path: "/v1/cohorts/" + active.ID + "/students", token: adminToken,
			body:     marchallObj(t, cohort.EnrollStudent{UserID: hero.ID, CertLevel: cohort.CertEMT}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"user_id": "user already has an active enrollment"}),
		},
		{
			name: "Enroll", method: http.MethodPost, path: "/v1/cohorts/" + active.ID + "/students", token: adminToken,
			body:     marchallObj(t, cohort.EnrollStudent{UserID: king.ID, CertLevel: cohort.CertAEMT}),
			wantCode: http.StatusCreated,
		},
		{
			name: "Transfer: unknown cohort is 404", method: http.MethodPost, path: "/v1/students/" + stu.ID + "/transfer", token: adminToken,
			body:     marchallObj(t, map[string]string{"cohort_id": "lol"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Transfer: closed cohort", method: http.MethodPost, path: "/v1/students/" + stu.ID + "/transfer", token: adminToken,
			body:     marchallObj(t, map[string]string{"cohort_id": archived.ID}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "cohort is not open for enrollment"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Roster", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/cohorts/"+active.ID+"/students", adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
	})
}
