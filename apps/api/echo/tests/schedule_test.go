package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/matibabu/core/schedule"
	"github.com/trezcool/matibabu/core/user"
	"github.com/trezcool/matibabu/tests"
)

func createShift(t *testing.T, kind string, slots int, date ...time.Time) schedule.Shift {
	t.Helper()
	d := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 7)
	if len(date) > 0 {
		d = date[0]
	}
	shift, err := schedSvc.CreateShift(context.Background(), schedule.NewShift{
		Date:      d,
		StartTime: "08:00",
		EndTime:   "16:00",
		Location:  "Station 3",
		Kind:      kind,
		Slots:     slots,
	})
	if err != nil {
		t.Fatalf("createShift() failed: %v", err)
	}
	return shift
}

func Test_scheduleApi_shiftCRUD(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)

	shift := createShift(t, schedule.KindField, 4)

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/shifts", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required to create", method: http.MethodPost, path: "/v1/shifts", token: studentToken,
			body:     marchallObj(t, schedule.NewShift{Date: shift.Date, StartTime: "08:00", EndTime: "16:00", Location: "Station 3", Kind: schedule.KindField, Slots: 2}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Create: required fields", method: http.MethodPost, path: "/v1/shifts", token: adminToken,
			body:     marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"date":       "this field is required",
				"start_time": "this field is required",
				"end_time":   "this field is required",
				"location":   "this field is required",
				"kind":       "this field is required",
				"slots":      "this field is required",
			}),
		},
		{
			name: "Create: bad kind and slots", method: http.MethodPost, path: "/v1/shifts", token: adminToken,
			body: marchallObj(t, map[string]interface{}{
				"date": shift.Date, "start_time": "08:00", "end_time": "16:00",
				"location": "Station 3", "kind": "party", "slots": -1,
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"kind":  "kind must be one of [field clinical event]",
				"slots": "slots must be 1 or greater",
			}),
		},
		{
			name: "Create: bad times", method: http.MethodPost, path: "/v1/shifts", token: adminToken,
			body: marchallObj(t, map[string]interface{}{
				"date": shift.Date, "start_time": "8am", "end_time": "25:00",
				"location": "Station 3", "kind": schedule.KindField, "slots": 2,
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"start_time": "must be a 24-hour time (HH:MM)",
				"end_time":   "must be a 24-hour time (HH:MM)",
			}),
		},
		{
			name: "List: default range", method: http.MethodGet, path: "/v1/shifts", token: studentToken,
			wantCode: http.StatusOK, wantData: marchallList(t, shift),
		},
		{
			name: "List: out-of-range window is empty", method: http.MethodGet, path: "/v1/shifts?from=2020-01-01&to=2020-01-31", token: studentToken,
			wantCode: http.StatusOK, wantData: []byte("[]"),
		},
		{
			name: "List: invalid date param", method: http.MethodGet, path: "/v1/shifts?from=someday", token: studentToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"from": "invalid date"}),
		},
		{
			name: "Retrieve unknown is 404", method: http.MethodGet, path: "/v1/shifts/lol", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Retrieve", method: http.MethodGet, path: "/v1/shifts/" + shift.ID, token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, shift),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	var created schedule.Shift
	t.Run("Create", func(t *testing.T) {
		body := marchallObj(t, schedule.NewShift{
			Date: shift.Date.AddDate(0, 0, 1), StartTime: "18:00", EndTime: "06:00",
			Location: "County ER", Kind: schedule.KindClinical, Slots: 2,
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/shifts", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if created.ID == "" || created.Location != "County ER" || created.Slots != 2 {
			t.Errorf("unexpected shift: %+v", created)
		}
	})

	t.Run("Update", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{"location": "Station 9", "slots": 3})
		req, rec := newAuthRequest(http.MethodPut, "/v1/shifts/"+created.ID, adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated schedule.Shift
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if updated.Location != "Station 9" || updated.Slots != 3 {
			t.Errorf("unexpected shift: %+v", updated)
		}
		if updated.Kind != created.Kind || updated.StartTime != created.StartTime {
			t.Errorf("unchanged fields were clobbered: %+v", updated)
		}
	})

	t.Run("Destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/shifts?id="+created.ID, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
		if _, err := schedSvc.GetShift(context.Background(), created.ID); err != schedule.ErrShiftNotFound {
			t.Errorf("shift not deleted; err %v", err)
		}
	})
}

func Test_scheduleApi_signups(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	stud1 := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	stud2 := testutil.CreateUser(t, usrRepo, "King", "king", "king@test.cd", "", []string{user.RoleStudent}, true)
	stud3 := testutil.CreateUser(t, usrRepo, "Queen", "queen", "queen@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)
	stud1Token := getToken(t, stud1)
	stud2Token := getToken(t, stud2)
	stud3Token := getToken(t, stud3)

	shift := createShift(t, schedule.KindField, 2)

	signUp := func(t *testing.T, token string) schedule.Signup {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/shifts/"+shift.ID+"/signups", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var su schedule.Signup
		if err := json.Unmarshal(rec.Body.Bytes(), &su); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		return su
	}

	var su1 schedule.Signup
	t.Run("Sign up", func(t *testing.T) {
		su1 = signUp(t, stud1Token)
		if su1.ShiftID != shift.ID || su1.UserID != stud1.ID || su1.Status != schedule.SignupActive {
			t.Errorf("unexpected signup: %+v", su1)
		}
	})

	tests := []httpTest{
		{
			name: "Unknown shift is 404", method: http.MethodPost, path: "/v1/shifts/lol/signups", token: stud1Token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "No double signup", method: http.MethodPost, path: "/v1/shifts/" + shift.ID + "/signups", token: stud1Token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: schedule.ErrAlreadySignedUp.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Capacity is enforced", func(t *testing.T) {
		signUp(t, stud2Token)

		req, rec := newAuthRequest(http.MethodPost, "/v1/shifts/"+shift.ID+"/signups", stud3Token)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: schedule.ErrShiftFull.Error()})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("My signups", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/signups", stud1Token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var signups []schedule.Signup
		if err := json.Unmarshal(rec.Body.Bytes(), &signups); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(signups) != 1 || signups[0].ID != su1.ID {
			t.Errorf("unexpected signups: %+v", signups)
		}
	})

	t.Run("Roster is staff only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/shifts/"+shift.ID+"/roster", stud1Token)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Roster", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/shifts/"+shift.ID+"/roster", adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var signups []schedule.Signup
		if err := json.Unmarshal(rec.Body.Bytes(), &signups); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(signups) != 2 {
			t.Errorf("unexpected roster: %+v", signups)
		}
	})

	t.Run("Coverage", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/shifts/coverage", adminToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, map[string]int{shift.ID: 2})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Only the owner may cancel", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/signups/"+su1.ID, stud2Token)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Cancel frees the slot", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/signups/"+su1.ID, stud1Token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		var su schedule.Signup
		if err := json.Unmarshal(rec.Body.Bytes(), &su); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if su.Status != schedule.SignupCancelled {
			t.Errorf("unexpected status: %v", su.Status)
		}

		signUp(t, stud3Token)
	})

	t.Run("Cancel unknown is 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/signups/lol", stud1Token)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_scheduleApi_trades(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdminCoordinator}, true)
	requester := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	counterparty := testutil.CreateUser(t, usrRepo, "King", "king", "king@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, usrRepo, "Queen", "queen", "queen@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)
	requesterToken := getToken(t, requester)
	counterpartyToken := getToken(t, counterparty)
	otherToken := getToken(t, other)

	ctx := context.Background()
	shift := createShift(t, schedule.KindField, 2)
	signup, err := schedSvc.SignUp(ctx, shift.ID, requester.ID)
	if err != nil {
		t.Fatalf("SignUp() failed: %v", err)
	}

	requestTrade := func(t *testing.T, token string, nt schedule.NewTradeRequest) schedule.TradeRequest {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/trades", token, marchallObj(t, nt))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var tr schedule.TradeRequest
		if err := json.Unmarshal(rec.Body.Bytes(), &tr); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		return tr
	}
	resolve := func(t *testing.T, token, tradeID, action string, wantCode int, wantData []byte) schedule.TradeRequest {
		t.Helper()
		body := marchallObj(t, schedule.TradeAction{Action: action})
		req, rec := newAuthRequest(http.MethodPost, "/v1/trades/"+tradeID+"/action", token, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: wantCode, wantData: wantData}, rec)
		var tr schedule.TradeRequest
		if rec.Code == http.StatusOK && wantData == nil {
			if err := json.Unmarshal(rec.Body.Bytes(), &tr); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
		}
		return tr
	}
	errInvalidTransition := marchallObj(t, httpErr{Error: schedule.ErrInvalidTransition.Error()})
	errForbidden := marchallObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{
			name: "Request: required fields", method: http.MethodPost, path: "/v1/trades", token: requesterToken,
			body:     marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"signup_id":  "this field is required",
				"to_user_id": "this field is required",
			}),
		},
		{
			name: "Request: no self trade", method: http.MethodPost, path: "/v1/trades", token: requesterToken,
			body:     marchallObj(t, schedule.NewTradeRequest{SignupID: signup.ID, ToUserID: requester.ID}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"to_user_id": schedule.ErrSelfTrade.Error()}),
		},
		{
			name: "Request: unknown counterparty", method: http.MethodPost, path: "/v1/trades", token: requesterToken,
			body:     marchallObj(t, schedule.NewTradeRequest{SignupID: signup.ID, ToUserID: "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"to_user_id": user.ErrNotFound.Error()}),
		},
		{
			name: "Request: not the signup owner", method: http.MethodPost, path: "/v1/trades", token: otherToken,
			body:     marchallObj(t, schedule.NewTradeRequest{SignupID: signup.ID, ToUserID: counterparty.ID}),
			wantCode: http.StatusForbidden, wantData: errForbidden,
		},
		{
			name: "Request: unknown signup is 404", method: http.MethodPost, path: "/v1/trades", token: requesterToken,
			body:     marchallObj(t, schedule.NewTradeRequest{SignupID: "lol", ToUserID: counterparty.ID}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	var trade schedule.TradeRequest
	t.Run("Request", func(t *testing.T) {
		trade = requestTrade(t, requesterToken, schedule.NewTradeRequest{
			SignupID: signup.ID,
			ToUserID: counterparty.ID,
			Reason:   "family emergency",
		})
		if trade.Status != schedule.TradePending || trade.FromUserID != requester.ID || trade.ToUserID != counterparty.ID {
			t.Errorf("unexpected trade: %+v", trade)
		}
	})

	t.Run("Non-parties see nothing", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/trades", otherToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}, rec)

		req, rec = newAuthRequest(http.MethodGet, "/v1/trades/"+trade.ID, otherToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("Parties and admins see the trade", func(t *testing.T) {
		for _, token := range []string{requesterToken, counterpartyToken, adminToken} {
			req, rec := newAuthRequest(http.MethodGet, "/v1/trades/"+trade.ID, token)
			app.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
			}
		}

		req, rec := newAuthRequest(http.MethodGet, "/v1/trades?status=pending", requesterToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var trades []schedule.TradeRequest
		if err := json.Unmarshal(rec.Body.Bytes(), &trades); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(trades) != 1 || trades[0].ID != trade.ID {
			t.Errorf("unexpected trades: %+v", trades)
		}
	})

	t.Run("Action: required and oneof", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/trades/"+trade.ID+"/action", counterpartyToken, marchallObj(t, map[string]string{}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"action": "this field is required"}),
		}, rec)

		req, rec = newAuthRequest(http.MethodPost, "/v1/trades/"+trade.ID+"/action", counterpartyToken, marchallObj(t, schedule.TradeAction{Action: "explode"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"action": "action must be one of [accept decline approve cancel]"}),
		}, rec)
	})

	t.Run("Only the counterparty may accept", func(t *testing.T) {
		resolve(t, requesterToken, trade.ID, schedule.ActionAccept, http.StatusForbidden, errForbidden)
	})

	t.Run("Pending cannot be approved", func(t *testing.T) {
		resolve(t, adminToken, trade.ID, schedule.ActionApprove, http.StatusBadRequest, errInvalidTransition)
	})

	t.Run("Accept", func(t *testing.T) {
		tr := resolve(t, counterpartyToken, trade.ID, schedule.ActionAccept, http.StatusOK, nil)
		if tr.Status != schedule.TradeAccepted || tr.RespondedAt.IsZero() {
			t.Errorf("unexpected trade: %+v", tr)
		}
	})

	t.Run("Accept is not repeatable", func(t *testing.T) {
		resolve(t, counterpartyToken, trade.ID, schedule.ActionAccept, http.StatusBadRequest, errInvalidTransition)
	})

	t.Run("Only admins may decide an accepted trade", func(t *testing.T) {
		resolve(t, counterpartyToken, trade.ID, schedule.ActionApprove, http.StatusForbidden, errForbidden)
		resolve(t, otherToken, trade.ID, schedule.ActionDecline, http.StatusForbidden, errForbidden)
	})

	t.Run("Approve swaps the signups", func(t *testing.T) {
		tr := resolve(t, adminToken, trade.ID, schedule.ActionApprove, http.StatusOK, nil)
		if tr.Status != schedule.TradeApproved || tr.DecidedBy != admin.ID || tr.DecidedAt.IsZero() {
			t.Errorf("unexpected trade: %+v", tr)
		}

		su, err := schedSvc.UserSignups(ctx, requester.ID)
		if err != nil {
			t.Fatalf("UserSignups() failed: %v", err)
		}
		if len(su) != 1 || su[0].Status != schedule.SignupTraded {
			t.Errorf("requester signup not retired: %+v", su)
		}
		su, err = schedSvc.UserSignups(ctx, counterparty.ID)
		if err != nil {
			t.Fatalf("UserSignups() failed: %v", err)
		}
		if len(su) != 1 || su[0].Status != schedule.SignupActive || su[0].ShiftID != shift.ID {
			t.Errorf("counterparty signup not created: %+v", su)
		}
	})

	t.Run("Terminal trades reject further actions", func(t *testing.T) {
		resolve(t, requesterToken, trade.ID, schedule.ActionCancel, http.StatusBadRequest, errInvalidTransition)
	})

	t.Run("Decline", func(t *testing.T) {
		su, err := schedSvc.SignUp(ctx, shift.ID, requester.ID)
		if err != nil {
			t.Fatalf("SignUp() failed: %v", err)
		}
		tr := requestTrade(t, requesterToken, schedule.NewTradeRequest{SignupID: su.ID, ToUserID: other.ID})

		declined := resolve(t, otherToken, tr.ID, schedule.ActionDecline, http.StatusOK, nil)
		if declined.Status != schedule.TradeDeclined || declined.RespondedAt.IsZero() {
			t.Errorf("unexpected trade: %+v", declined)
		}
	})

	t.Run("Only the requester may cancel", func(t *testing.T) {
		signups, err := schedSvc.UserSignups(ctx, counterparty.ID)
		if err != nil {
			t.Fatalf("UserSignups() failed: %v", err)
		}
		tr := requestTrade(t, counterpartyToken, schedule.NewTradeRequest{SignupID: signups[0].ID, ToUserID: other.ID})

		resolve(t, otherToken, tr.ID, schedule.ActionCancel, http.StatusForbidden, errForbidden)

		cancelled := resolve(t, counterpartyToken, tr.ID, schedule.ActionCancel, http.StatusOK, nil)
		if cancelled.Status != schedule.TradeCancelled {
			t.Errorf("unexpected trade: %+v", cancelled)
		}
	})
}

func Test_scheduleApi_availability(t *testing.T) {
	resetDB(t)

	stud := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	studToken := getToken(t, stud)

	monday := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	wednesday := monday.AddDate(0, 0, 2)

	t.Run("Submit: required fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/availability", studToken, marchallObj(t, map[string]string{}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"week_start": "this field is required"}),
		}, rec)
	})

	var av schedule.Availability
	t.Run("Submit snaps to Monday", func(t *testing.T) {
		body := marchallObj(t, schedule.SubmitAvailability{
			WeekStart: wednesday,
			Days:      [7]bool{true, true, false, false, true, false, false},
			Note:      "mornings only",
		})
		req, rec := newAuthRequest(http.MethodPut, "/v1/availability", studToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &av); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if !av.WeekStart.Equal(monday) || av.UserID != stud.ID || av.Note != "mornings only" {
			t.Errorf("unexpected availability: %+v", av)
		}
	})

	t.Run("Resubmit upserts", func(t *testing.T) {
		body := marchallObj(t, schedule.SubmitAvailability{WeekStart: monday, Days: [7]bool{}, Note: "out all week"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/availability", studToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated schedule.Availability
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if updated.ID != av.ID || updated.Note != "out all week" {
			t.Errorf("unexpected availability: %+v", updated)
		}
		av = updated
	})

	tests := []httpTest{
		{
			name: "Get: invalid week", method: http.MethodGet, path: "/v1/availability?week_start=someday", token: studToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"week_start": "invalid date"}),
		},
		{
			name: "Get: week param is required", method: http.MethodGet, path: "/v1/availability", token: studToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"week_start": "invalid date"}),
		},
		{
			name: "Get: no submission is 404", method: http.MethodGet, path: "/v1/availability?week_start=2026-10-05", token: studToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Get", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/availability?week_start=2026-09-07", studToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, av)}, rec)
	})
}
