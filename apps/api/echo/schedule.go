package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core"
	"github.com/trezcool/matibabu/core/schedule"
	"github.com/trezcool/matibabu/core/user"
)

type scheduleApi struct {
	svc      schedule.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc schedule.Service, usrSvc user.Service, validate *validator.Validate) {
	api := scheduleApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	sg := g.Group("/shifts", jwt)
	sg.POST("", api.createShift, adminMiddleware())
	sg.GET("", api.queryShifts)
	sg.DELETE("", api.destroyShifts, adminMiddleware())
	sg.GET("/coverage", api.coverage, staffMiddleware())
	sg.GET("/:id", api.retrieveShift)
	sg.PUT("/:id", api.updateShift, adminMiddleware())
	sg.GET("/:id/roster", api.roster, staffMiddleware())
	sg.POST("/:id/signups", api.signUp)

	sug := g.Group("/signups", jwt)
	sug.GET("", api.mySignups)
	sug.DELETE("/:id", api.cancelSignup)

	tg := g.Group("/trades", jwt)
	tg.POST("", api.requestTrade)
	tg.GET("", api.queryTrades)
	tg.GET("/:id", api.retrieveTrade)
	tg.POST("/:id/action", api.resolveTrade)

	avg := g.Group("/availability", jwt)
	avg.PUT("", api.submitAvailability)
	avg.GET("", api.myAvailability)
}

// Handlers

func (api *scheduleApi) createShift(ctx echo.Context) error {
	var data schedule.NewShift
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewShift")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	shift, err := api.svc.CreateShift(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating shift")
	}
	return ctx.JSON(http.StatusCreated, shift)
}

func (api *scheduleApi) queryShifts(ctx echo.Context) error {
	from, to, err := bindDateRange(ctx)
	if err != nil {
		return err
	}

	shifts, err := api.svc.Shifts(ctx.Request().Context(), from, to)
	if err != nil {
		return errors.Wrap(err, "querying shifts")
	}
	if shifts == nil {
		shifts = []schedule.Shift{}
	}
	return ctx.JSON(http.StatusOK, shifts)
}

func (api *scheduleApi) retrieveShift(ctx echo.Context) error {
	shift, err := api.svc.GetShift(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding shift by ID"), schedule.ErrShiftNotFound)
	}
	return ctx.JSON(http.StatusOK, shift)
}

func (api *scheduleApi) updateShift(ctx echo.Context) error {
	shift, err := api.svc.GetShift(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding shift by ID"), schedule.ErrShiftNotFound)
	}

	var data schedule.UpdateShift
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateShift")
	}
	if err := data.Validate(shift, api.validate); err != nil {
		return err
	}

	shift, err = api.svc.UpdateShift(ctx.Request().Context(), shift.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating shift")
	}
	return ctx.JSON(http.StatusOK, shift)
}

func (api *scheduleApi) destroyShifts(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeleteShifts(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting shifts")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) roster(ctx echo.Context) error {
	signups, err := api.svc.ShiftRoster(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "querying shift roster"), schedule.ErrShiftNotFound)
	}
	if signups == nil {
		signups = []schedule.Signup{}
	}
	return ctx.JSON(http.StatusOK, signups)
}

func (api *scheduleApi) coverage(ctx echo.Context) error {
	from, to, err := bindDateRange(ctx)
	if err != nil {
		return err
	}

	cov, err := api.svc.ShiftCoverage(ctx.Request().Context(), from, to)
	if err != nil {
		return errors.Wrap(err, "computing shift coverage")
	}
	return ctx.JSON(http.StatusOK, cov)
}

func (api *scheduleApi) signUp(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	signup, err := api.svc.SignUp(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return notFoundOr(errors.Wrap(err, "signing up for shift"), schedule.ErrShiftNotFound)
	}
	return ctx.JSON(http.StatusCreated, signup)
}

func (api *scheduleApi) mySignups(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	signups, err := api.svc.UserSignups(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying user signups")
	}
	if signups == nil {
		signups = []schedule.Signup{}
	}
	return ctx.JSON(http.StatusOK, signups)
}

func (api *scheduleApi) cancelSignup(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	signup, err := api.svc.CancelSignup(ctx.Request().Context(), ctx.Param("id"), claims.Subject, claims.IsAdmin)
	if err != nil {
		if errors.Cause(err) == schedule.ErrNotSignupOwner {
			return errHttpForbidden
		}
		return notFoundOr(errors.Wrap(err, "cancelling signup"), schedule.ErrSignupNotFound)
	}
	return ctx.JSON(http.StatusOK, signup)
}

func (api *scheduleApi) requestTrade(ctx echo.Context) error {
	var data schedule.NewTradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTradeRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	trade, err := api.svc.RequestTrade(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		if errors.Cause(err) == schedule.ErrNotSignupOwner {
			return errHttpForbidden
		}
		return notFoundOr(errors.Wrap(err, "requesting trade"), schedule.ErrSignupNotFound)
	}
	return ctx.JSON(http.StatusCreated, trade)
}

func (api *scheduleApi) queryTrades(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := schedule.TradeQueryFilter{Status: ctx.QueryParam("status")}
	if claims.IsAdmin {
		filter.UserID = ctx.QueryParam("user_id")
	} else {
		// non-admins only see their own trades
		filter.UserID = claims.Subject
	}

	trades, err := api.svc.Trades(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying trades")
	}
	if trades == nil {
		trades = []schedule.TradeRequest{}
	}
	return ctx.JSON(http.StatusOK, trades)
}

func (api *scheduleApi) retrieveTrade(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	trade, err := api.svc.GetTrade(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding trade by ID"), schedule.ErrTradeNotFound)
	}
	if !claims.IsAdmin && trade.FromUserID != claims.Subject && trade.ToUserID != claims.Subject {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, trade)
}

func (api *scheduleApi) resolveTrade(ctx echo.Context) error {
	var data schedule.TradeAction
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TradeAction")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	trade, err := api.svc.ResolveTrade(ctx.Request().Context(), ctx.Param("id"), ctxUsr, data.Action)
	if err != nil {
		switch errors.Cause(err) {
		case schedule.ErrNotCounterparty, schedule.ErrNotRequester, schedule.ErrNotApprover:
			return errHttpForbidden
		}
		return notFoundOr(errors.Wrap(err, "resolving trade"), schedule.ErrTradeNotFound)
	}
	return ctx.JSON(http.StatusOK, trade)
}

func (api *scheduleApi) submitAvailability(ctx echo.Context) error {
	var data schedule.SubmitAvailability
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitAvailability")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	av, err := api.svc.SubmitAvailability(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "submitting availability")
	}
	return ctx.JSON(http.StatusOK, av)
}

func (api *scheduleApi) myAvailability(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	weekStart, err := parseDateParam(ctx.QueryParam("week_start"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "week_start", Error: "invalid date"})
	}

	av, err := api.svc.GetAvailability(ctx.Request().Context(), claims.Subject, weekStart)
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding availability"), schedule.ErrAvailabilityNotFound)
	}
	return ctx.JSON(http.StatusOK, av)
}

// bindDateRange parses optional `from` & `to` query params (RFC3339 or YYYY-MM-DD).
// A missing `from` defaults to today; a missing `to` to 30 days out.
func bindDateRange(ctx echo.Context) (from, to time.Time, err error) {
	now := time.Now().UTC()

	if v := ctx.QueryParam("from"); v != "" {
		if from, err = parseDateParam(v); err != nil {
			return from, to, core.NewValidationError(nil, core.FieldError{Field: "from", Error: "invalid date"})
		}
	} else {
		from = now.Truncate(24 * time.Hour)
	}

	if v := ctx.QueryParam("to"); v != "" {
		if to, err = parseDateParam(v); err != nil {
			return from, to, core.NewValidationError(nil, core.FieldError{Field: "to", Error: "invalid date"})
		}
	} else {
		to = from.AddDate(0, 0, 30)
	}
	return from, to, nil
}

func parseDateParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
