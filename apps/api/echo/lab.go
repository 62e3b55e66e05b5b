package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/lab"
)

type labApi struct {
	svc      lab.Service
	validate *validator.Validate
}

func registerLabAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc lab.Service, validate *validator.Validate) {
	api := labApi{
		svc:      svc,
		validate: validate,
	}

	lg := g.Group("/lab-days", jwt)
	lg.POST("", api.createLabDay, staffMiddleware())
	lg.GET("", api.queryLabDays) // students can see their cohort's schedule
	lg.DELETE("", api.destroyLabDays, adminMiddleware())
	lg.GET("/:id", api.retrieveLabDay)
	lg.PUT("/:id", api.updateLabDay, staffMiddleware())
	lg.GET("/:id/stations", api.queryStations)
	lg.POST("/:id/stations", api.assignStation, staffMiddleware())

	stg := g.Group("/stations", jwt)
	stg.DELETE("", api.destroyStations, staffMiddleware())

	scg := g.Group("/scenarios", jwt)
	scg.POST("", api.createScenario, staffMiddleware())
	scg.GET("", api.queryScenarios)
	scg.GET("/:id", api.retrieveScenario)
	scg.PUT("/:id", api.updateScenario, staffMiddleware())
	scg.POST("/:id/assessments", api.recordAssessment, staffMiddleware())
	scg.GET("/:id/recommendation", api.recommendDifficulty, staffMiddleware())

	ag := g.Group("/assessments", jwt)
	ag.GET("/students/:id", api.studentAssessments, staffMiddleware())
}

// Handlers

func (api *labApi) createLabDay(ctx echo.Context) error {
	var data lab.NewLabDay
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLabDay")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	day, err := api.svc.CreateLabDay(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lab day")
	}
	return ctx.JSON(http.StatusCreated, day)
}

func (api *labApi) queryLabDays(ctx echo.Context) error {
	days, err := api.svc.LabDays(ctx.Request().Context(), ctx.QueryParam("cohort_id"))
	if err != nil {
		return errors.Wrap(err, "querying lab days")
	}
	if days == nil {
		days = []lab.LabDay{}
	}
	return ctx.JSON(http.StatusOK, days)
}

func (api *labApi) retrieveLabDay(ctx echo.Context) error {
	day, err := api.svc.GetLabDay(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding lab day by ID"), lab.ErrLabDayNotFound)
	}
	return ctx.JSON(http.StatusOK, day)
}

func (api *labApi) updateLabDay(ctx echo.Context) error {
	day, err := api.svc.GetLabDay(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding lab day by ID"), lab.ErrLabDayNotFound)
	}

	var data lab.UpdateLabDay
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLabDay")
	}
	if err := data.Validate(day, api.validate); err != nil {
		return err
	}

	day, err = api.svc.UpdateLabDay(ctx.Request().Context(), day.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating lab day")
	}
	return ctx.JSON(http.StatusOK, day)
}

func (api *labApi) destroyLabDays(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeleteLabDays(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting lab days")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *labApi) queryStations(ctx echo.Context) error {
	stations, err := api.svc.Stations(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying stations")
	}
	if stations == nil {
		stations = []lab.Station{}
	}
	return ctx.JSON(http.StatusOK, stations)
}

func (api *labApi) assignStation(ctx echo.Context) error {
	var data lab.NewStation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStation")
	}
	data.LabDayID = ctx.Param("id")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	station, err := api.svc.AssignStation(ctx.Request().Context(), data)
	if err != nil {
		return notFoundOr(errors.Wrap(err, "assigning station"),
			lab.ErrLabDayNotFound, lab.ErrScenarioNotFound)
	}
	return ctx.JSON(http.StatusCreated, station)
}

func (api *labApi) destroyStations(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeleteStations(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting stations")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *labApi) createScenario(ctx echo.Context) error {
	var data lab.NewScenario
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewScenario")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	scn, err := api.svc.CreateScenario(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating scenario")
	}
	return ctx.JSON(http.StatusCreated, scn)
}

func (api *labApi) queryScenarios(ctx echo.Context) error {
	scenarios, err := api.svc.Scenarios(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying scenarios")
	}
	if scenarios == nil {
		scenarios = []lab.Scenario{}
	}
	return ctx.JSON(http.StatusOK, scenarios)
}

func (api *labApi) retrieveScenario(ctx echo.Context) error {
	scn, err := api.svc.GetScenario(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding scenario by ID"), lab.ErrScenarioNotFound)
	}
	return ctx.JSON(http.StatusOK, scn)
}

func (api *labApi) updateScenario(ctx echo.Context) error {
	scn, err := api.svc.GetScenario(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding scenario by ID"), lab.ErrScenarioNotFound)
	}

	var data lab.UpdateScenario
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateScenario")
	}
	if err := data.Validate(scn, api.validate); err != nil {
		return err
	}

	scn, err = api.svc.UpdateScenario(ctx.Request().Context(), scn.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating scenario")
	}
	return ctx.JSON(http.StatusOK, scn)
}

func (api *labApi) recordAssessment(ctx echo.Context) error {
	var data lab.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	assessment, err := api.svc.RecordAssessment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return notFoundOr(errors.Wrap(err, "recording assessment"), lab.ErrScenarioNotFound)
	}
	return ctx.JSON(http.StatusCreated, assessment)
}

func (api *labApi) studentAssessments(ctx echo.Context) error {
	assessments, err := api.svc.StudentAssessments(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student assessments")
	}
	if assessments == nil {
		assessments = []lab.Assessment{}
	}
	return ctx.JSON(http.StatusOK, assessments)
}

func (api *labApi) recommendDifficulty(ctx echo.Context) error {
	rec, err := api.svc.RecommendDifficulty(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "computing difficulty recommendation"), lab.ErrScenarioNotFound)
	}
	return ctx.JSON(http.StatusOK, rec)
}
