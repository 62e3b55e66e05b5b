package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/cohort"
)

type cohortApi struct {
	svc      cohort.Service
	validate *validator.Validate
}

func registerCohortAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc cohort.Service, validate *validator.Validate) {
	api := cohortApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/cohorts", jwt)
	cg.POST("", api.create, adminMiddleware())
	cg.GET("", api.query, staffMiddleware())
	cg.DELETE("", api.destroyMultiple, adminMiddleware())
	cg.GET("/:id", api.retrieve, staffMiddleware())
	cg.PUT("/:id", api.update, adminMiddleware())
	cg.GET("/:id/stats", api.stats, staffMiddleware())
	cg.GET("/:id/students", api.roster, staffMiddleware())
	cg.POST("/:id/students", api.enroll, adminMiddleware())

	sg := g.Group("/students", jwt)
	sg.GET("/:id", api.retrieveStudent, staffMiddleware())
	sg.PUT("/:id", api.updateStudent, adminMiddleware())
	sg.POST("/:id/transfer", api.transferStudent, adminMiddleware())
}

// Handlers

func (api *cohortApi) create(ctx echo.Context) error {
	var data cohort.NewCohort
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCohort")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	coh, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating cohort")
	}
	return ctx.JSON(http.StatusCreated, coh)
}

func (api *cohortApi) query(ctx echo.Context) error {
	cohorts, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying cohorts")
	}
	if cohorts == nil {
		cohorts = []cohort.Cohort{}
	}
	return ctx.JSON(http.StatusOK, cohorts)
}

func (api *cohortApi) retrieve(ctx echo.Context) error {
	coh, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding cohort by ID"), cohort.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, coh)
}

func (api *cohortApi) update(ctx echo.Context) error {
	coh, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding cohort by ID"), cohort.ErrNotFound)
	}

	var data cohort.UpdateCohort
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCohort")
	}
	if err := data.Validate(coh, api.validate); err != nil {
		return err
	}

	coh, err = api.svc.Update(ctx.Request().Context(), coh.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating cohort")
	}
	return ctx.JSON(http.StatusOK, coh)
}

func (api *cohortApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting cohorts")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *cohortApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "computing cohort stats"), cohort.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *cohortApi) roster(ctx echo.Context) error {
	students, err := api.svc.Roster(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "querying cohort roster"), cohort.ErrNotFound)
	}
	if students == nil {
		students = []cohort.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *cohortApi) enroll(ctx echo.Context) error {
	var data cohort.EnrollStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stu, err := api.svc.Enroll(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return notFoundOr(errors.Wrap(err, "enrolling student"), cohort.ErrNotFound)
	}
	return ctx.JSON(http.StatusCreated, stu)
}

func (api *cohortApi) retrieveStudent(ctx echo.Context) error {
	stu, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding student by ID"), cohort.ErrStudentNotFound)
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *cohortApi) updateStudent(ctx echo.Context) error {
	stu, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding student by ID"), cohort.ErrStudentNotFound)
	}

	var data cohort.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(stu, api.validate); err != nil {
		return err
	}

	stu, err = api.svc.UpdateStudent(ctx.Request().Context(), stu.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *cohortApi) transferStudent(ctx echo.Context) error {
	var data TransferRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransferRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	stu, err := api.svc.Transfer(ctx.Request().Context(), ctx.Param("id"), data.CohortID)
	if err != nil {
		return notFoundOr(errors.Wrap(err, "transferring student"), cohort.ErrStudentNotFound, cohort.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, stu)
}

type TransferRequest struct {
	CohortID string `json:"cohort_id" validate:"required"`
}
