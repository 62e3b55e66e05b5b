package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/clinical"
	"github.com/trezcool/matibabu/core/cohort"
)

type clinicalApi struct {
	svc       clinical.Service
	cohortSvc cohort.Service
	validate  *validator.Validate
}

func registerClinicalAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc clinical.Service, cohortSvc cohort.Service, validate *validator.Validate) {
	api := clinicalApi{
		svc:       svc,
		cohortSvc: cohortSvc,
		validate:  validate,
	}

	cg := g.Group("/clinical-entries", jwt)
	cg.POST("", api.record)
	cg.GET("/:id", api.retrieve)
	cg.POST("/:id/verify", api.verify, staffMiddleware())

	sg := g.Group("/students/:id/clinical", jwt, api.studentAccessMiddleware())
	sg.GET("/entries", api.studentEntries)
	sg.GET("/progress", api.progress)
}

// studentAccessMiddleware lets staff through for any student, and students
// through for their own enrollment only.
func (api *clinicalApi) studentAccessMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin || claims.IsInstructor {
				return next(ctx)
			}

			stu, err := api.cohortSvc.GetActiveStudentByUserID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				return notFoundOr(errors.Wrap(err, "finding student by user ID"), cohort.ErrStudentNotFound)
			}
			if stu.ID != ctx.Param("id") {
				return errHttpNotFound
			}
			return next(ctx)
		}
	}
}

// Handlers

func (api *clinicalApi) record(ctx echo.Context) error {
	var data clinical.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !(claims.IsAdmin || claims.IsInstructor) {
		// students may only log against their own enrollment
		stu, err := api.cohortSvc.GetActiveStudentByUserID(ctx.Request().Context(), claims.Subject)
		if err != nil {
			return notFoundOr(errors.Wrap(err, "finding student by user ID"), cohort.ErrStudentNotFound)
		}
		if data.StudentID == "" {
			data.StudentID = stu.ID
		} else if data.StudentID != stu.ID {
			return errHttpForbidden
		}
	}

	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.Record(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording clinical entry")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *clinicalApi) retrieve(ctx echo.Context) error {
	entry, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding clinical entry by ID"), clinical.ErrEntryNotFound)
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !(claims.IsAdmin || claims.IsInstructor) {
		stu, err := api.cohortSvc.GetActiveStudentByUserID(ctx.Request().Context(), claims.Subject)
		if err != nil || entry.StudentID != stu.ID {
			return errHttpNotFound
		}
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *clinicalApi) verify(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	entry, err := api.svc.Verify(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return notFoundOr(errors.Wrap(err, "verifying clinical entry"), clinical.ErrEntryNotFound)
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *clinicalApi) studentEntries(ctx echo.Context) error {
	entries, err := api.svc.StudentEntries(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student clinical entries")
	}
	if entries == nil {
		entries = []clinical.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *clinicalApi) progress(ctx echo.Context) error {
	progress, err := api.svc.Progress(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing clinical progress")
	}
	return ctx.JSON(http.StatusOK, progress)
}
