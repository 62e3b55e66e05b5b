package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/report"
)

type reportApi struct {
	svc      report.Service
	validate *validator.Validate
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc report.Service, validate *validator.Validate) {
	api := reportApi{
		svc:      svc,
		validate: validate,
	}

	rg := g.Group("/reports", jwt, staffMiddleware())
	rg.POST("", api.create)
	rg.GET("", api.query)
	rg.DELETE("", api.destroyMultiple)
	rg.GET("/:id", api.retrieve)
	rg.PUT("/:id", api.update)
	rg.POST("/:id/run", api.run)
}

// Handlers

func (api *reportApi) create(ctx echo.Context) error {
	var data report.NewTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTemplate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	tpl, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating report template")
	}
	return ctx.JSON(http.StatusCreated, tpl)
}

func (api *reportApi) query(ctx echo.Context) error {
	templates, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying report templates")
	}
	if templates == nil {
		templates = []report.Template{}
	}
	return ctx.JSON(http.StatusOK, templates)
}

func (api *reportApi) retrieve(ctx echo.Context) error {
	tpl, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding report template by ID"), report.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, tpl)
}

func (api *reportApi) update(ctx echo.Context) error {
	var data report.UpdateTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTemplate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tpl, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return notFoundOr(errors.Wrap(err, "updating report template"), report.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, tpl)
}

func (api *reportApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting report templates")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *reportApi) run(ctx echo.Context) error {
	result, err := api.svc.Run(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "running report"), report.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, result)
}
