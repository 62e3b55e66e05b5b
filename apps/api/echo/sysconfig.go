package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/sysconfig"
	"github.com/trezcool/matibabu/core/user"
)

type configApi struct {
	svc      sysconfig.Service
	validate *validator.Validate
}

func registerConfigAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc sysconfig.Service, validate *validator.Validate) {
	api := configApi{
		svc:      svc,
		validate: validate,
	}

	// settings are director-only
	cg := g.Group("/settings", jwt, adminMiddleware(user.RoleAdminDirector))
	cg.GET("", api.query)
	cg.GET("/:key", api.retrieve)
	cg.PUT("", api.upsert)
	cg.DELETE("/:key", api.destroy)
}

// Handlers

func (api *configApi) query(ctx echo.Context) error {
	settings, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying settings")
	}
	if settings == nil {
		settings = []sysconfig.Setting{}
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *configApi) retrieve(ctx echo.Context) error {
	setting, err := api.svc.Get(ctx.Request().Context(), ctx.Param("key"))
	if err != nil {
		return notFoundOr(errors.Wrap(err, "finding setting by key"), sysconfig.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, setting)
}

func (api *configApi) upsert(ctx echo.Context) error {
	var data sysconfig.UpsertSetting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertSetting")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	setting, err := api.svc.Upsert(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "upserting setting")
	}
	return ctx.JSON(http.StatusOK, setting)
}

func (api *configApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("key")); err != nil {
		return errors.Wrap(err, "deleting setting")
	}
	return ctx.NoContent(http.StatusNoContent)
}
