package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/jobs"
)

type cronApi struct {
	runner *jobs.Runner
}

func registerCronAPI(g *echo.Group, secret string, runner *jobs.Runner) {
	api := cronApi{runner: runner}

	cg := g.Group("/cron", cronSecretMiddleware(secret))
	cg.GET("/jobs", api.queryJobs)
	cg.POST("/jobs/:name", api.runJob)
}

// Handlers

func (api *cronApi) queryJobs(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, jobs.Names())
}

func (api *cronApi) runJob(ctx echo.Context) error {
	name := ctx.Param("name")
	if err := api.runner.Run(ctx.Request().Context(), name); err != nil {
		if errors.Cause(err) == jobs.ErrUnknownJob {
			return errHttpNotFound
		}
		return errors.Wrapf(err, "running job %q", name)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"job": name, "status": "completed"})
}
