package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/notification"
)

type notificationApi struct {
	svc      notification.Service
	validate *validator.Validate
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc notification.Service, validate *validator.Validate) {
	api := notificationApi{
		svc:      svc,
		validate: validate,
	}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.POST("/read-all", api.markAllRead)
	ng.POST("/:id/read", api.markRead)

	ag := g.Group("/alerts", jwt, adminMiddleware())
	ag.GET("", api.queryAlerts)
	ag.POST("", api.raiseAlert)
	ag.POST("/:id/resolve", api.resolveAlert)

	anng := g.Group("/announcements", jwt)
	anng.GET("", api.queryAnnouncements)
	anng.POST("", api.announce, adminMiddleware())
	anng.DELETE("", api.destroyAnnouncements, adminMiddleware())
	anng.PUT("/:id", api.updateAnnouncement, adminMiddleware())
}

// Handlers

func (api *notificationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	unreadOnly := ctx.QueryParam("unread") == "true"
	notifs, err := api.svc.UserNotifications(ctx.Request().Context(), claims.Subject, unreadOnly)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notif, err := api.svc.MarkRead(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return notFoundOr(errors.Wrap(err, "marking notification read"), notification.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, notif)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.MarkAllRead(ctx.Request().Context(), claims.Subject); err != nil {
		return errors.Wrap(err, "marking all notifications read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) queryAlerts(ctx echo.Context) error {
	unresolvedOnly := ctx.QueryParam("unresolved") == "true"
	alerts, err := api.svc.Alerts(ctx.Request().Context(), unresolvedOnly)
	if err != nil {
		return errors.Wrap(err, "querying alerts")
	}
	if alerts == nil {
		alerts = []notification.SystemAlert{}
	}
	return ctx.JSON(http.StatusOK, alerts)
}

func (api *notificationApi) raiseAlert(ctx echo.Context) error {
	var data notification.NewSystemAlert
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSystemAlert")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	alert, err := api.svc.RaiseAlert(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "raising alert")
	}
	return ctx.JSON(http.StatusCreated, alert)
}

func (api *notificationApi) resolveAlert(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	alert, err := api.svc.ResolveAlert(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return notFoundOr(errors.Wrap(err, "resolving alert"), notification.ErrAlertNotFound)
	}
	return ctx.JSON(http.StatusOK, alert)
}

func (api *notificationApi) queryAnnouncements(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var announcements []notification.Announcement
	if claims.IsAdmin && ctx.QueryParam("all") == "true" {
		announcements, err = api.svc.AllAnnouncements(ctx.Request().Context())
	} else {
		announcements, err = api.svc.AnnouncementsFor(ctx.Request().Context(), claims.Roles)
	}
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if announcements == nil {
		announcements = []notification.Announcement{}
	}
	return ctx.JSON(http.StatusOK, announcements)
}

func (api *notificationApi) announce(ctx echo.Context) error {
	var data notification.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ann, err := api.svc.Announce(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "publishing announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *notificationApi) updateAnnouncement(ctx echo.Context) error {
	var data notification.UpdateAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ann, err := api.svc.UpdateAnnouncement(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return notFoundOr(errors.Wrap(err, "updating announcement"), notification.ErrAnnouncementNotFound)
	}
	return ctx.JSON(http.StatusOK, ann)
}

func (api *notificationApi) destroyAnnouncements(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeleteAnnouncements(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting announcements")
	}
	return ctx.NoContent(http.StatusNoContent)
}
