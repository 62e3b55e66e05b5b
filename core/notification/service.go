package notification

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound             = errors.New("notification not found")
	ErrAlertNotFound        = errors.New("system alert not found")
	ErrAnnouncementNotFound = errors.New("announcement not found")
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		QueryNotificationsByUserID(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)
		// CountRecentNotifications counts a user's notifications of a kind created after `since`;
		// used by scheduled jobs to avoid duplicate fan-out.
		CountRecentNotifications(ctx context.Context, userID, kind string, since time.Time) (int, error)
		UpdateNotification(ctx context.Context, n Notification) (Notification, error)
		MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) error

		CreateAlert(ctx context.Context, a SystemAlert) (SystemAlert, error)
		GetAlertByID(ctx context.Context, id string) (SystemAlert, error)
		QueryAlerts(ctx context.Context, unresolvedOnly bool) ([]SystemAlert, error)
		UpdateAlert(ctx context.Context, a SystemAlert) (SystemAlert, error)

		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		GetAnnouncementByID(ctx context.Context, id string) (Announcement, error)
		QueryAllAnnouncements(ctx context.Context) ([]Announcement, error)
		UpdateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		DeleteAnnouncementsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Notify(ctx context.Context, userID, kind, title, body string) error
		UserNotifications(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)
		MarkRead(ctx context.Context, id, userID string) (Notification, error)
		MarkAllRead(ctx context.Context, userID string) error
		CountRecent(ctx context.Context, userID, kind string, since time.Time) (int, error)

		RaiseAlert(ctx context.Context, na NewSystemAlert) (SystemAlert, error)
		Alerts(ctx context.Context, unresolvedOnly bool) ([]SystemAlert, error)
		ResolveAlert(ctx context.Context, id, resolverID string) (SystemAlert, error)

		Announce(ctx context.Context, createdBy string, na NewAnnouncement) (Announcement, error)
		// AnnouncementsFor returns announcements whose audience matches any of the roles.
		AnnouncementsFor(ctx context.Context, roles []string) ([]Announcement, error)
		AllAnnouncements(ctx context.Context) ([]Announcement, error)
		UpdateAnnouncement(ctx context.Context, id string, ua UpdateAnnouncement) (Announcement, error)
		DeleteAnnouncements(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Notify(ctx context.Context, userID, kind, title, body string) error {
	_, err := svc.repo.CreateNotification(ctx, Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

func (svc *service) UserNotifications(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	return svc.repo.QueryNotificationsByUserID(ctx, userID, unreadOnly)
}

func (svc *service) MarkRead(ctx context.Context, id, userID string) (Notification, error) {
	n, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if n.UserID != userID {
		return Notification{}, ErrNotFound
	}
	if n.IsRead() {
		return n, nil
	}
	n.ReadAt = time.Now().UTC()
	return svc.repo.UpdateNotification(ctx, n)
}

func (svc *service) MarkAllRead(ctx context.Context, userID string) error {
	return svc.repo.MarkAllNotificationsRead(ctx, userID, time.Now().UTC())
}

func (svc *service) CountRecent(ctx context.Context, userID, kind string, since time.Time) (int, error) {
	return svc.repo.CountRecentNotifications(ctx, userID, kind, since)
}

func (svc *service) RaiseAlert(ctx context.Context, na NewSystemAlert) (SystemAlert, error) {
	return svc.repo.CreateAlert(ctx, SystemAlert{
		ID:        uuid.New().String(),
		Severity:  na.Severity,
		Source:    na.Source,
		Message:   na.Message,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *service) Alerts(ctx context.Context, unresolvedOnly bool) ([]SystemAlert, error) {
	return svc.repo.QueryAlerts(ctx, unresolvedOnly)
}

func (svc *service) ResolveAlert(ctx context.Context, id, resolverID string) (SystemAlert, error) {
	alert, err := svc.repo.GetAlertByID(ctx, id)
	if err != nil {
		return SystemAlert{}, err
	}
	if alert.IsResolved() {
		return alert, nil
	}
	alert.ResolvedAt = time.Now().UTC()
	alert.ResolvedBy = resolverID
	return svc.repo.UpdateAlert(ctx, alert)
}

func (svc *service) Announce(ctx context.Context, createdBy string, na NewAnnouncement) (Announcement, error) {
	now := time.Now().UTC()
	return svc.repo.CreateAnnouncement(ctx, Announcement{
		ID:          uuid.New().String(),
		Title:       na.Title,
		Body:        na.Body,
		Audience:    na.Audience,
		PublishedAt: now,
		CreatedBy:   createdBy,
		UpdatedAt:   now,
	})
}

func (svc *service) AnnouncementsFor(ctx context.Context, roles []string) ([]Announcement, error) {
	all, err := svc.repo.QueryAllAnnouncements(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]Announcement, 0, len(all))
	for _, ann := range all {
		if ann.Audience == AudienceAll || anyRoleMatches(roles, ann.Audience) {
			matched = append(matched, ann)
		}
	}
	return matched, nil
}

func anyRoleMatches(roles []string, audience string) bool {
	for _, role := range roles {
		if strings.HasPrefix(role, audience) {
			return true
		}
	}
	return false
}

func (svc *service) AllAnnouncements(ctx context.Context) ([]Announcement, error) {
	return svc.repo.QueryAllAnnouncements(ctx)
}

func (svc *service) UpdateAnnouncement(ctx context.Context, id string, ua UpdateAnnouncement) (Announcement, error) {
	ann, err := svc.repo.GetAnnouncementByID(ctx, id)
	if err != nil {
		return Announcement{}, err
	}
	if ua.Title != "" {
		ann.Title = ua.Title
	}
	if ua.Body != "" {
		ann.Body = ua.Body
	}
	if ua.Audience != "" {
		ann.Audience = ua.Audience
	}
	ann.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAnnouncement(ctx, ann)
}

func (svc *service) DeleteAnnouncements(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAnnouncementsByID(ctx, ids...)
}
