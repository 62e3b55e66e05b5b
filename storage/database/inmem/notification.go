package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/matibabu/core/notification"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.notifications[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.notifications[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) QueryNotificationsByUserID(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var notifs []notification.Notification
	for _, n := range repo.db.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead() {
			continue
		}
		notifs = append(notifs, *n)
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })
	return notifs, nil
}

func (repo *notificationRepository) CountRecentNotifications(ctx context.Context, userID, kind string, since time.Time) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, n := range repo.db.notifications {
		if n.UserID == userID && n.Kind == kind && !n.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.notifications[n.ID]
	if !ok {
		return notification.Notification{}, notification.ErrNotFound
	}
	orig.ReadAt = n.ReadAt
	return *orig, nil
}

func (repo *notificationRepository) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, n := range repo.db.notifications {
		if n.UserID == userID && !n.IsRead() {
			n.ReadAt = at
		}
	}
	return nil
}

func (repo *notificationRepository) CreateAlert(ctx context.Context, a notification.SystemAlert) (notification.SystemAlert, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.alerts[a.ID] = &a
	return a, nil
}

func (repo *notificationRepository) GetAlertByID(ctx context.Context, id string) (notification.SystemAlert, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.alerts[id]; ok {
		return *a, nil
	}
	return notification.SystemAlert{}, notification.ErrAlertNotFound
}

func (repo *notificationRepository) QueryAlerts(ctx context.Context, unresolvedOnly bool) ([]notification.SystemAlert, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var alerts []notification.SystemAlert
	for _, a := range repo.db.alerts {
		if unresolvedOnly && a.IsResolved() {
			continue
		}
		alerts = append(alerts, *a)
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].CreatedAt.After(alerts[j].CreatedAt) })
	return alerts, nil
}

func (repo *notificationRepository) UpdateAlert(ctx context.Context, a notification.SystemAlert) (notification.SystemAlert, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.alerts[a.ID]
	if !ok {
		return notification.SystemAlert{}, notification.ErrAlertNotFound
	}
	orig.ResolvedAt = a.ResolvedAt
	orig.ResolvedBy = a.ResolvedBy
	return *orig, nil
}

func (repo *notificationRepository) CreateAnnouncement(ctx context.Context, a notification.Announcement) (notification.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.announcements[a.ID] = &a
	return a, nil
}

func (repo *notificationRepository) GetAnnouncementByID(ctx context.Context, id string) (notification.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.announcements[id]; ok {
		return *a, nil
	}
	return notification.Announcement{}, notification.ErrAnnouncementNotFound
}

func (repo *notificationRepository) QueryAllAnnouncements(ctx context.Context) ([]notification.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	anns := make([]notification.Announcement, 0, len(repo.db.announcements))
	for _, a := range repo.db.announcements {
		anns = append(anns, *a)
	}
	sort.Slice(anns, func(i, j int) bool { return anns[i].PublishedAt.After(anns[j].PublishedAt) })
	return anns, nil
}

func (repo *notificationRepository) UpdateAnnouncement(ctx context.Context, a notification.Announcement) (notification.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.announcements[a.ID]
	if !ok {
		return notification.Announcement{}, notification.ErrAnnouncementNotFound
	}
	orig.Title = a.Title
	orig.Body = a.Body
	orig.Audience = a.Audience
	orig.UpdatedAt = a.UpdatedAt
	return *orig, nil
}

func (repo *notificationRepository) DeleteAnnouncementsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.announcements, id)
	}
	return nil
}
