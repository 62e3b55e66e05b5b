package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/notification"
)

type notificationRow struct {
	ID        string       `db:"id"`
	UserID    string       `db:"user_id"`
	Kind      string       `db:"kind"`
	Title     string       `db:"title"`
	Body      string       `db:"body"`
	ReadAt    sql.NullTime `db:"read_at"`
	CreatedAt time.Time    `db:"created_at"`
}

func (r notificationRow) toCore() notification.Notification {
	n := notification.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Kind:      r.Kind,
		Title:     r.Title,
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
	}
	if r.ReadAt.Valid {
		n.ReadAt = r.ReadAt.Time
	}
	return n
}

type alertRow struct {
	ID         string       `db:"id"`
	Severity   string       `db:"severity"`
	Source     string       `db:"source"`
	Message    string       `db:"message"`
	ResolvedAt sql.NullTime `db:"resolved_at"`
	ResolvedBy string       `db:"resolved_by"`
	CreatedAt  time.Time    `db:"created_at"`
}

func (r alertRow) toCore() notification.SystemAlert {
	a := notification.SystemAlert{
		ID:         r.ID,
		Severity:   r.Severity,
		Source:     r.Source,
		Message:    r.Message,
		ResolvedBy: r.ResolvedBy,
		CreatedAt:  r.CreatedAt,
	}
	if r.ResolvedAt.Valid {
		a.ResolvedAt = r.ResolvedAt.Time
	}
	return a
}

type announcementRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Body        string    `db:"body"`
	Audience    string    `db:"audience"`
	PublishedAt time.Time `db:"published_at"`
	CreatedBy   string    `db:"created_by"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	q := `
INSERT INTO notification (id, user_id, kind, title, body, read_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q, n.ID, n.UserID, n.Kind, n.Title, n.Body, nullTime(n.ReadAt), n.CreatedAt)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "creating notification")
	}
	return n, nil
}

func (repo notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	var row notificationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM notification WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "getting notification")
	}
	return row.toCore(), nil
}

func (repo notificationRepository) QueryNotificationsByUserID(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	q := `SELECT * FROM notification WHERE user_id = $1`
	if unreadOnly {
		q += ` AND read_at IS NULL`
	}
	q += ` ORDER BY created_at DESC`

	var rows []notificationRow
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, row.toCore())
	}
	return notifs, nil
}

func (repo notificationRepository) CountRecentNotifications(ctx context.Context, userID, kind string, since time.Time) (int, error) {
	var count int
	q := `SELECT COUNT(*) FROM notification WHERE user_id = $1 AND kind = $2 AND created_at >= $3`
	if err := repo.db.GetContext(ctx, &count, q, userID, kind, since); err != nil {
		return 0, errors.Wrap(err, "counting notifications")
	}
	return count, nil
}

func (repo notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	q := `UPDATE notification SET read_at = $2 WHERE id = $1 RETURNING *`
	var row notificationRow
	if err := repo.db.GetContext(ctx, &row, q, n.ID, nullTime(n.ReadAt)); err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "updating notification")
	}
	return row.toCore(), nil
}

func (repo notificationRepository) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) error {
	q := `UPDATE notification SET read_at = $2 WHERE user_id = $1 AND read_at IS NULL`
	_, err := repo.db.ExecContext(ctx, q, userID, at)
	return errors.Wrap(err, "marking notifications read")
}

func (repo notificationRepository) CreateAlert(ctx context.Context, a notification.SystemAlert) (notification.SystemAlert, error) {
	q := `
INSERT INTO system_alert (id, severity, source, message, resolved_at, resolved_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q, a.ID, a.Severity, a.Source, a.Message, nullTime(a.ResolvedAt), a.ResolvedBy, a.CreatedAt)
	if err != nil {
		return notification.SystemAlert{}, errors.Wrap(err, "creating system alert")
	}
	return a, nil
}

func (repo notificationRepository) GetAlertByID(ctx context.Context, id string) (notification.SystemAlert, error) {
	var row alertRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM system_alert WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return notification.SystemAlert{}, notification.ErrAlertNotFound
		}
		return notification.SystemAlert{}, errors.Wrap(err, "getting system alert")
	}
	return row.toCore(), nil
}

func (repo notificationRepository) QueryAlerts(ctx context.Context, unresolvedOnly bool) ([]notification.SystemAlert, error) {
	q := `SELECT * FROM system_alert`
	if unresolvedOnly {
		q += ` WHERE resolved_at IS NULL`
	}
	q += ` ORDER BY created_at DESC`

	var rows []alertRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying system alerts")
	}
	alerts := make([]notification.SystemAlert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, row.toCore())
	}
	return alerts, nil
}

func (repo notificationRepository) UpdateAlert(ctx context.Context, a notification.SystemAlert) (notification.SystemAlert, error) {
	q := `UPDATE system_alert SET resolved_at = $2, resolved_by = $3 WHERE id = $1 RETURNING *`
	var row alertRow
	if err := repo.db.GetContext(ctx, &row, q, a.ID, nullTime(a.ResolvedAt), a.ResolvedBy); err != nil {
		if err == sql.ErrNoRows {
			return notification.SystemAlert{}, notification.ErrAlertNotFound
		}
		return notification.SystemAlert{}, errors.Wrap(err, "updating system alert")
	}
	return row.toCore(), nil
}

func (repo notificationRepository) CreateAnnouncement(ctx context.Context, a notification.Announcement) (notification.Announcement, error) {
	q := `
INSERT INTO announcement (id, title, body, audience, published_at, created_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q, a.ID, a.Title, a.Body, a.Audience, a.PublishedAt, a.CreatedBy, a.UpdatedAt)
	if err != nil {
		return notification.Announcement{}, errors.Wrap(err, "creating announcement")
	}
	return a, nil
}

func (repo notificationRepository) GetAnnouncementByID(ctx context.Context, id string) (notification.Announcement, error) {
	var row announcementRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM announcement WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return notification.Announcement{}, notification.ErrAnnouncementNotFound
		}
		return notification.Announcement{}, errors.Wrap(err, "getting announcement")
	}
	return notification.Announcement(row), nil
}

func (repo notificationRepository) QueryAllAnnouncements(ctx context.Context) ([]notification.Announcement, error) {
	var rows []announcementRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM announcement ORDER BY published_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	anns := make([]notification.Announcement, 0, len(rows))
	for _, row := range rows {
		anns = append(anns, notification.Announcement(row))
	}
	return anns, nil
}

func (repo notificationRepository) UpdateAnnouncement(ctx context.Context, a notification.Announcement) (notification.Announcement, error) {
	q := `
UPDATE announcement SET title = $2, body = $3, audience = $4, updated_at = $5
WHERE id = $1
RETURNING *`
	var row announcementRow
	if err := repo.db.GetContext(ctx, &row, q, a.ID, a.Title, a.Body, a.Audience, a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return notification.Announcement{}, notification.ErrAnnouncementNotFound
		}
		return notification.Announcement{}, errors.Wrap(err, "updating announcement")
	}
	return notification.Announcement(row), nil
}

func (repo notificationRepository) DeleteAnnouncementsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM announcement WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting announcements")
}
