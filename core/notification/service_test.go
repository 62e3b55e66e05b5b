package notification_test

import (
	"context"
	"testing"

	"github.com/trezcool/matibabu/core/notification"
	"github.com/trezcool/matibabu/core/user"
	"github.com/trezcool/matibabu/storage/database/inmem"
)

func Test_service_AnnouncementsFor(t *testing.T) {
	db := inmemdb.NewDB()
	svc := notification.NewService(inmemdb.NewNotificationRepository(db))
	ctx := context.Background()

	announce := func(title, audience string) notification.Announcement {
		t.Helper()
		ann, err := svc.Announce(ctx, "admin", notification.NewAnnouncement{
			Title:    title,
			Body:     "body",
			Audience: audience,
		})
		if err != nil {
			t.Fatalf("Announce() failed: %v", err)
		}
		return ann
	}
	annAll := announce("Campus closed Friday", notification.AudienceAll)
	annStudents := announce("Bring your PPE", user.RoleStudent)
	annAdmins := announce("Budget review", user.RoleAdmin)

	tests := []struct {
		name  string
		roles []string
		want  []string // titles
	}{
		{"Students", []string{user.RoleStudent}, []string{annAll.Title, annStudents.Title}},
		{"Instructors", []string{user.RoleInstructor}, []string{annAll.Title}},
		{"Directors match the admin audience by prefix", []string{user.RoleAdminDirector}, []string{annAll.Title, annAdmins.Title}},
		{"No roles", nil, []string{annAll.Title}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anns, err := svc.AnnouncementsFor(ctx, tt.roles)
			if err != nil {
				t.Fatalf("AnnouncementsFor() failed: %v", err)
			}
			got := make(map[string]bool, len(anns))
			for _, ann := range anns {
				got[ann.Title] = true
			}
			if len(anns) != len(tt.want) {
				t.Fatalf("AnnouncementsFor() returned %d announcements, want %d: %v", len(anns), len(tt.want), got)
			}
			for _, title := range tt.want {
				if !got[title] {
					t.Errorf("AnnouncementsFor() is missing %q", title)
				}
			}
		})
	}
}

func Test_service_MarkRead(t *testing.T) {
	db := inmemdb.NewDB()
	svc := notification.NewService(inmemdb.NewNotificationRepository(db))
	ctx := context.Background()

	if err := svc.Notify(ctx, "usr1", "shift_reminder", "Shift tomorrow", "08:00 at Station 3"); err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}
	notifs, err := svc.UserNotifications(ctx, "usr1", true)
	if err != nil || len(notifs) != 1 {
		t.Fatalf("UserNotifications() = (%v, %v), want one unread", notifs, err)
	}
	n := notifs[0]

	t.Run("Only the recipient may mark", func(t *testing.T) {
		if _, err := svc.MarkRead(ctx, n.ID, "usr2"); err != notification.ErrNotFound {
			t.Errorf("MarkRead() error = %v, want %v", err, notification.ErrNotFound)
		}
	})

	t.Run("Mark read is idempotent", func(t *testing.T) {
		read, err := svc.MarkRead(ctx, n.ID, "usr1")
		if err != nil {
			t.Fatalf("MarkRead() failed: %v", err)
		}
		if !read.IsRead() {
			t.Error("MarkRead() did not set ReadAt")
		}
		again, err := svc.MarkRead(ctx, n.ID, "usr1")
		if err != nil {
			t.Fatalf("MarkRead() repeat failed: %v", err)
		}
		if !again.ReadAt.Equal(read.ReadAt) {
			t.Errorf("MarkRead() repeat moved ReadAt from %v to %v", read.ReadAt, again.ReadAt)
		}
	})
}
