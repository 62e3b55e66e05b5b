package notification

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matibabu/core"
)

// Alert severities
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// AudienceAll publishes an announcement to every role.
const AudienceAll = "all"

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ReadAt    time.Time `json:"read_at"`    // zero when unread
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (n Notification) IsRead() bool { return !n.ReadAt.IsZero() }

type SystemAlert struct {
	ID         string    `json:"id"`
	Severity   string    `json:"severity"`
	Source     string    `json:"source"`
	Message    string    `json:"message"`
	ResolvedAt time.Time `json:"resolved_at"` // zero when open
	ResolvedBy string    `json:"resolved_by"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

func (a SystemAlert) IsResolved() bool { return !a.ResolvedAt.IsZero() }

// Announcement is shown to users whose roles match Audience
// (a role prefix, or "all").
type Announcement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Audience    string    `json:"audience"`
	PublishedAt time.Time `json:"published_at"` // UTC
	CreatedBy   string    `json:"created_by"`
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type NewSystemAlert struct {
	Severity string `json:"severity" validate:"required,oneof=info warning critical"`
	Source   string `json:"source" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

func (na *NewSystemAlert) Validate(validate *validator.Validate) error {
	na.Source = core.CleanString(na.Source, true /* lower */)
	na.Message = core.CleanString(na.Message)
	return validate.Struct(na)
}

type NewAnnouncement struct {
	Title    string `json:"title" validate:"required"`
	Body     string `json:"body" validate:"required"`
	Audience string `json:"audience" validate:"omitempty,oneof=all admin: instructor: student:"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Body = core.CleanString(na.Body)
	if na.Audience == "" {
		na.Audience = AudienceAll
	}
	return validate.Struct(na)
}

type UpdateAnnouncement struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Audience string `json:"audience" validate:"omitempty,oneof=all admin: instructor: student:"`
}

func (ua *UpdateAnnouncement) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	ua.Body = core.CleanString(ua.Body)
	return validate.Struct(ua)
}
