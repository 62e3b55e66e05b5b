package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matibabu/core"
)

// Shift kinds
const (
	KindField    = "field"
	KindClinical = "clinical"
	KindEvent    = "event"
)

// Signup statuses
const (
	SignupActive    = "active"
	SignupCancelled = "cancelled"
	SignupTraded    = "traded"
)

// Trade request statuses
const (
	TradePending   = "pending"
	TradeAccepted  = "accepted"
	TradeApproved  = "approved"
	TradeDeclined  = "declined"
	TradeCancelled = "cancelled"
)

// Trade actions
const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
	ActionApprove = "approve"
	ActionCancel  = "cancel"
)

type Shift struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"` // HH:MM
	EndTime   string    `json:"end_time"`   // HH:MM
	Location  string    `json:"location"`
	Kind      string    `json:"kind"`
	Slots     int       `json:"slots"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Signup struct {
	ID        string    `json:"id"`
	ShiftID   string    `json:"shift_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// TradeRequest tracks a signup holder offering their shift to a counterparty.
//
// State machine:
//
//	pending   -> accepted (counterparty) | declined (counterparty) | cancelled (requester)
//	accepted  -> approved | declined (admin/coordinator) | cancelled (requester)
//	approved, declined, cancelled: terminal
type TradeRequest struct {
	ID           string    `json:"id"`
	ShiftID      string    `json:"shift_id"`
	FromSignupID string    `json:"from_signup_id"`
	FromUserID   string    `json:"from_user_id"`
	ToUserID     string    `json:"to_user_id"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason"`
	RespondedAt  time.Time `json:"responded_at"` // UTC; counterparty accept/decline
	DecidedAt    time.Time `json:"decided_at"`   // UTC; admin approve/decline
	DecidedBy    string    `json:"decided_by"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (tr TradeRequest) IsTerminal() bool {
	switch tr.Status {
	case TradeApproved, TradeDeclined, TradeCancelled:
		return true
	}
	return false
}

// Availability is a user's weekly availability submission, one row per user+week.
type Availability struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	WeekStart time.Time `json:"week_start"` // Monday, date only
	Days      [7]bool   `json:"days"`
	Note      string    `json:"note"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type NewShift struct {
	Date      time.Time `json:"date" validate:"required"`
	StartTime string    `json:"start_time" validate:"required,clocktime"`
	EndTime   string    `json:"end_time" validate:"required,clocktime"`
	Location  string    `json:"location" validate:"required"`
	Kind      string    `json:"kind" validate:"required,oneof=field clinical event"`
	Slots     int       `json:"slots" validate:"required,min=1"`
}

func (ns *NewShift) Validate(validate *validator.Validate) error {
	ns.Location = core.CleanString(ns.Location)
	return validate.Struct(ns)
}

type UpdateShift struct {
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time" validate:"omitempty,clocktime"`
	EndTime   string    `json:"end_time" validate:"omitempty,clocktime"`
	Location  string    `json:"location"`
	Kind      string    `json:"kind" validate:"omitempty,oneof=field clinical event"`
	Slots     int       `json:"slots" validate:"omitempty,min=1"`
}

func (us *UpdateShift) Validate(orig Shift, validate *validator.Validate) error {
	if us.Date.IsZero() {
		us.Date = orig.Date
	}
	if us.StartTime == "" {
		us.StartTime = orig.StartTime
	}
	if us.EndTime == "" {
		us.EndTime = orig.EndTime
	}
	if loc := core.CleanString(us.Location); loc != "" {
		us.Location = loc
	} else {
		us.Location = orig.Location
	}
	if us.Kind == "" {
		us.Kind = orig.Kind
	}
	if us.Slots == 0 {
		us.Slots = orig.Slots
	}
	return validate.Struct(us)
}

type NewTradeRequest struct {
	SignupID string `json:"signup_id" validate:"required"`
	ToUserID string `json:"to_user_id" validate:"required"`
	Reason   string `json:"reason"`
}

func (nt *NewTradeRequest) Validate(validate *validator.Validate) error {
	nt.Reason = core.CleanString(nt.Reason)
	return validate.Struct(nt)
}

type TradeAction struct {
	Action string `json:"action" validate:"required,oneof=accept decline approve cancel"`
}

func (ta *TradeAction) Validate(validate *validator.Validate) error {
	ta.Action = core.CleanString(ta.Action, true /* lower */)
	return validate.Struct(ta)
}

type SubmitAvailability struct {
	WeekStart time.Time `json:"week_start" validate:"required"`
	Days      [7]bool   `json:"days"`
	Note      string    `json:"note"`
}

func (sa *SubmitAvailability) Validate(validate *validator.Validate) error {
	sa.Note = core.CleanString(sa.Note)
	// snap to the Monday of the given week
	for sa.WeekStart.Weekday() != time.Monday {
		sa.WeekStart = sa.WeekStart.AddDate(0, 0, -1)
	}
	return validate.Struct(sa)
}

type TradeQueryFilter struct {
	UserID string // either side of the trade
	Status string
}
