package schedule

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core"
	"github.com/trezcool/matibabu/core/user"
)

var (
	// errors
	ErrShiftNotFound        = errors.New("shift not found")
	ErrSignupNotFound       = errors.New("signup not found")
	ErrTradeNotFound        = errors.New("trade request not found")
	ErrAvailabilityNotFound = errors.New("availability not found")
	ErrShiftFull            = errors.New("shift is full")
	ErrAlreadySignedUp      = errors.New("user already has an active signup for this shift")
	ErrNotSignupOwner       = errors.New("signup belongs to another user")
	ErrInvalidTransition    = errors.New("trade request does not allow this action")
	ErrNotCounterparty      = errors.New("only the counterparty may respond to this trade")
	ErrNotRequester         = errors.New("only the requester may cancel this trade")
	ErrNotApprover          = errors.New("only an admin may decide an accepted trade")
	ErrSelfTrade            = errors.New("cannot trade a shift with yourself")
)

type (
	Repository interface {
		CreateShift(ctx context.Context, s Shift) (Shift, error)
		QueryShifts(ctx context.Context, from, to time.Time) ([]Shift, error)
		GetShiftByID(ctx context.Context, id string) (Shift, error)
		UpdateShift(ctx context.Context, s Shift) (Shift, error)
		DeleteShiftsByID(ctx context.Context, ids ...string) error

		// CreateSignup persists an active signup, re-checking capacity and the
		// one-active-signup-per-user invariant in the same transaction.
		CreateSignup(ctx context.Context, su Signup, slots int) (Signup, error)
		GetSignupByID(ctx context.Context, id string) (Signup, error)
		QuerySignupsByShiftID(ctx context.Context, shiftID string) ([]Signup, error)
		QuerySignupsByUserID(ctx context.Context, userID string) ([]Signup, error)
		UpdateSignup(ctx context.Context, su Signup) (Signup, error)

		CreateTrade(ctx context.Context, tr TradeRequest) (TradeRequest, error)
		GetTradeByID(ctx context.Context, id string) (TradeRequest, error)
		FilterTrades(ctx context.Context, filter TradeQueryFilter) ([]TradeRequest, error)
		UpdateTrade(ctx context.Context, tr TradeRequest) (TradeRequest, error)
		// ApproveTradeSwap atomically marks the trade approved, retires the requester's
		// signup as traded and creates an active signup for the counterparty.
		// Capacity and the one-active-signup invariant are re-checked within the transaction.
		ApproveTradeSwap(ctx context.Context, tr TradeRequest, slots int) (TradeRequest, error)

		UpsertAvailability(ctx context.Context, av Availability) (Availability, error)
		GetAvailability(ctx context.Context, userID string, weekStart time.Time) (Availability, error)
		// QueryUserIDsWithAvailability returns the IDs of users having a submission for the week.
		QueryUserIDsWithAvailability(ctx context.Context, weekStart time.Time) ([]string, error)
	}

	Service interface {
		CreateShift(ctx context.Context, ns NewShift) (Shift, error)
		Shifts(ctx context.Context, from, to time.Time) ([]Shift, error)
		GetShift(ctx context.Context, id string) (Shift, error)
		UpdateShift(ctx context.Context, id string, us UpdateShift) (Shift, error)
		DeleteShifts(ctx context.Context, ids ...string) error

		SignUp(ctx context.Context, shiftID, userID string) (Signup, error)
		CancelSignup(ctx context.Context, signupID, userID string, isAdmin bool) (Signup, error)
		ShiftRoster(ctx context.Context, shiftID string) ([]Signup, error)
		UserSignups(ctx context.Context, userID string) ([]Signup, error)

		RequestTrade(ctx context.Context, requester user.User, nt NewTradeRequest) (TradeRequest, error)
		Trades(ctx context.Context, filter TradeQueryFilter) ([]TradeRequest, error)
		GetTrade(ctx context.Context, id string) (TradeRequest, error)
		// ResolveTrade drives the trade state machine for the given actor.
		ResolveTrade(ctx context.Context, id string, actor user.User, action string) (TradeRequest, error)

		SubmitAvailability(ctx context.Context, userID string, sa SubmitAvailability) (Availability, error)
		GetAvailability(ctx context.Context, userID string, weekStart time.Time) (Availability, error)
		UserIDsWithAvailability(ctx context.Context, weekStart time.Time) ([]string, error)

		// ShiftCoverage returns active signup counts keyed by shift ID for a date range.
		ShiftCoverage(ctx context.Context, from, to time.Time) (map[string]int, error)
	}

	// Notifier creates a user notification; satisfied by the notification service.
	Notifier func(ctx context.Context, userID, kind, title, body string) error

	service struct {
		repo     Repository
		usrSvc   user.Service
		mailSvc  core.EmailService
		notifier Notifier
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, mailSvc core.EmailService, notifier Notifier) Service {
	return &service{
		repo:     repo,
		usrSvc:   usrSvc,
		mailSvc:  mailSvc,
		notifier: notifier,
	}
}

func (svc *service) CreateShift(ctx context.Context, ns NewShift) (Shift, error) {
	now := time.Now().UTC()
	return svc.repo.CreateShift(ctx, Shift{
		ID:        uuid.New().String(),
		Date:      ns.Date,
		StartTime: ns.StartTime,
		EndTime:   ns.EndTime,
		Location:  ns.Location,
		Kind:      ns.Kind,
		Slots:     ns.Slots,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) Shifts(ctx context.Context, from, to time.Time) ([]Shift, error) {
	return svc.repo.QueryShifts(ctx, from, to)
}

func (svc *service) GetShift(ctx context.Context, id string) (Shift, error) {
	return svc.repo.GetShiftByID(ctx, id)
}

func (svc *service) UpdateShift(ctx context.Context, id string, us UpdateShift) (Shift, error) {
	return svc.repo.UpdateShift(ctx, Shift{
		ID:        id,
		Date:      us.Date,
		StartTime: us.StartTime,
		EndTime:   us.EndTime,
		Location:  us.Location,
		Kind:      us.Kind,
		Slots:     us.Slots,
		UpdatedAt: time.Now().UTC(),
	})
}

func (svc *service) DeleteShifts(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteShiftsByID(ctx, ids...)
}

func (svc *service) SignUp(ctx context.Context, shiftID, userID string) (Signup, error) {
	shift, err := svc.repo.GetShiftByID(ctx, shiftID)
	if err != nil {
		return Signup{}, err
	}

	now := time.Now().UTC()
	su, err := svc.repo.CreateSignup(ctx, Signup{
		ID:        uuid.New().String(),
		ShiftID:   shift.ID,
		UserID:    userID,
		Status:    SignupActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, shift.Slots)
	if err != nil {
		switch errors.Cause(err) {
		case ErrShiftFull, ErrAlreadySignedUp:
			return Signup{}, core.NewValidationError(err)
		}
		return Signup{}, err
	}
	return su, nil
}

func (svc *service) CancelSignup(ctx context.Context, signupID, userID string, isAdmin bool) (Signup, error) {
	su, err := svc.repo.GetSignupByID(ctx, signupID)
	if err != nil {
		return Signup{}, err
	}
	if su.UserID != userID && !isAdmin {
		return Signup{}, ErrNotSignupOwner
	}
	su.Status = SignupCancelled
	su.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSignup(ctx, su)
}

func (svc *service) ShiftRoster(ctx context.Context, shiftID string) ([]Signup, error) {
	if _, err := svc.repo.GetShiftByID(ctx, shiftID); err != nil {
		return nil, err
	}
	return svc.repo.QuerySignupsByShiftID(ctx, shiftID)
}

func (svc *service) UserSignups(ctx context.Context, userID string) ([]Signup, error) {
	return svc.repo.QuerySignupsByUserID(ctx, userID)
}

func (svc *service) RequestTrade(ctx context.Context, requester user.User, nt NewTradeRequest) (TradeRequest, error) {
	su, err := svc.repo.GetSignupByID(ctx, nt.SignupID)
	if err != nil {
		return TradeRequest{}, err
	}
	if su.UserID != requester.ID {
		return TradeRequest{}, ErrNotSignupOwner
	}
	if su.Status != SignupActive {
		return TradeRequest{}, core.NewValidationError(errors.New("signup is not active"))
	}
	if nt.ToUserID == requester.ID {
		return TradeRequest{}, core.NewValidationError(ErrSelfTrade,
			core.FieldError{Field: "to_user_id", Error: ErrSelfTrade.Error()})
	}
	if _, err = svc.usrSvc.GetByID(ctx, nt.ToUserID); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return TradeRequest{}, core.NewValidationError(err,
				core.FieldError{Field: "to_user_id", Error: err.Error()})
		}
		return TradeRequest{}, err
	}

	now := time.Now().UTC()
	tr, err := svc.repo.CreateTrade(ctx, TradeRequest{
		ID:           uuid.New().String(),
		ShiftID:      su.ShiftID,
		FromSignupID: su.ID,
		FromUserID:   su.UserID,
		ToUserID:     nt.ToUserID,
		Status:       TradePending,
		Reason:       nt.Reason,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return TradeRequest{}, err
	}

	_ = svc.notifier(ctx, tr.ToUserID, "trade_requested", "Shift trade offered",
		fmt.Sprintf("%s has offered you their shift.", requester.Name))
	return tr, nil
}

func (svc *service) Trades(ctx context.Context, filter TradeQueryFilter) ([]TradeRequest, error) {
	return svc.repo.FilterTrades(ctx, filter)
}

func (svc *service) GetTrade(ctx context.Context, id string) (TradeRequest, error) {
	return svc.repo.GetTradeByID(ctx, id)
}

func (svc *service) ResolveTrade(ctx context.Context, id string, actor user.User, action string) (TradeRequest, error) {
	tr, err := svc.repo.GetTradeByID(ctx, id)
	if err != nil {
		return TradeRequest{}, err
	}

	now := time.Now().UTC()
	switch action {
	case ActionAccept:
		if tr.Status != TradePending {
			return TradeRequest{}, core.NewValidationError(ErrInvalidTransition)
		}
		if tr.ToUserID != actor.ID {
			return TradeRequest{}, ErrNotCounterparty
		}
		tr.Status = TradeAccepted
		tr.RespondedAt = now

	case ActionCancel:
		if tr.IsTerminal() {
			return TradeRequest{}, core.NewValidationError(ErrInvalidTransition)
		}
		if tr.FromUserID != actor.ID {
			return TradeRequest{}, ErrNotRequester
		}
		tr.Status = TradeCancelled

	case ActionDecline:
		switch tr.Status {
		case TradePending:
			if tr.ToUserID != actor.ID {
				return TradeRequest{}, ErrNotCounterparty
			}
			tr.RespondedAt = now
		case TradeAccepted:
			if !actor.IsAdmin() {
				return TradeRequest{}, ErrNotApprover
			}
			tr.DecidedAt = now
			tr.DecidedBy = actor.ID
		default:
			return TradeRequest{}, core.NewValidationError(ErrInvalidTransition)
		}
		tr.Status = TradeDeclined

	case ActionApprove:
		if tr.Status != TradeAccepted {
			return TradeRequest{}, core.NewValidationError(ErrInvalidTransition)
		}
		if !actor.IsAdmin() {
			return TradeRequest{}, ErrNotApprover
		}
		tr.Status = TradeApproved
		tr.DecidedAt = now
		tr.DecidedBy = actor.ID

	default:
		return TradeRequest{}, core.NewValidationError(ErrInvalidTransition)
	}

	tr.UpdatedAt = now
	if tr.Status == TradeApproved {
		shift, err := svc.repo.GetShiftByID(ctx, tr.ShiftID)
		if err != nil {
			return TradeRequest{}, err
		}
		// the swap and the status change commit or roll back together
		tr, err = svc.repo.ApproveTradeSwap(ctx, tr, shift.Slots)
		if err != nil {
			switch errors.Cause(err) {
			case ErrShiftFull, ErrAlreadySignedUp:
				return TradeRequest{}, core.NewValidationError(err)
			}
			return TradeRequest{}, err
		}
	} else {
		if tr, err = svc.repo.UpdateTrade(ctx, tr); err != nil {
			return TradeRequest{}, err
		}
	}

	svc.notifyTradeResolution(ctx, tr, action)
	return tr, nil
}

func (svc *service) notifyTradeResolution(ctx context.Context, tr TradeRequest, action string) {
	titles := map[string]string{
		ActionAccept:  "Shift trade accepted",
		ActionDecline: "Shift trade declined",
		ActionApprove: "Shift trade approved",
		ActionCancel:  "Shift trade cancelled",
	}
	title := titles[action]
	body := fmt.Sprintf("Trade request %s is now %s.", tr.ID, tr.Status)

	_ = svc.notifier(ctx, tr.FromUserID, "trade_"+tr.Status, title, body)
	_ = svc.notifier(ctx, tr.ToUserID, "trade_"+tr.Status, title, body)

	// decisions also go out by email
	if tr.Status != TradeApproved && tr.Status != TradeDeclined {
		return
	}
	msgs := make([]*core.EmailMessage, 0, 2)
	for _, uid := range []string{tr.FromUserID, tr.ToUserID} {
		usr, err := svc.usrSvc.GetByID(ctx, uid)
		if err != nil || usr.Email == "" {
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      title,
			TemplateName: "trade-decision",
			TemplateData: struct{ Name, Status string }{usr.Name, tr.Status},
		})
	}
	svc.mailSvc.SendMessages(msgs...)
}

func (svc *service) SubmitAvailability(ctx context.Context, userID string, sa SubmitAvailability) (Availability, error) {
	return svc.repo.UpsertAvailability(ctx, Availability{
		ID:        uuid.New().String(),
		UserID:    userID,
		WeekStart: sa.WeekStart,
		Days:      sa.Days,
		Note:      sa.Note,
		UpdatedAt: time.Now().UTC(),
	})
}

func (svc *service) GetAvailability(ctx context.Context, userID string, weekStart time.Time) (Availability, error) {
	return svc.repo.GetAvailability(ctx, userID, weekStart)
}

func (svc *service) UserIDsWithAvailability(ctx context.Context, weekStart time.Time) ([]string, error) {
	return svc.repo.QueryUserIDsWithAvailability(ctx, weekStart)
}

func (svc *service) ShiftCoverage(ctx context.Context, from, to time.Time) (map[string]int, error) {
	shifts, err := svc.repo.QueryShifts(ctx, from, to)
	if err != nil {
		return nil, err
	}
	coverage := make(map[string]int, len(shifts))
	for _, shift := range shifts {
		signups, err := svc.repo.QuerySignupsByShiftID(ctx, shift.ID)
		if err != nil {
			return nil, err
		}
		var active int
		for _, su := range signups {
			if su.Status == SignupActive {
				active++
			}
		}
		coverage[shift.ID] = active
	}
	return coverage, nil
}
