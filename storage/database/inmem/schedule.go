package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/matibabu/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateShift(ctx context.Context, s schedule.Shift) (schedule.Shift, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.shifts[s.ID] = &s
	return s, nil
}

func (repo *scheduleRepository) QueryShifts(ctx context.Context, from, to time.Time) ([]schedule.Shift, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var shifts []schedule.Shift
	for _, s := range repo.db.shifts {
		if !s.Date.Before(from) && !s.Date.After(to) {
			shifts = append(shifts, *s)
		}
	}
	sort.Slice(shifts, func(i, j int) bool {
		if !shifts[i].Date.Equal(shifts[j].Date) {
			return shifts[i].Date.Before(shifts[j].Date)
		}
		return shifts[i].StartTime < shifts[j].StartTime
	})
	return shifts, nil
}

func (repo *scheduleRepository) GetShiftByID(ctx context.Context, id string) (schedule.Shift, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.getShift(id)
}

func (repo *scheduleRepository) getShift(id string) (schedule.Shift, error) {
	if s, ok := repo.db.shifts[id]; ok {
		return *s, nil
	}
	return schedule.Shift{}, schedule.ErrShiftNotFound
}

func (repo *scheduleRepository) UpdateShift(ctx context.Context, s schedule.Shift) (schedule.Shift, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.shifts[s.ID]
	if !ok {
		return schedule.Shift{}, schedule.ErrShiftNotFound
	}
	orig.Date = s.Date
	orig.StartTime = s.StartTime
	orig.EndTime = s.EndTime
	orig.Location = s.Location
	orig.Kind = s.Kind
	orig.Slots = s.Slots
	orig.UpdatedAt = s.UpdatedAt
	return *orig, nil
}

func (repo *scheduleRepository) DeleteShiftsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.shifts, id)
	}
	return nil
}

func (repo *scheduleRepository) CreateSignup(ctx context.Context, su schedule.Signup, slots int) (schedule.Signup, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// a holder re-signing up is a duplicate even when the shift is full
	if repo.hasActiveSignup(su.ShiftID, su.UserID) {
		return schedule.Signup{}, schedule.ErrAlreadySignedUp
	}
	if repo.countActiveSignups(su.ShiftID, "") >= slots {
		return schedule.Signup{}, schedule.ErrShiftFull
	}
	repo.db.signups[su.ID] = &su
	return su, nil
}

func (repo *scheduleRepository) countActiveSignups(shiftID, excludedSignupID string) int {
	var count int
	for _, su := range repo.db.signups {
		if su.ShiftID == shiftID && su.Status == schedule.SignupActive && su.ID != excludedSignupID {
			count++
		}
	}
	return count
}

func (repo *scheduleRepository) hasActiveSignup(shiftID, userID string) bool {
	for _, su := range repo.db.signups {
		if su.ShiftID == shiftID && su.UserID == userID && su.Status == schedule.SignupActive {
			return true
		}
	}
	return false
}

func (repo *scheduleRepository) GetSignupByID(ctx context.Context, id string) (schedule.Signup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if su, ok := repo.db.signups[id]; ok {
		return *su, nil
	}
	return schedule.Signup{}, schedule.ErrSignupNotFound
}

func (repo *scheduleRepository) QuerySignupsByShiftID(ctx context.Context, shiftID string) ([]schedule.Signup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var signups []schedule.Signup
	for _, su := range repo.db.signups {
		if su.ShiftID == shiftID {
			signups = append(signups, *su)
		}
	}
	sortSignups(signups)
	return signups, nil
}

func (repo *scheduleRepository) QuerySignupsByUserID(ctx context.Context, userID string) ([]schedule.Signup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var signups []schedule.Signup
	for _, su := range repo.db.signups {
		if su.UserID == userID {
			signups = append(signups, *su)
		}
	}
	sortSignups(signups)
	return signups, nil
}

func sortSignups(signups []schedule.Signup) {
	sort.Slice(signups, func(i, j int) bool { return signups[i].CreatedAt.Before(signups[j].CreatedAt) })
}

func (repo *scheduleRepository) UpdateSignup(ctx context.Context, su schedule.Signup) (schedule.Signup, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.signups[su.ID]
	if !ok {
		return schedule.Signup{}, schedule.ErrSignupNotFound
	}
	orig.Status = su.Status
	orig.UpdatedAt = su.UpdatedAt
	return *orig, nil
}

func (repo *scheduleRepository) CreateTrade(ctx context.Context, tr schedule.TradeRequest) (schedule.TradeRequest, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.trades[tr.ID] = &tr
	return tr, nil
}

func (repo *scheduleRepository) GetTradeByID(ctx context.Context, id string) (schedule.TradeRequest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tr, ok := repo.db.trades[id]; ok {
		return *tr, nil
	}
	return schedule.TradeRequest{}, schedule.ErrTradeNotFound
}

func (repo *scheduleRepository) FilterTrades(ctx context.Context, filter schedule.TradeQueryFilter) ([]schedule.TradeRequest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var trades []schedule.TradeRequest
	for _, tr := range repo.db.trades {
		if filter.UserID != "" && tr.FromUserID != filter.UserID && tr.ToUserID != filter.UserID {
			continue
		}
		if filter.Status != "" && tr.Status != filter.Status {
			continue
		}
		trades = append(trades, *tr)
	}
	sort.Slice(trades, func(i, j int) bool { return trades[i].CreatedAt.After(trades[j].CreatedAt) })
	return trades, nil
}

func (repo *scheduleRepository) UpdateTrade(ctx context.Context, tr schedule.TradeRequest) (schedule.TradeRequest, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.trades[tr.ID]
	if !ok {
		return schedule.TradeRequest{}, schedule.ErrTradeNotFound
	}
	orig.Status = tr.Status
	orig.RespondedAt = tr.RespondedAt
	orig.DecidedAt = tr.DecidedAt
	orig.DecidedBy = tr.DecidedBy
	orig.UpdatedAt = tr.UpdatedAt
	return *orig, nil
}

func (repo *scheduleRepository) ApproveTradeSwap(ctx context.Context, tr schedule.TradeRequest, slots int) (schedule.TradeRequest, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.trades[tr.ID]
	if !ok {
		return schedule.TradeRequest{}, schedule.ErrTradeNotFound
	}
	fromSignup, ok := repo.db.signups[tr.FromSignupID]
	if !ok {
		return schedule.TradeRequest{}, schedule.ErrSignupNotFound
	}
	if repo.hasActiveSignup(tr.ShiftID, tr.ToUserID) {
		return schedule.TradeRequest{}, schedule.ErrAlreadySignedUp
	}
	if repo.countActiveSignups(tr.ShiftID, tr.FromSignupID) >= slots {
		return schedule.TradeRequest{}, schedule.ErrShiftFull
	}

	orig.Status = tr.Status
	orig.DecidedAt = tr.DecidedAt
	orig.DecidedBy = tr.DecidedBy
	orig.UpdatedAt = tr.UpdatedAt

	fromSignup.Status = schedule.SignupTraded
	fromSignup.UpdatedAt = tr.UpdatedAt

	su := schedule.Signup{
		ID:        uuid.New().String(),
		ShiftID:   tr.ShiftID,
		UserID:    tr.ToUserID,
		Status:    schedule.SignupActive,
		CreatedAt: tr.UpdatedAt,
		UpdatedAt: tr.UpdatedAt,
	}
	repo.db.signups[su.ID] = &su
	return *orig, nil
}

func (repo *scheduleRepository) UpsertAvailability(ctx context.Context, av schedule.Availability) (schedule.Availability, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, orig := range repo.db.availabilities {
		if orig.UserID == av.UserID && orig.WeekStart.Equal(av.WeekStart) {
			orig.Days = av.Days
			orig.Note = av.Note
			orig.UpdatedAt = av.UpdatedAt
			return *orig, nil
		}
	}
	repo.db.availabilities[av.ID] = &av
	return av, nil
}

func (repo *scheduleRepository) GetAvailability(ctx context.Context, userID string, weekStart time.Time) (schedule.Availability, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, av := range repo.db.availabilities {
		if av.UserID == userID && av.WeekStart.Equal(weekStart) {
			return *av, nil
		}
	}
	return schedule.Availability{}, schedule.ErrAvailabilityNotFound
}

func (repo *scheduleRepository) QueryUserIDsWithAvailability(ctx context.Context, weekStart time.Time) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var ids []string
	for _, av := range repo.db.availabilities {
		if av.WeekStart.Equal(weekStart) {
			ids = append(ids, av.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
