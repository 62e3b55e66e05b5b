package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/schedule"
)

type shiftRow struct {
	ID        string    `db:"id"`
	Date      time.Time `db:"date"`
	StartTime string    `db:"start_time"`
	EndTime   string    `db:"end_time"`
	Location  string    `db:"location"`
	Kind      string    `db:"kind"`
	Slots     int       `db:"slots"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type signupRow struct {
	ID        string    `db:"id"`
	ShiftID   string    `db:"shift_id"`
	UserID    string    `db:"user_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type tradeRow struct {
	ID           string       `db:"id"`
	ShiftID      string       `db:"shift_id"`
	FromSignupID string       `db:"from_signup_id"`
	FromUserID   string       `db:"from_user_id"`
	ToUserID     string       `db:"to_user_id"`
	Status       string       `db:"status"`
	Reason       string       `db:"reason"`
	RespondedAt  sql.NullTime `db:"responded_at"`
	DecidedAt    sql.NullTime `db:"decided_at"`
	DecidedBy    string       `db:"decided_by"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r tradeRow) toCore() schedule.TradeRequest {
	tr := schedule.TradeRequest{
		ID:           r.ID,
		ShiftID:      r.ShiftID,
		FromSignupID: r.FromSignupID,
		FromUserID:   r.FromUserID,
		ToUserID:     r.ToUserID,
		Status:       r.Status,
		Reason:       r.Reason,
		DecidedBy:    r.DecidedBy,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.RespondedAt.Valid {
		tr.RespondedAt = r.RespondedAt.Time
	}
	if r.DecidedAt.Valid {
		tr.DecidedAt = r.DecidedAt.Time
	}
	return tr
}

type availabilityRow struct {
	ID        string       `db:"id"`
	UserID    string       `db:"user_id"`
	WeekStart time.Time    `db:"week_start"`
	Days      pq.BoolArray `db:"days"`
	Note      string       `db:"note"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func (r availabilityRow) toCore() schedule.Availability {
	av := schedule.Availability{
		ID:        r.ID,
		UserID:    r.UserID,
		WeekStart: r.WeekStart,
		Note:      r.Note,
		UpdatedAt: r.UpdatedAt,
	}
	copy(av.Days[:], r.Days)
	return av
}

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sqlx.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo scheduleRepository) CreateShift(ctx context.Context, s schedule.Shift) (schedule.Shift, error) {
	q := `
INSERT INTO shift (id, date, start_time, end_time, location, kind, slots, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, q,
		s.ID, s.Date, s.StartTime, s.EndTime, s.Location, s.Kind, s.Slots, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return schedule.Shift{}, errors.Wrap(err, "creating shift")
	}
	return s, nil
}

func (repo scheduleRepository) QueryShifts(ctx context.Context, from, to time.Time) ([]schedule.Shift, error) {
	var rows []shiftRow
	q := `SELECT * FROM shift WHERE date >= $1 AND date <= $2 ORDER BY date, start_time`
	if err := repo.db.SelectContext(ctx, &rows, q, from, to); err != nil {
		return nil, errors.Wrap(err, "querying shifts")
	}
	shifts := make([]schedule.Shift, 0, len(rows))
	for _, row := range rows {
		shifts = append(shifts, schedule.Shift(row))
	}
	return shifts, nil
}

func (repo scheduleRepository) GetShiftByID(ctx context.Context, id string) (schedule.Shift, error) {
	var row shiftRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM shift WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return schedule.Shift{}, schedule.ErrShiftNotFound
		}
		return schedule.Shift{}, errors.Wrap(err, "getting shift")
	}
	return schedule.Shift(row), nil
}

func (repo scheduleRepository) UpdateShift(ctx context.Context, s schedule.Shift) (schedule.Shift, error) {
	q := `
UPDATE shift SET date = $2, start_time = $3, end_time = $4, location = $5, kind = $6, slots = $7, updated_at = $8
WHERE id = $1
RETURNING *`
	var row shiftRow
	err := repo.db.GetContext(ctx, &row, q,
		s.ID, s.Date, s.StartTime, s.EndTime, s.Location, s.Kind, s.Slots, s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.Shift{}, schedule.ErrShiftNotFound
		}
		return schedule.Shift{}, errors.Wrap(err, "updating shift")
	}
	return schedule.Shift(row), nil
}

func (repo scheduleRepository) DeleteShiftsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM shift WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting shifts")
}

// CreateSignup re-checks capacity and the one-active-signup invariant inside a
// transaction; the shift row is locked to serialize concurrent signups.
func (repo scheduleRepository) CreateSignup(ctx context.Context, su schedule.Signup, slots int) (schedule.Signup, error) {
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockShift(ctx, tx, su.ShiftID); err != nil {
			return err
		}

		// a holder re-signing up is a duplicate even when the shift is full
		var dupes int
		q := `SELECT COUNT(*) FROM signup WHERE shift_id = $1 AND user_id = $2 AND status = $3`
		if err := tx.GetContext(ctx, &dupes, q, su.ShiftID, su.UserID, schedule.SignupActive); err != nil {
			return errors.Wrap(err, "checking existing signup")
		}
		if dupes > 0 {
			return schedule.ErrAlreadySignedUp
		}

		var taken int
		q = `SELECT COUNT(*) FROM signup WHERE shift_id = $1 AND status = $2`
		if err := tx.GetContext(ctx, &taken, q, su.ShiftID, schedule.SignupActive); err != nil {
			return errors.Wrap(err, "counting signups")
		}
		if taken >= slots {
			return schedule.ErrShiftFull
		}

		return insertSignup(ctx, tx, su)
	})
	if err != nil {
		return schedule.Signup{}, err
	}
	return su, nil
}

func (repo scheduleRepository) GetSignupByID(ctx context.Context, id string) (schedule.Signup, error) {
	var row signupRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM signup WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return schedule.Signup{}, schedule.ErrSignupNotFound
		}
		return schedule.Signup{}, errors.Wrap(err, "getting signup")
	}
	return schedule.Signup(row), nil
}

func (repo scheduleRepository) QuerySignupsByShiftID(ctx context.Context, shiftID string) ([]schedule.Signup, error) {
	return repo.querySignupsWhere(ctx, "shift_id = $1", shiftID)
}

func (repo scheduleRepository) QuerySignupsByUserID(ctx context.Context, userID string) ([]schedule.Signup, error) {
	return repo.querySignupsWhere(ctx, "user_id = $1", userID)
}

func (repo scheduleRepository) querySignupsWhere(ctx context.Context, clause string, arg interface{}) ([]schedule.Signup, error) {
	var rows []signupRow
	q := `SELECT * FROM signup WHERE ` + clause + ` ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, arg); err != nil {
		return nil, errors.Wrap(err, "querying signups")
	}
	signups := make([]schedule.Signup, 0, len(rows))
	for _, row := range rows {
		signups = append(signups, schedule.Signup(row))
	}
	return signups, nil
}

func (repo scheduleRepository) UpdateSignup(ctx context.Context, su schedule.Signup) (schedule.Signup, error) {
	q := `UPDATE signup SET status = $2, updated_at = $3 WHERE id = $1 RETURNING *`
	var row signupRow
	if err := repo.db.GetContext(ctx, &row, q, su.ID, su.Status, su.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return schedule.Signup{}, schedule.ErrSignupNotFound
		}
		return schedule.Signup{}, errors.Wrap(err, "updating signup")
	}
	return schedule.Signup(row), nil
}

func (repo scheduleRepository) CreateTrade(ctx context.Context, tr schedule.TradeRequest) (schedule.TradeRequest, error) {
	q := `
INSERT INTO trade_request (id, shift_id, from_signup_id, from_user_id, to_user_id, status, reason, decided_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, q,
		tr.ID, tr.ShiftID, tr.FromSignupID, tr.FromUserID, tr.ToUserID, tr.Status, tr.Reason, tr.DecidedBy, tr.CreatedAt, tr.UpdatedAt,
	)
	if err != nil {
		return schedule.TradeRequest{}, errors.Wrap(err, "creating trade request")
	}
	return tr, nil
}

func (repo scheduleRepository) GetTradeByID(ctx context.Context, id string) (schedule.TradeRequest, error) {
	var row tradeRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM trade_request WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return schedule.TradeRequest{}, schedule.ErrTradeNotFound
		}
		return schedule.TradeRequest{}, errors.Wrap(err, "getting trade request")
	}
	return row.toCore(), nil
}

func (repo scheduleRepository) FilterTrades(ctx context.Context, filter schedule.TradeQueryFilter) ([]schedule.TradeRequest, error) {
	var (
		clauses []string
		args    []interface{}
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		clauses = append(clauses, fmt.Sprintf("(from_user_id = $%[1]d OR to_user_id = $%[1]d)", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	q := `SELECT * FROM trade_request`
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY created_at DESC"

	var rows []tradeRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering trade requests")
	}
	trades := make([]schedule.TradeRequest, 0, len(rows))
	for _, row := range rows {
		trades = append(trades, row.toCore())
	}
	return trades, nil
}

func (repo scheduleRepository) UpdateTrade(ctx context.Context, tr schedule.TradeRequest) (schedule.TradeRequest, error) {
	q := `
UPDATE trade_request SET status = $2, responded_at = $3, decided_at = $4, decided_by = $5, updated_at = $6
WHERE id = $1
RETURNING *`
	var row tradeRow
	err := repo.db.GetContext(ctx, &row, q,
		tr.ID, tr.Status, nullTime(tr.RespondedAt), nullTime(tr.DecidedAt), tr.DecidedBy, tr.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.TradeRequest{}, schedule.ErrTradeNotFound
		}
		return schedule.TradeRequest{}, errors.Wrap(err, "updating trade request")
	}
	return row.toCore(), nil
}

// ApproveTradeSwap atomically approves the trade, retires the requester's
// signup and signs up the counterparty.
func (repo scheduleRepository) ApproveTradeSwap(ctx context.Context, tr schedule.TradeRequest, slots int) (schedule.TradeRequest, error) {
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockShift(ctx, tx, tr.ShiftID); err != nil {
			return err
		}

		// the requester's slot frees up in the same transaction; only the
		// counterparty's own signups can conflict
		var dupes int
		q := `SELECT COUNT(*) FROM signup WHERE shift_id = $1 AND user_id = $2 AND status = $3`
		if err := tx.GetContext(ctx, &dupes, q, tr.ShiftID, tr.ToUserID, schedule.SignupActive); err != nil {
			return errors.Wrap(err, "checking counterparty signup")
		}
		if dupes > 0 {
			return schedule.ErrAlreadySignedUp
		}

		var taken int
		q = `SELECT COUNT(*) FROM signup WHERE shift_id = $1 AND status = $2 AND id <> $3`
		if err := tx.GetContext(ctx, &taken, q, tr.ShiftID, schedule.SignupActive, tr.FromSignupID); err != nil {
			return errors.Wrap(err, "counting signups")
		}
		if taken >= slots {
			return schedule.ErrShiftFull
		}

		now := tr.UpdatedAt
		q = `UPDATE trade_request SET status = $2, decided_at = $3, decided_by = $4, updated_at = $5 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, q, tr.ID, tr.Status, nullTime(tr.DecidedAt), tr.DecidedBy, now); err != nil {
			return errors.Wrap(err, "approving trade request")
		}

		q = `UPDATE signup SET status = $2, updated_at = $3 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, q, tr.FromSignupID, schedule.SignupTraded, now); err != nil {
			return errors.Wrap(err, "retiring signup")
		}

		return insertSignup(ctx, tx, schedule.Signup{
			ID:        uuid.New().String(),
			ShiftID:   tr.ShiftID,
			UserID:    tr.ToUserID,
			Status:    schedule.SignupActive,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return schedule.TradeRequest{}, err
	}
	return tr, nil
}

func (repo scheduleRepository) UpsertAvailability(ctx context.Context, av schedule.Availability) (schedule.Availability, error) {
	q := `
INSERT INTO availability (id, user_id, week_start, days, note, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, week_start)
DO UPDATE SET days = EXCLUDED.days, note = EXCLUDED.note, updated_at = EXCLUDED.updated_at
RETURNING *`
	var row availabilityRow
	err := repo.db.GetContext(ctx, &row, q,
		av.ID, av.UserID, av.WeekStart, pq.Array(av.Days[:]), av.Note, av.UpdatedAt,
	)
	if err != nil {
		return schedule.Availability{}, errors.Wrap(err, "upserting availability")
	}
	return row.toCore(), nil
}

func (repo scheduleRepository) GetAvailability(ctx context.Context, userID string, weekStart time.Time) (schedule.Availability, error) {
	q := `SELECT * FROM availability WHERE user_id = $1 AND week_start = $2`
	var row availabilityRow
	if err := repo.db.GetContext(ctx, &row, q, userID, weekStart); err != nil {
		if err == sql.ErrNoRows {
			return schedule.Availability{}, schedule.ErrAvailabilityNotFound
		}
		return schedule.Availability{}, errors.Wrap(err, "getting availability")
	}
	return row.toCore(), nil
}

func (repo scheduleRepository) QueryUserIDsWithAvailability(ctx context.Context, weekStart time.Time) ([]string, error) {
	var ids []string
	q := `SELECT user_id FROM availability WHERE week_start = $1`
	if err := repo.db.SelectContext(ctx, &ids, q, weekStart); err != nil {
		return nil, errors.Wrap(err, "querying availability submissions")
	}
	return ids, nil
}

func (repo scheduleRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func lockShift(ctx context.Context, tx *sqlx.Tx, shiftID string) error {
	var id string
	if err := tx.GetContext(ctx, &id, `SELECT id FROM shift WHERE id = $1 FOR UPDATE`, shiftID); err != nil {
		if err == sql.ErrNoRows {
			return schedule.ErrShiftNotFound
		}
		return errors.Wrap(err, "locking shift")
	}
	return nil
}

func insertSignup(ctx context.Context, tx *sqlx.Tx, su schedule.Signup) error {
	q := `
INSERT INTO signup (id, shift_id, user_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := tx.ExecContext(ctx, q, su.ID, su.ShiftID, su.UserID, su.Status, su.CreatedAt, su.UpdatedAt)
	return errors.Wrap(err, "creating signup")
}
