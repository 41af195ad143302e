package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Rjn-Mjn/esp32-attendance-server/internal/model"
)

// ShiftRepo reads scheduled shifts and applies the attendance mutations.
// Every write is a single conditional UPDATE (field still unset, or
// status still 'future') so concurrent scans and sweeps never need a
// multi-statement transaction: the first writer for a field wins and
// the loser's statement affects zero rows.
type ShiftRepo struct{ DB *sql.DB }

func NewShiftRepo(db *sql.DB) *ShiftRepo { return &ShiftRepo{DB: db} }

const shiftColumns = `a.account_id, a.shift_id, a.date, s.start_time, s.duration_min, s.tolerance_min,
	       a.check_in, a.check_out, a.status, a.is_deleted`

// ShiftsOn fetches all non-deleted shifts scheduled for an account on a
// calendar date. The date is passed as its YYYY-MM-DD form so the
// comparison never depends on the session timezone.
func (r *ShiftRepo) ShiftsOn(ctx context.Context, accountID uint64, date time.Time) ([]model.Shift, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+shiftColumns+`
		FROM attendance a
		JOIN shifts s ON a.shift_id = s.id
		WHERE a.account_id = ? AND a.date = ? AND a.is_deleted = 0`,
		accountID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShifts(rows)
}

// PendingShifts fetches every non-deleted shift still in status
// 'future', across all accounts and dates. Used by the absence sweep.
func (r *ShiftRepo) PendingShifts(ctx context.Context) ([]model.Shift, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+shiftColumns+`
		FROM attendance a
		JOIN shifts s ON a.shift_id = s.id
		WHERE a.status = ? AND a.is_deleted = 0`,
		model.StatusFuture)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShifts(rows)
}

// SetCheckIn records the check-in stamp if none has been recorded yet.
// It reports whether this call was the winning writer.
func (r *ShiftRepo) SetCheckIn(ctx context.Context, accountID, shiftID uint64, date, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE attendance SET check_in = ?
		 WHERE account_id = ? AND shift_id = ? AND date = ? AND check_in IS NULL`,
		at.UTC(), accountID, shiftID, date.Format("2006-01-02"))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetCheckOut records the check-out stamp if none has been recorded yet.
func (r *ShiftRepo) SetCheckOut(ctx context.Context, accountID, shiftID uint64, date, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE attendance SET check_out = ?
		 WHERE account_id = ? AND shift_id = ? AND date = ? AND check_out IS NULL`,
		at.UTC(), accountID, shiftID, date.Format("2006-01-02"))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Stamps re-reads the persisted check-in and check-out of one shift.
// Status computation reads these instead of trusting in-memory values.
func (r *ShiftRepo) Stamps(ctx context.Context, accountID, shiftID uint64, date time.Time) (*time.Time, *time.Time, error) {
	var in, out sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		`SELECT check_in, check_out FROM attendance
		 WHERE account_id = ? AND shift_id = ? AND date = ? LIMIT 1`,
		accountID, shiftID, date.Format("2006-01-02")).Scan(&in, &out)
	if err != nil {
		return nil, nil, err
	}
	return nullableTime(in), nullableTime(out), nil
}

// SetStatus moves a shift out of 'future'. The predicate keeps status
// transitions forward-only: once a scan or a sweep has committed, later
// writers affect zero rows.
func (r *ShiftRepo) SetStatus(ctx context.Context, accountID, shiftID uint64, date time.Time, status string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE attendance SET status = ?
		 WHERE account_id = ? AND shift_id = ? AND date = ? AND status = ?`,
		status, accountID, shiftID, date.Format("2006-01-02"), model.StatusFuture)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkAbsent force-closes an overdue shift nobody scanned into. The
// extra stamp predicate guards against a scan that completed the shift
// between the sweep's read and this write.
func (r *ShiftRepo) MarkAbsent(ctx context.Context, accountID, shiftID uint64, date time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE attendance SET status = ?
		 WHERE account_id = ? AND shift_id = ? AND date = ? AND status = ?
		   AND (check_in IS NULL OR check_out IS NULL)`,
		model.StatusAbsent, accountID, shiftID, date.Format("2006-01-02"), model.StatusFuture)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanShifts(rows *sql.Rows) ([]model.Shift, error) {
	var shifts []model.Shift
	for rows.Next() {
		var (
			sh        model.Shift
			startTime string
			in, out   sql.NullTime
		)
		if err := rows.Scan(&sh.AccountID, &sh.ShiftID, &sh.Date, &startTime,
			&sh.DurationMin, &sh.ToleranceMin, &in, &out, &sh.Status, &sh.IsDeleted); err != nil {
			return nil, err
		}
		start, err := model.ParseTimeOfDay(startTime)
		if err != nil {
			return nil, err
		}
		sh.Start = start
		sh.CheckIn = nullableTime(in)
		sh.CheckOut = nullableTime(out)
		shifts = append(shifts, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shifts, nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
