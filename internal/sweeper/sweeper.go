// Package sweeper runs the periodic absence pass: shifts still in
// status future whose check-out deadline has passed with a stamp
// missing are force-closed as absent. It is the only writer of that
// status.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Rjn-Mjn/esp32-attendance-server/internal/attendance"
	"github.com/Rjn-Mjn/esp32-attendance-server/internal/model"
)

// ShiftStore is the slice of the shift store the sweep needs.
// MarkAbsent must be conditional on the row still being future so a
// sweep racing a scan resolves to whichever commits first.
type ShiftStore interface {
	PendingShifts(ctx context.Context) ([]model.Shift, error)
	MarkAbsent(ctx context.Context, accountID, shiftID uint64, date time.Time) (bool, error)
}

// Sweeper holds the dependencies of the absence pass. It runs
// independently of scan traffic; scheduling is the caller's concern.
type Sweeper struct {
	shifts ShiftStore
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time // swapped out in tests
}

func New(shifts ShiftStore, loc *time.Location, logger *zap.Logger) *Sweeper {
	return &Sweeper{shifts: shifts, loc: loc, logger: logger, now: time.Now}
}

// Sweep performs one pass. A failure on one shift is logged and does
// not stop the rest of the pass; only the initial query aborts it.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now().In(s.loc)

	shifts, err := s.shifts.PendingShifts(ctx)
	if err != nil {
		return err
	}

	marked := 0
	for _, sh := range shifts {
		deadline := attendance.WindowsFor(sh, s.loc).CheckOutClose
		if !now.After(deadline) {
			continue
		}
		if sh.CheckIn != nil && sh.CheckOut != nil {
			// Fully stamped rows only lack their status write; leave
			// them to the scan path.
			continue
		}
		won, err := s.shifts.MarkAbsent(ctx, sh.AccountID, sh.ShiftID, sh.Date)
		if err != nil {
			s.logger.Error("mark absent failed",
				zap.Uint64("account_id", sh.AccountID),
				zap.Uint64("shift_id", sh.ShiftID),
				zap.Error(err))
			continue
		}
		if won {
			marked++
			s.logger.Info("shift marked absent",
				zap.Uint64("account_id", sh.AccountID),
				zap.Uint64("shift_id", sh.ShiftID),
				zap.Time("deadline", deadline))
		}
	}

	s.logger.Debug("absence sweep finished",
		zap.Int("candidates", len(shifts)),
		zap.Int("marked", marked))
	return nil
}
