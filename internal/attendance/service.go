// Package attendance turns resolved scan events into attendance state
// transitions: tag to account, account to the day's closest open shift,
// then idempotent check-in/check-out/status writes.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Rjn-Mjn/esp32-attendance-server/internal/model"
	"github.com/Rjn-Mjn/esp32-attendance-server/internal/repository"
)

// CardStore resolves tags to accounts through the card indirection.
type CardStore interface {
	CardByTag(ctx context.Context, tagID string) (string, error)
	AccountByCard(ctx context.Context, cardID string) (uint64, error)
}

// ShiftStore exposes the shift reads and conditional writes the state
// machine needs. Set* methods report whether this caller won the write.
type ShiftStore interface {
	ShiftsOn(ctx context.Context, accountID uint64, date time.Time) ([]model.Shift, error)
	SetCheckIn(ctx context.Context, accountID, shiftID uint64, date, at time.Time) (bool, error)
	SetCheckOut(ctx context.Context, accountID, shiftID uint64, date, at time.Time) (bool, error)
	Stamps(ctx context.Context, accountID, shiftID uint64, date time.Time) (*time.Time, *time.Time, error)
	SetStatus(ctx context.Context, accountID, shiftID uint64, date time.Time, status string) (bool, error)
}

// AuditStore appends one entry per processed scan.
type AuditStore interface {
	Append(ctx context.Context, e model.LogEntry) error
}

// Notifier receives recognized scans for real-time fan-out. It is a
// fire-and-forget side channel: implementations must not block and
// their failures never fail the scan.
type Notifier interface {
	ScanRecognized(ctx context.Context, ev model.ScanEvent, accountID uint64)
}

// Service is the scan pipeline behind the TCP server. One instance is
// shared by all connection workers; it keeps no per-scan state.
type Service struct {
	cards  CardStore
	shifts ShiftStore
	audit  AuditStore
	notify Notifier // optional
	loc    *time.Location
	logger *zap.Logger
}

func NewService(cards CardStore, shifts ShiftStore, audit AuditStore, notify Notifier, loc *time.Location, logger *zap.Logger) *Service {
	return &Service{cards: cards, shifts: shifts, audit: audit, notify: notify, loc: loc, logger: logger}
}

// HandleScan processes one scan event end to end. Resolution and
// matching failures are audited as unrecognized and return nil: the
// scan is dropped, the connection worker acks normally. A returned
// error means the event itself failed (store fault, audit append
// failure) and the sender gets an error ack; retrying is the sender's
// call, every write here is idempotent.
func (s *Service) HandleScan(ctx context.Context, ev model.ScanEvent) error {
	at := ev.Time.In(s.loc)

	accountID, err := s.resolve(ctx, ev.TagID)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownTag) || errors.Is(err, repository.ErrUnlinkedCard) {
			return s.logUnrecognized(ctx, ev, err.Error())
		}
		return fmt.Errorf("resolve tag: %w", err)
	}

	shifts, err := s.shifts.ShiftsOn(ctx, accountID, at)
	if err != nil {
		return fmt.Errorf("load shifts: %w", err)
	}
	open := shifts[:0]
	for _, sh := range shifts {
		if !sh.Complete() {
			open = append(open, sh)
		}
	}
	if len(open) == 0 {
		return s.logUnrecognized(ctx, ev, "no open shift")
	}

	sh, ok := closestShift(open, at, s.loc)
	if !ok {
		// Unreachable with a non-empty candidate set; surfaced loudly
		// rather than silently dropping the scan.
		return fmt.Errorf("no shift matched for account %d at %s", accountID, at)
	}

	if err := s.applyScan(ctx, sh, at); err != nil {
		return err
	}

	if err := s.audit.Append(ctx, model.LogEntry{
		TagID:      ev.TagID,
		ScanTime:   at,
		Source:     ev.Source,
		Recognized: true,
	}); err != nil {
		// The shift mutation stands; the log is best-effort.
		return fmt.Errorf("append audit entry: %w", err)
	}

	if s.notify != nil {
		s.notify.ScanRecognized(ctx, ev, accountID)
	}
	return nil
}

func (s *Service) resolve(ctx context.Context, tagID string) (uint64, error) {
	cardID, err := s.cards.CardByTag(ctx, tagID)
	if err != nil {
		return 0, err
	}
	return s.cards.AccountByCard(ctx, cardID)
}

// applyScan runs the state machine for the matched shift. Both stamp
// writes are conditional at the store, so duplicate or concurrent
// deliveries of the same scan leave the first value in place.
func (s *Service) applyScan(ctx context.Context, sh model.Shift, at time.Time) error {
	w := WindowsFor(sh, s.loc)

	if sh.CheckIn == nil && w.CoversCheckIn(at) {
		won, err := s.shifts.SetCheckIn(ctx, sh.AccountID, sh.ShiftID, sh.Date, at)
		if err != nil {
			return fmt.Errorf("set check-in: %w", err)
		}
		if won {
			s.logger.Info("check-in recorded",
				zap.Uint64("account_id", sh.AccountID),
				zap.Uint64("shift_id", sh.ShiftID),
				zap.Time("at", at))
		}
	}

	if sh.CheckOut == nil && w.CoversCheckOut(at) {
		won, err := s.shifts.SetCheckOut(ctx, sh.AccountID, sh.ShiftID, sh.Date, at)
		if err != nil {
			return fmt.Errorf("set check-out: %w", err)
		}
		if won {
			s.logger.Info("check-out recorded",
				zap.Uint64("account_id", sh.AccountID),
				zap.Uint64("shift_id", sh.ShiftID),
				zap.Time("at", at))
		}
	}

	// Re-read the persisted stamps before deriving status so a
	// concurrent writer's value is the one judged.
	in, out, err := s.shifts.Stamps(ctx, sh.AccountID, sh.ShiftID, sh.Date)
	if err != nil {
		return fmt.Errorf("read stamps: %w", err)
	}
	if in == nil || out == nil {
		return nil
	}

	status := StatusFor(in.In(s.loc), w)
	won, err := s.shifts.SetStatus(ctx, sh.AccountID, sh.ShiftID, sh.Date, status)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if won {
		s.logger.Info("shift closed by scan",
			zap.Uint64("account_id", sh.AccountID),
			zap.Uint64("shift_id", sh.ShiftID),
			zap.String("status", status))
	}
	return nil
}

func (s *Service) logUnrecognized(ctx context.Context, ev model.ScanEvent, reason string) error {
	s.logger.Warn("unrecognized scan",
		zap.String("tag", ev.TagID),
		zap.String("source", ev.Source),
		zap.String("reason", reason))
	if err := s.audit.Append(ctx, model.LogEntry{
		TagID:    ev.TagID,
		ScanTime: ev.Time.In(s.loc),
		Source:   ev.Source,
		Note:     reason,
	}); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
