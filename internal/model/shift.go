package model

import (
	"fmt"
	"time"
)

// Attendance statuses. A shift starts as future and only ever moves
// forward: scans drive it to present or late, the absence sweep drives
// it to absent. present, late and absent are terminal for automatic
// processing.
const (
	StatusFuture  = "future"
	StatusPresent = "present"
	StatusLate    = "late"
	StatusAbsent  = "absent"
)

// Shift joins one attendance row with the schedule it belongs to.
// Scheduling fields (Start, DurationMin, ToleranceMin) are owned by the
// scheduling subsystem and only read here; the attendance fields
// (CheckIn, CheckOut, Status) are the ones this service mutates.
//
// Fields:
//  AccountID    – account the shift is scheduled for.
//  ShiftID      – schedule row the attendance row references.
//  Date         – calendar date of the shift (midnight, date part only).
//  Start        – scheduled start as an offset from midnight.
//  DurationMin  – scheduled length in minutes.
//  ToleranceMin – margin around both shift boundaries within which a
//                 scan counts toward that boundary.
//  CheckIn      – first accepted check-in scan, nil until set.
//  CheckOut     – first accepted check-out scan, nil until set.
//  Status       – one of the Status* constants above.
//  IsDeleted    – soft-delete flag; deleted shifts are never matched.
type Shift struct {
	AccountID    uint64
	ShiftID      uint64
	Date         time.Time
	Start        time.Duration
	DurationMin  int
	ToleranceMin int
	CheckIn      *time.Time
	CheckOut     *time.Time
	Status       string
	IsDeleted    bool
}

// Complete reports whether both attendance stamps have been recorded.
// Complete shifts are no longer candidates for scan matching.
func (s Shift) Complete() bool {
	return s.CheckIn != nil && s.CheckOut != nil
}

// ParseTimeOfDay converts an HH:MM:SS string (the shape MySQL returns
// for TIME columns) into an offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}
