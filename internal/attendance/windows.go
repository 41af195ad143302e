package attendance

import (
	"time"

	"github.com/Rjn-Mjn/esp32-attendance-server/internal/model"
)

// Windows holds the derived instants of one shift on its date. All
// arithmetic happens in the single deployment timezone; the scan
// instant was normalized there once at ingestion.
type Windows struct {
	Start         time.Time // scheduled start on the shift's date
	End           time.Time // Start plus the scheduled duration
	CheckInOpen   time.Time // Start minus tolerance
	CheckInClose  time.Time // Start plus tolerance
	CheckOutOpen  time.Time // End minus tolerance
	CheckOutClose time.Time // End plus tolerance
}

// WindowsFor computes the shift's boundaries and tolerance windows in
// loc. Both windows are closed intervals: a scan exactly on either
// endpoint counts.
func WindowsFor(sh model.Shift, loc *time.Location) Windows {
	midnight := time.Date(sh.Date.Year(), sh.Date.Month(), sh.Date.Day(), 0, 0, 0, 0, loc)
	start := midnight.Add(sh.Start)
	end := start.Add(time.Duration(sh.DurationMin) * time.Minute)
	tol := time.Duration(sh.ToleranceMin) * time.Minute
	return Windows{
		Start:         start,
		End:           end,
		CheckInOpen:   start.Add(-tol),
		CheckInClose:  start.Add(tol),
		CheckOutOpen:  end.Add(-tol),
		CheckOutClose: end.Add(tol),
	}
}

// CoversCheckIn reports whether a scan at the given instant may record
// the check-in stamp: inside the check-in window, or anywhere in the
// gap before the check-out window opens. The gap keeps late arrivals
// on the record instead of silently dropping them.
func (w Windows) CoversCheckIn(at time.Time) bool {
	return !at.Before(w.CheckInOpen) && !at.After(w.CheckOutOpen)
}

// CoversCheckOut reports whether a scan at the given instant may record
// the check-out stamp.
func (w Windows) CoversCheckOut(at time.Time) bool {
	return !at.Before(w.CheckOutOpen) && !at.After(w.CheckOutClose)
}

// StatusFor derives the terminal status once both stamps exist. The
// caller must pass the persisted check-in, not an in-memory copy.
func StatusFor(checkIn time.Time, w Windows) string {
	if !checkIn.After(w.CheckInClose) {
		return model.StatusPresent
	}
	return model.StatusLate
}

// closestShift picks the candidate whose scheduled start is nearest the
// scan instant; distance ties break toward the lowest shift ID so the
// choice is deterministic.
func closestShift(shifts []model.Shift, at time.Time, loc *time.Location) (model.Shift, bool) {
	var (
		best     model.Shift
		bestDist time.Duration
		found    bool
	)
	for _, sh := range shifts {
		dist := at.Sub(WindowsFor(sh, loc).Start)
		if dist < 0 {
			dist = -dist
		}
		switch {
		case !found, dist < bestDist:
			best, bestDist, found = sh, dist, true
		case dist == bestDist && sh.ShiftID < best.ShiftID:
			best = sh
		}
	}
	return best, found
}
