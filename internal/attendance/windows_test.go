package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rjn-Mjn/esp32-attendance-server/internal/model"
)

func testLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	return loc
}

// morningShift is the reference schedule used across the tests:
// 09:00 start, 480 minute duration, 15 minute tolerance on 2024-06-01.
func morningShift() model.Shift {
	return model.Shift{
		AccountID:    42,
		ShiftID:      1,
		Date:         time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Start:        9 * time.Hour,
		DurationMin:  480,
		ToleranceMin: 15,
		Status:       model.StatusFuture,
	}
}

func TestWindowsFor(t *testing.T) {
	loc := testLoc(t)
	w := WindowsFor(morningShift(), loc)

	day := func(h, m int) time.Time { return time.Date(2024, 6, 1, h, m, 0, 0, loc) }
	assert.Equal(t, day(9, 0), w.Start)
	assert.Equal(t, day(17, 0), w.End)
	assert.Equal(t, day(8, 45), w.CheckInOpen)
	assert.Equal(t, day(9, 15), w.CheckInClose)
	assert.Equal(t, day(16, 45), w.CheckOutOpen)
	assert.Equal(t, day(17, 15), w.CheckOutClose)
}

func TestCoversCheckInBoundariesInclusive(t *testing.T) {
	loc := testLoc(t)
	w := WindowsFor(morningShift(), loc)
	day := func(h, m, s int) time.Time { return time.Date(2024, 6, 1, h, m, s, 0, loc) }

	assert.False(t, w.CoversCheckIn(day(8, 44, 59)))
	assert.True(t, w.CoversCheckIn(day(8, 45, 0)))
	assert.True(t, w.CoversCheckIn(day(9, 15, 0)))
	// Late arrivals anywhere before the check-out window opens still count.
	assert.True(t, w.CoversCheckIn(day(9, 20, 0)))
	assert.True(t, w.CoversCheckIn(day(16, 45, 0)))
	assert.False(t, w.CoversCheckIn(day(16, 45, 1)))
}

func TestCoversCheckOutBoundariesInclusive(t *testing.T) {
	loc := testLoc(t)
	w := WindowsFor(morningShift(), loc)
	day := func(h, m, s int) time.Time { return time.Date(2024, 6, 1, h, m, s, 0, loc) }

	assert.False(t, w.CoversCheckOut(day(16, 44, 59)))
	assert.True(t, w.CoversCheckOut(day(16, 45, 0)))
	assert.True(t, w.CoversCheckOut(day(17, 15, 0)))
	assert.False(t, w.CoversCheckOut(day(17, 15, 1)))
}

func TestStatusFor(t *testing.T) {
	loc := testLoc(t)
	w := WindowsFor(morningShift(), loc)
	day := func(h, m, s int) time.Time { return time.Date(2024, 6, 1, h, m, s, 0, loc) }

	assert.Equal(t, model.StatusPresent, StatusFor(day(8, 50, 0), w))
	assert.Equal(t, model.StatusPresent, StatusFor(day(9, 10, 0), w))
	// Exactly at the window close is still on time.
	assert.Equal(t, model.StatusPresent, StatusFor(day(9, 15, 0), w))
	assert.Equal(t, model.StatusLate, StatusFor(day(9, 15, 1), w))
	assert.Equal(t, model.StatusLate, StatusFor(day(9, 20, 0), w))
}

func TestClosestShiftPicksNearestStart(t *testing.T) {
	loc := testLoc(t)
	early := morningShift()
	early.ShiftID = 7
	early.Start = 6 * time.Hour
	late := morningShift()
	late.ShiftID = 9

	got, ok := closestShift([]model.Shift{early, late}, time.Date(2024, 6, 1, 8, 30, 0, 0, loc), loc)
	require.True(t, ok)
	assert.Equal(t, uint64(9), got.ShiftID)
}

func TestClosestShiftTieBreaksOnLowestID(t *testing.T) {
	loc := testLoc(t)
	a := morningShift()
	a.ShiftID = 5
	a.Start = 8 * time.Hour
	b := morningShift()
	b.ShiftID = 3
	b.Start = 10 * time.Hour

	// 09:00 is exactly one hour from both starts.
	for _, shifts := range [][]model.Shift{{a, b}, {b, a}} {
		got, ok := closestShift(shifts, time.Date(2024, 6, 1, 9, 0, 0, 0, loc), loc)
		require.True(t, ok)
		assert.Equal(t, uint64(3), got.ShiftID)
	}
}

func TestClosestShiftEmpty(t *testing.T) {
	_, ok := closestShift(nil, time.Now(), testLoc(t))
	assert.False(t, ok)
}
