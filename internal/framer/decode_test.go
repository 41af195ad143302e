package framer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	return loc
}

func TestDecodeScanZonelessLocal(t *testing.T) {
	loc := mustLoc(t)

	uid, at, err := DecodeScan([]byte(`{"uid":"A1","timestamp":"2024-06-01T09:10:00"}`), loc)
	require.NoError(t, err)
	assert.Equal(t, "A1", uid)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 10, 0, 0, loc), at)

	_, spaced, err := DecodeScan([]byte(`{"uid":"A1","timestamp":"2024-06-01 09:10:00"}`), loc)
	require.NoError(t, err)
	assert.True(t, spaced.Equal(at))
}

func TestDecodeScanRFC3339KeepsInstant(t *testing.T) {
	loc := mustLoc(t)
	uid, at, err := DecodeScan([]byte(`{"uid":"B2","timestamp":"2024-06-01T02:10:00Z"}`), loc)
	require.NoError(t, err)
	assert.Equal(t, "B2", uid)
	// 02:10 UTC is 09:10 in Ho Chi Minh City.
	assert.Equal(t, time.Date(2024, 6, 1, 9, 10, 0, 0, loc), at)
}

func TestDecodeScanEpochMillis(t *testing.T) {
	loc := mustLoc(t)
	want := time.Date(2024, 6, 1, 9, 10, 0, 0, loc)

	_, at, err := DecodeScan([]byte(`{"uid":"C3","timestamp":`+
		"1717207800000}"), loc)
	require.NoError(t, err)
	assert.True(t, at.Equal(want), "got %v want %v", at, want)
	assert.Equal(t, loc, at.Location())
}

func TestDecodeScanRejectsMalformed(t *testing.T) {
	loc := mustLoc(t)
	cases := map[string]string{
		"not json":          `uid,timestamp`,
		"missing uid":       `{"timestamp":1717207800000}`,
		"missing timestamp": `{"uid":"A1"}`,
		"bad timestamp":     `{"uid":"A1","timestamp":"yesterday"}`,
		"bool timestamp":    `{"uid":"A1","timestamp":true}`,
	}
	for name, record := range cases {
		_, _, err := DecodeScan([]byte(record), loc)
		assert.Error(t, err, name)
	}
}
