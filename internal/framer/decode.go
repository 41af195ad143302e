package framer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Layouts accepted for string timestamps. Zoneless layouts are
// interpreted in the deployment timezone; terminals report their local
// clock without an offset.
var scanTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

type scanPayload struct {
	UID       string          `json:"uid"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// DecodeScan parses one framed record into its tag and scan instant.
// The record must be a JSON object carrying "uid" and "timestamp",
// where the timestamp is either a string in one of the accepted
// layouts or epoch milliseconds as a number. The returned instant is
// normalized to loc.
func DecodeScan(record []byte, loc *time.Location) (string, time.Time, error) {
	var p scanPayload
	if err := json.Unmarshal(record, &p); err != nil {
		return "", time.Time{}, fmt.Errorf("decode scan record: %w", err)
	}
	if p.UID == "" {
		return "", time.Time{}, fmt.Errorf("decode scan record: missing uid")
	}
	if len(p.Timestamp) == 0 {
		return "", time.Time{}, fmt.Errorf("decode scan record: missing timestamp")
	}

	at, err := parseScanTime(p.Timestamp, loc)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("decode scan record: %w", err)
	}
	return p.UID, at.In(loc), nil
}

func parseScanTime(raw json.RawMessage, loc *time.Location) (time.Time, error) {
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		for _, layout := range scanTimeLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
	}

	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported timestamp %s", raw)
	}
	return time.UnixMilli(ms), nil
}
