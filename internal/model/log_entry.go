package model

import "time"

// LogEntry is one row of the append-only attendance log. Every processed
// scan produces exactly one entry, whether or not it was recognized.
// Entries are immutable once written.
type LogEntry struct {
	TagID      string    // attendance_log.uid
	ScanTime   time.Time // attendance_log.scan_time
	Source     string    // attendance_log.ip_address
	Recognized bool      // attendance_log.is_recognized
	Note       string    // attendance_log.note; empty means NULL
}
