package repository

import (
	"context"
	"database/sql"

	"github.com/Rjn-Mjn/esp32-attendance-server/internal/model"
)

// LogRepo appends to the attendance_log table. The table is insert-only
// observability: entries are never updated or deleted, and a failed
// append never rolls back shift mutations already committed.
type LogRepo struct{ DB *sql.DB }

func NewLogRepo(db *sql.DB) *LogRepo { return &LogRepo{DB: db} }

// Append writes one log entry. An empty note is stored as NULL.
func (r *LogRepo) Append(ctx context.Context, e model.LogEntry) error {
	note := sql.NullString{String: e.Note, Valid: e.Note != ""}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO attendance_log (uid, scan_time, ip_address, is_recognized, note)
		 VALUES (?, ?, ?, ?, ?)`,
		e.TagID, e.ScanTime.UTC(), e.Source, e.Recognized, note)
	return err
}
