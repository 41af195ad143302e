package model

import "time"

// ScanEvent is a single tag read received from a terminal. It is built
// per inbound record, handed through the pipeline and never persisted
// as-is; the audit log keeps its own row per event.
type ScanEvent struct {
	TagID  string    // raw tag identifier as sent by the terminal
	Time   time.Time // scan instant, already normalized to the deployment timezone
	Source string    // terminal IP address, without port
}
