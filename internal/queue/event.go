// Package queue defines message payloads exchanged over the message broker.
package queue

// ScanRecognizedEvent is published for every scan that resolved to an
// account and matched a shift. It carries enough for downstream
// consumers to log or notify without querying the primary database.
type ScanRecognizedEvent struct {
	TagID     string `json:"tag_id"`
	AccountID uint64 `json:"account_id"`
	ScanTime  string `json:"scan_time"`
	Source    string `json:"source"`
}
