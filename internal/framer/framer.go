// Package framer reassembles the newline-delimited record stream that
// scan terminals send over their persistent TCP connection. Each
// connection owns one Framer; its state must not be shared.
package framer

import (
	"bytes"
	"errors"
)

// ErrOversizedRecord is returned by Push when the unterminated tail of
// the buffer exceeds the configured limit. The buffered tail is
// discarded so a misbehaving sender cannot grow memory without bound;
// subsequent complete records are framed normally.
var ErrOversizedRecord = errors.New("unterminated record exceeds buffer limit")

// Framer accumulates raw byte chunks and emits complete records in
// arrival order. Partial trailing data is retained until the next
// chunk arrives.
type Framer struct {
	buf []byte
	max int
}

// New returns a Framer that tolerates at most max buffered bytes of
// unterminated data. A non-positive max disables the limit.
func New(max int) *Framer {
	return &Framer{max: max}
}

// Push appends a chunk and returns every record completed by it, each
// trimmed of surrounding whitespace (CR included) with empty lines
// dropped. Records are copies; callers may retain them. When the
// leftover tail grows past the limit it is discarded and
// ErrOversizedRecord is returned alongside the records framed so far.
func (f *Framer) Push(chunk []byte) ([][]byte, error) {
	f.buf = append(f.buf, chunk...)

	var records [][]byte
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSpace(f.buf[:i])
		if len(line) > 0 {
			records = append(records, append([]byte(nil), line...))
		}
		f.buf = append(f.buf[:0], f.buf[i+1:]...)
	}

	if f.max > 0 && len(f.buf) > f.max {
		f.buf = f.buf[:0]
		return records, ErrOversizedRecord
	}
	return records, nil
}

// Pending reports how many unterminated bytes are currently buffered.
func (f *Framer) Pending() int { return len(f.buf) }
