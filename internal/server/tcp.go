// Package server implements the line-framed TCP ingestion endpoint the
// scan terminals connect to. Each accepted connection gets its own
// worker goroutine and its own framer, so records from one connection
// are processed in arrival order while connections interleave freely.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Rjn-Mjn/esp32-attendance-server/internal/framer"
	"github.com/Rjn-Mjn/esp32-attendance-server/internal/model"
)

// Acks written back per record, one line each. Terminals display them
// verbatim, so they stay short.
const (
	ackOK    = "Received"
	ackError = "Error processing data"
)

// ScanHandler processes one decoded scan event.
type ScanHandler interface {
	HandleScan(ctx context.Context, ev model.ScanEvent) error
}

// TCP accepts terminal connections and feeds their records through the
// scan pipeline. Processing errors are acked per record and never close
// the connection.
type TCP struct {
	Addr         string
	Handler      ScanHandler
	Loc          *time.Location
	MaxLineBytes int
	Logger       *zap.Logger
}

// Serve listens on Addr until ctx is cancelled, then closes the
// listener and waits for in-flight connections to drain.
func (s *TCP) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.Logger.Info("tcp server listening", zap.String("addr", s.Addr))

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.Logger.Warn("accept failed", zap.Error(err))
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
	wg.Wait()
	return nil
}

func (s *TCP) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	peer := peerHost(conn.RemoteAddr())
	logger := s.Logger.With(zap.String("peer", peer))
	logger.Info("terminal connected")

	fr := framer.New(s.MaxLineBytes)
	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			records, ferr := fr.Push(buf[:n])
			for _, rec := range records {
				s.processRecord(ctx, conn, peer, logger, rec)
			}
			if ferr != nil {
				logger.Warn("record dropped", zap.Error(ferr))
				writeLine(conn, ackError)
			}
		}
		if err != nil {
			// A close mid-record discards the unterminated tail; no
			// partial record is ever processed.
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Warn("read failed", zap.Error(err))
			}
			logger.Info("terminal disconnected", zap.Int("discarded_bytes", fr.Pending()))
			return
		}
	}
}

func (s *TCP) processRecord(ctx context.Context, conn net.Conn, peer string, logger *zap.Logger, rec []byte) {
	tagID, at, err := framer.DecodeScan(rec, s.Loc)
	if err != nil {
		logger.Warn("malformed record", zap.Error(err))
		writeLine(conn, ackError)
		return
	}

	ev := model.ScanEvent{TagID: tagID, Time: at, Source: peer}
	if err := s.Handler.HandleScan(ctx, ev); err != nil {
		logger.Error("scan failed", zap.String("tag", tagID), zap.Error(err))
		writeLine(conn, ackError)
		return
	}
	writeLine(conn, ackOK)
}

func writeLine(conn net.Conn, line string) {
	// Ack failures are ignored: the terminal may already be gone and
	// the scan outcome is committed either way.
	_, _ = conn.Write([]byte(line + "\n"))
}

// peerHost strips the port (and any IPv6 brackets) from a remote
// address, matching what the audit log stores.
func peerHost(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
