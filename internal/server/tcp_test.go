package server

import (
	"bufio"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rjn-Mjn/esp32-attendance-server/internal/model"
)

type stubHandler struct {
	mu     sync.Mutex
	events []model.ScanEvent
	err    error
}

func (h *stubHandler) HandleScan(_ context.Context, ev model.ScanEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return h.err
}

func (h *stubHandler) seen() []model.ScanEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.ScanEvent(nil), h.events...)
}

func startConn(t *testing.T, h ScanHandler) (net.Conn, *bufio.Reader, func()) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)

	client, srv := net.Pipe()
	s := &TCP{Handler: h, Loc: loc, MaxLineBytes: 4096, Logger: zap.NewNop()}
	done := make(chan struct{})
	go func() {
		s.handleConn(context.Background(), srv)
		close(done)
	}()
	return client, bufio.NewReader(client), func() {
		client.Close()
		<-done
	}
}

func TestHandleConnAcksEachRecord(t *testing.T) {
	h := &stubHandler{}
	client, r, stop := startConn(t, h)
	defer stop()

	// One record split across two writes.
	_, err := client.Write([]byte(`{"uid":"A1","time`))
	require.NoError(t, err)
	_, err = client.Write([]byte(`stamp":"2024-06-01T09:10:00"}` + "\n"))
	require.NoError(t, err)

	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "Received\n", line)

	events := h.seen()
	require.Len(t, events, 1)
	assert.Equal(t, "A1", events[0].TagID)
}

func TestHandleConnMalformedRecordKeepsConnection(t *testing.T) {
	h := &stubHandler{}
	client, r, stop := startConn(t, h)
	defer stop()

	_, err := client.Write([]byte("not json\n"))
	require.NoError(t, err)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "Error processing data\n", line)
	assert.Empty(t, h.seen())

	// The stream stays usable for the next record.
	_, err = client.Write([]byte(`{"uid":"B2","timestamp":1717207800000}` + "\n"))
	require.NoError(t, err)
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "Received\n", line)
	require.Len(t, h.seen(), 1)
}

func TestHandleConnProcessesRecordsInOrder(t *testing.T) {
	h := &stubHandler{}
	client, r, stop := startConn(t, h)
	defer stop()

	_, err := client.Write([]byte(`{"uid":"A1","timestamp":1717207800000}` + "\n" +
		`{"uid":"B2","timestamp":1717207860000}` + "\n"))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "Received\n", line)
	}

	events := h.seen()
	require.Len(t, events, 2)
	assert.Equal(t, "A1", events[0].TagID)
	assert.Equal(t, "B2", events[1].TagID)
}
