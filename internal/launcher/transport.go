package launcher

import (
	"bufio"
	"bytes"
	"net"
	"sync"
	"time"
)

// Transport moves opaque frames between the daemon and the helper process.
// Recv blocks until a frame arrives or the channel fails; RecvTimeout
// additionally fails with os.ErrDeadlineExceeded when the deadline elapses
// first. Implementations surface raw faults; the client classifies them.
type Transport interface {
	Send(frame []byte) error
	Recv() ([]byte, error)
	RecvTimeout(timeout time.Duration) ([]byte, error)
	Close() error
}

// socketTransport frames messages as newline-delimited JSON over a stream
// connection. Envelopes never contain raw newlines, so the framing is safe.
type socketTransport struct {
	conn net.Conn
	r    *bufio.Reader
	wmu  sync.Mutex
}

// NewSocketTransport wraps an established stream connection.
func NewSocketTransport(conn net.Conn) Transport {
	return &socketTransport{conn: conn, r: bufio.NewReader(conn)}
}

func (t *socketTransport) Send(frame []byte) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()

	buf := make([]byte, 0, len(frame)+1)
	buf = append(buf, frame...)
	buf = append(buf, '\n')
	_, err := t.conn.Write(buf)
	return err
}

func (t *socketTransport) Recv() ([]byte, error) {
	if err := t.conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, err
	}
	return t.readFrame()
}

func (t *socketTransport) RecvTimeout(timeout time.Duration) ([]byte, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	return t.readFrame()
}

func (t *socketTransport) readFrame() ([]byte, error) {
	line, err := t.r.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(line, "\n"), nil
}

func (t *socketTransport) Close() error {
	return t.conn.Close()
}
