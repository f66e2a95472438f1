package endpoint

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// mockConn is a datagram-style net.Conn for testing: every Read returns the
// next queued datagram, then io.EOF once the queue is empty.
type mockConn struct {
	mu         sync.RWMutex
	reads      [][]byte
	readErr    error
	writeData  [][]byte
	writeErr   error
	closeErr   error
	localAddr  net.Addr
	remoteAddr net.Addr
	closed     bool
}

func newMockConn(localAddr, remoteAddr net.Addr) *mockConn {
	return &mockConn{
		localAddr:  localAddr,
		remoteAddr: remoteAddr,
	}
}

// Read implements net.Conn
func (m *mockConn) Read(b []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, io.EOF
	}
	if m.readErr != nil {
		return 0, m.readErr
	}
	if len(m.reads) == 0 {
		return 0, io.EOF
	}
	n = copy(b, m.reads[0])
	m.reads = m.reads[1:]
	return n, nil
}

// Write implements net.Conn
func (m *mockConn) Write(b []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, errors.New("connection closed")
	}
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.writeData = append(m.writeData, append([]byte(nil), b...))
	return len(b), nil
}

// Close implements net.Conn
func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.closeErr
}

// LocalAddr implements net.Conn
func (m *mockConn) LocalAddr() net.Addr { return m.localAddr }

// RemoteAddr implements net.Conn
func (m *mockConn) RemoteAddr() net.Addr { return m.remoteAddr }

// SetDeadline implements net.Conn
func (m *mockConn) SetDeadline(t time.Time) error { return nil }

// SetReadDeadline implements net.Conn
func (m *mockConn) SetReadDeadline(t time.Time) error { return nil }

// SetWriteDeadline implements net.Conn
func (m *mockConn) SetWriteDeadline(t time.Time) error { return nil }

func (m *mockConn) queueRead(datagrams ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, datagrams...)
}

func (m *mockConn) setReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

func (m *mockConn) setWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

func (m *mockConn) written() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]byte, len(m.writeData))
	copy(out, m.writeData)
	return out
}

func (m *mockConn) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
