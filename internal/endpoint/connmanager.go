package endpoint

import (
	"net"
	"sync"

	log "github.com/sirupsen/logrus"
)

// FrameHandler is called for every frame read from a managed connection.
type FrameHandler func(conn net.Conn, f *Frame)

// ConnManager owns DTLS connections, reads frames from them and hands the
// decoded frames to a FrameHandler.
type ConnManager struct {
	connBufSize uint
	conns       sync.Map // string -> net.Conn

	handle FrameHandler
}

// NewConnManager creates a ConnManager with the given read buffer size.
func NewConnManager(connBufSize uint, handle FrameHandler) *ConnManager {
	return &ConnManager{
		connBufSize: connBufSize,
		handle:      handle,
	}
}

// RegisterConn stores conn under its remote address and starts reading from it.
func (cm *ConnManager) RegisterConn(conn net.Conn) {
	cm.conns.Store(conn.RemoteAddr().String(), conn)

	go cm.connReadLoop(conn)
}

// Lookup returns the connection registered for remote.
func (cm *ConnManager) Lookup(remote string) (net.Conn, bool) {
	v, ok := cm.conns.Load(remote)
	if !ok {
		return nil, false
	}
	conn, ok := v.(net.Conn)
	return conn, ok
}

// Write writes b to the connection registered for remote and evicts the
// connection if the write fails.
func (cm *ConnManager) Write(remote string, b []byte) error {
	conn, ok := cm.Lookup(remote)
	if !ok {
		return ErrUnknownDestination
	}
	if _, err := conn.Write(b); err != nil {
		cm.connUnregister(conn)
		return err
	}
	return nil
}

// Count returns the number of registered connections.
func (cm *ConnManager) Count() int {
	n := 0
	cm.conns.Range(func(_, _ any) bool { n++; return true })
	return n
}

func (cm *ConnManager) connReadLoop(conn net.Conn) {
	buf := make([]byte, cm.connBufSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			log.WithError(err).WithField("caller", "conn manager").Debug("Connection read ended")
			cm.connUnregister(conn)
			return
		}
		b := make([]byte, n)
		copy(b, buf[:n])
		f, err := DecodeFrame(b)
		if err != nil {
			log.WithField("caller", "conn manager").WithError(err).Warn("Error decoding frame")
			continue
		}
		if cm.handle != nil {
			cm.handle(conn, f)
		}
	}
}

func (cm *ConnManager) connUnregister(conn net.Conn) {
	key := conn.RemoteAddr().String()
	// Only drop the entry if it still points at this connection.
	cm.conns.CompareAndDelete(key, conn)
	if err := conn.Close(); err != nil {
		log.WithField("caller", "conn manager").WithError(err).Debugf("Failed to close %v", conn.RemoteAddr())
	}
}

// DisconnectAll closes and forgets every registered connection.
func (cm *ConnManager) DisconnectAll() {
	cm.conns.Range(func(key, value any) bool {
		cm.conns.Delete(key)
		if conn, ok := value.(net.Conn); ok {
			_ = conn.Close()
		}
		return true
	})
}
