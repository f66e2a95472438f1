//go:build debug
// +build debug

package tracer

import (
	"time"

	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// TraceDirection indicates the direction of a trace event.
type TraceDirection string

const (
	// TraceIn indicates an inbound message.
	TraceIn TraceDirection = "in"
	// TraceOut indicates an outbound message.
	TraceOut TraceDirection = "out"
)

// TraceEvent represents a trace event with timing and payload information.
type TraceEvent struct {
	TS          time.Time       `json:"ts"`
	Dir         TraceDirection  `json:"dir"`
	LocalChain  message.ChainID `json:"local_chain"`
	RemoteChain message.ChainID `json:"remote_chain"`
	Remote      string          `json:"remote"`
	Kind        string          `json:"kind"`
	Len         int             `json:"len"`
	Payload     []byte          `json:"payload"`
}

// Tracer traces protocol messages and sends them to a channel.
type Tracer struct {
	ch chan TraceEvent // if nil, emitTrace is a no-op
}

// NewTracer creates a new Tracer with its own event channel.
func NewTracer() *Tracer {
	return &Tracer{
		ch: make(chan TraceEvent, 2000),
	}
}

// NewTracerWithChannel creates a tracer that sends events to the given channel.
// Used to wire a node's tracer to the Daemon's TraceCh.
func NewTracerWithChannel(ch chan TraceEvent) *Tracer {
	return &Tracer{ch: ch}
}

// Enabled reports whether events are emitted.
func (t *Tracer) Enabled() bool { return t != nil && t.ch != nil }

// NewTraceEvent creates a new trace event with the given parameters.
func NewTraceEvent(dir TraceDirection, local, remote message.ChainID, remoteAddr string, payload []byte) TraceEvent {
	kind := "none"
	if len(payload) > 0 {
		kind = message.Kind(payload[0]).String()
	}
	return TraceEvent{
		TS:          time.Now(),
		Dir:         dir,
		LocalChain:  local,
		RemoteChain: remote,
		Remote:      remoteAddr,
		Kind:        kind,
		Len:         len(payload),
		Payload:     payload,
	}
}

func (t *Tracer) emitTrace(ev TraceEvent) {
	if !t.Enabled() {
		return
	}
	if len(ev.Payload) > 1024 {
		ev.Payload = ev.Payload[:1024]
	}

	select {
	case t.ch <- ev:
	default:
	}
}

// Trace records a trace event for the given direction, chains, remote address and payload.
func (t *Tracer) Trace(dir TraceDirection, local, remote message.ChainID, remoteAddr common.Address, payload []byte) {
	ev := NewTraceEvent(dir, local, remote, remoteAddr.Hex(), payload)
	log.WithField("caller", "tracer").Debugf("Trace %s %s chain %d <-> chain %d (%d bytes)", ev.Dir, ev.Kind, local, remote, ev.Len)
	t.emitTrace(ev)
}
