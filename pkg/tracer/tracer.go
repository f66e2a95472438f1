//go:build !debug
// +build !debug

// Package tracer provides message tracing (release build, no-op).
package tracer

import (
	"time"

	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/ethereum/go-ethereum/common"
)

// TraceDirection indicates the direction of a trace event.
type TraceDirection string

const (
	// TraceIn indicates an inbound message.
	TraceIn TraceDirection = "in"
	// TraceOut indicates an outbound message.
	TraceOut TraceDirection = "out"
)

// TraceEvent represents a trace event. In release builds it has the same shape as in debug
type TraceEvent struct {
	TS          time.Time
	Dir         TraceDirection
	LocalChain  message.ChainID
	RemoteChain message.ChainID
	Remote      string
	Kind        string
	Len         int
	Payload     []byte
}

// Tracer is a no-op tracer in release builds.
type Tracer struct{}

// NewTracer creates a new no-op tracer.
func NewTracer() *Tracer { return &Tracer{} }

// NewTracerWithChannel returns a no-op tracer in release builds.
func NewTracerWithChannel(ch chan TraceEvent) *Tracer { return &Tracer{} }

// Enabled reports whether events are emitted. Always false in release builds.
func (t *Tracer) Enabled() bool { return false }

// Trace is a no-op in release builds.
func (t *Tracer) Trace(dir TraceDirection, local, remote message.ChainID, remoteAddr common.Address, payload []byte) {
}

// NewTraceEvent creates a new trace event. In release builds, returns an empty event.
func NewTraceEvent(dir TraceDirection, local, remote message.ChainID, remoteAddr string, payload []byte) TraceEvent {
	return TraceEvent{}
}
