package node

import "sync/atomic"

// Stats is a point-in-time copy of a node's message counters.
type Stats struct {
	Received         uint64 `json:"received"`
	Sent             uint64 `json:"sent"`
	Applied          uint64 `json:"applied"`
	Replied          uint64 `json:"replied"`
	Views            uint64 `json:"views"`
	DropMalformed    uint64 `json:"drop_malformed"`
	DropUnauthorized uint64 `json:"drop_unauthorized"`
	DropUnhandled    uint64 `json:"drop_unhandled"`
	ApplyFailed      uint64 `json:"apply_failed"`
	SendFailed       uint64 `json:"send_failed"`
}

type stats struct {
	received         atomic.Uint64
	sent             atomic.Uint64
	applied          atomic.Uint64
	replied          atomic.Uint64
	views            atomic.Uint64
	dropMalformed    atomic.Uint64
	dropUnauthorized atomic.Uint64
	dropUnhandled    atomic.Uint64
	applyFailed      atomic.Uint64
	sendFailed       atomic.Uint64
}

// Stats returns a snapshot of the node's counters.
func (n *Node) Stats() Stats {
	s := &n.stats
	return Stats{
		Received:         s.received.Load(),
		Sent:             s.sent.Load(),
		Applied:          s.applied.Load(),
		Replied:          s.replied.Load(),
		Views:            s.views.Load(),
		DropMalformed:    s.dropMalformed.Load(),
		DropUnauthorized: s.dropUnauthorized.Load(),
		DropUnhandled:    s.dropUnhandled.Load(),
		ApplyFailed:      s.applyFailed.Load(),
		SendFailed:       s.sendFailed.Load(),
	}
}
