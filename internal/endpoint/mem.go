package endpoint

import (
	"context"
	"fmt"
	"sync"

	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"
)

const defaultInboxSize = 1024

type envelope struct {
	from    Identity
	payload []byte
}

// SwitchOption configures a Switch.
type SwitchOption func(*Switch)

// WithMinFee rejects sends whose fee is below min.
func WithMinFee(min *uint256.Int) SwitchOption {
	return func(s *Switch) { s.minFee.Set(min) }
}

// WithDuplicates delivers every payload twice, back to back.
func WithDuplicates() SwitchOption {
	return func(s *Switch) { s.duplicate = true }
}

// WithInboxSize sets the per-endpoint inbox capacity.
func WithInboxSize(n int) SwitchOption {
	return func(s *Switch) {
		if n > 0 {
			s.inboxSize = n
		}
	}
}

// Switch delivers payloads between participants in the same process. Delivery
// is asynchronous and FIFO per destination, hence FIFO per channel.
type Switch struct {
	mu    sync.RWMutex
	ports map[Identity]*MemEndpoint

	minFee    uint256.Int
	duplicate bool
	inboxSize int

	inflight sync.WaitGroup
}

// NewSwitch creates an empty Switch.
func NewSwitch(opts ...SwitchOption) *Switch {
	s := &Switch{
		ports:     make(map[Identity]*MemEndpoint),
		inboxSize: defaultInboxSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen attaches a participant at (chain, addr).
func (s *Switch) Listen(chain message.ChainID, addr common.Address) (*MemEndpoint, error) {
	id := Identity{Chain: chain, Address: addr}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ports[id]; exists {
		return nil, fmt.Errorf("%w: chain %d %s", ErrAddressInUse, chain, addr.Hex())
	}
	ep := &MemEndpoint{
		sw:     s,
		id:     id,
		in:     make(chan envelope, s.inboxSize),
		closed: make(chan struct{}),
	}
	s.ports[id] = ep
	return ep, nil
}

// Drain blocks until every accepted payload has been delivered or ctx ends.
func (s *Switch) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Switch) lookup(id Identity) (*MemEndpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, ok := s.ports[id]
	return ep, ok
}

// MemEndpoint is one participant's handle on a Switch.
type MemEndpoint struct {
	sw *Switch
	id Identity

	mu       sync.Mutex // guards isClosed and pushes into in
	isClosed bool
	in       chan envelope
	closed   chan struct{}
}

// Identity returns the chain and address the endpoint is attached at.
func (e *MemEndpoint) Identity() Identity { return e.id }

// Send queues payload for the participant at (dstChain, dstAddr).
func (e *MemEndpoint) Send(ctx context.Context, dstChain message.ChainID, dstAddr common.Address, payload []byte, fee *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-e.closed:
		return ErrClosed
	default:
	}
	if fee == nil {
		fee = new(uint256.Int)
	}
	if fee.Lt(&e.sw.minFee) {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientFee, fee.Dec(), e.sw.minFee.Dec())
	}
	dst, ok := e.sw.lookup(Identity{Chain: dstChain, Address: dstAddr})
	if !ok {
		return fmt.Errorf("%w: chain %d %s", ErrUnknownDestination, dstChain, dstAddr.Hex())
	}
	copies := 1
	if e.sw.duplicate {
		copies = 2
	}
	return dst.push(envelope{from: e.id, payload: clone(payload)}, copies)
}

func (e *MemEndpoint) push(env envelope, copies int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.isClosed {
		return fmt.Errorf("destination: %w", ErrClosed)
	}
	if cap(e.in)-len(e.in) < copies {
		return ErrInboxFull
	}
	for i := 0; i < copies; i++ {
		e.sw.inflight.Add(1)
		e.in <- env
	}
	return nil
}

// Serve delivers queued payloads to r one at a time until ctx ends or the
// endpoint is closed.
func (e *MemEndpoint) Serve(ctx context.Context, r Receiver) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.closed:
			return nil
		case env := <-e.in:
			if err := r.OnMessage(ctx, env.from.Chain, env.from.Address, env.payload); err != nil {
				log.WithField("caller", "mem endpoint").WithError(err).Debug("Delivery rejected by receiver")
			}
			e.sw.inflight.Done()
		}
	}
}

// Close detaches the endpoint. Payloads still queued are discarded.
func (e *MemEndpoint) Close() {
	e.mu.Lock()
	if e.isClosed {
		e.mu.Unlock()
		return
	}
	e.isClosed = true
	close(e.closed)
	e.mu.Unlock()

	e.sw.mu.Lock()
	delete(e.sw.ports, e.id)
	e.sw.mu.Unlock()

	for {
		select {
		case <-e.in:
			e.sw.inflight.Done()
		default:
			return
		}
	}
}
