// Package node implements the master and satellite roles of the counter
// protocol on top of an Endpoint.
package node

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/SteamyCutie/layerzero-concept/internal/counter"
	"github.com/SteamyCutie/layerzero-concept/internal/registry"
	"github.com/SteamyCutie/layerzero-concept/internal/router"
	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/SteamyCutie/layerzero-concept/pkg/tracer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrUnauthorized is returned for messages from an unregistered or mismatched sender.
	ErrUnauthorized = errors.New("unauthorized sender")
	// ErrUnhandled is returned for message kinds the node's role does not accept.
	ErrUnhandled = errors.New("unhandled message kind")
	// ErrSend wraps every failure to hand a message to the Endpoint.
	ErrSend = errors.New("send failed")
)

// Endpoint submits payloads to a remote participant. Success means the
// payload was accepted for transport, not that it was delivered.
type Endpoint interface {
	Send(ctx context.Context, dstChain message.ChainID, dstAddr common.Address, payload []byte, fee *uint256.Int) error
}

// Identity is the chain and address a node is deployed at.
type Identity struct {
	Chain   message.ChainID
	Address common.Address
}

// Role selects which inbound message kinds a node accepts.
type Role int

const (
	RoleMaster Role = iota + 1
	RoleSatellite
)

func (r Role) String() string {
	switch r {
	case RoleMaster:
		return "master"
	case RoleSatellite:
		return "satellite"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ParseRole parses "master" or "satellite".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "master":
		return RoleMaster, nil
	case "satellite":
		return RoleSatellite, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Option configures a Node.
type Option func(*Node)

// WithFee sets the fee passed to the Endpoint with every outbound message.
func WithFee(fee *uint256.Int) Option {
	return func(n *Node) {
		if fee != nil {
			n.fee.Set(fee)
		}
	}
}

// WithTracer sets the tracer used for inbound and outbound payloads.
func WithTracer(t *tracer.Tracer) Option {
	return func(n *Node) {
		if t != nil {
			n.tracer = t
		}
	}
}

// Node owns a remote registry and a counter store and processes inbound
// messages for one deployment. It is safe for concurrent use.
type Node struct {
	id       Identity
	role     Role
	endpoint Endpoint
	fee      uint256.Int

	registry *registry.Registry
	store    *counter.Store
	router   *router.Router
	tracer   *tracer.Tracer
	stats    stats

	viewsMu sync.RWMutex
	views   map[message.ChainID]uint256.Int

	log *log.Entry
}

func newNode(id Identity, role Role, ep Endpoint, opts ...Option) *Node {
	n := &Node{
		id:       id,
		role:     role,
		endpoint: ep,
		registry: registry.NewRegistry(),
		store:    counter.NewStore(),
		router:   router.NewRouter(),
		tracer:   tracer.NewTracer(),
		views:    make(map[message.ChainID]uint256.Int),
		log: log.WithFields(log.Fields{
			"caller": role.String() + " node",
			"chain":  id.Chain,
		}),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.router.OnMessage(message.KindCounterRequest, n.handleCounterRequest)
	n.router.OnMessage(message.KindCounterReply, n.handleCounterReply)
	return n
}

// Identity returns the chain and address the node is deployed at.
func (n *Node) Identity() Identity { return n.id }

// Role returns the node's role.
func (n *Node) Role() Role { return n.role }

// Routes returns the message kinds this node accepts.
func (n *Node) Routes() []message.Kind { return n.router.Routes() }

// ListRoutes logs the accepted message kinds at debug level.
func (n *Node) ListRoutes() { n.router.ListRoutes() }

// SetRemote registers the trusted counterpart for chain. It fails with
// registry.ErrAlreadySet if chain already has one.
func (n *Node) SetRemote(chain message.ChainID, addr common.Address) error {
	if err := n.registry.SetRemote(chain, addr); err != nil {
		return err
	}
	n.log.WithFields(log.Fields{"remote_chain": chain, "remote_addr": addr.Hex()}).Info("Remote registered")
	return nil
}

// Resolve returns the registered counterpart for chain.
func (n *Node) Resolve(chain message.ChainID) (common.Address, bool) {
	return n.registry.Resolve(chain)
}

// Remotes returns a copy of the registry.
func (n *Node) Remotes() map[message.ChainID]common.Address {
	return n.registry.Remotes()
}

// GetCounter returns the local counter kept for chain. No network interaction.
func (n *Node) GetCounter(chain message.ChainID) uint256.Int {
	return n.store.Get(chain)
}

// Counters returns a copy of every local counter.
func (n *Node) Counters() map[message.ChainID]uint256.Int {
	return n.store.Snapshot()
}

// RemoteCounter returns the value most recently reported by chain in a
// CounterReply.
func (n *Node) RemoteCounter(chain message.ChainID) (uint256.Int, bool) {
	n.viewsMu.RLock()
	defer n.viewsMu.RUnlock()
	v, ok := n.views[chain]
	return v, ok
}

// RequestCounter asks the remote at (chain, addr) for the counter it keeps
// for this node's chain. The answer arrives later as a CounterReply.
func (n *Node) RequestCounter(ctx context.Context, chain message.ChainID, addr common.Address) error {
	return n.send(ctx, chain, addr, message.CounterRequest{})
}

// OnMessage processes one inbound payload: decode, authorize, dispatch.
// Rejections are logged and returned; they never stop the node.
func (n *Node) OnMessage(ctx context.Context, srcChain message.ChainID, srcAddr common.Address, payload []byte) error {
	n.stats.received.Add(1)
	n.tracer.Trace(tracer.TraceIn, n.id.Chain, srcChain, srcAddr, payload)
	entry := n.log.WithFields(log.Fields{"src_chain": srcChain, "src_addr": srcAddr.Hex()})

	msg, err := message.Decode(payload)
	if err != nil {
		n.stats.dropMalformed.Add(1)
		reason := "malformed"
		if errors.Is(err, message.ErrUnknownOperation) {
			reason = "unknown_operation"
		}
		entry.WithError(err).WithField("reason", reason).Warn("Rejected inbound message")
		return err
	}

	if !n.registry.IsAuthorized(srcChain, srcAddr) {
		n.stats.dropUnauthorized.Add(1)
		err := fmt.Errorf("%w: chain %d sender %s", ErrUnauthorized, srcChain, srcAddr.Hex())
		entry.WithError(err).WithFields(log.Fields{"reason": "unauthorized", "kind": msg.Kind()}).Warn("Rejected inbound message")
		return err
	}

	err = n.router.HandleMessage(ctx, router.Source{Chain: srcChain, Address: srcAddr}, msg)
	if errors.Is(err, router.ErrNoHandler) {
		n.stats.dropUnhandled.Add(1)
		err = fmt.Errorf("%w: %s on %s node", ErrUnhandled, msg.Kind(), n.role)
		entry.WithError(err).WithField("reason", "unhandled").Warn("Rejected inbound message")
	}
	return err
}

func (n *Node) handleCounterUpdate(_ context.Context, src router.Source, msg message.Message) error {
	upd := msg.(message.CounterUpdate)
	entry := n.log.WithFields(log.Fields{
		"src_chain": src.Chain,
		"op":        upd.Op,
		"amount":    upd.Amount.Dec(),
	})
	value, err := n.store.Apply(src.Chain, &upd.Amount, upd.Op)
	if err != nil {
		n.stats.applyFailed.Add(1)
		entry.WithError(err).WithField("counter", value.Dec()).Error("Counter update failed")
		return err
	}
	n.stats.applied.Add(1)
	entry.WithField("counter", value.Dec()).Info("Counter updated")
	return nil
}

// handleCounterRequest answers with the counter this node keeps for the
// requester's chain.
func (n *Node) handleCounterRequest(ctx context.Context, src router.Source, _ message.Message) error {
	value := n.store.Get(src.Chain)
	if err := n.send(ctx, src.Chain, src.Address, message.CounterReply{Value: value}); err != nil {
		return err
	}
	n.stats.replied.Add(1)
	n.log.WithFields(log.Fields{"dst_chain": src.Chain, "counter": value.Dec()}).Info("Counter request answered")
	return nil
}

func (n *Node) handleCounterReply(_ context.Context, src router.Source, msg message.Message) error {
	reply := msg.(message.CounterReply)
	n.viewsMu.Lock()
	n.views[src.Chain] = reply.Value
	n.viewsMu.Unlock()
	n.stats.views.Add(1)
	n.log.WithFields(log.Fields{"src_chain": src.Chain, "counter": reply.Value.Dec()}).Info("Remote counter received")
	return nil
}

func (n *Node) send(ctx context.Context, chain message.ChainID, addr common.Address, msg message.Message) error {
	payload, err := message.Encode(msg)
	if err != nil {
		return err
	}
	entry := n.log.WithFields(log.Fields{"dst_chain": chain, "dst_addr": addr.Hex(), "kind": msg.Kind()})
	if n.endpoint == nil {
		n.stats.sendFailed.Add(1)
		return fmt.Errorf("%w: no endpoint", ErrSend)
	}
	fee := n.fee
	if err := n.endpoint.Send(ctx, chain, addr, payload, &fee); err != nil {
		n.stats.sendFailed.Add(1)
		entry.WithError(err).Error("Send failed")
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	n.stats.sent.Add(1)
	n.tracer.Trace(tracer.TraceOut, n.id.Chain, chain, addr, payload)
	entry.Debug("Message submitted")
	return nil
}
