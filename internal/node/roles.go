package node

import (
	"context"

	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MasterNode mutates counters on satellites. It answers counter requests but
// never applies inbound updates.
type MasterNode struct {
	*Node
}

// NewMaster creates a master node deployed at id that sends through ep.
func NewMaster(id Identity, ep Endpoint, opts ...Option) *MasterNode {
	return &MasterNode{Node: newNode(id, RoleMaster, ep, opts...)}
}

// UpdateCounter submits a CounterUpdate to the satellite at (chain, addr).
// Nothing changes locally; a nil error means accepted for transport.
func (m *MasterNode) UpdateCounter(ctx context.Context, chain message.ChainID, addr common.Address, amount *uint256.Int, op message.Op) error {
	upd := message.CounterUpdate{Op: op}
	if amount != nil {
		upd.Amount.Set(amount)
	}
	return m.send(ctx, chain, addr, upd)
}

// SatelliteNode applies updates from its registered master and can request
// counters from remotes.
type SatelliteNode struct {
	*Node
}

// NewSatellite creates a satellite node deployed at id that sends through ep.
func NewSatellite(id Identity, ep Endpoint, opts ...Option) *SatelliteNode {
	s := &SatelliteNode{Node: newNode(id, RoleSatellite, ep, opts...)}
	s.router.OnMessage(message.KindCounterUpdate, s.handleCounterUpdate)
	return s
}
