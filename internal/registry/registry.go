// Package registry keeps the trusted remote participant for every remote chain.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/ethereum/go-ethereum/common"
)

// ErrAlreadySet is returned when a remote is registered twice for the same chain.
var ErrAlreadySet = errors.New("the remote address has already been set for the chainId")

// Registry maps a remote chain to the single address allowed to send from it.
// Entries are set once and never removed.
type Registry struct {
	mu      sync.RWMutex
	remotes map[message.ChainID]common.Address
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{remotes: make(map[message.ChainID]common.Address)}
}

// SetRemote binds chain to addr. Any second call for the same chain fails with
// ErrAlreadySet, even with the same address.
func (r *Registry) SetRemote(chain message.ChainID, addr common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.remotes[chain]; ok {
		return fmt.Errorf("%w: chain %d is bound to %s", ErrAlreadySet, chain, existing.Hex())
	}
	r.remotes[chain] = addr
	return nil
}

// Resolve returns the address registered for chain.
func (r *Registry) Resolve(chain message.ChainID) (common.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	addr, ok := r.remotes[chain]
	return addr, ok
}

// IsAuthorized reports whether sender is the registered remote for chain.
// An unregistered chain is never authorized.
func (r *Registry) IsAuthorized(chain message.ChainID, sender common.Address) bool {
	addr, ok := r.Resolve(chain)
	return ok && addr == sender
}

// Remotes returns a copy of all registered entries.
func (r *Registry) Remotes() map[message.ChainID]common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[message.ChainID]common.Address, len(r.remotes))
	for k, v := range r.remotes {
		out[k] = v
	}
	return out
}

// Len returns the number of registered remotes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.remotes)
}
