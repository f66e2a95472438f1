// Package counter holds the per-chain counters of a node and the checked
// arithmetic used to update them.
package counter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/holiman/uint256"
)

var (
	// ErrOverflow is returned when a result exceeds 2^256-1.
	ErrOverflow = errors.New("counter overflow")
	// ErrUnderflow is returned when a result would drop below zero.
	ErrUnderflow = errors.New("counter underflow")
)

// Store keeps one counter per remote chain. Counters start at zero and are
// created on the first successful Apply.
type Store struct {
	mu       sync.Mutex
	counters map[message.ChainID]*uint256.Int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{counters: make(map[message.ChainID]*uint256.Int)}
}

// Get returns the counter for chain, zero if it was never set.
func (s *Store) Get(chain message.ChainID) uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.counters[chain]; ok {
		return *v
	}
	return uint256.Int{}
}

// Apply computes current op amount for chain and stores the result. On error
// the stored counter is left unchanged.
func (s *Store) Apply(chain message.ChainID, amount *uint256.Int, op message.Op) (uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := new(uint256.Int)
	if v, ok := s.counters[chain]; ok {
		current.Set(v)
	}
	next, err := Compute(current, amount, op)
	if err != nil {
		return *current, fmt.Errorf("apply %s %s to chain %d: %w", op, amount.Dec(), chain, err)
	}
	s.counters[chain] = next
	return *next, nil
}

// Compute returns current op amount without touching any state.
func Compute(current, amount *uint256.Int, op message.Op) (*uint256.Int, error) {
	var (
		z    = new(uint256.Int)
		flow bool
	)
	switch op {
	case message.OpAdd:
		_, flow = z.AddOverflow(current, amount)
		if flow {
			return nil, ErrOverflow
		}
	case message.OpSub:
		_, flow = z.SubOverflow(current, amount)
		if flow {
			return nil, ErrUnderflow
		}
	case message.OpMul:
		_, flow = z.MulOverflow(current, amount)
		if flow {
			return nil, ErrOverflow
		}
	default:
		return nil, fmt.Errorf("%w: %s", message.ErrUnknownOperation, op)
	}
	return z, nil
}

// Snapshot returns a copy of every counter created so far.
func (s *Store) Snapshot() map[message.ChainID]uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[message.ChainID]uint256.Int, len(s.counters))
	for k, v := range s.counters {
		out[k] = *v
	}
	return out
}
