// Package endpoint provides the transports nodes send through: an in-process
// switch for tests and simulations, and a DTLS transport for real deployments.
package endpoint

import (
	"context"
	"errors"

	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownDestination = errors.New("unknown destination")
	ErrAddressInUse       = errors.New("address already in use")
	ErrClosed             = errors.New("endpoint closed")
	ErrInboxFull          = errors.New("destination inbox full")
	ErrInsufficientFee    = errors.New("insufficient fee")
)

// Receiver is invoked once per delivered payload.
type Receiver interface {
	OnMessage(ctx context.Context, srcChain message.ChainID, srcAddr common.Address, payload []byte) error
}

// Identity is a participant's chain and address.
type Identity struct {
	Chain   message.ChainID
	Address common.Address
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
