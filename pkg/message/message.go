// Package message defines the counter protocol messages exchanged between
// master and satellite nodes and their binary encoding.
package message

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// ChainID identifies a remote chain.
type ChainID uint32

// Kind is the discriminant that starts every encoded message.
type Kind byte

const (
	KindNone           Kind = 0x00
	KindCounterUpdate  Kind = 0x01
	KindCounterRequest Kind = 0x02
	KindCounterReply   Kind = 0x03
)

// KindMapType maps message kinds to readable names, used in logs.
var KindMapType = map[Kind]string{
	KindCounterUpdate:  "CounterUpdate",
	KindCounterRequest: "CounterRequest",
	KindCounterReply:   "CounterReply",
}

// IsValidKind reports whether k is a known message kind.
func IsValidKind(k Kind) bool {
	_, ok := KindMapType[k]
	return ok
}

func (k Kind) String() string {
	if s, ok := KindMapType[k]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(0x%02X)", byte(k))
}

// Op is the arithmetic operation carried by a CounterUpdate.
type Op byte

const (
	OpAdd Op = 0x01
	OpSub Op = 0x02
	OpMul Op = 0x03
)

var (
	// ErrMalformed is returned when a payload does not have the shape its discriminant requires.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownOperation is returned for an op outside ADD, SUB and MUL.
	ErrUnknownOperation = errors.New("unknown operation")
)

var opNames = map[Op]string{
	OpAdd: "ADD",
	OpSub: "SUB",
	OpMul: "MUL",
}

// Valid reports whether op is one of ADD, SUB or MUL.
func (op Op) Valid() bool {
	_, ok := opNames[op]
	return ok
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(0x%02X)", byte(op))
}

// ParseOp parses "ADD", "SUB" or "MUL" (case insensitive).
func ParseOp(s string) (Op, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADD":
		return OpAdd, nil
	case "SUB":
		return OpSub, nil
	case "MUL":
		return OpMul, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}

// Message is one of CounterUpdate, CounterRequest or CounterReply.
type Message interface {
	Kind() Kind
}

// CounterUpdate asks the receiver to apply Op with Amount to the counter it
// keeps for the sender's chain.
type CounterUpdate struct {
	Amount uint256.Int
	Op     Op
}

// Kind implements Message.
func (CounterUpdate) Kind() Kind { return KindCounterUpdate }

// NewCounterUpdate builds a CounterUpdate from a uint64 amount.
func NewCounterUpdate(amount uint64, op Op) CounterUpdate {
	return CounterUpdate{Amount: *uint256.NewInt(amount), Op: op}
}

// CounterRequest asks the receiver for the counter it keeps for the sender's chain.
type CounterRequest struct{}

// Kind implements Message.
func (CounterRequest) Kind() Kind { return KindCounterRequest }

// CounterReply answers a CounterRequest with the responder's stored value.
type CounterReply struct {
	Value uint256.Int
}

// Kind implements Message.
func (CounterReply) Kind() Kind { return KindCounterReply }
