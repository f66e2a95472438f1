package message

import (
	"fmt"
)

const (
	wordSize = 32

	// CounterUpdateSize is | 1B kind | 1B op | 32B amount |.
	CounterUpdateSize = 1 + 1 + wordSize
	// CounterRequestSize is | 1B kind |.
	CounterRequestSize = 1
	// CounterReplySize is | 1B kind | 32B value |.
	CounterReplySize = 1 + wordSize
)

// Encode returns the wire form of m. Integers are big endian 256-bit words.
func Encode(m Message) ([]byte, error) {
	switch msg := m.(type) {
	case CounterUpdate:
		if !msg.Op.Valid() {
			return nil, fmt.Errorf("encode %s: %w: %s", msg.Kind(), ErrUnknownOperation, msg.Op)
		}
		out := make([]byte, CounterUpdateSize)
		out[0] = byte(KindCounterUpdate)
		out[1] = byte(msg.Op)
		amount := msg.Amount.Bytes32()
		copy(out[2:], amount[:])
		return out, nil
	case *CounterUpdate:
		if msg == nil {
			return nil, fmt.Errorf("encode: nil %s", KindCounterUpdate)
		}
		return Encode(*msg)
	case CounterRequest, *CounterRequest:
		return []byte{byte(KindCounterRequest)}, nil
	case CounterReply:
		out := make([]byte, CounterReplySize)
		out[0] = byte(KindCounterReply)
		value := msg.Value.Bytes32()
		copy(out[1:], value[:])
		return out, nil
	case *CounterReply:
		if msg == nil {
			return nil, fmt.Errorf("encode: nil %s", KindCounterReply)
		}
		return Encode(*msg)
	}
	return nil, fmt.Errorf("encode: unsupported message %T", m)
}

// Decode parses a payload produced by Encode. Decoded messages are values,
// never pointers.
func Decode(b []byte) (Message, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	kind := Kind(b[0])
	switch kind {
	case KindCounterUpdate:
		if len(b) != CounterUpdateSize {
			return nil, lengthErr(kind, len(b), CounterUpdateSize)
		}
		op := Op(b[1])
		if !op.Valid() {
			return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownOperation, b[1])
		}
		var m CounterUpdate
		m.Op = op
		m.Amount.SetBytes32(b[2:])
		return m, nil
	case KindCounterRequest:
		if len(b) != CounterRequestSize {
			return nil, lengthErr(kind, len(b), CounterRequestSize)
		}
		return CounterRequest{}, nil
	case KindCounterReply:
		if len(b) != CounterReplySize {
			return nil, lengthErr(kind, len(b), CounterReplySize)
		}
		var m CounterReply
		m.Value.SetBytes32(b[1:])
		return m, nil
	}
	return nil, fmt.Errorf("%w: unknown message kind %s", ErrMalformed, kind)
}

func lengthErr(kind Kind, got, want int) error {
	return fmt.Errorf("%w: %s is %d bytes, want %d", ErrMalformed, kind, got, want)
}
