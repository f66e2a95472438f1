package endpoint

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	frameVersion byte = 0x01

	// | 1B version | 4B src chain | 20B src addr | 4B dst chain | 20B dst addr | 32B fee | 4B len |
	frameHeaderSize = 1 + 4 + common.AddressLength + 4 + common.AddressLength + 32 + 4

	// MaxPayloadSize bounds the payload carried by a single frame.
	MaxPayloadSize = 1024
)

var (
	errShortFrame     = errors.New("short frame")
	errFrameVersion   = errors.New("unsupported frame version")
	errLengthMismatch = errors.New("length mismatch")
)

// Frame is the transport envelope carried over DTLS.
type Frame struct {
	Src     Identity
	Dst     Identity
	Fee     uint256.Int
	Payload []byte
}

// Encode returns the wire form of f.
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload too large: %d > %d", len(f.Payload), MaxPayloadSize)
	}
	var buf bytes.Buffer
	buf.Grow(frameHeaderSize + len(f.Payload))
	buf.WriteByte(frameVersion)
	putIdentity(&buf, f.Src)
	putIdentity(&buf, f.Dst)
	fee := f.Fee.Bytes32()
	buf.Write(fee[:])
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(f.Payload)))
	buf.Write(l[:])
	buf.Write(f.Payload)
	return buf.Bytes(), nil
}

// DecodeFrame validates and parses a frame produced by Encode.
func DecodeFrame(b []byte) (*Frame, error) {
	if len(b) < frameHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", errShortFrame, len(b))
	}
	if b[0] != frameVersion {
		return nil, fmt.Errorf("%w: 0x%02X", errFrameVersion, b[0])
	}
	off := 1
	f := &Frame{}
	f.Src, off = getIdentity(b, off)
	f.Dst, off = getIdentity(b, off)
	f.Fee.SetBytes32(b[off : off+32])
	off += 32
	n := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	if n > MaxPayloadSize || int(n) != len(b)-off {
		return nil, fmt.Errorf("%w: header says %d, have %d", errLengthMismatch, n, len(b)-off)
	}
	f.Payload = clone(b[off:])
	return f, nil
}

func putIdentity(buf *bytes.Buffer, id Identity) {
	var c [4]byte
	binary.BigEndian.PutUint32(c[:], uint32(id.Chain))
	buf.Write(c[:])
	buf.Write(id.Address.Bytes())
}

func getIdentity(b []byte, off int) (Identity, int) {
	chain := message.ChainID(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	addr := common.BytesToAddress(b[off : off+common.AddressLength])
	off += common.AddressLength
	return Identity{Chain: chain, Address: addr}, off
}
