package endpoint

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame() *Frame {
	return &Frame{
		Src:     Identity{Chain: 123, Address: common.HexToAddress("0x1111111111111111111111111111111111111111")},
		Dst:     Identity{Chain: 1001, Address: common.HexToAddress("0x2222222222222222222222222222222222222222")},
		Fee:     *uint256.NewInt(1_000_000_000_000_000),
		Payload: []byte{0x02},
	}
}

func TestFrame_RoundTrip(t *testing.T) {
	f := testFrame()
	b, err := f.Encode()
	require.NoError(t, err)
	assert.Len(t, b, frameHeaderSize+1)

	got, err := DecodeFrame(b)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestFrame_EmptyPayload(t *testing.T) {
	f := testFrame()
	f.Payload = []byte{}
	b, err := f.Encode()
	require.NoError(t, err)

	got, err := DecodeFrame(b)
	require.NoError(t, err)
	assert.Empty(t, got.Payload)
}

func TestFrame_TooLarge(t *testing.T) {
	f := testFrame()
	f.Payload = make([]byte, MaxPayloadSize+1)
	_, err := f.Encode()
	assert.Error(t, err)
}

func TestDecodeFrame_Errors(t *testing.T) {
	b, err := testFrame().Encode()
	require.NoError(t, err)

	badVersion := append([]byte{}, b...)
	badVersion[0] = 0x09

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, errShortFrame},
		{"short header", b[:frameHeaderSize-1], errShortFrame},
		{"bad version", badVersion, errFrameVersion},
		{"truncated payload", b[:frameHeaderSize], errLengthMismatch},
		{"trailing bytes", append(append([]byte{}, b...), 0xFF), errLengthMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeFrame(tt.data)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, f)
		})
	}
}

func FuzzDecodeFrame(f *testing.F) {
	b, _ := testFrame().Encode()
	f.Add(b)
	f.Add([]byte{})
	f.Add([]byte{frameVersion})
	f.Add(make([]byte, frameHeaderSize))
	f.Fuzz(func(t *testing.T, data []byte) {
		fr, err := DecodeFrame(data)
		if err != nil {
			return
		}
		out, err := fr.Encode()
		if err != nil {
			t.Fatalf("re-encode: %v", err)
		}
		if string(out) != string(data) {
			t.Fatalf("round trip mismatch")
		}
	})
}
