package message

import (
	"bytes"
	"testing"
)

// FuzzDecode feeds arbitrary payloads to Decode. Invalid inputs must not
// panic, and anything that decodes must encode back to the same bytes.
func FuzzDecode(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0xFF})
	f.Add([]byte{byte(KindCounterRequest)})
	f.Add([]byte{byte(KindCounterRequest), 0x00})
	f.Add(append([]byte{byte(KindCounterUpdate), byte(OpAdd)}, make([]byte, 32)...))
	f.Add(append([]byte{byte(KindCounterUpdate), 0x09}, make([]byte, 32)...))
	f.Add(append([]byte{byte(KindCounterReply)}, bytes.Repeat([]byte{0xFF}, 32)...))
	f.Fuzz(func(t *testing.T, data []byte) {
		msg, err := Decode(data)
		if err != nil {
			return
		}
		out, err := Encode(msg)
		if err != nil {
			t.Fatalf("re-encode %T: %v", msg, err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("round trip mismatch: in=%x out=%x", data, out)
		}
	})
}
