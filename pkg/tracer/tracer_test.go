package tracer

import (
	"testing"

	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestTrace(t *testing.T) {
	ch := make(chan TraceEvent, 1)
	tr := NewTracerWithChannel(ch)
	payload := []byte{byte(message.KindCounterRequest)}

	tr.Trace(TraceOut, 1001, 123, common.Address{}, payload)

	if !tr.Enabled() {
		assert.Empty(t, ch)
		return
	}
	ev := <-ch
	assert.Equal(t, TraceOut, ev.Dir)
	assert.Equal(t, message.ChainID(1001), ev.LocalChain)
	assert.Equal(t, message.ChainID(123), ev.RemoteChain)
	assert.Equal(t, "CounterRequest", ev.Kind)
	assert.Equal(t, 1, ev.Len)
}

func TestTrace_NilChannel(t *testing.T) {
	tr := NewTracerWithChannel(nil)
	assert.False(t, tr.Enabled())
	// Should not block or panic
	tr.Trace(TraceIn, 1, 2, common.Address{}, nil)
}
