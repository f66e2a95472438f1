package lzconcept

import (
	"context"
	"testing"
	"time"

	"github.com/SteamyCutie/layerzero-concept/internal/config"
	"github.com/SteamyCutie/layerzero-concept/pkg/command"
	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(role string, chain uint32, addr string) *config.Config {
	cfg := config.Default()
	cfg.Node.Role = role
	cfg.Node.ChainID = chain
	cfg.Node.Address = addr
	cfg.Node.Listen = "127.0.0.1:0"
	cfg.Node.LogLevel = "warn"
	return cfg
}

const (
	masterHex = "0x000000000000000000000000000000000000007b"
	satHex    = "0x00000000000000000000000000000000000003e9"
)

func startDaemon(t *testing.T, d *Daemon) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run() }()
	require.Eventually(t, func() bool { return d.Addr() != nil }, 5*time.Second, 10*time.Millisecond)
	t.Cleanup(func() {
		d.Stop()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("daemon did not stop")
		}
	})
}

func TestNewDaemon_Roles(t *testing.T) {
	ctx := context.Background()

	d, err := NewDaemon(ctx, testConfig("master", 123, masterHex))
	require.NoError(t, err)
	m, ok := d.Master()
	require.True(t, ok)
	assert.Equal(t, message.ChainID(123), m.Identity().Chain)
	_, ok = d.Satellite()
	assert.False(t, ok)
	assert.NotNil(t, d.OutCommandCh)
	assert.NotNil(t, d.TraceCh)

	d, err = NewDaemon(ctx, testConfig("satellite", 1001, satHex))
	require.NoError(t, err)
	_, ok = d.Satellite()
	assert.True(t, ok)
	assert.Equal(t, common.HexToAddress(satHex), d.Node().Identity().Address)
}

func TestNewDaemon_NilConfig(t *testing.T) {
	d, err := NewDaemon(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "satellite", d.Node().Role().String())
}

func TestNewDaemon_Errors(t *testing.T) {
	cfg := testConfig("relayer", 1, masterHex)
	_, err := NewDaemon(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)

	cfg = testConfig("master", 123, masterHex)
	cfg.Node.DTLS.Certs.Mode = "invalid_mode"
	_, err = NewDaemon(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewDaemon_Remotes(t *testing.T) {
	cfg := testConfig("master", 123, masterHex)
	cfg.Node.Remotes = []config.Remote{
		{ChainID: 1001, Address: satHex, Endpoint: "127.0.0.1:4501"},
		{ChainID: 1002, Address: "0x00000000000000000000000000000000000003ea"},
	}
	d, err := NewDaemon(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, d.Node().Remotes(), 2)

	select {
	case cmd := <-d.OutCommandCh:
		assert.Equal(t, command.CmdRemotesChanged, cmd)
	default:
		t.Fatal("expected a remotes changed command")
	}

	// A second registration for the same chain is logged, not fatal.
	require.NoError(t, d.AddRemote(1001, common.HexToAddress(masterHex), ""))
	addr, ok := d.Node().Resolve(1001)
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress(satHex), addr)

	assert.Error(t, d.AddRemote(1003, common.HexToAddress(satHex), "not a hostport"))
}

func TestDaemon_RunStop(t *testing.T) {
	d, err := NewDaemon(context.Background(), testConfig("satellite", 1001, satHex))
	require.NoError(t, err)

	startDaemon(t, d)
	assert.True(t, d.State().IsAlive)
	assert.Error(t, d.Run(), "second Run must fail while running")
}

func TestDaemon_RunAfterStop(t *testing.T) {
	d, err := NewDaemon(context.Background(), testConfig("satellite", 1001, satHex))
	require.NoError(t, err)
	d.Stop()
	assert.Error(t, d.Run())
	assert.True(t, d.State().ShouldStop)
}

func TestDaemon_CounterOverDTLS(t *testing.T) {
	ctx := context.Background()

	sat, err := NewDaemon(ctx, testConfig("satellite", 1001, satHex))
	require.NoError(t, err)
	startDaemon(t, sat)

	mcfg := testConfig("master", 123, masterHex)
	mcfg.Node.Remotes = []config.Remote{{ChainID: 1001, Address: satHex, Endpoint: sat.Addr().String()}}
	master, err := NewDaemon(ctx, mcfg)
	require.NoError(t, err)
	startDaemon(t, master)

	require.NoError(t, sat.AddRemote(123, common.HexToAddress(masterHex), master.Addr().String()))

	m, _ := master.Master()
	require.NoError(t, m.UpdateCounter(ctx, 1001, common.HexToAddress(satHex), uint256.NewInt(10), message.OpAdd))
	require.NoError(t, m.UpdateCounter(ctx, 1001, common.HexToAddress(satHex), uint256.NewInt(5), message.OpMul))

	s, _ := sat.Satellite()
	want := *uint256.NewInt(50)
	require.Eventually(t, func() bool {
		return s.GetCounter(123) == want
	}, 10*time.Second, 20*time.Millisecond)

	require.NoError(t, m.RequestCounter(ctx, 1001, common.HexToAddress(satHex)))
	require.Eventually(t, func() bool {
		v, ok := m.RemoteCounter(1001)
		return ok && v == want
	}, 10*time.Second, 20*time.Millisecond)
}
