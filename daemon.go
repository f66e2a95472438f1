// Package lzconcept runs a counter node (master or satellite) behind a DTLS
// endpoint, configured from a node_config.yml.
package lzconcept

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/SteamyCutie/layerzero-concept/internal/config"
	mdtls "github.com/SteamyCutie/layerzero-concept/internal/dtls"
	"github.com/SteamyCutie/layerzero-concept/internal/endpoint"
	"github.com/SteamyCutie/layerzero-concept/internal/node"
	"github.com/SteamyCutie/layerzero-concept/internal/registry"
	"github.com/SteamyCutie/layerzero-concept/pkg/command"
	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/SteamyCutie/layerzero-concept/pkg/tracer"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// Daemon hosts one node and its DTLS endpoint.
type Daemon struct {
	ctx context.Context

	DaemonState
	stateMu sync.Mutex

	IsAlive    int32
	shouldStop int32

	OutCommandCh chan command.InternalCommand
	TraceCh      chan tracer.TraceEvent

	cfg       *config.Config
	ep        *endpoint.DTLSEndpoint
	node      *node.Node
	master    *node.MasterNode
	satellite *node.SatelliteNode

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// DaemonState holds the current state of the daemon.
type DaemonState struct {
	ShouldStop bool `json:"shouldStop"`
	IsAlive    bool `json:"isAlive"`
}

// NewDaemon builds a daemon from cfg. cfg may be nil; then config.Default()
// is used.
func NewDaemon(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := cfg.LogLevel()
	log.SetLevel(level)

	serverCfg, err := mdtls.NewServerConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("dtls server config: %w", err)
	}
	clientCfg, err := mdtls.NewClientConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("dtls client config: %w", err)
	}

	id := node.Identity{Chain: message.ChainID(cfg.Node.ChainID), Address: cfg.NodeAddress()}
	listen := cfg.Node.Listen
	if listen == "" {
		listen = "0.0.0.0:0"
	}
	ep, err := endpoint.NewDTLS(endpoint.Identity{Chain: id.Chain, Address: id.Address}, listen, serverCfg, clientCfg)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		ctx:          ctx,
		cfg:          cfg,
		ep:           ep,
		OutCommandCh: make(chan command.InternalCommand, 10),
		TraceCh:      make(chan tracer.TraceEvent, 2000),
	}

	fee, _ := cfg.FeeAmount()
	opts := []node.Option{
		node.WithFee(fee),
		node.WithTracer(tracer.NewTracerWithChannel(d.TraceCh)),
	}
	role, err := node.ParseRole(cfg.Node.Role)
	if err != nil {
		return nil, err
	}
	switch role {
	case node.RoleMaster:
		d.master = node.NewMaster(id, ep, opts...)
		d.node = d.master.Node
	case node.RoleSatellite:
		d.satellite = node.NewSatellite(id, ep, opts...)
		d.node = d.satellite.Node
	}

	for _, r := range cfg.Node.Remotes {
		if err := d.AddRemote(message.ChainID(r.ChainID), common.HexToAddress(r.Address), r.Endpoint); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// AddRemote trusts addr for chain and, if hostport is set, routes chain to
// it. A chain that already has a remote is logged and left unchanged.
func (d *Daemon) AddRemote(chain message.ChainID, addr common.Address, hostport string) error {
	err := d.node.SetRemote(chain, addr)
	switch {
	case errors.Is(err, registry.ErrAlreadySet):
		log.WithField("caller", "daemon").WithField("remote_chain", chain).Warn("remote already set")
	case err != nil:
		return err
	default:
		d.notify(command.CmdRemotesChanged)
	}
	if hostport != "" {
		return d.ep.AddRoute(chain, hostport)
	}
	return nil
}

// Node returns the hosted node.
func (d *Daemon) Node() *node.Node { return d.node }

// Master returns the hosted node if it is a master.
func (d *Daemon) Master() (*node.MasterNode, bool) { return d.master, d.master != nil }

// Satellite returns the hosted node if it is a satellite.
func (d *Daemon) Satellite() (*node.SatelliteNode, bool) { return d.satellite, d.satellite != nil }

// Addr returns the bound DTLS address while running.
func (d *Daemon) Addr() net.Addr { return d.ep.Addr() }

// State returns a copy of the daemon state.
func (d *Daemon) State() DaemonState {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.DaemonState
}

// Run serves the endpoint until the daemon's context ends or Stop is called.
func (d *Daemon) Run() error {
	if !atomic.CompareAndSwapInt32(&d.IsAlive, 0, 1) {
		return errors.New("daemon is already running")
	}
	if atomic.LoadInt32(&d.shouldStop) == 1 {
		atomic.StoreInt32(&d.IsAlive, 0)
		return errors.New("daemon was stopped")
	}
	ctx, cancel := context.WithCancel(d.ctx)
	d.cancelMu.Lock()
	d.cancel = cancel
	d.cancelMu.Unlock()
	defer cancel()

	d.node.ListRoutes()
	if debug {
		go d.logTraces(ctx)
	}
	d.setAlive(true)
	log.WithField("caller", "daemon").Infof("%s node started on chain %d", d.node.Role(), d.node.Identity().Chain)

	err := d.ep.Serve(ctx, d.node)
	d.setAlive(false)
	atomic.StoreInt32(&d.IsAlive, 0)
	return err
}

// Stop ends Run and closes every connection.
func (d *Daemon) Stop() {
	atomic.StoreInt32(&d.shouldStop, 1)
	d.setShouldStop()

	d.cancelMu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.cancelMu.Unlock()
	if err := d.ep.Close(); err != nil {
		log.WithField("caller", "daemon").WithError(err).Debug("Closing endpoint")
	}
}

func (d *Daemon) logTraces(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.TraceCh:
			log.WithFields(log.Fields{
				"caller":       "trace",
				"dir":          ev.Dir,
				"remote_chain": ev.RemoteChain,
				"kind":         ev.Kind,
				"len":          ev.Len,
			}).Debug("Trace")
		}
	}
}

// notify emits cmd without blocking.
func (d *Daemon) notify(cmd command.InternalCommand) {
	select {
	case <-d.ctx.Done():
	case d.OutCommandCh <- cmd:
	default:
	}
}

func (d *Daemon) setShouldStop() {
	d.stateMu.Lock()
	d.ShouldStop = true
	d.stateMu.Unlock()
	d.notify(command.CmdUpdateDaemonState)
}

func (d *Daemon) setAlive(val bool) {
	d.stateMu.Lock()
	d.DaemonState.IsAlive = val
	d.stateMu.Unlock()
	d.notify(command.CmdUpdateDaemonState)
}
