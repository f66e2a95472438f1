package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pion/dtls/v3"
	log "github.com/sirupsen/logrus"
)

const (
	defaultConnBufSize      = 8192
	defaultHandshakeTimeout = 30 * time.Second
)

// DTLSEndpoint carries frames between participants over DTLS. Routes map a
// remote chain to the UDP address its participant listens on. Outbound
// connections are dialed on first use and cached.
type DTLSEndpoint struct {
	id        Identity
	listen    *net.UDPAddr
	serverCfg *dtls.Config
	clientCfg *dtls.Config

	// HandshakeTimeout bounds inbound and outbound handshakes.
	HandshakeTimeout time.Duration

	routes sync.Map // message.ChainID -> *net.UDPAddr
	dialMu sync.Mutex
	cm     *ConnManager

	recv   atomic.Value // receiverBox
	ctx    atomic.Value // ctxBox of the running Serve
	mu     sync.Mutex
	ln     net.Listener
	closed atomic.Bool
}

type (
	receiverBox struct{ r Receiver }
	ctxBox      struct{ ctx context.Context }
)

// NewDTLS creates an endpoint for id that will listen on listenAddr.
func NewDTLS(id Identity, listenAddr string, serverCfg, clientCfg *dtls.Config) (*DTLSEndpoint, error) {
	if serverCfg == nil || clientCfg == nil {
		return nil, errors.New("dtls endpoint: server and client config are required")
	}
	laddr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("dtls endpoint: listen address %q: %w", listenAddr, err)
	}
	e := &DTLSEndpoint{
		id:               id,
		listen:           laddr,
		serverCfg:        serverCfg,
		clientCfg:        clientCfg,
		HandshakeTimeout: defaultHandshakeTimeout,
	}
	e.cm = NewConnManager(defaultConnBufSize, e.handleFrame)
	return e, nil
}

// Identity returns the chain and address this endpoint sends as.
func (e *DTLSEndpoint) Identity() Identity { return e.id }

// AddRoute sets the UDP address of the participant on chain.
func (e *DTLSEndpoint) AddRoute(chain message.ChainID, hostport string) error {
	raddr, err := net.ResolveUDPAddr("udp", hostport)
	if err != nil {
		return fmt.Errorf("dtls endpoint: route for chain %d: %w", chain, err)
	}
	e.routes.Store(chain, raddr)
	return nil
}

func (e *DTLSEndpoint) route(chain message.ChainID) (*net.UDPAddr, bool) {
	v, ok := e.routes.Load(chain)
	if !ok {
		return nil, false
	}
	return v.(*net.UDPAddr), true
}

// Addr returns the bound listen address once Serve is running, nil before.
func (e *DTLSEndpoint) Addr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ln == nil {
		return nil
	}
	return e.ln.Addr()
}

// Serve listens for DTLS connections and delivers every frame addressed to
// this endpoint to r. It returns when ctx ends or Close is called.
func (e *DTLSEndpoint) Serve(ctx context.Context, r Receiver) error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.recv.Store(receiverBox{r: r})
	e.ctx.Store(ctxBox{ctx: ctx})

	ln, err := dtls.Listen("udp", e.listen, e.serverCfg)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.ln = ln
	e.mu.Unlock()
	log.WithField("caller", "dtls endpoint").Infof("Listening on %s as chain %d", ln.Addr(), e.id.Chain)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || e.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.WithField("caller", "dtls endpoint").WithError(err).Error("Accept Error")
			continue
		}
		go e.acceptConn(ctx, conn)
	}
}

func (e *DTLSEndpoint) acceptConn(ctx context.Context, conn net.Conn) {
	dtlsConn, ok := conn.(*dtls.Conn)
	if !ok {
		log.WithField("caller", "dtls endpoint").Error("Accept Error: Connection is not a DTLS connection")
		_ = conn.Close()
		return
	}
	hctx, cancel := context.WithTimeout(ctx, e.HandshakeTimeout)
	defer cancel()
	if err := dtlsConn.HandshakeContext(hctx); err != nil {
		log.WithField("caller", "dtls endpoint").WithError(err).Warn("Handshake failed")
		_ = conn.Close()
		return
	}
	e.cm.RegisterConn(conn)
}

// Send frames payload for (dstChain, dstAddr) and writes it to the route for
// dstChain, dialing if needed.
func (e *DTLSEndpoint) Send(ctx context.Context, dstChain message.ChainID, dstAddr common.Address, payload []byte, fee *uint256.Int) error {
	if e.closed.Load() {
		return ErrClosed
	}
	raddr, ok := e.route(dstChain)
	if !ok {
		return fmt.Errorf("%w: no route for chain %d", ErrUnknownDestination, dstChain)
	}
	f := Frame{
		Src:     e.id,
		Dst:     Identity{Chain: dstChain, Address: dstAddr},
		Payload: payload,
	}
	if fee != nil {
		f.Fee.Set(fee)
	}
	b, err := f.Encode()
	if err != nil {
		return err
	}
	if err := e.dial(ctx, raddr); err != nil {
		return err
	}
	return e.cm.Write(raddr.String(), b)
}

func (e *DTLSEndpoint) dial(ctx context.Context, raddr *net.UDPAddr) error {
	e.dialMu.Lock()
	defer e.dialMu.Unlock()
	if _, ok := e.cm.Lookup(raddr.String()); ok {
		return nil
	}
	conn, err := dtls.Dial("udp", raddr, e.clientCfg)
	if err != nil {
		return fmt.Errorf("dial %s: %w", raddr, err)
	}
	hctx, cancel := context.WithTimeout(ctx, e.HandshakeTimeout)
	defer cancel()
	if err := conn.HandshakeContext(hctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("handshake %s: %w", raddr, err)
	}
	e.cm.RegisterConn(conn)
	return nil
}

func (e *DTLSEndpoint) handleFrame(conn net.Conn, f *Frame) {
	entry := log.WithFields(log.Fields{
		"caller":    "dtls endpoint",
		"remote":    conn.RemoteAddr().String(),
		"src_chain": f.Src.Chain,
	})
	if f.Dst != e.id {
		entry.WithField("dst_chain", f.Dst.Chain).Warn("Dropping frame not addressed to this endpoint")
		return
	}
	box, _ := e.recv.Load().(receiverBox)
	if box.r == nil {
		entry.Warn("Dropping frame: no receiver")
		return
	}
	cb, _ := e.ctx.Load().(ctxBox)
	ctx := cb.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	entry.WithField("fee", f.Fee.Dec()).Debug("Frame received")
	if err := box.r.OnMessage(ctx, f.Src.Chain, f.Src.Address, f.Payload); err != nil {
		entry.WithError(err).Debug("Delivery rejected by receiver")
	}
}

// Close stops listening and closes every connection.
func (e *DTLSEndpoint) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.mu.Lock()
	ln := e.ln
	e.mu.Unlock()
	var err error
	if ln != nil {
		err = ln.Close()
	}
	e.cm.DisconnectAll()
	return err
}
