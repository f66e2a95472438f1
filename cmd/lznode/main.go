package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	lzconcept "github.com/SteamyCutie/layerzero-concept"
	"github.com/SteamyCutie/layerzero-concept/internal/config"
	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"
)

func main() {
	fs := flag.NewFlagSet("lznode", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultPath, "node config file, created interactively if missing")
	updateChain := fs.Uint("update-chain", 0, "master only: send a counter update to this chain after start")
	amount := fs.String("amount", "1", "decimal amount for -update-chain")
	opName := fs.String("op", "ADD", "operation for -update-chain (ADD, SUB, MUL)")
	requestChain := fs.Uint("request-chain", 0, "request the counter kept by this chain after start")
	poll := fs.Duration("poll", 0, "log local counters at this interval (0 disables)")
	_ = fs.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	d, err := lzconcept.NewDaemon(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- d.Run() }()

	if *updateChain != 0 {
		if err := sendUpdate(ctx, d, message.ChainID(*updateChain), *amount, *opName); err != nil {
			log.WithField("caller", "lznode").WithError(err).Error("Counter update failed")
		}
	}
	if *requestChain != 0 {
		chain := message.ChainID(*requestChain)
		addr, ok := d.Node().Resolve(chain)
		if !ok {
			log.WithField("caller", "lznode").Errorf("No remote registered for chain %d", chain)
		} else if err := d.Node().RequestCounter(ctx, chain, addr); err != nil {
			log.WithField("caller", "lznode").WithError(err).Error("Counter request failed")
		}
	}

	var tick <-chan time.Time
	if *poll > 0 {
		t := time.NewTicker(*poll)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			d.Stop()
			<-errCh
			return
		case err := <-errCh:
			if err != nil {
				log.WithField("caller", "lznode").WithError(err).Error("Daemon stopped")
				os.Exit(1)
			}
			return
		case <-tick:
			logCounters(d)
		}
	}
}

func sendUpdate(ctx context.Context, d *lzconcept.Daemon, chain message.ChainID, amount, opName string) error {
	m, ok := d.Master()
	if !ok {
		return fmt.Errorf("-update-chain needs a master node, this one is %s", d.Node().Role())
	}
	op, err := message.ParseOp(opName)
	if err != nil {
		return err
	}
	v, err := uint256.FromDecimal(amount)
	if err != nil {
		return fmt.Errorf("amount %q: %w", amount, err)
	}
	addr, ok := d.Node().Resolve(chain)
	if !ok {
		return fmt.Errorf("no remote registered for chain %d", chain)
	}
	return m.UpdateCounter(ctx, chain, addr, v, op)
}

func logCounters(d *lzconcept.Daemon) {
	n := d.Node()
	fields := log.Fields{"caller": "poll"}
	for chain, v := range n.Counters() {
		fields[fmt.Sprintf("counter_%d", chain)] = v.Dec()
	}
	for chain := range n.Remotes() {
		if v, ok := n.RemoteCounter(chain); ok {
			fields[fmt.Sprintf("remote_%d", chain)] = v.Dec()
		}
	}
	log.WithFields(fields).Info("Counters")
}
