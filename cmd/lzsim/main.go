// Command lzsim runs the master/satellite reference scenario in process over
// the memory switch and prints the resulting counters.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/SteamyCutie/layerzero-concept/internal/endpoint"
	"github.com/SteamyCutie/layerzero-concept/internal/node"
	"github.com/SteamyCutie/layerzero-concept/pkg/message"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"
)

type step struct {
	chain  message.ChainID
	amount uint64
	op     message.Op
}

func main() {
	fs := flag.NewFlagSet("lzsim", flag.ExitOnError)
	dup := fs.Bool("duplicates", false, "deliver every message twice")
	level := fs.String("log-level", "warn", "log level")
	_ = fs.Parse(os.Args[1:])

	if lvl, err := log.ParseLevel(*level); err == nil {
		log.SetLevel(lvl)
	}
	if err := run(*dup); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(duplicates bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var opts []endpoint.SwitchOption
	if duplicates {
		opts = append(opts, endpoint.WithDuplicates())
	}
	sw := endpoint.NewSwitch(opts...)

	masterID := node.Identity{Chain: 123, Address: common.HexToAddress("0x000000000000000000000000000000000000007b")}
	sats := []node.Identity{
		{Chain: 1001, Address: common.HexToAddress("0x00000000000000000000000000000000000003e9")},
		{Chain: 1002, Address: common.HexToAddress("0x00000000000000000000000000000000000003ea")},
	}

	mEP, err := sw.Listen(masterID.Chain, masterID.Address)
	if err != nil {
		return err
	}
	master := node.NewMaster(masterID, mEP)
	go func() { _ = mEP.Serve(ctx, master) }()

	satellites := make(map[message.ChainID]*node.SatelliteNode, len(sats))
	for _, id := range sats {
		ep, err := sw.Listen(id.Chain, id.Address)
		if err != nil {
			return err
		}
		s := node.NewSatellite(id, ep)
		if err := s.SetRemote(masterID.Chain, masterID.Address); err != nil {
			return err
		}
		if err := master.SetRemote(id.Chain, id.Address); err != nil {
			return err
		}
		satellites[id.Chain] = s
		go func() { _ = ep.Serve(ctx, s) }()
	}

	rounds := [][]step{
		{{1001, 10, message.OpAdd}, {1002, 5, message.OpSub}},
		{{1001, 5, message.OpMul}, {1002, 10, message.OpAdd}},
	}
	for i, round := range rounds {
		for _, st := range round {
			addr, _ := master.Resolve(st.chain)
			if err := master.UpdateCounter(ctx, st.chain, addr, uint256.NewInt(st.amount), st.op); err != nil {
				return err
			}
		}
		if err := drain(sw); err != nil {
			return err
		}
		fmt.Printf("round %d:", i+1)
		for _, id := range sats {
			v := satellites[id.Chain].GetCounter(masterID.Chain)
			fmt.Printf(" chain %d = %s", id.Chain, v.Dec())
		}
		fmt.Println()
	}

	for _, id := range sats {
		if err := master.RequestCounter(ctx, id.Chain, id.Address); err != nil {
			return err
		}
	}
	if err := drain(sw); err != nil {
		return err
	}
	for _, id := range sats {
		v, _ := master.RemoteCounter(id.Chain)
		st := satellites[id.Chain].Stats()
		fmt.Printf("chain %d reports %s (applied %d, failed %d)\n", id.Chain, v.Dec(), st.Applied, st.ApplyFailed)
	}
	return nil
}

func drain(sw *endpoint.Switch) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sw.Drain(ctx)
}
