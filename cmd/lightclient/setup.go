package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/urfave/cli/v2"

	"github.com/ipfs/go-cid"

	"github.com/lightfil/client/blockstore"
	"github.com/lightfil/client/bootstrap"
	"github.com/lightfil/client/client"
	"github.com/lightfil/client/keystore"
	"github.com/lightfil/client/netio"
)

// unavailableGraphExchange is the default GraphExchange: the module carries
// no graphsync client (none appears anywhere in the dependency graph this
// CLI was built from, see DESIGN.md), so partial-state drains fail with a
// clear error instead of silently doing nothing. A real implementation can
// be wired in by constructing a *client.Client directly.
type unavailableGraphExchange struct{}

func (unavailableGraphExchange) Drain(ctx context.Context, target peer.AddrInfo, root cid.Cid, depth int) error {
	return fmt.Errorf("lightclient: no graphsync transport configured, cannot drain %s", root)
}

// daemon bundles the running client plus the background goroutine driving
// its block subscription, so command actions can share one setup path.
type daemon struct {
	client *client.Client
	cancel context.CancelFunc
	runErr chan error
}

func (d *daemon) shutdown() {
	d.cancel()
	_ = d.client.Close()
}

// buildClient resolves the network (bootstrap RPC, trusted peer), opens a
// host and gossip router, loads the keystore, and starts the block
// subscription loop in the background. Every subcommand goes through this
// same path before doing its own work.
func buildClient(c *cli.Context) (*daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	peerAddr := c.String("trusted-peer")
	target, err := bootstrap.ResolvePeer(peerAddr)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("resolve trusted peer: %w", err)
	}

	networkName := c.String("network")
	if networkName == "" {
		rpcAddr := c.String("bootstrap-rpc")
		bc, err := bootstrap.Dial(ctx, rpcAddr)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("dial bootstrap rpc %s: %w", rpcAddr, err)
		}
		defer bc.Close()
		name, err := bc.NetworkName(ctx)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("discover network name: %w", err)
		}
		networkName = name
		log.Printf("[lightclient] discovered network name %q", networkName)
	}

	h, err := netio.NewHost(c.String("listen"))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create host: %w", err)
	}

	score := netio.DefaultScoreParams()
	score.BlockTopicWeight = envFloat("LIGHTCLIENT_GOSSIP_BLOCK_WEIGHT", score.BlockTopicWeight)
	score.MessageTopicWeight = envFloat("LIGHTCLIENT_GOSSIP_MESSAGE_WEIGHT", score.MessageTopicWeight)
	score.GossipThreshold = envFloat("LIGHTCLIENT_GOSSIP_THRESHOLD", score.GossipThreshold)

	router, err := netio.NewRouter(ctx, h, networkName, score)
	if err != nil {
		cancel()
		_ = h.Close()
		return nil, fmt.Errorf("create gossip router: %w", err)
	}

	if err := netio.Connect(ctx, h, target); err != nil {
		cancel()
		_ = h.Close()
		return nil, fmt.Errorf("connect trusted peer %s: %w", target.ID, err)
	}

	ks := keystore.New()
	if path := c.String("keystore"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			cancel()
			_ = h.Close()
			return nil, fmt.Errorf("read keystore %s: %w", path, err)
		}
		if err := ks.ImportJSON(data); err != nil {
			cancel()
			_ = h.Close()
			return nil, fmt.Errorf("import keystore %s: %w", path, err)
		}
		log.Printf("[lightclient] imported %d key(s) from %s", ks.Len(), path)
	}

	cl := client.New(h, router, blockstore.New(), ks, unavailableGraphExchange{}, target)

	runErr := make(chan error, 1)
	go func() {
		runErr <- cl.Run(ctx)
	}()

	return &daemon{client: cl, cancel: cancel, runErr: runErr}, nil
}
