// Command lightclient is the light client's entrypoint: a urfave/cli/v2
// app wiring network discovery, libp2p transport, and the orchestrator in
// package client into a set of one-shot and daemon subcommands.
package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "lightclient",
		Usage: "a decentralized light client for a Filecoin-like chain",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "network",
				Aliases: []string{"n"},
				Usage:   "network name (skips bootstrap RPC discovery if set)",
			},
			&cli.StringFlag{
				Name:    "bootstrap-rpc",
				Aliases: []string{"rpc"},
				Value:   envOrDefault("LIGHTCLIENT_BOOTSTRAP_RPC", "http://127.0.0.1:1234/rpc/v1"),
				Usage:   "trusted node's JSON-RPC endpoint, used to discover the network name",
			},
			&cli.StringFlag{
				Name:     "trusted-peer",
				Aliases:  []string{"peer"},
				Required: true,
				Usage:    "trusted peer multiaddr, e.g. /ip4/.../tcp/.../p2p/<peerID>",
			},
			&cli.StringFlag{
				Name:  "listen",
				Value: "/ip4/0.0.0.0/tcp/0",
				Usage: "libp2p listen multiaddr",
			},
			&cli.StringFlag{
				Name:  "keystore",
				Usage: "path to a stress_keystore.json-shaped key file to import",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Second,
				Usage: "per-operation deadline",
			},
		},
		Commands: []*cli.Command{
			runCommand,
			getHeadCommand,
			pushMessageCommand,
			waitMessageCommand,
			actorStateCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
