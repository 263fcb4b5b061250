package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	gstbig "github.com/filecoin-project/go-state-types/big"
	"github.com/ipfs/go-cid"
	"github.com/urfave/cli/v2"

	"github.com/lightfil/client/address"
	"github.com/lightfil/client/message"
)

var getHeadCommand = &cli.Command{
	Name:  "get-head",
	Usage: "print the client's current cached chain head",
	Action: func(c *cli.Context) error {
		d, err := buildClient(c)
		if err != nil {
			return err
		}
		defer d.shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
		defer cancel()
		head, err := d.client.GetHead(ctx)
		if err != nil {
			return fmt.Errorf("get-head: %w", err)
		}
		fmt.Printf("head: %s height=%d parentStateRoot=%s\n", head.Cid, head.Header.Height, head.Header.ParentStateRoot)
		return nil
	},
}

var pushMessageCommand = &cli.Command{
	Name:  "push-message",
	Usage: "sign and publish a message on the network's message topic",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "to", Required: true, Usage: "recipient address"},
		&cli.StringFlag{Name: "from", Usage: "sender address (defaults to the keystore's first imported key)"},
		&cli.Uint64Flag{Name: "method", Value: 0, Usage: "method number"},
		&cli.StringFlag{Name: "value", Value: "0", Usage: "token amount in attoFIL, decimal"},
		&cli.StringFlag{Name: "params", Usage: "hex-encoded method parameters"},
	},
	Action: func(c *cli.Context) error {
		d, err := buildClient(c)
		if err != nil {
			return err
		}
		defer d.shutdown()

		to, err := address.FromString(c.String("to"))
		if err != nil {
			return fmt.Errorf("push-message: to: %w", err)
		}

		value, ok := new(big.Int).SetString(c.String("value"), 10)
		if !ok {
			return fmt.Errorf("push-message: invalid value %q", c.String("value"))
		}

		var params []byte
		if p := c.String("params"); p != "" {
			params, err = hex.DecodeString(p)
			if err != nil {
				return fmt.Errorf("push-message: params: %w", err)
			}
		}

		msg := message.Message{
			To:     to,
			Method: c.Uint64("method"),
			Value:  gstbig.Int{Int: value},
			Params: params,
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
		defer cancel()

		var signedCid cid.Cid
		if from := c.String("from"); from != "" {
			var fromAddr address.Address
			fromAddr, err = address.FromString(from)
			if err != nil {
				return fmt.Errorf("push-message: from: %w", err)
			}
			signedCid, err = d.client.PushMessageFrom(ctx, fromAddr, msg)
		} else {
			signedCid, err = d.client.PushMessage(ctx, msg)
		}
		if err != nil {
			return fmt.Errorf("push-message: %w", err)
		}
		fmt.Println(signedCid)
		return nil
	},
}

var waitMessageCommand = &cli.Command{
	Name:  "wait-message",
	Usage: "wait for a pushed message's inclusion and print its receipt",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "cid", Required: true, Usage: "signed message CID to wait on"},
	},
	Action: func(c *cli.Context) error {
		d, err := buildClient(c)
		if err != nil {
			return err
		}
		defer d.shutdown()

		target, err := cid.Decode(c.String("cid"))
		if err != nil {
			return fmt.Errorf("wait-message: cid: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
		defer cancel()
		receipt, err := d.client.WaitMessage(ctx, target)
		if err != nil {
			return fmt.Errorf("wait-message: %w", err)
		}
		fmt.Printf("exitCode=%d gasUsed=%d return=%x\n", receipt.ExitCode, receipt.GasUsed, receipt.Return)
		return nil
	},
}

var actorStateCommand = &cli.Command{
	Name:  "actor-state",
	Usage: "walk the state-tree HAMT for a single actor's state",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "address", Required: true, Usage: "actor address to look up"},
		&cli.StringFlag{Name: "state-root", Usage: "state-tree HAMT root CID (defaults to the current head's)"},
	},
	Action: func(c *cli.Context) error {
		d, err := buildClient(c)
		if err != nil {
			return err
		}
		defer d.shutdown()

		addr, err := address.FromString(c.String("address"))
		if err != nil {
			return fmt.Errorf("actor-state: address: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
		defer cancel()

		stateRoot := cid.Undef
		if s := c.String("state-root"); s != "" {
			stateRoot, err = cid.Decode(s)
			if err != nil {
				return fmt.Errorf("actor-state: state-root: %w", err)
			}
		} else {
			head, err := d.client.GetHead(ctx)
			if err != nil {
				return fmt.Errorf("actor-state: get head: %w", err)
			}
			stateRoot = head.Header.ParentStateRoot
		}

		state, found, err := d.client.GetActorState(ctx, stateRoot, addr)
		if err != nil {
			return fmt.Errorf("actor-state: %w", err)
		}
		if !found {
			return fmt.Errorf("actor-state: no state for %s under %s", addr, stateRoot)
		}
		fmt.Printf("code=%s head=%s callSeqNum=%d balance=%s\n", state.Code, state.Head, state.CallSeqNum, state.Balance)
		return nil
	},
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "run the client daemon, logging the chain head on a fixed interval",
	Action: func(c *cli.Context) error {
		d, err := buildClient(c)
		if err != nil {
			return err
		}
		defer d.shutdown()

		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case err := <-d.runErr:
				return err
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
				head, err := d.client.GetHead(ctx)
				cancel()
				if err != nil {
					fmt.Printf("[lightclient] no head yet: %v\n", err)
					continue
				}
				fmt.Printf("[lightclient] head %s height=%d\n", head.Cid, head.Header.Height)
			}
		}
	},
}
