// Package bootstrap discovers the pieces a light client needs before it can
// attach to a network: the genesis CID, the network name, and a trusted
// node's multiaddr. Lotus nodes expose these over JSON-RPC; the teacher's
// own discovery step hand-rolled the HTTP POST and response parsing. This
// package does the same job through the JSON-RPC client library the
// protocol's own API generator is built on, instead of a raw http.Post.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/ipfs/go-cid"
)

// rpcAPI is the narrow slice of the full node JSON-RPC surface this client
// calls. go-jsonrpc fills each field with a request/response roundtrip
// keyed by "<namespace>.<FieldName>".
type rpcAPI struct {
	ChainGetGenesis   func(ctx context.Context) (genesisTipSet, error)
	StateNetworkName  func(ctx context.Context) (string, error)
}

// genesisTipSet mirrors just the field of a TipSet this client reads: its
// block CIDs. cid.Cid round-trips through go-jsonrpc's JSON encoding via
// its own MarshalJSON/UnmarshalJSON (the `{"/": "..."}` link convention).
type genesisTipSet struct {
	Cids []cid.Cid
}

// Client is a trusted-node JSON-RPC bootstrap endpoint.
type Client struct {
	api    rpcAPI
	closer jsonrpc.ClientCloser
}

// Dial opens a JSON-RPC client against a Lotus-compatible node's "Filecoin"
// namespace at addr (e.g. "http://127.0.0.1:1234/rpc/v1").
func Dial(ctx context.Context, addr string) (*Client, error) {
	var api rpcAPI
	closer, err := jsonrpc.NewClient(ctx, addr, "Filecoin", &api, nil)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: dial %s: %w", addr, err)
	}
	return &Client{api: api, closer: closer}, nil
}

// Close releases the underlying JSON-RPC connection.
func (c *Client) Close() { c.closer() }

// Genesis returns the genesis block's CID, the first (and only) block of
// the genesis tipset.
func (c *Client) Genesis(ctx context.Context) (cid.Cid, error) {
	ts, err := c.api.ChainGetGenesis(ctx)
	if err != nil {
		return cid.Undef, fmt.Errorf("bootstrap: ChainGetGenesis: %w", err)
	}
	if len(ts.Cids) == 0 {
		return cid.Undef, fmt.Errorf("bootstrap: genesis tipset has no blocks")
	}
	return ts.Cids[0], nil
}

// NetworkName returns the network's human-readable name (e.g.
// "mainnet", "calibrationnet"), used to derive the gossip topic names.
func (c *Client) NetworkName(ctx context.Context) (string, error) {
	name, err := c.api.StateNetworkName(ctx)
	if err != nil {
		return "", fmt.Errorf("bootstrap: StateNetworkName: %w", err)
	}
	return name, nil
}
