package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/lightfil/client/blockstore"
	"github.com/lightfil/client/keystore"
	"github.com/lightfil/client/netio"
)

// Client is the light-client orchestrator: the single cached head, the
// per-address nonce tracker, the key store, and the pub/sub session that
// feeds them all — the only place in the module that holds long-lived
// mutable state.
type Client struct {
	Host    host.Host
	Router  BlockRouter
	Store   *blockstore.Store
	Keys    *keystore.Store
	Graph   GraphExchange
	Peer    peer.AddrInfo

	nonceMu sync.Mutex
	nonces  map[string]uint64 // address string -> next nonce

	headMu    sync.RWMutex
	head      *netio.BlockMsg
	headReady chan struct{}

	blockSubMu sync.Mutex
	blockSubs  []chan netio.BlockMsg

	blockSub *netio.BlockSubscription
}

// New wires a Client from its already-constructed collaborators. The
// caller is responsible for constructing Host/Router/Store/Keys/Graph and
// resolving the trusted peer beforehand (via the netio and bootstrap
// packages).
func New(h host.Host, router BlockRouter, store *blockstore.Store, keys *keystore.Store, graph GraphExchange, trustedPeer peer.AddrInfo) *Client {
	return &Client{
		Host:      h,
		Router:    router,
		Store:     store,
		Keys:      keys,
		Graph:     graph,
		Peer:      trustedPeer,
		nonces:    make(map[string]uint64),
		headReady: make(chan struct{}),
	}
}

// Run subscribes to the network's block topic and drives the cached head
// plus every pending waitMessage's scan, until ctx is cancelled. It must
// not block on heavy work: each delivered block is fanned out to waiters
// over buffered channels, and receipt fetches happen inside the waiters'
// own goroutines, not here.
func (c *Client) Run(ctx context.Context) error {
	sub, blocks, err := c.Router.SubscribeBlocks(ctx)
	if err != nil {
		return fmt.Errorf("client: subscribe blocks: %w", err)
	}
	c.blockSub = sub

	for {
		select {
		case block, ok := <-blocks:
			if !ok {
				return nil
			}
			c.setHead(block)
			c.broadcastBlock(block)
		case <-ctx.Done():
			sub.Cancel()
			return ctx.Err()
		}
	}
}

func (c *Client) setHead(block netio.BlockMsg) {
	c.headMu.Lock()
	defer c.headMu.Unlock()
	c.head = &block
	close(c.headReady)
	c.headReady = make(chan struct{})
}

// broadcastBlock fans block out to every registered waitMessage listener.
// Listener channels are buffered (size 1) and sends are non-blocking: a
// waiter whose buffer still holds an earlier block misses this one rather
// than stalling the dispatcher.
func (c *Client) broadcastBlock(block netio.BlockMsg) {
	c.blockSubMu.Lock()
	defer c.blockSubMu.Unlock()
	for _, ch := range c.blockSubs {
		select {
		case ch <- block:
		default:
		}
	}
}

func (c *Client) registerBlockListener() chan netio.BlockMsg {
	ch := make(chan netio.BlockMsg, 1)
	c.blockSubMu.Lock()
	c.blockSubs = append(c.blockSubs, ch)
	c.blockSubMu.Unlock()
	return ch
}

func (c *Client) unregisterBlockListener(target chan netio.BlockMsg) {
	c.blockSubMu.Lock()
	defer c.blockSubMu.Unlock()
	for i, ch := range c.blockSubs {
		if ch == target {
			c.blockSubs = append(c.blockSubs[:i], c.blockSubs[i+1:]...)
			return
		}
	}
}

// Close cancels the block subscription and closes the host.
func (c *Client) Close() error {
	if c.blockSub != nil {
		c.blockSub.Cancel()
	}
	return c.Host.Close()
}
