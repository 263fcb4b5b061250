// Package client is the orchestrator: lifecycle, nonce tracking,
// pushMessage/waitMessage/getHead, and receipt retrieval built on top of
// the amt, hamt, message, netio, and blockstore packages.
package client

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/peer"
)

// GraphExchange is the partial-state transport collaborator (spec.md §6):
// request(root_cid, selector).open(peer, extensions).drain() populates the
// block store with every block the selector matches. No graphsync library
// appears anywhere in the example corpus, so this is modeled as a plain Go
// interface the orchestrator depends on — callers supply a real graphsync
// client or a mocked one for tests. ChainExchange cannot stand in for it:
// it returns tipsets by head CID and length, not arbitrary DAG roots.
type GraphExchange interface {
	// Drain requests every block within depth hops of root from peer and
	// writes them into the backing block store before returning.
	Drain(ctx context.Context, target peer.AddrInfo, root cid.Cid, depth int) error
}
