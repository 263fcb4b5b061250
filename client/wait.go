package client

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/lightfil/client/netio"
)

// inclusionHorizon is the soft block count waitMessage tolerates before
// giving up (spec.md §5, §4.7).
const inclusionHorizon = 6

// WaitMessage implements the waitMessage state machine (spec.md §4.7):
// scan incoming blocks for target's secp message CID; on a hit, wait one
// more block, then fetch the matching receipt from that block's parent
// receipts AMT. Honors ctx cancellation at every suspension point.
func (c *Client) WaitMessage(ctx context.Context, target cid.Cid) (Receipt, error) {
	ch := c.registerBlockListener()
	defer c.unregisterBlockListener(ch)

	blockCount := 0
	var hitIndex uint64
	awaitingReceipts := false

	for {
		select {
		case block := <-ch:
			if !awaitingReceipts {
				blockCount++
				if k, found := scanForCid(block.SecpkMessages, target); found {
					hitIndex = k
					awaitingReceipts = true
					continue
				}
				if blockCount > inclusionHorizon {
					return Receipt{}, fmt.Errorf("client: waitMessage: not included on chain")
				}
				continue
			}

			receipts, err := FetchReceipts(ctx, c.Graph, c.Store, c.Peer, block.Header.ParentMessageReceipts, []uint64{hitIndex})
			if err != nil {
				return Receipt{}, fmt.Errorf("client: waitMessage: fetch receipts: %w", err)
			}
			receipt, ok := receipts[hitIndex]
			if !ok {
				return Receipt{}, fmt.Errorf("client: waitMessage: receipt absent at index %d", hitIndex)
			}
			return receipt, nil

		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		}
	}
}

func scanForCid(list []cid.Cid, target cid.Cid) (uint64, bool) {
	for i, c := range list {
		if c == target {
			return uint64(i), true
		}
	}
	return 0, false
}
