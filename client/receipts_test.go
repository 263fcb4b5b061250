package client

import (
	"context"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/lightfil/client/blockstore"
)

func TestFetchReceiptsDrainsThenResolvesIndex(t *testing.T) {
	store := blockstore.New()
	root := buildReceiptsAmt(t, store, 7)

	drained := false
	ge := &fakeGraphExchange{
		drain: func(ctx context.Context, target peer.AddrInfo, gotRoot cid.Cid, depth int) error {
			drained = true
			if gotRoot != root {
				t.Fatalf("drain got root %s, want %s", gotRoot, root)
			}
			if depth != fetchReceiptsDepth {
				t.Fatalf("got depth %d, want %d", depth, fetchReceiptsDepth)
			}
			return nil
		},
	}

	receipts, err := FetchReceipts(context.Background(), ge, store, peer.AddrInfo{}, root, []uint64{0, 5})
	if err != nil {
		t.Fatalf("FetchReceipts: %v", err)
	}
	if !drained {
		t.Fatalf("expected Drain to be called")
	}
	r, ok := receipts[0]
	if !ok || r.ExitCode != 7 {
		t.Fatalf("got %+v ok=%v, want exitCode 7 at index 0", r, ok)
	}
	if _, ok := receipts[5]; ok {
		t.Fatalf("expected index 5 to be absent, not a failure")
	}
}
