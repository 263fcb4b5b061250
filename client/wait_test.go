package client

import (
	"context"
	"testing"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/lightfil/client/amt"
	"github.com/lightfil/client/blockstore"
	"github.com/lightfil/client/codec"
	"github.com/lightfil/client/netio"
)

type fakeGraphExchange struct {
	drain func(ctx context.Context, target peer.AddrInfo, root cid.Cid, depth int) error
}

func (f *fakeGraphExchange) Drain(ctx context.Context, target peer.AddrInfo, root cid.Cid, depth int) error {
	if f.drain == nil {
		return nil
	}
	return f.drain(ctx, target, root, depth)
}

// buildReceiptsAmt constructs a minimal single-leaf adt0 AMT (bitWidth=3,
// height=0) holding one receipt at index 0, and writes it into store.
func buildReceiptsAmt(t *testing.T, store *blockstore.Store, exitCode int64) cid.Cid {
	t.Helper()
	receipt := codec.FromList([]codec.Value{
		codec.FromInt(exitCode),
		codec.FromBytes(nil),
		codec.FromInt(1000),
	})
	bitmap := []byte{0x01}
	node := codec.FromList([]codec.Value{
		codec.FromBytes(bitmap),
		codec.FromList(nil),
		codec.FromList([]codec.Value{receipt}),
	})
	root := codec.FromList([]codec.Value{
		codec.FromInt(amt.DefaultBitWidth),
		codec.FromInt(0),
		codec.FromInt(1),
		node,
	})
	data := codec.Encode(root)
	c, err := store.Put(context.Background(), data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	return c
}

func TestWaitMessageResolvesReceiptAfterInclusion(t *testing.T) {
	c, _ := newTestClient(t)
	store := blockstore.New()
	c.Store = store

	receiptsRoot := buildReceiptsAmt(t, store, 0)
	c.Graph = &fakeGraphExchange{}

	targetCid := mustBuildCid(t, []byte("target-message"))

	resultCh := make(chan Receipt, 1)
	errCh := make(chan error, 1)
	go func() {
		r, err := c.WaitMessage(context.Background(), targetCid)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- r
	}()

	time.Sleep(20 * time.Millisecond) // let WaitMessage register its listener
	c.broadcastBlock(netio.BlockMsg{SecpkMessages: []cid.Cid{targetCid}})
	time.Sleep(20 * time.Millisecond)
	inclusionBlock := netio.BlockMsg{}
	inclusionBlock.Header.ParentMessageReceipts = receiptsRoot
	c.broadcastBlock(inclusionBlock)

	select {
	case r := <-resultCh:
		if r.ExitCode != 0 {
			t.Fatalf("got exit code %d, want 0", r.ExitCode)
		}
	case err := <-errCh:
		t.Fatalf("WaitMessage failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("WaitMessage did not resolve in time")
	}
}

func TestWaitMessageFailsAfterInclusionHorizon(t *testing.T) {
	c, _ := newTestClient(t)
	targetCid := mustBuildCid(t, []byte("never-included"))

	errCh := make(chan error, 1)
	go func() {
		_, err := c.WaitMessage(context.Background(), targetCid)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	for i := 0; i < inclusionHorizon+1; i++ {
		c.broadcastBlock(netio.BlockMsg{})
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatalf("expected not-included error")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("WaitMessage did not fail in time")
	}
}
