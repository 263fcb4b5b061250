package client

import (
	"context"
	"math/big"
	"testing"

	"github.com/lightfil/client/address"
	"github.com/lightfil/client/blockstore"
	"github.com/lightfil/client/codec"
)

func TestDecodeBalanceZeroAndNonZero(t *testing.T) {
	zero, err := decodeBalance(nil)
	if err != nil || zero.Sign() != 0 {
		t.Fatalf("got %v err %v, want 0", zero, err)
	}

	nonZero, err := decodeBalance([]byte{0x00, 0x01, 0x00})
	if err != nil {
		t.Fatalf("decodeBalance: %v", err)
	}
	if nonZero.Cmp(big.NewInt(256)) != 0 {
		t.Fatalf("got %v, want 256", nonZero)
	}
}

func TestGetActorStateMissingKeyReturnsNotFound(t *testing.T) {
	c, _ := newTestClient(t)
	store := blockstore.New()
	c.Store = store

	// An empty-bitmap root has every slot unset, so any key is absent
	// regardless of its hash bits.
	root := codec.FromList([]codec.Value{
		codec.FromBytes(make([]byte, 4)),
		codec.FromList(nil),
	})
	rootCid, err := store.Put(context.Background(), codec.Encode(root))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	addr, err := address.FromString("t01000")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}

	_, found, err := c.GetActorState(context.Background(), rootCid, addr)
	if err != nil {
		t.Fatalf("GetActorState: %v", err)
	}
	if found {
		t.Fatalf("expected not-found for empty-bitmap root")
	}
}
