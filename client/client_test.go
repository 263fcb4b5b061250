package client

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/lightfil/client/address"
	"github.com/lightfil/client/blockstore"
	"github.com/lightfil/client/cidutil"
	"github.com/lightfil/client/keystore"
	"github.com/lightfil/client/message"
	"github.com/lightfil/client/netio"
)

func fixtureHexKey(t *testing.T) string {
	t.Helper()
	priv, err := base64.StdEncoding.DecodeString("M8EkrelmXXqGwOqnSzPK19VPNo8X2ibvap2sVcF5AZtg=")
	if err != nil {
		t.Fatalf("decode fixture key: %v", err)
	}
	return hex.EncodeToString(priv)
}

type fakeRouter struct {
	published [][]byte
}

func (f *fakeRouter) SubscribeBlocks(ctx context.Context) (*netio.BlockSubscription, <-chan netio.BlockMsg, error) {
	return nil, nil, nil
}

func (f *fakeRouter) PublishMessage(_ context.Context, data []byte) error {
	f.published = append(f.published, data)
	return nil
}

func newTestClient(t *testing.T) (*Client, *fakeRouter) {
	t.Helper()
	ks := keystore.New()
	if _, err := ks.ImportHex(fixtureHexKey(t)); err != nil {
		t.Fatalf("ImportHex: %v", err)
	}
	router := &fakeRouter{}
	c := New(nil, router, blockstore.New(), ks, nil, peer.AddrInfo{})
	return c, router
}

func TestNextNonceIsStrictlyIncreasingPerSender(t *testing.T) {
	c, _ := newTestClient(t)
	addr, err := address.FromString("t01000")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}

	first := c.nextNonce(addr)
	second := c.nextNonce(addr)
	third := c.nextNonce(addr)
	if first != 0 || second != 1 || third != 2 {
		t.Fatalf("got nonces %d,%d,%d, want 0,1,2", first, second, third)
	}
}

func TestGetHeadReturnsCachedValueImmediately(t *testing.T) {
	c, _ := newTestClient(t)
	block := netio.BlockMsg{Cid: mustBuildCid(t, []byte("block-1"))}
	c.setHead(block)

	got, err := c.GetHead(context.Background())
	if err != nil {
		t.Fatalf("GetHead: %v", err)
	}
	if got.Cid != block.Cid {
		t.Fatalf("got %s, want %s", got.Cid, block.Cid)
	}
}

func TestGetHeadCancelsOnContext(t *testing.T) {
	c, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetHead(ctx)
	if err == nil {
		t.Fatalf("expected context cancellation error")
	}
}

func TestPushMessagePublishesSignedWireForm(t *testing.T) {
	c, router := newTestClient(t)
	to, err := address.FromString("t01000")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}

	head := netio.BlockMsg{}
	head.Header.ParentBaseFee = []byte{0x00, 0x01, 0x86, 0xa0}
	c.setHead(head)

	msg := message.Message{To: to, Method: 0}
	signedCid, err := c.PushMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("PushMessage: %v", err)
	}
	if signedCid.Prefix().Codec != cid.DagCBOR {
		t.Fatalf("got codec %#x, want dag-cbor", signedCid.Prefix().Codec)
	}
	if len(router.published) != 1 {
		t.Fatalf("got %d published messages, want 1", len(router.published))
	}
}

func TestPushMessageAssignsSequentialNonces(t *testing.T) {
	c, _ := newTestClient(t)
	to, err := address.FromString("t01000")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	head := netio.BlockMsg{}
	head.Header.ParentBaseFee = []byte{0x00, 0x01, 0x86, 0xa0}
	c.setHead(head)

	for i, want := range []uint64{0, 1, 2} {
		msg := message.Message{To: to, Method: 0}
		if _, err := c.PushMessage(context.Background(), msg); err != nil {
			t.Fatalf("PushMessage %d: %v", i, err)
		}
		ki, _ := c.Keys.Default()
		got := c.nonces[ki.Address.String()]
		if got != want+1 {
			t.Fatalf("call %d: got next nonce %d, want %d", i, got, want+1)
		}
	}
}

func mustBuildCid(t *testing.T, data []byte) cid.Cid {
	t.Helper()
	c, err := cidutil.BuildCID(data)
	if err != nil {
		t.Fatalf("BuildCID: %v", err)
	}
	return c
}
