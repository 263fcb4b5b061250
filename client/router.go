package client

import (
	"context"

	"github.com/lightfil/client/netio"
)

// BlockRouter is the pub/sub surface the orchestrator depends on: subscribe
// to gossiped blocks, publish signed messages. *netio.Router satisfies
// this; tests substitute a fake to exercise getHead/pushMessage/
// waitMessage without a live libp2p/GossipSub session.
type BlockRouter interface {
	SubscribeBlocks(ctx context.Context) (*netio.BlockSubscription, <-chan netio.BlockMsg, error)
	PublishMessage(ctx context.Context, data []byte) error
}
