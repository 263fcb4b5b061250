package netio

import (
	"context"
	"fmt"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
)

// ScoreParams bundles the tunable knobs the topic binding must expose per
// the pub/sub contract: block/message topic weight, a score cap, behaviour
// penalty decay, and the gossip threshold below which peers are ignored.
type ScoreParams struct {
	BlockTopicWeight      float64
	MessageTopicWeight    float64
	TopicScoreCap         float64
	BehaviourPenaltyDecay float64
	GossipThreshold       float64
}

// DefaultScoreParams are conservative defaults; callers may override any
// field before passing to NewRouter.
func DefaultScoreParams() ScoreParams {
	return ScoreParams{
		BlockTopicWeight:      10,
		MessageTopicWeight:    1,
		TopicScoreCap:         100,
		BehaviourPenaltyDecay: 0.2,
		GossipThreshold:       -500,
	}
}

// Router owns the GossipSub instance for one network and its two bound
// topics: blocks and messages.
type Router struct {
	ps           *pubsub.PubSub
	blocksTopic  *pubsub.Topic
	msgsTopic    *pubsub.Topic
}

// BlocksTopicName and MsgsTopicName compute the per-network topic strings.
func BlocksTopicName(networkName string) string { return "/fil/blocks/" + networkName }
func MsgsTopicName(networkName string) string    { return "/fil/msgs/" + networkName }

// NewRouter constructs a GossipSub router scoped to networkName and joins
// both its block and message topics.
func NewRouter(ctx context.Context, h host.Host, networkName string, score ScoreParams) (*Router, error) {
	params := &pubsub.PeerScoreParams{
		Topics: map[string]*pubsub.TopicScoreParams{
			BlocksTopicName(networkName): {
				TopicWeight:                    score.BlockTopicWeight,
				FirstMessageDeliveriesWeight:   1,
				FirstMessageDeliveriesCap:      50,
				FirstMessageDeliveriesDecay:    pubsub.ScoreParameterDecay(time.Hour),
			},
			MsgsTopicName(networkName): {
				TopicWeight:                  score.MessageTopicWeight,
				FirstMessageDeliveriesWeight: 1,
				FirstMessageDeliveriesCap:    50,
				FirstMessageDeliveriesDecay:  pubsub.ScoreParameterDecay(time.Hour),
			},
		},
		TopicScoreCap:        score.TopicScoreCap,
		BehaviourPenaltyDecay: pubsub.ScoreParameterDecay(time.Duration(score.BehaviourPenaltyDecay * float64(time.Hour))),
		DecayInterval:         time.Second,
		DecayToZero:           0.01,
		AppSpecificScore:      func(peer.ID) float64 { return 0 },
	}
	thresholds := &pubsub.PeerScoreThresholds{
		GossipThreshold:   score.GossipThreshold,
		PublishThreshold:  score.GossipThreshold * 2,
		GraylistThreshold: score.GossipThreshold * 4,
	}

	ps, err := pubsub.NewGossipSub(ctx, h,
		pubsub.WithPeerScore(params, thresholds),
		pubsub.WithFloodPublish(true),
	)
	if err != nil {
		return nil, fmt.Errorf("netio: new gossipsub: %w", err)
	}

	blocksTopic, err := ps.Join(BlocksTopicName(networkName))
	if err != nil {
		return nil, fmt.Errorf("netio: join blocks topic: %w", err)
	}
	msgsTopic, err := ps.Join(MsgsTopicName(networkName))
	if err != nil {
		return nil, fmt.Errorf("netio: join msgs topic: %w", err)
	}

	return &Router{ps: ps, blocksTopic: blocksTopic, msgsTopic: msgsTopic}, nil
}

// BlockSubscription is a cancellable handle delivering decoded blocks, per
// the design note modeling event-emitter subscriptions as an explicit
// handle instead of a retained callback reference.
type BlockSubscription struct {
	sub    *pubsub.Subscription
	cancel context.CancelFunc
}

// SubscribeBlocks subscribes to the block topic and decodes each message
// as a BlockMsg, delivering it on the returned channel until the
// subscription is cancelled.
func (r *Router) SubscribeBlocks(ctx context.Context) (*BlockSubscription, <-chan BlockMsg, error) {
	sub, err := r.blocksTopic.Subscribe()
	if err != nil {
		return nil, nil, fmt.Errorf("netio: subscribe blocks: %w", err)
	}
	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan BlockMsg)

	go func() {
		defer close(out)
		for {
			msg, err := sub.Next(subCtx)
			if err != nil {
				return
			}
			block, err := DecodeBlockMsg(msg.Data)
			if err != nil {
				continue
			}
			select {
			case out <- block:
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &BlockSubscription{sub: sub, cancel: cancel}, out, nil
}

// Cancel detaches the subscription; the block channel is closed shortly
// after.
func (s *BlockSubscription) Cancel() {
	s.cancel()
	s.sub.Cancel()
}

// PublishMessage publishes an already-encoded signed message on the
// message topic.
func (r *Router) PublishMessage(ctx context.Context, data []byte) error {
	if err := r.msgsTopic.Publish(ctx, data); err != nil {
		return fmt.Errorf("netio: publish message: %w", err)
	}
	return nil
}
