package client

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/lightfil/client/address"
	"github.com/lightfil/client/message"
)

// PushMessage picks the single available key (per spec.md §9's documented
// "single-key implicit selection" resolution: a deterministic
// insertion-order-first default), fills in nonce and gas from the current
// head, signs, publishes on the message topic, and returns the signed
// message's CID.
func (c *Client) PushMessage(ctx context.Context, msg message.Message) (cid.Cid, error) {
	ki, err := c.Keys.Default()
	if err != nil {
		return cid.Undef, fmt.Errorf("client: pushMessage: %w", err)
	}
	return c.pushFrom(ctx, ki.Address, ki.PrivateKey, msg)
}

// PushMessageFrom is the explicit-address form of pushMessage: the caller
// names which imported key to sign with, per spec.md §9's alternative
// resolution of the same ambiguity.
func (c *Client) PushMessageFrom(ctx context.Context, from address.Address, msg message.Message) (cid.Cid, error) {
	ki, ok := c.Keys.Get(from)
	if !ok {
		return cid.Undef, fmt.Errorf("client: pushMessage: no key imported for %s", from)
	}
	return c.pushFrom(ctx, ki.Address, ki.PrivateKey, msg)
}

func (c *Client) pushFrom(ctx context.Context, from address.Address, priv []byte, msg message.Message) (cid.Cid, error) {
	msg.From = from
	if msg.Nonce == 0 {
		msg.Nonce = c.nextNonce(from)
	}

	head, err := c.GetHead(ctx)
	if err != nil {
		return cid.Undef, fmt.Errorf("client: pushMessage: getHead: %w", err)
	}
	msg, err = message.FillGas(msg, head.Header.ParentBaseFee)
	if err != nil {
		return cid.Undef, fmt.Errorf("client: pushMessage: fill gas: %w", err)
	}

	sm, signedCid, err := message.SignMessage(msg, priv)
	if err != nil {
		return cid.Undef, fmt.Errorf("client: pushMessage: sign: %w", err)
	}

	wire, err := message.EncodeSigned(sm)
	if err != nil {
		return cid.Undef, fmt.Errorf("client: pushMessage: encode: %w", err)
	}
	if err := c.Router.PublishMessage(ctx, wire); err != nil {
		return cid.Undef, fmt.Errorf("client: pushMessage: publish: %w", err)
	}

	return signedCid, nil
}
