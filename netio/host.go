// Package netio is the network collaborator: libp2p host construction, the
// Hello and ChainExchange stream protocols, and GossipSub topic binding for
// the block/message topics. The core client never originates transport
// negotiation itself — everything here is a thin, real-protocol client the
// orchestrator in package client calls into.
package netio

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
)

// NewHost creates a single libp2p host with a fresh identity, listening on
// listenAddr (an ephemeral TCP port on all interfaces when listenAddr is
// empty). A light client needs exactly one long-lived host,
// unlike a test harness that rotates identities to dodge peer scoring.
func NewHost(listenAddr string) (host.Host, error) {
	priv, _, err := crypto.GenerateKeyPairWithReader(crypto.Ed25519, 0, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("netio: generate host identity: %w", err)
	}
	if listenAddr == "" {
		listenAddr = "/ip4/0.0.0.0/tcp/0"
	}

	h, err := libp2p.New(
		libp2p.Identity(priv),
		libp2p.ListenAddrStrings(listenAddr),
		libp2p.DisableRelay(),
		libp2p.ResourceManager(&network.NullResourceManager{}),
	)
	if err != nil {
		return nil, fmt.Errorf("netio: create host: %w", err)
	}
	return h, nil
}

// Connect dials target, matching the connect step the Hello/ChainExchange
// clients perform before opening a stream.
func Connect(ctx context.Context, h host.Host, target peer.AddrInfo) error {
	if err := h.Connect(ctx, target); err != nil {
		return fmt.Errorf("netio: connect %s: %w", target.ID, err)
	}
	return nil
}
