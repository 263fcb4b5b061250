package bootstrap

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// ResolvePeer parses a single "/ip4/.../tcp/.../p2p/<peerID>" multiaddr
// string into a dialable peer.AddrInfo.
func ResolvePeer(addrStr string) (peer.AddrInfo, error) {
	ma, err := multiaddr.NewMultiaddr(addrStr)
	if err != nil {
		return peer.AddrInfo{}, fmt.Errorf("bootstrap: invalid multiaddr %q: %w", addrStr, err)
	}
	ai, err := peer.AddrInfoFromP2pAddr(ma)
	if err != nil {
		return peer.AddrInfo{}, fmt.Errorf("bootstrap: cannot parse peer from %q: %w", addrStr, err)
	}
	return *ai, nil
}

// ResolvePeers parses a set of trusted-peer multiaddrs, skipping (and
// reporting) any that fail to parse rather than failing the whole set —
// a light client only needs one reachable peer to proceed.
func ResolvePeers(addrs []string) ([]peer.AddrInfo, []error) {
	var out []peer.AddrInfo
	var errs []error
	for _, a := range addrs {
		ai, err := ResolvePeer(a)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, ai)
	}
	return out, errs
}
