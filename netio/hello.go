package netio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/lightfil/client/codec"
)

// HelloProtocol is the handshake protocol ID: request = [tipset_cids,
// height, weight, genesis_cid], with no response payload defined on the
// wire — a peer that accepts the stream and closes its write side before
// the read deadline has acknowledged the handshake; a reset or an expired
// deadline counts as a rejection.
const HelloProtocol = protocol.ID("/fil/hello/1.0.0")

const helloStreamTimeout = 10 * time.Second

// HelloRequest is the outbound handshake payload.
type HelloRequest struct {
	TipsetCids []cid.Cid
	Height     uint64
	Weight     string // decimal weight, encoded the same way message big-nums are
	Genesis    cid.Cid
}

func encodeHelloRequest(req HelloRequest) ([]byte, error) {
	weight, err := encodeBigNumField(req.Weight)
	if err != nil {
		return nil, fmt.Errorf("netio: hello weight: %w", err)
	}
	cids := make([]codec.Value, len(req.TipsetCids))
	for i, c := range req.TipsetCids {
		cids[i] = codec.FromLink(c)
	}
	payload := codec.FromList([]codec.Value{
		codec.FromList(cids),
		codec.FromInt(int64(req.Height)),
		weight,
		codec.FromLink(req.Genesis),
	})
	return codec.Encode(payload), nil
}

// SayHello opens a Hello stream to target, sends req, and waits for the
// peer to either close its write side (accepted) or reset the stream
// (rejected) within the stream timeout.
func SayHello(ctx context.Context, h host.Host, target peer.AddrInfo, req HelloRequest) error {
	connectCtx, cancel := context.WithTimeout(ctx, helloStreamTimeout)
	defer cancel()
	if err := h.Connect(connectCtx, target); err != nil {
		return fmt.Errorf("netio: hello connect %s: %w", target.ID, err)
	}

	streamCtx, streamCancel := context.WithTimeout(ctx, helloStreamTimeout)
	defer streamCancel()
	s, err := h.NewStream(streamCtx, target.ID, HelloProtocol)
	if err != nil {
		return fmt.Errorf("netio: hello open stream %s: %w", target.ID, err)
	}
	defer s.Close()

	payload, err := encodeHelloRequest(req)
	if err != nil {
		return err
	}
	_ = s.SetWriteDeadline(time.Now().Add(helloStreamTimeout))
	if _, err := s.Write(payload); err != nil {
		return fmt.Errorf("netio: hello write %s: %w", target.ID, err)
	}
	if err := s.CloseWrite(); err != nil {
		return fmt.Errorf("netio: hello close-write %s: %w", target.ID, err)
	}

	_ = s.SetReadDeadline(time.Now().Add(helloStreamTimeout))
	_, err = io.Copy(io.Discard, s)
	if err != nil && err != io.EOF {
		return fmt.Errorf("netio: hello handshake rejected by %s: %w", target.ID, err)
	}
	return nil
}
