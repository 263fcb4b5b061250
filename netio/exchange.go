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

// ExchangeProtocol is the ChainExchange protocol ID.
const ExchangeProtocol = protocol.ID("/fil/chain/xchg/0.0.1")

const exchangeStreamTimeout = 10 * time.Second
const exchangeResponseLimit = 4 << 20 // bound a single response read

// Exchange request options bits.
const (
	OptIncludeHeader   uint64 = 1 << 0
	OptIncludeMessages uint64 = 1 << 1
)

// Exchange response status codes (bit-exact per protocol).
const (
	StatusOK           = 0
	StatusPartial      = 101
	StatusNotFound     = 201
	StatusGoAway       = 202
	StatusInternalErr  = 203
	StatusBadRequest   = 204
)

// TipsetBundle is one entry of an exchange response: a block header plus
// its associated message CID lists, matching BlockMsg's shape without the
// header-derived CID (the peer does not send it; the caller re-derives it
// if needed).
type TipsetBundle struct {
	Header        BlockHeader
	BlsMessages   []cid.Cid
	SecpkMessages []cid.Cid
}

// ExchangeResponse is the decoded ChainExchange response.
type ExchangeResponse struct {
	Status  int64
	Err     string
	Chain   []TipsetBundle
}

func buildExchangeRequest(head []cid.Cid, length uint64, options uint64) []byte {
	cids := make([]codec.Value, len(head))
	for i, c := range head {
		cids[i] = codec.FromLink(c)
	}
	payload := codec.FromList([]codec.Value{
		codec.FromList(cids),
		codec.FromInt(int64(length)),
		codec.FromInt(int64(options)),
	})
	return codec.Encode(payload)
}

// RequestChain opens a ChainExchange stream to target and requests length
// tipsets descending from head. A non-ok, non-partial status fails the
// call per the protocol's error contract.
func RequestChain(ctx context.Context, h host.Host, target peer.AddrInfo, head []cid.Cid, length uint64, options uint64) (ExchangeResponse, error) {
	connectCtx, cancel := context.WithTimeout(ctx, exchangeStreamTimeout)
	defer cancel()
	if err := h.Connect(connectCtx, target); err != nil {
		return ExchangeResponse{}, fmt.Errorf("netio: exchange connect %s: %w", target.ID, err)
	}

	streamCtx, streamCancel := context.WithTimeout(ctx, exchangeStreamTimeout)
	defer streamCancel()
	s, err := h.NewStream(streamCtx, target.ID, ExchangeProtocol)
	if err != nil {
		return ExchangeResponse{}, fmt.Errorf("netio: exchange open stream %s: %w", target.ID, err)
	}
	defer s.Close()

	payload := buildExchangeRequest(head, length, options)
	_ = s.SetWriteDeadline(time.Now().Add(exchangeStreamTimeout))
	if _, err := s.Write(payload); err != nil {
		return ExchangeResponse{}, fmt.Errorf("netio: exchange write %s: %w", target.ID, err)
	}
	if err := s.CloseWrite(); err != nil {
		return ExchangeResponse{}, fmt.Errorf("netio: exchange close-write %s: %w", target.ID, err)
	}

	_ = s.SetReadDeadline(time.Now().Add(exchangeStreamTimeout))
	data, err := io.ReadAll(io.LimitReader(s, exchangeResponseLimit))
	if err != nil {
		return ExchangeResponse{}, fmt.Errorf("netio: exchange read %s: %w", target.ID, err)
	}

	resp, err := decodeExchangeResponse(data)
	if err != nil {
		return ExchangeResponse{}, fmt.Errorf("netio: exchange decode %s: %w", target.ID, err)
	}
	if resp.Status != StatusOK && resp.Status != StatusPartial {
		return resp, fmt.Errorf("netio: exchange %s: status %d: %s", target.ID, resp.Status, resp.Err)
	}
	return resp, nil
}

func decodeExchangeResponse(data []byte) (ExchangeResponse, error) {
	val, err := codec.DecodeValue(data)
	if err != nil {
		return ExchangeResponse{}, err
	}
	fields, err := val.AsList()
	if err != nil {
		return ExchangeResponse{}, err
	}
	if len(fields) != 3 {
		return ExchangeResponse{}, fmt.Errorf("want 3 fields, got %d", len(fields))
	}

	status, err := fields[0].AsInt()
	if err != nil {
		return ExchangeResponse{}, fmt.Errorf("status: %w", err)
	}
	errStr := ""
	if fields[1].Kind == codec.KindText {
		errStr = fields[1].Text
	}

	bundles, err := fields[2].AsList()
	if err != nil {
		return ExchangeResponse{}, fmt.Errorf("chain: %w", err)
	}
	chain := make([]TipsetBundle, len(bundles))
	for i, b := range bundles {
		tb, err := decodeTipsetBundle(b)
		if err != nil {
			return ExchangeResponse{}, fmt.Errorf("bundle %d: %w", i, err)
		}
		chain[i] = tb
	}

	return ExchangeResponse{Status: status, Err: errStr, Chain: chain}, nil
}

func decodeTipsetBundle(v codec.Value) (TipsetBundle, error) {
	fields, err := v.AsList()
	if err != nil {
		return TipsetBundle{}, err
	}
	if len(fields) != 3 {
		return TipsetBundle{}, fmt.Errorf("want 3 fields, got %d", len(fields))
	}
	header, err := DecodeBlockHeader(fields[0])
	if err != nil {
		return TipsetBundle{}, fmt.Errorf("header: %w", err)
	}
	bls, err := decodeCidList(fields[1])
	if err != nil {
		return TipsetBundle{}, fmt.Errorf("blsMessages: %w", err)
	}
	secp, err := decodeCidList(fields[2])
	if err != nil {
		return TipsetBundle{}, fmt.Errorf("secpkMessages: %w", err)
	}
	return TipsetBundle{Header: header, BlsMessages: bls, SecpkMessages: secp}, nil
}
