package netio

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/lightfil/client/cidutil"
	"github.com/lightfil/client/codec"
)

// headerArity is the number of fields in the wire BlockHeader array. Only a
// handful are meaningful to a light client; the rest pass through opaquely
// as decoded Values so re-encoding for CID derivation stays bit-exact.
const headerArity = 16

const (
	fieldParents = iota
	fieldHeight
	fieldParentStateRoot
	fieldParentMessageReceipts
	fieldMessages
	fieldParentBaseFee
)

// BlockHeader holds the fields the client cares about, plus the full
// decoded field list so the header can be re-encoded identically for CID
// derivation.
type BlockHeader struct {
	Parents               []cid.Cid
	Height                uint64
	ParentStateRoot       cid.Cid
	ParentMessageReceipts cid.Cid
	Messages              cid.Cid
	ParentBaseFee         []byte

	fields []codec.Value // raw decoded fields, in wire order
}

// DecodeBlockHeader parses a 16-field BlockHeader array.
func DecodeBlockHeader(v codec.Value) (BlockHeader, error) {
	fields, err := v.AsList()
	if err != nil {
		return BlockHeader{}, fmt.Errorf("netio: block header: %w", err)
	}
	if len(fields) != headerArity {
		return BlockHeader{}, fmt.Errorf("netio: block header: want %d fields, got %d", headerArity, len(fields))
	}

	parentsList, err := fields[fieldParents].AsList()
	if err != nil {
		return BlockHeader{}, fmt.Errorf("netio: block header parents: %w", err)
	}
	parents := make([]cid.Cid, len(parentsList))
	for i, p := range parentsList {
		c, err := p.AsLink()
		if err != nil {
			return BlockHeader{}, fmt.Errorf("netio: block header parent %d: %w", i, err)
		}
		parents[i] = c
	}

	height, err := fields[fieldHeight].AsInt()
	if err != nil {
		return BlockHeader{}, fmt.Errorf("netio: block header height: %w", err)
	}
	stateRoot, err := fields[fieldParentStateRoot].AsLink()
	if err != nil {
		return BlockHeader{}, fmt.Errorf("netio: block header parentStateRoot: %w", err)
	}
	receipts, err := fields[fieldParentMessageReceipts].AsLink()
	if err != nil {
		return BlockHeader{}, fmt.Errorf("netio: block header parentMessageReceipts: %w", err)
	}
	messages, err := fields[fieldMessages].AsLink()
	if err != nil {
		return BlockHeader{}, fmt.Errorf("netio: block header messages: %w", err)
	}
	baseFee, err := fields[fieldParentBaseFee].AsBytes()
	if err != nil {
		return BlockHeader{}, fmt.Errorf("netio: block header parentBaseFee: %w", err)
	}

	return BlockHeader{
		Parents:               parents,
		Height:                uint64(height),
		ParentStateRoot:       stateRoot,
		ParentMessageReceipts: receipts,
		Messages:              messages,
		ParentBaseFee:         baseFee,
		fields:                fields,
	}, nil
}

// Encode re-encodes the header array exactly as decoded, field for field.
func (h BlockHeader) Encode() []byte {
	return codec.Encode(codec.FromList(h.fields))
}

// BlockMsg is a gossiped block: header plus the two message-CID lists. Its
// CID is derived from the header alone, not the whole BlockMsg — the gossip
// envelope carries more than the block itself identifies.
type BlockMsg struct {
	Header         BlockHeader
	BlsMessages    []cid.Cid
	SecpkMessages  []cid.Cid
	Cid            cid.Cid
}

// DecodeBlockMsg parses a gossiped block payload: (header, blsMessages,
// secpkMessages), and derives the block's CID by re-hashing the header.
func DecodeBlockMsg(data []byte) (BlockMsg, error) {
	val, err := codec.DecodeValue(data)
	if err != nil {
		return BlockMsg{}, fmt.Errorf("netio: decode block message: %w", err)
	}
	fields, err := val.AsList()
	if err != nil {
		return BlockMsg{}, fmt.Errorf("netio: block message: %w", err)
	}
	if len(fields) != 3 {
		return BlockMsg{}, fmt.Errorf("netio: block message: want 3 fields, got %d", len(fields))
	}

	header, err := DecodeBlockHeader(fields[0])
	if err != nil {
		return BlockMsg{}, err
	}

	bls, err := decodeCidList(fields[1])
	if err != nil {
		return BlockMsg{}, fmt.Errorf("netio: block message blsMessages: %w", err)
	}
	secp, err := decodeCidList(fields[2])
	if err != nil {
		return BlockMsg{}, fmt.Errorf("netio: block message secpkMessages: %w", err)
	}

	c, err := cidutil.BuildCID(header.Encode())
	if err != nil {
		return BlockMsg{}, fmt.Errorf("netio: derive block cid: %w", err)
	}

	return BlockMsg{
		Header:        header,
		BlsMessages:   bls,
		SecpkMessages: secp,
		Cid:           c,
	}, nil
}

func decodeCidList(v codec.Value) ([]cid.Cid, error) {
	items, err := v.AsList()
	if err != nil {
		return nil, err
	}
	out := make([]cid.Cid, len(items))
	for i, it := range items {
		c, err := it.AsLink()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}
