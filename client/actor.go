package client

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ipfs/go-cid"

	"github.com/lightfil/client/address"
	"github.com/lightfil/client/hamt"
)

// ActorState is the leaf record the actor-state HAMT maps each address to:
// (code_cid, head_cid, call_seq_num, balance).
type ActorState struct {
	Code       cid.Cid
	Head       cid.Cid
	CallSeqNum uint64
	Balance    *big.Int
}

// GetActorState runs the partial-state selector (spec.md §4.6): a HAMT
// walk from stateRoot to the single leaf keyed by addr's wire-form bytes,
// fetching only the blocks on that path.
func (c *Client) GetActorState(ctx context.Context, stateRoot cid.Cid, addr address.Address) (ActorState, bool, error) {
	key := address.ToBytes(addr)
	res, err := hamt.Walk(ctx, stateRoot, c.Store, key)
	if err != nil {
		return ActorState{}, false, fmt.Errorf("client: getActorState: %w", err)
	}
	if !res.Found {
		return ActorState{}, false, nil
	}

	fields, err := res.Value.AsList()
	if err != nil {
		return ActorState{}, false, fmt.Errorf("client: getActorState: leaf: %w", err)
	}
	if len(fields) != 4 {
		return ActorState{}, false, fmt.Errorf("client: getActorState: want 4 leaf fields, got %d", len(fields))
	}

	code, err := fields[0].AsLink()
	if err != nil {
		return ActorState{}, false, fmt.Errorf("client: getActorState: code: %w", err)
	}
	head, err := fields[1].AsLink()
	if err != nil {
		return ActorState{}, false, fmt.Errorf("client: getActorState: head: %w", err)
	}
	callSeqNum, err := fields[2].AsInt()
	if err != nil {
		return ActorState{}, false, fmt.Errorf("client: getActorState: callSeqNum: %w", err)
	}
	balanceRaw, err := fields[3].AsBytes()
	if err != nil {
		return ActorState{}, false, fmt.Errorf("client: getActorState: balance: %w", err)
	}
	balance, err := decodeBalance(balanceRaw)
	if err != nil {
		return ActorState{}, false, fmt.Errorf("client: getActorState: balance: %w", err)
	}

	return ActorState{
		Code:       code,
		Head:       head,
		CallSeqNum: uint64(callSeqNum),
		Balance:    balance,
	}, true, nil
}

// decodeBalance parses the (0x00 ‖ magnitude) big-num convention shared
// with the message codec's value/gasFeeCap/gasPremium fields.
func decodeBalance(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return big.NewInt(0), nil
	}
	if b[0] != 0x00 {
		return nil, fmt.Errorf("unsupported sign byte %#x", b[0])
	}
	return new(big.Int).SetBytes(b[1:]), nil
}
