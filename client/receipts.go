package client

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/lightfil/client/amt"
	"github.com/lightfil/client/codec"
)

// Receipt is one message's execution result: (exit_code, return_bytes,
// gas_used).
type Receipt struct {
	ExitCode  int64
	Return    []byte
	GasUsed   int64
}

func decodeReceipt(v codec.Value) (Receipt, error) {
	fields, err := v.AsList()
	if err != nil {
		return Receipt{}, fmt.Errorf("receipt: %w", err)
	}
	if len(fields) != 3 {
		return Receipt{}, fmt.Errorf("receipt: want 3 fields, got %d", len(fields))
	}
	exitCode, err := fields[0].AsInt()
	if err != nil {
		return Receipt{}, fmt.Errorf("receipt exitCode: %w", err)
	}
	ret, err := fields[1].AsBytes()
	if err != nil {
		return Receipt{}, fmt.Errorf("receipt return: %w", err)
	}
	gasUsed, err := fields[2].AsInt()
	if err != nil {
		return Receipt{}, fmt.Errorf("receipt gasUsed: %w", err)
	}
	return Receipt{ExitCode: exitCode, Return: ret, GasUsed: gasUsed}, nil
}

// fetchReceiptsDepth is the recursive exploration depth passed to the
// graph-exchange request, per spec.md §4.7: "recursive to depth 10,
// explore-all links of the AMT root."
const fetchReceiptsDepth = 10

// FetchReceipts issues a graph-exchange request against target for the
// receipts AMT rooted at root, drains it into store, then resolves each
// requested index. Absent indices are omitted from the result, not a
// failure (spec.md §4.6's AMT get contract).
func FetchReceipts(ctx context.Context, ge GraphExchange, store amt.Store, target peer.AddrInfo, root cid.Cid, idx []uint64) (map[uint64]Receipt, error) {
	if err := ge.Drain(ctx, target, root, fetchReceiptsDepth); err != nil {
		return nil, fmt.Errorf("client: fetch receipts: drain: %w", err)
	}

	a, err := amt.LoadAdt0(ctx, root, store)
	if err != nil {
		return nil, fmt.Errorf("client: fetch receipts: load amt: %w", err)
	}

	out := make(map[uint64]Receipt, len(idx))
	for _, i := range idx {
		val, ok, err := a.Get(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("client: fetch receipts: get %d: %w", i, err)
		}
		if !ok {
			continue
		}
		receipt, err := decodeReceipt(val)
		if err != nil {
			return nil, fmt.Errorf("client: fetch receipts: decode %d: %w", i, err)
		}
		out[i] = receipt
	}
	return out, nil
}
