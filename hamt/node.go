package hamt

import (
	"fmt"
	"math/bits"

	"github.com/ipfs/go-cid"

	"github.com/lightfil/client/codec"
)

// DefaultBitWidth is the bits-per-level consumed from the key hash, matching
// the bitwidth the actors HAMT is built with throughout this ecosystem.
const DefaultBitWidth = 5

// Node is one HAMT trie node: a bitmap plus its compacted entry list. Each
// set bit corresponds either to a nested child link or an inline bucket of
// key/value pairs — a hash collision at this depth puts more than one pair
// in the same bucket, same as the actors HAMT this client reads from live
// peers.
type Node struct {
	Bitmap  []byte
	Entries []Entry
}

// KV is one key/value pair inside a bucket.
type KV struct {
	Key   []byte
	Value codec.Value
}

// Entry is one compacted slot: either Link is set (descend further) or
// Bucket holds the one or more inline key/value pairs resolved at this
// level.
type Entry struct {
	Link   *cid.Cid
	Bucket []KV
}

func decodeNode(v codec.Value) (Node, error) {
	items, err := v.AsList()
	if err != nil {
		return Node{}, fmt.Errorf("hamt: node is not an array: %w", err)
	}
	if len(items) != 2 {
		return Node{}, fmt.Errorf("hamt: expected node arity 2, got %d", len(items))
	}

	bitmap, err := items[0].AsBytes()
	if err != nil {
		return Node{}, fmt.Errorf("hamt: bitmap: %w", err)
	}
	entryVals, err := items[1].AsList()
	if err != nil {
		return Node{}, fmt.Errorf("hamt: entries: %w", err)
	}

	setBits := 0
	for _, b := range bitmap {
		setBits += bits.OnesCount8(b)
	}
	if setBits != len(entryVals) {
		return Node{}, fmt.Errorf("hamt: bitmap/length mismatch: popcount=%d, entries=%d", setBits, len(entryVals))
	}

	entries := make([]Entry, len(entryVals))
	for i, ev := range entryVals {
		if ev.Kind == codec.KindLink {
			c, err := ev.AsLink()
			if err != nil {
				return Node{}, fmt.Errorf("hamt: entry %d: %w", i, err)
			}
			if c.Prefix().Codec != cid.DagCBOR {
				return Node{}, fmt.Errorf("hamt: entry %d: link codec %#x, want dag-cbor", i, c.Prefix().Codec)
			}
			entries[i] = Entry{Link: &c}
			continue
		}
		bucket, err := ev.AsList()
		if err != nil {
			return Node{}, fmt.Errorf("hamt: entry %d: expected inline bucket: %w", i, err)
		}
		kvs := make([]KV, len(bucket))
		for j, kv := range bucket {
			pair, err := kv.AsList()
			if err != nil || len(pair) != 2 {
				return Node{}, fmt.Errorf("hamt: entry %d bucket %d: expected [key, value] pair", i, j)
			}
			key, err := pair[0].AsBytes()
			if err != nil {
				return Node{}, fmt.Errorf("hamt: entry %d bucket %d key: %w", i, j, err)
			}
			kvs[j] = KV{Key: key, Value: pair[1]}
		}
		entries[i] = Entry{Bucket: kvs}
	}

	return Node{Bitmap: bitmap, Entries: entries}, nil
}

func bitSet(bitmap []byte, x uint) bool {
	byteIdx := x / 8
	if int(byteIdx) >= len(bitmap) {
		return false
	}
	return bitmap[byteIdx]&(1<<(x%8)) != 0
}

func rank(bitmap []byte, x uint) int {
	count := 0
	for i := uint(0); i < x; i++ {
		if bitSet(bitmap, i) {
			count++
		}
	}
	return count
}
