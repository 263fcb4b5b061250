// Package amt implements the array-mapped-trie reader used for sparse
// indexed collections (receipts, included-message indices): lazy,
// content-verified block fetches, ascending iteration, and the
// bitmap/links/values leaf-vs-internal invariant.
package amt

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/ipfs/go-cid"

	"github.com/lightfil/client/cidutil"
	"github.com/lightfil/client/codec"
)

// DefaultBitWidth is the fixed-bitwidth variant's width (loadAdt0), matching
// the bitWidth most Filecoin AMT roots are built with.
const DefaultBitWidth = 3

// Store fetches content-addressed blocks by CID. Any block-store facade
// satisfies this without an explicit dependency on that package.
type Store interface {
	Get(ctx context.Context, c cid.Cid) ([]byte, error)
}

// Node is one AMT trie node: exactly one of Links or Values is non-empty.
type Node struct {
	Bitmap []byte
	Links  []cid.Cid
	Values []codec.Value
}

// AMT is a loaded root plus the store it lazily fetches child nodes from.
type AMT struct {
	BitWidth uint64
	Height   uint64
	Count    uint64
	root     Node
	store    Store
}

// Load decodes the root block at rootCid and returns a traversable AMT.
func Load(ctx context.Context, rootCid cid.Cid, store Store) (*AMT, error) {
	data, err := store.Get(ctx, rootCid)
	if err != nil {
		return nil, fmt.Errorf("amt: fetch root %s: %w", rootCid, err)
	}
	if err := cidutil.Verify(rootCid, data); err != nil {
		return nil, fmt.Errorf("amt: root %w", err)
	}
	return decodeRoot(data, store)
}

// LoadAdt0 loads the fixed-bitwidth (bitWidth=3) variant, the shape used
// throughout receipts/message-index AMTs.
func LoadAdt0(ctx context.Context, rootCid cid.Cid, store Store) (*AMT, error) {
	a, err := Load(ctx, rootCid, store)
	if err != nil {
		return nil, err
	}
	if a.BitWidth != DefaultBitWidth {
		return nil, fmt.Errorf("amt: expected bitWidth %d, got %d", DefaultBitWidth, a.BitWidth)
	}
	return a, nil
}

func decodeRoot(data []byte, store Store) (*AMT, error) {
	v, err := codec.DecodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("amt: decode root: %w", err)
	}
	items, err := v.AsList()
	if err != nil {
		return nil, fmt.Errorf("amt: root is not an array: %w", err)
	}
	if len(items) != 4 {
		return nil, fmt.Errorf("amt: expected root arity 4, got %d", len(items))
	}

	bitWidth, err := items[0].AsInt()
	if err != nil {
		return nil, fmt.Errorf("amt: bitWidth: %w", err)
	}
	height, err := items[1].AsInt()
	if err != nil {
		return nil, fmt.Errorf("amt: height: %w", err)
	}
	count, err := items[2].AsInt()
	if err != nil {
		return nil, fmt.Errorf("amt: count: %w", err)
	}
	node, err := decodeNode(items[3])
	if err != nil {
		return nil, fmt.Errorf("amt: root node: %w", err)
	}
	if height > 0 && len(node.Links) == 0 {
		return nil, fmt.Errorf("amt: root declares height %d but node is a leaf", height)
	}

	return &AMT{
		BitWidth: uint64(bitWidth),
		Height:   uint64(height),
		Count:    uint64(count),
		root:     node,
		store:    store,
	}, nil
}

func decodeNode(v codec.Value) (Node, error) {
	items, err := v.AsList()
	if err != nil {
		return Node{}, fmt.Errorf("node is not an array: %w", err)
	}
	if len(items) != 3 {
		return Node{}, fmt.Errorf("expected node arity 3, got %d", len(items))
	}

	bitmap, err := items[0].AsBytes()
	if err != nil {
		return Node{}, fmt.Errorf("bitmap: %w", err)
	}
	linkVals, err := items[1].AsList()
	if err != nil {
		return Node{}, fmt.Errorf("links: %w", err)
	}
	valueVals, err := items[2].AsList()
	if err != nil {
		return Node{}, fmt.Errorf("values: %w", err)
	}

	if len(linkVals) != 0 && len(valueVals) != 0 {
		return Node{}, fmt.Errorf("node cannot be both leaf and non-leaf")
	}

	links := make([]cid.Cid, len(linkVals))
	for i, lv := range linkVals {
		c, err := lv.AsLink()
		if err != nil {
			return Node{}, fmt.Errorf("link %d: %w", i, err)
		}
		if c.Prefix().Codec != cid.DagCBOR {
			return Node{}, fmt.Errorf("link %d: codec %#x, want dag-cbor", i, c.Prefix().Codec)
		}
		links[i] = c
	}

	setBits := popcountBytes(bitmap)
	if setBits != len(linkVals)+len(valueVals) {
		return Node{}, fmt.Errorf("bitmap/length mismatch: popcount=%d, entries=%d", setBits, len(linkVals)+len(valueVals))
	}

	return Node{Bitmap: bitmap, Links: links, Values: valueVals}, nil
}

// Get returns the value at index i, or ok=false if i is absent.
func (a *AMT) Get(ctx context.Context, i uint64) (codec.Value, bool, error) {
	width := uint64(1) << a.BitWidth
	bound := pow(width, a.Height+1)
	if i >= bound {
		return codec.Value{}, false, nil
	}
	return a.getNode(ctx, a.root, a.Height, i)
}

func (a *AMT) getNode(ctx context.Context, n Node, height uint64, i uint64) (codec.Value, bool, error) {
	width := uint64(1) << a.BitWidth

	if height == 0 {
		if !bitSet(n.Bitmap, uint(i)) {
			return codec.Value{}, false, nil
		}
		pos := rank(n.Bitmap, uint(i))
		return n.Values[pos], true, nil
	}

	span := pow(width, height)
	child := i / span
	rem := i % span

	if !bitSet(n.Bitmap, uint(child)) {
		return codec.Value{}, false, nil
	}
	pos := rank(n.Bitmap, uint(child))
	link := n.Links[pos]

	data, err := a.store.Get(ctx, link)
	if err != nil {
		return codec.Value{}, false, fmt.Errorf("amt: fetch child %s: %w", link, err)
	}
	if err := cidutil.Verify(link, data); err != nil {
		return codec.Value{}, false, fmt.Errorf("amt: child %w", err)
	}
	v, err := codec.DecodeValue(data)
	if err != nil {
		return codec.Value{}, false, fmt.Errorf("amt: decode child %s: %w", link, err)
	}
	childNode, err := decodeNode(v)
	if err != nil {
		return codec.Value{}, false, fmt.Errorf("amt: child node %s: %w", link, err)
	}

	return a.getNode(ctx, childNode, height-1, rem)
}

// Entry is one (index, value) pair yielded by iteration.
type Entry struct {
	Index uint64
	Value codec.Value
}

// Each walks the AMT in ascending index order, lazily fetching child
// blocks as needed.
func (a *AMT) Each(ctx context.Context, fn func(Entry) error) error {
	width := uint64(1) << a.BitWidth
	return a.eachNode(ctx, a.root, a.Height, 0, width, fn)
}

func (a *AMT) eachNode(ctx context.Context, n Node, height uint64, offset uint64, width uint64, fn func(Entry) error) error {
	if height == 0 {
		for x := 0; x < int(width); x++ {
			if !bitSet(n.Bitmap, uint(x)) {
				continue
			}
			pos := rank(n.Bitmap, uint(x))
			if err := fn(Entry{Index: offset + uint64(x), Value: n.Values[pos]}); err != nil {
				return err
			}
		}
		return nil
	}

	span := pow(width, height)
	for x := 0; x < int(width); x++ {
		if !bitSet(n.Bitmap, uint(x)) {
			continue
		}
		pos := rank(n.Bitmap, uint(x))
		link := n.Links[pos]

		data, err := a.store.Get(ctx, link)
		if err != nil {
			return fmt.Errorf("amt: fetch child %s: %w", link, err)
		}
		if err := cidutil.Verify(link, data); err != nil {
			return fmt.Errorf("amt: child %w", err)
		}
		v, err := codec.DecodeValue(data)
		if err != nil {
			return fmt.Errorf("amt: decode child %s: %w", link, err)
		}
		childNode, err := decodeNode(v)
		if err != nil {
			return fmt.Errorf("amt: child node %s: %w", link, err)
		}

		childOffset := offset + uint64(x)*span
		if err := a.eachNode(ctx, childNode, height-1, childOffset, width, fn); err != nil {
			return err
		}
	}
	return nil
}

func bitSet(bitmap []byte, x uint) bool {
	byteIdx := x / 8
	if int(byteIdx) >= len(bitmap) {
		return false
	}
	return bitmap[byteIdx]&(1<<(x%8)) != 0
}

// rank counts set bits at positions < x (the compacted-array position of
// the element at slot x).
func rank(bitmap []byte, x uint) int {
	count := 0
	for i := uint(0); i < x; i++ {
		if bitSet(bitmap, i) {
			count++
		}
	}
	return count
}

func popcountBytes(b []byte) int {
	n := 0
	for _, x := range b {
		n += bits.OnesCount8(x)
	}
	return n
}

func pow(base, exp uint64) uint64 {
	r := uint64(1)
	for i := uint64(0); i < exp; i++ {
		r *= base
	}
	return r
}
