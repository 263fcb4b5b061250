// Package hamt implements the partial-state reader over the actor-state
// trie: a hash-array-mapped-trie walk that, given one address, fetches only
// the blocks on the path to that key.
//
// Block loading goes through an ipld-prime linking.LinkSystem — the same
// abstraction go-ipld-prime's selector/traversal engine uses — so the
// store-backed load path is the real library's, even though the trie
// descent itself (hash-bit consumption, bitmap rank, bucket resolution) is
// this package's own, matching spec's description of reifyHamt as a
// name-registered transformation over a raw decoded root.
package hamt

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/linking"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"

	"github.com/lightfil/client/cidutil"
	"github.com/lightfil/client/codec"
)

// Store fetches content-addressed blocks by CID.
type Store interface {
	Get(ctx context.Context, c cid.Cid) ([]byte, error)
}

// linkSystem builds an ipld-prime LinkSystem whose storage read opener is
// backed by store, verifying content hashes the same way the amt reader
// does after each fetch.
func linkSystem(store Store) linking.LinkSystem {
	lsys := cidlink.DefaultLinkSystem()
	lsys.TrustedStorage = false
	lsys.StorageReadOpener = func(lnkCtx linking.LinkContext, lnk datamodel.Link) (io.Reader, error) {
		cl, ok := lnk.(cidlink.Link)
		if !ok {
			return nil, fmt.Errorf("hamt: unsupported link type %T", lnk)
		}
		data, err := store.Get(lnkCtx.Ctx, cl.Cid)
		if err != nil {
			return nil, fmt.Errorf("hamt: fetch %s: %w", cl.Cid, err)
		}
		if err := cidutil.Verify(cl.Cid, data); err != nil {
			return nil, fmt.Errorf("hamt: %w", err)
		}
		return bytes.NewReader(data), nil
	}
	return lsys
}

func loadBlock(ctx context.Context, lsys linking.LinkSystem, c cid.Cid) ([]byte, error) {
	r, err := lsys.StorageReadOpener(linking.LinkContext{Ctx: ctx}, cidlink.Link{Cid: c})
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Result is a resolved partial-state lookup.
type Result struct {
	Value        codec.Value
	Found        bool
	BlocksTouched int
}

// Walk fetches only the blocks on the path to key, starting at rootCid,
// mirroring the "reify-as(HamtReifier) + explore-fields{key}" selector
// composition: one guarded reification at the root, then field access by
// the wire-form address bytes.
func Walk(ctx context.Context, rootCid cid.Cid, store Store, key []byte) (Result, error) {
	lsys := linkSystem(store)

	touched := 0
	data, err := loadBlock(ctx, lsys, rootCid)
	if err != nil {
		return Result{}, fmt.Errorf("hamt: fetch root %s: %w", rootCid, err)
	}
	touched++

	rootVal, err := codec.DecodeValue(data)
	if err != nil {
		return Result{}, fmt.Errorf("hamt: decode root: %w", err)
	}
	root, err := decodeNode(rootVal)
	if err != nil {
		return Result{}, fmt.Errorf("hamt: root node: %w", err)
	}

	hb := newHashBits(key)
	node := root

	for {
		slot, err := hb.next(DefaultBitWidth)
		if err != nil {
			return Result{}, err
		}
		if !bitSet(node.Bitmap, slot) {
			return Result{Found: false, BlocksTouched: touched}, nil
		}
		pos := rank(node.Bitmap, slot)
		entry := node.Entries[pos]

		if entry.Link == nil {
			for _, kv := range entry.Bucket {
				if bytes.Equal(kv.Key, key) {
					return Result{Value: kv.Value, Found: true, BlocksTouched: touched}, nil
				}
			}
			return Result{Found: false, BlocksTouched: touched}, nil
		}

		childData, err := loadBlock(ctx, lsys, *entry.Link)
		if err != nil {
			return Result{}, fmt.Errorf("hamt: fetch child %s: %w", *entry.Link, err)
		}
		touched++
		childVal, err := codec.DecodeValue(childData)
		if err != nil {
			return Result{}, fmt.Errorf("hamt: decode child %s: %w", *entry.Link, err)
		}
		child, err := decodeNode(childVal)
		if err != nil {
			return Result{}, fmt.Errorf("hamt: child node %s: %w", *entry.Link, err)
		}
		node = child
	}
}
