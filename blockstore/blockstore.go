// Package blockstore is the content-addressed block facade every reader in
// this module (amt, hamt, client) fetches through: get(cid) and put(block)
// over a pluggable github.com/ipfs/go-datastore backend, with an optional
// bounded in-memory cache in front of it.
package blockstore

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"
	ds "github.com/ipfs/go-datastore"
	dsync "github.com/ipfs/go-datastore/sync"
	blocks "github.com/ipfs/go-block-format"
	bstore "github.com/ipfs/go-ipfs-blockstore"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lightfil/client/cidutil"
)

// ErrNotFound is returned by Get when cid is absent from the store.
var ErrNotFound = bstore.ErrNotFound

// Store is the block-store collaborator: get/put over immutable,
// CID-addressed blocks.
type Store struct {
	bs    bstore.Blockstore
	cache *lru.Cache[cid.Cid, []byte]
}

// Option configures a new Store.
type Option func(*Store)

// WithCacheSize enables a bounded LRU cache of recently fetched blocks,
// avoiding refetching the same actor-state or AMT node across repeated
// partial-state queries within a client's lifetime.
func WithCacheSize(n int) Option {
	return func(s *Store) {
		c, err := lru.New[cid.Cid, []byte](n)
		if err == nil {
			s.cache = c
		}
	}
}

// New builds a Store. With no options it wraps a synchronized in-memory
// go-datastore.MapDatastore — the default backend for a client that hasn't
// been pointed at a persistent one.
func New(opts ...Option) *Store {
	mapds := dsync.MutexWrap(ds.NewMapDatastore())
	s := &Store{bs: bstore.NewBlockstore(mapds)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewOverDatastore wraps an arbitrary go-datastore backend (on-disk, remote,
// whatever the caller provides) instead of the default in-memory one.
func NewOverDatastore(d ds.Batching, opts ...Option) *Store {
	s := &Store{bs: bstore.NewBlockstore(d)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get fetches the block addressed by c, verifying its content hash before
// returning it.
func (s *Store) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	if s.cache != nil {
		if b, ok := s.cache.Get(c); ok {
			return b, nil
		}
	}

	blk, err := s.bs.Get(ctx, c)
	if err != nil {
		if err == bstore.ErrNotFound {
			return nil, fmt.Errorf("blockstore: %s: %w", c, ErrNotFound)
		}
		return nil, fmt.Errorf("blockstore: get %s: %w", c, err)
	}
	data := blk.RawData()
	if err := cidutil.Verify(c, data); err != nil {
		return nil, fmt.Errorf("blockstore: %w", err)
	}

	if s.cache != nil {
		s.cache.Add(c, data)
	}
	return data, nil
}

// Put derives data's CID (CIDv1, dag-cbor, BLAKE2b-256) and stores it
// keyed by that CID, returning the derived value to the caller.
func (s *Store) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	c, err := cidutil.BuildCID(data)
	if err != nil {
		return cid.Undef, fmt.Errorf("blockstore: build cid: %w", err)
	}
	blk, err := blocks.NewBlockWithCid(data, c)
	if err != nil {
		return cid.Undef, fmt.Errorf("blockstore: wrap block %s: %w", c, err)
	}
	if err := s.bs.Put(ctx, blk); err != nil {
		return cid.Undef, fmt.Errorf("blockstore: put %s: %w", c, err)
	}
	if s.cache != nil {
		s.cache.Add(c, data)
	}
	return c, nil
}
