// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

// Package lsmstore implements the ledgerstore.Store contract over a
// single pebble LSM database directory. Every ledgerstore.Table is
// multiplexed into the same key space behind a one-byte table prefix,
// following the key-prefix convention of a generic key-value schema.
package lsmstore

import (
	"context"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"golang.org/x/sync/errgroup"

	"github.com/blocklattice/ledger/ledger/ledgerstore"
	"github.com/blocklattice/ledger/logging"
)

const (
	defaultCacheSize     = 64 << 20  // 64 MiB block cache
	defaultMemTableSize  = 16 << 20  // 16 MiB memtable before flush
	defaultMemTableCount = 2
)

var tablePrefixes = map[ledgerstore.Table]byte{
	ledgerstore.TableAccounts:           0x01,
	ledgerstore.TableBlocks:             0x02,
	ledgerstore.TablePending:            0x03,
	ledgerstore.TablePruned:             0x04,
	ledgerstore.TableConfirmationHeight: 0x05,
	ledgerstore.TableRepWeights:         0x06,
	ledgerstore.TableFinalVotes:         0x07,
	ledgerstore.TablePeers:              0x08,
	ledgerstore.TableOnlineWeight:       0x09,
	ledgerstore.TableVersion:            0x0A,
}

// Store is the pebble-backed ledgerstore.Store implementation.
type Store struct {
	db    *pebble.DB
	cache *pebble.Cache
	log   logging.Logger
}

// Open creates or opens the pebble database directory at dbdir. inMem
// selects pebble's in-memory virtual filesystem, used by tests. proto is
// reserved for a future on-disk format tag and currently unused.
func Open(dbdir string, inMem bool, proto uint32, log logging.Logger) (*Store, error) {
	cache := pebble.NewCache(defaultCacheSize)
	opts := &pebble.Options{
		Cache:                       cache,
		MemTableSize:                defaultMemTableSize,
		MemTableStopWritesThreshold: defaultMemTableCount,
	}
	if inMem {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dbdir, opts)
	if err != nil {
		cache.Unref()
		return nil, fmt.Errorf("%w: opening pebble dir %s: %v", ledgerstore.ErrIoErr, dbdir, err)
	}
	return &Store{db: db, cache: cache, log: log}, nil
}

// Backend implements ledgerstore.Store.
func (s *Store) Backend() ledgerstore.Backend { return ledgerstore.BackendLSM }

// BeginRead implements ledgerstore.Store.
func (s *Store) BeginRead(ctx context.Context) (ledgerstore.Txn, error) {
	snap := s.db.NewSnapshot()
	return &txn{snapshot: snap, writable: false}, nil
}

// BeginWrite implements ledgerstore.Store.
func (s *Store) BeginWrite(ctx context.Context) (ledgerstore.Txn, error) {
	batch := s.db.NewIndexedBatch()
	return &txn{batch: batch, writable: true, store: s}, nil
}

// ForEachParallel implements ledgerstore.Store: shardCount (capped at
// 256) goroutines each open their own read transaction and call fn with
// their shard index. Keys are not split by shard; table is not consulted.
func (s *Store) ForEachParallel(ctx context.Context, table ledgerstore.Table, shardCount int, fn ledgerstore.ShardFunc) error {
	if shardCount < 1 {
		return fmt.Errorf("ledgerstore: shardCount must be >= 1, got %d", shardCount)
	}
	if shardCount > 256 {
		shardCount = 256
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < shardCount; i++ {
		i := i
		g.Go(func() error {
			rtxn, err := s.BeginRead(ctx)
			if err != nil {
				return err
			}
			defer rtxn.Abort()
			return fn(ctx, rtxn, i, shardCount)
		})
	}
	return g.Wait()
}

// Close implements ledgerstore.Store.
func (s *Store) Close() error {
	err := s.db.Close()
	s.cache.Unref()
	if err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return nil
}

func tablePrefix(t ledgerstore.Table) (byte, error) {
	p, ok := tablePrefixes[t]
	if !ok {
		return 0, fmt.Errorf("ledgerstore: unknown table %q", t)
	}
	return p, nil
}

func prefixedKey(prefix byte, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = prefix
	copy(out[1:], key)
	return out
}

// prefixUpperBound returns the smallest key strictly greater than every
// key starting with prefix, for use as a pebble iterator's UpperBound.
func prefixUpperBound(prefix byte) []byte {
	if prefix == 0xFF {
		return nil // no finite upper bound; caller must rely on table re-check
	}
	return []byte{prefix + 1}
}
