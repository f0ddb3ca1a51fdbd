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

// Package ledgerstore defines the backend-agnostic store contract that the
// ledger processor, rollback engine, and cementation engine are all built
// against: typed tables, ordered iteration, and refreshable
// read/write transactions. Two concrete backends implement it,
// ledgerstore/btreestore (memory-mapped B-tree, over sqlite3) and
// ledgerstore/lsmstore (LSM, over pebble).
package ledgerstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value exists for a key. It is
// not fatal; callers branch on it explicitly.
var ErrNotFound = errors.New("ledgerstore: not found")

// ErrIoErr wraps any backend failure other than ErrNotFound. Per spec,
// these are fatal to the calling operation after logging.
var ErrIoErr = errors.New("ledgerstore: io error")

// Table names the ten typed tables every backend must expose.
type Table string

// Table values, matching spec §3's persistent table list.
const (
	TableAccounts           Table = "accounts"
	TableBlocks             Table = "blocks"
	TablePending            Table = "pending"
	TablePruned             Table = "pruned"
	TableConfirmationHeight Table = "confirmation_height"
	TableRepWeights         Table = "rep_weights"
	TableFinalVotes         Table = "final_votes"
	TablePeers              Table = "peers"
	TableOnlineWeight       Table = "online_weight"
	TableVersion            Table = "version"
)

// AllTables lists every table a backend must create on Open.
var AllTables = []Table{
	TableAccounts, TableBlocks, TablePending, TablePruned,
	TableConfirmationHeight, TableRepWeights, TableFinalVotes,
	TablePeers, TableOnlineWeight, TableVersion,
}

// Backend identifies which concrete store implementation is behind a
// Store, used only by assertions and migration source/target checks —
// never for branching logic in the processor, rollback, or cementation
// engines, which are written entirely against this interface.
type Backend string

// Backend values, matching config.DatabaseBackend.
const (
	BackendBtreeMmap Backend = "btree_mmap"
	BackendLSM       Backend = "lsm"
)

// KV is a single typed table's get/put/delete/iterate surface. Every key
// and value is an opaque byte span; callers encode/decode via
// ledger/blocktype.
type KV interface {
	// Get looks up key, returning ErrNotFound if absent.
	Get(key []byte) ([]byte, error)
	// Put sets key to value, creating or overwriting.
	Put(key, value []byte) error
	// Delete removes key. It is not an error if key is absent.
	Delete(key []byte) error
	// Exists reports whether key is present, without materializing
	// its value.
	Exists(key []byte) (bool, error)
	// Count returns the number of entries in the table. Backends may
	// implement this as an O(n) scan; callers needing a cheap count
	// should prefer cached counters (see ledger/ledgercore cache
	// flags) over calling Count on a hot path.
	Count() (uint64, error)
	// Iterate walks entries in byte-lexicographic key order, starting
	// at or after start (nil for the beginning of the table), calling
	// fn for each. Iteration stops early if fn returns false or an
	// error.
	Iterate(start []byte, fn func(key, value []byte) (bool, error)) error
}

// Txn is a single transaction spanning every table. Write transactions
// are exclusive within their backend's writer lane (see
// ledger/writequeue); read transactions are snapshot-consistent and may
// be long-lived.
type Txn interface {
	// Table returns the KV handle for t within this transaction.
	Table(t Table) KV
	// Writable reports whether this transaction may mutate tables.
	Writable() bool
	// Commit finalizes a write transaction's mutations. It is an
	// error to call Commit on a read transaction.
	Commit() error
	// Renew commits the current write transaction and immediately
	// begins a new one in the same writer-lane slot, bounding
	// transaction duration without releasing exclusivity to another
	// lane. Only valid for write transactions.
	Renew() error
	// Abort discards a transaction's pending mutations (a no-op for
	// read transactions).
	Abort() error
}

// ShardFunc is invoked once per shard index by Store.ForEachParallel,
// each call holding its own independent read transaction.
type ShardFunc func(ctx context.Context, txn Txn, shardIndex, shardCount int) error

// Store is a backend-agnostic handle to an open ledger database.
type Store interface {
	// Backend reports which concrete implementation this is, for
	// assertions and migration checks only.
	Backend() Backend
	// BeginRead opens a snapshot-consistent read transaction.
	BeginRead(ctx context.Context) (Txn, error)
	// BeginWrite opens an exclusive write transaction. Callers must
	// hold the appropriate ledger/writequeue lane guard before
	// calling this; Store itself does not serialize writers.
	BeginWrite(ctx context.Context) (Txn, error)
	// ForEachParallel invokes fn once per shard index in
	// [0, shardCount), each call with its own independent read
	// transaction over the whole store, and blocks until every shard's
	// fn has returned. It does not split the key space itself: table is
	// not consulted, and each fn sees every key and is handed only its
	// shardIndex and shardCount.
	ForEachParallel(ctx context.Context, table Table, shardCount int, fn ShardFunc) error
	// Close releases the backend's resources. A Store must not be
	// used after Close.
	Close() error
}
