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

// Package btreestore implements the ledgerstore.Store contract over a
// single memory-mapped sqlite3 database file: one table per
// ledgerstore.Table, each a (k BLOB PRIMARY KEY, v BLOB) key-value pair.
package btreestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"github.com/blocklattice/ledger/ledger/ledgerstore"
	"github.com/blocklattice/ledger/logging"
	udb "github.com/blocklattice/ledger/util/db"
)

// Store is the sqlite3-backed ledgerstore.Store implementation.
type Store struct {
	pair udb.Pair
	rdb  *sqlx.DB
	wdb  *sqlx.DB
	log  logging.Logger
}

// Open creates or opens the single database file at dbFilename (or an
// in-memory database when dbMem is set), creating every table named in
// ledgerstore.AllTables if absent.
func Open(dbFilename string, dbMem bool, log logging.Logger) (*Store, error) {
	pair, err := udb.OpenPair(dbFilename, dbMem)
	if err != nil {
		return nil, fmt.Errorf("btreestore: opening %s: %w", dbFilename, err)
	}
	s := &Store{
		pair: pair,
		rdb:  sqlx.NewDb(pair.Rdb.Handle, "sqlite3"),
		wdb:  sqlx.NewDb(pair.Wdb.Handle, "sqlite3"),
		log:  log,
	}
	if err := s.createTables(); err != nil {
		pair.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	for _, t := range ledgerstore.AllTables {
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (k BLOB PRIMARY KEY, v BLOB NOT NULL) WITHOUT ROWID`, quoteIdent(string(t)))
		if _, err := s.wdb.Exec(stmt); err != nil {
			return fmt.Errorf("%w: creating table %s: %v", ledgerstore.ErrIoErr, t, err)
		}
	}
	return nil
}

// Backend implements ledgerstore.Store.
func (s *Store) Backend() ledgerstore.Backend { return ledgerstore.BackendBtreeMmap }

// BeginRead implements ledgerstore.Store.
func (s *Store) BeginRead(ctx context.Context) (ledgerstore.Txn, error) {
	tx, err := s.rdb.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return &txn{tx: tx, writable: false}, nil
}

// BeginWrite implements ledgerstore.Store.
func (s *Store) BeginWrite(ctx context.Context) (ledgerstore.Txn, error) {
	tx, err := s.wdb.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return &txn{tx: tx, writable: true, store: s, ctx: ctx}, nil
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
			txn, err := s.BeginRead(ctx)
			if err != nil {
				return err
			}
			defer txn.Abort()
			return fn(ctx, txn, i, shardCount)
		})
	}
	return g.Wait()
}

// Close implements ledgerstore.Store.
func (s *Store) Close() error {
	s.pair.Close()
	return nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}
