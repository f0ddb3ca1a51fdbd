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

package btreestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/blocklattice/ledger/ledger/ledgerstore"
)

type txn struct {
	tx       *sqlx.Tx
	writable bool

	// store and ctx are only set on write transactions, to support Renew.
	store *Store
	ctx   context.Context
}

func (t *txn) Table(table ledgerstore.Table) ledgerstore.KV {
	return &kv{tx: t.tx, table: string(table)}
}

func (t *txn) Writable() bool { return t.writable }

func (t *txn) Commit() error {
	if !t.writable {
		return fmt.Errorf("ledgerstore: Commit called on a read transaction")
	}
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return nil
}

func (t *txn) Renew() error {
	if !t.writable {
		return fmt.Errorf("ledgerstore: Renew called on a read transaction")
	}
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	newTx, err := t.store.wdb.BeginTxx(t.ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	t.tx = newTx
	return nil
}

func (t *txn) Abort() error {
	err := t.tx.Rollback()
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return nil
}

type kv struct {
	tx    *sqlx.Tx
	table string
}

func (k *kv) Get(key []byte) ([]byte, error) {
	var value []byte
	query := fmt.Sprintf(`SELECT v FROM %s WHERE k = ?`, quoteIdent(k.table))
	err := k.tx.Get(&value, query, key)
	if err == sql.ErrNoRows {
		return nil, ledgerstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return value, nil
}

func (k *kv) Put(key, value []byte) error {
	query := fmt.Sprintf(`INSERT INTO %s (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v=excluded.v`, quoteIdent(k.table))
	if _, err := k.tx.Exec(query, key, value); err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return nil
}

func (k *kv) Delete(key []byte) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE k = ?`, quoteIdent(k.table))
	if _, err := k.tx.Exec(query, key); err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return nil
}

func (k *kv) Exists(key []byte) (bool, error) {
	var count int64
	query := fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE k = ?`, quoteIdent(k.table))
	if err := k.tx.Get(&count, query, key); err != nil {
		return false, fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return count > 0, nil
}

func (k *kv) Count() (uint64, error) {
	var count int64
	query := fmt.Sprintf(`SELECT COUNT(1) FROM %s`, quoteIdent(k.table))
	if err := k.tx.Get(&count, query); err != nil {
		return 0, fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return uint64(count), nil
}

func (k *kv) Iterate(start []byte, fn func(key, value []byte) (bool, error)) error {
	if start == nil {
		start = []byte{}
	}
	query := fmt.Sprintf(`SELECT k, v FROM %s WHERE k >= ? ORDER BY k ASC`, quoteIdent(k.table))
	rows, err := k.tx.Query(query, start)
	if err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
		}
		cont, err := fn(key, value)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return nil
}
