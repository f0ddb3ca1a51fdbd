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

package lsmstore

import (
	"bytes"
	"fmt"
	"io"

	"github.com/cockroachdb/pebble"

	"github.com/blocklattice/ledger/ledger/ledgerstore"
)

// reader is the subset of pebble's Reader interface (satisfied by both
// *pebble.Snapshot and *pebble.Batch) this package needs.
type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) *pebble.Iterator
}

type txn struct {
	writable bool

	// set when writable
	batch *pebble.Batch
	store *Store

	// set when read-only
	snapshot *pebble.Snapshot
}

func (t *txn) reader() reader {
	if t.writable {
		return t.batch
	}
	return t.snapshot
}

func (t *txn) Table(table ledgerstore.Table) ledgerstore.KV {
	prefix, err := tablePrefix(table)
	if err != nil {
		return &errKV{err: err}
	}
	return &kv{r: t.reader(), batch: t.batch, prefix: prefix}
}

func (t *txn) Writable() bool { return t.writable }

func (t *txn) Commit() error {
	if !t.writable {
		return fmt.Errorf("ledgerstore: Commit called on a read transaction")
	}
	if err := t.batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return nil
}

func (t *txn) Renew() error {
	if !t.writable {
		return fmt.Errorf("ledgerstore: Renew called on a read transaction")
	}
	if err := t.batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	t.batch = t.store.db.NewIndexedBatch()
	return nil
}

func (t *txn) Abort() error {
	if t.writable {
		return t.batch.Close()
	}
	return t.snapshot.Close()
}

type kv struct {
	r      reader
	batch  *pebble.Batch // nil on read-only transactions
	prefix byte
}

func (k *kv) Get(key []byte) ([]byte, error) {
	v, closer, err := k.r.Get(prefixedKey(k.prefix, key))
	if err == pebble.ErrNotFound {
		return nil, ledgerstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	out := append([]byte(nil), v...)
	closer.Close()
	return out, nil
}

func (k *kv) Put(key, value []byte) error {
	if k.batch == nil {
		return fmt.Errorf("ledgerstore: Put called on a read transaction")
	}
	if err := k.batch.Set(prefixedKey(k.prefix, key), value, nil); err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return nil
}

func (k *kv) Delete(key []byte) error {
	if k.batch == nil {
		return fmt.Errorf("ledgerstore: Delete called on a read transaction")
	}
	if err := k.batch.Delete(prefixedKey(k.prefix, key), nil); err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return nil
}

func (k *kv) Exists(key []byte) (bool, error) {
	_, err := k.Get(key)
	if err == ledgerstore.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (k *kv) Count() (uint64, error) {
	var count uint64
	err := k.Iterate(nil, func(key, value []byte) (bool, error) {
		count++
		return true, nil
	})
	return count, err
}

func (k *kv) Iterate(start []byte, fn func(key, value []byte) (bool, error)) error {
	lower := prefixedKey(k.prefix, start)
	upper := prefixUpperBound(k.prefix)
	iter := k.r.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	defer iter.Close()

	for valid := iter.First(); valid; valid = iter.Next() {
		fullKey := iter.Key()
		if !bytes.HasPrefix(fullKey, []byte{k.prefix}) {
			break
		}
		tableKey := append([]byte(nil), fullKey[1:]...)
		value := append([]byte(nil), iter.Value()...)
		cont, err := fn(tableKey, value)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("%w: %v", ledgerstore.ErrIoErr, err)
	}
	return nil
}

// errKV reports a construction-time error (an unknown table) on every
// operation, so callers see a normal error return instead of a panic.
type errKV struct{ err error }

func (e *errKV) Get([]byte) ([]byte, error)      { return nil, e.err }
func (e *errKV) Put([]byte, []byte) error        { return e.err }
func (e *errKV) Delete([]byte) error             { return e.err }
func (e *errKV) Exists([]byte) (bool, error)     { return false, e.err }
func (e *errKV) Count() (uint64, error)          { return 0, e.err }
func (e *errKV) Iterate([]byte, func([]byte, []byte) (bool, error)) error {
	return e.err
}
