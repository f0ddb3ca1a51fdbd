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
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocklattice/ledger/ledger/ledgerstore"
	"github.com/blocklattice/ledger/logging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.Name()+".db", true, logging.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestBtreeStorePutGetCommit(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	require.True(t, wtx.Writable())
	require.NoError(t, wtx.Table(ledgerstore.TableAccounts).Put([]byte("acct1"), []byte("value1")))
	require.NoError(t, wtx.Commit())

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	require.False(t, rtx.Writable())
	v, err := rtx.Table(ledgerstore.TableAccounts).Get([]byte("acct1"))
	require.NoError(t, err)
	require.Equal(t, []byte("value1"), v)
	require.NoError(t, rtx.Abort())
}

func TestBtreeStoreGetNotFound(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer rtx.Abort()
	_, err = rtx.Table(ledgerstore.TableAccounts).Get([]byte("missing"))
	require.ErrorIs(t, err, ledgerstore.ErrNotFound)
}

func TestBtreeStoreDeleteAndExists(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	tbl := wtx.Table(ledgerstore.TablePending)
	require.NoError(t, tbl.Put([]byte("k1"), []byte("v1")))
	exists, err := tbl.Exists([]byte("k1"))
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, tbl.Delete([]byte("k1")))
	exists, err = tbl.Exists([]byte("k1"))
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, wtx.Commit())
}

func TestBtreeStoreIterateOrdered(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	tbl := wtx.Table(ledgerstore.TableBlocks)
	require.NoError(t, tbl.Put([]byte("b"), []byte("2")))
	require.NoError(t, tbl.Put([]byte("a"), []byte("1")))
	require.NoError(t, tbl.Put([]byte("c"), []byte("3")))
	require.NoError(t, wtx.Commit())

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer rtx.Abort()
	var seen []string
	err = rtx.Table(ledgerstore.TableBlocks).Iterate(nil, func(key, value []byte) (bool, error) {
		seen = append(seen, string(key))
		return true, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestBtreeStoreCount(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	tbl := wtx.Table(ledgerstore.TableRepWeights)
	require.NoError(t, tbl.Put([]byte("r1"), []byte("1")))
	require.NoError(t, tbl.Put([]byte("r2"), []byte("2")))
	require.NoError(t, wtx.Commit())

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer rtx.Abort()
	count, err := rtx.Table(ledgerstore.TableRepWeights).Count()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
}

func TestBtreeStoreRenewWriteTransaction(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, wtx.Table(ledgerstore.TableVersion).Put([]byte("v"), []byte("1")))
	require.NoError(t, wtx.Renew())
	require.NoError(t, wtx.Table(ledgerstore.TableVersion).Put([]byte("v2"), []byte("2")))
	require.NoError(t, wtx.Commit())

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer rtx.Abort()
	v, err := rtx.Table(ledgerstore.TableVersion).Get([]byte("v"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)
}

func TestBtreeStoreForEachParallel(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	tbl := wtx.Table(ledgerstore.TableAccounts)
	for i := 0; i < 16; i++ {
		require.NoError(t, tbl.Put([]byte{byte(i * 16)}, []byte("x")))
	}
	require.NoError(t, wtx.Commit())

	var mu sync.Mutex
	total := 0
	err = s.ForEachParallel(ctx, ledgerstore.TableAccounts, 4, func(ctx context.Context, txn ledgerstore.Txn, shardIndex, shardCount int) error {
		count, err := txn.Table(ledgerstore.TableAccounts).Count()
		if err != nil {
			return err
		}
		mu.Lock()
		total += int(count) // each shard recounts the whole table in this simplified test
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 16*4, total)
}
