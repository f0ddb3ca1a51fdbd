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
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocklattice/ledger/ledger/ledgerstore"
	"github.com/blocklattice/ledger/logging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.Name(), true, 1, logging.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestLSMStorePutGetCommit(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, wtx.Table(ledgerstore.TableAccounts).Put([]byte("acct1"), []byte("value1")))
	require.NoError(t, wtx.Commit())

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer rtx.Abort()
	v, err := rtx.Table(ledgerstore.TableAccounts).Get([]byte("acct1"))
	require.NoError(t, err)
	require.Equal(t, []byte("value1"), v)
}

func TestLSMStoreTablesAreIsolated(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, wtx.Table(ledgerstore.TableAccounts).Put([]byte("k"), []byte("accounts-value")))
	require.NoError(t, wtx.Table(ledgerstore.TablePending).Put([]byte("k"), []byte("pending-value")))
	require.NoError(t, wtx.Commit())

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer rtx.Abort()
	v1, err := rtx.Table(ledgerstore.TableAccounts).Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("accounts-value"), v1)
	v2, err := rtx.Table(ledgerstore.TablePending).Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("pending-value"), v2)
}

func TestLSMStoreGetNotFound(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer rtx.Abort()
	_, err = rtx.Table(ledgerstore.TableBlocks).Get([]byte("missing"))
	require.ErrorIs(t, err, ledgerstore.ErrNotFound)
}

func TestLSMStoreBatchSeesOwnWrites(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	tbl := wtx.Table(ledgerstore.TableAccounts)
	require.NoError(t, tbl.Put([]byte("k"), []byte("v")))
	v, err := tbl.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
	require.NoError(t, wtx.Abort())
}

func TestLSMStoreIterateOrdered(t *testing.T) {
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

func TestLSMStoreDeleteAndExists(t *testing.T) {
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
	require.NoError(t, wtx.Commit())

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer rtx.Abort()
	exists, err = rtx.Table(ledgerstore.TablePending).Exists([]byte("k1"))
	require.NoError(t, err)
	require.False(t, exists)
}
