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

package repweight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocklattice/ledger/data/basics"
	"github.com/blocklattice/ledger/ledger/ledgerstore/btreestore"
	"github.com/blocklattice/ledger/logging"
)

func sampleRep(seed byte) basics.Account {
	var a basics.Account
	for i := range a {
		a[i] = seed
	}
	return a
}

func openTestStore(t *testing.T) *btreestore.Store {
	t.Helper()
	s, err := btreestore.Open(t.Name()+".db", true, logging.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestIndexAddSubPersist(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	idx := New(basics.ZeroAmount)
	repA := sampleRep(1)

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, idx.Add(wtx, repA, basics.AmountFromUint64(100)))
	require.NoError(t, idx.Sub(wtx, repA, basics.AmountFromUint64(40)))
	require.NoError(t, wtx.Commit())

	require.Equal(t, basics.AmountFromUint64(60), idx.Get(repA))

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer rtx.Abort()
	reloaded := New(basics.ZeroAmount)
	require.NoError(t, reloaded.LoadFromStore(rtx))
	require.Equal(t, basics.AmountFromUint64(60), reloaded.Get(repA))
}

func TestIndexMove(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	idx := New(basics.ZeroAmount)
	repA, repB := sampleRep(1), sampleRep(2)

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, idx.Add(wtx, repA, basics.AmountFromUint64(100)))
	require.NoError(t, idx.Move(wtx, repA, repB, basics.AmountFromUint64(30)))
	require.NoError(t, wtx.Commit())

	require.Equal(t, basics.AmountFromUint64(70), idx.Get(repA))
	require.Equal(t, basics.AmountFromUint64(30), idx.Get(repB))
}

func TestIndexMoveAddSub(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	idx := New(basics.ZeroAmount)
	oldRep, newRep := sampleRep(1), sampleRep(2)

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, idx.Add(wtx, oldRep, basics.AmountFromUint64(50)))
	// state block changes representative from oldRep to newRep and sends 10.
	require.NoError(t, idx.MoveAddSub(wtx, newRep, basics.AmountFromUint64(40), oldRep, basics.AmountFromUint64(50)))
	require.NoError(t, wtx.Commit())

	require.Equal(t, basics.ZeroAmount, idx.Get(oldRep))
	require.Equal(t, basics.AmountFromUint64(40), idx.Get(newRep))
}

func TestIndexSubUnderflowRejected(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	idx := New(basics.ZeroAmount)
	rep := sampleRep(1)

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	err = idx.Sub(wtx, rep, basics.AmountFromUint64(1))
	require.Error(t, err)
	require.NoError(t, wtx.Abort())
}

func TestGetRepAmountsFiltersDust(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	idx := New(basics.AmountFromUint64(10))
	big, dust := sampleRep(1), sampleRep(2)

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, idx.Add(wtx, big, basics.AmountFromUint64(100)))
	require.NoError(t, idx.Add(wtx, dust, basics.AmountFromUint64(5)))
	require.NoError(t, wtx.Commit())

	snapshot := idx.GetRepAmounts()
	_, hasBig := snapshot[big]
	_, hasDust := snapshot[dust]
	require.True(t, hasBig)
	require.False(t, hasDust)

	require.Equal(t, basics.AmountFromUint64(105), idx.GetWeightCommitted())
}

func TestVerifyConsistency(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	idx := New(basics.ZeroAmount)
	rep := sampleRep(1)

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, idx.Add(wtx, rep, basics.AmountFromUint64(700)))
	require.NoError(t, idx.PutUnused(basics.AmountFromUint64(300)))
	require.NoError(t, wtx.Commit())

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer rtx.Abort()
	require.NoError(t, idx.VerifyConsistency(rtx, basics.AmountFromUint64(1000)))
}

func TestVerifyConsistencyDetectsMismatch(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	idx := New(basics.ZeroAmount)
	rep := sampleRep(1)

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, idx.Add(wtx, rep, basics.AmountFromUint64(700)))
	require.NoError(t, wtx.Commit())

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	defer rtx.Abort()
	require.Error(t, idx.VerifyConsistency(rtx, basics.AmountFromUint64(1000)))
}
