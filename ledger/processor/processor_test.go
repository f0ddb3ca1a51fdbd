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

package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocklattice/ledger/crypto"
	"github.com/blocklattice/ledger/data/basics"
	"github.com/blocklattice/ledger/ledger/blocktype"
	"github.com/blocklattice/ledger/ledger/ledgercore"
	"github.com/blocklattice/ledger/ledger/ledgerstore"
	"github.com/blocklattice/ledger/ledger/ledgerstore/btreestore"
	"github.com/blocklattice/ledger/ledger/repweight"
	"github.com/blocklattice/ledger/ledger/views"
	"github.com/blocklattice/ledger/logging"
)

func sampleAccount(seed byte) basics.Account {
	var a basics.Account
	for i := range a {
		a[i] = seed
	}
	return a
}

func sampleHash(seed byte) basics.BlockHash {
	var h basics.BlockHash
	for i := range h {
		h[i] = seed
	}
	return h
}

func seededKey(seed byte) crypto.SignatureAlgorithm {
	var s [32]byte
	for i := range s {
		s[i] = seed
	}
	return crypto.GenerateSignatureAlgorithm(s)
}

// harness bundles a fresh in-memory store, a Processor over it, and a
// single long-lived write transaction each test drives directly
// (bypassing the Ledger Facade and Write Queue).
type harness struct {
	t     *testing.T
	store *btreestore.Store
	txn   ledgerstore.Txn
	proc  *Processor
}

func newHarness(t *testing.T, params ledgercore.Params) *harness {
	t.Helper()
	store, err := btreestore.Open(t.Name()+".db", true, logging.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	ctx := context.Background()
	txn, err := store.BeginWrite(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { txn.Abort() })

	weights := repweight.New(basics.ZeroAmount)
	return &harness{t: t, store: store, txn: txn, proc: New(params, weights, logging.NewLogger())}
}

func (h *harness) seedPending(destination basics.Account, sendHash basics.BlockHash, info basics.PendingInfo) {
	h.t.Helper()
	require.NoError(h.t, putPending(h.txn, destination, sendHash, info))
}

func (h *harness) view() views.Any { return views.Any{Txn: h.txn} }

func (h *harness) accountInfo(account basics.Account) basics.AccountInfo {
	h.t.Helper()
	info, err := h.view().AccountGet(account)
	require.NoError(h.t, err)
	return info
}

func signSend(t *testing.T, key crypto.SignatureAlgorithm, b blocktype.SendBlock) blocktype.SendBlock {
	hash := b.Hash()
	b.Sig = key.Sign(hash[:])
	return b
}

func signReceive(t *testing.T, key crypto.SignatureAlgorithm, b blocktype.ReceiveBlock) blocktype.ReceiveBlock {
	hash := b.Hash()
	b.Sig = key.Sign(hash[:])
	return b
}

func signOpen(t *testing.T, key crypto.SignatureAlgorithm, b blocktype.OpenBlock) blocktype.OpenBlock {
	hash := b.Hash()
	b.Sig = key.Sign(hash[:])
	return b
}

func signChange(t *testing.T, key crypto.SignatureAlgorithm, b blocktype.ChangeBlock) blocktype.ChangeBlock {
	hash := b.Hash()
	b.Sig = key.Sign(hash[:])
	return b
}

func signState(t *testing.T, key crypto.SignatureAlgorithm, b blocktype.StateBlock) blocktype.StateBlock {
	hash := b.Hash()
	b.Sig = key.Sign(hash[:])
	return b
}

func TestProcessOpenSendReceiveChain(t *testing.T) {
	t.Parallel()
	h := newHarness(t, ledgercore.Params{})
	keyA := seededKey(1)
	keyB := seededKey(2)
	accountA := basics.Account(keyA.PublicKey)
	accountB := basics.Account(keyB.PublicKey)
	rep := sampleAccount(9)

	genesisSend := sampleHash(0xAA)
	h.seedPending(accountA, genesisSend, basics.PendingInfo{Source: sampleAccount(0xF0), Amount: basics.AmountFromUint64(1000)})

	openA := signOpen(t, keyA, blocktype.OpenBlock{Source: genesisSend, Representative: rep, Account: accountA})
	status, err := h.proc.Process(h.txn, openA, 1000)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)

	infoA := h.accountInfo(accountA)
	require.Equal(t, basics.AmountFromUint64(1000), infoA.Balance)
	require.Equal(t, openA.Hash(), infoA.Head)
	require.Equal(t, uint64(1), infoA.BlockCount)

	sendA := signSend(t, keyA, blocktype.SendBlock{Previous: openA.Hash(), Destination: accountB, Balance: basics.AmountFromUint64(400)})
	status, err = h.proc.Process(h.txn, sendA, 1001)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)

	infoA = h.accountInfo(accountA)
	require.Equal(t, basics.AmountFromUint64(400), infoA.Balance)

	predecessor, err := h.view().BlockGet(openA.Hash())
	require.NoError(t, err)
	require.Equal(t, sendA.Hash(), predecessor.Sideband.Successor)

	pending, err := h.view().PendingGet(accountB, sendA.Hash())
	require.NoError(t, err)
	require.Equal(t, basics.AmountFromUint64(600), pending.Amount)
	require.Equal(t, accountA, pending.Source)

	openB := signOpen(t, keyB, blocktype.OpenBlock{Source: sendA.Hash(), Representative: rep, Account: accountB})
	status, err = h.proc.Process(h.txn, openB, 1002)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)
	infoB := h.accountInfo(accountB)
	require.Equal(t, basics.AmountFromUint64(600), infoB.Balance)

	sendA2 := signSend(t, keyA, blocktype.SendBlock{Previous: sendA.Hash(), Destination: accountB, Balance: basics.AmountFromUint64(100)})
	status, err = h.proc.Process(h.txn, sendA2, 1003)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)

	receiveB := signReceive(t, keyB, blocktype.ReceiveBlock{Previous: openB.Hash(), Source: sendA2.Hash()})
	status, err = h.proc.Process(h.txn, receiveB, 1004)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)
	infoB = h.accountInfo(accountB)
	require.Equal(t, basics.AmountFromUint64(900), infoB.Balance)

	weightRep := h.proc.weights.Get(rep)
	require.Equal(t, basics.AmountFromUint64(100+900), weightRep)
}

func TestProcessRejectsDuplicateBlock(t *testing.T) {
	t.Parallel()
	h := newHarness(t, ledgercore.Params{})
	keyA := seededKey(1)
	accountA := basics.Account(keyA.PublicKey)
	genesisSend := sampleHash(0xAA)
	h.seedPending(accountA, genesisSend, basics.PendingInfo{Source: sampleAccount(0xF0), Amount: basics.AmountFromUint64(500)})

	open := signOpen(t, keyA, blocktype.OpenBlock{Source: genesisSend, Representative: sampleAccount(9), Account: accountA})
	status, err := h.proc.Process(h.txn, open, 1)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)

	status, err = h.proc.Process(h.txn, open, 2)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusOld, status)
}

func TestProcessRejectsBadSignature(t *testing.T) {
	t.Parallel()
	h := newHarness(t, ledgercore.Params{})
	keyA := seededKey(1)
	keyWrong := seededKey(77)
	accountA := basics.Account(keyA.PublicKey)
	genesisSend := sampleHash(0xAA)
	h.seedPending(accountA, genesisSend, basics.PendingInfo{Source: sampleAccount(0xF0), Amount: basics.AmountFromUint64(500)})

	open := signOpen(t, keyWrong, blocktype.OpenBlock{Source: genesisSend, Representative: sampleAccount(9), Account: accountA})
	status, err := h.proc.Process(h.txn, open, 1)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusBadSignature, status)
}

func TestProcessRejectsForkOnStaleHead(t *testing.T) {
	t.Parallel()
	h := newHarness(t, ledgercore.Params{})
	keyA := seededKey(1)
	accountA := basics.Account(keyA.PublicKey)
	genesisSend := sampleHash(0xAA)
	h.seedPending(accountA, genesisSend, basics.PendingInfo{Source: sampleAccount(0xF0), Amount: basics.AmountFromUint64(500)})

	open := signOpen(t, keyA, blocktype.OpenBlock{Source: genesisSend, Representative: sampleAccount(9), Account: accountA})
	status, err := h.proc.Process(h.txn, open, 1)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)

	sendA := signSend(t, keyA, blocktype.SendBlock{Previous: open.Hash(), Destination: sampleAccount(2), Balance: basics.AmountFromUint64(100)})
	status, err = h.proc.Process(h.txn, sendA, 2)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)

	// A second send also built on open.Hash() is a fork: accountA's head has moved on.
	forkSend := signSend(t, keyA, blocktype.SendBlock{Previous: open.Hash(), Destination: sampleAccount(3), Balance: basics.AmountFromUint64(50)})
	status, err = h.proc.Process(h.txn, forkSend, 3)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusFork, status)
}

func TestProcessRejectsGapPrevious(t *testing.T) {
	t.Parallel()
	h := newHarness(t, ledgercore.Params{})
	keyA := seededKey(1)
	accountA := basics.Account(keyA.PublicKey)
	send := signSend(t, keyA, blocktype.SendBlock{Previous: sampleHash(0x77), Destination: sampleAccount(2), Balance: basics.AmountFromUint64(1)})
	_ = accountA
	status, err := h.proc.Process(h.txn, send, 1)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusGapPrevious, status)
}

func TestProcessRejectsNegativeSpend(t *testing.T) {
	t.Parallel()
	h := newHarness(t, ledgercore.Params{})
	keyA := seededKey(1)
	accountA := basics.Account(keyA.PublicKey)
	genesisSend := sampleHash(0xAA)
	h.seedPending(accountA, genesisSend, basics.PendingInfo{Source: sampleAccount(0xF0), Amount: basics.AmountFromUint64(500)})

	open := signOpen(t, keyA, blocktype.OpenBlock{Source: genesisSend, Representative: sampleAccount(9), Account: accountA})
	status, err := h.proc.Process(h.txn, open, 1)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)

	badSend := signSend(t, keyA, blocktype.SendBlock{Previous: open.Hash(), Destination: sampleAccount(2), Balance: basics.AmountFromUint64(600)})
	status, err = h.proc.Process(h.txn, badSend, 2)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusNegativeSpend, status)
}

func TestProcessChangeMovesRepresentativeWeight(t *testing.T) {
	t.Parallel()
	h := newHarness(t, ledgercore.Params{})
	keyA := seededKey(1)
	accountA := basics.Account(keyA.PublicKey)
	repOld := sampleAccount(9)
	repNew := sampleAccount(10)
	genesisSend := sampleHash(0xAA)
	h.seedPending(accountA, genesisSend, basics.PendingInfo{Source: sampleAccount(0xF0), Amount: basics.AmountFromUint64(500)})

	open := signOpen(t, keyA, blocktype.OpenBlock{Source: genesisSend, Representative: repOld, Account: accountA})
	status, err := h.proc.Process(h.txn, open, 1)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)
	require.Equal(t, basics.AmountFromUint64(500), h.proc.weights.Get(repOld))

	change := signChange(t, keyA, blocktype.ChangeBlock{Previous: open.Hash(), Representative: repNew})
	status, err = h.proc.Process(h.txn, change, 2)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)

	require.Equal(t, basics.ZeroAmount, h.proc.weights.Get(repOld))
	require.Equal(t, basics.AmountFromUint64(500), h.proc.weights.Get(repNew))
	require.Equal(t, repNew, h.accountInfo(accountA).Representative)
}

func TestProcessStateOpenSendReceive(t *testing.T) {
	t.Parallel()
	h := newHarness(t, ledgercore.Params{})
	keyA := seededKey(1)
	keyB := seededKey(2)
	accountA := basics.Account(keyA.PublicKey)
	accountB := basics.Account(keyB.PublicKey)
	rep := sampleAccount(9)

	genesisSend := sampleHash(0xAA)
	h.seedPending(accountA, genesisSend, basics.PendingInfo{Source: sampleAccount(0xF0), Amount: basics.AmountFromUint64(1000)})

	openA := signState(t, keyA, blocktype.StateBlock{
		Account: accountA, Representative: rep, Balance: basics.AmountFromUint64(1000),
		Link: basics.LinkFromBlockHash(genesisSend),
	})
	status, err := h.proc.Process(h.txn, openA, 1)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)
	require.Equal(t, basics.AmountFromUint64(1000), h.accountInfo(accountA).Balance)

	sendA := signState(t, keyA, blocktype.StateBlock{
		Account: accountA, Previous: openA.Hash(), Representative: rep, Balance: basics.AmountFromUint64(300),
		Link: basics.LinkFromAccount(accountB),
	})
	status, err = h.proc.Process(h.txn, sendA, 2)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)

	pending, err := h.view().PendingGet(accountB, sendA.Hash())
	require.NoError(t, err)
	require.Equal(t, basics.AmountFromUint64(700), pending.Amount)

	openB := signState(t, keyB, blocktype.StateBlock{
		Account: accountB, Representative: rep, Balance: basics.AmountFromUint64(700),
		Link: basics.LinkFromBlockHash(sendA.Hash()),
	})
	status, err = h.proc.Process(h.txn, openB, 3)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)
	require.Equal(t, basics.AmountFromUint64(700), h.accountInfo(accountB).Balance)
}

func TestProcessStateEpochUpgrade(t *testing.T) {
	t.Parallel()
	epochSignerKey := seededKey(42)
	epochMarker := basics.LinkFromBlockHash(sampleHash(0xE1))
	params := ledgercore.Params{
		EpochSigners: map[basics.Epoch]basics.Account{basics.Epoch1: basics.Account(epochSignerKey.PublicKey)},
		EpochLinks:   map[basics.Epoch]basics.Link{basics.Epoch1: epochMarker},
	}
	h := newHarness(t, params)
	keyA := seededKey(1)
	accountA := basics.Account(keyA.PublicKey)
	rep := sampleAccount(9)
	genesisSend := sampleHash(0xAA)
	h.seedPending(accountA, genesisSend, basics.PendingInfo{Source: sampleAccount(0xF0), Amount: basics.AmountFromUint64(500)})

	open := signOpen(t, keyA, blocktype.OpenBlock{Source: genesisSend, Representative: rep, Account: accountA})
	status, err := h.proc.Process(h.txn, open, 1)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)

	upgrade := signState(t, epochSignerKey, blocktype.StateBlock{
		Account: accountA, Previous: open.Hash(), Representative: rep, Balance: basics.AmountFromUint64(500),
		Link: epochMarker,
	})
	status, err = h.proc.Process(h.txn, upgrade, 2)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)
	require.Equal(t, basics.Epoch1, h.accountInfo(accountA).Epoch)

	// Jumping straight to epoch 3 (no signer/marker configured for it) is rejected.
	badJump := signState(t, epochSignerKey, blocktype.StateBlock{
		Account: accountA, Previous: upgrade.Hash(), Representative: rep, Balance: basics.AmountFromUint64(500),
		Link: basics.LinkFromBlockHash(sampleHash(0xE3)),
	})
	status, err = h.proc.Process(h.txn, badJump, 3)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusBlockPosition, status)
}

func TestProcessStateEpochOpenRequiresReceivable(t *testing.T) {
	t.Parallel()
	epochSignerKey := seededKey(42)
	epochMarker := basics.LinkFromBlockHash(sampleHash(0xE1))
	params := ledgercore.Params{
		EpochSigners: map[basics.Epoch]basics.Account{basics.Epoch1: basics.Account(epochSignerKey.PublicKey)},
		EpochLinks:   map[basics.Epoch]basics.Link{basics.Epoch1: epochMarker},
	}
	h := newHarness(t, params)
	accountA := basics.Account(seededKey(1).PublicKey)

	epochOpen := signState(t, epochSignerKey, blocktype.StateBlock{
		Account: accountA, Balance: basics.ZeroAmount, Link: epochMarker,
	})
	status, err := h.proc.Process(h.txn, epochOpen, 1)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusGapEpochOpenPending, status)

	h.seedPending(accountA, sampleHash(0xAA), basics.PendingInfo{Source: sampleAccount(0xF0), Amount: basics.AmountFromUint64(1)})
	status, err = h.proc.Process(h.txn, epochOpen, 2)
	require.NoError(t, err)
	require.Equal(t, ledgercore.StatusProgress, status)
	require.Equal(t, basics.Epoch1, h.accountInfo(accountA).Epoch)
	require.True(t, h.accountInfo(accountA).Balance.IsZero())
}
