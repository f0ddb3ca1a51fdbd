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

// Package rollback undoes blocks that were previously applied by the
// ledger processor, cascading into any account that already consumed a
// send being undone. Every mutation is the exact algebraic inverse of
// the processor step that produced it.
package rollback

import (
	"fmt"

	"github.com/blocklattice/ledger/data/basics"
	"github.com/blocklattice/ledger/ledger/blocktype"
	"github.com/blocklattice/ledger/ledger/ledgercore"
	"github.com/blocklattice/ledger/ledger/ledgerstore"
	"github.com/blocklattice/ledger/ledger/repweight"
	"github.com/blocklattice/ledger/ledger/views"
	"github.com/blocklattice/ledger/logging"
)

// Engine undoes blocks against the same store contract the processor
// writes to, keeping the representative weights index in sync with each
// undone block exactly as the processor kept it in sync with each
// applied one.
type Engine struct {
	params  ledgercore.Params
	weights *repweight.Index
	log     logging.Logger
}

// New returns an Engine sharing weights with the Processor built over
// the same store.
func New(params ledgercore.Params, weights *repweight.Index, log logging.Logger) *Engine {
	return &Engine{params: params, weights: weights, log: log}
}

// Rollback removes hash and every later block on its account chain,
// down to but not crossing the account's confirmation height. Rolling
// back a send whose pending entry was already claimed by the
// destination account first cascades into that account's own chain.
// Returns the removed hashes in the order they were undone: the
// account's live head first and hash last, with blocks undone by a
// cascade listed just before the send whose pending entry they claimed.
func (e *Engine) Rollback(txn ledgerstore.Txn, hash basics.BlockHash) ([]basics.BlockHash, error) {
	v := views.Any{Txn: txn}
	target, err := v.BlockGet(hash)
	if err != nil {
		return nil, err
	}
	account := target.Sideband.Account

	var removed []basics.BlockHash
	for {
		if err := e.undoHead(txn, v, account, 0, &removed); err != nil {
			return removed, err
		}
		if removed[len(removed)-1] == hash {
			return removed, nil
		}
	}
}

func putAccountInfo(txn ledgerstore.Txn, account basics.Account, info basics.AccountInfo) error {
	return txn.Table(ledgerstore.TableAccounts).Put(account[:], blocktype.EncodeAccountInfo(info))
}

func putPending(txn ledgerstore.Txn, destination basics.Account, sendHash basics.BlockHash, info basics.PendingInfo) error {
	return txn.Table(ledgerstore.TablePending).Put(blocktype.EncodePendingKey(destination, sendHash), blocktype.EncodePendingInfo(info))
}

func deletePending(txn ledgerstore.Txn, destination basics.Account, sendHash basics.BlockHash) error {
	return txn.Table(ledgerstore.TablePending).Delete(blocktype.EncodePendingKey(destination, sendHash))
}

// clearSuccessor undoes setSuccessor: the predecessor no longer has a
// block built on top of it.
func clearSuccessor(txn ledgerstore.Txn, v views.Any, prevHash basics.BlockHash) error {
	bs, err := v.BlockGet(prevHash)
	if err != nil {
		return err
	}
	bs.Sideband.Successor = basics.BlockHash{}
	encoded, err := blocktype.EncodeBlockAndSideband(bs)
	if err != nil {
		return err
	}
	return txn.Table(ledgerstore.TableBlocks).Put(prevHash[:], encoded)
}

// undoHead undoes exactly the current head block of account, checking
// first that it is not already cemented, and appends its hash to
// removed. depth counts cascade nesting, not chain length: rolling back
// N blocks in a straight line on one account is depth 0 throughout;
// cascading into a destination account to free up a pending entry is
// depth+1. A cascade undoes and appends its own blocks before the
// block that triggered it, so removed stays in strict undo order.
func (e *Engine) undoHead(txn ledgerstore.Txn, v views.Any, account basics.Account, depth uint64, removed *[]basics.BlockHash) error {
	if e.params.MaxRollbackDepth > 0 && depth > e.params.MaxRollbackDepth {
		return fmt.Errorf("rollback: cascade exceeded max depth %d", e.params.MaxRollbackDepth)
	}
	info, err := v.AccountGet(account)
	if err != nil {
		return err
	}
	hash := info.Head
	bs, err := v.BlockGet(hash)
	if err != nil {
		return err
	}
	confirmed, err := views.ConfirmationHeight(v, account)
	if err != nil {
		return err
	}
	if bs.Sideband.Height <= confirmed.Height {
		return fmt.Errorf("rollback: block %x at height %d is cemented (confirmed to %d), refusing to roll back", hash, bs.Sideband.Height, confirmed.Height)
	}

	switch block := bs.Block.(type) {
	case blocktype.SendBlock:
		err = e.undoSend(txn, v, hash, block, bs.Sideband, info, depth, removed)
	case blocktype.ReceiveBlock:
		err = e.undoReceive(txn, v, hash, block, bs.Sideband, info)
	case blocktype.OpenBlock:
		err = e.undoOpen(txn, v, block, bs.Sideband)
	case blocktype.ChangeBlock:
		err = e.undoChange(txn, v, hash, block, bs.Sideband, info)
	case blocktype.StateBlock:
		err = e.undoState(txn, v, hash, block, bs.Sideband, info, depth, removed)
	default:
		err = fmt.Errorf("rollback: unknown block implementation %T", bs.Block)
	}
	if err != nil {
		return err
	}
	if err := txn.Table(ledgerstore.TableBlocks).Delete(hash[:]); err != nil {
		return err
	}
	if e.log != nil {
		e.log.Debugf("rollback: undid block %x on account %s", hash, account)
	}
	*removed = append(*removed, hash)
	return nil
}

// ensurePendingReappears cascades into destination's chain, undoing its
// head block repeatedly, until the pending entry sendHash created
// reappears (or already exists because it was never claimed). Every
// block it undoes is appended to removed as it happens.
func (e *Engine) ensurePendingReappears(txn ledgerstore.Txn, v views.Any, destination basics.Account, sendHash basics.BlockHash, depth uint64, removed *[]basics.BlockHash) error {
	for {
		exists, err := v.ReceivableExists(destination, sendHash)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if err := e.undoHead(txn, v, destination, depth+1, removed); err != nil {
			return err
		}
	}
}

func (e *Engine) undoSend(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, block blocktype.SendBlock, sideband blocktype.Sideband, info basics.AccountInfo, depth uint64, removed *[]basics.BlockHash) error {
	amount, err := v.BlockAmount(hash)
	if err != nil {
		return err
	}
	if err := e.ensurePendingReappears(txn, v, block.Destination, hash, depth, removed); err != nil {
		return err
	}
	if err := deletePending(txn, block.Destination, hash); err != nil {
		return err
	}
	if err := e.weights.Add(txn, info.Representative, amount); err != nil {
		return err
	}
	prev, err := v.BlockGet(block.Previous)
	if err != nil {
		return err
	}
	info.Head = block.Previous
	info.Balance = prev.Sideband.Balance
	info.BlockCount--
	if err := putAccountInfo(txn, sideband.Account, info); err != nil {
		return err
	}
	return clearSuccessor(txn, v, block.Previous)
}

func (e *Engine) undoReceive(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, block blocktype.ReceiveBlock, sideband blocktype.Sideband, info basics.AccountInfo) error {
	amount, err := v.BlockAmount(hash)
	if err != nil {
		return err
	}
	source, err := v.BlockAccount(block.Source)
	if err != nil {
		return err
	}
	if err := putPending(txn, sideband.Account, block.Source, basics.PendingInfo{Source: source, Amount: amount, Epoch: sideband.SourceEpoch}); err != nil {
		return err
	}
	if err := e.weights.Sub(txn, info.Representative, amount); err != nil {
		return err
	}
	prev, err := v.BlockGet(block.Previous)
	if err != nil {
		return err
	}
	info.Head = block.Previous
	info.Balance = prev.Sideband.Balance
	info.BlockCount--
	if err := putAccountInfo(txn, sideband.Account, info); err != nil {
		return err
	}
	return clearSuccessor(txn, v, block.Previous)
}

func (e *Engine) undoOpen(txn ledgerstore.Txn, v views.Any, block blocktype.OpenBlock, sideband blocktype.Sideband) error {
	source, err := v.BlockAccount(block.Source)
	if err != nil {
		return err
	}
	if err := putPending(txn, block.Account, block.Source, basics.PendingInfo{Source: source, Amount: sideband.Balance, Epoch: basics.Epoch0}); err != nil {
		return err
	}
	if err := e.weights.Sub(txn, block.Representative, sideband.Balance); err != nil {
		return err
	}
	return txn.Table(ledgerstore.TableAccounts).Delete(block.Account[:])
}

func (e *Engine) undoChange(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, block blocktype.ChangeBlock, sideband blocktype.Sideband, info basics.AccountInfo) error {
	oldRep, err := views.RepresentativeAt(v, block.Previous)
	if err != nil {
		return err
	}
	if err := e.weights.Move(txn, block.Representative, oldRep, info.Balance); err != nil {
		return err
	}
	info.Head = block.Previous
	info.Representative = oldRep
	info.BlockCount--
	if err := putAccountInfo(txn, sideband.Account, info); err != nil {
		return err
	}
	return clearSuccessor(txn, v, block.Previous)
}

// undoState dispatches a state block to its inverse based on the same
// Details flags the processor recorded when it applied the block, so
// rollback never has to re-derive the sub-case from balances alone.
func (e *Engine) undoState(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, block blocktype.StateBlock, sideband blocktype.Sideband, info basics.AccountInfo, depth uint64, removed *[]basics.BlockHash) error {
	if block.Previous.IsZero() {
		if sideband.Details.IsEpoch {
			return txn.Table(ledgerstore.TableAccounts).Delete(block.Account[:])
		}
		return e.undoStateOpen(txn, v, block, sideband)
	}
	switch {
	case sideband.Details.IsSend:
		return e.undoStateSend(txn, v, hash, block, sideband, info, depth, removed)
	case sideband.Details.IsReceive:
		return e.undoStateReceive(txn, v, block, sideband, info)
	case sideband.Details.IsEpoch:
		return e.undoStateEpochUpgrade(txn, v, block, sideband, info)
	default:
		return e.undoStateChange(txn, v, block, sideband, info)
	}
}

func (e *Engine) undoStateOpen(txn ledgerstore.Txn, v views.Any, block blocktype.StateBlock, sideband blocktype.Sideband) error {
	sourceHash := block.Link.AsBlockHash()
	source, err := v.BlockAccount(sourceHash)
	if err != nil {
		return err
	}
	if err := putPending(txn, block.Account, sourceHash, basics.PendingInfo{Source: source, Amount: sideband.Balance, Epoch: sideband.SourceEpoch}); err != nil {
		return err
	}
	if err := e.weights.Sub(txn, block.Representative, sideband.Balance); err != nil {
		return err
	}
	return txn.Table(ledgerstore.TableAccounts).Delete(block.Account[:])
}

func (e *Engine) undoStateSend(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, block blocktype.StateBlock, sideband blocktype.Sideband, info basics.AccountInfo, depth uint64, removed *[]basics.BlockHash) error {
	prev, err := v.BlockGet(block.Previous)
	if err != nil {
		return err
	}
	prevRep, err := views.RepresentativeAt(v, block.Previous)
	if err != nil {
		return err
	}
	prevBalance := prev.Sideband.Balance
	destination := block.Link.AsAccount()

	if err := e.ensurePendingReappears(txn, v, destination, hash, depth, removed); err != nil {
		return err
	}
	if err := deletePending(txn, destination, hash); err != nil {
		return err
	}
	if err := e.weights.MoveAddSub(txn, prevRep, prevBalance, block.Representative, sideband.Balance); err != nil {
		return err
	}

	info.Head = block.Previous
	info.Balance = prevBalance
	info.Representative = prevRep
	info.BlockCount--
	if err := putAccountInfo(txn, sideband.Account, info); err != nil {
		return err
	}
	return clearSuccessor(txn, v, block.Previous)
}

func (e *Engine) undoStateReceive(txn ledgerstore.Txn, v views.Any, block blocktype.StateBlock, sideband blocktype.Sideband, info basics.AccountInfo) error {
	prev, err := v.BlockGet(block.Previous)
	if err != nil {
		return err
	}
	prevRep, err := views.RepresentativeAt(v, block.Previous)
	if err != nil {
		return err
	}
	prevBalance := prev.Sideband.Balance
	sourceHash := block.Link.AsBlockHash()
	source, err := v.BlockAccount(sourceHash)
	if err != nil {
		return err
	}
	amount, _ := sideband.Balance.Sub(prevBalance)

	if err := putPending(txn, block.Account, sourceHash, basics.PendingInfo{Source: source, Amount: amount, Epoch: sideband.SourceEpoch}); err != nil {
		return err
	}
	if err := e.weights.MoveAddSub(txn, prevRep, prevBalance, block.Representative, sideband.Balance); err != nil {
		return err
	}

	info.Head = block.Previous
	info.Balance = prevBalance
	info.Representative = prevRep
	info.Epoch = prev.Sideband.Details.Epoch
	info.BlockCount--
	if err := putAccountInfo(txn, sideband.Account, info); err != nil {
		return err
	}
	return clearSuccessor(txn, v, block.Previous)
}

func (e *Engine) undoStateChange(txn ledgerstore.Txn, v views.Any, block blocktype.StateBlock, sideband blocktype.Sideband, info basics.AccountInfo) error {
	prevRep, err := views.RepresentativeAt(v, block.Previous)
	if err != nil {
		return err
	}
	if err := e.weights.Move(txn, block.Representative, prevRep, sideband.Balance); err != nil {
		return err
	}
	info.Head = block.Previous
	info.Representative = prevRep
	info.BlockCount--
	if err := putAccountInfo(txn, sideband.Account, info); err != nil {
		return err
	}
	return clearSuccessor(txn, v, block.Previous)
}

func (e *Engine) undoStateEpochUpgrade(txn ledgerstore.Txn, v views.Any, block blocktype.StateBlock, sideband blocktype.Sideband, info basics.AccountInfo) error {
	if info.Epoch == basics.Epoch0 {
		return fmt.Errorf("rollback: epoch upgrade block %x has no epoch to revert below", block.Previous)
	}
	info.Head = block.Previous
	info.Epoch--
	info.BlockCount--
	if err := putAccountInfo(txn, sideband.Account, info); err != nil {
		return err
	}
	return clearSuccessor(txn, v, block.Previous)
}
