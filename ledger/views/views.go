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

// Package views implements the two read predicates over a Store
// Contract transaction: View (every known block) and Confirmed (cemented
// blocks only). Both expose the same lookup surface.
package views

import (
	"fmt"

	"github.com/blocklattice/ledger/data/basics"
	"github.com/blocklattice/ledger/ledger/blocktype"
	"github.com/blocklattice/ledger/ledger/ledgerstore"
)

// View is the lookup surface shared by the "any" and "confirmed" set
// views.
type View interface {
	BlockExists(hash basics.BlockHash) (bool, error)
	BlockExistsOrPruned(hash basics.BlockHash) (bool, error)
	BlockGet(hash basics.BlockHash) (blocktype.BlockAndSideband, error)
	BlockAccount(hash basics.BlockHash) (basics.Account, error)
	BlockBalance(hash basics.BlockHash) (basics.Amount, error)
	BlockAmount(hash basics.BlockHash) (basics.Amount, error)
	BlockHeight(hash basics.BlockHash) (uint64, error)
	BlockSuccessor(hash basics.BlockHash) (basics.BlockHash, error)
	AccountGet(account basics.Account) (basics.AccountInfo, error)
	AccountHead(account basics.Account) (basics.BlockHash, error)
	PendingGet(destination basics.Account, sendHash basics.BlockHash) (basics.PendingInfo, error)
	ReceivableExists(destination basics.Account, sendHash basics.BlockHash) (bool, error)
	// AccountsIterate is the Go rendering of account_begin/account_end:
	// a single ordered traversal rather than a paired iterator handle.
	AccountsIterate(start basics.Account, fn func(account basics.Account, info basics.AccountInfo) (bool, error)) error
}

// Any presents every block known to the store, pruned or not.
type Any struct {
	Txn ledgerstore.Txn
}

var _ View = Any{}

func blockKey(hash basics.BlockHash) []byte { return hash[:] }

func pendingKey(destination basics.Account, sendHash basics.BlockHash) []byte {
	return blocktype.EncodePendingKey(destination, sendHash)
}

// BlockExists implements View.
func (a Any) BlockExists(hash basics.BlockHash) (bool, error) {
	return a.Txn.Table(ledgerstore.TableBlocks).Exists(blockKey(hash))
}

// BlockExistsOrPruned implements View.
func (a Any) BlockExistsOrPruned(hash basics.BlockHash) (bool, error) {
	exists, err := a.BlockExists(hash)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}
	return a.Txn.Table(ledgerstore.TablePruned).Exists(blockKey(hash))
}

// BlockGet implements View.
func (a Any) BlockGet(hash basics.BlockHash) (blocktype.BlockAndSideband, error) {
	raw, err := a.Txn.Table(ledgerstore.TableBlocks).Get(blockKey(hash))
	if err != nil {
		return blocktype.BlockAndSideband{}, err
	}
	return blocktype.DecodeBlockAndSideband(raw)
}

// BlockAccount implements View.
func (a Any) BlockAccount(hash basics.BlockHash) (basics.Account, error) {
	bs, err := a.BlockGet(hash)
	if err != nil {
		return basics.Account{}, err
	}
	return bs.Sideband.Account, nil
}

// BlockBalance implements View.
func (a Any) BlockBalance(hash basics.BlockHash) (basics.Amount, error) {
	bs, err := a.BlockGet(hash)
	if err != nil {
		return basics.Amount{}, err
	}
	return bs.Sideband.Balance, nil
}

// BlockAmount implements View: the balance delta this block applied.
// Positive in both directions; direction is implied by block kind.
// Zero for change blocks and metadata-only epoch upgrades.
func (a Any) BlockAmount(hash basics.BlockHash) (basics.Amount, error) {
	bs, err := a.BlockGet(hash)
	if err != nil {
		return basics.Amount{}, err
	}
	switch block := bs.Block.(type) {
	case blocktype.SendBlock:
		prevBalance, err := a.BlockBalance(block.Previous)
		if err != nil {
			return basics.Amount{}, err
		}
		delta, underflow := prevBalance.Sub(block.Balance)
		if underflow {
			return basics.Amount{}, fmt.Errorf("views: send block %x balance exceeds previous", hash)
		}
		return delta, nil
	case blocktype.ReceiveBlock:
		prevBalance, err := a.BlockBalance(block.Previous)
		if err != nil {
			return basics.Amount{}, err
		}
		delta, underflow := bs.Sideband.Balance.Sub(prevBalance)
		if underflow {
			return basics.Amount{}, fmt.Errorf("views: receive block %x balance below previous", hash)
		}
		return delta, nil
	case blocktype.OpenBlock:
		return bs.Sideband.Balance, nil
	case blocktype.StateBlock:
		if block.Previous.IsZero() {
			return bs.Sideband.Balance, nil
		}
		prevBalance, err := a.BlockBalance(block.Previous)
		if err != nil {
			return basics.Amount{}, err
		}
		if bs.Sideband.Balance.Cmp(prevBalance) >= 0 {
			delta, _ := bs.Sideband.Balance.Sub(prevBalance)
			return delta, nil
		}
		delta, _ := prevBalance.Sub(bs.Sideband.Balance)
		return delta, nil
	default:
		return basics.ZeroAmount, nil
	}
}

// BlockHeight implements View.
func (a Any) BlockHeight(hash basics.BlockHash) (uint64, error) {
	bs, err := a.BlockGet(hash)
	if err != nil {
		return 0, err
	}
	return bs.Sideband.Height, nil
}

// BlockSuccessor implements View.
func (a Any) BlockSuccessor(hash basics.BlockHash) (basics.BlockHash, error) {
	bs, err := a.BlockGet(hash)
	if err != nil {
		return basics.BlockHash{}, err
	}
	return bs.Sideband.Successor, nil
}

// AccountGet implements View.
func (a Any) AccountGet(account basics.Account) (basics.AccountInfo, error) {
	raw, err := a.Txn.Table(ledgerstore.TableAccounts).Get(account[:])
	if err != nil {
		return basics.AccountInfo{}, err
	}
	return blocktype.DecodeAccountInfo(raw)
}

// AccountHead implements View.
func (a Any) AccountHead(account basics.Account) (basics.BlockHash, error) {
	info, err := a.AccountGet(account)
	if err != nil {
		return basics.BlockHash{}, err
	}
	return info.Head, nil
}

// PendingGet implements View.
func (a Any) PendingGet(destination basics.Account, sendHash basics.BlockHash) (basics.PendingInfo, error) {
	raw, err := a.Txn.Table(ledgerstore.TablePending).Get(pendingKey(destination, sendHash))
	if err != nil {
		return basics.PendingInfo{}, err
	}
	return blocktype.DecodePendingInfo(raw)
}

// ReceivableExists implements View.
func (a Any) ReceivableExists(destination basics.Account, sendHash basics.BlockHash) (bool, error) {
	return a.Txn.Table(ledgerstore.TablePending).Exists(pendingKey(destination, sendHash))
}

// AccountsIterate implements View.
func (a Any) AccountsIterate(start basics.Account, fn func(account basics.Account, info basics.AccountInfo) (bool, error)) error {
	return a.Txn.Table(ledgerstore.TableAccounts).Iterate(start[:], func(key, value []byte) (bool, error) {
		var account basics.Account
		copy(account[:], key)
		info, err := blocktype.DecodeAccountInfo(value)
		if err != nil {
			return false, err
		}
		return fn(account, info)
	})
}

// ConfirmationHeight returns account's confirmation height record, the
// zero record if the account has never been cemented.
func ConfirmationHeight(a Any, account basics.Account) (basics.ConfirmationHeightInfo, error) {
	raw, err := a.Txn.Table(ledgerstore.TableConfirmationHeight).Get(account[:])
	if err == ledgerstore.ErrNotFound {
		return basics.ConfirmationHeightInfo{}, nil
	}
	if err != nil {
		return basics.ConfirmationHeightInfo{}, err
	}
	return blocktype.DecodeConfirmationHeight(raw)
}

// RepresentativeAt walks hash's own block, then its predecessors, until
// it reaches an open, change, or state block — the block that fixed the
// representative in effect as of hash. Send and receive blocks carry no
// representative field and are skipped over.
func RepresentativeAt(a Any, hash basics.BlockHash) (basics.Account, error) {
	for {
		bs, err := a.BlockGet(hash)
		if err != nil {
			return basics.Account{}, err
		}
		switch block := bs.Block.(type) {
		case blocktype.OpenBlock:
			return block.Representative, nil
		case blocktype.ChangeBlock:
			return block.Representative, nil
		case blocktype.StateBlock:
			return block.Representative, nil
		case blocktype.SendBlock:
			hash = block.Previous
		case blocktype.ReceiveBlock:
			hash = block.Previous
		default:
			return basics.Account{}, fmt.Errorf("views: unknown block implementation %T", bs.Block)
		}
	}
}

// DependentBlocks returns the (up to two) block hashes whose
// confirmation is a precondition for confirming hash: its predecessor
// on the same account chain, and — for a receive-shaped block — the
// send block it claims. The second slot is the zero hash for sends,
// changes, epoch upgrades, and open-style blocks whose claimed source
// is itself unconditional (nothing to wait on).
func DependentBlocks(a Any, hash basics.BlockHash) (basics.BlockHash, basics.BlockHash, error) {
	bs, err := a.BlockGet(hash)
	if err != nil {
		return basics.BlockHash{}, basics.BlockHash{}, err
	}
	switch block := bs.Block.(type) {
	case blocktype.SendBlock:
		return block.Previous, basics.BlockHash{}, nil
	case blocktype.ReceiveBlock:
		return block.Previous, block.Source, nil
	case blocktype.OpenBlock:
		return basics.BlockHash{}, block.Source, nil
	case blocktype.ChangeBlock:
		return block.Previous, basics.BlockHash{}, nil
	case blocktype.StateBlock:
		if block.Previous.IsZero() {
			if bs.Sideband.Details.IsEpoch {
				return basics.BlockHash{}, basics.BlockHash{}, nil
			}
			return basics.BlockHash{}, block.Link.AsBlockHash(), nil
		}
		if bs.Sideband.Details.IsReceive {
			return block.Previous, block.Link.AsBlockHash(), nil
		}
		return block.Previous, basics.BlockHash{}, nil
	default:
		return basics.BlockHash{}, basics.BlockHash{}, fmt.Errorf("views: unknown block implementation %T", bs.Block)
	}
}

// Confirmed presents only blocks at or below each account's
// confirmation height; everything else is reported not_found even
// though Any would find it.
type Confirmed struct {
	Any Any
}

var _ View = Confirmed{}

func (c Confirmed) confirmationHeight(account basics.Account) (basics.ConfirmationHeightInfo, error) {
	raw, err := c.Any.Txn.Table(ledgerstore.TableConfirmationHeight).Get(account[:])
	if err == ledgerstore.ErrNotFound {
		return basics.ConfirmationHeightInfo{}, nil
	}
	if err != nil {
		return basics.ConfirmationHeightInfo{}, err
	}
	return blocktype.DecodeConfirmationHeight(raw)
}

func (c Confirmed) requireConfirmed(hash basics.BlockHash) error {
	bs, err := c.Any.BlockGet(hash)
	if err != nil {
		return err
	}
	height, err := c.confirmationHeight(bs.Sideband.Account)
	if err != nil {
		return err
	}
	if bs.Sideband.Height > height.Height {
		return ledgerstore.ErrNotFound
	}
	return nil
}

// BlockExists implements View: true only if the block exists in the
// Any view and its height is at or below its account's confirmation
// height.
func (c Confirmed) BlockExists(hash basics.BlockHash) (bool, error) {
	exists, err := c.Any.BlockExists(hash)
	if err != nil || !exists {
		return exists, err
	}
	if err := c.requireConfirmed(hash); err != nil {
		if err == ledgerstore.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// BlockExistsOrPruned implements View.
func (c Confirmed) BlockExistsOrPruned(hash basics.BlockHash) (bool, error) {
	pruned, err := c.Any.Txn.Table(ledgerstore.TablePruned).Exists(blockKey(hash))
	if err != nil {
		return false, err
	}
	if pruned {
		return true, nil
	}
	return c.BlockExists(hash)
}

// BlockGet implements View.
func (c Confirmed) BlockGet(hash basics.BlockHash) (blocktype.BlockAndSideband, error) {
	if err := c.requireConfirmed(hash); err != nil {
		return blocktype.BlockAndSideband{}, err
	}
	return c.Any.BlockGet(hash)
}

// BlockAccount implements View.
func (c Confirmed) BlockAccount(hash basics.BlockHash) (basics.Account, error) {
	bs, err := c.BlockGet(hash)
	if err != nil {
		return basics.Account{}, err
	}
	return bs.Sideband.Account, nil
}

// BlockBalance implements View.
func (c Confirmed) BlockBalance(hash basics.BlockHash) (basics.Amount, error) {
	bs, err := c.BlockGet(hash)
	if err != nil {
		return basics.Amount{}, err
	}
	return bs.Sideband.Balance, nil
}

// BlockAmount implements View.
func (c Confirmed) BlockAmount(hash basics.BlockHash) (basics.Amount, error) {
	if err := c.requireConfirmed(hash); err != nil {
		return basics.Amount{}, err
	}
	return c.Any.BlockAmount(hash)
}

// BlockHeight implements View.
func (c Confirmed) BlockHeight(hash basics.BlockHash) (uint64, error) {
	bs, err := c.BlockGet(hash)
	if err != nil {
		return 0, err
	}
	return bs.Sideband.Height, nil
}

// BlockSuccessor implements View.
func (c Confirmed) BlockSuccessor(hash basics.BlockHash) (basics.BlockHash, error) {
	bs, err := c.BlockGet(hash)
	if err != nil {
		return basics.BlockHash{}, err
	}
	return bs.Sideband.Successor, nil
}

// AccountGet implements View.
func (c Confirmed) AccountGet(account basics.Account) (basics.AccountInfo, error) {
	return c.Any.AccountGet(account)
}

// AccountHead implements View. The confirmed view reports the head as
// of the account's confirmation height, not the live chain head.
func (c Confirmed) AccountHead(account basics.Account) (basics.BlockHash, error) {
	height, err := c.confirmationHeight(account)
	if err != nil {
		return basics.BlockHash{}, err
	}
	return height.FrontierHash, nil
}

// PendingGet implements View.
func (c Confirmed) PendingGet(destination basics.Account, sendHash basics.BlockHash) (basics.PendingInfo, error) {
	if err := c.requireConfirmed(sendHash); err != nil {
		return basics.PendingInfo{}, err
	}
	return c.Any.PendingGet(destination, sendHash)
}

// ReceivableExists implements View.
func (c Confirmed) ReceivableExists(destination basics.Account, sendHash basics.BlockHash) (bool, error) {
	if err := c.requireConfirmed(sendHash); err != nil {
		if err == ledgerstore.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return c.Any.ReceivableExists(destination, sendHash)
}

// AccountsIterate implements View.
func (c Confirmed) AccountsIterate(start basics.Account, fn func(account basics.Account, info basics.AccountInfo) (bool, error)) error {
	return c.Any.AccountsIterate(start, fn)
}
