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

// Package processor is the ledger processor: it dispatches an inbound
// block on its kind, runs the common gap/fork/signature/work checks
// followed by the kind-specific accounting rules, and — only on a
// StatusProgress outcome — mutates blocks, accounts, pending and
// rep_weights within the caller's write transaction.
//
// The caller owns the write transaction and the writequeue lane guard
// around it; Process never commits or aborts txn itself.
package processor

import (
	"fmt"

	"github.com/blocklattice/ledger/crypto"
	"github.com/blocklattice/ledger/data/basics"
	"github.com/blocklattice/ledger/ledger/blocktype"
	"github.com/blocklattice/ledger/ledger/ledgercore"
	"github.com/blocklattice/ledger/ledger/ledgerstore"
	"github.com/blocklattice/ledger/ledger/repweight"
	"github.com/blocklattice/ledger/ledger/views"
	"github.com/blocklattice/ledger/ledger/workverifier"
	"github.com/blocklattice/ledger/logging"
)

// Processor applies the spec's common check order and kind-specific
// accounting rules to one block at a time.
type Processor struct {
	params  ledgercore.Params
	weights *repweight.Index
	log     logging.Logger
}

// New returns a Processor. weights is mutated in place by every
// successfully applied block; callers share one Index across every
// Processor built over the same store.
func New(params ledgercore.Params, weights *repweight.Index, log logging.Logger) *Processor {
	return &Processor{params: params, weights: weights, log: log}
}

// result is the outcome of a single kind handler: StatusProgress once
// the handler has written its block, or the rejection status that
// stopped it before any write.
type result struct {
	status ledgercore.BlockStatus
}

func ok() result { return result{status: ledgercore.StatusProgress} }

func reject(status ledgercore.BlockStatus) result { return result{status: status} }

// Process validates and, on success, applies block as of wall-clock time
// now (unix seconds). It returns StatusProgress on success; any other
// status means block was rejected and txn was not mutated on its
// behalf. A non-nil error indicates a store I/O failure, not a
// validation rejection — those are always reported via status.
func (p *Processor) Process(txn ledgerstore.Txn, block blocktype.Block, now uint64) (ledgercore.BlockStatus, error) {
	hash := block.Hash()
	v := views.Any{Txn: txn}

	already, err := v.BlockExistsOrPruned(hash)
	if err != nil {
		return ledgercore.StatusInvalid, err
	}
	if already {
		return ledgercore.StatusOld, nil
	}

	var res result
	switch b := block.(type) {
	case blocktype.SendBlock:
		res, err = p.processSend(txn, v, hash, b, now)
	case blocktype.ReceiveBlock:
		res, err = p.processReceive(txn, v, hash, b, now)
	case blocktype.OpenBlock:
		res, err = p.processOpen(txn, v, hash, b, now)
	case blocktype.ChangeBlock:
		res, err = p.processChange(txn, v, hash, b, now)
	case blocktype.StateBlock:
		res, err = p.processState(txn, v, hash, b, now)
	default:
		return ledgercore.StatusInvalid, fmt.Errorf("processor: unknown block implementation %T", block)
	}
	if err != nil {
		return ledgercore.StatusInvalid, err
	}
	if p.log != nil && !res.status.IsProgress() {
		p.log.Debugf("processor: block %x rejected: %s", hash, res.status)
	}
	return res.status, nil
}

// legalLegacyPredecessor reports whether a legacy (non-state) block may
// follow a block of kind prevKind. An account that has upgraded to state
// blocks never returns to the legacy wire format.
func legalLegacyPredecessor(prevKind blocktype.Kind) bool {
	return prevKind != blocktype.KindState
}

// setSuccessor rewrites prevHash's stored sideband to point its
// Successor field at newHash, preserving every other field.
func setSuccessor(txn ledgerstore.Txn, v views.Any, prevHash, newHash basics.BlockHash) error {
	bs, err := v.BlockGet(prevHash)
	if err != nil {
		return err
	}
	bs.Sideband.Successor = newHash
	encoded, err := blocktype.EncodeBlockAndSideband(bs)
	if err != nil {
		return err
	}
	return txn.Table(ledgerstore.TableBlocks).Put(prevHash[:], encoded)
}

func putBlockAndSideband(txn ledgerstore.Txn, hash basics.BlockHash, bs blocktype.BlockAndSideband) error {
	encoded, err := blocktype.EncodeBlockAndSideband(bs)
	if err != nil {
		return err
	}
	return txn.Table(ledgerstore.TableBlocks).Put(hash[:], encoded)
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

// verifySignature checks sig over hash under signer, treating signer as
// a raw Ed25519 public key regardless of whether it names an account's
// own key or the configured epoch signer.
func verifySignature(signer basics.Account, hash basics.BlockHash, sig basics.Signature) bool {
	return crypto.PublicKey(signer).Verify(hash[:], sig)
}

// processSend applies the legacy send check order and accounting.
func (p *Processor) processSend(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, b blocktype.SendBlock, now uint64) (result, error) {
	prev, err := v.BlockGet(b.Previous)
	if err == ledgerstore.ErrNotFound {
		return reject(ledgercore.StatusGapPrevious), nil
	}
	if err != nil {
		return result{}, err
	}
	account := prev.Sideband.Account
	accountInfo, err := v.AccountGet(account)
	if err != nil {
		return result{}, err
	}
	if accountInfo.Head != b.Previous {
		return reject(ledgercore.StatusFork), nil
	}
	if !legalLegacyPredecessor(prev.Block.Kind()) {
		return reject(ledgercore.StatusBlockPosition), nil
	}
	if !verifySignature(account, hash, b.Sig) {
		return reject(ledgercore.StatusBadSignature), nil
	}
	epoch := prev.Sideband.Details.Epoch
	root := b.Previous
	if !workverifier.Verify(b.Nonce, [32]byte(root), p.params.ThresholdsFor(epoch).Send) {
		return reject(ledgercore.StatusInsufficientWork), nil
	}

	prevBalance := accountInfo.Balance
	if b.Balance.Cmp(prevBalance) >= 0 {
		return reject(ledgercore.StatusNegativeSpend), nil
	}
	amount, _ := prevBalance.Sub(b.Balance)

	if err := putPending(txn, b.Destination, hash, basics.PendingInfo{Source: account, Amount: amount, Epoch: basics.Epoch0}); err != nil {
		return result{}, err
	}
	if err := p.weights.Sub(txn, accountInfo.Representative, amount); err != nil {
		return result{}, err
	}

	accountInfo.Head = hash
	accountInfo.Balance = b.Balance
	accountInfo.BlockCount++
	accountInfo.Modified = now
	if err := putAccountInfo(txn, account, accountInfo); err != nil {
		return result{}, err
	}
	if err := setSuccessor(txn, v, b.Previous, hash); err != nil {
		return result{}, err
	}
	sideband := blocktype.Sideband{
		Account:   account,
		Height:    accountInfo.BlockCount,
		Balance:   b.Balance,
		Timestamp: now,
		Details:   blocktype.Details{Epoch: epoch, IsSend: true},
	}
	if err := putBlockAndSideband(txn, hash, blocktype.BlockAndSideband{Block: b, Sideband: sideband}); err != nil {
		return result{}, err
	}
	return ok(), nil
}

// processReceive applies the legacy receive check order and accounting.
func (p *Processor) processReceive(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, b blocktype.ReceiveBlock, now uint64) (result, error) {
	prev, err := v.BlockGet(b.Previous)
	if err == ledgerstore.ErrNotFound {
		return reject(ledgercore.StatusGapPrevious), nil
	}
	if err != nil {
		return result{}, err
	}
	account := prev.Sideband.Account
	accountInfo, err := v.AccountGet(account)
	if err != nil {
		return result{}, err
	}
	if accountInfo.Head != b.Previous {
		return reject(ledgercore.StatusFork), nil
	}
	if !legalLegacyPredecessor(prev.Block.Kind()) {
		return reject(ledgercore.StatusBlockPosition), nil
	}
	if !verifySignature(account, hash, b.Sig) {
		return reject(ledgercore.StatusBadSignature), nil
	}
	epoch := prev.Sideband.Details.Epoch
	if !workverifier.Verify(b.Nonce, [32]byte(b.Previous), p.params.ThresholdsFor(epoch).Base) {
		return reject(ledgercore.StatusInsufficientWork), nil
	}

	pending, err := v.PendingGet(account, b.Source)
	if err == ledgerstore.ErrNotFound {
		return reject(ledgercore.StatusUnreceivable), nil
	}
	if err != nil {
		return result{}, err
	}
	if pending.Epoch != basics.Epoch0 {
		return reject(ledgercore.StatusUnreceivable), nil
	}

	newBalance, overflow := accountInfo.Balance.Add(pending.Amount)
	if overflow {
		return reject(ledgercore.StatusInvalid), nil
	}
	if err := deletePending(txn, account, b.Source); err != nil {
		return result{}, err
	}
	if err := p.weights.Add(txn, accountInfo.Representative, pending.Amount); err != nil {
		return result{}, err
	}

	accountInfo.Head = hash
	accountInfo.Balance = newBalance
	accountInfo.BlockCount++
	accountInfo.Modified = now
	if err := putAccountInfo(txn, account, accountInfo); err != nil {
		return result{}, err
	}
	if err := setSuccessor(txn, v, b.Previous, hash); err != nil {
		return result{}, err
	}
	sideband := blocktype.Sideband{
		Account:     account,
		Height:      accountInfo.BlockCount,
		Balance:     newBalance,
		Timestamp:   now,
		Details:     blocktype.Details{Epoch: epoch, IsReceive: true},
		SourceEpoch: pending.Epoch,
	}
	if err := putBlockAndSideband(txn, hash, blocktype.BlockAndSideband{Block: b, Sideband: sideband}); err != nil {
		return result{}, err
	}
	return ok(), nil
}

// processOpen applies the legacy open check order and accounting.
func (p *Processor) processOpen(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, b blocktype.OpenBlock, now uint64) (result, error) {
	if b.Account.IsZero() {
		return reject(ledgercore.StatusOpenedBurnAccount), nil
	}
	_, err := v.AccountGet(b.Account)
	if err == nil {
		return reject(ledgercore.StatusFork), nil
	}
	if err != ledgerstore.ErrNotFound {
		return result{}, err
	}
	if !verifySignature(b.Account, hash, b.Sig) {
		return reject(ledgercore.StatusBadSignature), nil
	}
	if !workverifier.Verify(b.Nonce, [32]byte(b.Account), p.params.ThresholdsFor(basics.Epoch0).Base) {
		return reject(ledgercore.StatusInsufficientWork), nil
	}

	pending, err := v.PendingGet(b.Account, b.Source)
	if err == ledgerstore.ErrNotFound {
		return reject(ledgercore.StatusGapSource), nil
	}
	if err != nil {
		return result{}, err
	}
	if pending.Epoch != basics.Epoch0 {
		return reject(ledgercore.StatusUnreceivable), nil
	}

	if err := deletePending(txn, b.Account, b.Source); err != nil {
		return result{}, err
	}
	if err := p.weights.Add(txn, b.Representative, pending.Amount); err != nil {
		return result{}, err
	}

	accountInfo := basics.AccountInfo{
		Head:           hash,
		Open:           hash,
		Representative: b.Representative,
		Balance:        pending.Amount,
		Modified:       now,
		BlockCount:     1,
		Epoch:          basics.Epoch0,
	}
	if err := putAccountInfo(txn, b.Account, accountInfo); err != nil {
		return result{}, err
	}
	sideband := blocktype.Sideband{
		Account:   b.Account,
		Height:    1,
		Balance:   pending.Amount,
		Timestamp: now,
		Details:   blocktype.Details{Epoch: basics.Epoch0, IsReceive: true},
	}
	if err := putBlockAndSideband(txn, hash, blocktype.BlockAndSideband{Block: b, Sideband: sideband}); err != nil {
		return result{}, err
	}
	return ok(), nil
}

// processChange applies the legacy change check order and accounting.
func (p *Processor) processChange(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, b blocktype.ChangeBlock, now uint64) (result, error) {
	prev, err := v.BlockGet(b.Previous)
	if err == ledgerstore.ErrNotFound {
		return reject(ledgercore.StatusGapPrevious), nil
	}
	if err != nil {
		return result{}, err
	}
	account := prev.Sideband.Account
	accountInfo, err := v.AccountGet(account)
	if err != nil {
		return result{}, err
	}
	if accountInfo.Head != b.Previous {
		return reject(ledgercore.StatusFork), nil
	}
	if !legalLegacyPredecessor(prev.Block.Kind()) {
		return reject(ledgercore.StatusBlockPosition), nil
	}
	if !verifySignature(account, hash, b.Sig) {
		return reject(ledgercore.StatusBadSignature), nil
	}
	epoch := prev.Sideband.Details.Epoch
	if !workverifier.Verify(b.Nonce, [32]byte(b.Previous), p.params.ThresholdsFor(epoch).Base) {
		return reject(ledgercore.StatusInsufficientWork), nil
	}

	if err := p.weights.Move(txn, accountInfo.Representative, b.Representative, accountInfo.Balance); err != nil {
		return result{}, err
	}
	balance := accountInfo.Balance
	accountInfo.Representative = b.Representative
	accountInfo.Head = hash
	accountInfo.BlockCount++
	accountInfo.Modified = now
	if err := putAccountInfo(txn, account, accountInfo); err != nil {
		return result{}, err
	}
	if err := setSuccessor(txn, v, b.Previous, hash); err != nil {
		return result{}, err
	}
	sideband := blocktype.Sideband{
		Account:   account,
		Height:    accountInfo.BlockCount,
		Balance:   balance,
		Timestamp: now,
		Details:   blocktype.Details{Epoch: epoch},
	}
	if err := putBlockAndSideband(txn, hash, blocktype.BlockAndSideband{Block: b, Sideband: sideband}); err != nil {
		return result{}, err
	}
	return ok(), nil
}

// processState dispatches a state block to one of its six derived
// sub-kinds: epoch-open, receive-open, send, receive, change, or epoch
// upgrade, based on (previous balance, link, is-epoch-link).
func (p *Processor) processState(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, b blocktype.StateBlock, now uint64) (result, error) {
	if b.Previous.IsZero() {
		if epoch, isEpochMarker := p.params.EpochMarker(b.Link); isEpochMarker {
			return p.processStateEpochOpen(txn, v, hash, b, now, epoch)
		}
		return p.processStateOpen(txn, v, hash, b, now)
	}

	prev, err := v.BlockGet(b.Previous)
	if err == ledgerstore.ErrNotFound {
		return reject(ledgercore.StatusGapPrevious), nil
	}
	if err != nil {
		return result{}, err
	}
	if prev.Sideband.Account != b.Account {
		return reject(ledgercore.StatusFork), nil
	}
	accountInfo, err := v.AccountGet(b.Account)
	if err != nil {
		return result{}, err
	}
	if accountInfo.Head != b.Previous {
		return reject(ledgercore.StatusFork), nil
	}

	prevBalance := accountInfo.Balance
	// An unchanged balance with a non-zero link is epoch-shaped: either an
	// epoch upgrade, whose signature processStateEpochUpgrade checks
	// against the epoch signer, or a block_position rejection below.
	epochShaped := b.Balance.Cmp(prevBalance) == 0 && !b.Link.IsZero()
	if !epochShaped && !verifySignature(b.Account, hash, b.Sig) {
		return reject(ledgercore.StatusBadSignature), nil
	}
	switch {
	case b.Balance.Cmp(prevBalance) < 0:
		return p.processStateSend(txn, v, hash, b, now, accountInfo, prevBalance)
	case b.Balance.Cmp(prevBalance) > 0:
		return p.processStateReceive(txn, v, hash, b, now, accountInfo, prevBalance)
	case b.Link.IsZero():
		return p.processStateChange(txn, v, hash, b, now, accountInfo, prevBalance)
	default:
		if epoch, isEpochMarker := p.params.EpochMarker(b.Link); isEpochMarker {
			return p.processStateEpochUpgrade(txn, v, hash, b, now, accountInfo, prevBalance, epoch)
		}
		return reject(ledgercore.StatusBlockPosition), nil
	}
}

// processStateOpen handles previous==0 with a non-marker link: opening
// an account by claiming a pending entry, the state-block equivalent of
// a legacy open.
func (p *Processor) processStateOpen(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, b blocktype.StateBlock, now uint64) (result, error) {
	if b.Account.IsZero() {
		return reject(ledgercore.StatusOpenedBurnAccount), nil
	}
	if b.Link.IsZero() {
		return reject(ledgercore.StatusGapSource), nil
	}
	_, err := v.AccountGet(b.Account)
	if err == nil {
		return reject(ledgercore.StatusFork), nil
	}
	if err != ledgerstore.ErrNotFound {
		return result{}, err
	}
	if !verifySignature(b.Account, hash, b.Sig) {
		return reject(ledgercore.StatusBadSignature), nil
	}
	if !workverifier.Verify(b.Nonce, [32]byte(b.Account), p.params.ThresholdsFor(basics.Epoch0).Base) {
		return reject(ledgercore.StatusInsufficientWork), nil
	}

	sourceHash := b.Link.AsBlockHash()
	pending, err := v.PendingGet(b.Account, sourceHash)
	if err == ledgerstore.ErrNotFound {
		return reject(ledgercore.StatusGapSource), nil
	}
	if err != nil {
		return result{}, err
	}
	if pending.Amount != b.Balance {
		return reject(ledgercore.StatusBalanceMismatch), nil
	}

	epoch := pending.Epoch
	if err := deletePending(txn, b.Account, sourceHash); err != nil {
		return result{}, err
	}
	if err := p.weights.Add(txn, b.Representative, b.Balance); err != nil {
		return result{}, err
	}

	accountInfo := basics.AccountInfo{
		Head:           hash,
		Open:           hash,
		Representative: b.Representative,
		Balance:        b.Balance,
		Modified:       now,
		BlockCount:     1,
		Epoch:          epoch,
	}
	if err := putAccountInfo(txn, b.Account, accountInfo); err != nil {
		return result{}, err
	}
	sideband := blocktype.Sideband{
		Account:     b.Account,
		Height:      1,
		Balance:     b.Balance,
		Timestamp:   now,
		Details:     blocktype.Details{Epoch: epoch, IsReceive: true},
		SourceEpoch: pending.Epoch,
	}
	if err := putBlockAndSideband(txn, hash, blocktype.BlockAndSideband{Block: b, Sideband: sideband}); err != nil {
		return result{}, err
	}
	return ok(), nil
}

// processStateEpochOpen handles previous==0 with an epoch-marker link:
// asserting an epoch upgrade on an account that has never held a
// balance. It requires at least one receivable already exists for the
// account (otherwise there is nothing preventing a spurious epoch-open
// on an account nobody has ever sent to) but does not consume it.
func (p *Processor) processStateEpochOpen(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, b blocktype.StateBlock, now uint64, epoch basics.Epoch) (result, error) {
	if b.Account.IsZero() {
		return reject(ledgercore.StatusOpenedBurnAccount), nil
	}
	if !b.Balance.IsZero() {
		return reject(ledgercore.StatusBalanceMismatch), nil
	}
	if epoch < basics.Epoch1 {
		return reject(ledgercore.StatusBlockPosition), nil
	}
	_, err := v.AccountGet(b.Account)
	if err == nil {
		return reject(ledgercore.StatusFork), nil
	}
	if err != ledgerstore.ErrNotFound {
		return result{}, err
	}
	if !b.Representative.IsZero() {
		return reject(ledgercore.StatusRepresentativeMismatch), nil
	}
	signer, hasSigner := p.params.EpochSigners[epoch]
	if !hasSigner {
		return reject(ledgercore.StatusBlockPosition), nil
	}
	if !verifySignature(signer, hash, b.Sig) {
		return reject(ledgercore.StatusBadSignature), nil
	}
	hasReceivable, err := p.accountHasReceivable(txn, b.Account)
	if err != nil {
		return result{}, err
	}
	if !hasReceivable {
		return reject(ledgercore.StatusGapEpochOpenPending), nil
	}

	accountInfo := basics.AccountInfo{
		Head:       hash,
		Open:       hash,
		Balance:    basics.ZeroAmount,
		Modified:   now,
		BlockCount: 1,
		Epoch:      epoch,
	}
	if err := putAccountInfo(txn, b.Account, accountInfo); err != nil {
		return result{}, err
	}
	sideband := blocktype.Sideband{
		Account:   b.Account,
		Height:    1,
		Balance:   basics.ZeroAmount,
		Timestamp: now,
		Details:   blocktype.Details{Epoch: epoch, IsEpoch: true},
	}
	if err := putBlockAndSideband(txn, hash, blocktype.BlockAndSideband{Block: b, Sideband: sideband}); err != nil {
		return result{}, err
	}
	return ok(), nil
}

// accountHasReceivable reports whether at least one pending entry names
// account as its destination. Pending keys are (destination ‖ send
// hash), so every key prefixed by account's bytes is such an entry.
func (p *Processor) accountHasReceivable(txn ledgerstore.Txn, account basics.Account) (bool, error) {
	found := false
	err := txn.Table(ledgerstore.TablePending).Iterate(account[:], func(key, _ []byte) (bool, error) {
		destination, _, derr := blocktype.DecodePendingKey(key)
		if derr != nil {
			return false, derr
		}
		if destination != account {
			return false, nil
		}
		found = true
		return false, nil
	})
	return found, err
}

// processStateSend handles balance < prev_balance: a state-block send.
func (p *Processor) processStateSend(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, b blocktype.StateBlock, now uint64, accountInfo basics.AccountInfo, prevBalance basics.Amount) (result, error) {
	if !workverifier.Verify(b.Nonce, [32]byte(b.Previous), p.params.ThresholdsFor(accountInfo.Epoch).Send) {
		return reject(ledgercore.StatusInsufficientWork), nil
	}
	amount, _ := prevBalance.Sub(b.Balance)
	destination := b.Link.AsAccount()

	if err := putPending(txn, destination, hash, basics.PendingInfo{Source: b.Account, Amount: amount, Epoch: accountInfo.Epoch}); err != nil {
		return result{}, err
	}
	if err := p.weights.MoveAddSub(txn, b.Representative, b.Balance, accountInfo.Representative, prevBalance); err != nil {
		return result{}, err
	}

	accountInfo.Head = hash
	accountInfo.Balance = b.Balance
	accountInfo.Representative = b.Representative
	accountInfo.BlockCount++
	accountInfo.Modified = now
	if err := putAccountInfo(txn, b.Account, accountInfo); err != nil {
		return result{}, err
	}
	if err := setSuccessor(txn, v, b.Previous, hash); err != nil {
		return result{}, err
	}
	sideband := blocktype.Sideband{
		Account:   b.Account,
		Height:    accountInfo.BlockCount,
		Balance:   b.Balance,
		Timestamp: now,
		Details:   blocktype.Details{Epoch: accountInfo.Epoch, IsSend: true},
	}
	if err := putBlockAndSideband(txn, hash, blocktype.BlockAndSideband{Block: b, Sideband: sideband}); err != nil {
		return result{}, err
	}
	return ok(), nil
}

// processStateReceive handles balance > prev_balance: a state-block
// receive.
func (p *Processor) processStateReceive(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, b blocktype.StateBlock, now uint64, accountInfo basics.AccountInfo, prevBalance basics.Amount) (result, error) {
	if !workverifier.Verify(b.Nonce, [32]byte(b.Previous), p.params.ThresholdsFor(accountInfo.Epoch).Base) {
		return reject(ledgercore.StatusInsufficientWork), nil
	}
	if b.Link.IsZero() {
		return reject(ledgercore.StatusGapSource), nil
	}
	sourceHash := b.Link.AsBlockHash()
	pending, err := v.PendingGet(b.Account, sourceHash)
	if err == ledgerstore.ErrNotFound {
		return reject(ledgercore.StatusGapSource), nil
	}
	if err != nil {
		return result{}, err
	}
	delta, _ := b.Balance.Sub(prevBalance)
	if delta != pending.Amount {
		return reject(ledgercore.StatusBalanceMismatch), nil
	}

	newEpoch := accountInfo.Epoch
	if pending.Epoch > newEpoch {
		newEpoch = pending.Epoch
	}
	if err := deletePending(txn, b.Account, sourceHash); err != nil {
		return result{}, err
	}
	if err := p.weights.MoveAddSub(txn, b.Representative, b.Balance, accountInfo.Representative, prevBalance); err != nil {
		return result{}, err
	}

	accountInfo.Head = hash
	accountInfo.Balance = b.Balance
	accountInfo.Representative = b.Representative
	accountInfo.Epoch = newEpoch
	accountInfo.BlockCount++
	accountInfo.Modified = now
	if err := putAccountInfo(txn, b.Account, accountInfo); err != nil {
		return result{}, err
	}
	if err := setSuccessor(txn, v, b.Previous, hash); err != nil {
		return result{}, err
	}
	sideband := blocktype.Sideband{
		Account:     b.Account,
		Height:      accountInfo.BlockCount,
		Balance:     b.Balance,
		Timestamp:   now,
		Details:     blocktype.Details{Epoch: newEpoch, IsReceive: true},
		SourceEpoch: pending.Epoch,
	}
	if err := putBlockAndSideband(txn, hash, blocktype.BlockAndSideband{Block: b, Sideband: sideband}); err != nil {
		return result{}, err
	}
	return ok(), nil
}

// processStateChange handles balance == prev_balance with a zero link:
// representative change only.
func (p *Processor) processStateChange(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, b blocktype.StateBlock, now uint64, accountInfo basics.AccountInfo, prevBalance basics.Amount) (result, error) {
	if !workverifier.Verify(b.Nonce, [32]byte(b.Previous), p.params.ThresholdsFor(accountInfo.Epoch).Base) {
		return reject(ledgercore.StatusInsufficientWork), nil
	}

	if err := p.weights.Move(txn, accountInfo.Representative, b.Representative, prevBalance); err != nil {
		return result{}, err
	}
	accountInfo.Head = hash
	accountInfo.Representative = b.Representative
	accountInfo.BlockCount++
	accountInfo.Modified = now
	if err := putAccountInfo(txn, b.Account, accountInfo); err != nil {
		return result{}, err
	}
	if err := setSuccessor(txn, v, b.Previous, hash); err != nil {
		return result{}, err
	}
	sideband := blocktype.Sideband{
		Account:   b.Account,
		Height:    accountInfo.BlockCount,
		Balance:   prevBalance,
		Timestamp: now,
		Details:   blocktype.Details{Epoch: accountInfo.Epoch},
	}
	if err := putBlockAndSideband(txn, hash, blocktype.BlockAndSideband{Block: b, Sideband: sideband}); err != nil {
		return result{}, err
	}
	return ok(), nil
}

// processStateEpochUpgrade handles balance == prev_balance with a
// non-zero link matching a configured epoch marker, on an already
// opened account.
func (p *Processor) processStateEpochUpgrade(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash, b blocktype.StateBlock, now uint64, accountInfo basics.AccountInfo, prevBalance basics.Amount, epoch basics.Epoch) (result, error) {
	if epoch != accountInfo.Epoch+1 {
		return reject(ledgercore.StatusBlockPosition), nil
	}
	if b.Representative != accountInfo.Representative {
		return reject(ledgercore.StatusRepresentativeMismatch), nil
	}
	signer, haveSigner := p.params.EpochSigners[epoch]
	if !haveSigner {
		return reject(ledgercore.StatusBlockPosition), nil
	}
	if !verifySignature(signer, hash, b.Sig) {
		return reject(ledgercore.StatusBadSignature), nil
	}
	if !workverifier.Verify(b.Nonce, [32]byte(b.Previous), p.params.ThresholdsFor(accountInfo.Epoch).Base) {
		return reject(ledgercore.StatusInsufficientWork), nil
	}

	accountInfo.Head = hash
	accountInfo.Epoch = epoch
	accountInfo.BlockCount++
	accountInfo.Modified = now
	if err := putAccountInfo(txn, b.Account, accountInfo); err != nil {
		return result{}, err
	}
	if err := setSuccessor(txn, v, b.Previous, hash); err != nil {
		return result{}, err
	}
	sideband := blocktype.Sideband{
		Account:   b.Account,
		Height:    accountInfo.BlockCount,
		Balance:   prevBalance,
		Timestamp: now,
		Details:   blocktype.Details{Epoch: epoch, IsEpoch: true},
	}
	if err := putBlockAndSideband(txn, hash, blocktype.BlockAndSideband{Block: b, Sideband: sideband}); err != nil {
		return result{}, err
	}
	return ok(), nil
}
