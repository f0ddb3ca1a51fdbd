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

// Package facade assembles the Store Contract, write queue, rep-weights
// index, and the three mutating engines (processor, rollback,
// cementation) behind the single top-level surface external callers
// drive: process, rollback, confirm, prune, plus the read-only queries
// and the one-shot backend migration.
package facade

import (
	"context"
	"fmt"
	"math/big"

	"github.com/blocklattice/ledger/config"
	"github.com/blocklattice/ledger/data/basics"
	"github.com/blocklattice/ledger/ledger/blocktype"
	"github.com/blocklattice/ledger/ledger/cementation"
	"github.com/blocklattice/ledger/ledger/ledgercore"
	"github.com/blocklattice/ledger/ledger/ledgerstore"
	"github.com/blocklattice/ledger/ledger/ledgerstore/btreestore"
	"github.com/blocklattice/ledger/ledger/ledgerstore/lsmstore"
	"github.com/blocklattice/ledger/ledger/processor"
	"github.com/blocklattice/ledger/ledger/repweight"
	"github.com/blocklattice/ledger/ledger/rollback"
	"github.com/blocklattice/ledger/ledger/views"
	"github.com/blocklattice/ledger/ledger/writequeue"
	"github.com/blocklattice/ledger/logging"
	"github.com/blocklattice/ledger/util"
)

// Facade is the assembled ledger engine. Every mutating method acquires
// the write queue lane appropriate to its operation before opening a
// write transaction, so callers never need to reason about the writer
// lanes themselves.
type Facade struct {
	store  ledgerstore.Store
	queue  *writequeue.Queue
	weights *repweight.Index
	caches *ledgercore.Caches
	params ledgercore.Params

	proc   *processor.Processor
	roll   *rollback.Engine
	cement *cementation.Engine

	log logging.Logger
}

// Open opens the backend named by cfg.DatabaseBackend at path (an
// in-memory database when dbMem is set), loads the rep-weights index
// from the durable table, and assembles the three mutating engines. The
// caches named by cfg.GenerateCacheFlags are seeded by a single linear
// scan over the relevant tables; a flag left false leaves that counter
// starting from zero, and Process, Rollback and cementation still
// adjust it afterwards. The pruned count is always loaded.
func Open(ctx context.Context, cfg config.Local, path string, dbMem bool, params ledgercore.Params, log logging.Logger) (*Facade, error) {
	if log != nil && cfg.LogFilePath != "" {
		log.SetOutput(logging.MakeCyclicFileWriter(cfg.LogFilePath, cfg.LogArchiveFilePath, cfg.LogSizeLimit))
	}

	store, err := openBackend(cfg.DatabaseBackend, path, dbMem, log)
	if err != nil {
		return nil, err
	}

	minWeight, err := parseAmount(cfg.MinRepWeightRaw)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("facade: parsing min_rep_weight %q: %w", cfg.MinRepWeightRaw, err)
	}
	weights := repweight.New(minWeight)

	f := &Facade{
		store:   store,
		queue:   writequeue.New(),
		weights: weights,
		caches:  &ledgercore.Caches{},
		params:  params,
		log:     log,
	}
	f.proc = processor.New(params, weights, log)
	f.roll = rollback.New(params, weights, log)
	f.cement = cementation.New(params, f.caches, log)

	txn, err := store.BeginRead(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	defer txn.Abort()

	if err := weights.LoadFromStore(txn); err != nil {
		store.Close()
		return nil, fmt.Errorf("facade: loading rep weights: %w", err)
	}
	if err := txn.Table(ledgerstore.TablePending).Iterate(nil, func(_, value []byte) (bool, error) {
		info, err := blocktype.DecodePendingInfo(value)
		if err != nil {
			return false, err
		}
		return true, weights.PutUnused(info.Amount)
	}); err != nil {
		store.Close()
		return nil, fmt.Errorf("facade: loading unused weight: %w", err)
	}
	if err := f.generateCaches(txn, cfg.GenerateCacheFlags); err != nil {
		store.Close()
		return nil, fmt.Errorf("facade: generating caches: %w", err)
	}
	if cfg.ConsistencyCheck {
		if err := f.checkConsistency(txn); err != nil {
			store.Close()
			return nil, err
		}
	}
	return f, nil
}

// parseAmount decodes a base-10 string (config.Local stores
// min_rep_weight this way, since a raw uint64 pair would not round-trip
// through JSON) into an Amount, rejecting negative values and anything
// wider than 128 bits.
func parseAmount(raw string) (basics.Amount, error) {
	if raw == "" {
		return basics.ZeroAmount, nil
	}
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return basics.Amount{}, fmt.Errorf("not a base-10 integer")
	}
	if n.Sign() < 0 {
		return basics.Amount{}, fmt.Errorf("negative amount")
	}
	if n.BitLen() > 128 {
		return basics.Amount{}, fmt.Errorf("exceeds 128 bits")
	}
	mask64 := new(big.Int).SetUint64(^uint64(0))
	lo := new(big.Int).And(n, mask64).Uint64()
	hi := new(big.Int).Rsh(n, 64).Uint64()
	return basics.Amount{Hi: hi, Lo: lo}, nil
}

func openBackend(backend config.DatabaseBackend, path string, dbMem bool, log logging.Logger) (ledgerstore.Store, error) {
	if log != nil && !dbMem {
		if util.FileExists(path) {
			log.Infof("facade: reopening existing ledger store at %s", path)
		} else {
			log.Infof("facade: creating new ledger store at %s", path)
		}
	}
	switch backend {
	case config.DatabaseBackendBtreeMmap, "":
		return btreestore.Open(path, dbMem, log)
	case config.DatabaseBackendLSM:
		return lsmstore.Open(path, dbMem, 1, log)
	default:
		return nil, fmt.Errorf("facade: unknown database backend %q", backend)
	}
}

// generateCaches recomputes whichever counters cfg requests by a single
// table scan each. Rep weights are already loaded by the time this
// runs, so the committed-weight flag is served from the index rather
// than a second pass over rep_weights.
func (f *Facade) generateCaches(txn ledgerstore.Txn, flags config.CacheFlags) error {
	if flags.BlockCount {
		n, err := txn.Table(ledgerstore.TableBlocks).Count()
		if err != nil {
			return err
		}
		f.caches.BlockCount.Store(n)
	}
	if flags.AccountCount {
		n, err := txn.Table(ledgerstore.TableAccounts).Count()
		if err != nil {
			return err
		}
		f.caches.AccountCount.Store(n)
	}
	if flags.CementedCount {
		var n uint64
		err := txn.Table(ledgerstore.TableConfirmationHeight).Iterate(nil, func(_, value []byte) (bool, error) {
			info, err := blocktype.DecodeConfirmationHeight(value)
			if err != nil {
				return false, err
			}
			n += info.Height
			return true, nil
		})
		if err != nil {
			return err
		}
		f.caches.CementedCount.Store(n)
	}
	n, err := txn.Table(ledgerstore.TablePruned).Count()
	if err != nil {
		return err
	}
	f.caches.PrunedCount.Store(n)
	return nil
}

// checkConsistency runs the rep-weights index's durable-vs-cached sum
// check: the committed total recomputed from rep_weights must equal the
// cached committed total. The expected grand total it passes is the
// index's own committed plus unused, so VerifyConsistency's second
// comparison holds by construction; no genesis amount is consulted.
func (f *Facade) checkConsistency(txn ledgerstore.Txn) error {
	total := f.weights.GetWeightCommitted()
	unused := f.weights.GetWeightUnused()
	grandTotal, ok := total.Add(unused)
	if !ok {
		return fmt.Errorf("facade: consistency check: committed+unused overflow")
	}
	return f.weights.VerifyConsistency(txn, grandTotal)
}

// Close releases the underlying store. The Facade must not be used
// afterward.
func (f *Facade) Close() error {
	return f.store.Close()
}

// Caches exposes the four eventually-consistent counters for callers
// that want to report them (metrics, telemetry) without reaching into
// the facade's internals.
func (f *Facade) Caches() *ledgercore.Caches { return f.caches }

// BacklogSize returns the soft upper bound an external scheduler should
// enforce on the unconfirmed-block count: cfg.MaxBacklogSize, widened by
// cfg.BootstrapWeightMaxBlocks minus the current cemented count while
// the ledger is still bootstrapping. 0 means unlimited regardless of
// the bootstrap allowance.
func (f *Facade) BacklogSize(cfg config.Local) uint64 {
	if cfg.MaxBacklogSize == 0 {
		return 0
	}
	limit := cfg.MaxBacklogSize
	cemented := f.caches.CementedCount.Load()
	if cemented < cfg.BootstrapWeightMaxBlocks {
		limit += cfg.BootstrapWeightMaxBlocks - cemented
	}
	return limit
}

// SeedPending writes a pending entry directly, bypassing the processor.
// It exists for bootstrapping a fresh ledger's genesis receivable: block
// generation is out of scope for this engine, so the very first
// spendable amount on a new ledger has no send block of its own to
// derive it from.
func (f *Facade) SeedPending(ctx context.Context, destination basics.Account, sendHash basics.BlockHash, info basics.PendingInfo) error {
	guard, err := f.queue.Wait(ctx, writequeue.LaneGeneric)
	if err != nil {
		return err
	}
	defer guard.Release()

	txn, err := f.store.BeginWrite(ctx)
	if err != nil {
		return err
	}
	defer txn.Abort()

	if err := txn.Table(ledgerstore.TablePending).Put(blocktype.EncodePendingKey(destination, sendHash), blocktype.EncodePendingInfo(info)); err != nil {
		return err
	}
	return txn.Commit()
}

// Process validates and applies block, returning the resulting status.
// Rejections (every BlockStatus other than StatusProgress) are returned
// as a regular value, not an error; the write transaction is discarded
// either way since a rejected block's processor steps never mutate.
func (f *Facade) Process(ctx context.Context, block blocktype.Block, now uint64) (ledgercore.BlockStatus, error) {
	guard, err := f.queue.Wait(ctx, writequeue.LaneProcessBatch)
	if err != nil {
		return "", err
	}
	defer guard.Release()

	txn, err := f.store.BeginWrite(ctx)
	if err != nil {
		return "", err
	}
	defer txn.Abort()

	isNewAccount := isAccountOpen(block)

	status, err := f.proc.Process(txn, block, now)
	if err != nil {
		return status, err
	}
	if !status.IsProgress() {
		return status, nil
	}
	if err := txn.Commit(); err != nil {
		return status, err
	}

	f.caches.AddBlockCount(1)
	if isNewAccount {
		f.caches.AddAccountCount(1)
	}
	return status, nil
}

// isAccountOpen reports whether block is the first block of a new
// account chain (legacy open, or a state block with no previous).
func isAccountOpen(block blocktype.Block) bool {
	switch b := block.(type) {
	case blocktype.OpenBlock:
		return true
	case blocktype.StateBlock:
		return b.Previous.IsZero()
	default:
		return false
	}
}

// Rollback undoes hash and everything after it on its account chain,
// cascading into any account that already claimed a send being undone.
// It returns the removed hashes in the order they were undone (target
// last).
func (f *Facade) Rollback(ctx context.Context, hash basics.BlockHash) ([]basics.BlockHash, error) {
	guard, err := f.queue.Wait(ctx, writequeue.LaneRollback)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	txn, err := f.store.BeginWrite(ctx)
	if err != nil {
		return nil, err
	}
	defer txn.Abort()

	accountsBefore, err := txn.Table(ledgerstore.TableAccounts).Count()
	if err != nil {
		return nil, err
	}
	removed, err := f.roll.Rollback(txn, hash)
	if err != nil {
		return nil, err
	}
	accountsAfter, err := txn.Table(ledgerstore.TableAccounts).Count()
	if err != nil {
		return nil, err
	}
	if err := txn.Commit(); err != nil {
		return nil, err
	}

	f.caches.AddBlockCount(-int64(len(removed)))
	f.caches.AddAccountCount(int64(accountsAfter) - int64(accountsBefore))
	return removed, nil
}

// Confirm cements target and every unconfirmed dependency, stopping at
// maxBlocks cemented blocks (<= 0 means unbounded).
func (f *Facade) Confirm(ctx context.Context, target basics.BlockHash, maxBlocks int) ([]basics.BlockHash, error) {
	guard, err := f.queue.Wait(ctx, writequeue.LaneConfirmationHeight)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	txn, err := f.store.BeginWrite(ctx)
	if err != nil {
		return nil, err
	}
	defer txn.Abort()

	cemented, err := f.cement.Confirm(txn, target, maxBlocks)
	if err != nil {
		return cemented, err
	}
	return cemented, txn.Commit()
}

// Prune drops hash's body from the blocks table while recording it in
// pruned, preserving invariant 1: a block exists in blocks iff its
// chain still references it, or it has been pruned, never both. Only a
// cemented block may be pruned — an un-cemented one is still subject to
// rollback, which needs the body to restore pending entries and weight.
func (f *Facade) Prune(ctx context.Context, hash basics.BlockHash) error {
	guard, err := f.queue.Wait(ctx, writequeue.LanePruning)
	if err != nil {
		return err
	}
	defer guard.Release()

	txn, err := f.store.BeginWrite(ctx)
	if err != nil {
		return err
	}
	defer txn.Abort()

	v := views.Any{Txn: txn}
	bs, err := v.BlockGet(hash)
	if err == ledgerstore.ErrNotFound {
		return fmt.Errorf("facade: prune: block %x not found", hash)
	}
	if err != nil {
		return err
	}
	height, err := views.ConfirmationHeight(v, bs.Sideband.Account)
	if err != nil {
		return err
	}
	if bs.Sideband.Height > height.Height {
		return fmt.Errorf("facade: prune: block %x is not yet cemented", hash)
	}

	if err := txn.Table(ledgerstore.TableBlocks).Delete(hash[:]); err != nil {
		return err
	}
	if err := txn.Table(ledgerstore.TablePruned).Put(hash[:], []byte{}); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	f.caches.AddPrunedCount(1)
	return nil
}

// DependentBlocks returns the (up to two) block hashes whose
// confirmation is a precondition for confirming hash. It is a thin,
// read-only wrapper over views.DependentBlocks.
func (f *Facade) DependentBlocks(ctx context.Context, hash basics.BlockHash) (basics.BlockHash, basics.BlockHash, error) {
	txn, err := f.store.BeginRead(ctx)
	if err != nil {
		return basics.BlockHash{}, basics.BlockHash{}, err
	}
	defer txn.Abort()
	return views.DependentBlocks(views.Any{Txn: txn}, hash)
}

// RepresentativeBlock walks hash's predecessors until it finds the
// block that fixed the representative in effect as of hash, returning
// that representative account. It is a thin, read-only wrapper over
// views.RepresentativeAt.
func (f *Facade) RepresentativeBlock(ctx context.Context, hash basics.BlockHash) (basics.Account, error) {
	txn, err := f.store.BeginRead(ctx)
	if err != nil {
		return basics.Account{}, err
	}
	defer txn.Abort()
	return views.RepresentativeAt(views.Any{Txn: txn}, hash)
}

// BlockPriority computes the (balance, timestamp) pair an external
// scheduler uses to order unprocessed blocks within a priority bucket.
// Priority balance is the larger of the block's own resulting balance
// and, for a send-shaped block, the balance it is spending from (see
// Open Question decision 6 for how "the block's own balance" is derived
// for the three legacy kinds that carry no explicit balance field).
// Priority timestamp is the previous block's sideband timestamp — never
// this account's mutable AccountInfo, so that LRU ordering survives a
// rollback of later blocks — falling back to now if block has no
// previous (an open-style block).
func (f *Facade) BlockPriority(ctx context.Context, block blocktype.Block, now uint64) (basics.Amount, uint64, error) {
	txn, err := f.store.BeginRead(ctx)
	if err != nil {
		return basics.Amount{}, 0, err
	}
	defer txn.Abort()
	v := views.Any{Txn: txn}

	source, previous := openInputs(block)
	if previous.IsZero() {
		balance := basics.ZeroAmount
		if !source.IsZero() {
			if amount, err := v.BlockAmount(source); err == nil {
				balance = amount
			} else if err != ledgerstore.ErrNotFound {
				return basics.Amount{}, 0, err
			}
		}
		return balance, now, nil
	}

	prev, err := v.BlockGet(previous)
	if err == ledgerstore.ErrNotFound {
		return basics.ZeroAmount, now, nil
	}
	if err != nil {
		return basics.Amount{}, 0, err
	}
	prevBalance := prev.Sideband.Balance

	balance, isSend, err := f.ownBalance(v, block, prevBalance)
	if err != nil {
		return basics.Amount{}, 0, err
	}
	if isSend && prevBalance.Cmp(balance) > 0 {
		balance = prevBalance
	}
	return balance, prev.Sideband.Timestamp, nil
}

// ownBalance derives the resulting balance a non-open block declares
// (or implies) for its account, and whether it is send-shaped — the
// only case spec.md's block_priority formula widens by prevBalance.
// send and state blocks carry this balance explicitly; receive and
// change do not, so it is reconstructed from the store.
func (f *Facade) ownBalance(v views.Any, block blocktype.Block, prevBalance basics.Amount) (basics.Amount, bool, error) {
	switch b := block.(type) {
	case blocktype.SendBlock:
		return b.Balance, true, nil
	case blocktype.ChangeBlock:
		return prevBalance, false, nil
	case blocktype.ReceiveBlock:
		amount, err := v.BlockAmount(b.Source)
		if err == ledgerstore.ErrNotFound {
			return prevBalance, false, nil
		}
		if err != nil {
			return basics.Amount{}, false, err
		}
		sum, ok := prevBalance.Add(amount)
		if !ok {
			return basics.Amount{}, false, fmt.Errorf("facade: block_priority: receive amount overflows balance")
		}
		return sum, false, nil
	case blocktype.StateBlock:
		return b.Balance, b.Balance.Cmp(prevBalance) < 0, nil
	default:
		return prevBalance, false, nil
	}
}

// openInputs returns the claimed source hash and the previous-block
// hash for any of the five block kinds. previous is the zero hash for
// an open-style block (legacy open, or a state block with no
// previous), in which case source is its claimed genesis/mint hash.
func openInputs(block blocktype.Block) (source, previous basics.BlockHash) {
	switch b := block.(type) {
	case blocktype.SendBlock:
		return basics.BlockHash{}, b.Previous
	case blocktype.ReceiveBlock:
		return basics.BlockHash{}, b.Previous
	case blocktype.ChangeBlock:
		return basics.BlockHash{}, b.Previous
	case blocktype.OpenBlock:
		return b.Source, basics.BlockHash{}
	case blocktype.StateBlock:
		if b.Previous.IsZero() {
			return b.Link.AsBlockHash(), basics.BlockHash{}
		}
		return basics.BlockHash{}, b.Previous
	default:
		return basics.BlockHash{}, basics.BlockHash{}
	}
}
