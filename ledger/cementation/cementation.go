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

// Package cementation walks a block's dependency graph and commits
// confirmation height, bounded by an explicit stack rather than
// recursion so a long unconfirmed chain cannot exhaust the goroutine
// stack.
package cementation

import (
	"github.com/blocklattice/ledger/data/basics"
	"github.com/blocklattice/ledger/ledger/blocktype"
	"github.com/blocklattice/ledger/ledger/ledgercore"
	"github.com/blocklattice/ledger/ledger/ledgerstore"
	"github.com/blocklattice/ledger/ledger/views"
	"github.com/blocklattice/ledger/logging"
)

// Engine confirms blocks by cementing a run of dependency-satisfied
// blocks under one write transaction, periodically renewing that
// transaction so a large confirm() call does not hold the writer lane
// open indefinitely.
type Engine struct {
	params ledgercore.Params
	caches *ledgercore.Caches
	log    logging.Logger
}

// New returns an Engine. caches may be nil if the deployment does not
// maintain the cemented-count cache.
func New(params ledgercore.Params, caches *ledgercore.Caches, log logging.Logger) *Engine {
	return &Engine{params: params, caches: caches, log: log}
}

// Confirm cements target and every unconfirmed ancestor its dependency
// graph requires, stopping once maxBlocks have been cemented or the
// frontier is exhausted. maxBlocks <= 0 means unbounded. It returns the
// cemented hashes in dependency order (an ancestor always precedes the
// block that depended on it). Re-confirming an already-cemented hash
// returns an empty, non-error result.
func (e *Engine) Confirm(txn ledgerstore.Txn, target basics.BlockHash, maxBlocks int) ([]basics.BlockHash, error) {
	stack := []basics.BlockHash{target}
	var result []basics.BlockHash
	var stepsSinceRenew uint64

	for len(stack) > 0 && (maxBlocks <= 0 || len(result) < maxBlocks) {
		v := views.Any{Txn: txn}
		top := stack[len(stack)-1]

		confirmed, err := e.isConfirmed(v, top)
		if err != nil {
			return result, err
		}
		if confirmed {
			stack = stack[:len(stack)-1]
			continue
		}

		dep1, dep2, err := views.DependentBlocks(v, top)
		if err != nil {
			return result, err
		}
		pushed := false
		for _, dep := range [2]basics.BlockHash{dep1, dep2} {
			if dep.IsZero() {
				continue
			}
			exists, err := v.BlockExists(dep)
			if err != nil {
				return result, err
			}
			if !exists {
				// A dependency that isn't a real stored block (a
				// synthetic genesis-mint source, or a since-pruned
				// ancestor) has nothing left to confirm.
				continue
			}
			depConfirmed, err := e.isConfirmed(v, dep)
			if err != nil {
				return result, err
			}
			if depConfirmed {
				continue
			}
			stack = append(stack, dep)
			pushed = true
		}
		if maxBlocks > 0 && len(stack) > maxBlocks {
			// Drop from the bottom: forget the oldest (deepest root)
			// path first and let the caller reinvoke to pick it back
			// up, rather than fail the whole confirm() call.
			stack = stack[len(stack)-maxBlocks:]
		}
		if pushed {
			continue
		}

		stack = stack[:len(stack)-1]
		if err := e.cement(txn, v, top); err != nil {
			return result, err
		}
		result = append(result, top)

		stepsSinceRenew++
		if e.params.CementationRenewInterval > 0 && stepsSinceRenew >= e.params.CementationRenewInterval {
			stepsSinceRenew = 0
			if err := txn.Renew(); err != nil {
				return result, err
			}
			stillThere, err := (views.Any{Txn: txn}).BlockExists(target)
			if err != nil {
				return result, err
			}
			if !stillThere {
				break
			}
		}
	}
	return result, nil
}

func (e *Engine) isConfirmed(v views.Any, hash basics.BlockHash) (bool, error) {
	bs, err := v.BlockGet(hash)
	if err == ledgerstore.ErrNotFound {
		// Pruned blocks are, by definition, already cemented — pruning
		// only ever removes blocks below confirmation height.
		pruned, perr := v.Txn.Table(ledgerstore.TablePruned).Exists(hash[:])
		return pruned, perr
	}
	if err != nil {
		return false, err
	}
	height, err := views.ConfirmationHeight(v, bs.Sideband.Account)
	if err != nil {
		return false, err
	}
	return bs.Sideband.Height <= height.Height, nil
}

func (e *Engine) cement(txn ledgerstore.Txn, v views.Any, hash basics.BlockHash) error {
	bs, err := v.BlockGet(hash)
	if err != nil {
		return err
	}
	record := basics.ConfirmationHeightInfo{Height: bs.Sideband.Height, FrontierHash: hash}
	if err := txn.Table(ledgerstore.TableConfirmationHeight).Put(bs.Sideband.Account[:], blocktype.EncodeConfirmationHeight(record)); err != nil {
		return err
	}
	e.caches.AddCementedCount(1)
	if e.log != nil {
		e.log.Debugf("cementation: confirmed block %x on account %s at height %d", hash, bs.Sideband.Account, bs.Sideband.Height)
	}
	return nil
}
