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

// Package repweight maintains the in-memory representative weight
// aggregate (committed and unused counters) that mirrors the durable
// rep_weights table.
package repweight

import (
	"fmt"

	"github.com/algorand/go-deadlock"

	"github.com/blocklattice/ledger/data/basics"
	"github.com/blocklattice/ledger/ledger/blocktype"
	"github.com/blocklattice/ledger/ledger/ledgerstore"
)

// Index is the in-memory representative weight aggregate. Every mutating
// method also writes through to the caller-supplied write transaction's
// rep_weights table, so the in-memory counters and the durable table
// change atomically with the rest of the write.
type Index struct {
	mu        deadlock.RWMutex
	committed map[basics.Account]basics.Amount
	unused    basics.Amount
	minWeight basics.Amount
}

// New returns an Index whose GetRepAmounts snapshot excludes
// representatives below minWeight. Totals returned by
// GetWeightCommitted/GetWeightUnused always include dust reps.
func New(minWeight basics.Amount) *Index {
	return &Index{
		committed: make(map[basics.Account]basics.Amount),
		minWeight: minWeight,
	}
}

// LoadFromStore populates the in-memory committed map from the durable
// rep_weights table. Called once at ledger open.
func (idx *Index) LoadFromStore(txn ledgerstore.Txn) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.committed = make(map[basics.Account]basics.Amount)
	return txn.Table(ledgerstore.TableRepWeights).Iterate(nil, func(key, value []byte) (bool, error) {
		if len(key) != 32 {
			return false, fmt.Errorf("repweight: corrupt rep_weights key length %d", len(key))
		}
		var rep basics.Account
		copy(rep[:], key)
		amount, err := blocktype.DecodeRepWeight(value)
		if err != nil {
			return false, err
		}
		idx.committed[rep] = amount
		return true, nil
	})
}

func (idx *Index) persist(txn ledgerstore.Txn, rep basics.Account, amount basics.Amount) error {
	return txn.Table(ledgerstore.TableRepWeights).Put(rep[:], blocktype.EncodeRepWeight(amount))
}

// Add increments rep's committed weight by amount.
func (idx *Index) Add(txn ledgerstore.Txn, rep basics.Account, amount basics.Amount) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.addLocked(txn, rep, amount)
}

func (idx *Index) addLocked(txn ledgerstore.Txn, rep basics.Account, amount basics.Amount) error {
	sum, ok := idx.committed[rep].Add(amount)
	if !ok {
		return fmt.Errorf("repweight: committed weight overflow for representative %s", rep)
	}
	if err := idx.persist(txn, rep, sum); err != nil {
		return err
	}
	idx.committed[rep] = sum
	return nil
}

// Sub decrements rep's committed weight by amount.
func (idx *Index) Sub(txn ledgerstore.Txn, rep basics.Account, amount basics.Amount) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.subLocked(txn, rep, amount)
}

func (idx *Index) subLocked(txn ledgerstore.Txn, rep basics.Account, amount basics.Amount) error {
	diff, ok := idx.committed[rep].Sub(amount)
	if !ok {
		return fmt.Errorf("repweight: committed weight underflow for representative %s", rep)
	}
	if err := idx.persist(txn, rep, diff); err != nil {
		return err
	}
	idx.committed[rep] = diff
	return nil
}

// Move atomically subtracts amount from fromRep and adds it to toRep.
func (idx *Index) Move(txn ledgerstore.Txn, fromRep, toRep basics.Account, amount basics.Amount) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.subLocked(txn, fromRep, amount); err != nil {
		return err
	}
	return idx.addLocked(txn, toRep, amount)
}

// MoveAddSub is the dual-representative update used by a state block
// that both changes representative and moves a balance delta in a
// single step: repAdd gains amountAdd, repSub loses amountSub.
func (idx *Index) MoveAddSub(txn ledgerstore.Txn, repAdd basics.Account, amountAdd basics.Amount, repSub basics.Account, amountSub basics.Amount) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.subLocked(txn, repSub, amountSub); err != nil {
		return err
	}
	return idx.addLocked(txn, repAdd, amountAdd)
}

// PutUnused increments the in-memory unused counter. It has no durable
// table of its own; Facade.Open reconstructs it from the pending table,
// which also holds every amount sent to the burn account (that account
// can never be opened). Processing and rollback do not adjust it.
func (idx *Index) PutUnused(amount basics.Amount) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	sum, ok := idx.unused.Add(amount)
	if !ok {
		return fmt.Errorf("repweight: unused weight overflow")
	}
	idx.unused = sum
	return nil
}

// Get returns rep's current committed weight.
func (idx *Index) Get(rep basics.Account) basics.Amount {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.committed[rep]
}

// GetWeightCommitted returns the sum of every representative's
// committed weight, dust included.
func (idx *Index) GetWeightCommitted() basics.Amount {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	total := basics.ZeroAmount
	for _, amount := range idx.committed {
		var ok bool
		total, ok = total.Add(amount)
		if !ok {
			panic("repweight: committed total overflow")
		}
	}
	return total
}

// GetWeightUnused returns the unused counter.
func (idx *Index) GetWeightUnused() basics.Amount {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.unused
}

// GetRepAmounts returns a snapshot of every representative at or above
// minWeight.
func (idx *Index) GetRepAmounts() map[basics.Account]basics.Amount {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[basics.Account]basics.Amount, len(idx.committed))
	for rep, amount := range idx.committed {
		if amount.Cmp(idx.minWeight) >= 0 {
			out[rep] = amount
		}
	}
	return out
}

// VerifyConsistency recomputes the committed total from the durable
// table and checks it against the cached committed total, then checks
// that the cached committed total plus the in-memory unused counter
// equals expectedGenesisTotal.
func (idx *Index) VerifyConsistency(txn ledgerstore.Txn, expectedGenesisTotal basics.Amount) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	durableTotal := basics.ZeroAmount
	err := txn.Table(ledgerstore.TableRepWeights).Iterate(nil, func(key, value []byte) (bool, error) {
		amount, err := blocktype.DecodeRepWeight(value)
		if err != nil {
			return false, err
		}
		var ok bool
		durableTotal, ok = durableTotal.Add(amount)
		if !ok {
			return false, fmt.Errorf("repweight: durable total overflow")
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	cachedTotal := basics.ZeroAmount
	for _, amount := range idx.committed {
		var ok bool
		cachedTotal, ok = cachedTotal.Add(amount)
		if !ok {
			return fmt.Errorf("repweight: cached total overflow")
		}
	}
	if durableTotal != cachedTotal {
		return fmt.Errorf("repweight: durable committed total %s does not match cached total %s", durableTotal, cachedTotal)
	}

	grandTotal, ok := cachedTotal.Add(idx.unused)
	if !ok {
		return fmt.Errorf("repweight: committed+unused overflow")
	}
	if grandTotal != expectedGenesisTotal {
		return fmt.Errorf("repweight: committed+unused %s does not match expected total %s", grandTotal, expectedGenesisTotal)
	}
	return nil
}
