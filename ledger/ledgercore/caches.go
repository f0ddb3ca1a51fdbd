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

package ledgercore

import "sync/atomic"

// Caches holds the four eventually-consistent counters the facade
// exposes to callers that would rather not pay for a table scan:
// block, cemented, account, and pruned counts. Every field is
// independently atomic; there is no cross-field consistency guarantee
// beyond what the write transaction that drove an update already gave
// the underlying tables.
type Caches struct {
	BlockCount    atomic.Uint64
	CementedCount atomic.Uint64
	AccountCount  atomic.Uint64
	PrunedCount   atomic.Uint64
}

// AddBlockCount and its siblings are nil-safe: on a nil *Caches every
// call is a no-op rather than a required nil check at each call site.

func (c *Caches) AddBlockCount(delta int64) {
	if c == nil {
		return
	}
	addInt64(&c.BlockCount, delta)
}

func (c *Caches) AddCementedCount(delta int64) {
	if c == nil {
		return
	}
	addInt64(&c.CementedCount, delta)
}

func (c *Caches) AddAccountCount(delta int64) {
	if c == nil {
		return
	}
	addInt64(&c.AccountCount, delta)
}

func (c *Caches) AddPrunedCount(delta int64) {
	if c == nil {
		return
	}
	addInt64(&c.PrunedCount, delta)
}

func addInt64(counter *atomic.Uint64, delta int64) {
	if delta >= 0 {
		counter.Add(uint64(delta))
		return
	}
	counter.Add(^uint64(-delta) + 1)
}
