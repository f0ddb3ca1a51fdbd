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

// Package writequeue serializes ledger writers across named priority
// lanes so cementation, block processing, rollback, and pruning never
// interleave their writes to the same Store Contract transaction.
package writequeue

import (
	"container/list"
	"context"

	"github.com/algorand/go-deadlock"
)

// Lane names the well-known writer classes. Two writers in different
// lanes still never run concurrently; a lane only orders waiters of the
// same class relative to each other (FIFO).
type Lane string

const (
	LaneConfirmationHeight Lane = "confirmation_height"
	LaneProcessBatch       Lane = "process_batch"
	LaneRollback           Lane = "rollback"
	LanePruning            Lane = "pruning"
	LaneGeneric            Lane = "generic"
)

// Queue is a single-writer mutex exposed as a set of named lanes. At
// most one lane holds the writer at a time; across all lanes combined,
// waiters are released in the order they called Wait, so within a lane
// ordering is FIFO.
//
// The list holds only waiters still queued. A waiter is removed from
// the list at the instant it is granted the slot (immediately, when it
// arrives while no guard is held, or later via Release), so the list's
// front element is always "whoever runs next". held records whether a
// granted guard has not yet been released.
type Queue struct {
	mu   deadlock.Mutex
	list *list.List
	held bool
}

type waiter struct {
	lane  Lane
	ready chan struct{}
}

// New returns a ready-to-use Queue.
func New() *Queue {
	return &Queue{list: list.New()}
}

// Guard is returned by Wait and releases the queue's single writer slot
// when Release is called. It must be released exactly once.
type Guard struct {
	q    *Queue
	lane Lane
}

// Lane reports which lane this guard was granted for, for callers that
// log or meter writer activity by lane.
func (g *Guard) Lane() Lane { return g.lane }

// Wait blocks until lane may run exclusively against every other lane,
// or until ctx is cancelled. On success it returns a Guard whose
// Release must be called to let the next waiter in.
func (q *Queue) Wait(ctx context.Context, lane Lane) (*Guard, error) {
	q.mu.Lock()
	w := &waiter{lane: lane, ready: make(chan struct{})}
	elem := q.list.PushBack(w)
	if !q.held && elem == q.list.Front() {
		q.list.Remove(elem)
		q.held = true
		close(w.ready)
	}
	q.mu.Unlock()

	select {
	case <-w.ready:
		return &Guard{q: q, lane: lane}, nil
	case <-ctx.Done():
		q.mu.Lock()
		removed := false
		for e := q.list.Front(); e != nil; e = e.Next() {
			if e == elem {
				q.list.Remove(e)
				removed = true
				break
			}
		}
		q.mu.Unlock()
		if removed {
			return nil, ctx.Err()
		}
		// A concurrent Release already granted us the slot before we
		// could withdraw. Honor the grant and immediately pass it on
		// rather than leaking it, then report the cancellation.
		<-w.ready
		(&Guard{q: q}).Release()
		return nil, ctx.Err()
	}
}

// Release lets the next waiter (if any) become the exclusive writer.
func (g *Guard) Release() {
	q := g.q
	q.mu.Lock()
	defer q.mu.Unlock()
	front := q.list.Front()
	if front == nil {
		q.held = false
		return
	}
	q.list.Remove(front)
	close(front.Value.(*waiter).ready)
}
