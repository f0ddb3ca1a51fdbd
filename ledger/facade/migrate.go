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

package facade

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/blocklattice/ledger/data/basics"
	"github.com/blocklattice/ledger/ledger/ledgerstore"
	"github.com/blocklattice/ledger/ledger/ledgerstore/btreestore"
	"github.com/blocklattice/ledger/ledger/ledgerstore/lsmstore"
	"github.com/blocklattice/ledger/logging"
)

const migrationSpotCheckSize = 42

// MigrationReport summarizes a MigrateBtreeToLSM run: the row count
// copied per table, and any block hash whose post-copy read from the
// destination disagreed with the source (empty on success).
type MigrationReport struct {
	RowsCopied map[ledgerstore.Table]uint64
	Mismatches []basics.BlockHash
}

// MigrateBtreeToLSM copies every table from the B-tree database at
// srcPath into a fresh LSM database directory at dstPath, then spot
// checks the copy: a random sample of blocks is read back from both
// sides and compared byte-for-byte, and every table other than blocks
// and pending is compared for row-count parity. It refuses if dstPath already exists, and the
// source must be a B-tree database — migration only ever runs in this
// direction.
func MigrateBtreeToLSM(ctx context.Context, srcPath, dstPath string, log logging.Logger) (MigrationReport, error) {
	report := MigrationReport{RowsCopied: make(map[ledgerstore.Table]uint64)}

	if _, err := os.Stat(dstPath); err == nil {
		return report, fmt.Errorf("facade: migration destination %s already exists", dstPath)
	} else if !os.IsNotExist(err) {
		return report, fmt.Errorf("facade: statting migration destination %s: %w", dstPath, err)
	}

	src, err := btreestore.Open(srcPath, false, log)
	if err != nil {
		return report, fmt.Errorf("facade: opening migration source: %w", err)
	}
	defer src.Close()

	dst, err := lsmstore.Open(dstPath, false, 1, log)
	if err != nil {
		return report, fmt.Errorf("facade: creating migration destination: %w", err)
	}
	defer dst.Close()

	srcTxn, err := src.BeginRead(ctx)
	if err != nil {
		return report, err
	}
	defer srcTxn.Abort()

	dstTxn, err := dst.BeginWrite(ctx)
	if err != nil {
		return report, err
	}
	defer dstTxn.Abort()

	sample := newReservoir(migrationSpotCheckSize)
	for _, table := range ledgerstore.AllTables {
		var n uint64
		srcKV, dstKV := srcTxn.Table(table), dstTxn.Table(table)
		err := srcKV.Iterate(nil, func(key, value []byte) (bool, error) {
			if err := dstKV.Put(key, value); err != nil {
				return false, err
			}
			n++
			if table == ledgerstore.TableBlocks {
				sample.offer(append([]byte(nil), key...))
			}
			return true, nil
		})
		if err != nil {
			return report, fmt.Errorf("facade: copying table %s: %w", table, err)
		}
		report.RowsCopied[table] = n
		if log != nil {
			log.Infof("migrate_btree_to_lsm: copied %d rows from table %s", n, table)
		}
	}

	if err := dstTxn.Commit(); err != nil {
		return report, fmt.Errorf("facade: committing migration: %w", err)
	}

	if err := spotCheckBlocks(ctx, src, dst, sample.items, &report); err != nil {
		return report, err
	}
	if err := checkTableCountParity(ctx, src, dst, &report); err != nil {
		return report, err
	}
	return report, nil
}

func spotCheckBlocks(ctx context.Context, src, dst ledgerstore.Store, keys [][]byte, report *MigrationReport) error {
	srcTxn, err := src.BeginRead(ctx)
	if err != nil {
		return err
	}
	defer srcTxn.Abort()
	dstTxn, err := dst.BeginRead(ctx)
	if err != nil {
		return err
	}
	defer dstTxn.Abort()

	for _, key := range keys {
		want, err := srcTxn.Table(ledgerstore.TableBlocks).Get(key)
		if err != nil {
			return fmt.Errorf("facade: spot-check re-reading source block: %w", err)
		}
		got, err := dstTxn.Table(ledgerstore.TableBlocks).Get(key)
		if err != nil {
			return fmt.Errorf("facade: spot-check reading migrated block: %w", err)
		}
		if !bytes.Equal(want, got) {
			var hash basics.BlockHash
			copy(hash[:], key)
			report.Mismatches = append(report.Mismatches, hash)
		}
	}
	return nil
}

// checkTableCountParity compares row counts on every table except
// blocks and pending, which may be large enough that a second Count()
// scan right after the copy is wasteful. Those two get no destination
// count: RowsCopied records how many source rows were written without
// error, and blocks are further covered by the spot check above.
func checkTableCountParity(ctx context.Context, src, dst ledgerstore.Store, report *MigrationReport) error {
	srcTxn, err := src.BeginRead(ctx)
	if err != nil {
		return err
	}
	defer srcTxn.Abort()
	dstTxn, err := dst.BeginRead(ctx)
	if err != nil {
		return err
	}
	defer dstTxn.Abort()

	for _, table := range ledgerstore.AllTables {
		if table == ledgerstore.TableBlocks || table == ledgerstore.TablePending {
			continue
		}
		srcCount, err := srcTxn.Table(table).Count()
		if err != nil {
			return err
		}
		dstCount, err := dstTxn.Table(table).Count()
		if err != nil {
			return err
		}
		if srcCount != dstCount {
			return fmt.Errorf("facade: migration table count mismatch on %s: source %d, destination %d", table, srcCount, dstCount)
		}
	}
	return nil
}

// reservoir implements algorithm R reservoir sampling so the spot
// check's sample is uniform over the whole blocks table without
// buffering every key it iterates.
type reservoir struct {
	capacity int
	seen     int
	items    [][]byte
	rnd      *rand.Rand
}

func newReservoir(capacity int) *reservoir {
	return &reservoir{capacity: capacity, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *reservoir) offer(item []byte) {
	r.seen++
	if len(r.items) < r.capacity {
		r.items = append(r.items, item)
		return
	}
	if j := r.rnd.Intn(r.seen); j < r.capacity {
		r.items[j] = item
	}
}
