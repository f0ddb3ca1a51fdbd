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

// Package ledgercore holds the types shared between the ledger processor,
// rollback engine, cementation engine, and ledger facade: the BlockStatus
// result enum and the process-time configuration parameters (work
// thresholds, epoch signers and markers, dust cutoffs).
package ledgercore

import (
	"fmt"

	"github.com/blocklattice/ledger/data/basics"
)

// BlockStatus is the outcome of a single call to the ledger processor.
// Only StatusProgress represents a successfully applied block; every
// other value identifies which check rejected it.
type BlockStatus string

// BlockStatus values.
const (
	StatusProgress               BlockStatus = "progress"
	StatusOld                    BlockStatus = "old"
	StatusGapPrevious            BlockStatus = "gap_previous"
	StatusGapSource              BlockStatus = "gap_source"
	StatusGapEpochOpenPending    BlockStatus = "gap_epoch_open_pending"
	StatusBadSignature           BlockStatus = "bad_signature"
	StatusNegativeSpend          BlockStatus = "negative_spend"
	StatusUnreceivable           BlockStatus = "unreceivable"
	StatusFork                   BlockStatus = "fork"
	StatusOpenedBurnAccount      BlockStatus = "opened_burn_account"
	StatusBalanceMismatch        BlockStatus = "balance_mismatch"
	StatusRepresentativeMismatch BlockStatus = "representative_mismatch"
	StatusBlockPosition          BlockStatus = "block_position"
	StatusInsufficientWork       BlockStatus = "insufficient_work"
	StatusInvalid                BlockStatus = "invalid"
)

// IsProgress reports whether s represents a successfully applied block.
func (s BlockStatus) IsProgress() bool {
	return s == StatusProgress
}

// ProcessError pairs a rejection status with the block hash it was
// produced for, for callers that want a rejection as a Go error value.
// Processor.Process itself reports rejections as a plain BlockStatus,
// not as a ProcessError.
type ProcessError struct {
	Status BlockStatus
	Hash   basics.BlockHash
}

// Error implements error.
func (e *ProcessError) Error() string {
	return fmt.Sprintf("ledgercore: block %x rejected: %s", e.Hash, e.Status)
}
