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

import "github.com/blocklattice/ledger/data/basics"

// WorkThresholds is the pair of proof-of-work difficulty floors in force
// for one epoch: Send gates any block that decreases its account's
// balance (the historically higher bar, since a spend is what an
// attacker profits from spamming); Base gates everything else.
type WorkThresholds struct {
	Base basics.Work
	Send basics.Work
}

// Params is the process-time configuration consumed by the ledger
// processor: proof-of-work verification thresholds and epoch-upgrade
// signing identities. It holds no state of its own and is safe to share
// read-only across goroutines.
type Params struct {
	// Thresholds maps an account's current epoch to the work
	// thresholds active for its next block. Block generation is out of
	// scope (spec Non-goals); only verification is performed here.
	Thresholds map[basics.Epoch]WorkThresholds

	// EpochSigners maps the epoch an upgrade block asserts (the
	// *target* epoch) to the account whose key must have signed it,
	// instead of the chain-owning account's own key.
	EpochSigners map[basics.Epoch]basics.Account

	// EpochLinks maps the epoch an upgrade block asserts to the fixed
	// marker value its Link field must carry.
	EpochLinks map[basics.Epoch]basics.Link

	// MinRepWeight is a dust cutoff carried with the other parameters.
	// The representative weights index built by the facade does not read
	// it; that index takes its cutoff from config.Local.MinRepWeightRaw.
	MinRepWeight basics.Amount

	// MaxRollbackDepth bounds cascading rollback recursion.
	MaxRollbackDepth uint64

	// CementationRenewInterval is how many blocks the cementation
	// engine cements before calling Txn.Renew to bound its write
	// transaction's duration. Zero means never renew mid-run.
	CementationRenewInterval uint64
}

// EpochMarker reports whether link matches a configured epoch-upgrade
// marker, returning the epoch it asserts.
func (p Params) EpochMarker(link basics.Link) (basics.Epoch, bool) {
	for epoch, marker := range p.EpochLinks {
		if marker == link {
			return epoch, true
		}
	}
	return 0, false
}

// ThresholdsFor returns the work thresholds configured for epoch,
// falling back to the zero value (which accepts any work) if the
// deployment left it unconfigured — callers in tests routinely do this
// deliberately to avoid fabricating real proof-of-work.
func (p Params) ThresholdsFor(epoch basics.Epoch) WorkThresholds {
	return p.Thresholds[epoch]
}
