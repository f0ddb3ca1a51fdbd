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

// Package workverifier checks a block's attached proof-of-work nonce
// against a configured difficulty threshold. Work generation is out of
// scope; this package only verifies.
package workverifier

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/blocklattice/ledger/data/basics"
)

// digestSize is the width of the work-verification hash: 8 bytes, wide
// enough to make grinding a passing nonce exactly as expensive as
// intended by the difficulty threshold, no wider.
const digestSize = 8

// Verify reports whether work meets threshold for root. root is the
// block's previous hash, or the block's own account when there is no
// previous (an open block, or a state block opening an account). The
// nonce and root are hashed together with BLAKE2b, and the resulting
// 8-byte digest, read little-endian, must be at least threshold.
func Verify(work basics.Work, root [32]byte, threshold basics.Work) bool {
	return Compute(work, root) >= threshold
}

// Compute returns the raw work digest for (work, root) as a basics.Work,
// for callers that want to compare against more than one threshold
// without re-hashing.
func Compute(work basics.Work, root [32]byte) basics.Work {
	h, err := blake2b.New(digestSize, nil)
	if err != nil {
		// digestSize is a compile-time constant within blake2b's
		// supported range; this can only fail if that invariant breaks.
		panic("workverifier: blake2b-64 init: " + err.Error())
	}
	var nonce [8]byte
	binary.LittleEndian.PutUint64(nonce[:], uint64(work))
	h.Write(nonce[:])
	h.Write(root[:])
	return basics.Work(binary.LittleEndian.Uint64(h.Sum(nil)))
}
