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

package crypto

import (
	"bytes"

	"golang.org/x/crypto/blake2b"

	"github.com/blocklattice/ledger/protocol"
)

// DigestSize is the size in bytes of a block hash.
const DigestSize = 32

// Digest is a 32-byte BLAKE2b-256 hash, used to address blocks.
type Digest [DigestSize]byte

// IsZero reports whether d is the all-zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// IsEqual compares two digests.
func (d Digest) IsEqual(other Digest) bool {
	return bytes.Equal(d[:], other[:])
}

// Hashable is anything that can be domain-separated and hashed: it returns
// the bytes to hash together with a protocol.HashID domain-separation
// prefix.
type Hashable interface {
	ToBeHashed() (protocol.HashID, []byte)
}

// HashRep appends the object's domain-separation prefix to its
// to-be-hashed bytes.
func HashRep(h Hashable) []byte {
	hashid, data := h.ToBeHashed()
	return append([]byte(hashid), data...)
}

// HashObj hashes a Hashable with BLAKE2b-256, after domain separation.
func HashObj(h Hashable) Digest {
	return Hash(HashRep(h))
}

// Hash computes the BLAKE2b-256 digest of data.
func Hash(data []byte) Digest {
	return blake2b.Sum256(data)
}

// Hash40 computes a 40-bit (5-byte) BLAKE2b digest of data, used for the
// account string checksum.
func Hash40(data []byte) [5]byte {
	h, err := blake2b.New(5, nil)
	if err != nil {
		panic(err)
	}
	h.Write(data)
	var out [5]byte
	copy(out[:], h.Sum(nil))
	return out
}
