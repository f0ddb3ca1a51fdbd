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

package basics

import (
	"github.com/blocklattice/ledger/crypto"
)

// BlockHash is the content-addressed id of a block: the BLAKE2b-256 hash
// of its domain-separated, signature- and work-free fields.
type BlockHash crypto.Digest

// IsZero reports whether h is the zero hash (used as a chain's absent
// previous/source link).
func (h BlockHash) IsZero() bool {
	return h == BlockHash{}
}

// Signature is a raw Ed25519 signature over a BlockHash.
type Signature = crypto.Signature

// Work is the 64-bit proof-of-work nonce attached to a block, verified
// against a per-epoch difficulty threshold by the work verifier.
type Work uint64

// Epoch numbers the sequential metadata upgrades applied to an account's
// chain by zero-amount, epoch-signer-signed state blocks.
type Epoch uint8

// Epoch values, strictly sequential: an account may only advance from its
// current epoch to the next one.
const (
	Epoch0 Epoch = 0
	Epoch1 Epoch = 1
	Epoch2 Epoch = 2
)

// IsValid reports whether e is one of the known epoch values.
func (e Epoch) IsValid() bool {
	return e <= Epoch2
}

// LinkKind distinguishes how a state block's Link field is interpreted:
// as a source block hash (receive), a destination account (send), or an
// epoch upgrade marker (epoch).
type LinkKind uint8

// LinkKind values.
const (
	LinkNone LinkKind = iota
	LinkIsBlockHash
	LinkIsAccount
	LinkIsEpochMarker
)

// Link is the 32-byte union field of a state block: depending on the
// block's derived kind it holds a source BlockHash, a destination
// Account, or an epoch marker. The raw bytes are always stored and
// hashed identically; LinkKind is derived by the processor, not
// persisted.
type Link [32]byte

// AsBlockHash reinterprets the link as a source block hash.
func (l Link) AsBlockHash() BlockHash {
	return BlockHash(l)
}

// AsAccount reinterprets the link as a destination account.
func (l Link) AsAccount() Account {
	return Account(l)
}

// IsZero reports whether the link carries no payload (a change block's
// state-block-shaped link, or an unset link).
func (l Link) IsZero() bool {
	return l == Link{}
}

// LinkFromBlockHash packs a block hash into a Link.
func LinkFromBlockHash(h BlockHash) Link {
	return Link(h)
}

// LinkFromAccount packs a destination account into a Link.
func LinkFromAccount(a Account) Link {
	return Link(a)
}

// QualifiedRoot is the 64-byte election identity for a final-vote
// entry: the account chain's root hash concatenated with the previous
// block hash being voted on.
type QualifiedRoot struct {
	Root     BlockHash
	Previous BlockHash
}

// ToBytes encodes the qualified root as 64 bytes, root first.
func (q QualifiedRoot) ToBytes() [64]byte {
	var buf [64]byte
	copy(buf[0:32], q.Root[:])
	copy(buf[32:64], q.Previous[:])
	return buf
}

// AccountInfo is the persisted per-account ledger head record.
type AccountInfo struct {
	Head           BlockHash
	Open           BlockHash
	Representative Account
	Balance        Amount
	Modified       uint64 // unix seconds of last applied/rolled-back block
	BlockCount     uint64
	Epoch          Epoch
}

// PendingInfo is the persisted record of an unreceived send, keyed by
// (destination account, send block hash) in the pending table.
type PendingInfo struct {
	Source Account
	Amount Amount
	Epoch  Epoch
}

// ConfirmationHeightInfo is the persisted cementation frontier for an
// account: it only grows, and never exceeds the account's BlockCount.
type ConfirmationHeightInfo struct {
	Height       uint64
	FrontierHash BlockHash
}
