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

// Package blocktype defines the five block kinds of the block lattice as
// a closed tagged union, their deterministic big-endian wire encoding,
// and content hashing.
package blocktype

import (
	"github.com/blocklattice/ledger/crypto"
	"github.com/blocklattice/ledger/data/basics"
	"github.com/blocklattice/ledger/protocol"
)

// Kind identifies which of the five block shapes a Block carries.
type Kind uint8

// Kind values.
const (
	KindInvalid Kind = iota
	KindSend
	KindReceive
	KindOpen
	KindChange
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindSend:
		return "send"
	case KindReceive:
		return "receive"
	case KindOpen:
		return "open"
	case KindChange:
		return "change"
	case KindState:
		return "state"
	default:
		return "invalid"
	}
}

// Block is the common, read-only surface shared by every block kind: its
// kind tag, signature, work, and content hash. Blocks are immutable after
// construction; callers that need to track a successor use the sideband,
// not a mutation of the block itself.
type Block interface {
	Kind() Kind
	Signature() basics.Signature
	Work() basics.Work
	ToBeHashed() (protocol.HashID, []byte)
	Hash() basics.BlockHash
}

// SendBlock moves balance from the account's previous balance to a new,
// lower balance, creating a pending entry for Destination.
type SendBlock struct {
	Previous    basics.BlockHash
	Destination basics.Account
	Balance     basics.Amount
	Sig         basics.Signature
	Nonce       basics.Work
}

// Kind implements Block.
func (b SendBlock) Kind() Kind { return KindSend }

// Signature implements Block.
func (b SendBlock) Signature() basics.Signature { return b.Sig }

// Work implements Block.
func (b SendBlock) Work() basics.Work { return b.Nonce }

// ToBeHashed implements crypto.Hashable via Block. Legacy blocks hash
// their bare fields with no domain-separation prefix; only state
// blocks carry one.
func (b SendBlock) ToBeHashed() (protocol.HashID, []byte) {
	buf := make([]byte, 0, 32+32+basics.AmountSize)
	buf = append(buf, b.Previous[:]...)
	buf = append(buf, b.Destination[:]...)
	amt := b.Balance.ToBytes()
	buf = append(buf, amt[:]...)
	return "", buf
}

// Hash implements Block.
func (b SendBlock) Hash() basics.BlockHash { return basics.BlockHash(crypto.HashObj(b)) }

// ReceiveBlock claims a pending send identified by Source onto the
// account's chain.
type ReceiveBlock struct {
	Previous basics.BlockHash
	Source   basics.BlockHash
	Sig      basics.Signature
	Nonce    basics.Work
}

// Kind implements Block.
func (b ReceiveBlock) Kind() Kind { return KindReceive }

// Signature implements Block.
func (b ReceiveBlock) Signature() basics.Signature { return b.Sig }

// Work implements Block.
func (b ReceiveBlock) Work() basics.Work { return b.Nonce }

// ToBeHashed implements crypto.Hashable via Block. Legacy blocks hash
// their bare fields with no domain-separation prefix; only state
// blocks carry one.
func (b ReceiveBlock) ToBeHashed() (protocol.HashID, []byte) {
	buf := make([]byte, 0, 64)
	buf = append(buf, b.Previous[:]...)
	buf = append(buf, b.Source[:]...)
	return "", buf
}

// Hash implements Block.
func (b ReceiveBlock) Hash() basics.BlockHash { return basics.BlockHash(crypto.HashObj(b)) }

// OpenBlock is the first block of a new account's chain: it claims a
// pending Source send and sets the account's initial representative.
type OpenBlock struct {
	Source         basics.BlockHash
	Representative basics.Account
	Account        basics.Account
	Sig            basics.Signature
	Nonce          basics.Work
}

// Kind implements Block.
func (b OpenBlock) Kind() Kind { return KindOpen }

// Signature implements Block.
func (b OpenBlock) Signature() basics.Signature { return b.Sig }

// Work implements Block.
func (b OpenBlock) Work() basics.Work { return b.Nonce }

// ToBeHashed implements crypto.Hashable via Block. Legacy blocks hash
// their bare fields with no domain-separation prefix; only state
// blocks carry one.
func (b OpenBlock) ToBeHashed() (protocol.HashID, []byte) {
	buf := make([]byte, 0, 96)
	buf = append(buf, b.Source[:]...)
	buf = append(buf, b.Representative[:]...)
	buf = append(buf, b.Account[:]...)
	return "", buf
}

// Hash implements Block.
func (b OpenBlock) Hash() basics.BlockHash { return basics.BlockHash(crypto.HashObj(b)) }

// ChangeBlock updates only the account's representative; balance is
// unchanged.
type ChangeBlock struct {
	Previous       basics.BlockHash
	Representative basics.Account
	Sig            basics.Signature
	Nonce          basics.Work
}

// Kind implements Block.
func (b ChangeBlock) Kind() Kind { return KindChange }

// Signature implements Block.
func (b ChangeBlock) Signature() basics.Signature { return b.Sig }

// Work implements Block.
func (b ChangeBlock) Work() basics.Work { return b.Nonce }

// ToBeHashed implements crypto.Hashable via Block. Legacy blocks hash
// their bare fields with no domain-separation prefix; only state
// blocks carry one.
func (b ChangeBlock) ToBeHashed() (protocol.HashID, []byte) {
	buf := make([]byte, 0, 64)
	buf = append(buf, b.Previous[:]...)
	buf = append(buf, b.Representative[:]...)
	return "", buf
}

// Hash implements Block.
func (b ChangeBlock) Hash() basics.BlockHash { return basics.BlockHash(crypto.HashObj(b)) }

// StateBlock is the universal block kind: depending on Balance and Link
// relative to the account's previous state, it behaves as a send,
// receive, change, or epoch upgrade. The processor derives which.
type StateBlock struct {
	Account        basics.Account
	Previous       basics.BlockHash
	Representative basics.Account
	Balance        basics.Amount
	Link           basics.Link
	Sig            basics.Signature
	Nonce          basics.Work
}

// Kind implements Block.
func (b StateBlock) Kind() Kind { return KindState }

// Signature implements Block.
func (b StateBlock) Signature() basics.Signature { return b.Sig }

// Work implements Block.
func (b StateBlock) Work() basics.Work { return b.Nonce }

// ToBeHashed implements crypto.Hashable via Block. The StateBlock prefix
// carries the extra type-discriminator word required to keep a state
// block's hash out of the legacy block kinds' domain.
func (b StateBlock) ToBeHashed() (protocol.HashID, []byte) {
	buf := make([]byte, 0, 32+32+32+basics.AmountSize+32)
	buf = append(buf, b.Account[:]...)
	buf = append(buf, b.Previous[:]...)
	buf = append(buf, b.Representative[:]...)
	amt := b.Balance.ToBytes()
	buf = append(buf, amt[:]...)
	buf = append(buf, b.Link[:]...)
	return protocol.StateBlock, buf
}

// Hash implements Block.
func (b StateBlock) Hash() basics.BlockHash { return basics.BlockHash(crypto.HashObj(b)) }

// IsEpochUpgrade reports whether this state block is a metadata-only
// epoch upgrade: zero-amount balance delta relative to prev, with a
// Link carrying an epoch marker and an unchanged representative.
func (b StateBlock) IsEpochUpgrade(prevBalance basics.Amount, prevRep basics.Account, epochMarker basics.Link) bool {
	return b.Balance == prevBalance && b.Representative == prevRep && b.Link == epochMarker
}

// Sideband is the derived per-block metadata stored alongside every
// block: its owning account, account-chain height, the account's
// balance as of this block, wall-clock timestamp, successor (zero if it
// is the chain head), and kind-derived details.
//
// Account and Balance are cached here rather than recomputed on read
// because only send and state blocks carry a balance field directly;
// receive, open, and change blocks would otherwise require walking the
// account chain (and, for receive/open, consulting a pending entry that
// is deleted once the block is processed) every time a historical
// block's account or balance is queried.
type Sideband struct {
	Account     basics.Account
	Height      uint64
	Balance     basics.Amount
	Timestamp   uint64
	Successor   basics.BlockHash
	Details     Details
	SourceEpoch basics.Epoch
}

// Details records the derived, persisted facts about a block that the
// processor computed once at apply time so readers never need to
// re-derive them from the block's raw fields.
type Details struct {
	Epoch     basics.Epoch
	IsSend    bool
	IsReceive bool
	IsEpoch   bool
}

// BlockAndSideband is the unit actually stored in the blocks table.
type BlockAndSideband struct {
	Block    Block
	Sideband Sideband
}
