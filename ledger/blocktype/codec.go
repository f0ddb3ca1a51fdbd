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

package blocktype

import (
	"encoding/binary"
	"fmt"

	"github.com/blocklattice/ledger/data/basics"
)

// Wire sizes of each block kind, including the leading 1-byte kind tag.
const (
	sendBlockSize    = 1 + 32 + 32 + basics.AmountSize + 64 + 8
	receiveBlockSize = 1 + 32 + 32 + 64 + 8
	openBlockSize    = 1 + 32 + 32 + 32 + 64 + 8
	changeBlockSize  = 1 + 32 + 32 + 64 + 8
	stateBlockSize   = 1 + 32 + 32 + 32 + basics.AmountSize + 32 + 64 + 8

	// sidebandSize is account(32) + height(8) + balance(AmountSize) +
	// timestamp(8) + successor(32) + details-flags(1) + details-epoch(1) +
	// source-epoch(1).
	sidebandSize = 32 + 8 + basics.AmountSize + 8 + 32 + 1 + 1 + 1
)

// EncodeBlock serializes b to its fixed-width big-endian wire form,
// prefixed with a one-byte kind tag.
func EncodeBlock(b Block) ([]byte, error) {
	switch v := b.(type) {
	case SendBlock:
		buf := make([]byte, 0, sendBlockSize)
		buf = append(buf, byte(KindSend))
		buf = append(buf, v.Previous[:]...)
		buf = append(buf, v.Destination[:]...)
		amt := v.Balance.ToBytes()
		buf = append(buf, amt[:]...)
		buf = append(buf, v.Sig[:]...)
		buf = appendWork(buf, v.Nonce)
		return buf, nil
	case ReceiveBlock:
		buf := make([]byte, 0, receiveBlockSize)
		buf = append(buf, byte(KindReceive))
		buf = append(buf, v.Previous[:]...)
		buf = append(buf, v.Source[:]...)
		buf = append(buf, v.Sig[:]...)
		buf = appendWork(buf, v.Nonce)
		return buf, nil
	case OpenBlock:
		buf := make([]byte, 0, openBlockSize)
		buf = append(buf, byte(KindOpen))
		buf = append(buf, v.Source[:]...)
		buf = append(buf, v.Representative[:]...)
		buf = append(buf, v.Account[:]...)
		buf = append(buf, v.Sig[:]...)
		buf = appendWork(buf, v.Nonce)
		return buf, nil
	case ChangeBlock:
		buf := make([]byte, 0, changeBlockSize)
		buf = append(buf, byte(KindChange))
		buf = append(buf, v.Previous[:]...)
		buf = append(buf, v.Representative[:]...)
		buf = append(buf, v.Sig[:]...)
		buf = appendWork(buf, v.Nonce)
		return buf, nil
	case StateBlock:
		buf := make([]byte, 0, stateBlockSize)
		buf = append(buf, byte(KindState))
		buf = append(buf, v.Account[:]...)
		buf = append(buf, v.Previous[:]...)
		buf = append(buf, v.Representative[:]...)
		amt := v.Balance.ToBytes()
		buf = append(buf, amt[:]...)
		buf = append(buf, v.Link[:]...)
		buf = append(buf, v.Sig[:]...)
		buf = appendWork(buf, v.Nonce)
		return buf, nil
	default:
		return nil, fmt.Errorf("blocktype: unknown block implementation %T", b)
	}
}

func appendWork(buf []byte, w basics.Work) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(w))
	return append(buf, tmp[:]...)
}

func readWork(b []byte) basics.Work {
	return basics.Work(binary.BigEndian.Uint64(b))
}

// DecodeBlock parses a wire-encoded block. It fails if span does not
// exactly match the size implied by its leading kind byte.
func DecodeBlock(span []byte) (Block, error) {
	if len(span) == 0 {
		return nil, fmt.Errorf("blocktype: empty block span")
	}
	kind := Kind(span[0])
	switch kind {
	case KindSend:
		if len(span) != sendBlockSize {
			return nil, fmt.Errorf("blocktype: send block span is %d bytes, want %d", len(span), sendBlockSize)
		}
		var b SendBlock
		off := 1
		copy(b.Previous[:], span[off:off+32])
		off += 32
		copy(b.Destination[:], span[off:off+32])
		off += 32
		amt, err := basics.AmountFromBytes(span[off : off+basics.AmountSize])
		if err != nil {
			return nil, err
		}
		b.Balance = amt
		off += basics.AmountSize
		copy(b.Sig[:], span[off:off+64])
		off += 64
		b.Nonce = readWork(span[off : off+8])
		return b, nil
	case KindReceive:
		if len(span) != receiveBlockSize {
			return nil, fmt.Errorf("blocktype: receive block span is %d bytes, want %d", len(span), receiveBlockSize)
		}
		var b ReceiveBlock
		off := 1
		copy(b.Previous[:], span[off:off+32])
		off += 32
		copy(b.Source[:], span[off:off+32])
		off += 32
		copy(b.Sig[:], span[off:off+64])
		off += 64
		b.Nonce = readWork(span[off : off+8])
		return b, nil
	case KindOpen:
		if len(span) != openBlockSize {
			return nil, fmt.Errorf("blocktype: open block span is %d bytes, want %d", len(span), openBlockSize)
		}
		var b OpenBlock
		off := 1
		copy(b.Source[:], span[off:off+32])
		off += 32
		copy(b.Representative[:], span[off:off+32])
		off += 32
		copy(b.Account[:], span[off:off+32])
		off += 32
		copy(b.Sig[:], span[off:off+64])
		off += 64
		b.Nonce = readWork(span[off : off+8])
		return b, nil
	case KindChange:
		if len(span) != changeBlockSize {
			return nil, fmt.Errorf("blocktype: change block span is %d bytes, want %d", len(span), changeBlockSize)
		}
		var b ChangeBlock
		off := 1
		copy(b.Previous[:], span[off:off+32])
		off += 32
		copy(b.Representative[:], span[off:off+32])
		off += 32
		copy(b.Sig[:], span[off:off+64])
		off += 64
		b.Nonce = readWork(span[off : off+8])
		return b, nil
	case KindState:
		if len(span) != stateBlockSize {
			return nil, fmt.Errorf("blocktype: state block span is %d bytes, want %d", len(span), stateBlockSize)
		}
		var b StateBlock
		off := 1
		copy(b.Account[:], span[off:off+32])
		off += 32
		copy(b.Previous[:], span[off:off+32])
		off += 32
		copy(b.Representative[:], span[off:off+32])
		off += 32
		amt, err := basics.AmountFromBytes(span[off : off+basics.AmountSize])
		if err != nil {
			return nil, err
		}
		b.Balance = amt
		off += basics.AmountSize
		copy(b.Link[:], span[off:off+32])
		off += 32
		copy(b.Sig[:], span[off:off+64])
		off += 64
		b.Nonce = readWork(span[off : off+8])
		return b, nil
	default:
		return nil, fmt.Errorf("blocktype: unknown block kind tag %d", span[0])
	}
}

// EncodeSideband serializes a Sideband to its fixed-width wire form.
func EncodeSideband(s Sideband) []byte {
	buf := make([]byte, 0, sidebandSize)
	buf = append(buf, s.Account[:]...)
	var tmp8 [8]byte
	binary.BigEndian.PutUint64(tmp8[:], s.Height)
	buf = append(buf, tmp8[:]...)
	balance := s.Balance.ToBytes()
	buf = append(buf, balance[:]...)
	binary.BigEndian.PutUint64(tmp8[:], s.Timestamp)
	buf = append(buf, tmp8[:]...)
	buf = append(buf, s.Successor[:]...)
	var detailsByte byte
	if s.Details.IsSend {
		detailsByte |= 1
	}
	if s.Details.IsReceive {
		detailsByte |= 2
	}
	if s.Details.IsEpoch {
		detailsByte |= 4
	}
	buf = append(buf, detailsByte, byte(s.Details.Epoch), byte(s.SourceEpoch))
	return buf
}

// DecodeSideband parses a wire-encoded Sideband.
func DecodeSideband(span []byte) (Sideband, error) {
	if len(span) != sidebandSize {
		return Sideband{}, fmt.Errorf("blocktype: sideband span is %d bytes, want %d", len(span), sidebandSize)
	}
	var s Sideband
	off := 0
	copy(s.Account[:], span[off:off+32])
	off += 32
	s.Height = binary.BigEndian.Uint64(span[off : off+8])
	off += 8
	balance, err := basics.AmountFromBytes(span[off : off+basics.AmountSize])
	if err != nil {
		return Sideband{}, err
	}
	s.Balance = balance
	off += basics.AmountSize
	s.Timestamp = binary.BigEndian.Uint64(span[off : off+8])
	off += 8
	copy(s.Successor[:], span[off:off+32])
	off += 32
	detailsByte := span[off]
	off++
	s.Details.IsSend = detailsByte&1 != 0
	s.Details.IsReceive = detailsByte&2 != 0
	s.Details.IsEpoch = detailsByte&4 != 0
	s.Details.Epoch = basics.Epoch(span[off])
	off++
	s.SourceEpoch = basics.Epoch(span[off])
	return s, nil
}

// EncodeBlockAndSideband serializes the composite record stored in the
// blocks table: the block's native encoding followed by its sideband.
func EncodeBlockAndSideband(bs BlockAndSideband) ([]byte, error) {
	blockBytes, err := EncodeBlock(bs.Block)
	if err != nil {
		return nil, err
	}
	return append(blockBytes, EncodeSideband(bs.Sideband)...), nil
}

// DecodeBlockAndSideband parses the composite blocks-table record. The
// block's own size (implied by its kind tag) determines where the
// sideband suffix begins.
func DecodeBlockAndSideband(span []byte) (BlockAndSideband, error) {
	if len(span) < 1 {
		return BlockAndSideband{}, fmt.Errorf("blocktype: empty block+sideband span")
	}
	blockSize, err := sizeForKind(Kind(span[0]))
	if err != nil {
		return BlockAndSideband{}, err
	}
	if len(span) != blockSize+sidebandSize {
		return BlockAndSideband{}, fmt.Errorf("blocktype: block+sideband span is %d bytes, want %d", len(span), blockSize+sidebandSize)
	}
	block, err := DecodeBlock(span[:blockSize])
	if err != nil {
		return BlockAndSideband{}, err
	}
	sideband, err := DecodeSideband(span[blockSize:])
	if err != nil {
		return BlockAndSideband{}, err
	}
	return BlockAndSideband{Block: block, Sideband: sideband}, nil
}

func sizeForKind(k Kind) (int, error) {
	switch k {
	case KindSend:
		return sendBlockSize, nil
	case KindReceive:
		return receiveBlockSize, nil
	case KindOpen:
		return openBlockSize, nil
	case KindChange:
		return changeBlockSize, nil
	case KindState:
		return stateBlockSize, nil
	default:
		return 0, fmt.Errorf("blocktype: unknown block kind tag %d", byte(k))
	}
}
