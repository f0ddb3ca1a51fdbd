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

const (
	accountInfoSize           = 32 + 32 + 32 + basics.AmountSize + 8 + 8 + 1
	pendingInfoSize           = 32 + basics.AmountSize + 1
	confirmationHeightSize    = 8 + 32
	repWeightValueSize        = basics.AmountSize
)

// EncodeAccountInfo serializes an AccountInfo to its fixed-width record.
func EncodeAccountInfo(a basics.AccountInfo) []byte {
	buf := make([]byte, 0, accountInfoSize)
	buf = append(buf, a.Head[:]...)
	buf = append(buf, a.Open[:]...)
	buf = append(buf, a.Representative[:]...)
	bal := a.Balance.ToBytes()
	buf = append(buf, bal[:]...)
	var tmp8 [8]byte
	binary.BigEndian.PutUint64(tmp8[:], a.Modified)
	buf = append(buf, tmp8[:]...)
	binary.BigEndian.PutUint64(tmp8[:], a.BlockCount)
	buf = append(buf, tmp8[:]...)
	buf = append(buf, byte(a.Epoch))
	return buf
}

// DecodeAccountInfo parses a fixed-width AccountInfo record.
func DecodeAccountInfo(span []byte) (basics.AccountInfo, error) {
	if len(span) != accountInfoSize {
		return basics.AccountInfo{}, fmt.Errorf("blocktype: account info span is %d bytes, want %d", len(span), accountInfoSize)
	}
	var a basics.AccountInfo
	off := 0
	copy(a.Head[:], span[off:off+32])
	off += 32
	copy(a.Open[:], span[off:off+32])
	off += 32
	copy(a.Representative[:], span[off:off+32])
	off += 32
	bal, err := basics.AmountFromBytes(span[off : off+basics.AmountSize])
	if err != nil {
		return basics.AccountInfo{}, err
	}
	a.Balance = bal
	off += basics.AmountSize
	a.Modified = binary.BigEndian.Uint64(span[off : off+8])
	off += 8
	a.BlockCount = binary.BigEndian.Uint64(span[off : off+8])
	off += 8
	a.Epoch = basics.Epoch(span[off])
	return a, nil
}

// EncodePendingInfo serializes a PendingInfo to its fixed-width record.
func EncodePendingInfo(p basics.PendingInfo) []byte {
	buf := make([]byte, 0, pendingInfoSize)
	buf = append(buf, p.Source[:]...)
	amt := p.Amount.ToBytes()
	buf = append(buf, amt[:]...)
	buf = append(buf, byte(p.Epoch))
	return buf
}

// DecodePendingInfo parses a fixed-width PendingInfo record.
func DecodePendingInfo(span []byte) (basics.PendingInfo, error) {
	if len(span) != pendingInfoSize {
		return basics.PendingInfo{}, fmt.Errorf("blocktype: pending info span is %d bytes, want %d", len(span), pendingInfoSize)
	}
	var p basics.PendingInfo
	copy(p.Source[:], span[0:32])
	amt, err := basics.AmountFromBytes(span[32 : 32+basics.AmountSize])
	if err != nil {
		return basics.PendingInfo{}, err
	}
	p.Amount = amt
	p.Epoch = basics.Epoch(span[32+basics.AmountSize])
	return p, nil
}

// EncodePendingKey builds the (destination, send_hash) composite key for
// the pending table; concatenation keeps byte-lexicographic order equal
// to (destination, send_hash) tuple order, as required for ordered scans.
func EncodePendingKey(destination basics.Account, sendHash basics.BlockHash) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, destination[:]...)
	buf = append(buf, sendHash[:]...)
	return buf
}

// DecodePendingKey parses a pending-table composite key.
func DecodePendingKey(span []byte) (basics.Account, basics.BlockHash, error) {
	if len(span) != 64 {
		return basics.Account{}, basics.BlockHash{}, fmt.Errorf("blocktype: pending key span is %d bytes, want 64", len(span))
	}
	var dest basics.Account
	var hash basics.BlockHash
	copy(dest[:], span[0:32])
	copy(hash[:], span[32:64])
	return dest, hash, nil
}

// EncodeConfirmationHeight serializes a ConfirmationHeightInfo record.
func EncodeConfirmationHeight(c basics.ConfirmationHeightInfo) []byte {
	buf := make([]byte, 0, confirmationHeightSize)
	var tmp8 [8]byte
	binary.BigEndian.PutUint64(tmp8[:], c.Height)
	buf = append(buf, tmp8[:]...)
	buf = append(buf, c.FrontierHash[:]...)
	return buf
}

// DecodeConfirmationHeight parses a ConfirmationHeightInfo record.
func DecodeConfirmationHeight(span []byte) (basics.ConfirmationHeightInfo, error) {
	if len(span) != confirmationHeightSize {
		return basics.ConfirmationHeightInfo{}, fmt.Errorf("blocktype: confirmation height span is %d bytes, want %d", len(span), confirmationHeightSize)
	}
	var c basics.ConfirmationHeightInfo
	c.Height = binary.BigEndian.Uint64(span[0:8])
	copy(c.FrontierHash[:], span[8:40])
	return c, nil
}

// EncodeRepWeight serializes a representative's committed weight, the
// rep_weights table's value type.
func EncodeRepWeight(amt basics.Amount) []byte {
	b := amt.ToBytes()
	return b[:]
}

// DecodeRepWeight parses a rep_weights table value.
func DecodeRepWeight(span []byte) (basics.Amount, error) {
	if len(span) != repWeightValueSize {
		return basics.Amount{}, fmt.Errorf("blocktype: rep weight span is %d bytes, want %d", len(span), repWeightValueSize)
	}
	return basics.AmountFromBytes(span)
}
