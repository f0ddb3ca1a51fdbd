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
	"encoding/binary"
	"fmt"
	"math/bits"
)

// AmountSize is the width in bytes of an Amount's fixed big-endian
// persisted representation.
const AmountSize = 16

// Amount is a 128-bit unsigned balance or transfer quantity, represented as
// two 64-bit words so arithmetic stays overflow-checkable without a bignum
// dependency. Hi holds the upper 64 bits.
type Amount struct {
	Hi uint64
	Lo uint64
}

// ZeroAmount is the additive identity.
var ZeroAmount = Amount{}

// MaxAmount is the largest representable Amount (2^128 - 1), the historical
// genesis supply.
var MaxAmount = Amount{Hi: ^uint64(0), Lo: ^uint64(0)}

// AmountFromUint64 widens a uint64 into an Amount.
func AmountFromUint64(v uint64) Amount {
	return Amount{Lo: v}
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.Hi == 0 && a.Lo == 0
}

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.Hi != b.Hi:
		if a.Hi < b.Hi {
			return -1
		}
		return 1
	case a.Lo != b.Lo:
		if a.Lo < b.Lo {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Add returns a+b and reports whether the addition overflowed 128 bits.
func (a Amount) Add(b Amount) (Amount, bool) {
	lo, carry := bits.Add64(a.Lo, b.Lo, 0)
	hi, carryOut := bits.Add64(a.Hi, b.Hi, carry)
	return Amount{Hi: hi, Lo: lo}, carryOut != 0
}

// Sub returns a-b and reports whether the subtraction underflowed.
func (a Amount) Sub(b Amount) (Amount, bool) {
	lo, borrow := bits.Sub64(a.Lo, b.Lo, 0)
	hi, borrowOut := bits.Sub64(a.Hi, b.Hi, borrow)
	return Amount{Hi: hi, Lo: lo}, borrowOut != 0
}

// ToBytes encodes the amount as 16 big-endian bytes.
func (a Amount) ToBytes() [AmountSize]byte {
	var buf [AmountSize]byte
	binary.BigEndian.PutUint64(buf[0:8], a.Hi)
	binary.BigEndian.PutUint64(buf[8:16], a.Lo)
	return buf
}

// AmountFromBytes decodes 16 big-endian bytes into an Amount. It fails if
// the span is not exactly AmountSize bytes.
func AmountFromBytes(b []byte) (Amount, error) {
	if len(b) != AmountSize {
		return Amount{}, fmt.Errorf("basics: amount span is %d bytes, want %d", len(b), AmountSize)
	}
	return Amount{
		Hi: binary.BigEndian.Uint64(b[0:8]),
		Lo: binary.BigEndian.Uint64(b[8:16]),
	}, nil
}

// String renders the amount in decimal, for logging and test failure
// messages. Repeatedly divides the 128-bit value by 10^19 (the largest
// power of ten that fits in a uint64) and formats each resulting limb.
func (a Amount) String() string {
	if a.Hi == 0 {
		return fmt.Sprintf("%d", a.Lo)
	}
	const base = uint64(1e19)
	hi, lo := a.Hi, a.Lo
	var limbs []uint64
	for hi != 0 || lo != 0 {
		q1, r1 := bits.Div64(0, hi, base)
		q0, r0 := bits.Div64(r1, lo, base)
		hi, lo = q1, q0
		limbs = append(limbs, r0)
	}
	out := fmt.Sprintf("%d", limbs[len(limbs)-1])
	for i := len(limbs) - 2; i >= 0; i-- {
		out += fmt.Sprintf("%019d", limbs[i])
	}
	return out
}
