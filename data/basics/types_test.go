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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEpochIsValid(t *testing.T) {
	t.Parallel()
	require.True(t, Epoch0.IsValid())
	require.True(t, Epoch1.IsValid())
	require.True(t, Epoch2.IsValid())
	require.False(t, Epoch(3).IsValid())
}

func TestLinkRoundTripsBlockHashAndAccount(t *testing.T) {
	t.Parallel()
	var h BlockHash
	h[0] = 0xAB
	l := LinkFromBlockHash(h)
	require.Equal(t, h, l.AsBlockHash())

	acct := keyFromSeed(42)
	l2 := LinkFromAccount(acct)
	require.Equal(t, acct, l2.AsAccount())
}

func TestQualifiedRootToBytes(t *testing.T) {
	t.Parallel()
	var root, prev BlockHash
	root[0] = 1
	prev[0] = 2
	qr := QualifiedRoot{Root: root, Previous: prev}
	buf := qr.ToBytes()
	require.Len(t, buf, 64)
	require.Equal(t, byte(1), buf[0])
	require.Equal(t, byte(2), buf[32])
}

func TestBlockHashIsZero(t *testing.T) {
	t.Parallel()
	var h BlockHash
	require.True(t, h.IsZero())
	h[0] = 1
	require.False(t, h.IsZero())
}
