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

package workverifier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocklattice/ledger/data/basics"
)

func TestVerifyIsDeterministic(t *testing.T) {
	t.Parallel()
	var root [32]byte
	root[0] = 0x42
	d1 := Compute(basics.Work(7), root)
	d2 := Compute(basics.Work(7), root)
	require.Equal(t, d1, d2)
}

func TestVerifyRootChangesDigest(t *testing.T) {
	t.Parallel()
	var rootA, rootB [32]byte
	rootA[0] = 1
	rootB[0] = 2
	require.NotEqual(t, Compute(basics.Work(1), rootA), Compute(basics.Work(1), rootB))
}

func TestVerifyZeroThresholdAlwaysPasses(t *testing.T) {
	t.Parallel()
	var root [32]byte
	require.True(t, Verify(basics.Work(0), root, basics.Work(0)))
}

func TestVerifyRejectsBelowThreshold(t *testing.T) {
	t.Parallel()
	var root [32]byte
	root[5] = 0x99
	digest := Compute(basics.Work(123), root)
	require.True(t, Verify(basics.Work(123), root, digest))
	if digest != ^basics.Work(0) {
		require.False(t, Verify(basics.Work(123), root, digest+1))
	}
}
