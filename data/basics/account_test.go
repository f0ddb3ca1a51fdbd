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

func keyFromSeed(b byte) Account {
	var a Account
	for i := range a {
		a[i] = b
	}
	return a
}

func TestAccountStringRoundTrip(t *testing.T) {
	t.Parallel()
	for i := 0; i < 8; i++ {
		acct := keyFromSeed(byte(i*17 + 1))
		s := acct.String()
		require.True(t, len(s) == len("nano_")+accountCharCount+checksumCharCount)
		got, err := ParseAccount(s)
		require.NoError(t, err)
		require.Equal(t, acct, got)
	}
}

func TestAccountZeroRoundTrip(t *testing.T) {
	t.Parallel()
	var acct Account
	s := acct.String()
	got, err := ParseAccount(s)
	require.NoError(t, err)
	require.Equal(t, acct, got)
	require.True(t, got.IsZero())
}

func TestAccountNodeIDPrefix(t *testing.T) {
	t.Parallel()
	acct := keyFromSeed(3)
	s := acct.NodeIDString()
	require.Contains(t, s, "node_")
	got, err := ParseAccount(s)
	require.NoError(t, err)
	require.Equal(t, acct, got)
}

func TestAccountLegacyPrefixAccepted(t *testing.T) {
	t.Parallel()
	acct := keyFromSeed(5)
	canonical := acct.String()
	legacy := "xrb_" + canonical[len("nano_"):]
	got, err := ParseAccount(legacy)
	require.NoError(t, err)
	require.Equal(t, acct, got)
}

func TestAccountDashSeparatorAccepted(t *testing.T) {
	t.Parallel()
	acct := keyFromSeed(9)
	canonical := acct.String()
	dashed := "nano-" + canonical[len("nano_"):]
	got, err := ParseAccount(dashed)
	require.NoError(t, err)
	require.Equal(t, acct, got)
}

func TestAccountRejectsFlippedChecksumBit(t *testing.T) {
	t.Parallel()
	acct := keyFromSeed(11)
	s := acct.String()
	mutated := []byte(s)
	// flip the last character to something else in the alphabet.
	last := mutated[len(mutated)-1]
	for _, c := range []byte(currencyAlphabet) {
		if c != last {
			mutated[len(mutated)-1] = c
			break
		}
	}
	_, err := ParseAccount(string(mutated))
	require.Error(t, err)
}

func TestAccountRejectsUnknownPrefix(t *testing.T) {
	t.Parallel()
	_, err := ParseAccount("btc_notarealaccount")
	require.Error(t, err)
}

func TestAccountRejectsWrongLength(t *testing.T) {
	t.Parallel()
	_, err := ParseAccount("nano_tooshort")
	require.Error(t, err)
}
