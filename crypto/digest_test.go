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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocklattice/ledger/protocol"
)

type testHashable struct {
	id   protocol.HashID
	data []byte
}

func (t testHashable) ToBeHashed() (protocol.HashID, []byte) {
	return t.id, t.data
}

func TestHashDeterministic(t *testing.T) {
	t.Parallel()
	a := Hash([]byte("abc"))
	b := Hash([]byte("abc"))
	require.Equal(t, a, b)
}

func TestHashObjDomainSeparated(t *testing.T) {
	t.Parallel()
	h1 := HashObj(testHashable{id: "AA", data: []byte("x")})
	h2 := HashObj(testHashable{id: "BB", data: []byte("x")})
	require.NotEqual(t, h1, h2)
}

func TestHash40Length(t *testing.T) {
	t.Parallel()
	sum := Hash40([]byte("some account public key bytes..."))
	require.Len(t, sum, 5)
}
