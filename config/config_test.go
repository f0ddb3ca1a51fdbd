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

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefault(t *testing.T) {
	t.Parallel()
	c, err := LoadConfigFromDisk(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, DefaultLocal, c)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	c := DefaultLocal
	c.DatabaseBackend = DatabaseBackendLSM
	c.MaxBacklogSize = 5000
	c.ConsistencyCheck = true

	require.NoError(t, c.SaveToDisk(dir))

	loaded, err := LoadConfigFromDisk(dir)
	require.NoError(t, err)
	require.Equal(t, DatabaseBackendLSM, loaded.DatabaseBackend)
	require.EqualValues(t, 5000, loaded.MaxBacklogSize)
	require.True(t, loaded.ConsistencyCheck)
}

func TestAccountPrefixOverrideRequiresAllowFlag(t *testing.T) {
	t.Parallel()
	c := DefaultLocal
	c.AccountPrefixOverride = "test_"
	require.False(t, c.AllowAccountPrefixOverride)
}
