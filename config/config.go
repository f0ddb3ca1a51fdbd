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
	"fmt"
	"os"
	"path/filepath"

	"github.com/blocklattice/ledger/util/codecs"
)

func isNotExist(err error) bool {
	return os.IsNotExist(err)
}

// ConfigFilename is the name of the ledger engine's configuration file, found
// under the node's data directory.
const ConfigFilename = "config.json"

// DatabaseBackend names the persistent store implementation a ledger opens.
type DatabaseBackend string

const (
	// DatabaseBackendBtreeMmap is a memory-mapped B-tree backend.
	DatabaseBackendBtreeMmap DatabaseBackend = "btree_mmap"
	// DatabaseBackendLSM is a log-structured-merge-tree backend.
	DatabaseBackendLSM DatabaseBackend = "lsm"
)

// CacheFlags controls which in-memory caches are rebuilt (and
// cross-validated against the store) at ledger open time.
type CacheFlags struct {
	AccountCount      bool `json:"account_count"`
	BlockCount        bool `json:"block_count"`
	CementedCount     bool `json:"cemented_count"`
	Reps              bool `json:"reps"`
	ConsistencyCheck  bool `json:"consistency_check"`
}

// Local holds the ledger engine's process-wide configuration. It is
// merge-loaded over DefaultLocal the same way go-algorand's config.Local is:
// only the fields present in the on-disk JSON override the default.
type Local struct {
	// Version is bumped whenever a field is added; on load a config from an
	// older version is merged onto the current defaults rather than used raw.
	Version uint32 `json:"version"`

	// DatabaseBackend selects the persistent store implementation.
	DatabaseBackend DatabaseBackend `json:"database_backend"`

	// MinRepWeightRaw is the dust threshold, written as a base-10 integer
	// string, below which a representative is excluded from enumerated
	// weight snapshots. Totals always include it.
	MinRepWeightRaw string `json:"min_rep_weight"`

	// MaxBacklogSize is the soft upper bound on the unconfirmed-block count
	// used by external schedulers. 0 means unlimited.
	MaxBacklogSize uint64 `json:"max_backlog_size"`

	// BootstrapWeightMaxBlocks is added to the backlog allowance while the
	// cemented count is still below this value.
	BootstrapWeightMaxBlocks uint64 `json:"bootstrap_weight_max_blocks"`

	// ConsistencyCheck triggers a full sum-verification pass at ledger init.
	ConsistencyCheck bool `json:"consistency_check"`

	// GenerateCacheFlags controls which caches are (re)computed at open.
	GenerateCacheFlags CacheFlags `json:"generate_cache_flags"`

	// AllowAccountPrefixOverride must be explicitly set for
	// AccountPrefixOverride below to take effect; the override exists only
	// to let tests substitute a non-default account string prefix and is
	// never read implicitly from the environment.
	AllowAccountPrefixOverride bool `json:"allow_account_prefix_override"`

	// AccountPrefixOverride replaces the "nano_" account string prefix when
	// AllowAccountPrefixOverride is true.
	AccountPrefixOverride string `json:"account_prefix_override"`

	// MaxRollbackDepth is stored with the rest of the configuration;
	// Facade.Open does not read it. The rollback engine's cascade bound
	// is ledgercore.Params.MaxRollbackDepth.
	MaxRollbackDepth uint64 `json:"max_rollback_depth"`

	// LogFilePath, when non-empty, redirects the facade's logger to a
	// size-bounded file instead of stderr. LogArchiveFilePath names
	// where the live file is rotated to once it reaches LogSizeLimit
	// bytes; LogSizeLimit of 0 disables rotation.
	LogFilePath        string `json:"log_file_path"`
	LogArchiveFilePath string `json:"log_archive_file_path"`
	LogSizeLimit       uint64 `json:"log_size_limit"`
}

// currentConfigVersion is the config schema version emitted by DefaultLocal.
const currentConfigVersion = 1

// DefaultLocal is the configuration used when no on-disk config.json is
// present, and the base onto which an on-disk config is merged.
var DefaultLocal = Local{
	Version:                    currentConfigVersion,
	DatabaseBackend:            DatabaseBackendBtreeMmap,
	MinRepWeightRaw:            "0",
	MaxBacklogSize:             0,
	BootstrapWeightMaxBlocks:   0,
	ConsistencyCheck:           false,
	GenerateCacheFlags:         CacheFlags{AccountCount: true, BlockCount: true, CementedCount: true, Reps: true},
	AllowAccountPrefixOverride: false,
	AccountPrefixOverride:      "",
	MaxRollbackDepth:           100000,
}

// LoadConfigFromDisk loads a Local config from dataDir/config.json, merging
// over DefaultLocal. A missing file is not an error: the default is used.
func LoadConfigFromDisk(dataDir string) (Local, error) {
	return loadConfigFromFile(filepath.Join(dataDir, ConfigFilename))
}

func loadConfigFromFile(configFile string) (c Local, err error) {
	c = DefaultLocal
	err = codecs.LoadObjectFromFile(configFile, &c)
	if err != nil {
		if isNotExist(err) {
			return DefaultLocal, nil
		}
		return c, fmt.Errorf("config.loadConfigFromFile: %w", err)
	}
	return c, nil
}

// SaveToDisk writes cfg's non-default fields to dataDir/config.json.
func (c Local) SaveToDisk(dataDir string) error {
	return c.SaveToFile(filepath.Join(dataDir, ConfigFilename))
}

// SaveToFile writes cfg's non-default fields to filename, relative to
// DefaultLocal, mirroring config.Local.SaveToFile.
func (c Local) SaveToFile(filename string) error {
	return codecs.SaveNonDefaultValuesToFile(filename, c, DefaultLocal, []string{"Version"}, true)
}
