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

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// GetUserVersion reads sqlite's built-in user_version pragma, which is
// separate from the store-level "version" table (that table records the
// ledger's own migration state, not sqlite's). The btree_mmap backend
// does not call it.
func GetUserVersion(ctx context.Context, tx *sql.Tx) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	row := tx.QueryRowContext(ctx, "PRAGMA user_version")
	var version int32
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

// SetUserVersion sets sqlite's user_version pragma to version, returning
// the previous value.
func SetUserVersion(ctx context.Context, tx *sql.Tx, version int32) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	previous, err := GetUserVersion(ctx, tx)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return 0, err
	}
	return previous, nil
}
