// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool used by the
// durable session store.
//
// It wraps zombiezen.com/go/sqlite with one set of pragmas: WAL
// journaling for concurrent readers during snapshot writes, NORMAL
// synchronous for process-crash durability without per-commit fsync
// cost, and a busy timeout so writer contention between pool
// connections resolves by waiting rather than SQLITE_BUSY.
//
// The package is intentionally thin. Callers write SQL, use
// sqlitex.Execute for cached statements, and manage transactions with
// sqlitex.ImmediateTransaction; there is no query builder or
// abstraction over SQLite's connection model.
package sqlitepool
