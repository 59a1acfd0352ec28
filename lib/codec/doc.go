// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Signet's standard CBOR encoding configuration.
//
// CBOR is used for the two internal byte surfaces of the authority:
// session snapshots persisted by the SQLite store, and the
// request/response protocol on the daemon's Unix socket. Both encode
// through this package so every component produces identical bytes for
// identical data.
//
// External representations (registry files, configuration, users
// files) are human-authored and stay JSONC/YAML; they never pass
// through this package.
package codec
