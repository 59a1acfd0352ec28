// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Package store provides session persistence behind the [Store]
// interface: lookup by session id, access id, or root principal, plus
// create/update/destroy.
//
// [Memory] is the reference implementation and the substrate for
// tests. [SQLite] adds durability: it keeps the same live in-process
// index (the session mutex must guard exactly one instance per id in
// a single-process authority) and writes every mutation through to
// disk as a CBOR snapshot, restoring all sessions on open.
//
// The store is deliberately dumb. It never interprets ticket state;
// expiry, single-use, and authorization all live in lib/ticket and the
// orchestrator. Absence is the only condition it classifies
// ([ErrNotFound]); everything else is an infrastructure fault.
package store
