// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"

	"github.com/signet-project/signet/lib/ticket"
)

// ErrNotFound reports a session id, access id, or principal with no
// live session. Callers in the orchestrator translate this into the
// protocol's invalid-ticket failure; infrastructure faults (I/O,
// serialization) are returned as distinct wrapped errors and must not
// be collapsed into ErrNotFound.
var ErrNotFound = errors.New("store: session not found")

// Store is the persistence boundary for sessions and the access
// grants they own. The store is the single source of truth: the
// orchestrator resolves every ticket id through it and never holds
// long-lived entity references across requests.
//
// Implementations return live *ticket.Session values — the same
// instance for the same id — so that the session's own mutex
// serializes concurrent mutation regardless of which lookup path
// (session id, access id, principal) reached it. Update persists the
// already-mutated entity; because all session transitions are
// monotonic, write-behind persistence is last-writer-safe.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// CreateSession registers a new session. Fails if the id is
	// already present (ids are never reused).
	CreateSession(ctx context.Context, session *ticket.Session) error

	// FindSession resolves a session by its id.
	FindSession(ctx context.Context, sessionID string) (*ticket.Session, error)

	// FindByAccess resolves the session owning the given access id.
	FindByAccess(ctx context.Context, accessID string) (*ticket.Session, error)

	// FindByPrincipal returns all sessions whose root principal has
	// the given name. An empty result is (nil, nil), not ErrNotFound:
	// principal-wide logout treats absence as success.
	FindByPrincipal(ctx context.Context, name string) ([]*ticket.Session, error)

	// Update persists the session's current state and refreshes the
	// access-id index with any newly granted accesses.
	Update(ctx context.Context, session *ticket.Session) error

	// Destroy removes the session and its access index entries,
	// returning the removed session. The caller invalidates it.
	Destroy(ctx context.Context, sessionID string) (*ticket.Session, error)

	// Sessions returns every live session. Used by the expiration
	// reaper and operator tooling.
	Sessions(ctx context.Context) ([]*ticket.Session, error)

	// Close releases store resources.
	Close() error
}
