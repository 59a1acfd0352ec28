// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import "time"

// ExpirationPolicy decides when a ticket entity times out. Policies
// are pure functions over timestamps; the clock is supplied by the
// caller so tests control time.
type ExpirationPolicy interface {
	// Expired reports whether an entity created at createdAt and
	// last used at lastUsedAt has expired as of now.
	Expired(createdAt, lastUsedAt, now time.Time) bool
}

// Lifetime is an absolute-timeout policy: the entity expires Max
// after creation regardless of activity. The standard policy for
// access grants, whose whole purpose is to be presented immediately.
type Lifetime struct {
	Max time.Duration
}

// Expired implements ExpirationPolicy.
func (l Lifetime) Expired(createdAt, _, now time.Time) bool {
	return now.Sub(createdAt) >= l.Max
}

// Idle is a sliding-timeout policy: the entity expires Timeout after
// its last use. The standard policy for sessions, which stay alive as
// long as the user keeps requesting grants.
type Idle struct {
	Timeout time.Duration
}

// Expired implements ExpirationPolicy.
func (i Idle) Expired(_, lastUsedAt, now time.Time) bool {
	return now.Sub(lastUsedAt) >= i.Timeout
}

// Never returns a policy under which the entity never expires. Used
// in tests and for deployments that delegate session lifetime
// entirely to explicit logout.
func Never() ExpirationPolicy { return neverExpires{} }

type neverExpires struct{}

func (neverExpires) Expired(_, _, _ time.Time) bool { return false }
