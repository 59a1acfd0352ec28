// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import "time"

// ValidationState is the lifecycle state of an access grant.
//
// The transitions are monotonic and one-way:
//
//	Unvalidated → Validated   the single successful validation
//	Unvalidated → Expired     expiration policy fired first
//	Validated   → Consumed    a replay attempt was observed
//
// There is no path out of Expired or Consumed, and no path back to
// Unvalidated from anywhere. The first observer of a terminal state
// wins; everyone else gets a well-defined failure.
type ValidationState uint8

const (
	// Unvalidated is the initial state: granted, not yet presented.
	Unvalidated ValidationState = iota

	// Validated means the single successful validation has happened.
	Validated

	// Consumed means a second validation was attempted after the
	// grant had already been validated — a replay.
	Consumed

	// Expired means the expiration policy elapsed before validation.
	Expired
)

// String returns the state name for logs.
func (s ValidationState) String() string {
	switch s {
	case Unvalidated:
		return "unvalidated"
	case Validated:
		return "validated"
	case Consumed:
		return "consumed"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Access is a single-use, service-scoped grant issued from a Session.
// An Access belongs to exactly one session; all mutation happens under
// that session's mutex, so Access itself carries no lock.
type Access struct {
	id        string
	sessionID string
	serviceID string
	state     ValidationState

	// forceAuth records whether this grant resulted from a fresh
	// credentialed re-authentication rather than ambient SSO.
	// Released to the relying service as the assertion's
	// from-new-login flag.
	forceAuth bool

	// childSessionID links to the delegated session this grant
	// spawned, when the grant was used as a proxy-granting ticket.
	childSessionID string

	createdAt time.Time
}

// ID returns the access id.
func (a *Access) ID() string { return a.id }

// SessionID returns the id of the owning session.
func (a *Access) SessionID() string { return a.sessionID }

// ServiceID returns the service/resource identifier the grant is
// scoped to.
func (a *Access) ServiceID() string { return a.serviceID }

// State returns the current validation state. Like all access reads
// used for decisions, callers that need a decision to be atomic go
// through Session.ValidateAccess; State is for logs and tests.
func (a *Access) State() ValidationState { return a.state }

// FromNewLogin reports whether the grant stemmed from a forced
// credentialed re-authentication.
func (a *Access) FromNewLogin() bool { return a.forceAuth }

// ChildSessionID returns the delegated session spawned from this
// grant, or "" if the grant never delegated.
func (a *Access) ChildSessionID() string { return a.childSessionID }

// CreatedAt returns the grant time.
func (a *Access) CreatedAt() time.Time { return a.createdAt }
