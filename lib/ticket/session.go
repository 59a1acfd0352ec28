// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/signet-project/signet/lib/principal"
)

// Errors returned by session and access state transitions. The
// orchestrator maps these onto its protocol error taxonomy; within
// this package they name the exact condition hit.
var (
	ErrSessionInvalidated = errors.New("ticket: session is invalidated")
	ErrSessionExpired     = errors.New("ticket: session has expired")
	ErrSessionUsed        = errors.New("ticket: session has already issued a grant")
	ErrAccessNotFound     = errors.New("ticket: access grant not found on session")
	ErrAccessExpired      = errors.New("ticket: access grant has expired")
	ErrAccessConsumed     = errors.New("ticket: access grant already validated")
	ErrServiceMismatch    = errors.New("ticket: access grant is scoped to a different service")
	ErrDelegationDepth    = errors.New("ticket: delegation would exceed the maximum proxy depth")
)

// SessionState is the lifecycle state of a session. Invalidation is
// terminal: there is no transition back to Active.
type SessionState uint8

const (
	// Active is the ordinary state: the session may issue grants.
	Active SessionState = iota

	// Invalidated means the session was destroyed (logout, expiry
	// sweep). All further grants and validations fail.
	Invalidated
)

// String returns the state name for logs.
func (s SessionState) String() string {
	if s == Invalidated {
		return "invalidated"
	}
	return "active"
}

// Session is a root or delegated ticket-granting entity: an
// authentication chain plus the access grants issued from it.
//
// Session is safe for concurrent use. Every compound operation
// (grant, delegate, validate, invalidate) runs under the session
// mutex, making "read state, decide, mutate" a single atomic unit as
// the replay-prevention invariants require.
type Session struct {
	mu sync.Mutex

	id       string
	chain    []Authentication
	longTerm bool
	parentID string

	used     bool
	state    SessionState
	accesses map[string]*Access

	createdAt  time.Time
	lastUsedAt time.Time
}

// NewSession creates a root session from a single authentication.
func NewSession(auth Authentication, longTerm bool, now time.Time) *Session {
	return &Session{
		id:         NewSessionID(),
		chain:      []Authentication{auth},
		longTerm:   longTerm,
		accesses:   make(map[string]*Access),
		createdAt:  now,
		lastUsedAt: now,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// RootPrincipal returns the principal of the chain's oldest
// authentication: the identity this session ultimately speaks for,
// however many delegation hops sit on top.
func (s *Session) RootPrincipal() principal.Principal {
	return s.chain[0].Principal
}

// AuthenticationChain returns a copy of the chain, oldest first.
func (s *Session) AuthenticationChain() []Authentication {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Authentication(nil), s.chain...)
}

// Delegated reports whether this is a delegated (proxy) session.
func (s *Session) Delegated() bool { return s.parentID != "" }

// ParentID returns the parent session id for a delegated session, or
// "" for a root session. The relation is identity-only: destroying
// either side never cascades to the other.
func (s *Session) ParentID() string { return s.parentID }

// LongTerm reports whether the session was created by a long-term
// login and therefore uses the extended expiration policy.
func (s *Session) LongTerm() bool { return s.longTerm }

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Used reports whether the session has ever issued a grant.
func (s *Session) Used() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastUsedAt returns the time of the session's most recent grant or
// delegation.
func (s *Session) LastUsedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsedAt
}

// Invalidate moves the session to Invalidated. Idempotent; the
// transition is one-way, so the first caller wins and later callers
// observe the same terminal state.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Invalidated
}

// Expired reports whether the session has timed out under the given
// policy.
func (s *Session) Expired(policy ExpirationPolicy, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return policy.Expired(s.createdAt, s.lastUsedAt, now)
}

// Access returns the access grant with the given id, or nil.
func (s *Session) Access(accessID string) *Access {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accesses[accessID]
}

// AccessIDs returns the ids of all outstanding grants.
func (s *Session) AccessIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.accesses))
	for id := range s.accesses {
		ids = append(ids, id)
	}
	return ids
}

// RemoveAccess deletes a grant from the session. Used by the lazy
// cleanup of expired accesses after validation attempts.
func (s *Session) RemoveAccess(accessID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accesses, accessID)
}

// AccessRequest is the context for one grant: which service, whether
// fresh credentials were presented, and conditions the grant must
// check atomically under the session lock.
type AccessRequest struct {
	// ServiceID is the service/resource identifier the grant is
	// scoped to.
	ServiceID string

	// ForceAuth records that fresh credentials accompanied the
	// request; the resulting grant reports from-new-login.
	ForceAuth bool

	// RequireUnused fails the grant if the session has already
	// issued one. Set by the orchestrator for ambient requests
	// against SSO-disabled services, which may ride the session's
	// first use only. Checked under the session lock so concurrent
	// first grants cannot both slip through.
	RequireUnused bool

	// At is the grant time.
	At time.Time
}

// Grant issues a new access for the request. The session must be
// Active, not expired under policy, and — when the request demands it
// — never previously used. The whole check-and-issue runs under the
// session mutex.
func (s *Session) Grant(request AccessRequest, policy ExpirationPolicy) (*Access, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Invalidated {
		return nil, ErrSessionInvalidated
	}
	if policy.Expired(s.createdAt, s.lastUsedAt, request.At) {
		return nil, ErrSessionExpired
	}
	if request.RequireUnused && s.used {
		return nil, ErrSessionUsed
	}

	access := &Access{
		id:        NewAccessID(),
		sessionID: s.id,
		serviceID: request.ServiceID,
		forceAuth: request.ForceAuth,
		createdAt: request.At,
	}
	s.accesses[access.id] = access
	s.used = true
	s.lastUsedAt = request.At
	return access, nil
}

// Delegate creates a child session on behalf of the service holding
// the given access grant. The child's chain is the parent's chain
// plus auth; its length is checked against maxDepth here, at
// delegation time, so an over-deep chain can never be created.
func (s *Session) Delegate(accessID string, auth Authentication, maxDepth int, policy ExpirationPolicy, now time.Time) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Invalidated {
		return nil, ErrSessionInvalidated
	}
	if policy.Expired(s.createdAt, s.lastUsedAt, now) {
		return nil, ErrSessionExpired
	}

	access, ok := s.accesses[accessID]
	if !ok {
		return nil, ErrAccessNotFound
	}

	childChain := make([]Authentication, 0, len(s.chain)+1)
	childChain = append(childChain, s.chain...)
	childChain = append(childChain, auth)
	if len(childChain) > maxDepth {
		return nil, fmt.Errorf("%w: chain length %d exceeds %d", ErrDelegationDepth, len(childChain), maxDepth)
	}

	child := &Session{
		id:         NewSessionID(),
		chain:      childChain,
		parentID:   s.id,
		accesses:   make(map[string]*Access),
		createdAt:  now,
		lastUsedAt: now,
	}
	access.childSessionID = child.id
	s.lastUsedAt = now
	return child, nil
}

// ValidateAccess performs the atomic check-and-transition of one
// access grant: the single place the Unvalidated→Validated transition
// happens. Exactly one concurrent caller can succeed; all others
// receive the terminal classification they raced against.
//
// Order of checks, under the session mutex:
//
//  1. the session must not be invalidated;
//  2. the access must exist;
//  3. an elapsed expiration policy moves it to Expired;
//  4. an already-validated access moves to Consumed (replay);
//  5. a service mismatch fails WITHOUT consuming the grant;
//  6. otherwise Unvalidated→Validated, and the access is returned.
//
// The mismatch check deliberately precedes consumption: a misdirected
// validation attempt must not burn a grant the right service has not
// seen yet.
func (s *Session) ValidateAccess(accessID, serviceID string, policy ExpirationPolicy, now time.Time) (*Access, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Invalidated {
		return nil, ErrSessionInvalidated
	}

	access, ok := s.accesses[accessID]
	if !ok {
		return nil, ErrAccessNotFound
	}

	switch access.state {
	case Expired:
		return nil, ErrAccessExpired
	case Validated, Consumed:
		access.state = Consumed
		return nil, ErrAccessConsumed
	}

	if policy.Expired(access.createdAt, access.createdAt, now) {
		access.state = Expired
		return nil, ErrAccessExpired
	}

	if access.serviceID != serviceID {
		return nil, fmt.Errorf("%w: granted for %q, presented by %q", ErrServiceMismatch, access.serviceID, serviceID)
	}

	access.state = Validated
	return access, nil
}

// AccessExpired reports whether the grant has timed out under policy,
// for the lazy post-validation cleanup.
func (s *Session) AccessExpired(accessID string, policy ExpirationPolicy, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	access, ok := s.accesses[accessID]
	if !ok {
		return false
	}
	return access.state == Expired || policy.Expired(access.createdAt, access.createdAt, now)
}
