// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Package ticket implements the session and access-grant state
// machines at the core of the authority.
//
// A [Session] is a ticket-granting entity: the record of one
// authentication (root session) or of a delegation chain (delegated
// session). From a session the authority grants [Access] values —
// single-use, service-scoped grants that a relying service later
// presents for validation exactly once.
//
// All state transitions are monotonic and serialized per session:
// Grant, Delegate, ValidateAccess, and Invalidate take the session
// mutex, so concurrent requests against the same session observe a
// single linear history. In particular, at most one concurrent
// validation of an access can win the Unvalidated→Validated
// transition; every other attempt gets a terminal classification
// (consumed, expired, mismatch) rather than a second success.
//
// The package deliberately knows nothing about registries, stores, or
// credential verification. Authorization side-conditions (service
// enabled, SSO eligibility, proxy eligibility) are decided by the
// orchestrator and expressed here only as the request flags that make
// the corresponding checks atomic (for example
// [AccessRequest].RequireUnused).
package ticket
