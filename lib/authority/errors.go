// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"errors"
	"fmt"
)

// Kind classifies a protocol failure. Every Kind signals that the
// caller supplied an invalid or expired ticket or an unauthorized
// request; none of them is a transient system fault, so none is
// retriable. Store and authenticator faults (I/O, timeouts) propagate
// as ordinary wrapped errors, never as a TicketError.
type Kind string

const (
	// KindInvalidTicket covers unknown, invalidated, expired, and
	// already-consumed tickets. The caller must restart from login.
	KindInvalidTicket Kind = "INVALID_TICKET"

	// KindUnauthorizedService reports a service that is unknown to
	// the registry or registered but disabled.
	KindUnauthorizedService Kind = "UNAUTHORIZED_SERVICE"

	// KindUnauthorizedSSOService reports an ambient grant attempt
	// against a service that requires fresh credentials once the
	// session has issued its first grant.
	KindUnauthorizedSSOService Kind = "UNAUTHORIZED_SSO_SERVICE"

	// KindUnauthorizedProxying reports a delegation attempt through a
	// service that is not proxy-eligible, or a chain that would
	// exceed the maximum proxy depth.
	KindUnauthorizedProxying Kind = "UNAUTHORIZED_PROXYING"

	// KindTicketCreation reports a failed re-authentication during
	// grant or delegation, including a resolved principal that does
	// not match the session's root principal.
	KindTicketCreation Kind = "TICKET_CREATION_FAILURE"

	// KindValidationMismatch reports a validation attempt by a
	// service other than the one the grant is scoped to. The grant is
	// not consumed.
	KindValidationMismatch Kind = "VALIDATION_MISMATCH"
)

// TicketError is a classified protocol failure. Callers use errors.As
// to extract the structured information:
//
//	var ticketErr *authority.TicketError
//	if errors.As(err, &ticketErr) {
//	    if ticketErr.Kind == authority.KindInvalidTicket { ... }
//	}
type TicketError struct {
	// Kind is the failure classification.
	Kind Kind
	// TicketID is the session or access id the request named, if any.
	TicketID string
	// ServiceID is the service the request named, if any.
	ServiceID string
	// Err is the underlying condition, usually a ticket package
	// sentinel.
	Err error
}

func (e *TicketError) Error() string {
	subject := e.TicketID
	if subject == "" {
		subject = e.ServiceID
	}
	if e.Err != nil {
		return fmt.Sprintf("authority: %s (%s): %v", e.Kind, subject, e.Err)
	}
	return fmt.Sprintf("authority: %s (%s)", e.Kind, subject)
}

func (e *TicketError) Unwrap() error { return e.Err }

// IsTicketError checks whether err is a *TicketError with the given
// kind.
func IsTicketError(err error, kind Kind) bool {
	var ticketErr *TicketError
	if errors.As(err, &ticketErr) {
		return ticketErr.Kind == kind
	}
	return false
}
