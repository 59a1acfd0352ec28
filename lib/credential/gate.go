// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/signet-project/signet/lib/principal"
)

// Errors returned by the gate for contract violations. An ordinary
// failed login is NOT an error — it is a Response with
// Succeeded=false.
var (
	// ErrNoCredentials reports a nil or empty credential set. This is
	// a programming error in the caller, not an authentication
	// failure.
	ErrNoCredentials = errors.New("credential: no credentials supplied")
)

// ErrUnsupported is returned by an Authenticator that does not handle
// the presented credential type. The gate moves on to the next
// authenticator; only if every authenticator declines or rejects does
// the gate report failure.
var ErrUnsupported = errors.New("credential: unsupported credential type")

// Authenticator verifies one concrete credential type and resolves the
// identity behind it.
//
// Return (principal, nil) on success. Return ErrUnsupported (possibly
// wrapped) to decline a credential type. Any other error is a
// rejection: the credential was understood and is wrong.
type Authenticator interface {
	Authenticate(ctx context.Context, c Credential) (principal.Principal, error)
}

// Gate turns a credential set into a pass/fail outcome plus resolved
// principal by running an ordered authenticator list. The first
// authenticator to accept a credential wins.
//
// Gate is safe for concurrent use; the authenticator list is fixed at
// construction.
type Gate struct {
	authenticators []Authenticator
	logger         *slog.Logger
}

// NewGate builds a gate over the given authenticators, consulted in
// order. A nil logger discards log output.
func NewGate(authenticators []Authenticator, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{
		authenticators: append([]Authenticator(nil), authenticators...),
		logger:         logger,
	}
}

// Authenticate runs the request's credentials through the
// authenticator list. Each credential is offered to each authenticator
// in order; the first acceptance resolves the principal and stops the
// search.
//
// The returned error is non-nil only for contract violations (no
// credentials). Authentication failure is reported in the Response.
func (g *Gate) Authenticate(ctx context.Context, request Request) (Response, error) {
	if len(request.Credentials) == 0 {
		return Response{}, ErrNoCredentials
	}
	for _, c := range request.Credentials {
		if c == nil {
			return Response{}, fmt.Errorf("%w: nil credential in set", ErrNoCredentials)
		}
	}

	var lastRejection error
	for _, c := range request.Credentials {
		for _, authenticator := range g.authenticators {
			resolved, err := authenticator.Authenticate(ctx, c)
			if err == nil {
				g.logger.Debug("authentication succeeded",
					"principal", resolved.Name(),
					"credential_type", c.Type(),
				)
				return Response{
					Succeeded:      true,
					Principal:      resolved,
					CredentialType: c.Type(),
				}, nil
			}
			if errors.Is(err, ErrUnsupported) {
				continue
			}
			lastRejection = err
		}
	}

	failure := "no authenticator accepted the supplied credentials"
	if lastRejection != nil {
		failure = lastRejection.Error()
	}
	g.logger.Info("authentication failed", "reason", failure)
	return Response{Failure: failure}, nil
}
