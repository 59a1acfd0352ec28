// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package assertion

import (
	"github.com/signet-project/signet/lib/principal"
	"github.com/signet-project/signet/lib/registry"
	"github.com/signet-project/signet/lib/ticket"
)

// Assertion is the trust statement released to a relying service
// after a successful validation: the authentication chain that led to
// the grant, the service it is scoped to, and whether the grant came
// from a fresh credentialed login.
//
// The chain's final entry carries the released principal — already
// anonymized and attribute-filtered per the service's registry
// policy. Earlier entries are the delegation hops, oldest first.
type Assertion struct {
	// Chain is the ordered authentication chain, oldest first. The
	// final entry is the authentication used at this hop with the
	// released (filtered, possibly pseudonymized) principal.
	Chain []ticket.Authentication

	// ServiceID is the service the assertion is addressed to.
	ServiceID string

	// FromNewLogin is true when the validated grant stemmed from a
	// forced credentialed re-authentication rather than ambient SSO.
	FromNewLogin bool
}

// Principal returns the released principal: the identity stated by
// the chain's final authentication.
func (a *Assertion) Principal() principal.Principal {
	return a.Chain[len(a.Chain)-1].Principal
}

// Builder assembles assertions from validated grants, applying the
// per-service release policy: anonymization and attribute filtering.
type Builder struct {
	// IDGenerator produces pseudonymous principal ids for services
	// with anonymous access. Required.
	IDGenerator PersistentIDGenerator

	// MaxChain caps the released chain length, matching the
	// authority's maximum proxy depth. Chains are depth-checked at
	// delegation time, so the cap here is a re-slice for released
	// data, never an error.
	MaxChain int
}

// Build constructs the assertion for a validated access. The chain is
// the owning session's stored chain with its most recent entry
// replaced by the release-policy-adjusted authentication: the
// principal may be renamed to a pseudonym and its attributes filtered
// to the service's allowed set.
func (b *Builder) Build(chain []ticket.Authentication, access *ticket.Access, service *registry.Service) *Assertion {
	final := chain[len(chain)-1]
	released := final.Principal

	if service.AnonymousAccess {
		released = released.WithName(b.IDGenerator.Generate(released, access.ServiceID()))
	}
	if !service.IgnoreAttributes {
		released = released.Filter(service.AllowedAttributes)
	}

	releasedChain := make([]ticket.Authentication, 0, len(chain))
	releasedChain = append(releasedChain, chain[:len(chain)-1]...)
	releasedChain = append(releasedChain, ticket.Authentication{
		Principal:       released,
		AuthenticatedAt: final.AuthenticatedAt,
		CredentialType:  final.CredentialType,
	})
	if b.MaxChain > 0 && len(releasedChain) > b.MaxChain {
		releasedChain = releasedChain[len(releasedChain)-b.MaxChain:]
	}

	return &Assertion{
		Chain:        releasedChain,
		ServiceID:    access.ServiceID(),
		FromNewLogin: access.FromNewLogin(),
	}
}
