// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"github.com/signet-project/signet/lib/principal"
)

// Credential is an opaque proof of identity presented at login or at
// a forced re-authentication during ticket granting. The gate never
// inspects credentials itself; it hands them to authenticators that
// know the concrete type.
type Credential interface {
	// Type identifies the credential kind ("password", "proxy-trust",
	// ...). Recorded on the authentication chain entry so relying
	// services can see how each hop authenticated.
	Type() string
}

// UserPassword is the standard interactive credential.
type UserPassword struct {
	Username string
	// Password is the cleartext proof. Callers that read passwords
	// interactively should zero their buffers after constructing the
	// credential; this struct holds only a transient copy for the
	// duration of one gate call.
	Password []byte
}

// Type implements Credential.
func (UserPassword) Type() string { return "password" }

// ProxyTrust is the credential a relying service presents when
// requesting delegation: proof that it controls a registered callback
// resource. Verification of the callback itself (TLS, reachability)
// belongs to the transport layer; by the time a ProxyTrust reaches the
// gate it carries the already-verified resource identifier.
type ProxyTrust struct {
	// ResourceID is the verified callback resource of the proxying
	// service.
	ResourceID string
}

// Type implements Credential.
func (ProxyTrust) Type() string { return "proxy-trust" }

// Request is one authentication attempt: the presented credentials
// plus the long-term flag (a long-term login asks for the extended
// session expiration policy).
type Request struct {
	Credentials []Credential
	LongTerm    bool
}

// Response is the outcome of a gate call. Ordinary authentication
// failure is a value (Succeeded=false plus Failure), never an error:
// per the gate contract, only malformed input is an error.
type Response struct {
	// Succeeded reports whether any credential authenticated.
	Succeeded bool

	// Principal is the resolved identity. Zero unless Succeeded.
	Principal principal.Principal

	// CredentialType is the Type() of the credential that succeeded.
	// Empty unless Succeeded.
	CredentialType string

	// Failure describes why authentication failed, for the caller's
	// response to the user. Empty when Succeeded.
	Failure string
}
