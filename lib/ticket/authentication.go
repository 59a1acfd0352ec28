// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"time"

	"github.com/signet-project/signet/lib/principal"
)

// Authentication is one proof event: who authenticated, when, and
// with what kind of credential. A root session's chain holds exactly
// one Authentication; each delegation hop appends one more, oldest
// first.
type Authentication struct {
	// Principal is the identity resolved by the gate for this hop.
	Principal principal.Principal

	// AuthenticatedAt is when the gate accepted the credential.
	AuthenticatedAt time.Time

	// CredentialType is the credential kind the gate accepted
	// ("password", "proxy-trust", ...).
	CredentialType string
}
