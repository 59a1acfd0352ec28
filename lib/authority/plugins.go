// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"context"

	"github.com/signet-project/signet/lib/credential"
)

// PreLoginPlugin runs before the authentication gate. A plugin may
// short-circuit the login by returning a non-nil response, used for
// non-credential flows such as trust-based auto-login. Plugins run in
// registration order; the first non-nil response wins and no further
// plugins or gate authentication run.
//
// A returned error aborts the login and propagates to the caller as
// an infrastructure failure.
type PreLoginPlugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// BeforeLogin inspects the request and may produce a complete
	// login response. Return (nil, nil) to pass.
	BeforeLogin(ctx context.Context, request credential.Request) (*LoginResponse, error)
}

// ResponsePlugin observes the outcome of gate authentication. Plugins
// run unconditionally in registration order after the gate returns
// and may enrich the response in place, but cannot veto it: a login
// that succeeded at the gate stays succeeded.
type ResponsePlugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// OnResponse observes and may enrich the pending login response.
	OnResponse(ctx context.Context, request credential.Request, response *LoginResponse)
}
