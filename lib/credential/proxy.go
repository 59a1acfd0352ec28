// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/signet-project/signet/lib/principal"
)

// ErrUntrustedProxy is the rejection returned by TrustedProxy for a
// callback resource outside the trusted set.
var ErrUntrustedProxy = errors.New("credential: proxy callback resource is not trusted")

// TrustedProxy authenticates ProxyTrust credentials against an
// allowlist of callback resource identifiers. The resolved principal
// is named after the callback resource: in a delegation chain, the
// "identity" of an intermediate hop is the service that performed it,
// not a human.
//
// An empty allowlist trusts every callback resource. That mirrors the
// default posture of the original protocol, where proxy trust is
// established by the transport's callback verification and the
// registry's proxy-eligible flag, not by the gate.
type TrustedProxy struct {
	trusted map[string]bool
}

// NewTrustedProxy builds a TrustedProxy over the given callback
// resources. With no resources, every callback is trusted.
func NewTrustedProxy(resources ...string) *TrustedProxy {
	trusted := make(map[string]bool, len(resources))
	for _, resource := range resources {
		trusted[resource] = true
	}
	return &TrustedProxy{trusted: trusted}
}

// Authenticate implements Authenticator for ProxyTrust credentials.
func (t *TrustedProxy) Authenticate(ctx context.Context, c Credential) (principal.Principal, error) {
	proxy, ok := c.(ProxyTrust)
	if !ok {
		return principal.Principal{}, ErrUnsupported
	}
	if proxy.ResourceID == "" {
		return principal.Principal{}, fmt.Errorf("%w: empty callback resource", ErrUntrustedProxy)
	}
	if len(t.trusted) > 0 && !t.trusted[proxy.ResourceID] {
		return principal.Principal{}, fmt.Errorf("%w: %s", ErrUntrustedProxy, proxy.ResourceID)
	}
	return principal.New(proxy.ResourceID, nil), nil
}
