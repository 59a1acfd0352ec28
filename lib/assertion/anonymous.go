// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package assertion

import (
	"encoding/base64"

	"github.com/zeebo/blake3"

	"github.com/signet-project/signet/lib/principal"
)

// PersistentIDGenerator produces the pseudonymous principal id
// released to services configured for anonymous access. The id must
// be stable for a given (principal, resource) pair — the service sees
// the same user as the same pseudonym across visits — and unlinkable
// across services.
type PersistentIDGenerator interface {
	Generate(p principal.Principal, resourceID string) string
}

// pseudonymDomainKey is the BLAKE3 keyed-hash domain for pseudonymous
// ids: ASCII "signet.pseudonym" zero-padded to 32 bytes. Fixed, so
// the same salt always yields the same pseudonyms; domain separation
// keeps these hashes disjoint from any other keyed use of BLAKE3.
var pseudonymDomainKey = [32]byte{
	's', 'i', 'g', 'n', 'e', 't', '.', 'p', 's', 'e', 'u', 'd', 'o', 'n', 'y', 'm',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Pseudonymizer is the default PersistentIDGenerator: a salted BLAKE3
// keyed hash over principal name and resource id. The salt is a
// deployment secret; without it, a service cannot precompute the
// pseudonym for a guessed username.
type Pseudonymizer struct {
	salt []byte
}

// NewPseudonymizer builds a Pseudonymizer with the given deployment
// salt. Changing the salt changes every released pseudonym, so treat
// it like a key: stable, secret, backed up.
func NewPseudonymizer(salt []byte) *Pseudonymizer {
	return &Pseudonymizer{salt: append([]byte(nil), salt...)}
}

// Generate implements PersistentIDGenerator. The output is 32 base64
// characters (24 hashed bytes), URL-safe so it can ride in any
// transport a real name could.
func (g *Pseudonymizer) Generate(p principal.Principal, resourceID string) string {
	hasher, err := blake3.NewKeyed(pseudonymDomainKey[:])
	if err != nil {
		panic("assertion: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(g.salt)
	hasher.Write([]byte{0})
	hasher.Write([]byte(p.Name()))
	hasher.Write([]byte{0})
	hasher.Write([]byte(resourceID))

	return base64.RawURLEncoding.EncodeToString(hasher.Sum(nil)[:24])
}
