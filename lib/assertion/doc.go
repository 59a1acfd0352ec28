// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Package assertion builds the trust statements released to relying
// services after ticket validation.
//
// The [Builder] applies the two release policies a registry record can
// demand: anonymous access (the real principal name is replaced by a
// service-stable pseudonym from a [PersistentIDGenerator]) and
// attribute filtering (only the service's allowed attribute names are
// released). The default generator, [Pseudonymizer], is a salted
// BLAKE3 keyed hash, so pseudonyms are stable per (principal, service)
// and unlinkable across services.
package assertion
