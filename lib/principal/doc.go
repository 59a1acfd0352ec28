// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Package principal defines the resolved-identity value type used
// throughout the authority: a name plus multi-valued attributes.
//
// Principals are produced by credential authenticators, recorded on
// authentication chain entries, and released to relying services
// through assertions — possibly renamed (anonymous access) and with
// their attributes filtered to the service's allowed set. The type is
// immutable: every accessor copies, so a principal recorded on a
// session can never be altered by a later caller.
//
// This package depends on no other Signet packages.
package principal
