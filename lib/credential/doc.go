// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Package credential defines the authentication gate: credentials in,
// pass/fail outcome plus resolved principal out.
//
// The gate itself verifies nothing. It sequences an ordered list of
// [Authenticator] implementations, each owning one concrete credential
// type, and the first acceptance wins. Ordinary authentication failure
// is a result value ([Response] with Succeeded=false); the only errors
// the gate returns are contract violations such as an empty credential
// set.
//
// Two reference authenticators ship with the package: [UserFile]
// (bcrypt hashes from a YAML file, for the runnable daemon) and
// [TrustedProxy] (callback-resource allowlist for delegation).
// Deployments plug their own implementations into the same gate.
package credential
