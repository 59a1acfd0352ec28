// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Command signet is the operator CLI for the ticket authority daemon.
// It speaks the CBOR control protocol over the daemon's Unix socket,
// found at /run/signet/authority.sock or wherever SIGNET_SOCKET points.
package main
