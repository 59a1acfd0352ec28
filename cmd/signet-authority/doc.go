// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// signet-authority is the single-sign-on authority daemon. It
// authenticates principals against the configured users file, issues
// and validates tickets, and serves the control protocol on a Unix
// socket for the signet CLI and co-located relying services.
//
// Configuration comes from a single YAML file named by SIGNET_CONFIG
// or --config; see lib/config for the schema.
package main
