// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry provides the relying-service policy lookup: whether
// a service is known, enabled, SSO-eligible, proxy-eligible, and which
// principal attributes it may receive.
//
// The authority core consults a [Registry] on every grant, delegation,
// and validation but never writes to it. Two implementations ship
// here: [Static] (fixed in-memory set) and the JSONC file loader
// [LoadFile] the daemon uses. Deployments with a real service-management
// backend implement [Registry] against it.
package registry
