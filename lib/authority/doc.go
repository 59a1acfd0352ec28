// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

// Package authority is the public coordinator of the single-sign-on
// protocol. It wires the credential gate, service registry, session
// store, and assertion builder into the six operations relying
// parties and clients call: login, per-session and per-principal
// logout, service-ticket granting, proxy delegation, and single-use
// validation.
//
// Protocol failures carry a classification as *TicketError so callers
// can distinguish "restart from login" from "service misconfigured".
// Infrastructure faults from the store or authenticators propagate as
// plain wrapped errors and are never folded into the protocol
// taxonomy.
package authority
