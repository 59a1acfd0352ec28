// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import "github.com/google/uuid"

// Ticket id prefixes. Sessions and accesses live in distinct id
// spaces; the prefix makes the space visible in logs and rules out
// cross-space lookup confusion.
const (
	SessionIDPrefix = "TGT-"
	AccessIDPrefix  = "ST-"
)

// NewSessionID mints a unique session (ticket-granting ticket) id.
// UUIDv4 gives 122 random bits; ids are never reused and never
// guessable.
func NewSessionID() string {
	return SessionIDPrefix + uuid.NewString()
}

// NewAccessID mints a unique access (service ticket) id.
func NewAccessID() string {
	return AccessIDPrefix + uuid.NewString()
}
