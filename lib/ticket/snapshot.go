// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"time"

	"github.com/signet-project/signet/lib/principal"
)

// SessionSnapshot is the serializable form of a session, written by
// the durable store as a CBOR blob. Integer keys keep rows compact;
// the session id is stored separately as the row key.
type SessionSnapshot struct {
	ID         string                   `cbor:"1,keyasint"`
	Chain      []AuthenticationSnapshot `cbor:"2,keyasint"`
	LongTerm   bool                     `cbor:"3,keyasint,omitempty"`
	ParentID   string                   `cbor:"4,keyasint,omitempty"`
	Used       bool                     `cbor:"5,keyasint,omitempty"`
	State      uint8                    `cbor:"6,keyasint,omitempty"`
	CreatedAt  int64                    `cbor:"7,keyasint"`
	LastUsedAt int64                    `cbor:"8,keyasint"`
	Accesses   []AccessSnapshot         `cbor:"9,keyasint,omitempty"`
}

// AuthenticationSnapshot is one serialized chain entry.
type AuthenticationSnapshot struct {
	Name            string              `cbor:"1,keyasint"`
	Attributes      map[string][]string `cbor:"2,keyasint,omitempty"`
	AuthenticatedAt int64               `cbor:"3,keyasint"`
	CredentialType  string              `cbor:"4,keyasint,omitempty"`
}

// AccessSnapshot is one serialized access grant.
type AccessSnapshot struct {
	ID             string `cbor:"1,keyasint"`
	ServiceID      string `cbor:"2,keyasint"`
	State          uint8  `cbor:"3,keyasint,omitempty"`
	ForceAuth      bool   `cbor:"4,keyasint,omitempty"`
	ChildSessionID string `cbor:"5,keyasint,omitempty"`
	CreatedAt      int64  `cbor:"6,keyasint"`
}

// Snapshot captures the session's full state under its mutex.
// Timestamps are Unix nanoseconds.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := make([]AuthenticationSnapshot, len(s.chain))
	for i, auth := range s.chain {
		chain[i] = AuthenticationSnapshot{
			Name:            auth.Principal.Name(),
			Attributes:      auth.Principal.Attributes(),
			AuthenticatedAt: auth.AuthenticatedAt.UnixNano(),
			CredentialType:  auth.CredentialType,
		}
	}

	accesses := make([]AccessSnapshot, 0, len(s.accesses))
	for _, access := range s.accesses {
		accesses = append(accesses, AccessSnapshot{
			ID:             access.id,
			ServiceID:      access.serviceID,
			State:          uint8(access.state),
			ForceAuth:      access.forceAuth,
			ChildSessionID: access.childSessionID,
			CreatedAt:      access.createdAt.UnixNano(),
		})
	}

	return SessionSnapshot{
		ID:         s.id,
		Chain:      chain,
		LongTerm:   s.longTerm,
		ParentID:   s.parentID,
		Used:       s.used,
		State:      uint8(s.state),
		CreatedAt:  s.createdAt.UnixNano(),
		LastUsedAt: s.lastUsedAt.UnixNano(),
		Accesses:   accesses,
	}
}

// Restore rebuilds a live session from a snapshot. Used by the
// durable store when reloading state after a restart.
func Restore(snapshot SessionSnapshot) *Session {
	chain := make([]Authentication, len(snapshot.Chain))
	for i, auth := range snapshot.Chain {
		chain[i] = Authentication{
			Principal:       principal.New(auth.Name, auth.Attributes),
			AuthenticatedAt: time.Unix(0, auth.AuthenticatedAt),
			CredentialType:  auth.CredentialType,
		}
	}

	session := &Session{
		id:         snapshot.ID,
		chain:      chain,
		longTerm:   snapshot.LongTerm,
		parentID:   snapshot.ParentID,
		used:       snapshot.Used,
		state:      SessionState(snapshot.State),
		accesses:   make(map[string]*Access, len(snapshot.Accesses)),
		createdAt:  time.Unix(0, snapshot.CreatedAt),
		lastUsedAt: time.Unix(0, snapshot.LastUsedAt),
	}
	for _, access := range snapshot.Accesses {
		session.accesses[access.ID] = &Access{
			id:             access.ID,
			sessionID:      snapshot.ID,
			serviceID:      access.ServiceID,
			state:          ValidationState(access.State),
			forceAuth:      access.ForceAuth,
			childSessionID: access.ChildSessionID,
			createdAt:      time.Unix(0, access.CreatedAt),
		}
	}
	return session
}
