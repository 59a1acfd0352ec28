// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/signet-project/signet/lib/ticket"
)

// Memory is the reference in-process Store. It indexes live sessions
// by session id, access id, and root principal name under one
// read-write mutex. The mutex covers index consistency only; entity
// state is serialized by each session's own lock.
type Memory struct {
	mu          sync.RWMutex
	sessions    map[string]*ticket.Session
	accessIndex map[string]string          // access id → session id
	byPrincipal map[string]map[string]bool // principal name → session id set
	indexed     map[string]map[string]bool // session id → access ids indexed
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions:    make(map[string]*ticket.Session),
		accessIndex: make(map[string]string),
		byPrincipal: make(map[string]map[string]bool),
		indexed:     make(map[string]map[string]bool),
	}
}

// CreateSession implements Store.
func (m *Memory) CreateSession(ctx context.Context, session *ticket.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID()]; exists {
		return fmt.Errorf("store: session id %s already exists", session.ID())
	}
	m.sessions[session.ID()] = session
	m.indexLocked(session)
	return nil
}

// FindSession implements Store.
func (m *Memory) FindSession(ctx context.Context, sessionID string) (*ticket.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return session, nil
}

// FindByAccess implements Store.
func (m *Memory) FindByAccess(ctx context.Context, accessID string) (*ticket.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessionID, ok := m.accessIndex[accessID]
	if !ok {
		return nil, ErrNotFound
	}
	session, ok := m.sessions[sessionID]
	if !ok {
		// Session destroyed with a stale access entry left behind;
		// treat as absent.
		return nil, ErrNotFound
	}
	return session, nil
}

// FindByPrincipal implements Store.
func (m *Memory) FindByPrincipal(ctx context.Context, name string) ([]*ticket.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byPrincipal[name]
	if len(ids) == 0 {
		return nil, nil
	}
	sessions := make([]*ticket.Session, 0, len(ids))
	for id := range ids {
		if session, ok := m.sessions[id]; ok {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// Update implements Store. For the in-memory store the entity is
// already current; Update refreshes the access index so grants issued
// since the last call become resolvable by access id.
func (m *Memory) Update(ctx context.Context, session *ticket.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID()]; !exists {
		return ErrNotFound
	}
	m.indexLocked(session)
	return nil
}

// Destroy implements Store.
func (m *Memory) Destroy(ctx context.Context, sessionID string) (*ticket.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.sessions, sessionID)
	for accessID := range m.indexed[sessionID] {
		delete(m.accessIndex, accessID)
	}
	delete(m.indexed, sessionID)
	name := session.RootPrincipal().Name()
	if ids := m.byPrincipal[name]; ids != nil {
		delete(ids, sessionID)
		if len(ids) == 0 {
			delete(m.byPrincipal, name)
		}
	}
	return session, nil
}

// Sessions implements Store.
func (m *Memory) Sessions(ctx context.Context) ([]*ticket.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*ticket.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Close implements Store. No resources to release.
func (m *Memory) Close() error { return nil }

// indexLocked refreshes the access and principal indexes for a
// session: new grants become resolvable by access id and entries for
// removed grants are pruned. Caller holds m.mu.
func (m *Memory) indexLocked(session *ticket.Session) {
	current := make(map[string]bool)
	for _, accessID := range session.AccessIDs() {
		current[accessID] = true
		m.accessIndex[accessID] = session.ID()
	}
	for accessID := range m.indexed[session.ID()] {
		if !current[accessID] {
			delete(m.accessIndex, accessID)
		}
	}
	m.indexed[session.ID()] = current

	name := session.RootPrincipal().Name()
	ids := m.byPrincipal[name]
	if ids == nil {
		ids = make(map[string]bool)
		m.byPrincipal[name] = ids
	}
	ids[session.ID()] = true
}
