// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/signet-project/signet/lib/principal"
	"github.com/signet-project/signet/lib/ticket"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, name string) *ticket.Session {
	t.Helper()
	return ticket.NewSession(ticket.Authentication{
		Principal:       principal.New(name, nil),
		AuthenticatedAt: testStart,
		CredentialType:  "password",
	}, false, testStart)
}

// storeUnderTest lets the sqlite tests reuse the full contract suite.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		session := newTestSession(t, "alice")
		if err := s.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}

		found, err := s.FindSession(ctx, session.ID())
		if err != nil {
			t.Fatalf("FindSession: %v", err)
		}
		if found.ID() != session.ID() {
			t.Errorf("found %q, want %q", found.ID(), session.ID())
		}

		if _, err := s.FindSession(ctx, "TGT-unknown"); !errors.Is(err, ErrNotFound) {
			t.Errorf("unknown session err = %v, want ErrNotFound", err)
		}
	})

	t.Run("duplicate create fails", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		session := newTestSession(t, "alice")
		if err := s.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
		if err := s.CreateSession(ctx, session); err == nil {
			t.Error("duplicate CreateSession succeeded")
		}
	})

	t.Run("find by access after update", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		session := newTestSession(t, "alice")
		if err := s.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}

		access, err := session.Grant(ticket.AccessRequest{ServiceID: "svc", At: testStart}, ticket.Never())
		if err != nil {
			t.Fatalf("Grant: %v", err)
		}

		// Before Update the grant is not yet resolvable.
		if _, err := s.FindByAccess(ctx, access.ID()); !errors.Is(err, ErrNotFound) {
			t.Errorf("pre-update FindByAccess err = %v, want ErrNotFound", err)
		}

		if err := s.Update(ctx, session); err != nil {
			t.Fatalf("Update: %v", err)
		}
		owner, err := s.FindByAccess(ctx, access.ID())
		if err != nil {
			t.Fatalf("FindByAccess: %v", err)
		}
		if owner.ID() != session.ID() {
			t.Errorf("owner = %q, want %q", owner.ID(), session.ID())
		}
	})

	t.Run("find by principal", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		first := newTestSession(t, "alice")
		second := newTestSession(t, "alice")
		other := newTestSession(t, "bob")
		for _, session := range []*ticket.Session{first, second, other} {
			if err := s.CreateSession(ctx, session); err != nil {
				t.Fatalf("CreateSession: %v", err)
			}
		}

		sessions, err := s.FindByPrincipal(ctx, "alice")
		if err != nil {
			t.Fatalf("FindByPrincipal: %v", err)
		}
		if len(sessions) != 2 {
			t.Errorf("alice sessions = %d, want 2", len(sessions))
		}

		none, err := s.FindByPrincipal(ctx, "mallory")
		if err != nil {
			t.Fatalf("FindByPrincipal(absent): %v", err)
		}
		if none != nil {
			t.Errorf("absent principal = %v, want nil", none)
		}
	})

	t.Run("destroy removes all indexes", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		session := newTestSession(t, "alice")
		if err := s.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
		access, err := session.Grant(ticket.AccessRequest{ServiceID: "svc", At: testStart}, ticket.Never())
		if err != nil {
			t.Fatalf("Grant: %v", err)
		}
		if err := s.Update(ctx, session); err != nil {
			t.Fatalf("Update: %v", err)
		}

		destroyed, err := s.Destroy(ctx, session.ID())
		if err != nil {
			t.Fatalf("Destroy: %v", err)
		}
		if destroyed.ID() != session.ID() {
			t.Errorf("destroyed %q", destroyed.ID())
		}

		if _, err := s.FindSession(ctx, session.ID()); !errors.Is(err, ErrNotFound) {
			t.Errorf("session still resolvable after destroy")
		}
		if _, err := s.FindByAccess(ctx, access.ID()); !errors.Is(err, ErrNotFound) {
			t.Errorf("access still resolvable after destroy")
		}
		if sessions, _ := s.FindByPrincipal(ctx, "alice"); sessions != nil {
			t.Errorf("principal index survived destroy: %v", sessions)
		}

		if _, err := s.Destroy(ctx, session.ID()); !errors.Is(err, ErrNotFound) {
			t.Errorf("second destroy err = %v, want ErrNotFound", err)
		}
	})

	t.Run("update prunes removed grants", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		session := newTestSession(t, "alice")
		if err := s.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
		access, err := session.Grant(ticket.AccessRequest{ServiceID: "svc", At: testStart}, ticket.Never())
		if err != nil {
			t.Fatalf("Grant: %v", err)
		}
		if err := s.Update(ctx, session); err != nil {
			t.Fatalf("Update: %v", err)
		}

		session.RemoveAccess(access.ID())
		if err := s.Update(ctx, session); err != nil {
			t.Fatalf("Update after removal: %v", err)
		}
		if _, err := s.FindByAccess(ctx, access.ID()); !errors.Is(err, ErrNotFound) {
			t.Errorf("removed access still resolvable: err = %v", err)
		}
	})

	t.Run("sessions lists all", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		for _, name := range []string{"alice", "bob"} {
			if err := s.CreateSession(ctx, newTestSession(t, name)); err != nil {
				t.Fatalf("CreateSession: %v", err)
			}
		}
		sessions, err := s.Sessions(ctx)
		if err != nil {
			t.Fatalf("Sessions: %v", err)
		}
		if len(sessions) != 2 {
			t.Errorf("Sessions = %d, want 2", len(sessions))
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return NewMemory() })
}

func TestMemorySameInstancePerID(t *testing.T) {
	// The store must hand out the same live session instance on every
	// lookup path, or per-session locking falls apart.
	ctx := context.Background()
	s := NewMemory()
	session := newTestSession(t, "alice")
	if err := s.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	access, err := session.Grant(ticket.AccessRequest{ServiceID: "svc", At: testStart}, ticket.Never())
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if err := s.Update(ctx, session); err != nil {
		t.Fatalf("Update: %v", err)
	}

	bySession, _ := s.FindSession(ctx, session.ID())
	byAccess, _ := s.FindByAccess(ctx, access.ID())
	byPrincipal, _ := s.FindByPrincipal(ctx, "alice")

	if bySession != session || byAccess != session || byPrincipal[0] != session {
		t.Error("lookup paths returned distinct instances")
	}
}
