// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package assertion

import (
	"strings"
	"testing"
	"time"

	"github.com/signet-project/signet/lib/principal"
	"github.com/signet-project/signet/lib/registry"
	"github.com/signet-project/signet/lib/ticket"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func grantedAccess(t *testing.T, serviceID string, forceAuth bool) (*ticket.Session, *ticket.Access) {
	t.Helper()
	session := ticket.NewSession(ticket.Authentication{
		Principal: principal.New("alice", map[string][]string{
			"mail":   {"alice@example.org"},
			"group":  {"staff"},
			"secret": {"internal"},
		}),
		AuthenticatedAt: testStart,
		CredentialType:  "password",
	}, false, testStart)

	access, err := session.Grant(ticket.AccessRequest{
		ServiceID: serviceID,
		ForceAuth: forceAuth,
		At:        testStart,
	}, ticket.Never())
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	return session, access
}

func testBuilder() *Builder {
	return &Builder{
		IDGenerator: NewPseudonymizer([]byte("test-salt")),
		MaxChain:    5,
	}
}

func TestBuildFiltersAttributes(t *testing.T) {
	session, access := grantedAccess(t, "svc-a", false)
	service := &registry.Service{
		ID:                "svc-a",
		Enabled:           true,
		AllowedAttributes: []string{"mail"},
	}

	built := testBuilder().Build(session.AuthenticationChain(), access, service)

	released := built.Principal()
	if released.Name() != "alice" {
		t.Errorf("name = %q, want alice", released.Name())
	}
	if got := released.Attribute("mail"); len(got) != 1 {
		t.Errorf("mail = %v", got)
	}
	if released.Attribute("group") != nil || released.Attribute("secret") != nil {
		t.Error("disallowed attributes released")
	}
	if built.FromNewLogin {
		t.Error("FromNewLogin = true for ambient grant")
	}
	if built.ServiceID != "svc-a" {
		t.Errorf("ServiceID = %q", built.ServiceID)
	}
}

func TestBuildIgnoreAttributesReleasesAll(t *testing.T) {
	session, access := grantedAccess(t, "svc-a", true)
	service := &registry.Service{ID: "svc-a", Enabled: true, IgnoreAttributes: true}

	built := testBuilder().Build(session.AuthenticationChain(), access, service)

	if got := built.Principal().AttributeNames(); len(got) != 3 {
		t.Errorf("attributes = %v, want all three", got)
	}
	if !built.FromNewLogin {
		t.Error("FromNewLogin = false for forced grant")
	}
}

func TestBuildAnonymousAccess(t *testing.T) {
	session, access := grantedAccess(t, "svc-a", false)
	service := &registry.Service{
		ID:                "svc-a",
		Enabled:           true,
		AnonymousAccess:   true,
		AllowedAttributes: []string{"group"},
	}

	built := testBuilder().Build(session.AuthenticationChain(), access, service)
	released := built.Principal()

	if released.Name() == "alice" {
		t.Fatal("real name released to anonymous-access service")
	}
	if strings.Contains(released.Name(), "alice") {
		t.Errorf("pseudonym %q leaks the real name", released.Name())
	}
	// Filtering still applies under anonymity.
	if released.Attribute("mail") != nil {
		t.Error("disallowed attribute released alongside pseudonym")
	}
}

func TestPseudonymStability(t *testing.T) {
	generator := NewPseudonymizer([]byte("deployment-salt"))
	alice := principal.New("alice", nil)
	bob := principal.New("bob", nil)

	first := generator.Generate(alice, "svc-a")
	if second := generator.Generate(alice, "svc-a"); second != first {
		t.Errorf("pseudonym unstable: %q vs %q", first, second)
	}
	if cross := generator.Generate(alice, "svc-b"); cross == first {
		t.Error("pseudonym linkable across services")
	}
	if other := generator.Generate(bob, "svc-a"); other == first {
		t.Error("distinct principals share a pseudonym")
	}

	resalted := NewPseudonymizer([]byte("other-salt"))
	if got := resalted.Generate(alice, "svc-a"); got == first {
		t.Error("salt does not affect pseudonyms")
	}
}

func TestBuildDelegatedChain(t *testing.T) {
	session, access := grantedAccess(t, "svc-a", false)
	child, err := session.Delegate(access.ID(), ticket.Authentication{
		Principal:       principal.New("callback.example.org", nil),
		AuthenticatedAt: testStart.Add(time.Minute),
		CredentialType:  "proxy-trust",
	}, 5, ticket.Never(), testStart.Add(time.Minute))
	if err != nil {
		t.Fatalf("Delegate: %v", err)
	}

	childAccess, err := child.Grant(ticket.AccessRequest{ServiceID: "svc-b", At: testStart.Add(2 * time.Minute)}, ticket.Never())
	if err != nil {
		t.Fatalf("child Grant: %v", err)
	}

	service := &registry.Service{ID: "svc-b", Enabled: true, IgnoreAttributes: true}
	built := testBuilder().Build(child.AuthenticationChain(), childAccess, service)

	if len(built.Chain) != 2 {
		t.Fatalf("chain length = %d, want 2", len(built.Chain))
	}
	if built.Chain[0].Principal.Name() != "alice" {
		t.Errorf("chain[0] = %q, want root alice", built.Chain[0].Principal.Name())
	}
	if built.Principal().Name() != "callback.example.org" {
		t.Errorf("released principal = %q, want delegating hop", built.Principal().Name())
	}
}
