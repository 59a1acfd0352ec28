// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/signet-project/signet/lib/assertion"
	"github.com/signet-project/signet/lib/clock"
	"github.com/signet-project/signet/lib/credential"
	"github.com/signet-project/signet/lib/principal"
	"github.com/signet-project/signet/lib/registry"
	"github.com/signet-project/signet/lib/store"
	"github.com/signet-project/signet/lib/ticket"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// passwordAuth accepts UserPassword credentials against a fixed
// username/password table and resolves principals with attributes.
type passwordAuth struct {
	passwords map[string]string
}

func (p *passwordAuth) Authenticate(_ context.Context, c credential.Credential) (principal.Principal, error) {
	up, ok := c.(credential.UserPassword)
	if !ok {
		return principal.Principal{}, credential.ErrUnsupported
	}
	want, known := p.passwords[up.Username]
	if !known || want != string(up.Password) {
		return principal.Principal{}, fmt.Errorf("bad password for %q", up.Username)
	}
	return principal.New(up.Username, map[string][]string{
		"mail":  {up.Username + "@example.org"},
		"group": {"staff"},
	}), nil
}

// proxyAuth accepts any ProxyTrust credential, resolving the callback
// resource id as the principal name.
type proxyAuth struct{}

func (proxyAuth) Authenticate(_ context.Context, c credential.Credential) (principal.Principal, error) {
	pt, ok := c.(credential.ProxyTrust)
	if !ok {
		return principal.Principal{}, credential.ErrUnsupported
	}
	return principal.New(pt.ResourceID, nil), nil
}

type fixture struct {
	authority *Authority
	store     *store.Memory
	clock     *clock.FakeClock
}

func newFixture(t *testing.T, adjust func(*Config)) *fixture {
	t.Helper()
	fake := clock.Fake(testStart)
	memory := store.NewMemory()
	config := Config{
		Gate: credential.NewGate([]credential.Authenticator{
			&passwordAuth{passwords: map[string]string{"alice": "sesame", "bob": "hunter2"}},
			proxyAuth{},
		}, nil),
		Store: memory,
		Registry: registry.NewStatic(
			registry.Service{ID: "svc-a", Name: "Service A", Enabled: true, SSO: true, Proxy: true, AllowedAttributes: []string{"mail"}},
			registry.Service{ID: "svc-disabled", Enabled: false},
			registry.Service{ID: "svc-nosso", Enabled: true, SSO: false, AllowedAttributes: []string{"mail"}},
			registry.Service{ID: "svc-noproxy", Enabled: true, SSO: true, Proxy: false},
			registry.Service{ID: "svc-anon", Enabled: true, SSO: true, AnonymousAccess: true, IgnoreAttributes: true},
		),
		Builder: &assertion.Builder{
			IDGenerator: assertion.NewPseudonymizer([]byte("test-salt")),
			MaxChain:    DefaultMaxProxyDepth,
		},
		Clock: fake,
	}
	if adjust != nil {
		adjust(&config)
	}
	authority, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{authority: authority, store: memory, clock: fake}
}

func alicePassword() credential.Credential {
	return credential.UserPassword{Username: "alice", Password: []byte("sesame")}
}

func (f *fixture) login(t *testing.T, longTerm bool) string {
	t.Helper()
	response, err := f.authority.Login(context.Background(), credential.Request{
		Credentials: []credential.Credential{alicePassword()},
		LongTerm:    longTerm,
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !response.Response.Succeeded || response.SessionID == "" {
		t.Fatalf("login did not succeed: %+v", response)
	}
	return response.SessionID
}

func TestLoginFailureCreatesNoSession(t *testing.T) {
	f := newFixture(t, nil)
	response, err := f.authority.Login(context.Background(), credential.Request{
		Credentials: []credential.Credential{
			credential.UserPassword{Username: "alice", Password: []byte("wrong")},
		},
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if response.Response.Succeeded || response.SessionID != "" {
		t.Errorf("failed login produced a session: %+v", response)
	}
	sessions, _ := f.store.Sessions(context.Background())
	if len(sessions) != 0 {
		t.Errorf("store has %d sessions after failed login", len(sessions))
	}
}

func TestLoginNoCredentialsIsContractViolation(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.authority.Login(context.Background(), credential.Request{}); err == nil {
		t.Fatal("empty credential set did not error")
	}
}

type shortCircuitPlugin struct{ response *LoginResponse }

func (p *shortCircuitPlugin) Name() string { return "short-circuit" }
func (p *shortCircuitPlugin) BeforeLogin(context.Context, credential.Request) (*LoginResponse, error) {
	return p.response, nil
}

type enrichPlugin struct{ seen *int }

func (p *enrichPlugin) Name() string { return "enrich" }
func (p *enrichPlugin) OnResponse(_ context.Context, _ credential.Request, response *LoginResponse) {
	*p.seen++
	if response.Response.Succeeded {
		response.Response.CredentialType = "enriched"
	}
}

func TestLoginPreLoginShortCircuit(t *testing.T) {
	canned := &LoginResponse{Response: credential.Response{
		Succeeded: true,
		Principal: principal.New("auto", nil),
	}}
	observed := 0
	f := newFixture(t, func(config *Config) {
		config.PreLogin = []PreLoginPlugin{&shortCircuitPlugin{response: canned}}
		config.Response = []ResponsePlugin{&enrichPlugin{seen: &observed}}
	})

	response, err := f.authority.Login(context.Background(), credential.Request{
		Credentials: []credential.Credential{alicePassword()},
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if response != canned {
		t.Error("plugin response was not returned as-is")
	}
	if observed != 0 {
		t.Error("response plugins ran on a short-circuited login")
	}
	if sessions, _ := f.store.Sessions(context.Background()); len(sessions) != 0 {
		t.Error("short-circuited login created a session")
	}
}

func TestLoginResponsePluginEnriches(t *testing.T) {
	observed := 0
	f := newFixture(t, func(config *Config) {
		config.Response = []ResponsePlugin{&enrichPlugin{seen: &observed}}
	})

	response, err := f.authority.Login(context.Background(), credential.Request{
		Credentials: []credential.Credential{alicePassword()},
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if observed != 1 {
		t.Errorf("response plugin ran %d times, want 1", observed)
	}
	if response.Response.CredentialType != "enriched" {
		t.Errorf("CredentialType = %q, want enriched", response.Response.CredentialType)
	}
}

func TestGrantValidateAndReplay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sessionID := f.login(t, false)

	accessID, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-a")
	if err != nil {
		t.Fatalf("GrantServiceTicket: %v", err)
	}

	built, err := f.authority.Validate(ctx, accessID, "svc-a")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := built.Principal().Name(); got != "alice" {
		t.Errorf("assertion principal = %q, want alice", got)
	}
	if built.FromNewLogin {
		t.Error("FromNewLogin = true for ambient grant")
	}
	if built.Principal().Attribute("group") != nil {
		t.Error("disallowed attribute released")
	}

	if _, err := f.authority.Validate(ctx, accessID, "svc-a"); !IsTicketError(err, KindInvalidTicket) {
		t.Errorf("replayed validation: err = %v, want INVALID_TICKET", err)
	}
}

func TestGrantUnknownSession(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.authority.GrantServiceTicket(context.Background(), "TGT-nonexistent", "svc-a")
	if !IsTicketError(err, KindInvalidTicket) {
		t.Errorf("err = %v, want INVALID_TICKET", err)
	}
}

func TestGrantDisabledService(t *testing.T) {
	f := newFixture(t, nil)
	sessionID := f.login(t, false)
	for _, service := range []string{"svc-disabled", "svc-unknown"} {
		if _, err := f.authority.GrantServiceTicket(context.Background(), sessionID, service); !IsTicketError(err, KindUnauthorizedService) {
			t.Errorf("%s: err = %v, want UNAUTHORIZED_SERVICE", service, err)
		}
	}
}

func TestGrantSSODisabledService(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sessionID := f.login(t, false)

	// First ambient use of the session is allowed.
	if _, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-nosso"); err != nil {
		t.Fatalf("first ambient grant: %v", err)
	}
	// A used session needs fresh credentials for SSO-disabled services.
	if _, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-nosso"); !IsTicketError(err, KindUnauthorizedSSOService) {
		t.Fatalf("second ambient grant: err = %v, want UNAUTHORIZED_SSO_SERVICE", err)
	}

	accessID, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-nosso", alicePassword())
	if err != nil {
		t.Fatalf("credentialed grant: %v", err)
	}
	built, err := f.authority.Validate(ctx, accessID, "svc-nosso")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !built.FromNewLogin {
		t.Error("FromNewLogin = false for credentialed grant")
	}
}

func TestGrantReauthenticationPrincipalMismatch(t *testing.T) {
	f := newFixture(t, nil)
	sessionID := f.login(t, false)

	_, err := f.authority.GrantServiceTicket(context.Background(), sessionID, "svc-a",
		credential.UserPassword{Username: "bob", Password: []byte("hunter2")})
	if !IsTicketError(err, KindTicketCreation) {
		t.Errorf("err = %v, want TICKET_CREATION_FAILURE", err)
	}

	_, err = f.authority.GrantServiceTicket(context.Background(), sessionID, "svc-a",
		credential.UserPassword{Username: "alice", Password: []byte("wrong")})
	if !IsTicketError(err, KindTicketCreation) {
		t.Errorf("bad password: err = %v, want TICKET_CREATION_FAILURE", err)
	}
}

func TestValidateServiceMismatchDoesNotConsume(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sessionID := f.login(t, false)
	accessID, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-a")
	if err != nil {
		t.Fatalf("GrantServiceTicket: %v", err)
	}

	if _, err := f.authority.Validate(ctx, accessID, "svc-nosso"); !IsTicketError(err, KindValidationMismatch) {
		t.Fatalf("wrong service: err = %v, want VALIDATION_MISMATCH", err)
	}
	// The misdirected attempt must not burn the grant.
	if _, err := f.authority.Validate(ctx, accessID, "svc-a"); err != nil {
		t.Errorf("validation after mismatch: %v", err)
	}
}

func TestValidateAnonymousService(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sessionID := f.login(t, false)
	accessID, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-anon")
	if err != nil {
		t.Fatalf("GrantServiceTicket: %v", err)
	}

	built, err := f.authority.Validate(ctx, accessID, "svc-anon")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if built.Principal().Name() == "alice" {
		t.Error("real name released to anonymous-access service")
	}
}

func TestDelegate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sessionID := f.login(t, false)
	accessID, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-a")
	if err != nil {
		t.Fatalf("GrantServiceTicket: %v", err)
	}

	childID, err := f.authority.Delegate(ctx, accessID, credential.ProxyTrust{ResourceID: "https://svc-a/callback"})
	if err != nil {
		t.Fatalf("Delegate: %v", err)
	}

	// A grant from the delegated session carries the two-hop chain.
	childAccess, err := f.authority.GrantServiceTicket(ctx, childID, "svc-a")
	if err != nil {
		t.Fatalf("grant from child: %v", err)
	}
	built, err := f.authority.Validate(ctx, childAccess, "svc-a")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(built.Chain) != 2 {
		t.Fatalf("chain length = %d, want 2", len(built.Chain))
	}
	if built.Chain[0].Principal.Name() != "alice" {
		t.Errorf("chain root = %q, want alice", built.Chain[0].Principal.Name())
	}
	if built.Principal().Name() != "https://svc-a/callback" {
		t.Errorf("released principal = %q, want the proxy hop", built.Principal().Name())
	}
}

func TestDelegateProxyDisabledLeavesStoreUnmodified(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sessionID := f.login(t, false)
	accessID, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-noproxy")
	if err != nil {
		t.Fatalf("GrantServiceTicket: %v", err)
	}

	_, err = f.authority.Delegate(ctx, accessID, credential.ProxyTrust{ResourceID: "https://evil/callback"})
	if !IsTicketError(err, KindUnauthorizedProxying) {
		t.Fatalf("err = %v, want UNAUTHORIZED_PROXYING", err)
	}

	sessions, _ := f.store.Sessions(ctx)
	if len(sessions) != 1 {
		t.Errorf("store has %d sessions, want 1 (no child created)", len(sessions))
	}
	session, _ := f.store.FindSession(ctx, sessionID)
	if access := session.Access(accessID); access.ChildSessionID() != "" {
		t.Error("refused delegation still linked a child session")
	}
}

func TestDelegateBadProxyCredential(t *testing.T) {
	f := newFixture(t, nil)
	sessionID := f.login(t, false)
	accessID, err := f.authority.GrantServiceTicket(context.Background(), sessionID, "svc-a")
	if err != nil {
		t.Fatalf("GrantServiceTicket: %v", err)
	}

	_, err = f.authority.Delegate(context.Background(), accessID,
		credential.UserPassword{Username: "alice", Password: []byte("wrong")})
	if !IsTicketError(err, KindTicketCreation) {
		t.Errorf("err = %v, want TICKET_CREATION_FAILURE", err)
	}
}

func TestDelegateUnknownAccess(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.authority.Delegate(context.Background(), "ST-nonexistent",
		credential.ProxyTrust{ResourceID: "https://svc-a/callback"})
	if !IsTicketError(err, KindInvalidTicket) {
		t.Errorf("err = %v, want INVALID_TICKET", err)
	}
}

func TestDelegateDepthLimit(t *testing.T) {
	f := newFixture(t, func(config *Config) { config.MaxProxyDepth = 2 })
	ctx := context.Background()
	sessionID := f.login(t, false)

	accessID, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-a")
	if err != nil {
		t.Fatalf("GrantServiceTicket: %v", err)
	}
	childID, err := f.authority.Delegate(ctx, accessID, credential.ProxyTrust{ResourceID: "hop-1"})
	if err != nil {
		t.Fatalf("first delegation: %v", err)
	}

	childAccess, err := f.authority.GrantServiceTicket(ctx, childID, "svc-a")
	if err != nil {
		t.Fatalf("grant from child: %v", err)
	}
	_, err = f.authority.Delegate(ctx, childAccess, credential.ProxyTrust{ResourceID: "hop-2"})
	if !IsTicketError(err, KindUnauthorizedProxying) {
		t.Errorf("over-deep delegation: err = %v, want UNAUTHORIZED_PROXYING", err)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sessionID := f.login(t, false)

	destroyed, err := f.authority.Logout(ctx, sessionID)
	if err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(destroyed) != 1 || destroyed[0].ID() != sessionID {
		t.Fatalf("destroyed = %v", destroyed)
	}
	if destroyed[0].State() != ticket.Invalidated {
		t.Error("destroyed session not invalidated")
	}

	if _, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-a"); !IsTicketError(err, KindInvalidTicket) {
		t.Errorf("grant after logout: err = %v, want INVALID_TICKET", err)
	}

	// Unknown session is not an error.
	destroyed, err = f.authority.Logout(ctx, sessionID)
	if err != nil || len(destroyed) != 0 {
		t.Errorf("repeat logout: destroyed = %v, err = %v", destroyed, err)
	}
}

func TestLogoutInvalidatesOutstandingGrants(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sessionID := f.login(t, false)
	accessID, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-a")
	if err != nil {
		t.Fatalf("GrantServiceTicket: %v", err)
	}

	if _, err := f.authority.Logout(ctx, sessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := f.authority.Validate(ctx, accessID, "svc-a"); !IsTicketError(err, KindInvalidTicket) {
		t.Errorf("validate after logout: err = %v, want INVALID_TICKET", err)
	}
}

func TestLogoutPrincipal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	first := f.login(t, false)
	second := f.login(t, false)

	destroyed, err := f.authority.LogoutPrincipal(ctx, "alice")
	if err != nil {
		t.Fatalf("LogoutPrincipal: %v", err)
	}
	if len(destroyed) != 2 {
		t.Fatalf("destroyed %d sessions, want 2", len(destroyed))
	}
	ids := map[string]bool{destroyed[0].ID(): true, destroyed[1].ID(): true}
	if !ids[first] || !ids[second] {
		t.Errorf("destroyed set %v missing %s or %s", ids, first, second)
	}

	// Absence is success, idempotently.
	destroyed, err = f.authority.LogoutPrincipal(ctx, "alice")
	if err != nil || len(destroyed) != 0 {
		t.Errorf("repeat principal logout: destroyed = %v, err = %v", destroyed, err)
	}
}

func TestConcurrentValidationSingleWinner(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sessionID := f.login(t, false)
	accessID, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-a")
	if err != nil {
		t.Fatalf("GrantServiceTicket: %v", err)
	}

	const attempts = 32
	results := make(chan error, attempts)
	var wait sync.WaitGroup
	for range attempts {
		wait.Go(func() {
			_, err := f.authority.Validate(ctx, accessID, "svc-a")
			results <- err
		})
	}
	wait.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
			continue
		}
		if !IsTicketError(err, KindInvalidTicket) {
			t.Errorf("loser got %v, want INVALID_TICKET", err)
		}
	}
	if winners != 1 {
		t.Errorf("%d validations succeeded, want exactly 1", winners)
	}
}

func TestAccessExpiresBeforeValidation(t *testing.T) {
	f := newFixture(t, func(config *Config) {
		config.AccessPolicy = ticket.Lifetime{Max: 10 * time.Second}
	})
	ctx := context.Background()
	sessionID := f.login(t, false)
	accessID, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-a")
	if err != nil {
		t.Fatalf("GrantServiceTicket: %v", err)
	}

	f.clock.Advance(11 * time.Second)

	if _, err := f.authority.Validate(ctx, accessID, "svc-a"); !IsTicketError(err, KindInvalidTicket) {
		t.Fatalf("expired grant: err = %v, want INVALID_TICKET", err)
	}
	// Lazy cleanup removed the grant from its session.
	session, err := f.store.FindSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("FindSession: %v", err)
	}
	if session.Access(accessID) != nil {
		t.Error("expired access still attached to session")
	}
	if _, err := f.store.FindByAccess(ctx, accessID); err == nil {
		t.Error("expired access still indexed in store")
	}
}

func TestSessionIdleExpiry(t *testing.T) {
	f := newFixture(t, func(config *Config) {
		config.SessionPolicy = ticket.Idle{Timeout: time.Hour}
	})
	ctx := context.Background()
	sessionID := f.login(t, false)

	f.clock.Advance(2 * time.Hour)

	if _, err := f.authority.GrantServiceTicket(ctx, sessionID, "svc-a"); !IsTicketError(err, KindInvalidTicket) {
		t.Errorf("grant on idle session: err = %v, want INVALID_TICKET", err)
	}
}

func TestSweepReapsExpiredSessions(t *testing.T) {
	f := newFixture(t, func(config *Config) {
		config.SessionPolicy = ticket.Idle{Timeout: time.Hour}
		config.LongTermPolicy = ticket.Lifetime{Max: 24 * time.Hour}
	})
	ctx := context.Background()
	f.login(t, false)
	longLived := f.login(t, true)

	f.clock.Advance(2 * time.Hour)

	if reaped := f.authority.Sweep(ctx); reaped != 1 {
		t.Errorf("Sweep reaped %d, want 1", reaped)
	}
	sessions, _ := f.store.Sessions(ctx)
	if len(sessions) != 1 || sessions[0].ID() != longLived {
		t.Errorf("surviving sessions = %v, want only the long-term one", sessions)
	}
}
