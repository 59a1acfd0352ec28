// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/signet-project/signet/lib/assertion"
	"github.com/signet-project/signet/lib/clock"
	"github.com/signet-project/signet/lib/credential"
	"github.com/signet-project/signet/lib/registry"
	"github.com/signet-project/signet/lib/store"
	"github.com/signet-project/signet/lib/ticket"
)

// Default lifecycle parameters, applied by New when the corresponding
// Config field is zero.
const (
	DefaultSessionIdle      = 2 * time.Hour
	DefaultLongTermLifetime = 720 * time.Hour
	DefaultAccessLifetime   = 10 * time.Second
	DefaultMaxProxyDepth    = 10
)

// LoginResponse is the outcome of a login attempt: the gate's
// authentication response, plus the new session id when it succeeded.
type LoginResponse struct {
	// SessionID is the id of the created root session. Empty when
	// authentication failed.
	SessionID string

	// Response carries the authentication outcome: the resolved
	// principal on success, the failure reason otherwise.
	Response credential.Response
}

// Config assembles an Authority from its collaborators. Gate, Store,
// Registry, and Builder are required; everything else has a default.
type Config struct {
	Gate     *credential.Gate
	Store    store.Store
	Registry registry.Registry
	Builder  *assertion.Builder

	// SessionPolicy expires ordinary root and delegated sessions.
	// Defaults to an idle timeout of DefaultSessionIdle.
	SessionPolicy ticket.ExpirationPolicy

	// LongTermPolicy expires sessions created by a long-term login.
	// Defaults to an absolute lifetime of DefaultLongTermLifetime.
	LongTermPolicy ticket.ExpirationPolicy

	// AccessPolicy expires unvalidated access grants. Defaults to an
	// absolute lifetime of DefaultAccessLifetime.
	AccessPolicy ticket.ExpirationPolicy

	// MaxProxyDepth bounds the authentication chain length. Defaults
	// to DefaultMaxProxyDepth.
	MaxProxyDepth int

	// PreLogin and Response plugins run around gate authentication,
	// in order.
	PreLogin []PreLoginPlugin
	Response []ResponsePlugin

	Clock  clock.Clock
	Logger *slog.Logger
}

// Authority is the public coordinator of the single-sign-on protocol:
// login and logout, service-ticket granting, proxy delegation, and
// single-use validation. It sequences the gate, registry, store, and
// assertion builder; the sessions themselves enforce the state
// transitions under their own locks.
//
// Authority is safe for concurrent use.
type Authority struct {
	gate     *credential.Gate
	store    store.Store
	registry registry.Registry
	builder  *assertion.Builder

	sessionPolicy  ticket.ExpirationPolicy
	longTermPolicy ticket.ExpirationPolicy
	accessPolicy   ticket.ExpirationPolicy
	maxProxyDepth  int

	preLogin []PreLoginPlugin
	response []ResponsePlugin

	clock  clock.Clock
	logger *slog.Logger
}

// New builds an Authority from the config, filling in defaults for
// unset policies, clock, and logger.
func New(config Config) (*Authority, error) {
	if config.Gate == nil {
		return nil, errors.New("authority: config requires a credential gate")
	}
	if config.Store == nil {
		return nil, errors.New("authority: config requires a session store")
	}
	if config.Registry == nil {
		return nil, errors.New("authority: config requires a service registry")
	}
	if config.Builder == nil {
		return nil, errors.New("authority: config requires an assertion builder")
	}

	a := &Authority{
		gate:           config.Gate,
		store:          config.Store,
		registry:       config.Registry,
		builder:        config.Builder,
		sessionPolicy:  config.SessionPolicy,
		longTermPolicy: config.LongTermPolicy,
		accessPolicy:   config.AccessPolicy,
		maxProxyDepth:  config.MaxProxyDepth,
		preLogin:       append([]PreLoginPlugin(nil), config.PreLogin...),
		response:       append([]ResponsePlugin(nil), config.Response...),
		clock:          config.Clock,
		logger:         config.Logger,
	}
	if a.sessionPolicy == nil {
		a.sessionPolicy = ticket.Idle{Timeout: DefaultSessionIdle}
	}
	if a.longTermPolicy == nil {
		a.longTermPolicy = ticket.Lifetime{Max: DefaultLongTermLifetime}
	}
	if a.accessPolicy == nil {
		a.accessPolicy = ticket.Lifetime{Max: DefaultAccessLifetime}
	}
	if a.maxProxyDepth <= 0 {
		a.maxProxyDepth = DefaultMaxProxyDepth
	}
	if a.clock == nil {
		a.clock = clock.Real()
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	return a, nil
}

// policyFor selects the expiration policy for a session based on how
// it was created.
func (a *Authority) policyFor(session *ticket.Session) ticket.ExpirationPolicy {
	if session.LongTerm() {
		return a.longTermPolicy
	}
	return a.sessionPolicy
}

// Login authenticates the request and creates a root session.
//
// Pre-login plugins run first; a plugin returning a response
// short-circuits the login and nothing else runs. Otherwise the gate
// authenticates, response plugins observe the outcome, and on success
// exactly one session is created. Authentication failure is not an
// error: it is a LoginResponse without a session id. The returned
// error reports contract violations and store faults only.
func (a *Authority) Login(ctx context.Context, request credential.Request) (*LoginResponse, error) {
	for _, plugin := range a.preLogin {
		response, err := plugin.BeforeLogin(ctx, request)
		if err != nil {
			return nil, fmt.Errorf("authority: pre-login plugin %s: %w", plugin.Name(), err)
		}
		if response != nil {
			a.logger.Info("login short-circuited", "plugin", plugin.Name())
			return response, nil
		}
	}

	gateResponse, err := a.gate.Authenticate(ctx, request)
	if err != nil {
		return nil, err
	}

	response := &LoginResponse{Response: gateResponse}
	for _, plugin := range a.response {
		plugin.OnResponse(ctx, request, response)
	}

	if !response.Response.Succeeded {
		a.logger.Info("login failed", "reason", response.Response.Failure)
		return response, nil
	}

	session := ticket.NewSession(ticket.Authentication{
		Principal:       response.Response.Principal,
		AuthenticatedAt: a.clock.Now(),
		CredentialType:  response.Response.CredentialType,
	}, request.LongTerm, a.clock.Now())
	if err := a.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("authority: creating session: %w", err)
	}
	response.SessionID = session.ID()

	a.logger.Info("login succeeded",
		"session", session.ID(),
		"principal", response.Response.Principal.Name(),
		"long_term", request.LongTerm,
	)
	return response, nil
}

// Logout destroys the session with the given id and returns it. An
// unknown id is not an error: the result is simply empty.
func (a *Authority) Logout(ctx context.Context, sessionID string) ([]*ticket.Session, error) {
	session, err := a.store.Destroy(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authority: destroying session: %w", err)
	}
	session.Invalidate()
	a.logger.Info("logout", "session", sessionID)
	return []*ticket.Session{session}, nil
}

// LogoutPrincipal destroys every session rooted in the named
// principal and returns the destroyed set. Per-session destruction
// failures are logged and skipped; the batch always runs to the end.
// No sessions for the principal is not an error.
func (a *Authority) LogoutPrincipal(ctx context.Context, name string) ([]*ticket.Session, error) {
	sessions, err := a.store.FindByPrincipal(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("authority: finding sessions for %q: %w", name, err)
	}

	var destroyed []*ticket.Session
	for _, session := range sessions {
		removed, err := a.store.Destroy(ctx, session.ID())
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			a.logger.Warn("principal logout: destroy failed",
				"session", session.ID(),
				"error", err,
			)
			continue
		}
		removed.Invalidate()
		destroyed = append(destroyed, removed)
	}
	a.logger.Info("principal logout", "principal", name, "destroyed", len(destroyed))
	return destroyed, nil
}

// GrantServiceTicket issues a service-scoped access grant from the
// session. Supplying credentials forces a fresh re-authentication and
// marks the grant from-new-login; the resolved principal must match
// the session's root principal. Without credentials the grant is
// ambient SSO, which an SSO-disabled service accepts only as the
// session's first use.
//
// Failures are *TicketError: KindInvalidTicket for an unknown,
// invalidated, or expired session; KindUnauthorizedService for an
// unknown or disabled service; KindUnauthorizedSSOService when an
// SSO-disabled service needs fresh credentials; KindTicketCreation
// when re-authentication fails or resolves a different principal.
func (a *Authority) GrantServiceTicket(ctx context.Context, sessionID, serviceID string, credentials ...credential.Credential) (string, error) {
	session, err := a.store.FindSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return "", &TicketError{Kind: KindInvalidTicket, TicketID: sessionID, ServiceID: serviceID, Err: err}
	}
	if err != nil {
		return "", fmt.Errorf("authority: finding session: %w", err)
	}

	service := a.registry.FindService(serviceID)
	if service == nil || !service.Enabled {
		return "", &TicketError{Kind: KindUnauthorizedService, TicketID: sessionID, ServiceID: serviceID}
	}

	forceAuth := len(credentials) > 0
	if forceAuth {
		response, err := a.gate.Authenticate(ctx, credential.Request{Credentials: credentials})
		if err != nil {
			return "", err
		}
		if !response.Succeeded {
			return "", &TicketError{
				Kind: KindTicketCreation, TicketID: sessionID, ServiceID: serviceID,
				Err: fmt.Errorf("re-authentication failed: %s", response.Failure),
			}
		}
		if response.Principal.Name() != session.RootPrincipal().Name() {
			return "", &TicketError{
				Kind: KindTicketCreation, TicketID: sessionID, ServiceID: serviceID,
				Err: fmt.Errorf("re-authenticated principal %q does not own the session", response.Principal.Name()),
			}
		}
	}

	// The unused-session requirement for ambient grants against
	// SSO-disabled services is checked inside Grant, under the
	// session lock, so concurrent first grants cannot both pass.
	access, err := session.Grant(ticket.AccessRequest{
		ServiceID:     serviceID,
		ForceAuth:     forceAuth,
		RequireUnused: !service.SSO && !forceAuth,
		At:            a.clock.Now(),
	}, a.policyFor(session))
	switch {
	case errors.Is(err, ticket.ErrSessionUsed):
		return "", &TicketError{Kind: KindUnauthorizedSSOService, TicketID: sessionID, ServiceID: serviceID, Err: err}
	case errors.Is(err, ticket.ErrSessionInvalidated), errors.Is(err, ticket.ErrSessionExpired):
		return "", &TicketError{Kind: KindInvalidTicket, TicketID: sessionID, ServiceID: serviceID, Err: err}
	case err != nil:
		return "", fmt.Errorf("authority: granting access: %w", err)
	}

	if err := a.store.Update(ctx, session); err != nil {
		return "", fmt.Errorf("authority: persisting grant: %w", err)
	}

	a.logger.Info("access granted",
		"session", sessionID,
		"access", access.ID(),
		"service", serviceID,
		"from_new_login", forceAuth,
	)
	return access.ID(), nil
}

// Delegate creates a child session on behalf of the service holding
// the given access grant, extending the authentication chain by one
// hop. The proxy credential authenticates first, before any ticket
// lookup. The service behind the grant must be proxy-eligible.
//
// Failures are *TicketError: KindTicketCreation when the proxy
// credential is rejected; KindInvalidTicket for an unknown grant or a
// dead owning session; KindUnauthorizedProxying for a service that
// forbids delegation or a chain that would exceed the maximum depth.
func (a *Authority) Delegate(ctx context.Context, accessID string, proxyCredential credential.Credential) (string, error) {
	response, err := a.gate.Authenticate(ctx, credential.Request{
		Credentials: []credential.Credential{proxyCredential},
	})
	if err != nil {
		return "", err
	}
	if !response.Succeeded {
		return "", &TicketError{
			Kind: KindTicketCreation, TicketID: accessID,
			Err: fmt.Errorf("proxy authentication failed: %s", response.Failure),
		}
	}

	session, err := a.store.FindByAccess(ctx, accessID)
	if errors.Is(err, store.ErrNotFound) {
		return "", &TicketError{Kind: KindInvalidTicket, TicketID: accessID, Err: err}
	}
	if err != nil {
		return "", fmt.Errorf("authority: finding session by access: %w", err)
	}
	access := session.Access(accessID)
	if access == nil {
		return "", &TicketError{Kind: KindInvalidTicket, TicketID: accessID, Err: ticket.ErrAccessNotFound}
	}

	service := a.registry.FindService(access.ServiceID())
	if service == nil || !service.Enabled || !service.Proxy {
		return "", &TicketError{Kind: KindUnauthorizedProxying, TicketID: accessID, ServiceID: access.ServiceID()}
	}

	child, err := session.Delegate(accessID, ticket.Authentication{
		Principal:       response.Principal,
		AuthenticatedAt: a.clock.Now(),
		CredentialType:  response.CredentialType,
	}, a.maxProxyDepth, a.policyFor(session), a.clock.Now())
	switch {
	case errors.Is(err, ticket.ErrDelegationDepth):
		return "", &TicketError{Kind: KindUnauthorizedProxying, TicketID: accessID, ServiceID: access.ServiceID(), Err: err}
	case errors.Is(err, ticket.ErrSessionInvalidated), errors.Is(err, ticket.ErrSessionExpired), errors.Is(err, ticket.ErrAccessNotFound):
		return "", &TicketError{Kind: KindInvalidTicket, TicketID: accessID, Err: err}
	case err != nil:
		return "", fmt.Errorf("authority: delegating: %w", err)
	}

	if err := a.store.CreateSession(ctx, child); err != nil {
		return "", fmt.Errorf("authority: creating delegated session: %w", err)
	}
	if err := a.store.Update(ctx, session); err != nil {
		return "", fmt.Errorf("authority: persisting parent session: %w", err)
	}

	a.logger.Info("delegated session created",
		"parent", session.ID(),
		"child", child.ID(),
		"access", accessID,
		"proxy_principal", response.Principal.Name(),
	)
	return child.ID(), nil
}

// Validate consumes the access grant for the requesting service and
// releases the identity assertion. The grant validates exactly once:
// a replay fails as KindInvalidTicket and a request from the wrong
// service fails as KindValidationMismatch without consuming the
// grant. Attribute filtering and anonymization follow the service's
// registry policy.
//
// An expired grant is removed from its session on the way out,
// whatever the outcome.
func (a *Authority) Validate(ctx context.Context, accessID, serviceID string) (*assertion.Assertion, error) {
	session, err := a.store.FindByAccess(ctx, accessID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &TicketError{Kind: KindInvalidTicket, TicketID: accessID, ServiceID: serviceID, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("authority: finding session by access: %w", err)
	}

	defer func() {
		if !session.AccessExpired(accessID, a.accessPolicy, a.clock.Now()) {
			return
		}
		session.RemoveAccess(accessID)
		if err := a.store.Update(ctx, session); err != nil {
			a.logger.Warn("expired access cleanup failed", "access", accessID, "error", err)
		}
	}()

	service := a.registry.FindService(serviceID)
	if service == nil || !service.Enabled {
		return nil, &TicketError{Kind: KindUnauthorizedService, TicketID: accessID, ServiceID: serviceID}
	}

	access, err := session.ValidateAccess(accessID, serviceID, a.accessPolicy, a.clock.Now())
	switch {
	case errors.Is(err, ticket.ErrServiceMismatch):
		return nil, &TicketError{Kind: KindValidationMismatch, TicketID: accessID, ServiceID: serviceID, Err: err}
	case err != nil:
		return nil, &TicketError{Kind: KindInvalidTicket, TicketID: accessID, ServiceID: serviceID, Err: err}
	}

	if err := a.store.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("authority: persisting validation: %w", err)
	}

	built := a.builder.Build(session.AuthenticationChain(), access, service)
	a.logger.Info("access validated",
		"access", accessID,
		"service", serviceID,
		"principal", built.Principal().Name(),
		"from_new_login", built.FromNewLogin,
	)
	return built, nil
}
