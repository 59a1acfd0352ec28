// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/signet-project/signet/lib/authority"
	"github.com/signet-project/signet/lib/codec"
	"github.com/signet-project/signet/lib/control"
	"github.com/signet-project/signet/lib/credential"
	"github.com/signet-project/signet/lib/store"
	"github.com/signet-project/signet/lib/ticket"
)

// registerHandlers registers all control socket actions. The socket's
// file permissions are the access control; every action is available
// to any client that can connect.
func registerHandlers(server *control.SocketServer, core *authority.Authority, sessions store.Store) {
	handlers := &handlers{core: core, sessions: sessions}
	server.Handle("status", handlers.status)
	server.Handle("login", handlers.login)
	server.Handle("logout", handlers.logout)
	server.Handle("logout-principal", handlers.logoutPrincipal)
	server.Handle("grant", handlers.grant)
	server.Handle("delegate", handlers.delegate)
	server.Handle("validate", handlers.validate)
}

type handlers struct {
	core     *authority.Authority
	sessions store.Store
}

// statusResponse is the response to the "status" action.
type statusResponse struct {
	// Sessions is the number of live sessions.
	Sessions int `cbor:"sessions"`
}

func (h *handlers) status(ctx context.Context, raw []byte) (any, error) {
	live, err := h.sessions.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	return statusResponse{Sessions: len(live)}, nil
}

type loginRequest struct {
	Username string `cbor:"username"`
	Password []byte `cbor:"password"`
	LongTerm bool   `cbor:"long_term"`
}

type loginResponse struct {
	SessionID string `cbor:"session_id"`
	Principal string `cbor:"principal"`
}

func (h *handlers) login(ctx context.Context, raw []byte) (any, error) {
	var request loginRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid login request: %w", err)
	}
	if request.Username == "" {
		return nil, fmt.Errorf("missing required field: username")
	}

	response, err := h.core.Login(ctx, credential.Request{
		Credentials: []credential.Credential{
			credential.UserPassword{Username: request.Username, Password: request.Password},
		},
		LongTerm: request.LongTerm,
	})
	if err != nil {
		return nil, err
	}
	if !response.Response.Succeeded {
		return nil, fmt.Errorf("authentication failed: %s", response.Response.Failure)
	}
	return loginResponse{
		SessionID: response.SessionID,
		Principal: response.Response.Principal.Name(),
	}, nil
}

type logoutRequest struct {
	SessionID string `cbor:"session_id"`
	Principal string `cbor:"principal"`
}

type logoutResponse struct {
	Destroyed []string `cbor:"destroyed"`
}

func (h *handlers) logout(ctx context.Context, raw []byte) (any, error) {
	var request logoutRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid logout request: %w", err)
	}
	if request.SessionID == "" {
		return nil, fmt.Errorf("missing required field: session_id")
	}
	destroyed, err := h.core.Logout(ctx, request.SessionID)
	if err != nil {
		return nil, err
	}
	return logoutResponse{Destroyed: sessionIDs(destroyed)}, nil
}

func (h *handlers) logoutPrincipal(ctx context.Context, raw []byte) (any, error) {
	var request logoutRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid logout request: %w", err)
	}
	if request.Principal == "" {
		return nil, fmt.Errorf("missing required field: principal")
	}
	destroyed, err := h.core.LogoutPrincipal(ctx, request.Principal)
	if err != nil {
		return nil, err
	}
	return logoutResponse{Destroyed: sessionIDs(destroyed)}, nil
}

type grantRequest struct {
	SessionID string `cbor:"session_id"`
	Service   string `cbor:"service"`

	// Username/Password force a fresh re-authentication when set.
	Username string `cbor:"username,omitempty"`
	Password []byte `cbor:"password,omitempty"`
}

type grantResponse struct {
	AccessID string `cbor:"access_id"`
}

func (h *handlers) grant(ctx context.Context, raw []byte) (any, error) {
	var request grantRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid grant request: %w", err)
	}
	if request.SessionID == "" || request.Service == "" {
		return nil, fmt.Errorf("missing required fields: session_id, service")
	}

	var credentials []credential.Credential
	if request.Username != "" {
		credentials = append(credentials, credential.UserPassword{
			Username: request.Username,
			Password: request.Password,
		})
	}
	accessID, err := h.core.GrantServiceTicket(ctx, request.SessionID, request.Service, credentials...)
	if err != nil {
		return nil, err
	}
	return grantResponse{AccessID: accessID}, nil
}

type delegateRequest struct {
	AccessID string `cbor:"access_id"`
	Resource string `cbor:"resource"`
}

type delegateResponse struct {
	SessionID string `cbor:"session_id"`
}

func (h *handlers) delegate(ctx context.Context, raw []byte) (any, error) {
	var request delegateRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid delegate request: %w", err)
	}
	if request.AccessID == "" || request.Resource == "" {
		return nil, fmt.Errorf("missing required fields: access_id, resource")
	}
	childID, err := h.core.Delegate(ctx, request.AccessID, credential.ProxyTrust{
		ResourceID: request.Resource,
	})
	if err != nil {
		return nil, err
	}
	return delegateResponse{SessionID: childID}, nil
}

type validateRequest struct {
	AccessID string `cbor:"access_id"`
	Service  string `cbor:"service"`
}

// chainEntry is one hop of the released authentication chain.
type chainEntry struct {
	Principal       string `cbor:"principal"`
	CredentialType  string `cbor:"credential_type"`
	AuthenticatedAt int64  `cbor:"authenticated_at"`
}

type validateResponse struct {
	Principal    string              `cbor:"principal"`
	Attributes   map[string][]string `cbor:"attributes,omitempty"`
	Service      string              `cbor:"service"`
	FromNewLogin bool                `cbor:"from_new_login"`
	Chain        []chainEntry        `cbor:"chain"`
}

func (h *handlers) validate(ctx context.Context, raw []byte) (any, error) {
	var request validateRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid validate request: %w", err)
	}
	if request.AccessID == "" || request.Service == "" {
		return nil, fmt.Errorf("missing required fields: access_id, service")
	}

	built, err := h.core.Validate(ctx, request.AccessID, request.Service)
	if err != nil {
		return nil, err
	}

	released := built.Principal()
	chain := make([]chainEntry, len(built.Chain))
	for i, hop := range built.Chain {
		chain[i] = chainEntry{
			Principal:       hop.Principal.Name(),
			CredentialType:  hop.CredentialType,
			AuthenticatedAt: hop.AuthenticatedAt.Unix(),
		}
	}
	return validateResponse{
		Principal:    released.Name(),
		Attributes:   released.Attributes(),
		Service:      built.ServiceID,
		FromNewLogin: built.FromNewLogin,
		Chain:        chain,
	}, nil
}

func sessionIDs(sessions []*ticket.Session) []string {
	ids := make([]string, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID()
	}
	return ids
}
