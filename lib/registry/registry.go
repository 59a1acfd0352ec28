// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package registry

// Service is the policy record for one registered relying service.
// The authority treats these records as read-only: registration and
// editing happen out of band (the JSONC registry file, or whatever
// backs a custom Registry implementation).
type Service struct {
	// ID is the service/resource identifier access grants are scoped
	// to, typically the service URL.
	ID string `json:"id"`

	// Name is a human-readable label for logs and operator tooling.
	Name string `json:"name,omitempty"`

	// Enabled gates all ticket operations. A disabled service can
	// neither receive grants nor validate them.
	Enabled bool `json:"enabled"`

	// SSO permits ambient (non-credentialed) grants from a session
	// that has already issued a grant. A service with SSO=false gets
	// at most one ambient grant per session; after that, every grant
	// must present fresh credentials.
	SSO bool `json:"sso"`

	// Proxy permits the service to delegate: exchanging an access
	// grant for a child session that can itself request grants.
	Proxy bool `json:"proxy"`

	// AnonymousAccess replaces the principal's real name with a
	// service-stable pseudonymous id in released assertions.
	AnonymousAccess bool `json:"anonymous_access,omitempty"`

	// IgnoreAttributes releases the full attribute set unfiltered.
	// When false, only AllowedAttributes are released.
	IgnoreAttributes bool `json:"ignore_attributes,omitempty"`

	// AllowedAttributes names the attributes released to this
	// service. Ignored when IgnoreAttributes is set.
	AllowedAttributes []string `json:"allowed_attributes,omitempty"`
}

// Registry is the policy lookup consulted on every grant, delegation,
// and validation. Implementations must be safe for concurrent use.
type Registry interface {
	// FindService resolves a service/resource identifier to its
	// policy record, or nil if the service is unknown. Unknown and
	// disabled are distinct: the caller applies the enabled check so
	// it can log which case it hit.
	FindService(id string) *Service
}

// Static is a fixed in-memory Registry, used by tests and as the
// target the file loader parses into.
type Static struct {
	services map[string]Service
}

// NewStatic builds a registry over the given service records.
// Duplicate IDs keep the last record.
func NewStatic(services ...Service) *Static {
	indexed := make(map[string]Service, len(services))
	for _, service := range services {
		indexed[service.ID] = service
	}
	return &Static{services: indexed}
}

// FindService implements Registry. The returned record is a copy;
// callers cannot mutate registry policy.
func (s *Static) FindService(id string) *Service {
	service, ok := s.services[id]
	if !ok {
		return nil
	}
	service.AllowedAttributes = append([]string(nil), service.AllowedAttributes...)
	return &service
}

// Services returns all records, for operator tooling.
func (s *Static) Services() []Service {
	all := make([]Service, 0, len(s.services))
	for _, service := range s.services {
		all = append(all, service)
	}
	return all
}
