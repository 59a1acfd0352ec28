// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for the Signet authority.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Socket configures the daemon's control socket.
	Socket SocketConfig `yaml:"socket"`

	// Store configures session persistence.
	Store StoreConfig `yaml:"store"`

	// Registry configures the relying-service registry.
	Registry RegistryConfig `yaml:"registry"`

	// Users configures the password authenticator.
	Users UsersConfig `yaml:"users"`

	// Tickets configures ticket lifecycle policy.
	Tickets TicketsConfig `yaml:"tickets"`

	// Anonymous configures pseudonymous-id generation.
	Anonymous AnonymousConfig `yaml:"anonymous"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains fields that can be overridden per environment.
type Overrides struct {
	Socket    *SocketConfig    `yaml:"socket,omitempty"`
	Store     *StoreConfig     `yaml:"store,omitempty"`
	Registry  *RegistryConfig  `yaml:"registry,omitempty"`
	Users     *UsersConfig     `yaml:"users,omitempty"`
	Tickets   *TicketsConfig   `yaml:"tickets,omitempty"`
	Anonymous *AnonymousConfig `yaml:"anonymous,omitempty"`
}

// SocketConfig configures the daemon's control socket.
type SocketConfig struct {
	// Path is the Unix socket the daemon serves on.
	// Default: /run/signet/authority.sock
	Path string `yaml:"path"`
}

// StoreConfig configures session persistence.
type StoreConfig struct {
	// Backend selects the store: "memory" or "sqlite".
	// Default: sqlite
	Backend string `yaml:"backend"`

	// Path is the SQLite database file. Ignored for the memory
	// backend.
	Path string `yaml:"path"`

	// PoolSize is the SQLite connection pool size.
	// Default: 4
	PoolSize int `yaml:"pool_size"`
}

// RegistryConfig configures the relying-service registry.
type RegistryConfig struct {
	// File is the JSONC service registry file. Required.
	File string `yaml:"file"`
}

// UsersConfig configures the password authenticator.
type UsersConfig struct {
	// File is the YAML users file mapping usernames to bcrypt
	// hashes. Required unless another authenticator is wired in.
	File string `yaml:"file"`
}

// TicketsConfig configures ticket lifecycle policy. Durations are Go
// duration strings ("2h", "10s").
type TicketsConfig struct {
	// SessionIdle is the idle timeout for ordinary sessions.
	// Default: 2h
	SessionIdle string `yaml:"session_idle"`

	// LongTermLifetime is the absolute lifetime for long-term
	// sessions. Default: 720h
	LongTermLifetime string `yaml:"long_term_lifetime"`

	// AccessLifetime is the validation window for service tickets.
	// Default: 10s
	AccessLifetime string `yaml:"access_lifetime"`

	// MaxProxyDepth bounds the delegation chain length.
	// Default: 10
	MaxProxyDepth int `yaml:"max_proxy_depth"`

	// SweepInterval is how often expired sessions are reaped.
	// Default: 1m
	SweepInterval string `yaml:"sweep_interval"`
}

// AnonymousConfig configures pseudonymous-id generation.
type AnonymousConfig struct {
	// SaltFile is a file whose contents salt the pseudonym hash.
	// The salt must be stable across restarts or anonymous services
	// see every user as new. Required when any registered service
	// has anonymous access.
	SaltFile string `yaml:"salt_file"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file. They exist to give every
// field a sensible zero-value, not as a fallback: the config file is
// required.
func Default() *Config {
	return &Config{
		Environment: Development,
		Socket: SocketConfig{
			Path: "/run/signet/authority.sock",
		},
		Store: StoreConfig{
			Backend:  "sqlite",
			Path:     "/var/lib/signet/sessions.db",
			PoolSize: 4,
		},
		Tickets: TicketsConfig{
			SessionIdle:      "2h",
			LongTermLifetime: "720h",
			AccessLifetime:   "10s",
			MaxProxyDepth:    10,
			SweepInterval:    "1m",
		},
	}
}

// Load loads configuration from the SIGNET_CONFIG environment
// variable. There are no fallbacks or automatic discovery: if
// SIGNET_CONFIG is not set, this fails. This keeps configuration
// deterministic and auditable with no hidden overrides.
func Load() (*Config, error) {
	path := os.Getenv("SIGNET_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("SIGNET_CONFIG environment variable not set; " +
			"set it to the path of your signet.yaml config file, or use --config flag")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables never
// override values from it.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// applyEnvironmentOverrides applies the section matching
// c.Environment over the base values.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}
	if overrides.Socket != nil {
		c.Socket = *overrides.Socket
	}
	if overrides.Store != nil {
		c.Store = *overrides.Store
	}
	if overrides.Registry != nil {
		c.Registry = *overrides.Registry
	}
	if overrides.Users != nil {
		c.Users = *overrides.Users
	}
	if overrides.Tickets != nil {
		c.Tickets = *overrides.Tickets
	}
	if overrides.Anonymous != nil {
		c.Anonymous = *overrides.Anonymous
	}
}

// expandVariables expands ${HOME} in path fields for portability. No
// other expansion happens.
func (c *Config) expandVariables() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	expand := func(path string) string {
		if path == "" {
			return path
		}
		mapper := func(name string) string {
			if name == "HOME" {
				return home
			}
			return "$" + name
		}
		return filepath.Clean(os.Expand(path, mapper))
	}
	c.Socket.Path = expand(c.Socket.Path)
	c.Store.Path = expand(c.Store.Path)
	c.Registry.File = expand(c.Registry.File)
	c.Users.File = expand(c.Users.File)
	c.Anonymous.SaltFile = expand(c.Anonymous.SaltFile)
}

// Validate checks field values that defaults cannot paper over.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("config: store.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("config: unknown store.backend %q (want memory or sqlite)", c.Store.Backend)
	}
	if c.Registry.File == "" {
		return fmt.Errorf("config: registry.file is required")
	}
	for name, value := range map[string]string{
		"tickets.session_idle":       c.Tickets.SessionIdle,
		"tickets.long_term_lifetime": c.Tickets.LongTermLifetime,
		"tickets.access_lifetime":    c.Tickets.AccessLifetime,
		"tickets.sweep_interval":     c.Tickets.SweepInterval,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	if c.Tickets.MaxProxyDepth <= 0 {
		return fmt.Errorf("config: tickets.max_proxy_depth must be positive")
	}
	return nil
}

// duration parses a validated duration field. Malformed values are a
// bug in the Validate coverage, so panic rather than limp on.
func duration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(fmt.Sprintf("config: duration %q not validated: %v", value, err))
	}
	return d
}

// SessionIdleDuration returns the parsed ordinary-session idle timeout.
func (t TicketsConfig) SessionIdleDuration() time.Duration { return duration(t.SessionIdle) }

// LongTermLifetimeDuration returns the parsed long-term session lifetime.
func (t TicketsConfig) LongTermLifetimeDuration() time.Duration {
	return duration(t.LongTermLifetime)
}

// AccessLifetimeDuration returns the parsed service-ticket lifetime.
func (t TicketsConfig) AccessLifetimeDuration() time.Duration { return duration(t.AccessLifetime) }

// SweepIntervalDuration returns the parsed reaper interval.
func (t TicketsConfig) SweepIntervalDuration() time.Duration { return duration(t.SweepInterval) }
