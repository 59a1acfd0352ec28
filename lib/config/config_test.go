// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signet.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const minimalConfig = `
registry:
  file: /etc/signet/services.jsonc
store:
  backend: memory
`

func TestLoadFileAppliesDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Socket.Path != "/run/signet/authority.sock" {
		t.Errorf("socket path = %q", cfg.Socket.Path)
	}
	if cfg.Tickets.MaxProxyDepth != 10 {
		t.Errorf("max proxy depth = %d", cfg.Tickets.MaxProxyDepth)
	}
	if got := cfg.Tickets.AccessLifetimeDuration(); got != 10*time.Second {
		t.Errorf("access lifetime = %v", got)
	}
}

func TestLoadFileEnvironmentOverrides(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
environment: production
registry:
  file: /etc/signet/services.jsonc
store:
  backend: memory
production:
  socket:
    path: /run/signet/prod.sock
  tickets:
    session_idle: 1h
    long_term_lifetime: 168h
    access_lifetime: 5s
    max_proxy_depth: 3
    sweep_interval: 30s
`))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Socket.Path != "/run/signet/prod.sock" {
		t.Errorf("socket path = %q, override not applied", cfg.Socket.Path)
	}
	if cfg.Tickets.MaxProxyDepth != 3 {
		t.Errorf("max proxy depth = %d", cfg.Tickets.MaxProxyDepth)
	}
}

func TestLoadFileExpandsHome(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
registry:
  file: ${HOME}/signet/services.jsonc
store:
  backend: sqlite
  path: $HOME/signet/sessions.db
`))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	home, _ := os.UserHomeDir()
	if !strings.HasPrefix(cfg.Registry.File, home) {
		t.Errorf("registry file = %q, ${HOME} not expanded", cfg.Registry.File)
	}
	if !strings.HasPrefix(cfg.Store.Path, home) {
		t.Errorf("store path = %q, $HOME not expanded", cfg.Store.Path)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		config string
	}{
		{"missing registry", `
store:
  backend: memory
`},
		{"unknown backend", `
registry:
  file: /etc/signet/services.jsonc
store:
  backend: postgres
`},
		{"sqlite without path", `
registry:
  file: /etc/signet/services.jsonc
store:
  backend: sqlite
  path: ""
`},
		{"bad duration", `
registry:
  file: /etc/signet/services.jsonc
store:
  backend: memory
tickets:
  session_idle: soon
  long_term_lifetime: 720h
  access_lifetime: 10s
  max_proxy_depth: 10
  sweep_interval: 1m
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadFile(writeConfig(t, tc.config)); err == nil {
				t.Error("LoadFile accepted invalid config")
			}
		})
	}
}

func TestLoadRequiresEnvVar(t *testing.T) {
	t.Setenv("SIGNET_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without SIGNET_CONFIG")
	}

	t.Setenv("SIGNET_CONFIG", writeConfig(t, minimalConfig))
	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
