// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStaticFindService(t *testing.T) {
	registry := NewStatic(
		Service{ID: "https://wiki.example.org/login", Enabled: true, SSO: true},
		Service{ID: "https://admin.example.org/login", Enabled: false},
	)

	if got := registry.FindService("https://wiki.example.org/login"); got == nil || !got.Enabled {
		t.Errorf("FindService(wiki) = %+v", got)
	}
	if got := registry.FindService("https://admin.example.org/login"); got == nil || got.Enabled {
		t.Errorf("FindService(admin) = %+v, want disabled record", got)
	}
	if got := registry.FindService("https://unknown.example.org"); got != nil {
		t.Errorf("FindService(unknown) = %+v, want nil", got)
	}
}

func TestStaticReturnsCopies(t *testing.T) {
	registry := NewStatic(Service{
		ID:                "svc",
		Enabled:           true,
		AllowedAttributes: []string{"mail"},
	})

	first := registry.FindService("svc")
	first.Enabled = false
	first.AllowedAttributes[0] = "tampered"

	second := registry.FindService("svc")
	if !second.Enabled || second.AllowedAttributes[0] != "mail" {
		t.Errorf("registry record mutated through returned copy: %+v", second)
	}
}

func TestParseJSONC(t *testing.T) {
	data := []byte(`{
	  "services": [
	    {
	      // comments and trailing commas are allowed
	      "id": "https://wiki.example.org/login",
	      "name": "wiki",
	      "enabled": true,
	      "sso": true,
	      "allowed_attributes": ["mail", "displayName"],
	    },
	  ]
	}`)

	registry, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	service := registry.FindService("https://wiki.example.org/login")
	if service == nil {
		t.Fatal("parsed service not found")
	}
	if service.Name != "wiki" || !service.SSO || service.Proxy {
		t.Errorf("service = %+v", service)
	}
	if len(service.AllowedAttributes) != 2 {
		t.Errorf("AllowedAttributes = %v", service.AllowedAttributes)
	}
}

func TestParseRejections(t *testing.T) {
	cases := map[string]string{
		"missing_id": `{"services": [{"name": "x", "enabled": true}]}`,
		"duplicate":  `{"services": [{"id": "a", "enabled": true}, {"id": "a"}]}`,
		"malformed":  `{"services": [}`,
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("%s: Parse accepted invalid registry", name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.jsonc")
	if err := os.WriteFile(path, []byte(`{"services": [{"id": "svc", "enabled": true}]}`), 0o600); err != nil {
		t.Fatalf("writing registry: %v", err)
	}

	registry, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if registry.FindService("svc") == nil {
		t.Error("service missing after load")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Error("LoadFile accepted a missing file")
	}
}
