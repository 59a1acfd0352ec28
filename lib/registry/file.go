// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// LoadFile reads a JSONC service-registry file into a Static registry.
// The format is JSON extended with // line comments, /* block
// comments */, and trailing commas, so operators can annotate why a
// service is registered the way it is:
//
//	{
//	  "services": [
//	    {
//	      // Wiki trusts ambient SSO; attribute release is curated.
//	      "id": "https://wiki.example.org/login",
//	      "name": "wiki",
//	      "enabled": true,
//	      "sso": true,
//	      "proxy": false,
//	      "allowed_attributes": ["mail", "displayName"],
//	    },
//	  ]
//	}
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: reading %s: %w", path, err)
	}

	registry, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("registry: %s: %w", path, err)
	}
	return registry, nil
}

// Parse strips JSONC comments and trailing commas from data and
// unmarshals the result.
func Parse(data []byte) (*Static, error) {
	stripped := jsonc.ToJSON(data)

	var parsed struct {
		Services []Service `json:"services"`
	}
	if err := json.Unmarshal(stripped, &parsed); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}

	seen := make(map[string]bool, len(parsed.Services))
	for _, service := range parsed.Services {
		if service.ID == "" {
			return nil, fmt.Errorf("registry entry %q has no id", service.Name)
		}
		if seen[service.ID] {
			return nil, fmt.Errorf("duplicate registry entry for %q", service.ID)
		}
		seen[service.ID] = true
	}

	return NewStatic(parsed.Services...), nil
}
