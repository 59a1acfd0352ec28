// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package principal

import (
	"fmt"
	"sort"
)

// Principal is a resolved identity: a name plus released attributes.
// Attribute values are multi-valued (a directory can release several
// mail aliases or group memberships under one name).
//
// A Principal is immutable once resolved. The constructor and all
// accessors copy, so no caller can mutate an identity that a session
// has already recorded.
type Principal struct {
	name       string
	attributes map[string][]string
}

// New returns a Principal with the given name and attributes. The
// attribute map and its value slices are deep-copied.
func New(name string, attributes map[string][]string) Principal {
	return Principal{
		name:       name,
		attributes: copyAttributes(attributes),
	}
}

// Name returns the principal's identity name.
func (p Principal) Name() string { return p.name }

// Attributes returns a deep copy of the principal's attribute map.
func (p Principal) Attributes() map[string][]string {
	return copyAttributes(p.attributes)
}

// Attribute returns the values released under the given attribute
// name, or nil if the attribute is absent.
func (p Principal) Attribute(name string) []string {
	values, ok := p.attributes[name]
	if !ok {
		return nil
	}
	return append([]string(nil), values...)
}

// AttributeNames returns the sorted attribute names present on the
// principal.
func (p Principal) AttributeNames() []string {
	names := make([]string, 0, len(p.attributes))
	for name := range p.attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithName returns a copy of the principal carrying a different name
// but the same attributes. Used when a service is configured for
// anonymous access and receives a pseudonymous id in place of the real
// identity.
func (p Principal) WithName(name string) Principal {
	return Principal{
		name:       name,
		attributes: copyAttributes(p.attributes),
	}
}

// Filter returns a copy of the principal whose attributes are reduced
// to the allowed names. Attributes the principal does not carry are
// silently skipped; filtering never invents values.
func (p Principal) Filter(allowed []string) Principal {
	filtered := make(map[string][]string, len(allowed))
	for _, name := range allowed {
		if values, ok := p.attributes[name]; ok {
			filtered[name] = append([]string(nil), values...)
		}
	}
	return Principal{name: p.name, attributes: filtered}
}

// String returns the principal's name. Attributes are deliberately
// omitted: principals end up in log lines, and released attributes may
// be sensitive.
func (p Principal) String() string { return p.name }

func copyAttributes(attributes map[string][]string) map[string][]string {
	if len(attributes) == 0 {
		return map[string][]string{}
	}
	copied := make(map[string][]string, len(attributes))
	for name, values := range attributes {
		copied[name] = append([]string(nil), values...)
	}
	return copied
}

// MaxNameLength bounds principal names. Names flow into log lines,
// store keys, and pseudonymous id derivation; an unbounded name is a
// storage and log-injection hazard.
const MaxNameLength = 255

// allowedNameChars is the charset permitted in principal names:
// a-z, A-Z, 0-9, and the symbols . _ @ - +. Checked via a lookup
// table for O(1) per-character validation.
var allowedNameChars [256]bool

func init() {
	for c := 'a'; c <= 'z'; c++ {
		allowedNameChars[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		allowedNameChars[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		allowedNameChars[c] = true
	}
	allowedNameChars['.'] = true
	allowedNameChars['_'] = true
	allowedNameChars['@'] = true
	allowedNameChars['-'] = true
	allowedNameChars['+'] = true
}

// ValidateName checks that a principal name is non-empty, within
// MaxNameLength, uses only the allowed charset, and does not start
// with a separator character.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("principal name is empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("principal name exceeds %d characters: %d", MaxNameLength, len(name))
	}
	for i := 0; i < len(name); i++ {
		if !allowedNameChars[name[i]] {
			return fmt.Errorf("principal name contains invalid character %q at position %d", name[i], i)
		}
	}
	switch name[0] {
	case '.', '-', '@', '+', '_':
		return fmt.Errorf("principal name starts with separator %q", name[0])
	}
	return nil
}
