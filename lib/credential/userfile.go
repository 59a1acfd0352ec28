// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/signet-project/signet/lib/principal"
)

// ErrBadPassword is the rejection returned by UserFile for a wrong
// password or unknown username. The two cases are deliberately
// indistinguishable so the failure message cannot be used to probe
// which usernames exist.
var ErrBadPassword = errors.New("credential: unknown user or wrong password")

// userFileEntry is one user record in the YAML users file.
type userFileEntry struct {
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `yaml:"password_hash"`

	// Attributes are the directory attributes released for this
	// user (filtered per service at validation time).
	Attributes map[string][]string `yaml:"attributes,omitempty"`
}

// UserFile authenticates UserPassword credentials against a YAML file
// of bcrypt password hashes. This is the reference authenticator the
// daemon ships with; production deployments substitute their own
// Authenticator implementations (LDAP, OIDC brokers) behind the same
// gate.
//
// File format:
//
//	users:
//	  alice:
//	    password_hash: "$2a$10$..."
//	    attributes:
//	      mail: [alice@example.org]
//	      group: [staff, admins]
//
// The file is read once at construction. UserFile is safe for
// concurrent use.
type UserFile struct {
	users map[string]userFileEntry
}

// LoadUserFile reads and parses a YAML users file. Every username in
// the file must pass principal.ValidateName.
func LoadUserFile(path string) (*UserFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("credential: reading users file: %w", err)
	}

	var parsed struct {
		Users map[string]userFileEntry `yaml:"users"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("credential: parsing %s: %w", path, err)
	}

	for username, entry := range parsed.Users {
		if err := principal.ValidateName(username); err != nil {
			return nil, fmt.Errorf("credential: %s: invalid username %q: %w", path, username, err)
		}
		if entry.PasswordHash == "" {
			return nil, fmt.Errorf("credential: %s: user %q has no password_hash", path, username)
		}
	}

	return &UserFile{users: parsed.Users}, nil
}

// NewUserFile builds a UserFile from an in-memory map of username to
// bcrypt hash, with no attributes. Intended for tests.
func NewUserFile(hashes map[string]string) *UserFile {
	users := make(map[string]userFileEntry, len(hashes))
	for username, hash := range hashes {
		users[username] = userFileEntry{PasswordHash: hash}
	}
	return &UserFile{users: users}
}

// Authenticate implements Authenticator for UserPassword credentials.
func (u *UserFile) Authenticate(ctx context.Context, c Credential) (principal.Principal, error) {
	userPassword, ok := c.(UserPassword)
	if !ok {
		return principal.Principal{}, ErrUnsupported
	}

	entry, known := u.users[userPassword.Username]
	if !known {
		// Burn a comparison anyway so unknown usernames take the
		// same time as wrong passwords.
		bcrypt.CompareHashAndPassword(unknownUserHash, userPassword.Password)
		return principal.Principal{}, ErrBadPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(entry.PasswordHash), userPassword.Password); err != nil {
		return principal.Principal{}, ErrBadPassword
	}

	return principal.New(userPassword.Username, entry.Attributes), nil
}

// unknownUserHash is a fixed bcrypt hash compared against for unknown
// usernames, equalizing timing with the known-user path. The hashed
// value is irrelevant; no credential ever matches it because the
// comparison result is discarded.
var unknownUserHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
