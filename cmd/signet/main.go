// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/signet-project/signet/lib/control"
	"github.com/signet-project/signet/lib/secret"
)

const defaultSocketPath = "/run/signet/authority.sock"

// callTimeout bounds every control socket call. Operations are local
// map and disk work; anything slower means the daemon is wedged.
const callTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func socketPath() string {
	if path := os.Getenv("SIGNET_SOCKET"); path != "" {
		return path
	}
	return defaultSocketPath
}

// call sends one action to the daemon and decodes the response.
func call(action string, fields map[string]any, result any) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return control.NewClient(socketPath()).Call(ctx, action, fields, result)
}

func run(args []string) error {
	r := &root{commands: []*Command{
		statusCommand(),
		loginCommand(),
		logoutCommand(),
		logoutPrincipalCommand(),
		grantCommand(),
		delegateCommand(),
		validateCommand(),
	}}
	return r.execute(args)
}

func statusCommand() *Command {
	return &Command{
		Name:    "status",
		Summary: "show daemon liveness and session count",
		Usage:   "signet status",
		Run: func(args []string) error {
			var status struct {
				Sessions int `cbor:"sessions"`
			}
			if err := call("status", nil, &status); err != nil {
				return err
			}
			fmt.Printf("sessions: %d\n", status.Sessions)
			return nil
		},
	}
}

func loginCommand() *Command {
	var longTerm bool
	return &Command{
		Name:    "login",
		Summary: "authenticate and create a session",
		Usage:   "signet login <username> [--long-term]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("login", pflag.ContinueOnError)
			flagSet.BoolVar(&longTerm, "long-term", false, "request an extended-lifetime session")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: signet login <username> [--long-term]")
			}
			password, err := secret.Prompt("Password: ")
			if err != nil {
				return err
			}
			defer password.Close()

			var response struct {
				SessionID string `cbor:"session_id"`
				Principal string `cbor:"principal"`
			}
			err = call("login", map[string]any{
				"username":  args[0],
				"password":  password.Bytes(),
				"long_term": longTerm,
			}, &response)
			if err != nil {
				return err
			}
			fmt.Printf("session: %s\nprincipal: %s\n", response.SessionID, response.Principal)
			return nil
		},
	}
}

func logoutCommand() *Command {
	return &Command{
		Name:    "logout",
		Summary: "destroy a session by id",
		Usage:   "signet logout <session-id>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: signet logout <session-id>")
			}
			return printDestroyed("logout", map[string]any{"session_id": args[0]})
		},
	}
}

func logoutPrincipalCommand() *Command {
	return &Command{
		Name:    "logout-principal",
		Summary: "destroy every session of a principal",
		Usage:   "signet logout-principal <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: signet logout-principal <name>")
			}
			return printDestroyed("logout-principal", map[string]any{"principal": args[0]})
		},
	}
}

func printDestroyed(action string, fields map[string]any) error {
	var response struct {
		Destroyed []string `cbor:"destroyed"`
	}
	if err := call(action, fields, &response); err != nil {
		return err
	}
	if len(response.Destroyed) == 0 {
		fmt.Println("no sessions destroyed")
		return nil
	}
	for _, id := range response.Destroyed {
		fmt.Printf("destroyed: %s\n", id)
	}
	return nil
}

func grantCommand() *Command {
	var username string
	return &Command{
		Name:    "grant",
		Summary: "issue a service ticket from a session",
		Usage:   "signet grant <session-id> <service> [--reauth <username>]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("grant", pflag.ContinueOnError)
			flagSet.StringVar(&username, "reauth", "", "force fresh authentication as this user")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: signet grant <session-id> <service> [--reauth <username>]")
			}
			fields := map[string]any{
				"session_id": args[0],
				"service":    args[1],
			}
			if username != "" {
				password, err := secret.Prompt("Password: ")
				if err != nil {
					return err
				}
				defer password.Close()
				fields["username"] = username
				fields["password"] = password.Bytes()
			}

			var response struct {
				AccessID string `cbor:"access_id"`
			}
			if err := call("grant", fields, &response); err != nil {
				return err
			}
			fmt.Printf("access: %s\n", response.AccessID)
			return nil
		},
	}
}

func delegateCommand() *Command {
	return &Command{
		Name:    "delegate",
		Summary: "create a delegated session from a proxy-granting ticket",
		Usage:   "signet delegate <access-id> <callback-resource>",
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: signet delegate <access-id> <callback-resource>")
			}
			var response struct {
				SessionID string `cbor:"session_id"`
			}
			err := call("delegate", map[string]any{
				"access_id": args[0],
				"resource":  args[1],
			}, &response)
			if err != nil {
				return err
			}
			fmt.Printf("session: %s\n", response.SessionID)
			return nil
		},
	}
}

func validateCommand() *Command {
	return &Command{
		Name:    "validate",
		Summary: "validate a service ticket and print the assertion",
		Usage:   "signet validate <access-id> <service>",
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: signet validate <access-id> <service>")
			}
			var response struct {
				Principal    string              `cbor:"principal"`
				Attributes   map[string][]string `cbor:"attributes"`
				Service      string              `cbor:"service"`
				FromNewLogin bool                `cbor:"from_new_login"`
				Chain        []struct {
					Principal      string `cbor:"principal"`
					CredentialType string `cbor:"credential_type"`
				} `cbor:"chain"`
			}
			err := call("validate", map[string]any{
				"access_id": args[0],
				"service":   args[1],
			}, &response)
			if err != nil {
				return err
			}
			fmt.Printf("principal: %s\nservice: %s\nfrom new login: %v\n",
				response.Principal, response.Service, response.FromNewLogin)
			for name, values := range response.Attributes {
				for _, value := range values {
					fmt.Printf("attribute: %s=%s\n", name, value)
				}
			}
			for i, hop := range response.Chain {
				fmt.Printf("chain[%d]: %s (%s)\n", i, hop.Principal, hop.CredentialType)
			}
			return nil
		},
	}
}
