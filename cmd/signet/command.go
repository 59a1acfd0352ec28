// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command represents a CLI command.
type Command struct {
	// Name is the command name as typed by the user.
	Name string

	// Summary is a one-line description shown in the help listing.
	Summary string

	// Usage is the usage string (e.g., "signet grant <session-id> <service>").
	Usage string

	// Flags returns a configured *pflag.FlagSet for this command.
	// Called lazily on first use. If nil, the command accepts no
	// flags.
	Flags func() *pflag.FlagSet

	// Run executes the command with the remaining args after flag
	// parsing.
	Run func(args []string) error
}

// root dispatches to the named subcommand.
type root struct {
	commands []*Command
}

func (r *root) execute(args []string) error {
	if len(args) == 0 || isHelpFlag(args[0]) {
		r.printHelp(os.Stderr)
		if len(args) == 0 {
			return fmt.Errorf("subcommand required")
		}
		return nil
	}

	name := args[0]
	for _, command := range r.commands {
		if command.Name != name {
			continue
		}
		rest := args[1:]
		if len(rest) > 0 && isHelpFlag(rest[0]) {
			fmt.Fprintf(os.Stderr, "Usage: %s\n\n%s\n", command.Usage, command.Summary)
			if command.Flags != nil {
				fmt.Fprintf(os.Stderr, "\nFlags:\n%s", command.Flags().FlagUsages())
			}
			return nil
		}
		if command.Flags != nil {
			flagSet := command.Flags()
			flagSet.SetOutput(io.Discard)
			if err := flagSet.Parse(rest); err != nil {
				return fmt.Errorf("%s\n\nRun 'signet %s --help' for usage.", err, command.Name)
			}
			rest = flagSet.Args()
			return command.Run(rest)
		}
		return command.Run(rest)
	}
	return fmt.Errorf("unknown command %q\n\nRun 'signet --help' for usage.", name)
}

func (r *root) printHelp(w io.Writer) {
	fmt.Fprintf(w, "signet controls a running signet-authority daemon.\n\n")
	fmt.Fprintf(w, "Usage: signet <command> [flags]\n\nCommands:\n")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, command := range r.commands {
		fmt.Fprintf(tw, "  %s\t%s\n", command.Name, command.Summary)
	}
	tw.Flush()
	fmt.Fprintf(w, "\nThe daemon socket is %s, or set SIGNET_SOCKET.\n", defaultSocketPath)
}

func isHelpFlag(arg string) bool {
	switch strings.TrimLeft(arg, "-") {
	case "help", "h":
		return strings.HasPrefix(arg, "-")
	}
	return arg == "help"
}
