// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/signet-project/signet/lib/assertion"
	"github.com/signet-project/signet/lib/authority"
	"github.com/signet-project/signet/lib/config"
	"github.com/signet-project/signet/lib/control"
	"github.com/signet-project/signet/lib/credential"
	"github.com/signet-project/signet/lib/registry"
	"github.com/signet-project/signet/lib/secret"
	"github.com/signet-project/signet/lib/store"
	"github.com/signet-project/signet/lib/ticket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		logLevel   string
	)
	flag.StringVar(&configPath, "config", "", "path to signet.yaml (overrides SIGNET_CONFIG)")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := registry.LoadFile(cfg.Registry.File)
	if err != nil {
		return fmt.Errorf("loading service registry: %w", err)
	}
	logger.Info("service registry loaded",
		"file", cfg.Registry.File,
		"services", len(services.Services()),
	)

	var authenticators []credential.Authenticator
	if cfg.Users.File != "" {
		users, err := credential.LoadUserFile(cfg.Users.File)
		if err != nil {
			return fmt.Errorf("loading users file: %w", err)
		}
		authenticators = append(authenticators, users)
	}
	authenticators = append(authenticators, credential.NewTrustedProxy())
	gate := credential.NewGate(authenticators, logger)

	sessions, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sessions.Close()

	builder, err := buildAssertions(cfg)
	if err != nil {
		return err
	}

	core, err := authority.New(authority.Config{
		Gate:           gate,
		Store:          sessions,
		Registry:       services,
		Builder:        builder,
		SessionPolicy:  ticket.Idle{Timeout: cfg.Tickets.SessionIdleDuration()},
		LongTermPolicy: ticket.Lifetime{Max: cfg.Tickets.LongTermLifetimeDuration()},
		AccessPolicy:   ticket.Lifetime{Max: cfg.Tickets.AccessLifetimeDuration()},
		MaxProxyDepth:  cfg.Tickets.MaxProxyDepth,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	go core.Reap(ctx, cfg.Tickets.SweepIntervalDuration())

	socket := control.NewSocketServer(cfg.Socket.Path, logger)
	registerHandlers(socket, core, sessions)

	logger.Info("signet authority starting",
		"socket", cfg.Socket.Path,
		"store", cfg.Store.Backend,
		"environment", cfg.Environment,
	)
	return socket.Serve(ctx)
}

// openStore builds the configured session store.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite":
		return store.OpenSQLite(ctx, store.SQLiteConfig{
			Path:     cfg.Store.Path,
			PoolSize: cfg.Store.PoolSize,
			Logger:   logger,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// buildAssertions builds the assertion builder, loading the pseudonym
// salt when configured. Without a salt file pseudonyms are derived
// from an empty salt, which is fine for deployments with no
// anonymous-access services.
func buildAssertions(cfg *config.Config) (*assertion.Builder, error) {
	var salt []byte
	if cfg.Anonymous.SaltFile != "" {
		buffer, err := secret.ReadFromPath(cfg.Anonymous.SaltFile)
		if err != nil {
			return nil, fmt.Errorf("loading pseudonym salt: %w", err)
		}
		defer buffer.Close()
		salt = append([]byte(nil), buffer.Bytes()...)
	}
	return &assertion.Builder{
		IDGenerator: assertion.NewPseudonymizer(salt),
		MaxChain:    cfg.Tickets.MaxProxyDepth,
	}, nil
}
