// Copyright 2026 The Signet Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/signet-project/signet/lib/codec"
	"github.com/signet-project/signet/lib/sqlitepool"
	"github.com/signet-project/signet/lib/ticket"
)

// sqliteSchema is created on every connection open. Sessions are
// stored as CBOR snapshots keyed by id; the access index is relational
// so a validation request resolves its owning session in one lookup.
const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id        TEXT PRIMARY KEY,
		principal TEXT NOT NULL,
		snapshot  BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_principal ON sessions(principal);
	CREATE TABLE IF NOT EXISTS access_index (
		access_id  TEXT PRIMARY KEY,
		session_id TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_access_session ON access_index(session_id);
`

// SQLiteConfig holds the parameters for opening a durable store.
type SQLiteConfig struct {
	// Path is the SQLite database file. The parent directory must
	// exist; the file is created on first open.
	Path string

	// PoolSize is the connection pool size. Zero takes the
	// sqlitepool default.
	PoolSize int

	// Logger receives operational messages. Nil discards.
	Logger *slog.Logger
}

// SQLite is the durable Store. Live sessions are held in an embedded
// Memory store — the authority is a single process and the session
// mutex must guard one instance per id — while every mutation is
// written through to SQLite as a CBOR snapshot, so tickets survive a
// restart.
type SQLite struct {
	live   *Memory
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at cfg.Path,
// applies the schema, and loads all persisted sessions into the live
// index.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: sqlite Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, sqliteSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", cfg.Path, err)
	}

	s := &SQLite{live: NewMemory(), pool: pool, logger: logger}
	if err := s.load(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// load restores every persisted session into the live index.
func (s *SQLite) load(ctx context.Context) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: load: %w", err)
	}
	defer s.pool.Put(conn)

	var snapshots []ticket.SessionSnapshot
	err = sqlitex.Execute(conn, `SELECT snapshot FROM sessions`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			blob := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, blob)

			var snapshot ticket.SessionSnapshot
			if err := codec.Unmarshal(blob, &snapshot); err != nil {
				return fmt.Errorf("decoding session snapshot: %w", err)
			}
			snapshots = append(snapshots, snapshot)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("store: loading sessions: %w", err)
	}

	for _, snapshot := range snapshots {
		if err := s.live.CreateSession(ctx, ticket.Restore(snapshot)); err != nil {
			return fmt.Errorf("store: restoring session %s: %w", snapshot.ID, err)
		}
	}
	if len(snapshots) > 0 {
		s.logger.Info("sessions restored from disk", "count", len(snapshots))
	}
	return nil
}

// CreateSession implements Store.
func (s *SQLite) CreateSession(ctx context.Context, session *ticket.Session) error {
	if err := s.live.CreateSession(ctx, session); err != nil {
		return err
	}
	if err := s.persist(ctx, session); err != nil {
		// Roll the live index back so memory and disk agree.
		s.live.Destroy(ctx, session.ID())
		return err
	}
	return nil
}

// FindSession implements Store.
func (s *SQLite) FindSession(ctx context.Context, sessionID string) (*ticket.Session, error) {
	return s.live.FindSession(ctx, sessionID)
}

// FindByAccess implements Store.
func (s *SQLite) FindByAccess(ctx context.Context, accessID string) (*ticket.Session, error) {
	return s.live.FindByAccess(ctx, accessID)
}

// FindByPrincipal implements Store.
func (s *SQLite) FindByPrincipal(ctx context.Context, name string) ([]*ticket.Session, error) {
	return s.live.FindByPrincipal(ctx, name)
}

// Update implements Store.
func (s *SQLite) Update(ctx context.Context, session *ticket.Session) error {
	if err := s.live.Update(ctx, session); err != nil {
		return err
	}
	return s.persist(ctx, session)
}

// Destroy implements Store.
func (s *SQLite) Destroy(ctx context.Context, sessionID string) (*ticket.Session, error) {
	session, err := s.live.Destroy(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: destroy %s: %w", sessionID, err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("store: destroy %s: begin: %w", sessionID, err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn, `DELETE FROM sessions WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{sessionID},
	})
	if err != nil {
		return nil, fmt.Errorf("store: destroy %s: %w", sessionID, err)
	}
	err = sqlitex.Execute(conn, `DELETE FROM access_index WHERE session_id = ?`, &sqlitex.ExecOptions{
		Args: []any{sessionID},
	})
	if err != nil {
		return nil, fmt.Errorf("store: destroy %s: index: %w", sessionID, err)
	}
	return session, nil
}

// Sessions implements Store.
func (s *SQLite) Sessions(ctx context.Context) ([]*ticket.Session, error) {
	return s.live.Sessions(ctx)
}

// Close implements Store.
func (s *SQLite) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("store: closing pool: %w", err)
	}
	return nil
}

// persist writes the session snapshot and its access index rows in
// one transaction.
func (s *SQLite) persist(ctx context.Context, session *ticket.Session) (err error) {
	snapshot := session.Snapshot()
	blob, err := codec.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("store: encoding session %s: %w", session.ID(), err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: persist %s: %w", session.ID(), err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("store: persist %s: begin: %w", session.ID(), err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn,
		`INSERT INTO sessions (id, principal, snapshot) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot`,
		&sqlitex.ExecOptions{
			Args: []any{snapshot.ID, session.RootPrincipal().Name(), blob},
		})
	if err != nil {
		return fmt.Errorf("store: persist %s: %w", session.ID(), err)
	}

	// Rewrite the session's index rows wholesale so entries for
	// removed grants do not linger.
	err = sqlitex.Execute(conn, `DELETE FROM access_index WHERE session_id = ?`, &sqlitex.ExecOptions{
		Args: []any{snapshot.ID},
	})
	if err != nil {
		return fmt.Errorf("store: persist %s: access index: %w", session.ID(), err)
	}
	for _, access := range snapshot.Accesses {
		err = sqlitex.Execute(conn,
			`INSERT INTO access_index (access_id, session_id) VALUES (?, ?)`,
			&sqlitex.ExecOptions{
				Args: []any{access.ID, snapshot.ID},
			})
		if err != nil {
			return fmt.Errorf("store: persist %s: access index: %w", session.ID(), err)
		}
	}
	return nil
}
