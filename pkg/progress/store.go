// Package progress records which steps a viewer visited, so a walkthrough
// can be resumed and past sessions listed.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

// ErrNoSession is returned when no matching session exists.
var ErrNoSession = errors.New("no progress session")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	last_step  TEXT NOT NULL,
	visits     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS visits (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	step       TEXT NOT NULL,
	visited_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_visits_session ON visits(session_id, id);
CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
`

// Session is one run of the walkthrough.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"startedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	LastStep  flow.Step `json:"-"`
	Visits    int       `json:"visits"`
}

// Visit is one arrival at a step.
type Visit struct {
	SessionID string
	Step      flow.Step
	At        time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is a sqlite-backed progress log.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time

	mu      sync.Mutex // guards closed and sends on queue
	closed  bool
	queue   chan queuedVisit
	drained chan struct{}
}

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("progress: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating progress directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open progress database: %w", err)
	}
	// One writer; sqlite serialises anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating progress schema: %w", err)
	}

	s := &Store{
		db:      db,
		path:    path,
		now:     time.Now,
		queue:   make(chan queuedVisit, visitQueueSize),
		drained: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.writeVisits()
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close writes any queued visits and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.drained
	return s.db.Close()
}

// Begin starts a new session at the welcome step.
func (s *Store) Begin(ctx context.Context) (Session, error) {
	return s.BeginAt(ctx, flow.StepWelcome)
}

// BeginAt starts a new session at step, recording it as the first visit.
func (s *Store) BeginAt(ctx context.Context, step flow.Step) (Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Session{}, fmt.Errorf("generating session id: %w", err)
	}
	now := s.now()
	sess := Session{ID: id.String(), StartedAt: now, UpdatedAt: now, LastStep: step, Visits: 1}

	err = s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, started_at, updated_at, last_step, visits) VALUES (?, ?, ?, ?, 1)`,
			sess.ID, now.UnixMilli(), now.UnixMilli(), step.String()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO visits (session_id, step, visited_at) VALUES (?, ?, ?)`,
			sess.ID, step.String(), now.UnixMilli())
		return err
	})
	if err != nil {
		return Session{}, fmt.Errorf("beginning session: %w", err)
	}
	return sess, nil
}

// RecordVisit logs an arrival at step and moves the session's last step.
func (s *Store) RecordVisit(ctx context.Context, sessionID string, step flow.Step) error {
	if !step.Valid() {
		return fmt.Errorf("recording visit: %w: %v", flow.ErrUnknownStep, step)
	}
	now := s.now().UnixMilli()
	err := s.tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE sessions SET last_step = ?, updated_at = ?, visits = visits + 1 WHERE id = ?`,
			step.String(), now, sessionID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrNoSession, sessionID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO visits (session_id, step, visited_at) VALUES (?, ?, ?)`,
			sessionID, step.String(), now)
		return err
	})
	if err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return nil
}

// Latest returns the most recently updated session.
func (s *Store) Latest(ctx context.Context) (*Session, error) {
	sessions, err := s.Sessions(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrNoSession
	}
	return &sessions[0], nil
}

// Sessions lists sessions, most recently updated first. A non-positive
// limit returns all of them.
func (s *Store) Sessions(ctx context.Context, limit int) ([]Session, error) {
	query := `SELECT id, started_at, updated_at, last_step, visits FROM sessions ORDER BY updated_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess             Session
			started, updated int64
			step             string
		)
		if err := rows.Scan(&sess.ID, &started, &updated, &step, &sess.Visits); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.StartedAt = time.UnixMilli(started)
		sess.UpdatedAt = time.UnixMilli(updated)
		// Steps renamed since the row was written fall back to the start.
		if parsed, err := flow.ParseStep(step); err == nil {
			sess.LastStep = parsed
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return out, nil
}

// Visits returns a session's visits in order.
func (s *Store) Visits(ctx context.Context, sessionID string) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, visited_at FROM visits WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}
	defer rows.Close()

	var out []Visit
	for rows.Next() {
		var (
			step string
			at   int64
		)
		if err := rows.Scan(&step, &at); err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		parsed, err := flow.ParseStep(step)
		if err != nil {
			continue
		}
		out = append(out, Visit{SessionID: sessionID, Step: parsed, At: time.UnixMilli(at)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}
	return out, nil
}

func (s *Store) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
