package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteFile = "project_health.db"

// SQLiteStore persists every recorded score in a score_history table
type SQLiteStore struct {
	db       *sql.DB
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
	now      func() time.Time
}

// NewSQLiteStore opens (or creates) the score database inside dataDir
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, sqliteFile)
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &SQLiteStore{
		db:       db,
		prepared: make(map[string]*sql.Stmt),
		now:      time.Now,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := s.initPreparedStatements(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Score database initialized", "path", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS score_history (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			score REAL NOT NULL,
			recorded_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_score_history_project ON score_history(project_id, recorded_at DESC)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) initPreparedStatements() error {
	statements := map[string]string{
		"insert_score": `INSERT INTO score_history (id, project_id, score, recorded_at) VALUES (?, ?, ?, ?)`,

		"latest_score": `SELECT score FROM score_history
			WHERE project_id = ? ORDER BY recorded_at DESC, rowid DESC LIMIT 1`,

		"score_history": `SELECT project_id, score, recorded_at FROM score_history
			WHERE project_id = ? ORDER BY recorded_at DESC, rowid DESC LIMIT ?`,
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for name, query := range statements {
		stmt, err := s.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		s.prepared[name] = stmt
	}
	return nil
}

func (s *SQLiteStore) stmt(name string) (*sql.Stmt, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stmt, ok := s.prepared[name]
	if !ok {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}
	return stmt, nil
}

// Get returns the most recent score for a project
func (s *SQLiteStore) Get(ctx context.Context, projectID string) (float64, bool, error) {
	stmt, err := s.stmt("latest_score")
	if err != nil {
		return 0, false, err
	}

	var score float64
	err = stmt.QueryRowContext(ctx, projectID).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query latest score: %w", err)
	}
	return score, true, nil
}

// Put appends a score to the project's history
func (s *SQLiteStore) Put(ctx context.Context, projectID string, score float64) error {
	if err := validScore(score); err != nil {
		return err
	}

	stmt, err := s.stmt("insert_score")
	if err != nil {
		return err
	}

	if _, err := stmt.ExecContext(ctx, uuid.NewString(), projectID, score, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

// History returns up to limit records, newest first
func (s *SQLiteStore) History(ctx context.Context, projectID string, limit int) ([]ScoreRecord, error) {
	stmt, err := s.stmt("score_history")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, projectID, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query score history: %w", err)
	}
	defer rows.Close()

	records := make([]ScoreRecord, 0)
	for rows.Next() {
		var r ScoreRecord
		if err := rows.Scan(&r.ProjectID, &r.Score, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// PoolStats returns database connection pool statistics
func (s *SQLiteStore) PoolStats() map[string]interface{} {
	stats := s.db.Stats()
	return map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration_ms": stats.WaitDuration.Milliseconds(),
	}
}

// Close closes the prepared statements and the database
func (s *SQLiteStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for name, stmt := range s.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}
	s.prepared = make(map[string]*sql.Stmt)

	return s.db.Close()
}
