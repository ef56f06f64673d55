package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"igcrawler/pkg/graph"
	"igcrawler/pkg/logger"
)

// SQLiteStore keeps every target's checkpoint as one row of a SQLite
// database. Saves are UPSERTs, so the latest save wins.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	logger logger.Logger
}

// OpenSQLite opens or creates <dir>/igcrawler.db
func OpenSQLite(dir string, log logger.Logger) (*SQLiteStore, error) {
	if dir == "" {
		return nil, errors.New("checkpoint directory is required")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	dbPath := filepath.Join(dir, "igcrawler.db")
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db, dbPath: dbPath, logger: log}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS graphs (
		target TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		nodes INTEGER NOT NULL,
		unresolved INTEGER NOT NULL,
		edges INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS graph_backups (
		target TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Path is the database file
func (s *SQLiteStore) Path() string { return s.dbPath }

func (s *SQLiteStore) Save(ctx context.Context, g *graph.Graph) error {
	data, err := encode(g)
	if err != nil {
		return err
	}
	stats := g.Stats()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO graphs (target, payload, nodes, unresolved, edges, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(target) DO UPDATE SET
			payload = excluded.payload,
			nodes = excluded.nodes,
			unresolved = excluded.unresolved,
			edges = excluded.edges,
			updated_at = excluded.updated_at
	`, g.Target, data, stats.Nodes, stats.Unresolved, stats.Edges, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	s.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"target": g.Target,
		"nodes":  stats.Nodes,
	})
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, target string) (*graph.Graph, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM graphs WHERE target = ?`, target).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return decode(data)
}

func (s *SQLiteStore) Backup(ctx context.Context, target string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO graph_backups (target, payload, created_at)
		SELECT target, payload, ? FROM graphs WHERE target = ?
		ON CONFLICT(target) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`, time.Now().UTC(), target)
	if err != nil {
		return fmt.Errorf("failed to back up checkpoint: %w", err)
	}
	return nil
}

// LoadBackup returns the backed up graph of target, or nil
func (s *SQLiteStore) LoadBackup(ctx context.Context, target string) (*graph.Graph, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM graph_backups WHERE target = ?`, target).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load backup: %w", err)
	}
	return decode(data)
}

func (s *SQLiteStore) Targets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT target FROM graphs ORDER BY target`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
