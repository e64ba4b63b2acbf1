package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gitgauge/gitgauge/internal/interfaces"
	"github.com/gitgauge/gitgauge/internal/logging"
	"github.com/gitgauge/gitgauge/internal/model"
	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
PRAGMA journal_mode = WAL;
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS scans (
	id          TEXT PRIMARY KEY,
	repo_url    TEXT NOT NULL,
	commit_hash TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	doc         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scans_cache
	ON scans (repo_url, commit_hash, status);

CREATE TABLE IF NOT EXISTS quota_windows (
	identifier TEXT PRIMARY KEY,
	doc        TEXT NOT NULL
);
`

// SQLiteStore implements ScanStore and QuotaStore on a single SQLite file.
// Record bodies are stored as JSON documents; the identity columns exist to
// index the cache-hit query.
type SQLiteStore struct {
	db     *sql.DB
	hub    *watchHub
	logger logging.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path and applies
// the schema.
func NewSQLiteStore(path string, logger logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		return nil, errors.New("store: nil logger provided")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("sqlite store initialized", logging.Field{Key: "path", Value: path})
	return &SQLiteStore{db: db, hub: newWatchHub(), logger: logger}, nil
}

func (s *SQLiteStore) CreateScan(ctx context.Context, rec *model.ScanRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal scan record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, repo_url, commit_hash, status, created_at, doc) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RepoURL, rec.CommitHash, string(rec.Status), rec.CreatedAt.UTC().Format(time.RFC3339Nano), string(doc))
	if err != nil {
		return fmt.Errorf("insert scan %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetScan(ctx context.Context, id string) (*model.ScanRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM scans WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query scan %s: %w", id, err)
	}
	return decodeScan(doc)
}

// UpdateScan runs mutate inside a transaction so the read-modify-write is
// atomic with respect to other writers on the same record.
func (s *SQLiteStore) UpdateScan(ctx context.Context, id string, mutate func(*model.ScanRecord)) (*model.ScanRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var doc string
	err = tx.QueryRowContext(ctx, `SELECT doc FROM scans WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query scan %s: %w", id, err)
	}

	rec, err := decodeScan(doc)
	if err != nil {
		return nil, err
	}
	mutate(rec)

	updated, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal scan record: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE scans SET status = ?, commit_hash = ?, doc = ? WHERE id = ?`,
		string(rec.Status), rec.CommitHash, string(updated), id); err != nil {
		return nil, fmt.Errorf("update scan %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.hub.notify(*rec)
	return rec, nil
}

func (s *SQLiteStore) DeleteScan(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete scan %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) FindSucceededScan(ctx context.Context, repoURL, commitHash string) (*model.ScanRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM scans WHERE repo_url = ? AND commit_hash = ? AND status = ? ORDER BY created_at DESC LIMIT 1`,
		repoURL, commitHash, string(model.ScanSucceeded)).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cache hit: %w", err)
	}
	return decodeScan(doc)
}

func (s *SQLiteStore) WatchScan(_ context.Context, id string) (<-chan model.ScanRecord, func(), error) {
	ch, cancel := s.hub.subscribe(id)
	return ch, cancel, nil
}

func (s *SQLiteStore) GetQuotaWindow(ctx context.Context, identifier string) (*model.QuotaWindow, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM quota_windows WHERE identifier = ?`, identifier).Scan(&doc)
	if err == sql.ErrNoRows {
		return &model.QuotaWindow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query quota window: %w", err)
	}
	var w model.QuotaWindow
	if err := json.Unmarshal([]byte(doc), &w); err != nil {
		return nil, fmt.Errorf("decode quota window: %w", err)
	}
	return &w, nil
}

func (s *SQLiteStore) PutQuotaWindow(ctx context.Context, identifier string, w *model.QuotaWindow) error {
	doc, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal quota window: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quota_windows (identifier, doc) VALUES (?, ?)
		 ON CONFLICT(identifier) DO UPDATE SET doc = excluded.doc`,
		identifier, string(doc))
	if err != nil {
		return fmt.Errorf("upsert quota window: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteQuotaWindow(ctx context.Context, identifier string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM quota_windows WHERE identifier = ?`, identifier); err != nil {
		return fmt.Errorf("delete quota window: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.hub.closeAll()
	return s.db.Close()
}

func decodeScan(doc string) (*model.ScanRecord, error) {
	var rec model.ScanRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, fmt.Errorf("decode scan record: %w", err)
	}
	return &rec, nil
}

var (
	_ interfaces.ScanStore  = (*SQLiteStore)(nil)
	_ interfaces.QuotaStore = (*SQLiteStore)(nil)
)
