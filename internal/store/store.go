// Package store is the SQLite-backed translation memory. It caches single
// hops (text, source language, target language, service) so re-running a
// chain over the same text does not call the backend again. Entries made by
// one service are never served for another.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

// SchemaVersion is stored in the metadata table. Opening a database written
// by a newer version fails instead of guessing at its layout.
const SchemaVersion = 2

var ErrNotFound = errors.New("memory entry not found")

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath, creating parent
// directories as needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

const hopMemoryTable = `
	CREATE TABLE IF NOT EXISTS hop_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		service TEXT NOT NULL DEFAULT '',
		usage_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		last_used INTEGER NOT NULL,
		UNIQUE(source_text, source_lang, target_lang, service)
	);

	CREATE INDEX IF NOT EXISTS idx_hop_memory_last_used ON hop_memory(last_used);
	`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		return err
	}

	var raw string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = 'schema_version'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec(hopMemoryTable); err != nil {
			return err
		}
		_, err = s.db.Exec(`INSERT INTO metadata (key, value) VALUES ('schema_version', ?)`, strconv.Itoa(SchemaVersion))
		return err
	}
	if err != nil {
		return err
	}

	version, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid schema version %q", raw)
	}
	switch {
	case version > SchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
	case version == 1:
		return s.migrateV1()
	}
	_, err = s.db.Exec(hopMemoryTable)
	return err
}

// migrateV1 rebuilds hop_memory with the service in its unique key.
func (s *Store) migrateV1() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	steps := []string{
		`DROP INDEX IF EXISTS idx_hop_memory_last_used`,
		`ALTER TABLE hop_memory RENAME TO hop_memory_v1`,
		hopMemoryTable,
		`INSERT INTO hop_memory (id, source_text, source_lang, target_lang, translated_text, service, usage_count, created_at, last_used)
			SELECT id, source_text, source_lang, target_lang, translated_text, service, usage_count, created_at, last_used FROM hop_memory_v1`,
		`DROP TABLE hop_memory_v1`,
	}
	for _, step := range steps {
		if _, err := tx.Exec(step); err != nil {
			return fmt.Errorf("migrate schema v1: %w", err)
		}
	}
	if _, err := tx.Exec(`UPDATE metadata SET value = ? WHERE key = 'schema_version'`, strconv.Itoa(SchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Lookup returns the translation service made of text for the language pair
// and bumps its usage counter.
func (s *Store) Lookup(ctx context.Context, text, sourceLang, targetLang, service string) (string, bool, error) {
	key := normalizeText(text)

	var id, translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, translated_text FROM hop_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ? AND service = ?`,
		key, sourceLang, targetLang, service).Scan(&id, &translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE hop_memory SET usage_count = usage_count + 1, last_used = ? WHERE id = ?`,
		time.Now().UnixMilli(), id)
	return translated, true, err
}

// Save stores or replaces the translation service made of text for the
// language pair.
func (s *Store) Save(ctx context.Context, text, sourceLang, targetLang, translated, service string) error {
	now := time.Now().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hop_memory (id, source_text, source_lang, target_lang, translated_text, service, usage_count, created_at, last_used)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(source_text, source_lang, target_lang, service) DO UPDATE SET
			translated_text = excluded.translated_text,
			last_used = excluded.last_used`,
		uuid.NewString(), normalizeText(text), sourceLang, targetLang, translated, service, now, now)
	return err
}

// Entry is a row of the hop memory.
type Entry struct {
	ID         string
	SourceText string
	SourceLang string
	TargetLang string
	Translated string
	Service    string
	UsageCount int
	CreatedAt  time.Time
	LastUsed   time.Time
}

// Stats summarises hop memory usage.
type Stats struct {
	Entries    int
	TotalHits  int
	Services   map[string]int
	OldestUsed time.Time
	NewestUsed time.Time
}

// List returns entries ordered by most recently used. A positive limit caps
// the number of rows.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, source_text, source_lang, target_lang, translated_text, service, usage_count, created_at, last_used
		FROM hop_memory ORDER BY last_used DESC, id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created, used int64
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.Translated, &e.Service, &e.UsageCount, &created, &used); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(created)
		e.LastUsed = time.UnixMilli(used)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Services: make(map[string]int)}

	var oldest, newest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(usage_count), 0), MIN(last_used), MAX(last_used) FROM hop_memory`).
		Scan(&stats.Entries, &stats.TotalHits, &oldest, &newest)
	if err != nil {
		return nil, err
	}
	if oldest.Valid {
		stats.OldestUsed = time.UnixMilli(oldest.Int64)
	}
	if newest.Valid {
		stats.NewestUsed = time.UnixMilli(newest.Int64)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT service, COUNT(*) FROM hop_memory GROUP BY service`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var service string
		var n int
		if err := rows.Scan(&service, &n); err != nil {
			return nil, err
		}
		stats.Services[service] = n
	}
	return stats, rows.Err()
}

// Delete removes one entry by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hop_memory WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Clear removes every entry and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hop_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Prune removes entries not used since before and returns how many were
// deleted.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hop_memory WHERE last_used < ?`, before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
