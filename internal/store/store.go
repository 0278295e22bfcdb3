package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"

	"deckrip/internal/notes"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; consumers re-extract to adopt the new schema.
const schemaVersion = 1

var (
	// ErrOutputExists is returned by Create when the database file is
	// already present and overwrite was not requested.
	ErrOutputExists = errors.New("output store already exists")
	// ErrSchemaMismatch indicates the database was written under a
	// different schema version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)

// Options controls store creation policy.
type Options struct {
	// KeepRaw populates the raw_text and raw_extra columns.
	KeepRaw bool
	// Overwrite replaces an existing database instead of failing.
	Overwrite bool
}

// Store wraps the output database connection.
type Store struct {
	db      *sql.DB
	path    string
	keepRaw bool
}

// Create initializes a fresh output database at path. An existing file is
// an error unless Overwrite is set, in which case the database (and its
// sqlite sidecar files) is removed first.
func Create(path string, opts Options) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		if !opts.Overwrite {
			return nil, fmt.Errorf("%w: %s (enable extract.overwrite to replace)", ErrOutputExists, path)
		}
		for _, p := range []string{path, path + "-wal", path + "-shm"} {
			if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("remove previous output %s: %w", p, err)
			}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat output store: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	store := &Store{db: db, path: path, keepRaw: opts.KeepRaw}
	if err := store.createSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Open connects to an existing output database for reading.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open output store: %w", err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, path: path}
	if err := store.checkSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// InsertNotes writes the cleaned records in one transaction and returns the
// number of rows written.
func (s *Store) InsertNotes(ctx context.Context, records []notes.Cleaned) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO source_notes
		(id, text, extra, num_cards, one_by_one, tags, raw_text, raw_extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		oneByOne := 0
		if rec.OneByOne {
			oneByOne = 1
		}
		rawText, rawExtra := sql.NullString{}, sql.NullString{}
		if s.keepRaw {
			rawText = sql.NullString{String: rec.RawText, Valid: true}
			rawExtra = sql.NullString{String: rec.RawExtra, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.Text, rec.Extra, rec.NumCards, oneByOne, rec.Tags,
			rawText, rawExtra,
		); err != nil {
			return 0, fmt.Errorf("insert note %d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit notes: %w", err)
	}
	return len(records), nil
}

// Stats summarizes the stored corpus.
type Stats struct {
	Notes      int   `json:"notes"`
	Cards      int   `json:"cards"`
	OneByOne   int   `json:"one_by_one"`
	WithMedia  int   `json:"with_media"`
	RawColumns bool  `json:"raw_columns"`
	MaxCards   int   `json:"max_cards"`
	MinID      int64 `json:"min_id"`
	MaxID      int64 `json:"max_id"`
}

// Stats reads aggregate counts from the store.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(num_cards), 0),
		COALESCE(SUM(one_by_one), 0),
		COALESCE(SUM(CASE WHEN text LIKE '%<img src=%' OR text LIKE '%[sound:%'
			OR extra LIKE '%<img src=%' OR extra LIKE '%[sound:%' THEN 1 ELSE 0 END), 0),
		COALESCE(MAX(num_cards), 0),
		COALESCE(MIN(id), 0),
		COALESCE(MAX(id), 0)
		FROM source_notes`)
	if err := row.Scan(&st.Notes, &st.Cards, &st.OneByOne, &st.WithMedia,
		&st.MaxCards, &st.MinID, &st.MaxID); err != nil {
		return Stats{}, fmt.Errorf("read stats: %w", err)
	}

	var rawCount int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM source_notes WHERE raw_text IS NOT NULL",
	).Scan(&rawCount); err != nil {
		return Stats{}, fmt.Errorf("read raw column count: %w", err)
	}
	st.RawColumns = rawCount > 0
	return st, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	return db, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_version (version) VALUES (?)", schemaVersion,
	); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

func (s *Store) checkSchema(ctx context.Context) error {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (re-run extraction)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}
