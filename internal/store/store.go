package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// schemaVersion is stamped into the metadata table on first open and checked
// on every subsequent open.
const schemaVersion = "1"

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.checkSchemaVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// checkSchemaVersion stamps the schema version on a fresh database and
// refuses to open one written by an incompatible version.
func (s *Store) checkSchemaVersion() error {
	v, err := s.GetMetadata("schema_version")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch v {
	case "":
		return s.SetMetadata("schema_version", schemaVersion)
	case schemaVersion:
		return nil
	default:
		return fmt.Errorf("database schema version %s is not supported (want %s)", v, schemaVersion)
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS papers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		page_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'uploaded',
		error TEXT NOT NULL DEFAULT '',
		uploaded_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pages (
		paper_id INTEGER NOT NULL,
		page_number INTEGER NOT NULL,
		context TEXT NOT NULL DEFAULT '',
		question_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (paper_id, page_number),
		FOREIGN KEY (paper_id) REFERENCES papers(id)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		paper_id INTEGER NOT NULL,
		page_number INTEGER NOT NULL,
		review TEXT NOT NULL DEFAULT 'pending',
		number TEXT NOT NULL,
		statement TEXT NOT NULL,
		question_type TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '[]',
		has_image INTEGER NOT NULL DEFAULT 0,
		image_description TEXT NOT NULL DEFAULT '',
		marks REAL NOT NULL DEFAULT 0,
		difficulty TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		topic TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (paper_id) REFERENCES papers(id)
	);

	CREATE TABLE IF NOT EXISTS marking_schemes (
		question_type TEXT PRIMARY KEY,
		correct_marks REAL NOT NULL DEFAULT 0,
		incorrect_marks REAL NOT NULL DEFAULT 0,
		skipped_marks REAL NOT NULL DEFAULT 0,
		partial_marks REAL NOT NULL DEFAULT 0,
		time_seconds INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'operator',
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SetMetadata upserts a key-value pair in the metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}
