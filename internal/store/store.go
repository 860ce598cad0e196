// Package store archives extracted snapshots in SQLite. The archive is an
// optional side channel: extraction works without it, and nothing in the
// extract/patch path reads it back except the snapshots listing.
package store

import (
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/text/unicode/norm"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for extraction snapshots.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Snapshot is one archived extraction.
type Snapshot struct {
	ID          string
	SourcePath  string
	Corner      string
	Voltage     float64
	Temperature int64
	CellCount   int
	DocHash     string
	CreatedAt   time.Time
}

// Open creates or opens a SQLite archive at the given path, applying
// required pragmas and the schema. Idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; keep a single connection to
	// avoid SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// SaveSnapshot archives one extraction and returns its assigned ID.
// The document hash is computed over NFC-normalized bytes so byte-level
// encoding differences of canonically equal text hash the same.
func (s *Store) SaveSnapshot(sourcePath, corner string, voltage float64, temperature int64, cellCount int, document []byte) (string, error) {
	id := uuid.NewString()
	sum := sha256.Sum256(norm.NFC.Bytes(document))
	_, err := s.db.Exec(`
		INSERT INTO snapshots (id, source_path, corner, voltage, temperature, cell_count, doc_hash, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sourcePath, corner, voltage, temperature, cellCount,
		hex.EncodeToString(sum[:]), string(document),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return id, nil
}

// ListSnapshots returns archived snapshots, newest first.
func (s *Store) ListSnapshots() ([]Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, source_path, corner, voltage, temperature, cell_count, doc_hash, created_at
		FROM snapshots ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var created string
		if err := rows.Scan(&snap.ID, &snap.SourcePath, &snap.Corner, &snap.Voltage,
			&snap.Temperature, &snap.CellCount, &snap.DocHash, &created); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, created); err == nil {
			snap.CreatedAt = ts
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// GetDocument returns the archived interchange document for a snapshot ID.
func (s *Store) GetDocument(id string) ([]byte, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM snapshots WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return []byte(doc), nil
}
