package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	_ "github.com/glebarez/go-sqlite"
)

// ErrEmptySummary is returned when asked to cache an empty summary.
var ErrEmptySummary = errors.New("refusing to cache an empty summary")

// HistoryStore keeps successful summaries keyed by document hash, plus a
// log of every run.
type HistoryStore struct {
	DB *sql.DB
}

func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS summaries (
			hash TEXT PRIMARY KEY,
			filename TEXT,
			title TEXT,
			num_pages INTEGER,
			summary TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT,
			reference TEXT,
			hash TEXT,
			status TEXT,
			error TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate %s: %w", dbPath, err)
		}
	}

	return &HistoryStore{DB: db}, nil
}

func (h *HistoryStore) Close() error {
	return h.DB.Close()
}

// HashDocument returns the hex SHA-256 of a document's bytes.
func HashDocument(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GetSummary looks up a cached summary. The bool is false on a miss.
func (h *HistoryStore) GetSummary(hash string) (*Summary, bool, error) {
	query := `SELECT hash, filename, title, num_pages, summary, created_at FROM summaries WHERE hash = ?`
	var s Summary
	err := h.DB.QueryRow(query, hash).Scan(&s.Hash, &s.Filename, &s.Title, &s.NumPages, &s.Text, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

// PutSummary caches a successful summary. Failed runs must never reach
// here; an empty summary is rejected.
func (h *HistoryStore) PutSummary(s Summary) error {
	if strings.TrimSpace(s.Text) == "" {
		return ErrEmptySummary
	}
	query := `INSERT INTO summaries (hash, filename, title, num_pages, summary) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET filename = excluded.filename, title = excluded.title,
			num_pages = excluded.num_pages, summary = excluded.summary`
	_, err := h.DB.Exec(query, s.Hash, s.Filename, s.Title, s.NumPages, s.Text)
	return err
}

// RecordRun appends a run to the history.
func (h *HistoryStore) RecordRun(r Run) error {
	query := `INSERT INTO runs (source, reference, hash, status, error) VALUES (?, ?, ?, ?, ?)`
	_, err := h.DB.Exec(query, r.Source, r.Reference, r.Hash, r.Status, r.Error)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (h *HistoryStore) RecentRuns(limit int) ([]Run, error) {
	query := `SELECT id, source, reference, hash, status, error, created_at FROM runs ORDER BY id DESC LIMIT ?`
	rows, err := h.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var hash, errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.Source, &r.Reference, &hash, &r.Status, &errMsg, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Hash = hash.String
		r.Error = errMsg.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
