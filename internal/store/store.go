// Package store persists ingested Turtle documents in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"ttlform/internal/turtle"
)

// ErrInvalidRequest marks ingest input the caller must fix (missing fields, bad Turtle).
var ErrInvalidRequest = errors.New("invalid ingest request")

// Receipt acknowledges a stored document.
type Receipt struct {
	ID          string `json:"submission_id"`
	TripleCount int    `json:"triples"`
}

// Submission is one stored document.
type Submission struct {
	ID          string
	Destination string
	Author      string
	Content     string
	TripleCount int
	CreatedAt   time.Time
}

// Store is the triple database.
type Store struct {
	db     *sql.DB
	dbPath string
	parser *turtle.Parser
	log    *zap.Logger
	mu     sync.Mutex
	now    func() time.Time
}

// Open creates or opens the database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:     db,
		dbPath: path,
		parser: turtle.NewParser(),
		log:    log,
		now:    time.Now,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Debug("store opened", zap.String("path", path))
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		destination TEXT NOT NULL,
		author TEXT NOT NULL,
		content TEXT NOT NULL,
		triple_count INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at);

	CREATE TABLE IF NOT EXISTS triples (
		graph TEXT NOT NULL,
		subject TEXT NOT NULL,
		predicate TEXT NOT NULL,
		object TEXT NOT NULL,
		submission_id TEXT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_triples_graph ON triples(graph);
	`
	_, err := s.db.Exec(schema)
	return err
}

// IngestDocument parses content and stores its triples under destination in one
// transaction.
func (s *Store) IngestDocument(ctx context.Context, content, destination, author string) (Receipt, error) {
	destination = strings.TrimSpace(destination)
	author = strings.TrimSpace(author)
	switch {
	case strings.TrimSpace(content) == "":
		return Receipt{}, fmt.Errorf("%w: content is empty", ErrInvalidRequest)
	case destination == "":
		return Receipt{}, fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	case author == "":
		return Receipt{}, fmt.Errorf("%w: author is required", ErrInvalidRequest)
	}

	triples, err := s.parser.Triples(content)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO submissions (id, destination, author, content, triple_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, destination, author, content, len(triples), s.now().UTC(),
	); err != nil {
		return Receipt{}, fmt.Errorf("failed to insert submission: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO triples (graph, subject, predicate, object, submission_id) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to prepare triple insert: %w", err)
	}
	defer stmt.Close()

	for _, tr := range triples {
		if _, err := stmt.ExecContext(ctx, destination, tr.Subject, tr.Predicate, tr.Object, id); err != nil {
			return Receipt{}, fmt.Errorf("failed to insert triple: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Receipt{}, fmt.Errorf("failed to commit: %w", err)
	}

	s.log.Info("document ingested",
		zap.String("id", id),
		zap.String("destination", destination),
		zap.String("author", author),
		zap.Int("triples", len(triples)))

	return Receipt{ID: id, TripleCount: len(triples)}, nil
}

// ListSubmissions returns the most recent submissions first.
func (s *Store) ListSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, destination, author, content, triple_count, created_at
		 FROM submissions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.Destination, &sub.Author, &sub.Content, &sub.TripleCount, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// CountTriples counts stored triples in graph, or in every graph when graph is "".
func (s *Store) CountTriples(ctx context.Context, graph string) (int, error) {
	var (
		n   int
		err error
	)
	if graph == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM triples`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM triples WHERE graph = ?`, graph).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count triples: %w", err)
	}
	return n, nil
}
