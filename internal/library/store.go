// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library persists merged search results in a local SQLite
// database with a full-text index. The library is a keep-what-I-found
// store: records arrive already merged, and saving the same paper again
// replaces the stored copy.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-search/pkg/types"
)

const dbFile = "papers.db"

// Store manages the library SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the library database at dir/papers.db,
// creating the schema on first use.
func NewStore(cfg types.LibraryConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("library directory not configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL UNIQUE,
			title TEXT,
			authors TEXT,
			abstract TEXT,
			doi TEXT,
			published_date TEXT,
			pdf_url TEXT,
			url TEXT,
			source TEXT,
			categories TEXT,
			keywords TEXT,
			citations INTEGER,
			extra TEXT,
			saved_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_doi ON papers(doi)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, authors, keywords, content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, abstract, authors, keywords)
				VALUES (new.rowid, new.title, new.abstract, new.authors, new.keywords);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract, authors, keywords)
				VALUES('delete', old.rowid, old.title, old.abstract, old.authors, old.keywords);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract, authors, keywords)
				VALUES('delete', old.rowid, old.title, old.abstract, old.authors, old.keywords);
				INSERT INTO papers_fts(rowid, title, abstract, authors, keywords)
				VALUES (new.rowid, new.title, new.abstract, new.authors, new.keywords);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveSummary holds counts from a save run.
type SaveSummary struct {
	Added   int
	Updated int
	Skipped int
}

// Save upserts merged records into the library. Records without a
// paper_id, title, or DOI cannot be addressed later and are skipped.
func (s *Store) Save(ctx context.Context, papers []types.Paper) (SaveSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SaveSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (paper_id, title, authors, abstract, doi, published_date,
			pdf_url, url, source, categories, keywords, citations, extra, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET
			title=excluded.title, authors=excluded.authors, abstract=excluded.abstract,
			doi=excluded.doi, published_date=excluded.published_date,
			pdf_url=excluded.pdf_url, url=excluded.url, source=excluded.source,
			categories=excluded.categories, keywords=excluded.keywords,
			citations=excluded.citations, extra=excluded.extra, saved_at=excluded.saved_at`)
	if err != nil {
		return SaveSummary{}, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	var summary SaveSummary

	for _, p := range papers {
		id := storageID(p)
		if id == "" {
			summary.Skipped++
			continue
		}

		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM papers WHERE paper_id = ?`, id,
		).Scan(&exists); err != nil {
			return summary, fmt.Errorf("checking paper %s: %w", id, err)
		}

		authorsJSON, _ := json.Marshal(p.Authors)
		categoriesJSON, _ := json.Marshal(p.Categories)
		keywordsJSON, _ := json.Marshal(p.Keywords)
		extraJSON, _ := json.Marshal(p.Extra)

		dateStr := ""
		if !p.PublishedDate.IsZero() {
			dateStr = p.PublishedDate.Format(time.RFC3339)
		}

		if _, err := stmt.ExecContext(ctx,
			id, p.Title, string(authorsJSON), p.Abstract, p.DOI, dateStr,
			p.PDFURL, p.URL, p.Source, string(categoriesJSON), string(keywordsJSON),
			p.Citations, string(extraJSON), now,
		); err != nil {
			return summary, fmt.Errorf("upserting paper %s: %w", id, err)
		}

		if exists > 0 {
			summary.Updated++
		} else {
			summary.Added++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing: %w", err)
	}
	return summary, nil
}

// storageID picks the key a record is stored under. Merged records carry
// the earliest member's paper_id; a DOI or title stands in when the
// backends supplied none.
func storageID(p types.Paper) string {
	if p.PaperID != "" {
		return p.PaperID
	}
	if p.DOI != "" {
		return p.DOI
	}
	return p.Title
}

// QueryOptions holds parameters for library queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string. Empty lists most
	// recently saved papers.
	Query string

	// Source filters by the stored source field (substring match, so a
	// composite "arxiv,openalex" matches "arxiv").
	Source string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Query searches the library. Full-text queries are ranked by FTS5
// relevance; otherwise results are ordered by save time, newest first.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]types.Paper, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.paper_id, p.title, p.authors, p.abstract, p.doi, p.published_date,
				p.pdf_url, p.url, p.source, p.categories, p.keywords, p.citations, p.extra
			FROM papers_fts
			JOIN papers p ON p.rowid = papers_fts.rowid
			WHERE papers_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT p.paper_id, p.title, p.authors, p.abstract, p.doi, p.published_date,
				p.pdf_url, p.url, p.source, p.categories, p.keywords, p.citations, p.extra
			FROM papers p
			WHERE 1=1`)
	}

	if opts.Source != "" {
		qb.WriteString(` AND instr(p.source, ?) > 0`)
		args = append(args, opts.Source)
	}

	if useFTS {
		qb.WriteString(` ORDER BY papers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.saved_at DESC, p.rowid DESC`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying library: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// Count returns the number of papers in the library.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// Remove deletes a paper by its storage ID. It reports whether a row was
// removed.
func (s *Store) Remove(ctx context.Context, paperID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM papers WHERE paper_id = ?`, paperID)
	if err != nil {
		return false, fmt.Errorf("deleting paper %s: %w", paperID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking delete result: %w", err)
	}
	return n > 0, nil
}

func scanPaper(rows *sql.Rows) (types.Paper, error) {
	var (
		p              types.Paper
		authorsJSON    sql.NullString
		categoriesJSON sql.NullString
		keywordsJSON   sql.NullString
		extraJSON      sql.NullString
		dateStr        sql.NullString
	)

	if err := rows.Scan(
		&p.PaperID, &p.Title, &authorsJSON, &p.Abstract, &p.DOI, &dateStr,
		&p.PDFURL, &p.URL, &p.Source, &categoriesJSON, &keywordsJSON,
		&p.Citations, &extraJSON,
	); err != nil {
		return types.Paper{}, fmt.Errorf("scanning row: %w", err)
	}

	if authorsJSON.Valid {
		json.Unmarshal([]byte(authorsJSON.String), &p.Authors)
	}
	if categoriesJSON.Valid {
		json.Unmarshal([]byte(categoriesJSON.String), &p.Categories)
	}
	if keywordsJSON.Valid {
		json.Unmarshal([]byte(keywordsJSON.String), &p.Keywords)
	}
	if extraJSON.Valid && extraJSON.String != "null" {
		json.Unmarshal([]byte(extraJSON.String), &p.Extra)
	}
	if dateStr.Valid && dateStr.String != "" {
		if t, err := time.Parse(time.RFC3339, dateStr.String); err == nil {
			p.PublishedDate = t
		}
	}

	return p, nil
}
