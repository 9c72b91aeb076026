// Package sqlite provides the SQLite-backed metadata store: document
// records, their chunk sets, and the query history log.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/veridoc-labs/veridoc/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

// Store is the SQLite-based metadata store.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.DocumentStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.veridoc/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".veridoc", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// WAL mode for better concurrency between the ingest worker and
	// the query path.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Documents ====================

// CreateDocument stores a new document record.
func (s *Store) CreateDocument(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, owner, filename, format, size_bytes, status, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Owner, doc.Filename, doc.Format, doc.SizeBytes,
		string(doc.Status), string(metadataJSON), doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("creating document: %w", err)
	}
	return nil
}

// UpdateStatus persists a lifecycle status change.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateMetadata replaces a document's metadata map.
func (s *Store) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET metadata = ?, updated_at = ? WHERE id = ?
	`, string(metadataJSON), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating metadata: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating metadata: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, filename, format, size_bytes, status, metadata, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns documents for an owner, newest first.
func (s *Store) ListDocuments(ctx context.Context, owner string) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, filename, format, size_bytes, status, metadata, created_at, updated_at
		FROM documents WHERE owner = ? ORDER BY created_at DESC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document record.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanDocument(scan func(...any) error) (*domain.Document, error) {
	var doc domain.Document
	var status, metadataJSON string
	var createdAt, updatedAt sql.NullTime
	if err := scan(&doc.ID, &doc.Owner, &doc.Filename, &doc.Format, &doc.SizeBytes,
		&status, &metadataJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.Status(status)
	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}
	return &doc, nil
}

// ==================== Chunks ====================

// SaveChunks stores the chunk set for a document in one transaction.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, page, idx, text, bbox, page_span)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			page = excluded.page,
			idx = excluded.idx,
			text = excluded.text,
			bbox = excluded.bbox,
			page_span = excluded.page_span
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		bboxJSON, err := marshalNullable(chunk.BBox)
		if err != nil {
			return fmt.Errorf("marshalling bbox: %w", err)
		}
		spanJSON, err := marshalNullable(chunk.PageSpan)
		if err != nil {
			return fmt.Errorf("marshalling page span: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Page,
			chunk.Index, chunk.Text, bboxJSON, spanJSON); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// ListChunks retrieves all chunks for a document, ordered by index.
func (s *Store) ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, page, idx, text, bbox, page_span
		FROM chunks WHERE document_id = ? ORDER BY idx
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows.Scan)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// GetChunk retrieves one chunk of a document.
func (s *Store) GetChunk(ctx context.Context, documentID, chunkID string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, page, idx, text, bbox, page_span
		FROM chunks WHERE document_id = ? AND id = ?
	`, documentID, chunkID)

	chunk, err := scanChunk(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return chunk, nil
}

// DeleteChunks removes all chunks for a document.
func (s *Store) DeleteChunks(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

func scanChunk(scan func(...any) error) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var bboxJSON, spanJSON sql.NullString
	if err := scan(&chunk.ID, &chunk.DocumentID, &chunk.Page, &chunk.Index,
		&chunk.Text, &bboxJSON, &spanJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	if bboxJSON.Valid && bboxJSON.String != "" {
		if err := json.Unmarshal([]byte(bboxJSON.String), &chunk.BBox); err != nil {
			return nil, fmt.Errorf("unmarshaling bbox: %w", err)
		}
	}
	if spanJSON.Valid && spanJSON.String != "" {
		if err := json.Unmarshal([]byte(spanJSON.String), &chunk.PageSpan); err != nil {
			return nil, fmt.Errorf("unmarshaling page span: %w", err)
		}
	}
	return &chunk, nil
}

// marshalNullable renders v as JSON, or NULL when v is a nil pointer
// or empty slice.
func marshalNullable(v any) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	s := string(data)
	if s == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: s, Valid: true}, nil
}

// ==================== Query history ====================

// SaveQueryRecord appends an entry to the query history log.
func (s *Store) SaveQueryRecord(ctx context.Context, rec *domain.QueryRecord) error {
	chunkIDsJSON, err := json.Marshal(rec.ChunkIDs)
	if err != nil {
		return fmt.Errorf("marshalling chunk ids: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_history (id, owner, query, answer, chunk_ids, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Owner, rec.Query, rec.Answer, string(chunkIDsJSON), rec.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving query record: %w", err)
	}
	return nil
}

// ListQueryHistory returns the most recent queries for an owner,
// newest first.
func (s *Store) ListQueryHistory(ctx context.Context, owner string, limit int) ([]domain.QueryRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, query, answer, chunk_ids, created_at
		FROM query_history WHERE owner = ?
		ORDER BY created_at DESC, id DESC LIMIT ?
	`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []domain.QueryRecord
	for rows.Next() {
		var rec domain.QueryRecord
		var chunkIDsJSON sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Owner, &rec.Query, &rec.Answer,
			&chunkIDsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning query record: %w", err)
		}
		if chunkIDsJSON.Valid && chunkIDsJSON.String != "" && chunkIDsJSON.String != "null" {
			if err := json.Unmarshal([]byte(chunkIDsJSON.String), &rec.ChunkIDs); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk ids: %w", err)
			}
		}
		if createdAt.Valid {
			rec.CreatedAt = createdAt.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return records, nil
}
