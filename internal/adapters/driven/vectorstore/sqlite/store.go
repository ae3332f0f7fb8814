// Package sqlite provides a persistent vector store backed by SQLite.
// Documents are stored with their metadata as JSON and embeddings as
// little-endian float32 blobs; similarity is scored in Go.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/clinrag/clinrag-cli/internal/adapters/driven/vectorstore/sqlite/migrations"
	"github.com/clinrag/clinrag-cli/internal/core/domain"
	"github.com/clinrag/clinrag-cli/internal/core/ports/driven"
	"github.com/clinrag/clinrag-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// CollectionName identifies the single document collection.
const CollectionName = "clinical_trials"

// maxBatchSize bounds one write call against the store. Batches are
// independent: a failed batch is logged and skipped, prior batches stay.
const maxBatchSize = 100

// Store is the SQLite-backed vector store.
type Store struct {
	db       *sql.DB
	embedder driven.EmbeddingService
	dataDir  string

	// id assignment: time prefix plus an in-process sequence makes ids
	// unique and monotonically distinguishable within the collection.
	mu  sync.Mutex
	seq uint64
}

// NewStore opens (or creates) the store at the given data directory.
// If dataDir is empty, defaults to ~/.clinrag/data.
func NewStore(dataDir string, embedder driven.EmbeddingService) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".clinrag", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "trials.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:       db,
		embedder: embedder,
		dataDir:  dataDir,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
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
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
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

// nextID assigns a fresh document id.
func (s *Store) nextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("doc_%d_%06d", time.Now().UnixNano(), s.seq)
}

// Add stores the documents in bounded batches. Each batch is one
// transaction; a failed batch is logged and skipped without affecting
// the others. Returns the ids of documents actually written.
func (s *Store) Add(ctx context.Context, docs []domain.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	written := make([]string, 0, len(docs))
	var lastErr error

	for start := 0; start < len(docs); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		ids, err := s.addBatch(ctx, batch)
		if err != nil {
			logger.Warn("batch write failed (%d documents): %v", len(batch), err)
			lastErr = err
			continue
		}
		written = append(written, ids...)
	}

	if len(written) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return written, nil
}

func (s *Store) addBatch(ctx context.Context, docs []domain.Document) ([]string, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	var embeddings [][]float32
	if s.embedder != nil {
		var err error
		embeddings, err = s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding batch: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, content, metadata, embedding)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, len(docs))
	for i, doc := range docs {
		metadataJSON, err := json.Marshal(domain.CoerceMetadata(doc.Metadata))
		if err != nil {
			return nil, fmt.Errorf("marshalling metadata: %w", err)
		}

		var embeddingBlob []byte
		if embeddings != nil {
			embeddingBlob = float32SliceToBytes(embeddings[i])
		}

		ids[i] = s.nextID()
		if _, err := stmt.ExecContext(ctx, ids[i], doc.Content, string(metadataJSON), embeddingBlob); err != nil {
			return nil, fmt.Errorf("saving document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return ids, nil
}

// SimilaritySearch embeds the query and returns the k nearest documents
// by cosine similarity, optionally narrowed by an exact-equality
// metadata filter. Provider failures yield an empty result.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]any) []domain.Document {
	if k <= 0 {
		return nil
	}

	var queryVec []float32
	if query != "" && s.embedder != nil {
		var err error
		queryVec, err = s.embedder.Embed(ctx, query)
		if err != nil {
			logger.Warn("query embedding failed: %v", err)
			return nil
		}
	}

	where, args := filterClause(filter)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, metadata, embedding FROM documents
	`+where, args...)
	if err != nil {
		logger.Warn("similarity query failed: %v", err)
		return nil
	}
	defer rows.Close()

	type scored struct {
		doc   domain.Document
		score float64
	}
	var candidates []scored

	for rows.Next() {
		doc, embedding, err := scanDocument(rows)
		if err != nil {
			logger.Warn("scanning document: %v", err)
			return nil
		}
		candidates = append(candidates, scored{
			doc:   *doc,
			score: cosineSimilarity(queryVec, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		logger.Warn("iterating documents: %v", err)
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	docs := make([]domain.Document, len(candidates))
	for i, c := range candidates {
		docs[i] = c.doc
	}
	return docs
}

// GetByID is a point lookup by assigned id.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, metadata, embedding FROM documents WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying document: %w", err)
		}
		return nil, domain.ErrNotFound
	}

	doc, _, err := scanDocument(rows)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Clear irreversibly removes all documents.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	return nil
}

// Stats describes the collection.
func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents")
	if err := row.Scan(&count); err != nil {
		return domain.StoreStats{}, fmt.Errorf("counting documents: %w", err)
	}

	return domain.StoreStats{
		TotalDocuments:   count,
		CollectionName:   CollectionName,
		PersistDirectory: s.dataDir,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// filterClause renders an exact-equality metadata filter as a WHERE
// clause over json_extract, ANDed across fields. Keys are sorted for a
// deterministic statement.
func filterClause(filter map[string]any) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		conds = append(conds, "json_extract(metadata, '$.'||?) = ?")
		args = append(args, k, domain.CoerceScalar(filter[k]))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanDocument scans one document row.
func scanDocument(rows *sql.Rows) (*domain.Document, []float32, error) {
	var id, content, metadataJSON string
	var embeddingBlob []byte
	if err := rows.Scan(&id, &content, &metadataJSON, &embeddingBlob); err != nil {
		return nil, nil, fmt.Errorf("scanning document: %w", err)
	}

	metadata := make(map[string]any)
	if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}

	return &domain.Document{
		Content:  content,
		Metadata: metadata,
	}, bytesToFloat32Slice(embeddingBlob), nil
}

// cosineSimilarity scores two vectors. A nil query vector (empty query
// or no embedder) scores everything equally, which yields the arbitrary
// ranking the bulk-export path relies on.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
