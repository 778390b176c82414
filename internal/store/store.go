// Package store implements the semantic store on Postgres with pgvector:
// chunked text plus embeddings plus metadata, similarity-queried with the
// cosine distance operator.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	_ "github.com/lib/pq"

	"github.com/arash-fz/docent/internal/rag/core"
	"github.com/arash-fz/docent/utils"
)

// DefaultEmbeddingDimensions is the expected length of vectors stored in
// the pgvector column.
const DefaultEmbeddingDimensions = 1536

const embedBatchSize = 32

// Embedder turns texts into vectors.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

type Store struct {
	DB       *sql.DB
	embedder Embedder
	dims     int
	logger   *log.Logger
}

// NewWithDSN opens the database and verifies connectivity. Connection or
// ping failures are construction-time configuration errors.
func NewWithDSN(ctx context.Context, dsn string, embedder Embedder, dims int, logger *log.Logger) (*Store, error) {
	if embedder == nil {
		return nil, errors.New("store requires an embedder")
	}
	if dims <= 0 {
		dims = DefaultEmbeddingDimensions
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[STORE] ", log.LstdFlags)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db, embedder: embedder, dims: dims, logger: logger}, nil
}

// Insert embeds the texts and stores one row per chunk. ids and metadata
// must be parallel to texts; the source_type metadata key lands in its own
// column so whole categories can be cleared. The named return carries the
// deferred commit error: callers register provenance only on a nil return,
// so a failed commit must not look like success.
func (s *Store) Insert(ctx context.Context, texts []string, ids []string, metadata []map[string]interface{}) (err error) {
	if len(texts) == 0 {
		return nil
	}
	if len(ids) != len(texts) || len(metadata) != len(texts) {
		return fmt.Errorf("texts/ids/metadata length mismatch (%d/%d/%d)", len(texts), len(ids), len(metadata))
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		vecs, err := s.embedder.CreateEmbedding(ctx, batch)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("embed chunks: expected %d vectors, got %d", len(batch), len(vecs))
		}
		vectors = append(vectors, vecs...)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO chunks (id, text, source_type, embedding, metadata, created_at)
VALUES ($1,$2,$3,$4::vector,$5,NOW())
ON CONFLICT (id) DO NOTHING;
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, text := range texts {
		if len(vectors[i]) != s.dims {
			s.logger.Printf("warn: embedding dimensions mismatch (got %d want %d)", len(vectors[i]), s.dims)
		}
		vectorLiteral, verr := encodeVectorLiteral(vectors[i])
		if verr != nil {
			err = verr
			return err
		}
		meta := metadata[i]
		if meta == nil {
			meta = map[string]interface{}{}
		}
		metaBytes, merr := json.Marshal(meta)
		if merr != nil {
			err = fmt.Errorf("marshal metadata: %w", merr)
			return err
		}
		sourceType := utils.Str(meta["source_type"])
		if sourceType == "" {
			sourceType = core.SourceTypeManual
		}
		if _, err = stmt.ExecContext(ctx, ids[i], text, sourceType, vectorLiteral, metaBytes); err != nil {
			return err
		}
	}
	return nil
}

// Query embeds the text and returns the k closest chunks in rank order.
// Score is cosine similarity (1 - distance).
func (s *Store) Query(ctx context.Context, text string, k int) ([]core.RetrievedChunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("query text must not be empty")
	}
	if k <= 0 {
		k = 5
	}
	vecs, err := s.embedder.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, errors.New("embed query: provider returned no vectors")
	}
	vecLiteral, err := encodeVectorLiteral(vecs[0])
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
SELECT text, source_type, metadata, 1 - (embedding <=> $1::vector) AS score
FROM chunks
ORDER BY embedding <=> $1::vector
LIMIT $2
`, vecLiteral, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []core.RetrievedChunk
	for rows.Next() {
		var (
			chunk     core.RetrievedChunk
			metaBytes []byte
		)
		if err := rows.Scan(&chunk.Text, &chunk.SourceType, &metaBytes, &chunk.Score); err != nil {
			return nil, err
		}
		if len(metaBytes) > 0 {
			_ = json.Unmarshal(metaBytes, &chunk.Metadata)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// DeleteBySourceType removes every chunk of one source category.
func (s *Store) DeleteBySourceType(ctx context.Context, sourceType string) error {
	if strings.TrimSpace(sourceType) == "" {
		return errors.New("source_type required")
	}
	_, err := s.DB.ExecContext(ctx, `DELETE FROM chunks WHERE source_type=$1`, sourceType)
	return err
}

func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", errors.New("vector must not be empty")
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

var _ core.VectorStore = (*Store)(nil)
