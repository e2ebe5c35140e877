// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pgvector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/poiesic/canonit/core"
	"github.com/poiesic/canonit/storage"
)

// Config holds connection settings for the Postgres store.
type Config struct {
	ConnString  string
	Dimensions  int
	ChunksTable string
	TopicsTable string
}

// Store implements storage.ChunkRepository and storage.TopicRepository
// on Postgres with the pgvector extension.
type Store struct {
	pool        *pgxpool.Pool
	dims        int
	chunksTable string
	topicsTable string
	logger      *slog.Logger
}

var _ storage.ChunkRepository = (*Store)(nil)
var _ storage.TopicRepository = (*Store)(nil)

// Open connects to Postgres and ensures the vector extension, tables,
// and indexes exist.
func Open(ctx context.Context, config Config) (*Store, error) {
	if config.Dimensions <= 0 {
		return nil, fmt.Errorf("pgvector: embedding dimensions are required")
	}
	if config.ChunksTable == "" {
		config.ChunksTable = "canonit_chunks"
	}
	if config.TopicsTable == "" {
		config.TopicsTable = "canonit_topics"
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %v", storage.ErrUnavailable, err)
	}

	s := &Store{
		pool:        pool,
		dims:        config.Dimensions,
		chunksTable: config.ChunksTable,
		topicsTable: config.TopicsTable,
		logger:      slog.Default().With("component", "pgvector"),
	}

	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("%w: failed to create vector extension: %v", storage.ErrUnavailable, err)
	}

	createChunks := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			document_id BIGINT NOT NULL,
			seq INTEGER NOT NULL,
			origin SMALLINT NOT NULL,
			topic TEXT NOT NULL DEFAULT '',
			embedding vector(%d),
			record JSONB NOT NULL
		)`, s.chunksTable, s.dims)

	if _, err := s.pool.Exec(ctx, createChunks); err != nil {
		return fmt.Errorf("%w: failed to create chunks table: %v", storage.ErrUnavailable, err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		s.chunksTable, s.chunksTable)

	if _, err := s.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("%w: failed to create vector index: %v", storage.ErrUnavailable, err)
	}

	createDocIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id)`,
		s.chunksTable, s.chunksTable)

	if _, err := s.pool.Exec(ctx, createDocIndex); err != nil {
		return fmt.Errorf("%w: failed to create document index: %v", storage.ErrUnavailable, err)
	}

	createTopics := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			record JSONB NOT NULL
		)`, s.topicsTable)

	if _, err := s.pool.Exec(ctx, createTopics); err != nil {
		return fmt.Errorf("%w: failed to create topics table: %v", storage.ErrUnavailable, err)
	}

	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// UpsertChunks stores chunk records, replacing rows with the same ID.
func (s *Store) UpsertChunks(ctx context.Context, records ...*storage.ChunkRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", storage.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, seq, origin, topic, embedding, record)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			seq = EXCLUDED.seq,
			origin = EXCLUDED.origin,
			topic = EXCLUDED.topic,
			embedding = EXCLUDED.embedding,
			record = EXCLUDED.record`,
		s.chunksTable)

	for _, record := range records {
		if record.Chunk == nil {
			return fmt.Errorf("%w: chunk record has no chunk", storage.ErrInvalidQuery)
		}
		record.Chunk.InsertedAt = time.Now().UTC()

		data, err := storage.MarshalChunkRecord(record)
		if err != nil {
			return err
		}

		var embedding any
		if len(record.Chunk.Vector) > 0 {
			embedding = pgvector.NewVector(record.Chunk.Vector)
		}

		var origin int16
		var topic string
		if record.Meta != nil {
			origin = int16(record.Meta.Origin)
			topic = record.Meta.Topic
		}

		_, err = tx.Exec(ctx, stmt,
			int64(record.Chunk.Id),
			int64(record.Chunk.DocumentId),
			record.Chunk.Seq,
			origin,
			topic,
			embedding,
			data,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to upsert chunk: %v", storage.ErrUnavailable, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", storage.ErrUnavailable, err)
	}

	return nil
}

// GetChunk retrieves a single chunk record by ID.
func (s *Store) GetChunk(ctx context.Context, id core.ID) (*storage.ChunkRecord, error) {
	query := fmt.Sprintf(`SELECT record FROM %s WHERE id = $1`, s.chunksTable)

	var data []byte
	err := s.pool.QueryRow(ctx, query, int64(id)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to get chunk: %v", storage.ErrUnavailable, err)
	}

	return storage.UnmarshalChunkRecord(data)
}

// QuerySimilar returns the k chunks nearest to the query vector by cosine
// similarity, ordered by score descending with (DocumentId, Seq) breaking
// ties.
func (s *Store) QuerySimilar(ctx context.Context, vector []float32, k int, filter *storage.Filter) ([]*core.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", storage.ErrInvalidQuery)
	}

	query := fmt.Sprintf(`
		SELECT record, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE embedding IS NOT NULL`, s.chunksTable)
	args := []any{pgvector.NewVector(vector)}

	query, args = appendFilterClauses(query, args, filter)

	args = append(args, k)
	query += fmt.Sprintf(" ORDER BY embedding <=> $1, document_id, seq LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query chunks: %v", storage.ErrUnavailable, err)
	}
	defer rows.Close()

	var results []*core.ScoredChunk
	for rows.Next() {
		var data []byte
		var score float64
		if err := rows.Scan(&data, &score); err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %v", storage.ErrUnavailable, err)
		}

		record, err := storage.UnmarshalChunkRecord(data)
		if err != nil {
			return nil, err
		}
		results = append(results, &core.ScoredChunk{
			Chunk:    record.Chunk,
			Metadata: record.Meta,
			Score:    float32(score),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read rows: %v", storage.ErrUnavailable, err)
	}

	return results, nil
}

// CountChunks returns the number of stored chunks matching the filter.
func (s *Store) CountChunks(ctx context.Context, filter *storage.Filter) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE TRUE`, s.chunksTable)
	var args []any
	query, args = appendFilterClauses(query, args, filter)

	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: failed to count chunks: %v", storage.ErrUnavailable, err)
	}
	return count, nil
}

// DeleteDocumentChunks removes all chunks belonging to a document.
func (s *Store) DeleteDocumentChunks(ctx context.Context, documentId core.ID) (int, error) {
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, s.chunksTable)
	tag, err := s.pool.Exec(ctx, stmt, int64(documentId))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to delete document chunks: %v", storage.ErrUnavailable, err)
	}
	return int(tag.RowsAffected()), nil
}

// DocumentIDs returns the distinct document IDs that have stored chunks,
// in ascending order.
func (s *Store) DocumentIDs(ctx context.Context) ([]core.ID, error) {
	query := fmt.Sprintf(`SELECT DISTINCT document_id FROM %s`, s.chunksTable)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list documents: %v", storage.ErrUnavailable, err)
	}
	defer rows.Close()

	var ids []core.ID
	for rows.Next() {
		var raw int64
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %v", storage.ErrUnavailable, err)
		}
		ids = append(ids, core.ID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read rows: %v", storage.ErrUnavailable, err)
	}

	// BIGINT ordering is signed, so sort the unsigned IDs here
	slices.Sort(ids)
	return ids, nil
}

// appendFilterClauses adds WHERE clauses for the filter fields.
func appendFilterClauses(query string, args []any, filter *storage.Filter) (string, []any) {
	if filter == nil {
		return query, args
	}
	if filter.Origin != 0 {
		args = append(args, int16(filter.Origin))
		query += fmt.Sprintf(" AND origin = $%d", len(args))
	}
	if filter.DocumentId != 0 {
		args = append(args, int64(filter.DocumentId))
		query += fmt.Sprintf(" AND document_id = $%d", len(args))
	}
	if len(filter.Topics) > 0 {
		args = append(args, filter.Topics)
		query += fmt.Sprintf(" AND topic = ANY($%d)", len(args))
	}
	return query, args
}

// PutTopics stores topics, preserving InsertedAt and chunk counts of
// existing rows.
func (s *Store) PutTopics(ctx context.Context, topics ...*core.Topic) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", storage.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	selectStmt := fmt.Sprintf(`SELECT record FROM %s WHERE id = $1 FOR UPDATE`, s.topicsTable)
	upsertStmt := fmt.Sprintf(`
		INSERT INTO %s (id, name, record)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			record = EXCLUDED.record`,
		s.topicsTable)

	for _, topic := range topics {
		if topic.Id == 0 {
			topic.Id = core.IDFromContent(topic.Name)
		}

		now := time.Now().UTC()
		var data []byte
		err := tx.QueryRow(ctx, selectStmt, int64(topic.Id)).Scan(&data)
		switch {
		case err == nil:
			old, err := storage.UnmarshalTopic(data)
			if err != nil {
				return err
			}
			topic.InsertedAt = old.InsertedAt
			topic.ChunkCount = old.ChunkCount
		case errors.Is(err, pgx.ErrNoRows):
			topic.InsertedAt = now
		default:
			return fmt.Errorf("%w: failed to read topic: %v", storage.ErrUnavailable, err)
		}
		topic.UpdatedAt = now

		value, err := storage.MarshalTopic(topic)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upsertStmt, int64(topic.Id), topic.Name, value); err != nil {
			return fmt.Errorf("%w: failed to upsert topic: %v", storage.ErrUnavailable, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", storage.ErrUnavailable, err)
	}

	return nil
}

// GetTopic retrieves a single topic by ID.
func (s *Store) GetTopic(ctx context.Context, id core.ID) (*core.Topic, error) {
	query := fmt.Sprintf(`SELECT record FROM %s WHERE id = $1`, s.topicsTable)

	var data []byte
	err := s.pool.QueryRow(ctx, query, int64(id)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to get topic: %v", storage.ErrUnavailable, err)
	}

	return storage.UnmarshalTopic(data)
}

// GetTopics retrieves all topics, ordered by name.
func (s *Store) GetTopics(ctx context.Context) ([]*core.Topic, error) {
	query := fmt.Sprintf(`SELECT record FROM %s ORDER BY name`, s.topicsTable)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list topics: %v", storage.ErrUnavailable, err)
	}
	defer rows.Close()

	var results []*core.Topic
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %v", storage.ErrUnavailable, err)
		}
		topic, err := storage.UnmarshalTopic(data)
		if err != nil {
			return nil, err
		}
		results = append(results, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read rows: %v", storage.ErrUnavailable, err)
	}

	return results, nil
}

// DeleteAllTopics removes every stored topic.
func (s *Store) DeleteAllTopics(ctx context.Context) (int, error) {
	stmt := fmt.Sprintf(`DELETE FROM %s`, s.topicsTable)
	tag, err := s.pool.Exec(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to delete topics: %v", storage.ErrUnavailable, err)
	}
	return int(tag.RowsAffected()), nil
}

// IncrementChunkCount adjusts a topic's chunk count by delta. The count
// never goes below zero.
func (s *Store) IncrementChunkCount(ctx context.Context, id core.ID, delta int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", storage.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	selectStmt := fmt.Sprintf(`SELECT record FROM %s WHERE id = $1 FOR UPDATE`, s.topicsTable)

	var data []byte
	err = tx.QueryRow(ctx, selectStmt, int64(id)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("%w: failed to read topic: %v", storage.ErrUnavailable, err)
	}

	topic, err := storage.UnmarshalTopic(data)
	if err != nil {
		return err
	}

	topic.ChunkCount += delta
	if topic.ChunkCount < 0 {
		topic.ChunkCount = 0
	}
	topic.UpdatedAt = time.Now().UTC()

	value, err := storage.MarshalTopic(topic)
	if err != nil {
		return err
	}

	updateStmt := fmt.Sprintf(`UPDATE %s SET record = $2 WHERE id = $1`, s.topicsTable)
	if _, err := tx.Exec(ctx, updateStmt, int64(id), value); err != nil {
		return fmt.Errorf("%w: failed to update topic: %v", storage.ErrUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", storage.ErrUnavailable, err)
	}

	return nil
}
