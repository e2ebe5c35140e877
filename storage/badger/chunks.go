package badger

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/canonit/core"
	"github.com/poiesic/canonit/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// UpsertChunks stores one or more chunk records, replacing any existing
// record with the same chunk ID.
func (r *ChunkRepository) UpsertChunks(ctx context.Context, records ...*storage.ChunkRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.Chunk == nil {
				return fmt.Errorf("%w: chunk record has no chunk", storage.ErrInvalidQuery)
			}
			record.Chunk.InsertedAt = time.Now().UTC()

			// Store primary record
			key := makeChunkKey(record.Chunk.Id)
			value, err := storage.MarshalChunkRecord(record)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update document index
			docKey := makeChunkDocKey(record.Chunk.DocumentId, record.Chunk.Id)
			if err := tx.Set(docKey, storage.MarshalID(record.Chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunk retrieves a single chunk record by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*storage.ChunkRecord, error) {
	var result *storage.ChunkRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(id)
		var err error
		result, err = readChunkRecord(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// QuerySimilar returns the k chunks most similar to the query vector,
// ordered by cosine similarity descending. Ties are broken by
// (DocumentId, Seq) ascending so results are deterministic.
func (r *ChunkRepository) QuerySimilar(ctx context.Context, vector []float32, k int, filter *storage.Filter) ([]*core.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", storage.ErrInvalidQuery)
	}

	var results []*core.ScoredChunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			key := item.Key()

			// Skip document index keys
			if bytes.HasPrefix(key, []byte(chunkDocPrefix+":")) {
				continue
			}

			var record *storage.ChunkRecord
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalChunkRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil || record.Chunk == nil {
				continue
			}

			// Skip records without embeddings
			if len(record.Chunk.Vector) == 0 {
				continue
			}

			if !filter.Matches(record.Meta) {
				continue
			}

			score := core.Cosine(vector, record.Chunk.Vector)
			results = append(results, &core.ScoredChunk{
				Chunk:    record.Chunk,
				Metadata: record.Meta,
				Score:    score,
			})
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, compareScoredChunks)

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// compareScoredChunks orders by score descending, then by
// (DocumentId, Seq) ascending.
func compareScoredChunks(a, b *core.ScoredChunk) int {
	if a.Score > b.Score {
		return -1
	}
	if a.Score < b.Score {
		return 1
	}
	if a.Chunk.DocumentId != b.Chunk.DocumentId {
		if a.Chunk.DocumentId < b.Chunk.DocumentId {
			return -1
		}
		return 1
	}
	return a.Chunk.Seq - b.Chunk.Seq
}

// CountChunks returns the number of stored chunks matching the filter.
func (r *ChunkRepository) CountChunks(ctx context.Context, filter *storage.Filter) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		if filter == nil {
			opts.PrefetchValues = false
		}
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if bytes.HasPrefix(item.Key(), []byte(chunkDocPrefix+":")) {
				continue
			}

			if filter == nil {
				count++
				continue
			}

			var record *storage.ChunkRecord
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalChunkRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record != nil && filter.Matches(record.Meta) {
				count++
			}
		}
		return nil
	}, false)

	return count, err
}

// DeleteDocumentChunks removes all chunks belonging to a document and
// returns the number removed. Deleting a document with no stored chunks
// is not an error.
func (r *ChunkRepository) DeleteDocumentChunks(ctx context.Context, documentId core.ID) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Collect chunk IDs from the document index before deleting;
		// the iterator must be closed before the transaction mutates.
		startKey := makePartialChunkDocKey(documentId)
		var chunkIDs []core.ID

		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || !bytes.HasPrefix(key, startKey) {
				break
			}

			var chunkID core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				iter.Close()
				return err
			}
			chunkIDs = append(chunkIDs, chunkID)
		}
		iter.Close()

		for _, chunkID := range chunkIDs {
			if err := tx.Delete(makeChunkKey(chunkID)); err != nil {
				return err
			}
			if err := tx.Delete(makeChunkDocKey(documentId, chunkID)); err != nil {
				return err
			}
			deleted++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// DocumentIDs returns the distinct document IDs that have stored chunks,
// in ascending order.
func (r *ChunkRepository) DocumentIDs(ctx context.Context) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkDocPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			docID, ok := documentIDFromDocKey(iter.Item().Key())
			if !ok {
				continue
			}
			// Index keys are sorted, so duplicates are adjacent
			if len(ids) == 0 || ids[len(ids)-1] != docID {
				ids = append(ids, docID)
			}
		}
		return nil
	}, false)

	return ids, err
}

// readChunkRecord reads a chunk record from the transaction.
func readChunkRecord(tx *badger.Txn, key []byte) (*storage.ChunkRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *storage.ChunkRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalChunkRecord(val)
		return unmarshalErr
	})
	return record, err
}
