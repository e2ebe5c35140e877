package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/canonit/core"
	"github.com/poiesic/canonit/storage"
)

// TopicRepository implements storage.TopicRepository for BadgerDB.
type TopicRepository struct {
	backend *Backend
}

var _ storage.TopicRepository = (*TopicRepository)(nil)

// NewTopicRepository creates a new TopicRepository.
func NewTopicRepository(backend *Backend) (*TopicRepository, error) {
	return &TopicRepository{
		backend: backend,
	}, nil
}

// Close releases resources. TopicRepository has no resources to release.
func (r *TopicRepository) Close() error {
	return nil
}

// PutTopics stores one or more topics. An existing topic with the same ID
// is replaced, but its InsertedAt timestamp and chunk count are preserved.
func (r *TopicRepository) PutTopics(ctx context.Context, topics ...*core.Topic) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, topic := range topics {
			// Use content-based ID if not set
			if topic.Id == 0 {
				topic.Id = core.IDFromContent(topic.Name)
			}

			key := makeTopicKey(topic.Id)
			old, err := readTopic(tx, key)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			if old != nil {
				topic.InsertedAt = old.InsertedAt
				topic.ChunkCount = old.ChunkCount
			} else {
				topic.InsertedAt = now
			}
			topic.UpdatedAt = now

			value, err := storage.MarshalTopic(topic)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetTopic retrieves a single topic by ID.
func (r *TopicRepository) GetTopic(ctx context.Context, id core.ID) (*core.Topic, error) {
	var result *core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeTopicKey(id)
		var err error
		result, err = readTopic(tx, key)
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

// GetTopics retrieves all topics, ordered by name.
func (r *TopicRepository) GetTopics(ctx context.Context) ([]*core.Topic, error) {
	var results []*core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(topicRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var topic *core.Topic
			err := iter.Item().Value(func(val []byte) error {
				var err error
				topic, err = storage.UnmarshalTopic(val)
				return err
			})
			if err != nil {
				return err
			}
			if topic != nil {
				results = append(results, topic)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Topic) int {
		return strings.Compare(a.Name, b.Name)
	})

	return results, nil
}

// DeleteAllTopics removes every stored topic and returns the number removed.
func (r *TopicRepository) DeleteAllTopics(ctx context.Context) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Collect keys first, then delete after the iterator is closed
		var keys [][]byte
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(topicRecordPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
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

// IncrementChunkCount adjusts a topic's chunk count by delta. The count
// never goes below zero.
func (r *TopicRepository) IncrementChunkCount(ctx context.Context, id core.ID, delta int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeTopicKey(id)
		topic, err := readTopic(tx, key)
		if err != nil {
			return err
		}
		if topic == nil {
			return storage.ErrNotFound
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
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readTopic reads a topic from the transaction.
func readTopic(tx *badger.Txn, key []byte) (*core.Topic, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var topic *core.Topic
	err = item.Value(func(val []byte) error {
		var err error
		topic, err = storage.UnmarshalTopic(val)
		return err
	})
	return topic, err
}
