package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/canonit/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix = "chkrec"
	chunkDocPrefix    = "chkrecd"
	topicRecordPrefix = "toprec"
)

// makeChunkKey generates a key for a chunk record by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeChunkDocKey generates a composite key for the document index.
// Format: prefix:documentID:chunkID
func makeChunkDocKey(documentID, chunkID core.ID) []byte {
	prefix := chunkDocPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for documentID + 8 bytes for chunkID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makePartialChunkDocKey generates a partial key for per-document queries.
// Format: prefix:documentID
func makePartialChunkDocKey(documentID core.ID) []byte {
	prefix := chunkDocPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for documentID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// documentIDFromDocKey extracts the document ID from a document index key.
func documentIDFromDocKey(key []byte) (core.ID, bool) {
	prefix := []byte(chunkDocPrefix + ":")
	if len(key) < len(prefix)+8 {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(prefix):])), true
}

// makeTopicKey generates a key for a topic by ID.
func makeTopicKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", topicRecordPrefix, id))
}
