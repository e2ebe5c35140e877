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


package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/poiesic/canonit/core"
)

// Stored values are JSON. One readable codec serves store values, the
// manifest file, and ingestion reports, and any record can be inspected
// with standard tools when debugging an ingest.

// MarshalID serializes an ID to fixed-width big-endian bytes, suitable for
// index values and lexicographically ordered keys.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: id needs 8 bytes, got %d", ErrSerializationFailed, len(data))
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalChunkRecord serializes a chunk with its metadata to bytes.
func MarshalChunkRecord(record *ChunkRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk record: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalChunkRecord deserializes a chunk record from bytes.
func UnmarshalChunkRecord(data []byte) (*ChunkRecord, error) {
	var record ChunkRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: chunk record: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalTopic serializes a Topic to bytes.
func MarshalTopic(topic *core.Topic) ([]byte, error) {
	data, err := json.Marshal(topic)
	if err != nil {
		return nil, fmt.Errorf("%w: topic: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalTopic deserializes a Topic from bytes.
func UnmarshalTopic(data []byte) (*core.Topic, error) {
	var topic core.Topic
	if err := json.Unmarshal(data, &topic); err != nil {
		return nil, fmt.Errorf("%w: topic: %w", ErrSerializationFailed, err)
	}
	return &topic, nil
}
