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


package core

import (
	"fmt"
	"strings"
)

// ValidateSourceDocument validates a SourceDocument according to domain rules.
//
// Validation rules:
//   - Path must not be empty
//   - Checksum must not be empty
//   - Origin must be valid (authoritative or external)
//   - Authoritative documents must not carry related topics; their content
//     defines the topics rather than referencing them
//
// NOT validated (populated later):
//   - Language (detection is best-effort)
//   - RelatedTopics for external documents (empty means all topics)
func ValidateSourceDocument(doc *SourceDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Path == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyPath)
	}

	if doc.Checksum == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyChecksum)
	}

	if err := ValidateOrigin(doc.Origin); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if doc.Origin == OriginAuthoritative && len(doc.RelatedTopics) > 0 {
		return fmt.Errorf("%w: authoritative document %q lists related topics", ErrInvalidDocument, doc.Path)
	}

	return nil
}

// ValidateChunk validates a Chunk against the configured token bounds.
//
// Validation rules:
//   - Text must not be empty or whitespace-only
//   - TokenCount must lie within [minTokens, maxTokens]
//   - Seq must not be negative
//
// NOT validated here:
//   - Vector (can be empty until the embedder runs; see ValidateVector)
func ValidateChunk(chunk *Chunk, minTokens, maxTokens int) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.TokenCount < minTokens || chunk.TokenCount > maxTokens {
		return fmt.Errorf("%w: %w: %d not in [%d, %d]", ErrInvalidChunk, ErrTokenBounds, chunk.TokenCount, minTokens, maxTokens)
	}

	if chunk.Seq < 0 {
		return fmt.Errorf("%w: negative sequence %d", ErrInvalidChunk, chunk.Seq)
	}

	return nil
}

// ValidateVector checks that an embedding has the expected dimension and
// only finite components. Vectors failing this must never be stored.
func ValidateVector(v []float32, dimensions int) error {
	if len(v) != dimensions {
		return fmt.Errorf("%w: dimension %d, want %d", ErrInvalidVector, len(v), dimensions)
	}
	if !IsFinite(v) {
		return fmt.Errorf("%w: non-finite component", ErrInvalidVector)
	}
	return nil
}

// ValidateTopic validates a Topic according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Keywords must contain at least one entry
//
// NOT validated:
//   - Vector (can be empty until embedded)
//   - ChunkCount (maintained by the store)
func ValidateTopic(topic *Topic) error {
	if topic == nil {
		return fmt.Errorf("%w: topic is nil", ErrInvalidTopic)
	}

	if topic.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTopic, ErrEmptyTopicName)
	}

	if len(topic.Keywords) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTopic, ErrNoTopicKeywords)
	}

	return nil
}

// ValidateOrigin validates that an Origin has a valid value.
func ValidateOrigin(origin Origin) error {
	if origin != OriginAuthoritative && origin != OriginExternal {
		return fmt.Errorf("%w: value %d", ErrInvalidOrigin, origin)
	}
	return nil
}
