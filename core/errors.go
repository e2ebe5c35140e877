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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a SourceDocument failed validation.
	ErrInvalidDocument = errors.New("invalid source document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidTopic indicates a Topic failed validation.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrInvalidOrigin indicates an unrecognized origin value.
	ErrInvalidOrigin = errors.New("invalid origin")

	// ErrEmptyText indicates a required text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyPath indicates the document path is empty.
	ErrEmptyPath = errors.New("document path cannot be empty")

	// ErrEmptyChecksum indicates the document checksum is empty.
	ErrEmptyChecksum = errors.New("document checksum cannot be empty")

	// ErrTokenBounds indicates a chunk token count is outside the configured range.
	ErrTokenBounds = errors.New("token count out of bounds")

	// ErrInvalidVector indicates an embedding has the wrong dimension or a
	// non-finite component.
	ErrInvalidVector = errors.New("invalid embedding vector")

	// ErrEmptyTopicName indicates the topic Name field is empty.
	ErrEmptyTopicName = errors.New("topic name cannot be empty")

	// ErrNoTopicKeywords indicates a topic carries no keywords.
	ErrNoTopicKeywords = errors.New("topic must have at least one keyword")
)
