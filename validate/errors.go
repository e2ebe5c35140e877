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


package validate

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrTopicRepositoryRequired is returned when a topic repository is not provided.
	ErrTopicRepositoryRequired = errors.New("topic repository required")

	// ErrNoVector is returned when a chunk is validated without an embedding.
	ErrNoVector = errors.New("chunk has no embedding vector")

	// ErrInvalidThreshold is returned when a threshold option is outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")

	// ErrInvalidTopK is returned when the neighbor count option is not positive.
	ErrInvalidTopK = errors.New("neighbor count must be positive")
)
