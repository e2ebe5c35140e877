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


// Package storage provides the storage abstraction layer for canonit.
//
// This package defines repository interfaces that decouple storage
// implementation from pipeline logic, so different vector store backends can
// be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors follow a strict "return interface" pattern to enforce
// abstraction:
//
//	chunks, err := badger.NewChunkRepository(backend)  // storage.ChunkRepository
//
// Internal constructors may return concrete types since they are only used
// within the implementation package.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - ChunkRepository: chunk records (text + vector + citation metadata),
//     similarity queries, per-document deletion
//   - TopicRepository: topics extracted from the authoritative source
//
// Two backends ship with the pipeline:
//
//   - storage/badger: embedded BadgerDB, the default; similarity queries
//     scan chunk records and rank by cosine
//   - storage/pgvector: PostgreSQL with the pgvector extension, for
//     deployments that already run Postgres; ranking happens in SQL
//
// # Determinism
//
// QuerySimilar results are fully ordered: score descending, then document
// ID, then chunk sequence. Two stores built from the same corpus return
// identical result lists for the same query.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// Use in tests with in-memory storage:
//
//	chunks, topics, backend, err := badger.NewMemoryStores()
//
// # Thread Safety
//
// All repository implementations must be thread-safe. Ingestion serializes
// writes on one goroutine, but searches may run concurrently with them.
package storage
