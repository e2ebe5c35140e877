// Package pgvector provides a Postgres-backed implementation of the
// storage repositories using the pgvector extension.
//
// Unlike the badger backend, similarity queries run server-side through
// the `<=>` cosine distance operator with an ivfflat index, so this
// backend suits corpora too large for a full in-process scan. Chunk and
// topic records are stored as JSONB alongside the columns used for
// filtering (document_id, origin, topic) and the embedding column used
// for ordering.
//
// The store requires a database where `CREATE EXTENSION vector` is
// permitted; tables and indexes are created on Open.
package pgvector
