// Package hash implements the built-in deterministic embedder.
//
// It exists so the pipeline can run fully offline: no model downloads, no
// embedding service, and byte-identical vectors on every run, which the
// re-ingestion guarantees depend on. For corpora where lexical overlap is a
// poor similarity proxy, configure a real embedding model instead.
package hash
