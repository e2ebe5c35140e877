// Package ingest orchestrates ingestion runs over a document corpus.
//
// A run discovers documents under the corpus root (authoritative/ first,
// then external/), extracts and chunks their text, embeds the chunks, and
// stores them with citation metadata. External chunks additionally pass
// the semantic validator; chunks that duplicate or contradict the
// authoritative source are dropped and tallied rather than stored.
//
// Per document the pipeline moves through discovered, validated, chunked,
// embedded, screened (external only), stored, and committed; a document
// whose format cannot be read, or whose chunks all fail screening, ends in
// a terminal rejected state without aborting the run. The manifest entry
// is written last, so a crash mid-document leaves the manifest consistent
// and the next run reprocesses that document from scratch.
//
// Runs against the same manifest are serialized through a lock file.
// Within a run, embedding is the only parallel operation; store and
// manifest writes stay on the run goroutine.
package ingest
