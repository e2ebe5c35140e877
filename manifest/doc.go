// Package manifest tracks which source documents have been ingested, under
// what configuration, and with what outcome tallies.
//
// The manifest is a single JSON file updated atomically after each document
// commits: the new state is written to a temp file and renamed over the old
// one. A crash mid-document therefore leaves the manifest exactly as it was
// before that document started, and the orchestrator re-discovers the
// half-processed document on the next run.
//
// A flock-based RunLock alongside the manifest keeps two ingestion runs from
// mutating the same store concurrently.
package manifest
