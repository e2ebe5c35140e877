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


package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/canonit/core"
)

// Tracker reads and updates a manifest file. Every mutation is written back
// atomically, so a crash mid-run loses at most the document being processed,
// never the manifest itself.
type Tracker struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	loaded bool
	m      *Manifest
}

// Option configures a Tracker.
type Option func(*Tracker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) error {
		if logger == nil {
			logger = slog.Default()
		}
		t.logger = logger.With("component", "manifest")
		return nil
	}
}

// NewTracker creates a tracker for the manifest file at path. The file does
// not have to exist yet; it is created on the first recorded entry.
func NewTracker(path string, opts ...Option) (*Tracker, error) {
	if path == "" {
		return nil, ErrPathRequired
	}

	t := &Tracker{
		path:   path,
		logger: slog.Default().With("component", "manifest"),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Path returns the manifest file location.
func (t *Tracker) Path() string {
	return t.path
}

// ensure loads the manifest from disk once. Callers must hold t.mu.
func (t *Tracker) ensure() error {
	if t.loaded {
		return nil
	}

	raw, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		t.m = &Manifest{Version: manifestVersion, Entries: make(map[string]*Entry)}
		t.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if m.Version > manifestVersion {
		return fmt.Errorf("%w: version %d is newer than supported version %d", ErrCorrupt, m.Version, manifestVersion)
	}
	if m.Entries == nil {
		m.Entries = make(map[string]*Entry)
	}

	t.m = &m
	t.loaded = true
	return nil
}

// Load returns a copy of the current manifest state.
func (t *Tracker) Load() (*Manifest, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensure(); err != nil {
		return nil, err
	}

	out := *t.m
	out.Entries = make(map[string]*Entry, len(t.m.Entries))
	for path, entry := range t.m.Entries {
		e := *entry
		out.Entries[path] = &e
	}
	return &out, nil
}

// VerifySnapshot checks the manifest was built with the given configuration.
// A manifest without entries adopts the configuration instead; one built
// under a different configuration fails with ErrConfigMismatch naming the
// fields that changed.
func (t *Tracker) VerifySnapshot(current Snapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensure(); err != nil {
		return err
	}

	if len(t.m.Entries) == 0 {
		t.m.Config = current
		return nil
	}
	if diff := t.m.Config.Diff(current); len(diff) != 0 {
		return fmt.Errorf("%w: %s changed, rebuild required", ErrConfigMismatch, strings.Join(diff, ", "))
	}
	return nil
}

// Snapshot returns the configuration the manifest was built with.
func (t *Tracker) Snapshot() (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensure(); err != nil {
		return Snapshot{}, err
	}
	return t.m.Config, nil
}

// ShouldReprocess reports whether the document needs ingesting: it is absent
// from the manifest or its checksum changed since it was last committed.
// When the manifest cannot be read, reprocessing is the safe answer.
func (t *Tracker) ShouldReprocess(doc *core.SourceDocument) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensure(); err != nil {
		t.logger.Warn("manifest unreadable, reprocessing", "path", doc.Path, "err", err)
		return true
	}

	entry, ok := t.m.Entries[doc.Path]
	if !ok {
		return true
	}
	return entry.Checksum != doc.Checksum
}

// Record commits one document's entry and writes the manifest to disk.
func (t *Tracker) Record(path string, entry Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensure(); err != nil {
		return err
	}

	if entry.IngestedAt.IsZero() {
		entry.IngestedAt = time.Now().UTC()
	}
	t.m.Entries[path] = &entry
	return t.save()
}

// Forget removes a document's entry and writes the manifest to disk.
// Forgetting an unknown path is a no-op.
func (t *Tracker) Forget(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensure(); err != nil {
		return err
	}

	if _, ok := t.m.Entries[path]; !ok {
		return nil
	}
	delete(t.m.Entries, path)
	return t.save()
}

// Reset discards all entries and pins the manifest to the given
// configuration. Used by rebuild runs after the store has been cleared.
func (t *Tracker) Reset(current Snapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.m = &Manifest{
		Version: manifestVersion,
		Config:  current,
		Entries: make(map[string]*Entry),
	}
	t.loaded = true
	return t.save()
}

// Paths returns the document paths currently committed in the manifest.
func (t *Tracker) Paths() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensure(); err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(t.m.Entries)), nil
}

// Totals sums the tallies across all committed documents.
func (t *Tracker) Totals() (Tally, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensure(); err != nil {
		return Tally{}, err
	}

	var total Tally
	for _, entry := range t.m.Entries {
		total.Add(entry.Tally)
	}
	return total, nil
}

// save writes the manifest atomically: marshal to a temp file in the same
// directory, then rename over the target. Callers must hold t.mu.
func (t *Tracker) save() error {
	t.m.UpdatedAt = time.Now().UTC()

	raw, err := json.MarshalIndent(t.m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("creating manifest temp file: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}
