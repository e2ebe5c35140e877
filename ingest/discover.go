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


package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/canonit/core"
	"github.com/poiesic/canonit/extract"
)

// Discover walks the corpus root and returns the documents to ingest,
// authoritative first, then external, each ordered by path. The corpus
// layout is fixed: authoritative/ holds the source of truth, external/
// holds supplemental content, and directories below external/ become
// topic hints on the documents they contain.
//
// Files with no registered extractor and dotfiles are skipped with a log
// line. A file that cannot be read is skipped the same way; if it matters,
// it will be visible again on the next run.
func Discover(root string, registry *extract.Registry, logger *slog.Logger) ([]*core.SourceDocument, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrCorpusLayout)
	}

	var docs []*core.SourceDocument
	found := false
	for _, origin := range []core.Origin{core.OriginAuthoritative, core.OriginExternal} {
		dir := filepath.Join(root, origin.String())
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return nil, err
		}
		found = true

		batch, err := discoverOrigin(root, dir, origin, registry, logger)
		if err != nil {
			return nil, err
		}
		docs = append(docs, batch...)
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", root, ErrCorpusLayout)
	}

	return docs, nil
}

// discoverOrigin collects the documents under one origin directory.
// filepath.WalkDir visits entries in lexical order, so the result is
// deterministic for a given tree.
func discoverOrigin(root, dir string, origin core.Origin, registry *extract.Registry, logger *slog.Logger) ([]*core.SourceDocument, error) {
	var docs []*core.SourceDocument

	err := filepath.WalkDir(dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() {
			if p != dir && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !registry.Supported(p) {
			logger.Warn("skipping unsupported file", "path", rel)
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", rel, "err", err)
			return nil
		}

		doc := &core.SourceDocument{
			Path:         rel,
			Checksum:     core.Checksum(data),
			Origin:       origin,
			Language:     languageUndetermined,
			DiscoveredAt: time.Now().UTC(),
		}
		if origin == core.OriginExternal {
			doc.RelatedTopics = topicHints(rel)
		}
		if err := core.ValidateSourceDocument(doc); err != nil {
			return fmt.Errorf("discovered %s: %w", rel, err)
		}

		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// topicHints derives topic hints from the directory components between the
// origin directory and the file. external/benefits/dental/faq.md yields
// ["benefits", "dental"]; a file directly under external/ yields none,
// which screens it against every topic.
func topicHints(rel string) []string {
	dir := path.Dir(rel)
	parts := strings.Split(dir, "/")
	if len(parts) <= 1 {
		return nil
	}
	return parts[1:]
}
