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


// Package extract converts source document formats into plain text segments.
//
// Each format lives in its own sub-package and implements the Extractor
// interface:
//
//   - extract/pdf: paginated PDF text via the pdftotext tool
//   - extract/text: plain text and Markdown with heading sections
//   - extract/html: HTML with boilerplate tags stripped
//   - extract/jsonl: pre-segmented records exported by other tools
//
// Extractors are selected by file extension through a Registry. They have no
// side effects: the only output is the returned segments, each carrying page
// and section provenance for later citation.
//
// A file the registry has no extractor for fails with ErrUnsupported; a file
// whose extractor cannot parse it fails with ErrUnreadable. Both are
// per-document conditions, not run failures.
package extract
