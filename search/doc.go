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


// Package search answers questions from the ingested corpus.
//
// The Searcher embeds a question, retrieves the nearest stored chunks, and
// ranks them by vector similarity with a verbatim-match bonus for chunks
// containing every content word of the question. Results carry the chunk,
// its stored metadata, and a rendered citation, so callers can always point
// back to the source document.
package search
